// Package models defines the persisted document shape for YDRX.
package models

import (
	"time"

	"golang.org/x/crypto/bcrypt"
)

// Role values for User.Role.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Variant keys are a fixed set.
const (
	VariantPerfil   = "perfil"
	VariantCompleta = "completa"
)

// Order status. Orders are created paid and never transition.
const OrderStatusPaid = "paid"

// Topup status values. Pending is the only non-terminal state.
const (
	TopupPending  = "pending"
	TopupApproved = "approved"
	TopupRejected = "rejected"
)

// Seeded defaults created on first load.
const (
	SeedAdminID       = "u_admin"
	SeedAdminEmail    = "admin@ydrx.local"
	SeedAdminHandle   = "@admin"
	SeedAdminPassword = "admin123"
	SeedProductID     = "p1"
	SeedProductName   = "Producto 1"
)

// User is a storefront account. PasswordHash is empty when the account is
// backed by the external identity provider.
type User struct {
	ID           string  `json:"id"`
	Email        string  `json:"email"`
	PasswordHash string  `json:"password_hash,omitempty"`
	Handle       string  `json:"handle"`
	Role         string  `json:"role"`
	Balance      float64 `json:"balance"`
}

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Variant holds the price and redeemable stock tokens for one product variant.
// Stock is consumed front-first (FIFO).
type Variant struct {
	Price float64  `json:"price"`
	Stock []string `json:"stock"`
}

// Product is a catalog entry. Products are soft-removed via Active=false and
// never hard-deleted, so order history stays addressable.
type Product struct {
	ID       string              `json:"id"`
	Name     string              `json:"name"`
	Active   bool                `json:"active"`
	Variants map[string]*Variant `json:"variants"`
}

// OrderItem captures one delivered line of an order.
type OrderItem struct {
	ProductID string  `json:"product_id"`
	Name      string  `json:"name"`
	Variant   string  `json:"variant"`
	Price     float64 `json:"price"`
	Delivered string  `json:"delivered"`
}

// Order is an immutable record of a successful purchase.
type Order struct {
	ID     string      `json:"id"`
	UserID string      `json:"user_id"`
	When   time.Time   `json:"when"`
	Items  []OrderItem `json:"items"`
	Total  float64     `json:"total"`
	Status string      `json:"status"`
}

// Topup is a balance top-up request. Status transitions exactly once, from
// pending to approved or rejected.
type Topup struct {
	ID          string     `json:"id"`
	UserID      string     `json:"user_id"`
	Amount      float64    `json:"amount"`
	Reference   string     `json:"reference"`
	Status      string     `json:"status"`
	RequestedAt time.Time  `json:"requested_at"`
	ApprovedAt  *time.Time `json:"approved_at,omitempty"`
	RejectedAt  *time.Time `json:"rejected_at,omitempty"`
}

// Session is the single active local session pointer.
type Session struct {
	CurrentUserID string `json:"current_user_id,omitempty"`
}

// RemoteIdentity mirrors the identity provider's current user so identity
// binding can run without re-querying the provider on every read.
type RemoteIdentity struct {
	ID       string            `json:"id"`
	Email    string            `json:"email"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Document is the entire application state, persisted as one JSON blob.
// Version increases monotonically on every save; a save with a stale version
// is rejected so concurrent writers surface as conflicts instead of silently
// losing updates.
type Document struct {
	Version  int             `json:"version"`
	Users    []User          `json:"users"`
	Products []Product       `json:"products"`
	Orders   []Order         `json:"orders"`
	Topups   []Topup         `json:"topups"`
	Session  Session         `json:"session"`
	Remote   *RemoteIdentity `json:"remote,omitempty"`
}

// DefaultDocument builds the seed state: one admin account and one inactive-
// stock demo product with both variants.
func DefaultDocument() *Document {
	hash, err := bcrypt.GenerateFromPassword([]byte(SeedAdminPassword), 10)
	if err != nil {
		// bcrypt only fails on invalid cost; the seed password is constant.
		panic(err)
	}

	return &Document{
		Version: 0,
		Users: []User{
			{
				ID:           SeedAdminID,
				Email:        SeedAdminEmail,
				PasswordHash: string(hash),
				Handle:       SeedAdminHandle,
				Role:         RoleAdmin,
				Balance:      0,
			},
		},
		Products: []Product{
			{
				ID:     SeedProductID,
				Name:   SeedProductName,
				Active: true,
				Variants: map[string]*Variant{
					VariantPerfil:   {Price: 50, Stock: []string{}},
					VariantCompleta: {Price: 90, Stock: []string{}},
				},
			},
		},
		Orders: []Order{},
		Topups: []Topup{},
	}
}

// UserByID returns a pointer into Users, or nil.
func (d *Document) UserByID(id string) *User {
	if id == "" {
		return nil
	}
	for i := range d.Users {
		if d.Users[i].ID == id {
			return &d.Users[i]
		}
	}
	return nil
}

// UserByEmail returns a pointer into Users matched on the lowercased email.
func (d *Document) UserByEmail(email string) *User {
	for i := range d.Users {
		if d.Users[i].Email == email {
			return &d.Users[i]
		}
	}
	return nil
}

// UserByHandle returns a pointer into Users matched on the normalized handle.
func (d *Document) UserByHandle(handle string) *User {
	for i := range d.Users {
		if d.Users[i].Handle == handle {
			return &d.Users[i]
		}
	}
	return nil
}

// ProductByID returns a pointer into Products, or nil.
func (d *Document) ProductByID(id string) *Product {
	for i := range d.Products {
		if d.Products[i].ID == id {
			return &d.Products[i]
		}
	}
	return nil
}

// TopupByID returns a pointer into Topups, or nil.
func (d *Document) TopupByID(id string) *Topup {
	for i := range d.Topups {
		if d.Topups[i].ID == id {
			return &d.Topups[i]
		}
	}
	return nil
}

// CurrentUser resolves the session pointer against Users, or nil.
func (d *Document) CurrentUser() *User {
	return d.UserByID(d.Session.CurrentUserID)
}
