package interfaces

import (
	"context"

	"github.com/ydrx/ydrx/internal/models"
)

// AuthService manages accounts and the single local session.
type AuthService interface {
	// Register creates a local account, signs it up with the identity
	// provider when one is configured, and signs it in.
	Register(ctx context.Context, email, password, handle string) (*models.User, error)

	// Login authenticates by email and password and binds the session.
	Login(ctx context.Context, email, password string) (*models.User, error)

	// Logout clears the session. Safe to call when signed out.
	Logout(ctx context.Context) error

	// CurrentUser returns the signed-in user or ErrNotAuthenticated.
	CurrentUser(ctx context.Context) (*models.User, error)

	// SyncOnStartup reconciles the provider session with the local document,
	// retrying briefly while the provider boots. Failure is non-fatal.
	SyncOnStartup(ctx context.Context)
}

// ProductPatch carries optional product updates. Nil fields are left
// untouched, so "unset" and "set to zero value" stay distinguishable.
type ProductPatch struct {
	Name          *string
	Active        *bool
	PerfilPrice   *float64
	CompletaPrice *float64
}

// CatalogService manages the product catalog and stock pools.
type CatalogService interface {
	// ListActiveProducts returns products visible to shoppers.
	ListActiveProducts(ctx context.Context) ([]models.Product, error)

	// ListProducts returns the full catalog including inactive products.
	ListProducts(ctx context.Context) ([]models.Product, error)

	// CreateProduct adds a product with both variants. Empty name gets a
	// placeholder; negative prices are coerced to zero.
	CreateProduct(ctx context.Context, name string, perfilPrice, completaPrice float64) (*models.Product, error)

	// UpdateProduct applies the non-nil fields of the patch.
	UpdateProduct(ctx context.Context, productID string, patch ProductPatch) (*models.Product, error)

	// AddStock appends trimmed, non-blank tokens to a variant's pool and
	// returns how many were added.
	AddStock(ctx context.Context, productID, variant string, tokens []string) (int, error)
}

// PurchaseLine is one requested item of a purchase.
type PurchaseLine struct {
	ProductID string `json:"product_id"`
	Variant   string `json:"variant"`
}

// LedgerService handles balance movement: purchases and top-ups.
type LedgerService interface {
	// Purchase redeems one stock token per line against the user's balance.
	// All lines succeed or nothing changes.
	Purchase(ctx context.Context, userID string, lines []PurchaseLine) (*models.Order, error)

	// OrdersForUser returns the user's orders, newest first.
	OrdersForUser(ctx context.Context, userID string) ([]models.Order, error)

	// RequestTopup files a pending top-up for review.
	RequestTopup(ctx context.Context, userID string, amount float64, reference string) (*models.Topup, error)

	// ListTopups returns every top-up, newest first. Admin surface.
	ListTopups(ctx context.Context) ([]models.Topup, error)

	// ApproveTopup credits the requester and marks the top-up approved.
	ApproveTopup(ctx context.Context, topupID string) (*models.Topup, error)

	// RejectTopup marks the top-up rejected without crediting.
	RejectTopup(ctx context.Context, topupID string) (*models.Topup, error)
}

// ReportService renders admin reporting artifacts.
type ReportService interface {
	// SalesChartPNG renders revenue per day for the trailing window.
	SalesChartPNG(ctx context.Context, days int) ([]byte, error)
}
