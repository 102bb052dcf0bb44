package models

import "errors"

// Domain errors. Every failure is recoverable and leaves the persisted
// document exactly as it was before the call.
var (
	// Session
	ErrNotAuthenticated = errors.New("not authenticated")

	// Auth
	ErrInvalidEmail       = errors.New("invalid email")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailTaken         = errors.New("email already registered")
	ErrHandleTaken        = errors.New("handle already taken")
	ErrPasswordTooShort   = errors.New("password must be at least 6 characters")
	ErrHandleTooShort     = errors.New("handle is too short")
	ErrUserNotFound       = errors.New("user not found")

	// Catalog
	ErrProductNotFound = errors.New("product not found")
	ErrVariantUnknown  = errors.New("unknown variant")

	// Transactions
	ErrEmptyPurchase       = errors.New("purchase has no items")
	ErrNoStock             = errors.New("no stock")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrInvalidAmount       = errors.New("amount must be positive")
	ErrTopupNotFound       = errors.New("topup not found")
	ErrTopupProcessed      = errors.New("already processed")
)
