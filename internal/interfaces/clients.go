package interfaces

import (
	"context"

	"github.com/ydrx/ydrx/internal/models"
)

// Auth state change events emitted by an IdentityProvider.
const (
	AuthEventSignedIn  = "SIGNED_IN"
	AuthEventSignedOut = "SIGNED_OUT"
)

// AuthStateHandler receives identity provider state transitions. The identity
// is nil on sign-out.
type AuthStateHandler func(event string, identity *models.RemoteIdentity)

// IdentityProvider is the external account backend. All methods are optional
// at the application level: when no provider is configured the storefront
// falls back to its local account table.
type IdentityProvider interface {
	// SignUp registers a new remote account and returns its identity. The
	// metadata travels with the remote profile (e.g. the chosen handle) and
	// comes back on later sign-ins from any device.
	SignUp(ctx context.Context, email, password string, metadata map[string]string) (*models.RemoteIdentity, error)

	// SignInWithPassword authenticates and establishes the provider session.
	SignInWithPassword(ctx context.Context, email, password string) (*models.RemoteIdentity, error)

	// SignOut revokes the provider session.
	SignOut(ctx context.Context) error

	// GetCurrentUser returns the identity for the active provider session,
	// or nil when no session is established.
	GetCurrentUser(ctx context.Context) (*models.RemoteIdentity, error)

	// OnAuthStateChange registers a handler invoked on sign-in and sign-out
	// transitions. Registration is explicit; no events fire before it.
	OnAuthStateChange(handler AuthStateHandler)
}
