// Package auth manages accounts, sessions, and identity provider binding.
package auth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/ydrx/ydrx/internal/common"
	"github.com/ydrx/ydrx/internal/interfaces"
	"github.com/ydrx/ydrx/internal/models"
)

// Compile-time interface check
var _ interfaces.AuthService = (*Service)(nil)

const bcryptCost = 10

// Provider session polling at startup. The provider container may still be
// booting when the server comes up.
const (
	startupRetries  = 30
	startupInterval = 100 * time.Millisecond
)

// Service implements AuthService. The identity provider is optional; when
// nil, accounts are purely local.
type Service struct {
	store    interfaces.DocumentStore
	provider interfaces.IdentityProvider
	logger   *common.Logger
}

// NewService creates a new auth service
func NewService(store interfaces.DocumentStore, provider interfaces.IdentityProvider, logger *common.Logger) *Service {
	return &Service{
		store:    store,
		provider: provider,
		logger:   logger,
	}
}

// Register creates an account and signs it in. With a provider configured
// the account is registered remotely first; provider errors pass through
// verbatim so the caller can show them.
func (s *Service) Register(ctx context.Context, email, password, handle string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, models.ErrInvalidEmail
	}
	if len(password) < 6 {
		return nil, models.ErrPasswordTooShort
	}

	if handle == "" {
		handle = strings.SplitN(email, "@", 2)[0]
	}
	handle = common.NormalizeHandle(handle)
	// Minimum length counts the "@" prefix: at least three real characters.
	if len(handle) < 4 {
		return nil, models.ErrHandleTooShort
	}

	// Uniqueness is checked before touching the provider so an obviously
	// doomed registration never creates a dangling remote account.
	doc, err := s.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	if doc.UserByEmail(email) != nil {
		return nil, models.ErrEmailTaken
	}
	if doc.UserByHandle(handle) != nil {
		return nil, models.ErrHandleTaken
	}

	var remoteID string
	var passwordHash string
	if s.provider != nil {
		// The handle travels as profile metadata so other devices binding
		// this remote account recover it instead of deriving a fresh one.
		identity, err := s.provider.SignUp(ctx, email, password, map[string]string{"handle": handle})
		if err != nil {
			return nil, err
		}
		remoteID = identity.ID
	} else {
		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		passwordHash = string(hash)
	}

	var user models.User
	_, err = s.store.Update(ctx, func(d *models.Document) error {
		if d.UserByEmail(email) != nil {
			return models.ErrEmailTaken
		}
		if d.UserByHandle(handle) != nil {
			return models.ErrHandleTaken
		}
		user = models.User{
			ID:           newUserID(remoteID),
			Email:        email,
			PasswordHash: passwordHash,
			Handle:       handle,
			Role:         models.RoleUser,
			Balance:      0,
		}
		d.Users = append(d.Users, user)
		d.Session.CurrentUserID = user.ID
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("user", user.ID).Str("handle", handle).Msg("User registered")
	return &user, nil
}

// Login authenticates and binds the session. Provider-backed when
// configured, local bcrypt comparison otherwise.
func (s *Service) Login(ctx context.Context, email, password string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	if s.provider != nil {
		identity, err := s.provider.SignInWithPassword(ctx, email, password)
		if err != nil {
			return nil, err
		}
		return s.bindIdentity(ctx, identity)
	}

	doc, err := s.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	candidate := doc.UserByEmail(email)
	if candidate == nil || candidate.PasswordHash == "" {
		return nil, models.ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(candidate.PasswordHash), []byte(password)) != nil {
		return nil, models.ErrInvalidCredentials
	}

	var user models.User
	_, err = s.store.Update(ctx, func(d *models.Document) error {
		u := d.UserByEmail(email)
		if u == nil {
			return models.ErrInvalidCredentials
		}
		d.Session.CurrentUserID = u.ID
		user = *u
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("user", user.ID).Msg("User logged in")
	return &user, nil
}

// Logout clears the session. Never fails on an already-empty session.
func (s *Service) Logout(ctx context.Context) error {
	if s.provider != nil {
		if err := s.provider.SignOut(ctx); err != nil {
			s.logger.Warn().Err(err).Msg("Provider sign-out failed")
		}
	}

	_, err := s.store.Update(ctx, func(d *models.Document) error {
		d.Session.CurrentUserID = ""
		d.Remote = nil
		return nil
	})
	return err
}

// CurrentUser resolves the session to a user. With a provider configured and
// a remote identity cached, the identity re-binds on every read so remote
// profile changes reconcile without waiting for the next auth event.
func (s *Service) CurrentUser(ctx context.Context) (*models.User, error) {
	doc, err := s.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	if s.provider != nil && doc.Remote != nil {
		return s.bindIdentity(ctx, doc.Remote)
	}
	user := doc.CurrentUser()
	if user == nil {
		return nil, models.ErrNotAuthenticated
	}
	out := *user
	return &out, nil
}

// SyncOnStartup registers for provider auth events and reconciles any
// session the provider already holds. The provider may still be starting,
// so the initial probe retries briefly; giving up is silent and the
// storefront continues with local accounts.
func (s *Service) SyncOnStartup(ctx context.Context) {
	if s.provider == nil {
		return
	}

	s.provider.OnAuthStateChange(func(event string, identity *models.RemoteIdentity) {
		bg := context.Background()
		switch event {
		case interfaces.AuthEventSignedIn:
			if _, err := s.bindIdentity(bg, identity); err != nil {
				s.logger.Warn().Err(err).Msg("Failed to bind provider identity")
			}
		case interfaces.AuthEventSignedOut:
			if _, err := s.store.Update(bg, func(d *models.Document) error {
				d.Session.CurrentUserID = ""
				d.Remote = nil
				return nil
			}); err != nil {
				s.logger.Warn().Err(err).Msg("Failed to clear session on provider sign-out")
			}
		}
	})

	for attempt := 0; attempt < startupRetries; attempt++ {
		identity, err := s.provider.GetCurrentUser(ctx)
		if err == nil {
			if identity != nil {
				if _, berr := s.bindIdentity(ctx, identity); berr != nil {
					s.logger.Warn().Err(berr).Msg("Failed to restore provider session")
				} else {
					s.logger.Info().Str("remote", identity.ID).Msg("Provider session restored")
				}
			}
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(startupInterval):
		}
	}
	s.logger.Debug().Msg("Provider not reachable at startup, continuing with local accounts")
}

// bindIdentity maps a remote identity onto a local account, creating one on
// first sight and refreshing email and handle on later sightings. Balances
// and roles are purely local and survive re-binding untouched. The local ID
// derives from the remote ID, so the same remote account always lands on the
// same local user even when its email changes.
func (s *Service) bindIdentity(ctx context.Context, identity *models.RemoteIdentity) (*models.User, error) {
	if identity == nil || identity.ID == "" {
		return nil, fmt.Errorf("empty identity")
	}
	email := strings.ToLower(strings.TrimSpace(identity.Email))
	localID := newUserID(identity.ID)

	var user models.User
	_, err := s.store.Update(ctx, func(d *models.Document) error {
		// The seeded admin only exists locally. A provider event while the
		// admin is signed in must not steal or rewrite the session.
		if d.Session.CurrentUserID == models.SeedAdminID {
			admin := d.UserByID(models.SeedAdminID)
			if admin == nil {
				return models.ErrUserNotFound
			}
			user = *admin
			return nil
		}

		u := d.UserByID(localID)
		if u == nil {
			handle := identity.Metadata["handle"]
			if handle == "" {
				handle = "user_" + shortID(identity.ID)
			}
			handle = common.NormalizeHandle(handle)
			if d.UserByHandle(handle) != nil {
				handle = common.NormalizeHandle("user_" + shortID(identity.ID))
			}
			d.Users = append(d.Users, models.User{
				ID:      localID,
				Email:   email,
				Handle:  handle,
				Role:    models.RoleUser,
				Balance: 0,
			})
			u = &d.Users[len(d.Users)-1]
		} else {
			if email != "" && u.Email != email {
				u.Email = email
			}
			if metaHandle := identity.Metadata["handle"]; metaHandle != "" {
				u.Handle = common.NormalizeHandle(metaHandle)
			}
		}
		d.Session.CurrentUserID = u.ID
		d.Remote = &models.RemoteIdentity{ID: identity.ID, Email: email, Metadata: identity.Metadata}
		user = *u
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// newUserID derives a stable local ID from the remote identity when there is
// one, so re-binding the same remote account never forks a second user.
func newUserID(remoteID string) string {
	if remoteID != "" {
		return "u_" + shortID(remoteID)
	}
	return common.NewID("u")
}

func shortID(id string) string {
	clean := strings.ReplaceAll(id, "-", "")
	if len(clean) > 6 {
		clean = clean[:6]
	}
	return clean
}
