package auth

import (
	"context"
	"errors"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/ydrx/ydrx/internal/common"
	"github.com/ydrx/ydrx/internal/interfaces"
	"github.com/ydrx/ydrx/internal/models"
	"github.com/ydrx/ydrx/internal/storage"
)

func newTestStore(t *testing.T) *storage.DocumentStore {
	t.Helper()
	logger := common.NewSilentLogger()
	blobs, err := storage.NewFileBlobStore(logger, &common.FileConfig{BasePath: t.TempDir()})
	if err != nil {
		t.Fatalf("NewFileBlobStore: %v", err)
	}
	return storage.NewDocumentStore(logger, blobs, "ydrx_db_v1")
}

// fakeProvider is an in-memory IdentityProvider for tests.
type fakeProvider struct {
	accounts  map[string]string            // email -> password
	metadata  map[string]map[string]string // email -> profile metadata
	session   *models.RemoteIdentity
	handlers  []interfaces.AuthStateHandler
	failProbe int // GetCurrentUser errors this many times first
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{
		accounts: map[string]string{},
		metadata: map[string]map[string]string{},
	}
}

func (p *fakeProvider) identityFor(email string) *models.RemoteIdentity {
	return &models.RemoteIdentity{
		ID:       "remote-" + strings.SplitN(email, "@", 2)[0] + "-0000",
		Email:    email,
		Metadata: p.metadata[email],
	}
}

func (p *fakeProvider) SignUp(ctx context.Context, email, password string, metadata map[string]string) (*models.RemoteIdentity, error) {
	if _, ok := p.accounts[email]; ok {
		return nil, errors.New("User already registered")
	}
	p.accounts[email] = password
	p.metadata[email] = metadata
	identity := p.identityFor(email)
	p.session = identity
	p.emit(interfaces.AuthEventSignedIn, identity)
	return identity, nil
}

func (p *fakeProvider) SignInWithPassword(ctx context.Context, email, password string) (*models.RemoteIdentity, error) {
	if p.accounts[email] != password {
		return nil, errors.New("Invalid login credentials")
	}
	identity := p.identityFor(email)
	p.session = identity
	p.emit(interfaces.AuthEventSignedIn, identity)
	return identity, nil
}

func (p *fakeProvider) SignOut(ctx context.Context) error {
	p.session = nil
	p.emit(interfaces.AuthEventSignedOut, nil)
	return nil
}

func (p *fakeProvider) GetCurrentUser(ctx context.Context) (*models.RemoteIdentity, error) {
	if p.failProbe > 0 {
		p.failProbe--
		return nil, errors.New("connection refused")
	}
	return p.session, nil
}

func (p *fakeProvider) OnAuthStateChange(handler interfaces.AuthStateHandler) {
	p.handlers = append(p.handlers, handler)
}

func (p *fakeProvider) emit(event string, identity *models.RemoteIdentity) {
	for _, h := range p.handlers {
		h(event, identity)
	}
}

var _ interfaces.IdentityProvider = (*fakeProvider)(nil)

func TestRegister_Local(t *testing.T) {
	store := newTestStore(t)
	svc := NewService(store, nil, common.NewSilentLogger())
	ctx := context.Background()

	user, err := svc.Register(ctx, "Ana@Example.com", "secret", "Ana")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if user.Email != "ana@example.com" {
		t.Errorf("email = %q, want lowercased", user.Email)
	}
	if user.Handle != "@ana" {
		t.Errorf("handle = %q, want @ana", user.Handle)
	}
	if user.Balance != 0 || user.Role != models.RoleUser {
		t.Errorf("unexpected new user: %+v", user)
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("secret")) != nil {
		t.Error("password hash does not verify")
	}

	doc, _ := store.Load(ctx)
	if doc.Session.CurrentUserID != user.ID {
		t.Error("register should sign the user in")
	}
}

func TestRegister_Conflicts(t *testing.T) {
	store := newTestStore(t)
	svc := NewService(store, nil, common.NewSilentLogger())
	ctx := context.Background()

	if _, err := svc.Register(ctx, "a@x.com", "secret1", "ana"); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if _, err := svc.Register(ctx, "a@x.com", "secret1", "other"); !errors.Is(err, models.ErrEmailTaken) {
		t.Errorf("duplicate email = %v, want ErrEmailTaken", err)
	}
	if _, err := svc.Register(ctx, "b@x.com", "secret1", "ana"); !errors.Is(err, models.ErrHandleTaken) {
		t.Errorf("duplicate handle = %v, want ErrHandleTaken", err)
	}
	if _, err := svc.Register(ctx, models.SeedAdminEmail, "secret1", "somebody"); !errors.Is(err, models.ErrEmailTaken) {
		t.Errorf("seed admin email = %v, want ErrEmailTaken", err)
	}
}

func TestRegister_ValidationMinimums(t *testing.T) {
	store := newTestStore(t)
	svc := NewService(store, nil, common.NewSilentLogger())
	ctx := context.Background()

	if _, err := svc.Register(ctx, "short@x.com", "pw", "validhandle"); !errors.Is(err, models.ErrPasswordTooShort) {
		t.Errorf("short password = %v, want ErrPasswordTooShort", err)
	}
	if _, err := svc.Register(ctx, "tiny@x.com", "longenough", "a"); !errors.Is(err, models.ErrHandleTooShort) {
		t.Errorf("short handle = %v, want ErrHandleTooShort", err)
	}
	// Normalization can shrink a handle below the minimum.
	if _, err := svc.Register(ctx, "sym@x.com", "longenough", "!!a!!"); !errors.Is(err, models.ErrHandleTooShort) {
		t.Errorf("symbol handle = %v, want ErrHandleTooShort", err)
	}

	doc, _ := store.Load(ctx)
	if len(doc.Users) != 1 {
		t.Errorf("rejected registrations created users: %d", len(doc.Users))
	}
}

func TestLogin_Local(t *testing.T) {
	store := newTestStore(t)
	svc := NewService(store, nil, common.NewSilentLogger())
	ctx := context.Background()

	// The seeded admin can sign in with the default password.
	admin, err := svc.Login(ctx, models.SeedAdminEmail, models.SeedAdminPassword)
	if err != nil {
		t.Fatalf("Login admin: %v", err)
	}
	if admin.ID != models.SeedAdminID || !admin.IsAdmin() {
		t.Errorf("admin login = %+v", admin)
	}

	if _, err := svc.Login(ctx, models.SeedAdminEmail, "wrong"); !errors.Is(err, models.ErrInvalidCredentials) {
		t.Errorf("bad password = %v, want ErrInvalidCredentials", err)
	}
	if _, err := svc.Login(ctx, "ghost@x.com", "pw"); !errors.Is(err, models.ErrInvalidCredentials) {
		t.Errorf("unknown email = %v, want ErrInvalidCredentials", err)
	}
}

func TestLogoutAndCurrentUser(t *testing.T) {
	store := newTestStore(t)
	svc := NewService(store, nil, common.NewSilentLogger())
	ctx := context.Background()

	if _, err := svc.CurrentUser(ctx); !errors.Is(err, models.ErrNotAuthenticated) {
		t.Errorf("CurrentUser signed out = %v, want ErrNotAuthenticated", err)
	}

	if _, err := svc.Login(ctx, models.SeedAdminEmail, models.SeedAdminPassword); err != nil {
		t.Fatalf("Login: %v", err)
	}
	user, err := svc.CurrentUser(ctx)
	if err != nil || user.ID != models.SeedAdminID {
		t.Fatalf("CurrentUser = %+v, %v", user, err)
	}

	if err := svc.Logout(ctx); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if _, err := svc.CurrentUser(ctx); !errors.Is(err, models.ErrNotAuthenticated) {
		t.Errorf("CurrentUser after logout = %v, want ErrNotAuthenticated", err)
	}

	// Logging out while signed out is fine.
	if err := svc.Logout(ctx); err != nil {
		t.Errorf("second Logout: %v", err)
	}
}

func TestLogin_ProviderCreatesLocalAccount(t *testing.T) {
	store := newTestStore(t)
	provider := newFakeProvider()
	provider.accounts["ana@x.com"] = "pw"
	svc := NewService(store, provider, common.NewSilentLogger())
	ctx := context.Background()

	user, err := svc.Login(ctx, "ana@x.com", "pw")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if user.Handle != "@user_remote" {
		t.Errorf("handle = %q, want derived from remote id", user.Handle)
	}
	if user.PasswordHash != "" {
		t.Error("provider-backed account should have no local hash")
	}

	// Re-binding keeps the same local account and its balance.
	if _, err := store.Update(ctx, func(d *models.Document) error {
		d.UserByID(user.ID).Balance = 75
		return nil
	}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	again, err := svc.Login(ctx, "ana@x.com", "pw")
	if err != nil {
		t.Fatalf("second Login: %v", err)
	}
	if again.ID != user.ID {
		t.Errorf("re-login forked the account: %q vs %q", again.ID, user.ID)
	}
	if again.Balance != 75 {
		t.Errorf("balance after re-login = %v, want 75", again.Balance)
	}

	if _, err := svc.Login(ctx, "ana@x.com", "bad"); err == nil || err.Error() != "Invalid login credentials" {
		t.Errorf("provider error = %v, want passed through verbatim", err)
	}
}

func TestRegister_ProviderReceivesHandle(t *testing.T) {
	store := newTestStore(t)
	provider := newFakeProvider()
	svc := NewService(store, provider, common.NewSilentLogger())
	ctx := context.Background()

	user, err := svc.Register(ctx, "ana@x.com", "secret1", "Ana")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if got := provider.metadata["ana@x.com"]["handle"]; got != "@ana" {
		t.Errorf("provider metadata handle = %q, want @ana", got)
	}
	if user.Handle != "@ana" {
		t.Errorf("local handle = %q", user.Handle)
	}
}

func TestBindIdentity_AdminSessionUntouched(t *testing.T) {
	store := newTestStore(t)
	provider := newFakeProvider()
	svc := NewService(store, provider, common.NewSilentLogger())
	ctx := context.Background()

	if _, err := store.Update(ctx, func(d *models.Document) error {
		d.Session.CurrentUserID = models.SeedAdminID
		return nil
	}); err != nil {
		t.Fatalf("Update: %v", err)
	}

	user, err := svc.bindIdentity(ctx, &models.RemoteIdentity{ID: "remote-intruder-0000", Email: "intruder@x.com"})
	if err != nil {
		t.Fatalf("bindIdentity: %v", err)
	}
	if user.ID != models.SeedAdminID {
		t.Errorf("bound user = %q, want the signed-in admin", user.ID)
	}

	doc, _ := store.Load(ctx)
	if doc.Session.CurrentUserID != models.SeedAdminID {
		t.Errorf("session = %q, want admin untouched", doc.Session.CurrentUserID)
	}
	if len(doc.Users) != 1 {
		t.Errorf("users = %d, remote event should not create accounts past the admin session", len(doc.Users))
	}
}

func TestBindIdentity_RefreshesRemoteChanges(t *testing.T) {
	store := newTestStore(t)
	provider := newFakeProvider()
	svc := NewService(store, provider, common.NewSilentLogger())
	ctx := context.Background()

	first, err := svc.bindIdentity(ctx, &models.RemoteIdentity{ID: "remote-abc-0000", Email: "old@x.com"})
	if err != nil {
		t.Fatalf("bindIdentity: %v", err)
	}
	if _, err := store.Update(ctx, func(d *models.Document) error {
		d.UserByID(first.ID).Balance = 75
		return nil
	}); err != nil {
		t.Fatalf("Update: %v", err)
	}

	// Same remote account, new email and handle.
	second, err := svc.bindIdentity(ctx, &models.RemoteIdentity{
		ID:       "remote-abc-0000",
		Email:    "New@x.com",
		Metadata: map[string]string{"handle": "Fresh"},
	})
	if err != nil {
		t.Fatalf("second bindIdentity: %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("re-bind forked the account: %q vs %q", second.ID, first.ID)
	}
	if second.Email != "new@x.com" {
		t.Errorf("email = %q, want refreshed", second.Email)
	}
	if second.Handle != "@fresh" {
		t.Errorf("handle = %q, want refreshed from metadata", second.Handle)
	}
	if second.Balance != 75 {
		t.Errorf("balance = %v, want preserved", second.Balance)
	}

	doc, _ := store.Load(ctx)
	if len(doc.Users) != 2 { // admin + the bound account
		t.Errorf("users = %d, want 2", len(doc.Users))
	}
}

func TestCurrentUser_ReconcilesCachedRemote(t *testing.T) {
	store := newTestStore(t)
	provider := newFakeProvider()
	provider.accounts["ana@x.com"] = "pw"
	svc := NewService(store, provider, common.NewSilentLogger())
	ctx := context.Background()

	if _, err := svc.Login(ctx, "ana@x.com", "pw"); err != nil {
		t.Fatalf("Login: %v", err)
	}

	// The cached identity changed behind our back; the next read reconciles.
	if _, err := store.Update(ctx, func(d *models.Document) error {
		d.Remote.Email = "ana.renamed@x.com"
		return nil
	}); err != nil {
		t.Fatalf("Update: %v", err)
	}

	user, err := svc.CurrentUser(ctx)
	if err != nil {
		t.Fatalf("CurrentUser: %v", err)
	}
	if user.Email != "ana.renamed@x.com" {
		t.Errorf("email = %q, want reconciled from the cached identity", user.Email)
	}

	doc, _ := store.Load(ctx)
	if len(doc.Users) != 2 {
		t.Errorf("users = %d, reconcile must not fork accounts", len(doc.Users))
	}
}

func TestSyncOnStartup(t *testing.T) {
	store := newTestStore(t)
	provider := newFakeProvider()
	provider.accounts["ana@x.com"] = "pw"
	provider.session = provider.identityFor("ana@x.com")
	provider.failProbe = 2
	svc := NewService(store, provider, common.NewSilentLogger())
	ctx := context.Background()

	svc.SyncOnStartup(ctx)

	user, err := svc.CurrentUser(ctx)
	if err != nil {
		t.Fatalf("CurrentUser after sync: %v", err)
	}
	if user.Email != "ana@x.com" {
		t.Errorf("restored user = %+v", user)
	}

	doc, _ := store.Load(ctx)
	if doc.Remote == nil || doc.Remote.Email != "ana@x.com" {
		t.Errorf("remote identity not recorded: %+v", doc.Remote)
	}

	// Provider sign-out propagates through the registered handler.
	provider.SignOut(ctx)
	if _, err := svc.CurrentUser(ctx); !errors.Is(err, models.ErrNotAuthenticated) {
		t.Errorf("CurrentUser after provider sign-out = %v, want ErrNotAuthenticated", err)
	}
}
