// Package supabase provides a client for the Supabase auth (GoTrue) API.
package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/time/rate"

	"github.com/ydrx/ydrx/internal/common"
	"github.com/ydrx/ydrx/internal/interfaces"
	"github.com/ydrx/ydrx/internal/models"
)

const (
	DefaultTimeout   = 10 * time.Second
	DefaultRateLimit = 10 // requests per second
)

// ErrNoSession is returned when an operation needs a provider session and
// none is established.
var ErrNoSession = errors.New("no provider session")

// Client implements the IdentityProvider interface against the Supabase
// auth REST API. The client holds at most one session at a time.
type Client struct {
	baseURL    string
	anonKey    string
	jwtSecret  string
	httpClient *http.Client
	logger     *common.Logger
	limiter    *rate.Limiter

	mu          sync.Mutex
	accessToken string
	handlers    []interfaces.AuthStateHandler
}

// ClientOption configures the client
type ClientOption func(*Client)

// WithLogger sets the logger
func WithLogger(logger *common.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithHTTPClient sets the HTTP client
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithRateLimit sets the rate limit
func WithRateLimit(requestsPerSecond int) ClientOption {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond)
	}
}

// WithTimeout sets the HTTP timeout
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithJWTSecret enables local token verification, avoiding a network round
// trip on GetCurrentUser.
func WithJWTSecret(secret string) ClientOption {
	return func(c *Client) {
		c.jwtSecret = secret
	}
}

// NewClient creates a new Supabase auth client
func NewClient(baseURL, anonKey string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: baseURL,
		anonKey: anonKey,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		limiter: rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
		logger:  common.NewSilentLogger(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// remoteUser is the GoTrue user payload.
type remoteUser struct {
	ID           string            `json:"id"`
	Email        string            `json:"email"`
	UserMetadata map[string]string `json:"user_metadata,omitempty"`
}

func (u *remoteUser) identity() *models.RemoteIdentity {
	if u == nil || u.ID == "" {
		return nil
	}
	return &models.RemoteIdentity{
		ID:       u.ID,
		Email:    u.Email,
		Metadata: u.UserMetadata,
	}
}

// sessionResponse covers both signup and token responses. GoTrue returns
// the user nested when a session is issued and bare when it is not (for
// example when email confirmation is pending).
type sessionResponse struct {
	AccessToken string      `json:"access_token"`
	User        *remoteUser `json:"user"`
	remoteUser
}

func (r *sessionResponse) user() *remoteUser {
	if r.User != nil && r.User.ID != "" {
		return r.User
	}
	if r.ID != "" {
		return &r.remoteUser
	}
	return nil
}

// apiError is the GoTrue error shape; the field name varies by endpoint.
type apiError struct {
	ErrorDescription string `json:"error_description"`
	Msg              string `json:"msg"`
	Message          string `json:"message"`
}

func (e *apiError) text() string {
	switch {
	case e.ErrorDescription != "":
		return e.ErrorDescription
	case e.Msg != "":
		return e.Msg
	case e.Message != "":
		return e.Message
	}
	return ""
}

// SignUp registers a new account with the provider. Metadata lands in the
// GoTrue user_metadata field.
func (c *Client) SignUp(ctx context.Context, email, password string, metadata map[string]string) (*models.RemoteIdentity, error) {
	body := map[string]interface{}{
		"email":    email,
		"password": password,
	}
	if len(metadata) > 0 {
		body["data"] = metadata
	}

	var resp sessionResponse
	err := c.post(ctx, "/auth/v1/signup", body, "", &resp)
	if err != nil {
		return nil, err
	}

	user := resp.user()
	if user == nil {
		return nil, fmt.Errorf("signup response missing user")
	}

	identity := user.identity()
	if resp.AccessToken != "" {
		c.setSession(resp.AccessToken, identity)
	}

	c.logger.Info().Str("email", email).Msg("Provider signup complete")
	return identity, nil
}

// SignInWithPassword authenticates with the password grant.
func (c *Client) SignInWithPassword(ctx context.Context, email, password string) (*models.RemoteIdentity, error) {
	var resp sessionResponse
	err := c.post(ctx, "/auth/v1/token?grant_type=password", map[string]string{
		"email":    email,
		"password": password,
	}, "", &resp)
	if err != nil {
		return nil, err
	}

	if resp.AccessToken == "" {
		return nil, fmt.Errorf("token response missing access_token")
	}
	user := resp.user()
	if user == nil {
		return nil, fmt.Errorf("token response missing user")
	}

	identity := user.identity()
	c.setSession(resp.AccessToken, identity)
	return identity, nil
}

// SignOut revokes the current session. No-op when signed out.
func (c *Client) SignOut(ctx context.Context) error {
	c.mu.Lock()
	token := c.accessToken
	c.mu.Unlock()

	if token == "" {
		return nil
	}

	// Best effort: the local session clears even if revocation fails.
	if err := c.post(ctx, "/auth/v1/logout", nil, token, nil); err != nil {
		c.logger.Warn().Err(err).Msg("Provider logout failed, clearing session anyway")
	}

	c.clearSession()
	return nil
}

// GetCurrentUser returns the identity of the active session, verifying the
// token locally when a JWT secret is configured and falling back to the
// provider's user endpoint otherwise. Returns nil, nil when signed out.
func (c *Client) GetCurrentUser(ctx context.Context) (*models.RemoteIdentity, error) {
	c.mu.Lock()
	token := c.accessToken
	c.mu.Unlock()

	if token == "" {
		return nil, nil
	}

	if c.jwtSecret != "" {
		if identity, err := c.verifyTokenLocal(token); err == nil {
			return identity, nil
		}
	}

	var user remoteUser
	if err := c.get(ctx, "/auth/v1/user", token, &user); err != nil {
		return nil, err
	}
	return user.identity(), nil
}

// OnAuthStateChange registers a state transition handler.
func (c *Client) OnAuthStateChange(handler interfaces.AuthStateHandler) {
	c.mu.Lock()
	c.handlers = append(c.handlers, handler)
	c.mu.Unlock()
}

// verifyTokenLocal checks the HMAC signature against the configured secret
// and builds the identity from the claims.
func (c *Client) verifyTokenLocal(token string) (*models.RemoteIdentity, error) {
	claims := jwt.MapClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(c.jwtSecret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("jwt parse: %w", err)
	}
	if !parsed.Valid {
		return nil, fmt.Errorf("jwt invalid")
	}

	identity := &models.RemoteIdentity{
		ID:    stringClaim(claims, "sub"),
		Email: stringClaim(claims, "email"),
	}
	if meta, ok := claims["user_metadata"].(map[string]interface{}); ok {
		identity.Metadata = map[string]string{}
		for k, v := range meta {
			if s, ok := v.(string); ok {
				identity.Metadata[k] = s
			}
		}
	}
	if identity.ID == "" {
		return nil, fmt.Errorf("jwt missing sub claim")
	}
	return identity, nil
}

func stringClaim(claims jwt.MapClaims, key string) string {
	if s, ok := claims[key].(string); ok {
		return s
	}
	return ""
}

func (c *Client) setSession(token string, identity *models.RemoteIdentity) {
	c.mu.Lock()
	c.accessToken = token
	handlers := append([]interfaces.AuthStateHandler(nil), c.handlers...)
	c.mu.Unlock()

	for _, h := range handlers {
		h(interfaces.AuthEventSignedIn, identity)
	}
}

func (c *Client) clearSession() {
	c.mu.Lock()
	c.accessToken = ""
	handlers := append([]interfaces.AuthStateHandler(nil), c.handlers...)
	c.mu.Unlock()

	for _, h := range handlers {
		h(interfaces.AuthEventSignedOut, nil)
	}
}

// post performs a rate-limited POST request
func (c *Client) post(ctx context.Context, path string, body interface{}, bearer string, result interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	var payload io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		payload = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, payload)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.setAuthHeaders(req, bearer)

	return c.do(req, result)
}

// get performs a rate-limited GET request
func (c *Client) get(ctx context.Context, path string, bearer string, result interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	c.setAuthHeaders(req, bearer)

	return c.do(req, result)
}

func (c *Client) setAuthHeaders(req *http.Request, bearer string) {
	req.Header.Set("apikey", c.anonKey)
	if bearer == "" {
		bearer = c.anonKey
	}
	req.Header.Set("Authorization", "Bearer "+bearer)
}

func (c *Client) do(req *http.Request, result interface{}) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request %s: %w", req.URL.Path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var apiErr apiError
		if json.Unmarshal(data, &apiErr) == nil {
			// Surface the provider's own message so callers can show it
			// verbatim (e.g. "Invalid login credentials").
			if msg := apiErr.text(); msg != "" {
				return errors.New(msg)
			}
		}
		return fmt.Errorf("provider returned status %d", resp.StatusCode)
	}

	if result != nil && len(data) > 0 {
		if err := json.Unmarshal(data, result); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

// Compile-time interface check
var _ interfaces.IdentityProvider = (*Client)(nil)
