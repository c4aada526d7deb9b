// Package firebaseauth implements service.AuthProvider with the Identity
// Toolkit email/password API and the Secure Token refresh endpoint.
package firebaseauth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"google.golang.org/api/googleapi"
	identitytoolkit "google.golang.org/api/identitytoolkit/v3"
	"google.golang.org/api/option"

	"todosync/internal/logger"
	"todosync/internal/service"
	"todosync/internal/session"
)

const (
	// APITimeout is the default timeout for identity calls.
	APITimeout = 5 * time.Second

	defaultTokenURL = "https://securetoken.googleapis.com/v1/token"
)

// Client implements service.AuthProvider. The session survives restarts in
// a session.File; signed-in/signed-out transitions go through a Notifier.
type Client struct {
	svc        *identitytoolkit.Service
	apiKey     string
	tokenURL   string
	httpClient *http.Client
	file       session.File
	log        *logger.Logger
	now        func() time.Time
	timeout    time.Duration

	notifier session.Notifier

	mu  sync.Mutex
	rec *session.Record
}

// Option configures a Client.
type Option func(*options)

type options struct {
	endpoint   string
	httpClient *http.Client
	log        *logger.Logger
	timeout    time.Duration
}

// WithEndpoint points both the identity and token calls at baseURL.
// The token endpoint becomes baseURL + "token".
func WithEndpoint(baseURL string) Option {
	return func(o *options) {
		o.endpoint = baseURL
	}
}

// WithHTTPClient sets the HTTP client used for every call.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) {
		o.httpClient = c
	}
}

// WithLogger sets the logger.
func WithLogger(log *logger.Logger) Option {
	return func(o *options) {
		o.log = log
	}
}

// WithTimeout bounds each identity call. Zero keeps APITimeout.
func WithTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.timeout = d
		}
	}
}

// New creates a client for the project identified by apiKey and restores
// any session stored in file.
func New(ctx context.Context, apiKey string, file session.File, opts ...Option) (*Client, error) {
	if apiKey == "" {
		return nil, errors.New("firebase auth: api key required")
	}

	o := options{log: logger.Discard(), timeout: APITimeout}
	for _, opt := range opts {
		opt(&o)
	}

	var clientOpts []option.ClientOption
	if o.httpClient != nil {
		// a caller-supplied client bypasses the API key transport
		clientOpts = append(clientOpts, option.WithHTTPClient(o.httpClient))
	} else {
		clientOpts = append(clientOpts, option.WithAPIKey(apiKey))
	}
	tokenURL := defaultTokenURL
	if o.endpoint != "" {
		clientOpts = append(clientOpts, option.WithEndpoint(o.endpoint))
		tokenURL = strings.TrimSuffix(o.endpoint, "/") + "/token"
	}

	svc, err := identitytoolkit.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create identity service: %w", err)
	}

	c := &Client{
		svc:        svc,
		apiKey:     apiKey,
		tokenURL:   tokenURL,
		httpClient: o.httpClient,
		file:       file,
		log:        o.log,
		now:        time.Now,
		timeout:    o.timeout,
	}

	rec, err := file.Load()
	switch {
	case err == nil:
		c.rec = &rec
		c.notifier.Set(service.AuthEvent{State: service.SignedIn, User: rec.User})
		c.log.DebugContext(ctx, "session restored", "user", rec.User.ID)
	case errors.Is(err, session.ErrNoSession):
	default:
		return nil, err
	}
	return c, nil
}

// SignIn implements service.AuthProvider.
func (c *Client) SignIn(ctx context.Context, email, password string) (service.User, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.svc.Relyingparty.VerifyPassword(&identitytoolkit.IdentitytoolkitRelyingpartyVerifyPasswordRequest{
		Email:             email,
		Password:          password,
		ReturnSecureToken: true,
	}).Context(ctx).Do()
	if err != nil {
		return service.User{}, wrapError(err)
	}

	user := service.User{ID: resp.LocalId, Email: resp.Email, DisplayName: resp.DisplayName}
	if err := c.establish(user, resp.IdToken, resp.RefreshToken, resp.ExpiresIn); err != nil {
		return service.User{}, err
	}
	return user, nil
}

// SignUp implements service.AuthProvider.
func (c *Client) SignUp(ctx context.Context, email, password string) (service.User, error) {
	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.svc.Relyingparty.SignupNewUser(&identitytoolkit.IdentitytoolkitRelyingpartySignupNewUserRequest{
		Email:    email,
		Password: password,
	}).Context(callCtx).Do()
	if err != nil {
		return service.User{}, wrapError(err)
	}
	if resp.IdToken == "" || resp.RefreshToken == "" {
		return c.SignIn(ctx, email, password)
	}

	user := service.User{ID: resp.LocalId, Email: resp.Email, DisplayName: resp.DisplayName}
	if user.Email == "" {
		user.Email = email
	}
	if err := c.establish(user, resp.IdToken, resp.RefreshToken, resp.ExpiresIn); err != nil {
		return service.User{}, err
	}
	return user, nil
}

// SignOut implements service.AuthProvider.
// The refresh token is discarded locally; Identity Toolkit has no revoke call
// for client credentials.
func (c *Client) SignOut(ctx context.Context) error {
	c.mu.Lock()
	c.rec = nil
	c.mu.Unlock()

	if err := c.file.Remove(); err != nil {
		return fmt.Errorf("failed to remove session: %w", err)
	}
	c.notifier.SignedOut()
	return nil
}

// CurrentUser implements service.AuthProvider.
func (c *Client) CurrentUser() (service.User, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.rec == nil {
		return service.User{}, false
	}
	return c.rec.User, true
}

// UpdateDisplayName implements service.AuthProvider.
func (c *Client) UpdateDisplayName(ctx context.Context, name string) error {
	tok, err := c.TokenSource(ctx).Token()
	if err != nil {
		return err
	}

	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	_, err = c.svc.Relyingparty.SetAccountInfo(&identitytoolkit.IdentitytoolkitRelyingpartySetAccountInfoRequest{
		IdToken:     tok.AccessToken,
		DisplayName: name,
	}).Context(callCtx).Do()
	if err != nil {
		return wrapError(err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.rec == nil {
		return service.ErrNotSignedIn
	}
	c.rec.User.DisplayName = name
	return c.file.Save(*c.rec)
}

// OnAuthStateChanged implements service.AuthProvider.
func (c *Client) OnAuthStateChanged(fn func(service.AuthEvent)) func() {
	return c.notifier.Subscribe(fn)
}

// TokenSource returns a source of ID tokens for the signed-in user,
// refreshing through the Secure Token endpoint and persisting each new token.
// Token fails with service.ErrNotSignedIn when there is no session.
func (c *Client) TokenSource(ctx context.Context) oauth2.TokenSource {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.rec == nil {
		return errTokenSource{}
	}

	if c.httpClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
	}
	conf := &oauth2.Config{
		Endpoint: oauth2.Endpoint{
			TokenURL:  c.tokenURL + "?" + url.Values{"key": {c.apiKey}}.Encode(),
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}
	base := conf.TokenSource(ctx, c.rec.Token)
	return &persistingSource{client: c, base: base, last: c.rec.Token.AccessToken}
}

func (c *Client) establish(user service.User, idToken, refreshToken string, expiresIn int64) error {
	rec := session.Record{
		User: user,
		Token: &oauth2.Token{
			AccessToken:  idToken,
			TokenType:    "Bearer",
			RefreshToken: refreshToken,
			Expiry:       c.now().Add(time.Duration(expiresIn) * time.Second),
		},
	}
	if err := c.file.Save(rec); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}

	c.mu.Lock()
	c.rec = &rec
	c.mu.Unlock()

	c.notifier.SignedIn(user)
	return nil
}

// persistingSource writes refreshed tokens back to the session file.
type persistingSource struct {
	client *Client
	base   oauth2.TokenSource

	mu   sync.Mutex
	last string
}

func (p *persistingSource) Token() (*oauth2.Token, error) {
	tok, err := p.base.Token()
	if err != nil {
		return nil, wrapError(err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if tok.AccessToken == p.last {
		return tok, nil
	}
	p.last = tok.AccessToken

	c := p.client
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.rec == nil {
		return tok, nil
	}
	c.rec.Token = tok
	if err := c.file.Save(*c.rec); err != nil {
		c.log.Warn("failed to persist refreshed token", "error", err)
	}
	return tok, nil
}

type errTokenSource struct{}

func (errTokenSource) Token() (*oauth2.Token, error) {
	return nil, service.ErrNotSignedIn
}

// wrapError surfaces provider rejections verbatim as *service.AuthError.
func wrapError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("request timed out")
	}

	var gerr *googleapi.Error
	if errors.As(err, &gerr) && gerr.Message != "" {
		return &service.AuthError{Message: gerr.Message}
	}

	var rerr *oauth2.RetrieveError
	if errors.As(err, &rerr) {
		msg := rerr.ErrorDescription
		if msg == "" {
			msg = rerr.ErrorCode
		}
		if msg == "" {
			msg = strings.TrimSpace(string(rerr.Body))
		}
		return &service.AuthError{Message: msg}
	}

	return err
}
