package firebaseauth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"todosync/internal/service"
	"todosync/internal/session"
)

// fakeIdentity serves the handful of Identity Toolkit and Secure Token
// endpoints the client uses.
type fakeIdentity struct {
	mu          sync.Mutex
	accounts    map[string]string // email -> password
	displayName string
	refreshes   int
	lastIDToken string
}

func (f *fakeIdentity) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch r.URL.Path {
	case "/verifyPassword":
		var req struct{ Email, Password string }
		json.NewDecoder(r.Body).Decode(&req)
		if pw, ok := f.accounts[req.Email]; !ok || pw != req.Password {
			writeError(w, "INVALID_LOGIN_CREDENTIALS")
			return
		}
		writeJSON(w, map[string]any{
			"localId":      "uid-" + req.Email,
			"email":        req.Email,
			"displayName":  f.displayName,
			"idToken":      "id-1",
			"refreshToken": "refresh-1",
			"expiresIn":    "3600",
		})
	case "/signupNewUser":
		var req struct{ Email, Password string }
		json.NewDecoder(r.Body).Decode(&req)
		if _, ok := f.accounts[req.Email]; ok {
			writeError(w, "EMAIL_EXISTS")
			return
		}
		f.accounts[req.Email] = req.Password
		writeJSON(w, map[string]any{
			"localId":      "uid-" + req.Email,
			"email":        req.Email,
			"idToken":      "id-new",
			"refreshToken": "refresh-new",
			"expiresIn":    "3600",
		})
	case "/setAccountInfo":
		var req struct{ IdToken, DisplayName string }
		json.NewDecoder(r.Body).Decode(&req)
		f.lastIDToken = req.IdToken
		f.displayName = req.DisplayName
		writeJSON(w, map[string]any{"displayName": req.DisplayName})
	case "/token":
		r.ParseForm()
		if r.PostForm.Get("grant_type") != "refresh_token" || r.PostForm.Get("refresh_token") == "" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"error":"invalid_grant","error_description":"INVALID_REFRESH_TOKEN"}`))
			return
		}
		f.refreshes++
		writeJSON(w, map[string]any{
			"access_token":  "id-refreshed",
			"expires_in":    3600,
			"token_type":    "Bearer",
			"refresh_token": "refresh-2",
		})
	default:
		http.NotFound(w, r)
	}
}

// state returns the refresh count, last ID token and display name.
func (f *fakeIdentity) state() (refreshes int, idToken, displayName string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.refreshes, f.lastIDToken, f.displayName
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusBadRequest)
	json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{"code": 400, "message": msg},
	})
}

func setup(t *testing.T) (*fakeIdentity, session.File, func() *Client) {
	t.Helper()
	fake := &fakeIdentity{accounts: map[string]string{"alice@example.com": "secret"}}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	file := session.File{Path: filepath.Join(t.TempDir(), "session.json")}
	newClient := func() *Client {
		c, err := New(context.Background(), "test-key", file,
			WithEndpoint(srv.URL+"/"),
			WithHTTPClient(srv.Client()),
		)
		require.NoError(t, err)
		return c
	}
	return fake, file, newClient
}

func TestNew_RequiresAPIKey(t *testing.T) {
	_, err := New(context.Background(), "", session.File{Path: filepath.Join(t.TempDir(), "s.json")})
	assert.Error(t, err)
}

func TestSignIn_PersistsSessionAndNotifies(t *testing.T) {
	_, file, newClient := setup(t)
	c := newClient()

	var events []service.AuthEvent
	unsubscribe := c.OnAuthStateChanged(func(ev service.AuthEvent) { events = append(events, ev) })
	defer unsubscribe()

	user, err := c.SignIn(context.Background(), "alice@example.com", "secret")
	require.NoError(t, err)
	assert.Equal(t, "uid-alice@example.com", user.ID)
	assert.Equal(t, "alice@example.com", user.Email)

	current, ok := c.CurrentUser()
	assert.True(t, ok)
	assert.Equal(t, user, current)

	rec, err := file.Load()
	require.NoError(t, err)
	assert.Equal(t, user, rec.User)
	assert.Equal(t, "id-1", rec.Token.AccessToken)
	assert.Equal(t, "refresh-1", rec.Token.RefreshToken)
	assert.True(t, rec.Token.Expiry.After(time.Now()))

	require.Len(t, events, 2)
	assert.Equal(t, service.SignedOut, events[0].State)
	assert.Equal(t, service.SignedIn, events[1].State)
	assert.Equal(t, user, events[1].User)
}

func TestSignIn_ProviderMessageVerbatim(t *testing.T) {
	_, file, newClient := setup(t)
	c := newClient()

	_, err := c.SignIn(context.Background(), "alice@example.com", "wrong")
	require.Error(t, err)

	var authErr *service.AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, "INVALID_LOGIN_CREDENTIALS", err.Error())

	_, ok := c.CurrentUser()
	assert.False(t, ok)
	_, err = file.Load()
	assert.ErrorIs(t, err, session.ErrNoSession)
}

func TestSignUp(t *testing.T) {
	_, _, newClient := setup(t)
	c := newClient()

	user, err := c.SignUp(context.Background(), "bob@example.com", "hunter22")
	require.NoError(t, err)
	assert.Equal(t, "uid-bob@example.com", user.ID)

	_, err = c.SignUp(context.Background(), "bob@example.com", "hunter22")
	assert.EqualError(t, err, "EMAIL_EXISTS")
}

func TestSessionRestoredOnNew(t *testing.T) {
	_, _, newClient := setup(t)
	first := newClient()
	user, err := first.SignIn(context.Background(), "alice@example.com", "secret")
	require.NoError(t, err)

	second := newClient()
	current, ok := second.CurrentUser()
	require.True(t, ok)
	assert.Equal(t, user, current)

	var got service.AuthEvent
	second.OnAuthStateChanged(func(ev service.AuthEvent) { got = ev })()
	assert.Equal(t, service.SignedIn, got.State)
}

func TestSignOut(t *testing.T) {
	_, file, newClient := setup(t)
	c := newClient()
	_, err := c.SignIn(context.Background(), "alice@example.com", "secret")
	require.NoError(t, err)

	require.NoError(t, c.SignOut(context.Background()))
	_, ok := c.CurrentUser()
	assert.False(t, ok)
	_, err = file.Load()
	assert.ErrorIs(t, err, session.ErrNoSession)

	// signing out again is fine
	assert.NoError(t, c.SignOut(context.Background()))
}

func TestTokenSource_NotSignedIn(t *testing.T) {
	_, _, newClient := setup(t)
	c := newClient()

	_, err := c.TokenSource(context.Background()).Token()
	assert.ErrorIs(t, err, service.ErrNotSignedIn)
}

func TestTokenSource_RefreshesAndPersists(t *testing.T) {
	fake, file, newClient := setup(t)
	require.NoError(t, file.Save(session.Record{
		User: service.User{ID: "uid-alice", Email: "alice@example.com"},
		Token: &oauth2.Token{
			AccessToken:  "id-stale",
			RefreshToken: "refresh-1",
			Expiry:       time.Now().Add(-time.Hour),
		},
	}))
	c := newClient()

	tok, err := c.TokenSource(context.Background()).Token()
	require.NoError(t, err)
	assert.Equal(t, "id-refreshed", tok.AccessToken)
	refreshes, _, _ := fake.state()
	assert.Equal(t, 1, refreshes)

	rec, err := file.Load()
	require.NoError(t, err)
	assert.Equal(t, "id-refreshed", rec.Token.AccessToken)
	assert.Equal(t, "refresh-2", rec.Token.RefreshToken)
}

func TestTokenSource_ReusesValidToken(t *testing.T) {
	fake, _, newClient := setup(t)
	c := newClient()
	_, err := c.SignIn(context.Background(), "alice@example.com", "secret")
	require.NoError(t, err)

	tok, err := c.TokenSource(context.Background()).Token()
	require.NoError(t, err)
	assert.Equal(t, "id-1", tok.AccessToken)
	refreshes, _, _ := fake.state()
	assert.Equal(t, 0, refreshes)
}

func TestUpdateDisplayName(t *testing.T) {
	fake, file, newClient := setup(t)
	c := newClient()
	_, err := c.SignIn(context.Background(), "alice@example.com", "secret")
	require.NoError(t, err)

	require.NoError(t, c.UpdateDisplayName(context.Background(), "Alice"))
	_, idToken, displayName := fake.state()
	assert.Equal(t, "id-1", idToken)
	assert.Equal(t, "Alice", displayName)

	current, _ := c.CurrentUser()
	assert.Equal(t, "Alice", current.DisplayName)
	rec, err := file.Load()
	require.NoError(t, err)
	assert.Equal(t, "Alice", rec.User.DisplayName)
}

func TestUpdateDisplayName_NotSignedIn(t *testing.T) {
	_, _, newClient := setup(t)
	c := newClient()

	err := c.UpdateDisplayName(context.Background(), "Alice")
	assert.ErrorIs(t, err, service.ErrNotSignedIn)
}

func TestWithTimeout_BoundsCalls(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	file := session.File{Path: filepath.Join(t.TempDir(), "session.json")}
	c, err := New(context.Background(), "test-key", file,
		WithEndpoint(srv.URL+"/"),
		WithHTTPClient(srv.Client()),
		WithTimeout(50*time.Millisecond),
	)
	require.NoError(t, err)

	start := time.Now()
	_, err = c.SignIn(context.Background(), "alice@example.com", "secret")
	require.Error(t, err)
	assert.Less(t, time.Since(start), 2*time.Second)

	_, ok := c.CurrentUser()
	assert.False(t, ok)
}
