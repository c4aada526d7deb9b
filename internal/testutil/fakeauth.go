package testutil

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"todosync/internal/service"
	"todosync/internal/session"
)

// Provider error messages, matching what the identity backend reports.
var (
	ErrInvalidCredentials error = &service.AuthError{Message: "INVALID_LOGIN_CREDENTIALS"}
	ErrEmailExists        error = &service.AuthError{Message: "EMAIL_EXISTS"}
)

type fakeAccount struct {
	password string
	user     service.User
}

// FakeAuth is an in-memory service.AuthProvider.
type FakeAuth struct {
	mu       sync.Mutex
	accounts map[string]fakeAccount // email -> account
	current  *service.User
	notifier session.Notifier

	// Error injection for testing
	SignInErr  error
	SignUpErr  error
	SignOutErr error
	UpdateErr  error
}

// NewFakeAuth creates a FakeAuth with no accounts and no session.
func NewFakeAuth() *FakeAuth {
	return &FakeAuth{accounts: make(map[string]fakeAccount)}
}

// AddAccount registers an account that SignIn accepts.
func (f *FakeAuth) AddAccount(email, password string, user service.User) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user.Email = email
	f.accounts[email] = fakeAccount{password: password, user: user}
}

// SetCurrent signs user in without credentials.
func (f *FakeAuth) SetCurrent(user service.User) {
	f.mu.Lock()
	f.current = &user
	f.mu.Unlock()
	f.notifier.SignedIn(user)
}

// SignIn implements service.AuthProvider.
func (f *FakeAuth) SignIn(ctx context.Context, email, password string) (service.User, error) {
	if f.SignInErr != nil {
		return service.User{}, f.SignInErr
	}
	f.mu.Lock()
	acct, ok := f.accounts[email]
	if !ok || acct.password != password {
		f.mu.Unlock()
		return service.User{}, ErrInvalidCredentials
	}
	user := acct.user
	f.current = &user
	f.mu.Unlock()

	f.notifier.SignedIn(user)
	return user, nil
}

// SignUp implements service.AuthProvider.
func (f *FakeAuth) SignUp(ctx context.Context, email, password string) (service.User, error) {
	if f.SignUpErr != nil {
		return service.User{}, f.SignUpErr
	}
	f.mu.Lock()
	if _, exists := f.accounts[email]; exists {
		f.mu.Unlock()
		return service.User{}, ErrEmailExists
	}
	user := service.User{ID: uuid.NewString(), Email: email}
	f.accounts[email] = fakeAccount{password: password, user: user}
	f.current = &user
	f.mu.Unlock()

	f.notifier.SignedIn(user)
	return user, nil
}

// SignOut implements service.AuthProvider.
func (f *FakeAuth) SignOut(ctx context.Context) error {
	if f.SignOutErr != nil {
		return f.SignOutErr
	}
	f.mu.Lock()
	f.current = nil
	f.mu.Unlock()

	f.notifier.SignedOut()
	return nil
}

// CurrentUser implements service.AuthProvider.
func (f *FakeAuth) CurrentUser() (service.User, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.current == nil {
		return service.User{}, false
	}
	return *f.current, true
}

// UpdateDisplayName implements service.AuthProvider.
func (f *FakeAuth) UpdateDisplayName(ctx context.Context, name string) error {
	if f.UpdateErr != nil {
		return f.UpdateErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.current == nil {
		return service.ErrNotSignedIn
	}
	f.current.DisplayName = name
	if acct, ok := f.accounts[f.current.Email]; ok {
		acct.user.DisplayName = name
		f.accounts[f.current.Email] = acct
	}
	return nil
}

// OnAuthStateChanged implements service.AuthProvider.
func (f *FakeAuth) OnAuthStateChanged(fn func(service.AuthEvent)) func() {
	return f.notifier.Subscribe(fn)
}
