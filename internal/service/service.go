// Package service defines the backend-agnostic interfaces the application runs against.
// Commands and the task list never import a backend SDK directly.
package service

import (
	"context"
	"errors"
	"io"
)

var (
	// ErrNotFound is returned when a document does not exist.
	ErrNotFound = errors.New("not found")

	// ErrNotSignedIn is returned when an operation requires an authenticated session.
	ErrNotSignedIn = errors.New("not signed in")

	// ErrWatchStopped is returned by Watcher.Next after Stop.
	ErrWatchStopped = errors.New("watch stopped")
)

// DocumentStore is a networked document database offering collection CRUD
// and filtered live subscriptions.
type DocumentStore interface {
	// Create adds a document to the collection and returns its store-assigned ID.
	Create(ctx context.Context, collection string, fields map[string]any) (string, error)

	// Update applies a partial update to an existing document.
	// Returns ErrNotFound if the document does not exist.
	Update(ctx context.Context, collection, id string, fields map[string]any) error

	// Delete removes an existing document.
	// Returns ErrNotFound if the document does not exist.
	Delete(ctx context.Context, collection, id string) error

	// Watch opens a standing query on the documents matching filter.
	// The watcher is released when ctx is cancelled or Stop is called.
	Watch(ctx context.Context, collection string, filter Filter) (Watcher, error)
}

// Watcher delivers the full matching document set every time it changes.
type Watcher interface {
	// Next blocks until the next result set is available.
	// The first call returns the initial result set.
	// Returns ErrWatchStopped once Stop has been called.
	Next() ([]Document, error)

	// Stop releases the subscription. Safe to call more than once.
	Stop()
}

// AuthProvider issues user identities and session lifecycle events.
type AuthProvider interface {
	// SignIn authenticates with email and password.
	SignIn(ctx context.Context, email, password string) (User, error)

	// SignUp creates an account and signs in with it.
	SignUp(ctx context.Context, email, password string) (User, error)

	// SignOut ends the current session. Not being signed in is not an error.
	SignOut(ctx context.Context) error

	// CurrentUser returns the signed-in user, if any.
	CurrentUser() (User, bool)

	// UpdateDisplayName changes the signed-in user's display name.
	UpdateDisplayName(ctx context.Context, name string) error

	// OnAuthStateChanged registers fn for session transitions. fn is called
	// immediately with the current state. The returned func unregisters it.
	OnAuthStateChanged(fn func(AuthEvent)) (unsubscribe func())
}

// KeyValueStore is local key-value persistence.
type KeyValueStore interface {
	// Get returns the value for key and whether it was present.
	Get(ctx context.Context, key string) (string, bool, error)

	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key, value string) error
}

// Backend bundles the collaborators a command runs against.
// Store is nil until a session exists.
type Backend struct {
	Auth   AuthProvider
	Store  DocumentStore
	Images KeyValueStore

	// Collection is the task collection name.
	Collection string

	closers []io.Closer
}

// OnClose registers c to be closed by Close.
func (b *Backend) OnClose(c io.Closer) {
	b.closers = append(b.closers, c)
}

// Close releases backend resources in reverse registration order.
func (b *Backend) Close() error {
	var errs []error
	for i := len(b.closers) - 1; i >= 0; i-- {
		if err := b.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	b.closers = nil
	return errors.Join(errs...)
}
