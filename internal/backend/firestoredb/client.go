// Package firestoredb implements service.DocumentStore using Cloud Firestore.
package firestoredb

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"cloud.google.com/go/firestore"
	"golang.org/x/oauth2"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"todosync/internal/config"
	"todosync/internal/service"
)

// APITimeout is the default timeout for single-document calls.
const APITimeout = 5 * time.Second

// Client implements service.DocumentStore on a Firestore database.
type Client struct {
	fs      *firestore.Client
	timeout time.Duration
}

// New connects to the project's database, authenticating every call with ts.
// FIRESTORE_EMULATOR_HOST is honoured by the underlying client.
func New(ctx context.Context, cfg config.Firebase, ts oauth2.TokenSource, opts ...option.ClientOption) (*Client, error) {
	if cfg.ProjectID == "" {
		return nil, errors.New("firestore: project id required")
	}
	if ts != nil {
		opts = append([]option.ClientOption{option.WithTokenSource(ts)}, opts...)
	}

	var (
		fs  *firestore.Client
		err error
	)
	if cfg.DatabaseID == "" || cfg.DatabaseID == firestore.DefaultDatabaseID {
		fs, err = firestore.NewClient(ctx, cfg.ProjectID, opts...)
	} else {
		fs, err = firestore.NewClientWithDatabase(ctx, cfg.ProjectID, cfg.DatabaseID, opts...)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create firestore client: %w", err)
	}
	timeout := cfg.APITimeout
	if timeout <= 0 {
		timeout = APITimeout
	}
	return &Client{fs: fs, timeout: timeout}, nil
}

// Close releases the underlying connection.
func (c *Client) Close() error {
	return c.fs.Close()
}

// Create implements service.DocumentStore.
func (c *Client) Create(ctx context.Context, collection string, fields map[string]any) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	ref, _, err := c.fs.Collection(collection).Add(ctx, fields)
	if err != nil {
		return "", wrapError(err)
	}
	return ref.ID, nil
}

// Update implements service.DocumentStore.
// Only the given fields are written.
func (c *Client) Update(ctx context.Context, collection, id string, fields map[string]any) error {
	if id == "" {
		return service.ErrNotFound
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	updates := make([]firestore.Update, 0, len(fields))
	for path, value := range fields {
		updates = append(updates, firestore.Update{Path: path, Value: value})
	}
	_, err := c.fs.Collection(collection).Doc(id).Update(ctx, updates)
	if err != nil {
		return wrapError(err)
	}
	return nil
}

// Delete implements service.DocumentStore.
func (c *Client) Delete(ctx context.Context, collection, id string) error {
	if id == "" {
		return service.ErrNotFound
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	_, err := c.fs.Collection(collection).Doc(id).Delete(ctx, firestore.Exists)
	if err != nil {
		return wrapError(err)
	}
	return nil
}

// Watch implements service.DocumentStore with a query snapshot listener.
func (c *Client) Watch(ctx context.Context, collection string, filter service.Filter) (service.Watcher, error) {
	if filter.Field == "" {
		return nil, errors.New("firestore: watch requires a filter field")
	}
	ctx, cancel := context.WithCancel(ctx)
	it := c.fs.Collection(collection).WhereEntity(firestore.PropertyFilter{
		Path:     filter.Field,
		Operator: "==",
		Value:    filter.Value,
	}).Snapshots(ctx)
	return &watcher{it: it, ctx: ctx, cancel: cancel}, nil
}

// watcher adapts a QuerySnapshotIterator. The iterator must not be stopped
// concurrently with Next, so Stop cancels the stream context and Next
// releases the iterator when it observes the end.
type watcher struct {
	it     *firestore.QuerySnapshotIterator
	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	released bool
}

func (w *watcher) Next() ([]service.Document, error) {
	if w.ctx.Err() != nil {
		w.release()
		return nil, service.ErrWatchStopped
	}

	snap, err := w.it.Next()
	if err != nil {
		w.release()
		if w.ctx.Err() != nil || errors.Is(err, iterator.Done) || status.Code(err) == codes.Canceled {
			return nil, service.ErrWatchStopped
		}
		return nil, wrapError(err)
	}

	snaps, err := snap.Documents.GetAll()
	if err != nil {
		w.release()
		return nil, wrapError(err)
	}

	docs := make([]service.Document, 0, len(snaps))
	for _, ds := range snaps {
		docs = append(docs, service.Document{ID: ds.Ref.ID, Fields: ds.Data()})
	}
	return docs, nil
}

func (w *watcher) Stop() {
	w.cancel()
}

func (w *watcher) release() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.released {
		return
	}
	w.released = true
	w.it.Stop()
	w.cancel()
}

// wrapError maps gRPC failures to user-facing errors.
func wrapError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("request timed out")
	}

	switch status.Code(err) {
	case codes.NotFound:
		return service.ErrNotFound
	case codes.DeadlineExceeded:
		return fmt.Errorf("request timed out")
	case codes.Unauthenticated:
		return fmt.Errorf("%w: session expired or revoked (run: todo login)", service.ErrNotSignedIn)
	case codes.PermissionDenied:
		return fmt.Errorf("permission denied: %s", status.Convert(err).Message())
	}
	return err
}
