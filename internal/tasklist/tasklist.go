// Package tasklist keeps a live, per-user view of task documents and issues
// task mutations against the same collection.
//
// Mutations never touch a view. A view only changes when the store pushes a
// new result set, so what a caller sees is always the last delivered snapshot.
package tasklist

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"todosync/internal/logger"
	"todosync/internal/service"
)

// DefaultCollection is the collection tasks live in.
const DefaultCollection = "todos"

// ErrEmptyText is returned by AddTask when the text is blank.
var ErrEmptyText = errors.New("task text required")

// Sync issues subscriptions and mutations for the task collection.
type Sync struct {
	store      service.DocumentStore
	collection string
	log        *logger.Logger
	now        func() time.Time
}

// Option configures a Sync.
type Option func(*Sync)

// WithCollection overrides the collection name.
func WithCollection(name string) Option {
	return func(s *Sync) {
		if name != "" {
			s.collection = name
		}
	}
}

// WithLogger sets the logger.
func WithLogger(log *logger.Logger) Option {
	return func(s *Sync) {
		s.log = log
	}
}

// WithClock sets the time source used for createdAt.
func WithClock(now func() time.Time) Option {
	return func(s *Sync) {
		s.now = now
	}
}

// New creates a Sync over store.
func New(store service.DocumentStore, opts ...Option) *Sync {
	s := &Sync{
		store:      store,
		collection: DefaultCollection,
		log:        logger.Discard(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Subscribe opens a live view of the tasks owned by ownerID.
// The view is torn down when ctx is cancelled or Close is called.
func (s *Sync) Subscribe(ctx context.Context, ownerID string) (*View, error) {
	if ownerID == "" {
		return nil, service.ErrNotSignedIn
	}

	watchCtx, cancel := context.WithCancel(ctx)
	w, err := s.store.Watch(watchCtx, s.collection, OwnerFilter(ownerID))
	if err != nil {
		cancel()
		return nil, fmt.Errorf("subscribe: %w", err)
	}

	v := newView(watchCtx, ownerID, w, cancel, s.log)
	go v.pump()
	go func() {
		select {
		case <-watchCtx.Done():
			select {
			case <-v.done:
			default:
				v.Close()
			}
		case <-v.done:
		}
	}()

	s.log.DebugContext(ctx, "subscribed", "owner", ownerID, "collection", s.collection)
	return v, nil
}

// AddTask creates a task owned by ownerID and returns its ID.
// Blank text fails with ErrEmptyText before any store call.
func (s *Sync) AddTask(ctx context.Context, ownerID, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyText
	}
	if ownerID == "" {
		return "", service.ErrNotSignedIn
	}

	id, err := s.store.Create(ctx, s.collection, newTaskFields(ownerID, text, s.now()))
	if err != nil {
		return "", fmt.Errorf("add task: %w", err)
	}

	s.log.DebugContext(ctx, "task added", "id", id, "owner", ownerID)
	return id, nil
}

// ToggleCompleted sets completed to !current on the task.
// Concurrent toggles resolve last-write-wins at the store.
func (s *Sync) ToggleCompleted(ctx context.Context, taskID string, current bool) error {
	err := s.store.Update(ctx, s.collection, taskID, map[string]any{
		FieldCompleted: !current,
	})
	if err != nil {
		return fmt.Errorf("toggle task %s: %w", taskID, err)
	}

	s.log.DebugContext(ctx, "task toggled", "id", taskID, "completed", !current)
	return nil
}

// DeleteTask removes the task from the store.
func (s *Sync) DeleteTask(ctx context.Context, taskID string) error {
	if err := s.store.Delete(ctx, s.collection, taskID); err != nil {
		return fmt.Errorf("delete task %s: %w", taskID, err)
	}

	s.log.DebugContext(ctx, "task deleted", "id", taskID)
	return nil
}
