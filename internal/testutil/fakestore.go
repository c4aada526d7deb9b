// Package testutil provides in-memory fakes of the service interfaces.
package testutil

import (
	"context"
	"maps"
	"slices"
	"sync"

	"github.com/google/uuid"

	"todosync/internal/service"
)

// FakeStore is an in-memory service.DocumentStore with live watchers.
// Every mutation re-materializes the matching set for each affected watcher,
// the way a real document store pushes query snapshots.
type FakeStore struct {
	mu          sync.Mutex
	collections map[string][]service.Document
	watchers    map[*fakeWatcher]struct{}
	creates     int
	updates     int
	deletes     int

	// IgnoreFilter makes watchers deliver every document in the collection.
	// Used to check that consumers enforce the filter themselves.
	IgnoreFilter bool

	// Error injection for testing
	CreateErr error
	UpdateErr error
	DeleteErr error
	WatchErr  error
}

// NewFakeStore creates an empty FakeStore.
func NewFakeStore() *FakeStore {
	return &FakeStore{
		collections: make(map[string][]service.Document),
		watchers:    make(map[*fakeWatcher]struct{}),
	}
}

// Put inserts or replaces a document directly, notifying watchers.
func (f *FakeStore) Put(collection, id string, fields map[string]any) {
	f.mu.Lock()
	defer f.mu.Unlock()

	doc := service.Document{ID: id, Fields: maps.Clone(fields)}
	docs := f.collections[collection]
	for i := range docs {
		if docs[i].ID == id {
			before := docs[i]
			docs[i] = doc
			f.notifyLocked(collection, &before, &doc)
			return
		}
	}
	f.collections[collection] = append(docs, doc)
	f.notifyLocked(collection, nil, &doc)
}

// Get returns a copy of a stored document.
func (f *FakeStore) Get(collection, id string) (service.Document, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, d := range f.collections[collection] {
		if d.ID == id {
			return copyDoc(d), true
		}
	}
	return service.Document{}, false
}

// Documents returns copies of every document in the collection, in insertion order.
func (f *FakeStore) Documents(collection string) []service.Document {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]service.Document, 0, len(f.collections[collection]))
	for _, d := range f.collections[collection] {
		out = append(out, copyDoc(d))
	}
	return out
}

// CreateCalls returns how many times Create was called, including failed calls.
func (f *FakeStore) CreateCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.creates
}

// UpdateCalls returns how many times Update was called.
func (f *FakeStore) UpdateCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.updates
}

// DeleteCalls returns how many times Delete was called.
func (f *FakeStore) DeleteCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.deletes
}

// ActiveWatchers returns the number of watchers not yet stopped.
func (f *FakeStore) ActiveWatchers() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.watchers)
}

// Break interrupts every active watcher with err.
func (f *FakeStore) Break(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for w := range f.watchers {
		w.fail(err)
	}
}

// Create implements service.DocumentStore.
func (f *FakeStore) Create(ctx context.Context, collection string, fields map[string]any) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.creates++
	if f.CreateErr != nil {
		return "", f.CreateErr
	}

	doc := service.Document{ID: uuid.NewString(), Fields: maps.Clone(fields)}
	f.collections[collection] = append(f.collections[collection], doc)
	f.notifyLocked(collection, nil, &doc)
	return doc.ID, nil
}

// Update implements service.DocumentStore.
func (f *FakeStore) Update(ctx context.Context, collection, id string, fields map[string]any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates++
	if f.UpdateErr != nil {
		return f.UpdateErr
	}

	docs := f.collections[collection]
	for i := range docs {
		if docs[i].ID == id {
			before := copyDoc(docs[i])
			if docs[i].Fields == nil {
				docs[i].Fields = make(map[string]any, len(fields))
			}
			maps.Copy(docs[i].Fields, fields)
			after := docs[i]
			f.notifyLocked(collection, &before, &after)
			return nil
		}
	}
	return service.ErrNotFound
}

// Delete implements service.DocumentStore.
func (f *FakeStore) Delete(ctx context.Context, collection, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletes++
	if f.DeleteErr != nil {
		return f.DeleteErr
	}

	docs := f.collections[collection]
	for i := range docs {
		if docs[i].ID == id {
			before := docs[i]
			f.collections[collection] = slices.Delete(docs, i, i+1)
			f.notifyLocked(collection, &before, nil)
			return nil
		}
	}
	return service.ErrNotFound
}

// Watch implements service.DocumentStore.
// The initial result set is queued immediately.
func (f *FakeStore) Watch(ctx context.Context, collection string, filter service.Filter) (service.Watcher, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.WatchErr != nil {
		return nil, f.WatchErr
	}

	w := &fakeWatcher{
		store:      f,
		collection: collection,
		filter:     filter,
		signal:     make(chan struct{}, 1),
		stopCh:     make(chan struct{}),
	}
	f.watchers[w] = struct{}{}
	w.push(f.matchingLocked(collection, filter))

	go func() {
		select {
		case <-ctx.Done():
			w.Stop()
		case <-w.stopCh:
		}
	}()
	return w, nil
}

func (f *FakeStore) matchingLocked(collection string, filter service.Filter) []service.Document {
	var out []service.Document
	for _, d := range f.collections[collection] {
		if f.IgnoreFilter || filter.Matches(d) {
			out = append(out, copyDoc(d))
		}
	}
	return out
}

// notifyLocked pushes a fresh result set to each watcher whose matching set
// the change touched.
func (f *FakeStore) notifyLocked(collection string, before, after *service.Document) {
	for w := range f.watchers {
		if w.collection != collection {
			continue
		}
		touched := f.IgnoreFilter ||
			(before != nil && w.filter.Matches(*before)) ||
			(after != nil && w.filter.Matches(*after))
		if touched {
			w.push(f.matchingLocked(collection, w.filter))
		}
	}
}

func (f *FakeStore) removeWatcher(w *fakeWatcher) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.watchers, w)
}

type fakeWatcher struct {
	store      *FakeStore
	collection string
	filter     service.Filter

	mu      sync.Mutex
	queue   [][]service.Document
	err     error
	stopped bool

	signal   chan struct{}
	stopCh   chan struct{}
	stopOnce sync.Once
}

func (w *fakeWatcher) Next() ([]service.Document, error) {
	for {
		w.mu.Lock()
		switch {
		case w.stopped:
			w.mu.Unlock()
			return nil, service.ErrWatchStopped
		case len(w.queue) > 0:
			docs := w.queue[0]
			w.queue = w.queue[1:]
			w.mu.Unlock()
			return docs, nil
		case w.err != nil:
			err := w.err
			w.mu.Unlock()
			return nil, err
		}
		w.mu.Unlock()

		select {
		case <-w.signal:
		case <-w.stopCh:
		}
	}
}

func (w *fakeWatcher) Stop() {
	w.stopOnce.Do(func() {
		w.mu.Lock()
		w.stopped = true
		w.queue = nil
		w.mu.Unlock()
		close(w.stopCh)
		w.store.removeWatcher(w)
	})
}

func (w *fakeWatcher) push(docs []service.Document) {
	w.mu.Lock()
	if w.stopped || w.err != nil {
		w.mu.Unlock()
		return
	}
	w.queue = append(w.queue, docs)
	w.mu.Unlock()
	w.wake()
}

func (w *fakeWatcher) fail(err error) {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return
	}
	w.err = err
	w.mu.Unlock()
	w.wake()
}

func (w *fakeWatcher) wake() {
	select {
	case w.signal <- struct{}{}:
	default:
	}
}

func copyDoc(d service.Document) service.Document {
	return service.Document{ID: d.ID, Fields: maps.Clone(d.Fields)}
}
