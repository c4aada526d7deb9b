package tasklist

import (
	"context"
	"errors"
	"slices"
	"sync"

	"todosync/internal/logger"
	"todosync/internal/service"
)

// ErrClosed is returned by View.Next once the view has been closed.
var ErrClosed = errors.New("view closed")

// Snapshot is one delivered result set. Seq starts at 1 and increases by one
// per delivery.
type Snapshot struct {
	Seq   uint64
	Tasks []service.Task
}

// View is a live subscription to one owner's tasks.
//
// Snapshots are queued in the order the store emits them; Next drains the
// queue. Tasks always reflects the most recent delivery.
type View struct {
	owner   string
	ctx     context.Context
	watcher service.Watcher
	cancel  context.CancelFunc
	log     *logger.Logger

	mu         sync.Mutex
	current    Snapshot
	pending    []Snapshot
	closed     bool
	terminated bool
	err        error

	notify   chan struct{}
	done     chan struct{}
	doneOnce sync.Once
}

func newView(ctx context.Context, owner string, w service.Watcher, cancel context.CancelFunc, log *logger.Logger) *View {
	return &View{
		owner:   owner,
		ctx:     ctx,
		watcher: w,
		cancel:  cancel,
		log:     log,
		notify:  make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
}

// Owner returns the owner the view is filtered to.
func (v *View) Owner() string {
	return v.owner
}

// Tasks returns a copy of the last delivered snapshot's tasks.
// Before the first delivery it returns nil.
func (v *View) Tasks() []service.Task {
	v.mu.Lock()
	defer v.mu.Unlock()
	return slices.Clone(v.current.Tasks)
}

// Seq returns the sequence number of the last delivered snapshot, 0 if none.
func (v *View) Seq() uint64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.current.Seq
}

// Drain discards the queued snapshots and returns the most recent delivery.
// Next then blocks until the store pushes again.
func (v *View) Drain() Snapshot {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.pending = nil
	return Snapshot{Seq: v.current.Seq, Tasks: slices.Clone(v.current.Tasks)}
}

// Next returns the next queued snapshot, blocking until one arrives.
// After a subscription failure the remaining queued snapshots are returned
// first, then the failure. After Close it returns ErrClosed.
func (v *View) Next(ctx context.Context) (Snapshot, error) {
	for {
		v.mu.Lock()
		switch {
		case v.closed:
			v.mu.Unlock()
			return Snapshot{}, ErrClosed
		case len(v.pending) > 0:
			snap := v.pending[0]
			v.pending = v.pending[1:]
			v.mu.Unlock()
			return snap, nil
		case v.err != nil:
			err := v.err
			v.mu.Unlock()
			return Snapshot{}, err
		case v.terminated:
			v.mu.Unlock()
			return Snapshot{}, ErrClosed
		}
		v.mu.Unlock()

		select {
		case <-v.notify:
		case <-v.done:
		case <-ctx.Done():
			return Snapshot{}, ctx.Err()
		}
	}
}

// Err returns the subscription failure, if the view stopped because of one.
func (v *View) Err() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.err
}

// Done is closed when the view stops delivering, by Close or by failure.
func (v *View) Done() <-chan struct{} {
	return v.done
}

// Close tears down the subscription and releases the store watcher.
// Queued snapshots are discarded. Safe to call more than once, and before
// any snapshot has arrived.
func (v *View) Close() error {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return nil
	}
	v.closed = true
	v.pending = nil
	v.mu.Unlock()

	v.watcher.Stop()
	v.cancel()
	v.doneOnce.Do(func() { close(v.done) })
	return nil
}

func (v *View) pump() {
	for {
		docs, err := v.watcher.Next()
		if err != nil {
			v.finish(err)
			return
		}

		tasks := v.materialize(docs)

		v.mu.Lock()
		if v.closed {
			v.mu.Unlock()
			return
		}
		snap := Snapshot{Seq: v.current.Seq + 1, Tasks: tasks}
		v.current = snap
		v.pending = append(v.pending, snap)
		v.mu.Unlock()

		select {
		case v.notify <- struct{}{}:
		default:
		}
	}
}

// materialize decodes a result set, dropping any document not owned by the
// view's owner.
func (v *View) materialize(docs []service.Document) []service.Task {
	tasks := make([]service.Task, 0, len(docs))
	for _, doc := range docs {
		t := DecodeTask(doc)
		if t.Owner != v.owner {
			v.log.Warn("dropping task outside owner filter", "id", t.ID, "owner", v.owner)
			continue
		}
		tasks = append(tasks, t)
	}
	return tasks
}

func (v *View) finish(err error) {
	v.mu.Lock()
	stopped := v.closed || errors.Is(err, service.ErrWatchStopped) ||
		v.ctx.Err() != nil
	if !stopped {
		v.err = err
	}
	v.terminated = true
	v.mu.Unlock()

	if !stopped {
		v.log.Error("subscription failed", "owner", v.owner, "error", err)
	}
	v.doneOnce.Do(func() { close(v.done) })
	v.cancel()
}
