// Package session tracks the authenticated session: its on-disk record and
// the stream of signed-in/signed-out transitions.
package session

import (
	"sync"

	"todosync/internal/service"
)

// Notifier fans out auth-state transitions to registered listeners.
// The zero value is ready to use and starts signed out.
type Notifier struct {
	mu        sync.Mutex
	current   service.AuthEvent
	nextID    int
	listeners map[int]func(service.AuthEvent)
}

// Current returns the last published state.
func (n *Notifier) Current() service.AuthEvent {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.current
}

// Subscribe registers fn and calls it immediately with the current state.
// The returned func unregisters fn and is safe to call more than once.
func (n *Notifier) Subscribe(fn func(service.AuthEvent)) func() {
	n.mu.Lock()
	if n.listeners == nil {
		n.listeners = make(map[int]func(service.AuthEvent))
	}
	id := n.nextID
	n.nextID++
	n.listeners[id] = fn
	current := n.current
	n.mu.Unlock()

	fn(current)

	var once sync.Once
	return func() {
		once.Do(func() {
			n.mu.Lock()
			delete(n.listeners, id)
			n.mu.Unlock()
		})
	}
}

// SignedIn publishes a signed-in transition for user.
func (n *Notifier) SignedIn(user service.User) {
	n.publish(service.AuthEvent{State: service.SignedIn, User: user})
}

// SignedOut publishes a signed-out transition.
func (n *Notifier) SignedOut() {
	n.publish(service.AuthEvent{State: service.SignedOut})
}

// Set records the state without notifying, used when restoring a stored session.
func (n *Notifier) Set(ev service.AuthEvent) {
	n.mu.Lock()
	n.current = ev
	n.mu.Unlock()
}

func (n *Notifier) publish(ev service.AuthEvent) {
	n.mu.Lock()
	n.current = ev
	fns := make([]func(service.AuthEvent), 0, len(n.listeners))
	for _, fn := range n.listeners {
		fns = append(fns, fn)
	}
	n.mu.Unlock()

	for _, fn := range fns {
		fn(ev)
	}
}
