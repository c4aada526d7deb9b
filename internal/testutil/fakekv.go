package testutil

import (
	"context"
	"sync"
)

// FakeKV is an in-memory service.KeyValueStore.
type FakeKV struct {
	mu     sync.Mutex
	values map[string]string

	// Error injection for testing
	GetErr error
	SetErr error
}

// NewFakeKV creates an empty FakeKV.
func NewFakeKV() *FakeKV {
	return &FakeKV{values: make(map[string]string)}
}

// Get implements service.KeyValueStore.
func (f *FakeKV) Get(ctx context.Context, key string) (string, bool, error) {
	if f.GetErr != nil {
		return "", false, f.GetErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.values[key]
	return v, ok, nil
}

// Set implements service.KeyValueStore.
func (f *FakeKV) Set(ctx context.Context, key, value string) error {
	if f.SetErr != nil {
		return f.SetErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.values[key] = value
	return nil
}
