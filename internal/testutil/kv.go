package testutil

import (
	"context"
	"errors"
	"sync"

	"plantmanager/internal/plant"
	"plantmanager/internal/storage"
)

// ErrInjected is returned by fakes configured to fail.
var ErrInjected = errors.New("injected failure")

// NewTestStore creates a new in-memory key-value store for testing.
func NewTestStore() *storage.MemoryStore {
	return storage.NewMemoryStore()
}

// FlakyStore wraps a KVStore and fails Get or Set on demand.
type FlakyStore struct {
	plant.KVStore

	mu      sync.Mutex
	failGet bool
	failSet bool
}

// NewFlakyStore wraps inner.
func NewFlakyStore(inner plant.KVStore) *FlakyStore {
	return &FlakyStore{KVStore: inner}
}

// FailGet makes every following Get fail (or succeed again with false).
func (f *FlakyStore) FailGet(fail bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failGet = fail
}

// FailSet makes every following Set fail (or succeed again with false).
func (f *FlakyStore) FailSet(fail bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failSet = fail
}

func (f *FlakyStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	f.mu.Lock()
	fail := f.failGet
	f.mu.Unlock()
	if fail {
		return nil, false, ErrInjected
	}
	return f.KVStore.Get(ctx, key)
}

func (f *FlakyStore) Set(ctx context.Context, key string, value []byte) error {
	f.mu.Lock()
	fail := f.failSet
	f.mu.Unlock()
	if fail {
		return ErrInjected
	}
	return f.KVStore.Set(ctx, key, value)
}
