package persistence

import (
	"context"
	"sync"
)

// InMemoryAdapter keeps blobs in a map. It backs tests and the default
// development configuration where durability across restarts is not needed.
type InMemoryAdapter struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

// NewInMemoryAdapter returns an empty adapter.
func NewInMemoryAdapter() *InMemoryAdapter {
	return &InMemoryAdapter{blobs: make(map[string][]byte)}
}

func (a *InMemoryAdapter) Load(_ context.Context, key string) ([]byte, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	blob, ok := a.blobs[key]
	if !ok {
		return nil, nil
	}
	cp := make([]byte, len(blob))
	copy(cp, blob)
	return cp, nil
}

func (a *InMemoryAdapter) Save(_ context.Context, key string, value []byte) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	cp := make([]byte, len(value))
	copy(cp, value)
	a.blobs[key] = cp
	return nil
}
