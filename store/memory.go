package store

import (
	"context"
	"slices"
	"sync"
)

// MemoryBackend keeps the store in process memory. Nothing survives a
// restart.
type MemoryBackend struct {
	mu    sync.Mutex
	items []Item
	saved bool
}

// NewMemoryBackend creates an empty in-memory backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{}
}

func (mb *MemoryBackend) Load(_ context.Context) ([]Item, error) {
	mb.mu.Lock()
	defer mb.mu.Unlock()

	if !mb.saved {
		return nil, ErrNoState
	}
	return slices.Clone(mb.items), nil
}

func (mb *MemoryBackend) Save(_ context.Context, items []Item) error {
	mb.mu.Lock()
	defer mb.mu.Unlock()

	mb.items = slices.Clone(items)
	mb.saved = true
	return nil
}
