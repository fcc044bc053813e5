package tokenstore

import (
	"context"
	"sync"
)

// MemoryStore keeps the value in process memory only.
type MemoryStore struct {
	mu    sync.Mutex
	value string
}

// Compile-time check to ensure MemoryStore implements TokenStore
var _ TokenStore = (*MemoryStore)(nil)

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Read(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.value == "" {
		return "", ErrNotFound
	}
	return m.value, nil
}

func (m *MemoryStore) Write(ctx context.Context, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	m.value = value
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Delete(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	m.value = ""
	m.mu.Unlock()
	return nil
}
