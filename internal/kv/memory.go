package kv

import (
	"context"
	"sync"
)

// memory implements Store using an in-memory map.
type memory struct {
	mu     sync.RWMutex
	values map[string]string
	closed bool
}

// NewMemoryStore creates a Store that lives as long as the process.
func NewMemoryStore() Store {
	return &memory{
		values: make(map[string]string),
	}
}

func (m *memory) Get(ctx context.Context, key string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return "", false, ErrClosed
	}
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *memory) Set(ctx context.Context, key, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}
	m.values[key] = value
	return nil
}

func (m *memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}
