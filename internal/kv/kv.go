// Package kv provides the key-value backends the catalog is persisted to.
package kv

import (
	"context"
	"errors"
)

// ErrClosed is returned by operations on a closed store.
var ErrClosed = errors.New("kv store is closed")

// Store is a string key-value store addressed by a single key per document.
type Store interface {
	// Get returns the value stored under key and whether it exists.
	Get(ctx context.Context, key string) (string, bool, error)

	// Set creates or replaces the value stored under key.
	Set(ctx context.Context, key, value string) error

	// Close releases the underlying resources.
	Close() error
}
