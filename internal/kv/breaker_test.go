package kv

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/abgdnv/gocatalog/internal/config"
	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// flakyStore fails every call while err is set and counts calls that reached it.
// Not thread-safe, should be used in sequential tests only.
type flakyStore struct {
	Store
	err   error
	calls int
}

func (f *flakyStore) Get(ctx context.Context, key string) (string, bool, error) {
	f.calls++
	if f.err != nil {
		return "", false, f.err
	}
	return f.Store.Get(ctx, key)
}

func (f *flakyStore) Set(ctx context.Context, key, value string) error {
	f.calls++
	if f.err != nil {
		return f.err
	}
	return f.Store.Set(ctx, key, value)
}

func newTestBreaker(next Store, openTimeout time.Duration) *BreakerStore {
	cfg := config.CircuitBreakerConfig{ConsecutiveFailures: 2, OpenTimeout: openTimeout}
	return NewBreakerStore(next, cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func Test_BreakerStore_PassesThrough(t *testing.T) {
	ctx := context.Background()
	store := newTestBreaker(NewMemoryStore(), time.Minute)

	require.NoError(t, store.Set(ctx, "products", `[]`))
	value, found, err := store.Get(ctx, "products")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, `[]`, value)

	_, found, err = store.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, found)
}

func Test_BreakerStore_OpensAfterConsecutiveFailures(t *testing.T) {
	// given
	ctx := context.Background()
	errDisk := errors.New("disk full")
	backend := &flakyStore{Store: NewMemoryStore(), err: errDisk}
	store := newTestBreaker(backend, 50*time.Millisecond)

	// when
	assert.ErrorIs(t, store.Set(ctx, "products", `[]`), errDisk)
	assert.ErrorIs(t, store.Set(ctx, "products", `[]`), errDisk)
	err := store.Set(ctx, "products", `[]`)

	// then
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Equal(t, 2, backend.calls, "open breaker must not reach the backend")
	assert.Equal(t, gobreaker.StateOpen, store.State())

	// recovers once the backend is healthy and the open timeout elapsed
	backend.err = nil
	require.Eventually(t, func() bool {
		return store.Set(ctx, "products", `[]`) == nil
	}, time.Second, 20*time.Millisecond)
	assert.Equal(t, gobreaker.StateClosed, store.State())
}

func Test_BreakerStore_IgnoresCancellation(t *testing.T) {
	ctx := context.Background()
	backend := &flakyStore{Store: NewMemoryStore(), err: context.Canceled}
	store := newTestBreaker(backend, time.Minute)

	for range 5 {
		assert.ErrorIs(t, store.Set(ctx, "products", `[]`), context.Canceled)
	}
	assert.Equal(t, gobreaker.StateClosed, store.State())
}
