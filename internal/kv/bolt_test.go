package kv

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_BoltStore_SurvivesReopen(t *testing.T) {
	// given
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "catalog.db")
	store, err := OpenBolt(path, "catalog", time.Second)
	require.NoError(t, err)

	_, found, err := store.Get(ctx, "products")
	require.NoError(t, err)
	assert.False(t, found)

	// when
	require.NoError(t, store.Set(ctx, "products", `[{"id":"1","name":"Pen"}]`))
	require.NoError(t, store.Close())

	reopened, err := OpenBolt(path, "catalog", time.Second)
	require.NoError(t, err)
	t.Cleanup(func() { _ = reopened.Close() })

	// then
	value, found, err := reopened.Get(ctx, "products")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, `[{"id":"1","name":"Pen"}]`, value)
}

func Test_BoltStore_Closed(t *testing.T) {
	ctx := context.Background()
	store, err := OpenBolt(filepath.Join(t.TempDir(), "catalog.db"), "catalog", time.Second)
	require.NoError(t, err)
	require.NoError(t, store.Close())

	_, _, err = store.Get(ctx, "products")
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, store.Set(ctx, "products", `[]`), ErrClosed)
}

func Test_OpenBolt_Errors(t *testing.T) {
	t.Run("Empty bucket", func(t *testing.T) {
		_, err := OpenBolt(filepath.Join(t.TempDir(), "catalog.db"), "", time.Second)
		assert.Error(t, err)
	})

	t.Run("Locked by another handle", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "catalog.db")
		first, err := OpenBolt(path, "catalog", time.Second)
		require.NoError(t, err)
		t.Cleanup(func() { _ = first.Close() })

		_, err = OpenBolt(path, "catalog", 50*time.Millisecond)
		assert.Error(t, err)
	})
}
