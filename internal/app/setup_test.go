package app

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/abgdnv/gocatalog/internal/catalog"
	"github.com/abgdnv/gocatalog/internal/config"
	"github.com/abgdnv/gocatalog/internal/kv"
	"github.com/abgdnv/gocatalog/internal/platform/web"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := &config.Config{}
	cfg.HTTPServer.Host = "127.0.0.1"
	cfg.HTTPServer.Port = 8080
	cfg.HTTPServer.Timeout.Read = 5 * time.Second
	cfg.HTTPServer.Timeout.Write = 10 * time.Second
	cfg.HTTPServer.Timeout.Idle = time.Minute
	cfg.HTTPServer.Timeout.ReadHeader = 2 * time.Second
	cfg.CORS.AllowedOrigins = []string{"http://localhost:5173"}
	cfg.CORS.MaxAge = 300
	cfg.Storage = config.StorageConfig{
		Driver: config.DriverBolt,
		Key:    "products",
		NodeID: 1,
		Bolt: config.BoltConfig{
			Path:    filepath.Join(t.TempDir(), "catalog.db"),
			Bucket:  "catalog",
			Timeout: time.Second,
		},
		Breaker: config.CircuitBreakerConfig{ConsecutiveFailures: 3, OpenTimeout: time.Second},
	}
	return cfg
}

func Test_OpenKVStore(t *testing.T) {
	ctx := context.Background()

	t.Run("Memory", func(t *testing.T) {
		store, err := OpenKVStore(ctx, config.StorageConfig{Driver: config.DriverMemory}, discardLogger)
		require.NoError(t, err)
		t.Cleanup(func() { _ = store.Close() })
		assert.IsType(t, kv.NewMemoryStore(), store)
	})

	t.Run("Bolt behind a breaker", func(t *testing.T) {
		store, err := OpenKVStore(ctx, testConfig(t).Storage, discardLogger)
		require.NoError(t, err)
		t.Cleanup(func() { _ = store.Close() })
		assert.IsType(t, &kv.BreakerStore{}, store)
	})

	t.Run("Unknown driver", func(t *testing.T) {
		_, err := OpenKVStore(ctx, config.StorageConfig{Driver: "redis"}, discardLogger)
		assert.Error(t, err)
	})
}

func Test_SetupHttpHandler_EndToEnd(t *testing.T) {
	// given
	ctx := context.Background()
	cfg := testConfig(t)
	store, err := OpenKVStore(ctx, cfg.Storage, discardLogger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	deps, err := SetupDependencies(ctx, store, cfg.Storage, discardLogger)
	require.NoError(t, err)
	srv := httptest.NewServer(SetupHttpHandler(deps, cfg))
	t.Cleanup(srv.Close)

	// when a product is created
	resp, err := http.Post(srv.URL+"/api/v1/products", "application/json",
		strings.NewReader(`{"name":"Pen","img":"u1","info":"blue pen","price":1.5}`))
	require.NoError(t, err)
	_ = resp.Body.Close()

	// then
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get(web.RequestIDHeader))
	assert.Empty(t, resp.Header.Get(web.PersistedHeader))
	require.Len(t, deps.Store.GetAll(), 1)
	assert.Equal(t, "Pen", deps.Store.GetAll()[0].Name)
	assert.False(t, deps.Store.Dirty())

	value, found, err := store.Get(ctx, cfg.Storage.Key)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Contains(t, value, `"name":"Pen"`)

	// and it can be searched for
	resp, err = http.Get(srv.URL + "/api/v1/products?q=PEN")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `"name":"Pen"`)
}

func Test_SetupHttpServer(t *testing.T) {
	cfg := testConfig(t)
	store, err := OpenKVStore(context.Background(), config.StorageConfig{Driver: config.DriverMemory}, discardLogger)
	require.NoError(t, err)
	deps, err := SetupDependencies(context.Background(), store, cfg.Storage, discardLogger)
	require.NoError(t, err)

	srv := SetupHttpServer(deps, cfg)

	assert.Equal(t, "127.0.0.1:8080", srv.Addr)
	assert.Equal(t, 2*time.Second, srv.ReadHeaderTimeout)
}

// unreadableKV fails every read.
type unreadableKV struct{}

func (unreadableKV) Get(context.Context, string) (string, bool, error) {
	return "", false, errors.New("connection refused")
}

func (unreadableKV) Set(context.Context, string, string) error {
	return nil
}

func Test_SetupDependencies_ReadErrorFailsStartup(t *testing.T) {
	_, err := SetupDependencies(context.Background(), unreadableKV{}, testConfig(t).Storage, discardLogger)

	assert.ErrorIs(t, err, catalog.ErrPersistenceRead)
}

func Test_SetupDependencies_InvalidNode(t *testing.T) {
	cfg := testConfig(t).Storage
	cfg.NodeID = 4096

	_, err := SetupDependencies(context.Background(), kv.NewMemoryStore(), cfg, discardLogger)

	assert.Error(t, err)
}
