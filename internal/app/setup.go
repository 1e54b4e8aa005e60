// Package app contains the application setup for the catalog.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/abgdnv/gocatalog/internal/catalog"
	"github.com/abgdnv/gocatalog/internal/config"
	"github.com/abgdnv/gocatalog/internal/kv"
	"github.com/abgdnv/gocatalog/internal/platform/bootstrap"
	"github.com/abgdnv/gocatalog/internal/platform/server"
	"github.com/abgdnv/gocatalog/internal/transport/rest"
	"github.com/go-chi/chi/v5"
)

type Dependencies struct {
	Store  *catalog.ProductStore
	Logger *slog.Logger
}

// OpenKVStore opens the backend selected by cfg.Driver, guarded by a circuit breaker when one is configured.
func OpenKVStore(ctx context.Context, cfg config.StorageConfig, logger *slog.Logger) (kv.Store, error) {
	var store kv.Store
	switch cfg.Driver {
	case config.DriverMemory:
		store = kv.NewMemoryStore()
	case config.DriverBolt:
		boltStore, err := kv.OpenBolt(cfg.Bolt.Path, cfg.Bolt.Bucket, cfg.Bolt.Timeout)
		if err != nil {
			return nil, err
		}
		store = boltStore
	case config.DriverPostgres:
		if cfg.Database.Migrate {
			if err := kv.Migrate(cfg.Database.URL); err != nil {
				return nil, err
			}
			logger.Info("Database migrations applied")
		}
		dbPool, err := bootstrap.NewDbPool(ctx, cfg.Database.URL, cfg.Database.Timeout)
		if err != nil {
			return nil, err
		}
		store = kv.NewPgStore(dbPool)
	default:
		return nil, fmt.Errorf("unknown storage driver: %q", cfg.Driver)
	}
	logger.Info("KV store opened", "driver", cfg.Driver)

	if cfg.Breaker.Enabled() {
		store = kv.NewBreakerStore(store, cfg.Breaker, logger)
	}
	return store, nil
}

// SetupDependencies builds the product store on top of store and loads the persisted collection.
func SetupDependencies(ctx context.Context, store catalog.Persistence, cfg config.StorageConfig, logger *slog.Logger) (*Dependencies, error) {
	ids, err := catalog.NewSnowflakeIDs(cfg.NodeID)
	if err != nil {
		return nil, err
	}
	products, err := catalog.NewProductStore(store,
		catalog.WithKey(cfg.Key),
		catalog.WithLogger(logger),
		catalog.WithIDGenerator(ids),
	)
	if err != nil {
		return nil, err
	}
	if err := products.Load(ctx); err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}

	changeLogger := logger.With("component", "catalog-events")
	if err := products.Subscribe(func(c catalog.Change) {
		changeLogger.Info("Catalog changed", "op", c.Op, "ID", c.ID, "count", len(c.Products), "persisted", c.Persisted)
	}); err != nil {
		return nil, fmt.Errorf("failed to subscribe to catalog changes: %w", err)
	}

	return &Dependencies{
		Store:  products,
		Logger: logger,
	}, nil
}

// SetupHttpHandler initializes the router and routes for the catalog.
func SetupHttpHandler(deps *Dependencies, cfg *config.Config) http.Handler {
	mux := server.NewChiRouter(deps.Logger, server.CORSConfig{
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		MaxAge:         cfg.CORS.MaxAge,
	})
	wireRoutes(mux, deps)
	return mux
}

func wireRoutes(mux *chi.Mux, deps *Dependencies) {
	rest.NewHandler(deps.Store, deps.Logger).RegisterRoutes(mux)
}

// SetupHttpServer creates and configures the HTTP server for the catalog.
func SetupHttpServer(deps *Dependencies, cfg *config.Config) *http.Server {
	mux := SetupHttpHandler(deps, cfg)

	httpCfg := server.HTTPConfig{
		Host:           cfg.HTTPServer.Host,
		Port:           cfg.HTTPServer.Port,
		MaxHeaderBytes: cfg.HTTPServer.MaxHeaderBytes,
		ReadTimeout:    cfg.HTTPServer.Timeout.Read,
		WriteTimeout:   cfg.HTTPServer.Timeout.Write,
		IdleTimeout:    cfg.HTTPServer.Timeout.Idle,
		ReadHeader:     cfg.HTTPServer.Timeout.ReadHeader,
	}

	return server.NewHTTPServer(httpCfg, mux)
}
