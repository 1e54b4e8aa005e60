// Package main runs the product catalog as a local HTTP service.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	_ "net/http/pprof"

	"github.com/abgdnv/gocatalog/internal/app"
	"github.com/abgdnv/gocatalog/internal/catalog"
	"github.com/abgdnv/gocatalog/internal/config"
	"github.com/abgdnv/gocatalog/internal/platform/bootstrap"
	"golang.org/x/sync/errgroup"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		log.Printf("application run failed: %v", err)
		os.Exit(1)
	}
	log.Println("application stopped gracefully")
}

// run opens the storage backend, loads the catalog and serves it until ctx is canceled.
func run(ctx context.Context) error {
	cfg, cfgErr := config.Load()
	if cfgErr != nil {
		return fmt.Errorf("failed to load configuration: %w", cfgErr)
	}
	log.Printf("Configuration loaded: %v", cfg)

	logger := bootstrap.NewLogger(cfg.Log.Level)
	slog.SetDefault(logger)

	store, err := app.OpenKVStore(ctx, cfg.Storage, logger)
	if err != nil {
		return fmt.Errorf("failed to open storage: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("Failed to close storage", "error", err)
		} else {
			logger.Info("Storage closed")
		}
	}()

	deps, err := app.SetupDependencies(ctx, store, cfg.Storage, logger)
	if err != nil {
		return err
	}
	httpServer := app.SetupHttpServer(deps, cfg)

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("HTTP server listening", slog.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	})
	// gracefully shutdown HTTP server on context cancellation
	g.Go(func() error {
		<-gCtx.Done()
		logger.Info("Shutting down HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Shutdown.Timeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	if cfg.PProf.Enabled {
		pprofServer := &http.Server{
			Addr:              cfg.PProf.Addr,
			ReadHeaderTimeout: cfg.HTTPServer.Timeout.ReadHeader,
		}
		g.Go(func() error {
			logger.Info("Pprof server listening", slog.String("addr", pprofServer.Addr))
			if err := pprofServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("pprof server failed: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gCtx.Done()
			logger.Info("Shutting down pprof server...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Shutdown.Timeout)
			defer cancel()
			return pprofServer.Shutdown(shutdownCtx)
		})
	} else {
		logger.Info("Pprof server is disabled")
	}

	waitErr := g.Wait()
	flush(deps.Store, cfg.Shutdown, logger)
	if waitErr != nil && !errors.Is(waitErr, context.Canceled) {
		return fmt.Errorf("errgroup encountered an error: %w", waitErr)
	}
	return nil
}

// flush retries the write of a catalog whose last write failed, so a recovered backend gets the final state.
func flush(store *catalog.ProductStore, cfg config.ShutdownConfig, logger *slog.Logger) {
	if !store.Dirty() {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
	defer cancel()
	if err := store.Save(ctx); err != nil {
		logger.Error("Unsaved catalog changes are lost", "error", err)
		return
	}
	logger.Info("Pending catalog changes saved")
}
