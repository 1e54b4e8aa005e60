// Package server builds the HTTP server and router shared by the commands.
package server

import (
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/abgdnv/gocatalog/internal/platform/web"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
)

// HTTPConfig has the configuration for the HTTP server.
type HTTPConfig struct {
	Host           string
	Port           int
	MaxHeaderBytes int
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	ReadHeader     time.Duration
}

// NewHTTPServer creates and configures a new HTTP server instance.
func NewHTTPServer(cfg HTTPConfig, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		Handler:           handler,
		ReadTimeout:       cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		ReadHeaderTimeout: cfg.ReadHeader,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}
}

// CORSConfig lists the browser origins allowed to call the router. No origins means no CORS handling.
type CORSConfig struct {
	AllowedOrigins []string
	MaxAge         int
}

// NewChiRouter creates a new Chi router with a set of
// middleware for request ID injection, structured logging, recovery and CORS.
func NewChiRouter(logger *slog.Logger, corsCfg CORSConfig) *chi.Mux {
	mux := chi.NewRouter()
	mux.Use(web.RequestIDInjector)
	mux.Use(web.StructuredLogger(logger))
	mux.Use(web.Recoverer(logger))
	if len(corsCfg.AllowedOrigins) > 0 {
		mux.Use(cors.Handler(cors.Options{
			AllowedOrigins: corsCfg.AllowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Content-Type", web.RequestIDHeader},
			ExposedHeaders: []string{web.RequestIDHeader, web.PersistedHeader},
			MaxAge:         corsCfg.MaxAge,
		}))
	}
	return mux
}
