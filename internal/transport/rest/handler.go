// Package rest exposes the product catalog as a local HTTP JSON API.
package rest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/abgdnv/gocatalog/internal/catalog"
	"github.com/abgdnv/gocatalog/internal/platform/web"
	"github.com/go-chi/chi/v5"
)

// Catalog is the part of the product store the handlers use.
type Catalog interface {
	GetAll() []catalog.Product
	Add(ctx context.Context, in catalog.AddInput) (catalog.Product, error)
	ToggleLike(ctx context.Context, id string) (catalog.Product, bool, error)
	Delete(ctx context.Context, id string) (bool, error)
}

type Handler struct {
	catalog Catalog
	logger  *slog.Logger
}

// NewHandler creates the catalog HTTP handlers.
func NewHandler(catalog Catalog, logger *slog.Logger) *Handler {
	return &Handler{
		catalog: catalog,
		logger:  logger.With("component", "rest"),
	}
}

// RegisterRoutes registers the HTTP routes for the catalog.
func (h *Handler) RegisterRoutes(r *chi.Mux) {
	r.Route("/api/v1/products", func(r chi.Router) {
		r.Get("/", h.FindAll)
		r.Post("/", h.Create)

		r.Route("/{id}", func(r chi.Router) {
			r.Delete("/", h.Delete)
			r.Put("/like", h.ToggleLike)
		})
	})
	r.Get("/healthz", h.HealthCheck)
}

// FindAll lists the products, narrowed by the optional q search term.
func (h *Handler) FindAll(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	term := r.URL.Query().Get("q")

	list := catalog.Filter(h.catalog.GetAll(), term)
	mLogger.DebugContext(r.Context(), "Successfully retrieved product list", "q", term, "count", len(list))
	web.RespondJSON(w, mLogger, http.StatusOK, list)
}

// Create handles the creation of a new product.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	var in catalog.AddInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		mLogger.ErrorContext(r.Context(), "Error decoding request body", "error", err)
		web.RespondError(w, mLogger, http.StatusBadRequest, "Invalid request body")
		return
	}

	mLogger.DebugContext(r.Context(), "Received request to create product", "product", in)
	created, err := h.catalog.Add(r.Context(), in)
	if err != nil {
		var validationErr *catalog.ValidationError
		switch {
		case errors.As(err, &validationErr):
			errorResponse := make(map[string]string, len(validationErr.Fields))
			for field, rule := range validationErr.Fields {
				errorResponse[field] = "failed on rule: " + rule
			}
			mLogger.WarnContext(r.Context(), "Validation errors occurred", "errors", errorResponse)
			web.RespondJSON(w, mLogger, http.StatusBadRequest, map[string]any{"validation_errors": errorResponse})
			return
		case errors.Is(err, catalog.ErrPersistenceWrite):
			h.markNotPersisted(w, r, mLogger, err)
		default:
			mLogger.ErrorContext(r.Context(), "Error creating product", "error", err)
			web.RespondError(w, mLogger, http.StatusInternalServerError, "Failed to create product")
			return
		}
	}
	mLogger.InfoContext(r.Context(), "Product created successfully", "ID", created.ID, "Name", created.Name)
	web.RespondJSON(w, mLogger, http.StatusCreated, created)
}

// ToggleLike flips the liked flag of a product.
func (h *Handler) ToggleLike(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	id := chi.URLParam(r, "id")

	mLogger.DebugContext(r.Context(), "Received request to toggle like", "ID", id)
	updated, found, err := h.catalog.ToggleLike(r.Context(), id)
	if err != nil {
		if !errors.Is(err, catalog.ErrPersistenceWrite) {
			mLogger.ErrorContext(r.Context(), "Error toggling like", "ID", id, "error", err)
			web.RespondError(w, mLogger, http.StatusInternalServerError, fmt.Sprintf("Failed to update product with ID %s", id))
			return
		}
		h.markNotPersisted(w, r, mLogger, err)
	}
	if !found {
		mLogger.WarnContext(r.Context(), "Product not found", "ID", id)
		web.RespondError(w, mLogger, http.StatusNotFound, fmt.Sprintf("Product with ID %s not found", id))
		return
	}
	mLogger.InfoContext(r.Context(), "Product like toggled", "ID", updated.ID, "Liked", updated.Liked)
	web.RespondJSON(w, mLogger, http.StatusOK, updated)
}

// Delete removes a product. Deleting an unknown product succeeds and changes nothing.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	id := chi.URLParam(r, "id")

	mLogger.DebugContext(r.Context(), "Received request to delete product", "ID", id)
	deleted, err := h.catalog.Delete(r.Context(), id)
	if err != nil {
		if !errors.Is(err, catalog.ErrPersistenceWrite) {
			mLogger.ErrorContext(r.Context(), "Error deleting product", "ID", id, "error", err)
			web.RespondError(w, mLogger, http.StatusInternalServerError, fmt.Sprintf("Failed to delete product with ID %s", id))
			return
		}
		h.markNotPersisted(w, r, mLogger, err)
	}
	mLogger.InfoContext(r.Context(), "Product delete handled", "ID", id, "deleted", deleted)
	w.WriteHeader(http.StatusNoContent)
}

// HealthCheck is a simple health check endpoint.
func (h *Handler) HealthCheck(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// markNotPersisted flags a response whose change lives only in memory.
func (h *Handler) markNotPersisted(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	logger.ErrorContext(r.Context(), "Change applied but not persisted", "error", err)
	w.Header().Set(web.PersistedHeader, "false")
}

func (h *Handler) loggerWithReqID(r *http.Request) *slog.Logger {
	reqID, found := web.GetRequestID(r.Context())
	if !found {
		reqID = "unknown"
	}
	return h.logger.With("request_id", reqID)
}
