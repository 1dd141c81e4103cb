// Package handler exposes catalog browsing over HTTP.
package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/narwhalmedia/ottcore/internal/access"
	"github.com/narwhalmedia/ottcore/internal/catalog/service"
	"github.com/narwhalmedia/ottcore/pkg/errors"
	"github.com/narwhalmedia/ottcore/pkg/httputil"
	"github.com/narwhalmedia/ottcore/pkg/interfaces"
)

// Browser is the subset of the catalog service the handler calls.
type Browser interface {
	Browse(ctx context.Context, viewer *access.Viewer, genre string, page, limit int) (*service.BrowsePage, error)
	Get(ctx context.Context, viewer *access.Viewer, id uuid.UUID) (*service.ContentDetail, error)
}

// Handler serves the content endpoints.
type Handler struct {
	catalog Browser
	viewers access.ViewerSource
	logger  interfaces.Logger
}

// NewHandler creates a new catalog handler.
func NewHandler(catalog Browser, viewers access.ViewerSource, logger interfaces.Logger) *Handler {
	return &Handler{catalog: catalog, viewers: viewers, logger: logger}
}

// Routes registers the handler on an authenticated router.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/content", h.List)
	r.Get("/content/{id}", h.Get)
}

// List pages through the content visible to the viewer.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page, err := httputil.QueryInt(r, "page", 1)
	if err != nil {
		httputil.WriteError(w, h.logger, err)
		return
	}
	limit, err := httputil.QueryInt(r, "limit", service.DefaultLimit)
	if err != nil {
		httputil.WriteError(w, h.logger, err)
		return
	}

	viewer, err := h.viewers.ViewerFromRequest(r, false)
	if err != nil {
		httputil.WriteError(w, h.logger, err)
		return
	}

	result, err := h.catalog.Browse(r.Context(), viewer, r.URL.Query().Get("genre"), page, limit)
	if err != nil {
		httputil.WriteError(w, h.logger, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}

// Get returns one content entry with its episodes.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, h.logger, errors.ContentNotFound())
		return
	}

	viewer, err := h.viewers.ViewerFromRequest(r, false)
	if err != nil {
		httputil.WriteError(w, h.logger, err)
		return
	}

	detail, err := h.catalog.Get(r.Context(), viewer, id)
	if err != nil {
		httputil.WriteError(w, h.logger, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, detail)
}
