// Package handler exposes the recommendation lists over HTTP.
package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/narwhalmedia/ottcore/internal/access"
	"github.com/narwhalmedia/ottcore/internal/recommendation/service"
	"github.com/narwhalmedia/ottcore/pkg/errors"
	"github.com/narwhalmedia/ottcore/pkg/httputil"
	"github.com/narwhalmedia/ottcore/pkg/interfaces"
)

// Recommender is the ranking surface the handler calls.
type Recommender interface {
	Trending(ctx context.Context, viewer *access.Viewer, limit int) (*service.Result, error)
	Popular(ctx context.Context, viewer *access.Viewer, genre string, limit int) (*service.Result, error)
	Personalized(ctx context.Context, viewer *access.Viewer, limit int) (*service.Result, error)
	Similar(ctx context.Context, viewer *access.Viewer, contentID uuid.UUID, limit int) (*service.Result, error)
}

// Handler serves the recommendation endpoints.
type Handler struct {
	engine  Recommender
	viewers access.ViewerSource
	logger  interfaces.Logger
}

// NewHandler creates a new recommendation handler.
func NewHandler(engine Recommender, viewers access.ViewerSource, logger interfaces.Logger) *Handler {
	return &Handler{engine: engine, viewers: viewers, logger: logger}
}

// Routes registers the handler on an authenticated router.
func (h *Handler) Routes(r chi.Router) {
	r.Route("/recommendations", func(r chi.Router) {
		r.Get("/trending", h.Trending)
		r.Get("/popular", h.Popular)
		r.Get("/personalized", h.Personalized)
		r.Get("/similar/{id}", h.Similar)
	})
}

// Trending serves recently created content ranked by views.
func (h *Handler) Trending(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, false, func(ctx context.Context, v *access.Viewer, limit int) (*service.Result, error) {
		return h.engine.Trending(ctx, v, limit)
	})
}

// Popular serves content ranked by rating, optionally within ?genre=.
func (h *Handler) Popular(w http.ResponseWriter, r *http.Request) {
	genre := r.URL.Query().Get("genre")
	h.serve(w, r, false, func(ctx context.Context, v *access.Viewer, limit int) (*service.Result, error) {
		return h.engine.Popular(ctx, v, genre, limit)
	})
}

// Personalized serves a shuffled selection for the active profile.
func (h *Handler) Personalized(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, true, func(ctx context.Context, v *access.Viewer, limit int) (*service.Result, error) {
		return h.engine.Personalized(ctx, v, limit)
	})
}

// Similar serves content related to {id}.
func (h *Handler) Similar(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, h.logger, errors.ContentNotFound())
		return
	}
	h.serve(w, r, false, func(ctx context.Context, v *access.Viewer, limit int) (*service.Result, error) {
		return h.engine.Similar(ctx, v, id, limit)
	})
}

func (h *Handler) serve(
	w http.ResponseWriter,
	r *http.Request,
	requireProfile bool,
	rank func(ctx context.Context, v *access.Viewer, limit int) (*service.Result, error),
) {
	limit, err := httputil.QueryInt(r, "limit", service.DefaultLimit)
	if err != nil {
		httputil.WriteError(w, h.logger, err)
		return
	}

	viewer, err := h.viewers.ViewerFromRequest(r, requireProfile)
	if err != nil {
		httputil.WriteError(w, h.logger, err)
		return
	}

	result, err := rank(r.Context(), viewer, limit)
	if err != nil {
		httputil.WriteError(w, h.logger, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}
