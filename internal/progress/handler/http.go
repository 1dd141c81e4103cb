// Package handler exposes watch progress over HTTP.
package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/narwhalmedia/ottcore/internal/access"
	"github.com/narwhalmedia/ottcore/internal/progress/domain"
	"github.com/narwhalmedia/ottcore/internal/progress/service"
	"github.com/narwhalmedia/ottcore/pkg/errors"
	"github.com/narwhalmedia/ottcore/pkg/httputil"
	"github.com/narwhalmedia/ottcore/pkg/interfaces"
	"github.com/narwhalmedia/ottcore/pkg/validation"
)

// Tracker is the subset of the progress service the handler calls.
type Tracker interface {
	RecordProgress(ctx context.Context, viewer *access.Viewer, in service.RecordInput) (*domain.WatchProgress, error)
	ContinueWatching(ctx context.Context, viewer *access.Viewer, limit int) ([]service.Entry, error)
	GetProgress(ctx context.Context, viewer *access.Viewer, contentID uuid.UUID, episodeID *uuid.UUID) (*domain.WatchProgress, error)
	History(ctx context.Context, viewer *access.Viewer, pageToken string, limit int) (*service.HistoryPage, error)
	RemoveProgress(ctx context.Context, viewer *access.Viewer, contentID uuid.UUID, episodeID *uuid.UUID) error
}

// Handler serves the watch progress endpoints. Every endpoint requires an
// active profile.
type Handler struct {
	tracker Tracker
	viewers access.ViewerSource
	logger  interfaces.Logger
}

// NewHandler creates a new progress handler.
func NewHandler(tracker Tracker, viewers access.ViewerSource, logger interfaces.Logger) *Handler {
	return &Handler{tracker: tracker, viewers: viewers, logger: logger}
}

// Routes registers the handler on an authenticated router.
func (h *Handler) Routes(r chi.Router) {
	r.Route("/watch-progress", func(r chi.Router) {
		r.Post("/", h.Record)
		r.Get("/continue", h.Continue)
		r.Get("/history", h.History)
		r.Get("/{contentId}", h.Get)
		r.Delete("/{contentId}", h.Remove)
	})
}

// recordRequest leaves total_seconds unchecked so the service can report
// InvalidDuration for it.
type recordRequest struct {
	ContentID      string   `json:"content_id" validate:"required,uuid"`
	EpisodeID      *string  `json:"episode_id" validate:"omitempty,uuid"`
	WatchedSeconds *float64 `json:"watched_seconds" validate:"required"`
	TotalSeconds   float64  `json:"total_seconds"`
	DeviceType     string   `json:"device_type" validate:"omitempty,max=32"`
}

type entriesResponse struct {
	Items []service.Entry `json:"items"`
}

// Record upserts the playback position.
func (h *Handler) Record(w http.ResponseWriter, r *http.Request) {
	var req recordRequest
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		httputil.WriteError(w, h.logger, err)
		return
	}
	if err := validation.ValidateStruct(&req); err != nil {
		httputil.WriteError(w, h.logger, err)
		return
	}

	// Reject bad durations before resolving the viewer touches the store.
	if _, err := domain.Compute(*req.WatchedSeconds, req.TotalSeconds); err != nil {
		httputil.WriteError(w, h.logger, err)
		return
	}

	in := service.RecordInput{
		ContentID:      uuid.MustParse(req.ContentID),
		WatchedSeconds: *req.WatchedSeconds,
		TotalSeconds:   req.TotalSeconds,
		DeviceType:     req.DeviceType,
	}
	if req.EpisodeID != nil {
		id := uuid.MustParse(*req.EpisodeID)
		in.EpisodeID = &id
	}

	viewer, err := h.viewers.ViewerFromRequest(r, true)
	if err != nil {
		httputil.WriteError(w, h.logger, err)
		return
	}

	progress, err := h.tracker.RecordProgress(r.Context(), viewer, in)
	if err != nil {
		httputil.WriteError(w, h.logger, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, progress)
}

// Continue lists unfinished entries.
func (h *Handler) Continue(w http.ResponseWriter, r *http.Request) {
	limit, err := httputil.QueryInt(r, "limit", service.DefaultLimit)
	if err != nil {
		httputil.WriteError(w, h.logger, err)
		return
	}

	viewer, err := h.viewers.ViewerFromRequest(r, true)
	if err != nil {
		httputil.WriteError(w, h.logger, err)
		return
	}

	items, err := h.tracker.ContinueWatching(r.Context(), viewer, limit)
	if err != nil {
		httputil.WriteError(w, h.logger, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, entriesResponse{Items: items})
}

// History pages through every entry, newest first.
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	limit, err := httputil.QueryInt(r, "limit", service.DefaultLimit)
	if err != nil {
		httputil.WriteError(w, h.logger, err)
		return
	}

	viewer, err := h.viewers.ViewerFromRequest(r, true)
	if err != nil {
		httputil.WriteError(w, h.logger, err)
		return
	}

	page, err := h.tracker.History(r.Context(), viewer, r.URL.Query().Get("page_token"), limit)
	if err != nil {
		httputil.WriteError(w, h.logger, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, page)
}

// Get returns the stored position for a movie, or an episode with ?episode_id=.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	contentID, episodeID, err := target(r)
	if err != nil {
		httputil.WriteError(w, h.logger, err)
		return
	}

	viewer, err := h.viewers.ViewerFromRequest(r, true)
	if err != nil {
		httputil.WriteError(w, h.logger, err)
		return
	}

	progress, err := h.tracker.GetProgress(r.Context(), viewer, contentID, episodeID)
	if err != nil {
		httputil.WriteError(w, h.logger, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, progress)
}

// Remove deletes the entry for a movie or episode, or every entry of a series
// when no episode_id is given.
func (h *Handler) Remove(w http.ResponseWriter, r *http.Request) {
	contentID, episodeID, err := target(r)
	if err != nil {
		httputil.WriteError(w, h.logger, err)
		return
	}

	viewer, err := h.viewers.ViewerFromRequest(r, true)
	if err != nil {
		httputil.WriteError(w, h.logger, err)
		return
	}

	if err := h.tracker.RemoveProgress(r.Context(), viewer, contentID, episodeID); err != nil {
		httputil.WriteError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func target(r *http.Request) (uuid.UUID, *uuid.UUID, error) {
	contentID, err := uuid.Parse(chi.URLParam(r, "contentId"))
	if err != nil {
		return uuid.Nil, nil, errors.ContentNotFound()
	}

	raw := r.URL.Query().Get("episode_id")
	if raw == "" {
		return contentID, nil, nil
	}
	episodeID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, nil, errors.BadRequest("episode_id must be a valid UUID")
	}
	return contentID, &episodeID, nil
}
