// Package handler exposes account and profile management over HTTP.
package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/narwhalmedia/ottcore/internal/profile/domain"
	"github.com/narwhalmedia/ottcore/internal/profile/service"
	"github.com/narwhalmedia/ottcore/pkg/auth"
	"github.com/narwhalmedia/ottcore/pkg/errors"
	"github.com/narwhalmedia/ottcore/pkg/httputil"
	"github.com/narwhalmedia/ottcore/pkg/interfaces"
	"github.com/narwhalmedia/ottcore/pkg/validation"
)

// ProfileManager is the subset of the profile service the handler calls.
type ProfileManager interface {
	Signup(ctx context.Context, accountID, ownerName string) (*domain.Profile, error)
	ListProfiles(ctx context.Context, accountID string) ([]*domain.Profile, error)
	CreateProfile(ctx context.Context, accountID string, input service.CreateInput) (*domain.Profile, error)
	UpdateProfile(ctx context.Context, accountID string, profileID uuid.UUID, patch domain.Patch) (*domain.Profile, error)
	DeleteProfile(ctx context.Context, accountID string, profileID uuid.UUID) error
	SetDefaultProfile(ctx context.Context, accountID string, profileID uuid.UUID) error
	AvatarUploadURL(ctx context.Context, accountID string, profileID uuid.UUID, contentType string) (*service.AvatarUpload, error)
}

// Handler serves the account and profile endpoints.
type Handler struct {
	profiles ProfileManager
	logger   interfaces.Logger
}

// NewHandler creates a new profile handler.
func NewHandler(profiles ProfileManager, logger interfaces.Logger) *Handler {
	return &Handler{profiles: profiles, logger: logger}
}

// Routes registers the handler on an authenticated router.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/accounts/signup", h.Signup)
	r.Route("/profiles", func(r chi.Router) {
		r.Get("/", h.List)
		r.Post("/", h.Create)
		r.Patch("/{id}", h.Update)
		r.Delete("/{id}", h.Delete)
		r.Put("/{id}/default", h.SetDefault)
		r.Post("/{id}/avatar", h.Avatar)
	})
}

type signupRequest struct {
	OwnerName string `json:"owner_name" validate:"required,max=50"`
}

type createProfileRequest struct {
	Name            string   `json:"name" validate:"required,max=50"`
	IsChildProfile  bool     `json:"is_child_profile"`
	MaturityLevel   *int     `json:"maturity_level" validate:"omitempty,min=0,max=18"`
	PreferredGenres []string `json:"preferred_genres" validate:"omitempty,max=20,dive,required,max=50"`
}

type updateProfileRequest struct {
	Name            *string  `json:"name" validate:"omitempty,max=50"`
	IsChildProfile  *bool    `json:"is_child_profile"`
	MaturityLevel   *int     `json:"maturity_level" validate:"omitempty,min=0,max=18"`
	PreferredGenres []string `json:"preferred_genres" validate:"omitempty,max=20,dive,required,max=50"`
}

type avatarRequest struct {
	ContentType string `json:"content_type" validate:"required,oneof=image/png image/jpeg image/webp"`
}

type profileResponse struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	IsOwner         bool      `json:"is_owner"`
	IsChildProfile  bool      `json:"is_child_profile"`
	MaturityLevel   int       `json:"maturity_level"`
	PreferredGenres []string  `json:"preferred_genres"`
	AvatarKey       string    `json:"avatar_key,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

type profileListResponse struct {
	Profiles []profileResponse `json:"profiles"`
}

func toResponse(p *domain.Profile) profileResponse {
	genres := p.PreferredGenres
	if genres == nil {
		genres = []string{}
	}
	return profileResponse{
		ID:              p.ID.String(),
		Name:            p.Name,
		IsOwner:         p.IsOwner,
		IsChildProfile:  p.IsChildProfile,
		MaturityLevel:   p.MaturityLevel,
		PreferredGenres: genres,
		AvatarKey:       p.AvatarKey,
		CreatedAt:       p.CreatedAt,
		UpdatedAt:       p.UpdatedAt,
	}
}

// Signup creates the caller's account and owner profile.
func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		httputil.WriteError(w, h.logger, errors.InvalidToken())
		return
	}

	var req signupRequest
	if err := h.decode(w, r, &req); err != nil {
		httputil.WriteError(w, h.logger, err)
		return
	}

	owner, err := h.profiles.Signup(r.Context(), principal.AccountID, req.OwnerName)
	if err != nil {
		httputil.WriteError(w, h.logger, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toResponse(owner))
}

// List returns the caller's active profiles.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		httputil.WriteError(w, h.logger, errors.InvalidToken())
		return
	}

	profiles, err := h.profiles.ListProfiles(r.Context(), principal.AccountID)
	if err != nil {
		httputil.WriteError(w, h.logger, err)
		return
	}

	resp := profileListResponse{Profiles: make([]profileResponse, 0, len(profiles))}
	for _, p := range profiles {
		resp.Profiles = append(resp.Profiles, toResponse(p))
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

// Create adds a profile to the caller's account.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		httputil.WriteError(w, h.logger, errors.InvalidToken())
		return
	}

	var req createProfileRequest
	if err := h.decode(w, r, &req); err != nil {
		httputil.WriteError(w, h.logger, err)
		return
	}

	profile, err := h.profiles.CreateProfile(r.Context(), principal.AccountID, service.CreateInput{
		Name:            req.Name,
		IsChildProfile:  req.IsChildProfile,
		MaturityLevel:   req.MaturityLevel,
		PreferredGenres: req.PreferredGenres,
	})
	if err != nil {
		httputil.WriteError(w, h.logger, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toResponse(profile))
}

// Update patches a profile.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	principal, id, ok := h.target(w, r)
	if !ok {
		return
	}

	var req updateProfileRequest
	if err := h.decode(w, r, &req); err != nil {
		httputil.WriteError(w, h.logger, err)
		return
	}

	profile, err := h.profiles.UpdateProfile(r.Context(), principal.AccountID, id, domain.Patch{
		Name:            req.Name,
		IsChildProfile:  req.IsChildProfile,
		MaturityLevel:   req.MaturityLevel,
		PreferredGenres: req.PreferredGenres,
	})
	if err != nil {
		httputil.WriteError(w, h.logger, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toResponse(profile))
}

// Delete soft-deletes a profile.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	principal, id, ok := h.target(w, r)
	if !ok {
		return
	}

	if err := h.profiles.DeleteProfile(r.Context(), principal.AccountID, id); err != nil {
		httputil.WriteError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SetDefault stores the profile as the account's default.
func (h *Handler) SetDefault(w http.ResponseWriter, r *http.Request) {
	principal, id, ok := h.target(w, r)
	if !ok {
		return
	}

	if err := h.profiles.SetDefaultProfile(r.Context(), principal.AccountID, id); err != nil {
		httputil.WriteError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Avatar returns a presigned upload URL for the profile avatar.
func (h *Handler) Avatar(w http.ResponseWriter, r *http.Request) {
	principal, id, ok := h.target(w, r)
	if !ok {
		return
	}

	var req avatarRequest
	if err := h.decode(w, r, &req); err != nil {
		httputil.WriteError(w, h.logger, err)
		return
	}

	upload, err := h.profiles.AvatarUploadURL(r.Context(), principal.AccountID, id, req.ContentType)
	if err != nil {
		httputil.WriteError(w, h.logger, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, upload)
}

// target reads the principal and the {id} path parameter, writing the error
// response itself when either is unusable.
func (h *Handler) target(w http.ResponseWriter, r *http.Request) (*auth.Principal, uuid.UUID, bool) {
	principal, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		httputil.WriteError(w, h.logger, errors.InvalidToken())
		return nil, uuid.Nil, false
	}

	id, err := domain.ParseProfileID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, h.logger, err)
		return nil, uuid.Nil, false
	}
	return principal, id, true
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v interface{}) error {
	if err := httputil.DecodeJSON(w, r, v); err != nil {
		return err
	}
	return validation.ValidateStruct(v)
}
