package handler

import (
	"net/http"

	"fest-backend/internal/domain"
	"fest-backend/internal/middleware"
	"fest-backend/internal/service"
	"fest-backend/pkg/errors"
	"fest-backend/pkg/logger"

	"github.com/go-chi/chi/v5"
)

// ProfileHandler serves the caller's profile
type ProfileHandler struct {
	profiles service.ProfileService
	logger   *logger.Logger
}

// NewProfileHandler creates a new profile handler
func NewProfileHandler(profiles service.ProfileService, logger *logger.Logger) *ProfileHandler {
	return &ProfileHandler{profiles: profiles, logger: logger}
}

// Get handles GET /profile
func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	profile, err := currentProfile(r)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, profile)
}

// Update handles PUT /profile
func (h *ProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
	profile, err := currentProfile(r)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	var req domain.ProfileUpdate
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	updated, err := h.profiles.UpdateDetails(r.Context(), profile, req)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, updated)
}

// Status handles GET /profile/status. It does not create a profile.
func (h *ProfileHandler) Status(w http.ResponseWriter, r *http.Request) {
	identity := middleware.IdentityFromContext(r.Context())
	if identity == nil {
		respondError(w, r, h.logger, errors.NewAuthenticationError("Authentication required"))
		return
	}

	status, err := h.profiles.Status(r.Context(), identity)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, status)
}

// AdminList handles GET /admin/users
func (h *ProfileHandler) AdminList(w http.ResponseWriter, r *http.Request) {
	users, err := h.profiles.ListUsers(r.Context())
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"users": users})
}

// AdminPurge handles DELETE /admin/users/{userId}
func (h *ProfileHandler) AdminPurge(w http.ResponseWriter, r *http.Request) {
	admin, err := currentProfile(r)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	result, err := h.profiles.Purge(r.Context(), admin, chi.URLParam(r, "userId"))
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"message": "User deleted successfully",
		"result":  result,
	})
}
