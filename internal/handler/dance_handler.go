package handler

import (
	"net/http"

	"fest-backend/internal/domain"
	"fest-backend/internal/service"
	"fest-backend/pkg/logger"
)

// DanceHandler handles dance-performance submissions
type DanceHandler struct {
	dance  service.DanceService
	logger *logger.Logger
}

// NewDanceHandler creates a new dance handler
func NewDanceHandler(dance service.DanceService, logger *logger.Logger) *DanceHandler {
	return &DanceHandler{dance: dance, logger: logger}
}

// Submit handles POST /dance
func (h *DanceHandler) Submit(w http.ResponseWriter, r *http.Request) {
	profile, err := currentProfile(r)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	var req domain.DanceRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	reg, err := h.dance.Submit(r.Context(), profile, req)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"message":      "Registration successful!",
		"registration": reg,
	})
}

// ListMine handles GET /dance
func (h *DanceHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	profile, err := currentProfile(r)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	regs, err := h.dance.ListMine(r.Context(), profile)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"registrations": regs})
}

// AdminList handles GET /admin/dance
func (h *DanceHandler) AdminList(w http.ResponseWriter, r *http.Request) {
	regs, err := h.dance.ListAll(r.Context())
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"registrations": regs})
}

// UpdateStatus handles PATCH /admin/dance
func (h *DanceHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req domain.DanceStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	reg, err := h.dance.UpdateStatus(r.Context(), req)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, reg)
}
