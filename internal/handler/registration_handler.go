package handler

import (
	"net/http"

	"fest-backend/internal/domain"
	"fest-backend/internal/service"
	"fest-backend/pkg/logger"
)

// RegistrationHandler handles event registrations and check-in
type RegistrationHandler struct {
	registrations service.RegistrationService
	logger        *logger.Logger
}

// NewRegistrationHandler creates a new registration handler
func NewRegistrationHandler(registrations service.RegistrationService, logger *logger.Logger) *RegistrationHandler {
	return &RegistrationHandler{registrations: registrations, logger: logger}
}

// Register handles POST /events/register
func (h *RegistrationHandler) Register(w http.ResponseWriter, r *http.Request) {
	profile, err := currentProfile(r)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	var req domain.RegisterRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	resp, err := h.registrations.Register(r.Context(), profile, req)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusCreated, resp)
}

// ListMine handles GET /registrations
func (h *RegistrationHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	profile, err := currentProfile(r)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	regs, err := h.registrations.ListMine(r.Context(), profile)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"registrations": regs})
}

// AdminList handles GET /admin/registrations?eventId=&status=
func (h *RegistrationHandler) AdminList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	regs, err := h.registrations.List(r.Context(), domain.RegistrationFilter{
		EventID: q.Get("eventId"),
		Status:  domain.PaymentStatus(q.Get("status")),
	})
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"registrations": regs})
}

// CheckIn handles POST /admin/check-in
func (h *RegistrationHandler) CheckIn(w http.ResponseWriter, r *http.Request) {
	var req domain.CheckInRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	result, err := h.registrations.CheckIn(r.Context(), req)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}
