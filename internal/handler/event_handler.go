package handler

import (
	"net/http"

	"fest-backend/internal/domain"
	"fest-backend/internal/service"
	"fest-backend/pkg/logger"

	"github.com/go-chi/chi/v5"
)

// EventHandler serves the event catalog
type EventHandler struct {
	events service.EventService
	logger *logger.Logger
}

// NewEventHandler creates a new event handler
func NewEventHandler(events service.EventService, logger *logger.Logger) *EventHandler {
	return &EventHandler{events: events, logger: logger}
}

// List handles GET /events
func (h *EventHandler) List(w http.ResponseWriter, r *http.Request) {
	events, err := h.events.ListLive(r.Context())
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	w.Header().Set("Cache-Control", "public, max-age=60")
	respondJSON(w, http.StatusOK, map[string]interface{}{"events": events})
}

// Get handles GET /events/{eventId}
func (h *EventHandler) Get(w http.ResponseWriter, r *http.Request) {
	event, err := h.events.Get(r.Context(), chi.URLParam(r, "eventId"))
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, event)
}

// AdminList handles GET /admin/events
func (h *EventHandler) AdminList(w http.ResponseWriter, r *http.Request) {
	events, err := h.events.ListAll(r.Context())
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"events": events})
}

// Create handles POST /admin/events
func (h *EventHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input domain.EventInput
	if err := decodeJSON(r, &input); err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	event, err := h.events.Create(r.Context(), input)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusCreated, event)
}

// Update handles PUT /admin/events/{eventId}
func (h *EventHandler) Update(w http.ResponseWriter, r *http.Request) {
	var input domain.EventInput
	if err := decodeJSON(r, &input); err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	event, err := h.events.Update(r.Context(), chi.URLParam(r, "eventId"), input)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, event)
}

// Delete handles DELETE /admin/events/{eventId}
func (h *EventHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.events.Delete(r.Context(), chi.URLParam(r, "eventId")); err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, messageResponse{Message: "Event deleted"})
}
