package handler

import (
	"net/http"

	"fest-backend/internal/service"
	"fest-backend/pkg/logger"

	"github.com/go-chi/chi/v5"
)

// ChannelHandler serves event channels
type ChannelHandler struct {
	channels service.ChannelService
	logger   *logger.Logger
}

// NewChannelHandler creates a new channel handler
func NewChannelHandler(channels service.ChannelService, logger *logger.Logger) *ChannelHandler {
	return &ChannelHandler{channels: channels, logger: logger}
}

// List handles GET /user/channels
func (h *ChannelHandler) List(w http.ResponseWriter, r *http.Request) {
	profile, err := currentProfile(r)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	channels, err := h.channels.ListForViewer(r.Context(), profile)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"channels": channels})
}

// Get handles GET /channels/{eventId}
func (h *ChannelHandler) Get(w http.ResponseWriter, r *http.Request) {
	profile, err := currentProfile(r)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	detail, err := h.channels.Get(r.Context(), profile, chi.URLParam(r, "eventId"))
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, detail)
}
