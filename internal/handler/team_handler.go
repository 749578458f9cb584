package handler

import (
	"net/http"
	"strings"

	"fest-backend/internal/domain"
	"fest-backend/internal/service"
	"fest-backend/pkg/logger"

	"github.com/go-chi/chi/v5"
)

// TeamHandler handles team formation requests
type TeamHandler struct {
	teams  service.TeamService
	logger *logger.Logger
}

// NewTeamHandler creates a new team handler
func NewTeamHandler(teams service.TeamService, logger *logger.Logger) *TeamHandler {
	return &TeamHandler{teams: teams, logger: logger}
}

// List handles GET /teams?type=&search=&available=
func (h *TeamHandler) List(w http.ResponseWriter, r *http.Request) {
	profile, err := currentProfile(r)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	q := r.URL.Query()
	isEsports := isEsportsParam(r)

	switch {
	case q.Has("search"):
		teams, err := h.teams.Search(r.Context(), isEsports, strings.TrimSpace(q.Get("search")))
		if err != nil {
			respondError(w, r, h.logger, err)
			return
		}
		respondJSON(w, http.StatusOK, map[string]interface{}{"teams": teams})

	case q.Get("available") == "true":
		teams, err := h.teams.Available(r.Context(), isEsports)
		if err != nil {
			respondError(w, r, h.logger, err)
			return
		}
		respondJSON(w, http.StatusOK, map[string]interface{}{"teams": teams})

	default:
		resp, err := h.teams.MyTeam(r.Context(), profile, isEsports)
		if err != nil {
			respondError(w, r, h.logger, err)
			return
		}
		respondJSON(w, http.StatusOK, resp)
	}
}

// Create handles POST /teams
func (h *TeamHandler) Create(w http.ResponseWriter, r *http.Request) {
	profile, err := currentProfile(r)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	var req domain.CreateTeamRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	team, err := h.teams.Create(r.Context(), profile, req)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusCreated, team)
}

// Leave handles POST /teams/leave
func (h *TeamHandler) Leave(w http.ResponseWriter, r *http.Request) {
	profile, err := currentProfile(r)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	var req domain.LeaveTeamRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	result, err := h.teams.LeaveOrDisband(r.Context(), profile, req.Type == "esports")
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// Invite handles POST /teams/invite
func (h *TeamHandler) Invite(w http.ResponseWriter, r *http.Request) {
	profile, err := currentProfile(r)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	var req domain.InviteRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	if err := h.teams.Invite(r.Context(), profile, req); err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, messageResponse{Message: "Invitation sent"})
}

// AcceptInvitation handles POST /teams/invitations/{teamId}/accept
func (h *TeamHandler) AcceptInvitation(w http.ResponseWriter, r *http.Request) {
	profile, err := currentProfile(r)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	team, err := h.teams.AcceptInvitation(r.Context(), profile, chi.URLParam(r, "teamId"))
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, team)
}

// DeclineInvitation handles POST /teams/invitations/{teamId}/decline
func (h *TeamHandler) DeclineInvitation(w http.ResponseWriter, r *http.Request) {
	profile, err := currentProfile(r)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	if err := h.teams.DeclineInvitation(r.Context(), profile, chi.URLParam(r, "teamId")); err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, messageResponse{Message: "Invitation declined"})
}

// Unlock handles POST /admin/teams/{teamId}/unlock
func (h *TeamHandler) Unlock(w http.ResponseWriter, r *http.Request) {
	admin, err := currentProfile(r)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	team, err := h.teams.Unlock(r.Context(), admin, chi.URLParam(r, "teamId"))
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, team)
}
