package service

import (
	"context"
	"errors"
	"strings"

	"fest-backend/internal/domain"
	"fest-backend/internal/repository"
	apperrors "fest-backend/pkg/errors"
	"fest-backend/pkg/logger"
)

const dancePerformanceTime = "4-5 minutes"

type danceService struct {
	dance  repository.DanceRepository
	logger *logger.Logger
}

// NewDanceService creates the dance submission service
func NewDanceService(repos *repository.Repositories, log *logger.Logger) DanceService {
	return &danceService{
		dance:  repos.Dance,
		logger: log,
	}
}

func (s *danceService) Submit(ctx context.Context, profile *domain.Profile, req domain.DanceRequest) (*domain.DanceRegistration, error) {
	style := strings.TrimSpace(req.DanceStyle)
	video := strings.TrimSpace(req.VideoLink)
	if style == "" || video == "" {
		return nil, apperrors.NewValidationError("Missing required fields", nil)
	}

	reg := &domain.DanceRegistration{
		ProfileID:       profile.ID,
		Category:        req.Category,
		DanceStyle:      style,
		PerformanceTime: dancePerformanceTime,
		VideoLink:       video,
		Status:          domain.DanceStatusPending,
	}

	switch req.Category {
	case domain.DanceSolo:
		reg.Members = []string{}
	case domain.DanceGroup:
		reg.TeamName = strings.TrimSpace(req.TeamName)
		if reg.TeamName == "" {
			return nil, apperrors.NewValidationError("Team name is required for group performances", map[string]interface{}{
				"field": "team_name",
			})
		}
		reg.Members = trimMembers(req.Members)
	default:
		return nil, apperrors.NewValidationError("Category must be Solo or Group", nil)
	}

	err := s.dance.Create(ctx, reg, domain.MaxDanceSubmissions)
	if errors.Is(err, repository.ErrInvalidState) {
		return nil, apperrors.NewConflictError("Maximum limit of 3 registrations reached")
	}
	if err != nil {
		return nil, apperrors.NewInternalError("Failed to save dance registration", err)
	}

	s.logger.WithFields(map[string]interface{}{
		"profile_id":      profile.ID,
		"registration_id": reg.ID,
		"category":        reg.Category,
	}).Info("Dance registration submitted")
	return reg, nil
}

func trimMembers(members []string) []string {
	out := make([]string, 0, len(members))
	for _, m := range members {
		if m = strings.TrimSpace(m); m != "" {
			out = append(out, m)
		}
	}
	return out
}

func (s *danceService) ListMine(ctx context.Context, profile *domain.Profile) ([]*domain.DanceRegistration, error) {
	regs, err := s.dance.ListByProfile(ctx, profile.ID)
	if err != nil {
		return nil, apperrors.NewInternalError("Failed to load dance registrations", err)
	}
	return regs, nil
}

func (s *danceService) ListAll(ctx context.Context) ([]*domain.DanceRegistration, error) {
	regs, err := s.dance.ListAll(ctx)
	if err != nil {
		return nil, apperrors.NewInternalError("Failed to load dance registrations", err)
	}
	return regs, nil
}

func (s *danceService) UpdateStatus(ctx context.Context, req domain.DanceStatusRequest) (*domain.DanceRegistration, error) {
	switch req.Status {
	case domain.DanceStatusPending, domain.DanceStatusVerified, domain.DanceStatusRejected:
	default:
		return nil, apperrors.NewValidationError("Unknown dance status", map[string]interface{}{
			"status": req.Status,
		})
	}

	reg, err := s.dance.UpdateStatus(ctx, req.RegistrationID, req.Status)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NewNotFoundError("Dance registration not found")
	}
	if err != nil {
		return nil, apperrors.NewInternalError("Failed to update dance registration", err)
	}

	s.logger.WithFields(map[string]interface{}{
		"registration_id": reg.ID,
		"status":          reg.Status,
	}).Info("Dance registration reviewed")
	return reg, nil
}
