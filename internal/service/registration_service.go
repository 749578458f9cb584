package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fest-backend/internal/domain"
	"fest-backend/internal/repository"
	apperrors "fest-backend/pkg/errors"
	"fest-backend/pkg/logger"
)

// Check-in lookup outcomes
const (
	CheckInValid     = "VALID"
	CheckInCompleted = "CHECKED_IN"
)

type registrationService struct {
	events        repository.EventRepository
	teams         repository.TeamRepository
	registrations repository.RegistrationRepository
	currency      string
	now           func() time.Time
	logger        *logger.Logger
}

// NewRegistrationService creates the registration engine
func NewRegistrationService(repos *repository.Repositories, currency string, log *logger.Logger) RegistrationService {
	return &registrationService{
		events:        repos.Event,
		teams:         repos.Team,
		registrations: repos.Registration,
		currency:      currency,
		now:           time.Now,
		logger:        log,
	}
}

func (s *registrationService) Register(ctx context.Context, profile *domain.Profile, req domain.RegisterRequest) (*domain.RegisterResponse, error) {
	event, err := s.events.GetByEventID(ctx, req.EventID)
	if err != nil {
		return nil, apperrors.NewInternalError("Failed to load event", err)
	}
	if event == nil || !event.IsLive {
		return nil, apperrors.NewNotFoundError("Event not found or not available")
	}

	if !profile.IsComplete() {
		return nil, apperrors.NewValidationError("Complete your profile before registering", map[string]interface{}{
			"missing_fields": profile.MissingMandatoryFields(),
		})
	}

	reg := &domain.Registration{
		EventID:        event.EventID,
		AmountExpected: event.Fees,
		Currency:       s.currency,
		PaymentStatus:  domain.PaymentInitiated,
	}
	if event.IsFree() {
		reg.PaymentStatus = domain.PaymentPaid
	}

	var message string
	var effects repository.RegistrationEffects

	if req.TeamID != "" {
		members, err := s.validateRoster(ctx, profile, event, req)
		if err != nil {
			return nil, err
		}
		teamID := req.TeamID
		reg.TeamID = &teamID
		reg.SelectedMembers = members

		// Paid events lock the roster at registration time
		effects.LockTeam = !event.IsFree()
		effects.EnforceCapacity = event.IsFree()
		message = "Team successfully registered!"
	} else {
		if profile.HasRegistered(event.EventID) {
			return nil, apperrors.NewConflictError("Already registered for this event")
		}
		if event.IsFull() {
			return nil, apperrors.NewConflictError("Event is fully booked")
		}
		individualID := profile.ID
		reg.IndividualID = &individualID
		reg.SelectedMembers = []string{profile.ID}

		effects.EnforceCapacity = true
		message = "Successfully registered!"
	}

	err = s.registrations.Create(ctx, reg, effects)
	switch {
	case errors.Is(err, repository.ErrConflict):
		if reg.TeamID != nil {
			return nil, apperrors.NewConflictError("Team already registered for this event")
		}
		return nil, apperrors.NewConflictError("Already registered for this event")
	case errors.Is(err, repository.ErrEventFull):
		return nil, apperrors.NewConflictError("Event is fully booked")
	case errors.Is(err, repository.ErrNotFound):
		return nil, apperrors.NewNotFoundError("Event not found or not available")
	case err != nil:
		return nil, apperrors.NewInternalError("Failed to create registration", err)
	}

	s.logger.WithFields(map[string]interface{}{
		"registration_id": reg.ID,
		"event_id":        event.EventID,
		"profile_id":      profile.ID,
		"team":            reg.TeamID != nil,
		"status":          reg.PaymentStatus,
	}).Info("Registration created")

	return &domain.RegisterResponse{
		Message:        message,
		RegistrationID: reg.ID,
		EventID:        event.EventID,
		EventTitle:     event.Title,
		Fees:           event.Fees,
		PaymentStatus:  reg.PaymentStatus,
	}, nil
}

// validateRoster applies the team-path rules and returns the de-duplicated
// selection.
func (s *registrationService) validateRoster(ctx context.Context, profile *domain.Profile, event *domain.Event, req domain.RegisterRequest) ([]string, error) {
	team, err := s.teams.GetByID(ctx, req.TeamID)
	if err != nil {
		return nil, apperrors.NewInternalError("Failed to load team", err)
	}
	if team == nil {
		return nil, apperrors.NewNotFoundError("Team not found")
	}
	if !team.IsLeader(profile.ID) {
		return nil, apperrors.NewAuthorizationError("Only the Team Leader can register the team")
	}

	seen := make(map[string]bool, len(req.SelectedMembers))
	members := make([]string, 0, len(req.SelectedMembers))
	for _, id := range req.SelectedMembers {
		if seen[id] {
			continue
		}
		seen[id] = true
		if !team.HasMember(id) {
			return nil, apperrors.NewValidationError("One or more selected members are not in your team", map[string]interface{}{
				"member_id": id,
			})
		}
		members = append(members, id)
	}

	if n := len(members); n < event.MinTeamSize || n > event.MaxTeamSize {
		return nil, apperrors.NewValidationError(
			fmt.Sprintf("Team size must be between %d and %d for this event", event.MinTeamSize, event.MaxTeamSize),
			map[string]interface{}{
				"selected": n,
				"min":      event.MinTeamSize,
				"max":      event.MaxTeamSize,
			})
	}
	return members, nil
}

func (s *registrationService) ListMine(ctx context.Context, profile *domain.Profile) ([]*domain.Registration, error) {
	regs, err := s.registrations.ListForProfile(ctx, profile.ID)
	if err != nil {
		return nil, apperrors.NewInternalError("Failed to list registrations", err)
	}
	return regs, nil
}

func (s *registrationService) List(ctx context.Context, filter domain.RegistrationFilter) ([]*domain.Registration, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, apperrors.NewValidationError("Unknown payment status", map[string]interface{}{
			"status": filter.Status,
		})
	}
	regs, err := s.registrations.List(ctx, filter)
	if err != nil {
		return nil, apperrors.NewInternalError("Failed to list registrations", err)
	}
	return regs, nil
}

func (s *registrationService) CheckIn(ctx context.Context, req domain.CheckInRequest) (*domain.CheckInResult, error) {
	reg, err := s.registrations.GetByID(ctx, req.RegistrationID)
	if err != nil {
		return nil, apperrors.NewInternalError("Failed to load registration", err)
	}
	if reg == nil {
		return nil, apperrors.NewNotFoundError("Registration not found")
	}
	if !reg.PaymentStatus.IsConfirmed() {
		return nil, apperrors.NewConflictError("Registration not paid or verified")
	}

	if req.Action != "checkIn" {
		return &domain.CheckInResult{Message: "Valid registration found", Status: CheckInValid, Registration: reg}, nil
	}

	checked, err := s.registrations.CheckIn(ctx, reg.ID, s.now())
	if errors.Is(err, repository.ErrInvalidState) {
		if checked != nil && checked.CheckedIn {
			return nil, apperrors.NewConflictError("Already checked in")
		}
		return nil, apperrors.NewConflictError("Registration not paid or verified")
	}
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NewNotFoundError("Registration not found")
	}
	if err != nil {
		return nil, apperrors.NewInternalError("Failed to check in", err)
	}

	s.logger.WithField("registration_id", reg.ID).Info("Registration checked in")
	return &domain.CheckInResult{Message: "Check-in successful", Status: CheckInCompleted, Registration: checked}, nil
}
