package service

import (
	"context"
	"errors"
	"strings"

	"fest-backend/internal/domain"
	"fest-backend/internal/repository"
	apperrors "fest-backend/pkg/errors"
	"fest-backend/pkg/logger"
	"fest-backend/pkg/utils"

	"github.com/google/uuid"
)

type profileService struct {
	profiles      repository.ProfileRepository
	registrations repository.RegistrationRepository
	adminEmails   map[string]struct{}
	logger        *logger.Logger
}

// NewProfileService creates the profile service. Emails in adminEmails are
// given the admin role when their profile is first created.
func NewProfileService(repos *repository.Repositories, adminEmails []string, log *logger.Logger) ProfileService {
	admins := make(map[string]struct{}, len(adminEmails))
	for _, e := range adminEmails {
		admins[strings.ToLower(e)] = struct{}{}
	}
	return &profileService{
		profiles:      repos.Profile,
		registrations: repos.Registration,
		adminEmails:   admins,
		logger:        log,
	}
}

func (s *profileService) GetOrCreate(ctx context.Context, identity *domain.Identity) (*domain.Profile, error) {
	if identity == nil || identity.Email == "" {
		return nil, apperrors.NewAuthenticationError("Authentication required")
	}

	profile, err := s.Find(ctx, identity)
	if err != nil || profile != nil {
		return profile, err
	}

	email := strings.ToLower(identity.Email)
	role := domain.RoleUser
	if _, ok := s.adminEmails[email]; ok {
		role = domain.RoleAdmin
	}

	first, last := splitName(identity.Name)
	profile = &domain.Profile{
		Email:          email,
		ExternalAuthID: identity.Subject,
		Role:           role,
		FirstName:      first,
		LastName:       last,
	}

	err = s.profiles.Create(ctx, profile)
	if errors.Is(err, repository.ErrConflict) {
		// Lost a race with a concurrent first sign-in
		return s.Find(ctx, identity)
	}
	if err != nil {
		return nil, apperrors.NewInternalError("Failed to create profile", err)
	}

	s.logger.WithFields(map[string]interface{}{
		"profile_id": profile.ID,
		"role":       profile.Role,
	}).Info("Profile created")
	return profile, nil
}

func (s *profileService) Find(ctx context.Context, identity *domain.Identity) (*domain.Profile, error) {
	if identity == nil || identity.Email == "" {
		return nil, apperrors.NewAuthenticationError("Authentication required")
	}
	profile, err := s.profiles.GetByEmail(ctx, identity.Email)
	if err != nil {
		return nil, apperrors.NewInternalError("Failed to load profile", err)
	}
	return profile, nil
}

func (s *profileService) UpdateDetails(ctx context.Context, profile *domain.Profile, update domain.ProfileUpdate) (*domain.Profile, error) {
	update.Username = strings.TrimSpace(update.Username)

	phone, err := utils.NormalizePhoneNumber(update.Phone)
	if err != nil {
		return nil, apperrors.NewValidationError("Enter a valid 10-digit mobile number", map[string]interface{}{
			"field": "phone",
		})
	}
	update.Phone = phone

	candidate := *profile
	candidate.Username = update.Username
	candidate.Phone = update.Phone
	candidate.College = update.College
	candidate.City = update.City
	candidate.State = update.State
	candidate.Degree = update.Degree
	complete := len(candidate.MissingMandatoryFields()) == 0

	updated, err := s.profiles.UpdateDetails(ctx, profile.ID, update, complete)
	switch {
	case errors.Is(err, repository.ErrConflict):
		return nil, apperrors.NewValidationError("Username is already taken", map[string]interface{}{
			"field": "username",
		})
	case errors.Is(err, repository.ErrNotFound):
		return nil, apperrors.NewNotFoundError("Profile not found")
	case err != nil:
		return nil, apperrors.NewInternalError("Failed to update profile", err)
	}
	return updated, nil
}

func (s *profileService) Status(ctx context.Context, identity *domain.Identity) (*domain.ProfileStatus, error) {
	status := &domain.ProfileStatus{
		Registrations:    []domain.RegistrationStatus{},
		RegisteredEvents: []string{},
		PaidEvents:       []string{},
	}

	profile, err := s.Find(ctx, identity)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return status, nil
	}

	status.OnboardingCompleted = profile.OnboardingCompleted
	status.Username = profile.Username

	regs, err := s.registrations.ListForProfile(ctx, profile.ID)
	if err != nil {
		return nil, apperrors.NewInternalError("Failed to load registrations", err)
	}

	seenRegistered := map[string]bool{}
	seenPaid := map[string]bool{}
	for _, reg := range regs {
		status.Registrations = append(status.Registrations, domain.RegistrationStatus{
			RegistrationID: reg.ID,
			EventID:        reg.EventID,
			Status:         reg.PaymentStatus,
		})
		if !seenRegistered[reg.EventID] {
			seenRegistered[reg.EventID] = true
			status.RegisteredEvents = append(status.RegisteredEvents, reg.EventID)
		}
		if reg.PaymentStatus.IsConfirmed() && !seenPaid[reg.EventID] {
			seenPaid[reg.EventID] = true
			status.PaidEvents = append(status.PaidEvents, reg.EventID)
		}
	}
	return status, nil
}

func (s *profileService) ListUsers(ctx context.Context) ([]domain.UserSummary, error) {
	profiles, err := s.profiles.ListAll(ctx)
	if err != nil {
		return nil, apperrors.NewInternalError("Failed to load users", err)
	}

	users := make([]domain.UserSummary, 0, len(profiles))
	for _, p := range profiles {
		users = append(users, domain.UserSummary{Profile: p, Name: p.DisplayName()})
	}
	return users, nil
}

func (s *profileService) Purge(ctx context.Context, admin *domain.Profile, profileID string) (*domain.PurgeResult, error) {
	if _, err := uuid.Parse(profileID); err != nil {
		return nil, apperrors.NewNotFoundError("User not found")
	}
	if admin != nil && admin.ID == profileID {
		return nil, apperrors.NewValidationError("You cannot delete your own account", nil)
	}

	result, err := s.profiles.Purge(ctx, profileID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NewNotFoundError("User not found")
	}
	if err != nil {
		return nil, apperrors.NewInternalError("Failed to delete user", err)
	}

	fields := map[string]interface{}{
		"profile_id":            profileID,
		"disbanded_teams":       len(result.DisbandedTeams),
		"deleted_registrations": result.DeletedRegistrations,
	}
	if admin != nil {
		fields["admin_id"] = admin.ID
	}
	s.logger.WithFields(fields).Warn("Profile purged")
	return result, nil
}

func splitName(name string) (string, string) {
	parts := strings.Fields(name)
	switch len(parts) {
	case 0:
		return "", ""
	case 1:
		return parts[0], ""
	default:
		return parts[0], strings.Join(parts[1:], " ")
	}
}
