package service

import (
	"context"
	"io"

	"fest-backend/internal/domain"
)

// AuthService resolves bearer tokens into identities
type AuthService interface {
	// Authenticate validates a session JWT or Google ID token
	Authenticate(ctx context.Context, token string) (*domain.Identity, error)
}

// ProfileService manages the canonical user record
type ProfileService interface {
	// GetOrCreate maps an identity to its profile, creating it on first sign-in
	GetOrCreate(ctx context.Context, identity *domain.Identity) (*domain.Profile, error)

	// Find returns the identity's profile or nil
	Find(ctx context.Context, identity *domain.Identity) (*domain.Profile, error)

	// UpdateDetails stores onboarding fields
	UpdateDetails(ctx context.Context, profile *domain.Profile, update domain.ProfileUpdate) (*domain.Profile, error)

	// Status derives the registered and paid event lists
	Status(ctx context.Context, identity *domain.Identity) (*domain.ProfileStatus, error)

	// ListUsers returns every profile for the admin console
	ListUsers(ctx context.Context) ([]domain.UserSummary, error)

	// Purge hard-deletes a profile and unwinds what references it
	Purge(ctx context.Context, admin *domain.Profile, profileID string) (*domain.PurgeResult, error)
}

// TeamService implements team formation
type TeamService interface {
	Create(ctx context.Context, profile *domain.Profile, req domain.CreateTeamRequest) (*domain.Team, error)
	LeaveOrDisband(ctx context.Context, profile *domain.Profile, isEsports bool) (*domain.LeaveResult, error)
	Invite(ctx context.Context, leader *domain.Profile, req domain.InviteRequest) error
	AcceptInvitation(ctx context.Context, profile *domain.Profile, teamID string) (*domain.Team, error)
	DeclineInvitation(ctx context.Context, profile *domain.Profile, teamID string) error
	MyTeam(ctx context.Context, profile *domain.Profile, isEsports bool) (*domain.MyTeamResponse, error)
	Search(ctx context.Context, isEsports bool, query string) ([]*domain.Team, error)
	Available(ctx context.Context, isEsports bool) ([]*domain.Team, error)
	Unlock(ctx context.Context, admin *domain.Profile, teamID string) (*domain.Team, error)
}

// EventService serves the event catalog
type EventService interface {
	ListLive(ctx context.Context) ([]*domain.Event, error)
	Get(ctx context.Context, eventID string) (*domain.Event, error)
	ListAll(ctx context.Context) ([]*domain.Event, error)
	Create(ctx context.Context, input domain.EventInput) (*domain.Event, error)
	Update(ctx context.Context, eventID string, input domain.EventInput) (*domain.Event, error)
	Delete(ctx context.Context, eventID string) error
}

// RegistrationService binds teams and individuals to events
type RegistrationService interface {
	Register(ctx context.Context, profile *domain.Profile, req domain.RegisterRequest) (*domain.RegisterResponse, error)
	ListMine(ctx context.Context, profile *domain.Profile) ([]*domain.Registration, error)
	List(ctx context.Context, filter domain.RegistrationFilter) ([]*domain.Registration, error)
	CheckIn(ctx context.Context, req domain.CheckInRequest) (*domain.CheckInResult, error)
}

// Evidence is an uploaded payment screenshot
type Evidence struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// PaymentService reconciles gateway and manual payments
type PaymentService interface {
	CreateOrder(ctx context.Context, profile *domain.Profile, eventID string) (*domain.CreateOrderResponse, error)
	Verify(ctx context.Context, profile *domain.Profile, req domain.VerifyPaymentRequest) (*domain.VerifyPaymentResponse, error)
	SubmitEvidence(ctx context.Context, profile *domain.Profile, registrationID string, evidence Evidence) (*domain.Registration, error)
	Review(ctx context.Context, admin *domain.Profile, req domain.ManualReviewRequest) (*domain.Registration, error)
}

// ChannelService derives channel access
type ChannelService interface {
	ListForViewer(ctx context.Context, profile *domain.Profile) ([]*domain.ChannelAccess, error)
	Get(ctx context.Context, profile *domain.Profile, eventID string) (*domain.ChannelDetail, error)
}

// DanceService handles dance-performance submissions
type DanceService interface {
	Submit(ctx context.Context, profile *domain.Profile, req domain.DanceRequest) (*domain.DanceRegistration, error)
	ListMine(ctx context.Context, profile *domain.Profile) ([]*domain.DanceRegistration, error)
	ListAll(ctx context.Context) ([]*domain.DanceRegistration, error)
	UpdateStatus(ctx context.Context, req domain.DanceStatusRequest) (*domain.DanceRegistration, error)
}

// Services aggregates all service interfaces
type Services struct {
	Auth         AuthService
	Profile      ProfileService
	Team         TeamService
	Event        EventService
	Registration RegistrationService
	Payment      PaymentService
	Channel      ChannelService
	Dance        DanceService
}
