package repository

import (
	"context"
	"time"

	"fest-backend/internal/domain"
)

// ProfileRepository defines the interface for profile data operations.
// Getters return nil, nil when the profile does not exist.
type ProfileRepository interface {
	// GetByID retrieves a profile by ID
	GetByID(ctx context.Context, id string) (*domain.Profile, error)

	// GetByEmail retrieves a profile by email, case-insensitively
	GetByEmail(ctx context.Context, email string) (*domain.Profile, error)

	// ListByIDs retrieves the profiles with the given IDs
	ListByIDs(ctx context.Context, ids []string) ([]*domain.Profile, error)

	// Create inserts a new profile. Returns ErrConflict when the email is taken.
	Create(ctx context.Context, profile *domain.Profile) error

	// UpdateDetails stores onboarding fields. Returns ErrConflict when the
	// username is taken.
	UpdateDetails(ctx context.Context, id string, update domain.ProfileUpdate, onboardingCompleted bool) (*domain.Profile, error)

	// AddInvitation adds teamID to the profile's invitations
	AddInvitation(ctx context.Context, profileID, teamID string) error

	// RemoveInvitation pulls teamID from the profile's invitations
	RemoveInvitation(ctx context.Context, profileID, teamID string) error

	// ListAll returns every profile, newest first
	ListAll(ctx context.Context) ([]*domain.Profile, error)

	// Purge hard-deletes the profile in one transaction. Teams it leads are
	// disbanded with their registrations, it is pulled from other rosters and
	// selected members, and its individual registrations and dance entries are
	// deleted. Event counters and the other members' event lists are unwound
	// for every deleted registration. Returns ErrNotFound for unknown ids.
	Purge(ctx context.Context, id string) (*domain.PurgeResult, error)
}

// TeamRepository defines the interface for team data operations.
// Every mutation runs as a single transaction.
type TeamRepository interface {
	// GetByID retrieves a team by ID
	GetByID(ctx context.Context, id string) (*domain.Team, error)

	// ListByIDs retrieves the teams with the given IDs
	ListByIDs(ctx context.Context, ids []string) ([]*domain.Team, error)

	// ListByMember returns every team the profile is on, of either kind
	ListByMember(ctx context.Context, profileID string) ([]*domain.Team, error)

	// Create inserts the team and claims the leader's team field for its kind.
	// Returns ErrConflict for a duplicate name and ErrAlreadyInTeam when the
	// leader already holds a team of that kind.
	Create(ctx context.Context, team *domain.Team) error

	// AddMember joins profileID to the team and pulls the matching invitation.
	// Returns ErrTeamLocked or ErrAlreadyInTeam.
	AddMember(ctx context.Context, teamID, profileID string) (*domain.Team, error)

	// RemoveMember takes a non-leader off the roster. Returns ErrTeamLocked.
	RemoveMember(ctx context.Context, teamID, profileID string) error

	// Disband clears every member's team field, strips the team from all
	// invitations, deletes its registrations and cart items, then deletes the
	// team. Returns ErrTeamLocked.
	Disband(ctx context.Context, teamID string) error

	// SetLocked sets or releases the lock flag
	SetLocked(ctx context.Context, teamID string, locked bool) error

	// Search returns unlocked teams of the kind whose name contains query
	Search(ctx context.Context, isEsports bool, query string, limit int) ([]*domain.Team, error)

	// ListAvailable returns the newest unlocked teams of the kind
	ListAvailable(ctx context.Context, isEsports bool, limit int) ([]*domain.Team, error)
}

// EventRepository defines the interface for event catalog operations
type EventRepository interface {
	// GetByEventID retrieves an event by its slug
	GetByEventID(ctx context.Context, eventID string) (*domain.Event, error)

	// ListLive returns visible events
	ListLive(ctx context.Context) ([]*domain.Event, error)

	// ListAll returns every event including hidden ones
	ListAll(ctx context.Context) ([]*domain.Event, error)

	// Create inserts the event together with its channel. Returns ErrConflict
	// when the slug is taken.
	Create(ctx context.Context, event *domain.Event, channel *domain.Channel) error

	// Update stores the editable fields of an event
	Update(ctx context.Context, event *domain.Event) error

	// Delete removes an event and its channel
	Delete(ctx context.Context, eventID string) error
}

// RegistrationEffects are the profile and team writes that accompany a new
// registration.
type RegistrationEffects struct {
	// LockTeam locks the registering team
	LockTeam bool
	// EnforceCapacity rejects with ErrEventFull when the cap is reached
	EnforceCapacity bool
}

// RegistrationRepository defines the interface for registration and
// payment-state operations
type RegistrationRepository interface {
	// GetByID retrieves a registration by ID
	GetByID(ctx context.Context, id string) (*domain.Registration, error)

	// GetByOrderID retrieves the registration carrying a gateway order
	GetByOrderID(ctx context.Context, orderID string) (*domain.Registration, error)

	// FindForProfile returns the registration for eventID that involves the
	// profile either directly or through a team they are on
	FindForProfile(ctx context.Context, profileID, eventID string) (*domain.Registration, error)

	// ListForProfile returns every registration involving the profile
	ListForProfile(ctx context.Context, profileID string) ([]*domain.Registration, error)

	// List returns registrations matching the filter, newest first
	List(ctx context.Context, filter domain.RegistrationFilter) ([]*domain.Registration, error)

	// Create inserts the registration and applies effects in one transaction:
	// registeredEvents for every selected member, the team lock, and for a
	// confirmed registration the paidEvents and event counter. Returns
	// ErrConflict for a duplicate (team, event) or (individual, event) pair.
	Create(ctx context.Context, reg *domain.Registration, effects RegistrationEffects) error

	// AttachOrder stores a gateway order id and moves the registration to
	// pending. Returns ErrInvalidState from a status that cannot take an order.
	AttachOrder(ctx context.Context, id, orderID string) error

	// Confirm moves the registration to conf.Status. The paidEvents and
	// event counter side effects are applied only the first time any
	// confirmation lands; applied reports whether this call applied them.
	// A gateway payment id already recorded returns applied=false.
	Confirm(ctx context.Context, id string, conf domain.PaymentConfirmation) (reg *domain.Registration, applied bool, err error)

	// Reject moves the registration to failed with the admin stamp. Returns
	// ErrInvalidState for a confirmed registration.
	Reject(ctx context.Context, id string, stamp domain.ManualVerification) (*domain.Registration, error)

	// SubmitEvidence stores a screenshot URL and moves the registration to
	// verification_pending. Returns ErrInvalidState from a confirmed status.
	SubmitEvidence(ctx context.Context, id, screenshotURL string) (*domain.Registration, error)

	// CheckIn stamps the check-in time. Returns ErrInvalidState when the
	// registration is unpaid or already checked in.
	CheckIn(ctx context.Context, id string, at time.Time) (*domain.Registration, error)

	// ListStale returns initiated or pending registrations untouched since
	// cutoff. Attaching a gateway order counts as a touch.
	ListStale(ctx context.Context, cutoff time.Time) ([]*domain.Registration, error)

	// Expire deletes a stale registration, pulls its event from members'
	// registeredEvents and unlocks the team when nothing else references it.
	// Returns ErrInvalidState when the registration has moved on.
	Expire(ctx context.Context, id string, cutoff time.Time) error
}

// ChannelRepository defines the interface for channel lookups
type ChannelRepository interface {
	// ListActive returns every active channel
	ListActive(ctx context.Context) ([]*domain.Channel, error)

	// GetByEventID retrieves the channel linked to an event slug
	GetByEventID(ctx context.Context, eventID string) (*domain.Channel, error)
}

// DanceRepository defines the interface for dance submission operations
type DanceRepository interface {
	// Create inserts a submission unless the profile already holds max.
	// Returns ErrInvalidState when the cap is reached.
	Create(ctx context.Context, reg *domain.DanceRegistration, max int) error

	// ListByProfile returns a profile's submissions
	ListByProfile(ctx context.Context, profileID string) ([]*domain.DanceRegistration, error)

	// CountByProfile counts a profile's submissions
	CountByProfile(ctx context.Context, profileID string) (int, error)

	// ListAll returns every submission, newest first
	ListAll(ctx context.Context) ([]*domain.DanceRegistration, error)

	// UpdateStatus sets the review status
	UpdateStatus(ctx context.Context, id, status string) (*domain.DanceRegistration, error)
}

// Repositories aggregates all repository interfaces
type Repositories struct {
	Profile      ProfileRepository
	Team         TeamRepository
	Event        EventRepository
	Registration RegistrationRepository
	Channel      ChannelRepository
	Dance        DanceRepository
}
