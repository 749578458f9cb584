package domain

import "time"

// Profile is the canonical user record
type Profile struct {
	ID             string `json:"id"`
	Email          string `json:"email"`
	ExternalAuthID string `json:"external_auth_id,omitempty"`
	Role           string `json:"role"`

	Username  string `json:"username,omitempty"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	Phone     string `json:"phone,omitempty"`
	College   string `json:"college,omitempty"`
	City      string `json:"city,omitempty"`
	State     string `json:"state,omitempty"`
	Degree    string `json:"degree,omitempty"`

	OnboardingCompleted bool `json:"onboarding_completed"`

	CurrentTeamID *string `json:"current_team_id,omitempty"`
	EsportsTeamID *string `json:"esports_team_id,omitempty"`

	RegisteredEvents []string `json:"registered_events"`
	PaidEvents       []string `json:"paid_events"`
	Invitations      []string `json:"invitations"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// MissingMandatoryFields lists the onboarding fields that are still empty
func (p *Profile) MissingMandatoryFields() []string {
	var missing []string
	fields := []struct {
		name  string
		value string
	}{
		{"username", p.Username},
		{"phone", p.Phone},
		{"college", p.College},
		{"city", p.City},
		{"state", p.State},
		{"degree", p.Degree},
	}
	for _, f := range fields {
		if f.value == "" {
			missing = append(missing, f.name)
		}
	}
	return missing
}

// IsComplete reports whether the profile may create teams
func (p *Profile) IsComplete() bool {
	return p.OnboardingCompleted && len(p.MissingMandatoryFields()) == 0
}

// TeamID returns the team id held for the given kind
func (p *Profile) TeamID(isEsports bool) *string {
	if isEsports {
		return p.EsportsTeamID
	}
	return p.CurrentTeamID
}

// HasRegistered reports whether eventID is in RegisteredEvents
func (p *Profile) HasRegistered(eventID string) bool {
	return contains(p.RegisteredEvents, eventID)
}

// HasPaid reports whether eventID is in PaidEvents
func (p *Profile) HasPaid(eventID string) bool {
	return contains(p.PaidEvents, eventID)
}

// HasInvitation reports whether the profile holds an invitation to teamID
func (p *Profile) HasInvitation(teamID string) bool {
	return contains(p.Invitations, teamID)
}

// DisplayName is "First Last", falling back to the username
func (p *Profile) DisplayName() string {
	if p.FirstName != "" && p.LastName != "" {
		return p.FirstName + " " + p.LastName
	}
	if p.Username != "" {
		return p.Username
	}
	return "Unknown"
}

// ProfileUpdate carries the onboarding fields a user may edit
type ProfileUpdate struct {
	Username  string `json:"username" validate:"required,min=3,max=32,alphanumunicode"`
	FirstName string `json:"first_name" validate:"required,max=100"`
	LastName  string `json:"last_name" validate:"max=100"`
	Phone     string `json:"phone" validate:"required,min=10,max=20"`
	College   string `json:"college" validate:"required,max=200"`
	City      string `json:"city" validate:"required,max=100"`
	State     string `json:"state" validate:"required,max=100"`
	Degree    string `json:"degree" validate:"required,max=100"`
}

// ProfileStatus is the derived registered/paid view returned to the caller
type ProfileStatus struct {
	Registrations       []RegistrationStatus `json:"registrations"`
	RegisteredEvents    []string             `json:"registered_events"`
	PaidEvents          []string             `json:"paid_events"`
	OnboardingCompleted bool                 `json:"onboarding_completed"`
	Username            string               `json:"username,omitempty"`
}

// UserSummary is a profile as listed to admins
type UserSummary struct {
	*Profile
	Name string `json:"name"`
}

// PurgeResult reports what an admin purge removed
type PurgeResult struct {
	ProfileID            string   `json:"profile_id"`
	DisbandedTeams       []string `json:"disbanded_teams"`
	DeletedRegistrations int      `json:"deleted_registrations"`
}

// RegistrationStatus is one entry of ProfileStatus
type RegistrationStatus struct {
	RegistrationID string        `json:"registration_id"`
	EventID        string        `json:"event_id"`
	Status         PaymentStatus `json:"status"`
}

func contains(values []string, v string) bool {
	for _, value := range values {
		if value == v {
			return true
		}
	}
	return false
}
