package domain

import "time"

// Event is read-mostly catalog metadata consumed by registration
type Event struct {
	ID                   string     `json:"id"`
	EventID              string     `json:"event_id"`
	Title                string     `json:"title"`
	Category             string     `json:"category"`
	Description          string     `json:"description"`
	TeamSize             string     `json:"team_size"`
	Prize                string     `json:"prize"`
	Rules                []string   `json:"rules"`
	Image                string     `json:"image"`
	Fees                 int        `json:"fees"`
	MinTeamSize          int        `json:"min_team_size"`
	MaxTeamSize          int        `json:"max_team_size"`
	MaxRegistrations     *int       `json:"max_registrations,omitempty"`
	CurrentRegistrations int        `json:"current_registrations"`
	IsLive               bool       `json:"is_live"`
	RegistrationDeadline *time.Time `json:"registration_deadline,omitempty"`
	WhatsappGroupLink    string     `json:"whatsapp_group_link,omitempty"`
	DiscordLink          string     `json:"discord_link,omitempty"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`
}

// IsFree reports whether registering requires no payment
func (e *Event) IsFree() bool {
	return e.Fees == 0
}

// IsFull reports whether the optional capacity cap has been reached
func (e *Event) IsFull() bool {
	return e.MaxRegistrations != nil && *e.MaxRegistrations > 0 && e.CurrentRegistrations >= *e.MaxRegistrations
}

// EventInput is the admin payload for creating or updating an event
type EventInput struct {
	Title                string     `json:"title" validate:"required,max=120"`
	Category             string     `json:"category" validate:"max=60"`
	Description          string     `json:"description"`
	TeamSize             string     `json:"team_size"`
	Prize                string     `json:"prize"`
	Rules                []string   `json:"rules"`
	Image                string     `json:"image"`
	Fees                 int        `json:"fees" validate:"gte=0"`
	MaxRegistrations     *int       `json:"max_registrations" validate:"omitempty,gte=0"`
	IsLive               *bool      `json:"is_live"`
	RegistrationDeadline *time.Time `json:"registration_deadline"`
	WhatsappGroupLink    string     `json:"whatsapp_group_link"`
	DiscordLink          string     `json:"discord_link"`
}
