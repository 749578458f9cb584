package domain

import "time"

// Dance submission categories and statuses
const (
	DanceSolo  = "Solo"
	DanceGroup = "Group"

	DanceStatusPending  = "pending"
	DanceStatusVerified = "verified"
	DanceStatusRejected = "rejected"
)

// MaxDanceSubmissions caps submissions per profile
const MaxDanceSubmissions = 3

// DanceRegistration is a free dance-performance entry
type DanceRegistration struct {
	ID              string    `json:"id"`
	ProfileID       string    `json:"profile_id"`
	Category        string    `json:"category"`
	DanceStyle      string    `json:"dance_style"`
	PerformanceTime string    `json:"performance_time"`
	TeamName        string    `json:"team_name,omitempty"`
	Members         []string  `json:"members"`
	VideoLink       string    `json:"video_link"`
	Status          string    `json:"status"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// DanceRequest is the body of POST /dance
type DanceRequest struct {
	Category   string   `json:"category" validate:"required,oneof=Solo Group"`
	DanceStyle string   `json:"dance_style" validate:"required,max=60"`
	TeamName   string   `json:"team_name" validate:"required_if=Category Group,max=60"`
	Members    []string `json:"members" validate:"max=20,dive,max=100"`
	VideoLink  string   `json:"video_link" validate:"required,url"`
}

// DanceStatusRequest is the admin body of PATCH /admin/dance
type DanceStatusRequest struct {
	RegistrationID string `json:"registration_id" validate:"required"`
	Status         string `json:"status" validate:"required,oneof=pending verified rejected"`
}
