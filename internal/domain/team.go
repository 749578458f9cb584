package domain

import (
	"strings"
	"time"

	"golang.org/x/text/cases"
)

// Team is a named group of profiles. Normal and esports teams live in
// separate pools; a profile can lead or join one of each.
type Team struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	LeaderID  string    `json:"leader_id"`
	Members   []string  `json:"members"`
	IsLocked  bool      `json:"is_locked"`
	IsEsports bool      `json:"is_esports"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// HasMember reports whether profileID is on the roster
func (t *Team) HasMember(profileID string) bool {
	return contains(t.Members, profileID)
}

// IsLeader reports whether profileID leads the team
func (t *Team) IsLeader(profileID string) bool {
	return t.LeaderID == profileID
}

// TeamMember is a roster entry joined with profile fields
type TeamMember struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// TeamView is a team with its leader and members populated
type TeamView struct {
	Team
	Leader        *TeamMember  `json:"leader,omitempty"`
	MemberDetails []TeamMember `json:"member_details,omitempty"`
}

// MyTeamResponse is returned to a caller asking for their own team
type MyTeamResponse struct {
	Team        *TeamView `json:"team"`
	Invitations []*Team   `json:"invitations"`
	ProfileID   string    `json:"profile_id"`
}

// CreateTeamRequest is the body of POST /teams
type CreateTeamRequest struct {
	TeamName  string `json:"team_name" validate:"required,min=2,max=60"`
	IsEsports bool   `json:"is_esports"`
}

// LeaveTeamRequest is the body of POST /teams/leave
type LeaveTeamRequest struct {
	Type string `json:"type" validate:"omitempty,oneof=esports normal"`
}

// InviteRequest is the body of POST /teams/invite
type InviteRequest struct {
	Email     string `json:"email" validate:"required,email"`
	IsEsports bool   `json:"is_esports"`
}

// LeaveResult describes what leaving did
type LeaveResult struct {
	Message   string `json:"message"`
	Disbanded bool   `json:"disbanded"`
}

// TeamNameKey folds a team name for case-insensitive uniqueness
func TeamNameKey(name string) string {
	return cases.Fold().String(strings.TrimSpace(name))
}
