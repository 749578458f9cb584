package memstore

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"testing"
	"time"

	"fest-backend/internal/domain"
)

// randomID generates a random hex ID
func randomID() string {
	b := make([]byte, 6)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

// SetClock replaces the time source used for created/updated stamps
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// ============================================================================
// Profile fixtures
// ============================================================================

// ProfileOpts customizes profile creation
type ProfileOpts struct {
	Email      string
	Role       string
	Incomplete bool
}

// WithEmail sets the profile email
func WithEmail(email string) func(*ProfileOpts) {
	return func(o *ProfileOpts) { o.Email = email }
}

// WithRole sets the profile role
func WithRole(role string) func(*ProfileOpts) {
	return func(o *ProfileOpts) { o.Role = role }
}

// Incomplete leaves the onboarding fields empty
func Incomplete() func(*ProfileOpts) {
	return func(o *ProfileOpts) { o.Incomplete = true }
}

// CreateProfile creates an onboarded profile
func (s *Store) CreateProfile(t *testing.T, opts ...func(*ProfileOpts)) *domain.Profile {
	t.Helper()

	id := randomID()
	o := &ProfileOpts{
		Email: fmt.Sprintf("user_%s@test.local", id),
		Role:  domain.RoleUser,
	}
	for _, fn := range opts {
		fn(o)
	}

	p := &domain.Profile{
		Email: o.Email,
		Role:  o.Role,
	}
	if !o.Incomplete {
		p.Username = "user" + id
		p.FirstName = "Test"
		p.LastName = "User"
		p.Phone = "9876543210"
		p.College = "Test College"
		p.City = "Pune"
		p.State = "Maharashtra"
		p.Degree = "B.Tech"
		p.OnboardingCompleted = true
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.insertProfile(p); err != nil {
		t.Fatalf("create profile: %v", err)
	}
	return cloneProfile(p)
}

// Profile reloads a profile
func (s *Store) Profile(t *testing.T, id string) *domain.Profile {
	t.Helper()

	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[id]
	if !ok {
		t.Fatalf("profile %s not found", id)
	}
	return cloneProfile(p)
}

// ============================================================================
// Team fixtures
// ============================================================================

// TeamOpts customizes team creation
type TeamOpts struct {
	Name      string
	Members   []*domain.Profile
	IsEsports bool
	Locked    bool
}

// WithTeamName sets the team name
func WithTeamName(name string) func(*TeamOpts) {
	return func(o *TeamOpts) { o.Name = name }
}

// WithMembers adds non-leader members to the roster
func WithMembers(members ...*domain.Profile) func(*TeamOpts) {
	return func(o *TeamOpts) { o.Members = append(o.Members, members...) }
}

// Esports creates the team in the esports pool
func Esports() func(*TeamOpts) {
	return func(o *TeamOpts) { o.IsEsports = true }
}

// Locked creates the team already locked
func Locked() func(*TeamOpts) {
	return func(o *TeamOpts) { o.Locked = true }
}

// CreateTeam creates a team led by leader
func (s *Store) CreateTeam(t *testing.T, leader *domain.Profile, opts ...func(*TeamOpts)) *domain.Team {
	t.Helper()

	o := &TeamOpts{Name: "team-" + randomID()}
	for _, fn := range opts {
		fn(o)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	team := &domain.Team{Name: o.Name, LeaderID: leader.ID, IsEsports: o.IsEsports}
	if err := s.insertTeam(team); err != nil {
		t.Fatalf("create team: %v", err)
	}

	stored := s.teams[team.ID]
	for _, m := range o.Members {
		p, ok := s.profiles[m.ID]
		if !ok {
			t.Fatalf("member %s not found", m.ID)
		}
		id := team.ID
		*teamField(p, o.IsEsports) = &id
		stored.Members = append(stored.Members, m.ID)
	}
	stored.IsLocked = o.Locked
	return cloneTeam(stored)
}

// Team reloads a team, returning nil when it no longer exists
func (s *Store) Team(t *testing.T, id string) *domain.Team {
	t.Helper()

	s.mu.Lock()
	defer s.mu.Unlock()
	if team, ok := s.teams[id]; ok {
		return cloneTeam(team)
	}
	return nil
}

// AddCartItem stores a cart entry owned by a team
func (s *Store) AddCartItem(teamID string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := randomID()
	s.cartItems[id] = teamID
	return id
}

// CartItems counts cart entries owned by a team
func (s *Store) CartItems(teamID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, owner := range s.cartItems {
		if owner == teamID {
			n++
		}
	}
	return n
}

// ============================================================================
// Event fixtures
// ============================================================================

// EventOpts customizes event creation
type EventOpts struct {
	Slug             string
	Title            string
	Fees             int
	Min, Max         int
	MaxRegistrations *int
	Hidden           bool
	NoChannel        bool
}

// WithSlug sets the event slug
func WithSlug(slug string) func(*EventOpts) {
	return func(o *EventOpts) { o.Slug = slug }
}

// WithTitle sets the event title
func WithTitle(title string) func(*EventOpts) {
	return func(o *EventOpts) { o.Title = title }
}

// WithFees sets the event fee in rupees
func WithFees(fees int) func(*EventOpts) {
	return func(o *EventOpts) { o.Fees = fees }
}

// WithTeamSize sets the roster bounds
func WithTeamSize(min, max int) func(*EventOpts) {
	return func(o *EventOpts) { o.Min, o.Max = min, max }
}

// WithCapacity caps the number of confirmed registrations
func WithCapacity(n int) func(*EventOpts) {
	return func(o *EventOpts) { o.MaxRegistrations = &n }
}

// Hidden creates the event with isLive=false
func Hidden() func(*EventOpts) {
	return func(o *EventOpts) { o.Hidden = true }
}

// WithoutChannel skips channel creation
func WithoutChannel() func(*EventOpts) {
	return func(o *EventOpts) { o.NoChannel = true }
}

// CreateEvent creates a live event and its channel
func (s *Store) CreateEvent(t *testing.T, opts ...func(*EventOpts)) *domain.Event {
	t.Helper()

	id := randomID()
	o := &EventOpts{Slug: "event-" + id, Title: "Event " + id, Min: 1, Max: 1}
	for _, fn := range opts {
		fn(o)
	}

	e := &domain.Event{
		EventID:          o.Slug,
		Title:            o.Title,
		Category:         "technical",
		Fees:             o.Fees,
		MinTeamSize:      o.Min,
		MaxTeamSize:      o.Max,
		MaxRegistrations: o.MaxRegistrations,
		IsLive:           !o.Hidden,
	}
	var ch *domain.Channel
	if !o.NoChannel {
		ch = &domain.Channel{Name: o.Title, IsActive: true}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.insertEvent(e, ch); err != nil {
		t.Fatalf("create event: %v", err)
	}
	return cloneEvent(e)
}

// Event reloads an event
func (s *Store) Event(t *testing.T, slug string) *domain.Event {
	t.Helper()

	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.events[slug]
	if !ok {
		t.Fatalf("event %s not found", slug)
	}
	return cloneEvent(e)
}

// ============================================================================
// Registration fixtures
// ============================================================================

// Registration reloads a registration, returning nil when it no longer exists
func (s *Store) Registration(t *testing.T, id string) *domain.Registration {
	t.Helper()

	s.mu.Lock()
	defer s.mu.Unlock()
	if reg, ok := s.registrations[id]; ok {
		return cloneRegistration(reg)
	}
	return nil
}

// RegistrationsForTeam counts registrations referencing a team
func (s *Store) RegistrationsForTeam(teamID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, reg := range s.registrations {
		if reg.TeamID != nil && *reg.TeamID == teamID {
			n++
		}
	}
	return n
}

// SetRegistrationStatus forces a registration into a status
func (s *Store) SetRegistrationStatus(t *testing.T, id string, status domain.PaymentStatus) {
	t.Helper()

	s.mu.Lock()
	defer s.mu.Unlock()
	reg, ok := s.registrations[id]
	if !ok {
		t.Fatalf("registration %s not found", id)
	}
	reg.PaymentStatus = status
}
