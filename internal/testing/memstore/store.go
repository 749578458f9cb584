package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"fest-backend/internal/domain"
	"fest-backend/internal/repository"

	"github.com/google/uuid"
)

// Store holds every table in memory
type Store struct {
	mu sync.Mutex

	profiles      map[string]*domain.Profile
	teams         map[string]*domain.Team
	events        map[string]*domain.Event // keyed by slug
	registrations map[string]*domain.Registration
	processed     map[string]string // gateway payment id -> registration id
	cartItems     map[string]string // cart item id -> team id
	channels      map[string]*domain.Channel // keyed by event slug
	dance         map[string]*domain.DanceRegistration

	now func() time.Time
}

// New creates an empty store
func New() *Store {
	return &Store{
		profiles:      make(map[string]*domain.Profile),
		teams:         make(map[string]*domain.Team),
		events:        make(map[string]*domain.Event),
		registrations: make(map[string]*domain.Registration),
		processed:     make(map[string]string),
		cartItems:     make(map[string]string),
		channels:      make(map[string]*domain.Channel),
		dance:         make(map[string]*domain.DanceRegistration),
		now:           time.Now,
	}
}

// Repositories returns repository views backed by the store
func (s *Store) Repositories() *repository.Repositories {
	return &repository.Repositories{
		Profile:      &profileRepo{s},
		Team:         &teamRepo{s},
		Event:        &eventRepo{s},
		Registration: &registrationRepo{s},
		Channel:      &channelRepo{s},
		Dance:        &danceRepo{s},
	}
}

func cloneStrings(v []string) []string {
	if v == nil {
		return []string{}
	}
	out := make([]string, len(v))
	copy(out, v)
	return out
}

func cloneStringPtr(v *string) *string {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func cloneProfile(p *domain.Profile) *domain.Profile {
	c := *p
	c.CurrentTeamID = cloneStringPtr(p.CurrentTeamID)
	c.EsportsTeamID = cloneStringPtr(p.EsportsTeamID)
	c.RegisteredEvents = cloneStrings(p.RegisteredEvents)
	c.PaidEvents = cloneStrings(p.PaidEvents)
	c.Invitations = cloneStrings(p.Invitations)
	return &c
}

func cloneTeam(t *domain.Team) *domain.Team {
	c := *t
	c.Members = cloneStrings(t.Members)
	return &c
}

func cloneEvent(e *domain.Event) *domain.Event {
	c := *e
	c.Rules = cloneStrings(e.Rules)
	if e.MaxRegistrations != nil {
		m := *e.MaxRegistrations
		c.MaxRegistrations = &m
	}
	return &c
}

func cloneRegistration(r *domain.Registration) *domain.Registration {
	c := *r
	c.TeamID = cloneStringPtr(r.TeamID)
	c.IndividualID = cloneStringPtr(r.IndividualID)
	c.SelectedMembers = cloneStrings(r.SelectedMembers)
	if r.ManualVerification != nil {
		mv := *r.ManualVerification
		c.ManualVerification = &mv
	}
	if r.CheckedInAt != nil {
		at := *r.CheckedInAt
		c.CheckedInAt = &at
	}
	return &c
}

func addToSet(set []string, v string) []string {
	for _, x := range set {
		if x == v {
			return set
		}
	}
	return append(set, v)
}

func removeFromSet(set []string, v string) []string {
	out := set[:0:0]
	for _, x := range set {
		if x != v {
			out = append(out, x)
		}
	}
	return out
}

func has(set []string, v string) bool {
	for _, x := range set {
		if x == v {
			return true
		}
	}
	return false
}

// ---- profiles ----

type profileRepo struct{ s *Store }

func (r *profileRepo) GetByID(_ context.Context, id string) (*domain.Profile, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if p, ok := r.s.profiles[id]; ok {
		return cloneProfile(p), nil
	}
	return nil, nil
}

func (r *profileRepo) GetByEmail(_ context.Context, email string) (*domain.Profile, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	email = strings.ToLower(strings.TrimSpace(email))
	for _, p := range r.s.profiles {
		if strings.ToLower(p.Email) == email {
			return cloneProfile(p), nil
		}
	}
	return nil, nil
}

func (r *profileRepo) ListByIDs(_ context.Context, ids []string) ([]*domain.Profile, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	out := []*domain.Profile{}
	for _, id := range ids {
		if p, ok := r.s.profiles[id]; ok {
			out = append(out, cloneProfile(p))
		}
	}
	return out, nil
}

func (r *profileRepo) Create(_ context.Context, p *domain.Profile) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.insertProfile(p)
}

func (s *Store) insertProfile(p *domain.Profile) error {
	p.Email = strings.ToLower(strings.TrimSpace(p.Email))
	for _, existing := range s.profiles {
		if existing.Email == p.Email {
			return repository.ErrConflict
		}
	}
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	if p.Role == "" {
		p.Role = domain.RoleUser
	}
	p.RegisteredEvents = cloneStrings(p.RegisteredEvents)
	p.PaidEvents = cloneStrings(p.PaidEvents)
	p.Invitations = cloneStrings(p.Invitations)
	p.CreatedAt = s.now()
	p.UpdatedAt = p.CreatedAt
	s.profiles[p.ID] = cloneProfile(p)
	return nil
}

func (r *profileRepo) UpdateDetails(_ context.Context, id string, u domain.ProfileUpdate, onboardingCompleted bool) (*domain.Profile, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	p, ok := r.s.profiles[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	for _, other := range r.s.profiles {
		if other.ID != id && other.Username != "" && strings.EqualFold(other.Username, u.Username) {
			return nil, repository.ErrConflict
		}
	}

	p.Username = u.Username
	p.FirstName = u.FirstName
	p.LastName = u.LastName
	p.Phone = u.Phone
	p.College = u.College
	p.City = u.City
	p.State = u.State
	p.Degree = u.Degree
	p.OnboardingCompleted = onboardingCompleted
	p.UpdatedAt = r.s.now()
	return cloneProfile(p), nil
}

func (r *profileRepo) AddInvitation(_ context.Context, profileID, teamID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	p, ok := r.s.profiles[profileID]
	if !ok || has(p.Invitations, teamID) {
		return repository.ErrConflict
	}
	p.Invitations = append(p.Invitations, teamID)
	return nil
}

func (r *profileRepo) RemoveInvitation(_ context.Context, profileID, teamID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	p, ok := r.s.profiles[profileID]
	if !ok {
		return repository.ErrNotFound
	}
	p.Invitations = removeFromSet(p.Invitations, teamID)
	return nil
}

func (r *profileRepo) ListAll(_ context.Context) ([]*domain.Profile, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	out := make([]*domain.Profile, 0, len(r.s.profiles))
	for _, p := range r.s.profiles {
		out = append(out, cloneProfile(p))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *profileRepo) Purge(_ context.Context, id string) (*domain.PurgeResult, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.profiles[id]; !ok {
		return nil, repository.ErrNotFound
	}
	result := &domain.PurgeResult{ProfileID: id, DisbandedTeams: []string{}}

	var doomed []*domain.Registration
	for _, t := range r.s.teams {
		if t.LeaderID == id {
			result.DisbandedTeams = append(result.DisbandedTeams, t.ID)
			doomed = append(doomed, r.s.removeTeam(t)...)
		}
	}
	for regID, reg := range r.s.registrations {
		if reg.IndividualID != nil && *reg.IndividualID == id {
			doomed = append(doomed, reg)
			r.s.deleteRegistration(regID)
		}
	}
	result.DeletedRegistrations = len(doomed)

	for _, t := range r.s.teams {
		t.Members = removeFromSet(t.Members, id)
	}
	for _, reg := range r.s.registrations {
		reg.SelectedMembers = removeFromSet(reg.SelectedMembers, id)
	}
	for danceID, d := range r.s.dance {
		if d.ProfileID == id {
			delete(r.s.dance, danceID)
		}
	}
	delete(r.s.profiles, id)

	for _, reg := range doomed {
		if e, ok := r.s.events[reg.EventID]; ok && reg.Counted && e.CurrentRegistrations > 0 {
			e.CurrentRegistrations--
		}
		for _, memberID := range reg.SelectedMembers {
			p, ok := r.s.profiles[memberID]
			if !ok {
				continue
			}
			covered := false
			for _, other := range r.s.registrations {
				if other.EventID == reg.EventID && other.Involves(memberID) {
					covered = true
					break
				}
			}
			if !covered {
				p.RegisteredEvents = removeFromSet(p.RegisteredEvents, reg.EventID)
				p.PaidEvents = removeFromSet(p.PaidEvents, reg.EventID)
			}
		}
	}
	return result, nil
}

// addEvent mirrors the registered/paid events update of the SQL repository
func (s *Store) addEvent(profileIDs []string, eventID string, paid bool) {
	for _, id := range profileIDs {
		p, ok := s.profiles[id]
		if !ok {
			continue
		}
		p.RegisteredEvents = addToSet(p.RegisteredEvents, eventID)
		if paid {
			p.PaidEvents = addToSet(p.PaidEvents, eventID)
		}
	}
}

// ---- teams ----

type teamRepo struct{ s *Store }

func teamField(p *domain.Profile, isEsports bool) **string {
	if isEsports {
		return &p.EsportsTeamID
	}
	return &p.CurrentTeamID
}

func (r *teamRepo) GetByID(_ context.Context, id string) (*domain.Team, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if t, ok := r.s.teams[id]; ok {
		return cloneTeam(t), nil
	}
	return nil, nil
}

func (r *teamRepo) ListByIDs(_ context.Context, ids []string) ([]*domain.Team, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	out := []*domain.Team{}
	for _, id := range ids {
		if t, ok := r.s.teams[id]; ok {
			out = append(out, cloneTeam(t))
		}
	}
	return out, nil
}

func (r *teamRepo) ListByMember(_ context.Context, profileID string) ([]*domain.Team, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	out := []*domain.Team{}
	for _, t := range r.s.teams {
		if t.HasMember(profileID) {
			out = append(out, cloneTeam(t))
		}
	}
	return out, nil
}

func (r *teamRepo) Create(_ context.Context, team *domain.Team) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.insertTeam(team)
}

func (s *Store) insertTeam(team *domain.Team) error {
	leader, ok := s.profiles[team.LeaderID]
	if !ok {
		return repository.ErrNotFound
	}
	field := teamField(leader, team.IsEsports)
	if *field != nil {
		return repository.ErrAlreadyInTeam
	}
	key := domain.TeamNameKey(team.Name)
	for _, t := range s.teams {
		if domain.TeamNameKey(t.Name) == key {
			return repository.ErrConflict
		}
	}

	if team.ID == "" {
		team.ID = uuid.New().String()
	}
	team.Members = []string{team.LeaderID}
	team.CreatedAt = s.now()
	team.UpdatedAt = team.CreatedAt

	id := team.ID
	*field = &id
	s.teams[team.ID] = cloneTeam(team)
	return nil
}

func (r *teamRepo) AddMember(_ context.Context, teamID, profileID string) (*domain.Team, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	t, ok := r.s.teams[teamID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if t.IsLocked {
		return nil, repository.ErrTeamLocked
	}
	p, ok := r.s.profiles[profileID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	field := teamField(p, t.IsEsports)
	if t.HasMember(profileID) || *field != nil {
		return nil, repository.ErrAlreadyInTeam
	}

	id := t.ID
	*field = &id
	p.Invitations = removeFromSet(p.Invitations, teamID)
	t.Members = append(t.Members, profileID)
	t.UpdatedAt = r.s.now()
	return cloneTeam(t), nil
}

func (r *teamRepo) RemoveMember(_ context.Context, teamID, profileID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	t, ok := r.s.teams[teamID]
	if !ok {
		return repository.ErrNotFound
	}
	if t.IsLocked {
		return repository.ErrTeamLocked
	}
	if !t.HasMember(profileID) || t.IsLeader(profileID) {
		return repository.ErrInvalidState
	}

	t.Members = removeFromSet(t.Members, profileID)
	if p, ok := r.s.profiles[profileID]; ok {
		field := teamField(p, t.IsEsports)
		if *field != nil && **field == teamID {
			*field = nil
		}
	}
	return nil
}

func (r *teamRepo) Disband(_ context.Context, teamID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	t, ok := r.s.teams[teamID]
	if !ok {
		return repository.ErrNotFound
	}
	if t.IsLocked {
		return repository.ErrTeamLocked
	}
	r.s.removeTeam(t)
	return nil
}

// removeTeam mirrors the disband cascade and returns the deleted registrations
func (s *Store) removeTeam(t *domain.Team) []*domain.Registration {
	for _, p := range s.profiles {
		field := teamField(p, t.IsEsports)
		if *field != nil && **field == t.ID {
			*field = nil
		}
		p.Invitations = removeFromSet(p.Invitations, t.ID)
	}
	var removed []*domain.Registration
	for id, reg := range s.registrations {
		if reg.TeamID != nil && *reg.TeamID == t.ID {
			removed = append(removed, reg)
			s.deleteRegistration(id)
		}
	}
	for id, owner := range s.cartItems {
		if owner == t.ID {
			delete(s.cartItems, id)
		}
	}
	delete(s.teams, t.ID)
	return removed
}

func (s *Store) deleteRegistration(id string) {
	delete(s.registrations, id)
	for paymentID, regID := range s.processed {
		if regID == id {
			delete(s.processed, paymentID)
		}
	}
}

func (r *teamRepo) SetLocked(_ context.Context, teamID string, locked bool) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	t, ok := r.s.teams[teamID]
	if !ok {
		return repository.ErrNotFound
	}
	t.IsLocked = locked
	return nil
}

func (r *teamRepo) Search(_ context.Context, isEsports bool, query string, limit int) ([]*domain.Team, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	needle := strings.ToLower(query)
	out := []*domain.Team{}
	for _, t := range r.s.teams {
		if t.IsEsports == isEsports && !t.IsLocked && strings.Contains(strings.ToLower(t.Name), needle) {
			out = append(out, cloneTeam(t))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *teamRepo) ListAvailable(_ context.Context, isEsports bool, limit int) ([]*domain.Team, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	out := []*domain.Team{}
	for _, t := range r.s.teams {
		if t.IsEsports == isEsports && !t.IsLocked {
			out = append(out, cloneTeam(t))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// ---- events and channels ----

type eventRepo struct{ s *Store }

func (r *eventRepo) GetByEventID(_ context.Context, eventID string) (*domain.Event, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if e, ok := r.s.events[eventID]; ok {
		return cloneEvent(e), nil
	}
	return nil, nil
}

func (r *eventRepo) listSorted(live bool) []*domain.Event {
	out := []*domain.Event{}
	for _, e := range r.s.events {
		if live && !e.IsLive {
			continue
		}
		out = append(out, cloneEvent(e))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Title < out[j].Title })
	return out
}

func (r *eventRepo) ListLive(_ context.Context) ([]*domain.Event, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.listSorted(true), nil
}

func (r *eventRepo) ListAll(_ context.Context) ([]*domain.Event, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.listSorted(false), nil
}

func (r *eventRepo) Create(_ context.Context, e *domain.Event, ch *domain.Channel) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.insertEvent(e, ch)
}

func (s *Store) insertEvent(e *domain.Event, ch *domain.Channel) error {
	if _, ok := s.events[e.EventID]; ok {
		return repository.ErrConflict
	}
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	if e.Rules == nil {
		e.Rules = []string{}
	}
	e.CreatedAt = s.now()
	e.UpdatedAt = e.CreatedAt
	s.events[e.EventID] = cloneEvent(e)

	if ch != nil {
		if ch.ID == "" {
			ch.ID = uuid.New().String()
		}
		ch.EventID = e.EventID
		c := *ch
		s.channels[e.EventID] = &c
	}
	return nil
}

func (r *eventRepo) Update(_ context.Context, e *domain.Event) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	existing, ok := r.s.events[e.EventID]
	if !ok {
		return repository.ErrNotFound
	}
	updated := cloneEvent(e)
	updated.ID = existing.ID
	updated.CurrentRegistrations = existing.CurrentRegistrations
	updated.CreatedAt = existing.CreatedAt
	updated.UpdatedAt = r.s.now()
	r.s.events[e.EventID] = updated
	e.UpdatedAt = updated.UpdatedAt
	return nil
}

func (r *eventRepo) Delete(_ context.Context, eventID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.events[eventID]; !ok {
		return repository.ErrNotFound
	}
	delete(r.s.events, eventID)
	delete(r.s.channels, eventID)
	return nil
}

type channelRepo struct{ s *Store }

func (r *channelRepo) ListActive(_ context.Context) ([]*domain.Channel, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	out := []*domain.Channel{}
	for _, c := range r.s.channels {
		if c.IsActive {
			cc := *c
			out = append(out, &cc)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EventID < out[j].EventID })
	return out, nil
}

func (r *channelRepo) GetByEventID(_ context.Context, eventID string) (*domain.Channel, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if c, ok := r.s.channels[eventID]; ok {
		cc := *c
		return &cc, nil
	}
	return nil, nil
}

// ---- dance ----

type danceRepo struct{ s *Store }

func (r *danceRepo) Create(_ context.Context, d *domain.DanceRegistration, max int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if r.countLocked(d.ProfileID) >= max {
		return repository.ErrInvalidState
	}
	if d.ID == "" {
		d.ID = uuid.New().String()
	}
	d.Members = cloneStrings(d.Members)
	d.CreatedAt = r.s.now()
	d.UpdatedAt = d.CreatedAt
	c := *d
	r.s.dance[d.ID] = &c
	return nil
}

func (r *danceRepo) countLocked(profileID string) int {
	n := 0
	for _, d := range r.s.dance {
		if d.ProfileID == profileID {
			n++
		}
	}
	return n
}

func (r *danceRepo) list(match func(*domain.DanceRegistration) bool) []*domain.DanceRegistration {
	out := []*domain.DanceRegistration{}
	for _, d := range r.s.dance {
		if match(d) {
			c := *d
			c.Members = cloneStrings(d.Members)
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (r *danceRepo) ListByProfile(_ context.Context, profileID string) ([]*domain.DanceRegistration, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.list(func(d *domain.DanceRegistration) bool { return d.ProfileID == profileID }), nil
}

func (r *danceRepo) CountByProfile(_ context.Context, profileID string) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.countLocked(profileID), nil
}

func (r *danceRepo) ListAll(_ context.Context) ([]*domain.DanceRegistration, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.list(func(*domain.DanceRegistration) bool { return true }), nil
}

func (r *danceRepo) UpdateStatus(_ context.Context, id, status string) (*domain.DanceRegistration, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	d, ok := r.s.dance[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	d.Status = status
	d.UpdatedAt = r.s.now()
	c := *d
	return &c, nil
}
