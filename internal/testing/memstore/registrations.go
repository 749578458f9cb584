package memstore

import (
	"context"
	"sort"
	"time"

	"fest-backend/internal/domain"
	"fest-backend/internal/repository"

	"github.com/google/uuid"
)

type registrationRepo struct{ s *Store }

// involves mirrors the SQL involvesProfile predicate
func (s *Store) involves(reg *domain.Registration, profileID string) bool {
	if reg.Involves(profileID) {
		return true
	}
	if reg.TeamID != nil {
		if t, ok := s.teams[*reg.TeamID]; ok && t.HasMember(profileID) {
			return true
		}
	}
	return false
}

func (r *registrationRepo) sorted(match func(*domain.Registration) bool) []*domain.Registration {
	out := []*domain.Registration{}
	for _, reg := range r.s.registrations {
		if match(reg) {
			out = append(out, cloneRegistration(reg))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (r *registrationRepo) GetByID(_ context.Context, id string) (*domain.Registration, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if reg, ok := r.s.registrations[id]; ok {
		return cloneRegistration(reg), nil
	}
	return nil, nil
}

func (r *registrationRepo) GetByOrderID(_ context.Context, orderID string) (*domain.Registration, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, reg := range r.s.registrations {
		if reg.GatewayOrderID != "" && reg.GatewayOrderID == orderID {
			return cloneRegistration(reg), nil
		}
	}
	return nil, nil
}

func (r *registrationRepo) FindForProfile(_ context.Context, profileID, eventID string) (*domain.Registration, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	regs := r.sorted(func(reg *domain.Registration) bool {
		return reg.EventID == eventID && r.s.involves(reg, profileID)
	})
	if len(regs) == 0 {
		return nil, nil
	}
	return regs[0], nil
}

func (r *registrationRepo) ListForProfile(_ context.Context, profileID string) ([]*domain.Registration, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	return r.sorted(func(reg *domain.Registration) bool { return r.s.involves(reg, profileID) }), nil
}

func (r *registrationRepo) List(_ context.Context, filter domain.RegistrationFilter) ([]*domain.Registration, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	return r.sorted(func(reg *domain.Registration) bool {
		if filter.EventID != "" && reg.EventID != filter.EventID {
			return false
		}
		if filter.Status != "" && reg.PaymentStatus != filter.Status {
			return false
		}
		return true
	}), nil
}

func (r *registrationRepo) Create(_ context.Context, reg *domain.Registration, effects repository.RegistrationEffects) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	event, ok := r.s.events[reg.EventID]
	if !ok {
		return repository.ErrNotFound
	}
	if effects.EnforceCapacity && event.IsFull() {
		return repository.ErrEventFull
	}

	for _, existing := range r.s.registrations {
		if existing.EventID != reg.EventID {
			continue
		}
		if reg.TeamID != nil && existing.TeamID != nil && *existing.TeamID == *reg.TeamID {
			return repository.ErrConflict
		}
		if reg.IndividualID != nil && existing.IndividualID != nil && *existing.IndividualID == *reg.IndividualID {
			return repository.ErrConflict
		}
	}

	if reg.ID == "" {
		reg.ID = uuid.New().String()
	}
	confirmed := reg.PaymentStatus.IsConfirmed()
	reg.Counted = confirmed
	reg.SelectedMembers = cloneStrings(reg.SelectedMembers)
	reg.CreatedAt = r.s.now()
	reg.UpdatedAt = reg.CreatedAt
	r.s.registrations[reg.ID] = cloneRegistration(reg)

	r.s.addEvent(reg.SelectedMembers, reg.EventID, confirmed)
	if confirmed {
		event.CurrentRegistrations++
	}
	if effects.LockTeam && reg.TeamID != nil {
		if t, ok := r.s.teams[*reg.TeamID]; ok {
			t.IsLocked = true
		}
	}
	return nil
}

func (r *registrationRepo) AttachOrder(_ context.Context, id, orderID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	reg, ok := r.s.registrations[id]
	if !ok || !reg.PaymentStatus.CanAttachOrder() {
		return repository.ErrInvalidState
	}
	reg.GatewayOrderID = orderID
	reg.PaymentStatus = domain.PaymentPending
	reg.UpdatedAt = r.s.now()
	return nil
}

func (r *registrationRepo) Confirm(_ context.Context, id string, conf domain.PaymentConfirmation) (*domain.Registration, bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	reg, ok := r.s.registrations[id]
	if !ok {
		return nil, false, repository.ErrNotFound
	}

	if conf.Manual == nil {
		if reg.PaymentStatus.IsConfirmed() {
			return cloneRegistration(reg), false, nil
		}
		if _, seen := r.s.processed[conf.GatewayPaymentID]; seen {
			return cloneRegistration(reg), false, nil
		}
		r.s.processed[conf.GatewayPaymentID] = reg.ID

		reg.PaymentStatus = conf.Status
		reg.GatewayPaymentID = conf.GatewayPaymentID
		reg.GatewaySignature = conf.GatewaySignature
		reg.AmountPaid = conf.AmountPaid
	} else {
		mv := *conf.Manual
		reg.PaymentStatus = conf.Status
		reg.ManualVerification = &mv
		if conf.AmountPaid > reg.AmountPaid {
			reg.AmountPaid = conf.AmountPaid
		}
	}
	reg.UpdatedAt = r.s.now()

	applied := false
	if !reg.Counted {
		r.s.addEvent(reg.SelectedMembers, reg.EventID, true)
		if e, ok := r.s.events[reg.EventID]; ok {
			e.CurrentRegistrations++
		}
		reg.Counted = true
		applied = true
	}

	if conf.LockTeam && reg.TeamID != nil {
		if t, ok := r.s.teams[*reg.TeamID]; ok {
			t.IsLocked = true
		}
	}
	return cloneRegistration(reg), applied, nil
}

func (r *registrationRepo) Reject(_ context.Context, id string, stamp domain.ManualVerification) (*domain.Registration, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	reg, ok := r.s.registrations[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if reg.PaymentStatus.IsConfirmed() {
		return nil, repository.ErrInvalidState
	}
	reg.PaymentStatus = domain.PaymentFailed
	reg.ManualVerification = &stamp
	reg.UpdatedAt = r.s.now()
	return cloneRegistration(reg), nil
}

func (r *registrationRepo) SubmitEvidence(_ context.Context, id, screenshotURL string) (*domain.Registration, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	reg, ok := r.s.registrations[id]
	if !ok || !reg.PaymentStatus.CanSubmitEvidence() {
		return nil, repository.ErrInvalidState
	}
	reg.ScreenshotURL = screenshotURL
	reg.PaymentStatus = domain.PaymentVerificationPending
	reg.UpdatedAt = r.s.now()
	return cloneRegistration(reg), nil
}

func (r *registrationRepo) CheckIn(_ context.Context, id string, at time.Time) (*domain.Registration, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	reg, ok := r.s.registrations[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if !reg.PaymentStatus.IsConfirmed() || reg.CheckedIn {
		return cloneRegistration(reg), repository.ErrInvalidState
	}
	reg.CheckedIn = true
	reg.CheckedInAt = &at
	return cloneRegistration(reg), nil
}

func (r *registrationRepo) ListStale(_ context.Context, cutoff time.Time) ([]*domain.Registration, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	return r.sorted(func(reg *domain.Registration) bool {
		return reg.PaymentStatus.IsStale() && reg.UpdatedAt.Before(cutoff)
	}), nil
}

func (r *registrationRepo) Expire(_ context.Context, id string, cutoff time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	reg, ok := r.s.registrations[id]
	if !ok {
		return repository.ErrNotFound
	}
	if !reg.PaymentStatus.IsStale() || !reg.UpdatedAt.Before(cutoff) {
		return repository.ErrInvalidState
	}
	r.s.deleteRegistration(id)

	for _, memberID := range reg.SelectedMembers {
		p, ok := r.s.profiles[memberID]
		if !ok || p.HasPaid(reg.EventID) {
			continue
		}
		stillRegistered := false
		for _, other := range r.s.registrations {
			if other.EventID == reg.EventID && other.Involves(memberID) {
				stillRegistered = true
				break
			}
		}
		if !stillRegistered {
			p.RegisteredEvents = removeFromSet(p.RegisteredEvents, reg.EventID)
		}
	}

	if reg.TeamID != nil {
		for _, other := range r.s.registrations {
			if other.TeamID != nil && *other.TeamID == *reg.TeamID {
				return nil
			}
		}
		if t, ok := r.s.teams[*reg.TeamID]; ok {
			t.IsLocked = false
		}
	}
	return nil
}
