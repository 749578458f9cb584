package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fest-backend/internal/repository"
	"fest-backend/pkg/logger"

	"github.com/go-co-op/gocron/v2"
)

// Sweeper expires registrations whose payment was never completed, releasing
// the team lock and the members' registered events.
type Sweeper struct {
	registrations repository.RegistrationRepository
	ttl           time.Duration
	interval      time.Duration
	scheduler     gocron.Scheduler
	now           func() time.Time
	logger        *logger.Logger
}

// NewSweeper creates a sweeper that expires initiated and pending
// registrations left untouched for ttl, checking every interval
func NewSweeper(repos *repository.Repositories, ttl, interval time.Duration, log *logger.Logger) *Sweeper {
	return &Sweeper{
		registrations: repos.Registration,
		ttl:           ttl,
		interval:      interval,
		now:           time.Now,
		logger:        log.WithField("component", "sweeper"),
	}
}

// Start schedules the sweep. The first run happens immediately.
func (s *Sweeper) Start(ctx context.Context) error {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return fmt.Errorf("failed to create scheduler: %w", err)
	}

	_, err = sched.NewJob(
		gocron.DurationJob(s.interval),
		gocron.NewTask(func() {
			if _, err := s.Sweep(ctx); err != nil {
				s.logger.WithError(err).Error("Stale payment sweep failed")
			}
		}),
		gocron.WithName("stale-payment-sweep"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		_ = sched.Shutdown()
		return fmt.Errorf("failed to schedule sweep: %w", err)
	}

	sched.Start()
	s.scheduler = sched
	s.logger.WithFields(map[string]interface{}{
		"interval": s.interval.String(),
		"ttl":      s.ttl.String(),
	}).Info("Stale payment sweeper started")
	return nil
}

// Stop shuts the scheduler down and waits for a running sweep
func (s *Sweeper) Stop() error {
	if s.scheduler == nil {
		return nil
	}
	err := s.scheduler.Shutdown()
	s.scheduler = nil
	return err
}

// Sweep expires every stale registration and returns how many were removed
func (s *Sweeper) Sweep(ctx context.Context) (int, error) {
	cutoff := s.now().Add(-s.ttl)
	stale, err := s.registrations.ListStale(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to list stale registrations: %w", err)
	}

	expired := 0
	for _, reg := range stale {
		if ctx.Err() != nil {
			return expired, ctx.Err()
		}

		err := s.registrations.Expire(ctx, reg.ID, cutoff)
		switch {
		case err == nil:
			expired++
		case errors.Is(err, repository.ErrInvalidState), errors.Is(err, repository.ErrNotFound):
			// paid, re-ordered or removed since it was listed
			continue
		default:
			s.logger.WithError(err).WithField("registration_id", reg.ID).Warn("Failed to expire registration")
		}
	}

	if expired > 0 {
		s.logger.WithFields(map[string]interface{}{
			"expired": expired,
			"cutoff":  cutoff,
		}).Info("Expired stale registrations")
	}
	return expired, nil
}
