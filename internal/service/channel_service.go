package service

import (
	"context"
	"sort"
	"strings"

	"fest-backend/internal/domain"
	"fest-backend/internal/repository"
	apperrors "fest-backend/pkg/errors"
	"fest-backend/pkg/logger"
)

type channelService struct {
	channels      repository.ChannelRepository
	events        repository.EventRepository
	registrations repository.RegistrationRepository
	dance         repository.DanceRepository
	danceSlug     string
	logger        *logger.Logger
}

// NewChannelService creates the channel access gate. Access to the channel of
// danceSlug is granted by any dance submission instead of a paid registration.
func NewChannelService(repos *repository.Repositories, danceSlug string, log *logger.Logger) ChannelService {
	return &channelService{
		channels:      repos.Channel,
		events:        repos.Event,
		registrations: repos.Registration,
		dance:         repos.Dance,
		danceSlug:     danceSlug,
		logger:        log,
	}
}

// access collects what the viewer has unlocked
type access struct {
	paidEvents map[string]struct{}
	dance      bool
}

func (a *access) allows(eventID, danceSlug string) bool {
	if eventID == danceSlug {
		return a.dance
	}
	_, ok := a.paidEvents[eventID]
	return ok
}

func (s *channelService) loadAccess(ctx context.Context, profile *domain.Profile) (*access, error) {
	regs, err := s.registrations.ListForProfile(ctx, profile.ID)
	if err != nil {
		return nil, apperrors.NewInternalError("Failed to load registrations", err)
	}
	a := &access{paidEvents: make(map[string]struct{}, len(regs))}
	for _, reg := range regs {
		if reg.PaymentStatus.IsConfirmed() {
			a.paidEvents[reg.EventID] = struct{}{}
		}
	}

	count, err := s.dance.CountByProfile(ctx, profile.ID)
	if err != nil {
		return nil, apperrors.NewInternalError("Failed to load dance registrations", err)
	}
	a.dance = count > 0
	return a, nil
}

func (s *channelService) ListForViewer(ctx context.Context, profile *domain.Profile) ([]*domain.ChannelAccess, error) {
	events, err := s.events.ListLive(ctx)
	if err != nil {
		return nil, apperrors.NewInternalError("Failed to load events", err)
	}
	live := make(map[string]*domain.Event, len(events))
	for _, e := range events {
		live[e.EventID] = e
	}

	channels, err := s.channels.ListActive(ctx)
	if err != nil {
		return nil, apperrors.NewInternalError("Failed to load channels", err)
	}

	a, err := s.loadAccess(ctx, profile)
	if err != nil {
		return nil, err
	}

	out := make([]*domain.ChannelAccess, 0, len(channels))
	for _, ch := range channels {
		event, ok := live[ch.EventID]
		if !ok {
			continue
		}
		out = append(out, &domain.ChannelAccess{
			ChannelID:  ch.ID,
			EventID:    ch.EventID,
			Name:       ch.Name,
			EventTitle: event.Title,
			EventSlug:  event.EventID,
			Category:   event.Category,
			PostCount:  ch.PostCount,
			IsLocked:   !a.allows(ch.EventID, s.danceSlug),
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].IsLocked != out[j].IsLocked {
			return !out[i].IsLocked
		}
		return strings.ToLower(out[i].EventTitle) < strings.ToLower(out[j].EventTitle)
	})
	return out, nil
}

func (s *channelService) Get(ctx context.Context, profile *domain.Profile, eventID string) (*domain.ChannelDetail, error) {
	ch, err := s.channels.GetByEventID(ctx, eventID)
	if err != nil {
		return nil, apperrors.NewInternalError("Failed to load channel", err)
	}
	if ch == nil || !ch.IsActive {
		return nil, apperrors.NewNotFoundError("Channel not found")
	}

	event, err := s.events.GetByEventID(ctx, eventID)
	if err != nil {
		return nil, apperrors.NewInternalError("Failed to load event", err)
	}
	if event == nil {
		return nil, apperrors.NewNotFoundError("Channel not found")
	}

	a, err := s.loadAccess(ctx, profile)
	if err != nil {
		return nil, err
	}
	if !a.allows(eventID, s.danceSlug) {
		s.logger.WithFields(map[string]interface{}{
			"profile_id": profile.ID,
			"event_id":   eventID,
		}).Debug("Channel access denied")
		return nil, apperrors.NewAuthorizationError("Complete payment to access this channel")
	}

	return &domain.ChannelDetail{
		Channel:           *ch,
		EventTitle:        event.Title,
		WhatsappGroupLink: event.WhatsappGroupLink,
		DiscordLink:       event.DiscordLink,
	}, nil
}
