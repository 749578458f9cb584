package service

import (
	"context"
	"errors"
	"regexp"
	"strconv"
	"strings"

	"fest-backend/internal/domain"
	"fest-backend/internal/repository"
	apperrors "fest-backend/pkg/errors"
	"fest-backend/pkg/logger"

	"github.com/gosimple/slug"
)

var teamSizeNumbers = regexp.MustCompile(`\d+`)

// parseTeamSize turns catalog strings like "3-5 Members", "Up to 4" or
// "Solo" into roster bounds.
func parseTeamSize(teamSize string) (int, int) {
	s := strings.ToLower(strings.TrimSpace(teamSize))
	if s == "" || strings.Contains(s, "solo") || strings.Contains(s, "individual") {
		return 1, 1
	}

	var nums []int
	for _, m := range teamSizeNumbers.FindAllString(s, 2) {
		n, err := strconv.Atoi(m)
		if err == nil && n > 0 {
			nums = append(nums, n)
		}
	}

	switch len(nums) {
	case 0:
		return 1, 1
	case 1:
		if strings.Contains(s, "up to") || strings.Contains(s, "max") {
			return 1, nums[0]
		}
		return nums[0], nums[0]
	default:
		if nums[0] > nums[1] {
			return nums[1], nums[0]
		}
		return nums[0], nums[1]
	}
}

type eventService struct {
	events repository.EventRepository
	cache  *CacheService
	logger *logger.Logger
}

// NewEventService creates the event catalog service
func NewEventService(repos *repository.Repositories, cache *CacheService, log *logger.Logger) EventService {
	return &eventService{
		events: repos.Event,
		cache:  cache,
		logger: log,
	}
}

func (s *eventService) ListLive(ctx context.Context) ([]*domain.Event, error) {
	events, err := s.cache.GetLiveEventsWithCache(ctx, s.events.ListLive)
	if err != nil {
		return nil, apperrors.NewInternalError("Failed to list events", err)
	}
	return events, nil
}

func (s *eventService) Get(ctx context.Context, eventID string) (*domain.Event, error) {
	event, err := s.cache.GetEventWithCache(ctx, eventID, s.events.GetByEventID)
	if err != nil {
		return nil, apperrors.NewInternalError("Failed to load event", err)
	}
	if event == nil || !event.IsLive {
		return nil, apperrors.NewNotFoundError("Event not found")
	}
	return event, nil
}

func (s *eventService) ListAll(ctx context.Context) ([]*domain.Event, error) {
	events, err := s.events.ListAll(ctx)
	if err != nil {
		return nil, apperrors.NewInternalError("Failed to list events", err)
	}
	return events, nil
}

func (s *eventService) Create(ctx context.Context, input domain.EventInput) (*domain.Event, error) {
	title := strings.TrimSpace(input.Title)
	eventID := slug.Make(title)
	if eventID == "" {
		return nil, apperrors.NewValidationError("Event title is required", map[string]interface{}{
			"field": "title",
		})
	}

	event := &domain.Event{EventID: eventID, IsLive: true}
	applyEventInput(event, input)

	channel := &domain.Channel{Name: event.Title, IsActive: true}

	err := s.events.Create(ctx, event, channel)
	if errors.Is(err, repository.ErrConflict) {
		return nil, apperrors.NewConflictError("An event with this title already exists")
	}
	if err != nil {
		return nil, apperrors.NewInternalError("Failed to create event", err)
	}

	s.cache.InvalidateEventCaches(ctx, event.EventID)
	s.logger.WithFields(map[string]interface{}{
		"event_id": event.EventID,
		"fees":     event.Fees,
	}).Info("Event created")
	return event, nil
}

func (s *eventService) Update(ctx context.Context, eventID string, input domain.EventInput) (*domain.Event, error) {
	event, err := s.events.GetByEventID(ctx, eventID)
	if err != nil {
		return nil, apperrors.NewInternalError("Failed to load event", err)
	}
	if event == nil {
		return nil, apperrors.NewNotFoundError("Event not found")
	}

	applyEventInput(event, input)

	err = s.events.Update(ctx, event)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NewNotFoundError("Event not found")
	}
	if err != nil {
		return nil, apperrors.NewInternalError("Failed to update event", err)
	}

	s.cache.InvalidateEventCaches(ctx, event.EventID)
	return event, nil
}

func (s *eventService) Delete(ctx context.Context, eventID string) error {
	err := s.events.Delete(ctx, eventID)
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.NewNotFoundError("Event not found")
	}
	if err != nil {
		return apperrors.NewInternalError("Failed to delete event", err)
	}

	s.cache.InvalidateEventCaches(ctx, eventID)
	s.logger.WithField("event_id", eventID).Info("Event deleted")
	return nil
}

// applyEventInput copies the admin-editable fields. The slug never changes.
func applyEventInput(event *domain.Event, input domain.EventInput) {
	if title := strings.TrimSpace(input.Title); title != "" {
		event.Title = title
	}
	event.Category = input.Category
	event.Description = input.Description
	event.Prize = input.Prize
	event.Image = input.Image
	event.Fees = input.Fees
	event.MaxRegistrations = input.MaxRegistrations
	event.RegistrationDeadline = input.RegistrationDeadline
	event.WhatsappGroupLink = input.WhatsappGroupLink
	event.DiscordLink = input.DiscordLink

	event.Rules = input.Rules
	if event.Rules == nil {
		event.Rules = []string{}
	}

	if input.IsLive != nil {
		event.IsLive = *input.IsLive
	}

	if input.TeamSize != "" || event.MinTeamSize == 0 {
		event.TeamSize = input.TeamSize
		event.MinTeamSize, event.MaxTeamSize = parseTeamSize(input.TeamSize)
	}
}
