package service

import (
	"context"
	"testing"

	"fest-backend/internal/domain"
	"fest-backend/internal/repository"
	"fest-backend/internal/testing/memstore"
	apperrors "fest-backend/pkg/errors"
	"fest-backend/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testDanceSlug = "dance-performance"

func setupChannelService(t *testing.T) (ChannelService, *memstore.Store) {
	t.Helper()
	store := memstore.New()
	return NewChannelService(store.Repositories(), testDanceSlug, logger.NewNop()), store
}

func createTeamRegistration(t *testing.T, store *memstore.Store, team *domain.Team, event *domain.Event, status domain.PaymentStatus) *domain.Registration {
	t.Helper()
	teamID := team.ID
	reg := &domain.Registration{
		TeamID:          &teamID,
		EventID:         event.EventID,
		SelectedMembers: []string{team.LeaderID},
		PaymentStatus:   domain.PaymentInitiated,
		AmountExpected:  event.Fees,
		Currency:        "INR",
	}
	require.NoError(t, store.Repositories().Registration.Create(context.Background(), reg, repository.RegistrationEffects{}))
	store.SetRegistrationStatus(t, reg.ID, status)
	return reg
}

func submitDance(t *testing.T, store *memstore.Store, profile *domain.Profile) {
	t.Helper()
	require.NoError(t, store.Repositories().Dance.Create(context.Background(), &domain.DanceRegistration{
		ProfileID:  profile.ID,
		Category:   domain.DanceSolo,
		DanceStyle: "Hip Hop",
		VideoLink:  "https://example.com/v",
		Status:     domain.DanceStatusPending,
	}, domain.MaxDanceSubmissions))
}

func TestChannelService_ListForViewer(t *testing.T) {
	ctx := context.Background()
	svc, store := setupChannelService(t)

	leader := store.CreateProfile(t)
	bench := store.CreateProfile(t)
	team := store.CreateTeam(t, leader, memstore.WithMembers(bench))

	paid := store.CreateEvent(t, memstore.WithTitle("Robo Race"), memstore.WithFees(200))
	pending := store.CreateEvent(t, memstore.WithTitle("Code Wars"), memstore.WithFees(200))
	store.CreateEvent(t, memstore.WithTitle("Art Expo"))
	store.CreateEvent(t, memstore.WithTitle("Secret"), memstore.Hidden())
	store.CreateEvent(t, memstore.WithTitle("Quiz"), memstore.WithoutChannel())
	store.CreateEvent(t, memstore.WithSlug(testDanceSlug), memstore.WithTitle("Dance Battle"))

	createTeamRegistration(t, store, team, paid, domain.PaymentPaid)
	createTeamRegistration(t, store, team, pending, domain.PaymentVerificationPending)

	channels, err := svc.ListForViewer(ctx, store.Profile(t, bench.ID))
	require.NoError(t, err)
	require.Len(t, channels, 4)

	titles := make([]string, len(channels))
	for i, ch := range channels {
		titles[i] = ch.EventTitle
	}
	assert.Equal(t, []string{"Robo Race", "Art Expo", "Code Wars", "Dance Battle"}, titles)
	assert.False(t, channels[0].IsLocked)
	for _, ch := range channels[1:] {
		assert.True(t, ch.IsLocked, ch.EventTitle)
	}

	t.Run("dance submission unlocks the dance channel", func(t *testing.T) {
		submitDance(t, store, bench)

		channels, err := svc.ListForViewer(ctx, store.Profile(t, bench.ID))
		require.NoError(t, err)
		require.Len(t, channels, 4)
		assert.Equal(t, "Dance Battle", channels[0].EventTitle)
		assert.False(t, channels[0].IsLocked)
		assert.Equal(t, "Robo Race", channels[1].EventTitle)
		assert.False(t, channels[1].IsLocked)
	})

	t.Run("outsider sees everything locked", func(t *testing.T) {
		outsider := store.CreateProfile(t)
		channels, err := svc.ListForViewer(ctx, outsider)
		require.NoError(t, err)
		for _, ch := range channels {
			assert.True(t, ch.IsLocked, ch.EventTitle)
		}
	})
}

func TestChannelService_Get(t *testing.T) {
	ctx := context.Background()
	svc, store := setupChannelService(t)

	leader := store.CreateProfile(t)
	team := store.CreateTeam(t, leader)
	event := store.CreateEvent(t, memstore.WithTitle("Robo Race"), memstore.WithFees(200))
	reg := createTeamRegistration(t, store, team, event, domain.PaymentVerificationPending)

	t.Run("denied until confirmed", func(t *testing.T) {
		_, err := svc.Get(ctx, store.Profile(t, leader.ID), event.EventID)
		require.Error(t, err)
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeAuthorization))
	})

	t.Run("manual verification grants access", func(t *testing.T) {
		store.SetRegistrationStatus(t, reg.ID, domain.PaymentManualVerified)

		detail, err := svc.Get(ctx, store.Profile(t, leader.ID), event.EventID)
		require.NoError(t, err)
		assert.Equal(t, event.EventID, detail.EventID)
		assert.Equal(t, "Robo Race", detail.EventTitle)
	})

	t.Run("missing channel", func(t *testing.T) {
		bare := store.CreateEvent(t, memstore.WithoutChannel())
		_, err := svc.Get(ctx, store.Profile(t, leader.ID), bare.EventID)
		require.Error(t, err)
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeNotFound))
	})

	t.Run("dance channel ignores payments", func(t *testing.T) {
		dance := store.CreateEvent(t, memstore.WithSlug(testDanceSlug))
		_, err := svc.Get(ctx, store.Profile(t, leader.ID), dance.EventID)
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeAuthorization))

		submitDance(t, store, leader)
		_, err = svc.Get(ctx, store.Profile(t, leader.ID), dance.EventID)
		assert.NoError(t, err)
	})
}
