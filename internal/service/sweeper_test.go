package service

import (
	"context"
	"testing"
	"time"

	"fest-backend/internal/domain"
	"fest-backend/internal/repository"
	"fest-backend/internal/service/gateway"
	"fest-backend/internal/testing/memstore"
	"fest-backend/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lockedTeamRegistration(t *testing.T, store *memstore.Store, fees int) (*domain.Team, *domain.Registration) {
	t.Helper()
	leader := store.CreateProfile(t)
	team := store.CreateTeam(t, leader)
	event := store.CreateEvent(t, memstore.WithFees(fees))

	teamID := team.ID
	reg := &domain.Registration{
		TeamID:          &teamID,
		EventID:         event.EventID,
		SelectedMembers: []string{leader.ID},
		PaymentStatus:   domain.PaymentInitiated,
		AmountExpected:  fees,
		Currency:        "INR",
	}
	require.NoError(t, store.Repositories().Registration.Create(context.Background(), reg, repository.RegistrationEffects{LockTeam: true}))
	return team, reg
}

func TestSweeper_Sweep(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	store.SetClock(func() time.Time { return base })

	staleTeam, stale := lockedTeamRegistration(t, store, 300)
	_, pending := lockedTeamRegistration(t, store, 300)
	require.NoError(t, store.Repositories().Registration.AttachOrder(ctx, pending.ID, "order_1"))
	_, paid := lockedTeamRegistration(t, store, 300)
	store.SetRegistrationStatus(t, paid.ID, domain.PaymentPaid)
	_, review := lockedTeamRegistration(t, store, 300)
	store.SetRegistrationStatus(t, review.ID, domain.PaymentVerificationPending)

	store.SetClock(func() time.Time { return base.Add(47 * time.Hour) })
	_, fresh := lockedTeamRegistration(t, store, 300)

	sweeper := NewSweeper(store.Repositories(), 48*time.Hour, time.Minute, logger.NewNop())
	sweeper.now = func() time.Time { return base.Add(49 * time.Hour) }

	expired, err := sweeper.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, expired)

	assert.Nil(t, store.Registration(t, stale.ID))
	assert.Nil(t, store.Registration(t, pending.ID))
	assert.NotNil(t, store.Registration(t, paid.ID))
	assert.NotNil(t, store.Registration(t, review.ID))
	assert.NotNil(t, store.Registration(t, fresh.ID))

	assert.False(t, store.Team(t, staleTeam.ID).IsLocked)
	leader := store.Profile(t, staleTeam.LeaderID)
	assert.False(t, leader.HasRegistered(stale.EventID))

	again, err := sweeper.Sweep(ctx)
	require.NoError(t, err)
	assert.Zero(t, again)
}

func TestSweeper_OrderAttachedBeforeExpiry(t *testing.T) {
	ctx := context.Background()
	f := setupPaymentService(t)
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	f.store.SetClock(func() time.Time { return base })

	team, event, reg := f.registerTeam(t, 200)

	f.store.SetClock(func() time.Time { return base.Add(47*time.Hour + 59*time.Minute) })
	order := f.openOrder(t, team.LeaderID, event.EventID)

	sweeper := NewSweeper(f.store.Repositories(), 48*time.Hour, time.Minute, logger.NewNop())
	sweeper.now = func() time.Time { return base.Add(48*time.Hour + time.Minute) }

	expired, err := sweeper.Sweep(ctx)
	require.NoError(t, err)
	assert.Zero(t, expired)
	require.NotNil(t, f.store.Registration(t, reg.ID))

	resp, err := f.svc.Verify(ctx, f.store.Profile(t, team.LeaderID), domain.VerifyPaymentRequest{
		OrderID:   order.OrderID,
		PaymentID: "pay_late",
		Signature: gateway.Sign(order.OrderID, "pay_late", testGatewaySecret),
	})
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.False(t, resp.AlreadyProcessed)
	assert.Equal(t, domain.PaymentPaid, f.store.Registration(t, reg.ID).PaymentStatus)
}

func TestSweeper_ExpireRechecksCutoff(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	store.SetClock(func() time.Time { return base })
	_, reg := lockedTeamRegistration(t, store, 300)

	registrations := store.Repositories().Registration
	cutoff := base.Add(time.Hour)
	listed, err := registrations.ListStale(ctx, cutoff)
	require.NoError(t, err)
	require.Len(t, listed, 1)

	// order attached between listing and expiry
	store.SetClock(func() time.Time { return base.Add(2 * time.Hour) })
	require.NoError(t, registrations.AttachOrder(ctx, reg.ID, "order_late"))

	err = registrations.Expire(ctx, reg.ID, cutoff)
	assert.ErrorIs(t, err, repository.ErrInvalidState)
	assert.NotNil(t, store.Registration(t, reg.ID))
}

func TestSweeper_StartRunsImmediately(t *testing.T) {
	store := memstore.New()
	store.SetClock(func() time.Time { return time.Now().Add(-72 * time.Hour) })
	_, stale := lockedTeamRegistration(t, store, 100)

	sweeper := NewSweeper(store.Repositories(), 48*time.Hour, time.Hour, logger.NewNop())
	require.NoError(t, sweeper.Start(context.Background()))
	t.Cleanup(func() { _ = sweeper.Stop() })

	assert.Eventually(t, func() bool {
		return store.Registration(t, stale.ID) == nil
	}, 2*time.Second, 20*time.Millisecond)

	require.NoError(t, sweeper.Stop())
	assert.NoError(t, sweeper.Stop())
}
