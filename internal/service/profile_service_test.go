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

func setupProfileService(t *testing.T, adminEmails ...string) (ProfileService, *memstore.Store) {
	t.Helper()
	store := memstore.New()
	return NewProfileService(store.Repositories(), adminEmails, logger.NewNop()), store
}

func onboardingUpdate(username string) domain.ProfileUpdate {
	return domain.ProfileUpdate{
		Username:  username,
		FirstName: "Asha",
		LastName:  "Rao",
		Phone:     "+91 98765 43210",
		College:   "COEP",
		City:      "Pune",
		State:     "Maharashtra",
		Degree:    "B.E.",
	}
}

func TestProfileService_GetOrCreate(t *testing.T) {
	ctx := context.Background()

	t.Run("first sign-in creates the profile", func(t *testing.T) {
		svc, _ := setupProfileService(t)
		identity := &domain.Identity{Subject: "google-123", Email: "Asha.Rao@Example.com", Name: "Asha Devi Rao"}

		created, err := svc.GetOrCreate(ctx, identity)
		require.NoError(t, err)
		assert.Equal(t, "asha.rao@example.com", created.Email)
		assert.Equal(t, domain.RoleUser, created.Role)
		assert.Equal(t, "google-123", created.ExternalAuthID)
		assert.Equal(t, "Asha", created.FirstName)
		assert.Equal(t, "Devi Rao", created.LastName)
		assert.False(t, created.OnboardingCompleted)

		again, err := svc.GetOrCreate(ctx, &domain.Identity{Email: "asha.rao@example.com"})
		require.NoError(t, err)
		assert.Equal(t, created.ID, again.ID)
	})

	t.Run("configured admin email", func(t *testing.T) {
		svc, _ := setupProfileService(t, "Organiser@Fest.in")

		created, err := svc.GetOrCreate(ctx, &domain.Identity{Email: "organiser@fest.in"})
		require.NoError(t, err)
		assert.Equal(t, domain.RoleAdmin, created.Role)
	})

	t.Run("missing email", func(t *testing.T) {
		svc, _ := setupProfileService(t)

		_, err := svc.GetOrCreate(ctx, &domain.Identity{Subject: "abc"})
		require.Error(t, err)
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeAuthentication))
	})
}

func TestProfileService_UpdateDetails(t *testing.T) {
	ctx := context.Background()
	svc, store := setupProfileService(t)

	p := store.CreateProfile(t, memstore.Incomplete())
	updated, err := svc.UpdateDetails(ctx, p, onboardingUpdate("asharao"))
	require.NoError(t, err)
	assert.True(t, updated.OnboardingCompleted)
	assert.True(t, updated.IsComplete())
	assert.Equal(t, "9876543210", updated.Phone)

	t.Run("username taken", func(t *testing.T) {
		other := store.CreateProfile(t, memstore.Incomplete())
		_, err := svc.UpdateDetails(ctx, other, onboardingUpdate("AshaRao"))
		require.Error(t, err)
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
		assert.Equal(t, "Username is already taken", apperrors.From(err).Message)
	})

	t.Run("invalid phone", func(t *testing.T) {
		other := store.CreateProfile(t, memstore.Incomplete())
		update := onboardingUpdate("otheruser")
		update.Phone = "12345 67890"

		_, err := svc.UpdateDetails(ctx, other, update)
		require.Error(t, err)
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
		assert.False(t, store.Profile(t, other.ID).OnboardingCompleted)
	})
}

func TestProfileService_Status(t *testing.T) {
	ctx := context.Background()
	svc, store := setupProfileService(t)

	t.Run("unknown caller gets empty lists", func(t *testing.T) {
		status, err := svc.Status(ctx, &domain.Identity{Email: "nobody@test.local"})
		require.NoError(t, err)
		assert.Empty(t, status.Registrations)
		assert.Empty(t, status.RegisteredEvents)
		assert.Empty(t, status.PaidEvents)
		assert.False(t, status.OnboardingCompleted)
	})

	leader := store.CreateProfile(t)
	bench := store.CreateProfile(t)
	team := store.CreateTeam(t, leader, memstore.WithMembers(bench))
	paid := store.CreateEvent(t, memstore.WithFees(300))
	pending := store.CreateEvent(t, memstore.WithFees(100))

	createTeamRegistration(t, store, team, paid, domain.PaymentManualVerified)
	createTeamRegistration(t, store, team, pending, domain.PaymentPending)

	for _, p := range []*domain.Profile{leader, bench} {
		status, err := svc.Status(ctx, &domain.Identity{Email: p.Email})
		require.NoError(t, err)
		assert.Len(t, status.Registrations, 2)
		assert.ElementsMatch(t, []string{paid.EventID, pending.EventID}, status.RegisteredEvents)
		assert.Equal(t, []string{paid.EventID}, status.PaidEvents)
		assert.True(t, status.OnboardingCompleted)
		assert.Equal(t, p.Username, status.Username)
	}
}

func confirmedRegistration(t *testing.T, store *memstore.Store, reg *domain.Registration) *domain.Registration {
	t.Helper()
	reg.PaymentStatus = domain.PaymentPaid
	reg.Currency = "INR"
	require.NoError(t, store.Repositories().Registration.Create(context.Background(), reg, repository.RegistrationEffects{}))
	return reg
}

func TestProfileService_ListUsers(t *testing.T) {
	svc, store := setupProfileService(t)
	named := store.CreateProfile(t)
	bare := store.CreateProfile(t, memstore.Incomplete())

	users, err := svc.ListUsers(context.Background())
	require.NoError(t, err)
	require.Len(t, users, 2)

	names := map[string]string{}
	for _, u := range users {
		names[u.ID] = u.Name
	}
	assert.Equal(t, "Test User", names[named.ID])
	assert.Equal(t, "Unknown", names[bare.ID])
}

func TestProfileService_Purge(t *testing.T) {
	ctx := context.Background()
	svc, store := setupProfileService(t)
	repos := store.Repositories()

	admin := store.CreateProfile(t, memstore.WithRole(domain.RoleAdmin))
	purged := store.CreateProfile(t)
	squadMate := store.CreateProfile(t)
	invitee := store.CreateProfile(t)
	otherLeader := store.CreateProfile(t)

	// purged leads an esports squad and plays on someone else's team
	squad := store.CreateTeam(t, purged, memstore.Esports(), memstore.WithMembers(squadMate))
	crew := store.CreateTeam(t, otherLeader, memstore.WithMembers(purged))
	require.NoError(t, repos.Profile.AddInvitation(ctx, invitee.ID, squad.ID))

	shared := store.CreateEvent(t, memstore.WithFees(100))
	solo := store.CreateEvent(t, memstore.WithFees(50))

	squadID, crewID, purgedID := squad.ID, crew.ID, purged.ID
	confirmedRegistration(t, store, &domain.Registration{
		TeamID:          &squadID,
		EventID:         shared.EventID,
		SelectedMembers: []string{purged.ID, squadMate.ID},
	})
	crewReg := confirmedRegistration(t, store, &domain.Registration{
		TeamID:          &crewID,
		EventID:         shared.EventID,
		SelectedMembers: []string{otherLeader.ID, purged.ID},
	})
	confirmedRegistration(t, store, &domain.Registration{
		IndividualID:    &purgedID,
		EventID:         solo.EventID,
		SelectedMembers: []string{purged.ID},
	})
	submitDance(t, store, purged)
	require.Equal(t, 2, store.Event(t, shared.EventID).CurrentRegistrations)

	result, err := svc.Purge(ctx, admin, purged.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{squad.ID}, result.DisbandedTeams)
	assert.Equal(t, 2, result.DeletedRegistrations)

	gone, err := repos.Profile.GetByID(ctx, purged.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)
	assert.Nil(t, store.Team(t, squad.ID))

	mate := store.Profile(t, squadMate.ID)
	assert.Nil(t, mate.EsportsTeamID)
	assert.NotContains(t, mate.RegisteredEvents, shared.EventID)
	assert.NotContains(t, mate.PaidEvents, shared.EventID)
	assert.Empty(t, store.Profile(t, invitee.ID).Invitations)

	assert.Equal(t, []string{otherLeader.ID}, store.Team(t, crew.ID).Members)
	assert.Equal(t, []string{otherLeader.ID}, store.Registration(t, crewReg.ID).SelectedMembers)
	assert.Contains(t, store.Profile(t, otherLeader.ID).PaidEvents, shared.EventID)

	assert.Equal(t, 1, store.Event(t, shared.EventID).CurrentRegistrations)
	assert.Equal(t, 0, store.Event(t, solo.EventID).CurrentRegistrations)

	dances, err := repos.Dance.ListByProfile(ctx, purged.ID)
	require.NoError(t, err)
	assert.Empty(t, dances)

	t.Run("unknown user", func(t *testing.T) {
		_, err := svc.Purge(ctx, admin, purged.ID)
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeNotFound))

		_, err = svc.Purge(ctx, admin, "not-a-uuid")
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeNotFound))
	})

	t.Run("own account", func(t *testing.T) {
		_, err := svc.Purge(ctx, admin, admin.ID)
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
		assert.NotNil(t, store.Profile(t, admin.ID))
	})
}
