package repository

import (
	"context"
	"os"
	"testing"
	"time"

	"fest-backend/internal/domain"
	"fest-backend/pkg/database"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupPostgres rebuilds the schema on TEST_DATABASE_URL, which must point at
// a throwaway database. Tests skip when it is unset.
func setupPostgres(t *testing.T) (*Repositories, *database.PostgresDB) {
	t.Helper()

	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	db, err := database.NewPostgresDB(ctx, url)
	require.NoError(t, err)
	t.Cleanup(db.Close)

	for _, query := range database.DropStatements {
		_, err := db.Pool.Exec(ctx, query)
		require.NoError(t, err)
	}
	for _, query := range database.SchemaStatements {
		_, err := db.Pool.Exec(ctx, query)
		require.NoError(t, err)
	}

	return NewRepositories(db), db
}

func seedProfile(t *testing.T, repos *Repositories) *domain.Profile {
	t.Helper()
	p := &domain.Profile{
		Email:     "user_" + uuid.NewString()[:8] + "@test.local",
		FirstName: "Test",
		LastName:  "User",
	}
	require.NoError(t, repos.Profile.Create(context.Background(), p))
	return p
}

func seedEvent(t *testing.T, repos *Repositories, slug string, max *int) *domain.Event {
	t.Helper()
	e := &domain.Event{
		EventID:          slug,
		Title:            slug,
		Fees:             100,
		MinTeamSize:      1,
		MaxTeamSize:      4,
		MaxRegistrations: max,
		IsLive:           true,
	}
	require.NoError(t, repos.Event.Create(context.Background(), e, nil))
	return e
}

func seedTeam(t *testing.T, repos *Repositories, leader *domain.Profile, name string, isEsports bool, members ...*domain.Profile) *domain.Team {
	t.Helper()
	ctx := context.Background()
	team := &domain.Team{Name: name, LeaderID: leader.ID, IsEsports: isEsports}
	require.NoError(t, repos.Team.Create(ctx, team))
	for _, m := range members {
		_, err := repos.Team.AddMember(ctx, team.ID, m.ID)
		require.NoError(t, err)
	}
	return team
}

func individualRegistration(p *domain.Profile, eventID string, status domain.PaymentStatus) *domain.Registration {
	id := p.ID
	return &domain.Registration{
		IndividualID:    &id,
		EventID:         eventID,
		SelectedMembers: []string{p.ID},
		PaymentStatus:   status,
		AmountExpected:  100,
		Currency:        "INR",
	}
}

func teamRegistration(team *domain.Team, eventID string, status domain.PaymentStatus, members ...*domain.Profile) *domain.Registration {
	id := team.ID
	reg := &domain.Registration{
		TeamID:          &id,
		EventID:         eventID,
		SelectedMembers: []string{},
		PaymentStatus:   status,
		AmountExpected:  100,
		Currency:        "INR",
	}
	for _, m := range members {
		reg.SelectedMembers = append(reg.SelectedMembers, m.ID)
	}
	return reg
}

func countRows(t *testing.T, db *database.PostgresDB, query string, args ...interface{}) int {
	t.Helper()
	var n int
	require.NoError(t, db.Pool.QueryRow(context.Background(), query, args...).Scan(&n))
	return n
}

func backdate(t *testing.T, db *database.PostgresDB, registrationID string) {
	t.Helper()
	_, err := db.Pool.Exec(context.Background(),
		`UPDATE registrations SET updated_at = NOW() - interval '3 days' WHERE id = $1`, registrationID)
	require.NoError(t, err)
}

func currentRegistrations(t *testing.T, repos *Repositories, eventID string) int {
	t.Helper()
	e, err := repos.Event.GetByEventID(context.Background(), eventID)
	require.NoError(t, err)
	require.NotNil(t, e)
	return e.CurrentRegistrations
}

func reloadProfile(t *testing.T, repos *Repositories, id string) *domain.Profile {
	t.Helper()
	p, err := repos.Profile.GetByID(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, p)
	return p
}

func TestRegistrationRepository_CreateEnforcesCapacity(t *testing.T) {
	repos, _ := setupPostgres(t)
	ctx := context.Background()

	max := 1
	event := seedEvent(t, repos, "robo-wars", &max)
	first := seedProfile(t, repos)
	second := seedProfile(t, repos)

	capped := RegistrationEffects{EnforceCapacity: true}

	require.NoError(t, repos.Registration.Create(ctx, individualRegistration(first, event.EventID, domain.PaymentPaid), capped))
	assert.Equal(t, 1, currentRegistrations(t, repos, event.EventID))
	assert.Contains(t, reloadProfile(t, repos, first.ID).PaidEvents, event.EventID)

	err := repos.Registration.Create(ctx, individualRegistration(second, event.EventID, domain.PaymentInitiated), capped)
	assert.ErrorIs(t, err, ErrEventFull)

	reg, err := repos.Registration.FindForProfile(ctx, second.ID, event.EventID)
	require.NoError(t, err)
	assert.Nil(t, reg)
	assert.NotContains(t, reloadProfile(t, repos, second.ID).RegisteredEvents, event.EventID)

	t.Run("pending registrations do not take a seat", func(t *testing.T) {
		require.NoError(t, repos.Registration.Create(ctx, individualRegistration(second, event.EventID, domain.PaymentInitiated), RegistrationEffects{}))
		assert.Equal(t, 1, currentRegistrations(t, repos, event.EventID))
	})

	t.Run("duplicate registration", func(t *testing.T) {
		err := repos.Registration.Create(ctx, individualRegistration(first, event.EventID, domain.PaymentInitiated), RegistrationEffects{})
		assert.ErrorIs(t, err, ErrConflict)
	})

	t.Run("unknown event", func(t *testing.T) {
		err := repos.Registration.Create(ctx, individualRegistration(first, "no-such-event", domain.PaymentInitiated), capped)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestRegistrationRepository_ConfirmAppliesOnce(t *testing.T) {
	repos, db := setupPostgres(t)
	ctx := context.Background()

	event := seedEvent(t, repos, "code-sprint", nil)
	payer := seedProfile(t, repos)
	other := seedProfile(t, repos)

	reg := individualRegistration(payer, event.EventID, domain.PaymentInitiated)
	require.NoError(t, repos.Registration.Create(ctx, reg, RegistrationEffects{}))
	require.NoError(t, repos.Registration.AttachOrder(ctx, reg.ID, "order_1"))

	paid := domain.PaymentConfirmation{Status: domain.PaymentPaid, GatewayPaymentID: "pay_1", GatewaySignature: "sig", AmountPaid: 100}

	confirmed, applied, err := repos.Registration.Confirm(ctx, reg.ID, paid)
	require.NoError(t, err)
	assert.True(t, applied)
	assert.Equal(t, domain.PaymentPaid, confirmed.PaymentStatus)
	assert.True(t, confirmed.Counted)
	assert.Equal(t, 100, confirmed.AmountPaid)
	assert.Equal(t, 1, currentRegistrations(t, repos, event.EventID))
	assert.Contains(t, reloadProfile(t, repos, payer.ID).PaidEvents, event.EventID)
	assert.Equal(t, 1, countRows(t, db, `SELECT count(*) FROM processed_payments WHERE payment_id = 'pay_1'`))

	t.Run("replayed payment", func(t *testing.T) {
		again, applied, err := repos.Registration.Confirm(ctx, reg.ID, paid)
		require.NoError(t, err)
		assert.False(t, applied)
		assert.Equal(t, domain.PaymentPaid, again.PaymentStatus)
		assert.Equal(t, 1, currentRegistrations(t, repos, event.EventID))
	})

	t.Run("second payment for a confirmed registration", func(t *testing.T) {
		second := paid
		second.GatewayPaymentID = "pay_2"
		_, applied, err := repos.Registration.Confirm(ctx, reg.ID, second)
		require.NoError(t, err)
		assert.False(t, applied)
		assert.Equal(t, 0, countRows(t, db, `SELECT count(*) FROM processed_payments WHERE payment_id = 'pay_2'`))
		assert.Equal(t, 1, currentRegistrations(t, repos, event.EventID))
	})

	otherReg := individualRegistration(other, event.EventID, domain.PaymentInitiated)
	require.NoError(t, repos.Registration.Create(ctx, otherReg, RegistrationEffects{}))

	t.Run("payment id recorded against another registration", func(t *testing.T) {
		unchanged, applied, err := repos.Registration.Confirm(ctx, otherReg.ID, paid)
		require.NoError(t, err)
		assert.False(t, applied)
		assert.Equal(t, domain.PaymentInitiated, unchanged.PaymentStatus)
		assert.False(t, unchanged.Counted)
		assert.Equal(t, 1, countRows(t, db, `SELECT count(*) FROM processed_payments`))
	})

	t.Run("manual verification counts once", func(t *testing.T) {
		manual := domain.PaymentConfirmation{
			Status:     domain.PaymentManualVerified,
			AmountPaid: 100,
			Manual:     &domain.ManualVerification{VerifiedBy: "admin@test.local", VerifiedAt: time.Now().UTC(), Notes: "UPI screenshot"},
		}
		verified, applied, err := repos.Registration.Confirm(ctx, otherReg.ID, manual)
		require.NoError(t, err)
		assert.True(t, applied)
		assert.Equal(t, domain.PaymentManualVerified, verified.PaymentStatus)
		require.NotNil(t, verified.ManualVerification)
		assert.Equal(t, "admin@test.local", verified.ManualVerification.VerifiedBy)
		assert.Equal(t, 2, currentRegistrations(t, repos, event.EventID))

		_, applied, err = repos.Registration.Confirm(ctx, otherReg.ID, manual)
		require.NoError(t, err)
		assert.False(t, applied)
		assert.Equal(t, 2, currentRegistrations(t, repos, event.EventID))
	})

	t.Run("unknown registration", func(t *testing.T) {
		_, _, err := repos.Registration.Confirm(ctx, uuid.NewString(), paid)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestRegistrationRepository_Expire(t *testing.T) {
	repos, db := setupPostgres(t)
	ctx := context.Background()

	event := seedEvent(t, repos, "treasure-hunt", nil)
	idle := seedProfile(t, repos)
	late := seedProfile(t, repos)
	paidUp := seedProfile(t, repos)
	leader := seedProfile(t, repos)
	mate := seedProfile(t, repos)
	team := seedTeam(t, repos, leader, "Night Owls", false, mate)

	idleReg := individualRegistration(idle, event.EventID, domain.PaymentInitiated)
	lateReg := individualRegistration(late, event.EventID, domain.PaymentInitiated)
	paidReg := individualRegistration(paidUp, event.EventID, domain.PaymentPaid)
	teamReg := teamRegistration(team, event.EventID, domain.PaymentInitiated, leader, mate)
	require.NoError(t, repos.Registration.Create(ctx, idleReg, RegistrationEffects{}))
	require.NoError(t, repos.Registration.Create(ctx, lateReg, RegistrationEffects{}))
	require.NoError(t, repos.Registration.Create(ctx, paidReg, RegistrationEffects{}))
	require.NoError(t, repos.Registration.Create(ctx, teamReg, RegistrationEffects{LockTeam: true}))
	for _, reg := range []*domain.Registration{idleReg, lateReg, paidReg, teamReg} {
		backdate(t, db, reg.ID)
	}

	cutoff := time.Now().Add(-48 * time.Hour)
	stale, err := repos.Registration.ListStale(ctx, cutoff)
	require.NoError(t, err)
	assert.Len(t, stale, 3)

	// order attached between the listing and the expiry
	require.NoError(t, repos.Registration.AttachOrder(ctx, lateReg.ID, "order_late"))

	require.NoError(t, repos.Registration.Expire(ctx, idleReg.ID, cutoff))
	gone, err := repos.Registration.GetByID(ctx, idleReg.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)
	assert.NotContains(t, reloadProfile(t, repos, idle.ID).RegisteredEvents, event.EventID)

	assert.ErrorIs(t, repos.Registration.Expire(ctx, lateReg.ID, cutoff), ErrInvalidState)
	kept, err := repos.Registration.GetByID(ctx, lateReg.ID)
	require.NoError(t, err)
	require.NotNil(t, kept)
	assert.Equal(t, domain.PaymentPending, kept.PaymentStatus)
	assert.Contains(t, reloadProfile(t, repos, late.ID).RegisteredEvents, event.EventID)

	assert.ErrorIs(t, repos.Registration.Expire(ctx, paidReg.ID, cutoff), ErrInvalidState)

	t.Run("team registration releases the lock", func(t *testing.T) {
		locked, err := repos.Team.GetByID(ctx, team.ID)
		require.NoError(t, err)
		require.True(t, locked.IsLocked)

		require.NoError(t, repos.Registration.Expire(ctx, teamReg.ID, cutoff))

		unlocked, err := repos.Team.GetByID(ctx, team.ID)
		require.NoError(t, err)
		assert.False(t, unlocked.IsLocked)
		assert.NotContains(t, reloadProfile(t, repos, mate.ID).RegisteredEvents, event.EventID)
	})

	t.Run("unknown registration", func(t *testing.T) {
		assert.ErrorIs(t, repos.Registration.Expire(ctx, uuid.NewString(), cutoff), ErrNotFound)
	})
}

func TestTeamRepository_DisbandCascade(t *testing.T) {
	repos, db := setupPostgres(t)
	ctx := context.Background()

	event := seedEvent(t, repos, "hackathon", nil)
	leader := seedProfile(t, repos)
	member := seedProfile(t, repos)
	invitee := seedProfile(t, repos)
	team := seedTeam(t, repos, leader, "Bit Flippers", false, member)

	require.NoError(t, repos.Profile.AddInvitation(ctx, invitee.ID, team.ID))
	require.NoError(t, repos.Registration.Create(ctx, teamRegistration(team, event.EventID, domain.PaymentInitiated, leader, member), RegistrationEffects{LockTeam: true}))
	_, err := db.Pool.Exec(ctx, `INSERT INTO cart_items (team_id, event_id) VALUES ($1, $2)`, team.ID, event.EventID)
	require.NoError(t, err)

	assert.ErrorIs(t, repos.Team.Disband(ctx, team.ID), ErrTeamLocked)

	require.NoError(t, repos.Team.SetLocked(ctx, team.ID, false))
	require.NoError(t, repos.Team.Disband(ctx, team.ID))

	gone, err := repos.Team.GetByID(ctx, team.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)

	for _, p := range []*domain.Profile{leader, member} {
		assert.Nil(t, reloadProfile(t, repos, p.ID).CurrentTeamID)
	}
	assert.Empty(t, reloadProfile(t, repos, invitee.ID).Invitations)
	assert.Equal(t, 0, countRows(t, db, `SELECT count(*) FROM registrations WHERE team_id = $1`, team.ID))
	assert.Equal(t, 0, countRows(t, db, `SELECT count(*) FROM cart_items WHERE team_id = $1`, team.ID))

	t.Run("leader can start a new team", func(t *testing.T) {
		seedTeam(t, repos, leader, "Bit Flippers", false)
	})

	t.Run("unknown team", func(t *testing.T) {
		assert.ErrorIs(t, repos.Team.Disband(ctx, uuid.NewString()), ErrNotFound)
	})
}

func TestProfileRepository_Purge(t *testing.T) {
	repos, db := setupPostgres(t)
	ctx := context.Background()

	shared := seedEvent(t, repos, "valorant-cup", nil)
	solo := seedEvent(t, repos, "solo-singing", nil)

	purged := seedProfile(t, repos)
	squadMate := seedProfile(t, repos)
	otherLeader := seedProfile(t, repos)
	invitee := seedProfile(t, repos)

	squad := seedTeam(t, repos, purged, "Headshot Squad", true, squadMate)
	crew := seedTeam(t, repos, otherLeader, "Stage Crew", false, purged)
	require.NoError(t, repos.Profile.AddInvitation(ctx, invitee.ID, squad.ID))

	crewReg := teamRegistration(crew, shared.EventID, domain.PaymentPaid, otherLeader, purged)
	require.NoError(t, repos.Registration.Create(ctx, teamRegistration(squad, shared.EventID, domain.PaymentPaid, purged, squadMate), RegistrationEffects{}))
	require.NoError(t, repos.Registration.Create(ctx, crewReg, RegistrationEffects{}))
	require.NoError(t, repos.Registration.Create(ctx, individualRegistration(purged, solo.EventID, domain.PaymentPaid), RegistrationEffects{}))
	_, err := db.Pool.Exec(ctx, `
		INSERT INTO dance_registrations (profile_id, category, dance_style, video_link)
		VALUES ($1, 'Solo', 'Kathak', 'https://example.com/v')`, purged.ID)
	require.NoError(t, err)
	require.Equal(t, 2, currentRegistrations(t, repos, shared.EventID))

	result, err := repos.Profile.Purge(ctx, purged.ID)
	require.NoError(t, err)
	assert.Equal(t, purged.ID, result.ProfileID)
	assert.Equal(t, []string{squad.ID}, result.DisbandedTeams)
	assert.Equal(t, 2, result.DeletedRegistrations)

	gone, err := repos.Profile.GetByID(ctx, purged.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)
	disbanded, err := repos.Team.GetByID(ctx, squad.ID)
	require.NoError(t, err)
	assert.Nil(t, disbanded)

	mate := reloadProfile(t, repos, squadMate.ID)
	assert.Nil(t, mate.EsportsTeamID)
	assert.NotContains(t, mate.RegisteredEvents, shared.EventID)
	assert.NotContains(t, mate.PaidEvents, shared.EventID)
	assert.Empty(t, reloadProfile(t, repos, invitee.ID).Invitations)

	remaining, err := repos.Team.GetByID(ctx, crew.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{otherLeader.ID}, remaining.Members)
	kept, err := repos.Registration.GetByID(ctx, crewReg.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{otherLeader.ID}, kept.SelectedMembers)
	assert.Contains(t, reloadProfile(t, repos, otherLeader.ID).PaidEvents, shared.EventID)

	assert.Equal(t, 1, currentRegistrations(t, repos, shared.EventID))
	assert.Equal(t, 0, currentRegistrations(t, repos, solo.EventID))
	assert.Equal(t, 0, countRows(t, db, `SELECT count(*) FROM dance_registrations WHERE profile_id = $1`, purged.ID))

	_, err = repos.Profile.Purge(ctx, purged.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}
