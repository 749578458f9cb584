package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"fest-backend/internal/domain"
	"fest-backend/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const profileColumns = `
	id, email, external_auth_id, role, username, first_name, last_name, phone,
	college, city, state, degree, onboarding_completed, current_team_id,
	esports_team_id, registered_events, paid_events, invitations, created_at, updated_at`

type profileRepository struct {
	db *database.PostgresDB
}

func NewProfileRepository(db *database.PostgresDB) ProfileRepository {
	return &profileRepository{db: db}
}

func scanProfile(row pgx.Row) (*domain.Profile, error) {
	var p domain.Profile
	var username *string
	err := row.Scan(
		&p.ID,
		&p.Email,
		&p.ExternalAuthID,
		&p.Role,
		&username,
		&p.FirstName,
		&p.LastName,
		&p.Phone,
		&p.College,
		&p.City,
		&p.State,
		&p.Degree,
		&p.OnboardingCompleted,
		&p.CurrentTeamID,
		&p.EsportsTeamID,
		&p.RegisteredEvents,
		&p.PaidEvents,
		&p.Invitations,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if username != nil {
		p.Username = *username
	}
	return &p, nil
}

// GetByID retrieves a profile by ID
func (r *profileRepository) GetByID(ctx context.Context, id string) (*domain.Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM profiles WHERE id = $1`

	p, err := scanProfile(r.db.Pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return p, nil
}

// GetByEmail retrieves a profile by email
func (r *profileRepository) GetByEmail(ctx context.Context, email string) (*domain.Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM profiles WHERE lower(email) = lower($1)`

	p, err := scanProfile(r.db.Pool.QueryRow(ctx, query, strings.TrimSpace(email)))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get profile by email: %w", err)
	}
	return p, nil
}

// ListByIDs retrieves the profiles with the given IDs
func (r *profileRepository) ListByIDs(ctx context.Context, ids []string) ([]*domain.Profile, error) {
	if len(ids) == 0 {
		return []*domain.Profile{}, nil
	}

	query := `SELECT ` + profileColumns + ` FROM profiles WHERE id = ANY($1)`

	rows, err := r.db.Pool.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to list profiles: %w", err)
	}
	return collectProfiles(rows)
}

// ListAll returns every profile, newest first
func (r *profileRepository) ListAll(ctx context.Context) ([]*domain.Profile, error) {
	rows, err := r.db.Pool.Query(ctx, `SELECT `+profileColumns+` FROM profiles ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list profiles: %w", err)
	}
	return collectProfiles(rows)
}

func collectProfiles(rows pgx.Rows) ([]*domain.Profile, error) {
	defer rows.Close()

	profiles := []*domain.Profile{}
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan profile: %w", err)
		}
		profiles = append(profiles, p)
	}
	return profiles, rows.Err()
}

// Create inserts a new profile
func (r *profileRepository) Create(ctx context.Context, p *domain.Profile) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	if p.Role == "" {
		p.Role = domain.RoleUser
	}

	query := `
		INSERT INTO profiles (id, email, external_auth_id, role, first_name, last_name)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING registered_events, paid_events, invitations, created_at, updated_at
	`

	err := r.db.Pool.QueryRow(ctx, query,
		p.ID,
		strings.ToLower(strings.TrimSpace(p.Email)),
		p.ExternalAuthID,
		p.Role,
		p.FirstName,
		p.LastName,
	).Scan(&p.RegisteredEvents, &p.PaidEvents, &p.Invitations, &p.CreatedAt, &p.UpdatedAt)

	if database.IsUniqueViolation(err, "") {
		return ErrConflict
	}
	if err != nil {
		return fmt.Errorf("failed to create profile: %w", err)
	}
	return nil
}

// UpdateDetails stores onboarding fields
func (r *profileRepository) UpdateDetails(ctx context.Context, id string, u domain.ProfileUpdate, onboardingCompleted bool) (*domain.Profile, error) {
	query := `
		UPDATE profiles SET
			username = $2,
			first_name = $3,
			last_name = $4,
			phone = $5,
			college = $6,
			city = $7,
			state = $8,
			degree = $9,
			onboarding_completed = $10,
			updated_at = NOW()
		WHERE id = $1
		RETURNING ` + profileColumns

	p, err := scanProfile(r.db.Pool.QueryRow(ctx, query,
		id,
		u.Username,
		u.FirstName,
		u.LastName,
		u.Phone,
		u.College,
		u.City,
		u.State,
		u.Degree,
		onboardingCompleted,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if database.IsUniqueViolation(err, "profiles_username_key") {
		return nil, ErrConflict
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	return p, nil
}

// AddInvitation adds teamID to the profile's invitations
func (r *profileRepository) AddInvitation(ctx context.Context, profileID, teamID string) error {
	query := `
		UPDATE profiles SET
			invitations = array_append(invitations, $2),
			updated_at = NOW()
		WHERE id = $1 AND NOT ($2 = ANY(invitations))
	`

	tag, err := r.db.Pool.Exec(ctx, query, profileID, teamID)
	if err != nil {
		return fmt.Errorf("failed to add invitation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrConflict
	}
	return nil
}

// RemoveInvitation pulls teamID from the profile's invitations
func (r *profileRepository) RemoveInvitation(ctx context.Context, profileID, teamID string) error {
	query := `
		UPDATE profiles SET
			invitations = array_remove(invitations, $2),
			updated_at = NOW()
		WHERE id = $1
	`

	tag, err := r.db.Pool.Exec(ctx, query, profileID, teamID)
	if err != nil {
		return fmt.Errorf("failed to remove invitation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

type purgedRegistration struct {
	id      string
	eventID string
	members []string
	counted bool
}

// Purge hard-deletes the profile and everything that only exists through it
func (r *profileRepository) Purge(ctx context.Context, id string) (*domain.PurgeResult, error) {
	result := &domain.PurgeResult{ProfileID: id, DisbandedTeams: []string{}}

	err := r.db.WithTx(ctx, func(tx pgx.Tx) error {
		var locked string
		err := tx.QueryRow(ctx, `SELECT id FROM profiles WHERE id = $1 FOR UPDATE`, id).Scan(&locked)
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to lock profile: %w", err)
		}

		rows, err := tx.Query(ctx, `SELECT id FROM teams WHERE leader_id = $1 FOR UPDATE`, id)
		if err != nil {
			return fmt.Errorf("failed to list led teams: %w", err)
		}
		led, err := pgx.CollectRows(rows, pgx.RowTo[string])
		if err != nil {
			return fmt.Errorf("failed to scan led teams: %w", err)
		}
		result.DisbandedTeams = append(result.DisbandedTeams, led...)

		rows, err = tx.Query(ctx, `
			SELECT id, event_id, selected_members, counted FROM registrations
			WHERE team_id = ANY($1) OR individual_id = $2
			FOR UPDATE`, led, id)
		if err != nil {
			return fmt.Errorf("failed to list purged registrations: %w", err)
		}
		doomed, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (purgedRegistration, error) {
			var pr purgedRegistration
			err := row.Scan(&pr.id, &pr.eventID, &pr.members, &pr.counted)
			return pr, err
		})
		if err != nil {
			return fmt.Errorf("failed to scan purged registrations: %w", err)
		}
		result.DeletedRegistrations = len(doomed)

		doomedIDs := make([]string, 0, len(doomed))
		for _, pr := range doomed {
			doomedIDs = append(doomedIDs, pr.id)
		}

		steps := []struct {
			name  string
			query string
			args  []interface{}
		}{
			{"delete registrations", `DELETE FROM registrations WHERE id = ANY($1)`, []interface{}{doomedIDs}},
			{"clear team fields", `UPDATE profiles SET
				current_team_id = CASE WHEN current_team_id = ANY($1) THEN NULL ELSE current_team_id END,
				esports_team_id = CASE WHEN esports_team_id = ANY($1) THEN NULL ELSE esports_team_id END,
				updated_at = NOW()
				WHERE current_team_id = ANY($1) OR esports_team_id = ANY($1)`, []interface{}{led}},
			{"strip invitations", `UPDATE profiles SET
				invitations = ARRAY(SELECT i FROM unnest(invitations) AS i WHERE NOT (i = ANY($1::uuid[]))),
				updated_at = NOW()
				WHERE invitations && $1::uuid[]`, []interface{}{led}},
			{"delete cart items", `DELETE FROM cart_items WHERE team_id = ANY($1)`, []interface{}{led}},
			{"delete led teams", `DELETE FROM teams WHERE id = ANY($1)`, []interface{}{led}},
			{"leave rosters", `UPDATE teams SET members = array_remove(members, $1), updated_at = NOW()
				WHERE $1 = ANY(members)`, []interface{}{id}},
			{"leave selected members", `UPDATE registrations SET selected_members = array_remove(selected_members, $1), updated_at = NOW()
				WHERE $1 = ANY(selected_members)`, []interface{}{id}},
			{"delete dance entries", `DELETE FROM dance_registrations WHERE profile_id = $1`, []interface{}{id}},
			{"delete profile", `DELETE FROM profiles WHERE id = $1`, []interface{}{id}},
		}
		for _, step := range steps {
			if _, err := tx.Exec(ctx, step.query, step.args...); err != nil {
				return fmt.Errorf("purge: failed to %s: %w", step.name, err)
			}
		}

		for _, pr := range doomed {
			if pr.counted {
				if _, err := tx.Exec(ctx, `
					UPDATE events SET current_registrations = GREATEST(current_registrations - 1, 0), updated_at = NOW()
					WHERE event_id = $1`, pr.eventID); err != nil {
					return fmt.Errorf("failed to decrement registrations: %w", err)
				}
			}
			if _, err := tx.Exec(ctx, `
				UPDATE profiles p SET
					registered_events = array_remove(p.registered_events, $2),
					paid_events = array_remove(p.paid_events, $2),
					updated_at = NOW()
				WHERE p.id = ANY($1)
					AND NOT EXISTS (
						SELECT 1 FROM registrations r
						WHERE r.event_id = $2 AND (r.individual_id = p.id OR p.id = ANY(r.selected_members))
					)`, pr.members, pr.eventID); err != nil {
				return fmt.Errorf("failed to pull purged event: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// addEventToProfiles adds eventID to registered_events, and to paid_events
// when paid, for every listed profile
func addEventToProfiles(ctx context.Context, tx pgx.Tx, profileIDs []string, eventID string, paid bool) error {
	if len(profileIDs) == 0 {
		return nil
	}

	query := `
		UPDATE profiles SET
			registered_events = CASE WHEN $2 = ANY(registered_events)
				THEN registered_events ELSE array_append(registered_events, $2) END,
			paid_events = CASE WHEN NOT $3 OR $2 = ANY(paid_events)
				THEN paid_events ELSE array_append(paid_events, $2) END,
			updated_at = NOW()
		WHERE id = ANY($1)
	`

	if _, err := tx.Exec(ctx, query, profileIDs, eventID, paid); err != nil {
		return fmt.Errorf("failed to update profile events: %w", err)
	}
	return nil
}
