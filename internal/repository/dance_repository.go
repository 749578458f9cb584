package repository

import (
	"context"
	"errors"
	"fmt"

	"fest-backend/internal/domain"
	"fest-backend/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const danceColumns = `
	id, profile_id, category, dance_style, performance_time, team_name, members,
	video_link, status, created_at, updated_at`

type danceRepository struct {
	db *database.PostgresDB
}

func NewDanceRepository(db *database.PostgresDB) DanceRepository {
	return &danceRepository{db: db}
}

func scanDance(row pgx.Row) (*domain.DanceRegistration, error) {
	var d domain.DanceRegistration
	err := row.Scan(
		&d.ID,
		&d.ProfileID,
		&d.Category,
		&d.DanceStyle,
		&d.PerformanceTime,
		&d.TeamName,
		&d.Members,
		&d.VideoLink,
		&d.Status,
		&d.CreatedAt,
		&d.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *danceRepository) list(ctx context.Context, where string, args ...interface{}) ([]*domain.DanceRegistration, error) {
	rows, err := r.db.Pool.Query(ctx, `SELECT `+danceColumns+` FROM dance_registrations `+where+` ORDER BY created_at DESC`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list dance registrations: %w", err)
	}
	defer rows.Close()

	out := []*domain.DanceRegistration{}
	for rows.Next() {
		d, err := scanDance(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan dance registration: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// Create inserts a submission unless the profile already holds max
func (r *danceRepository) Create(ctx context.Context, d *domain.DanceRegistration, max int) error {
	if d.ID == "" {
		d.ID = uuid.New().String()
	}
	if d.Members == nil {
		d.Members = []string{}
	}

	return r.db.WithTx(ctx, func(tx pgx.Tx) error {
		// Serialise submissions per profile so the cap holds under concurrency
		if _, err := tx.Exec(ctx, `SELECT id FROM profiles WHERE id = $1 FOR UPDATE`, d.ProfileID); err != nil {
			return fmt.Errorf("failed to lock profile: %w", err)
		}

		var count int
		if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM dance_registrations WHERE profile_id = $1`, d.ProfileID).Scan(&count); err != nil {
			return fmt.Errorf("failed to count dance registrations: %w", err)
		}
		if count >= max {
			return ErrInvalidState
		}

		err := tx.QueryRow(ctx, `
			INSERT INTO dance_registrations (
				id, profile_id, category, dance_style, performance_time, team_name, members, video_link, status
			)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			RETURNING created_at, updated_at`,
			d.ID,
			d.ProfileID,
			d.Category,
			d.DanceStyle,
			d.PerformanceTime,
			d.TeamName,
			d.Members,
			d.VideoLink,
			d.Status,
		).Scan(&d.CreatedAt, &d.UpdatedAt)
		if err != nil {
			return fmt.Errorf("failed to create dance registration: %w", err)
		}
		return nil
	})
}

// ListByProfile returns a profile's submissions
func (r *danceRepository) ListByProfile(ctx context.Context, profileID string) ([]*domain.DanceRegistration, error) {
	return r.list(ctx, `WHERE profile_id = $1`, profileID)
}

// CountByProfile counts a profile's submissions
func (r *danceRepository) CountByProfile(ctx context.Context, profileID string) (int, error) {
	var count int
	err := r.db.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM dance_registrations WHERE profile_id = $1`, profileID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count dance registrations: %w", err)
	}
	return count, nil
}

// ListAll returns every submission
func (r *danceRepository) ListAll(ctx context.Context) ([]*domain.DanceRegistration, error) {
	return r.list(ctx, ``)
}

// UpdateStatus sets the review status
func (r *danceRepository) UpdateStatus(ctx context.Context, id, status string) (*domain.DanceRegistration, error) {
	d, err := scanDance(r.db.Pool.QueryRow(ctx, `
		UPDATE dance_registrations SET status = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING `+danceColumns, id, status))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update dance registration: %w", err)
	}
	return d, nil
}
