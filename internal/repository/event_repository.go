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

const eventColumns = `
	id, event_id, title, category, description, team_size, prize, rules, image,
	fees, min_team_size, max_team_size, max_registrations, current_registrations,
	is_live, registration_deadline, whatsapp_group_link, discord_link, created_at, updated_at`

type eventRepository struct {
	db *database.PostgresDB
}

func NewEventRepository(db *database.PostgresDB) EventRepository {
	return &eventRepository{db: db}
}

func scanEvent(row pgx.Row) (*domain.Event, error) {
	var e domain.Event
	err := row.Scan(
		&e.ID,
		&e.EventID,
		&e.Title,
		&e.Category,
		&e.Description,
		&e.TeamSize,
		&e.Prize,
		&e.Rules,
		&e.Image,
		&e.Fees,
		&e.MinTeamSize,
		&e.MaxTeamSize,
		&e.MaxRegistrations,
		&e.CurrentRegistrations,
		&e.IsLive,
		&e.RegistrationDeadline,
		&e.WhatsappGroupLink,
		&e.DiscordLink,
		&e.CreatedAt,
		&e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *eventRepository) list(ctx context.Context, where string) ([]*domain.Event, error) {
	rows, err := r.db.Pool.Query(ctx, `SELECT `+eventColumns+` FROM events `+where+` ORDER BY title ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	defer rows.Close()

	events := []*domain.Event{}
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// GetByEventID retrieves an event by its slug
func (r *eventRepository) GetByEventID(ctx context.Context, eventID string) (*domain.Event, error) {
	e, err := scanEvent(r.db.Pool.QueryRow(ctx, `SELECT `+eventColumns+` FROM events WHERE event_id = $1`, eventID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	return e, nil
}

// ListLive returns visible events
func (r *eventRepository) ListLive(ctx context.Context) ([]*domain.Event, error) {
	return r.list(ctx, `WHERE is_live`)
}

// ListAll returns every event
func (r *eventRepository) ListAll(ctx context.Context) ([]*domain.Event, error) {
	return r.list(ctx, ``)
}

// Create inserts the event together with its channel
func (r *eventRepository) Create(ctx context.Context, e *domain.Event, ch *domain.Channel) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	if e.Rules == nil {
		e.Rules = []string{}
	}

	return r.db.WithTx(ctx, func(tx pgx.Tx) error {
		query := `
			INSERT INTO events (
				id, event_id, title, category, description, team_size, prize, rules, image,
				fees, min_team_size, max_team_size, max_registrations, is_live,
				registration_deadline, whatsapp_group_link, discord_link
			)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
			RETURNING created_at, updated_at
		`

		err := tx.QueryRow(ctx, query,
			e.ID,
			e.EventID,
			e.Title,
			e.Category,
			e.Description,
			e.TeamSize,
			e.Prize,
			e.Rules,
			e.Image,
			e.Fees,
			e.MinTeamSize,
			e.MaxTeamSize,
			e.MaxRegistrations,
			e.IsLive,
			e.RegistrationDeadline,
			e.WhatsappGroupLink,
			e.DiscordLink,
		).Scan(&e.CreatedAt, &e.UpdatedAt)

		if database.IsUniqueViolation(err, "") {
			return ErrConflict
		}
		if err != nil {
			return fmt.Errorf("failed to create event: %w", err)
		}

		if ch == nil {
			return nil
		}
		if ch.ID == "" {
			ch.ID = uuid.New().String()
		}
		ch.EventID = e.EventID

		if _, err := tx.Exec(ctx, `
			INSERT INTO channels (id, event_id, name, is_active, post_count)
			VALUES ($1, $2, $3, $4, 0)`, ch.ID, ch.EventID, ch.Name, ch.IsActive); err != nil {
			return fmt.Errorf("failed to create channel: %w", err)
		}
		return nil
	})
}

// Update stores the editable fields of an event
func (r *eventRepository) Update(ctx context.Context, e *domain.Event) error {
	query := `
		UPDATE events SET
			title = $2,
			category = $3,
			description = $4,
			team_size = $5,
			prize = $6,
			rules = $7,
			image = $8,
			fees = $9,
			min_team_size = $10,
			max_team_size = $11,
			max_registrations = $12,
			is_live = $13,
			registration_deadline = $14,
			whatsapp_group_link = $15,
			discord_link = $16,
			updated_at = NOW()
		WHERE event_id = $1
		RETURNING updated_at
	`

	err := r.db.Pool.QueryRow(ctx, query,
		e.EventID,
		e.Title,
		e.Category,
		e.Description,
		e.TeamSize,
		e.Prize,
		e.Rules,
		e.Image,
		e.Fees,
		e.MinTeamSize,
		e.MaxTeamSize,
		e.MaxRegistrations,
		e.IsLive,
		e.RegistrationDeadline,
		e.WhatsappGroupLink,
		e.DiscordLink,
	).Scan(&e.UpdatedAt)

	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to update event: %w", err)
	}
	return nil
}

// Delete removes an event. Its channel goes with it through the foreign key.
func (r *eventRepository) Delete(ctx context.Context, eventID string) error {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM events WHERE event_id = $1`, eventID)
	if err != nil {
		return fmt.Errorf("failed to delete event: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
