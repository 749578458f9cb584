package repository

import (
	"context"
	"errors"
	"fmt"

	"fest-backend/internal/domain"
	"fest-backend/pkg/database"

	"github.com/jackc/pgx/v5"
)

type channelRepository struct {
	db *database.PostgresDB
}

func NewChannelRepository(db *database.PostgresDB) ChannelRepository {
	return &channelRepository{db: db}
}

// ListActive returns every active channel
func (r *channelRepository) ListActive(ctx context.Context) ([]*domain.Channel, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT id, event_id, name, is_active, post_count
		FROM channels
		WHERE is_active`)
	if err != nil {
		return nil, fmt.Errorf("failed to list channels: %w", err)
	}
	defer rows.Close()

	channels := []*domain.Channel{}
	for rows.Next() {
		var c domain.Channel
		if err := rows.Scan(&c.ID, &c.EventID, &c.Name, &c.IsActive, &c.PostCount); err != nil {
			return nil, fmt.Errorf("failed to scan channel: %w", err)
		}
		channels = append(channels, &c)
	}
	return channels, rows.Err()
}

// GetByEventID retrieves the channel linked to an event slug
func (r *channelRepository) GetByEventID(ctx context.Context, eventID string) (*domain.Channel, error) {
	var c domain.Channel
	err := r.db.Pool.QueryRow(ctx, `
		SELECT id, event_id, name, is_active, post_count
		FROM channels
		WHERE event_id = $1`, eventID).Scan(&c.ID, &c.EventID, &c.Name, &c.IsActive, &c.PostCount)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get channel: %w", err)
	}
	return &c, nil
}
