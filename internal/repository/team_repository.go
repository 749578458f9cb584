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

const teamColumns = `id, name, leader_id, members, is_locked, is_esports, created_at, updated_at`

type teamRepository struct {
	db *database.PostgresDB
}

func NewTeamRepository(db *database.PostgresDB) TeamRepository {
	return &teamRepository{db: db}
}

func scanTeam(row pgx.Row) (*domain.Team, error) {
	var t domain.Team
	err := row.Scan(
		&t.ID,
		&t.Name,
		&t.LeaderID,
		&t.Members,
		&t.IsLocked,
		&t.IsEsports,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func collectTeams(rows pgx.Rows) ([]*domain.Team, error) {
	defer rows.Close()

	teams := []*domain.Team{}
	for rows.Next() {
		t, err := scanTeam(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan team: %w", err)
		}
		teams = append(teams, t)
	}
	return teams, rows.Err()
}

// teamColumn is the profile column holding the team of the given kind
func teamColumn(isEsports bool) string {
	if isEsports {
		return "esports_team_id"
	}
	return "current_team_id"
}

// GetByID retrieves a team by ID
func (r *teamRepository) GetByID(ctx context.Context, id string) (*domain.Team, error) {
	query := `SELECT ` + teamColumns + ` FROM teams WHERE id = $1`

	t, err := scanTeam(r.db.Pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get team: %w", err)
	}
	return t, nil
}

// ListByIDs retrieves the teams with the given IDs
func (r *teamRepository) ListByIDs(ctx context.Context, ids []string) ([]*domain.Team, error) {
	if len(ids) == 0 {
		return []*domain.Team{}, nil
	}

	rows, err := r.db.Pool.Query(ctx, `SELECT `+teamColumns+` FROM teams WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to list teams: %w", err)
	}
	return collectTeams(rows)
}

// ListByMember returns every team the profile is on
func (r *teamRepository) ListByMember(ctx context.Context, profileID string) ([]*domain.Team, error) {
	rows, err := r.db.Pool.Query(ctx, `SELECT `+teamColumns+` FROM teams WHERE $1 = ANY(members)`, profileID)
	if err != nil {
		return nil, fmt.Errorf("failed to list teams by member: %w", err)
	}
	return collectTeams(rows)
}

// Create inserts the team and claims the leader's team field
func (r *teamRepository) Create(ctx context.Context, team *domain.Team) error {
	if team.ID == "" {
		team.ID = uuid.New().String()
	}
	team.Members = []string{team.LeaderID}

	return r.db.WithTx(ctx, func(tx pgx.Tx) error {
		claim := `UPDATE profiles SET ` + teamColumn(team.IsEsports) + ` = $2, updated_at = NOW()
			WHERE id = $1 AND ` + teamColumn(team.IsEsports) + ` IS NULL`

		tag, err := tx.Exec(ctx, claim, team.LeaderID, team.ID)
		if err != nil {
			return fmt.Errorf("failed to claim team field: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return ErrAlreadyInTeam
		}

		insert := `
			INSERT INTO teams (id, name, name_key, leader_id, members, is_locked, is_esports)
			VALUES ($1, $2, $3, $4, $5, FALSE, $6)
			RETURNING created_at, updated_at
		`

		err = tx.QueryRow(ctx, insert,
			team.ID,
			team.Name,
			domain.TeamNameKey(team.Name),
			team.LeaderID,
			team.Members,
			team.IsEsports,
		).Scan(&team.CreatedAt, &team.UpdatedAt)

		if database.IsUniqueViolation(err, "teams_name_key") {
			return ErrConflict
		}
		if err != nil {
			return fmt.Errorf("failed to create team: %w", err)
		}
		return nil
	})
}

// lockTeamRow selects the team row for update
func lockTeamRow(ctx context.Context, tx pgx.Tx, teamID string) (*domain.Team, error) {
	t, err := scanTeam(tx.QueryRow(ctx, `SELECT `+teamColumns+` FROM teams WHERE id = $1 FOR UPDATE`, teamID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock team: %w", err)
	}
	return t, nil
}

// AddMember joins profileID to the team
func (r *teamRepository) AddMember(ctx context.Context, teamID, profileID string) (*domain.Team, error) {
	var team *domain.Team
	err := r.db.WithTx(ctx, func(tx pgx.Tx) error {
		t, err := lockTeamRow(ctx, tx, teamID)
		if err != nil {
			return err
		}
		if t.IsLocked {
			return ErrTeamLocked
		}
		if t.HasMember(profileID) {
			return ErrAlreadyInTeam
		}

		claim := `UPDATE profiles SET ` + teamColumn(t.IsEsports) + ` = $2,
				invitations = array_remove(invitations, $2),
				updated_at = NOW()
			WHERE id = $1 AND ` + teamColumn(t.IsEsports) + ` IS NULL`

		tag, err := tx.Exec(ctx, claim, profileID, teamID)
		if err != nil {
			return fmt.Errorf("failed to claim team field: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return ErrAlreadyInTeam
		}

		team, err = scanTeam(tx.QueryRow(ctx, `
			UPDATE teams SET members = array_append(members, $2), updated_at = NOW()
			WHERE id = $1
			RETURNING `+teamColumns, teamID, profileID))
		if err != nil {
			return fmt.Errorf("failed to add member: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return team, nil
}

// RemoveMember takes a non-leader off the roster
func (r *teamRepository) RemoveMember(ctx context.Context, teamID, profileID string) error {
	return r.db.WithTx(ctx, func(tx pgx.Tx) error {
		t, err := lockTeamRow(ctx, tx, teamID)
		if err != nil {
			return err
		}
		if t.IsLocked {
			return ErrTeamLocked
		}
		if !t.HasMember(profileID) || t.IsLeader(profileID) {
			return ErrInvalidState
		}

		if _, err := tx.Exec(ctx, `
			UPDATE teams SET members = array_remove(members, $2), updated_at = NOW()
			WHERE id = $1`, teamID, profileID); err != nil {
			return fmt.Errorf("failed to remove member: %w", err)
		}

		clear := `UPDATE profiles SET ` + teamColumn(t.IsEsports) + ` = NULL, updated_at = NOW()
			WHERE id = $1 AND ` + teamColumn(t.IsEsports) + ` = $2`
		if _, err := tx.Exec(ctx, clear, profileID, teamID); err != nil {
			return fmt.Errorf("failed to clear team field: %w", err)
		}
		return nil
	})
}

// Disband deletes the team and everything that references it
func (r *teamRepository) Disband(ctx context.Context, teamID string) error {
	return r.db.WithTx(ctx, func(tx pgx.Tx) error {
		t, err := lockTeamRow(ctx, tx, teamID)
		if err != nil {
			return err
		}
		if t.IsLocked {
			return ErrTeamLocked
		}

		steps := []struct {
			name  string
			query string
		}{
			{"clear team fields", `UPDATE profiles SET ` + teamColumn(t.IsEsports) + ` = NULL, updated_at = NOW()
				WHERE ` + teamColumn(t.IsEsports) + ` = $1`},
			{"strip invitations", `UPDATE profiles SET invitations = array_remove(invitations, $1), updated_at = NOW()
				WHERE $1 = ANY(invitations)`},
			{"delete registrations", `DELETE FROM registrations WHERE team_id = $1`},
			{"delete cart items", `DELETE FROM cart_items WHERE team_id = $1`},
			{"delete team", `DELETE FROM teams WHERE id = $1`},
		}

		for _, step := range steps {
			if _, err := tx.Exec(ctx, step.query, teamID); err != nil {
				return fmt.Errorf("disband: failed to %s: %w", step.name, err)
			}
		}
		return nil
	})
}

// SetLocked sets or releases the lock flag
func (r *teamRepository) SetLocked(ctx context.Context, teamID string, locked bool) error {
	tag, err := r.db.Pool.Exec(ctx, `UPDATE teams SET is_locked = $2, updated_at = NOW() WHERE id = $1`, teamID, locked)
	if err != nil {
		return fmt.Errorf("failed to set team lock: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Search returns unlocked teams of the kind whose name contains query
func (r *teamRepository) Search(ctx context.Context, isEsports bool, query string, limit int) ([]*domain.Team, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT `+teamColumns+` FROM teams
		WHERE is_esports = $1 AND NOT is_locked AND name ILIKE '%' || $2 || '%'
		ORDER BY name ASC
		LIMIT $3`, isEsports, escapeLike(query), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search teams: %w", err)
	}
	return collectTeams(rows)
}

// ListAvailable returns the newest unlocked teams of the kind
func (r *teamRepository) ListAvailable(ctx context.Context, isEsports bool, limit int) ([]*domain.Team, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT `+teamColumns+` FROM teams
		WHERE is_esports = $1 AND NOT is_locked
		ORDER BY created_at DESC
		LIMIT $2`, isEsports, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list available teams: %w", err)
	}
	return collectTeams(rows)
}
