package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"fest-backend/internal/domain"
	"fest-backend/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const registrationColumns = `
	r.id, r.team_id, r.individual_id, r.event_id, r.selected_members, r.payment_status,
	r.amount_expected, r.amount_paid, r.currency, r.gateway_order_id, r.gateway_payment_id,
	r.gateway_signature, r.screenshot_url, r.verified_by, r.verified_at, r.verification_notes,
	r.counted, r.checked_in, r.checked_in_at, r.created_at, r.updated_at`

// involvesProfile matches registrations where $1 is the individual, a selected
// member, or on the registering team
const involvesProfile = `(r.individual_id = $1 OR $1 = ANY(r.selected_members)
	OR r.team_id IN (SELECT t.id FROM teams t WHERE $1 = ANY(t.members)))`

type registrationRepository struct {
	db *database.PostgresDB
}

func NewRegistrationRepository(db *database.PostgresDB) RegistrationRepository {
	return &registrationRepository{db: db}
}

func scanRegistration(row pgx.Row) (*domain.Registration, error) {
	var (
		reg        domain.Registration
		status     string
		orderID    *string
		verifiedBy *string
		verifiedAt *time.Time
		notes      string
	)
	err := row.Scan(
		&reg.ID,
		&reg.TeamID,
		&reg.IndividualID,
		&reg.EventID,
		&reg.SelectedMembers,
		&status,
		&reg.AmountExpected,
		&reg.AmountPaid,
		&reg.Currency,
		&orderID,
		&reg.GatewayPaymentID,
		&reg.GatewaySignature,
		&reg.ScreenshotURL,
		&verifiedBy,
		&verifiedAt,
		&notes,
		&reg.Counted,
		&reg.CheckedIn,
		&reg.CheckedInAt,
		&reg.CreatedAt,
		&reg.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	reg.PaymentStatus = domain.PaymentStatus(status)
	if orderID != nil {
		reg.GatewayOrderID = *orderID
	}
	if verifiedBy != nil && verifiedAt != nil {
		reg.ManualVerification = &domain.ManualVerification{
			VerifiedBy: *verifiedBy,
			VerifiedAt: *verifiedAt,
			Notes:      notes,
		}
	}
	return &reg, nil
}

func (r *registrationRepository) getOne(ctx context.Context, q pgx.Tx, where string, args ...interface{}) (*domain.Registration, error) {
	query := `SELECT ` + registrationColumns + ` FROM registrations r ` + where

	var row pgx.Row
	if q != nil {
		row = q.QueryRow(ctx, query, args...)
	} else {
		row = r.db.Pool.QueryRow(ctx, query, args...)
	}

	reg, err := scanRegistration(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get registration: %w", err)
	}
	return reg, nil
}

func (r *registrationRepository) list(ctx context.Context, where string, args ...interface{}) ([]*domain.Registration, error) {
	rows, err := r.db.Pool.Query(ctx, `SELECT `+registrationColumns+` FROM registrations r `+where+` ORDER BY r.created_at DESC`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list registrations: %w", err)
	}
	defer rows.Close()

	regs := []*domain.Registration{}
	for rows.Next() {
		reg, err := scanRegistration(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan registration: %w", err)
		}
		regs = append(regs, reg)
	}
	return regs, rows.Err()
}

// lockRegistration selects the registration row for update inside tx
func (r *registrationRepository) lockRegistration(ctx context.Context, tx pgx.Tx, id string) (*domain.Registration, error) {
	reg, err := r.getOne(ctx, tx, `WHERE r.id = $1 FOR UPDATE`, id)
	if err != nil {
		return nil, err
	}
	if reg == nil {
		return nil, ErrNotFound
	}
	return reg, nil
}

// GetByID retrieves a registration by ID
func (r *registrationRepository) GetByID(ctx context.Context, id string) (*domain.Registration, error) {
	return r.getOne(ctx, nil, `WHERE r.id = $1`, id)
}

// GetByOrderID retrieves the registration carrying a gateway order
func (r *registrationRepository) GetByOrderID(ctx context.Context, orderID string) (*domain.Registration, error) {
	return r.getOne(ctx, nil, `WHERE r.gateway_order_id = $1`, orderID)
}

// FindForProfile returns the profile's registration for an event
func (r *registrationRepository) FindForProfile(ctx context.Context, profileID, eventID string) (*domain.Registration, error) {
	return r.getOne(ctx, nil, `WHERE r.event_id = $2 AND `+involvesProfile+` ORDER BY r.created_at DESC LIMIT 1`, profileID, eventID)
}

// ListForProfile returns every registration involving the profile
func (r *registrationRepository) ListForProfile(ctx context.Context, profileID string) ([]*domain.Registration, error) {
	return r.list(ctx, `WHERE `+involvesProfile, profileID)
}

// List returns registrations matching the filter
func (r *registrationRepository) List(ctx context.Context, filter domain.RegistrationFilter) ([]*domain.Registration, error) {
	var (
		conds []string
		args  []interface{}
	)
	if filter.EventID != "" {
		args = append(args, filter.EventID)
		conds = append(conds, fmt.Sprintf("r.event_id = $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		conds = append(conds, fmt.Sprintf("r.payment_status = $%d", len(args)))
	}

	where := ""
	if len(conds) > 0 {
		where = "WHERE " + strings.Join(conds, " AND ")
	}
	return r.list(ctx, where, args...)
}

// Create inserts the registration and applies its effects
func (r *registrationRepository) Create(ctx context.Context, reg *domain.Registration, effects RegistrationEffects) error {
	if reg.ID == "" {
		reg.ID = uuid.New().String()
	}
	confirmed := reg.PaymentStatus.IsConfirmed()
	reg.Counted = confirmed

	return r.db.WithTx(ctx, func(tx pgx.Tx) error {
		if effects.EnforceCapacity {
			var (
				current int
				max     *int
			)
			err := tx.QueryRow(ctx, `
				SELECT current_registrations, max_registrations
				FROM events WHERE event_id = $1 FOR UPDATE`, reg.EventID).Scan(&current, &max)
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrNotFound
			}
			if err != nil {
				return fmt.Errorf("failed to read event capacity: %w", err)
			}
			if max != nil && *max > 0 && current >= *max {
				return ErrEventFull
			}
		}

		insert := `
			INSERT INTO registrations (
				id, team_id, individual_id, event_id, selected_members, payment_status,
				amount_expected, amount_paid, currency, counted
			)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			RETURNING created_at, updated_at
		`

		err := tx.QueryRow(ctx, insert,
			reg.ID,
			reg.TeamID,
			reg.IndividualID,
			reg.EventID,
			reg.SelectedMembers,
			string(reg.PaymentStatus),
			reg.AmountExpected,
			reg.AmountPaid,
			reg.Currency,
			reg.Counted,
		).Scan(&reg.CreatedAt, &reg.UpdatedAt)

		if database.IsUniqueViolation(err, "") {
			return ErrConflict
		}
		if err != nil {
			return fmt.Errorf("failed to create registration: %w", err)
		}

		if err := addEventToProfiles(ctx, tx, reg.SelectedMembers, reg.EventID, confirmed); err != nil {
			return err
		}

		if confirmed {
			if err := incrementEventCounter(ctx, tx, reg.EventID); err != nil {
				return err
			}
		}

		if effects.LockTeam && reg.TeamID != nil {
			if _, err := tx.Exec(ctx, `UPDATE teams SET is_locked = TRUE, updated_at = NOW() WHERE id = $1`, *reg.TeamID); err != nil {
				return fmt.Errorf("failed to lock team: %w", err)
			}
		}
		return nil
	})
}

func incrementEventCounter(ctx context.Context, tx pgx.Tx, eventID string) error {
	if _, err := tx.Exec(ctx, `
		UPDATE events SET current_registrations = current_registrations + 1, updated_at = NOW()
		WHERE event_id = $1`, eventID); err != nil {
		return fmt.Errorf("failed to increment registrations: %w", err)
	}
	return nil
}

// AttachOrder stores a gateway order id and moves the registration to pending
func (r *registrationRepository) AttachOrder(ctx context.Context, id, orderID string) error {
	tag, err := r.db.Pool.Exec(ctx, `
		UPDATE registrations SET
			gateway_order_id = $2,
			payment_status = 'pending',
			updated_at = NOW()
		WHERE id = $1 AND payment_status IN ('initiated', 'pending', 'failed')`, id, orderID)
	if err != nil {
		return fmt.Errorf("failed to attach order: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrInvalidState
	}
	return nil
}

// Confirm moves the registration into a confirmed state exactly once
func (r *registrationRepository) Confirm(ctx context.Context, id string, conf domain.PaymentConfirmation) (*domain.Registration, bool, error) {
	var (
		result  *domain.Registration
		applied bool
	)

	err := r.db.WithTx(ctx, func(tx pgx.Tx) error {
		reg, err := r.lockRegistration(ctx, tx, id)
		if err != nil {
			return err
		}

		if conf.Manual == nil {
			if reg.PaymentStatus.IsConfirmed() {
				result = reg
				return nil
			}

			tag, err := tx.Exec(ctx, `
				INSERT INTO processed_payments (payment_id, registration_id)
				VALUES ($1, $2)
				ON CONFLICT (payment_id) DO NOTHING`, conf.GatewayPaymentID, reg.ID)
			if err != nil {
				return fmt.Errorf("failed to record payment: %w", err)
			}
			if tag.RowsAffected() == 0 {
				result = reg
				return nil
			}

			if _, err := tx.Exec(ctx, `
				UPDATE registrations SET
					payment_status = $2,
					gateway_payment_id = $3,
					gateway_signature = $4,
					amount_paid = $5,
					updated_at = NOW()
				WHERE id = $1`,
				reg.ID, string(conf.Status), conf.GatewayPaymentID, conf.GatewaySignature, conf.AmountPaid); err != nil {
				return fmt.Errorf("failed to mark registration paid: %w", err)
			}
		} else {
			if _, err := tx.Exec(ctx, `
				UPDATE registrations SET
					payment_status = $2,
					verified_by = $3,
					verified_at = $4,
					verification_notes = $5,
					amount_paid = GREATEST(amount_paid, $6),
					updated_at = NOW()
				WHERE id = $1`,
				reg.ID, string(conf.Status), conf.Manual.VerifiedBy, conf.Manual.VerifiedAt, conf.Manual.Notes, conf.AmountPaid); err != nil {
				return fmt.Errorf("failed to verify registration: %w", err)
			}
		}

		if !reg.Counted {
			if err := addEventToProfiles(ctx, tx, reg.SelectedMembers, reg.EventID, true); err != nil {
				return err
			}
			if err := incrementEventCounter(ctx, tx, reg.EventID); err != nil {
				return err
			}
			if _, err := tx.Exec(ctx, `UPDATE registrations SET counted = TRUE WHERE id = $1`, reg.ID); err != nil {
				return fmt.Errorf("failed to mark registration counted: %w", err)
			}
			applied = true
		}

		if conf.LockTeam && reg.TeamID != nil {
			if _, err := tx.Exec(ctx, `UPDATE teams SET is_locked = TRUE, updated_at = NOW() WHERE id = $1`, *reg.TeamID); err != nil {
				return fmt.Errorf("failed to lock team: %w", err)
			}
		}

		result, err = r.getOne(ctx, tx, `WHERE r.id = $1`, reg.ID)
		return err
	})
	if err != nil {
		return nil, false, err
	}
	return result, applied, nil
}

// Reject moves the registration to failed with the admin stamp
func (r *registrationRepository) Reject(ctx context.Context, id string, stamp domain.ManualVerification) (*domain.Registration, error) {
	reg, err := r.getOne(ctx, nil, `WHERE r.id = $1`, id)
	if err != nil {
		return nil, err
	}
	if reg == nil {
		return nil, ErrNotFound
	}

	tag, err := r.db.Pool.Exec(ctx, `
		UPDATE registrations SET
			payment_status = 'failed',
			verified_by = $2,
			verified_at = $3,
			verification_notes = $4,
			updated_at = NOW()
		WHERE id = $1 AND payment_status NOT IN ('paid', 'manual_verified')`,
		id, stamp.VerifiedBy, stamp.VerifiedAt, stamp.Notes)
	if err != nil {
		return nil, fmt.Errorf("failed to reject registration: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrInvalidState
	}
	return r.GetByID(ctx, id)
}

// SubmitEvidence stores a screenshot URL and moves to verification_pending
func (r *registrationRepository) SubmitEvidence(ctx context.Context, id, screenshotURL string) (*domain.Registration, error) {
	tag, err := r.db.Pool.Exec(ctx, `
		UPDATE registrations SET
			screenshot_url = $2,
			payment_status = 'verification_pending',
			updated_at = NOW()
		WHERE id = $1 AND payment_status IN ('initiated', 'pending', 'failed', 'verification_pending')`,
		id, screenshotURL)
	if err != nil {
		return nil, fmt.Errorf("failed to store payment evidence: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrInvalidState
	}
	return r.GetByID(ctx, id)
}

// CheckIn stamps the check-in time of a confirmed registration
func (r *registrationRepository) CheckIn(ctx context.Context, id string, at time.Time) (*domain.Registration, error) {
	tag, err := r.db.Pool.Exec(ctx, `
		UPDATE registrations SET checked_in = TRUE, checked_in_at = $2, updated_at = NOW()
		WHERE id = $1 AND payment_status IN ('paid', 'manual_verified') AND NOT checked_in`, id, at)
	if err != nil {
		return nil, fmt.Errorf("failed to check in registration: %w", err)
	}

	reg, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if reg == nil {
		return nil, ErrNotFound
	}
	if tag.RowsAffected() == 0 {
		return reg, ErrInvalidState
	}
	return reg, nil
}

// ListStale returns initiated or pending registrations not updated since cutoff
func (r *registrationRepository) ListStale(ctx context.Context, cutoff time.Time) ([]*domain.Registration, error) {
	return r.list(ctx, `WHERE r.payment_status IN ('initiated', 'pending') AND r.updated_at < $1`, cutoff)
}

// Expire deletes a stale registration and unwinds its effects
func (r *registrationRepository) Expire(ctx context.Context, id string, cutoff time.Time) error {
	return r.db.WithTx(ctx, func(tx pgx.Tx) error {
		reg, err := r.lockRegistration(ctx, tx, id)
		if err != nil {
			return err
		}
		// an order attached after the listing keeps the registration alive
		if !reg.PaymentStatus.IsStale() || !reg.UpdatedAt.Before(cutoff) {
			return ErrInvalidState
		}

		if _, err := tx.Exec(ctx, `DELETE FROM registrations WHERE id = $1`, reg.ID); err != nil {
			return fmt.Errorf("failed to delete registration: %w", err)
		}

		if _, err := tx.Exec(ctx, `
			UPDATE profiles p SET
				registered_events = array_remove(p.registered_events, $2),
				updated_at = NOW()
			WHERE p.id = ANY($1)
				AND NOT ($2 = ANY(p.paid_events))
				AND NOT EXISTS (
					SELECT 1 FROM registrations r
					WHERE r.event_id = $2 AND (r.individual_id = p.id OR p.id = ANY(r.selected_members))
				)`, reg.SelectedMembers, reg.EventID); err != nil {
			return fmt.Errorf("failed to pull registered event: %w", err)
		}

		if reg.TeamID != nil {
			if _, err := tx.Exec(ctx, `
				UPDATE teams SET is_locked = FALSE, updated_at = NOW()
				WHERE id = $1 AND NOT EXISTS (SELECT 1 FROM registrations WHERE team_id = $1)`, *reg.TeamID); err != nil {
				return fmt.Errorf("failed to unlock team: %w", err)
			}
		}
		return nil
	})
}
