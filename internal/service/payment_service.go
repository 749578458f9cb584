package service

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"fest-backend/internal/domain"
	"fest-backend/internal/repository"
	"fest-backend/internal/service/evidence"
	"fest-backend/internal/service/gateway"
	apperrors "fest-backend/pkg/errors"
	"fest-backend/pkg/logger"
	"fest-backend/pkg/redis"

	"github.com/google/uuid"
)

// MaxEvidenceSize caps screenshot uploads
const MaxEvidenceSize = 5 << 20

var evidenceExtensions = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/webp": ".webp",
}

type paymentService struct {
	events        repository.EventRepository
	teams         repository.TeamRepository
	registrations repository.RegistrationRepository
	gateway       gateway.Gateway
	evidence      evidence.Store
	redis         *redis.Client
	now           func() time.Time
	logger        *logger.Logger
}

// NewPaymentService creates the payment reconciliation service. The redis
// client and evidence store may be nil.
func NewPaymentService(
	repos *repository.Repositories,
	gw gateway.Gateway,
	store evidence.Store,
	redisClient *redis.Client,
	log *logger.Logger,
) PaymentService {
	return &paymentService{
		events:        repos.Event,
		teams:         repos.Team,
		registrations: repos.Registration,
		gateway:       gw,
		evidence:      store,
		redis:         redisClient,
		now:           time.Now,
		logger:        log,
	}
}

func (s *paymentService) CreateOrder(ctx context.Context, profile *domain.Profile, eventID string) (*domain.CreateOrderResponse, error) {
	event, err := s.events.GetByEventID(ctx, eventID)
	if err != nil {
		return nil, apperrors.NewInternalError("Failed to load event", err)
	}
	if event == nil || !event.IsLive {
		return nil, apperrors.NewNotFoundError("Event not found or not available")
	}
	if event.IsFree() {
		return nil, apperrors.NewValidationError("This event is free, no payment is required", nil)
	}

	reg, err := s.registrations.FindForProfile(ctx, profile.ID, event.EventID)
	if err != nil {
		return nil, apperrors.NewInternalError("Failed to load registration", err)
	}
	if reg == nil {
		return nil, apperrors.NewNotFoundError("Register for the event before paying")
	}
	if reg.PaymentStatus.IsConfirmed() {
		return nil, apperrors.NewConflictError("Registration is already paid")
	}
	if !reg.PaymentStatus.CanAttachOrder() {
		return nil, apperrors.NewConflictError("Payment is awaiting manual verification")
	}
	if event.IsFull() {
		return nil, apperrors.NewConflictError("Event is fully booked")
	}

	order, err := s.gateway.CreateOrder(ctx, gateway.OrderRequest{
		Amount:   reg.AmountExpected * 100,
		Currency: reg.Currency,
		Receipt:  "reg_" + reg.ID,
		Notes: map[string]string{
			"event_id":        event.EventID,
			"registration_id": reg.ID,
			"profile_id":      profile.ID,
		},
	})
	if errors.Is(err, gateway.ErrNotConfigured) {
		return nil, apperrors.NewExternalError("Payment gateway is not configured", err)
	}
	if err != nil {
		return nil, apperrors.NewExternalError("Payment gateway unavailable", err)
	}

	err = s.registrations.AttachOrder(ctx, reg.ID, order.ID)
	if errors.Is(err, repository.ErrInvalidState) {
		return nil, apperrors.NewConflictError("Registration can no longer accept a payment")
	}
	if err != nil {
		return nil, apperrors.NewInternalError("Failed to store order", err)
	}

	s.logger.WithFields(map[string]interface{}{
		"registration_id": reg.ID,
		"order_id":        order.ID,
		"amount":          order.Amount,
	}).Info("Payment order created")

	return &domain.CreateOrderResponse{
		OrderID:        order.ID,
		Amount:         order.Amount,
		Currency:       order.Currency,
		KeyID:          s.gateway.KeyID(),
		EventTitle:     event.Title,
		EventID:        event.EventID,
		RegistrationID: reg.ID,
	}, nil
}

func (s *paymentService) Verify(ctx context.Context, profile *domain.Profile, req domain.VerifyPaymentRequest) (*domain.VerifyPaymentResponse, error) {
	log := s.logger.WithFields(map[string]interface{}{
		"order_id":   req.OrderID,
		"payment_id": req.PaymentID,
		"profile_id": profile.ID,
	})

	if !s.gateway.VerifySignature(req.OrderID, req.PaymentID, req.Signature) {
		log.Warn("Payment signature mismatch")
		return nil, apperrors.NewValidationError("Invalid payment signature", nil)
	}

	reg, err := s.registrations.GetByOrderID(ctx, req.OrderID)
	if err != nil {
		return nil, apperrors.NewInternalError("Failed to load registration", err)
	}
	if reg == nil {
		return nil, apperrors.NewNotFoundError("No registration found for this order")
	}

	duplicate := &domain.VerifyPaymentResponse{
		Message:          "Payment already processed",
		Success:          true,
		RegistrationID:   reg.ID,
		AlreadyProcessed: true,
	}
	if reg.PaymentStatus.IsConfirmed() {
		return duplicate, nil
	}

	lockKey := ""
	if s.redis != nil {
		key := s.redis.KeyBuilder.KeyPaymentLock(req.PaymentID)
		acquired, err := s.redis.SetNX(ctx, key, reg.ID, redis.TTLPaymentLock)
		if err != nil {
			// The processed_payments row still guards the write
			log.WithError(err).Warn("Payment lock unavailable")
		} else if !acquired {
			log.Info("Concurrent confirmation in flight")
			return duplicate, nil
		} else {
			lockKey = key
		}
	}

	confirmed, applied, err := s.registrations.Confirm(ctx, reg.ID, domain.PaymentConfirmation{
		Status:           domain.PaymentPaid,
		GatewayPaymentID: req.PaymentID,
		GatewaySignature: req.Signature,
		AmountPaid:       reg.AmountExpected,
		LockTeam:         true,
	})
	if err != nil {
		// nothing was written, so a retry must be able to take the lock
		s.releasePaymentLock(ctx, lockKey, log)
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFoundError("No registration found for this order")
		}
		return nil, apperrors.NewInternalError("Failed to confirm payment", err)
	}
	if !applied {
		return duplicate, nil
	}

	log.WithField("registration_id", confirmed.ID).Info("Payment confirmed")
	return &domain.VerifyPaymentResponse{
		Message:        "Payment verified successfully",
		Success:        true,
		RegistrationID: confirmed.ID,
	}, nil
}

func (s *paymentService) releasePaymentLock(ctx context.Context, key string, log *logger.Logger) {
	if key == "" {
		return
	}
	if err := s.redis.Delete(ctx, key); err != nil {
		log.WithError(err).Warn("Failed to release payment lock")
	}
}

func (s *paymentService) SubmitEvidence(ctx context.Context, profile *domain.Profile, registrationID string, ev Evidence) (*domain.Registration, error) {
	if s.evidence == nil {
		return nil, apperrors.NewExternalError("Screenshot uploads are not configured", nil)
	}

	ext, ok := evidenceExtensions[ev.ContentType]
	if !ok {
		return nil, apperrors.NewValidationError("Screenshot must be a PNG, JPEG or WebP image", map[string]interface{}{
			"content_type": ev.ContentType,
		})
	}
	if ev.Size <= 0 || ev.Size > MaxEvidenceSize {
		return nil, apperrors.NewValidationError("Screenshot must be smaller than 5MB", map[string]interface{}{
			"size": ev.Size,
		})
	}

	reg, err := s.registrations.GetByID(ctx, registrationID)
	if err != nil {
		return nil, apperrors.NewInternalError("Failed to load registration", err)
	}
	if reg == nil {
		return nil, apperrors.NewNotFoundError("Registration not found")
	}

	involved, err := s.involves(ctx, reg, profile.ID)
	if err != nil {
		return nil, err
	}
	if !involved {
		return nil, apperrors.NewAuthorizationError("You are not part of this registration")
	}
	if !reg.PaymentStatus.CanSubmitEvidence() {
		return nil, apperrors.NewConflictError("Payment is already confirmed")
	}

	key := path.Join("payments", reg.ID, uuid.New().String()+ext)
	url, err := s.evidence.Put(ctx, key, ev.ContentType, ev.Body)
	if err != nil {
		return nil, apperrors.NewExternalError("Failed to store screenshot", err)
	}

	updated, err := s.registrations.SubmitEvidence(ctx, reg.ID, url)
	if errors.Is(err, repository.ErrInvalidState) {
		return nil, apperrors.NewConflictError("Payment is already confirmed")
	}
	if err != nil {
		return nil, apperrors.NewInternalError("Failed to store screenshot", err)
	}

	s.logger.WithFields(map[string]interface{}{
		"registration_id": reg.ID,
		"profile_id":      profile.ID,
	}).Info("Payment evidence submitted")
	return updated, nil
}

// involves reports whether the profile is on the registration directly or
// through its team
func (s *paymentService) involves(ctx context.Context, reg *domain.Registration, profileID string) (bool, error) {
	if reg.Involves(profileID) {
		return true, nil
	}
	if reg.TeamID == nil {
		return false, nil
	}
	team, err := s.teams.GetByID(ctx, *reg.TeamID)
	if err != nil {
		return false, apperrors.NewInternalError("Failed to load team", err)
	}
	return team != nil && team.HasMember(profileID), nil
}

func (s *paymentService) Review(ctx context.Context, admin *domain.Profile, req domain.ManualReviewRequest) (*domain.Registration, error) {
	reg, err := s.registrations.GetByID(ctx, req.RegistrationID)
	if err != nil {
		return nil, apperrors.NewInternalError("Failed to load registration", err)
	}
	if reg == nil {
		return nil, apperrors.NewNotFoundError("Registration not found")
	}

	stamp := domain.ManualVerification{
		VerifiedBy: admin.Email,
		VerifiedAt: s.now(),
		Notes:      strings.TrimSpace(req.Notes),
	}
	log := s.logger.WithFields(map[string]interface{}{
		"registration_id": reg.ID,
		"admin":           admin.Email,
		"action":          req.Action,
		"previous_status": reg.PaymentStatus,
	})

	switch req.Action {
	case domain.ReviewVerify:
		updated, applied, err := s.registrations.Confirm(ctx, reg.ID, domain.PaymentConfirmation{
			Status:     domain.PaymentManualVerified,
			AmountPaid: reg.AmountExpected,
			Manual:     &stamp,
			LockTeam:   true,
		})
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFoundError("Registration not found")
		}
		if err != nil {
			return nil, apperrors.NewInternalError("Failed to verify payment", err)
		}
		log.WithField("first_confirmation", applied).Info("Payment manually verified")
		return updated, nil

	case domain.ReviewReject:
		if stamp.Notes == "" {
			return nil, apperrors.NewValidationError("A reason is required to reject a payment", map[string]interface{}{
				"field": "notes",
			})
		}
		updated, err := s.registrations.Reject(ctx, reg.ID, stamp)
		if errors.Is(err, repository.ErrInvalidState) {
			return nil, apperrors.NewConflictError("Cannot reject a confirmed payment")
		}
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFoundError("Registration not found")
		}
		if err != nil {
			return nil, apperrors.NewInternalError("Failed to reject payment", err)
		}
		log.Info("Payment rejected")
		return updated, nil

	default:
		return nil, apperrors.NewValidationError(fmt.Sprintf("Unknown action %q", req.Action), nil)
	}
}
