package domain

import "time"

// PaymentStatus is the finite-state field of a Registration
type PaymentStatus string

const (
	PaymentInitiated           PaymentStatus = "initiated"
	PaymentPending             PaymentStatus = "pending"
	PaymentVerificationPending PaymentStatus = "verification_pending"
	PaymentPaid                PaymentStatus = "paid"
	PaymentManualVerified      PaymentStatus = "manual_verified"
	PaymentFailed              PaymentStatus = "failed"
)

// Valid reports whether s is a known status
func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentInitiated, PaymentPending, PaymentVerificationPending,
		PaymentPaid, PaymentManualVerified, PaymentFailed:
		return true
	}
	return false
}

// IsConfirmed reports whether the registration counts as paid
func (s PaymentStatus) IsConfirmed() bool {
	return s == PaymentPaid || s == PaymentManualVerified
}

// CanAttachOrder reports whether a gateway order may be opened from s
func (s PaymentStatus) CanAttachOrder() bool {
	return s == PaymentInitiated || s == PaymentPending || s == PaymentFailed
}

// CanSubmitEvidence reports whether a screenshot may be submitted from s
func (s PaymentStatus) CanSubmitEvidence() bool {
	return s == PaymentInitiated || s == PaymentPending || s == PaymentFailed || s == PaymentVerificationPending
}

// IsStale reports whether the sweeper may expire a registration in s
func (s PaymentStatus) IsStale() bool {
	return s == PaymentInitiated || s == PaymentPending
}

// ManualVerification stamps an admin decision
type ManualVerification struct {
	VerifiedBy string    `json:"verified_by"`
	VerifiedAt time.Time `json:"verified_at"`
	Notes      string    `json:"notes,omitempty"`
}

// Registration binds a team or an individual participant set to one event
type Registration struct {
	ID              string        `json:"id"`
	TeamID          *string       `json:"team_id,omitempty"`
	IndividualID    *string       `json:"individual_id,omitempty"`
	EventID         string        `json:"event_id"`
	SelectedMembers []string      `json:"selected_members"`
	PaymentStatus   PaymentStatus `json:"payment_status"`
	AmountExpected  int           `json:"amount_expected"`
	AmountPaid      int           `json:"amount_paid"`
	Currency        string        `json:"currency"`

	GatewayOrderID   string `json:"gateway_order_id,omitempty"`
	GatewayPaymentID string `json:"gateway_payment_id,omitempty"`
	GatewaySignature string `json:"-"`
	ScreenshotURL    string `json:"screenshot_url,omitempty"`

	ManualVerification *ManualVerification `json:"manual_verification,omitempty"`

	// Counted is set once the confirmation side effects (paid events and the
	// event counter) have been applied.
	Counted bool `json:"-"`

	CheckedIn   bool       `json:"checked_in"`
	CheckedInAt *time.Time `json:"checked_in_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Involves reports whether profileID is part of this registration
func (r *Registration) Involves(profileID string) bool {
	if r.IndividualID != nil && *r.IndividualID == profileID {
		return true
	}
	return contains(r.SelectedMembers, profileID)
}

// RegisterRequest is the body of POST /events/register
type RegisterRequest struct {
	EventID         string   `json:"event_id" validate:"required"`
	TeamID          string   `json:"team_id"`
	SelectedMembers []string `json:"selected_members" validate:"omitempty,dive,required"`
}

// RegisterResponse is returned after a successful registration
type RegisterResponse struct {
	Message        string        `json:"message"`
	RegistrationID string        `json:"registration_id"`
	EventID        string        `json:"event_id"`
	EventTitle     string        `json:"event_title"`
	Fees           int           `json:"fees"`
	PaymentStatus  PaymentStatus `json:"payment_status"`
}

// RegistrationFilter narrows admin listings
type RegistrationFilter struct {
	EventID string
	Status  PaymentStatus
}

// CheckInRequest is the admin body of POST /admin/check-in
type CheckInRequest struct {
	RegistrationID string `json:"registration_id" validate:"required,uuid"`
	Action         string `json:"action" validate:"omitempty,oneof=checkIn"`
}

// CheckInResult is returned by the check-in lookup
type CheckInResult struct {
	Message      string        `json:"message"`
	Status       string        `json:"status"`
	Registration *Registration `json:"registration"`
}
