package domain

// CreateOrderRequest is the body of POST /payments/create-order
type CreateOrderRequest struct {
	EventID string `json:"event_id" validate:"required"`
}

// CreateOrderResponse is handed to the checkout widget
type CreateOrderResponse struct {
	OrderID        string `json:"order_id"`
	Amount         int    `json:"amount"`
	Currency       string `json:"currency"`
	KeyID          string `json:"key_id"`
	EventTitle     string `json:"event_title"`
	EventID        string `json:"event_id"`
	RegistrationID string `json:"registration_id"`
}

// VerifyPaymentRequest is the gateway callback payload relayed by the client
type VerifyPaymentRequest struct {
	OrderID   string `json:"razorpay_order_id" validate:"required"`
	PaymentID string `json:"razorpay_payment_id" validate:"required"`
	Signature string `json:"razorpay_signature" validate:"required"`
	EventID   string `json:"event_id"`
}

// VerifyPaymentResponse reports the outcome of a gateway confirmation
type VerifyPaymentResponse struct {
	Message        string `json:"message"`
	Success        bool   `json:"success"`
	RegistrationID string `json:"registration_id"`
	// AlreadyProcessed is true when the confirmation was a duplicate
	AlreadyProcessed bool `json:"already_processed"`
}

// Manual review actions
const (
	ReviewVerify = "verify"
	ReviewReject = "reject"
)

// ManualReviewRequest is the admin body of POST /admin/payments
type ManualReviewRequest struct {
	RegistrationID string `json:"registration_id" validate:"required"`
	Action         string `json:"action" validate:"required,oneof=verify reject"`
	Notes          string `json:"notes" validate:"max=500"`
}

// PaymentConfirmation describes a transition into a confirmed state
type PaymentConfirmation struct {
	Status           PaymentStatus
	GatewayPaymentID string
	GatewaySignature string
	AmountPaid       int
	Manual           *ManualVerification
	LockTeam         bool
}
