package gateway

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"

	razorpay "github.com/razorpay/razorpay-go"
	"go.uber.org/zap"
)

// ErrNotConfigured is returned when no gateway credentials are set
var ErrNotConfigured = errors.New("payment gateway is not configured")

// OrderRequest describes an order to open with the gateway
type OrderRequest struct {
	// Amount is in the smallest currency unit (paise)
	Amount   int
	Currency string
	Receipt  string
	Notes    map[string]string
}

// Order is a gateway order
type Order struct {
	ID       string
	Amount   int
	Currency string
	Receipt  string
}

// Gateway opens orders and authenticates payment callbacks
type Gateway interface {
	// KeyID is the public key handed to the checkout widget
	KeyID() string
	CreateOrder(ctx context.Context, req OrderRequest) (*Order, error)
	// VerifySignature checks a callback signature over order_id|payment_id
	VerifySignature(orderID, paymentID, signature string) bool
}

// Razorpay implements Gateway against the Razorpay orders API
type Razorpay struct {
	client    *razorpay.Client
	keyID     string
	keySecret string
	log       *zap.Logger
}

// NewRazorpay creates the gateway. Missing credentials leave it unconfigured
// so that CreateOrder fails with ErrNotConfigured instead of at startup.
func NewRazorpay(keyID, keySecret string, log *zap.Logger) *Razorpay {
	r := &Razorpay{keyID: keyID, keySecret: keySecret, log: log}
	if keyID != "" && keySecret != "" {
		r.client = razorpay.NewClient(keyID, keySecret)
	}
	return r
}

func (r *Razorpay) KeyID() string {
	return r.keyID
}

func (r *Razorpay) CreateOrder(_ context.Context, req OrderRequest) (*Order, error) {
	if r.client == nil {
		return nil, ErrNotConfigured
	}

	notes := make(map[string]interface{}, len(req.Notes))
	for k, v := range req.Notes {
		notes[k] = v
	}

	data := map[string]interface{}{
		"amount":   req.Amount,
		"currency": req.Currency,
		"receipt":  req.Receipt,
		"notes":    notes,
	}

	body, err := r.client.Order.Create(data, nil)
	if err != nil {
		r.log.Warn("razorpay_order_create_failed",
			zap.String("receipt", req.Receipt),
			zap.Error(err))
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	id, _ := body["id"].(string)
	if id == "" {
		return nil, fmt.Errorf("failed to create order: response carried no id")
	}

	r.log.Info("razorpay_order_created",
		zap.String("order_id", id),
		zap.String("receipt", req.Receipt),
		zap.Int("amount", req.Amount))

	return &Order{
		ID:       id,
		Amount:   req.Amount,
		Currency: req.Currency,
		Receipt:  req.Receipt,
	}, nil
}

func (r *Razorpay) VerifySignature(orderID, paymentID, signature string) bool {
	if r.keySecret == "" || signature == "" {
		return false
	}
	expected := Sign(orderID, paymentID, r.keySecret)
	return hmac.Equal([]byte(expected), []byte(signature))
}

// Sign computes the hex HMAC-SHA256 of "orderID|paymentID"
func Sign(orderID, paymentID, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}
