package gateway

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestSign(t *testing.T) {
	sig := Sign("order_123", "pay_456", "secret")
	assert.Len(t, sig, 64)
	assert.Equal(t, sig, Sign("order_123", "pay_456", "secret"))
	assert.NotEqual(t, sig, Sign("order_123", "pay_457", "secret"))
	assert.NotEqual(t, sig, Sign("order_123", "pay_456", "other"))
}

func TestRazorpay_VerifySignature(t *testing.T) {
	gw := NewRazorpay("rzp_test_key", "secret", zap.NewNop())
	valid := Sign("order_1", "pay_1", "secret")
	last := byte('0')
	if valid[63] == '0' {
		last = '1'
	}
	tampered := valid[:63] + string(last)

	tests := []struct {
		name      string
		orderID   string
		paymentID string
		signature string
		expected  bool
	}{
		{"valid signature", "order_1", "pay_1", valid, true},
		{"tampered signature", "order_1", "pay_1", tampered, false},
		{"swapped payment", "order_1", "pay_2", valid, false},
		{"empty signature", "order_1", "pay_1", "", false},
		{"uppercase hex", "order_1", "pay_1", "ABC", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, gw.VerifySignature(tt.orderID, tt.paymentID, tt.signature))
		})
	}
}

func TestRazorpay_Unconfigured(t *testing.T) {
	gw := NewRazorpay("", "", zap.NewNop())

	_, err := gw.CreateOrder(context.Background(), OrderRequest{Amount: 100, Currency: "INR"})
	assert.True(t, errors.Is(err, ErrNotConfigured))
	assert.False(t, gw.VerifySignature("o", "p", Sign("o", "p", "")))
}
