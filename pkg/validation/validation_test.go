package validation

import (
	"testing"

	"fest-backend/internal/domain"
	"fest-backend/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStruct(t *testing.T) {
	tests := []struct {
		name    string
		input   interface{}
		fields  []string
		message string
	}{
		{
			name:  "valid invite",
			input: domain.InviteRequest{Email: "asha@example.com"},
		},
		{
			name:    "bad email",
			input:   domain.InviteRequest{Email: "not-an-email"},
			fields:  []string{"email"},
			message: "email must be a valid email",
		},
		{
			name:    "group dance needs team name",
			input:   domain.DanceRequest{Category: "Group", DanceStyle: "Bhangra", VideoLink: "https://v.example.com"},
			fields:  []string{"team_name"},
			message: "team_name is required",
		},
		{
			name:    "unknown review action",
			input:   domain.ManualReviewRequest{RegistrationID: "r-1", Action: "approve"},
			fields:  []string{"action"},
			message: "action must be one of verify reject",
		},
		{
			name:   "several failures",
			input:  domain.VerifyPaymentRequest{OrderID: "order_1"},
			fields: []string{"razorpay_payment_id", "razorpay_signature"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Struct(tt.input)
			if len(tt.fields) == 0 {
				assert.NoError(t, err)
				return
			}

			require.Error(t, err)
			appErr := errors.From(err)
			assert.Equal(t, errors.ErrorTypeValidation, appErr.Type)
			for _, f := range tt.fields {
				assert.Contains(t, appErr.Details, f)
			}
			assert.Len(t, appErr.Details, len(tt.fields))
			if tt.message != "" {
				assert.Equal(t, tt.message, appErr.Message)
			}
		})
	}
}
