package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("PENDING_PAYMENT_TTL", "")
	t.Setenv("DANCE_EVENT_SLUG", "")
	t.Setenv("EVIDENCE_BUCKET", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 48*time.Hour, cfg.PendingPaymentTTL)
	assert.Equal(t, "dance-performance", cfg.DanceEventSlug)
	assert.Equal(t, "INR", cfg.PaymentCurrency)
	assert.False(t, cfg.Evidence.Enabled())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PENDING_PAYMENT_TTL", "90m")
	t.Setenv("SWEEP_INTERVAL", "30")
	t.Setenv("ADMIN_EMAILS", " Root@Fest.io, ops@fest.io ,")
	t.Setenv("EVIDENCE_BUCKET", "screenshots")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 90*time.Minute, cfg.PendingPaymentTTL)
	assert.Equal(t, 30*time.Second, cfg.SweepInterval)
	assert.Equal(t, []string{"root@fest.io", "ops@fest.io"}, cfg.AdminEmails)
	assert.True(t, cfg.Evidence.Enabled())
}

func TestParseList(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{name: "empty", input: "", want: []string{}},
		{name: "single", input: "http://localhost:3000", want: []string{"http://localhost:3000"}},
		{name: "trims blanks", input: "a, ,b,", want: []string{"a", "b"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, parseList(tt.input))
		})
	}
}

func TestGetDurationEnvFallsBackOnGarbage(t *testing.T) {
	t.Setenv("SOME_TTL", "soon")
	assert.Equal(t, time.Minute, getDurationEnv("SOME_TTL", time.Minute))
}
