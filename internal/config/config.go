package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration values for the application
type Config struct {
	Port           string
	AllowedOrigins []string
	LogLevel       string
	Environment    string

	DatabaseURL string
	RedisURL    string

	SessionJWTSecret string
	GoogleClientID   string
	AdminEmails      []string

	RazorpayKeyID     string
	RazorpayKeySecret string
	PaymentCurrency   string

	PendingPaymentTTL time.Duration
	SweepInterval     time.Duration

	// DanceEventSlug is the event whose channel is gated by dance submissions
	// instead of paid registrations.
	DanceEventSlug string

	Evidence EvidenceConfig

	SentryDSN string
}

// EvidenceConfig points at the S3-compatible bucket that stores payment screenshots
type EvidenceConfig struct {
	Bucket          string
	Endpoint        string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	PublicBaseURL   string
}

// Enabled reports whether screenshot uploads can be stored
func (e EvidenceConfig) Enabled() bool {
	return e.Bucket != ""
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	return &Config{
		Port:              getEnv("PORT", "8080"),
		AllowedOrigins:    parseList(getEnv("ALLOWED_ORIGINS", "http://localhost:3000")),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		Environment:       getEnv("ENVIRONMENT", "production"),
		DatabaseURL:       getEnv("DATABASE_URL", ""),
		RedisURL:          getEnv("REDIS_URL", ""),
		SessionJWTSecret:  getEnv("SESSION_JWT_SECRET", ""),
		GoogleClientID:    getEnv("GOOGLE_CLIENT_ID", ""),
		AdminEmails:       parseList(strings.ToLower(getEnv("ADMIN_EMAILS", ""))),
		RazorpayKeyID:     getEnv("RAZORPAY_KEY_ID", ""),
		RazorpayKeySecret: getEnv("RAZORPAY_KEY_SECRET", ""),
		PaymentCurrency:   getEnv("PAYMENT_CURRENCY", "INR"),
		PendingPaymentTTL: getDurationEnv("PENDING_PAYMENT_TTL", 48*time.Hour),
		SweepInterval:     getDurationEnv("SWEEP_INTERVAL", 15*time.Minute),
		DanceEventSlug:    getEnv("DANCE_EVENT_SLUG", "dance-performance"),
		Evidence: EvidenceConfig{
			Bucket:          getEnv("EVIDENCE_BUCKET", ""),
			Endpoint:        getEnv("EVIDENCE_ENDPOINT", ""),
			Region:          getEnv("EVIDENCE_REGION", "auto"),
			AccessKeyID:     getEnv("EVIDENCE_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("EVIDENCE_SECRET_ACCESS_KEY", ""),
			PublicBaseURL:   getEnv("EVIDENCE_PUBLIC_URL", ""),
		},
		SentryDSN: getEnv("SENTRY_DSN", ""),
	}, nil
}

// IsDevelopment reports whether the service runs outside production
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development" || c.Environment == "local"
}

// getEnv gets an environment variable with a fallback value
func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// getDurationEnv parses values like "48h" or plain seconds
func getDurationEnv(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	if d, err := time.ParseDuration(value); err == nil && d > 0 {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	return fallback
}

// parseList parses a comma-separated value into a slice
func parseList(value string) []string {
	if value == "" {
		return []string{}
	}

	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))

	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
