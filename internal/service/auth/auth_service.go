package auth

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"fest-backend/internal/domain"
	"fest-backend/internal/service"
	"fest-backend/pkg/errors"
	"fest-backend/pkg/logger"

	"github.com/golang-jwt/jwt/v5"
	"google.golang.org/api/idtoken"
)

// SessionClaims are carried by the HS256 session token
type SessionClaims struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
	Role  string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// IDTokenValidator checks a Google ID token against an audience
type IDTokenValidator func(ctx context.Context, token, audience string) (*idtoken.Payload, error)

// Service implements the AuthService interface
type Service struct {
	sessionSecret   []byte
	googleClientID  string
	validateIDToken IDTokenValidator
	logger          *logger.Logger
}

// NewService creates a new auth service. Google ID tokens are accepted only
// when googleClientID is set.
func NewService(sessionSecret, googleClientID string, logger *logger.Logger) *Service {
	return &Service{
		sessionSecret:   []byte(sessionSecret),
		googleClientID:  googleClientID,
		validateIDToken: idtoken.Validate,
		logger:          logger,
	}
}

var _ service.AuthService = (*Service)(nil)

// WithIDTokenValidator replaces the Google ID token validator
func (s *Service) WithIDTokenValidator(v IDTokenValidator) *Service {
	s.validateIDToken = v
	return s
}

// Authenticate resolves a bearer token into an identity. HS256 tokens are
// session tokens; RS256 tokens are treated as Google ID tokens.
func (s *Service) Authenticate(ctx context.Context, token string) (*domain.Identity, error) {
	token = strings.TrimSpace(token)
	if !isJWTToken(token) {
		return nil, errors.NewAuthenticationError("Unrecognized token format")
	}

	unverified, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return nil, errors.NewAuthenticationError("Invalid token")
	}

	switch unverified.Method.Alg() {
	case jwt.SigningMethodHS256.Alg():
		return s.validateSession(token)
	case "RS256":
		return s.validateGoogleIDToken(ctx, token)
	default:
		s.logger.WithField("alg", unverified.Method.Alg()).Warn("Rejected token with unsupported algorithm")
		return nil, errors.NewAuthenticationError("Unsupported token")
	}
}

func (s *Service) validateSession(tokenString string) (*domain.Identity, error) {
	if len(s.sessionSecret) == 0 {
		s.logger.Error("SESSION_JWT_SECRET not configured")
		return nil, errors.NewAuthenticationError("Session validation not configured")
	}

	claims := &SessionClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.sessionSecret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		if stderrors.Is(err, jwt.ErrTokenExpired) {
			return nil, errors.NewAuthenticationError("Token has expired")
		}
		s.logger.WithError(err).Debug("Session token rejected")
		return nil, errors.NewAuthenticationError("Invalid session token")
	}
	if !token.Valid || claims.Email == "" {
		return nil, errors.NewAuthenticationError("Invalid session token")
	}

	return &domain.Identity{
		Subject:  claims.Subject,
		Email:    strings.ToLower(claims.Email),
		Name:     claims.Name,
		Role:     claims.Role,
		Provider: "session",
	}, nil
}

func (s *Service) validateGoogleIDToken(ctx context.Context, token string) (*domain.Identity, error) {
	if s.googleClientID == "" {
		return nil, errors.NewAuthenticationError("Google sign-in not configured")
	}

	payload, err := s.validateIDToken(ctx, token, s.googleClientID)
	if err != nil {
		s.logger.WithError(err).Debug("Google ID token rejected")
		return nil, errors.NewAuthenticationError("Invalid Google ID token")
	}

	email := getStringValue(payload.Claims, "email")
	if email == "" || !getBoolValue(payload.Claims, "email_verified") {
		return nil, errors.NewAuthenticationError("Google account email is not verified")
	}

	return &domain.Identity{
		Subject:  payload.Subject,
		Email:    strings.ToLower(email),
		Name:     getStringValue(payload.Claims, "name"),
		Provider: "google",
	}, nil
}

// IssueSession signs a session token for identity
func (s *Service) IssueSession(identity *domain.Identity, ttl time.Duration) (string, error) {
	if len(s.sessionSecret) == 0 {
		return "", fmt.Errorf("session secret not configured")
	}
	now := time.Now()
	claims := SessionClaims{
		Email: identity.Email,
		Name:  identity.Name,
		Role:  identity.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.Subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.sessionSecret)
}

func isJWTToken(token string) bool {
	// JWT tokens have exactly 3 segments separated by dots
	return token != "" && strings.Count(token, ".") == 2
}

func getStringValue(m map[string]interface{}, key string) string {
	if val, ok := m[key].(string); ok {
		return val
	}
	return ""
}

func getBoolValue(m map[string]interface{}, key string) bool {
	switch val := m[key].(type) {
	case bool:
		return val
	case string:
		return val == "true"
	}
	return false
}
