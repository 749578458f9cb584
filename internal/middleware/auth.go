package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"fest-backend/internal/domain"
	"fest-backend/internal/service"
	"fest-backend/pkg/errors"
	"fest-backend/pkg/logger"

	"github.com/google/uuid"
)

// ContextKey represents keys used in request context
type ContextKey string

const (
	// IdentityContextKey is the key for the authenticated identity
	IdentityContextKey ContextKey = "identity"
	// ProfileContextKey is the key for the caller's profile
	ProfileContextKey ContextKey = "profile"
	// RequestIDContextKey is the key for request ID in context
	RequestIDContextKey ContextKey = "request_id"
)

// IdentityFromContext returns the identity set by Auth
func IdentityFromContext(ctx context.Context) *domain.Identity {
	identity, _ := ctx.Value(IdentityContextKey).(*domain.Identity)
	return identity
}

// ProfileFromContext returns the profile set by LoadProfile
func ProfileFromContext(ctx context.Context) *domain.Profile {
	profile, _ := ctx.Value(ProfileContextKey).(*domain.Profile)
	return profile
}

// RequestIDFromContext returns the request id set by RequestID
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(RequestIDContextKey).(string)
	return id
}

// Auth creates an authentication middleware
func Auth(authService service.AuthService, logger *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				writeErrorResponse(w, r, errors.NewAuthenticationError("Authorization header is required"), logger)
				return
			}

			if !strings.HasPrefix(authHeader, "Bearer ") {
				writeErrorResponse(w, r, errors.NewAuthenticationError("Invalid authorization header format"), logger)
				return
			}

			token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
			if token == "" {
				writeErrorResponse(w, r, errors.NewAuthenticationError("Token is required"), logger)
				return
			}

			identity, err := authService.Authenticate(r.Context(), token)
			if err != nil {
				writeErrorResponse(w, r, errors.From(err), logger)
				return
			}

			ctx := context.WithValue(r.Context(), IdentityContextKey, identity)
			logger.WithField("email", identity.Email).Debug("User authenticated successfully")

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// LoadProfile maps the authenticated identity to its profile, creating the
// profile on first sign-in. Must run after Auth.
func LoadProfile(profiles service.ProfileService, logger *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity := IdentityFromContext(r.Context())
			if identity == nil {
				writeErrorResponse(w, r, errors.NewAuthenticationError("Authentication required"), logger)
				return
			}

			profile, err := profiles.GetOrCreate(r.Context(), identity)
			if err != nil {
				writeErrorResponse(w, r, errors.From(err), logger)
				return
			}

			ctx := context.WithValue(r.Context(), ProfileContextKey, profile)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin admits callers whose token role claim or stored profile role
// is admin or superadmin. Must run after Auth and LoadProfile.
func RequireAdmin(logger *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity := IdentityFromContext(r.Context())
			if identity == nil {
				writeErrorResponse(w, r, errors.NewAuthenticationError("Authentication required"), logger)
				return
			}

			profile := ProfileFromContext(r.Context())
			if domain.IsAdminRole(identity.Role) || (profile != nil && domain.IsAdminRole(profile.Role)) {
				next.ServeHTTP(w, r)
				return
			}

			logger.WithFields(map[string]interface{}{
				"email": identity.Email,
				"path":  r.URL.Path,
			}).Warn("Admin access denied")
			writeErrorResponse(w, r, errors.NewAuthorizationError("Admin access required"), logger)
		})
	}
}

// RequestID creates a middleware that adds a unique request ID to each request
func RequestID(logger *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := r.Header.Get("X-Request-ID")
			if requestID == "" || len(requestID) > 64 {
				requestID = uuid.New().String()
			}

			ctx := context.WithValue(r.Context(), RequestIDContextKey, requestID)
			w.Header().Set("X-Request-ID", requestID)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// WriteError writes appErr as the JSON error envelope
func WriteError(w http.ResponseWriter, r *http.Request, appErr *errors.AppError) {
	response := &errors.ErrorResponse{}
	response.Error.Type = appErr.Type
	response.Error.Message = appErr.Message
	response.Error.Details = appErr.Details
	response.Error.RequestID = RequestIDFromContext(r.Context())
	response.Error.Timestamp = time.Now().UTC().Format(time.RFC3339)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(appErr.StatusCode)
	_ = json.NewEncoder(w).Encode(response)
}

func writeErrorResponse(w http.ResponseWriter, r *http.Request, appErr *errors.AppError, logger *logger.Logger) {
	logger.WithFields(map[string]interface{}{
		"type":    appErr.Type,
		"message": appErr.Message,
		"path":    r.URL.Path,
	}).Debug("Request rejected")
	WriteError(w, r, appErr)
}
