package handler

import (
	"encoding/json"
	"io"
	"net/http"

	"fest-backend/internal/domain"
	"fest-backend/internal/middleware"
	"fest-backend/pkg/errors"
	"fest-backend/pkg/logger"
	"fest-backend/pkg/validation"

	"github.com/getsentry/sentry-go"
)

// maxBodyBytes caps JSON request bodies
const maxBodyBytes = 1 << 20

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// respondError writes err as the error envelope. Internal and upstream
// failures are logged and reported to Sentry with their cause.
func respondError(w http.ResponseWriter, r *http.Request, log *logger.Logger, err error) {
	appErr := errors.From(err)

	if appErr.Type == errors.ErrorTypeInternal || appErr.Type == errors.ErrorTypeExternal {
		requestID := middleware.RequestIDFromContext(r.Context())
		log.WithFields(map[string]interface{}{
			"request_id": requestID,
			"path":       r.URL.Path,
			"method":     r.Method,
		}).WithError(err).Error(appErr.Message)

		if appErr.Internal != nil {
			sentry.WithScope(func(scope *sentry.Scope) {
				scope.SetTag("error_type", string(appErr.Type))
				scope.SetTag("request_id", requestID)
				scope.SetExtra("path", r.URL.Path)
				sentry.CaptureException(appErr.Internal)
			})
		}
	}

	middleware.WriteError(w, r, appErr)
}

// decodeJSON reads the body into v and validates it. An empty body decodes
// to the zero value.
func decodeJSON(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil && err != io.EOF {
		return errors.NewValidationError("Invalid request body", nil)
	}
	return validation.Struct(v)
}

// currentProfile returns the caller's profile loaded by LoadProfile
func currentProfile(r *http.Request) (*domain.Profile, error) {
	profile := middleware.ProfileFromContext(r.Context())
	if profile == nil {
		return nil, errors.NewAuthenticationError("Authentication required")
	}
	return profile, nil
}

// isEsportsParam reads the team kind from ?type=esports
func isEsportsParam(r *http.Request) bool {
	return r.URL.Query().Get("type") == "esports"
}

type messageResponse struct {
	Message string `json:"message"`
}
