package handler

import (
	"net/http"
	"time"

	"fest-backend/internal/middleware"
	"fest-backend/internal/service"
	"fest-backend/pkg/errors"
	"fest-backend/pkg/logger"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

// RouterConfig carries the HTTP-level settings
type RouterConfig struct {
	AllowedOrigins []string
	HealthChecks   map[string]HealthCheck
	RequestTimeout time.Duration
}

// NewRouter configures and returns the HTTP router
func NewRouter(services *service.Services, cfg RouterConfig, log *logger.Logger) *chi.Mux {
	r := chi.NewRouter()

	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	r.Use(middleware.CORS(middleware.DefaultCORSConfig(cfg.AllowedOrigins), log))
	r.Use(middleware.RequestID(log))
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Compress(5))
	r.Use(chiMiddleware.Timeout(timeout))

	healthHandler := NewHealthHandler(cfg.HealthChecks, log)
	profileHandler := NewProfileHandler(services.Profile, log)
	teamHandler := NewTeamHandler(services.Team, log)
	eventHandler := NewEventHandler(services.Event, log)
	registrationHandler := NewRegistrationHandler(services.Registration, log)
	paymentHandler := NewPaymentHandler(services.Payment, log)
	channelHandler := NewChannelHandler(services.Channel, log)
	danceHandler := NewDanceHandler(services.Dance, log)

	authenticate := middleware.Auth(services.Auth, log)
	loadProfile := middleware.LoadProfile(services.Profile, log)

	r.Get("/health", healthHandler.Check)
	r.Get("/health/ready", healthHandler.Ready)

	r.Route("/api", func(r chi.Router) {
		// Public catalog
		r.Get("/events", eventHandler.List)
		r.Get("/events/{eventId}", eventHandler.Get)

		// Authenticated, no profile required
		r.With(authenticate).Get("/profile/status", profileHandler.Status)

		// Authenticated with profile
		r.Group(func(r chi.Router) {
			r.Use(authenticate, loadProfile)

			r.Get("/profile", profileHandler.Get)
			r.Put("/profile", profileHandler.Update)

			r.Route("/teams", func(r chi.Router) {
				r.Get("/", teamHandler.List)
				r.Post("/", teamHandler.Create)
				r.Post("/leave", teamHandler.Leave)
				r.Post("/invite", teamHandler.Invite)
				r.Post("/invitations/{teamId}/accept", teamHandler.AcceptInvitation)
				r.Post("/invitations/{teamId}/decline", teamHandler.DeclineInvitation)
			})

			r.Post("/events/register", registrationHandler.Register)
			r.Get("/registrations", registrationHandler.ListMine)

			r.Route("/payments", func(r chi.Router) {
				r.Post("/create-order", paymentHandler.CreateOrder)
				r.Post("/verify", paymentHandler.Verify)
				r.Post("/screenshot", paymentHandler.SubmitScreenshot)
			})

			r.Get("/user/channels", channelHandler.List)
			r.Get("/channels/{eventId}", channelHandler.Get)

			r.Get("/dance", danceHandler.ListMine)
			r.Post("/dance", danceHandler.Submit)

			r.Route("/admin", func(r chi.Router) {
				r.Use(middleware.RequireAdmin(log))

				r.Get("/events", eventHandler.AdminList)
				r.Post("/events", eventHandler.Create)
				r.Put("/events/{eventId}", eventHandler.Update)
				r.Delete("/events/{eventId}", eventHandler.Delete)

				r.Get("/registrations", registrationHandler.AdminList)
				r.Post("/check-in", registrationHandler.CheckIn)

				r.Post("/payments", paymentHandler.Review)
				r.Post("/verify-payment", paymentHandler.Review)

				r.Post("/teams/{teamId}/unlock", teamHandler.Unlock)

				r.Get("/users", profileHandler.AdminList)
				r.Delete("/users/{userId}", profileHandler.AdminPurge)

				r.Get("/dance", danceHandler.AdminList)
				r.Patch("/dance", danceHandler.UpdateStatus)
			})
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteError(w, r, errors.NewNotFoundError("Endpoint not found"))
	})

	log.Info("Router configured successfully")
	return r
}
