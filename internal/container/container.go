package container

import (
	"context"
	"fmt"

	"fest-backend/internal/config"
	"fest-backend/internal/repository"
	"fest-backend/internal/service"
	"fest-backend/internal/service/auth"
	"fest-backend/internal/service/evidence"
	"fest-backend/internal/service/gateway"
	"fest-backend/pkg/logger"
	"fest-backend/pkg/redis"
)

// Container holds all application dependencies
type Container struct {
	Config       *config.Config
	Logger       *logger.Logger
	RedisClient  *redis.Client
	Repositories *repository.Repositories
	Services     *service.Services
	Sweeper      *service.Sweeper
}

// New creates a new dependency injection container. redisClient may be nil,
// in which case the catalog is read uncached and the payment lock is skipped.
func New(ctx context.Context, cfg *config.Config, logger *logger.Logger, repos *repository.Repositories, redisClient *redis.Client) (*Container, error) {
	if repos == nil {
		return nil, fmt.Errorf("repositories are required")
	}

	var store evidence.Store
	if cfg.Evidence.Enabled() {
		s3Store, err := evidence.NewS3Store(ctx, cfg.Evidence, logger.Logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize evidence store: %w", err)
		}
		store = s3Store
		logger.WithField("bucket", cfg.Evidence.Bucket).Info("Evidence storage initialized")
	} else {
		logger.Info("Evidence bucket not configured, screenshot uploads disabled")
	}

	gw := gateway.NewRazorpay(cfg.RazorpayKeyID, cfg.RazorpayKeySecret, logger.Logger)
	if cfg.RazorpayKeyID == "" {
		logger.Warn("Razorpay credentials not configured, gateway orders disabled")
	}

	authService := auth.NewService(cfg.SessionJWTSecret, cfg.GoogleClientID, logger)
	cache := service.NewCacheService(redisClient, logger.Logger)

	services := &service.Services{
		Auth:         authService,
		Profile:      service.NewProfileService(repos, cfg.AdminEmails, logger),
		Team:         service.NewTeamService(repos, logger),
		Event:        service.NewEventService(repos, cache, logger),
		Registration: service.NewRegistrationService(repos, cfg.PaymentCurrency, logger),
		Payment:      service.NewPaymentService(repos, gw, store, redisClient, logger),
		Channel:      service.NewChannelService(repos, cfg.DanceEventSlug, logger),
		Dance:        service.NewDanceService(repos, logger),
	}

	return &Container{
		Config:       cfg,
		Logger:       logger,
		RedisClient:  redisClient,
		Repositories: repos,
		Services:     services,
		Sweeper:      service.NewSweeper(repos, cfg.PendingPaymentTTL, cfg.SweepInterval, logger),
	}, nil
}

// GetRedisClient returns the Redis client (may be nil if not configured)
func (c *Container) GetRedisClient() *redis.Client {
	return c.RedisClient
}

// HasRedis returns true if Redis client is available
func (c *Container) HasRedis() bool {
	return c.RedisClient != nil
}
