package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"fest-backend/internal/domain"
	"fest-backend/pkg/redis"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// CacheService provides cache-aside reads for the event catalog. A nil
// Redis client disables caching and every read goes to the fallback.
type CacheService struct {
	redis  *redis.Client
	logger *zap.Logger
}

// NewCacheService creates a new cache service
func NewCacheService(redisClient *redis.Client, logger *zap.Logger) *CacheService {
	return &CacheService{
		redis:  redisClient,
		logger: logger,
	}
}

// GetLiveEventsWithCache retrieves the live catalog with cache-aside pattern
func (c *CacheService) GetLiveEventsWithCache(ctx context.Context, dbFallback func(ctx context.Context) ([]*domain.Event, error)) ([]*domain.Event, error) {
	if c.redis == nil {
		return dbFallback(ctx)
	}
	cacheKey := c.redis.KeyBuilder.KeyEventsLive()

	var events []*domain.Event
	if c.readJSON(ctx, cacheKey, &events) {
		c.logger.Debug("Live events cache hit", zap.Int("count", len(events)))
		return events, nil
	}

	c.logger.Debug("Live events cache miss")
	events, err := dbFallback(ctx)
	if err != nil {
		return nil, fmt.Errorf("database fallback failed: %w", err)
	}

	c.writeJSON(ctx, cacheKey, events, redis.TTLEventsLive)
	return events, nil
}

// GetEventWithCache retrieves one event by slug with cache-aside pattern
func (c *CacheService) GetEventWithCache(ctx context.Context, slug string, dbFallback func(ctx context.Context, slug string) (*domain.Event, error)) (*domain.Event, error) {
	if c.redis == nil {
		return dbFallback(ctx, slug)
	}
	cacheKey := c.redis.KeyBuilder.KeyEventBySlug(slug)

	var event domain.Event
	if c.readJSON(ctx, cacheKey, &event) {
		c.logger.Debug("Event cache hit", zap.String("event_id", slug))
		return &event, nil
	}

	c.logger.Debug("Event cache miss", zap.String("event_id", slug))
	found, err := dbFallback(ctx, slug)
	if err != nil {
		return nil, fmt.Errorf("database fallback failed: %w", err)
	}

	// Missing events are not cached so a newly created slug shows up at once
	if found != nil {
		c.writeJSON(ctx, cacheKey, found, redis.TTLEventBySlug)
	}
	return found, nil
}

// InvalidateEventCaches drops the live list and the given per-event entries
func (c *CacheService) InvalidateEventCaches(ctx context.Context, slugs ...string) {
	if c.redis == nil {
		return
	}

	keys := []string{c.redis.KeyBuilder.KeyEventsLive()}
	for _, slug := range slugs {
		keys = append(keys, c.redis.KeyBuilder.KeyEventBySlug(slug))
	}

	if err := c.redis.Delete(ctx, keys...); err != nil {
		c.logger.Error("Failed to invalidate event cache keys",
			zap.Strings("keys", keys),
			zap.Error(err))
		return
	}
	c.logger.Debug("Event caches invalidated", zap.Int("keys", len(keys)))
}

// HealthCheck performs a health check on the cache system
func (c *CacheService) HealthCheck(ctx context.Context) error {
	if c.redis == nil {
		return nil
	}

	start := time.Now()
	err := c.redis.Health(ctx)
	duration := time.Since(start)

	if err != nil {
		c.logger.Error("Cache health check failed",
			zap.Duration("duration", duration),
			zap.Error(err))
		return err
	}

	c.logger.Debug("Cache health check passed", zap.Duration("duration", duration))
	return nil
}

// readJSON loads key into dst, reporting whether it was a usable hit
func (c *CacheService) readJSON(ctx context.Context, key string, dst interface{}) bool {
	cached, err := c.redis.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, goredis.Nil) {
			c.logger.Warn("Cache error, falling back to database",
				zap.String("key", key),
				zap.Error(err))
		}
		return false
	}
	if err := json.Unmarshal([]byte(cached), dst); err != nil {
		c.logger.Warn("Cache corrupted, falling back to database",
			zap.String("key", key),
			zap.Error(err))
		return false
	}
	return true
}

func (c *CacheService) writeJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) {
	data, err := json.Marshal(value)
	if err != nil {
		c.logger.Error("Failed to marshal value for caching",
			zap.String("key", key),
			zap.Error(err))
		return
	}
	if err := c.redis.Set(ctx, key, string(data), ttl); err != nil {
		c.logger.Error("Failed to cache value",
			zap.String("key", key),
			zap.Error(err))
	}
}
