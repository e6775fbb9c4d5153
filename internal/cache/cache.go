// Package cache provides storage for computed diff results keyed by
// version pair and options fingerprint.
package cache

import (
	"context"
	"errors"
	"time"

	"github.com/vyrodovalexey/avjsondiff/internal/config"
	"github.com/vyrodovalexey/avjsondiff/internal/observability"
)

// Common cache errors.
var (
	// ErrCacheMiss indicates that the key was not found in the cache.
	ErrCacheMiss = errors.New("cache miss")

	// ErrCacheDisabled indicates that caching is disabled.
	ErrCacheDisabled = errors.New("cache disabled")

	// ErrInvalidConfig indicates that the cache configuration is invalid.
	ErrInvalidConfig = errors.New("invalid cache configuration")
)

// Cache is the main interface for caching serialized diff results.
type Cache interface {
	// Get retrieves a value from the cache.
	// Returns ErrCacheMiss if the key is not found.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a value in the cache with the given TTL.
	// A TTL of 0 means the backend default applies.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes a value from the cache.
	Delete(ctx context.Context, key string) error

	// Close closes the cache connection.
	Close() error
}

// CacheWithStats extends Cache with statistics.
type CacheWithStats interface {
	Cache

	// Stats returns cache statistics.
	Stats() CacheStats
}

// CacheStats contains cache statistics.
type CacheStats struct {
	// Hits is the number of cache hits.
	Hits int64

	// Misses is the number of cache misses.
	Misses int64

	// Size is the current number of entries in the cache.
	Size int64
}

// HitRate returns the cache hit rate as a percentage.
func (s CacheStats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total) * 100
}

// New creates a new cache based on the configuration.
func New(cfg *config.CacheConfig, logger observability.Logger) (Cache, error) {
	if cfg == nil {
		return nil, ErrInvalidConfig
	}

	if !cfg.Enabled {
		return newDisabledCache(), nil
	}

	if logger == nil {
		logger = observability.NopLogger()
	}

	switch cfg.Type {
	case config.CacheTypeMemory, "":
		return newMemoryCache(cfg, logger)
	case config.CacheTypeRedis:
		return newRedisCache(cfg, logger)
	default:
		return nil, errors.New("unknown cache type: " + cfg.Type)
	}
}

// disabledCache is a cache that always returns ErrCacheDisabled.
type disabledCache struct{}

func newDisabledCache() Cache {
	return &disabledCache{}
}

func (c *disabledCache) Get(_ context.Context, _ string) ([]byte, error) {
	return nil, ErrCacheDisabled
}

func (c *disabledCache) Set(_ context.Context, _ string, _ []byte, _ time.Duration) error {
	return ErrCacheDisabled
}

func (c *disabledCache) Delete(_ context.Context, _ string) error {
	return ErrCacheDisabled
}

func (c *disabledCache) Close() error {
	return nil
}
