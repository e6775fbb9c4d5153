package cache

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vyrodovalexey/avjsondiff/internal/config"
	"github.com/vyrodovalexey/avjsondiff/internal/observability"
)

// redisKeyPrefix namespaces all keys written by this service.
const redisKeyPrefix = "avjsondiff:"

// redisCache implements a Redis-based cache.
type redisCache struct {
	logger     observability.Logger
	client     *redis.Client
	defaultTTL time.Duration

	hits   int64
	misses int64
}

// newRedisCache creates a new Redis cache from configuration.
func newRedisCache(cfg *config.CacheConfig, logger observability.Logger) (*redisCache, error) {
	if cfg.Redis == nil {
		return nil, errors.New("redis configuration is required")
	}
	if cfg.Redis.Address == "" {
		return nil, errors.New("redis address is required")
	}

	opts := &redis.Options{
		Addr:     cfg.Redis.Address,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}
	if cfg.Redis.PoolSize > 0 {
		opts.PoolSize = cfg.Redis.PoolSize
	}
	if cfg.Redis.DialTimeout > 0 {
		opts.DialTimeout = cfg.Redis.DialTimeout.Duration()
	}
	if cfg.Redis.ReadTimeout > 0 {
		opts.ReadTimeout = cfg.Redis.ReadTimeout.Duration()
	}
	if cfg.Redis.WriteTimeout > 0 {
		opts.WriteTimeout = cfg.Redis.WriteTimeout.Duration()
	}

	client := redis.NewClient(opts)

	if err := pingRedis(client); err != nil {
		_ = client.Close()
		return nil, errors.New("redis connection failed: " + err.Error())
	}

	c := &redisCache{
		logger:     logger,
		client:     client,
		defaultTTL: cfg.TTL.Duration(),
	}

	logger.Info("redis cache initialized",
		observability.String("address", cfg.Redis.Address),
		observability.Duration("defaultTTL", c.defaultTTL))

	return c, nil
}

// pingRedis tests the Redis connection with a timeout.
func pingRedis(client *redis.Client) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return client.Ping(ctx).Err()
}

// resolveKey applies the service key prefix.
func (c *redisCache) resolveKey(key string) string {
	return redisKeyPrefix + key
}

// Get retrieves a value from the cache.
func (c *redisCache) Get(ctx context.Context, key string) ([]byte, error) {
	ctx, span := otel.Tracer(cacheTracerName).Start(ctx, "cache.Get",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("cache.backend", "redis"),
			attribute.String("cache.key", key),
		),
	)
	defer span.End()

	start := time.Now()
	defer func() {
		GetCacheMetrics().operationDuration.WithLabelValues(
			"redis", "get",
		).Observe(time.Since(start).Seconds())
	}()

	val, err := c.client.Get(ctx, c.resolveKey(key)).Bytes()
	if err == nil {
		atomic.AddInt64(&c.hits, 1)
		GetCacheMetrics().hitsTotal.WithLabelValues("redis").Inc()
		span.SetAttributes(
			attribute.Bool("cache.hit", true),
			attribute.Int("cache.value_size", len(val)),
		)
		c.logger.Debug("cache hit",
			observability.String("key", key),
			observability.Int("size", len(val)))
		return val, nil
	}

	if errors.Is(err, redis.Nil) {
		atomic.AddInt64(&c.misses, 1)
		GetCacheMetrics().missesTotal.WithLabelValues("redis").Inc()
		span.SetAttributes(attribute.Bool("cache.hit", false))
		return nil, ErrCacheMiss
	}

	GetCacheMetrics().errorsTotal.WithLabelValues("redis", "get").Inc()
	span.SetStatus(codes.Error, err.Error())
	span.RecordError(err)
	c.logger.Error("redis get failed",
		observability.String("key", key),
		observability.Error(err))
	return nil, err
}

// Set stores a value in the cache.
func (c *redisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	ctx, span := otel.Tracer(cacheTracerName).Start(ctx, "cache.Set",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("cache.backend", "redis"),
			attribute.String("cache.key", key),
			attribute.Int("cache.value_size", len(value)),
		),
	)
	defer span.End()

	start := time.Now()
	defer func() {
		GetCacheMetrics().operationDuration.WithLabelValues(
			"redis", "set",
		).Observe(time.Since(start).Seconds())
	}()

	if ttl == 0 {
		ttl = c.defaultTTL
	}

	err := c.client.Set(ctx, c.resolveKey(key), value, ttl).Err()
	if err == nil {
		c.logger.Debug("cache set",
			observability.String("key", key),
			observability.Duration("ttl", ttl),
			observability.Int("size", len(value)))
		return nil
	}

	GetCacheMetrics().errorsTotal.WithLabelValues("redis", "set").Inc()
	span.SetStatus(codes.Error, err.Error())
	span.RecordError(err)
	c.logger.Error("redis set failed",
		observability.String("key", key),
		observability.Error(err))
	return err
}

// Delete removes a value from the cache.
func (c *redisCache) Delete(ctx context.Context, key string) error {
	ctx, span := otel.Tracer(cacheTracerName).Start(ctx, "cache.Delete",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("cache.backend", "redis"),
			attribute.String("cache.key", key),
		),
	)
	defer span.End()

	start := time.Now()
	defer func() {
		GetCacheMetrics().operationDuration.WithLabelValues(
			"redis", "delete",
		).Observe(time.Since(start).Seconds())
	}()

	err := c.client.Del(ctx, c.resolveKey(key)).Err()
	if err != nil {
		GetCacheMetrics().errorsTotal.WithLabelValues("redis", "delete").Inc()
		span.SetStatus(codes.Error, err.Error())
		span.RecordError(err)
		c.logger.Error("redis delete failed",
			observability.String("key", key),
			observability.Error(err))
		return err
	}

	c.logger.Debug("cache deleted",
		observability.String("key", key))
	return nil
}

// Close closes the Redis connection.
func (c *redisCache) Close() error {
	c.logger.Info("redis cache closing")
	return c.client.Close()
}

// Stats returns cache statistics.
func (c *redisCache) Stats() CacheStats {
	return CacheStats{
		Hits:   atomic.LoadInt64(&c.hits),
		Misses: atomic.LoadInt64(&c.misses),
	}
}
