package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/vyrodovalexey/avjsondiff/internal/engine"
	"github.com/vyrodovalexey/avjsondiff/internal/observability"
)

// ResultStore wraps a byte-level Cache with typed access to computed
// diff results. Keys combine both version identifiers with the options
// fingerprint, so any change to either document or to the diff options
// addresses a different entry.
type ResultStore struct {
	cache  Cache
	logger observability.Logger
	ttl    time.Duration
}

// NewResultStore creates a result store over the given cache.
func NewResultStore(c Cache, logger observability.Logger, ttl time.Duration) *ResultStore {
	if logger == nil {
		logger = observability.NopLogger()
	}
	return &ResultStore{cache: c, logger: logger, ttl: ttl}
}

// Get looks up a previously computed result. The second return value is
// false on a miss. Cache failures are treated as misses so computation
// never depends on cache health.
func (s *ResultStore) Get(ctx context.Context, versionA, versionB, optionsKey string) (*engine.Result, bool) {
	key := engine.ResultKey(versionA, versionB, optionsKey)

	data, err := s.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, ErrCacheMiss) && !errors.Is(err, ErrCacheDisabled) {
			s.logger.Warn("result cache lookup failed",
				observability.String("key", key),
				observability.Error(err))
		}
		return nil, false
	}

	var result engine.Result
	if err := json.Unmarshal(data, &result); err != nil {
		s.logger.Warn("result cache entry corrupt, dropping",
			observability.String("key", key),
			observability.Error(err))
		_ = s.cache.Delete(ctx, key)
		return nil, false
	}

	return &result, true
}

// Put stores a computed result. Failures are logged and swallowed; a
// cold cache only costs recomputation.
func (s *ResultStore) Put(ctx context.Context, result *engine.Result) {
	if result == nil {
		return
	}

	data, err := json.Marshal(result)
	if err != nil {
		s.logger.Warn("result cache encode failed",
			observability.Error(err))
		return
	}

	key := engine.ResultKey(result.VersionA, result.VersionB, result.OptionsKey)
	if err := s.cache.Set(ctx, key, data, s.ttl); err != nil &&
		!errors.Is(err, ErrCacheDisabled) {
		s.logger.Warn("result cache store failed",
			observability.String("key", key),
			observability.Error(err))
	}
}

// Invalidate removes a stored result.
func (s *ResultStore) Invalidate(ctx context.Context, versionA, versionB, optionsKey string) {
	key := engine.ResultKey(versionA, versionB, optionsKey)
	_ = s.cache.Delete(ctx, key)
}
