package config

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requireValidationError(t *testing.T, err error, path string) {
	t.Helper()

	require.Error(t, err)
	var errs ValidationErrors
	require.ErrorAs(t, err, &errs)

	for _, e := range errs {
		if e.Path == path {
			return
		}
	}
	t.Fatalf("expected validation error at %q, got: %v", path, err)
}

func TestValidateConfig_Defaults(t *testing.T) {
	assert.NoError(t, ValidateConfig(DefaultConfig()))
}

func TestValidateConfig_Nil(t *testing.T) {
	assert.Error(t, ValidateConfig(nil))
}

func TestValidateConfig_Server(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Server.Port = 0
	requireValidationError(t, ValidateConfig(cfg), "server.port")

	cfg = DefaultConfig()
	cfg.Server.Port = 70000
	requireValidationError(t, ValidateConfig(cfg), "server.port")

	cfg = DefaultConfig()
	cfg.Server.MaxRequestBody = 0
	requireValidationError(t, ValidateConfig(cfg), "server.maxRequestBody")

	cfg = DefaultConfig()
	cfg.Server.ReadTimeout = -1
	requireValidationError(t, ValidateConfig(cfg), "server.readTimeout")
}

func TestValidateConfig_Queue(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Queue.MaxConcurrentJobs = 0
	requireValidationError(t, ValidateConfig(cfg), "queue.maxConcurrentJobs")

	cfg = DefaultConfig()
	cfg.Queue.MaxQueueSize = 0
	requireValidationError(t, ValidateConfig(cfg), "queue.maxQueueSize")

	cfg = DefaultConfig()
	cfg.Queue.MaxConcurrentJobs = 10
	cfg.Queue.MaxQueueSize = 5
	requireValidationError(t, ValidateConfig(cfg), "queue.maxQueueSize")

	cfg = DefaultConfig()
	cfg.Queue.InlineThresholdBytes = -1
	requireValidationError(t, ValidateConfig(cfg), "queue.inlineThresholdBytes")
}

func TestValidateConfig_Diff(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Diff.TruncateThreshold = 0
	requireValidationError(t, ValidateConfig(cfg), "diff.truncateThreshold")
}

func TestValidateConfig_Cache(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Cache.MaxEntries = 0
	requireValidationError(t, ValidateConfig(cfg), "cache.maxEntries")

	cfg = DefaultConfig()
	cfg.Cache.Type = CacheTypeRedis
	requireValidationError(t, ValidateConfig(cfg), "cache.redis")

	cfg = DefaultConfig()
	cfg.Cache.Type = CacheTypeRedis
	cfg.Cache.Redis = &RedisConfig{}
	requireValidationError(t, ValidateConfig(cfg), "cache.redis.address")

	cfg = DefaultConfig()
	cfg.Cache.Type = "memcached"
	requireValidationError(t, ValidateConfig(cfg), "cache.type")

	// Disabled cache skips backend checks.
	cfg = DefaultConfig()
	cfg.Cache.Enabled = false
	cfg.Cache.Type = "memcached"
	assert.NoError(t, ValidateConfig(cfg))
}

func TestValidateConfig_RateLimit(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RateLimit.Enabled = true
	cfg.RateLimit.RPS = 0
	requireValidationError(t, ValidateConfig(cfg), "rateLimit.rps")

	cfg = DefaultConfig()
	cfg.RateLimit.Enabled = true
	cfg.RateLimit.RPS = 100
	cfg.RateLimit.Burst = 10
	requireValidationError(t, ValidateConfig(cfg), "rateLimit.burst")
}

func TestValidateConfig_Observability(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Observability.LogLevel = "verbose"
	requireValidationError(t, ValidateConfig(cfg), "observability.logLevel")

	cfg = DefaultConfig()
	cfg.Observability.LogFormat = "xml"
	requireValidationError(t, ValidateConfig(cfg), "observability.logFormat")

	cfg = DefaultConfig()
	cfg.Observability.Tracing.Enabled = true
	requireValidationError(t, ValidateConfig(cfg), "observability.tracing.otlpEndpoint")

	cfg = DefaultConfig()
	cfg.Observability.Tracing.Enabled = true
	cfg.Observability.Tracing.OTLPEndpoint = "localhost:4317"
	cfg.Observability.Tracing.SamplingRate = 1.5
	requireValidationError(t, ValidateConfig(cfg), "observability.tracing.samplingRate")
}

func TestValidationErrors_Error(t *testing.T) {
	assert.Equal(t, "no validation errors", ValidationErrors{}.Error())

	single := ValidationErrors{{Path: "server.port", Message: "bad"}}
	assert.Equal(t, "server.port: bad", single.Error())

	multi := ValidationErrors{
		{Path: "a", Message: "one"},
		{Path: "b", Message: "two"},
	}
	msg := multi.Error()
	assert.True(t, strings.HasPrefix(msg, "2 validation errors:"))
	assert.Contains(t, msg, "a: one")
	assert.Contains(t, msg, "b: two")
}
