package config

import (
	"fmt"
	"strings"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Path    string
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s", e.Path, e.Message)
	}
	return e.Message
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

// Error implements the error interface.
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	if len(e) == 1 {
		return e[0].Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d validation errors:\n", len(e)))
	for i, err := range e {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return sb.String()
}

// HasErrors returns true if there are validation errors.
func (e ValidationErrors) HasErrors() bool {
	return len(e) > 0
}

// Validator validates service configuration.
type Validator struct {
	errors ValidationErrors
}

// NewValidator creates a new configuration validator.
func NewValidator() *Validator {
	return &Validator{
		errors: make(ValidationErrors, 0),
	}
}

// ValidateConfig validates a service configuration.
func ValidateConfig(config *ServiceConfig) error {
	v := NewValidator()
	return v.Validate(config)
}

// Validate validates the configuration and returns any errors.
func (v *Validator) Validate(config *ServiceConfig) error {
	v.errors = make(ValidationErrors, 0)

	if config == nil {
		v.addError("", "configuration is nil")
		return v.errors
	}

	v.validateServer(&config.Server)
	v.validateQueue(&config.Queue)
	v.validateDiff(&config.Diff)
	v.validateCache(&config.Cache)
	v.validateRateLimit(&config.RateLimit)
	v.validateObservability(&config.Observability)

	if v.errors.HasErrors() {
		return v.errors
	}
	return nil
}

// validateServer validates the HTTP server settings.
func (v *Validator) validateServer(server *ServerConfig) {
	if server.Port < 1 || server.Port > 65535 {
		v.addError("server.port", fmt.Sprintf("port must be between 1 and 65535, got %d", server.Port))
	}
	if server.MaxRequestBody <= 0 {
		v.addError("server.maxRequestBody", "maxRequestBody must be positive")
	}
	if server.ReadTimeout < 0 {
		v.addError("server.readTimeout", "readTimeout must not be negative")
	}
	if server.WriteTimeout < 0 {
		v.addError("server.writeTimeout", "writeTimeout must not be negative")
	}
}

// validateQueue validates the job queue settings.
func (v *Validator) validateQueue(queue *QueueConfig) {
	if queue.MaxConcurrentJobs < 1 {
		v.addError("queue.maxConcurrentJobs", "maxConcurrentJobs must be at least 1")
	}
	if queue.MaxQueueSize < 1 {
		v.addError("queue.maxQueueSize", "maxQueueSize must be at least 1")
	}
	if queue.MaxQueueSize < queue.MaxConcurrentJobs {
		v.addError("queue.maxQueueSize", "maxQueueSize must not be smaller than maxConcurrentJobs")
	}
	if queue.InlineThresholdBytes < 0 {
		v.addError("queue.inlineThresholdBytes", "inlineThresholdBytes must not be negative")
	}
	if queue.RetainTerminal < 0 {
		v.addError("queue.retainTerminal", "retainTerminal must not be negative")
	}
}

// validateDiff validates diff computation settings.
func (v *Validator) validateDiff(diff *DiffConfig) {
	if diff.TruncateThreshold < 1 {
		v.addError("diff.truncateThreshold", "truncateThreshold must be at least 1")
	}
}

// validateCache validates cache settings.
func (v *Validator) validateCache(cache *CacheConfig) {
	if !cache.Enabled {
		return
	}

	switch cache.Type {
	case CacheTypeMemory:
		if cache.MaxEntries < 1 {
			v.addError("cache.maxEntries", "maxEntries must be at least 1")
		}
	case CacheTypeRedis:
		if cache.Redis == nil {
			v.addError("cache.redis", "redis settings are required for redis cache type")
		} else if cache.Redis.Address == "" {
			v.addError("cache.redis.address", "address is required")
		}
	default:
		v.addError("cache.type", fmt.Sprintf("unknown cache type %q", cache.Type))
	}

	if cache.TTL < 0 {
		v.addError("cache.ttl", "ttl must not be negative")
	}
}

// validateRateLimit validates rate limiting settings.
func (v *Validator) validateRateLimit(rl *RateLimitConfig) {
	if !rl.Enabled {
		return
	}
	if rl.RPS < 1 {
		v.addError("rateLimit.rps", "rps must be at least 1")
	}
	if rl.Burst < rl.RPS {
		v.addError("rateLimit.burst", "burst must not be smaller than rps")
	}
}

// validateObservability validates logging, metrics, and tracing settings.
func (v *Validator) validateObservability(obs *ObservabilityConfig) {
	switch obs.LogLevel {
	case "", "debug", "info", "warn", "error":
	default:
		v.addError("observability.logLevel", fmt.Sprintf("unknown log level %q", obs.LogLevel))
	}

	switch obs.LogFormat {
	case "", "json", "console":
	default:
		v.addError("observability.logFormat", fmt.Sprintf("unknown log format %q", obs.LogFormat))
	}

	if obs.Tracing.Enabled {
		if obs.Tracing.OTLPEndpoint == "" {
			v.addError("observability.tracing.otlpEndpoint", "otlpEndpoint is required when tracing is enabled")
		}
		if obs.Tracing.SamplingRate < 0 || obs.Tracing.SamplingRate > 1 {
			v.addError("observability.tracing.samplingRate", "samplingRate must be between 0 and 1")
		}
	}
}

// addError adds a validation error.
func (v *Validator) addError(path, message string) {
	v.errors = append(v.errors, ValidationError{Path: path, Message: message})
}
