// Package config provides configuration loading and validation for the
// diff service.
package config

import "time"

// ServiceConfig is the root configuration for the diff service.
type ServiceConfig struct {
	Server        ServerConfig        `yaml:"server"`
	Queue         QueueConfig         `yaml:"queue"`
	Diff          DiffConfig          `yaml:"diff"`
	Cache         CacheConfig         `yaml:"cache"`
	RateLimit     RateLimitConfig     `yaml:"rateLimit"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Address        string   `yaml:"address"`
	Port           int      `yaml:"port"`
	ReadTimeout    Duration `yaml:"readTimeout"`
	WriteTimeout   Duration `yaml:"writeTimeout"`
	IdleTimeout    Duration `yaml:"idleTimeout"`
	MaxRequestBody int64    `yaml:"maxRequestBody"`
}

// QueueConfig configures the job queue.
type QueueConfig struct {
	// MaxConcurrentJobs is how many jobs may run at once.
	MaxConcurrentJobs int `yaml:"maxConcurrentJobs"`

	// MaxQueueSize caps tracked jobs, pending and terminal included.
	MaxQueueSize int `yaml:"maxQueueSize"`

	// InlineThresholdBytes is the combined document size above which
	// jobs dispatch to the isolated backend.
	InlineThresholdBytes int64 `yaml:"inlineThresholdBytes"`

	// RetainTerminal is how long terminal jobs stay queryable.
	RetainTerminal Duration `yaml:"retainTerminal"`
}

// DiffConfig configures diff computation defaults.
type DiffConfig struct {
	// TruncateThreshold is the child count above which nodes are tagged
	// as truncated for rendering.
	TruncateThreshold int `yaml:"truncateThreshold"`
}

// Cache backend types.
const (
	CacheTypeMemory = "memory"
	CacheTypeRedis  = "redis"
)

// CacheConfig configures the diff result cache.
type CacheConfig struct {
	Enabled    bool         `yaml:"enabled"`
	Type       string       `yaml:"type"`
	TTL        Duration     `yaml:"ttl"`
	MaxEntries int          `yaml:"maxEntries"`
	Redis      *RedisConfig `yaml:"redis,omitempty"`
}

// RedisConfig configures the Redis cache backend.
type RedisConfig struct {
	Address      string   `yaml:"address"`
	Password     string   `yaml:"password"`
	DB           int      `yaml:"db"`
	DialTimeout  Duration `yaml:"dialTimeout"`
	ReadTimeout  Duration `yaml:"readTimeout"`
	WriteTimeout Duration `yaml:"writeTimeout"`
	PoolSize     int      `yaml:"poolSize"`
}

// RateLimitConfig configures submission rate limiting on the HTTP
// surface.
type RateLimitConfig struct {
	Enabled bool `yaml:"enabled"`
	RPS     int  `yaml:"rps"`
	Burst   int  `yaml:"burst"`
}

// ObservabilityConfig configures logging, metrics, and tracing.
type ObservabilityConfig struct {
	LogLevel  string        `yaml:"logLevel"`
	LogFormat string        `yaml:"logFormat"`
	Metrics   MetricsConfig `yaml:"metrics"`
	Tracing   TracingConfig `yaml:"tracing"`
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Namespace string `yaml:"namespace"`
}

// TracingConfig configures OpenTelemetry tracing.
type TracingConfig struct {
	Enabled      bool    `yaml:"enabled"`
	OTLPEndpoint string  `yaml:"otlpEndpoint"`
	SamplingRate float64 `yaml:"samplingRate"`
}

// DefaultConfig returns a ServiceConfig with default values.
func DefaultConfig() *ServiceConfig {
	return &ServiceConfig{
		Server: ServerConfig{
			Port:           8080,
			ReadTimeout:    Duration(30 * time.Second),
			WriteTimeout:   Duration(30 * time.Second),
			IdleTimeout:    Duration(120 * time.Second),
			MaxRequestBody: 10 << 20,
		},
		Queue: QueueConfig{
			MaxConcurrentJobs:    2,
			MaxQueueSize:         100,
			InlineThresholdBytes: 1 << 20,
			RetainTerminal:       Duration(30 * time.Second),
		},
		Diff: DiffConfig{
			TruncateThreshold: 100,
		},
		Cache: CacheConfig{
			Enabled:    true,
			Type:       CacheTypeMemory,
			TTL:        Duration(5 * time.Minute),
			MaxEntries: 10000,
		},
		RateLimit: RateLimitConfig{
			Enabled: false,
			RPS:     50,
			Burst:   100,
		},
		Observability: ObservabilityConfig{
			LogLevel:  "info",
			LogFormat: "json",
			Metrics: MetricsConfig{
				Enabled:   true,
				Namespace: "diffsvc",
			},
			Tracing: TracingConfig{
				Enabled:      false,
				SamplingRate: 1.0,
			},
		},
	}
}
