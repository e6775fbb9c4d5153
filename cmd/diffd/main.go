// Package main is the entry point for the diff service daemon.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/vyrodovalexey/avjsondiff/internal/cache"
	"github.com/vyrodovalexey/avjsondiff/internal/config"
	"github.com/vyrodovalexey/avjsondiff/internal/engine"
	"github.com/vyrodovalexey/avjsondiff/internal/jobqueue"
	"github.com/vyrodovalexey/avjsondiff/internal/observability"
	"github.com/vyrodovalexey/avjsondiff/internal/server"
	"github.com/vyrodovalexey/avjsondiff/internal/tree"
)

// Version information (set at build time).
var (
	version   = "dev"
	buildTime = "unknown"
	gitCommit = "unknown"
)

// cliFlags holds command line flags.
type cliFlags struct {
	configPath  string
	logLevel    string
	logFormat   string
	showVersion bool
}

func main() {
	flags := parseFlags()

	if flags.showVersion {
		printVersion()
		return
	}

	logger := initLogger(flags)
	defer func() { _ = logger.Sync() }()

	cfg := loadAndValidateConfig(flags.configPath, logger)
	app := initApplication(cfg, logger)

	runService(app, flags.configPath, logger)
}

// parseFlags parses command line flags.
func parseFlags() cliFlags {
	configPath := flag.String("config", getEnvOrDefault("DIFFD_CONFIG_PATH", "configs/diffd.yaml"),
		"Path to configuration file")
	logLevel := flag.String("log-level", getEnvOrDefault("DIFFD_LOG_LEVEL", "info"),
		"Log level (debug, info, warn, error)")
	logFormat := flag.String("log-format", getEnvOrDefault("DIFFD_LOG_FORMAT", "json"),
		"Log format (json, console)")
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Parse()

	return cliFlags{
		configPath:  *configPath,
		logLevel:    *logLevel,
		logFormat:   *logFormat,
		showVersion: *showVersion,
	}
}

// printVersion prints version information and exits.
func printVersion() {
	fmt.Printf("avjsondiff version %s\n", version)
	fmt.Printf("  Build time: %s\n", buildTime)
	fmt.Printf("  Git commit: %s\n", gitCommit)
}

// initLogger initializes the logger.
func initLogger(flags cliFlags) observability.Logger {
	logger, err := observability.NewLogger(observability.LogConfig{
		Level:  flags.logLevel,
		Format: flags.logFormat,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	observability.SetGlobalLogger(logger)
	return logger
}

// loadAndValidateConfig loads and validates the configuration. A
// missing config file is not fatal; defaults apply.
func loadAndValidateConfig(configPath string, logger observability.Logger) *config.ServiceConfig {
	logger.Info("starting avjsondiff",
		observability.String("version", version),
		observability.String("config", configPath),
	)

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logger.Warn("config file not found, using defaults",
				observability.String("config", configPath))
			return config.DefaultConfig()
		}
		logger.Fatal("failed to load configuration", observability.Error(err))
	}

	if err := config.ValidateConfig(cfg); err != nil {
		logger.Fatal("invalid configuration", observability.Error(err))
	}

	logger.Info("configuration loaded",
		observability.Int("port", cfg.Server.Port),
		observability.Int("maxConcurrentJobs", cfg.Queue.MaxConcurrentJobs),
		observability.String("cacheType", cfg.Cache.Type),
		observability.Bool("cacheEnabled", cfg.Cache.Enabled),
	)

	return cfg
}

// application holds all application components.
type application struct {
	server  *server.Server
	queue   *jobqueue.Queue
	cache   cache.Cache
	metrics *observability.Metrics
	tracer  *observability.Tracer
	config  *config.ServiceConfig
}

// initApplication initializes all application components.
func initApplication(cfg *config.ServiceConfig, logger observability.Logger) *application {
	metrics := observability.NewMetrics(cfg.Observability.Metrics.Namespace)
	metrics.SetBuildInfo(version, gitCommit, buildTime)
	tracer := initTracer(cfg, logger)

	cacheMetrics := cache.GetCacheMetrics()
	cacheMetrics.Init()
	cacheMetrics.MustRegister(metrics.Registry())

	eng := engine.New(
		engine.WithLogger(logger),
		engine.WithMetrics(metrics),
		engine.WithBuilder(tree.NewBuilderWithThreshold(cfg.Diff.TruncateThreshold)),
	)

	queue := jobqueue.New(eng, jobqueue.Config{
		MaxConcurrentJobs:    cfg.Queue.MaxConcurrentJobs,
		MaxQueueSize:         cfg.Queue.MaxQueueSize,
		InlineThresholdBytes: cfg.Queue.InlineThresholdBytes,
		RetainTerminal:       cfg.Queue.RetainTerminal.Duration(),
	},
		jobqueue.WithQueueLogger(logger),
		jobqueue.WithQueueMetrics(metrics),
	)

	resultCache, err := cache.New(&cfg.Cache, logger)
	if err != nil {
		logger.Fatal("failed to initialize cache", observability.Error(err))
	}

	var results *cache.ResultStore
	if cfg.Cache.Enabled {
		results = cache.NewResultStore(resultCache, logger, cfg.Cache.TTL.Duration())
	}

	handler := server.NewHandler(eng, queue, results, metrics, logger)
	srv := server.New(cfg.Server, handler, logger, cfg.RateLimit)

	return &application{
		server:  srv,
		queue:   queue,
		cache:   resultCache,
		metrics: metrics,
		tracer:  tracer,
		config:  cfg,
	}
}

// initTracer initializes the tracer.
func initTracer(cfg *config.ServiceConfig, logger observability.Logger) *observability.Tracer {
	tracer, err := observability.NewTracer(observability.TracerConfig{
		ServiceName:  "avjsondiff",
		Enabled:      cfg.Observability.Tracing.Enabled,
		OTLPEndpoint: cfg.Observability.Tracing.OTLPEndpoint,
		SamplingRate: cfg.Observability.Tracing.SamplingRate,
	})
	if err != nil {
		logger.Fatal("failed to initialize tracer", observability.Error(err))
	}

	return tracer
}

// runService runs the HTTP server and handles shutdown.
func runService(app *application, configPath string, logger observability.Logger) {
	errCh := make(chan error, 1)
	go func() {
		errCh <- app.server.Start(context.Background())
	}()

	watcher := startConfigWatcher(configPath, logger)

	waitForShutdown(app, watcher, errCh, logger)
}

// startConfigWatcher starts the configuration watcher. Runtime settings
// cannot change while the service runs; the watcher validates edits
// early so a later restart does not fail on a broken file.
func startConfigWatcher(configPath string, logger observability.Logger) *config.Watcher {
	watcher, err := config.NewWatcher(configPath, func(newCfg *config.ServiceConfig) {
		logger.Info("configuration file changed and validated, restart to apply",
			observability.Int("port", newCfg.Server.Port),
			observability.Int("maxConcurrentJobs", newCfg.Queue.MaxConcurrentJobs),
		)
	}, config.WithLogger(logger))

	if err != nil {
		logger.Warn("failed to create config watcher", observability.Error(err))
		return nil
	}

	if err := watcher.Start(context.Background()); err != nil {
		logger.Warn("failed to start config watcher", observability.Error(err))
	}

	return watcher
}

// waitForShutdown waits for a shutdown signal or a server failure and
// performs graceful shutdown.
func waitForShutdown(
	app *application,
	watcher *config.Watcher,
	errCh <-chan error,
	logger observability.Logger,
) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("received shutdown signal", observability.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil {
			logger.Error("server failed", observability.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if watcher != nil {
		_ = watcher.Stop()
	}

	if err := app.server.Stop(shutdownCtx); err != nil {
		logger.Error("failed to stop server gracefully", observability.Error(err))
	}

	app.queue.Close()

	if err := app.cache.Close(); err != nil {
		logger.Error("failed to close cache", observability.Error(err))
	}

	if err := app.tracer.Shutdown(shutdownCtx); err != nil {
		logger.Error("failed to shutdown tracer", observability.Error(err))
	}

	logger.Info("diff service stopped")
}

// getEnvOrDefault returns the environment variable value or a default.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
