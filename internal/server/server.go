// Package server provides the HTTP API for the diff service.
package server

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"

	"github.com/vyrodovalexey/avjsondiff/internal/config"
	"github.com/vyrodovalexey/avjsondiff/internal/observability"
)

// ginModeOnce ensures gin.SetMode is only called once to avoid race
// conditions.
var ginModeOnce sync.Once

// Server wraps the gin engine and the underlying http.Server with a
// managed lifecycle.
type Server struct {
	engine     *gin.Engine
	httpServer *http.Server
	logger     observability.Logger
	cfg        config.ServerConfig
	mu         sync.RWMutex
	running    bool
}

// New creates an HTTP server and mounts the handler's routes.
func New(cfg config.ServerConfig, handler *Handler, logger observability.Logger, rl config.RateLimitConfig) *Server {
	if logger == nil {
		logger = observability.NopLogger()
	}

	ginModeOnce.Do(func() {
		gin.SetMode(gin.ReleaseMode)
	})

	engine := gin.New()

	s := &Server{
		engine: engine,
		logger: logger,
		cfg:    cfg,
	}

	engine.Use(Recovery(logger))
	engine.Use(RequestLogger(logger))
	if handler.metrics != nil {
		engine.Use(MetricsMiddleware(handler.metrics))
	}
	if cfg.MaxRequestBody > 0 {
		engine.Use(maxRequestBodyMiddleware(cfg.MaxRequestBody))
	}
	if rl.Enabled {
		engine.Use(RateLimitMiddleware(rl, logger))
	}

	handler.Register(engine)

	return s
}

// maxRequestBodyMiddleware limits request body size.
func maxRequestBodyMiddleware(limit int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		c.Next()
	}
}

// Engine returns the underlying gin engine, used in tests.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("server already running")
	}

	addr := fmt.Sprintf("%s:%d", s.cfg.Address, s.cfg.Port)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.engine,
		ReadTimeout:  s.cfg.ReadTimeout.Duration(),
		WriteTimeout: s.cfg.WriteTimeout.Duration(),
		IdleTimeout:  s.cfg.IdleTimeout.Duration(),
	}

	s.running = true
	s.mu.Unlock()

	s.logger.Info("starting HTTP server",
		observability.String("address", addr),
		observability.Duration("readTimeout", s.cfg.ReadTimeout.Duration()),
		observability.Duration("writeTimeout", s.cfg.WriteTimeout.Duration()),
	)

	err := s.httpServer.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// Stop stops the HTTP server gracefully.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.mu.Unlock()

	s.logger.Info("stopping HTTP server")

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}

	s.mu.Lock()
	s.running = false
	s.mu.Unlock()

	s.logger.Info("HTTP server stopped")
	return nil
}

// IsRunning returns whether the server is running.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}
