package server

import (
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/vyrodovalexey/avjsondiff/internal/config"
	"github.com/vyrodovalexey/avjsondiff/internal/observability"
)

// Recovery returns a middleware that converts panics in handlers into
// 500 responses instead of tearing down the connection.
func Recovery(logger observability.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("panic in request handler",
					observability.String("path", c.Request.URL.Path),
					observability.String("method", c.Request.Method),
					observability.String("panic", fmt.Sprintf("%v", r)),
				)
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"error": "internal server error",
				})
			}
		}()
		c.Next()
	}
}

// RequestLogger returns a middleware that logs each request on
// completion.
func RequestLogger(logger observability.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Info("http request",
			observability.String("method", c.Request.Method),
			observability.String("path", c.Request.URL.Path),
			observability.Int("status", c.Writer.Status()),
			observability.Duration("duration", time.Since(start)),
			observability.String("clientIP", c.ClientIP()),
		)
	}
}

// MetricsMiddleware returns a middleware that records per-request
// metrics. The route template is used rather than the raw path so job
// IDs do not explode label cardinality.
func MetricsMiddleware(metrics *observability.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metrics.RecordRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}

// clientLimiters tracks one token bucket per client IP. Entries idle
// past clientTTL are dropped by a periodic sweep.
type clientLimiters struct {
	limit rate.Limit
	burst int

	mu      sync.Mutex
	clients map[string]*clientLimiter
}

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

const (
	clientTTL           = 10 * time.Minute
	clientSweepInterval = time.Minute
)

func newClientLimiters(rps, burst int) *clientLimiters {
	l := &clientLimiters{
		limit:   rate.Limit(rps),
		burst:   burst,
		clients: make(map[string]*clientLimiter),
	}
	go l.sweepLoop()
	return l
}

func (l *clientLimiters) get(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	cl, ok := l.clients[key]
	if !ok {
		cl = &clientLimiter{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.clients[key] = cl
	}
	cl.lastSeen = time.Now()
	return cl.limiter
}

func (l *clientLimiters) sweepLoop() {
	ticker := time.NewTicker(clientSweepInterval)
	defer ticker.Stop()

	for range ticker.C {
		cutoff := time.Now().Add(-clientTTL)
		l.mu.Lock()
		for key, cl := range l.clients {
			if cl.lastSeen.Before(cutoff) {
				delete(l.clients, key)
			}
		}
		l.mu.Unlock()
	}
}

// RateLimitMiddleware returns a middleware that applies per-client rate
// limiting to submission endpoints. Health and metrics endpoints are
// exempt.
func RateLimitMiddleware(cfg config.RateLimitConfig, logger observability.Logger) gin.HandlerFunc {
	limiters := newClientLimiters(cfg.RPS, cfg.Burst)

	return func(c *gin.Context) {
		switch c.Request.URL.Path {
		case "/healthz", "/metrics":
			c.Next()
			return
		}

		limiter := limiters.get(c.ClientIP())
		if !limiter.Allow() {
			logger.Debug("request rate limited",
				observability.String("clientIP", c.ClientIP()),
				observability.String("path", c.Request.URL.Path),
			)
			c.Header("Retry-After", strconv.Itoa(1))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "rate limit exceeded",
			})
			return
		}

		c.Next()
	}
}
