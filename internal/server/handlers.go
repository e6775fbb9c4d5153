package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vyrodovalexey/avjsondiff/internal/cache"
	"github.com/vyrodovalexey/avjsondiff/internal/delta"
	"github.com/vyrodovalexey/avjsondiff/internal/engine"
	"github.com/vyrodovalexey/avjsondiff/internal/jobqueue"
	"github.com/vyrodovalexey/avjsondiff/internal/observability"
	"github.com/vyrodovalexey/avjsondiff/internal/util"
)

// statusClientClosedRequest mirrors the nginx convention for requests
// abandoned by the client.
const statusClientClosedRequest = 499

// Handler holds the dependencies of the HTTP API.
type Handler struct {
	engine  *engine.Engine
	queue   *jobqueue.Queue
	results *cache.ResultStore
	metrics *observability.Metrics
	logger  observability.Logger
}

// NewHandler creates an API handler. The result store and metrics may
// be nil; caching and request metrics are then skipped.
func NewHandler(
	eng *engine.Engine,
	queue *jobqueue.Queue,
	results *cache.ResultStore,
	metrics *observability.Metrics,
	logger observability.Logger,
) *Handler {
	if logger == nil {
		logger = observability.NopLogger()
	}
	return &Handler{
		engine:  eng,
		queue:   queue,
		results: results,
		metrics: metrics,
		logger:  logger,
	}
}

// Register mounts all routes on the engine.
func (h *Handler) Register(r *gin.Engine) {
	v1 := r.Group("/v1")
	{
		v1.POST("/diff", h.computeDiff)
		v1.POST("/diff/analyze", h.analyzeArray)
		v1.POST("/jobs", h.submitJob)
		v1.GET("/jobs/:id", h.jobStatus)
		v1.DELETE("/jobs/:id", h.cancelJob)
		v1.GET("/queue/stats", h.queueStats)
	}

	r.GET("/healthz", h.healthz)
	if h.metrics != nil {
		r.GET("/metrics", gin.WrapH(h.metrics.Handler()))
	}
}

// VersionInput is the wire form of one document version. An omitted ID
// gets generated server-side.
type VersionInput struct {
	ID      string      `json:"id"`
	Label   string      `json:"label"`
	Source  string      `json:"source"`
	Payload interface{} `json:"payload"`
}

func (in VersionInput) toVersion() engine.Version {
	v := engine.NewVersion(in.Label, in.Source, in.Payload)
	if in.ID != "" {
		v.ID = in.ID
	}
	return v
}

// DiffRequest is the request body for both synchronous diffs and job
// submission.
type DiffRequest struct {
	VersionA VersionInput   `json:"versionA" binding:"required"`
	VersionB VersionInput   `json:"versionB" binding:"required"`
	Options  engine.Options `json:"options"`
}

// computeDiff handles POST /v1/diff: synchronous computation with
// result caching.
func (h *Handler) computeDiff(c *gin.Context) {
	var req DiffRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	issues, err := h.engine.ValidateOptions(req.Options)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if len(issues) > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid rules", "issues": issues})
		return
	}

	a := req.VersionA.toVersion()
	b := req.VersionB.toVersion()

	// Cache hits require caller-supplied version IDs: a generated ID is
	// new on every request and can never match.
	optionsKey := engine.OptionsKey(req.Options)
	if h.results != nil && req.VersionA.ID != "" && req.VersionB.ID != "" {
		if result, ok := h.results.Get(c.Request.Context(), a.ID, b.ID, optionsKey); ok {
			c.JSON(http.StatusOK, gin.H{"result": result, "cached": true})
			return
		}
	}

	result, err := h.engine.ComputeDiff(c.Request.Context(), a, b, req.Options)
	if err != nil {
		h.writeComputeError(c, err)
		return
	}

	if h.results != nil && req.VersionA.ID != "" && req.VersionB.ID != "" {
		h.results.Put(c.Request.Context(), result)
	}

	c.JSON(http.StatusOK, gin.H{"result": result, "cached": false})
}

// AnalyzeRequest is the request body for array strategy analysis.
type AnalyzeRequest struct {
	Array []interface{} `json:"array"`
}

// analyzeArray handles POST /v1/diff/analyze: suggests an array
// correspondence strategy for a sample array.
func (h *Handler) analyzeArray(c *gin.Context) {
	var req AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"suggestion": delta.Analyze(req.Array)})
}

// submitJob handles POST /v1/jobs: asynchronous diff computation.
func (h *Handler) submitJob(c *gin.Context) {
	var req DiffRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	issues, err := h.engine.ValidateOptions(req.Options)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if len(issues) > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid rules", "issues": issues})
		return
	}

	id, err := h.queue.Submit(req.VersionA.toVersion(), req.VersionB.toVersion(), req.Options, nil)
	if err != nil {
		switch {
		case errors.Is(err, jobqueue.ErrQueueFull):
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "job queue full"})
		case errors.Is(err, jobqueue.ErrQueueClosed):
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "job queue closed"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"id": id, "status": jobqueue.StatusPending})
}

// jobStatus handles GET /v1/jobs/:id.
func (h *Handler) jobStatus(c *gin.Context) {
	status, ok := h.queue.Status(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "job not found"})
		return
	}

	c.JSON(http.StatusOK, status)
}

// cancelJob handles DELETE /v1/jobs/:id. Cancelling a terminal job is a
// conflict, not an error.
func (h *Handler) cancelJob(c *gin.Context) {
	id := c.Param("id")

	if h.queue.Cancel(id) {
		c.JSON(http.StatusAccepted, gin.H{"id": id, "status": jobqueue.StatusCancelled})
		return
	}

	status, ok := h.queue.Status(id)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "job not found"})
		return
	}

	c.JSON(http.StatusConflict, gin.H{
		"error":  "job already terminal",
		"status": status.Status,
	})
}

// queueStats handles GET /v1/queue/stats.
func (h *Handler) queueStats(c *gin.Context) {
	c.JSON(http.StatusOK, h.queue.Stats())
}

// healthz handles GET /healthz.
func (h *Handler) healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// writeComputeError maps pipeline errors to HTTP status codes.
func (h *Handler) writeComputeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, util.ErrCancelled):
		c.JSON(statusClientClosedRequest, gin.H{"error": "computation cancelled"})
	case errors.Is(err, util.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		h.logger.Error("diff computation failed",
			observability.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "diff computation failed"})
	}
}
