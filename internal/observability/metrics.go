package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the diff service.
type Metrics struct {
	diffsTotal      *prometheus.CounterVec
	diffDuration    *prometheus.HistogramVec
	diffNodes       prometheus.Histogram
	documentSize    prometheus.Histogram
	jobsTotal       *prometheus.CounterVec
	jobsRunning     prometheus.Gauge
	jobsPending     prometheus.Gauge
	backendSelected *prometheus.CounterVec
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	buildInfo       *prometheus.GaugeVec
	startTime       prometheus.Gauge
	registry        *prometheus.Registry
}

// NewMetrics creates a new Metrics instance.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "diffsvc"
	}

	m := &Metrics{
		registry: prometheus.NewRegistry(),
	}

	m.diffsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "diffs_total",
			Help:      "Total number of diff computations",
		},
		[]string{"strategy", "outcome"},
	)

	m.diffDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "diff_duration_seconds",
			Help:      "Diff computation duration in seconds",
			Buckets: []float64{
				.001, .005, .01, .025, .05,
				.1, .25, .5, 1, 2.5, 5, 10,
			},
		},
		[]string{"strategy"},
	)

	m.diffNodes = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "diff_nodes",
			Help:      "Number of nodes in computed diff trees",
			Buckets:   prometheus.ExponentialBuckets(1, 10, 8),
		},
	)

	m.documentSize = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "document_size_bytes",
			Help:      "Combined estimated size of diffed documents in bytes",
			Buckets:   prometheus.ExponentialBuckets(100, 10, 8),
		},
	)

	m.jobsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "jobs_total",
			Help:      "Total number of jobs by terminal status",
		},
		[]string{"status"},
	)

	m.jobsRunning = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "jobs_running",
			Help:      "Number of jobs currently running",
		},
	)

	m.jobsPending = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "jobs_pending",
			Help:      "Number of jobs waiting for a free slot",
		},
	)

	m.backendSelected = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "backend_selections_total",
			Help: "Total number of compute backend " +
				"selections",
		},
		[]string{"backend"},
	)

	m.requestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	m.requestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets: []float64{
				.001, .005, .01, .025, .05,
				.1, .25, .5, 1, 2.5, 5, 10,
			},
		},
		[]string{"method", "route", "status"},
	)

	m.buildInfo = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "build_info",
			Help:      "Build information for the diff service",
		},
		[]string{"version", "commit", "build_time"},
	)

	m.startTime = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "start_time_seconds",
			Help: "Start time of the diff service " +
				"in unix seconds",
		},
	)

	m.registerCollectors()

	m.startTime.SetToCurrentTime()

	return m
}

// registerCollectors registers all metric collectors with the
// Prometheus registry.
func (m *Metrics) registerCollectors() {
	m.registry.MustRegister(
		m.diffsTotal,
		m.diffDuration,
		m.diffNodes,
		m.documentSize,
		m.jobsTotal,
		m.jobsRunning,
		m.jobsPending,
		m.backendSelected,
		m.requestsTotal,
		m.requestDuration,
		m.buildInfo,
		m.startTime,
	)

	m.registry.MustRegister(collectors.NewGoCollector())
	m.registry.MustRegister(
		collectors.NewProcessCollector(
			collectors.ProcessCollectorOpts{},
		),
	)
}

// RecordDiff records a completed diff computation.
func (m *Metrics) RecordDiff(
	strategy, outcome string,
	duration time.Duration,
	nodes int,
) {
	m.diffsTotal.WithLabelValues(strategy, outcome).Inc()
	m.diffDuration.WithLabelValues(strategy).Observe(duration.Seconds())
	m.diffNodes.Observe(float64(nodes))
}

// RecordDocumentSize records the combined estimated document size of a
// submitted computation.
func (m *Metrics) RecordDocumentSize(bytes int64) {
	m.documentSize.Observe(float64(bytes))
}

// RecordJobTerminal records a job reaching a terminal status.
func (m *Metrics) RecordJobTerminal(status string) {
	m.jobsTotal.WithLabelValues(status).Inc()
}

// SetJobsRunning sets the running jobs gauge.
func (m *Metrics) SetJobsRunning(n int) {
	m.jobsRunning.Set(float64(n))
}

// SetJobsPending sets the pending jobs gauge.
func (m *Metrics) SetJobsPending(n int) {
	m.jobsPending.Set(float64(n))
}

// RecordBackendSelection records which compute backend was chosen for a
// computation.
func (m *Metrics) RecordBackendSelection(backend string) {
	m.backendSelected.WithLabelValues(backend).Inc()
}

// RecordRequest records a completed HTTP request.
// The route parameter should be the matched route pattern, not the raw
// request path, to prevent cardinality explosion.
func (m *Metrics) RecordRequest(
	method, route string,
	status int,
	duration time.Duration,
) {
	statusStr := strconv.Itoa(status)

	m.requestsTotal.WithLabelValues(
		method, route, statusStr,
	).Inc()
	m.requestDuration.WithLabelValues(
		method, route, statusStr,
	).Observe(duration.Seconds())
}

// SetBuildInfo sets the build information metric.
func (m *Metrics) SetBuildInfo(
	version, commit, buildTime string,
) {
	m.buildInfo.WithLabelValues(
		version, commit, buildTime,
	).Set(1)
}

// Handler returns an HTTP handler for the metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(
		m.registry,
		promhttp.HandlerOpts{EnableOpenMetrics: true},
	)
}

// Registry returns the Prometheus registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RegisterCollector registers an additional collector with the custom
// registry. It returns an error if the collector is already registered
// or conflicts with an existing one.
func (m *Metrics) RegisterCollector(c prometheus.Collector) error {
	return m.registry.Register(c)
}
