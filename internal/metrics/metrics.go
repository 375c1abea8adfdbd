// Package metrics holds the Prometheus collectors shared across the server.
// Collectors register with the default registry on init and are served from
// /metrics by the API.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Ingest pipeline
	IngestRowsRead = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "dinewise_ingest_rows_read_total",
			Help: "Raw rows read from dataset sources",
		},
	)

	IngestRowsInserted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "dinewise_ingest_rows_inserted_total",
			Help: "Canonical restaurants inserted into the store",
		},
	)

	IngestRowsSkipped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "dinewise_ingest_rows_skipped_total",
			Help: "Rows rejected by the normalizer",
		},
	)

	IngestRowsDuplicate = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "dinewise_ingest_rows_duplicate_total",
			Help: "Rows dropped as duplicates of an earlier restaurant",
		},
	)

	IngestRunDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "dinewise_ingest_run_duration_seconds",
			Help:    "Duration of ingest runs",
			Buckets: []float64{0.1, 0.5, 1, 5, 15, 30, 60, 120, 300},
		},
		[]string{"status"}, // "ok", "error"
	)

	// Recommendations
	RecommendStep = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dinewise_recommend_step_total",
			Help: "Recommendations by the relaxation step that produced the result",
		},
		[]string{"step"},
	)

	RecommendDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "dinewise_recommend_duration_seconds",
			Help:    "End-to-end recommendation latency including the summary",
			Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30},
		},
	)

	// Summarizer
	SummarizerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dinewise_summarizer_requests_total",
			Help: "Summary attempts by outcome",
		},
		[]string{"outcome"}, // "ok", "error", "timeout"
	)

	SummarizerDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "dinewise_summarizer_duration_seconds",
			Help:    "Latency of LLM summary calls",
			Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 20, 30, 60},
		},
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "dinewise_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dinewise_circuit_breaker_requests_total",
			Help: "Requests through the circuit breaker by result",
		},
		[]string{"name", "result"}, // "success", "failure", "rejected"
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dinewise_circuit_breaker_state_transitions_total",
			Help: "Circuit breaker state transitions",
		},
		[]string{"name", "from", "to"},
	)

	// Recommendation cache
	CacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "dinewise_recommend_cache_hits_total",
			Help: "Recommendation cache hits",
		},
	)

	CacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "dinewise_recommend_cache_misses_total",
			Help: "Recommendation cache misses",
		},
	)

	CacheEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "dinewise_recommend_cache_entries",
			Help: "Current number of cached recommendations",
		},
	)

	// HTTP
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dinewise_api_requests_total",
			Help: "API requests by method, route and status",
		},
		[]string{"method", "route", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "dinewise_api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "route"},
	)

	APIRateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dinewise_api_rate_limit_hits_total",
			Help: "Requests rejected by the inbound rate limiter",
		},
		[]string{"route"},
	)
)
