// Package metrics provides Prometheus instrumentation for search,
// comparison, and LLM subsystems.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Search metrics
	SearchRequestsTotal   *prometheus.CounterVec
	SearchDurationSeconds *prometheus.HistogramVec
	SearchCandidates      *prometheus.HistogramVec
	SearchDegradedTotal   *prometheus.CounterVec

	// Identity resolver metrics
	IdentityCollapsedTotal *prometheus.CounterVec

	// Comparison metrics
	ComparisonRequestsTotal   *prometheus.CounterVec
	ComparisonDurationSeconds prometheus.Histogram
	ComparisonCoursesSkipped  prometheus.Counter

	// LLM metrics
	GenerationRequestsTotal  *prometheus.CounterVec
	GenerationDuration       *prometheus.HistogramVec
	GenerationFallbacksTotal *prometheus.CounterVec
	EmbeddingRequestsTotal   *prometheus.CounterVec

	// Cache metrics
	CacheHitsTotal   *prometheus.CounterVec
	CacheMissesTotal *prometheus.CounterVec

	// HTTP metrics
	HTTPErrorsTotal *prometheus.CounterVec
}

// New creates a new Metrics instance with all metrics registered
func New(registry *prometheus.Registry) *Metrics {
	return &Metrics{
		SearchRequestsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "moduway_search_requests_total",
				Help: "Total number of search requests by mode and status",
			},
			[]string{"mode", "status"}, // mode: keyword, semantic; status: success, degraded, empty
		),

		SearchDurationSeconds: promauto.With(registry).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "moduway_search_duration_seconds",
				Help:    "Search request duration in seconds by mode",
				Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 2, 5},
			},
			[]string{"mode"},
		),

		SearchCandidates: promauto.With(registry).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "moduway_search_candidates",
				Help:    "Candidate counts per search before and after the dedup/filter pipeline",
				Buckets: []float64{0, 5, 10, 25, 50, 100, 200, 500},
			},
			[]string{"stage"}, // stage: ranked, filtered
		),

		SearchDegradedTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "moduway_search_degraded_total",
				Help: "Searches that returned empty results due to backend failure",
			},
			[]string{"mode", "reason"}, // reason: embedding, index
		),

		IdentityCollapsedTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "moduway_identity_collapsed_total",
				Help: "Course records dropped by identity dedup by mode",
			},
			[]string{"mode"}, // mode: recency, relevance
		),

		ComparisonRequestsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "moduway_comparison_requests_total",
				Help: "Total comparison requests by status",
			},
			[]string{"status"}, // status: success, invalid, not_found, error
		),

		ComparisonDurationSeconds: promauto.With(registry).NewHistogram(
			prometheus.HistogramOpts{
				Name:    "moduway_comparison_duration_seconds",
				Help:    "End-to-end comparison request duration in seconds",
				Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 20, 30, 60},
			},
		),

		ComparisonCoursesSkipped: promauto.With(registry).NewCounter(
			prometheus.CounterOpts{
				Name: "moduway_comparison_courses_skipped_total",
				Help: "Courses skipped in comparisons because no AI rating exists",
			},
		),

		GenerationRequestsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "moduway_generation_requests_total",
				Help: "Text generation calls by provider, kind and status",
			},
			[]string{"provider", "kind", "status"}, // kind: comment, review_summary
		),

		GenerationDuration: promauto.With(registry).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "moduway_generation_duration_seconds",
				Help:    "Text generation call duration in seconds by provider",
				Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30},
			},
			[]string{"provider"},
		),

		GenerationFallbacksTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "moduway_generation_fallbacks_total",
				Help: "Narrative calls that substituted the fixed fallback payload",
			},
			[]string{"kind"},
		),

		EmbeddingRequestsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "moduway_embedding_requests_total",
				Help: "Embedding API calls by status",
			},
			[]string{"status"},
		),

		CacheHitsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "moduway_cache_hits_total",
				Help: "Total number of cache hits by cache name",
			},
			[]string{"cache"},
		),

		CacheMissesTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "moduway_cache_misses_total",
				Help: "Total number of cache misses by cache name",
			},
			[]string{"cache"},
		),

		HTTPErrorsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "moduway_http_errors_total",
				Help: "HTTP error responses by path and status code",
			},
			[]string{"path", "status"},
		),
	}
}
