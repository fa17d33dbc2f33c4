package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nearby_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "nearby_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 20},
		},
		[]string{"method", "path"},
	)

	RateLimited = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "nearby_rate_limited_total",
			Help: "Requests rejected by the per-client rate limiter",
		},
	)

	PlacesCache = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nearby_places_cache_total",
			Help: "Places lookups by cache outcome",
		},
		[]string{"outcome"},
	)

	// UpstreamFailures counts external failures by source (llm, places) and status.
	UpstreamFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nearby_upstream_failures_total",
			Help: "External call failures by source and status",
		},
		[]string{"source", "status"},
	)

	QueryFallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nearby_query_fallbacks_total",
			Help: "Prompts used verbatim instead of a model-extracted query",
		},
		[]string{"reason"},
	)
)
