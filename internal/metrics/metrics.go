package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Query cache metrics
	QueryCacheRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "query_cache_requests_total",
			Help: "Total number of query cache lookups",
		},
		[]string{"cache", "result"}, // result: hit, miss
	)

	QueryCacheSets = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "query_cache_sets_total",
			Help: "Total number of entries written to the query cache",
		},
		[]string{"cache", "category"},
	)

	QueryCacheExpirations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "query_cache_expirations_total",
			Help: "Total number of entries removed because their TTL elapsed",
		},
		[]string{"cache"},
	)

	QueryCacheEvictions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "query_cache_evictions_total",
			Help: "Total number of entries evicted by the size bound",
		},
		[]string{"cache"},
	)

	QueryCacheInvalidations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "query_cache_invalidations_total",
			Help: "Total number of entries removed by explicit invalidation",
		},
		[]string{"cache", "kind"}, // kind: key, prefix, category, all
	)

	QueryCacheEntries = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "query_cache_entries",
			Help: "Current number of entries in the query cache",
		},
		[]string{"cache"},
	)

	// Network-first fallback cache metrics
	FallbackCacheServed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fallback_cache_served_total",
			Help: "Total number of upstream failures answered from the fallback cache",
		},
		[]string{"endpoint"},
	)

	FallbackCacheItems = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "fallback_cache_items",
			Help: "Approximate number of items in the fallback cache",
		},
	)

	FallbackCacheSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "fallback_cache_size_bytes",
			Help: "Approximate size of the fallback cache in bytes",
		},
	)

	// Upstream recipe API metrics
	UpstreamRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "upstream_requests_total",
			Help: "Total number of HTTP requests made to the recipe API",
		},
		[]string{"status"}, // status: success, retry, error
	)

	UpstreamRetries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "upstream_retries_total",
			Help: "Total number of recipe API request retries",
		},
	)

	UpstreamRetryAfterWaits = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "upstream_retry_after_wait_seconds",
			Help:    "Duration of Retry-After waits in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		},
	)

	UpstreamFetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "upstream_fetch_duration_seconds",
			Help:    "Duration of recipe API fetches in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		},
		[]string{"operation", "outcome"},
	)

	UpstreamRateLimitWaits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "upstream_rate_limit_waits_total",
			Help: "Total number of times the client waited for the upstream rate limit",
		},
	)

	// Circuit breaker metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=open, 2=half-open)",
		},
		[]string{"component"},
	)

	CircuitBreakerTrips = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_trips_total",
			Help: "Total number of circuit breaker trips",
		},
		[]string{"component"},
	)

	// User store metrics
	UserStoreOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "user_store_operation_duration_seconds",
			Help:    "Duration of favorites and profile store operations",
			Buckets: []float64{0.001, 0.01, 0.1, 0.5, 1, 2, 5},
		},
		[]string{"operation"},
	)

	UserStoreOperationErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "user_store_operation_errors_total",
			Help: "Total number of favorites and profile store errors",
		},
		[]string{"operation"},
	)

	// API request metrics
	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "Duration of API requests in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2, 5},
		},
		[]string{"endpoint", "method", "status"},
	)

	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"endpoint", "method", "status"},
	)

	// Metrics collection error tracking
	MetricsCollectionErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "metrics_collection_errors_total",
			Help: "Total number of errors during metrics collection",
		},
		[]string{"collector"},
	)

	// WebSocket metrics
	WebSocketConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "websocket_connections_active",
			Help: "Number of active WebSocket connections",
		},
	)

	WebSocketMessagesSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "websocket_messages_sent_total",
			Help: "Total number of WebSocket messages sent to clients",
		},
	)
)
