package config

import (
	"os"
	"strings"
	"time"

	"github.com/onnwee/resep-nusantara/backend/internal/utils"
)

// Config holds application configuration derived from environment variables.
type Config struct {
	ListenAddr string
	// Upstream recipe API
	RecipeAPIBaseURL string
	UserAgent        string
	HTTPMaxRetries   int
	HTTPRetryBase    time.Duration
	HTTPTimeout      time.Duration
	LogHTTPRetries   bool
	UpstreamRPS      float64 // requests per second to the recipe API
	UpstreamBurst    int
	// Circuit breaker around the recipe API
	BreakerFailureThreshold int
	BreakerSuccessThreshold int
	BreakerTimeout          time.Duration
	// Query cache
	QueryCacheTTL        time.Duration
	QueryCacheMaxEntries int           // 0 = unbounded
	QueryCacheCoalesce   bool          // share in-flight fetches between concurrent misses
	QueryCacheSweepEvery time.Duration // 0 = lazy expiration only
	QueryCacheFetchTimeout time.Duration // bound on a fetch detached from its caller
	// Cache warmer: "@every 4m", "@hourly" or "@daily"; empty disables
	WarmSchedule   string
	WarmCategories []string
	// Network-first fallback cache
	FallbackEnabled    bool
	FallbackMaxSizeMB  int64
	FallbackMaxEntries int64
	FallbackTTL        time.Duration
	// Favorites and profile storage
	DatabaseURL string // empty = in-memory store
	// Admin API token for gating admin endpoints (Bearer token)
	AdminAPIToken string
	// Security settings
	RateLimitGlobal      float64  // requests per second globally
	RateLimitGlobalBurst int      // burst size for global rate limit
	RateLimitPerIP       float64  // requests per second per IP
	RateLimitPerIPBurst  int      // burst size for per-IP rate limit
	CORSAllowedOrigins   []string // allowed CORS origins
	EnableRateLimit      bool     // enable rate limiting middleware
	// Observability settings
	LogLevel          string  // log level: debug, info, warn, error
	EnablePprof       bool    // expose /api/admin/debug/pprof behind admin auth
	MetricsInterval   time.Duration
	OTELEnabled       bool    // enable OpenTelemetry tracing
	OTELEndpoint      string  // OpenTelemetry collector endpoint
	OTELSampleRate    float64 // trace sampling rate (0.0 to 1.0)
	SentryDSN         string  // Sentry DSN for error reporting
	SentryEnvironment string  // Sentry environment (dev, staging, production)
	SentryRelease     string  // Sentry release version
	SentrySampleRate  float64 // Sentry error sampling rate (0.0 to 1.0)
}

var cached *Config

// Load reads env vars once and caches them.
func Load() *Config {
	if cached != nil {
		return cached
	}
	cached = &Config{
		ListenAddr:       utils.GetEnvAsString("LISTEN_ADDR", ":8000"),
		RecipeAPIBaseURL: strings.TrimRight(utils.GetEnvAsString("RECIPE_API_BASE_URL", "https://modlima.fuadfakhruz.id"), "/"),
		UserAgent:        utils.GetEnvAsString("RECIPE_API_USER_AGENT", "resep-nusantara-backend/0.1"),
		HTTPMaxRetries:   utils.GetEnvAsInt("HTTP_MAX_RETRIES", 3),
		HTTPRetryBase:    time.Duration(utils.GetEnvAsInt("HTTP_RETRY_BASE_MS", 300)) * time.Millisecond,
		HTTPTimeout:      time.Duration(utils.GetEnvAsInt("HTTP_TIMEOUT_MS", 10000)) * time.Millisecond,
		LogHTTPRetries:   utils.GetEnvAsBool("LOG_HTTP_RETRIES", false),
		UpstreamRPS:      utils.GetEnvAsFloat("UPSTREAM_RPS", 20),
		UpstreamBurst:    utils.GetEnvAsInt("UPSTREAM_BURST", 40),
		BreakerFailureThreshold: utils.GetEnvAsInt("BREAKER_FAILURE_THRESHOLD", 5),
		BreakerSuccessThreshold: utils.GetEnvAsInt("BREAKER_SUCCESS_THRESHOLD", 2),
		BreakerTimeout:          utils.GetEnvAsDuration("BREAKER_TIMEOUT", 30*time.Second, time.Millisecond),
		// Query cache: 5 minute TTL, lazy expiration, no size bound
		QueryCacheTTL:        utils.GetEnvAsDuration("QUERY_CACHE_TTL", 5*time.Minute, time.Millisecond),
		QueryCacheMaxEntries: utils.GetEnvAsInt("QUERY_CACHE_MAX_ENTRIES", 0),
		QueryCacheCoalesce:   utils.GetEnvAsBool("QUERY_CACHE_COALESCE", false),
		QueryCacheSweepEvery: utils.GetEnvAsDuration("QUERY_CACHE_SWEEP_INTERVAL", 0, time.Millisecond),
		QueryCacheFetchTimeout: utils.GetEnvAsDuration("QUERY_CACHE_FETCH_TIMEOUT", 30*time.Second, time.Millisecond),
		// Fallback cache: 50 responses kept for a day
		FallbackEnabled:    utils.GetEnvAsBool("FALLBACK_CACHE_ENABLED", true),
		FallbackMaxSizeMB:  int64(utils.GetEnvAsInt("FALLBACK_CACHE_MAX_MB", 16)),
		FallbackMaxEntries: int64(utils.GetEnvAsInt("FALLBACK_CACHE_MAX_ENTRIES", 50)),
		FallbackTTL:        utils.GetEnvAsDuration("FALLBACK_CACHE_TTL", 24*time.Hour, time.Millisecond),
		DatabaseURL:        strings.TrimSpace(os.Getenv("DATABASE_URL")),
		AdminAPIToken:      strings.TrimSpace(os.Getenv("ADMIN_API_TOKEN")),
		// Security settings with sensible defaults
		RateLimitGlobal:      utils.GetEnvAsFloat("RATE_LIMIT_GLOBAL", 100.0),
		RateLimitGlobalBurst: utils.GetEnvAsInt("RATE_LIMIT_GLOBAL_BURST", 200),
		RateLimitPerIP:       utils.GetEnvAsFloat("RATE_LIMIT_PER_IP", 10.0),
		RateLimitPerIPBurst:  utils.GetEnvAsInt("RATE_LIMIT_PER_IP_BURST", 20),
		EnableRateLimit:      utils.GetEnvAsBool("ENABLE_RATE_LIMIT", true),
		// Observability settings
		LogLevel:          strings.ToLower(strings.TrimSpace(os.Getenv("LOG_LEVEL"))),
		EnablePprof:       utils.GetEnvAsBool("ENABLE_PPROF", false),
		MetricsInterval:   utils.GetEnvAsDuration("METRICS_INTERVAL", 15*time.Second, time.Millisecond),
		OTELEnabled:       utils.GetEnvAsBool("OTEL_ENABLED", false),
		OTELEndpoint:      strings.TrimSpace(os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")),
		OTELSampleRate:    utils.GetEnvAsFloat("OTEL_TRACE_SAMPLE_RATE", 0.1),
		SentryDSN:         strings.TrimSpace(os.Getenv("SENTRY_DSN")),
		SentryEnvironment: strings.TrimSpace(os.Getenv("SENTRY_ENVIRONMENT")),
		SentryRelease:     strings.TrimSpace(os.Getenv("SENTRY_RELEASE")),
		SentrySampleRate:  utils.GetEnvAsFloat("SENTRY_SAMPLE_RATE", 1.0),
	}
	if cached.LogLevel == "" {
		cached.LogLevel = "info"
	}
	if cached.SentryEnvironment == "" {
		if env := os.Getenv("ENV"); env != "" {
			cached.SentryEnvironment = env
		} else {
			cached.SentryEnvironment = "development"
		}
	}
	if cached.QueryCacheMaxEntries < 0 {
		cached.QueryCacheMaxEntries = 0
	}

	cached.WarmSchedule = strings.TrimSpace(os.Getenv("WARM_SCHEDULE"))
	cached.WarmCategories = utils.GetEnvAsSlice("WARM_CATEGORIES", nil, ",")

	// Parse CORS allowed origins
	cached.CORSAllowedOrigins = utils.GetEnvAsSlice("CORS_ALLOWED_ORIGINS",
		[]string{"http://localhost:5173", "http://localhost:3000"}, ",")

	return cached
}

// ResetForTest clears cached config; for use in tests only.
func ResetForTest() { cached = nil }
