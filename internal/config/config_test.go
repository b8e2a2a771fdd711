package config

import (
	"os"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	// ensure defaults kick in with empty env
	for _, k := range []string{
		"RECIPE_API_BASE_URL", "HTTP_MAX_RETRIES", "QUERY_CACHE_TTL",
		"QUERY_CACHE_MAX_ENTRIES", "QUERY_CACHE_COALESCE", "FALLBACK_CACHE_MAX_ENTRIES",
		"LOG_LEVEL", "CORS_ALLOWED_ORIGINS", "DATABASE_URL",
	} {
		os.Unsetenv(k)
	}
	ResetForTest()
	defer ResetForTest()

	cfg := Load()
	if cfg.RecipeAPIBaseURL == "" {
		t.Fatalf("expected default base URL, got empty")
	}
	if cfg.HTTPMaxRetries != 3 {
		t.Fatalf("expected default retries=3, got %d", cfg.HTTPMaxRetries)
	}
	if cfg.QueryCacheTTL != 5*time.Minute {
		t.Fatalf("expected default query cache ttl=5m, got %v", cfg.QueryCacheTTL)
	}
	if cfg.QueryCacheMaxEntries != 0 || cfg.QueryCacheCoalesce {
		t.Fatalf("expected unbounded, uncoalesced cache by default: %+v", cfg)
	}
	if cfg.FallbackMaxEntries != 50 {
		t.Fatalf("expected 50 fallback entries, got %d", cfg.FallbackMaxEntries)
	}
	if cfg.LogLevel != "info" {
		t.Fatalf("expected info log level, got %q", cfg.LogLevel)
	}
	if len(cfg.CORSAllowedOrigins) != 2 {
		t.Fatalf("expected 2 default origins, got %v", cfg.CORSAllowedOrigins)
	}
	if cfg.DatabaseURL != "" {
		t.Fatalf("expected no database by default")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("RECIPE_API_BASE_URL", "http://upstream.test/")
	t.Setenv("QUERY_CACHE_TTL", "1500")
	t.Setenv("QUERY_CACHE_MAX_ENTRIES", "-4")
	t.Setenv("QUERY_CACHE_SWEEP_INTERVAL", "1m")
	t.Setenv("QUERY_CACHE_FETCH_TIMEOUT", "8s")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.test, https://b.test")
	ResetForTest()
	defer ResetForTest()

	cfg := Load()
	if cfg.RecipeAPIBaseURL != "http://upstream.test" {
		t.Errorf("trailing slash not trimmed: %q", cfg.RecipeAPIBaseURL)
	}
	if cfg.QueryCacheTTL != 1500*time.Millisecond {
		t.Errorf("ttl = %v", cfg.QueryCacheTTL)
	}
	if cfg.QueryCacheMaxEntries != 0 {
		t.Errorf("negative max entries should clamp to 0, got %d", cfg.QueryCacheMaxEntries)
	}
	if cfg.QueryCacheSweepEvery != time.Minute {
		t.Errorf("sweep interval = %v", cfg.QueryCacheSweepEvery)
	}
	if cfg.QueryCacheFetchTimeout != 8*time.Second {
		t.Errorf("fetch timeout = %v", cfg.QueryCacheFetchTimeout)
	}
	if len(cfg.CORSAllowedOrigins) != 2 || cfg.CORSAllowedOrigins[1] != "https://b.test" {
		t.Errorf("origins = %q", cfg.CORSAllowedOrigins)
	}
}

func TestLoadWarmer(t *testing.T) {
	t.Setenv("WARM_SCHEDULE", " @every 4m ")
	t.Setenv("WARM_CATEGORIES", "makanan, minuman,")
	ResetForTest()
	defer ResetForTest()

	cfg := Load()
	if cfg.WarmSchedule != "@every 4m" {
		t.Fatalf("WarmSchedule = %q", cfg.WarmSchedule)
	}
	if len(cfg.WarmCategories) != 2 || cfg.WarmCategories[1] != "minuman" {
		t.Fatalf("WarmCategories = %v", cfg.WarmCategories)
	}
}
