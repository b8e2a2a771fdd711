// Package server assembles the recipe backend: caches, upstream client,
// user store, HTTP API and background workers.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/onnwee/resep-nusantara/backend/internal/api"
	"github.com/onnwee/resep-nusantara/backend/internal/api/handlers"
	"github.com/onnwee/resep-nusantara/backend/internal/cache"
	"github.com/onnwee/resep-nusantara/backend/internal/config"
	"github.com/onnwee/resep-nusantara/backend/internal/logger"
	"github.com/onnwee/resep-nusantara/backend/internal/metrics"
	"github.com/onnwee/resep-nusantara/backend/internal/middleware"
	"github.com/onnwee/resep-nusantara/backend/internal/querycache"
	"github.com/onnwee/resep-nusantara/backend/internal/recipes"
	"github.com/onnwee/resep-nusantara/backend/internal/scheduler"
	"github.com/onnwee/resep-nusantara/backend/internal/userstore"
)

const shutdownTimeout = 15 * time.Second

// Server owns every long-lived component of the backend.
type Server struct {
	cfg       *config.Config
	query     *querycache.Cache
	fallback  *cache.LRUCache
	client    *recipes.Client
	service   *recipes.Service
	users     userstore.Store
	closeDB   func() error
	hub       *handlers.Hub
	limiter   *middleware.RateLimiter
	collector *metrics.Collector
	warmer    *scheduler.Warmer
	http      *http.Server
}

// New builds a Server from cfg. With DATABASE_URL unset favorites and
// profiles live in memory.
func New(ctx context.Context, cfg *config.Config) (*Server, error) {
	s := &Server{cfg: cfg, hub: handlers.NewHub()}

	s.query = querycache.New(querycache.Options{
		Name:         "recipes",
		DefaultTTL:   cfg.QueryCacheTTL,
		MaxEntries:   cfg.QueryCacheMaxEntries,
		Coalesce:     cfg.QueryCacheCoalesce,
		FetchTimeout: cfg.QueryCacheFetchTimeout,
		OnInvalidate: s.hub.Publish,
	})

	var opts []recipes.ClientOption
	if cfg.FallbackEnabled {
		fb, err := cache.NewLRU(cfg.FallbackMaxSizeMB, cfg.FallbackMaxEntries, cfg.FallbackTTL)
		if err != nil {
			return nil, fmt.Errorf("fallback cache: %w", err)
		}
		s.fallback = fb
		opts = append(opts, recipes.WithFallback(fb, cfg.FallbackTTL))
	}
	s.client = recipes.NewClient(cfg, opts...)
	s.service = recipes.NewService(s.client, s.query)

	if err := s.openUserStore(ctx); err != nil {
		s.Close()
		return nil, err
	}

	if cfg.WarmSchedule != "" {
		sched, err := scheduler.ParseSchedule(cfg.WarmSchedule)
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("WARM_SCHEDULE: %w", err)
		}
		s.warmer = scheduler.NewWarmer(s.service, sched, scheduler.QueriesFor(cfg.WarmCategories))
	}

	if cfg.EnableRateLimit {
		s.limiter = middleware.NewRateLimiterFromConfig(cfg)
	}

	s.collector = metrics.NewCollector(cfg.MetricsInterval, s.fallbackSize, s.query)

	deps := api.Deps{
		Config:      cfg,
		Recipes:     s.service,
		Users:       s.users,
		Query:       s.query,
		Upstream:    s.client.BreakerState,
		Hub:         s.hub,
		RateLimiter: s.limiter,
	}
	if s.fallback != nil {
		deps.Fallback = s.fallback
	}
	s.http = &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           api.NewRouter(deps),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      2*cfg.HTTPTimeout + 5*time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s, nil
}

func (s *Server) openUserStore(ctx context.Context) error {
	if s.cfg.DatabaseURL == "" {
		logger.Warn("DATABASE_URL not set, favorites and profiles are kept in memory")
		s.users = userstore.NewMemoryStore()
		return nil
	}
	pg, err := userstore.OpenPostgres(ctx, s.cfg.DatabaseURL)
	if err != nil {
		return err
	}
	if err := pg.EnsureSchema(ctx); err != nil {
		pg.Close()
		return err
	}
	s.users = pg
	s.closeDB = pg.Close
	return nil
}

func (s *Server) fallbackSize() (int64, int64) {
	if s.fallback == nil {
		return 0, 0
	}
	st := s.fallback.Stats()
	return st.Items, st.Size
}

// Handler returns the HTTP handler, for tests and embedding.
func (s *Server) Handler() http.Handler { return s.http.Handler }

// Service returns the cached recipe service.
func (s *Server) Service() *recipes.Service { return s.service }

// Run starts the background workers and serves HTTP until ctx is done, then
// shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	workers, stopWorkers := context.WithCancel(ctx)
	defer stopWorkers()

	go s.hub.Run(workers)
	go s.query.StartJanitor(workers, s.cfg.QueryCacheSweepEvery)
	go s.collector.Start(workers)
	if s.warmer != nil {
		go s.warmer.Start(workers)
	}

	if s.cfg.AdminAPIToken == "" {
		logger.Warn("ADMIN_API_TOKEN not set, admin endpoints are unauthenticated")
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening", "addr", s.http.Addr,
			"recipe_api", s.cfg.RecipeAPIBaseURL,
			"query_cache_ttl", s.query.DefaultTTL(),
			"fallback", s.fallback != nil)
		errCh <- s.http.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.http.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}

// Close releases the user store, the fallback cache and the rate limiter.
func (s *Server) Close() error {
	var errs []error
	if s.limiter != nil {
		s.limiter.Stop()
	}
	if s.fallback != nil {
		s.fallback.Close()
	}
	if s.closeDB != nil {
		errs = append(errs, s.closeDB())
	}
	return errors.Join(errs...)
}
