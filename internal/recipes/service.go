package recipes

import (
	"context"
	"errors"

	"github.com/onnwee/resep-nusantara/backend/internal/errorreporting"
	"github.com/onnwee/resep-nusantara/backend/internal/logger"
	"github.com/onnwee/resep-nusantara/backend/internal/querycache"
	"github.com/onnwee/resep-nusantara/backend/internal/tracing"
)

// Fetcher loads recipes from the source of truth. *Client implements it.
type Fetcher interface {
	FetchList(ctx context.Context, p ListParams) (ListResult, error)
	FetchByID(ctx context.Context, id string) (Recipe, error)
}

// Service answers recipe reads from the query cache, fetching on a miss.
type Service struct {
	fetcher Fetcher
	cache   *querycache.Cache
}

// NewService returns a Service reading through qc.
func NewService(f Fetcher, qc *querycache.Cache) *Service {
	return &Service{fetcher: f, cache: qc}
}

// Cache returns the query cache backing the service.
func (s *Service) Cache() *querycache.Cache { return s.cache }

// List returns a page of recipes. The bool reports a cache hit.
func (s *Service) List(ctx context.Context, p ListParams) (ListResult, bool, error) {
	p = p.normalize()
	key := querycache.ListKey(p)

	ctx, span := tracing.StartSpan(ctx, "recipes.List")
	res, hit, err := querycache.GetOrFetch(ctx, s.cache, key, func(ctx context.Context) (ListResult, error) {
		return s.fetcher.FetchList(ctx, p)
	})
	span.SetAttributes(tracing.CacheAttributes(key, hit)...)
	tracing.EndSpan(span, err)

	if err != nil {
		s.report(ctx, "list", key, err)
		return ListResult{}, false, err
	}
	return res, hit, nil
}

// Get returns one recipe. An empty id fails with ErrMissingID without
// touching the cache or the API.
func (s *Service) Get(ctx context.Context, id string) (Recipe, bool, error) {
	if id == "" {
		return Recipe{}, false, ErrMissingID
	}
	key := querycache.ItemKey(id)

	ctx, span := tracing.StartSpan(ctx, "recipes.Get")
	rec, hit, err := querycache.GetOrFetch(ctx, s.cache, key, func(ctx context.Context) (Recipe, error) {
		return s.fetcher.FetchByID(ctx, id)
	})
	span.SetAttributes(tracing.CacheAttributes(key, hit)...)
	tracing.EndSpan(span, err)

	if err != nil {
		s.report(ctx, "get", key, err)
		return Recipe{}, false, err
	}
	return rec, hit, nil
}

// Refresh drops the cached copy of recipe id and every cached list, so the
// next reads refetch. It returns the number of entries removed.
func (s *Service) Refresh(id string) int {
	removed := 0
	if id != "" {
		removed = s.cache.Invalidate(querycache.ItemKey(id))
	}
	return removed + s.cache.InvalidateListCaches()
}

func (s *Service) report(ctx context.Context, op, key string, err error) {
	if expected(err) || errors.Is(err, context.Canceled) {
		logger.WithCacheKey(ctx, key).Debug("recipe fetch failed", "op", op, "error", err)
		return
	}
	logger.WithCacheKey(ctx, key).Warn("recipe fetch failed", "op", op, "error", err)
	errorreporting.CaptureErrorWithContext(err,
		map[string]string{"component": "recipes", "op": op},
		map[string]any{"cache_key": key})
}
