// Package scheduler runs periodic background work against the recipe
// service, such as keeping popular list pages in the query cache.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/onnwee/resep-nusantara/backend/internal/logger"
	"github.com/onnwee/resep-nusantara/backend/internal/recipes"
)

// Lister is the list side of recipes.Service.
type Lister interface {
	List(ctx context.Context, p recipes.ListParams) (recipes.ListResult, bool, error)
}

// WarmResult summarizes one warm pass.
type WarmResult struct {
	Hits    int
	Fetched int
	Failed  int
}

// Warmer reads a fixed set of list queries on a schedule. A query whose
// cache entry expired is refetched, so the first visitor after expiry does
// not wait on the recipe API.
type Warmer struct {
	lister   Lister
	queries  []recipes.ListParams
	schedule Schedule
	now      func() time.Time
	stop     chan struct{}
	stopOnce sync.Once
}

func NewWarmer(l Lister, schedule Schedule, queries []recipes.ListParams) *Warmer {
	return &Warmer{
		lister:   l,
		queries:  queries,
		schedule: schedule,
		now:      time.Now,
		stop:     make(chan struct{}),
	}
}

// QueriesFor returns the default page plus the first page of each category.
func QueriesFor(categories []string) []recipes.ListParams {
	qs := []recipes.ListParams{{}}
	for _, c := range categories {
		if c != "" {
			qs = append(qs, recipes.ListParams{Category: c})
		}
	}
	return qs
}

// Start warms immediately and then on every scheduled tick until ctx is
// done or Stop is called.
func (w *Warmer) Start(ctx context.Context) {
	log := logger.WithComponent("warmer")
	log.Info("cache warmer started", "queries", len(w.queries))

	for {
		res := w.Warm(ctx)
		if res.Fetched > 0 || res.Failed > 0 {
			log.Debug("warm pass done", "hits", res.Hits, "fetched", res.Fetched, "failed", res.Failed)
		}

		wait := w.schedule.Next(w.now()).Sub(w.now())
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-w.stop:
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}

// Stop ends Start. It is safe to call more than once.
func (w *Warmer) Stop() {
	w.stopOnce.Do(func() { close(w.stop) })
}

// Warm runs one pass over every query.
func (w *Warmer) Warm(ctx context.Context) WarmResult {
	var res WarmResult
	for _, q := range w.queries {
		if ctx.Err() != nil {
			break
		}
		_, hit, err := w.lister.List(ctx, q)
		switch {
		case err != nil:
			res.Failed++
			logger.WarnContext(ctx, "warming list query failed", "category", q.Category, "error", err)
		case hit:
			res.Hits++
		default:
			res.Fetched++
		}
	}
	return res
}
