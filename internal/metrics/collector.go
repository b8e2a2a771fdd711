package metrics

import (
	"context"
	"time"

	"github.com/onnwee/resep-nusantara/backend/internal/logger"
)

// QueryCacheSource is a query cache whose size is exported as a gauge.
type QueryCacheSource interface {
	Name() string
	Len() int
}

// FallbackSource reports the approximate item count and byte size of the fallback cache.
type FallbackSource func() (items int64, bytes int64)

// Collector periodically collects and updates Prometheus gauges
type Collector struct {
	caches   []QueryCacheSource
	fallback FallbackSource
	interval time.Duration
	stop     chan struct{}
}

// NewCollector creates a new metrics collector
func NewCollector(interval time.Duration, fallback FallbackSource, caches ...QueryCacheSource) *Collector {
	return &Collector{
		caches:   caches,
		fallback: fallback,
		interval: interval,
		stop:     make(chan struct{}),
	}
}

// Start begins the metrics collection loop
func (c *Collector) Start(ctx context.Context) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	// Collect initial metrics
	c.Collect()

	for {
		select {
		case <-ticker.C:
			c.Collect()
		case <-c.stop:
			return
		case <-ctx.Done():
			return
		}
	}
}

// Stop stops the metrics collector
func (c *Collector) Stop() {
	close(c.stop)
}

// Collect runs a single collection pass.
func (c *Collector) Collect() {
	for _, qc := range c.caches {
		QueryCacheEntries.WithLabelValues(qc.Name()).Set(float64(qc.Len()))
	}
	c.collectFallback()
}

func (c *Collector) collectFallback() {
	if c.fallback == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			logger.Error("fallback cache stats panicked", "panic", r)
			MetricsCollectionErrors.WithLabelValues("fallback").Inc()
			FallbackCacheItems.Set(-1) // Signal stale data
		}
	}()
	items, size := c.fallback()
	FallbackCacheItems.Set(float64(items))
	FallbackCacheSize.Set(float64(size))
}
