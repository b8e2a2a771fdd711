package metrics

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

type fakeCache struct {
	name string
	n    int
}

func (f fakeCache) Name() string { return f.name }
func (f fakeCache) Len() int     { return f.n }

func TestCollectUpdatesGauges(t *testing.T) {
	c := NewCollector(time.Minute, func() (int64, int64) { return 3, 2048 }, fakeCache{name: "collector-test", n: 7})
	c.Collect()

	if got := testutil.ToFloat64(QueryCacheEntries.WithLabelValues("collector-test")); got != 7 {
		t.Errorf("query cache entries = %v, want 7", got)
	}
	if got := testutil.ToFloat64(FallbackCacheItems); got != 3 {
		t.Errorf("fallback items = %v, want 3", got)
	}
	if got := testutil.ToFloat64(FallbackCacheSize); got != 2048 {
		t.Errorf("fallback size = %v, want 2048", got)
	}
}

func TestCollectRecoversFromFallbackPanic(t *testing.T) {
	c := NewCollector(time.Minute, func() (int64, int64) { panic("closed") })
	before := testutil.ToFloat64(MetricsCollectionErrors.WithLabelValues("fallback"))
	c.Collect()
	after := testutil.ToFloat64(MetricsCollectionErrors.WithLabelValues("fallback"))
	if after != before+1 {
		t.Errorf("expected collection error to be counted, before=%v after=%v", before, after)
	}
}

func TestCollectorStop(t *testing.T) {
	c := NewCollector(10*time.Millisecond, nil)
	done := make(chan struct{})
	go func() {
		c.Start(context.Background())
		close(done)
	}()

	c.Stop()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Error("Stop signal not received in time")
	}
}

func TestCollectorContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	c := NewCollector(10*time.Millisecond, nil)
	done := make(chan struct{})
	go func() {
		c.Start(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Error("Context cancellation not working properly")
	}
}
