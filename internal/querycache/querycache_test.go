package querycache

import (
	"context"
	"sync"
	"testing"
	"time"
)

// fakeClock is a manually advanced clock.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	f.now = f.now.Add(d)
	f.mu.Unlock()
}

func newTestCache(clock *fakeClock) *Cache {
	return New(Options{Name: "test", Clock: clock.Now})
}

type recipe struct {
	ID    int
	Title string
}

func TestSetThenGetReturnsValue(t *testing.T) {
	c := newTestCache(newFakeClock())

	tests := []struct {
		key string
		val any
	}{
		{"recipe_1", recipe{ID: 1, Title: "Soto"}},
		{`{"page":1}`, []recipe{{ID: 2}, {ID: 3}}},
		{"misc", "plain string"},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			c.SetWithTTL(tt.key, tt.val, time.Second)
			got, ok := c.Get(tt.key)
			if !ok {
				t.Fatalf("expected hit for %q", tt.key)
			}
			if _, isSlice := tt.val.([]recipe); isSlice {
				if len(got.([]recipe)) != 2 {
					t.Fatalf("unexpected slice: %v", got)
				}
				return
			}
			if got != tt.val {
				t.Fatalf("got %v, want %v", got, tt.val)
			}
		})
	}
}

func TestGetMissingKey(t *testing.T) {
	c := newTestCache(newFakeClock())
	if v, ok := c.Get("nope"); ok || v != nil {
		t.Fatalf("expected miss, got %v %v", v, ok)
	}
}

func TestExpiredEntryIsPurged(t *testing.T) {
	clock := newFakeClock()
	c := newTestCache(clock)

	c.SetWithTTL("k", "v", 100*time.Millisecond)
	clock.Advance(101 * time.Millisecond)

	if _, ok := c.Get("k"); ok {
		t.Fatal("expected expired entry to be absent")
	}
	if c.Len() != 0 {
		t.Fatalf("expected entry to be deleted, store has %d", c.Len())
	}
	clock.Advance(time.Hour)
	if _, ok := c.Get("k"); ok {
		t.Fatal("expected entry to stay absent")
	}
	if s := c.Stats(); s.Expirations != 1 {
		t.Fatalf("expected 1 expiration, got %d", s.Expirations)
	}
}

func TestEntryFreshAtExactTTL(t *testing.T) {
	clock := newFakeClock()
	c := newTestCache(clock)

	c.SetWithTTL("k", "v", time.Second)
	clock.Advance(time.Second)
	if _, ok := c.Get("k"); !ok {
		t.Fatal("entry aged exactly TTL should still be fresh")
	}
	clock.Advance(time.Nanosecond)
	if _, ok := c.Get("k"); ok {
		t.Fatal("entry older than TTL should be absent")
	}
}

func TestKeysAreIsolated(t *testing.T) {
	c := newTestCache(newFakeClock())
	c.Set("a", 1)
	if _, ok := c.Get("b"); ok {
		t.Fatal("set on a must not create b")
	}
	c.Set("b", 2)
	if v, _ := c.Get("a"); v != 1 {
		t.Fatalf("a changed to %v", v)
	}
}

func TestOverwriteResetsWindow(t *testing.T) {
	clock := newFakeClock()
	c := newTestCache(clock)

	c.SetWithTTL("k", "v1", time.Second)
	clock.Advance(800 * time.Millisecond)
	c.SetWithTTL("k", "v2", time.Second)
	clock.Advance(800 * time.Millisecond)

	v, ok := c.Get("k")
	if !ok || v != "v2" {
		t.Fatalf("expected v2 within second window, got %v %v", v, ok)
	}
	clock.Advance(300 * time.Millisecond)
	if _, ok := c.Get("k"); ok {
		t.Fatal("expected expiry measured from the second set")
	}
}

func TestDefaultTTL(t *testing.T) {
	clock := newFakeClock()
	c := newTestCache(clock)
	if c.DefaultTTL() != 5*time.Minute {
		t.Fatalf("default ttl = %v", c.DefaultTTL())
	}

	c.Set("k", "v")
	c.SetWithTTL("zero", "v", 0)
	clock.Advance(5 * time.Minute)
	if _, ok := c.Get("k"); !ok {
		t.Fatal("expected hit at 5m")
	}
	if _, ok := c.Get("zero"); !ok {
		t.Fatal("non-positive ttl should fall back to default")
	}
	clock.Advance(time.Millisecond)
	if _, ok := c.Get("k"); ok {
		t.Fatal("expected miss after 5m")
	}
}

func TestInvalidate(t *testing.T) {
	var events []Invalidation
	c := New(Options{OnInvalidate: func(inv Invalidation) { events = append(events, inv) }})
	c.Set("k", "v")

	if n := c.Invalidate("k"); n != 1 {
		t.Fatalf("first Invalidate removed %d, want 1", n)
	}
	if n := c.Invalidate("k"); n != 0 {
		t.Fatalf("second Invalidate removed %d, want 0", n)
	}

	if _, ok := c.Get("k"); ok {
		t.Fatal("expected k invalidated")
	}
	if len(events) != 2 || events[0].Removed != 1 || events[1].Removed != 0 {
		t.Fatalf("unexpected events: %+v", events)
	}
	if events[0].Kind != KindKey || events[0].Cache != "default" {
		t.Fatalf("unexpected event: %+v", events[0])
	}
}

func TestInvalidatePrefix(t *testing.T) {
	c := newTestCache(newFakeClock())
	for _, k := range []string{"abc", "abd", "xyz"} {
		c.Set(k, k)
	}

	if n := c.InvalidatePrefix("ab"); n != 2 {
		t.Fatalf("removed %d, want 2", n)
	}
	for _, k := range []string{"abc", "abd"} {
		if _, ok := c.Get(k); ok {
			t.Errorf("%s should be gone", k)
		}
	}
	if _, ok := c.Get("xyz"); !ok {
		t.Error("xyz should remain")
	}
}

func TestInvalidateListCaches(t *testing.T) {
	c := newTestCache(newFakeClock())
	c.Set(`{"page":1}`, "list")
	c.Set("recipe_42", "item")

	if n := c.InvalidateListCaches(); n != 1 {
		t.Fatalf("removed %d, want 1", n)
	}
	if _, ok := c.Get(`{"page":1}`); ok {
		t.Error("list entry should be gone")
	}
	if _, ok := c.Get("recipe_42"); !ok {
		t.Error("item entry should remain")
	}
}

func TestInvalidateListCachesUsesTags(t *testing.T) {
	c := newTestCache(newFakeClock())
	c.SetTagged("list:v2:page=1", CategoryList, "list", 0)
	c.SetTagged("{not-a-list", CategoryOther, "other", 0)

	c.InvalidateListCaches()

	if _, ok := c.Get("list:v2:page=1"); ok {
		t.Error("tagged list entry should be gone regardless of key shape")
	}
	if _, ok := c.Get("{not-a-list"); !ok {
		t.Error("entry tagged other should remain")
	}
}

func TestInvalidateCategory(t *testing.T) {
	c := newTestCache(newFakeClock())
	c.Set(ItemKey("1"), 1)
	c.Set(ItemKey("2"), 2)
	c.Set(ListKey(map[string]int{"page": 1}), "l")

	if n := c.InvalidateCategory(CategoryItem); n != 2 {
		t.Fatalf("removed %d, want 2", n)
	}
	if c.Len() != 1 {
		t.Fatalf("expected list entry to remain, len=%d", c.Len())
	}
}

func TestClear(t *testing.T) {
	c := newTestCache(newFakeClock())
	c.Set("a", 1)
	c.Set("b", 2)
	if n := c.Clear(); n != 2 {
		t.Fatalf("Clear removed %d, want 2", n)
	}
	if c.Len() != 0 {
		t.Fatalf("expected empty cache, got %d", c.Len())
	}
	if s := c.Stats(); s.Invalidations != 2 {
		t.Fatalf("expected 2 invalidations, got %d", s.Invalidations)
	}
}

func TestScenarioItemExpiry(t *testing.T) {
	clock := newFakeClock()
	c := newTestCache(clock)
	rendang := recipe{ID: 42, Title: "Rendang"}

	c.SetWithTTL("recipe_42", rendang, 1000*time.Millisecond)

	clock.Advance(500 * time.Millisecond)
	got, ok := c.Get("recipe_42")
	if !ok || got != rendang {
		t.Fatalf("at +500ms got %v %v", got, ok)
	}

	clock.Advance(1000 * time.Millisecond)
	if _, ok := c.Get("recipe_42"); ok {
		t.Fatal("at +1500ms expected absent")
	}
}

func TestSweep(t *testing.T) {
	clock := newFakeClock()
	c := newTestCache(clock)
	c.SetWithTTL("short", 1, time.Second)
	c.SetWithTTL("long", 2, time.Hour)

	clock.Advance(2 * time.Second)
	if n := c.Sweep(); n != 1 {
		t.Fatalf("swept %d, want 1", n)
	}
	if c.Len() != 1 {
		t.Fatalf("expected 1 entry left, got %d", c.Len())
	}
}

func TestStartJanitorStopsOnCancel(t *testing.T) {
	clock := newFakeClock()
	c := newTestCache(clock)
	c.SetWithTTL("k", 1, time.Millisecond)
	clock.Advance(time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		c.StartJanitor(ctx, 5*time.Millisecond)
		close(done)
	}()

	deadline := time.After(2 * time.Second)
	for c.Len() != 0 {
		select {
		case <-deadline:
			t.Fatal("janitor did not sweep")
		case <-time.After(5 * time.Millisecond):
		}
	}
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("janitor did not stop")
	}
}

func TestBoundedStoreEvictsLeastRecentlyUsed(t *testing.T) {
	c := New(Options{MaxEntries: 2})
	c.Set("a", 1)
	c.Set("b", 2)
	c.Get("a") // a becomes most recently used
	c.Set("c", 3)

	if _, ok := c.Get("b"); ok {
		t.Error("b should have been evicted")
	}
	for _, k := range []string{"a", "c"} {
		if _, ok := c.Get(k); !ok {
			t.Errorf("%s should be present", k)
		}
	}
	if s := c.Stats(); s.Evictions != 1 {
		t.Fatalf("expected 1 eviction, got %d", s.Evictions)
	}
}

func TestBoundedStorePrefixInvalidation(t *testing.T) {
	c := New(Options{MaxEntries: 10})
	for _, k := range []string{"abc", "abd", "xyz"} {
		c.Set(k, k)
	}
	c.InvalidatePrefix("ab")
	if c.Len() != 1 {
		t.Fatalf("expected 1 entry, got %d", c.Len())
	}
	if s := c.Stats(); s.Evictions != 0 {
		t.Fatalf("invalidation must not count as eviction, got %d", s.Evictions)
	}
}

func TestConcurrentAccess(t *testing.T) {
	c := New(Options{DefaultTTL: time.Millisecond})
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 500; j++ {
				key := ItemKey(string(rune('a' + (i+j)%5)))
				c.Set(key, j)
				c.Get(key)
				if j%50 == 0 {
					c.InvalidatePrefix(ItemKeyPrefix)
				}
			}
		}(i)
	}
	wg.Wait()
}
