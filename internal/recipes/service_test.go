package recipes

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/onnwee/resep-nusantara/backend/internal/querycache"
)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// fakeFetcher records calls and returns canned results.
type fakeFetcher struct {
	mu        sync.Mutex
	listCalls []ListParams
	getCalls  []string
	err       error
}

func (f *fakeFetcher) FetchList(ctx context.Context, p ListParams) (ListResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls = append(f.listCalls, p)
	if f.err != nil {
		return ListResult{}, f.err
	}
	return ListResult{Data: []Recipe{{ID: "1", Title: "Rendang"}}}, nil
}

func (f *fakeFetcher) FetchByID(ctx context.Context, id string) (Recipe, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.getCalls = append(f.getCalls, id)
	if f.err != nil {
		return Recipe{}, f.err
	}
	return Recipe{ID: id, Title: "Recipe " + id}, nil
}

func newTestService() (*Service, *fakeFetcher, *clock) {
	clk := &clock{now: time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)}
	f := &fakeFetcher{}
	qc := querycache.New(querycache.Options{Name: "recipes-test", Clock: clk.Now})
	return NewService(f, qc), f, clk
}

func TestListCachesForDefaultTTL(t *testing.T) {
	svc, f, clk := newTestService()
	ctx := context.Background()
	params := ListParams{Category: "makanan"}

	if _, hit, err := svc.List(ctx, params); err != nil || hit {
		t.Fatalf("first List: hit=%v err=%v", hit, err)
	}
	if _, ok := svc.Cache().Get(`{"category":"makanan"}`); !ok {
		t.Fatal(`expected entry under key {"category":"makanan"}`)
	}

	clk.Advance(4 * time.Minute)
	if _, hit, _ := svc.List(ctx, params); !hit {
		t.Error("expected hit within 5 minutes")
	}
	if len(f.listCalls) != 1 {
		t.Fatalf("fetch calls = %d, want 1", len(f.listCalls))
	}

	clk.Advance(2 * time.Minute)
	if _, hit, _ := svc.List(ctx, params); hit {
		t.Error("expected refetch after 6 minutes")
	}
	if len(f.listCalls) != 2 {
		t.Fatalf("fetch calls = %d, want 2", len(f.listCalls))
	}
}

func TestListNormalizesParams(t *testing.T) {
	svc, f, _ := newTestService()
	ctx := context.Background()

	svc.List(ctx, ListParams{Category: " makanan "})
	svc.List(ctx, ListParams{Category: "makanan", Page: -1})

	if diff := cmp.Diff([]ListParams{{Category: "makanan"}}, f.listCalls); diff != "" {
		t.Errorf("fetch calls mismatch (-want +got):\n%s", diff)
	}
}

func TestGetMissingID(t *testing.T) {
	svc, f, _ := newTestService()
	_, _, err := svc.Get(context.Background(), "")
	if !errors.Is(err, ErrMissingID) {
		t.Fatalf("err = %v, want ErrMissingID", err)
	}
	if len(f.getCalls) != 0 || svc.Cache().Len() != 0 {
		t.Errorf("empty id must not fetch or cache: calls=%v len=%d", f.getCalls, svc.Cache().Len())
	}
}

func TestGetCachesItem(t *testing.T) {
	svc, f, _ := newTestService()
	ctx := context.Background()

	rec, hit, err := svc.Get(ctx, "7")
	if err != nil || hit || rec.ID != "7" {
		t.Fatalf("first Get: %+v hit=%v err=%v", rec, hit, err)
	}
	rec, hit, err = svc.Get(ctx, "7")
	if err != nil || !hit || rec.Title != "Recipe 7" {
		t.Fatalf("second Get: %+v hit=%v err=%v", rec, hit, err)
	}
	if len(f.getCalls) != 1 {
		t.Errorf("fetch calls = %d, want 1", len(f.getCalls))
	}
	if _, ok := svc.Cache().Get("recipe_7"); !ok {
		t.Error("expected entry under recipe_7")
	}
}

func TestFailuresAreNotCached(t *testing.T) {
	svc, f, _ := newTestService()
	ctx := context.Background()
	f.err = ErrUnavailable

	for i := 0; i < 2; i++ {
		if _, _, err := svc.Get(ctx, "1"); !errors.Is(err, ErrUnavailable) {
			t.Fatalf("err = %v", err)
		}
	}
	if len(f.getCalls) != 2 {
		t.Errorf("expected a fetch per call after failure, got %d", len(f.getCalls))
	}
	if svc.Cache().Len() != 0 {
		t.Errorf("failed fetch left %d entries", svc.Cache().Len())
	}
}

func TestRefresh(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	svc.Get(ctx, "1")
	svc.Get(ctx, "2")
	svc.List(ctx, ListParams{Page: 1})
	svc.List(ctx, ListParams{Category: "kue"})

	if n := svc.Refresh("1"); n != 3 {
		t.Fatalf("Refresh removed %d, want 3", n)
	}
	if _, ok := svc.Cache().Get("recipe_2"); !ok {
		t.Error("unrelated item must survive")
	}
	if svc.Cache().Len() != 1 {
		t.Errorf("Len = %d, want 1", svc.Cache().Len())
	}
}

func TestRefreshCountIgnoresConcurrentWrites(t *testing.T) {
	var qc *querycache.Cache
	qc = querycache.New(querycache.Options{
		Name: "refresh-concurrent",
		OnInvalidate: func(inv querycache.Invalidation) {
			qc.Set(querycache.ItemKey("other"), "written meanwhile")
		},
	})
	svc := NewService(&fakeFetcher{}, qc)
	ctx := context.Background()
	svc.Get(ctx, "1")
	svc.List(ctx, ListParams{Category: "kue"})

	if n := svc.Refresh("1"); n != 2 {
		t.Fatalf("Refresh removed %d, want 2", n)
	}
}
