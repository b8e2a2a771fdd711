package querycache

import (
	"context"
	"fmt"

	"golang.org/x/sync/singleflight"
)

// GetOrFetch returns the cached value for key or, on a miss, calls fetch and
// caches its result with the default TTL. Failed fetches are never cached.
// The returned bool is true when the value came from the cache.
//
// The fetch runs detached from ctx, bounded by Options.FetchTimeout, so a
// caller that gives up early gets ctx.Err() while the fetch still completes
// and populates the cache. Context values such as trace spans are kept.
//
// A cached value of a type other than T is treated as a miss and overwritten.
// With Options.Coalesce, concurrent misses on the same key share one fetch
// and each waiter honours only its own ctx; otherwise each caller fetches
// independently and the last Set wins.
func GetOrFetch[T any](ctx context.Context, c *Cache, key string, fetch func(context.Context) (T, error)) (T, bool, error) {
	var zero T
	v, ok := c.lookup(key, func(v any) bool {
		_, ok := v.(T)
		return ok
	})
	if ok {
		return v.(T), true, nil
	}

	run := func() (any, error) {
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.fetchTimeout)
		defer cancel()
		v, err := fetch(fctx)
		if err != nil {
			return nil, err
		}
		c.Set(key, v)
		return v, nil
	}

	var done <-chan singleflight.Result
	if c.coalesce {
		done = c.sf.DoChan(key, run)
	} else {
		ch := make(chan singleflight.Result, 1)
		go func() {
			v, err := run()
			ch <- singleflight.Result{Val: v, Err: err}
		}()
		done = ch
	}

	select {
	case res := <-done:
		if res.Err != nil {
			return zero, false, res.Err
		}
		if res.Val == nil {
			return zero, false, nil
		}
		typed, ok := res.Val.(T)
		if !ok {
			return zero, false, fmt.Errorf("querycache: fetched result for %q has type %T", key, res.Val)
		}
		return typed, false, nil
	case <-ctx.Done():
		return zero, false, ctx.Err()
	}
}
