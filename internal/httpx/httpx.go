// Package httpx wraps outbound HTTP calls to the recipe API with retries,
// Retry-After handling and jittered backoff.
package httpx

import (
	"context"
	"errors"
	"math/rand"
	"net/http"
	"strconv"
	"time"

	"github.com/onnwee/resep-nusantara/backend/internal/config"
	"github.com/onnwee/resep-nusantara/backend/internal/logger"
	"github.com/onnwee/resep-nusantara/backend/internal/metrics"
)

// ErrExhausted is returned when every attempt failed without a response.
var ErrExhausted = errors.New("httpx: exhausted retries")

// PreAttempt lets callers run logic (e.g., rate limiting) before each try; return an error to abort.
type PreAttempt func(ctx context.Context, attempt int) error

// AttemptInfo describes a single attempt outcome.
type AttemptInfo struct {
	Attempt int
	Method  string
	URL     string
	Status  int
	Err     error
	Wait    time.Duration
}

// Observer callback to report attempt telemetry.
type Observer func(info AttemptInfo)

// Retrier issues requests built by a factory, retrying transport errors,
// 429 and 5xx responses.
type Retrier struct {
	Client      *http.Client
	MaxAttempts int
	BaseDelay   time.Duration
	LogRetries  bool
	Pre         PreAttempt
	Observer    Observer

	sleep func(ctx context.Context, d time.Duration) error
}

// NewRetrier builds a Retrier from the HTTP_* settings in cfg.
func NewRetrier(client *http.Client, cfg *config.Config) *Retrier {
	if client == nil {
		client = &http.Client{Timeout: cfg.HTTPTimeout}
	}
	return &Retrier{
		Client:      client,
		MaxAttempts: cfg.HTTPMaxRetries,
		BaseDelay:   cfg.HTTPRetryBase,
		LogRetries:  cfg.LogHTTPRetries,
	}
}

// Do runs build and sends the request until it succeeds, returns a
// non-retryable status, or attempts run out. The final 429/5xx response is
// returned to the caller with its body open.
func (r *Retrier) Do(ctx context.Context, build func(ctx context.Context) (*http.Request, error)) (*http.Response, error) {
	maxAttempts := r.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	sleep := r.sleep
	if sleep == nil {
		sleep = sleepCtx
	}
	log := logger.WithComponent("httpx")

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if r.Pre != nil {
			if err := r.Pre(ctx, attempt); err != nil {
				return nil, err
			}
		}
		req, err := build(ctx)
		if err != nil {
			return nil, err
		}
		info := AttemptInfo{Attempt: attempt, Method: req.Method, URL: req.URL.String()}

		resp, err := r.Client.Do(req)
		if err != nil {
			metrics.UpstreamRequests.WithLabelValues("error").Inc()
			info.Err = err
			if attempt == maxAttempts || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				if r.LogRetries {
					log.Warn("request failed, no more retries", "attempt", attempt, "method", info.Method, "url", info.URL, "error", err)
				}
				r.observe(info)
				return nil, err
			}
			metrics.UpstreamRetries.Inc()
			r.observe(info)
		} else {
			info.Status = resp.StatusCode
			if !retryable(resp.StatusCode) {
				metrics.UpstreamRequests.WithLabelValues("success").Inc()
				if r.LogRetries && attempt > 1 {
					log.Info("request succeeded after retry", "attempt", attempt, "method", info.Method, "url", info.URL, "status", resp.StatusCode)
				}
				r.observe(info)
				return resp, nil
			}
			metrics.UpstreamRequests.WithLabelValues("retry").Inc()
			if attempt == maxAttempts {
				if r.LogRetries {
					log.Warn("giving up", "attempt", attempt, "method", info.Method, "url", info.URL, "status", resp.StatusCode)
				}
				r.observe(info)
				return resp, nil
			}
			if wait, ok := retryAfter(resp.Header.Get("Retry-After"), time.Now()); ok {
				resp.Body.Close()
				metrics.UpstreamRetryAfterWaits.Observe(wait.Seconds())
				if r.LogRetries {
					log.Info("honoring Retry-After", "attempt", attempt, "wait", wait, "method", info.Method, "url", info.URL)
				}
				info.Wait = wait
				r.observe(info)
				if err := sleep(ctx, wait); err != nil {
					return nil, err
				}
				continue
			}
			resp.Body.Close()
			metrics.UpstreamRetries.Inc()
		}

		// backoff with jitter
		jitter := time.Duration(rand.Intn(200)) * time.Millisecond
		delay := r.BaseDelay*time.Duration(attempt) + jitter
		if r.LogRetries {
			log.Debug("backing off", "attempt", attempt, "delay", delay, "method", info.Method, "url", info.URL)
		}
		r.observe(AttemptInfo{Attempt: attempt, Method: info.Method, URL: info.URL, Wait: delay})
		if err := sleep(ctx, delay); err != nil {
			return nil, err
		}
	}
	return nil, ErrExhausted
}

func (r *Retrier) observe(info AttemptInfo) {
	if r.Observer != nil {
		r.Observer(info)
	}
}

func retryable(status int) bool {
	return status == http.StatusTooManyRequests || status >= 500
}

// retryAfter parses a Retry-After header given as seconds or an HTTP date.
func retryAfter(v string, now time.Time) (time.Duration, bool) {
	if v == "" {
		return 0, false
	}
	if secs, err := strconv.Atoi(v); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second, true
	}
	if t, err := http.ParseTime(v); err == nil {
		if d := t.Sub(now); d > 0 {
			return d, true
		}
	}
	return 0, false
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
