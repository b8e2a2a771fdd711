package recipes

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"

	"github.com/onnwee/resep-nusantara/backend/internal/cache"
	"github.com/onnwee/resep-nusantara/backend/internal/circuitbreaker"
	"github.com/onnwee/resep-nusantara/backend/internal/config"
	"github.com/onnwee/resep-nusantara/backend/internal/httpx"
	"github.com/onnwee/resep-nusantara/backend/internal/logger"
	"github.com/onnwee/resep-nusantara/backend/internal/metrics"
)

const (
	listPath = "/api/v1/recipes"
	// maxBodyBytes caps upstream bodies read into memory.
	maxBodyBytes = 8 << 20
)

// Client calls the upstream recipe API. Successful bodies are copied into an
// optional fallback cache that answers when the network fails.
type Client struct {
	baseURL     string
	userAgent   string
	retrier     *httpx.Retrier
	breaker     *circuitbreaker.CircuitBreaker
	limiter     *rate.Limiter
	fallback    cache.Cache
	fallbackTTL time.Duration
	now         func() time.Time
}

// ClientOption customizes a Client.
type ClientOption func(*Client)

// WithFallback enables network-first fallback through fb.
func WithFallback(fb cache.Cache, ttl time.Duration) ClientOption {
	return func(c *Client) {
		c.fallback = fb
		c.fallbackTTL = ttl
	}
}

// WithHTTPClient replaces the HTTP client used for upstream calls.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.retrier.Client = hc }
}

// WithBreaker replaces the circuit breaker.
func WithBreaker(cb *circuitbreaker.CircuitBreaker) ClientOption {
	return func(c *Client) { c.breaker = cb }
}

// NewClient builds a Client from the upstream settings in cfg.
func NewClient(cfg *config.Config, opts ...ClientOption) *Client {
	limit := rate.Inf
	if cfg.UpstreamRPS > 0 {
		limit = rate.Limit(cfg.UpstreamRPS)
	}
	burst := cfg.UpstreamBurst
	if burst < 1 {
		burst = 1
	}

	c := &Client{
		baseURL:   cfg.RecipeAPIBaseURL,
		userAgent: cfg.UserAgent,
		retrier:   httpx.NewRetrier(nil, cfg),
		breaker: circuitbreaker.New(circuitbreaker.Config{
			Name:             "recipe_api",
			FailureThreshold: cfg.BreakerFailureThreshold,
			SuccessThreshold: cfg.BreakerSuccessThreshold,
			Timeout:          cfg.BreakerTimeout,
			IsFailure:        isUpstreamFailure,
		}),
		limiter: rate.NewLimiter(limit, burst),
		now:     time.Now,
	}
	c.retrier.Pre = c.waitForToken
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FetchList requests one page of recipes.
func (c *Client) FetchList(ctx context.Context, p ListParams) (ListResult, error) {
	body, err := c.get(ctx, "list", listPath, listQuery(p))
	if err != nil {
		return ListResult{}, err
	}

	env := gjson.ParseBytes(body)
	data := env.Get("data")
	if !data.IsArray() {
		return ListResult{}, fmt.Errorf("%w: data is not an array", ErrMalformed)
	}
	res := ListResult{Data: make([]Recipe, 0, len(data.Array()))}
	data.ForEach(func(_, v gjson.Result) bool {
		res.Data = append(res.Data, recipeFromJSON(v.Raw))
		return true
	})
	if pg := env.Get("pagination"); pg.Exists() && pg.Type != gjson.Null {
		res.Pagination = []byte(pg.Raw)
	}
	return res, nil
}

// FetchByID requests a single recipe.
func (c *Client) FetchByID(ctx context.Context, id string) (Recipe, error) {
	if id == "" {
		return Recipe{}, ErrMissingID
	}
	body, err := c.get(ctx, "get", listPath+"/"+url.PathEscape(id), nil)
	if err != nil {
		return Recipe{}, err
	}
	data := gjson.GetBytes(body, "data")
	if !data.IsObject() {
		return Recipe{}, fmt.Errorf("%w: data is not an object", ErrMalformed)
	}
	return recipeFromJSON(data.Raw), nil
}

// BreakerState reports the upstream circuit state.
func (c *Client) BreakerState() circuitbreaker.State {
	return c.breaker.GetState()
}

func listQuery(p ListParams) url.Values {
	q := url.Values{}
	if p.Page > 0 {
		q.Set("page", strconv.Itoa(p.Page))
	}
	if p.Limit > 0 {
		q.Set("limit", strconv.Itoa(p.Limit))
	}
	if p.Category != "" {
		q.Set("category", p.Category)
	}
	if p.Search != "" {
		q.Set("search", p.Search)
	}
	return q
}

// get fetches path and returns a validated envelope body, falling back to
// the last good copy when the API is unreachable.
func (c *Client) get(ctx context.Context, op, path string, query url.Values) ([]byte, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	start := time.Now()
	var body []byte
	err := c.breaker.Call(func() error {
		var err error
		body, err = c.do(ctx, u)
		return err
	})

	outcome := "success"
	switch {
	case err == nil:
		if c.fallback != nil {
			c.fallback.Set(u, body, c.fallbackTTL)
		}
	case canFallBack(err):
		if item, ok := c.lookupFallback(u); ok {
			metrics.FallbackCacheServed.WithLabelValues(op).Inc()
			logger.WarnContext(ctx, "recipe API unreachable, serving fallback copy",
				"url", u, "age", item.Age(c.now()), "error", err)
			body, err = item.Body, nil
			outcome = "fallback"
		} else {
			err = fmt.Errorf("%w: %w", ErrUnavailable, err)
		}
	}
	if err != nil {
		outcome = "error"
	}
	metrics.UpstreamFetchDuration.WithLabelValues(op, outcome).Observe(time.Since(start).Seconds())
	return body, err
}

func (c *Client) lookupFallback(u string) (cache.Item, bool) {
	if c.fallback == nil {
		return cache.Item{}, false
	}
	return c.fallback.Get(u)
}

// do performs one logical request (with retries) and validates the envelope.
func (c *Client) do(ctx context.Context, u string) ([]byte, error) {
	resp, err := c.retrier.Do(ctx, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")
		if c.userAgent != "" {
			req.Header.Set("User-Agent", c.userAgent)
		}
		return req, nil
	})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("recipes: read body: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrNotFound
	case resp.StatusCode >= 300:
		// An error status with a readable envelope still carries the message.
		if msg := gjson.GetBytes(body, "message"); msg.Exists() && resp.StatusCode < 500 {
			return nil, &EnvelopeError{Message: msg.String()}
		}
		return nil, &StatusError{Status: resp.StatusCode}
	}
	return body, validateEnvelope(body)
}

// validateEnvelope checks {success: true, data: ...}.
func validateEnvelope(body []byte) error {
	if !gjson.ValidBytes(body) {
		return fmt.Errorf("%w: invalid JSON", ErrMalformed)
	}
	env := gjson.ParseBytes(body)
	if !env.IsObject() {
		return fmt.Errorf("%w: envelope is not an object", ErrMalformed)
	}
	if !env.Get("success").Bool() {
		return &EnvelopeError{Message: env.Get("message").String()}
	}
	if !env.Get("data").Exists() {
		return fmt.Errorf("%w: missing data", ErrMalformed)
	}
	return nil
}

func (c *Client) waitForToken(ctx context.Context, _ int) error {
	if c.limiter.Allow() {
		return nil
	}
	metrics.UpstreamRateLimitWaits.Inc()
	return c.limiter.Wait(ctx)
}

// isUpstreamFailure decides which errors count against the breaker: the API
// being down or overloaded does, answers about the request itself don't.
func isUpstreamFailure(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrUnsuccessful) || errors.Is(err, ErrMalformed) {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.Status >= 500 || se.Status == http.StatusTooManyRequests
	}
	return true
}

// canFallBack reports errors where a stale copy beats no answer.
func canFallBack(err error) bool {
	if errors.Is(err, circuitbreaker.ErrCircuitOpen) {
		return true
	}
	return isUpstreamFailure(err)
}
