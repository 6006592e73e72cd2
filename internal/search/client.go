// Package search issues paced, retried queries against a place-search
// source and normalizes results into venue candidates.
package search

import (
	"context"
	"errors"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/courtscout/internal/resilience"
	"github.com/sells-group/courtscout/internal/venue"
)

// ErrMalformed marks a response body that could not be parsed.
var ErrMalformed = eris.New("search: malformed response")

// Source is a place-search backend.
type Source interface {
	Name() string
	Search(ctx context.Context, query string) ([]venue.Candidate, error)
}

// MalformedPolicy decides what a malformed response turns into.
type MalformedPolicy int

const (
	// MalformedEmpty treats a malformed body as an empty result set.
	MalformedEmpty MalformedPolicy = iota
	// MalformedRetry retries a malformed body as a transient fault and fails
	// once attempts are exhausted.
	MalformedRetry
)

func (p MalformedPolicy) String() string {
	if p == MalformedRetry {
		return "retry"
	}
	return "empty"
}

// Options configures a Client.
type Options struct {
	// Delay is the minimum spacing between attempts. Zero disables pacing.
	Delay time.Duration
	// Timeout bounds each individual attempt.
	Timeout   time.Duration
	Retry     resilience.RetryConfig
	Malformed MalformedPolicy
}

// Client wraps a Source with pacing, per-call timeouts and bounded retry.
type Client struct {
	src       Source
	limiter   *rate.Limiter
	timeout   time.Duration
	retry     resilience.RetryConfig
	malformed MalformedPolicy
	log       *zap.Logger
}

// NewClient creates a Client for src.
func NewClient(src Source, opts Options) *Client {
	limit := rate.Inf
	if opts.Delay > 0 {
		limit = rate.Every(opts.Delay)
	}
	c := &Client{
		src:       src,
		limiter:   rate.NewLimiter(limit, 1),
		timeout:   opts.Timeout,
		retry:     opts.Retry,
		malformed: opts.Malformed,
		log:       zap.L().With(zap.String("component", "search"), zap.String("source", src.Name())),
	}
	c.retry.ShouldRetry = c.shouldRetry
	if c.retry.OnRetry == nil {
		c.retry.OnRetry = resilience.RetryLogger(src.Name(), "search")
	}
	return c
}

// Source returns the underlying source name.
func (c *Client) Source() string {
	return c.src.Name()
}

// Search runs query against the source. A nil slice with a nil error means
// the query legitimately produced nothing.
func (c *Client) Search(ctx context.Context, query string) ([]venue.Candidate, error) {
	results, err := resilience.DoVal(ctx, c.retry, func(ctx context.Context) ([]venue.Candidate, error) {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, eris.Wrap(err, "search: pacing")
		}
		callCtx := ctx
		if c.timeout > 0 {
			var cancel context.CancelFunc
			callCtx, cancel = context.WithTimeout(ctx, c.timeout)
			defer cancel()
		}
		return c.src.Search(callCtx, query)
	})
	if err != nil {
		if errors.Is(err, ErrMalformed) && c.malformed == MalformedEmpty {
			c.log.Warn("malformed response, treating as empty", zap.String("query", query), zap.Error(err))
			return nil, nil
		}
		return nil, eris.Wrapf(err, "search: %s query %q", c.src.Name(), query)
	}
	return results, nil
}

func (c *Client) shouldRetry(err error) bool {
	if errors.Is(err, ErrMalformed) {
		return c.malformed == MalformedRetry
	}
	return resilience.IsTransient(err)
}
