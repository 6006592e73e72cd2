package store

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/courtscout/internal/resilience"
	"github.com/sells-group/courtscout/internal/venue"
)

// HTTPStore talks to a remote records API.
type HTTPStore struct {
	baseURL string
	http    *http.Client
	retry   resilience.RetryConfig
}

// HTTPOption configures an HTTPStore.
type HTTPOption func(*HTTPStore)

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) HTTPOption {
	return func(s *HTTPStore) {
		s.http = hc
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) HTTPOption {
	return func(s *HTTPStore) {
		if d > 0 {
			s.http.Timeout = d
		}
	}
}

// WithRetry overrides the retry policy. Every endpoint is idempotent so all
// calls are retried on transient faults.
func WithRetry(cfg resilience.RetryConfig) HTTPOption {
	return func(s *HTTPStore) {
		s.retry = cfg
	}
}

// NewHTTP creates an HTTPStore rooted at baseURL.
func NewHTTP(baseURL string, opts ...HTTPOption) *HTTPStore {
	s := &HTTPStore{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
		retry:   resilience.DefaultRetryConfig(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// List implements Store.
func (s *HTTPStore) List(ctx context.Context) ([]venue.Record, error) {
	var out []venue.Record
	err := s.do(ctx, http.MethodGet, "/records", "", &out)
	if err != nil {
		return nil, eris.Wrap(err, "store: list records")
	}
	return out, nil
}

// Create implements Store.
func (s *HTTPStore) Create(ctx context.Context, r venue.Record) (bool, error) {
	var res CreateResult
	if err := s.do(ctx, http.MethodPost, "/records/create", RecordQuery(r).Encode(), &res); err != nil {
		return false, eris.Wrapf(err, "store: create %s", r.ID)
	}
	return res.Created, nil
}

// UpdateType implements Store.
func (s *HTTPStore) UpdateType(ctx context.Context, req UpdateTypeRequest) (int64, error) {
	if err := req.Validate(); err != nil {
		return 0, err
	}
	var res UpdateResult
	if err := s.do(ctx, http.MethodPost, "/records/update-type", UpdateTypeQuery(req).Encode(), &res); err != nil {
		return 0, eris.Wrapf(err, "store: update type %q", req.NamePattern)
	}
	return res.Updated, nil
}

// Migrate is a no-op; the remote service owns its schema.
func (s *HTTPStore) Migrate(context.Context) error { return nil }

// Close is a no-op.
func (s *HTTPStore) Close() error { return nil }

func (s *HTTPStore) do(ctx context.Context, method, path, rawQuery string, out any) error {
	return resilience.Do(ctx, s.retry, func(ctx context.Context) error {
		u := s.baseURL + path
		if rawQuery != "" {
			u += "?" + rawQuery
		}
		req, err := http.NewRequestWithContext(ctx, method, u, nil)
		if err != nil {
			return eris.Wrap(err, "build request")
		}
		req.Header.Set("Accept", "application/json")

		resp, err := s.http.Do(req)
		if err != nil {
			return eris.Wrap(err, "send request")
		}
		defer resp.Body.Close() //nolint:errcheck

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return eris.Wrap(err, "read response")
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			statusErr := eris.Errorf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
			if resilience.IsTransientHTTPStatus(resp.StatusCode) {
				return resilience.NewTransientError(statusErr, resp.StatusCode)
			}
			return statusErr
		}
		if err := json.Unmarshal(body, out); err != nil {
			return eris.Wrap(err, "decode response")
		}
		return nil
	})
}
