package geocode

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

// newTestClient starts a server with handler and returns a client pointed at it
// with rate limiting effectively disabled.
func newTestClient(t *testing.T, handler http.HandlerFunc) Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient("test-key", WithBaseURL(srv.URL), WithRateLimit(1000))
}
