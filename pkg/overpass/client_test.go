package overpass

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/courtscout/internal/resilience"
)

func TestBuildQuery(t *testing.T) {
	b := orb.Bound{Min: orb.Point{-91.51, 36.97}, Max: orb.Point{-87.02, 42.51}}
	q := BuildQuery(b, "basketball")

	assert.Contains(t, q, "[out:json][timeout:300];")
	assert.Contains(t, q, `node["leisure"="pitch"]["sport"="basketball"](36.970000,-91.510000,42.510000,-87.020000);`)
	assert.Contains(t, q, `way["leisure"="pitch"]["sport"="basketball"](36.970000,-91.510000,42.510000,-87.020000);`)
	assert.Contains(t, q, "out geom;")
}

func TestSplitBound(t *testing.T) {
	b := orb.Bound{Min: orb.Point{-90, 40}, Max: orb.Point{-88, 42}}
	tiles := SplitBound(b, 2, 2)
	require.Len(t, tiles, 4)

	assert.InDelta(t, -90, tiles[0].Min.Lon(), 1e-9)
	assert.InDelta(t, 40, tiles[0].Min.Lat(), 1e-9)
	assert.InDelta(t, -89, tiles[0].Max.Lon(), 1e-9)
	assert.InDelta(t, 41, tiles[0].Max.Lat(), 1e-9)
	assert.InDelta(t, -88, tiles[3].Max.Lon(), 1e-9)
	assert.InDelta(t, 42, tiles[3].Max.Lat(), 1e-9)

	assert.Len(t, SplitBound(b, 0, 0), 1)
}

func TestElementCenter(t *testing.T) {
	node := Element{Type: "node", Lat: 41.9, Lon: -87.6}
	p, ok := node.Center()
	require.True(t, ok)
	assert.Equal(t, orb.Point{-87.6, 41.9}, p)

	way := Element{Type: "way", Geometry: []LatLon{
		{Lat: 41.0, Lon: -88.0},
		{Lat: 41.0, Lon: -87.998},
		{Lat: 41.002, Lon: -87.998},
		{Lat: 41.002, Lon: -88.0},
	}}
	p, ok = way.Center()
	require.True(t, ok)
	assert.InDelta(t, -87.999, p.Lon(), 1e-9)
	assert.InDelta(t, 41.001, p.Lat(), 1e-9)

	boundsOnly := Element{Type: "way", Bounds: &ElementBounds{MinLat: 40, MinLon: -89, MaxLat: 40.002, MaxLon: -88.998}}
	p, ok = boundsOnly.Center()
	require.True(t, ok)
	assert.InDelta(t, 40.001, p.Lat(), 1e-9)

	_, ok = Element{Type: "way"}.Center()
	assert.False(t, ok)
	_, ok = Element{Type: "relation"}.Center()
	assert.False(t, ok)
}

func TestQuery_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/interpreter", r.URL.Path)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "[out:json];node(1);out;", r.PostForm.Get("data"))

		_, _ = w.Write([]byte(`{"elements":[
			{"type":"node","id":1,"lat":41.9,"lon":-87.6,"tags":{"leisure":"pitch","sport":"basketball","name":"Welles Park Courts"}},
			{"type":"way","id":2,"geometry":[{"lat":41.0,"lon":-88.0},{"lat":41.001,"lon":-87.999}],"tags":{"leisure":"pitch"}}
		]}`))
	}))
	defer srv.Close()

	c := NewClient(WithBaseURL(srv.URL + "/"))
	resp, err := c.Query(context.Background(), "[out:json];node(1);out;")
	require.NoError(t, err)
	require.Len(t, resp.Elements, 2)
	assert.Equal(t, "Welles Park Courts", resp.Elements[0].Tag("name"))
	assert.Equal(t, "way", resp.Elements[1].Type)
	assert.Len(t, resp.Elements[1].Geometry, 2)
}

func TestQuery_TransientStatus(t *testing.T) {
	for _, code := range []int{http.StatusTooManyRequests, http.StatusGatewayTimeout} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(code)
		}))
		c := NewClient(WithBaseURL(srv.URL))
		_, err := c.Query(context.Background(), "q")
		srv.Close()

		require.Error(t, err)
		assert.True(t, resilience.IsRateLimited(err), "status %d", code)
	}
}

func TestQuery_BadRequest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	_, err := NewClient(WithBaseURL(srv.URL)).Query(context.Background(), "bad")
	require.Error(t, err)
	assert.False(t, resilience.IsTransient(err))
}

func TestQuery_Malformed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<html>runtime error: Query timed out</html>`))
	}))
	defer srv.Close()

	_, err := NewClient(WithBaseURL(srv.URL)).Query(context.Background(), "q")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMalformed))
}
