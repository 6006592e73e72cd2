// Package overpass provides a minimal client for the OpenStreetMap Overpass API.
package overpass

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/paulmach/orb"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"

	"github.com/sells-group/courtscout/internal/resilience"
)

const (
	defaultBaseURL = "https://overpass-api.de/api"

	// ServerTimeoutSecs is the [timeout:N] budget requested from the server.
	ServerTimeoutSecs = 300
)

// ErrMalformed is returned when a 200 response body cannot be decoded.
var ErrMalformed = eris.New("overpass: malformed response")

// Client runs Overpass QL queries.
type Client interface {
	Query(ctx context.Context, ql string) (*Response, error)
}

// Response is the JSON document returned for [out:json] queries.
type Response struct {
	Elements []Element `json:"elements"`
}

// Element is a node or way. Ways carry their geometry when queried with
// "out geom".
type Element struct {
	Type     string            `json:"type"`
	ID       int64             `json:"id"`
	Lat      float64           `json:"lat,omitempty"`
	Lon      float64           `json:"lon,omitempty"`
	Geometry []LatLon          `json:"geometry,omitempty"`
	Bounds   *ElementBounds    `json:"bounds,omitempty"`
	Tags     map[string]string `json:"tags,omitempty"`
}

// LatLon is a single vertex of a way.
type LatLon struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// ElementBounds is the bounding box Overpass attaches to ways.
type ElementBounds struct {
	MinLat float64 `json:"minlat"`
	MinLon float64 `json:"minlon"`
	MaxLat float64 `json:"maxlat"`
	MaxLon float64 `json:"maxlon"`
}

// Center returns the element's representative point. Nodes use their own
// coordinates; ways use the center of their geometry bounds. ok is false when
// the element carries no usable position.
func (e Element) Center() (p orb.Point, ok bool) {
	switch e.Type {
	case "node":
		return orb.Point{e.Lon, e.Lat}, true
	case "way":
		if len(e.Geometry) > 0 {
			flat := make([]float64, 0, 2*len(e.Geometry))
			for _, v := range e.Geometry {
				flat = append(flat, v.Lon, v.Lat)
			}
			b := geom.NewLineStringFlat(geom.XY, flat).Bounds()
			return orb.Point{
				(b.Min(0) + b.Max(0)) / 2,
				(b.Min(1) + b.Max(1)) / 2,
			}, true
		}
		if e.Bounds != nil {
			return orb.Point{
				(e.Bounds.MinLon + e.Bounds.MaxLon) / 2,
				(e.Bounds.MinLat + e.Bounds.MaxLat) / 2,
			}, true
		}
	}
	return orb.Point{}, false
}

// Tag returns the tag value for key, or "".
func (e Element) Tag(key string) string {
	return e.Tags[key]
}

// BuildQuery builds a query for leisure=pitch nodes and ways tagged with the
// given sport inside bbox.
func BuildQuery(bbox orb.Bound, sport string) string {
	area := fmt.Sprintf("%.6f,%.6f,%.6f,%.6f", bbox.Min.Lat(), bbox.Min.Lon(), bbox.Max.Lat(), bbox.Max.Lon())
	var b strings.Builder
	fmt.Fprintf(&b, "[out:json][timeout:%d];\n", ServerTimeoutSecs)
	b.WriteString("(\n")
	fmt.Fprintf(&b, "  node[\"leisure\"=\"pitch\"][\"sport\"=\"%s\"](%s);\n", sport, area)
	fmt.Fprintf(&b, "  way[\"leisure\"=\"pitch\"][\"sport\"=\"%s\"](%s);\n", sport, area)
	b.WriteString(");\n")
	b.WriteString("out geom;")
	return b.String()
}

// SplitBound divides b into a rows x cols grid of tiles, south-west first.
func SplitBound(b orb.Bound, rows, cols int) []orb.Bound {
	if rows < 1 {
		rows = 1
	}
	if cols < 1 {
		cols = 1
	}
	dLat := (b.Max.Lat() - b.Min.Lat()) / float64(rows)
	dLon := (b.Max.Lon() - b.Min.Lon()) / float64(cols)

	tiles := make([]orb.Bound, 0, rows*cols)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			minLat := b.Min.Lat() + float64(r)*dLat
			minLon := b.Min.Lon() + float64(c)*dLon
			tiles = append(tiles, orb.Bound{
				Min: orb.Point{minLon, minLat},
				Max: orb.Point{minLon + dLon, minLat + dLat},
			})
		}
	}
	return tiles
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default API base URL.
func WithBaseURL(u string) Option {
	return func(c *httpClient) {
		c.baseURL = strings.TrimRight(u, "/")
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

type httpClient struct {
	baseURL string
	http    *http.Client
}

// NewClient creates an Overpass client.
func NewClient(opts ...Option) Client {
	c := &httpClient{
		baseURL: defaultBaseURL,
		http:    &http.Client{Timeout: (ServerTimeoutSecs + 30) * time.Second},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *httpClient) Query(ctx context.Context, ql string) (*Response, error) {
	form := url.Values{"data": {ql}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/interpreter", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, eris.Wrap(err, "overpass: create request")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "overpass: send request")
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "overpass: read response")
	}

	if resp.StatusCode != http.StatusOK {
		statusErr := eris.Errorf("overpass: unexpected status %d", resp.StatusCode)
		if resilience.IsTransientHTTPStatus(resp.StatusCode) {
			return nil, resilience.NewTransientError(statusErr, resp.StatusCode)
		}
		return nil, statusErr
	}

	var out Response
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, eris.Wrapf(ErrMalformed, "overpass: decode: %v", err)
	}
	return &out, nil
}
