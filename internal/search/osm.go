package search

import (
	"context"
	"errors"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/courtscout/internal/venue"
	"github.com/sells-group/courtscout/pkg/geocode"
	"github.com/sells-group/courtscout/pkg/overpass"
)

// DefaultCourtName names OSM pitches that carry no name tag.
const DefaultCourtName = "Basketball Court"

// OSMSource runs Overpass tag queries. The query string passed to Search is
// Overpass QL, usually built with overpass.BuildQuery.
type OSMSource struct {
	client   overpass.Client
	geocoder geocode.Client
}

// NewOSMSource creates an OSMSource. geocoder may be nil; elements without
// address tags then carry no region label.
func NewOSMSource(client overpass.Client, geocoder geocode.Client) *OSMSource {
	return &OSMSource{client: client, geocoder: geocoder}
}

// Name implements Source.
func (s *OSMSource) Name() string { return string(venue.SourceOSM) }

// Search implements Source.
func (s *OSMSource) Search(ctx context.Context, ql string) ([]venue.Candidate, error) {
	resp, err := s.client.Query(ctx, ql)
	if err != nil {
		if errors.Is(err, overpass.ErrMalformed) {
			return nil, eris.Wrap(ErrMalformed, err.Error())
		}
		return nil, err
	}

	out := make([]venue.Candidate, 0, len(resp.Elements))
	for _, e := range resp.Elements {
		c := venue.Candidate{
			Name:  strings.TrimSpace(e.Tag("name")),
			Types: []string{e.Type},
			Tags:  e.Tags,
		}
		if c.Name == "" {
			c.Name = DefaultCourtName
		}
		if p, ok := e.Center(); ok {
			c.Location = &p
			c.FormattedAddress = s.address(ctx, e, p.Lat(), p.Lon())
			c.RegionLabel = venue.RegionLabel(c.FormattedAddress)
		}
		out = append(out, c)
	}
	return out, nil
}

// address builds an address from addr:* tags, falling back to reverse
// geocoding when the tags lack a city or state.
func (s *OSMSource) address(ctx context.Context, e overpass.Element, lat, lng float64) string {
	if addr := addressFromTags(e.Tags); addr != "" {
		return addr
	}
	if s.geocoder == nil {
		return ""
	}
	res, err := s.geocoder.Reverse(ctx, lat, lng)
	if err != nil {
		zap.L().Debug("osm: reverse geocode failed",
			zap.Int64("osm_id", e.ID),
			zap.Error(err),
		)
		return ""
	}
	if !res.Matched {
		return ""
	}
	return res.FormattedAddress
}

// addressFromTags formats "<number> <street>, <city>, <ST> <zip>". It returns
// "" unless both addr:city and addr:state are present.
func addressFromTags(tags map[string]string) string {
	city := strings.TrimSpace(tags["addr:city"])
	state := strings.ToUpper(strings.TrimSpace(tags["addr:state"]))
	if city == "" || len(state) != 2 {
		return ""
	}

	parts := make([]string, 0, 3)
	street := strings.TrimSpace(strings.TrimSpace(tags["addr:housenumber"]) + " " + strings.TrimSpace(tags["addr:street"]))
	if street != "" {
		parts = append(parts, street)
	}
	parts = append(parts, city)
	stateZip := state
	if zip := strings.TrimSpace(tags["addr:postcode"]); zip != "" {
		stateZip += " " + zip
	}
	parts = append(parts, stateZip)
	return strings.Join(parts, ", ")
}
