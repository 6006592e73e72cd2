package search

import (
	"context"
	"errors"

	"github.com/rotisserie/eris"

	"github.com/sells-group/courtscout/internal/geo"
	"github.com/sells-group/courtscout/internal/venue"
	"github.com/sells-group/courtscout/pkg/google"
)

// PlacesSource searches Google Places by free text.
type PlacesSource struct {
	client     google.Client
	maxResults int
}

// NewPlacesSource creates a PlacesSource.
func NewPlacesSource(client google.Client, maxResults int) *PlacesSource {
	return &PlacesSource{client: client, maxResults: maxResults}
}

// Name implements Source.
func (s *PlacesSource) Name() string { return string(venue.SourceGoogle) }

// Search implements Source.
func (s *PlacesSource) Search(ctx context.Context, query string) ([]venue.Candidate, error) {
	resp, err := s.client.TextSearch(ctx, google.TextSearchRequest{
		TextQuery:      query,
		MaxResultCount: s.maxResults,
	})
	if err != nil {
		if errors.Is(err, google.ErrMalformedResponse) {
			return nil, eris.Wrap(ErrMalformed, err.Error())
		}
		return nil, err
	}

	out := make([]venue.Candidate, 0, len(resp.Places))
	for _, p := range resp.Places {
		c := venue.Candidate{
			Name:             p.DisplayName.Text,
			FormattedAddress: p.FormattedAddress,
			Types:            p.Types,
			RegionLabel:      venue.RegionLabel(p.FormattedAddress),
		}
		if p.ID != "" {
			c.Tags = map[string]string{"place_id": p.ID}
		}
		if p.Location != nil {
			pt := geo.Point(p.Location.Latitude, p.Location.Longitude)
			c.Location = &pt
		}
		out = append(out, c)
	}
	return out, nil
}
