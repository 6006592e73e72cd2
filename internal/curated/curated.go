// Package curated loads hand-maintained venue seed lists and resolves them
// into pipeline candidates.
package curated

import (
	"context"
	"os"
	"strings"
	"sync/atomic"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/courtscout/internal/geo"
	"github.com/sells-group/courtscout/internal/venue"
	"github.com/sells-group/courtscout/pkg/geocode"
)

// SeedFile is the on-disk seed list for one region.
type SeedFile struct {
	Region string `yaml:"region"`
	Indoor bool   `yaml:"indoor"`
	Venues []Seed `yaml:"venues"`
}

// Seed is one curated venue. Lat and Lng are optional; without them the
// address is geocoded. Access and VenueType override classification.
type Seed struct {
	Name      string   `yaml:"name"`
	Address   string   `yaml:"address"`
	Lat       *float64 `yaml:"lat"`
	Lng       *float64 `yaml:"lng"`
	Access    string   `yaml:"access"`
	VenueType string   `yaml:"venue_type"`
}

// Load reads and validates a seed file.
func Load(path string) (*SeedFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "curated: read %s", path)
	}
	return Parse(data)
}

// Parse decodes and validates seed YAML.
func Parse(data []byte) (*SeedFile, error) {
	var sf SeedFile
	if err := yaml.Unmarshal(data, &sf); err != nil {
		return nil, eris.Wrap(err, "curated: parse seeds")
	}
	if err := sf.Validate(); err != nil {
		return nil, err
	}
	return &sf, nil
}

// Validate checks the region and every seed entry.
func (sf *SeedFile) Validate() error {
	sf.Region = strings.ToUpper(strings.TrimSpace(sf.Region))
	if sf.Region == "" {
		return eris.New("curated: region is required")
	}
	for i, s := range sf.Venues {
		if strings.TrimSpace(s.Name) == "" {
			return eris.Errorf("curated: venue %d: name is required", i)
		}
		if (s.Lat == nil) != (s.Lng == nil) {
			return eris.Errorf("curated: venue %q: lat and lng must be set together", s.Name)
		}
		if s.Lat != nil && !geo.ValidCoordinates(*s.Lat, *s.Lng) {
			return eris.Errorf("curated: venue %q: coordinates out of range", s.Name)
		}
		if s.Lat == nil && strings.TrimSpace(s.Address) == "" {
			return eris.Errorf("curated: venue %q: address or coordinates required", s.Name)
		}
		if s.Access != "" && !venue.Access(s.Access).Valid() {
			return eris.Errorf("curated: venue %q: unknown access %q", s.Name, s.Access)
		}
		if s.VenueType != "" && !venue.VenueType(s.VenueType).Valid() {
			return eris.Errorf("curated: venue %q: unknown venue_type %q", s.Name, s.VenueType)
		}
	}
	return nil
}

// ResolveStats counts geocoding outcomes.
type ResolveStats struct {
	Geocoded  int
	Unmatched int
	Failed    int
}

// Resolver turns seeds into candidates, geocoding where needed.
type Resolver struct {
	Geocoder    geocode.Client // nil disables geocoding
	Concurrency int
}

// Resolve returns one candidate per seed, in seed order. A seed that cannot be
// located yields a candidate without a location, which the pipeline counts as
// missing coordinates. Only ctx cancellation is returned as an error.
func (r *Resolver) Resolve(ctx context.Context, seeds []Seed) ([]venue.Candidate, ResolveStats, error) {
	log := zap.L().With(zap.String("component", "curated"))
	out := make([]venue.Candidate, len(seeds))

	limit := r.Concurrency
	if limit <= 0 {
		limit = 1
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	var geocoded, unmatched, failed atomic.Int64

	for i, s := range seeds {
		out[i] = seedCandidate(s)
		if out[i].HasLocation() && out[i].RegionLabel != "" {
			continue
		}
		if r.Geocoder == nil {
			continue
		}
		g.Go(func() error {
			res, err := r.lookup(gctx, s)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				failed.Add(1)
				log.Warn("geocode failed", zap.String("name", s.Name), zap.Error(err))
				return nil
			}
			if !res.Matched {
				unmatched.Add(1)
				log.Warn("geocode returned no match", zap.String("name", s.Name), zap.String("address", s.Address))
				return nil
			}
			geocoded.Add(1)
			c := &out[i]
			if !c.HasLocation() {
				p := geo.Point(res.Latitude, res.Longitude)
				c.Location = &p
			}
			if c.FormattedAddress == "" {
				c.FormattedAddress = res.FormattedAddress
			}
			if c.RegionLabel == "" {
				c.RegionLabel = venue.RegionLabel(res.FormattedAddress)
			}
			return nil
		})
	}

	err := g.Wait()
	stats := ResolveStats{
		Geocoded:  int(geocoded.Load()),
		Unmatched: int(unmatched.Load()),
		Failed:    int(failed.Load()),
	}
	if err != nil {
		return nil, stats, eris.Wrap(err, "curated: resolve seeds")
	}
	log.Info("seeds resolved",
		zap.Int("seeds", len(seeds)),
		zap.Int("geocoded", stats.Geocoded),
		zap.Int("unmatched", stats.Unmatched),
		zap.Int("failed", stats.Failed),
	)
	return out, stats, nil
}

// lookup reverse-geocodes seeds with coordinates and forward-geocodes the rest.
func (r *Resolver) lookup(ctx context.Context, s Seed) (*geocode.Result, error) {
	if s.Lat != nil {
		return r.Geocoder.Reverse(ctx, *s.Lat, *s.Lng)
	}
	return r.Geocoder.Geocode(ctx, s.Address)
}

func seedCandidate(s Seed) venue.Candidate {
	c := venue.Candidate{
		Name:             strings.TrimSpace(s.Name),
		FormattedAddress: strings.TrimSpace(s.Address),
		Tags:             map[string]string{},
	}
	if s.Lat != nil {
		p := geo.Point(*s.Lat, *s.Lng)
		c.Location = &p
	}
	c.RegionLabel = venue.RegionLabel(c.FormattedAddress)
	if s.VenueType != "" {
		c.Tags["venue_type"] = s.VenueType
	}
	if s.Access != "" {
		c.Tags["access"] = s.Access
	}
	return c
}
