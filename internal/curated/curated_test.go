package curated

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/courtscout/pkg/geocode"
)

const seedYAML = `
region: il
indoor: true
venues:
  - name: Kroc Center
    address: 1250 W 119th St, Chicago, IL 60643, USA
    venue_type: rec_center
    access: paid
  - name: Foster Park Fieldhouse
    lat: 41.7505
    lng: -87.6480
  - name: Unknown Gym
    address: nowhere
`

type fakeGeocoder struct {
	mu       sync.Mutex
	forward  map[string]*geocode.Result
	reverse  *geocode.Result
	failFor  string
	addrSeen []string
}

func (f *fakeGeocoder) Geocode(_ context.Context, address string) (*geocode.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.addrSeen = append(f.addrSeen, address)
	if address == f.failFor {
		return nil, errors.New("status 500")
	}
	if r, ok := f.forward[address]; ok {
		return r, nil
	}
	return &geocode.Result{}, nil
}

func (f *fakeGeocoder) Reverse(context.Context, float64, float64) (*geocode.Result, error) {
	if f.reverse == nil {
		return &geocode.Result{}, nil
	}
	return f.reverse, nil
}

func TestParse(t *testing.T) {
	sf, err := Parse([]byte(seedYAML))
	require.NoError(t, err)
	assert.Equal(t, "IL", sf.Region)
	assert.True(t, sf.Indoor)
	require.Len(t, sf.Venues, 3)
	require.NotNil(t, sf.Venues[1].Lat)
	assert.InDelta(t, 41.7505, *sf.Venues[1].Lat, 1e-9)
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"no region", "venues: []", "region is required"},
		{"no name", "region: IL\nvenues:\n  - address: x", "name is required"},
		{"half coords", "region: IL\nvenues:\n  - name: A\n    lat: 41", "set together"},
		{"bad coords", "region: IL\nvenues:\n  - name: A\n    lat: 91\n    lng: 0", "out of range"},
		{"nothing to locate", "region: IL\nvenues:\n  - name: A", "address or coordinates"},
		{"bad access", "region: IL\nvenues:\n  - name: A\n    address: x\n    access: vip", "unknown access"},
		{"bad type", "region: IL\nvenues:\n  - name: A\n    address: x\n    venue_type: arena", "unknown venue_type"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seeds.yaml")
	require.NoError(t, os.WriteFile(path, []byte(seedYAML), 0o600))
	sf, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, sf.Venues, 3)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestResolve(t *testing.T) {
	sf, err := Parse([]byte(seedYAML))
	require.NoError(t, err)

	gc := &fakeGeocoder{
		forward: map[string]*geocode.Result{},
		reverse: &geocode.Result{
			Latitude: 41.7505, Longitude: -87.6480, Matched: true,
			FormattedAddress: "1440 W 84th St, Chicago, IL 60620, USA",
		},
	}
	r := &Resolver{Geocoder: gc, Concurrency: 2}
	cands, stats, err := r.Resolve(context.Background(), sf.Venues)
	require.NoError(t, err)
	require.Len(t, cands, 3)

	// Address carries a region label; no coordinates yet so it is geocoded
	// and the fake returns no match.
	assert.Equal(t, "Kroc Center", cands[0].Name)
	assert.Equal(t, "Chicago, IL", cands[0].RegionLabel)
	assert.Equal(t, "rec_center", cands[0].Tags["venue_type"])
	assert.Equal(t, "paid", cands[0].Tags["access"])

	require.True(t, cands[1].HasLocation())
	assert.Equal(t, "Chicago, IL", cands[1].RegionLabel)
	assert.InDelta(t, 41.7505, cands[1].Location.Lat(), 1e-9)

	assert.False(t, cands[2].HasLocation())

	assert.Equal(t, 1, stats.Geocoded)
	assert.Equal(t, 2, stats.Unmatched)
	assert.Zero(t, stats.Failed)
}

func TestResolve_ForwardGeocode(t *testing.T) {
	addr := "1250 W 119th St, Chicago, IL 60643, USA"
	gc := &fakeGeocoder{forward: map[string]*geocode.Result{
		addr: {Latitude: 41.677, Longitude: -87.655, Matched: true, FormattedAddress: addr},
	}, failFor: "broken"}

	seeds := []Seed{{Name: "Kroc Center", Address: addr}, {Name: "Broken", Address: "broken"}}
	cands, stats, err := (&Resolver{Geocoder: gc}).Resolve(context.Background(), seeds)
	require.NoError(t, err)
	require.True(t, cands[0].HasLocation())
	assert.InDelta(t, -87.655, cands[0].Location.Lon(), 1e-9)
	assert.False(t, cands[1].HasLocation())
	assert.Equal(t, 1, stats.Geocoded)
	assert.Equal(t, 1, stats.Failed)
}

func TestResolve_NoGeocoder(t *testing.T) {
	lat, lng := 41.0, -88.0
	seeds := []Seed{
		{Name: "Placed", Address: "1 Main St, Kankakee, IL 60901", Lat: &lat, Lng: &lng},
		{Name: "Unplaced", Address: "1 Main St, Kankakee, IL 60901"},
	}
	cands, stats, err := (&Resolver{}).Resolve(context.Background(), seeds)
	require.NoError(t, err)
	assert.True(t, cands[0].HasLocation())
	assert.Equal(t, "Kankakee, IL", cands[0].RegionLabel)
	assert.False(t, cands[1].HasLocation())
	assert.Equal(t, ResolveStats{}, stats)
}

func TestResolve_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	gc := &cancelGeocoder{}
	_, _, err := (&Resolver{Geocoder: gc}).Resolve(ctx, []Seed{{Name: "A", Address: "x"}})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

type cancelGeocoder struct{}

func (cancelGeocoder) Geocode(ctx context.Context, _ string) (*geocode.Result, error) {
	return nil, ctx.Err()
}

func (cancelGeocoder) Reverse(ctx context.Context, _, _ float64) (*geocode.Result, error) {
	return nil, ctx.Err()
}
