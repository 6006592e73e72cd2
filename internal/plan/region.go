package plan

import (
	_ "embed"
	"os"
	"sort"
	"strings"

	"github.com/paulmach/orb"
	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

//go:embed regions.yaml
var defaultRegions []byte

// Region is a top-level administrative region with its cities ranked by
// expected venue density, largest first.
type Region struct {
	Name   string   `yaml:"name"`
	Code   string   `yaml:"code"`
	Cities []string `yaml:"cities"`
	// BBox is [south, west, north, east] in degrees.
	BBox [4]float64 `yaml:"bbox"`
}

// Bound returns the region bounding box as an orb.Bound.
func (r Region) Bound() orb.Bound {
	return orb.Bound{
		Min: orb.Point{r.BBox[1], r.BBox[0]},
		Max: orb.Point{r.BBox[3], r.BBox[2]},
	}
}

// HasBound reports whether a bounding box was configured.
func (r Region) HasBound() bool {
	return r.BBox != [4]float64{}
}

// Regions indexes regions by upper-case code.
type Regions map[string]Region

type regionsFile struct {
	Regions []Region `yaml:"regions"`
}

// LoadRegions reads a regions YAML file. An empty path loads the embedded
// default table.
func LoadRegions(path string) (Regions, error) {
	data := defaultRegions
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, eris.Wrapf(err, "plan: read regions file %s", path)
		}
		data = b
	}
	return ParseRegions(data)
}

// ParseRegions decodes a regions YAML document.
func ParseRegions(data []byte) (Regions, error) {
	var f regionsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, eris.Wrap(err, "plan: parse regions")
	}

	out := make(Regions, len(f.Regions))
	for _, r := range f.Regions {
		code := strings.ToUpper(strings.TrimSpace(r.Code))
		if code == "" {
			return nil, eris.Errorf("plan: region %q has no code", r.Name)
		}
		if _, dup := out[code]; dup {
			return nil, eris.Errorf("plan: duplicate region code %s", code)
		}
		r.Code = code
		out[code] = r
	}
	return out, nil
}

// Get returns the region for code.
func (rs Regions) Get(code string) (Region, error) {
	r, ok := rs[strings.ToUpper(strings.TrimSpace(code))]
	if !ok {
		return Region{}, eris.Errorf("plan: unknown region %q (known: %s)", code, strings.Join(rs.Codes(), ", "))
	}
	return r, nil
}

// Codes returns all region codes sorted.
func (rs Regions) Codes() []string {
	codes := make([]string, 0, len(rs))
	for c := range rs {
		codes = append(codes, c)
	}
	sort.Strings(codes)
	return codes
}
