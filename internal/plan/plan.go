// Package plan generates the ordered list of search queries for a region.
//
// Cities are ranked largest first. The first TopTierSize cities get one query
// per top category, the next MidTierSize cities one per mid category, and the
// rest one per tail category. A region-wide sweep of chains and categories is
// appended once.
package plan

import (
	"fmt"

	"github.com/rotisserie/eris"
)

// Tier identifies the coverage level assigned to a ranked city.
type Tier int

// Tiers, from most to least coverage.
const (
	TierTop Tier = iota + 1
	TierMid
	TierTail
)

// String returns the tier name.
func (t Tier) String() string {
	switch t {
	case TierTop:
		return "top"
	case TierMid:
		return "mid"
	case TierTail:
		return "tail"
	default:
		return "unknown"
	}
}

// Policy controls how many queries each ranked city receives.
type Policy struct {
	TopTierSize    int
	MidTierSize    int
	TopCategories  []string
	MidCategories  []string
	TailCategories []string
	RegionSweep    []string
}

// Validate rejects policies whose category lists would not shrink (or stay
// equal) from top tier to tail.
func (p Policy) Validate() error {
	if p.TopTierSize < 0 || p.MidTierSize < 0 {
		return eris.New("plan: tier sizes must be >= 0")
	}
	if len(p.TailCategories) == 0 {
		return eris.New("plan: at least one tail category is required")
	}
	if len(p.TopCategories) < len(p.MidCategories) || len(p.MidCategories) < len(p.TailCategories) {
		return eris.Errorf("plan: category counts must be non-increasing by tier (top=%d mid=%d tail=%d)",
			len(p.TopCategories), len(p.MidCategories), len(p.TailCategories))
	}
	return nil
}

// TierFor returns the tier for a zero-based city rank.
func (p Policy) TierFor(rank int) Tier {
	switch {
	case rank < p.TopTierSize:
		return TierTop
	case rank < p.TopTierSize+p.MidTierSize:
		return TierMid
	default:
		return TierTail
	}
}

// QueriesForCity returns the queries for one city at the given zero-based rank.
func (p Policy) QueriesForCity(rank int, city, regionCode string) []string {
	var cats []string
	switch p.TierFor(rank) {
	case TierTop:
		cats = p.TopCategories
	case TierMid:
		cats = p.MidCategories
	default:
		cats = p.TailCategories
	}

	out := make([]string, 0, len(cats))
	for _, c := range cats {
		out = append(out, fmt.Sprintf("%s in %s, %s", c, city, regionCode))
	}
	return out
}

// Plan is the immutable query list for one region run.
type Plan struct {
	RegionName string
	RegionCode string
	Queries    []string
}

// Generate builds the plan for a region.
func Generate(region Region, policy Policy) (Plan, error) {
	if err := policy.Validate(); err != nil {
		return Plan{}, err
	}
	if region.Code == "" {
		return Plan{}, eris.New("plan: region code is required")
	}

	p := Plan{RegionName: region.Name, RegionCode: region.Code}
	for rank, city := range region.Cities {
		p.Queries = append(p.Queries, policy.QueriesForCity(rank, city, region.Code)...)
	}
	for _, c := range policy.RegionSweep {
		p.Queries = append(p.Queries, fmt.Sprintf("%s in %s", c, region.Name))
	}
	return p, nil
}
