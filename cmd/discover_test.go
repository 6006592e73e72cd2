package main

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/courtscout/internal/config"
	"github.com/sells-group/courtscout/internal/plan"
	"github.com/sells-group/courtscout/internal/search"
)

func TestOSMQueries(t *testing.T) {
	region := plan.Region{Name: "Illinois", Code: "IL", BBox: [4]float64{36.97, -91.51, 42.51, -87.02}}

	qs, err := osmQueries(region, 2, "basketball")
	require.NoError(t, err)
	require.Len(t, qs, 4)
	for _, q := range qs {
		assert.True(t, strings.HasPrefix(q, "[out:json]"))
		assert.Contains(t, q, `["sport"="basketball"]`)
	}
	assert.Contains(t, qs[0], "36.970000")

	qs, err = osmQueries(region, 0, "basketball")
	require.NoError(t, err)
	assert.Len(t, qs, 1)
}

func TestOSMQueries_NoBound(t *testing.T) {
	_, err := osmQueries(plan.Region{Code: "XX"}, 2, "basketball")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no bbox")
}

func TestPolicyFromConfig(t *testing.T) {
	d := config.DiscoveryConfig{
		TopTierSize:    2,
		MidTierSize:    3,
		TopCategories:  []string{"gym", "school gym"},
		MidCategories:  []string{"gym"},
		TailCategories: []string{"gym"},
		RegionSweep:    []string{"YMCA"},
	}
	p := policyFromConfig(d)
	require.NoError(t, p.Validate())
	assert.Equal(t, plan.TierMid, p.TierFor(2))
	assert.Equal(t, []string{"YMCA"}, p.RegionSweep)
}

func TestSearchOptions(t *testing.T) {
	cfg = &config.Config{Discovery: config.DiscoveryConfig{
		DelayMS:              200,
		MaxAttempts:          4,
		RateLimitBackoffSecs: 20,
		TransientBackoffMS:   2000,
	}}
	opts := searchOptions(15, search.MalformedEmpty)
	assert.Equal(t, 200*time.Millisecond, opts.Delay)
	assert.Equal(t, 15*time.Second, opts.Timeout)
	assert.Equal(t, 4, opts.Retry.MaxAttempts)
	assert.Equal(t, search.MalformedEmpty, opts.Malformed)
}

func TestLoadRegion(t *testing.T) {
	cfg = &config.Config{}
	r, err := loadRegion("il")
	require.NoError(t, err)
	assert.Equal(t, "IL", r.Code)
	assert.True(t, r.HasBound())

	_, err = loadRegion("ZZ")
	assert.Error(t, err)
}
