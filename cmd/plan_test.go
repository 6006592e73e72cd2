package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/courtscout/internal/plan"
)

func TestRenderPlan(t *testing.T) {
	region := plan.Region{Name: "Illinois", Code: "IL", Cities: []string{"Chicago", "Aurora", "Peoria"}}
	policy := plan.Policy{
		TopTierSize:    1,
		MidTierSize:    1,
		TopCategories:  []string{"gym", "school gym"},
		MidCategories:  []string{"gym"},
		TailCategories: []string{"gym"},
		RegionSweep:    []string{"YMCA"},
	}
	p, err := plan.Generate(region, policy)
	require.NoError(t, err)

	var buf bytes.Buffer
	renderPlan(&buf, region, policy, p, true)
	out := buf.String()
	assert.Contains(t, out, "Plan: Illinois (IL)")
	assert.Contains(t, out, "5")
	assert.Contains(t, out, "gym in Chicago, IL")
	assert.Contains(t, out, "YMCA in Illinois")
}
