package venue

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRegionLabel(t *testing.T) {
	tests := []struct {
		addr     string
		expected string
	}{
		{"123 Main St, Springfield, IL 62701, USA", "Springfield, IL"},
		{"2045 N Lincoln Ave, Chicago, IL 60614", "Chicago, IL"},
		{"Chicago, IL", "Chicago, IL"},
		{"500 Elm St, Austin, TX 78701-1234, United States", "Austin, TX"},
		{"Some Park, Toronto, ON M5V 2T6, Canada", ""},
		{"No state here", ""},
		{"", ""},
		{"Main St, springfield, il", ""},
	}
	for _, tt := range tests {
		t.Run(tt.addr, func(t *testing.T) {
			assert.Equal(t, tt.expected, RegionLabel(tt.addr))
		})
	}
}

func TestRegionCode(t *testing.T) {
	assert.Equal(t, "IL", RegionCode("Chicago, IL"))
	assert.Equal(t, "", RegionCode("Chicago"))
}

func TestMatchesRegion(t *testing.T) {
	assert.True(t, MatchesRegion("Chicago, IL", "IL"))
	assert.True(t, MatchesRegion("Chicago, IL", "il"))
	assert.False(t, MatchesRegion("Gary, IN", "IL"))
	assert.False(t, MatchesRegion("", "IL"))
	assert.False(t, MatchesRegion("Chicago, IL", ""))
}
