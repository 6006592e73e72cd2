package geo

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDistanceKM(t *testing.T) {
	tests := []struct {
		name     string
		a, b     [2]float64 // lat, lng
		expected float64
		delta    float64
	}{
		{
			name:     "same point",
			a:        [2]float64{37.7749, -122.4194},
			b:        [2]float64{37.7749, -122.4194},
			expected: 0,
			delta:    1e-9,
		},
		{
			name:     "austin to dallas",
			a:        [2]float64{30.2672, -97.7431},
			b:        [2]float64{32.7767, -96.7970},
			expected: 292,
			delta:    5,
		},
		{
			name:     "six meters apart",
			a:        [2]float64{37.7749, -122.4194},
			b:        [2]float64{37.77495, -122.41945},
			expected: 0.0071,
			delta:    0.001,
		},
		{
			name:     "one degree of latitude",
			a:        [2]float64{0, 0},
			b:        [2]float64{1, 0},
			expected: 111.19,
			delta:    0.01,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := DistanceKM(Point(tt.a[0], tt.a[1]), Point(tt.b[0], tt.b[1]))
			assert.InDelta(t, tt.expected, d, tt.delta)
		})
	}
}

func TestDistanceKM_Symmetric(t *testing.T) {
	r := rand.New(rand.NewPCG(7, 11))
	for i := 0; i < 1000; i++ {
		a := Point(r.Float64()*180-90, r.Float64()*360-180)
		b := Point(r.Float64()*180-90, r.Float64()*360-180)
		assert.InDelta(t, DistanceKM(a, b), DistanceKM(b, a), 1e-9)
	}
}

func TestDistanceKM_Antipodal(t *testing.T) {
	d := DistanceKM(Point(0, 0), Point(0, 180))
	assert.InDelta(t, 20015.09, d, 0.1)
}

func TestWithin(t *testing.T) {
	a := Point(41.8781, -87.6298)
	b := Point(41.8790, -87.6298) // ~100m north

	assert.True(t, Within(a, b, 0.2))
	assert.False(t, Within(a, b, 0.05))
}
