package geo

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
)

// BucketPrecision is the number of decimal places kept when bucketing
// coordinates. Five places is roughly 1.1m of latitude.
const BucketPrecision = 5

// Bucket is a coordinate key with both axes rounded to BucketPrecision.
type Bucket string

// BucketOf returns the bucket key for p.
func BucketOf(p orb.Point) Bucket {
	return Bucket(fmt.Sprintf("%.*f,%.*f",
		BucketPrecision, round(p.Lat()),
		BucketPrecision, round(p.Lon()),
	))
}

func round(v float64) float64 {
	scale := math.Pow(10, BucketPrecision)
	r := math.Round(v*scale) / scale
	// Avoid distinct keys for 0 and -0.
	if r == 0 {
		return 0
	}
	return r
}

// ValidCoordinates reports whether lat/lng are within WGS84 range and not the
// (0, 0) placeholder that upstream records use for "unknown".
func ValidCoordinates(lat, lng float64) bool {
	if math.IsNaN(lat) || math.IsNaN(lng) {
		return false
	}
	if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return false
	}
	return lat != 0 || lng != 0
}
