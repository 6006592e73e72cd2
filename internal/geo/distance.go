// Package geo provides the great-circle distance and coordinate bucketing used
// to decide whether two venues are the same physical place.
package geo

import (
	"math"

	"github.com/paulmach/orb"
)

// EarthRadiusKM is the mean Earth radius. Distances use a spherical model;
// dedup thresholds are tens to hundreds of meters so the ellipsoid error is
// irrelevant.
const EarthRadiusKM = 6371.0

// DistanceKM returns the haversine distance between two points in kilometers.
// Points are orb.Point values, i.e. [lng, lat].
func DistanceKM(a, b orb.Point) float64 {
	lat1 := toRad(a.Lat())
	lat2 := toRad(b.Lat())
	dLat := lat2 - lat1
	dLng := toRad(b.Lon() - a.Lon())

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	// Clamp guards against h drifting just above 1 for antipodal points.
	if h > 1 {
		h = 1
	}
	return 2 * EarthRadiusKM * math.Asin(math.Sqrt(h))
}

// Within reports whether a and b are at most thresholdKM apart.
func Within(a, b orb.Point, thresholdKM float64) bool {
	return DistanceKM(a, b) <= thresholdKM
}

// Point builds an orb.Point from latitude and longitude, in that order.
func Point(lat, lng float64) orb.Point {
	return orb.Point{lng, lat}
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}
