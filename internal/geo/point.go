// Package geo provides great-circle distance math and nearest-neighbor
// lookup over a fixed set of WGS-84 coordinates.
//
// All engines share one contract: given the same candidate sequence they
// return the same nearest candidate for any query, with exact-distance ties
// resolved to the earliest candidate in the sequence. The linear scan is the
// reference implementation; the k-d tree is a drop-in substitution for large
// candidate sets.
package geo

import "math"

// earthRadius is the mean sphere radius in meters, per the great-circle
// distance convention.
const earthRadius = 6371e3

// Point is a WGS-84 coordinate pair in degrees.
type Point struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// IsFinite reports whether both coordinates are real numbers (not NaN or Inf).
func (p Point) IsFinite() bool {
	return !math.IsNaN(p.Lat) && !math.IsInf(p.Lat, 0) &&
		!math.IsNaN(p.Lon) && !math.IsInf(p.Lon, 0)
}

// Haversine returns the great-circle distance between two points in meters,
// computed on the mean-radius sphere. Symmetric and monotonic with true
// surface separation.
func Haversine(a, b Point) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLon := (b.Lon - a.Lon) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return earthRadius * c
}
