// Package geo computes great-circle distances between coordinates.
package geo

import "math"

const earthRadiusKm = 6371.0

// Coordinate is a latitude/longitude pair in decimal degrees.
type Coordinate struct {
	Latitude  float64
	Longitude float64
}

// DistanceKm computes the geodesic distance between two points using the Haversine formula.
func DistanceKm(origin, target Coordinate) float64 {
	lat1Rad := degreesToRadians(origin.Latitude)
	lat2Rad := degreesToRadians(target.Latitude)
	deltaLat := degreesToRadians(target.Latitude - origin.Latitude)
	deltaLon := degreesToRadians(target.Longitude - origin.Longitude)

	a := math.Sin(deltaLat/2)*math.Sin(deltaLat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*
			math.Sin(deltaLon/2)*math.Sin(deltaLon/2)
	// Rounding can push a just past 1 for antipodal points.
	a = math.Max(0, math.Min(1, a))

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusKm * c
}

// IsWithin reports whether target is strictly closer than maxDistanceKm to origin.
// A target exactly at the threshold is not within it.
func IsWithin(origin, target Coordinate, maxDistanceKm float64) bool {
	return DistanceKm(origin, target) < maxDistanceKm
}

func degreesToRadians(degrees float64) float64 {
	return degrees * math.Pi / 180.0
}
