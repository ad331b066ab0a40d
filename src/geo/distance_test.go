package geo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDistanceKm(t *testing.T) {
	tests := []struct {
		name      string
		origin    Coordinate
		target    Coordinate
		expected  float64
		tolerance float64
	}{
		{
			name:      "Same location",
			origin:    Coordinate{12.97, 77.59},
			target:    Coordinate{12.97, 77.59},
			expected:  0.0,
			tolerance: 1e-9,
		},
		{
			name:      "New York to London",
			origin:    Coordinate{40.7128, -74.0060},
			target:    Coordinate{51.5074, -0.1278},
			expected:  5570.0,
			tolerance: 10.0,
		},
		{
			name:      "Bangalore south to Whitefield",
			origin:    Coordinate{12.897550, 77.593830},
			target:    Coordinate{12.944093577762436, 77.69604881493385},
			expected:  12.2,
			tolerance: 0.5,
		},
		{
			name:      "One degree of latitude",
			origin:    Coordinate{0, 0},
			target:    Coordinate{1, 0},
			expected:  111.19,
			tolerance: 0.01,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := DistanceKm(tt.origin, tt.target)
			assert.InDelta(t, tt.expected, result, tt.tolerance)
		})
	}
}

func TestDistanceKmSymmetry(t *testing.T) {
	points := []Coordinate{
		{12.97, 77.59},
		{-33.8688, 151.2093},
		{35.6762, 139.6503},
		{0, 180},
		{89.9, -45},
	}

	for _, a := range points {
		assert.Zero(t, DistanceKm(a, a))
		for _, b := range points {
			assert.InDelta(t, DistanceKm(a, b), DistanceKm(b, a), 1e-9)
		}
	}
}

func TestIsWithin(t *testing.T) {
	origin := Coordinate{12.897550, 77.593830}
	near := Coordinate{12.90, 77.60}
	far := Coordinate{12, 77}

	assert.True(t, IsWithin(origin, near, 5))
	assert.False(t, IsWithin(origin, far, 5))
	assert.True(t, IsWithin(origin, origin, 0.001))
	assert.False(t, IsWithin(origin, origin, 0))

	for _, d := range []float64{0, -1, -1000} {
		assert.False(t, IsWithin(origin, near, d), "distance %v", d)
		assert.False(t, IsWithin(origin, far, d), "distance %v", d)
	}
}

func TestIsWithinThresholdIsExclusive(t *testing.T) {
	origin := Coordinate{0, 0}
	target := Coordinate{1, 0}
	exact := DistanceKm(origin, target)

	assert.False(t, IsWithin(origin, target, exact))
	assert.True(t, IsWithin(origin, target, math.Nextafter(exact, math.Inf(1))))
}

func TestDegreesToRadians(t *testing.T) {
	tests := []struct {
		degrees  float64
		expected float64
	}{
		{0, 0},
		{90, math.Pi / 2},
		{180, math.Pi},
		{360, 2 * math.Pi},
	}

	for _, tt := range tests {
		assert.InDelta(t, tt.expected, degreesToRadians(tt.degrees), 0.0001)
	}
}

func TestDistanceKmAntipodes(t *testing.T) {
	halfCircumference := earthRadiusKm * math.Pi

	for lat := -89.0; lat <= 89.0; lat += 0.37 {
		for lon := -179.0; lon <= 0; lon += 1.0 {
			origin := Coordinate{Latitude: lat, Longitude: lon}
			antipode := Coordinate{Latitude: -lat, Longitude: lon + 180}

			forward := DistanceKm(origin, antipode)
			backward := DistanceKm(antipode, origin)
			if math.IsNaN(forward) || math.IsNaN(backward) {
				t.Fatalf("distance between %v and %v is NaN", origin, antipode)
			}
			assert.InDelta(t, halfCircumference, forward, 0.01)
			assert.Equal(t, forward, backward)
			assert.True(t, IsWithin(origin, antipode, halfCircumference+1))
		}
	}

	assert.InDelta(t, halfCircumference, DistanceKm(Coordinate{Latitude: -86.78, Longitude: -179}, Coordinate{Latitude: 86.78, Longitude: 1}), 0.01)
}
