package utils

import (
	"github.com/golang/geo/s2"
)

const earthRadiusKm = 6371.0

// HaversineDistance returns the great-circle distance between two points in kilometres.
func HaversineDistance(lat1, lon1, lat2, lon2 float64) float64 {
	p1 := s2.LatLngFromDegrees(lat1, lon1)
	p2 := s2.LatLngFromDegrees(lat2, lon2)
	return p1.Distance(p2).Radians() * earthRadiusKm
}

// ValidateCoordinates checks that lat and lon lie in their degree ranges.
func ValidateCoordinates(lat, lon float64) bool {
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}

// SpreadKm returns the largest distance in kilometres from center to any of the
// given [lon, lat] positions.
func SpreadKm(centerLat, centerLon float64, positions [][2]float64) float64 {
	center := s2.LatLngFromDegrees(centerLat, centerLon)
	var spread float64
	for _, p := range positions {
		d := center.Distance(s2.LatLngFromDegrees(p[1], p[0])).Radians() * earthRadiusKm
		if d > spread {
			spread = d
		}
	}
	return spread
}
