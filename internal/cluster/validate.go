package cluster

import (
	"math"
	"strings"
	"time"

	"github.com/quakemap/internal/domain"
)

// IsValid reports whether a raw feature can be placed on the map.
// It needs at least lon and lat, a magnitude, a place and a time. Numbers must be finite.
func IsValid(f domain.RawFeature) bool {
	if len(f.Coordinates) < 2 {
		return false
	}
	for _, v := range f.Coordinates {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	if f.Magnitude == nil || math.IsNaN(*f.Magnitude) || math.IsInf(*f.Magnitude, 0) {
		return false
	}
	if strings.TrimSpace(f.Place) == "" {
		return false
	}
	return f.Time != nil
}

// FilterValid drops invalid features and keeps the input order.
// The input slice is not modified.
func FilterValid(features []domain.RawFeature) []domain.RawFeature {
	valid := make([]domain.RawFeature, 0, len(features))
	for _, f := range features {
		if IsValid(f) {
			valid = append(valid, f)
		}
	}
	return valid
}

// ToEarthquake converts a feature that passed IsValid. Missing depth reads as 0.
func ToEarthquake(f domain.RawFeature) domain.Earthquake {
	q := domain.Earthquake{
		ID:        f.ID,
		Lon:       f.Coordinates[0],
		Lat:       f.Coordinates[1],
		Magnitude: *f.Magnitude,
		Place:     f.Place,
		Time:      time.UnixMilli(*f.Time).UTC(),
		URL:       f.URL,
	}
	if len(f.Coordinates) > 2 {
		q.Depth = f.Coordinates[2]
	}
	return q
}

// Earthquakes filters and converts in one pass.
func Earthquakes(features []domain.RawFeature) []domain.Earthquake {
	quakes := make([]domain.Earthquake, 0, len(features))
	for _, f := range features {
		if IsValid(f) {
			quakes = append(quakes, ToEarthquake(f))
		}
	}
	return quakes
}
