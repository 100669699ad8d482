package domain

import (
	"math"
	"time"

	"github.com/paulmach/orb"
)

// BoundingBox is the visible map area in degrees.
// West may be greater than East when the box crosses the antimeridian.
type BoundingBox struct {
	West  float64 `json:"west"`
	South float64 `json:"south"`
	East  float64 `json:"east"`
	North float64 `json:"north"`
}

// WorldBounds covers the whole Web Mercator map.
var WorldBounds = BoundingBox{West: -180, South: -85.05112878, East: 180, North: 85.05112878}

// IsFinite reports whether every edge is a real number.
func (b BoundingBox) IsFinite() bool {
	for _, v := range [...]float64{b.West, b.South, b.East, b.North} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Bound converts the box into an orb.Bound (Min is south-west, Max is north-east).
func (b BoundingBox) Bound() orb.Bound {
	return orb.Bound{
		Min: orb.Point{b.West, b.South},
		Max: orb.Point{b.East, b.North},
	}
}

// Contains reports whether the point lies inside the box, honouring antimeridian crossing.
func (b BoundingBox) Contains(lon, lat float64) bool {
	if lat < b.South || lat > b.North {
		return false
	}
	if b.West <= b.East {
		return lon >= b.West && lon <= b.East
	}
	return lon >= b.West || lon <= b.East
}

// Statistics summarises a single feed snapshot.
type Statistics struct {
	Feed         string         `json:"feed"`
	Total        int            `json:"total"`
	Valid        int            `json:"valid"`
	MaxMagnitude float64        `json:"max_magnitude"`
	AvgMagnitude float64        `json:"avg_magnitude"`
	AvgDepth     float64        `json:"avg_depth"`
	ByBand       map[string]int `json:"by_band"`
	Strongest    *Earthquake    `json:"strongest,omitempty"`
	Latest       *Earthquake    `json:"latest,omitempty"`
	GeneratedAt  time.Time      `json:"generated_at"`
}
