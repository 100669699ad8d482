package cluster

import (
	"math"

	"github.com/quakemap/internal/domain"
)

// Magnitude band colors.
const (
	ColorStrongRed  domain.Color = "#d32f2f"
	ColorOrange     domain.Color = "#f57c00"
	ColorAmber      domain.Color = "#ffb300"
	ColorYellow     domain.Color = "#fdd835"
	ColorLightGreen domain.Color = "#9ccc65"
)

const (
	minSingleSize  = 20.0
	singleSizeStep = 5.0
	minClusterSize = 30.0
	maxClusterSize = 60.0
)

// bands are ordered from the strongest; lower bounds are inclusive.
var bands = []domain.LegendEntry{
	{Label: "7.0+", MinMagnitude: 7, Color: ColorStrongRed},
	{Label: "6.0 - 6.9", MinMagnitude: 6, Color: ColorOrange},
	{Label: "5.0 - 5.9", MinMagnitude: 5, Color: ColorAmber},
	{Label: "4.0 - 4.9", MinMagnitude: 4, Color: ColorYellow},
	{Label: "< 4.0", MinMagnitude: math.Inf(-1), Color: ColorLightGreen},
}

// MagnitudeColor maps a magnitude to its band color. NaN falls into the lowest band.
func MagnitudeColor(m float64) domain.Color {
	for _, b := range bands {
		if m >= b.MinMagnitude {
			return b.Color
		}
	}
	return ColorLightGreen
}

// BandLabel returns the legend label for a magnitude.
func BandLabel(m float64) string {
	for _, b := range bands {
		if m >= b.MinMagnitude {
			return b.Label
		}
	}
	return bands[len(bands)-1].Label
}

// Legend returns the color bands from the strongest down.
// The lowest band reports a lower bound of 0.
func Legend() []domain.LegendEntry {
	legend := make([]domain.LegendEntry, len(bands))
	copy(legend, bands)
	legend[len(legend)-1].MinMagnitude = 0
	return legend
}

// MarkerSize returns the display diameter of a marker.
// Singles scale with magnitude, clusters with member count.
func MarkerSize(m domain.Marker) float64 {
	if m.Kind == domain.MarkerCluster {
		count := 0
		if m.Cluster != nil {
			count = m.Cluster.Count
		}
		return math.Max(minClusterSize, math.Min(maxClusterSize, float64(count)))
	}

	size := m.Magnitude * singleSizeStep
	if math.IsNaN(size) || size < minSingleSize {
		return minSingleSize
	}
	return size
}
