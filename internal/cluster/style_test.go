package cluster

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/quakemap/internal/domain"
)

func TestMagnitudeColor(t *testing.T) {
	tests := []struct {
		mag  float64
		want domain.Color
	}{
		{9.1, ColorStrongRed},
		{7.0, ColorStrongRed},
		{6.99, ColorOrange},
		{6.0, ColorOrange},
		{5.0, ColorAmber},
		{4.0, ColorYellow},
		{3.99, ColorLightGreen},
		{0, ColorLightGreen},
		{-1.2, ColorLightGreen},
		{math.Inf(1), ColorStrongRed},
		{math.Inf(-1), ColorLightGreen},
		{math.NaN(), ColorLightGreen},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, MagnitudeColor(tt.mag), "magnitude %v", tt.mag)
	}
}

func TestMagnitudeColor_Monotonic(t *testing.T) {
	rank := map[domain.Color]int{
		ColorLightGreen: 0,
		ColorYellow:     1,
		ColorAmber:      2,
		ColorOrange:     3,
		ColorStrongRed:  4,
	}

	prev := rank[MagnitudeColor(-2)]
	for m := -2.0; m <= 10; m += 0.01 {
		cur := rank[MagnitudeColor(m)]
		assert.GreaterOrEqual(t, cur, prev, "magnitude %.2f", m)
		prev = cur
	}
}

func TestMarkerSize(t *testing.T) {
	single := func(mag float64) domain.Marker {
		return domain.Marker{Kind: domain.MarkerSingle, Magnitude: mag}
	}
	cluster := func(count int) domain.Marker {
		return domain.Marker{Kind: domain.MarkerCluster, Cluster: &domain.ClusterAggregate{Count: count}}
	}

	assert.Equal(t, 20.0, MarkerSize(single(1.5)))
	assert.Equal(t, 20.0, MarkerSize(single(4)))
	assert.Equal(t, 22.5, MarkerSize(single(4.5)))
	assert.InDelta(t, 45.5, MarkerSize(single(9.1)), 1e-9)
	assert.Equal(t, 20.0, MarkerSize(single(math.NaN())))

	assert.Equal(t, 30.0, MarkerSize(cluster(2)))
	assert.Equal(t, 42.0, MarkerSize(cluster(42)))
	assert.Equal(t, 60.0, MarkerSize(cluster(60)))
	assert.Equal(t, 60.0, MarkerSize(cluster(5000)))
	assert.Equal(t, 30.0, MarkerSize(domain.Marker{Kind: domain.MarkerCluster}))
}

func TestLegend(t *testing.T) {
	legend := Legend()

	assert.Len(t, legend, 5)
	assert.Equal(t, ColorStrongRed, legend[0].Color)
	assert.Equal(t, 7.0, legend[0].MinMagnitude)
	assert.Equal(t, ColorLightGreen, legend[4].Color)
	assert.Equal(t, 0.0, legend[4].MinMagnitude)

	for _, e := range legend[:4] {
		assert.Equal(t, e.Color, MagnitudeColor(e.MinMagnitude))
		assert.Equal(t, e.Label, BandLabel(e.MinMagnitude))
	}

	legend[0].Color = "changed"
	assert.Equal(t, ColorStrongRed, Legend()[0].Color)
}
