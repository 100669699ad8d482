package cluster

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/quakemap/internal/domain"
)

func feature(id string, lon, lat, depth, mag float64, place string) domain.RawFeature {
	ms := int64(1700000000000)
	return domain.RawFeature{
		ID:          id,
		Coordinates: []float64{lon, lat, depth},
		Magnitude:   &mag,
		Place:       place,
		Time:        &ms,
	}
}

func newTestEngine() *Engine {
	return NewEngine(DefaultConfig(), zap.NewNop())
}

func TestBuildMarkers_SingleStrongQuake(t *testing.T) {
	engine := newTestEngine()
	features := []domain.RawFeature{feature("us1", 142.37, 38.3, 29, 9.1, "near the east coast of Honshu")}

	res := engine.BuildMarkers(features, domain.BoundingBox{West: 140, South: 36, East: 145, North: 40}, 16)

	require.True(t, res.OK())
	require.Len(t, res.Markers, 1)
	m := res.Markers[0]
	assert.Equal(t, domain.MarkerSingle, m.Kind)
	assert.GreaterOrEqual(t, MarkerSize(m), 45.0)
	assert.Equal(t, ColorStrongRed, MagnitudeColor(m.Magnitude))
	require.NotNil(t, m.Feature)
	assert.Equal(t, ToEarthquake(features[0]), *m.Feature)
	assert.Nil(t, m.Cluster)
}

func TestBuildMarkers_NearbyQuakesFormOneCluster(t *testing.T) {
	engine := newTestEngine()
	features := make([]domain.RawFeature, 20)
	for i := range features {
		features[i] = feature("ev"+string(rune('a'+i)), 121.00+float64(i)*0.002, 14.50+float64(i%5)*0.003, 10, 3+float64(i)*0.1, "Batangas")
	}

	res := engine.BuildMarkers(features, domain.BoundingBox{West: 100, South: 0, East: 140, North: 30}, 2)

	require.True(t, res.OK())
	assert.Equal(t, 20, res.Considered)
	require.Len(t, res.Markers, 1)
	m := res.Markers[0]
	assert.Equal(t, domain.MarkerCluster, m.Kind)
	require.NotNil(t, m.Cluster)
	assert.Equal(t, 20, m.Cluster.Count)
	assert.Len(t, m.Cluster.Points, 10)
	assert.Greater(t, m.Cluster.ExpansionZoom, 2)
	// Sub-clusters fold in as one sample each, so this is not the plain mean of 3.95.
	assert.InDelta(t, 3.641666666666666, m.Cluster.AvgMagnitude, 1e-9)
	assert.InDelta(t, 10, m.Cluster.AvgDepth, 1e-9)
	assert.Equal(t, 30.0, MarkerSize(m))
}

func TestBuildMarkers_EmptyInput(t *testing.T) {
	engine := newTestEngine()

	res := engine.BuildMarkers(nil, domain.WorldBounds, 3)

	assert.True(t, res.OK())
	assert.NotNil(t, res.Markers)
	assert.Empty(t, res.Markers)
	assert.Zero(t, res.Considered)
}

func TestBuildMarkers_MalformedFeatureIsDropped(t *testing.T) {
	engine := newTestEngine()
	features := []domain.RawFeature{
		feature("a", 10, 10, 5, 4.2, "A"),
		feature("b", -70, -30, 35, 5.5, ""),
		feature("c", 20, 20, 5, 2.1, "C"),
		feature("d", 30, -10, 5, 6.3, "D"),
	}

	res := engine.BuildMarkers(features, domain.WorldBounds, 16)

	require.True(t, res.OK())
	assert.Equal(t, 3, res.Considered)
	assert.Len(t, res.Markers, 3)
}

func TestBuildMarkers_InvalidViewportFails(t *testing.T) {
	engine := newTestEngine()
	features := []domain.RawFeature{feature("a", 10, 10, 5, 4.2, "A")}

	tests := []struct {
		name string
		bbox domain.BoundingBox
		zoom float64
		want error
	}{
		{"nan edge", domain.BoundingBox{West: math.NaN(), South: 0, East: 10, North: 10}, 3, ErrInvalidViewport},
		{"south above north", domain.BoundingBox{West: 0, South: 20, East: 10, North: 10}, 3, ErrInvalidViewport},
		{"infinite zoom", domain.WorldBounds, math.Inf(1), ErrInvalidZoom},
		{"nan zoom", domain.WorldBounds, math.NaN(), ErrInvalidZoom},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := engine.BuildMarkers(features, tt.bbox, tt.zoom)
			assert.False(t, res.OK())
			assert.ErrorIs(t, res.Err, tt.want)
			assert.Empty(t, res.MarkersOrEmpty())
			assert.Equal(t, 1, res.Considered)
		})
	}
}

func TestBuildMarkers_NeverPanicsOnRandomInput(t *testing.T) {
	engine := newTestEngine()
	r := rand.New(rand.NewSource(42))

	for round := 0; round < 50; round++ {
		features := make([]domain.RawFeature, r.Intn(200))
		for i := range features {
			f := feature("x", r.Float64()*400-200, r.Float64()*200-100, r.Float64()*700, r.Float64()*10, "p")
			switch r.Intn(6) {
			case 0:
				f.Coordinates = f.Coordinates[:r.Intn(2)]
			case 1:
				f.Magnitude = nil
			case 2:
				f.Time = nil
			}
			features[i] = f
		}
		bbox := domain.BoundingBox{
			West:  r.Float64()*720 - 360,
			South: r.Float64()*180 - 90,
			East:  r.Float64()*720 - 360,
			North: r.Float64()*180 - 90,
		}
		zoom := r.Float64()*40 - 10

		assert.NotPanics(t, func() {
			res := engine.BuildMarkers(features, bbox, zoom)
			assert.NotNil(t, res.MarkersOrEmpty())
		})
	}
}

func TestBuildMarkers_ClusterProperties(t *testing.T) {
	engine := newTestEngine()
	r := rand.New(rand.NewSource(9))
	features := make([]domain.RawFeature, 500)
	for i := range features {
		features[i] = feature("q", r.Float64()*60+100, r.Float64()*40-10, r.Float64()*300, r.Float64()*7+1, "somewhere")
	}
	valid := Earthquakes(features)

	for _, zoom := range []float64{0, 2.7, 5, 9, 17} {
		res := engine.BuildMarkers(features, domain.WorldBounds, zoom)
		require.True(t, res.OK())

		total := 0
		for _, m := range res.Markers {
			switch m.Kind {
			case domain.MarkerCluster:
				require.NotNil(t, m.Cluster)
				assert.GreaterOrEqual(t, m.Cluster.Count, len(m.Cluster.Points))
				assert.LessOrEqual(t, len(m.Cluster.Points), 10)
				assert.GreaterOrEqual(t, m.Cluster.AvgMagnitude, 1.0)
				assert.LessOrEqual(t, m.Cluster.AvgMagnitude, 8.0)
				total += m.Cluster.Count
			case domain.MarkerSingle:
				require.NotNil(t, m.Feature)
				assert.Contains(t, valid, *m.Feature)
				total++
			}
		}
		assert.Equal(t, len(valid), total, "zoom %v", zoom)
	}
}

func TestBuildMarkers_AntimeridianViewport(t *testing.T) {
	engine := newTestEngine()
	features := []domain.RawFeature{
		feature("fiji", 178.9, -17.8, 560, 5.1, "Fiji"),
		feature("tonga", -174.5, -20.1, 30, 4.8, "Tonga"),
		feature("chile", -71.5, -33.0, 20, 6.0, "Chile"),
	}

	res := engine.BuildMarkers(features, domain.BoundingBox{West: 170, South: -30, East: -170, North: -10}, 8)

	require.True(t, res.OK())
	ids := make([]string, 0, len(res.Markers))
	for _, m := range res.Markers {
		require.NotNil(t, m.Feature)
		ids = append(ids, m.Feature.ID)
	}
	assert.ElementsMatch(t, []string{"fiji", "tonga"}, ids)
}

func TestBuildMarkers_MaxZoomRendersIndividually(t *testing.T) {
	engine := newTestEngine()
	features := []domain.RawFeature{
		feature("a", 0, 0, 1, 2, "A"),
		feature("b", 0.0001, 0.0001, 1, 2, "B"),
	}

	res := engine.BuildMarkers(features, domain.WorldBounds, 17)
	require.True(t, res.OK())
	assert.Len(t, res.Markers, 2)

	res = engine.BuildMarkers(features, domain.WorldBounds, 16)
	require.True(t, res.OK())
	require.Len(t, res.Markers, 1)
	assert.Equal(t, domain.MarkerCluster, res.Markers[0].Kind)
}

func TestBuildMarkers_HugeZoomRendersIndividually(t *testing.T) {
	engine := newTestEngine()
	features := []domain.RawFeature{
		feature("a", 0, 0, 1, 2, "A"),
		feature("b", 0.0001, 0.0001, 1, 2, "B"),
	}

	for _, zoom := range []float64{1e19, 1e300, math.MaxFloat64} {
		res := engine.BuildMarkers(features, domain.WorldBounds, zoom)
		require.True(t, res.OK(), "zoom %g", zoom)
		require.Len(t, res.Markers, 2, "zoom %g", zoom)
		for _, m := range res.Markers {
			assert.Equal(t, domain.MarkerSingle, m.Kind)
		}
	}
}

func TestResult_MarkersOrEmpty(t *testing.T) {
	ok := Result{Markers: []domain.Marker{{Kind: domain.MarkerSingle}}}
	assert.Len(t, ok.MarkersOrEmpty(), 1)

	failed := Result{Markers: []domain.Marker{{Kind: domain.MarkerSingle}}, Err: ErrInternal}
	assert.Empty(t, failed.MarkersOrEmpty())
	assert.NotNil(t, failed.MarkersOrEmpty())
}

func TestNewEngine_FillsDefaults(t *testing.T) {
	engine := NewEngine(Config{}, nil)
	assert.Equal(t, DefaultConfig(), engine.Config())
}
