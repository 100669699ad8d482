// Package cluster turns earthquake features into map markers for one viewport.
//
// A fresh index is built on every BuildMarkers call and nothing is shared between
// calls, so an Engine can be used from many goroutines at once.
package cluster

import (
	"errors"
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/quakemap/internal/domain"
	"github.com/quakemap/internal/pkg/supercluster"
)

var (
	ErrInvalidViewport = errors.New("cluster: invalid viewport")
	ErrInvalidZoom     = errors.New("cluster: invalid zoom")
	ErrInternal        = errors.New("cluster: internal failure")
)

// Config holds the index tuning knobs.
type Config struct {
	Radius    float64
	MinZoom   int
	MaxZoom   int
	Extent    float64
	NodeSize  int
	MaxLeaves int
}

// DefaultConfig returns the standard map settings.
func DefaultConfig() Config {
	return Config{
		Radius:    60,
		MinZoom:   0,
		MaxZoom:   16,
		Extent:    512,
		NodeSize:  64,
		MaxLeaves: 10,
	}
}

// Result is either a marker list or a failure reason.
type Result struct {
	Markers    []domain.Marker
	Considered int
	Err        error
}

// OK reports whether the computation succeeded.
func (r Result) OK() bool {
	return r.Err == nil
}

// MarkersOrEmpty treats a failed result as an empty one.
func (r Result) MarkersOrEmpty() []domain.Marker {
	if r.Err != nil || r.Markers == nil {
		return []domain.Marker{}
	}
	return r.Markers
}

// Engine clusters feature sets. It holds no per-call state and is safe for concurrent use.
type Engine struct {
	cfg    Config
	logger *zap.Logger
}

// NewEngine fills zero or out-of-range fields of cfg from DefaultConfig.
func NewEngine(cfg Config, logger *zap.Logger) *Engine {
	def := DefaultConfig()
	if cfg.Radius <= 0 {
		cfg.Radius = def.Radius
	}
	if cfg.MaxZoom <= 0 {
		cfg.MaxZoom = def.MaxZoom
	}
	if cfg.MinZoom < 0 || cfg.MinZoom > cfg.MaxZoom {
		cfg.MinZoom = def.MinZoom
	}
	if cfg.Extent <= 0 {
		cfg.Extent = def.Extent
	}
	if cfg.NodeSize <= 0 {
		cfg.NodeSize = def.NodeSize
	}
	if cfg.MaxLeaves <= 0 {
		cfg.MaxLeaves = def.MaxLeaves
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Engine{cfg: cfg, logger: logger}
}

// Config returns the effective configuration.
func (e *Engine) Config() Config {
	return e.cfg
}

// BuildMarkers clusters the valid features and returns the markers visible in bbox at zoom.
// No valid features is a successful empty result. Bad viewports and internal faults come
// back in Result.Err; the method never panics.
func (e *Engine) BuildMarkers(features []domain.RawFeature, bbox domain.BoundingBox, zoom float64) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			res = Result{
				Markers:    []domain.Marker{},
				Considered: res.Considered,
				Err:        fmt.Errorf("%w: %v", ErrInternal, r),
			}
		}
		if res.Err != nil {
			e.logger.Warn("Failed to build markers",
				zap.Error(res.Err),
				zap.Int("features", len(features)),
				zap.Float64("zoom", zoom))
		}
	}()

	quakes := Earthquakes(features)
	res.Considered = len(quakes)
	if len(quakes) == 0 {
		res.Markers = []domain.Marker{}
		return res
	}

	if !bbox.IsFinite() || bbox.South > bbox.North {
		res.Err = fmt.Errorf("%w: %+v", ErrInvalidViewport, bbox)
		return res
	}
	if math.IsNaN(zoom) || math.IsInf(zoom, 0) {
		res.Err = fmt.Errorf("%w: %v", ErrInvalidZoom, zoom)
		return res
	}

	idx := e.buildIndex(quakes)

	nodes, err := idx.GetClusters(supercluster.BBox{
		West:  bbox.West,
		South: bbox.South,
		East:  bbox.East,
		North: bbox.North,
	}, zoom)
	if err != nil {
		res.Err = fmt.Errorf("query clusters: %w", err)
		return res
	}

	markers := make([]domain.Marker, 0, len(nodes))
	for _, n := range nodes {
		if !n.Cluster {
			markers = append(markers, singleMarker(quakes[n.ID]))
			continue
		}

		m, err := e.clusterMarker(idx, quakes, n)
		if err != nil {
			res.Err = fmt.Errorf("cluster %d: %w", n.ID, err)
			return res
		}
		markers = append(markers, m)
	}

	e.logger.Debug("Markers built",
		zap.Int("considered", len(quakes)),
		zap.Int("markers", len(markers)),
		zap.Int("zoom", idx.LimitZoom(zoom)))

	res.Markers = markers
	return res
}

func (e *Engine) buildIndex(quakes []domain.Earthquake) *supercluster.Index[quakeStats] {
	idx := supercluster.NewIndex(supercluster.Options[quakeStats]{
		MinZoom:   e.cfg.MinZoom,
		MaxZoom:   e.cfg.MaxZoom,
		MinPoints: 2,
		Radius:    e.cfg.Radius,
		Extent:    e.cfg.Extent,
		NodeSize:  e.cfg.NodeSize,
		Map: func(i int) quakeStats {
			return newQuakeStats(quakes[i])
		},
		Reduce: reduceStats,
	})

	points := make([]supercluster.Point, len(quakes))
	for i, q := range quakes {
		points[i] = supercluster.Point{Lon: q.Lon, Lat: q.Lat}
	}
	idx.Load(points)
	return idx
}

func singleMarker(q domain.Earthquake) domain.Marker {
	return domain.Marker{
		Kind:        domain.MarkerSingle,
		Coordinates: [2]float64{q.Lon, q.Lat},
		Magnitude:   q.Magnitude,
		Depth:       q.Depth,
		Feature:     &q,
	}
}

func (e *Engine) clusterMarker(idx *supercluster.Index[quakeStats], quakes []domain.Earthquake, n supercluster.Node[quakeStats]) (domain.Marker, error) {
	leaves, err := idx.GetLeaves(n.ID, e.cfg.MaxLeaves, 0)
	if err != nil {
		return domain.Marker{}, fmt.Errorf("leaves: %w", err)
	}
	points := make([]domain.Earthquake, 0, len(leaves))
	for _, l := range leaves {
		points = append(points, quakes[l.ID])
	}

	expansion, err := idx.GetClusterExpansionZoom(n.ID)
	if err != nil {
		return domain.Marker{}, fmt.Errorf("expansion zoom: %w", err)
	}

	avgMag, avgDepth := n.Props.avgMag, n.Props.avgDepth
	if n.Props.samples == 0 {
		avgMag, avgDepth = sampleMean(points)
	}

	agg := &domain.ClusterAggregate{
		ID:            n.ID,
		Coordinates:   [2]float64{n.Lon, n.Lat},
		Count:         n.Count,
		AvgMagnitude:  avgMag,
		AvgDepth:      avgDepth,
		Points:        points,
		ExpansionZoom: expansion,
	}

	return domain.Marker{
		Kind:        domain.MarkerCluster,
		Coordinates: agg.Coordinates,
		Magnitude:   avgMag,
		Depth:       avgDepth,
		Cluster:     agg,
	}, nil
}
