// Package supercluster is a hierarchical greedy point clusterer for web maps.
//
// Points are projected to Web Mercator and clustered once per zoom level, from
// MaxZoom down to MinZoom. At each level every unvisited node absorbs all unvisited
// neighbours within Radius/(Extent*2^zoom) and the new cluster sits at the
// count-weighted centroid of its members. Cluster properties are folded with a
// caller supplied Reduce in merge order, so they may depend on that order.
//
// An Index is not safe for concurrent Load calls; queries on a loaded index are read-only.
package supercluster

import (
	"errors"
	"fmt"
	"math"
)

// maxEncodableZoom keeps zoom+1 inside the five bits reserved in cluster ids.
const maxEncodableZoom = 30

var (
	ErrInvalidBounds = errors.New("supercluster: invalid bounding box")
	ErrInvalidZoom   = errors.New("supercluster: invalid zoom")
	ErrNoCluster     = errors.New("supercluster: no cluster with the specified id")
)

// Options configures an Index. P is the per-cluster property type and should be a
// value type, since Reduce receives copies.
type Options[P any] struct {
	MinZoom   int
	MaxZoom   int
	MinPoints int
	Radius    float64
	Extent    float64
	NodeSize  int

	// Map returns the initial properties of the i-th loaded point.
	Map func(i int) P
	// Reduce folds a merged child's properties into the accumulating cluster.
	Reduce func(acc *P, child P)
}

// Point is an input location in degrees.
type Point struct {
	Lon float64
	Lat float64
}

// BBox is a query box in degrees.
type BBox struct {
	West, South, East, North float64
}

// Node is a query result: either an original point or a cluster.
// For points ID is the index passed to Load; for clusters it is an opaque cluster id.
type Node[P any] struct {
	ID      int
	Lon     float64
	Lat     float64
	Cluster bool
	Count   int
	Props   P
}

type node struct {
	x, y      float64
	zoom      int
	index     int
	parentID  int
	numPoints int
	props     int
}

type level struct {
	nodes []node
	tree  *kdTree
}

// Index holds one clustered level per zoom.
type Index[P any] struct {
	opts   Options[P]
	points []Point
	levels []*level
	props  []P
}

// NewIndex creates an empty Index, filling unset options with defaults.
func NewIndex[P any](opts Options[P]) *Index[P] {
	if opts.MinZoom < 0 {
		opts.MinZoom = 0
	}
	if opts.MaxZoom <= 0 {
		opts.MaxZoom = 16
	}
	if opts.MaxZoom > maxEncodableZoom {
		opts.MaxZoom = maxEncodableZoom
	}
	if opts.MinZoom > opts.MaxZoom {
		opts.MinZoom = opts.MaxZoom
	}
	if opts.MinPoints <= 0 {
		opts.MinPoints = 2
	}
	if opts.Radius <= 0 {
		opts.Radius = 40
	}
	if opts.Extent <= 0 {
		opts.Extent = 512
	}
	if opts.NodeSize <= 0 {
		opts.NodeSize = 64
	}

	return &Index[P]{opts: opts}
}

// Options returns the effective options.
func (idx *Index[P]) Options() Options[P] {
	return idx.opts
}

// Load builds every zoom level for the given points, replacing any previous data.
func (idx *Index[P]) Load(points []Point) {
	idx.points = points
	idx.props = nil
	idx.levels = make([]*level, idx.opts.MaxZoom+2)

	nodes := make([]node, len(points))
	for i, p := range points {
		nodes[i] = node{
			x:         lngX(p.Lon),
			y:         latY(p.Lat),
			zoom:      math.MaxInt,
			index:     i,
			parentID:  -1,
			numPoints: 1,
			props:     -1,
		}
	}
	idx.levels[idx.opts.MaxZoom+1] = idx.newLevel(nodes)

	for z := idx.opts.MaxZoom; z >= idx.opts.MinZoom; z-- {
		idx.levels[z] = idx.newLevel(idx.clusterLevel(idx.levels[z+1], z))
	}
}

func (idx *Index[P]) newLevel(nodes []node) *level {
	xs := make([]float64, len(nodes))
	ys := make([]float64, len(nodes))
	for i, n := range nodes {
		xs[i] = n.x
		ys[i] = n.y
	}
	return &level{nodes: nodes, tree: newKDTree(xs, ys, idx.opts.NodeSize)}
}

// clusterLevel merges the nodes of prev at the given zoom and returns the next level.
// It marks visited nodes and records parent ids on prev, which GetChildren relies on.
func (idx *Index[P]) clusterLevel(prev *level, zoom int) []node {
	r := idx.opts.Radius / (idx.opts.Extent * math.Pow(2, float64(zoom)))
	nodes := prev.nodes
	next := make([]node, 0, len(nodes))

	for i := range nodes {
		if nodes[i].zoom <= zoom {
			continue
		}
		nodes[i].zoom = zoom
		p := nodes[i]

		neighbors := prev.tree.Within(p.x, p.y, r)

		origin := p.numPoints
		total := origin
		for _, j := range neighbors {
			if nodes[j].zoom > zoom {
				total += nodes[j].numPoints
			}
		}

		if total > origin && total >= idx.opts.MinPoints {
			wx := p.x * float64(origin)
			wy := p.y * float64(origin)

			var acc P
			if idx.opts.Reduce != nil {
				acc = idx.propsOf(p)
			}

			id := (i << 5) + (zoom + 1) + len(idx.points)

			for _, j := range neighbors {
				b := &nodes[j]
				if b.zoom <= zoom {
					continue
				}
				b.zoom = zoom

				wx += b.x * float64(b.numPoints)
				wy += b.y * float64(b.numPoints)
				b.parentID = id

				if idx.opts.Reduce != nil {
					idx.opts.Reduce(&acc, idx.propsOf(*b))
				}
			}

			nodes[i].parentID = id

			propsIdx := -1
			if idx.opts.Reduce != nil {
				idx.props = append(idx.props, acc)
				propsIdx = len(idx.props) - 1
			}

			next = append(next, node{
				x:         wx / float64(total),
				y:         wy / float64(total),
				zoom:      math.MaxInt,
				index:     id,
				parentID:  -1,
				numPoints: total,
				props:     propsIdx,
			})
			continue
		}

		next = append(next, p)
		if total > 1 {
			for _, j := range neighbors {
				b := &nodes[j]
				if b.zoom <= zoom {
					continue
				}
				b.zoom = zoom
				next = append(next, *b)
			}
		}
	}

	return next
}

func (idx *Index[P]) propsOf(n node) P {
	if n.props >= 0 {
		return idx.props[n.props]
	}
	var zero P
	if n.numPoints == 1 && idx.opts.Map != nil {
		return idx.opts.Map(n.index)
	}
	return zero
}

func (idx *Index[P]) toNode(n node) Node[P] {
	if n.numPoints > 1 {
		return Node[P]{
			ID:      n.index,
			Lon:     xLng(n.x),
			Lat:     yLat(n.y),
			Cluster: true,
			Count:   n.numPoints,
			Props:   idx.propsOf(n),
		}
	}

	p := idx.points[n.index]
	return Node[P]{
		ID:    n.index,
		Lon:   p.Lon,
		Lat:   p.Lat,
		Count: 1,
		Props: idx.propsOf(n),
	}
}

// LimitZoom floors z and clamps it to the range of built levels.
// The clamp happens before the conversion, so huge zooms cannot overflow int.
func (idx *Index[P]) LimitZoom(z float64) int {
	if z >= float64(idx.opts.MaxZoom+1) {
		return idx.opts.MaxZoom + 1
	}
	if math.IsNaN(z) || z < float64(idx.opts.MinZoom) {
		return idx.opts.MinZoom
	}
	return int(math.Floor(z))
}

// GetClusters returns the points and clusters inside bbox at the given zoom.
// Longitudes are wrapped and latitudes clamped; a box crossing the antimeridian is
// queried as two halves.
func (idx *Index[P]) GetClusters(bbox BBox, zoom float64) ([]Node[P], error) {
	if math.IsNaN(zoom) || math.IsInf(zoom, 0) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidZoom, zoom)
	}
	for _, v := range [...]float64{bbox.West, bbox.South, bbox.East, bbox.North} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("%w: non-finite edge", ErrInvalidBounds)
		}
	}
	if bbox.South > bbox.North {
		return nil, fmt.Errorf("%w: south %v is above north %v", ErrInvalidBounds, bbox.South, bbox.North)
	}
	if idx.levels == nil {
		return nil, nil
	}

	minLng := wrapLng(bbox.West)
	minLat := math.Max(-90, math.Min(90, bbox.South))
	maxLng := 180.0
	if bbox.East != 180 {
		maxLng = wrapLng(bbox.East)
	}
	maxLat := math.Max(-90, math.Min(90, bbox.North))

	if bbox.East-bbox.West >= 360 {
		minLng = -180
		maxLng = 180
	} else if minLng > maxLng {
		eastern := idx.rangeQuery(minLng, minLat, 180, maxLat, zoom)
		western := idx.rangeQuery(-180, minLat, maxLng, maxLat, zoom)
		return append(eastern, western...), nil
	}

	return idx.rangeQuery(minLng, minLat, maxLng, maxLat, zoom), nil
}

func (idx *Index[P]) rangeQuery(minLng, minLat, maxLng, maxLat, zoom float64) []Node[P] {
	lvl := idx.levels[idx.LimitZoom(zoom)]
	ids := lvl.tree.Range(lngX(minLng), latY(maxLat), lngX(maxLng), latY(minLat))

	result := make([]Node[P], 0, len(ids))
	for _, id := range ids {
		result = append(result, idx.toNode(lvl.nodes[id]))
	}
	return result
}

func (idx *Index[P]) originID(clusterID int) int {
	return (clusterID - len(idx.points)) >> 5
}

func (idx *Index[P]) originZoom(clusterID int) int {
	return (clusterID - len(idx.points)) % 32
}

// GetChildren returns the nodes merged into a cluster one zoom level down.
func (idx *Index[P]) GetChildren(clusterID int) ([]Node[P], error) {
	if clusterID < len(idx.points) || idx.levels == nil {
		return nil, fmt.Errorf("%w: %d", ErrNoCluster, clusterID)
	}

	originID := idx.originID(clusterID)
	originZoom := idx.originZoom(clusterID)
	if originZoom < idx.opts.MinZoom+1 || originZoom > idx.opts.MaxZoom+1 {
		return nil, fmt.Errorf("%w: %d", ErrNoCluster, clusterID)
	}

	lvl := idx.levels[originZoom]
	if lvl == nil || originID >= len(lvl.nodes) {
		return nil, fmt.Errorf("%w: %d", ErrNoCluster, clusterID)
	}

	origin := lvl.nodes[originID]
	r := idx.opts.Radius / (idx.opts.Extent * math.Pow(2, float64(originZoom-1)))

	var children []Node[P]
	for _, id := range lvl.tree.Within(origin.x, origin.y, r) {
		if lvl.nodes[id].parentID == clusterID {
			children = append(children, idx.toNode(lvl.nodes[id]))
		}
	}

	if len(children) == 0 {
		return nil, fmt.Errorf("%w: %d", ErrNoCluster, clusterID)
	}
	return children, nil
}

// GetLeaves returns up to limit original points of a cluster, skipping the first offset.
// Leaves come in index traversal order, which is stable for a given input order.
// A non-positive limit means no limit.
func (idx *Index[P]) GetLeaves(clusterID, limit, offset int) ([]Node[P], error) {
	if limit <= 0 {
		limit = math.MaxInt
	}
	if offset < 0 {
		offset = 0
	}

	var leaves []Node[P]
	if _, err := idx.appendLeaves(&leaves, clusterID, limit, offset, 0); err != nil {
		return nil, err
	}
	return leaves, nil
}

func (idx *Index[P]) appendLeaves(result *[]Node[P], clusterID, limit, offset, skipped int) (int, error) {
	children, err := idx.GetChildren(clusterID)
	if err != nil {
		return skipped, err
	}

	for _, child := range children {
		if child.Cluster {
			if skipped+child.Count <= offset {
				skipped += child.Count
			} else {
				skipped, err = idx.appendLeaves(result, child.ID, limit, offset, skipped)
				if err != nil {
					return skipped, err
				}
			}
		} else if skipped < offset {
			skipped++
		} else {
			*result = append(*result, child)
		}

		if len(*result) == limit {
			break
		}
	}

	return skipped, nil
}

// GetClusterExpansionZoom returns the zoom at which the cluster splits into several nodes.
func (idx *Index[P]) GetClusterExpansionZoom(clusterID int) (int, error) {
	zoom := idx.originZoom(clusterID) - 1
	for zoom <= idx.opts.MaxZoom {
		children, err := idx.GetChildren(clusterID)
		if err != nil {
			return 0, err
		}
		zoom++
		if len(children) != 1 {
			break
		}
		clusterID = children[0].ID
	}
	return zoom, nil
}

func wrapLng(lng float64) float64 {
	return math.Mod(math.Mod(lng+180, 360)+360, 360) - 180
}

// lngX projects longitude to the [0, 1] Mercator x range.
func lngX(lng float64) float64 {
	return lng/360 + 0.5
}

// latY projects latitude to the [0, 1] Mercator y range, clamped at the poles.
func latY(lat float64) float64 {
	sin := math.Sin(lat * math.Pi / 180)
	y := 0.5 - 0.25*math.Log((1+sin)/(1-sin))/math.Pi
	switch {
	case y < 0:
		return 0
	case y > 1:
		return 1
	}
	return y
}

func xLng(x float64) float64 {
	return (x - 0.5) * 360
}

func yLat(y float64) float64 {
	y2 := (180 - y*360) * math.Pi / 180
	return 360*math.Atan(math.Exp(y2))/math.Pi - 90
}
