package domain

// MarkerKind tags a marker descriptor.
type MarkerKind string

const (
	MarkerSingle  MarkerKind = "single"
	MarkerCluster MarkerKind = "cluster"
)

// Color is a CSS color token.
type Color string

// ClusterAggregate is a group of nearby events at one zoom level.
type ClusterAggregate struct {
	ID            int          `json:"id"`
	Coordinates   [2]float64   `json:"coordinates"`
	Count         int          `json:"count"`
	AvgMagnitude  float64      `json:"avg_magnitude"`
	AvgDepth      float64      `json:"avg_depth"`
	Points        []Earthquake `json:"points"`
	ExpansionZoom int          `json:"expansion_zoom"`
}

// Marker is the tagged union handed to the presentation layer.
// Exactly one of Feature and Cluster is set, matching Kind.
type Marker struct {
	Kind        MarkerKind        `json:"type"`
	Coordinates [2]float64        `json:"coordinates"`
	Magnitude   float64           `json:"magnitude"`
	Depth       float64           `json:"depth"`
	Feature     *Earthquake       `json:"feature,omitempty"`
	Cluster     *ClusterAggregate `json:"cluster,omitempty"`
}

// LegendEntry describes one magnitude color band.
type LegendEntry struct {
	Label        string  `json:"label"`
	MinMagnitude float64 `json:"min_magnitude"`
	Color        Color   `json:"color"`
}
