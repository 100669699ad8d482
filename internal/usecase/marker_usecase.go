package usecase

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"go.uber.org/zap"

	"github.com/quakemap/internal/cluster"
	"github.com/quakemap/internal/domain"
	"github.com/quakemap/internal/pkg/metrics"
	"github.com/quakemap/internal/pkg/utils"
	"github.com/quakemap/internal/usecase/dto"
)

// MarkerUseCase turns a cached feed into display-ready markers for one viewport.
type MarkerUseCase struct {
	feeds   FeedReader
	engine  *cluster.Engine
	metrics *metrics.Metrics
	logger  *zap.Logger
	now     func() time.Time
}

// NewMarkerUseCase wires the marker pipeline. m may be nil.
func NewMarkerUseCase(feeds FeedReader, engine *cluster.Engine, m *metrics.Metrics, logger *zap.Logger) *MarkerUseCase {
	return &MarkerUseCase{
		feeds:   feeds,
		engine:  engine,
		metrics: m,
		logger:  logger,
		now:     time.Now,
	}
}

// GetMarkers clusters the feed for the requested viewport.
// A clustering failure is not an error: the response is empty and marked degraded.
func (uc *MarkerUseCase) GetMarkers(ctx context.Context, req dto.MarkersRequest) (*dto.MarkersResponse, error) {
	key, err := uc.feeds.ResolveFeed(req.Feed)
	if err != nil {
		return nil, err
	}

	since, err := parseSince(req.Since)
	if err != nil {
		return nil, err
	}

	snapshot, err := uc.feeds.GetFeed(ctx, key)
	if err != nil {
		return nil, err
	}

	now := uc.now()
	features := filterFeatures(snapshot.Features, req.MinMagnitude, since, now)
	bbox := domain.BoundingBox{West: req.West, South: req.South, East: req.East, North: req.North}

	start := time.Now()
	res := uc.engine.BuildMarkers(features, bbox, req.Zoom)
	uc.metrics.ClusterBuilt(time.Since(start), len(res.Markers), !res.OK())

	resp := &dto.MarkersResponse{
		Feed:       key.String(),
		Zoom:       uc.queryZoom(req.Zoom),
		Considered: res.Considered,
		FetchedAt:  snapshot.FetchedAt,
	}
	if bbox.IsFinite() {
		resp.BBox = &bbox
	}

	if !res.OK() {
		uc.logger.Warn("Serving empty markers",
			zap.String("feed", key.String()),
			zap.Error(res.Err))
		resp.Degraded = true
		resp.Reason = res.Err.Error()
	}

	markers := res.MarkersOrEmpty()
	resp.Markers = make([]dto.MarkerDTO, 0, len(markers))
	for _, m := range markers {
		resp.Markers = append(resp.Markers, toMarkerDTO(m, now))
	}

	return resp, nil
}

// GetMarkersGeoJSON returns the same markers as a GeoJSON feature collection.
func (uc *MarkerUseCase) GetMarkersGeoJSON(ctx context.Context, req dto.MarkersRequest) (*geojson.FeatureCollection, error) {
	resp, err := uc.GetMarkers(ctx, req)
	if err != nil {
		return nil, err
	}
	return MarkersToGeoJSON(resp), nil
}

// Legend lists the magnitude color bands.
func (uc *MarkerUseCase) Legend() dto.LegendResponse {
	return dto.LegendResponse{Bands: cluster.Legend()}
}

func (uc *MarkerUseCase) queryZoom(zoom float64) int {
	cfg := uc.engine.Config()
	if math.IsNaN(zoom) || math.IsInf(zoom, 0) {
		return cfg.MinZoom
	}
	if zoom >= float64(cfg.MaxZoom+1) {
		return cfg.MaxZoom + 1
	}
	if zoom < float64(cfg.MinZoom) {
		return cfg.MinZoom
	}
	return int(math.Floor(zoom))
}

// filterFeatures applies the user's magnitude and age filters. Features the engine
// would reject are left for it to drop.
func filterFeatures(features []domain.RawFeature, minMag *float64, since time.Duration, now time.Time) []domain.RawFeature {
	if minMag == nil && since <= 0 {
		return features
	}

	out := make([]domain.RawFeature, 0, len(features))
	for _, f := range features {
		if minMag != nil && f.Magnitude != nil && *f.Magnitude < *minMag {
			continue
		}
		if since > 0 && f.Time != nil && now.Sub(time.UnixMilli(*f.Time)) > since {
			continue
		}
		out = append(out, f)
	}
	return out
}

func toMarkerDTO(m domain.Marker, now time.Time) dto.MarkerDTO {
	out := dto.MarkerDTO{
		Type:      string(m.Kind),
		Lon:       m.Coordinates[0],
		Lat:       m.Coordinates[1],
		Magnitude: m.Magnitude,
		Depth:     m.Depth,
		Color:     string(cluster.MagnitudeColor(m.Magnitude)),
		Size:      cluster.MarkerSize(m),
	}

	switch {
	case m.Kind == domain.MarkerSingle && m.Feature != nil:
		ev := toEventDTO(*m.Feature, now)
		out.ID = m.Feature.ID
		out.Event = &ev
		out.Popup = fmt.Sprintf("%s - %s\n%s deep\n%s (%s)",
			ev.MagnitudeFmt, ev.Place, ev.DepthFmt, ev.TimeFmt, ev.RelativeTime)

	case m.Kind == domain.MarkerCluster && m.Cluster != nil:
		c := m.Cluster
		out.ID = "cluster-" + strconv.Itoa(c.ID)
		out.Count = c.Count
		out.ExpansionZoom = c.ExpansionZoom

		positions := make([][2]float64, 0, len(c.Points))
		out.Points = make([]dto.EventDTO, 0, len(c.Points))
		for _, p := range c.Points {
			positions = append(positions, [2]float64{p.Lon, p.Lat})
			out.Points = append(out.Points, toEventDTO(p, now))
		}
		out.ExtentKm = utils.SpreadKm(c.Coordinates[1], c.Coordinates[0], positions)
		out.Popup = fmt.Sprintf("%d earthquakes\naverage %s, %s deep",
			c.Count, utils.FormatMagnitude(c.AvgMagnitude), utils.FormatDepth(c.AvgDepth))
	}

	return out
}

// MarkersToGeoJSON renders markers as point features carrying their display properties.
func MarkersToGeoJSON(resp *dto.MarkersResponse) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	if resp.BBox != nil {
		fc.BBox = geojson.NewBBox(resp.BBox.Bound())
	}
	for _, m := range resp.Markers {
		f := geojson.NewFeature(orb.Point{m.Lon, m.Lat})
		f.ID = m.ID
		f.Properties["type"] = m.Type
		f.Properties["magnitude"] = m.Magnitude
		f.Properties["depth"] = m.Depth
		f.Properties["color"] = m.Color
		f.Properties["size"] = m.Size
		f.Properties["popup"] = m.Popup
		if m.Type == string(domain.MarkerCluster) {
			f.Properties["count"] = m.Count
			f.Properties["expansion_zoom"] = m.ExpansionZoom
			f.Properties["extent_km"] = m.ExtentKm
		} else if m.Event != nil {
			f.Properties["place"] = m.Event.Place
			f.Properties["time"] = m.Event.Time.UnixMilli()
			f.Properties["url"] = m.Event.URL
		}
		fc.Append(f)
	}

	fc.ExtraMembers = geojson.Properties{
		"feed":       resp.Feed,
		"zoom":       resp.Zoom,
		"considered": resp.Considered,
		"degraded":   resp.Degraded,
	}
	return fc
}
