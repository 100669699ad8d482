package dto

import (
	"time"

	"github.com/quakemap/internal/domain"
)

// EventDTO is one earthquake as shown in lists and popups.
type EventDTO struct {
	ID           string    `json:"id"`
	Lon          float64   `json:"lon"`
	Lat          float64   `json:"lat"`
	Depth        float64   `json:"depth"`
	Magnitude    float64   `json:"magnitude"`
	Place        string    `json:"place"`
	Time         time.Time `json:"time"`
	URL          string    `json:"url,omitempty"`
	Color        string    `json:"color"`
	Band         string    `json:"band"`
	MagnitudeFmt string    `json:"magnitude_fmt"`
	DepthFmt     string    `json:"depth_fmt"`
	TimeFmt      string    `json:"time_fmt"`
	RelativeTime string    `json:"relative_time"`
	Coordinates  string    `json:"coordinates"`
	DistanceKm   *float64  `json:"distance_km,omitempty"`
}

// MarkerDTO is a display-ready marker.
type MarkerDTO struct {
	Type          string     `json:"type"`
	ID            string     `json:"id"`
	Lon           float64    `json:"lon"`
	Lat           float64    `json:"lat"`
	Magnitude     float64    `json:"magnitude"`
	Depth         float64    `json:"depth"`
	Color         string     `json:"color"`
	Size          float64    `json:"size"`
	Popup         string     `json:"popup"`
	Event         *EventDTO  `json:"event,omitempty"`
	Count         int        `json:"count,omitempty"`
	ExpansionZoom int        `json:"expansion_zoom,omitempty"`
	ExtentKm      float64    `json:"extent_km,omitempty"`
	Points        []EventDTO `json:"points,omitempty"`
}

// MarkersResponse is the markers of one viewport.
type MarkersResponse struct {
	Feed       string              `json:"feed"`
	Zoom       int                 `json:"zoom"`
	Considered int                 `json:"considered"`
	BBox       *domain.BoundingBox `json:"bbox,omitempty"`
	Markers    []MarkerDTO         `json:"markers"`
	Degraded   bool                `json:"degraded"`
	Reason     string              `json:"reason,omitempty"`
	FetchedAt  time.Time           `json:"fetched_at"`
}

// EventListResponse is a page of the event list.
type EventListResponse struct {
	Feed      string     `json:"feed"`
	Events    []EventDTO `json:"events"`
	Total     int        `json:"total"`
	FetchedAt time.Time  `json:"fetched_at"`
}

// RefreshResponse acknowledges a queued refresh.
type RefreshResponse struct {
	Feed       string `json:"feed"`
	Generation uint64 `json:"generation"`
	Status     string `json:"status"`
}

// LegendResponse lists magnitude color bands.
type LegendResponse struct {
	Bands []domain.LegendEntry `json:"bands"`
}
