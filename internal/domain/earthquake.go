package domain

import (
	"fmt"
	"strings"
	"time"
)

// RawFeature is a seismic event as decoded from an upstream feed.
// Any field may be missing; validity is decided by the clustering engine.
type RawFeature struct {
	ID          string    `json:"id"`
	Coordinates []float64 `json:"coordinates"`
	Magnitude   *float64  `json:"magnitude"`
	Place       string    `json:"place"`
	Time        *int64    `json:"time"`
	URL         string    `json:"url,omitempty"`
}

// Earthquake is a validated point feature.
type Earthquake struct {
	ID        string    `json:"id"`
	Lon       float64   `json:"lon"`
	Lat       float64   `json:"lat"`
	Depth     float64   `json:"depth"`
	Magnitude float64   `json:"magnitude"`
	Place     string    `json:"place"`
	Time      time.Time `json:"time"`
	URL       string    `json:"url,omitempty"`
}

// Raw converts the event back into its feed shape.
func (e Earthquake) Raw() RawFeature {
	mag := e.Magnitude
	ms := e.Time.UnixMilli()
	return RawFeature{
		ID:          e.ID,
		Coordinates: []float64{e.Lon, e.Lat, e.Depth},
		Magnitude:   &mag,
		Place:       e.Place,
		Time:        &ms,
		URL:         e.URL,
	}
}

// Feed sources
const (
	SourceUSGS     = "usgs"
	SourcePHIVOLCS = "phivolcs"
)

// FeedKey identifies one upstream feed, e.g. "usgs:2.5_day" or "phivolcs:latest".
type FeedKey struct {
	Source    string
	Magnitude string
	Period    string
}

var (
	usgsMagnitudes = map[string]bool{"all": true, "1.0": true, "2.5": true, "4.5": true, "significant": true}
	usgsPeriods    = map[string]bool{"hour": true, "day": true, "week": true, "month": true}
)

// ParseFeedKey parses the "source:magnitude_period" form.
func ParseFeedKey(s string) (FeedKey, error) {
	source, rest, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return FeedKey{}, fmt.Errorf("feed key %q: missing source", s)
	}

	switch source {
	case SourcePHIVOLCS:
		if rest != "latest" {
			return FeedKey{}, fmt.Errorf("feed key %q: phivolcs only serves latest", s)
		}
		return FeedKey{Source: SourcePHIVOLCS, Period: "latest"}, nil
	case SourceUSGS:
		mag, period, ok := strings.Cut(rest, "_")
		if !ok || !usgsMagnitudes[mag] || !usgsPeriods[period] {
			return FeedKey{}, fmt.Errorf("feed key %q: unknown usgs feed", s)
		}
		return FeedKey{Source: SourceUSGS, Magnitude: mag, Period: period}, nil
	default:
		return FeedKey{}, fmt.Errorf("feed key %q: unknown source %q", s, source)
	}
}

func (k FeedKey) String() string {
	if k.Source == SourcePHIVOLCS {
		return SourcePHIVOLCS + ":latest"
	}
	return fmt.Sprintf("%s:%s_%s", k.Source, k.Magnitude, k.Period)
}

// FeedName is the upstream file stem, e.g. "2.5_day".
func (k FeedKey) FeedName() string {
	return k.Magnitude + "_" + k.Period
}

// EventQuery narrows a custom USGS FDSN search.
type EventQuery struct {
	StartTime    time.Time
	EndTime      time.Time
	MinMagnitude *float64
	BBox         *BoundingBox
	Limit        int
}

// FeedSnapshot is one fetch of a feed as stored in the cache.
type FeedSnapshot struct {
	Feed      string       `json:"feed"`
	Features  []RawFeature `json:"features"`
	FetchedAt time.Time    `json:"fetched_at"`
}
