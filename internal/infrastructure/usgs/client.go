package usgs

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/quakemap/internal/config"
	"github.com/quakemap/internal/domain"
)

// featureCollection is the GeoJSON shape of both the summary feeds and FDSN query results.
// Coordinates keep the third component, depth in km.
type featureCollection struct {
	Metadata struct {
		Generated int64  `json:"generated"`
		Title     string `json:"title"`
		Status    int    `json:"status"`
		Count     int    `json:"count"`
	} `json:"metadata"`
	Features []feature `json:"features"`
}

type feature struct {
	ID         string `json:"id"`
	Properties struct {
		Mag   *float64 `json:"mag"`
		Place *string  `json:"place"`
		Time  *int64   `json:"time"`
		URL   string   `json:"url"`
	} `json:"properties"`
	Geometry *struct {
		Type        string    `json:"type"`
		Coordinates []float64 `json:"coordinates"`
	} `json:"geometry"`
}

func (f feature) raw() domain.RawFeature {
	r := domain.RawFeature{
		ID:        f.ID,
		Magnitude: f.Properties.Mag,
		Time:      f.Properties.Time,
		URL:       f.Properties.URL,
	}
	if f.Properties.Place != nil {
		r.Place = *f.Properties.Place
	}
	if f.Geometry != nil {
		r.Coordinates = f.Geometry.Coordinates
	}
	return r
}

// Client talks to the USGS summary feeds and the FDSN event service.
type Client struct {
	httpClient *http.Client
	baseURL    string
	queryURL   string
	logger     *zap.Logger
}

// NewClient creates a client for the USGS summary feeds and FDSN event service.
func NewClient(cfg *config.USGSConfig, logger *zap.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    cfg.BaseURL,
		queryURL:   cfg.QueryURL,
		logger:     logger,
	}
}

func (c *Client) Source() string {
	return domain.SourceUSGS
}

// FetchFeed downloads one summary feed, e.g. 2.5_day.geojson.
func (c *Client) FetchFeed(ctx context.Context, key domain.FeedKey) ([]domain.RawFeature, error) {
	if key.Source != domain.SourceUSGS {
		return nil, fmt.Errorf("usgs client cannot serve feed %s", key)
	}

	u := fmt.Sprintf("%s/%s.geojson", c.baseURL, key.FeedName())
	return c.get(ctx, u)
}

// SearchEvents runs an FDSN event query ordered by time.
func (c *Client) SearchEvents(ctx context.Context, q domain.EventQuery) ([]domain.RawFeature, error) {
	params := url.Values{}
	params.Set("format", "geojson")
	params.Set("orderby", "time")
	if !q.StartTime.IsZero() {
		params.Set("starttime", q.StartTime.UTC().Format(time.RFC3339))
	}
	if !q.EndTime.IsZero() {
		params.Set("endtime", q.EndTime.UTC().Format(time.RFC3339))
	}
	if q.MinMagnitude != nil {
		params.Set("minmagnitude", strconv.FormatFloat(*q.MinMagnitude, 'f', -1, 64))
	}
	if q.BBox != nil {
		params.Set("minlatitude", strconv.FormatFloat(q.BBox.South, 'f', -1, 64))
		params.Set("maxlatitude", strconv.FormatFloat(q.BBox.North, 'f', -1, 64))
		params.Set("minlongitude", strconv.FormatFloat(q.BBox.West, 'f', -1, 64))
		params.Set("maxlongitude", strconv.FormatFloat(q.BBox.East, 'f', -1, 64))
	}
	if q.Limit > 0 {
		params.Set("limit", strconv.Itoa(q.Limit))
	}

	return c.get(ctx, c.queryURL+"?"+params.Encode())
}

func (c *Client) get(ctx context.Context, u string) ([]domain.RawFeature, error) {
	c.logger.Debug("Calling USGS API", zap.String("url", u))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		c.logger.Error("Failed to create request", zap.Error(err))
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/geo+json, application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("Failed to execute request", zap.Error(err))
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		c.logger.Error("USGS API returned error",
			zap.Int("status_code", resp.StatusCode),
			zap.String("body", string(body)))
		return nil, fmt.Errorf("usgs API error: status %d", resp.StatusCode)
	}

	features, err := Decode(resp.Body)
	if err != nil {
		c.logger.Error("Failed to decode response", zap.Error(err))
		return nil, err
	}

	c.logger.Debug("USGS API call successful", zap.Int("features", len(features)))

	return features, nil
}

// Decode reads a USGS GeoJSON feature collection, such as a saved summary feed.
func Decode(r io.Reader) ([]domain.RawFeature, error) {
	var fc featureCollection
	if err := json.NewDecoder(r).Decode(&fc); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	features := make([]domain.RawFeature, 0, len(fc.Features))
	for _, f := range fc.Features {
		features = append(features, f.raw())
	}
	return features, nil
}
