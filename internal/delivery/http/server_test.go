package http_test

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/quakemap/internal/cluster"
	"github.com/quakemap/internal/config"
	httpDelivery "github.com/quakemap/internal/delivery/http"
	"github.com/quakemap/internal/delivery/http/handler"
	"github.com/quakemap/internal/domain"
	"github.com/quakemap/internal/domain/repository"
	"github.com/quakemap/internal/pkg/metrics"
	"github.com/quakemap/internal/usecase"
)

type stubSource struct {
	features []domain.RawFeature
	err      error
	calls    atomic.Int32
}

func (s *stubSource) Source() string { return domain.SourceUSGS }

func (s *stubSource) FetchFeed(ctx context.Context, key domain.FeedKey) ([]domain.RawFeature, error) {
	s.calls.Add(1)
	return s.features, s.err
}

func raw(id string, lon, lat, depth, mag float64, at time.Time) domain.RawFeature {
	ms := at.UnixMilli()
	return domain.RawFeature{
		ID:          id,
		Coordinates: []float64{lon, lat, depth},
		Magnitude:   &mag,
		Place:       "near " + id,
		Time:        &ms,
	}
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Meta  map[string]any  `json:"meta"`
	Error *struct {
		Code    string         `json:"code"`
		Message string         `json:"message"`
		Details map[string]any `json:"details"`
	} `json:"error"`
}

func newTestServer(t *testing.T, source *stubSource) (*httpDelivery.Server, *metrics.Metrics) {
	t.Helper()
	logger := zap.NewNop()
	m := metrics.New("test")

	feedUC, err := usecase.NewFeedUseCase([]repository.FeedSource{source}, nil, nil, m, logger, time.Minute, "usgs:2.5_day")
	require.NoError(t, err)

	engine := cluster.NewEngine(cluster.DefaultConfig(), logger)
	markerUC := usecase.NewMarkerUseCase(feedUC, engine, m, logger)
	statsUC := usecase.NewStatsUseCase(feedUC, nil, m, logger, time.Minute)
	refresher := usecase.NewFeedRefresher(feedUC.RefreshFeed, 10*time.Millisecond, time.Second, m, logger)
	t.Cleanup(refresher.Stop)

	srv := httpDelivery.NewServer(
		&config.Config{},
		logger,
		m,
		handler.NewMarkerHandler(markerUC, logger),
		handler.NewEventHandler(feedUC, refresher, logger),
		handler.NewStatsHandler(statsUC, logger),
		handler.NewHealthHandler(nil, logger),
	)
	return srv, m
}

func do(t *testing.T, srv *httpDelivery.Server, method, target string) (*http.Response, envelope) {
	t.Helper()
	resp, err := srv.App().Test(httptest.NewRequest(method, target, nil), -1)
	require.NoError(t, err)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var env envelope
	if strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(body, &env), string(body))
	}
	return resp, env
}

func swarm() []domain.RawFeature {
	now := time.Now()
	features := []domain.RawFeature{raw("us9", 142.37, 38.3, 29, 9.1, now.Add(-time.Hour))}
	for i := 0; i < 20; i++ {
		features = append(features, raw("bt"+string(rune('a'+i)), 121.0+float64(i)*0.002, 14.5+float64(i%5)*0.003, 10, 3+float64(i)*0.1, now.Add(-time.Duration(i)*time.Minute)))
	}
	return features
}

func TestServer_Markers(t *testing.T) {
	srv, _ := newTestServer(t, &stubSource{features: swarm()})

	resp, env := do(t, srv, http.MethodGet, "/api/v1/markers?west=100&south=0&east=150&north=45&zoom=2")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))

	var data struct {
		Markers []struct {
			Type  string  `json:"type"`
			Count int     `json:"count"`
			Size  float64 `json:"size"`
			Color string  `json:"color"`
		} `json:"markers"`
		Considered int `json:"considered"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Equal(t, 21, data.Considered)

	kinds := map[string]int{}
	for _, m := range data.Markers {
		kinds[m.Type]++
		if m.Type == "cluster" {
			assert.Equal(t, 20, m.Count)
			assert.Equal(t, 30.0, m.Size)
		} else {
			assert.Equal(t, "#d32f2f", m.Color)
		}
	}
	assert.Equal(t, map[string]int{"cluster": 1, "single": 1}, kinds)
	assert.Equal(t, "usgs:2.5_day", env.Meta["feed"])
}

func TestServer_MarkersValidation(t *testing.T) {
	srv, _ := newTestServer(t, &stubSource{features: swarm()})

	tests := []struct {
		name   string
		target string
		code   string
	}{
		{"non numeric edge", "/api/v1/markers?west=abc", "INVALID_BBOX"},
		{"south above north", "/api/v1/markers?south=50&north=10", "INVALID_REQUEST"},
		{"unknown feed", "/api/v1/markers?feed=usgs:9_year", "INVALID_REQUEST"},
		{"bad zoom", "/api/v1/markers?zoom=x", "INVALID_ZOOM"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, env := do(t, srv, http.MethodGet, tt.target)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			require.NotNil(t, env.Error)
			assert.Equal(t, tt.code, env.Error.Code)
		})
	}
}

func TestServer_MarkersGeoJSON(t *testing.T) {
	srv, _ := newTestServer(t, &stubSource{features: swarm()})

	resp, err := srv.App().Test(httptest.NewRequest(http.MethodGet, "/api/v1/markers.geojson?zoom=1", nil), -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/geo+json", resp.Header.Get("Content-Type"))

	var fc struct {
		Type     string `json:"type"`
		Features []any  `json:"features"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&fc))
	assert.Equal(t, "FeatureCollection", fc.Type)
	assert.Len(t, fc.Features, 2)
}

func TestServer_Events(t *testing.T) {
	srv, _ := newTestServer(t, &stubSource{features: swarm()})

	resp, env := do(t, srv, http.MethodGet, "/api/v1/events?sort=magnitude&limit=3")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var list struct {
		Events []struct {
			ID        string  `json:"id"`
			Magnitude float64 `json:"magnitude"`
		} `json:"events"`
		Total int `json:"total"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &list))
	assert.Equal(t, 21, list.Total)
	require.Len(t, list.Events, 3)
	assert.Equal(t, "us9", list.Events[0].ID)

	resp, env = do(t, srv, http.MethodGet, "/api/v1/events?sort=loudness")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "INVALID_REQUEST", env.Error.Code)

	resp, _ = do(t, srv, http.MethodGet, "/api/v1/events/us9")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, env = do(t, srv, http.MethodGet, "/api/v1/events/nope")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "EVENT_NOT_FOUND", env.Error.Code)
}

func TestServer_SearchWithoutSearcher(t *testing.T) {
	srv, _ := newTestServer(t, &stubSource{features: swarm()})

	resp, env := do(t, srv, http.MethodGet, "/api/v1/events/search?start=2024-01-01")
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, "FEED_UNAVAILABLE", env.Error.Code)
}

func TestServer_FeedUnavailable(t *testing.T) {
	srv, _ := newTestServer(t, &stubSource{err: stderrors.New("upstream 502")})

	resp, env := do(t, srv, http.MethodGet, "/api/v1/markers")
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, "FEED_UNAVAILABLE", env.Error.Code)
}

func TestServer_RefreshIsDebounced(t *testing.T) {
	source := &stubSource{features: swarm()}
	srv, _ := newTestServer(t, source)

	var gen float64
	for i := 0; i < 3; i++ {
		resp, env := do(t, srv, http.MethodPost, "/api/v1/feeds/usgs:4.5_week/refresh")
		require.Equal(t, http.StatusAccepted, resp.StatusCode)

		var data map[string]any
		require.NoError(t, json.Unmarshal(env.Data, &data))
		assert.Equal(t, "usgs:4.5_week", data["feed"])
		gen = data["generation"].(float64)
	}
	assert.Equal(t, 3.0, gen)

	require.Eventually(t, func() bool { return source.calls.Load() == 1 }, time.Second, 5*time.Millisecond)

	resp, _ := do(t, srv, http.MethodPost, "/api/v1/feeds/usgs:nope/refresh")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestServer_StatsLegendHealth(t *testing.T) {
	srv, _ := newTestServer(t, &stubSource{features: swarm()})

	resp, env := do(t, srv, http.MethodGet, "/api/v1/stats")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var stats domain.Statistics
	require.NoError(t, json.Unmarshal(env.Data, &stats))
	assert.Equal(t, 21, stats.Valid)
	assert.Equal(t, 9.1, stats.MaxMagnitude)

	resp, env = do(t, srv, http.MethodGet, "/api/v1/legend")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(env.Data), "#fdd835")

	resp, _ = do(t, srv, http.MethodGet, "/api/v1/health")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestServer_MetricsAndNotFound(t *testing.T) {
	srv, _ := newTestServer(t, &stubSource{features: swarm()})

	do(t, srv, http.MethodGet, "/api/v1/legend")

	resp, err := srv.App().Test(httptest.NewRequest(http.MethodGet, "/metrics", nil), -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "test_http_requests_total")

	resp, env := do(t, srv, http.MethodGet, "/api/v1/nowhere")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "NOT_FOUND", env.Error.Code)
}
