package usecase_test

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/quakemap/internal/domain"
	"github.com/quakemap/internal/domain/repository"
	"github.com/quakemap/internal/pkg/errors"
	"github.com/quakemap/internal/usecase"
	"github.com/quakemap/internal/usecase/dto"
)

var dayFeed = domain.FeedKey{Source: domain.SourceUSGS, Magnitude: "2.5", Period: "day"}

func newFeedUseCase(t *testing.T, source *MockFeedSource, cache repository.CacheRepository, searcher repository.EventSearcher) *usecase.FeedUseCase {
	t.Helper()
	uc, err := usecase.NewFeedUseCase(
		[]repository.FeedSource{source},
		searcher,
		cache,
		nil,
		zap.NewNop(),
		5*time.Minute,
		"usgs:2.5_day",
	)
	require.NoError(t, err)
	return uc
}

func TestNewFeedUseCase(t *testing.T) {
	source := &MockFeedSource{source: domain.SourceUSGS}

	t.Run("rejects malformed default feed", func(t *testing.T) {
		_, err := usecase.NewFeedUseCase([]repository.FeedSource{source}, nil, nil, nil, zap.NewNop(), time.Minute, "usgs:9_year")
		assert.Error(t, err)
	})

	t.Run("rejects default feed without a source", func(t *testing.T) {
		_, err := usecase.NewFeedUseCase([]repository.FeedSource{source}, nil, nil, nil, zap.NewNop(), time.Minute, "phivolcs:latest")
		assert.Error(t, err)
	})
}

func TestFeedUseCase_ResolveFeed(t *testing.T) {
	uc := newFeedUseCase(t, &MockFeedSource{source: domain.SourceUSGS}, nil, nil)

	key, err := uc.ResolveFeed("")
	require.NoError(t, err)
	assert.Equal(t, dayFeed, key)

	key, err = uc.ResolveFeed("usgs:4.5_week")
	require.NoError(t, err)
	assert.Equal(t, "usgs:4.5_week", key.String())

	_, err = uc.ResolveFeed("usgs:nope")
	assert.ErrorIs(t, err, errors.ErrInvalidFeed)

	_, err = uc.ResolveFeed("phivolcs:latest")
	assert.ErrorIs(t, err, errors.ErrInvalidFeed)
}

func TestFeedUseCase_GetFeed(t *testing.T) {
	ctx := context.Background()
	features := []domain.RawFeature{quake("us1", 121, 14, 10, 4.5, time.Now())}

	t.Run("cache hit skips the source", func(t *testing.T) {
		source := &MockFeedSource{source: domain.SourceUSGS}
		cache := &MockCacheRepository{}
		cached := &domain.FeedSnapshot{Feed: "usgs:2.5_day", Features: features}
		cache.On("GetFeed", ctx, "usgs:2.5_day").Return(cached, nil)

		uc := newFeedUseCase(t, source, cache, nil)
		got, err := uc.GetFeed(ctx, dayFeed)

		require.NoError(t, err)
		assert.Same(t, cached, got)
		source.AssertNotCalled(t, "FetchFeed", mock.Anything, mock.Anything)
	})

	t.Run("cache miss fetches and stores", func(t *testing.T) {
		source := &MockFeedSource{source: domain.SourceUSGS}
		cache := &MockCacheRepository{}
		cache.On("GetFeed", ctx, "usgs:2.5_day").Return(nil, nil)
		source.On("FetchFeed", ctx, dayFeed).Return(features, nil)
		cache.On("SetFeed", ctx, mock.MatchedBy(func(s *domain.FeedSnapshot) bool {
			return s.Feed == "usgs:2.5_day" && len(s.Features) == 1
		}), 5*time.Minute).Return(nil)

		uc := newFeedUseCase(t, source, cache, nil)
		got, err := uc.GetFeed(ctx, dayFeed)

		require.NoError(t, err)
		assert.Equal(t, features, got.Features)
		assert.False(t, got.FetchedAt.IsZero())
		cache.AssertExpectations(t)
		source.AssertExpectations(t)
	})

	t.Run("cache failures are bypassed", func(t *testing.T) {
		source := &MockFeedSource{source: domain.SourceUSGS}
		cache := &MockCacheRepository{}
		cache.On("GetFeed", ctx, "usgs:2.5_day").Return(nil, stderrors.New("connection refused"))
		cache.On("SetFeed", ctx, mock.Anything, mock.Anything).Return(stderrors.New("connection refused"))
		source.On("FetchFeed", ctx, dayFeed).Return(features, nil)

		uc := newFeedUseCase(t, source, cache, nil)
		got, err := uc.GetFeed(ctx, dayFeed)

		require.NoError(t, err)
		assert.Len(t, got.Features, 1)
	})

	t.Run("source failure is reported as unavailable", func(t *testing.T) {
		source := &MockFeedSource{source: domain.SourceUSGS}
		source.On("FetchFeed", ctx, dayFeed).Return(nil, stderrors.New("502 bad gateway"))

		uc := newFeedUseCase(t, source, nil, nil)
		_, err := uc.GetFeed(ctx, dayFeed)

		assert.ErrorIs(t, err, errors.ErrFeedUnavailable)
	})
}

func TestFeedUseCase_RefreshFeed(t *testing.T) {
	ctx := context.Background()
	source := &MockFeedSource{source: domain.SourceUSGS}
	cache := &MockCacheRepository{}
	features := []domain.RawFeature{quake("us2", 10, 10, 5, 3, time.Now())}

	source.On("FetchFeed", ctx, dayFeed).Return(features, nil)
	cache.On("DeleteFeed", ctx, "usgs:2.5_day").Return(nil)
	cache.On("SetFeed", ctx, mock.Anything, 5*time.Minute).Return(nil)

	uc := newFeedUseCase(t, source, cache, nil)
	snapshot, err := uc.RefreshFeed(ctx, dayFeed)

	require.NoError(t, err)
	assert.Equal(t, features, snapshot.Features)
	cache.AssertExpectations(t)
	cache.AssertNotCalled(t, "GetFeed", mock.Anything, mock.Anything)
}

func TestFeedUseCase_ListEvents(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	features := []domain.RawFeature{
		quake("manila", 120.98, 14.6, 10, 4.1, now.Add(-1*time.Hour)),
		quake("tokyo", 139.69, 35.69, 40, 6.2, now.Add(-3*time.Hour)),
		quake("lima", -77.04, -12.05, 60, 5.0, now.Add(-30*time.Minute)),
		quake("small", 121.5, 15.0, 5, 2.0, now.Add(-10*time.Hour)),
		{ID: "broken", Coordinates: []float64{1}},
	}

	source := &MockFeedSource{source: domain.SourceUSGS}
	source.On("FetchFeed", mock.Anything, dayFeed).Return(features, nil)
	uc := newFeedUseCase(t, source, nil, nil)

	ids := func(resp *dto.EventListResponse) []string {
		out := make([]string, 0, len(resp.Events))
		for _, e := range resp.Events {
			out = append(out, e.ID)
		}
		return out
	}

	t.Run("newest first by default", func(t *testing.T) {
		resp, err := uc.ListEvents(ctx, dto.EventListRequest{})
		require.NoError(t, err)
		assert.Equal(t, []string{"lima", "manila", "tokyo", "small"}, ids(resp))
		assert.Equal(t, 4, resp.Total)
		assert.Equal(t, "usgs:2.5_day", resp.Feed)
	})

	t.Run("magnitude filter and sort", func(t *testing.T) {
		resp, err := uc.ListEvents(ctx, dto.EventListRequest{
			MinMagnitude: ptrFloat64(4),
			MaxMagnitude: ptrFloat64(6),
			Sort:         "magnitude",
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"lima", "manila"}, ids(resp))
	})

	t.Run("since drops older events", func(t *testing.T) {
		resp, err := uc.ListEvents(ctx, dto.EventListRequest{Since: "2h"})
		require.NoError(t, err)
		assert.Equal(t, []string{"lima", "manila"}, ids(resp))
	})

	t.Run("distance sort", func(t *testing.T) {
		resp, err := uc.ListEvents(ctx, dto.EventListRequest{
			Sort:    "distance",
			NearLat: ptrFloat64(14.6),
			NearLon: ptrFloat64(121.0),
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"manila", "small", "tokyo", "lima"}, ids(resp))
		require.NotNil(t, resp.Events[0].DistanceKm)
		assert.Less(t, *resp.Events[0].DistanceKm, 5.0)
	})

	t.Run("limit keeps the total", func(t *testing.T) {
		resp, err := uc.ListEvents(ctx, dto.EventListRequest{Limit: 2})
		require.NoError(t, err)
		assert.Len(t, resp.Events, 2)
		assert.Equal(t, 4, resp.Total)
	})

	t.Run("display fields", func(t *testing.T) {
		resp, err := uc.ListEvents(ctx, dto.EventListRequest{Sort: "magnitude", Limit: 1})
		require.NoError(t, err)
		ev := resp.Events[0]
		assert.Equal(t, "M 6.2", ev.MagnitudeFmt)
		assert.Equal(t, "40.0 km", ev.DepthFmt)
		assert.Equal(t, "#f57c00", ev.Color)
		assert.Equal(t, "6.0 - 6.9", ev.Band)
		assert.Equal(t, "3 h ago", ev.RelativeTime)
	})

	t.Run("distance sort needs a reference point", func(t *testing.T) {
		_, err := uc.ListEvents(ctx, dto.EventListRequest{Sort: "distance"})
		assert.ErrorIs(t, err, errors.ErrInvalidRequest)
	})

	t.Run("bad since", func(t *testing.T) {
		_, err := uc.ListEvents(ctx, dto.EventListRequest{Since: "yesterday"})
		assert.ErrorIs(t, err, errors.ErrInvalidRequest)
	})

	t.Run("area filter", func(t *testing.T) {
		resp, err := uc.ListEvents(ctx, dto.EventListRequest{
			West:  ptrFloat64(116),
			South: ptrFloat64(4),
			East:  ptrFloat64(127),
			North: ptrFloat64(21),
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"manila", "small"}, ids(resp))
		assert.Equal(t, 2, resp.Total)
	})

	t.Run("area filter across the antimeridian", func(t *testing.T) {
		resp, err := uc.ListEvents(ctx, dto.EventListRequest{
			West:  ptrFloat64(130),
			South: ptrFloat64(-20),
			East:  ptrFloat64(-70),
			North: ptrFloat64(40),
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"lima", "tokyo"}, ids(resp))
	})

	t.Run("incomplete area", func(t *testing.T) {
		_, err := uc.ListEvents(ctx, dto.EventListRequest{West: ptrFloat64(116), East: ptrFloat64(127)})
		assert.ErrorIs(t, err, errors.ErrInvalidRequest)
	})

	t.Run("area south above north", func(t *testing.T) {
		_, err := uc.ListEvents(ctx, dto.EventListRequest{
			West:  ptrFloat64(116),
			South: ptrFloat64(30),
			East:  ptrFloat64(127),
			North: ptrFloat64(4),
		})
		assert.ErrorIs(t, err, errors.ErrInvalidRequest)
	})
}

func TestFeedUseCase_GetEvent(t *testing.T) {
	ctx := context.Background()
	source := &MockFeedSource{source: domain.SourceUSGS}
	source.On("FetchFeed", mock.Anything, dayFeed).Return([]domain.RawFeature{
		quake("us7000abcd", 142.4, 38.3, 29, 7.1, time.Now()),
	}, nil)
	uc := newFeedUseCase(t, source, nil, nil)

	ev, err := uc.GetEvent(ctx, "", "us7000abcd")
	require.NoError(t, err)
	assert.Equal(t, 7.1, ev.Magnitude)
	assert.Equal(t, "#d32f2f", ev.Color)

	_, err = uc.GetEvent(ctx, "", "missing")
	assert.ErrorIs(t, err, errors.ErrEventNotFound)
}

func TestFeedUseCase_SearchEvents(t *testing.T) {
	ctx := context.Background()
	source := &MockFeedSource{source: domain.SourceUSGS}

	t.Run("not configured", func(t *testing.T) {
		uc := newFeedUseCase(t, source, nil, nil)
		_, err := uc.SearchEvents(ctx, dto.EventSearchRequest{})
		assert.ErrorIs(t, err, errors.ErrFeedUnavailable)
	})

	t.Run("builds the catalog query", func(t *testing.T) {
		searcher := &MockEventSearcher{}
		searcher.On("SearchEvents", ctx, mock.MatchedBy(func(q domain.EventQuery) bool {
			return q.StartTime.Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)) &&
				q.EndTime.Equal(time.Date(2024, 1, 31, 23, 59, 59, 0, time.UTC)) &&
				q.BBox != nil && q.BBox.West == 116 && q.BBox.North == 21 &&
				q.MinMagnitude != nil && *q.MinMagnitude == 5 &&
				q.Limit == 50
		})).Return([]domain.RawFeature{
			quake("old", 121, 14, 10, 5.5, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)),
			quake("new", 122, 13, 10, 5.1, time.Date(2024, 1, 20, 0, 0, 0, 0, time.UTC)),
		}, nil)

		uc := newFeedUseCase(t, source, nil, searcher)
		resp, err := uc.SearchEvents(ctx, dto.EventSearchRequest{
			Start:        "2024-01-01",
			End:          "2024-01-31",
			MinMagnitude: ptrFloat64(5),
			West:         ptrFloat64(116),
			South:        ptrFloat64(4),
			East:         ptrFloat64(127),
			North:        ptrFloat64(21),
			Limit:        50,
		})

		require.NoError(t, err)
		require.Len(t, resp.Events, 2)
		assert.Equal(t, "new", resp.Events[0].ID)
		searcher.AssertExpectations(t)
	})

	t.Run("partial bbox", func(t *testing.T) {
		uc := newFeedUseCase(t, source, nil, &MockEventSearcher{})
		_, err := uc.SearchEvents(ctx, dto.EventSearchRequest{West: ptrFloat64(1)})
		assert.ErrorIs(t, err, errors.ErrInvalidBBox)
	})

	t.Run("end before start", func(t *testing.T) {
		uc := newFeedUseCase(t, source, nil, &MockEventSearcher{})
		_, err := uc.SearchEvents(ctx, dto.EventSearchRequest{Start: "2024-02-01", End: "2024-01-01"})
		assert.ErrorIs(t, err, errors.ErrInvalidRequest)
	})
}
