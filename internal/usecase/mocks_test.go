package usecase_test

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/quakemap/internal/domain"
)

// MockCacheRepository is a mock of CacheRepository
type MockCacheRepository struct {
	mock.Mock
}

func (m *MockCacheRepository) Get(ctx context.Context, key string) ([]byte, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockCacheRepository) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	args := m.Called(ctx, key, value, ttl)
	return args.Error(0)
}

func (m *MockCacheRepository) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *MockCacheRepository) Exists(ctx context.Context, key string) (bool, error) {
	args := m.Called(ctx, key)
	return args.Bool(0), args.Error(1)
}

func (m *MockCacheRepository) GetFeed(ctx context.Context, feed string) (*domain.FeedSnapshot, error) {
	args := m.Called(ctx, feed)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.FeedSnapshot), args.Error(1)
}

func (m *MockCacheRepository) SetFeed(ctx context.Context, snapshot *domain.FeedSnapshot, ttl time.Duration) error {
	args := m.Called(ctx, snapshot, ttl)
	return args.Error(0)
}

func (m *MockCacheRepository) DeleteFeed(ctx context.Context, feed string) error {
	args := m.Called(ctx, feed)
	return args.Error(0)
}

func (m *MockCacheRepository) DeleteStats(ctx context.Context, feed string) error {
	args := m.Called(ctx, feed)
	return args.Error(0)
}

func (m *MockCacheRepository) GetStats(ctx context.Context, feed string) (*domain.Statistics, error) {
	args := m.Called(ctx, feed)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Statistics), args.Error(1)
}

func (m *MockCacheRepository) SetStats(ctx context.Context, stats *domain.Statistics, ttl time.Duration) error {
	args := m.Called(ctx, stats, ttl)
	return args.Error(0)
}

// MockFeedSource is a mock of FeedSource
type MockFeedSource struct {
	mock.Mock
	source string
}

func (m *MockFeedSource) Source() string {
	return m.source
}

func (m *MockFeedSource) FetchFeed(ctx context.Context, key domain.FeedKey) ([]domain.RawFeature, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.RawFeature), args.Error(1)
}

// MockEventSearcher is a mock of EventSearcher
type MockEventSearcher struct {
	mock.Mock
}

func (m *MockEventSearcher) SearchEvents(ctx context.Context, query domain.EventQuery) ([]domain.RawFeature, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.RawFeature), args.Error(1)
}

// MockFeedReader is a mock of FeedReader
type MockFeedReader struct {
	mock.Mock
}

func (m *MockFeedReader) ResolveFeed(raw string) (domain.FeedKey, error) {
	args := m.Called(raw)
	return args.Get(0).(domain.FeedKey), args.Error(1)
}

func (m *MockFeedReader) GetFeed(ctx context.Context, key domain.FeedKey) (*domain.FeedSnapshot, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.FeedSnapshot), args.Error(1)
}

func quake(id string, lon, lat, depth, mag float64, at time.Time) domain.RawFeature {
	ms := at.UnixMilli()
	return domain.RawFeature{
		ID:          id,
		Coordinates: []float64{lon, lat, depth},
		Magnitude:   &mag,
		Place:       "near " + id,
		Time:        &ms,
		URL:         "https://earthquake.usgs.gov/earthquakes/eventpage/" + id,
	}
}

func ptrFloat64(v float64) *float64 {
	return &v
}
