package usecase

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/quakemap/internal/cluster"
	"github.com/quakemap/internal/domain"
	"github.com/quakemap/internal/domain/repository"
	"github.com/quakemap/internal/pkg/metrics"
)

// StatsUseCase summarises feed snapshots.
type StatsUseCase struct {
	feeds     FeedReader
	cacheRepo repository.CacheRepository
	metrics   *metrics.Metrics
	logger    *zap.Logger
	ttl       time.Duration
}

// NewStatsUseCase returns a StatsUseCase. A nil cache disables stats caching.
func NewStatsUseCase(
	feeds FeedReader,
	cacheRepo repository.CacheRepository,
	m *metrics.Metrics,
	logger *zap.Logger,
	ttl time.Duration,
) *StatsUseCase {
	return &StatsUseCase{
		feeds:     feeds,
		cacheRepo: cacheRepo,
		metrics:   m,
		logger:    logger,
		ttl:       ttl,
	}
}

// GetStatistics returns the statistics of a feed, using the cache when possible.
func (uc *StatsUseCase) GetStatistics(ctx context.Context, feed string) (*domain.Statistics, error) {
	key, err := uc.feeds.ResolveFeed(feed)
	if err != nil {
		return nil, err
	}

	if uc.cacheRepo != nil {
		cached, err := uc.cacheRepo.GetStats(ctx, key.String())
		if err != nil {
			uc.logger.Warn("Failed to get stats from cache", zap.Error(err))
		}
		uc.metrics.CacheLookup("stats", cached != nil)
		if cached != nil {
			uc.logger.Debug("Statistics fetched from cache", zap.String("feed", key.String()))
			return cached, nil
		}
	}

	snapshot, err := uc.feeds.GetFeed(ctx, key)
	if err != nil {
		return nil, err
	}

	stats := ComputeStatistics(snapshot, time.Now())

	if uc.cacheRepo != nil {
		if err := uc.cacheRepo.SetStats(ctx, stats, uc.ttl); err != nil {
			uc.logger.Warn("Failed to cache stats", zap.Error(err))
		}
	}

	return stats, nil
}

// ComputeStatistics aggregates the valid events of a snapshot.
func ComputeStatistics(snapshot *domain.FeedSnapshot, now time.Time) *domain.Statistics {
	stats := &domain.Statistics{
		Feed:        snapshot.Feed,
		Total:       len(snapshot.Features),
		ByBand:      make(map[string]int),
		GeneratedAt: now.UTC(),
	}

	quakes := cluster.Earthquakes(snapshot.Features)
	stats.Valid = len(quakes)
	if len(quakes) == 0 {
		return stats
	}

	var sumMag, sumDepth float64
	for i := range quakes {
		q := &quakes[i]
		sumMag += q.Magnitude
		sumDepth += q.Depth
		stats.ByBand[cluster.BandLabel(q.Magnitude)]++

		if stats.Strongest == nil || q.Magnitude > stats.Strongest.Magnitude {
			stats.Strongest = q
		}
		if stats.Latest == nil || q.Time.After(stats.Latest.Time) {
			stats.Latest = q
		}
	}

	n := float64(len(quakes))
	stats.MaxMagnitude = stats.Strongest.Magnitude
	stats.AvgMagnitude = sumMag / n
	stats.AvgDepth = sumDepth / n

	return stats
}
