package repository

import (
	"context"
	"time"

	"github.com/quakemap/internal/domain"
)

// CacheRepository stores feed snapshots and derived statistics with a TTL.
// Lookups return nil, nil on a miss.
type CacheRepository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)

	// GetFeed returns the cached snapshot of a feed.
	GetFeed(ctx context.Context, feed string) (*domain.FeedSnapshot, error)

	// SetFeed stores a snapshot, compressed.
	SetFeed(ctx context.Context, snapshot *domain.FeedSnapshot, ttl time.Duration) error

	// DeleteFeed drops a snapshot and the statistics derived from it.
	DeleteFeed(ctx context.Context, feed string) error

	GetStats(ctx context.Context, feed string) (*domain.Statistics, error)
	SetStats(ctx context.Context, stats *domain.Statistics, ttl time.Duration) error

	// DeleteStats drops derived statistics only, leaving the snapshot in place.
	DeleteStats(ctx context.Context, feed string) error
}
