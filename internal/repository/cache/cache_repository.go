package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/quakemap/internal/domain"
	"github.com/quakemap/internal/domain/repository"
)

const (
	feedKeyPrefix  = "feed:"
	statsKeyPrefix = "stats:"
)

type cacheRepository struct {
	client *redis.Client
	logger *zap.Logger
}

// NewCacheRepository stores feed snapshots and statistics in redis.
func NewCacheRepository(redis *Redis) repository.CacheRepository {
	return &cacheRepository{
		client: redis.Client(),
		logger: redis.logger,
	}
}

func (r *cacheRepository) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil // Cache miss
	}
	if err != nil {
		r.logger.Error("Failed to get from cache", zap.String("key", key), zap.Error(err))
		return nil, fmt.Errorf("cache get error: %w", err)
	}

	r.logger.Debug("Cache hit", zap.String("key", key))
	return val, nil
}

func (r *cacheRepository) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	err := r.client.Set(ctx, key, value, ttl).Err()
	if err != nil {
		r.logger.Error("Failed to set cache", zap.String("key", key), zap.Error(err))
		return fmt.Errorf("cache set error: %w", err)
	}

	r.logger.Debug("Cache set", zap.String("key", key), zap.Duration("ttl", ttl))
	return nil
}

func (r *cacheRepository) Delete(ctx context.Context, key string) error {
	err := r.client.Del(ctx, key).Err()
	if err != nil {
		r.logger.Error("Failed to delete from cache", zap.String("key", key), zap.Error(err))
		return fmt.Errorf("cache delete error: %w", err)
	}

	r.logger.Debug("Cache deleted", zap.String("key", key))
	return nil
}

func (r *cacheRepository) Exists(ctx context.Context, key string) (bool, error) {
	val, err := r.client.Exists(ctx, key).Result()
	if err != nil {
		r.logger.Error("Failed to check cache existence", zap.String("key", key), zap.Error(err))
		return false, fmt.Errorf("cache exists error: %w", err)
	}

	return val > 0, nil
}

func (r *cacheRepository) GetFeed(ctx context.Context, feed string) (*domain.FeedSnapshot, error) {
	data, err := r.Get(ctx, feedKeyPrefix+feed)
	if err != nil || data == nil {
		return nil, err
	}

	snapshot, err := decodeSnapshot(data)
	if err != nil {
		r.logger.Error("Failed to decode feed snapshot", zap.String("feed", feed), zap.Error(err))
		return nil, err
	}
	return snapshot, nil
}

func (r *cacheRepository) SetFeed(ctx context.Context, snapshot *domain.FeedSnapshot, ttl time.Duration) error {
	data, err := encodeSnapshot(snapshot)
	if err != nil {
		r.logger.Error("Failed to encode feed snapshot", zap.String("feed", snapshot.Feed), zap.Error(err))
		return err
	}

	return r.Set(ctx, feedKeyPrefix+snapshot.Feed, data, ttl)
}

func (r *cacheRepository) DeleteFeed(ctx context.Context, feed string) error {
	err := r.client.Del(ctx, feedKeyPrefix+feed, statsKeyPrefix+feed).Err()
	if err != nil {
		r.logger.Error("Failed to delete feed from cache", zap.String("feed", feed), zap.Error(err))
		return fmt.Errorf("cache delete error: %w", err)
	}
	return nil
}

func (r *cacheRepository) GetStats(ctx context.Context, feed string) (*domain.Statistics, error) {
	data, err := r.Get(ctx, statsKeyPrefix+feed)
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, nil // Cache miss
	}

	var stats domain.Statistics
	if err := json.Unmarshal(data, &stats); err != nil {
		r.logger.Error("Failed to unmarshal stats from cache", zap.Error(err))
		return nil, fmt.Errorf("unmarshal stats: %w", err)
	}

	return &stats, nil
}

func (r *cacheRepository) SetStats(ctx context.Context, stats *domain.Statistics, ttl time.Duration) error {
	data, err := json.Marshal(stats)
	if err != nil {
		r.logger.Error("Failed to marshal stats", zap.Error(err))
		return fmt.Errorf("marshal stats: %w", err)
	}

	return r.Set(ctx, statsKeyPrefix+stats.Feed, data, ttl)
}

func (r *cacheRepository) DeleteStats(ctx context.Context, feed string) error {
	return r.Delete(ctx, statsKeyPrefix+feed)
}
