package usecase

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/quakemap/internal/domain"
	"github.com/quakemap/internal/pkg/debounce"
	"github.com/quakemap/internal/pkg/metrics"
)

// FeedRefreshFunc re-fetches one feed from its source.
type FeedRefreshFunc func(ctx context.Context, key domain.FeedKey) (*domain.FeedSnapshot, error)

// FeedRefresher coalesces refresh requests per feed. A burst of requests inside the
// quiet period results in one fetch, and only the newest request's fetch is kept.
type FeedRefresher struct {
	refresh   FeedRefreshFunc
	debouncer *debounce.Debouncer
	metrics   *metrics.Metrics
	logger    *zap.Logger
	timeout   time.Duration
}

// NewFeedRefresher debounces refresh requests per feed by delay and bounds each run by timeout.
func NewFeedRefresher(refresh FeedRefreshFunc, delay, timeout time.Duration, m *metrics.Metrics, logger *zap.Logger) *FeedRefresher {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &FeedRefresher{
		refresh:   refresh,
		debouncer: debounce.New(delay),
		metrics:   m,
		logger:    logger,
		timeout:   timeout,
	}
}

// RequestRefresh schedules a refresh of key and returns the request generation.
// It returns 0 once the refresher is stopped.
func (r *FeedRefresher) RequestRefresh(key domain.FeedKey) uint64 {
	name := key.String()
	if r.debouncer.Pending(name) {
		r.metrics.RefreshRequested(name, false)
	}
	return r.debouncer.Trigger(name, func(gen uint64) {
		r.run(key, gen)
	})
}

func (r *FeedRefresher) run(key domain.FeedKey, gen uint64) {
	name := key.String()
	r.metrics.RefreshRequested(name, true)

	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	snapshot, err := r.refresh(ctx, key)
	if err != nil {
		r.logger.Warn("Feed refresh failed", zap.String("feed", name), zap.Uint64("generation", gen), zap.Error(err))
		return
	}

	if !r.debouncer.IsCurrent(name, gen) {
		r.logger.Debug("Discarding superseded refresh", zap.String("feed", name), zap.Uint64("generation", gen))
		return
	}

	r.logger.Info("Feed refreshed",
		zap.String("feed", name),
		zap.Uint64("generation", gen),
		zap.Int("events", len(snapshot.Features)))
}

// Generation returns the newest refresh generation of key.
func (r *FeedRefresher) Generation(key domain.FeedKey) uint64 {
	return r.debouncer.Generation(key.String())
}

// Stop cancels pending refreshes and waits for running ones.
func (r *FeedRefresher) Stop() {
	r.debouncer.Stop()
}
