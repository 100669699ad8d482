// Package feed keeps cached feed snapshots warm by re-fetching them on an interval.
package feed

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/quakemap/internal/cluster"
	"github.com/quakemap/internal/domain"
	"github.com/quakemap/internal/worker"
)

// Refresher re-fetches one feed and replaces its cached snapshot.
type Refresher interface {
	RefreshFeed(ctx context.Context, key domain.FeedKey) (*domain.FeedSnapshot, error)
}

// Publisher announces refreshed feeds to other processes.
type Publisher interface {
	PublishToStream(ctx context.Context, stream string, data interface{}) error
}

// Poller refreshes the configured feeds on a fixed interval.
type Poller struct {
	*worker.BaseWorker
	refresher Refresher
	feeds     []domain.FeedKey
	interval  time.Duration
	timeout   time.Duration

	publisher Publisher
	stream    string
}

// NewPoller parses the feed keys up front so a typo fails at startup.
func NewPoller(refresher Refresher, feeds []string, interval time.Duration, logger *zap.Logger) (*Poller, error) {
	if interval <= 0 {
		return nil, fmt.Errorf("poll interval must be positive, got %v", interval)
	}

	keys := make([]domain.FeedKey, 0, len(feeds))
	for _, f := range feeds {
		key, err := domain.ParseFeedKey(f)
		if err != nil {
			return nil, fmt.Errorf("poller feed: %w", err)
		}
		keys = append(keys, key)
	}
	if len(keys) == 0 {
		return nil, fmt.Errorf("poller needs at least one feed")
	}

	timeout := interval
	if timeout > 30*time.Second {
		timeout = 30 * time.Second
	}

	return &Poller{
		BaseWorker: worker.NewBaseWorker("feed-poller", logger),
		refresher:  refresher,
		feeds:      keys,
		interval:   interval,
		timeout:    timeout,
	}, nil
}

// SetPublisher makes the poller publish a FeedUpdatedEvent to stream after each successful poll.
func (p *Poller) SetPublisher(pub Publisher, stream string) {
	p.publisher = pub
	p.stream = stream
}

// Start polls every feed immediately and then once per interval until stopped.
func (p *Poller) Start(ctx context.Context) error {
	p.Logger().Info("Feed poller started",
		zap.Int("feeds", len(p.feeds)),
		zap.Duration("interval", p.interval))

	p.pollAll(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-p.StopChan():
			p.Logger().Info("Feed poller stopped")
			return nil
		case <-ticker.C:
			p.pollAll(ctx)
		}
	}
}

func (p *Poller) pollAll(ctx context.Context) {
	for _, key := range p.feeds {
		if p.IsStopped() || ctx.Err() != nil {
			return
		}

		pollCtx, cancel := context.WithTimeout(ctx, p.timeout)
		snapshot, err := p.refresher.RefreshFeed(pollCtx, key)
		cancel()

		if err != nil {
			p.Logger().Warn("Feed poll failed", zap.String("feed", key.String()), zap.Error(err))
			continue
		}
		p.Logger().Debug("Feed polled",
			zap.String("feed", key.String()),
			zap.Int("events", len(snapshot.Features)))

		p.announce(ctx, snapshot)
	}
}

func (p *Poller) announce(ctx context.Context, snapshot *domain.FeedSnapshot) {
	if p.publisher == nil {
		return
	}
	if err := p.publisher.PublishToStream(ctx, p.stream, NewFeedUpdatedEvent(snapshot)); err != nil {
		p.Logger().Warn("Failed to publish feed update",
			zap.String("feed", snapshot.Feed),
			zap.Error(err))
	}
}

// NewFeedUpdatedEvent summarises a snapshot for the update stream.
func NewFeedUpdatedEvent(snapshot *domain.FeedSnapshot) domain.FeedUpdatedEvent {
	event := domain.FeedUpdatedEvent{
		Feed:      snapshot.Feed,
		Events:    len(snapshot.Features),
		FetchedAt: snapshot.FetchedAt,
	}

	quakes := cluster.Earthquakes(snapshot.Features)
	event.Valid = len(quakes)
	for i, q := range quakes {
		if i == 0 || q.Magnitude > event.MaxMagnitude {
			event.MaxMagnitude = q.Magnitude
			event.StrongestID = q.ID
		}
	}
	return event
}
