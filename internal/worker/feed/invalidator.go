package feed

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/quakemap/internal/domain"
	"github.com/quakemap/internal/domain/repository"
	"github.com/quakemap/internal/worker"
)

// StatsCache is the part of the cache the invalidator touches.
type StatsCache interface {
	DeleteStats(ctx context.Context, feed string) error
}

// StatsInvalidator consumes feed update notifications and drops the cached statistics
// of every updated feed, so the next stats request is computed from the new snapshot.
type StatsInvalidator struct {
	*worker.BaseWorker
	streams  repository.StreamRepository
	cache    StatsCache
	stream   string
	group    string
	consumer string
}

// NewStatsInvalidator reads stream as consumer in group.
func NewStatsInvalidator(streams repository.StreamRepository, cache StatsCache, stream, group, consumer string, logger *zap.Logger) *StatsInvalidator {
	return &StatsInvalidator{
		BaseWorker: worker.NewBaseWorker("stats-invalidator", logger),
		streams:    streams,
		cache:      cache,
		stream:     stream,
		group:      group,
		consumer:   consumer,
	}
}

func (w *StatsInvalidator) Start(ctx context.Context) error {
	if err := w.streams.CreateConsumerGroup(ctx, w.stream, w.group); err != nil {
		return err
	}

	// The consumer goroutine lives until this context ends, including on Stop.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	msgs, err := w.streams.ConsumeStream(ctx, w.stream, w.group, w.consumer)
	if err != nil {
		return err
	}

	w.Logger().Info("Stats invalidator started",
		zap.String("stream", w.stream),
		zap.String("group", w.group),
		zap.String("consumer", w.consumer))

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.StopChan():
			w.Logger().Info("Stats invalidator stopped")
			return nil
		case msg, ok := <-msgs:
			if !ok {
				return ctx.Err()
			}
			w.handle(ctx, msg)
		}
	}
}

func (w *StatsInvalidator) handle(ctx context.Context, msg domain.StreamMessage) {
	var event domain.FeedUpdatedEvent
	if err := json.Unmarshal([]byte(msg.Data), &event); err != nil || event.Feed == "" {
		// Undecodable messages are acknowledged so they are not redelivered forever.
		w.Logger().Warn("Dropping malformed feed update",
			zap.String("message_id", msg.ID),
			zap.Error(err))
		w.ack(ctx, msg.ID)
		return
	}

	if err := w.cache.DeleteStats(ctx, event.Feed); err != nil {
		w.Logger().Warn("Failed to invalidate statistics",
			zap.String("feed", event.Feed),
			zap.Error(err))
		return
	}

	w.Logger().Debug("Statistics invalidated",
		zap.String("feed", event.Feed),
		zap.Int("events", event.Events),
		zap.Float64("max_magnitude", event.MaxMagnitude))
	w.ack(ctx, msg.ID)
}

func (w *StatsInvalidator) ack(ctx context.Context, id string) {
	if err := w.streams.AckMessage(ctx, w.stream, w.group, id); err != nil {
		w.Logger().Warn("Failed to acknowledge feed update", zap.String("message_id", id), zap.Error(err))
	}
}
