package repository

import (
	"context"

	"github.com/quakemap/internal/domain"
)

// StreamRepository reads and writes JSON messages on Redis streams.
type StreamRepository interface {
	// ConsumeStream delivers unread messages for the group until ctx is done.
	ConsumeStream(ctx context.Context, stream, group, consumer string) (<-chan domain.StreamMessage, error)

	AckMessage(ctx context.Context, stream, group, messageID string) error

	// CreateConsumerGroup creates the group and the stream if needed. An existing group is not an error.
	CreateConsumerGroup(ctx context.Context, stream, group string) error

	PublishToStream(ctx context.Context, stream string, data interface{}) error
}
