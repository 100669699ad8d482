package repository

import (
	"context"

	"github.com/quakemap/internal/domain"
)

// FeedSource fetches events from one upstream provider.
type FeedSource interface {
	// Source is the FeedKey source this provider serves.
	Source() string

	// FetchFeed returns the events of a feed as decoded, without validation.
	FetchFeed(ctx context.Context, key domain.FeedKey) ([]domain.RawFeature, error)
}

// EventSearcher runs ad-hoc event searches against a provider catalog.
type EventSearcher interface {
	SearchEvents(ctx context.Context, query domain.EventQuery) ([]domain.RawFeature, error)
}
