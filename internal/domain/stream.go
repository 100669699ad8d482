package domain

import "time"

// StreamFeedUpdates is the default stream for feed update notifications.
const StreamFeedUpdates = "stream:quakemap:feed-updates"

// FeedUpdatedEvent is published after a feed snapshot has been replaced in the cache.
type FeedUpdatedEvent struct {
	Feed         string    `json:"feed"`
	Events       int       `json:"events"`
	Valid        int       `json:"valid"`
	MaxMagnitude float64   `json:"max_magnitude"`
	StrongestID  string    `json:"strongest_id,omitempty"`
	FetchedAt    time.Time `json:"fetched_at"`
}

// StreamMessage is one raw entry read from a Redis stream.
type StreamMessage struct {
	ID   string
	Data string
}
