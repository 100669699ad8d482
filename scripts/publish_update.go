//go:build ignore

// Publishes a FeedUpdatedEvent by hand so a running API drops its cached statistics.
//
//	go run scripts/publish_update.go -feed usgs:4.5_week
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

type FeedUpdatedEvent struct {
	Feed         string    `json:"feed"`
	Events       int       `json:"events"`
	Valid        int       `json:"valid"`
	MaxMagnitude float64   `json:"max_magnitude"`
	StrongestID  string    `json:"strongest_id,omitempty"`
	FetchedAt    time.Time `json:"fetched_at"`
}

func main() {
	redisAddr := flag.String("redis", "localhost:6379", "Redis address")
	stream := flag.String("stream", "stream:quakemap:feed-updates", "stream name")
	feed := flag.String("feed", "usgs:2.5_day", "feed key")
	flag.Parse()

	client := redis.NewClient(&redis.Options{Addr: *redisAddr})
	defer client.Close()

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}

	data, err := json.Marshal(FeedUpdatedEvent{Feed: *feed, FetchedAt: time.Now().UTC()})
	if err != nil {
		log.Fatalf("Failed to marshal event: %v", err)
	}

	id, err := client.XAdd(ctx, &redis.XAddArgs{
		Stream: *stream,
		Values: map[string]interface{}{"data": string(data)},
	}).Result()
	if err != nil {
		log.Fatalf("Failed to publish: %v", err)
	}

	fmt.Printf("Published %s to %s (id %s)\n", *feed, *stream, id)
}
