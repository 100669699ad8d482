package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/quakemap/internal/config"
	"github.com/quakemap/internal/domain/repository"
	"github.com/quakemap/internal/infrastructure/phivolcs"
	"github.com/quakemap/internal/infrastructure/usgs"
	"github.com/quakemap/internal/pkg/logger"
	"github.com/quakemap/internal/pkg/metrics"
	"github.com/quakemap/internal/repository/cache"
	redisRepo "github.com/quakemap/internal/repository/redis"
	"github.com/quakemap/internal/usecase"
	"github.com/quakemap/internal/worker"
	"github.com/quakemap/internal/worker/feed"
)

func main() {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	if !cfg.Worker.Enabled {
		fmt.Println("Worker is disabled in configuration. Set WORKER_ENABLED=true to enable.")
		os.Exit(0)
	}

	// 2. Initialize logger
	log, err := logger.New(cfg.Log.Level)
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer log.Sync()

	log.Info("Starting feed poller",
		zap.Strings("feeds", cfg.Worker.Feeds),
		zap.Duration("interval", cfg.Worker.PollInterval))

	// 3. Connect to Redis. Polling only makes sense with a shared cache.
	redisClient, err := cache.NewRedis(&cfg.Redis, log)
	if err != nil {
		log.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			log.Error("Failed to close Redis connection", zap.Error(err))
		}
	}()

	// 4. Feed use case
	sources := []repository.FeedSource{usgs.NewClient(&cfg.USGS, log)}
	if cfg.PHIVOLCS.Enabled {
		sources = append(sources, phivolcs.NewClient(&cfg.PHIVOLCS, log))
	}

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New(cfg.Metrics.Namespace)
	}

	feedUC, err := usecase.NewFeedUseCase(sources, nil, cache.NewCacheRepository(redisClient), m, log, cfg.Cache.FeedTTL, cfg.USGS.DefaultFeed)
	if err != nil {
		log.Fatal("Failed to initialize feeds", zap.Error(err))
	}

	// 5. Workers
	poller, err := feed.NewPoller(feedUC, cfg.Worker.Feeds, cfg.Worker.PollInterval, log)
	if err != nil {
		log.Fatal("Failed to create feed poller", zap.Error(err))
	}
	if cfg.Stream.Enabled {
		poller.SetPublisher(redisRepo.NewStreamRepository(redisClient.Client(), 10000, log), cfg.Stream.Name)
		log.Info("Publishing feed updates", zap.String("stream", cfg.Stream.Name))
	}

	workerManager := worker.NewWorkerManager(log, 0)
	workerManager.Register(poller)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := workerManager.Start(ctx); err != nil {
		log.Fatal("Failed to start workers", zap.Error(err))
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	<-sigChan
	log.Info("Received shutdown signal")

	cancel()

	if err := workerManager.Stop(); err != nil {
		log.Error("Error stopping workers", zap.Error(err))
	}

	log.Info("Worker shutdown complete")
}
