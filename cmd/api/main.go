package main

// @title Quake Map API
// @version 1.0.0
// @description Recent earthquakes from USGS and PHIVOLCS, clustered into map markers per viewport.
// @description
// @description Features:
// @description - Clustered markers with average magnitude and depth per cluster
// @description - Magnitude color legend
// @description - Filterable event list sorted by time, magnitude or distance
// @description - Feed statistics

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /
// @schemes http https

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	_ "github.com/quakemap/docs"
	"github.com/quakemap/internal/cluster"
	"github.com/quakemap/internal/config"
	httpDelivery "github.com/quakemap/internal/delivery/http"
	"github.com/quakemap/internal/delivery/http/handler"
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

	// 2. Initialize logger
	log, err := logger.New(cfg.Log.Level)
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer log.Sync()

	log.Info("Starting Quake Map API")
	log.Info("Configuration loaded",
		zap.String("env", cfg.Server.Env),
		zap.String("server_addr", cfg.GetServerAddr()),
		zap.String("default_feed", cfg.USGS.DefaultFeed),
	)

	// 3. Connect to Redis. The API keeps serving without a cache.
	var cacheRepo repository.CacheRepository
	var health handler.HealthChecker
	redisClient, err := cache.NewRedis(&cfg.Redis, log)
	if err != nil {
		log.Warn("Redis unavailable, running without feed cache", zap.Error(err))
	} else {
		defer func() {
			if err := redisClient.Close(); err != nil {
				log.Error("Failed to close Redis connection", zap.Error(err))
			}
		}()
		cacheRepo = cache.NewCacheRepository(redisClient)
		health = redisClient
	}

	// 4. Metrics
	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New(cfg.Metrics.Namespace)
	}

	// 5. Feed sources
	usgsClient := usgs.NewClient(&cfg.USGS, log)
	sources := []repository.FeedSource{usgsClient}
	if cfg.PHIVOLCS.Enabled {
		sources = append(sources, phivolcs.NewClient(&cfg.PHIVOLCS, log))
	}

	// 6. Use cases
	feedUC, err := usecase.NewFeedUseCase(sources, usgsClient, cacheRepo, m, log, cfg.Cache.FeedTTL, cfg.USGS.DefaultFeed)
	if err != nil {
		log.Fatal("Failed to initialize feeds", zap.Error(err))
	}

	engine := cluster.NewEngine(cluster.Config{
		Radius:    cfg.Cluster.Radius,
		MinZoom:   cfg.Cluster.MinZoom,
		MaxZoom:   cfg.Cluster.MaxZoom,
		Extent:    cfg.Cluster.Extent,
		NodeSize:  cfg.Cluster.NodeSize,
		MaxLeaves: cfg.Cluster.MaxLeaves,
	}, log)

	markerUC := usecase.NewMarkerUseCase(feedUC, engine, m, log)
	statsUC := usecase.NewStatsUseCase(feedUC, cacheRepo, m, log, cfg.Cache.StatsTTL)
	refresher := usecase.NewFeedRefresher(feedUC.RefreshFeed, cfg.Refresh.Debounce, cfg.USGS.Timeout, m, log)
	defer refresher.Stop()

	log.Info("Use cases initialized")

	// 7. Stats invalidation from the poller's update stream
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var workerManager *worker.WorkerManager
	if redisClient != nil && cfg.Stream.Enabled {
		streams := redisRepo.NewStreamRepository(redisClient.Client(), 0, log)
		workerManager = worker.NewWorkerManager(log, 0)
		workerManager.Register(feed.NewStatsInvalidator(streams, cacheRepo, cfg.Stream.Name, cfg.Stream.Group, consumerName(), log))
		if err := workerManager.Start(ctx); err != nil {
			log.Fatal("Failed to start stats invalidator", zap.Error(err))
		}
	}

	// 8. HTTP server
	server := httpDelivery.NewServer(
		cfg,
		log,
		m,
		handler.NewMarkerHandler(markerUC, log),
		handler.NewEventHandler(feedUC, refresher, log),
		handler.NewStatsHandler(statsUC, log),
		handler.NewHealthHandler(health, log),
	)

	go func() {
		if err := server.Start(); err != nil {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	log.Info("Server started successfully",
		zap.String("address", cfg.GetServerAddr()),
		zap.String("env", cfg.Server.Env),
	)

	// 9. Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server gracefully...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server shutdown error", zap.Error(err))
	}

	cancel()
	if workerManager != nil {
		if err := workerManager.Stop(); err != nil {
			log.Error("Error stopping workers", zap.Error(err))
		}
	}

	log.Info("Server stopped successfully")
}

// consumerName identifies this API instance inside the stream consumer group.
func consumerName() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "api"
	}
	return host + "-" + uuid.NewString()[:8]
}
