package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"simulacred/simulation-portal/simulation-portal-backend/internal/admin"
	"simulacred/simulation-portal/simulation-portal-backend/internal/config"
	"simulacred/simulation-portal/simulation-portal-backend/internal/database"
	"simulacred/simulation-portal/simulation-portal-backend/internal/logging"
	"simulacred/simulation-portal/simulation-portal-backend/internal/metrics"
)

func main() {
	configPath := flag.String("config", "config.json", "path to the JSON config file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	db, err := database.Connect(cfg.Database, logger)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	// Create context that cancels on interrupt
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cache, err := admin.NewCache(ctx, cfg.Cache)
	if err != nil {
		logger.Fatal("Failed to create cache", zap.Error(err))
	}
	defer cache.Close()

	aggregator := admin.NewAggregator(
		admin.NewSQLStore(db.SQL),
		cache,
		admin.NewGormAggregateRepository(db.Gorm),
		metrics.New(),
		logger,
		admin.AggregatorConfig{CacheTTL: cfg.Cache.TTL},
	)

	worker := NewAggregationWorker(aggregator, logger, AggregationWorkerConfig{
		RefreshInterval: cfg.Scheduler.WorkerInterval,
		RunTimeout:      cfg.Scheduler.JobTimeout,
	})

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		logger.Info("Shutdown signal received")
		cancel()
	}()

	if err := worker.Start(ctx); err != nil {
		logger.Error("Worker error", zap.Error(err))
	}

	logger.Info("Aggregation worker stopped")
}
