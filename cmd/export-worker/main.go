package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	v1 "simulacred/simulation-portal/simulation-portal-backend/api/v1"
	"simulacred/simulation-portal/simulation-portal-backend/internal/admin"
	"simulacred/simulation-portal/simulation-portal-backend/internal/admin/scheduler"
	"simulacred/simulation-portal/simulation-portal-backend/internal/config"
	"simulacred/simulation-portal/simulation-portal-backend/internal/database"
	"simulacred/simulation-portal/simulation-portal-backend/internal/logging"
	"simulacred/simulation-portal/simulation-portal-backend/internal/metrics"
)

func main() {
	configPath := flag.String("config", "config.json", "path to the JSON config file")
	runOnce := flag.String("run", "", "run the named job once and exit")
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

	if err := run(cfg, *runOnce, logger); err != nil {
		logger.Fatal("Export worker failed", zap.Error(err))
	}
}

func run(cfg *config.Config, runOnce string, logger *zap.Logger) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := database.Connect(cfg.Database, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	storageClient, bucket, err := v1.NewStorage(ctx, cfg.Storage)
	if err != nil {
		return err
	}

	cache, err := admin.NewCache(ctx, cfg.Cache)
	if err != nil {
		return err
	}
	defer cache.Close()

	m := metrics.New()
	store := admin.NewSQLStore(db.SQL)
	aggregator := admin.NewAggregator(store, cache, admin.NewGormAggregateRepository(db.Gorm), m, logger,
		admin.AggregatorConfig{CacheTTL: cfg.Cache.TTL})
	exporter := admin.NewExporter(store, logger)

	manager := scheduler.NewManager(cfg.Scheduler.JobTimeout, m, logger)
	if err := manager.Register(scheduler.JobAggregateRefresh, cfg.Scheduler.AggregateRefreshSpec,
		scheduler.AggregateRefreshJob(aggregator)); err != nil {
		return err
	}
	if err := manager.Register(scheduler.JobNightlyExport, cfg.Scheduler.NightlyExportSpec,
		scheduler.NightlyExportJob(exporter, storageClient, bucket, logger)); err != nil {
		return err
	}

	if runOnce != "" {
		return manager.RunNow(ctx, runOnce)
	}

	if err := manager.Start(); err != nil {
		return err
	}
	for _, status := range manager.Status() {
		logger.Info("Job scheduled", zap.String("job", status.Name), zap.Time("next_run", status.NextRun))
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutdown signal received")
	manager.Stop()
	return nil
}
