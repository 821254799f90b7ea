package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	v1 "simulacred/simulation-portal/simulation-portal-backend/api/v1"
	"simulacred/simulation-portal/simulation-portal-backend/internal/admin"
	"simulacred/simulation-portal/simulation-portal-backend/internal/config"
	"simulacred/simulation-portal/simulation-portal-backend/internal/database"
	"simulacred/simulation-portal/simulation-portal-backend/internal/logging"
	"simulacred/simulation-portal/simulation-portal-backend/internal/metrics"
	"simulacred/simulation-portal/simulation-portal-backend/internal/middleware"
	"simulacred/simulation-portal/simulation-portal-backend/internal/notifications"
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

	if err := run(cfg, logger); err != nil {
		logger.Fatal("Server failed", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx := context.Background()

	if err := middleware.RegisterValidators(); err != nil {
		return fmt.Errorf("failed to register validators: %w", err)
	}

	db, err := database.Connect(cfg.Database, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	if cfg.Database.AutoMigrate {
		if err := database.Migrate(db.SQL, logger); err != nil {
			return err
		}
	}

	storageClient, bucket, err := v1.NewStorage(ctx, cfg.Storage)
	if err != nil {
		return err
	}
	if cfg.Storage.Bucket == "" {
		logger.Warn("No S3 bucket configured, documents are kept in memory", zap.String("bucket", bucket))
	}

	cache, err := admin.NewCache(ctx, cfg.Cache)
	if err != nil {
		return err
	}
	defer cache.Close()

	notifier, err := notifications.NewServiceFromConfig(ctx, cfg.Notifications, logger)
	if err != nil {
		return err
	}

	api, err := v1.Setup(v1.Dependencies{
		Config:   cfg,
		DB:       db,
		Storage:  storageClient,
		Cache:    cache,
		Notifier: notifier,
		Metrics:  metrics.New(),
		Logger:   logger,
	})
	if err != nil {
		return err
	}
	defer api.Close()

	gin.SetMode(cfg.Server.Mode)
	srv := &http.Server{
		Addr:         cfg.Server.GetServerAddr(),
		Handler:      api.Router(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	logger.Info("Server started",
		zap.String("addr", srv.Addr),
		zap.String("cache", cache.Backend()))

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-serveErr:
		return fmt.Errorf("listen: %w", err)
	case <-quit:
	}
	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Info("Server exiting")
	return nil
}
