package main

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Refresher is the part of the admin aggregator the worker drives
type Refresher interface {
	Warm(ctx context.Context)
	RefreshStale(ctx context.Context) (int, error)
}

// AggregationWorker refreshes stale dashboard aggregates on a ticker
type AggregationWorker struct {
	refresher Refresher
	logger    *zap.Logger
	config    AggregationWorkerConfig
	done      chan struct{}
}

// AggregationWorkerConfig configuration for the aggregation worker
type AggregationWorkerConfig struct {
	RefreshInterval time.Duration
	RunTimeout      time.Duration
}

// DefaultAggregationWorkerConfig returns default configuration
func DefaultAggregationWorkerConfig() AggregationWorkerConfig {
	return AggregationWorkerConfig{
		RefreshInterval: time.Minute,
		RunTimeout:      5 * time.Minute,
	}
}

// NewAggregationWorker creates a new aggregation worker
func NewAggregationWorker(refresher Refresher, logger *zap.Logger, config AggregationWorkerConfig) *AggregationWorker {
	defaults := DefaultAggregationWorkerConfig()
	if config.RefreshInterval <= 0 {
		config.RefreshInterval = defaults.RefreshInterval
	}
	if config.RunTimeout <= 0 {
		config.RunTimeout = defaults.RunTimeout
	}
	return &AggregationWorker{
		refresher: refresher,
		logger:    logger,
		config:    config,
		done:      make(chan struct{}),
	}
}

// Start warms every period, then refreshes stale aggregates until ctx ends or Stop is called
func (w *AggregationWorker) Start(ctx context.Context) error {
	w.logger.Info("Starting aggregation worker",
		zap.Duration("refresh_interval", w.config.RefreshInterval))

	ticker := time.NewTicker(w.config.RefreshInterval)
	defer ticker.Stop()

	w.bounded(ctx, w.refresher.Warm)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("Aggregation worker shutting down")
			return nil
		case <-w.done:
			w.logger.Info("Aggregation worker stopped")
			return nil
		case <-ticker.C:
			w.bounded(ctx, w.refreshStaleAggregates)
		}
	}
}

// Stop stops the aggregation worker
func (w *AggregationWorker) Stop() {
	close(w.done)
}

func (w *AggregationWorker) bounded(ctx context.Context, fn func(context.Context)) {
	runCtx, cancel := context.WithTimeout(ctx, w.config.RunTimeout)
	defer cancel()
	fn(runCtx)
}

func (w *AggregationWorker) refreshStaleAggregates(ctx context.Context) {
	if _, err := w.refresher.RefreshStale(ctx); err != nil {
		w.logger.Error("Failed to refresh stale aggregates", zap.Error(err))
	}
}
