package admin

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"simulacred/simulation-portal/simulation-portal-backend/internal/events"
)

const statsKeyPrefix = "stats:"

// CacheObserver records cache lookups
type CacheObserver interface {
	CacheHit(backend string)
	CacheMiss(backend string)
}

type noopCacheObserver struct{}

func (noopCacheObserver) CacheHit(string)  {}
func (noopCacheObserver) CacheMiss(string) {}

// AggregatorConfig configuration for the aggregator
type AggregatorConfig struct {
	CacheTTL        time.Duration
	RefreshInterval time.Duration
	RefreshBatch    int
}

// DefaultAggregatorConfig returns default configuration
func DefaultAggregatorConfig() AggregatorConfig {
	return AggregatorConfig{
		CacheTTL:        5 * time.Minute,
		RefreshInterval: 15 * time.Minute,
		RefreshBatch:    20,
	}
}

// Aggregator computes dashboard statistics behind the cache and the persisted snapshots
type Aggregator struct {
	store      StatsStore
	cache      Cache
	aggregates AggregateRepository
	observer   CacheObserver
	logger     *zap.Logger
	config     AggregatorConfig
	now        func() time.Time
}

// NewAggregator creates a new aggregator. A nil observer disables cache metrics.
func NewAggregator(store StatsStore, cache Cache, aggregates AggregateRepository, observer CacheObserver, logger *zap.Logger, config AggregatorConfig) *Aggregator {
	if observer == nil {
		observer = noopCacheObserver{}
	}
	defaults := DefaultAggregatorConfig()
	if config.CacheTTL <= 0 {
		config.CacheTTL = defaults.CacheTTL
	}
	if config.RefreshInterval <= 0 {
		config.RefreshInterval = defaults.RefreshInterval
	}
	if config.RefreshBatch <= 0 {
		config.RefreshBatch = defaults.RefreshBatch
	}
	return &Aggregator{
		store:      store,
		cache:      cache,
		aggregates: aggregates,
		observer:   observer,
		logger:     logger,
		config:     config,
		now:        time.Now,
	}
}

// Stats returns the dashboard statistics of a period
func (a *Aggregator) Stats(ctx context.Context, period Period) (*Stats, error) {
	key := StatsKey(period)

	if stats, ok := a.cached(ctx, key); ok {
		return stats, nil
	}

	stats, complete := a.compute(ctx, period)
	if complete {
		a.save(ctx, key, stats)
	}
	return stats, nil
}

// CacheStats reports the cache state
func (a *Aggregator) CacheStats(ctx context.Context) CacheStats {
	return a.cache.Stats(ctx)
}

// RefreshStale recomputes snapshots that are stale or due and returns how many were refreshed
func (a *Aggregator) RefreshStale(ctx context.Context) (int, error) {
	stale, err := a.aggregates.ListStale(ctx, a.now(), a.config.RefreshBatch)
	if err != nil {
		return 0, fmt.Errorf("failed to get stale aggregates: %w", err)
	}

	refreshed := 0
	for _, agg := range stale {
		period, ok := ParsePeriod(agg.Period)
		if !ok {
			a.logger.Warn("Skipping aggregate with unknown period", zap.String("key", agg.AggregateKey))
			continue
		}

		stats, complete := a.compute(ctx, period)
		if !complete {
			continue
		}
		a.save(ctx, agg.AggregateKey, stats)
		refreshed++
	}

	if refreshed > 0 {
		a.logger.Info("Refreshed stale aggregates", zap.Int("count", refreshed))
	}
	return refreshed, nil
}

// Warm computes and stores every period
func (a *Aggregator) Warm(ctx context.Context) {
	for _, period := range Periods {
		if stats, complete := a.compute(ctx, period); complete {
			a.save(ctx, StatsKey(period), stats)
		}
	}
}

// Invalidate drops cached statistics and flags the snapshots stale
func (a *Aggregator) Invalidate(ctx context.Context) error {
	var errs []error
	if err := a.cache.DeleteByPrefix(ctx, statsKeyPrefix); err != nil {
		errs = append(errs, err)
	}
	if err := a.aggregates.MarkAllStale(ctx); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Publish invalidates the statistics whenever a simulation is created
func (a *Aggregator) Publish(ctx context.Context, event events.Event) {
	if event.Type != events.TypeSimulationCreated {
		return
	}
	if err := a.Invalidate(ctx); err != nil {
		a.logger.Warn("Failed to invalidate dashboard statistics", zap.Error(err), zap.String("product", event.Product))
	}
}

func (a *Aggregator) cached(ctx context.Context, key string) (*Stats, bool) {
	data, ok, err := a.cache.Get(ctx, key)
	if err != nil {
		a.logger.Warn("Cache read failed", zap.Error(err), zap.String("key", key))
	}
	if !ok {
		a.observer.CacheMiss(a.cache.Backend())
		return nil, false
	}

	var stats Stats
	if err := json.Unmarshal(data, &stats); err != nil {
		a.logger.Warn("Discarding undecodable cache entry", zap.Error(err), zap.String("key", key))
		a.observer.CacheMiss(a.cache.Backend())
		return nil, false
	}
	a.observer.CacheHit(a.cache.Backend())
	return &stats, true
}

// compute runs the product queries concurrently. A failed query leaves its product
// at zero and marks the result incomplete so it is not cached.
func (a *Aggregator) compute(ctx context.Context, period Period) (*Stats, bool) {
	var wg sync.WaitGroup
	var mu sync.Mutex
	var errs []error

	now := a.now()
	since := period.Since(now)
	stats := &Stats{Period: period, ComputedAt: now.UTC()}

	fail := func(name string, err error) {
		mu.Lock()
		errs = append(errs, fmt.Errorf("%s: %w", name, err))
		mu.Unlock()
	}

	wg.Add(3)

	go func() {
		defer wg.Done()
		data, err := a.store.RealEstateStats(ctx, since)
		if err != nil {
			fail("real estate", err)
			return
		}
		mu.Lock()
		stats.RealEstate = data
		mu.Unlock()
	}()

	go func() {
		defer wg.Done()
		data, err := a.store.VehicleStats(ctx, since)
		if err != nil {
			fail("vehicle", err)
			return
		}
		mu.Lock()
		stats.Vehicle = data
		mu.Unlock()
	}()

	go func() {
		defer wg.Done()
		data, err := a.store.FGTSStats(ctx, since)
		if err != nil {
			fail("fgts", err)
			return
		}
		mu.Lock()
		stats.FGTS = data
		mu.Unlock()
	}()

	wg.Wait()

	if len(errs) > 0 {
		a.logger.Warn("Some aggregations failed", zap.Errors("errors", errs), zap.String("period", string(period)))
		return stats, false
	}
	return stats, true
}

func (a *Aggregator) save(ctx context.Context, key string, stats *Stats) {
	data, err := json.Marshal(stats)
	if err != nil {
		a.logger.Error("Failed to encode stats", zap.Error(err), zap.String("key", key))
		return
	}

	if err := a.cache.Set(ctx, key, data, a.config.CacheTTL); err != nil {
		a.logger.Warn("Cache write failed", zap.Error(err), zap.String("key", key))
	}

	aggregate := &DashboardAggregate{
		AggregateKey:  key,
		Period:        string(stats.Period),
		Data:          data,
		IsStale:       false,
		ComputedAt:    stats.ComputedAt,
		NextRefreshAt: stats.ComputedAt.Add(a.config.RefreshInterval),
		UpdatedAt:     stats.ComputedAt,
	}
	if err := a.aggregates.Upsert(ctx, aggregate); err != nil {
		a.logger.Error("Failed to persist aggregate", zap.Error(err), zap.String("key", key))
	}
}

// StatsKey is the cache and aggregate key of a period
func StatsKey(period Period) string {
	return statsKeyPrefix + string(period)
}
