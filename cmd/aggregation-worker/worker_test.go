package main

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeRefresher struct {
	mu        sync.Mutex
	warmed    int
	refreshed int
	err       error
	tick      chan struct{}
}

func (f *fakeRefresher) Warm(context.Context) {
	f.mu.Lock()
	f.warmed++
	f.mu.Unlock()
}

func (f *fakeRefresher) RefreshStale(context.Context) (int, error) {
	f.mu.Lock()
	f.refreshed++
	f.mu.Unlock()
	select {
	case f.tick <- struct{}{}:
	default:
	}
	return 1, f.err
}

func TestAggregationWorkerRefreshesOnTicker(t *testing.T) {
	refresher := &fakeRefresher{tick: make(chan struct{}, 1), err: errors.New("db down")}
	worker := NewAggregationWorker(refresher, zap.NewNop(), AggregationWorkerConfig{RefreshInterval: 10 * time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error)
	go func() { done <- worker.Start(ctx) }()

	select {
	case <-refresher.tick:
	case <-time.After(2 * time.Second):
		t.Fatal("worker never refreshed")
	}
	cancel()
	require.NoError(t, <-done)

	refresher.mu.Lock()
	defer refresher.mu.Unlock()
	assert.Equal(t, 1, refresher.warmed)
	assert.GreaterOrEqual(t, refresher.refreshed, 1)
}

func TestAggregationWorkerStop(t *testing.T) {
	worker := NewAggregationWorker(&fakeRefresher{}, zap.NewNop(), AggregationWorkerConfig{RefreshInterval: time.Hour})

	done := make(chan error)
	go func() { done <- worker.Start(context.Background()) }()
	worker.Stop()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop")
	}
}

func TestDefaultAggregationWorkerConfig(t *testing.T) {
	worker := NewAggregationWorker(&fakeRefresher{}, zap.NewNop(), AggregationWorkerConfig{})
	assert.Equal(t, time.Minute, worker.config.RefreshInterval)
	assert.Equal(t, 5*time.Minute, worker.config.RunTimeout)
}
