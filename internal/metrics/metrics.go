package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"simulacred/simulation-portal/simulation-portal-backend/internal/financing/calculation"
)

const namespace = "simulation_portal"

// Metrics holds the Prometheus collectors of the service
type Metrics struct {
	registry            *prometheus.Registry
	calculations        *prometheus.CounterVec
	calculationDuration *prometheus.HistogramVec
	httpRequests        *prometheus.CounterVec
	httpDuration        *prometheus.HistogramVec
	cacheLookups        *prometheus.CounterVec
	simulationsCreated  *prometheus.CounterVec
	jobRuns             *prometheus.CounterVec
}

// New creates the collectors on a dedicated registry
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		calculations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "calculations_total",
			Help:      "Financing simulations by product and outcome.",
		}, []string{"product", "outcome"}),
		calculationDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "calculation_duration_seconds",
			Help:      "Time spent computing a financing simulation.",
			Buckets:   []float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01},
		}, []string{"product"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_lookups_total",
			Help:      "Dashboard cache lookups by backend and result.",
		}, []string{"backend", "result"}),
		simulationsCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "simulations_created_total",
			Help:      "Persisted simulations by product.",
		}, []string{"product"}),
		jobRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "job_runs_total",
			Help:      "Scheduled job executions by job and outcome.",
		}, []string{"job", "outcome"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.calculations,
		m.calculationDuration,
		m.httpRequests,
		m.httpDuration,
		m.cacheLookups,
		m.simulationsCreated,
		m.jobRuns,
	)
	return m
}

// ObserveCalculation records a simulation outcome
func (m *Metrics) ObserveCalculation(product calculation.Product, outcome string, elapsed time.Duration) {
	m.calculations.WithLabelValues(string(product), outcome).Inc()
	m.calculationDuration.WithLabelValues(string(product)).Observe(elapsed.Seconds())
}

// ObserveHTTP records a served request
func (m *Metrics) ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// CacheHit counts a cache hit
func (m *Metrics) CacheHit(backend string) {
	m.cacheLookups.WithLabelValues(backend, "hit").Inc()
}

// CacheMiss counts a cache miss
func (m *Metrics) CacheMiss(backend string) {
	m.cacheLookups.WithLabelValues(backend, "miss").Inc()
}

// SimulationCreated counts a persisted simulation
func (m *Metrics) SimulationCreated(product string) {
	m.simulationsCreated.WithLabelValues(product).Inc()
}

// JobRun counts a scheduled job execution
func (m *Metrics) JobRun(job string, err error) {
	outcome := "success"
	if err != nil {
		outcome = "failed"
	}
	m.jobRuns.WithLabelValues(job, outcome).Inc()
}

// Registry returns the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
