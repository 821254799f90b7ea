package scheduler

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// JobFunc is the body of a scheduled job
type JobFunc func(ctx context.Context) error

// JobObserver records job outcomes
type JobObserver interface {
	JobRun(job string, err error)
}

type noopObserver struct{}

func (noopObserver) JobRun(string, error) {}

type job struct {
	name    string
	spec    string
	run     JobFunc
	entryID cron.EntryID
	running sync.Mutex
}

// Manager runs named jobs on cron schedules with a per-job timeout
type Manager struct {
	cron     *cron.Cron
	jobs     map[string]*job
	timeout  time.Duration
	observer JobObserver
	logger   *zap.Logger
	mu       sync.RWMutex
	running  bool
}

// JobStatus represents the status of a scheduled job
type JobStatus struct {
	Name    string    `json:"name"`
	Spec    string    `json:"spec"`
	NextRun time.Time `json:"next_run"`
	PrevRun time.Time `json:"prev_run"`
}

// NewManager creates a job manager. Specs carry a leading seconds field.
func NewManager(timeout time.Duration, observer JobObserver, logger *zap.Logger) *Manager {
	if timeout <= 0 {
		timeout = 30 * time.Minute
	}
	if observer == nil {
		observer = noopObserver{}
	}
	return &Manager{
		cron:     cron.New(cron.WithSeconds(), cron.WithLocation(time.UTC)),
		jobs:     make(map[string]*job),
		timeout:  timeout,
		observer: observer,
		logger:   logger,
	}
}

// Register adds a job, replacing any job with the same name
func (m *Manager) Register(name, spec string, run JobFunc) error {
	if err := ValidateSpec(spec); err != nil {
		return fmt.Errorf("invalid schedule for %s: %w", name, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, ok := m.jobs[name]; ok {
		m.cron.Remove(existing.entryID)
	}

	j := &job{name: name, spec: spec, run: run}
	entryID, err := m.cron.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
		defer cancel()
		m.execute(ctx, j)
	})
	if err != nil {
		return fmt.Errorf("failed to add cron job: %w", err)
	}
	j.entryID = entryID
	m.jobs[name] = j

	m.logger.Info("Registered job", zap.String("job", name), zap.String("spec", spec))
	return nil
}

// Start starts the cron scheduler
func (m *Manager) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return fmt.Errorf("job manager already running")
	}
	m.running = true
	m.cron.Start()

	m.logger.Info("Job manager started", zap.Int("jobs", len(m.jobs)))
	return nil
}

// Stop stops the scheduler and waits for running jobs
func (m *Manager) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	m.running = false
	m.mu.Unlock()

	m.logger.Info("Stopping job manager")
	<-m.cron.Stop().Done()
}

// RunNow executes a registered job immediately, bounded by the job timeout
func (m *Manager) RunNow(ctx context.Context, name string) error {
	m.mu.RLock()
	j, ok := m.jobs[name]
	m.mu.RUnlock()
	if !ok {
		return fmt.Errorf("job %s not found", name)
	}

	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()
	return m.execute(ctx, j)
}

// Status returns the schedule of every job, sorted by name
func (m *Manager) Status() []JobStatus {
	m.mu.RLock()
	defer m.mu.RUnlock()

	statuses := make([]JobStatus, 0, len(m.jobs))
	for _, j := range m.jobs {
		entry := m.cron.Entry(j.entryID)
		statuses = append(statuses, JobStatus{
			Name:    j.name,
			Spec:    j.spec,
			NextRun: entry.Next,
			PrevRun: entry.Prev,
		})
	}
	sort.Slice(statuses, func(i, k int) bool { return statuses[i].Name < statuses[k].Name })
	return statuses
}

// execute runs a job unless a previous run of it is still in progress
func (m *Manager) execute(ctx context.Context, j *job) error {
	if !j.running.TryLock() {
		m.logger.Warn("Skipping job, previous run still in progress", zap.String("job", j.name))
		return fmt.Errorf("job %s already running", j.name)
	}
	defer j.running.Unlock()

	start := time.Now()
	m.logger.Info("Executing job", zap.String("job", j.name))

	err := j.run(ctx)
	m.observer.JobRun(j.name, err)

	if err != nil {
		m.logger.Error("Job failed",
			zap.String("job", j.name),
			zap.Duration("duration", time.Since(start)),
			zap.Error(err))
		return err
	}

	m.logger.Info("Job completed",
		zap.String("job", j.name),
		zap.Duration("duration", time.Since(start)))
	return nil
}

// ValidateSpec validates a cron expression with a seconds field
func ValidateSpec(spec string) error {
	parser := cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	_, err := parser.Parse(spec)
	return err
}
