package scheduler

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"simulacred/simulation-portal/simulation-portal-backend/pkg/storage"
)

type recordingObserver struct {
	mu   sync.Mutex
	runs map[string][]error
}

func (r *recordingObserver) JobRun(job string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.runs == nil {
		r.runs = make(map[string][]error)
	}
	r.runs[job] = append(r.runs[job], err)
}

type fakeRefresher struct {
	calls int
	err   error
}

func (f *fakeRefresher) RefreshStale(context.Context) (int, error) {
	f.calls++
	return 2, f.err
}

type fakeWorkbook struct {
	content string
	err     error
}

func (f fakeWorkbook) Workbook(_ context.Context, w io.Writer) error {
	if f.err != nil {
		return f.err
	}
	_, err := io.WriteString(w, f.content)
	return err
}

func TestValidateSpec(t *testing.T) {
	assert.NoError(t, ValidateSpec("0 */5 * * * *"))
	assert.NoError(t, ValidateSpec("@daily"))
	assert.Error(t, ValidateSpec("*/5 * * * *"))
	assert.Error(t, ValidateSpec("not a spec"))
}

func TestManagerRegisterAndRunNow(t *testing.T) {
	observer := &recordingObserver{}
	manager := NewManager(time.Second, observer, zap.NewNop())
	refresher := &fakeRefresher{}

	require.NoError(t, manager.Register(JobAggregateRefresh, "0 */5 * * * *", AggregateRefreshJob(refresher)))
	assert.Error(t, manager.Register("broken", "every five minutes", AggregateRefreshJob(refresher)))

	require.NoError(t, manager.RunNow(context.Background(), JobAggregateRefresh))
	assert.Equal(t, 1, refresher.calls)
	assert.Equal(t, []error{nil}, observer.runs[JobAggregateRefresh])

	refresher.err = errors.New("db down")
	assert.Error(t, manager.RunNow(context.Background(), JobAggregateRefresh))
	assert.Len(t, observer.runs[JobAggregateRefresh], 2)

	assert.Error(t, manager.RunNow(context.Background(), "missing"))
}

func TestManagerStatusAndLifecycle(t *testing.T) {
	manager := NewManager(time.Second, nil, zap.NewNop())
	require.NoError(t, manager.Register(JobNightlyExport, "0 0 2 * * *", func(context.Context) error { return nil }))
	require.NoError(t, manager.Register(JobAggregateRefresh, "0 */5 * * * *", func(context.Context) error { return nil }))
	// re-registering replaces the job
	require.NoError(t, manager.Register(JobAggregateRefresh, "0 */10 * * * *", func(context.Context) error { return nil }))

	require.NoError(t, manager.Start())
	assert.Error(t, manager.Start())

	statuses := manager.Status()
	require.Len(t, statuses, 2)
	assert.Equal(t, JobAggregateRefresh, statuses[0].Name)
	assert.Equal(t, "0 */10 * * * *", statuses[0].Spec)
	assert.False(t, statuses[0].NextRun.IsZero())
	assert.Equal(t, JobNightlyExport, statuses[1].Name)

	manager.Stop()
	manager.Stop()
}

func TestManagerSkipsOverlappingRuns(t *testing.T) {
	manager := NewManager(time.Second, nil, zap.NewNop())
	started := make(chan struct{})
	release := make(chan struct{})
	require.NoError(t, manager.Register("slow", "@hourly", func(context.Context) error {
		close(started)
		<-release
		return nil
	}))

	done := make(chan error)
	go func() { done <- manager.RunNow(context.Background(), "slow") }()
	<-started

	assert.Error(t, manager.RunNow(context.Background(), "slow"))
	close(release)
	assert.NoError(t, <-done)
}

func TestManagerAppliesTimeout(t *testing.T) {
	manager := NewManager(50*time.Millisecond, nil, zap.NewNop())
	require.NoError(t, manager.Register("bounded", "@hourly", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}))

	err := manager.RunNow(context.Background(), "bounded")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestNightlyExportJob(t *testing.T) {
	client := storage.NewMemoryClient("https://files.test")
	job := NightlyExportJob(fakeWorkbook{content: "PK-workbook"}, client, "exports-bucket", zap.NewNop())

	before := time.Now()
	require.NoError(t, job(context.Background()))

	key := ExportKey(before)
	// the key carries seconds, retry the next second on a boundary
	body, err := client.Download(context.Background(), "exports-bucket", key)
	if err != nil {
		body, err = client.Download(context.Background(), "exports-bucket", ExportKey(before.Add(time.Second)))
	}
	require.NoError(t, err)
	data, err := io.ReadAll(body)
	require.NoError(t, err)
	assert.Equal(t, "PK-workbook", string(data))
}

func TestNightlyExportJobFailure(t *testing.T) {
	client := storage.NewMemoryClient("https://files.test")
	job := NightlyExportJob(fakeWorkbook{err: errors.New("db down")}, client, "exports-bucket", zap.NewNop())

	err := job(context.Background())
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "failed to build workbook"))
}

func TestExportKey(t *testing.T) {
	at := time.Date(2024, 5, 10, 2, 0, 0, 0, time.UTC)
	assert.Equal(t, "exports/2024-05-10/simulacoes-20240510-020000.xlsx", ExportKey(at))
}

