package workers

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tripcast/pkg/errors"
)

// Mock worker for testing
type mockWorker struct {
	*BaseWorker
	runCount int32
	runFunc  func(ctx context.Context) error
}

func newMockWorker(name string, interval time.Duration, enabled bool) *mockWorker {
	return &mockWorker{
		BaseWorker: NewBaseWorker(name, interval, enabled),
		runFunc:    func(ctx context.Context) error { return nil },
	}
}

func (m *mockWorker) Run(ctx context.Context) error {
	atomic.AddInt32(&m.runCount, 1)
	if m.runFunc != nil {
		return m.runFunc(ctx)
	}
	return nil
}

func (m *mockWorker) GetRunCount() int {
	return int(atomic.LoadInt32(&m.runCount))
}

func TestScheduler_StartStop(t *testing.T) {
	scheduler := NewScheduler()

	worker := newMockWorker("test-worker", 100*time.Millisecond, true)
	scheduler.RegisterWorker(worker)

	require.NoError(t, scheduler.Start(context.Background()))
	assert.True(t, scheduler.IsRunning())

	time.Sleep(250 * time.Millisecond)

	require.NoError(t, scheduler.Stop())
	assert.False(t, scheduler.IsRunning())

	// Immediate run plus at least one tick
	assert.GreaterOrEqual(t, worker.GetRunCount(), 2)
}

func TestScheduler_SkipsDisabledWorker(t *testing.T) {
	scheduler := NewScheduler()

	worker := newMockWorker("disabled-worker", 10*time.Millisecond, false)
	scheduler.RegisterWorker(worker)

	require.NoError(t, scheduler.Start(context.Background()))
	time.Sleep(50 * time.Millisecond)
	require.NoError(t, scheduler.Stop())

	assert.Equal(t, 0, worker.GetRunCount())
}

func TestScheduler_DoubleStartFails(t *testing.T) {
	scheduler := NewScheduler()
	require.NoError(t, scheduler.Start(context.Background()))
	defer scheduler.Stop()

	assert.Error(t, scheduler.Start(context.Background()))
}

func TestScheduler_StopWithoutStartFails(t *testing.T) {
	assert.Error(t, NewScheduler().Stop())
}

func TestScheduler_SurvivesWorkerError(t *testing.T) {
	scheduler := NewScheduler()

	worker := newMockWorker("flaky-worker", 50*time.Millisecond, true)
	worker.runFunc = func(ctx context.Context) error {
		return errors.New("transient failure")
	}
	scheduler.RegisterWorker(worker)

	require.NoError(t, scheduler.Start(context.Background()))
	time.Sleep(130 * time.Millisecond)
	require.NoError(t, scheduler.Stop())

	// Errors do not stop the loop
	assert.GreaterOrEqual(t, worker.GetRunCount(), 2)
}

func TestScheduler_SurvivesWorkerPanic(t *testing.T) {
	scheduler := NewScheduler()

	worker := newMockWorker("panicky-worker", 50*time.Millisecond, true)
	worker.runFunc = func(ctx context.Context) error {
		panic("boom")
	}
	scheduler.RegisterWorker(worker)

	require.NoError(t, scheduler.Start(context.Background()))
	time.Sleep(130 * time.Millisecond)
	require.NoError(t, scheduler.Stop())

	assert.GreaterOrEqual(t, worker.GetRunCount(), 2)
}

func TestBaseWorker_Health(t *testing.T) {
	worker := NewBaseWorker("health-worker", time.Minute, true)

	worker.RecordRun(100 * time.Millisecond)
	worker.RecordError(errors.New("bad run"), 300*time.Millisecond)

	health := worker.Health()
	assert.Equal(t, int64(2), health.RunCount)
	assert.Equal(t, int64(1), health.ErrorCount)
	assert.Equal(t, 200*time.Millisecond, health.AvgDuration)
	assert.Error(t, health.LastError)
	assert.True(t, health.Enabled)

	worker.SetEnabled(false)
	assert.False(t, worker.Enabled())
}
