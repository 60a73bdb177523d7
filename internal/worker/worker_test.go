package worker

import (
	"context"
	"encoding/json"
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/jeanbgt59/ecoagent/internal/agent"
	"github.com/jeanbgt59/ecoagent/internal/queue"
	"github.com/jeanbgt59/ecoagent/internal/repository"
	"github.com/jeanbgt59/ecoagent/internal/task"
	"github.com/jeanbgt59/ecoagent/internal/workflow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubAgent struct {
	name string
	fail bool
}

func (s *stubAgent) Name() string                    { return s.name }
func (s *stubAgent) Description() string             { return s.name + " stub" }
func (s *stubAgent) CanHandle(*task.Task) bool       { return true }
func (s *stubAgent) EstimateCost(*task.Task) float64 { return 0.01 }

func (s *stubAgent) Execute(context.Context, *task.Task) (map[string]any, error) {
	if s.fail {
		return nil, errors.New("stub failure")
	}
	return map[string]any{"step": s.name, "cost": 0.01}, nil
}

// testCoordinator runs a two-step "minimal" workflow where analyze is
// critical. Steps named in failing fail.
func testCoordinator(failing ...string) *workflow.Coordinator {
	reg := agent.NewRegistry(10)
	for _, name := range []string{"analyze", "build"} {
		reg.Register(&stubAgent{name: name, fail: slices.Contains(failing, name)})
	}

	catalog := workflow.Catalog{}
	catalog.Add(workflow.Definition{
		Name:     "minimal",
		Steps:    []string{"analyze", "build"},
		Critical: []string{"analyze"},
	})

	return workflow.NewCoordinator(reg, catalog, 10)
}

func setupTestWorker(t *testing.T) (*Worker, *queue.Queue, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	require.NoError(t, err)

	q, err := queue.NewQueue(mr.Addr(), nil)
	require.NoError(t, err)

	w := NewWorker("test-worker", q, testCoordinator(), nil)

	return w, q, mr
}

func setupTestWorkerWithMockRepo(t *testing.T, failing ...string) (*Worker, *queue.Queue, *repository.MockRunRepository, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	require.NoError(t, err)

	mockRepo := repository.NewMockRunRepository()
	q, err := queue.NewQueue(mr.Addr(), mockRepo)
	require.NoError(t, err)

	w := NewWorker("test-worker", q, testCoordinator(failing...), nil)

	return w, q, mockRepo, mr
}

func enqueueRun(t *testing.T, q *queue.Queue) *task.Run {
	tsk := task.NewTask("minimal", "worker test run", nil)
	run := task.NewRun(tsk, task.PriorityNormal)
	require.NoError(t, q.Enqueue(run))
	return run
}

func dequeueRun(t *testing.T, q *queue.Queue) *task.Run {
	run, err := q.Dequeue("test-worker")
	require.NoError(t, err)
	require.NotNil(t, run)
	return run
}

func TestNewWorker(t *testing.T) {
	w, q, mr := setupTestWorker(t)
	defer mr.Close()
	defer func() { _ = q.Close() }()

	assert.NotNil(t, w)
	assert.Equal(t, "test-worker", w.id)
	assert.NotNil(t, w.stop)
	assert.Equal(t, time.Second, w.pollInterval)
}

func TestSetPollInterval(t *testing.T) {
	w, q, mr := setupTestWorker(t)
	defer mr.Close()
	defer func() { _ = q.Close() }()

	w.SetPollInterval(42 * time.Millisecond)

	assert.Equal(t, 42*time.Millisecond, w.pollInterval)
}

func TestProcessRun_Success(t *testing.T) {
	w, q, mr := setupTestWorker(t)
	defer mr.Close()
	defer func() { _ = q.Close() }()

	run := enqueueRun(t, q)
	w.processRun(dequeueRun(t, q))

	updated, err := q.GetRun(run.ID)
	require.NoError(t, err)
	assert.Equal(t, task.StatusCompleted, updated.Status)
	assert.NotNil(t, updated.CompletedAt)
	assert.InDelta(t, 0.02, updated.TotalCost, 1e-9)

	var res workflow.Result
	require.NoError(t, json.Unmarshal(updated.Result, &res))
	assert.True(t, res.Success)
	assert.Equal(t, []string{"analyze", "build"}, res.StepsCompleted)
}

func TestProcessRun_CriticalStepFailure(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	q, err := queue.NewQueue(mr.Addr(), nil)
	require.NoError(t, err)
	defer func() { _ = q.Close() }()

	w := NewWorker("test-worker", q, testCoordinator("analyze"), nil)

	run := enqueueRun(t, q)
	w.processRun(dequeueRun(t, q))

	updated, err := q.GetRun(run.ID)
	require.NoError(t, err)
	assert.Equal(t, task.StatusFailed, updated.Status)
	assert.Contains(t, updated.Error, "analyze")
	assert.NotNil(t, updated.CompletedAt)
}

func TestProcessRun_NonCriticalStepFailure(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	q, err := queue.NewQueue(mr.Addr(), nil)
	require.NoError(t, err)
	defer func() { _ = q.Close() }()

	w := NewWorker("test-worker", q, testCoordinator("build"), nil)

	run := enqueueRun(t, q)
	w.processRun(dequeueRun(t, q))

	// Both steps ran; the failure still fails the run.
	updated, err := q.GetRun(run.ID)
	require.NoError(t, err)
	assert.Equal(t, task.StatusFailed, updated.Status)
	assert.Contains(t, updated.Error, "build")
}

func TestProcessRunWithRepository(t *testing.T) {
	w, q, mockRepo, mr := setupTestWorkerWithMockRepo(t)
	defer mr.Close()
	defer func() { _ = q.Close() }()

	run := enqueueRun(t, q)
	w.processRun(dequeueRun(t, q))

	assert.Equal(t, 1, mockRepo.GetCompleteRunCallCount())
	assert.Equal(t, 0, mockRepo.GetFailRunCallCount())

	require.Equal(t, 2, mockRepo.GetLogStepCallCount())
	first := mockRepo.LogStepCalls[0]
	assert.Equal(t, run.ID, first.RunID)
	assert.Equal(t, "analyze", first.Step)
	assert.Equal(t, "completed", first.Status)
	assert.Equal(t, "test-worker", first.WorkerID)
	assert.InDelta(t, 0.01, first.CostEuros, 1e-9)
	assert.Empty(t, first.ErrorMsg)

	completed := mockRepo.CompleteRunCalls[0]
	assert.Equal(t, run.ID, completed.RunID)
	assert.InDelta(t, 0.02, completed.TotalCost, 1e-9)
	assert.NotEmpty(t, completed.Result)
}

func TestProcessRun_FailureWithRepository(t *testing.T) {
	w, q, mockRepo, mr := setupTestWorkerWithMockRepo(t, "analyze")
	defer mr.Close()
	defer func() { _ = q.Close() }()

	run := enqueueRun(t, q)
	w.processRun(dequeueRun(t, q))

	assert.Equal(t, 0, mockRepo.GetCompleteRunCallCount())
	require.Equal(t, 1, mockRepo.GetFailRunCallCount())

	failed := mockRepo.FailRunCalls[0]
	assert.Equal(t, run.ID, failed.RunID)
	assert.Contains(t, failed.Reason, "analyze")

	// The critical failure aborted the workflow before build ran.
	require.Equal(t, 1, mockRepo.GetLogStepCallCount())
	assert.Equal(t, "analyze", mockRepo.LogStepCalls[0].Step)
	assert.Equal(t, "failed", mockRepo.LogStepCalls[0].Status)
	assert.NotEmpty(t, mockRepo.LogStepCalls[0].ErrorMsg)
}

func TestWorkerStartStop(t *testing.T) {
	w, q, mr := setupTestWorker(t)
	defer mr.Close()
	defer func() { _ = q.Close() }()

	w.SetPollInterval(10 * time.Millisecond)

	go w.Start()
	time.Sleep(50 * time.Millisecond)

	run := enqueueRun(t, q)

	assert.Eventually(t, func() bool {
		updated, err := q.GetRun(run.ID)
		return err == nil && updated.Status == task.StatusCompleted
	}, 5*time.Second, 20*time.Millisecond, "run was not processed")

	w.Stop()
	time.Sleep(50 * time.Millisecond)
}

func TestWorkerProcessMultipleRuns(t *testing.T) {
	w, q, mr := setupTestWorker(t)
	defer mr.Close()
	defer func() { _ = q.Close() }()

	for i := 0; i < 5; i++ {
		enqueueRun(t, q)
	}

	for i := 0; i < 5; i++ {
		run, err := q.Dequeue("test-worker")
		require.NoError(t, err)
		if run != nil {
			w.processRun(run)
		}
	}

	runs, err := q.GetAllRuns()
	require.NoError(t, err)
	require.Len(t, runs, 5)
	for _, run := range runs {
		assert.Equal(t, task.StatusCompleted, run.Status)
	}
}
