package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/jeanbgt59/ecoagent/internal/task"
)

type MockRunRepository struct {
	mu                   sync.Mutex
	GetRunCalls          []string
	SaveRunCalls         []SaveRunCall
	UpdateRunStatusCalls []UpdateRunStatusCall
	CompleteRunCalls     []CompleteRunCall
	FailRunCalls         []FailRunCall
	LogStepCalls         []LogStepCall
	Runs                 map[string]*task.Run
	StepLog              []LogStepCall
	RunStats             []RunStats
	RecentRuns           []RecentRun
	GetRunError          error
	SaveRunError         error
	CompleteRunError     error
	FailRunError         error
	LogStepError         error
	GetRunStatsError     error
	GetRecentRunsError   error
	GetRunStepsError     error
}

type SaveRunCall struct {
	Run *task.Run
}

type UpdateRunStatusCall struct {
	RunID    string
	Status   task.RunStatus
	WorkerID string
}

type CompleteRunCall struct {
	RunID      string
	Result     json.RawMessage
	TotalCost  float64
	DurationMs int
}

type FailRunCall struct {
	RunID      string
	Reason     string
	DurationMs int
}

type LogStepCall struct {
	RunID      string
	Step       string
	Status     string
	DurationMs int
	ErrorMsg   string
	CostEuros  float64
	WorkerID   string
}

func NewMockRunRepository() *MockRunRepository {
	return &MockRunRepository{
		Runs:       make(map[string]*task.Run),
		StepLog:    make([]LogStepCall, 0),
		RunStats:   make([]RunStats, 0),
		RecentRuns: make([]RecentRun, 0),
	}
}

func (m *MockRunRepository) GetRun(ctx context.Context, runID string) (*task.Run, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.GetRunCalls = append(m.GetRunCalls, runID)

	if m.GetRunError != nil {
		return nil, m.GetRunError
	}

	r, exists := m.Runs[runID]
	if !exists {
		return nil, fmt.Errorf("run not found: %s", runID)
	}

	runCopy := *r
	return &runCopy, nil
}

func (m *MockRunRepository) SaveRun(ctx context.Context, r *task.Run) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.SaveRunCalls = append(m.SaveRunCalls, SaveRunCall{Run: r})

	if m.SaveRunError != nil {
		return m.SaveRunError
	}

	runCopy := *r
	m.Runs[r.ID] = &runCopy
	return nil
}

func (m *MockRunRepository) UpdateRunStatus(ctx context.Context, runID string, status task.RunStatus, workerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.UpdateRunStatusCalls = append(m.UpdateRunStatusCalls, UpdateRunStatusCall{
		RunID:    runID,
		Status:   status,
		WorkerID: workerID,
	})

	if r, exists := m.Runs[runID]; exists {
		r.Status = status
	}

	return nil
}

func (m *MockRunRepository) CompleteRun(ctx context.Context, runID string, result json.RawMessage, totalCost float64, durationMs int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.CompleteRunCalls = append(m.CompleteRunCalls, CompleteRunCall{
		RunID:      runID,
		Result:     result,
		TotalCost:  totalCost,
		DurationMs: durationMs,
	})

	if m.CompleteRunError != nil {
		return m.CompleteRunError
	}

	if r, exists := m.Runs[runID]; exists {
		r.Status = task.StatusCompleted
		r.Result = result
		r.TotalCost = totalCost
	}

	return nil
}

func (m *MockRunRepository) FailRun(ctx context.Context, runID string, reason string, durationMs int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.FailRunCalls = append(m.FailRunCalls, FailRunCall{
		RunID:      runID,
		Reason:     reason,
		DurationMs: durationMs,
	})

	if m.FailRunError != nil {
		return m.FailRunError
	}

	if r, exists := m.Runs[runID]; exists {
		r.Status = task.StatusFailed
		r.Error = reason
	}

	return nil
}

func (m *MockRunRepository) LogStep(ctx context.Context, runID string, step string, status string, durationMs int, errorMsg string, costEuros float64, workerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	call := LogStepCall{
		RunID:      runID,
		Step:       step,
		Status:     status,
		DurationMs: durationMs,
		ErrorMsg:   errorMsg,
		CostEuros:  costEuros,
		WorkerID:   workerID,
	}

	m.LogStepCalls = append(m.LogStepCalls, call)
	m.StepLog = append(m.StepLog, call)

	if m.LogStepError != nil {
		return m.LogStepError
	}

	return nil
}

func (m *MockRunRepository) GetRunStats(ctx context.Context, hours int) ([]RunStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.GetRunStatsError != nil {
		return nil, m.GetRunStatsError
	}

	return m.RunStats, nil
}

func (m *MockRunRepository) GetRecentRuns(ctx context.Context, limit int) ([]RecentRun, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.GetRecentRunsError != nil {
		return nil, m.GetRecentRunsError
	}

	if len(m.RecentRuns) > limit {
		return m.RecentRuns[:limit], nil
	}

	return m.RecentRuns, nil
}

func (m *MockRunRepository) GetRunsByWorkflow(ctx context.Context, workflow string, limit int) ([]RecentRun, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var filtered []RecentRun
	for _, r := range m.RecentRuns {
		if r.Workflow == workflow {
			filtered = append(filtered, r)
			if len(filtered) >= limit {
				break
			}
		}
	}

	return filtered, nil
}

func (m *MockRunRepository) GetRunSteps(ctx context.Context, runID string) ([]map[string]any, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.GetRunStepsError != nil {
		return nil, m.GetRunStepsError
	}

	var steps []map[string]any
	for _, call := range m.StepLog {
		if call.RunID == runID {
			steps = append(steps, map[string]any{
				"run_id":        call.RunID,
				"step":          call.Step,
				"status":        call.Status,
				"duration_ms":   call.DurationMs,
				"error_message": call.ErrorMsg,
				"cost_euros":    call.CostEuros,
				"worker_id":     call.WorkerID,
			})
		}
	}

	return steps, nil
}

func (m *MockRunRepository) Close() error {
	return nil
}

func (m *MockRunRepository) GetSaveRunCallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.SaveRunCalls)
}

func (m *MockRunRepository) GetCompleteRunCallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.CompleteRunCalls)
}

func (m *MockRunRepository) GetFailRunCallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.FailRunCalls)
}

func (m *MockRunRepository) GetLogStepCallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.LogStepCalls)
}

func (m *MockRunRepository) GetUpdateRunStatusCallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.UpdateRunStatusCalls)
}

func (m *MockRunRepository) WasRunSaved(runID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	_, exists := m.Runs[runID]
	return exists
}

func (m *MockRunRepository) GetRunStatus(runID string) (task.RunStatus, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if r, exists := m.Runs[runID]; exists {
		return r.Status, true
	}

	return "", false
}

func (m *MockRunRepository) GetStepLogForRun(runID string) []LogStepCall {
	m.mu.Lock()
	defer m.mu.Unlock()

	var logs []LogStepCall
	for _, call := range m.StepLog {
		if call.RunID == runID {
			logs = append(logs, call)
		}
	}

	return logs
}

func (m *MockRunRepository) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.SaveRunCalls = nil
	m.UpdateRunStatusCalls = nil
	m.CompleteRunCalls = nil
	m.FailRunCalls = nil
	m.LogStepCalls = nil
	m.Runs = make(map[string]*task.Run)
	m.StepLog = nil
}
