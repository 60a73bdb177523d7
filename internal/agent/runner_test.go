package agent

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jeanbgt59/ecoagent/internal/task"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubAgent struct {
	name      string
	canHandle bool
	estimate  float64
	output    map[string]any
	err       error
	panicMsg  string
	executed  int
}

func (s *stubAgent) Name() string {
	return s.name
}

func (s *stubAgent) Description() string {
	return s.name + " stub"
}

func (s *stubAgent) CanHandle(*task.Task) bool {
	return s.canHandle
}

func (s *stubAgent) EstimateCost(*task.Task) float64 {
	return s.estimate
}

func (s *stubAgent) Execute(_ context.Context, _ *task.Task) (map[string]any, error) {
	s.executed++
	if s.panicMsg != "" {
		panic(s.panicMsg)
	}
	return s.output, s.err
}

func newStub(name string) *stubAgent {
	return &stubAgent{
		name:      name,
		canHandle: true,
		output:    map[string]any{"done": true},
	}
}

func TestStatusValues(t *testing.T) {
	assert.Equal(t, Status("idle"), StatusIdle)
	assert.Equal(t, Status("working"), StatusWorking)
	assert.Equal(t, Status("waiting"), StatusWaiting)
	assert.Equal(t, Status("error"), StatusError)
	assert.Equal(t, Status("completed"), StatusCompleted)
}

func TestInvoke_Success(t *testing.T) {
	stub := newStub("build")
	stub.estimate = 0.02
	r := NewRunner(stub, 10)

	res := r.Invoke(context.Background(), task.NewTask("build", "small fix", nil))

	assert.True(t, res.Success)
	assert.Empty(t, res.Error)
	assert.Equal(t, "build", res.Agent)
	assert.Equal(t, map[string]any{"done": true}, res.Output)
	assert.Equal(t, 0.02, res.EstimatedCost)
	assert.Equal(t, 0.02, res.ActualCost)
	assert.Equal(t, 1, stub.executed)
	assert.Equal(t, StatusIdle, r.Status())
	assert.Nil(t, r.CurrentTask())
	require.Len(t, r.History(), 1)
	assert.True(t, r.History()[0].Success)
}

func TestInvoke_ReportedCostOverridesEstimate(t *testing.T) {
	stub := newStub("build")
	stub.estimate = 0.02
	stub.output = map[string]any{"done": true, "cost": 0.05}
	r := NewRunner(stub, 10)

	res := r.Invoke(context.Background(), task.NewTask("build", "small fix", nil))

	assert.Equal(t, 0.02, res.EstimatedCost)
	assert.Equal(t, 0.05, res.ActualCost)
	assert.Equal(t, 0.05, r.History()[0].Cost)
}

func TestInvoke_ExecutionFailure(t *testing.T) {
	stub := newStub("build")
	stub.estimate = 0.02
	stub.err = errors.New("compile error")
	r := NewRunner(stub, 10)

	res := r.Invoke(context.Background(), task.NewTask("build", "small fix", nil))

	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "compile error")
	assert.Equal(t, 0.02, res.EstimatedCost)
	assert.Zero(t, res.ActualCost)
	assert.Equal(t, StatusIdle, r.Status())

	require.Len(t, r.History(), 1)
	assert.False(t, r.History()[0].Success)
	assert.Zero(t, r.History()[0].Cost)
}

func TestInvoke_UnsupportedTask(t *testing.T) {
	stub := newStub("build")
	stub.canHandle = false
	r := NewRunner(stub, 10)

	res := r.Invoke(context.Background(), task.NewTask("build", "small fix", nil))

	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "cannot handle")
	assert.Zero(t, res.Duration)
	assert.Zero(t, res.EstimatedCost)
	assert.Zero(t, res.ActualCost)
	assert.Equal(t, 0, stub.executed)
	assert.Equal(t, StatusError, r.Status())
	assert.Empty(t, r.History())
}

func TestInvoke_PanicRecovered(t *testing.T) {
	stub := newStub("build")
	stub.panicMsg = "nil dereference"
	r := NewRunner(stub, 10)

	res := r.Invoke(context.Background(), task.NewTask("build", "small fix", nil))

	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "panicked")
	assert.Contains(t, res.Error, "nil dereference")
	assert.Equal(t, StatusIdle, r.Status())
	require.Len(t, r.History(), 1)
	assert.False(t, r.History()[0].Success)
}

func TestHistory_Bounded(t *testing.T) {
	stub := newStub("build")
	r := NewRunner(stub, 2)

	for _, id := range []string{"a", "b", "c"} {
		tk := task.NewTask("build", "work", nil)
		tk.ID = id
		r.Invoke(context.Background(), tk)
	}

	history := r.History()
	require.Len(t, history, 2)
	assert.Equal(t, "b", history[0].TaskID)
	assert.Equal(t, "c", history[1].TaskID)
}

func TestPerformanceSummary(t *testing.T) {
	stub := newStub("build")
	stub.estimate = 0.01
	r := NewRunner(stub, 10)

	r.Invoke(context.Background(), task.NewTask("build", "ok", nil))

	stub.err = errors.New("boom")
	r.Invoke(context.Background(), task.NewTask("build", "bad", nil))

	summary := r.PerformanceSummary()

	assert.Equal(t, "build", summary.Name)
	assert.Equal(t, "build stub", summary.Description)
	assert.Equal(t, StatusIdle, summary.Status)
	assert.Equal(t, 2, summary.TotalTasks)
	assert.Equal(t, 1, summary.SuccessfulTasks)
	assert.Equal(t, 1, summary.FailedTasks)
	assert.Equal(t, 50.0, summary.SuccessRatePercent)
	assert.Equal(t, 0.01, summary.TotalCost)
	assert.GreaterOrEqual(t, summary.AverageDurationSeconds, 0.0)
	assert.GreaterOrEqual(t, summary.UptimeMinutes, 0.0)
}

func TestPerformanceSummary_Idempotent(t *testing.T) {
	stub := newStub("build")
	r := NewRunner(stub, 10)
	r.Invoke(context.Background(), task.NewTask("build", "ok", nil))

	first := r.PerformanceSummary()
	second := r.PerformanceSummary()

	// Uptime moves with the clock; everything else must not.
	first.UptimeMinutes = 0
	second.UptimeMinutes = 0
	assert.Equal(t, first, second)
	assert.Len(t, r.History(), 1)
}

func TestPerformanceSummary_NoTasks(t *testing.T) {
	r := NewRunner(newStub("build"), 10)

	summary := r.PerformanceSummary()

	assert.Zero(t, summary.TotalTasks)
	assert.Zero(t, summary.SuccessRatePercent)
	assert.Zero(t, summary.AverageDurationSeconds)
}

func TestResetMetrics(t *testing.T) {
	stub := newStub("build")
	stub.estimate = 0.5
	r := NewRunner(stub, 10)
	r.Invoke(context.Background(), task.NewTask("build", "ok", nil))

	started := r.startedAt
	r.ResetMetrics()

	summary := r.PerformanceSummary()
	assert.Zero(t, summary.TotalTasks)
	assert.Zero(t, summary.TotalCost)
	assert.Empty(t, r.History())
	assert.Equal(t, started, r.startedAt)
}

func TestInvoke_StatusWorkingDuringExecution(t *testing.T) {
	stub := newStub("build")
	r := NewRunner(stub, 10)

	var observed Status
	blocking := &probeAgent{inner: stub, onExecute: func() { observed = r.Status() }}
	r.agent = blocking

	r.Invoke(context.Background(), task.NewTask("build", "ok", nil))

	assert.Equal(t, StatusWorking, observed)
}

type probeAgent struct {
	inner     *stubAgent
	onExecute func()
}

func (p *probeAgent) Name() string                      { return p.inner.Name() }
func (p *probeAgent) Description() string               { return p.inner.Description() }
func (p *probeAgent) CanHandle(t *task.Task) bool       { return p.inner.CanHandle(t) }
func (p *probeAgent) EstimateCost(t *task.Task) float64 { return p.inner.EstimateCost(t) }

func (p *probeAgent) Execute(ctx context.Context, t *task.Task) (map[string]any, error) {
	p.onExecute()
	return p.inner.Execute(ctx, t)
}

func TestInvoke_DurationMeasured(t *testing.T) {
	stub := newStub("build")
	slow := &probeAgent{inner: stub, onExecute: func() { time.Sleep(5 * time.Millisecond) }}
	r := NewRunner(slow, 10)

	res := r.Invoke(context.Background(), task.NewTask("build", "ok", nil))

	assert.GreaterOrEqual(t, res.Duration, 5*time.Millisecond)
}
