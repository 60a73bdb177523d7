package agent

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/jeanbgt59/ecoagent/internal/logger"
	"github.com/jeanbgt59/ecoagent/internal/ring"
	"github.com/jeanbgt59/ecoagent/internal/task"
	"github.com/rs/zerolog/log"
)

// DefaultHistorySize bounds the per-agent task history kept in memory.
const DefaultHistorySize = 100

// Result is the outcome of one agent invocation.
type Result struct {
	Agent         string         `json:"agent"`
	Success       bool           `json:"success"`
	Error         string         `json:"error,omitempty"`
	Output        map[string]any `json:"output,omitempty"`
	Duration      time.Duration  `json:"duration"`
	EstimatedCost float64        `json:"estimated_cost"`
	ActualCost    float64        `json:"actual_cost"`
	Timestamp     time.Time      `json:"timestamp"`
}

// HistoryRecord is one finished invocation in the bounded history.
type HistoryRecord struct {
	TaskID    string        `json:"task_id"`
	Success   bool          `json:"success"`
	Duration  time.Duration `json:"duration"`
	Cost      float64       `json:"cost"`
	Timestamp time.Time     `json:"timestamp"`
}

// PerformanceSummary is the read-only health view of one agent.
type PerformanceSummary struct {
	Name                   string  `json:"name"`
	Description            string  `json:"description"`
	Status                 Status  `json:"status"`
	TotalTasks             int     `json:"total_tasks"`
	SuccessfulTasks        int     `json:"successful_tasks"`
	FailedTasks            int     `json:"failed_tasks"`
	SuccessRatePercent     float64 `json:"success_rate_percent"`
	TotalCost              float64 `json:"total_cost"`
	AverageDurationSeconds float64 `json:"average_duration_seconds"`
	UptimeMinutes          float64 `json:"uptime_minutes"`
}

// Runner executes a single agent under the shared lifecycle: status
// transitions, cost accounting and bounded history. It assumes at most one
// Invoke at a time and takes no locks of its own.
type Runner struct {
	agent   Agent
	status  Status
	current *task.Task

	totalTasks      int
	successfulTasks int
	failedTasks     int
	totalCost       float64
	history         *ring.Buffer[HistoryRecord]
	startedAt       time.Time
}

func NewRunner(a Agent, historySize int) *Runner {
	if historySize <= 0 {
		historySize = DefaultHistorySize
	}
	return &Runner{
		agent:     a,
		status:    StatusIdle,
		history:   ring.New[HistoryRecord](historySize),
		startedAt: time.Now(),
	}
}

func (r *Runner) Agent() Agent {
	return r.agent
}

func (r *Runner) Name() string {
	return r.agent.Name()
}

func (r *Runner) Status() Status {
	return r.status
}

func (r *Runner) CurrentTask() *task.Task {
	return r.current
}

// History returns the recorded invocations, oldest first.
func (r *Runner) History() []HistoryRecord {
	return r.history.Items()
}

// Invoke runs the full lifecycle for one task: suitability check, cost
// estimate, execution, accounting. It never returns an error; every failure
// is folded into the Result.
func (r *Runner) Invoke(ctx context.Context, t *task.Task) Result {
	start := time.Now()
	r.status = StatusWorking
	r.current = t

	log.Debug().
		Str(logger.AgentField, r.agent.Name()).
		Str(logger.TaskField, t.ID).
		Msg("task started")

	if !r.agent.CanHandle(t) {
		r.status = StatusError
		log.Warn().
			Str(logger.AgentField, r.agent.Name()).
			Str(logger.TaskField, t.ID).
			Msg("agent cannot handle task")
		return Result{
			Agent:     r.agent.Name(),
			Success:   false,
			Error:     fmt.Sprintf("agent %s cannot handle task %s", r.agent.Name(), t.ID),
			Timestamp: time.Now(),
		}
	}

	defer func() {
		r.status = StatusIdle
		r.current = nil
	}()

	estimate := r.agent.EstimateCost(t)
	if estimate > 0 {
		log.Debug().
			Str(logger.AgentField, r.agent.Name()).
			Float64("estimated_cost", estimate).
			Msg("cost estimated")
	}

	output, err := r.execute(ctx, t)
	duration := time.Since(start)

	if err != nil {
		r.status = StatusError
		r.record(t.ID, false, duration, 0)
		log.Error().
			Err(err).
			Str(logger.AgentField, r.agent.Name()).
			Str(logger.TaskField, t.ID).
			Msg("task failed")
		return Result{
			Agent:         r.agent.Name(),
			Success:       false,
			Error:         err.Error(),
			Duration:      duration,
			EstimatedCost: estimate,
			Timestamp:     time.Now(),
		}
	}

	r.status = StatusCompleted
	cost := estimate
	if reported, ok := output["cost"].(float64); ok {
		cost = reported
	}
	r.record(t.ID, true, duration, cost)

	log.Info().
		Str(logger.AgentField, r.agent.Name()).
		Str(logger.TaskField, t.ID).
		Dur("duration", duration).
		Float64("cost", cost).
		Msg("task completed")

	return Result{
		Agent:         r.agent.Name(),
		Success:       true,
		Output:        output,
		Duration:      duration,
		EstimatedCost: estimate,
		ActualCost:    cost,
		Timestamp:     time.Now(),
	}
}

// execute shields the runner from panicking agents.
func (r *Runner) execute(ctx context.Context, t *task.Task) (out map[string]any, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("agent %s panicked: %v", r.agent.Name(), rec)
		}
	}()

	return r.agent.Execute(ctx, t)
}

func (r *Runner) record(taskID string, success bool, duration time.Duration, cost float64) {
	r.totalTasks++
	if success {
		r.successfulTasks++
	} else {
		r.failedTasks++
	}
	r.totalCost += cost
	r.history.Push(HistoryRecord{
		TaskID:    taskID,
		Success:   success,
		Duration:  duration,
		Cost:      cost,
		Timestamp: time.Now(),
	})
}

func (r *Runner) PerformanceSummary() PerformanceSummary {
	var avgSeconds float64
	if items := r.history.Items(); len(items) > 0 {
		var total time.Duration
		for _, h := range items {
			total += h.Duration
		}
		avgSeconds = total.Seconds() / float64(len(items))
	}

	rate := float64(r.successfulTasks) / math.Max(1, float64(r.totalTasks)) * 100

	return PerformanceSummary{
		Name:                   r.agent.Name(),
		Description:            r.agent.Description(),
		Status:                 r.status,
		TotalTasks:             r.totalTasks,
		SuccessfulTasks:        r.successfulTasks,
		FailedTasks:            r.failedTasks,
		SuccessRatePercent:     round(rate, 1),
		TotalCost:              round(r.totalCost, 4),
		AverageDurationSeconds: round(avgSeconds, 2),
		UptimeMinutes:          round(time.Since(r.startedAt).Minutes(), 1),
	}
}

// ResetMetrics zeroes the counters and history. Uptime keeps running.
func (r *Runner) ResetMetrics() {
	r.totalTasks = 0
	r.successfulTasks = 0
	r.failedTasks = 0
	r.totalCost = 0
	r.history.Reset()

	log.Info().Str(logger.AgentField, r.agent.Name()).Msg("metrics reset")
}

func round(v float64, decimals int) float64 {
	p := math.Pow(10, float64(decimals))
	return math.Round(v*p) / p
}
