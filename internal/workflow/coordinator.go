package workflow

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/jeanbgt59/ecoagent/internal/agent"
	"github.com/jeanbgt59/ecoagent/internal/logger"
	"github.com/jeanbgt59/ecoagent/internal/ring"
	"github.com/jeanbgt59/ecoagent/internal/task"
	"github.com/rs/zerolog/log"
)

// DefaultHistorySize bounds the coordinator's run history ring.
const DefaultHistorySize = 50

// Coordinator owns an agent registry and a workflow catalog, and executes one
// workflow at a time, strictly step by step. It is not safe for concurrent
// Run calls; hosts needing parallel workflows use separate coordinators.
type Coordinator struct {
	registry *agent.Registry
	catalog  Catalog
	history  *ring.Buffer[Result]

	totalWorkflows      int
	successfulWorkflows int

	warnCostAbove float64
}

// SystemStatus is the aggregate health view over agents and workflows.
type SystemStatus struct {
	Agents              map[string]agent.PerformanceSummary `json:"agents"`
	TotalWorkflows      int                                 `json:"total_workflows"`
	SuccessfulWorkflows int                                 `json:"successful_workflows"`
	SuccessRatePercent  float64                             `json:"success_rate_percent"`
	AvailableWorkflows  []string                            `json:"available_workflows"`
}

func NewCoordinator(reg *agent.Registry, catalog Catalog, historySize int) *Coordinator {
	if historySize <= 0 {
		historySize = DefaultHistorySize
	}
	return &Coordinator{
		registry: reg,
		catalog:  catalog,
		history:  ring.New[Result](historySize),
	}
}

// SetCostWarning makes Run log a warning whenever the summed step estimate
// exceeds the threshold. Runs are never blocked on cost.
func (c *Coordinator) SetCostWarning(threshold float64) {
	c.warnCostAbove = threshold
}

// Run executes the workflow named by the task's type. Failures never surface
// as errors; they are folded into the returned Result.
func (c *Coordinator) Run(ctx context.Context, t *task.Task) *Result {
	def, ok := c.catalog.Get(t.Type)
	if !ok {
		log.Warn().
			Str(logger.WorkflowField, t.Type).
			Str(logger.TaskField, t.ID).
			Msg("unknown workflow type")
		return &Result{
			WorkflowType:       t.Type,
			TaskID:             t.ID,
			StepsCompleted:     []string{},
			StepsFailed:        []string{},
			Error:              fmt.Sprintf("unknown workflow type: %s", t.Type),
			AvailableWorkflows: c.catalog.Names(),
		}
	}

	c.totalWorkflows++

	log.Info().
		Str(logger.WorkflowField, def.Name).
		Str(logger.TaskField, t.ID).
		Int("steps", len(def.Steps)).
		Msg("workflow started")

	if c.warnCostAbove > 0 {
		if est := c.EstimateCost(t, def.Steps); est > c.warnCostAbove {
			log.Warn().
				Str(logger.WorkflowField, def.Name).
				Float64("estimated_cost", est).
				Float64("threshold", c.warnCostAbove).
				Msg("estimated cost above warning threshold")
		}
	}

	res := &Result{
		WorkflowType:   def.Name,
		TaskID:         t.ID,
		Success:        true,
		StepsCompleted: []string{},
		StepsFailed:    []string{},
		Outputs:        make(map[string]map[string]any),
	}
	outputs := make(map[string]any)

	for _, step := range def.Steps {
		stepResult := c.runStep(ctx, step, t, outputs)

		res.Timeline = append(res.Timeline, TimelineEntry{
			Step:      step,
			Timestamp: stepResult.Timestamp,
			Duration:  stepResult.Duration,
			Success:   stepResult.Success,
		})
		res.TotalCost += stepResult.ActualCost

		if stepResult.Success {
			res.StepsCompleted = append(res.StepsCompleted, step)
			res.Outputs[step] = stepResult.Output
			outputs[step] = stepResult.Output
			continue
		}

		res.StepsFailed = append(res.StepsFailed, step)
		res.Success = false

		if def.IsCritical(step) {
			log.Warn().
				Str(logger.WorkflowField, def.Name).
				Str(logger.StepField, step).
				Msg("critical step failed, aborting workflow")
			break
		}
		log.Warn().
			Str(logger.WorkflowField, def.Name).
			Str(logger.StepField, step).
			Msg("step failed, continuing workflow")
	}

	if res.Success {
		c.successfulWorkflows++
	}
	c.history.Push(*res)

	log.Info().
		Str(logger.WorkflowField, def.Name).
		Str(logger.TaskField, t.ID).
		Bool("success", res.Success).
		Int("completed", len(res.StepsCompleted)).
		Int("failed", len(res.StepsFailed)).
		Float64("total_cost", res.TotalCost).
		Msg("workflow finished")

	return res
}

func (c *Coordinator) runStep(ctx context.Context, step string, t *task.Task, outputs map[string]any) agent.Result {
	runner, ok := c.registry.Get(step)
	if !ok {
		log.Error().Str(logger.StepField, step).Msg("no agent registered for step")
		return agent.Result{
			Agent:     step,
			Success:   false,
			Error:     fmt.Sprintf("agent not available: %s", step),
			Timestamp: time.Now(),
		}
	}

	return runner.Invoke(ctx, t.ForStep(step, outputs))
}

// EstimateCost sums the per-step estimates without executing anything. Steps
// with no registered agent contribute nothing.
func (c *Coordinator) EstimateCost(t *task.Task, steps []string) float64 {
	var total float64
	outputs := map[string]any{}
	for _, step := range steps {
		if runner, ok := c.registry.Get(step); ok {
			total += runner.Agent().EstimateCost(t.ForStep(step, outputs))
		}
	}
	return total
}

// History returns the finished runs still held in the ring, oldest first.
func (c *Coordinator) History() []Result {
	return c.history.Items()
}

func (c *Coordinator) Catalog() Catalog {
	return c.catalog
}

func (c *Coordinator) SystemStatus() SystemStatus {
	rate := float64(c.successfulWorkflows) / math.Max(1, float64(c.totalWorkflows)) * 100

	return SystemStatus{
		Agents:              c.registry.Summaries(),
		TotalWorkflows:      c.totalWorkflows,
		SuccessfulWorkflows: c.successfulWorkflows,
		SuccessRatePercent:  math.Round(rate*10) / 10,
		AvailableWorkflows:  c.catalog.Names(),
	}
}
