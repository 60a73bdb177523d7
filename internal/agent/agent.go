// Package agent defines the contract every pipeline agent implements and the
// runner that executes agents under a uniform lifecycle.
package agent

import (
	"context"

	"github.com/jeanbgt59/ecoagent/internal/task"
)

// Status describes what an agent is doing right now.
type Status string

const (
	StatusIdle      Status = "idle"
	StatusWorking   Status = "working"
	StatusWaiting   Status = "waiting"
	StatusError     Status = "error"
	StatusCompleted Status = "completed"
)

// Agent is one specialized capability in a workflow. Implementations hold no
// lifecycle state of their own; the Runner owns status, counters and history.
type Agent interface {
	Name() string
	Description() string

	// CanHandle reports whether the agent is suited to the task. A false
	// return short-circuits execution.
	CanHandle(t *task.Task) bool

	// EstimateCost predicts what executing the task will cost.
	EstimateCost(t *task.Task) float64

	// Execute performs the work and returns the output payload. A "cost"
	// key in the payload overrides the estimate when the runner charges
	// the task.
	Execute(ctx context.Context, t *task.Task) (map[string]any, error)
}
