package task

import (
	"encoding/json"
	"time"
)

type (
	RunStatus   string
	RunPriority int
)

const (
	StatusPending   RunStatus = "pending"
	StatusRunning   RunStatus = "running"
	StatusCompleted RunStatus = "completed"
	StatusFailed    RunStatus = "failed"
)

const (
	PriorityLow RunPriority = iota
	PriorityNormal
	PriorityHigh
)

func (p RunPriority) String() string {
	switch p {
	case PriorityLow:
		return "low"
	case PriorityNormal:
		return "normal"
	case PriorityHigh:
		return "high"
	default:
		return "unknown"
	}
}

// Run is the queue envelope around a submitted task. It tracks scheduling
// state while the task waits and carries the finished workflow result
// afterwards.
type Run struct {
	ID          string          `json:"id"`
	Task        Task            `json:"task"`
	Priority    RunPriority     `json:"priority"`
	Status      RunStatus       `json:"status"`
	TotalCost   float64         `json:"total_cost,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	ScheduledAt time.Time       `json:"scheduled_at"`
	StartedAt   *time.Time      `json:"started_at,omitempty"`
	CompletedAt *time.Time      `json:"completed_at,omitempty"`
	Result      json.RawMessage `json:"result,omitempty"`
	Error       string          `json:"error,omitempty"`
}

func NewRun(t *Task, priority RunPriority) *Run {
	return &Run{
		ID:          t.ID,
		Task:        *t,
		Priority:    priority,
		Status:      StatusPending,
		CreatedAt:   time.Now(),
		ScheduledAt: time.Now(),
	}
}

func (r *Run) ToJSON() (string, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return "", err
	}

	return string(data), nil
}

func RunFromJSON(data string) (*Run, error) {
	var run Run
	if err := json.Unmarshal([]byte(data), &run); err != nil {
		return nil, err
	}

	return &run, nil
}
