// Package repository provides PostgreSQL persistence for run history and
// per-step execution logs.
package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jeanbgt59/ecoagent/internal/task"
)

type RunRepository interface {
	GetRun(ctx context.Context, runID string) (*task.Run, error)
	SaveRun(ctx context.Context, r *task.Run) error
	UpdateRunStatus(ctx context.Context, runID string, status task.RunStatus, workerID string) error
	CompleteRun(ctx context.Context, runID string, result json.RawMessage, totalCost float64, durationMs int) error
	FailRun(ctx context.Context, runID string, reason string, durationMs int) error
	LogStep(ctx context.Context, runID string, step string, status string, durationMs int, msgErr string, costEuros float64, workerID string) error
	GetRunStats(ctx context.Context, hours int) ([]RunStats, error)
	GetRecentRuns(ctx context.Context, limit int) ([]RecentRun, error)
	GetRunsByWorkflow(ctx context.Context, workflow string, limit int) ([]RecentRun, error)
	GetRunSteps(ctx context.Context, runID string) ([]map[string]any, error)
	Close() error
}

type RunStats struct {
	Workflow       string  `json:"workflow"`
	Status         string  `json:"status"`
	Count          int     `json:"count"`
	AvgDurationMs  float64 `json:"avg_duration_ms"`
	MaxDurationMs  int     `json:"max_duration_ms"`
	MinDurationMs  int     `json:"min_duration_ms"`
	TotalCostEuros float64 `json:"total_cost_euros"`
}

type RecentRun struct {
	RunID          string     `json:"run_id"`
	Workflow       string     `json:"workflow"`
	Status         string     `json:"status"`
	CreatedAt      time.Time  `json:"created_at"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
	DurationMs     *int       `json:"duration_ms,omitempty"`
	TotalCostEuros float64    `json:"total_cost_euros"`
	FailureReason  string     `json:"failure_reason,omitempty"`
}
