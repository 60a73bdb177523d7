// Package dashboard implements the monitoring interface for queue metrics and run status.
package dashboard

import (
	"net/http"
	"time"

	"github.com/go-chi/render"
	"github.com/jeanbgt59/ecoagent/internal/httputil"
	"github.com/jeanbgt59/ecoagent/internal/queue"
	"github.com/jeanbgt59/ecoagent/internal/task"
)

type Dashboard struct {
	queue *queue.Queue
}

type Stats struct {
	TotalRuns       int            `json:"total_runs"`
	PendingRuns     int            `json:"pending_runs"`
	RunningRuns     int            `json:"running_runs"`
	CompletedRuns   int            `json:"completed_runs"`
	FailedRuns      int            `json:"failed_runs"`
	RunsByWorkflow  map[string]int `json:"runs_by_workflow"`
	TotalCostEuros  float64        `json:"total_cost_euros"`
	AverageWaitTime string         `json:"average_wait_time"`
	LastUpdated     time.Time      `json:"last_updated"`
}

type RunHistory struct {
	RunID       string         `json:"run_id"`
	Workflow    string         `json:"workflow"`
	Status      task.RunStatus `json:"status"`
	CreatedAt   time.Time      `json:"created_at"`
	CompletedAt *time.Time     `json:"completed_at"`
	Duration    string         `json:"duration"`
	CostEuros   float64        `json:"cost_euros"`
}

func NewDashboard(q *queue.Queue) *Dashboard {
	return &Dashboard{queue: q}
}

func (d *Dashboard) GetStats(w http.ResponseWriter, r *http.Request) {
	runs, err := d.queue.GetAllRuns()
	if err != nil {
		httputil.WriteJSONError(w, r, err.Error(), http.StatusInternalServerError)
		return
	}

	stats := Stats{
		TotalRuns:      len(runs),
		RunsByWorkflow: make(map[string]int),
		LastUpdated:    time.Now(),
	}

	var totalWaitTime time.Duration
	waitCount := 0

	for _, run := range runs {
		switch run.Status {
		case task.StatusPending:
			stats.PendingRuns++
		case task.StatusRunning:
			stats.RunningRuns++
		case task.StatusCompleted:
			stats.CompletedRuns++
		case task.StatusFailed:
			stats.FailedRuns++
		}

		stats.RunsByWorkflow[run.Task.Type]++
		stats.TotalCostEuros += run.TotalCost

		if run.StartedAt != nil {
			waitTime := run.StartedAt.Sub(run.CreatedAt)
			totalWaitTime += waitTime
			waitCount++
		}
	}

	if waitCount > 0 {
		avgWait := totalWaitTime / time.Duration(waitCount)
		stats.AverageWaitTime = avgWait.Round(time.Millisecond).String()
	} else {
		stats.AverageWaitTime = "N/A"
	}

	render.JSON(w, r, stats)
}

func (d *Dashboard) GetRecentRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := d.queue.GetAllRuns()
	if err != nil {
		httputil.WriteJSONError(w, r, err.Error(), http.StatusInternalServerError)
		return
	}

	cutoff := time.Now().Add(-24 * time.Hour)
	history := []RunHistory{}

	for _, run := range runs {
		if run.CompletedAt == nil {
			continue
		}
		if run.CompletedAt.Before(cutoff) {
			continue
		}

		var duration string
		if run.StartedAt != nil {
			duration = run.CompletedAt.Sub(*run.StartedAt).Round(time.Millisecond).String()
		}

		history = append(history, RunHistory{
			RunID:       run.ID,
			Workflow:    run.Task.Type,
			Status:      run.Status,
			CreatedAt:   run.CreatedAt,
			CompletedAt: run.CompletedAt,
			Duration:    duration,
			CostEuros:   run.TotalCost,
		})
	}

	render.JSON(w, r, history)
}
