// Package metrics provides Prometheus metrics for monitoring workflow runs.
package metrics

import (
	"time"

	"github.com/jeanbgt59/ecoagent/internal/task"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RunsEnqueued = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ecoagent_runs_enqueued_total",
			Help: "Total number of workflow runs enqueued",
		},
		[]string{"workflow", "priority"},
	)
	WorkflowsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ecoagent_workflows_completed_total",
			Help: "Total number of workflows that finished successfully",
		},
		[]string{"workflow"},
	)
	WorkflowsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ecoagent_workflows_failed_total",
			Help: "Total number of workflows that finished with failed steps",
		},
		[]string{"workflow"},
	)
	WorkflowDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ecoagent_workflow_duration_seconds",
			Help:    "Workflow execution duration in seconds",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60, 120, 300, 600},
		},
		[]string{"workflow", "status"},
	)
	WorkflowCost = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ecoagent_workflow_cost_euros_total",
			Help: "Total model spend per workflow in euros",
		},
		[]string{"workflow"},
	)
	StepsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ecoagent_steps_completed_total",
			Help: "Total number of workflow steps completed successfully",
		},
		[]string{"step"},
	)
	StepsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ecoagent_steps_failed_total",
			Help: "Total number of workflow steps that failed",
		},
		[]string{"step"},
	)
	StepDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ecoagent_step_duration_seconds",
			Help:    "Step execution duration in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"step", "status"},
	)
	RunsInQueue = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "ecoagent_runs_in_queue",
			Help: "Current number of runs by status and workflow",
		},
		[]string{"status", "workflow"},
	)
	RunWaitTime = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ecoagent_run_wait_time_seconds",
			Help:    "Time runs spend queued before a worker picks them up",
			Buckets: []float64{.01, .05, .1, .5, 1, 5, 10, 30, 60, 300, 600, 1800, 3600},
		},
		[]string{"workflow", "priority"},
	)
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ecoagent_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ecoagent_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)
	QueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ecoagent_queue_depth",
			Help: "Current depth of the run queue",
		},
	)
	WorkersActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ecoagent_workers_active",
			Help: "Number of currently active workers",
		},
	)
)

func RecordRunEnqueued(workflow string, priority task.RunPriority) {
	RunsEnqueued.WithLabelValues(workflow, priority.String()).Inc()
}

func RecordWorkflowCompleted(workflow string, duration time.Duration, costEuros float64) {
	WorkflowsCompleted.WithLabelValues(workflow).Inc()
	WorkflowDuration.WithLabelValues(workflow, "completed").Observe(duration.Seconds())
	WorkflowCost.WithLabelValues(workflow).Add(costEuros)
}

func RecordWorkflowFailed(workflow string, duration time.Duration, costEuros float64) {
	WorkflowsFailed.WithLabelValues(workflow).Inc()
	WorkflowDuration.WithLabelValues(workflow, "failed").Observe(duration.Seconds())
	WorkflowCost.WithLabelValues(workflow).Add(costEuros)
}

func RecordStep(step string, success bool, duration time.Duration) {
	if success {
		StepsCompleted.WithLabelValues(step).Inc()
		StepDuration.WithLabelValues(step, "completed").Observe(duration.Seconds())
		return
	}
	StepsFailed.WithLabelValues(step).Inc()
	StepDuration.WithLabelValues(step, "failed").Observe(duration.Seconds())
}

func RecordRunWaitTime(workflow string, priority task.RunPriority, waitTime time.Duration) {
	RunWaitTime.WithLabelValues(workflow, priority.String()).Observe(waitTime.Seconds())
}

func UpdateRunGauges(runsByStatus map[task.RunStatus]map[string]int) {
	RunsInQueue.Reset()
	for status, workflowMap := range runsByStatus {
		for workflow, count := range workflowMap {
			RunsInQueue.WithLabelValues(string(status), workflow).Set(float64(count))
		}
	}
}

func UpdateQueueDepth(depth int) {
	QueueDepth.Set(float64(depth))
}

func UpdateActiveWorkers(count int) {
	WorkersActive.Set(float64(count))
}

func RecordHTTPRequest(method, endpoint, status string, duration time.Duration) {
	HTTPRequestsTotal.WithLabelValues(method, endpoint, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}
