// Package worker provides the consumer loop: it takes runs off the queue,
// executes their workflow through the coordinator and records the outcome.
package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jeanbgt59/ecoagent/internal/logger"
	"github.com/jeanbgt59/ecoagent/internal/metrics"
	"github.com/jeanbgt59/ecoagent/internal/notify"
	"github.com/jeanbgt59/ecoagent/internal/queue"
	"github.com/jeanbgt59/ecoagent/internal/task"
	"github.com/jeanbgt59/ecoagent/internal/workflow"
	"github.com/rs/zerolog/log"
)

type Worker struct {
	id           string
	queue        *queue.Queue
	coordinator  *workflow.Coordinator
	notifier     *notify.EmailNotifier
	stop         chan bool
	pollInterval time.Duration
}

// NewWorker builds a worker. notifier may be nil when email is not configured.
func NewWorker(id string, q *queue.Queue, c *workflow.Coordinator, notifier *notify.EmailNotifier) *Worker {
	return &Worker{
		id:           id,
		queue:        q,
		coordinator:  c,
		notifier:     notifier,
		stop:         make(chan bool),
		pollInterval: time.Second,
	}
}

func (w *Worker) SetPollInterval(d time.Duration) {
	w.pollInterval = d
}

// Start blocks until Stop is called, executing runs one at a time.
func (w *Worker) Start() {
	log.Info().Str(logger.WorkerField, w.id).Msg("worker started")
	metrics.UpdateActiveWorkers(1)

	for {
		select {
		case <-w.stop:
			metrics.UpdateActiveWorkers(0)
			log.Info().Str(logger.WorkerField, w.id).Msg("worker stopped")
			return
		default:
			run, err := w.queue.Dequeue(w.id)
			if err != nil || run == nil {
				time.Sleep(w.pollInterval)
				continue
			}

			w.processRun(run)
		}
	}
}

func (w *Worker) Stop() {
	w.stop <- true
}

func (w *Worker) processRun(run *task.Run) {
	log.Info().
		Str(logger.WorkerField, w.id).
		Str(logger.RunField, run.ID).
		Str(logger.WorkflowField, run.Task.Type).
		Msg("run started")

	if run.StartedAt != nil {
		metrics.RecordRunWaitTime(run.Task.Type, run.Priority, run.StartedAt.Sub(run.CreatedAt))
	}

	started := time.Now()
	result := w.coordinator.Run(context.Background(), &run.Task)
	durationMs := int(time.Since(started).Milliseconds())

	w.logSteps(run, result)

	if result.Success {
		w.completeRun(run, result, durationMs)
	} else {
		w.failRun(run, result, durationMs)
	}

	w.notifyFinished(run.ID)
}

// logSteps archives one entry per executed step and feeds the step metrics.
func (w *Worker) logSteps(run *task.Run, result *workflow.Result) {
	for _, entry := range result.Timeline {
		status := "completed"
		message := ""
		if !entry.Success {
			status = "failed"
			message = fmt.Sprintf("agent %s reported failure", entry.Step)
		}

		var stepCost float64
		if out, ok := result.Outputs[entry.Step]; ok {
			if c, ok := out["cost"].(float64); ok {
				stepCost = c
			}
		}

		if err := w.queue.LogStep(run.ID, entry.Step, status, int(entry.Duration.Milliseconds()), message, stepCost, w.id); err != nil {
			log.Error().Err(err).
				Str(logger.RunField, run.ID).
				Str(logger.StepField, entry.Step).
				Msg("failed to archive step")
		}

		metrics.RecordStep(entry.Step, entry.Success, entry.Duration)
	}
}

func (w *Worker) completeRun(run *task.Run, result *workflow.Result, durationMs int) {
	payload, err := json.Marshal(result)
	if err != nil {
		log.Error().Err(err).Str(logger.RunField, run.ID).Msg("failed to marshal workflow result")
	}

	if err := w.queue.CompleteRun(run.ID, payload, result.TotalCost, durationMs); err != nil {
		log.Error().Err(err).Str(logger.RunField, run.ID).Msg("failed to record completed run")
	}

	metrics.RecordWorkflowCompleted(result.WorkflowType, time.Duration(durationMs)*time.Millisecond, result.TotalCost)

	log.Info().
		Str(logger.WorkerField, w.id).
		Str(logger.RunField, run.ID).
		Str(logger.WorkflowField, result.WorkflowType).
		Float64("total_cost", result.TotalCost).
		Int("duration_ms", durationMs).
		Msg("run completed")
}

func (w *Worker) failRun(run *task.Run, result *workflow.Result, durationMs int) {
	reason := result.Error
	if reason == "" {
		reason = fmt.Sprintf("steps failed: %s", strings.Join(result.StepsFailed, ", "))
	}

	if err := w.queue.FailRun(run.ID, reason, durationMs); err != nil {
		log.Error().Err(err).Str(logger.RunField, run.ID).Msg("failed to record failed run")
	}

	metrics.RecordWorkflowFailed(result.WorkflowType, time.Duration(durationMs)*time.Millisecond, result.TotalCost)

	log.Warn().
		Str(logger.WorkerField, w.id).
		Str(logger.RunField, run.ID).
		Str(logger.WorkflowField, result.WorkflowType).
		Str("reason", reason).
		Msg("run failed")
}

func (w *Worker) notifyFinished(runID string) {
	if !w.notifier.Enabled() {
		return
	}

	final, err := w.queue.GetRun(runID)
	if err != nil {
		log.Warn().Err(err).Str(logger.RunField, runID).Msg("failed to load run for notification")
		return
	}

	if err := w.notifier.RunFinished(final); err != nil {
		log.Warn().Err(err).Str(logger.RunField, runID).Msg("failed to send run notification")
	}
}
