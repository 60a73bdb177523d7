package main

import (
	"time"

	"github.com/jeanbgt59/ecoagent/internal/metrics"
	"github.com/jeanbgt59/ecoagent/internal/queue"
	"github.com/jeanbgt59/ecoagent/internal/task"
	"github.com/rs/zerolog/log"
)

func collectQueueMetrics(q *queue.Queue) {
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()

	for range ticker.C {
		updateQueueMetrics(q)
	}
}

func updateQueueMetrics(q *queue.Queue) {
	runs, err := q.GetAllRuns()
	if err != nil {
		log.Error().Err(err).Msg("failed to load runs for metrics")
		return
	}

	runsByStatus := make(map[task.RunStatus]map[string]int)
	for _, run := range runs {
		if runsByStatus[run.Status] == nil {
			runsByStatus[run.Status] = make(map[string]int)
		}
		runsByStatus[run.Status][run.Task.Type]++
	}
	metrics.UpdateRunGauges(runsByStatus)

	depth, err := q.Depth()
	if err != nil {
		log.Error().Err(err).Msg("failed to read queue depth")
		return
	}
	metrics.UpdateQueueDepth(int(depth))
}
