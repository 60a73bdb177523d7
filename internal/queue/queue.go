// Package queue implements the Redis-backed run queue with write-through
// persistence to the run history repository.
package queue

import (
	"context"
	"fmt"
	"time"

	"github.com/jeanbgt59/ecoagent/internal/repository"
	"github.com/jeanbgt59/ecoagent/internal/task"
	"github.com/redis/go-redis/v9"
)

const (
	runsKey     = "runs"
	runQueueKey = "run_queue"
)

type Queue struct {
	client *redis.Client
	repo   repository.RunRepository
	ctx    context.Context
}

// NewQueue connects to Redis. The repository is optional: when nil the queue
// still works, it just keeps no durable history.
func NewQueue(redisAddr string, repo repository.RunRepository) (*Queue, error) {
	client := redis.NewClient(&redis.Options{
		Addr: redisAddr,
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Queue{
		client: client,
		repo:   repo,
		ctx:    ctx,
	}, nil
}

// Enqueue stores the run and makes it eligible for dequeue at ScheduledAt.
// Higher priority runs sort before lower ones within the same second.
func (q *Queue) Enqueue(run *task.Run) error {
	runJSON, err := run.ToJSON()
	if err != nil {
		return err
	}

	if err := q.client.HSet(q.ctx, runsKey, run.ID, runJSON).Err(); err != nil {
		return err
	}

	invertedPriority := float64(task.PriorityHigh - run.Priority)
	score := float64(run.ScheduledAt.Unix())*1000 + invertedPriority
	if err := q.client.ZAdd(q.ctx, runQueueKey, redis.Z{
		Score:  score,
		Member: run.ID,
	}).Err(); err != nil {
		return err
	}

	if q.repo != nil {
		return q.repo.SaveRun(q.ctx, run)
	}
	return nil
}

// Dequeue pops the most urgent due run and marks it running. It returns nil
// without error when nothing is due.
func (q *Queue) Dequeue(workerID string) (*task.Run, error) {
	now := time.Now().Unix()
	maxScore := float64(now)*1000 + float64(task.PriorityHigh-task.PriorityLow)

	results, err := q.client.ZRangeByScore(q.ctx, runQueueKey, &redis.ZRangeBy{
		Min:   "-inf",
		Max:   fmt.Sprintf("%f", maxScore),
		Count: 1,
	}).Result()

	if err != nil || len(results) == 0 {
		return nil, err
	}

	runID := results[0]

	q.client.ZRem(q.ctx, runQueueKey, runID)

	run, err := q.GetRun(runID)
	if err != nil {
		return nil, err
	}

	startedAt := time.Now()
	run.Status = task.StatusRunning
	run.StartedAt = &startedAt
	if err := q.writeRun(run); err != nil {
		return nil, err
	}

	if q.repo != nil {
		if err := q.repo.UpdateRunStatus(q.ctx, run.ID, task.StatusRunning, workerID); err != nil {
			return nil, err
		}
	}

	return run, nil
}

// UpdateRun rewrites the stored run in both Redis and the repository.
func (q *Queue) UpdateRun(run *task.Run) error {
	if err := q.writeRun(run); err != nil {
		return err
	}

	if q.repo != nil {
		return q.repo.SaveRun(q.ctx, run)
	}
	return nil
}

// CompleteRun marks the run completed and records its result and spend.
func (q *Queue) CompleteRun(runID string, result []byte, totalCost float64, durationMs int) error {
	run, err := q.GetRun(runID)
	if err != nil {
		return err
	}

	completedAt := time.Now()
	run.Status = task.StatusCompleted
	run.CompletedAt = &completedAt
	run.Result = result
	run.TotalCost = totalCost
	if err := q.writeRun(run); err != nil {
		return err
	}

	if q.repo != nil {
		return q.repo.CompleteRun(q.ctx, runID, result, totalCost, durationMs)
	}
	return nil
}

// FailRun marks the run failed with the given reason.
func (q *Queue) FailRun(runID string, reason string, durationMs int) error {
	run, err := q.GetRun(runID)
	if err != nil {
		return err
	}

	completedAt := time.Now()
	run.Status = task.StatusFailed
	run.CompletedAt = &completedAt
	run.Error = reason
	if err := q.writeRun(run); err != nil {
		return err
	}

	if q.repo != nil {
		return q.repo.FailRun(q.ctx, runID, reason, durationMs)
	}
	return nil
}

// LogStep records one step outcome in the durable step log.
func (q *Queue) LogStep(runID, step, status string, durationMs int, msgErr string, costEuros float64, workerID string) error {
	if q.repo == nil {
		return nil
	}
	return q.repo.LogStep(q.ctx, runID, step, status, durationMs, msgErr, costEuros, workerID)
}

func (q *Queue) GetRun(runID string) (*task.Run, error) {
	runJSON, err := q.client.HGet(q.ctx, runsKey, runID).Result()
	if err != nil {
		return nil, err
	}
	return task.RunFromJSON(runJSON)
}

func (q *Queue) GetAllRuns() ([]*task.Run, error) {
	runMap, err := q.client.HGetAll(q.ctx, runsKey).Result()
	if err != nil {
		return nil, err
	}

	runs := make([]*task.Run, 0, len(runMap))
	for _, runJSON := range runMap {
		run, err := task.RunFromJSON(runJSON)
		if err != nil {
			continue
		}
		runs = append(runs, run)
	}

	return runs, nil
}

// Depth reports how many runs are still waiting in the queue.
func (q *Queue) Depth() (int64, error) {
	return q.client.ZCard(q.ctx, runQueueKey).Result()
}

func (q *Queue) Repository() repository.RunRepository {
	return q.repo
}

func (q *Queue) Close() error {
	return q.client.Close()
}

func (q *Queue) writeRun(run *task.Run) error {
	runJSON, err := run.ToJSON()
	if err != nil {
		return err
	}
	return q.client.HSet(q.ctx, runsKey, run.ID, runJSON).Err()
}
