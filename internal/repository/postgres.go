package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/jeanbgt59/ecoagent/internal/task"
	_ "github.com/lib/pq"
)

type PostgresRunRepository struct {
	db *sql.DB
}

func NewPostgresRunRepository(connectionString string) (*PostgresRunRepository, error) {
	db, err := sql.Open("postgres", connectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping PostgreSQL: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	return &PostgresRunRepository{db: db}, nil
}

func (r *PostgresRunRepository) GetRun(ctx context.Context, runID string) (*task.Run, error) {
	query := `
		SELECT
			run_id, workflow, description, requirements, priority, status,
			COALESCE(failure_reason, ''), COALESCE(total_cost_euros, 0),
			result, created_at, scheduled_at, started_at, completed_at
		FROM run_history WHERE run_id = $1
	`

	var (
		run          task.Run
		t            task.Task
		requirements []byte
		result       []byte
		scheduledAt  sql.NullTime
		startedAt    sql.NullTime
		completedAt  sql.NullTime
	)

	err := r.db.QueryRowContext(ctx, query, runID).Scan(
		&run.ID,
		&t.Type,
		&t.Description,
		&requirements,
		&run.Priority,
		&run.Status,
		&run.Error,
		&run.TotalCost,
		&result,
		&run.CreatedAt,
		&scheduledAt,
		&startedAt,
		&completedAt,
	)
	if err != nil {
		return nil, err
	}

	t.ID = run.ID
	if len(requirements) > 0 {
		if err := json.Unmarshal(requirements, &t.Requirements); err != nil {
			return nil, fmt.Errorf("failed to unmarshal requirements: %w", err)
		}
	}

	run.Task = t
	run.Result = result
	if scheduledAt.Valid {
		run.ScheduledAt = scheduledAt.Time
	}
	if startedAt.Valid {
		run.StartedAt = &startedAt.Time
	}
	if completedAt.Valid {
		run.CompletedAt = &completedAt.Time
	}

	return &run, nil
}

func (r *PostgresRunRepository) SaveRun(ctx context.Context, run *task.Run) error {
	requirements, err := json.Marshal(run.Task.Requirements)
	if err != nil {
		return fmt.Errorf("failed to marshal requirements: %w", err)
	}

	query := `
		INSERT INTO run_history (
			run_id, workflow, description, requirements, priority,
			status, failure_reason, created_at, scheduled_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (run_id) DO UPDATE SET
			status = EXCLUDED.status,
			failure_reason = EXCLUDED.failure_reason,
			scheduled_at = EXCLUDED.scheduled_at
	`

	var scheduledAt any
	if run.ScheduledAt.IsZero() {
		scheduledAt = nil
	} else {
		scheduledAt = run.ScheduledAt
	}

	_, err = r.db.ExecContext(
		ctx,
		query,
		run.ID,
		run.Task.Type,
		run.Task.Description,
		requirements,
		run.Priority,
		run.Status,
		run.Error,
		run.CreatedAt,
		scheduledAt,
	)

	return err
}

func (r *PostgresRunRepository) UpdateRunStatus(ctx context.Context, runID string, status task.RunStatus, workerID string) error {
	statusStr := string(status)
	query := `
		UPDATE run_history
		SET status = $1,
		    started_at = CASE WHEN $4::text = 'running' THEN NOW() ELSE started_at END,
		    worker_id = $2
		WHERE run_id = $3
	`

	_, err := r.db.ExecContext(ctx, query, statusStr, workerID, runID, statusStr)
	return err
}

func (r *PostgresRunRepository) CompleteRun(ctx context.Context, runID string, result json.RawMessage, totalCost float64, durationMs int) error {
	query := `
		UPDATE run_history
		SET status = 'completed',
		    completed_at = NOW(),
		    duration_ms = $1,
		    total_cost_euros = $2,
		    result = $3
		WHERE run_id = $4
	`
	_, err := r.db.ExecContext(ctx, query, durationMs, totalCost, []byte(result), runID)

	return err
}

func (r *PostgresRunRepository) FailRun(ctx context.Context, runID string, reason string, durationMs int) error {
	query := `
		UPDATE run_history
		SET status = 'failed',
		    completed_at = NOW(),
		    failure_reason = $1,
		    duration_ms = $2
		WHERE run_id = $3
	`
	_, err := r.db.ExecContext(ctx, query, reason, durationMs, runID)

	return err
}

func (r *PostgresRunRepository) LogStep(ctx context.Context, runID string, step string, status string, durationMs int, msgErr string, costEuros float64, workerID string) error {
	query := `
		INSERT INTO run_step_log (
			run_id, step, status, completed_at,
			duration_ms, error_message, cost_euros, worker_id
		) VALUES ($1, $2, $3, NOW(), $4, $5, $6, $7)
	`

	var durationMsVal any
	if durationMs == 0 {
		durationMsVal = nil
	} else {
		durationMsVal = durationMs
	}

	var msgErrVal any
	if msgErr == "" {
		msgErrVal = nil
	} else {
		msgErrVal = msgErr
	}

	_, err := r.db.ExecContext(
		ctx,
		query,
		runID,
		step,
		status,
		durationMsVal,
		msgErrVal,
		costEuros,
		workerID,
	)

	return err
}

func (r *PostgresRunRepository) GetRunStats(ctx context.Context, hours int) ([]RunStats, error) {
	query := `
		SELECT
			workflow, status, COUNT(*) as count,
			COALESCE(AVG(duration_ms), 0) as avg_duration_ms,
			COALESCE(MAX(duration_ms), 0) as max_duration_ms,
			COALESCE(MIN(duration_ms), 0) as min_duration_ms,
			COALESCE(SUM(total_cost_euros), 0) as total_cost_euros
		FROM run_history
		WHERE created_at > NOW() - INTERVAL '1 hour' * $1
		GROUP BY workflow, status
		ORDER BY workflow, status
	`
	rows, err := r.db.QueryContext(ctx, query, hours)
	if err != nil {
		return nil, err
	}

	defer func() {
		if err := rows.Close(); err != nil {
			log.Printf("failed to close rows: %v", err)
		}
	}()

	var stats []RunStats
	for rows.Next() {
		var s RunStats
		if err := rows.Scan(
			&s.Workflow,
			&s.Status,
			&s.Count,
			&s.AvgDurationMs,
			&s.MaxDurationMs,
			&s.MinDurationMs,
			&s.TotalCostEuros,
		); err != nil {
			return nil, err
		}

		stats = append(stats, s)
	}

	return stats, rows.Err()
}

func (r *PostgresRunRepository) GetRecentRuns(ctx context.Context, limit int) ([]RecentRun, error) {
	query := `
		SELECT
			run_id, workflow, status, created_at, completed_at,
			duration_ms, COALESCE(total_cost_euros, 0), COALESCE(failure_reason, '')
		FROM run_history
		ORDER BY created_at DESC
		LIMIT $1
	`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}

	defer func() {
		if err := rows.Close(); err != nil {
			log.Printf("failed to close rows: %v", err)
		}
	}()

	return scanRecentRuns(rows)
}

func (r *PostgresRunRepository) GetRunsByWorkflow(ctx context.Context, workflow string, limit int) ([]RecentRun, error) {
	query := `
		SELECT
			run_id, workflow, status, created_at, completed_at,
			duration_ms, COALESCE(total_cost_euros, 0), COALESCE(failure_reason, '')
		FROM run_history
		WHERE workflow = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	rows, err := r.db.QueryContext(ctx, query, workflow, limit)
	if err != nil {
		return nil, err
	}

	defer func() {
		if err := rows.Close(); err != nil {
			log.Printf("failed to close rows: %v", err)
		}
	}()

	return scanRecentRuns(rows)
}

func scanRecentRuns(rows *sql.Rows) ([]RecentRun, error) {
	var runs []RecentRun
	for rows.Next() {
		var r RecentRun
		if err := rows.Scan(
			&r.RunID,
			&r.Workflow,
			&r.Status,
			&r.CreatedAt,
			&r.CompletedAt,
			&r.DurationMs,
			&r.TotalCostEuros,
			&r.FailureReason,
		); err != nil {
			return nil, err
		}

		runs = append(runs, r)
	}

	return runs, rows.Err()
}

func (r *PostgresRunRepository) GetRunSteps(ctx context.Context, runID string) ([]map[string]any, error) {
	query := `
		SELECT
			step, status, completed_at, duration_ms,
			error_message, cost_euros, worker_id
		FROM run_step_log
		WHERE run_id = $1
		ORDER BY completed_at ASC
	`
	rows, err := r.db.QueryContext(ctx, query, runID)
	if err != nil {
		return nil, err
	}

	defer func() {
		if err := rows.Close(); err != nil {
			log.Printf("failed to close rows: %v", err)
		}
	}()

	var steps []map[string]any
	for rows.Next() {
		var step, status, workerID string
		var completedAt sql.NullTime
		var durationMs sql.NullInt64
		var msgErr sql.NullString
		var costEuros float64

		if err := rows.Scan(
			&step,
			&status,
			&completedAt,
			&durationMs,
			&msgErr,
			&costEuros,
			&workerID,
		); err != nil {
			return nil, err
		}

		entry := map[string]any{
			"run_id":     runID,
			"step":       step,
			"status":     status,
			"cost_euros": costEuros,
			"worker_id":  workerID,
		}

		if completedAt.Valid {
			entry["completed_at"] = completedAt.Time
		}
		if durationMs.Valid {
			entry["duration_ms"] = durationMs.Int64
		}
		if msgErr.Valid {
			entry["error_message"] = msgErr.String
		}

		steps = append(steps, entry)
	}

	return steps, rows.Err()
}

func (r *PostgresRunRepository) DB() *sql.DB {
	return r.db
}

func (r *PostgresRunRepository) Close() error {
	return r.db.Close()
}
