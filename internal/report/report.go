// Package report generates run-history exports from the Postgres archive.
// Reports come in three shapes (summary, failures, workflows) and two
// formats (JSON, CSV).
package report

import (
	"context"
	"database/sql"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"time"
)

// ErrUnknownReport marks a report type the generator does not know.
var ErrUnknownReport = errors.New("unknown report type")

type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
)

const (
	TypeSummary   = "summary"
	TypeFailures  = "failures"
	TypeWorkflows = "workflows"
)

type Generator struct {
	db *sql.DB
}

func NewGenerator(db *sql.DB) *Generator {
	return &Generator{db: db}
}

// SummaryRow aggregates runs per workflow and status.
type SummaryRow struct {
	Workflow       string  `json:"workflow"`
	Status         string  `json:"status"`
	Runs           int     `json:"runs"`
	AvgDurationMs  float64 `json:"avg_duration_ms"`
	TotalCostEuros float64 `json:"total_cost_euros"`
}

// FailureRow is one failed run with its recorded reason.
type FailureRow struct {
	RunID      string     `json:"run_id"`
	Workflow   string     `json:"workflow"`
	Reason     string     `json:"reason"`
	FailedAt   *time.Time `json:"failed_at"`
	DurationMs *int       `json:"duration_ms"`
}

// WorkflowRow aggregates usage and outcome per workflow.
type WorkflowRow struct {
	Workflow           string  `json:"workflow"`
	Runs               int     `json:"runs"`
	Completed          int     `json:"completed"`
	Failed             int     `json:"failed"`
	SuccessRatePercent float64 `json:"success_rate_percent"`
	TotalCostEuros     float64 `json:"total_cost_euros"`
	AvgDurationMs      float64 `json:"avg_duration_ms"`
}

func (g *Generator) Summary(ctx context.Context, hours int) ([]SummaryRow, error) {
	query := `
		SELECT workflow, status, COUNT(*) as runs,
			COALESCE(AVG(duration_ms), 0) as avg_duration,
			COALESCE(SUM(total_cost_euros), 0) as total_cost
		FROM run_history
		WHERE created_at > NOW() - INTERVAL '1 hour' * $1
		GROUP BY workflow, status
		ORDER BY workflow, status`

	rows, err := g.db.QueryContext(ctx, query, hours)
	if err != nil {
		return nil, fmt.Errorf("failed to query run summary: %w", err)
	}
	defer rows.Close()

	var report []SummaryRow
	for rows.Next() {
		var row SummaryRow
		if err := rows.Scan(&row.Workflow, &row.Status, &row.Runs, &row.AvgDurationMs, &row.TotalCostEuros); err != nil {
			return nil, fmt.Errorf("failed to scan summary row: %w", err)
		}
		report = append(report, row)
	}

	return report, rows.Err()
}

func (g *Generator) Failures(ctx context.Context, hours int) ([]FailureRow, error) {
	query := `
		SELECT run_id, workflow, COALESCE(failure_reason, ''), completed_at, duration_ms
		FROM run_history
		WHERE status = 'failed' AND created_at > NOW() - INTERVAL '1 hour' * $1
		ORDER BY completed_at DESC`

	rows, err := g.db.QueryContext(ctx, query, hours)
	if err != nil {
		return nil, fmt.Errorf("failed to query failures: %w", err)
	}
	defer rows.Close()

	var report []FailureRow
	for rows.Next() {
		var row FailureRow
		var failedAt sql.NullTime
		var durationMs sql.NullInt64

		if err := rows.Scan(&row.RunID, &row.Workflow, &row.Reason, &failedAt, &durationMs); err != nil {
			return nil, fmt.Errorf("failed to scan failure row: %w", err)
		}
		if failedAt.Valid {
			row.FailedAt = &failedAt.Time
		}
		if durationMs.Valid {
			ms := int(durationMs.Int64)
			row.DurationMs = &ms
		}
		report = append(report, row)
	}

	return report, rows.Err()
}

func (g *Generator) Workflows(ctx context.Context, hours int) ([]WorkflowRow, error) {
	query := `
		SELECT workflow, COUNT(*) as runs,
			COUNT(*) FILTER (WHERE status = 'completed') as completed,
			COUNT(*) FILTER (WHERE status = 'failed') as failed,
			COALESCE(SUM(total_cost_euros), 0) as total_cost,
			COALESCE(AVG(duration_ms), 0) as avg_duration
		FROM run_history
		WHERE created_at > NOW() - INTERVAL '1 hour' * $1
		GROUP BY workflow
		ORDER BY runs DESC, workflow`

	rows, err := g.db.QueryContext(ctx, query, hours)
	if err != nil {
		return nil, fmt.Errorf("failed to query workflow usage: %w", err)
	}
	defer rows.Close()

	var report []WorkflowRow
	for rows.Next() {
		var row WorkflowRow
		if err := rows.Scan(&row.Workflow, &row.Runs, &row.Completed, &row.Failed, &row.TotalCostEuros, &row.AvgDurationMs); err != nil {
			return nil, fmt.Errorf("failed to scan workflow row: %w", err)
		}
		if row.Runs > 0 {
			rate := float64(row.Completed) / float64(row.Runs) * 100
			row.SuccessRatePercent = math.Round(rate*10) / 10
		}
		report = append(report, row)
	}

	return report, rows.Err()
}

// Write renders the named report to w in the requested format.
func (g *Generator) Write(ctx context.Context, w io.Writer, reportType string, format Format, hours int) error {
	switch reportType {
	case TypeSummary:
		rows, err := g.Summary(ctx, hours)
		if err != nil {
			return err
		}
		return writeReport(w, format, rows, summaryCSV)
	case TypeFailures:
		rows, err := g.Failures(ctx, hours)
		if err != nil {
			return err
		}
		return writeReport(w, format, rows, failuresCSV)
	case TypeWorkflows:
		rows, err := g.Workflows(ctx, hours)
		if err != nil {
			return err
		}
		return writeReport(w, format, rows, workflowsCSV)
	default:
		return fmt.Errorf("%w: %s", ErrUnknownReport, reportType)
	}
}

func writeReport[T any](w io.Writer, format Format, rows []T, toCSV func(*csv.Writer, []T) error) error {
	if format == FormatCSV {
		cw := csv.NewWriter(w)
		if err := toCSV(cw, rows); err != nil {
			return err
		}
		cw.Flush()
		return cw.Error()
	}

	if rows == nil {
		rows = []T{}
	}
	return json.NewEncoder(w).Encode(rows)
}

func summaryCSV(cw *csv.Writer, rows []SummaryRow) error {
	if err := cw.Write([]string{"workflow", "status", "runs", "avg_duration_ms", "total_cost_euros"}); err != nil {
		return err
	}
	for _, row := range rows {
		record := []string{
			row.Workflow,
			row.Status,
			strconv.Itoa(row.Runs),
			strconv.FormatFloat(row.AvgDurationMs, 'f', 2, 64),
			strconv.FormatFloat(row.TotalCostEuros, 'f', 4, 64),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	return nil
}

func failuresCSV(cw *csv.Writer, rows []FailureRow) error {
	if err := cw.Write([]string{"run_id", "workflow", "reason", "failed_at", "duration_ms"}); err != nil {
		return err
	}
	for _, row := range rows {
		failedAt := ""
		if row.FailedAt != nil {
			failedAt = row.FailedAt.Format(time.RFC3339)
		}
		durationMs := ""
		if row.DurationMs != nil {
			durationMs = strconv.Itoa(*row.DurationMs)
		}
		record := []string{row.RunID, row.Workflow, row.Reason, failedAt, durationMs}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	return nil
}

func workflowsCSV(cw *csv.Writer, rows []WorkflowRow) error {
	if err := cw.Write([]string{"workflow", "runs", "completed", "failed", "success_rate_percent", "total_cost_euros", "avg_duration_ms"}); err != nil {
		return err
	}
	for _, row := range rows {
		record := []string{
			row.Workflow,
			strconv.Itoa(row.Runs),
			strconv.Itoa(row.Completed),
			strconv.Itoa(row.Failed),
			strconv.FormatFloat(row.SuccessRatePercent, 'f', 1, 64),
			strconv.FormatFloat(row.TotalCostEuros, 'f', 4, 64),
			strconv.FormatFloat(row.AvgDurationMs, 'f', 2, 64),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	return nil
}
