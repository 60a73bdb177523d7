// Package api exposes the HTTP surface: run submission and inspection, the
// workflow catalog, dashboard aggregates, archived history, report exports
// and Prometheus metrics.
package api

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/jeanbgt59/ecoagent/internal/dashboard"
	"github.com/jeanbgt59/ecoagent/internal/httputil"
	"github.com/jeanbgt59/ecoagent/internal/logger"
	"github.com/jeanbgt59/ecoagent/internal/metrics"
	"github.com/jeanbgt59/ecoagent/internal/middleware"
	"github.com/jeanbgt59/ecoagent/internal/queue"
	"github.com/jeanbgt59/ecoagent/internal/report"
	"github.com/jeanbgt59/ecoagent/internal/repository"
	"github.com/jeanbgt59/ecoagent/internal/task"
	"github.com/jeanbgt59/ecoagent/internal/workflow"
	"github.com/justinas/alice"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/hlog"
	"github.com/rs/zerolog/log"
)

type API struct {
	queue   *queue.Queue
	catalog workflow.Catalog
	reports *report.Generator
	router  chi.Router
}

// RunRequest is the payload accepted by POST /api/runs. WorkflowType may be
// left empty, in which case one is suggested from the description.
type RunRequest struct {
	WorkflowType string            `json:"workflow_type"`
	Description  string            `json:"description"`
	Requirements map[string]any    `json:"requirements"`
	Priority     *task.RunPriority `json:"priority"`
	ScheduleIn   *int              `json:"schedule_in"`
}

type SuggestRequest struct {
	Description string `json:"description"`
}

type SuggestResponse struct {
	WorkflowType string `json:"workflow_type"`
}

// NewAPI wires the routes. reports may be nil when no database is configured;
// the report endpoint then answers 503.
func NewAPI(q *queue.Queue, catalog workflow.Catalog, reports *report.Generator) *API {
	api := &API{
		queue:   q,
		catalog: catalog,
		reports: reports,
	}

	api.setupRoutes()
	return api
}

func (a *API) setupRoutes() {
	r := chi.NewRouter()
	r.Use(logMiddleware().Then)
	r.Use(middleware.MetricsMiddleware)

	dash := dashboard.NewDashboard(a.queue)

	r.Route("/api", func(r chi.Router) {
		r.Post("/runs", a.createRun)
		r.Get("/runs", a.listRuns)
		r.Get("/runs/{id}", a.getRun)
		r.Get("/workflows", a.listWorkflows)
		r.Post("/workflows/suggest", a.suggestWorkflow)
		r.Get("/dashboard/stats", dash.GetStats)
		r.Get("/dashboard/history", dash.GetRecentRuns)
		r.Get("/history/stats", a.historyStats)
		r.Get("/history/recent", a.recentHistory)
		r.Get("/history/run/{id}", a.runStepHistory)
		r.Get("/reports/{type}", a.getReport)
	})

	r.Get("/health", a.health)
	r.Handle("/metrics", promhttp.Handler())

	a.router = r
}

func (a *API) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.router.ServeHTTP(w, r)
}

func (a *API) createRun(w http.ResponseWriter, r *http.Request) {
	var req RunRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		httputil.WriteJSONError(w, r, "invalid JSON body", http.StatusBadRequest)
		return
	}

	if strings.TrimSpace(req.Description) == "" {
		httputil.WriteJSONError(w, r, "description is required", http.StatusBadRequest)
		return
	}

	workflowType := req.WorkflowType
	if workflowType == "" {
		workflowType = workflow.Suggest(req.Description)
	}

	if _, ok := a.catalog.Get(workflowType); !ok {
		msg := fmt.Sprintf("unknown workflow type %q, valid types: %s",
			workflowType, strings.Join(a.catalog.Names(), ", "))
		httputil.WriteJSONError(w, r, msg, http.StatusBadRequest)
		return
	}

	priority := task.PriorityNormal
	if req.Priority != nil {
		if *req.Priority < task.PriorityLow || *req.Priority > task.PriorityHigh {
			httputil.WriteJSONError(w, r, "priority must be 0 (low), 1 (normal) or 2 (high)", http.StatusBadRequest)
			return
		}
		priority = *req.Priority
	}

	t := task.NewTask(workflowType, req.Description, req.Requirements)
	run := task.NewRun(t, priority)

	if req.ScheduleIn != nil && *req.ScheduleIn > 0 {
		run.ScheduledAt = time.Now().Add(time.Duration(*req.ScheduleIn) * time.Second)
	}

	if err := a.queue.Enqueue(run); err != nil {
		httputil.WriteJSONError(w, r, err.Error(), http.StatusInternalServerError)
		return
	}

	metrics.RecordRunEnqueued(workflowType, priority)
	hlog.FromRequest(r).Info().
		Str(logger.RunField, run.ID).
		Str(logger.WorkflowField, workflowType).
		Str("priority", priority.String()).
		Msg("run enqueued")

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, run)
}

func (a *API) listRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := a.queue.GetAllRuns()
	if err != nil {
		httputil.WriteJSONError(w, r, err.Error(), http.StatusInternalServerError)
		return
	}

	render.JSON(w, r, runs)
}

func (a *API) getRun(w http.ResponseWriter, r *http.Request) {
	run, err := a.queue.GetRun(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteJSONError(w, r, "run not found", http.StatusNotFound)
		return
	}

	render.JSON(w, r, run)
}

func (a *API) listWorkflows(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, a.catalog.Definitions())
}

func (a *API) suggestWorkflow(w http.ResponseWriter, r *http.Request) {
	var req SuggestRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		httputil.WriteJSONError(w, r, "invalid JSON body", http.StatusBadRequest)
		return
	}

	if strings.TrimSpace(req.Description) == "" {
		httputil.WriteJSONError(w, r, "description is required", http.StatusBadRequest)
		return
	}

	render.JSON(w, r, SuggestResponse{WorkflowType: workflow.Suggest(req.Description)})
}

func (a *API) getReport(w http.ResponseWriter, r *http.Request) {
	if a.reports == nil {
		httputil.WriteJSONError(w, r, "PostgreSQL not configured", http.StatusServiceUnavailable)
		return
	}

	format := report.FormatJSON
	if f := r.URL.Query().Get("format"); f != "" {
		switch report.Format(f) {
		case report.FormatJSON, report.FormatCSV:
			format = report.Format(f)
		default:
			httputil.WriteJSONError(w, r, fmt.Sprintf("unknown format %q, valid formats: json, csv", f), http.StatusBadRequest)
			return
		}
	}

	hours := 24
	if h := r.URL.Query().Get("hours"); h != "" {
		if parsed, err := strconv.Atoi(h); err == nil && parsed > 0 {
			hours = parsed
		}
	}

	reportType := chi.URLParam(r, "type")

	// Buffer the report so query failures surface as an error status instead
	// of a truncated 200.
	var buf bytes.Buffer
	if err := a.reports.Write(r.Context(), &buf, reportType, format, hours); err != nil {
		if errors.Is(err, report.ErrUnknownReport) {
			httputil.WriteJSONError(w, r, err.Error(), http.StatusBadRequest)
			return
		}

		httputil.WriteJSONError(w, r, err.Error(), http.StatusInternalServerError)
		return
	}

	if format == report.FormatCSV {
		filename := fmt.Sprintf("ecoagent_%s_%s.csv", reportType, time.Now().Format("20060102_150405"))
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	} else {
		w.Header().Set("Content-Type", "application/json")
	}

	if _, err := w.Write(buf.Bytes()); err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("failed to write report response")
	}
}

func (a *API) historyStats(w http.ResponseWriter, r *http.Request) {
	repo := a.queue.Repository()
	if repo == nil {
		httputil.WriteJSONError(w, r, "PostgreSQL not configured", http.StatusServiceUnavailable)
		return
	}

	hours := 24
	if h := r.URL.Query().Get("hours"); h != "" {
		if parsed, err := strconv.Atoi(h); err == nil && parsed > 0 {
			hours = parsed
		}
	}

	stats, err := repo.GetRunStats(r.Context(), hours)
	if err != nil {
		httputil.WriteJSONError(w, r, err.Error(), http.StatusInternalServerError)
		return
	}

	render.JSON(w, r, stats)
}

func (a *API) recentHistory(w http.ResponseWriter, r *http.Request) {
	repo := a.queue.Repository()
	if repo == nil {
		httputil.WriteJSONError(w, r, "PostgreSQL not configured", http.StatusServiceUnavailable)
		return
	}

	limit := 20
	if l := r.URL.Query().Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	var (
		runs []repository.RecentRun
		err  error
	)
	if wf := r.URL.Query().Get("workflow"); wf != "" {
		runs, err = repo.GetRunsByWorkflow(r.Context(), wf, limit)
	} else {
		runs, err = repo.GetRecentRuns(r.Context(), limit)
	}
	if err != nil {
		httputil.WriteJSONError(w, r, err.Error(), http.StatusInternalServerError)
		return
	}

	render.JSON(w, r, runs)
}

func (a *API) runStepHistory(w http.ResponseWriter, r *http.Request) {
	repo := a.queue.Repository()
	if repo == nil {
		httputil.WriteJSONError(w, r, "PostgreSQL not configured", http.StatusServiceUnavailable)
		return
	}

	steps, err := repo.GetRunSteps(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteJSONError(w, r, err.Error(), http.StatusInternalServerError)
		return
	}

	render.JSON(w, r, steps)
}

func (a *API) health(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]string{"status": "ok"})
}

func logMiddleware() alice.Chain {
	c := alice.New()
	c = c.Append(hlog.NewHandler(log.Logger))
	c = c.Append(hlog.AccessHandler(func(r *http.Request, status, size int, duration time.Duration) {
		hlog.FromRequest(r).Info().
			Str("verb", r.Method).
			Stringer("url", r.URL).
			Int("size", size).
			Int("status", status).
			Dur("duration", duration).
			Msg("request")
	}))
	c = c.Append(hlog.RemoteAddrHandler("ip"))
	c = c.Append(hlog.UserAgentHandler("agent"))
	c = c.Append(hlog.RequestIDHandler("req_id", "Request-Id"))
	return c
}
