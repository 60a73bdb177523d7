package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jeanbgt59/ecoagent/internal/agent"
	"github.com/jeanbgt59/ecoagent/internal/agents"
	"github.com/jeanbgt59/ecoagent/internal/config"
	"github.com/jeanbgt59/ecoagent/internal/cost"
	"github.com/jeanbgt59/ecoagent/internal/logger"
	"github.com/jeanbgt59/ecoagent/internal/notify"
	"github.com/jeanbgt59/ecoagent/internal/queue"
	"github.com/jeanbgt59/ecoagent/internal/repository"
	"github.com/jeanbgt59/ecoagent/internal/worker"
	"github.com/jeanbgt59/ecoagent/internal/workflow"
	"github.com/rs/zerolog/log"
)

func main() {
	cfg, err := config.LoadFile(os.Getenv("CONFIG_FILE"))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config file")
	}

	if err := logger.NewGlobal(cfg.LogLevel, cfg.LogPretty); err != nil {
		log.Fatal().Err(err).Msg("invalid log level")
	}

	if cfg.PostgresDSN == "" {
		log.Fatal().Msg("POSTGRES_DSN is required")
	}

	repo, err := repository.NewPostgresRunRepository(cfg.PostgresDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to PostgreSQL")
	}
	defer func() {
		if err := repo.Close(); err != nil {
			log.Error().Err(err).Msg("failed to close PostgreSQL connection")
		}
	}()

	q, err := queue.NewQueue(cfg.RedisAddr, repo)
	if err != nil {
		log.Fatal().Err(err).Str("addr", cfg.RedisAddr).Msg("failed to connect to Redis")
	}
	defer func() {
		if err := q.Close(); err != nil {
			log.Error().Err(err).Msg("failed to close queue")
		}
	}()

	workerID := cfg.WorkerID
	if workerID == "" {
		workerID = fmt.Sprintf("worker-%d", time.Now().Unix())
	}

	tracker := cost.NewTracker()
	roster := agents.Defaults()
	agents.SetTracker(roster, tracker)

	registry := agent.NewRegistry(cfg.HistorySize)
	for _, a := range roster {
		registry.Register(a)
	}

	coordinator := workflow.NewCoordinator(registry, workflow.DefaultCatalog(), cfg.HistorySize)
	coordinator.SetCostWarning(cfg.CostLimits.WarningThresholdEuros)

	notifier := notify.NewEmailNotifier(cfg.EmailAPIKey, cfg.EmailName, cfg.EmailFrom, cfg.EmailTo)
	if notifier.Enabled() {
		log.Info().Str("to", cfg.EmailTo).Msg("email notifications enabled")
	}

	w := worker.NewWorker(workerID, q, coordinator, notifier)

	go w.Start()
	go logUsageSummaries(tracker)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Info().Msg("shutting down worker")
	w.Stop()
}

func logUsageSummaries(tracker *cost.Tracker) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for range ticker.C {
		s := tracker.DailySummary()
		if s.TotalRequests == 0 {
			continue
		}
		log.Info().
			Float64("total_cost_euros", s.TotalCostEuros).
			Int("total_requests", s.TotalRequests).
			Int("local_requests", s.LocalRequests).
			Int("api_requests", s.APIRequests).
			Msg("usage summary for the last 24h")
	}
}
