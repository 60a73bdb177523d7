package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jeanbgt59/ecoagent/internal/api"
	"github.com/jeanbgt59/ecoagent/internal/config"
	"github.com/jeanbgt59/ecoagent/internal/logger"
	"github.com/jeanbgt59/ecoagent/internal/queue"
	"github.com/jeanbgt59/ecoagent/internal/report"
	"github.com/jeanbgt59/ecoagent/internal/repository"
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

	var repo repository.RunRepository
	var reports *report.Generator
	if cfg.PostgresDSN != "" {
		pg, err := repository.NewPostgresRunRepository(cfg.PostgresDSN)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to PostgreSQL")
		}
		defer func() {
			if err := pg.Close(); err != nil {
				log.Error().Err(err).Msg("failed to close PostgreSQL connection")
			}
		}()

		repo = pg
		reports = report.NewGenerator(pg.DB())
		log.Info().Msg("PostgreSQL archive enabled")
	} else {
		log.Warn().Msg("POSTGRES_DSN not set, run archival and reports disabled")
	}

	q, err := queue.NewQueue(cfg.RedisAddr, repo)
	if err != nil {
		log.Fatal().Err(err).Str("addr", cfg.RedisAddr).Msg("failed to connect to Redis")
	}
	defer func() {
		if err := q.Close(); err != nil {
			log.Error().Err(err).Msg("failed to close queue")
		}
	}()

	go collectQueueMetrics(q)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: api.NewAPI(q, workflow.DefaultCatalog(), reports),
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Str("redis", cfg.RedisAddr).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}
