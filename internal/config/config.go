// Package config centralizes environment and file configuration for the
// server and worker processes, including the cost limits that drive
// pre-execution warnings.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
)

// CostLimits caps what the system may spend. A zero value disables the
// corresponding limit.
type CostLimits struct {
	DailyLimitEuros            float64 `json:"daily_limit_euros"`
	PerRequestLimitEuros       float64 `json:"per_request_limit_euros"`
	WarningThresholdEuros      float64 `json:"warning_threshold_euros"`
	ConfirmationThresholdEuros float64 `json:"confirmation_threshold_euros"`
}

func DefaultCostLimits() CostLimits {
	return CostLimits{
		DailyLimitEuros:            5.0,
		PerRequestLimitEuros:       0.50,
		WarningThresholdEuros:      3.0,
		ConfirmationThresholdEuros: 1.0,
	}
}

// Config is the shared process configuration.
type Config struct {
	RedisAddr   string     `json:"redis_addr"`
	PostgresDSN string     `json:"postgres_dsn"`
	Port        string     `json:"port"`
	WorkerID    string     `json:"worker_id"`
	LogLevel    string     `json:"log_level"`
	LogPretty   bool       `json:"log_pretty"`
	HistorySize int        `json:"history_size"`
	CostLimits  CostLimits `json:"cost_limits"`

	EmailAPIKey string `json:"-"`
	EmailFrom   string `json:"email_from"`
	EmailName   string `json:"email_name"`
	EmailTo     string `json:"email_to"`
}

// Load reads configuration from the environment, falling back to defaults.
func Load() Config {
	cfg := Config{
		RedisAddr:   getenv("REDIS_ADDR", "localhost:6379"),
		PostgresDSN: os.Getenv("POSTGRES_DSN"),
		Port:        getenv("PORT", "8080"),
		WorkerID:    os.Getenv("WORKER_ID"),
		LogLevel:    getenv("LOG_LEVEL", "info"),
		LogPretty:   os.Getenv("LOG_PRETTY") == "true",
		HistorySize: getenvInt("HISTORY_SIZE", 0),
		CostLimits:  DefaultCostLimits(),
		EmailAPIKey: os.Getenv("EMAIL_API_KEY"),
		EmailFrom:   os.Getenv("FROM_ADDRESS"),
		EmailName:   os.Getenv("FROM_NAME"),
		EmailTo:     os.Getenv("NOTIFY_TO"),
	}

	if v := getenvFloat("DAILY_COST_LIMIT", 0); v > 0 {
		cfg.CostLimits.DailyLimitEuros = v
	}
	if v := getenvFloat("COST_WARNING_THRESHOLD", 0); v > 0 {
		cfg.CostLimits.WarningThresholdEuros = v
	}

	return cfg
}

// LoadFile overlays a JSON config file onto the environment defaults. A
// missing file is not an error.
func LoadFile(path string) (Config, error) {
	cfg := Load()

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := json.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}

	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getenvFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}

	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}
