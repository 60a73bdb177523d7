// Package logger configures the global zerolog logger and declares the field
// names shared across the codebase.
package logger

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	AgentField    = "agent"
	StepField     = "step"
	WorkflowField = "workflow"
	TaskField     = "task"
	RunField      = "run"
	WorkerField   = "worker"
)

// NewGlobal sets the global log level and, when pretty is true, switches to
// the human-readable console writer.
func NewGlobal(level string, pretty bool) error {
	l, err := zerolog.ParseLevel(level)
	if err != nil {
		return err
	}

	zerolog.SetGlobalLevel(l)

	if pretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
	return nil
}
