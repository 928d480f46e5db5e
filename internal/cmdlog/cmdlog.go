package cmdlog

import (
	"time"

	"chirpd/internal/logging"
	"chirpd/internal/metrics"
)

// Run executes a CLI command with logging and metrics around it.
func Run(cmd string, f func() error) error {
	metrics.IncCommandRun(cmd)
	start := time.Now()
	err := f()
	elapsed := time.Since(start)
	if err != nil {
		metrics.IncCommandError(cmd)
		logging.Error(cmd+"_error", map[string]any{"error": err.Error(), "elapsed": elapsed.String()})
	} else {
		logging.Info(cmd+"_ok", map[string]any{"elapsed": elapsed.String()})
	}
	return err
}
