// Package logging configures the process-wide structured logger.
//
// Every log line carries a run_id field identifying the current container
// run, so log aggregators can group lines from a single launch. The two
// supervisor diagnostic lines (display ready / display failed) are NOT
// logs; they are an interface contract and go straight to stdout.
package logging

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	mu     sync.Mutex
	logger *zap.Logger

	runID     string
	runIDOnce sync.Once
)

// RunID returns the identifier attached to every log line emitted by this
// process. It is generated once per run.
func RunID() string {
	runIDOnce.Do(func() {
		runID = uuid.New().String()
	})
	return runID
}

// Init builds the global logger for the given verbosity. Valid values are
// "quiet", "normal", "verbose", and "debug"; an empty string means "normal".
func Init(verbosity string) error {
	var cfg zap.Config

	switch verbosity {
	case "quiet":
		cfg = zap.NewProductionConfig()
		cfg.Level = zap.NewAtomicLevelAt(zapcore.ErrorLevel)
	case "", "normal":
		cfg = zap.NewProductionConfig()
	case "verbose":
		cfg = zap.NewProductionConfig()
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	case "debug":
		cfg = zap.NewDevelopmentConfig()
	default:
		return fmt.Errorf("invalid logging verbosity: %s (must be 'quiet', 'normal', 'verbose', or 'debug')", verbosity)
	}

	built, err := cfg.Build()
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}

	mu.Lock()
	defer mu.Unlock()
	logger = built.With(zap.String("run_id", RunID()))
	return nil
}

// L returns the global logger. Before Init it returns a no-op logger so
// library code never has to nil-check.
func L() *zap.Logger {
	mu.Lock()
	defer mu.Unlock()

	if logger == nil {
		return zap.NewNop()
	}
	return logger
}

// ComponentLogger returns the global logger tagged with a component name.
func ComponentLogger(component string) *zap.Logger {
	return L().With(zap.String("component", component))
}

// Sync flushes any buffered log entries. Called before process exit.
func Sync() {
	mu.Lock()
	defer mu.Unlock()

	if logger != nil {
		_ = logger.Sync()
	}
}
