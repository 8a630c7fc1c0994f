// Package logging builds the process logger from operator settings.
package logging

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Log formats
const (
	FormatJSON    = "json"
	FormatConsole = "console"
)

// New builds a zap logger at the given level and output format.
func New(level, format string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("logging: invalid level %q: %w", level, err)
	}

	var cfg zap.Config
	switch format {
	case FormatJSON, "":
		cfg = zap.NewProductionConfig()
	case FormatConsole:
		cfg = zap.NewDevelopmentConfig()
	default:
		return nil, fmt.Errorf("logging: invalid format %q", format)
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)

	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("logging: build logger: %w", err)
	}
	return logger, nil
}

// FromEnv builds the logger from PERFBENCH_LOG_LEVEL and
// PERFBENCH_LOG_FORMAT, falling back to info/json. An unparseable setting
// falls back too rather than failing startup.
func FromEnv() *zap.Logger {
	level := os.Getenv("PERFBENCH_LOG_LEVEL")
	if level == "" {
		level = "info"
	}
	format := os.Getenv("PERFBENCH_LOG_FORMAT")

	logger, err := New(level, format)
	if err != nil {
		logger, _ = zap.NewProduction()
	}
	return logger
}
