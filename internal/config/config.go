package config

import (
	"fmt"

	"go.uber.org/zap"
)

// LogLevel selects a zap logger preset. Grounded on the teacher's
// InitLogger, trimmed to the two presets the pipeline actually switches
// between (a hot path has no use for per-level granularity beyond
// debug/production).
type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
)

// NewLogger builds a zap logger for the given level, matching the
// teacher's InitLogger dispatch (development config for debug, production
// config otherwise).
func NewLogger(level LogLevel) (*zap.Logger, error) {
	var (
		logger *zap.Logger
		err    error
	)

	switch level {
	case LogLevelDebug:
		logger, err = zap.NewDevelopment()
	default:
		logger, err = zap.NewProduction()
	}

	if err != nil {
		return nil, fmt.Errorf("config: failed to initialize logger: %w", err)
	}

	return logger, nil
}
