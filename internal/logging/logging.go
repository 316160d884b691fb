// Package logging provides the structured logger shared by every
// component. It keeps the teacher's per-component, per-event JSON
// logging idiom (see internal/logging/extraction_logger.go in the
// source repo) but backs it with zap instead of a bare log.Logger,
// matching the ecosystem logging library used elsewhere in the
// retrieval corpus.
package logging

import (
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Level mirrors the LOG_LEVEL environment variable enumerated in the
// external interfaces.
type Level string

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// New builds the root logger for the process. Every component logger is
// derived from this one via With/Named so that fields like run_id and
// service compose instead of being threaded through every call site.
func New(level Level) *zap.Logger {
	zl := zapcore.InfoLevel
	switch Level(strings.ToLower(string(level))) {
	case LevelDebug:
		zl = zapcore.DebugLevel
	case LevelWarn:
		zl = zapcore.WarnLevel
	case LevelError:
		zl = zapcore.ErrorLevel
	}

	cfg := zap.NewProductionEncoderConfig()
	cfg.TimeKey = "timestamp"
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder

	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(cfg),
		zapcore.Lock(os.Stdout),
		zl,
	)
	return zap.New(core)
}

// ForUnit returns a logger scoped to one orchestrator unit invocation,
// carrying the fields that end up in logs/<date>/<service>/<unit>.log.
func ForUnit(base *zap.Logger, service, account, unit, runID string) *zap.Logger {
	fields := []zap.Field{
		zap.String("service", service),
		zap.String("unit", unit),
		zap.String("run_id", runID),
	}
	if account != "" {
		fields = append(fields, zap.String("account", account))
	}
	return base.With(fields...)
}
