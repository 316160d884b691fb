package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// UnitLog is an open per-invocation log file under
// logs/<yyyymmdd>/<service>/<unit>.log, per the canonical filesystem
// layout. Close must be called when the unit invocation finishes.
type UnitLog struct {
	Logger *zap.Logger
	file   *os.File
}

// OpenUnitLog opens (creating parent directories as needed) the log file
// for one unit invocation and returns a logger that writes to both that
// file and the parent logger's existing sinks.
func OpenUnitLog(base *zap.Logger, logsRoot, service, account, unit, runID string, at time.Time) (*UnitLog, error) {
	dir := filepath.Join(logsRoot, at.UTC().Format("20060102"), service)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("unitlog: create dir: %w", err)
	}
	path := filepath.Join(dir, unit+".log")
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("unitlog: open %s: %w", path, err)
	}

	cfg := zap.NewProductionEncoderConfig()
	cfg.TimeKey = "timestamp"
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	fileCore := zapcore.NewCore(zapcore.NewJSONEncoder(cfg), zapcore.AddSync(f), zapcore.DebugLevel)

	logger := ForUnit(base, service, account, unit, runID).WithOptions(
		zap.WrapCore(func(c zapcore.Core) zapcore.Core {
			return zapcore.NewTee(c, fileCore)
		}),
	)
	return &UnitLog{Logger: logger, file: f}, nil
}

// Close flushes and closes the underlying log file.
func (u *UnitLog) Close() error {
	_ = u.Logger.Sync()
	return u.file.Close()
}
