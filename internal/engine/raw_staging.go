package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/fntelecomllc/zonepipe/internal/errs"
	"github.com/fntelecomllc/zonepipe/internal/units"
	"github.com/fntelecomllc/zonepipe/internal/zonefs"
)

// quarantineEntry is one line of a service's append-only quarantine log.
type quarantineEntry struct {
	At     time.Time `json:"at"`
	Input  string    `json:"input"`
	Reason string    `json:"reason"`
}

// PromoteRawToStaging enumerates a service's declared Raw→Staging inputs
// and invokes cleaner, which owns the business-key dedup and writes its
// own Staging output (the Cleaner contract's Output field names what it
// wrote). The Engine's remaining responsibility is bookkeeping: any
// input the cleaner reports Quarantined is copied into the service's
// quarantine subtree with an appended log entry, and no single input's
// failure halts the sweep.
func (e *Engine) PromoteRawToStaging(ctx context.Context, service string, cleaner units.Cleaner, timeout time.Duration) (units.CleanerResult, error) {
	if cleaner.Role() != units.RoleRawToStaging {
		return units.CleanerResult{}, errs.New(errs.CleanerError, service, cleaner.Name(), "cleaner role mismatch for raw2staging invocation", nil)
	}
	if err := e.layout.EnsureZone(zonefs.Staging, service); err != nil {
		return units.CleanerResult{}, err
	}

	inputs, err := e.layout.ListFiles(zonefs.Raw, service, cleaner.InputGlob())
	if err != nil {
		return units.CleanerResult{}, err
	}

	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	result, err := cleaner.Clean(runCtx, inputs)
	if err != nil {
		return result, errs.New(errs.CleanerError, service, cleaner.Name(), "raw2staging clean failed", err)
	}

	for _, o := range result.Outcomes {
		switch o.Kind {
		case units.Quarantined:
			if qerr := e.quarantine(service, o.Input, o.Reason); qerr != nil {
				e.logger.Warn("raw2staging: quarantine bookkeeping failed", zap.String("service", service), zap.String("input", o.Input), zap.Error(qerr))
			}
		case units.Failed:
			e.logger.Warn("raw2staging: input failed", zap.String("service", service), zap.String("input", o.Input), zap.String("reason", o.Reason))
		}
	}
	return result, nil
}

// quarantine copies the named Raw input into quarantine/<service>/ and
// appends a record to its log, never deleting the original Raw artifact.
func (e *Engine) quarantine(service, inputBasename, reason string) error {
	if inputBasename == "" {
		return nil
	}
	src := e.layout.PathFor(zonefs.Raw, service, inputBasename)
	destDir := e.layout.QuarantinePath(service)
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return errs.New(errs.PathError, service, "", "create quarantine dir", err)
	}
	if err := copyFile(src, filepath.Join(destDir, inputBasename)); err != nil {
		return err
	}

	logPath := filepath.Join(destDir, "_log.jsonl")
	f, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return errs.New(errs.PathError, service, "", "open quarantine log", err)
	}
	defer f.Close()

	b, err := json.Marshal(quarantineEntry{At: e.now(), Input: inputBasename, Reason: reason})
	if err != nil {
		return fmt.Errorf("engine: marshal quarantine entry: %w", err)
	}
	if _, err := f.Write(append(b, '\n')); err != nil {
		return errs.New(errs.PathError, service, "", "write quarantine log", err)
	}
	return nil
}
