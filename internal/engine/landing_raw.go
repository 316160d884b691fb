package engine

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/fntelecomllc/zonepipe/internal/errs"
	"github.com/fntelecomllc/zonepipe/internal/hashindex"
	"github.com/fntelecomllc/zonepipe/internal/zonefs"
)

// Engine is the Zone Pipeline Engine (SPEC_FULL.md §4.G): it owns every
// promotion write across the five zones and is the sole writer of zone
// content and hash indexes, mirroring the teacher's env_manager.go
// "resolve once, hash, compare, replace atomically" idiom generalized
// from configuration drift detection to cross-zone file promotion.
type Engine struct {
	layout zonefs.Layout
	logger *zap.Logger
	now    func() time.Time
}

// New builds an Engine rooted at layout.
func New(layout zonefs.Layout, logger *zap.Logger) *Engine {
	return &Engine{layout: layout, logger: logger, now: func() time.Time { return time.Now().UTC() }}
}

// PromoteLandingToRaw runs the Landing→Raw promotion algorithm for one
// service: SEEN-state dedup by content digest against the Raw hash
// index, with a conflict suffix on basename collisions carrying a
// different digest. A single file's I/O error is recorded as ERRORED and
// never aborts the sweep.
func (e *Engine) PromoteLandingToRaw(service string) (LandingToRawReport, error) {
	if err := e.layout.EnsureZone(zonefs.Raw, service); err != nil {
		return LandingToRawReport{}, err
	}

	indexPath := e.layout.HashIndexPath(zonefs.Raw, service)
	idx, err := hashindex.Load(indexPath)
	if err != nil {
		return LandingToRawReport{}, err
	}

	candidates, err := e.layout.ListFiles(zonefs.Landing, service, "")
	if err != nil {
		return LandingToRawReport{}, err
	}

	report := LandingToRawReport{Service: service}
	dirty := false

	for _, f := range candidates {
		digest, err := hashindex.DigestFile(f.Path)
		if err != nil {
			report.Files = append(report.Files, FileOutcome{Basename: f.Basename, State: StateErrored, Reason: err.Error()})
			e.logger.Warn("landing2raw: digest failed", zap.String("service", service), zap.String("file", f.Basename), zap.Error(err))
			continue
		}

		if alreadyPromoted(idx, digest) {
			report.Files = append(report.Files, FileOutcome{Basename: f.Basename, State: StateSkipped, Reason: "digest already present in raw index"})
			continue
		}

		outBasename := f.Basename
		if existing, ok := idx[outBasename]; ok && existing != digest {
			outBasename = zonefs.ConflictSuffix(f.Basename, e.now())
		}

		destPath := e.layout.PathFor(zonefs.Raw, service, outBasename)
		if err := copyFile(f.Path, destPath); err != nil {
			report.Files = append(report.Files, FileOutcome{Basename: f.Basename, State: StateErrored, Reason: err.Error()})
			e.logger.Warn("landing2raw: copy failed", zap.String("service", service), zap.String("file", f.Basename), zap.Error(err))
			continue
		}

		idx[outBasename] = digest
		dirty = true
		report.Files = append(report.Files, FileOutcome{Basename: f.Basename, State: StatePromoted, Output: outBasename})
	}

	if dirty {
		if err := hashindex.Save(indexPath, idx); err != nil {
			return report, err
		}
	}
	return report, nil
}

// alreadyPromoted reports whether digest already appears anywhere in the
// Raw index, i.e. the content (regardless of basename) was promoted by
// an earlier sweep.
func alreadyPromoted(idx hashindex.Index, digest hashindex.Digest) bool {
	for _, d := range idx {
		if d == digest {
			return true
		}
	}
	return false
}

// copyFile writes src's bytes to a temp file beside dst and renames it
// into place, so a reader of dst never observes a partial write.
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return errs.New(errs.PathError, "", "", "open source "+src, err)
	}
	defer in.Close()

	dir := filepath.Dir(dst)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errs.New(errs.PathError, "", "", "create dest dir "+dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".promote-*.tmp")
	if err != nil {
		return errs.New(errs.PathError, "", "", "create temp file in "+dir, err)
	}
	tmpPath := tmp.Name()

	if _, err := io.Copy(tmp, in); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return errs.New(errs.PathError, "", "", "write "+tmpPath, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return errs.New(errs.PathError, "", "", "close "+tmpPath, err)
	}
	if err := os.Rename(tmpPath, dst); err != nil {
		os.Remove(tmpPath)
		return errs.New(errs.PathError, "", "", fmt.Sprintf("rename %s -> %s", tmpPath, dst), err)
	}
	return nil
}
