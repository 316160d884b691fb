package health

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/fntelecomllc/zonepipe/internal/errs"
	"github.com/fntelecomllc/zonepipe/internal/zonefs"
)

// SaveSnapshot persists snap under state/health_snapshots/<yyyymmddThhmmss>.json,
// the Health Monitor's own artifact per spec.md §3's ownership rule — no
// other component writes here.
func SaveSnapshot(layout zonefs.Layout, snap Snapshot) error {
	dir := layout.HealthSnapshotsPath()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errs.New(errs.PathError, "", "health", "create snapshots dir", err)
	}

	b, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return err
	}

	name := snap.TakenAt.Format("20060102T150405") + ".json"
	path := filepath.Join(dir, name)

	tmp, err := os.CreateTemp(dir, ".snapshot-*.tmp")
	if err != nil {
		return errs.New(errs.PathError, "", "health", "create temp snapshot", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return errs.New(errs.PathError, "", "health", "write temp snapshot", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return errs.New(errs.PathError, "", "health", "close temp snapshot", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return errs.New(errs.PathError, "", "health", "rename temp snapshot", err)
	}
	return nil
}

// LatestSnapshot reads the most recently written snapshot file, or
// (Snapshot{}, nil) if none exist yet.
func LatestSnapshot(layout zonefs.Layout) (Snapshot, error) {
	dir := layout.HealthSnapshotsPath()
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return Snapshot{}, nil
		}
		return Snapshot{}, errs.New(errs.PathError, "", "health", "list snapshots", err)
	}
	if len(entries) == 0 {
		return Snapshot{}, nil
	}

	var latestName string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if e.Name() > latestName {
			latestName = e.Name()
		}
	}
	if latestName == "" {
		return Snapshot{}, nil
	}

	b, err := os.ReadFile(filepath.Join(dir, latestName))
	if err != nil {
		return Snapshot{}, errs.New(errs.PathError, "", "health", "read latest snapshot", err)
	}
	var snap Snapshot
	if err := json.Unmarshal(b, &snap); err != nil {
		return Snapshot{}, errs.New(errs.PathError, "", "health", "parse latest snapshot", err)
	}
	return snap, nil
}
