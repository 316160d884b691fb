// Package zonefs implements the canonical directory scheme (Zone Layout,
// SPEC_FULL.md §4.A) and path resolution used by every other component.
// It has no teacher analog beyond the general "derive every path from one
// configured root" idiom visible across the teacher's internal/config
// package; it is new plumbing required directly by the spec.
package zonefs

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"
)

// Zone is one of the five ordered storage zones.
type Zone string

const (
	Landing Zone = "landing"
	Raw     Zone = "raw"
	Staging Zone = "staging"
	Curated Zone = "curated"
	Archive Zone = "archive"
)

// Ordered lists the zones in their promotion order.
var Ordered = []Zone{Landing, Raw, Staging, Curated, Archive}

// Layout resolves paths rooted at a single project root.
type Layout struct {
	Root string
}

// New returns a Layout rooted at root.
func New(root string) Layout { return Layout{Root: root} }

// ZoneRoot returns <root>/<zone>.
func (l Layout) ZoneRoot(zone Zone) string {
	return filepath.Join(l.Root, string(zone))
}

// PathFor resolves <root>/<zone>/<service>[/<subpath>]. subpath may be
// empty.
func (l Layout) PathFor(zone Zone, service, subpath string) string {
	if subpath == "" {
		return filepath.Join(l.Root, string(zone), service)
	}
	return filepath.Join(l.Root, string(zone), service, subpath)
}

// HashIndexPath returns the path to a zone's _hashes.json index for a
// service.
func (l Layout) HashIndexPath(zone Zone, service string) string {
	return filepath.Join(l.PathFor(zone, service, ""), "_hashes.json")
}

// QuarantinePath returns the quarantine subtree for a service, used when
// a raw2staging cleaner reports an input as Quarantined.
func (l Layout) QuarantinePath(service string) string {
	return filepath.Join(l.Root, "quarantine", service)
}

// LogsRoot returns the logs/ root.
func (l Layout) LogsRoot() string { return filepath.Join(l.Root, "logs") }

// StateRoot returns the state/ root.
func (l Layout) StateRoot() string { return filepath.Join(l.Root, "state") }

// OrchestratorLockPath returns state/orchestrator.lock.
func (l Layout) OrchestratorLockPath() string {
	return filepath.Join(l.StateRoot(), "orchestrator.lock")
}

// HealthSnapshotsPath returns state/health_snapshots.
func (l Layout) HealthSnapshotsPath() string {
	return filepath.Join(l.StateRoot(), "health_snapshots")
}

// CredentialsPath returns credentials/<service>.
func (l Layout) CredentialsPath(service string) string {
	return filepath.Join(l.Root, "credentials", service)
}

// SourceRoot returns <root>/src, the tree the Orchestrator walks for
// service discovery.
func (l Layout) SourceRoot() string { return filepath.Join(l.Root, "src") }

// EnsureZone creates the zone/service subtree if it does not already
// exist. Path creation is idempotent: callers treat existence as success.
func (l Layout) EnsureZone(zone Zone, service string) error {
	dir := l.PathFor(zone, service, "")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("zonefs: ensure zone %s/%s: %w", zone, service, err)
	}
	return nil
}

// FileRecord describes one on-disk artifact in a zone.
type FileRecord struct {
	Path       string
	Service    string
	Zone       Zone
	Basename   string
	LogicalTS  time.Time // parsed from the filename's yyyymmdd_hhmmss component
	ModTime    time.Time
	Size       int64
}

// ListFiles enumerates files under <root>/<zone>/<service> matching glob
// (a filepath.Match pattern evaluated against the basename), sorted by
// basename for determinism.
func (l Layout) ListFiles(zone Zone, service, glob string) ([]FileRecord, error) {
	dir := l.PathFor(zone, service, "")
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("zonefs: list %s/%s: %w", zone, service, err)
	}

	var out []FileRecord
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if glob != "" {
			ok, err := filepath.Match(glob, name)
			if err != nil {
				return nil, fmt.Errorf("zonefs: bad glob %q: %w", glob, err)
			}
			if !ok {
				continue
			}
		}
		info, err := e.Info()
		if err != nil {
			return nil, fmt.Errorf("zonefs: stat %s: %w", name, err)
		}
		out = append(out, FileRecord{
			Path:      filepath.Join(dir, name),
			Service:   service,
			Zone:      zone,
			Basename:  name,
			LogicalTS: ParseLogicalTimestamp(name),
			ModTime:   info.ModTime(),
			Size:      info.Size(),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Basename < out[j].Basename })
	return out, nil
}

// ListFilesRecursive enumerates files under <root>/<zone>/<service>/**,
// used by the Health Monitor's freshness computation and its
// path-mismatch detection (glob over raw/<service>/**).
func (l Layout) ListFilesRecursive(zone Zone, service string) ([]FileRecord, error) {
	root := l.PathFor(zone, service, "")
	var out []FileRecord
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if info.IsDir() {
			return nil
		}
		out = append(out, FileRecord{
			Path:      path,
			Service:   service,
			Zone:      zone,
			Basename:  filepath.Base(path),
			LogicalTS: ParseLogicalTimestamp(filepath.Base(path)),
			ModTime:   info.ModTime(),
			Size:      info.Size(),
		})
		return nil
	})
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("zonefs: walk %s/%s: %w", zone, service, err)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, nil
}
