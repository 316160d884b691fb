package engine

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/fntelecomllc/zonepipe/internal/errs"
	"github.com/fntelecomllc/zonepipe/internal/zonefs"
)

// manifestEntry is one append-only record of an Archive write, per
// SPEC_FULL.md §9's "archive/<service>/_manifest append-only log" Open
// Question resolution.
type manifestEntry struct {
	At       time.Time `json:"at"`
	Service  string    `json:"service"`
	Curated  string    `json:"curated_basename"`
	Archived string    `json:"archived_basename"`
}

// appendManifest records one archived-then-replaced curated artifact.
// The manifest is never truncated or rewritten, only appended to: it is
// the durable audit trail the Archival invariant promises.
func (e *Engine) appendManifest(service, curatedBasename, archivedBasename string) error {
	dir := filepath.Join(e.layout.ZoneRoot(zonefs.Archive), service)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errs.New(errs.PathError, service, "", "create archive dir", err)
	}
	f, err := os.OpenFile(filepath.Join(dir, "_manifest.jsonl"), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return errs.New(errs.PathError, service, "", "open archive manifest", err)
	}
	defer f.Close()

	b, err := json.Marshal(manifestEntry{
		At:       e.now(),
		Service:  service,
		Curated:  curatedBasename,
		Archived: archivedBasename,
	})
	if err != nil {
		return err
	}
	_, err = f.Write(append(b, '\n'))
	if err != nil {
		return errs.New(errs.PathError, service, "", "write archive manifest", err)
	}
	return nil
}
