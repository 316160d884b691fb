package engine

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fntelecomllc/zonepipe/internal/logging"
	"github.com/fntelecomllc/zonepipe/internal/units"
	"github.com/fntelecomllc/zonepipe/internal/zonefs"
)

func testEngine(t *testing.T) (*Engine, zonefs.Layout) {
	t.Helper()
	layout := zonefs.New(t.TempDir())
	e := New(layout, logging.New(logging.LevelError))
	return e, layout
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestPromoteLandingToRawDedupsByDigest(t *testing.T) {
	e, layout := testEngine(t)
	writeFile(t, layout.PathFor(zonefs.Landing, "acme", "data_20250101_010000.json"), `{"a":1}`)

	first, err := e.PromoteLandingToRaw("acme")
	if err != nil {
		t.Fatal(err)
	}
	if first.Counts()[StatePromoted] != 1 {
		t.Fatalf("first sweep promoted = %d, want 1", first.Counts()[StatePromoted])
	}

	second, err := e.PromoteLandingToRaw("acme")
	if err != nil {
		t.Fatal(err)
	}
	if second.Counts()[StateSkipped] != 1 {
		t.Fatalf("second sweep skipped = %d, want 1 (dedup by digest)", second.Counts()[StateSkipped])
	}
}

func TestPromoteLandingToRawConflictSuffixOnBasenameCollision(t *testing.T) {
	e, layout := testEngine(t)
	name := "data_20250101_010000.json"
	writeFile(t, layout.PathFor(zonefs.Landing, "acme", name), `{"a":1}`)
	if _, err := e.PromoteLandingToRaw("acme"); err != nil {
		t.Fatal(err)
	}

	// Same basename, different content: must not be skipped, and must not
	// overwrite the original Raw artifact.
	writeFile(t, layout.PathFor(zonefs.Landing, "acme", name), `{"a":2}`)
	report, err := e.PromoteLandingToRaw("acme")
	if err != nil {
		t.Fatal(err)
	}
	if report.Counts()[StatePromoted] != 1 {
		t.Fatalf("conflict sweep promoted = %d, want 1", report.Counts()[StatePromoted])
	}
	if report.Files[0].Output == name {
		t.Fatalf("conflicting file was not given a conflict suffix: %+v", report.Files[0])
	}

	original, err := os.ReadFile(layout.PathFor(zonefs.Raw, "acme", name))
	if err != nil {
		t.Fatal(err)
	}
	if string(original) != `{"a":1}` {
		t.Fatalf("original raw artifact was overwritten: %s", original)
	}
}

type fakeRawToStagingCleaner struct {
	result units.CleanerResult
	err    error
}

func (f fakeRawToStagingCleaner) Name() string              { return "fake-raw2staging" }
func (f fakeRawToStagingCleaner) Role() units.CleanerRole    { return units.RoleRawToStaging }
func (f fakeRawToStagingCleaner) InputGlob() string          { return "*.json" }
func (f fakeRawToStagingCleaner) Clean(ctx context.Context, inputs []zonefs.FileRecord) (units.CleanerResult, error) {
	return f.result, f.err
}

func TestPromoteRawToStagingQuarantinesInvalidRows(t *testing.T) {
	e, layout := testEngine(t)
	writeFile(t, layout.PathFor(zonefs.Raw, "acme", "bad_20250101_010000.json"), `not json`)

	cleaner := fakeRawToStagingCleaner{result: units.CleanerResult{Outcomes: []units.Outcome{
		{Kind: units.Quarantined, Input: "bad_20250101_010000.json", Reason: "schema mismatch"},
	}}}

	if _, err := e.PromoteRawToStaging(context.Background(), "acme", cleaner, time.Minute); err != nil {
		t.Fatal(err)
	}

	if _, err := os.Stat(layout.QuarantinePath("acme") + "/bad_20250101_010000.json"); err != nil {
		t.Fatalf("expected quarantined copy, stat error: %v", err)
	}
	if _, err := os.Stat(filepath.Join(layout.QuarantinePath("acme"), "_log.jsonl")); err != nil {
		t.Fatalf("expected quarantine log, stat error: %v", err)
	}
	// original raw input must remain untouched
	if _, err := os.Stat(layout.PathFor(zonefs.Raw, "acme", "bad_20250101_010000.json")); err != nil {
		t.Fatalf("raw input was removed: %v", err)
	}
}

type fakeStagingToCuratedCleaner struct {
	output string
}

func (f fakeStagingToCuratedCleaner) Name() string           { return "fake-staging2curated" }
func (f fakeStagingToCuratedCleaner) Role() units.CleanerRole { return units.RoleStagingToCurated }
func (f fakeStagingToCuratedCleaner) InputGlob() string       { return "*" }
func (f fakeStagingToCuratedCleaner) Clean(ctx context.Context, inputs []zonefs.FileRecord) (units.CleanerResult, error) {
	return units.CleanerResult{Outcomes: []units.Outcome{{Kind: units.Promoted, Output: f.output}}}, nil
}

func TestPromoteStagingToCuratedArchivesPriorOnReplace(t *testing.T) {
	e, layout := testEngine(t)
	candidateName := "acme.json"
	writeFile(t, layout.PathFor(zonefs.Staging, "acme", candidateName), `{"v":1}`)
	cleaner := fakeStagingToCuratedCleaner{output: candidateName}

	first, err := e.PromoteStagingToCurated(context.Background(), "acme", cleaner, time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	if first.Kind != units.Promoted {
		t.Fatalf("first promotion kind = %v, want Promoted", first.Kind)
	}
	if first.Archived != "" {
		t.Fatalf("first promotion should not archive anything, got %q", first.Archived)
	}

	// Same candidate content again: must be a no-op, no archive entry.
	writeFile(t, layout.PathFor(zonefs.Staging, "acme", candidateName), `{"v":1}`)
	second, err := e.PromoteStagingToCurated(context.Background(), "acme", cleaner, time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	if second.Kind != units.Skipped {
		t.Fatalf("unchanged candidate kind = %v, want Skipped", second.Kind)
	}

	// Changed content: must archive the prior curated artifact and replace it.
	writeFile(t, layout.PathFor(zonefs.Staging, "acme", candidateName), `{"v":2}`)
	third, err := e.PromoteStagingToCurated(context.Background(), "acme", cleaner, time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	if third.Kind != units.Promoted || third.Archived == "" {
		t.Fatalf("changed candidate result = %+v, want Promoted with an archived basename", third)
	}

	curated, err := os.ReadFile(layout.PathFor(zonefs.Curated, "acme", candidateName))
	if err != nil {
		t.Fatal(err)
	}
	if string(curated) != `{"v":2}` {
		t.Fatalf("curated content = %s, want updated value", curated)
	}

	archived, err := os.ReadFile(filepath.Join(layout.ZoneRoot(zonefs.Archive), "acme", third.Archived))
	if err != nil {
		t.Fatal(err)
	}
	if string(archived) != `{"v":1}` {
		t.Fatalf("archived content = %s, want prior value preserved", archived)
	}

	manifest, err := os.ReadFile(filepath.Join(layout.ZoneRoot(zonefs.Archive), "acme", "_manifest.jsonl"))
	if err != nil {
		t.Fatal(err)
	}
	if len(manifest) == 0 {
		t.Fatal("expected non-empty archive manifest")
	}
}
