package zonefs

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestPathFor(t *testing.T) {
	l := New("/data/project")
	got := l.PathFor(Raw, "alpha", "")
	want := filepath.Join("/data/project", "raw", "alpha")
	if got != want {
		t.Fatalf("PathFor() = %q, want %q", got, want)
	}
}

func TestEnsureZoneIdempotent(t *testing.T) {
	root := t.TempDir()
	l := New(root)
	if err := l.EnsureZone(Raw, "alpha"); err != nil {
		t.Fatalf("EnsureZone() first call: %v", err)
	}
	if err := l.EnsureZone(Raw, "alpha"); err != nil {
		t.Fatalf("EnsureZone() second call should be a no-op success: %v", err)
	}
}

func TestListFiles(t *testing.T) {
	root := t.TempDir()
	l := New(root)
	dir := l.PathFor(Landing, "alpha", "")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	name := "data_20250101_010000.json"
	if err := os.WriteFile(filepath.Join(dir, name), []byte("{}"), 0o644); err != nil {
		t.Fatal(err)
	}

	files, err := l.ListFiles(Landing, "alpha", "*.json")
	if err != nil {
		t.Fatalf("ListFiles() error: %v", err)
	}
	if len(files) != 1 {
		t.Fatalf("ListFiles() returned %d files, want 1", len(files))
	}
	if files[0].Basename != name {
		t.Fatalf("ListFiles()[0].Basename = %q, want %q", files[0].Basename, name)
	}
	wantTS := time.Date(2025, 1, 1, 1, 0, 0, 0, time.UTC)
	if !files[0].LogicalTS.Equal(wantTS) {
		t.Fatalf("ListFiles()[0].LogicalTS = %v, want %v", files[0].LogicalTS, wantTS)
	}
}

func TestBasenameAndConflictSuffix(t *testing.T) {
	at := time.Date(2025, 1, 1, 1, 0, 0, 0, time.UTC)
	base := Basename("data", at, ".json")
	if base != "data_20250101_010000.json" {
		t.Fatalf("Basename() = %q", base)
	}
	conflict := ConflictSuffix(base, at)
	if conflict != "data_20250101_010000__20250101T010000.json" {
		t.Fatalf("ConflictSuffix() = %q", conflict)
	}
}
