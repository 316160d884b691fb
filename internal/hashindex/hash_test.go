package hashindex

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDigestFileStable(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.json")
	if err := os.WriteFile(path, []byte(`{"a":1}`), 0o644); err != nil {
		t.Fatal(err)
	}
	d1, err := DigestFile(path)
	if err != nil {
		t.Fatalf("DigestFile() error: %v", err)
	}
	d2, err := DigestFile(path)
	if err != nil {
		t.Fatalf("DigestFile() second call error: %v", err)
	}
	if d1 != d2 {
		t.Fatalf("DigestFile() not stable across calls: %x != %x", d1, d2)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	idxPath := filepath.Join(dir, "_hashes.json")

	d, err := DigestFile(writeTemp(t, dir, "{}"))
	if err != nil {
		t.Fatal(err)
	}

	if err := Upsert(idxPath, "data_20250101_010000.json", d); err != nil {
		t.Fatalf("Upsert() error: %v", err)
	}

	idx, err := Load(idxPath)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	got, ok := idx["data_20250101_010000.json"]
	if !ok {
		t.Fatalf("Load() missing entry")
	}
	if got != d {
		t.Fatalf("Load() digest = %x, want %x", got, d)
	}
}

func TestLoadMissingFileIsEmptyIndex(t *testing.T) {
	idx, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	if err != nil {
		t.Fatalf("Load() on missing file should not error: %v", err)
	}
	if len(idx) != 0 {
		t.Fatalf("Load() on missing file should be empty, got %d entries", len(idx))
	}
}

func writeTemp(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "tmp-content.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}
