// Package hashindex implements the Content Hasher (SPEC_FULL.md §4.B):
// deterministic SHA-256 digests and an atomically replaced JSON index
// file (one object) mapping basename to hex digest. The atomic-replace idiom
// is grounded on the teacher's internal/config/env_manager.go
// ResolveConfiguration, which hashes a resolved configuration and compares
// it against a previously recorded hash to detect drift; here the same
// "hash, compare, replace" shape drives dedup across zones instead.
package hashindex

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/fntelecomllc/zonepipe/internal/errs"
)

// Digest is a 32-byte SHA-256 value.
type Digest [sha256.Size]byte

// Hex returns the lowercase hex encoding of the digest.
func (d Digest) Hex() string { return fmt.Sprintf("%x", d[:]) }

// DigestFile computes the SHA-256 digest of a file's raw bytes.
func DigestFile(path string) (Digest, error) {
	f, err := os.Open(path)
	if err != nil {
		return Digest{}, errs.New(errs.HashError, "", "", "open "+path, err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return Digest{}, errs.New(errs.HashError, "", "", "read "+path, err)
	}
	var d Digest
	copy(d[:], h.Sum(nil))
	return d, nil
}

// Index maps a zone/service's file basenames to their content digest. It
// is the in-memory form of _hashes.json.
type Index map[string]Digest

// Load reads a zone's _hashes.json index file. A missing file yields an
// empty index rather than an error, since the index is created lazily on
// first promotion.
func Load(path string) (Index, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Index{}, nil
		}
		return nil, errs.New(errs.HashError, "", "", "read index "+path, err)
	}
	var raw map[string]string
	if err := json.Unmarshal(b, &raw); err != nil {
		return nil, errs.New(errs.HashError, "", "", "parse index "+path, err)
	}
	idx := make(Index, len(raw))
	for basename, hexDigest := range raw {
		var d Digest
		n, err := hex.Decode(d[:], []byte(hexDigest))
		if err != nil {
			return nil, errs.New(errs.HashError, "", "", "decode digest for "+basename, err)
		}
		if n != len(d) {
			return nil, errs.New(errs.HashError, "", "", "decode digest for "+basename, fmt.Errorf("want %d bytes, got %d", len(d), n))
		}
		idx[basename] = d
	}
	return idx, nil
}

// Save atomically replaces the index file at path (temp-file + rename on
// the same filesystem), so readers never observe a partially written
// index.
func Save(path string, idx Index) error {
	raw := make(map[string]string, len(idx))
	for basename, d := range idx {
		raw[basename] = d.Hex()
	}
	b, err := json.MarshalIndent(raw, "", "  ")
	if err != nil {
		return errs.New(errs.HashError, "", "", "marshal index", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errs.New(errs.HashError, "", "", "create index dir", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".hashindex-*.tmp")
	if err != nil {
		return errs.New(errs.HashError, "", "", "create temp index", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return errs.New(errs.HashError, "", "", "write temp index", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return errs.New(errs.HashError, "", "", "close temp index", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return errs.New(errs.HashError, "", "", "rename temp index", err)
	}
	return nil
}

// Upsert inserts or updates one entry and atomically persists the whole
// index.
func Upsert(path string, basename string, d Digest) error {
	idx, err := Load(path)
	if err != nil {
		return err
	}
	idx[basename] = d
	return Save(path, idx)
}
