package zonefs

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

// logicalTSPattern matches the _yyyymmdd_hhmmss component of a basename,
// e.g. data_20250101_010000.json.
var logicalTSPattern = regexp.MustCompile(`_(\d{8})_(\d{6})(?:__\d{8}T\d{6})?\.[^.]+$`)

// ParseLogicalTimestamp extracts the logical timestamp encoded in a
// basename. It returns the zero time if the name doesn't match the
// convention (e.g. a stable-named Curated artifact).
func ParseLogicalTimestamp(basename string) time.Time {
	m := logicalTSPattern.FindStringSubmatch(basename)
	if m == nil {
		return time.Time{}
	}
	t, err := time.Parse("20060102150405", m[1]+m[2])
	if err != nil {
		return time.Time{}
	}
	return t.UTC()
}

// Basename builds a <name>_<yyyymmdd_hhmmss>.<ext> basename for a
// timestamped zone file (Landing, Raw, Staging).
func Basename(name string, at time.Time, ext string) string {
	ext = strings.TrimPrefix(ext, ".")
	return fmt.Sprintf("%s_%s.%s", name, at.UTC().Format("20060102_150405"), ext)
}

// ConflictSuffix appends a __<yyyymmddThhmmss> conflict marker before the
// extension, used when a Landing→Raw promotion collides on basename with
// a different digest.
func ConflictSuffix(basename string, at time.Time) string {
	ext := filepath.Ext(basename)
	stem := strings.TrimSuffix(basename, ext)
	return fmt.Sprintf("%s__%s%s", stem, at.UTC().Format("20060102T150405"), ext)
}

// ArchiveBasename builds <name>_<yyyymmddThhmmss>.<ext> for an Archive
// entry.
func ArchiveBasename(name string, at time.Time, ext string) string {
	ext = strings.TrimPrefix(ext, ".")
	return fmt.Sprintf("%s_%s.%s", name, at.UTC().Format("20060102T150405"), ext)
}

// StripExt returns name without its extension and the extension itself
// (without the leading dot).
func StripExt(name string) (stem, ext string) {
	ext = strings.TrimPrefix(filepath.Ext(name), ".")
	stem = strings.TrimSuffix(name, filepath.Ext(name))
	return stem, ext
}
