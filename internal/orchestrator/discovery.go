// Package orchestrator implements the Service Orchestrator (SPEC_FULL.md
// §4.H): filesystem-driven service discovery, priority-ordered execution,
// and the Extractor/Cleaner invocation loop. It is grounded on the
// teacher's cmd/apiserver/main.go bootstrap sequencing (resolve config,
// build dependencies, run a bounded work loop) and
// internal/monitoring/monitoring_service.go's hand-rolled worker-pool
// shape, generalized here from a fixed monitoring loop to a directory-
// discovered, per-service unit pipeline.
package orchestrator

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// DiscoverServices recursively enumerates srcRoot for directories that
// qualify as a service: src/<service>/ containing either extractors/ or
// cleaners/ as a subdirectory. Hidden directories (leading dot) are
// excluded from the walk entirely, matching §4.H's Discovery rule.
func DiscoverServices(srcRoot string) ([]string, error) {
	entries, err := os.ReadDir(srcRoot)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var services []string
	for _, e := range entries {
		if !e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		dir := filepath.Join(srcRoot, e.Name())
		if hasSubdir(dir, "extractors") || hasSubdir(dir, "cleaners") {
			services = append(services, e.Name())
		}
	}
	sort.Strings(services)
	return services, nil
}

func hasSubdir(dir, name string) bool {
	info, err := os.Stat(filepath.Join(dir, name))
	return err == nil && info.IsDir()
}
