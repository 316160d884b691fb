package health

import (
	"fmt"
	"time"

	"github.com/fntelecomllc/zonepipe/internal/zonefs"
)

// promotionCycle is the assumed interval between orchestrator runs used
// by the "Landing newer than Raw by more than one promotion cycle" rule.
// It is deliberately a fixed constant rather than read from the
// Scheduler's cron expression: the Health Monitor must stay correct even
// when run standalone (e.g. via `pipeline status`) with no Scheduler in
// the process.
const promotionCycle = 24 * time.Hour

func detectBottlenecks(layout zonefs.Layout, service string, fresh map[zonefs.Zone]Freshness) ([]BottleneckReason, []string) {
	var reasons []BottleneckReason
	var recs []string

	landing, raw, staging, curated := fresh[zonefs.Landing], fresh[zonefs.Raw], fresh[zonefs.Staging], fresh[zonefs.Curated]

	if landing.FileCount > 0 && landing.LatestLogicalTS.Sub(raw.LatestLogicalTS) > promotionCycle {
		reasons = append(reasons, BottleneckLandingAheadOfRaw)
		recs = append(recs, fmt.Sprintf("%s: landing has files newer than raw by more than one promotion cycle; check landing2raw cleaner", service))
	}
	if raw.FileCount > 0 && raw.LatestLogicalTS.After(staging.LatestLogicalTS) {
		reasons = append(reasons, BottleneckRawAheadOfStaging)
		recs = append(recs, fmt.Sprintf("%s: raw has files newer than staging; check raw2staging cleaner", service))
	}
	if staging.FileCount > 0 && curated.FileCount == 0 {
		reasons = append(reasons, BottleneckStagingPresentCuratedMissing)
		recs = append(recs, fmt.Sprintf("%s: staging has artifacts but curated is empty; check staging2curated cleaner", service))
	}

	if mismatch, err := pathMismatch(layout, service); err == nil && mismatch {
		reasons = append(reasons, BottleneckPathMismatch)
		recs = append(recs, fmt.Sprintf("%s: files exist in a raw subpath the configured cleaner input glob doesn't reach", service))
	}

	return reasons, recs
}

// pathMismatch reports whether raw/<service>/** (recursive) contains
// files absent from the top-level, non-recursive listing — i.e. data
// sitting in a subdirectory a non-recursive cleaner glob would never see.
func pathMismatch(layout zonefs.Layout, service string) (bool, error) {
	top, err := layout.ListFiles(zonefs.Raw, service, "")
	if err != nil {
		return false, err
	}
	all, err := layout.ListFilesRecursive(zonefs.Raw, service)
	if err != nil {
		return false, err
	}
	topPaths := make(map[string]bool, len(top))
	for _, f := range top {
		topPaths[f.Path] = true
	}
	for _, f := range all {
		if f.Basename == "_hashes.json" {
			continue
		}
		if !topPaths[f.Path] {
			return true, nil
		}
	}
	return false, nil
}
