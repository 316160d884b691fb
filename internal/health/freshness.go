package health

import (
	"time"

	"github.com/fntelecomllc/zonepipe/internal/zonefs"
)

// computeFreshness reports, for one zone/service, the most recent
// artifact's logical timestamp (falling back to mtime for files that
// don't carry the yyyymmdd_hhmmss naming convention, e.g. Curated) and
// its age relative to now.
func computeFreshness(layout zonefs.Layout, zone zonefs.Zone, service string, now time.Time) (Freshness, error) {
	files, err := layout.ListFilesRecursive(zone, service)
	if err != nil {
		return Freshness{}, err
	}

	f := Freshness{Zone: zone, FileCount: len(files)}
	if len(files) == 0 {
		return f, nil
	}

	var latest time.Time
	for _, rec := range files {
		ts := rec.LogicalTS
		if ts.IsZero() {
			ts = rec.ModTime
		}
		if ts.After(latest) {
			latest = ts
		}
	}
	f.LatestLogicalTS = latest
	f.AgeDays = now.Sub(latest).Hours() / 24
	return f, nil
}
