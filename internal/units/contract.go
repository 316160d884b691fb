// Package units defines the Extractor and Cleaner contracts
// (SPEC_FULL.md §4.E/§4.F) — the external collaborator interfaces the
// Orchestrator invokes. Only the typed contract lives here;
// any given service's scraping/transform logic is out of scope per
// spec.md §1 and is supplied by implementers outside this module.
package units

import (
	"context"
	"time"

	"github.com/fntelecomllc/zonepipe/internal/session"
	"github.com/fntelecomllc/zonepipe/internal/zonefs"
)

// ExtractorResult is the outcome of one Extractor invocation.
type ExtractorResult struct {
	FilesWritten []string
}

// Extractor produces Landing files from an external source. Instances
// are registered per service in the Orchestrator's Registry.
type Extractor interface {
	// Name identifies the extractor unit for logging and run records.
	Name() string
	// Run executes the extraction. ctx carries cancellation and the
	// per-unit timeout; session is nil when the extractor declares no
	// session requirement.
	Run(ctx context.Context, sess *session.Session) (ExtractorResult, error)
}

// CleanerRole is one of the three promotion transitions a Cleaner
// performs.
type CleanerRole string

const (
	RoleLandingToRaw    CleanerRole = "landing2raw"
	RoleRawToStaging    CleanerRole = "raw2staging"
	RoleStagingToCurated CleanerRole = "staging2curated"
)

// roleOrder is the total order cleaners execute in, regardless of how
// they were discovered or named on disk.
var roleOrder = map[CleanerRole]int{
	RoleLandingToRaw:     0,
	RoleRawToStaging:     1,
	RoleStagingToCurated: 2,
}

// Less reports whether role a must run before role b, by rank in
// roleOrder (landing2raw < raw2staging < staging2curated) rather than by
// string comparison of the role names.
func (r CleanerRole) Less(other CleanerRole) bool {
	return roleOrder[r] < roleOrder[other]
}

// OutcomeKind is the sum type from SPEC_FULL.md §9 resolving a Cleaner
// invocation: {Promoted, Skipped, Quarantined, Failed(reason)}. Outcomes
// are data, not exceptions — a Cleaner reports what happened rather than
// raising for expected states like "nothing new to promote."
type OutcomeKind string

const (
	Promoted    OutcomeKind = "promoted"
	Skipped     OutcomeKind = "skipped"
	Quarantined OutcomeKind = "quarantined"
	Failed      OutcomeKind = "failed"
)

// Outcome is the result of cleaning one declared input file (or, for
// staging2curated, the service's single candidate artifact).
type Outcome struct {
	Kind      OutcomeKind
	Input     string // basename of the input FileRecord, if any
	Output    string // basename written to the output zone, if any
	Reason    string // populated for Quarantined/Failed
}

// CleanerResult aggregates the per-input outcomes of one Cleaner
// invocation, matching the Engine's "collect per-file outcomes, never
// abort the batch on one failure" failure semantics (§4.G).
type CleanerResult struct {
	Outcomes []Outcome
}

// Counts tallies outcomes by kind.
func (r CleanerResult) Counts() map[OutcomeKind]int {
	counts := map[OutcomeKind]int{}
	for _, o := range r.Outcomes {
		counts[o.Kind]++
	}
	return counts
}

// Cleaner performs one promotion transition for one service. Instances
// are registered per service in the Orchestrator's Registry, and always
// invoked in the fixed order landing2raw → raw2staging → staging2curated.
type Cleaner interface {
	Name() string
	Role() CleanerRole
	// InputGlob is the declared input pattern the Engine enumerates on
	// the Cleaner's behalf (§9: "formalize a declared input glob per
	// cleaner; the Engine performs the enumeration... so cleaners do not
	// wander the filesystem").
	InputGlob() string
	// Clean transforms the given input FileRecords (already enumerated
	// by the Engine against InputGlob) and returns one Outcome per input,
	// or — for staging2curated, which operates on the whole artifact
	// rather than per-file — a single Outcome.
	Clean(ctx context.Context, inputs []zonefs.FileRecord) (CleanerResult, error)
}

// Timeout is the per-role default timeout lookup used when a unit's
// invocation context doesn't already carry a deadline.
func (r CleanerRole) Timeout(cleanerTimeout time.Duration) time.Duration {
	return cleanerTimeout
}
