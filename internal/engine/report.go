package engine

import "github.com/fntelecomllc/zonepipe/internal/units"

// FileOutcome pairs one Landing file with its terminal state and, for
// PROMOTED files, the basename it landed on in Raw (which may carry a
// conflict suffix).
type FileOutcome struct {
	Basename string
	State    FileState
	Output   string // Raw basename, populated only when State == StatePromoted
	Reason   string // populated for Skipped/Errored
}

// LandingToRawReport is the run report the Engine returns for one
// service's Landing→Raw sweep, matching §4.G's "collects per-file
// outcomes and returns a run report" failure semantics.
type LandingToRawReport struct {
	Service string
	Files   []FileOutcome
}

// Counts tallies outcomes by terminal state.
func (r LandingToRawReport) Counts() map[FileState]int {
	counts := map[FileState]int{}
	for _, f := range r.Files {
		counts[f.State]++
	}
	return counts
}

// StagingToCuratedOutcome is the whole-artifact result of one service's
// Staging→Curated promotion attempt.
type StagingToCuratedOutcome struct {
	Service   string
	Kind      units.OutcomeKind // Promoted, Skipped (no-op), or Failed
	Archived  string            // archive basename, set when a prior curated artifact was archived
	Curated   string            // curated basename after the promotion
	Reason    string
}
