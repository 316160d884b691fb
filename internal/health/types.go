// Package health implements the Pipeline Health Monitor (SPEC_FULL.md
// §4.J): per-service freshness, credential-status, and bottleneck
// detection folded into a composite health score, human-readable
// recommendations, and structured auto_actions for the Remediator. It is
// grounded on the teacher's internal/monitoring/monitoring_service.go
// (threshold tables driving alert generation) and alerting_service.go
// (action dispatch shape), with resource sampling adapted from
// internal/monitoring/resource_monitor.go.
package health

import (
	"time"

	"github.com/fntelecomllc/zonepipe/internal/credstore"
	"github.com/fntelecomllc/zonepipe/internal/zonefs"
)

// Status is the coarse health classification of a service or the whole
// pipeline.
type Status string

const (
	StatusHealthy  Status = "healthy"
	StatusDegraded Status = "degraded"
	StatusCritical Status = "critical"
	// StatusFailed means the monitor could not compute a service's
	// snapshot at all (e.g. a zone directory couldn't be read), as
	// distinct from StatusCritical, which means the snapshot computed
	// but scored badly. A FAILED service's own health is unknown, and
	// any FAILED service escalates the whole Snapshot's OverallStatus
	// to FAILED regardless of the other services' scores.
	StatusFailed Status = "failed"
)

// StatusForScore buckets a 0-100 health_score into a Status. It never
// returns StatusFailed: that status is reserved for a service whose
// snapshot computation itself errored, not one that merely scored 0.
func StatusForScore(score int) Status {
	switch {
	case score >= 80:
		return StatusHealthy
	case score >= 50:
		return StatusDegraded
	default:
		return StatusCritical
	}
}

// BottleneckReason is one concrete rule from §4.J naming why data isn't
// reaching Curated.
type BottleneckReason string

const (
	BottleneckLandingAheadOfRaw             BottleneckReason = "landing_newer_than_raw"
	BottleneckRawAheadOfStaging             BottleneckReason = "raw_newer_than_staging"
	BottleneckStagingPresentCuratedMissing  BottleneckReason = "staging_present_curated_missing"
	BottleneckPathMismatch                  BottleneckReason = "raw_path_mismatch"
	BottleneckZoneDiskUsage                 BottleneckReason = "zone_disk_usage"
)

// AutoActionType is one of the three structured remediation actions the
// Remediator knows how to execute.
type AutoActionType string

const (
	ActionCookieRefresh AutoActionType = "cookie_refresh"
	ActionRunExtractor  AutoActionType = "run_extractor"
	ActionRunCleaners   AutoActionType = "run_cleaners"
)

// Priority ranks an AutoAction's urgency.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// AutoAction is a structured remediation the Remediator may execute.
type AutoAction struct {
	Type     AutoActionType `json:"type"`
	Service  string         `json:"service"`
	Account  string         `json:"account,omitempty"`
	Priority Priority       `json:"priority"`
	Reason   string         `json:"reason"`
}

// Freshness describes the most recent artifact observed in one zone.
type Freshness struct {
	Zone            zonefs.Zone `json:"zone"`
	LatestLogicalTS time.Time   `json:"latest_logical_ts"`
	AgeDays         float64     `json:"age_days"`
	FileCount       int         `json:"file_count"`
}

// CredentialStatus pairs one account with its Credential Store status.
type CredentialStatus struct {
	Account string          `json:"account"`
	Status  credstore.Status `json:"status"`
}

// ServiceSnapshot is one service's computed health at TakenAt.
type ServiceSnapshot struct {
	Service           string                   `json:"service"`
	Status            Status                   `json:"status"`
	HealthScore       int                      `json:"health_score"`
	Freshness         map[zonefs.Zone]Freshness `json:"freshness"`
	CredentialStatuses []CredentialStatus       `json:"credential_status"`
	Bottlenecks       []BottleneckReason       `json:"bottlenecks"`
	Recommendations   []string                 `json:"recommendations"`
	AutoActions       []AutoAction             `json:"auto_actions"`
}

// Snapshot is the full pipeline health report persisted under
// state/health_snapshots/.
type Snapshot struct {
	TakenAt       time.Time         `json:"taken_at"`
	OverallStatus Status            `json:"overall_status"`
	Services      []ServiceSnapshot `json:"services"`
}
