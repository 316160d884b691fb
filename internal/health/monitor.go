package health

import (
	"context"
	"fmt"
	"time"

	"github.com/shirou/gopsutil/v3/disk"
	"go.uber.org/zap"

	"github.com/fntelecomllc/zonepipe/internal/config"
	"github.com/fntelecomllc/zonepipe/internal/credstore"
	"github.com/fntelecomllc/zonepipe/internal/zonefs"
)

// Monitor computes Health Snapshots.
type Monitor struct {
	layout              zonefs.Layout
	cfg                 *config.AppConfig
	creds               *credstore.Store
	logger              *zap.Logger
	diskThresholdPercent float64
	now                 func() time.Time
}

// defaultDiskThresholdPercent is the zone-disk-usage bottleneck signal's
// default trigger level, the supplemental signal described in
// SPEC_FULL.md §4.J.
const defaultDiskThresholdPercent = 90.0

// New builds a Monitor for cfg's configured services.
func New(layout zonefs.Layout, cfg *config.AppConfig, creds *credstore.Store, logger *zap.Logger) *Monitor {
	return &Monitor{
		layout:              layout,
		cfg:                 cfg,
		creds:               creds,
		logger:              logger,
		diskThresholdPercent: defaultDiskThresholdPercent,
		now:                 func() time.Time { return time.Now().UTC() },
	}
}

// Snapshot computes one Health Snapshot across every configured service.
func (m *Monitor) Snapshot(ctx context.Context) (Snapshot, error) {
	now := m.now()
	snap := Snapshot{TakenAt: now}

	var weightedScore, weightTotal float64
	anyFailed := false
	for _, policy := range m.cfg.Services {
		ss, err := m.computeService(policy, now)
		if err != nil {
			m.logger.Warn("health: service snapshot failed", zap.String("service", policy.Name), zap.Error(err))
			anyFailed = true
			snap.Services = append(snap.Services, ServiceSnapshot{
				Service:         policy.Name,
				Status:          StatusFailed,
				Recommendations: []string{"health computation failed: " + err.Error()},
			})
			continue
		}
		snap.Services = append(snap.Services, ss)

		weight := 1.0 / (float64(policy.Priority) + 1)
		weightedScore += float64(ss.HealthScore) * weight
		weightTotal += weight
	}

	overallScore := 100
	if weightTotal > 0 {
		overallScore = int(weightedScore / weightTotal)
	}
	snap.OverallStatus = StatusForScore(overallScore)
	if anyFailed {
		snap.OverallStatus = StatusFailed
	}
	return snap, nil
}

func (m *Monitor) computeService(policy config.ServicePolicy, now time.Time) (ServiceSnapshot, error) {
	ss := ServiceSnapshot{Service: policy.Name, Freshness: map[zonefs.Zone]Freshness{}}

	for _, zone := range zonefs.Ordered {
		f, err := computeFreshness(m.layout, zone, policy.Name, now)
		if err != nil {
			return ServiceSnapshot{}, err
		}
		ss.Freshness[zone] = f
	}

	for _, account := range policy.EffectiveAccounts() {
		status := m.creds.Status(policy.Name, account, policy)
		ss.CredentialStatuses = append(ss.CredentialStatuses, CredentialStatus{Account: account, Status: status})
	}

	bottlenecks, recs := detectBottlenecks(m.layout, policy.Name, ss.Freshness)
	diskReasons, diskRecs := m.detectDiskBottleneck(policy.Name)
	bottlenecks = append(bottlenecks, diskReasons...)
	recs = append(recs, diskRecs...)
	ss.Bottlenecks = bottlenecks
	ss.Recommendations = recs

	ss.HealthScore = computeHealthScore(ss)
	ss.Status = StatusForScore(ss.HealthScore)
	ss.AutoActions = buildAutoActions(policy, ss)
	return ss, nil
}

// detectDiskBottleneck samples each zone root's filesystem usage via
// gopsutil, grounded on the teacher's resource_monitor.go disk sampling.
// It is a supplemental signal only: a sampling failure (e.g. the zone
// directory doesn't exist yet) is swallowed, never surfaced as an error.
func (m *Monitor) detectDiskBottleneck(service string) ([]BottleneckReason, []string) {
	var reasons []BottleneckReason
	var recs []string
	seen := map[string]bool{}

	for _, zone := range zonefs.Ordered {
		root := m.layout.ZoneRoot(zone)
		if seen[root] {
			continue
		}
		seen[root] = true

		usage, err := disk.Usage(root)
		if err != nil {
			continue
		}
		if usage.UsedPercent >= m.diskThresholdPercent {
			reasons = append(reasons, BottleneckZoneDiskUsage)
			recs = append(recs, fmt.Sprintf("%s: zone %s filesystem at %.1f%% used (threshold %.1f%%)", service, zone, usage.UsedPercent, m.diskThresholdPercent))
		}
	}
	return reasons, recs
}

// computeHealthScore composites freshness, credential validity, and
// completeness into a 0-100 score, starting from 100 and deducting for
// each observed problem.
func computeHealthScore(ss ServiceSnapshot) int {
	score := 100

	if f, ok := ss.Freshness[zonefs.Landing]; ok && f.FileCount > 0 && f.AgeDays > 2 {
		score -= 10
	}
	for _, cs := range ss.CredentialStatuses {
		switch cs.Status {
		case credstore.StatusExpired, credstore.StatusMissing:
			score -= 25
		case credstore.StatusExpiringSoon:
			score -= 10
		}
	}
	score -= 15 * len(ss.Bottlenecks)

	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	return score
}

// buildAutoActions translates the computed bottlenecks and credential
// statuses into the structured remediation actions from §4.J.
func buildAutoActions(policy config.ServicePolicy, ss ServiceSnapshot) []AutoAction {
	var actions []AutoAction

	for _, cs := range ss.CredentialStatuses {
		switch cs.Status {
		case credstore.StatusExpired, credstore.StatusMissing:
			actions = append(actions, AutoAction{Type: ActionCookieRefresh, Service: policy.Name, Account: cs.Account, Priority: PriorityHigh, Reason: "credentials " + string(cs.Status)})
		case credstore.StatusExpiringSoon:
			actions = append(actions, AutoAction{Type: ActionCookieRefresh, Service: policy.Name, Account: cs.Account, Priority: PriorityMedium, Reason: "credentials expiring soon"})
		}
	}

	for _, b := range ss.Bottlenecks {
		switch b {
		case BottleneckLandingAheadOfRaw:
			if f := ss.Freshness[zonefs.Landing]; f.AgeDays > 5 {
				actions = append(actions, AutoAction{Type: ActionRunExtractor, Service: policy.Name, Priority: PriorityMedium, Reason: "landing data is stale; extractor may not be running"})
			} else {
				actions = append(actions, AutoAction{Type: ActionRunCleaners, Service: policy.Name, Priority: PriorityMedium, Reason: string(b)})
			}
		case BottleneckRawAheadOfStaging, BottleneckStagingPresentCuratedMissing, BottleneckPathMismatch:
			actions = append(actions, AutoAction{Type: ActionRunCleaners, Service: policy.Name, Priority: PriorityLow, Reason: string(b)})
		}
	}
	return actions
}
