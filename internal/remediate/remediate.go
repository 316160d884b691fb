// Package remediate implements the Remediator (SPEC_FULL.md §4.K): an
// optional auto-remediation loop that consumes a Health Snapshot's
// auto_actions[] and executes them by invoking the Orchestrator or
// Session Acquirer. It is grounded on the teacher's
// internal/monitoring/alerting_service.go action-dispatch loop, adapted
// from alert-notification dispatch to the idempotent-only remediation
// actions this system allows.
package remediate

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/fntelecomllc/zonepipe/internal/health"
	"github.com/fntelecomllc/zonepipe/internal/session"
)

// Scheduler is the subset of *scheduler.Scheduler the Remediator needs:
// a non-blocking, coalesced trigger so a remediation sweep never stacks
// concurrent orchestrator runs.
type Scheduler interface {
	NotifyRemediation(ctx context.Context)
}

// Remediator executes auto_actions from the latest Health Snapshot.
type Remediator struct {
	scheduler Scheduler
	acquirer  session.Acquirer
	logger    *zap.Logger

	minInterval time.Duration
	lastSweep   time.Time
}

// New builds a Remediator. minInterval rate-limits sweeps per §4.K ("one
// remediation sweep per configured interval").
func New(scheduler Scheduler, acquirer session.Acquirer, logger *zap.Logger, minInterval time.Duration) *Remediator {
	return &Remediator{scheduler: scheduler, acquirer: acquirer, logger: logger, minInterval: minInterval}
}

// Sweep consumes snap's auto_actions and executes them. It is a no-op if
// called before minInterval has elapsed since the last sweep. Remediation
// never deletes files and only ever triggers idempotent units (session
// re-acquisition, or a full orchestrator pass whose promotion writes are
// themselves idempotent by construction).
func (r *Remediator) Sweep(ctx context.Context, snap health.Snapshot) {
	now := time.Now().UTC()
	if !r.lastSweep.IsZero() && now.Sub(r.lastSweep) < r.minInterval {
		r.logger.Debug("remediate: sweep rate-limited", zap.Duration("since_last", now.Sub(r.lastSweep)))
		return
	}
	r.lastSweep = now

	needsRun := false
	for _, svc := range snap.Services {
		for _, action := range svc.AutoActions {
			switch action.Type {
			case health.ActionCookieRefresh:
				r.refreshCredentials(ctx, action)
			case health.ActionRunExtractor, health.ActionRunCleaners:
				needsRun = true
			}
		}
	}

	if needsRun {
		r.scheduler.NotifyRemediation(ctx)
	}
}

func (r *Remediator) refreshCredentials(ctx context.Context, action health.AutoAction) {
	if r.acquirer == nil {
		return
	}
	if _, err := r.acquirer.Acquire(ctx, action.Service, action.Account); err != nil {
		r.logger.Warn("remediate: cookie refresh failed", zap.String("service", action.Service), zap.String("account", action.Account), zap.Error(err))
	}
}
