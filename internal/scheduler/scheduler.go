// Package scheduler implements the Scheduler (SPEC_FULL.md §4.I): it
// invokes the Service Orchestrator on a fixed cron-like schedule, a
// manual "run now" trigger, and an on-demand trigger from the
// Remediator, guaranteeing at most one orchestrator run at a time and
// coalescing a second trigger that arrives mid-run. It is grounded on
// Aureuma-si's agents/manager scheduling-trigger idiom, simplified to
// robfig/cron/v3 since that repo's Temporal-backed distributed execution
// is out of scope per spec.md's distributed-execution Non-goal.
package scheduler

import (
	"context"
	"sync"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/fntelecomllc/zonepipe/internal/errs"
	"github.com/fntelecomllc/zonepipe/internal/orchestrator"
	"github.com/fntelecomllc/zonepipe/internal/zonefs"
)

// Runner is the subset of *orchestrator.Orchestrator the Scheduler needs,
// narrowed for testability.
type Runner interface {
	Run(ctx context.Context, opts orchestrator.RunOptions) (orchestrator.RunReport, error)
}

// Scheduler drives Runner on configured triggers.
type Scheduler struct {
	layout zonefs.Layout
	runner Runner
	logger *zap.Logger
	cron   *cron.Cron

	mu      sync.Mutex
	running bool
	pending bool
}

// New builds a Scheduler. layout supplies the lock file path.
func New(layout zonefs.Layout, runner Runner, logger *zap.Logger) *Scheduler {
	return &Scheduler{layout: layout, runner: runner, logger: logger}
}

// Start registers cronExpr as the fixed trigger and begins running it.
// cronExpr follows the standard five-field crontab syntax.
func (s *Scheduler) Start(cronExpr string) error {
	s.cron = cron.New()
	_, err := s.cron.AddFunc(cronExpr, func() {
		s.notify(context.Background(), "cron")
	})
	if err != nil {
		return errs.New(errs.PathError, "", "scheduler", "invalid cron expression "+cronExpr, err)
	}
	s.cron.Start()
	return nil
}

// Stop halts the cron trigger. It does not cancel an in-flight run.
func (s *Scheduler) Stop() {
	if s.cron != nil {
		s.cron.Stop()
	}
}

// RunNow is the blocking manual trigger used by the CLI: it fails fast
// with a Transient error if a run is already in progress instead of
// queuing, since an interactive caller needs a definite result.
func (s *Scheduler) RunNow(ctx context.Context) (orchestrator.RunReport, error) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return orchestrator.RunReport{}, errs.New(errs.Transient, "", "scheduler", "orchestrator run already in progress", nil)
	}
	s.running = true
	s.mu.Unlock()

	report, err := s.execute(ctx)

	s.mu.Lock()
	pending := s.pending
	s.pending = false
	s.running = false
	s.mu.Unlock()
	if pending {
		go s.notify(context.Background(), "coalesced-during-manual-run")
	}
	return report, err
}

// NotifyRemediation is the Remediator's on-demand trigger: non-blocking,
// coalesced with any run already in progress.
func (s *Scheduler) NotifyRemediation(ctx context.Context) {
	s.notify(ctx, "remediator")
}

// notify implements the coalescing trigger: if a run is already in
// flight, it marks a single pending re-run and returns immediately
// instead of stacking additional triggers.
func (s *Scheduler) notify(ctx context.Context, source string) {
	s.mu.Lock()
	if s.running {
		s.pending = true
		s.mu.Unlock()
		s.logger.Info("scheduler: coalescing trigger, run already in progress", zap.String("source", source))
		return
	}
	s.running = true
	s.mu.Unlock()

	go s.loop(ctx)
}

func (s *Scheduler) loop(ctx context.Context) {
	for {
		if _, err := s.execute(ctx); err != nil {
			s.logger.Warn("scheduler: orchestrator run failed", zap.Error(err))
		}
		s.mu.Lock()
		if s.pending {
			s.pending = false
			s.mu.Unlock()
			continue
		}
		s.running = false
		s.mu.Unlock()
		return
	}
}

func (s *Scheduler) execute(ctx context.Context) (orchestrator.RunReport, error) {
	lock, err := acquireFileLock(s.layout.OrchestratorLockPath())
	if err != nil {
		return orchestrator.RunReport{}, err
	}
	defer lock.release()
	return s.runner.Run(ctx, orchestrator.RunOptions{})
}
