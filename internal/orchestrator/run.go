package orchestrator

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fntelecomllc/zonepipe/internal/config"
	"github.com/fntelecomllc/zonepipe/internal/engine"
	"github.com/fntelecomllc/zonepipe/internal/errs"
	"github.com/fntelecomllc/zonepipe/internal/session"
	"github.com/fntelecomllc/zonepipe/internal/units"
	"github.com/fntelecomllc/zonepipe/internal/zonefs"
)

// UnitReport is the outcome of one Extractor or Cleaner invocation.
type UnitReport struct {
	Unit  string
	Kind  string // "extractor" or "cleaner"
	Role  string
	Err   error
}

// ServiceReport aggregates one service's unit reports. Failed is set
// when any unit errored, but per §4.H that never halts sibling units.
type ServiceReport struct {
	Service string
	Failed  bool
	Units   []UnitReport
}

// RunReport is the whole orchestrator invocation's result.
type RunReport struct {
	RunID      string
	StartedAt  time.Time
	FinishedAt time.Time
	Services   []ServiceReport
}

// RunOptions narrows a Run invocation: an optional service allow-list
// (`pipeline run --services s1,s2`) and whether to skip the extractor
// phase entirely (`--no-extractors`), running only the cleaners against
// whatever is already on disk.
type RunOptions struct {
	Services     []string
	NoExtractors bool
}

// Failed reports whether any service in the run recorded a failing unit.
func (r RunReport) Failed() bool {
	for _, sr := range r.Services {
		if sr.Failed {
			return true
		}
	}
	return false
}

// AllFailed reports whether every service in the run failed entirely
// (used by the CLI to distinguish exit code 2 "partial" from 3 "full").
func (r RunReport) AllFailed() bool {
	if len(r.Services) == 0 {
		return false
	}
	for _, sr := range r.Services {
		if !sr.Failed {
			return false
		}
	}
	return true
}

// Orchestrator wires the Registry, Engine, and Session Acquirer together
// and drives the execution plan from §4.H.
type Orchestrator struct {
	cfg      *config.AppConfig
	layout   zonefs.Layout
	engine   *engine.Engine
	acquirer session.Acquirer
	registry *Registry
	logger   *zap.Logger

	sem chan struct{}
}

// New builds an Orchestrator. acquirer may be nil for services whose
// extractors declare no session requirement.
func New(cfg *config.AppConfig, layout zonefs.Layout, eng *engine.Engine, acquirer session.Acquirer, registry *Registry, logger *zap.Logger) *Orchestrator {
	concurrency := cfg.ConcurrencyMax
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Orchestrator{
		cfg:      cfg,
		layout:   layout,
		engine:   eng,
		acquirer: acquirer,
		registry: registry,
		logger:   logger,
		sem:      make(chan struct{}, concurrency),
	}
}

// Run executes one full pass: services in ascending priority order, each
// service's extractors (parallel within the service), then its cleaners
// strictly in landing2raw → raw2staging → staging2curated order.
// Services with disjoint directories run concurrently, subject to the
// configured concurrency cap; one service's failure never halts another.
func (o *Orchestrator) Run(ctx context.Context, opts RunOptions) (RunReport, error) {
	report := RunReport{RunID: uuid.NewString(), StartedAt: time.Now().UTC()}

	policies := o.cfg.ServicesByPriority()
	if len(opts.Services) > 0 {
		allowed := map[string]bool{}
		for _, s := range opts.Services {
			allowed[s] = true
		}
		filtered := policies[:0]
		for _, p := range policies {
			if allowed[p.Name] {
				filtered = append(filtered, p)
			}
		}
		policies = filtered
	}

	var mu sync.Mutex
	var wg sync.WaitGroup
	for _, policy := range policies {
		policy := policy
		o.sem <- struct{}{}
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() { <-o.sem }()
			sr := o.runService(ctx, policy, report.RunID, opts.NoExtractors)
			mu.Lock()
			report.Services = append(report.Services, sr)
			mu.Unlock()
		}()
	}
	wg.Wait()

	report.FinishedAt = time.Now().UTC()
	return report, nil
}

func (o *Orchestrator) runService(ctx context.Context, policy config.ServicePolicy, runID string, noExtractors bool) ServiceReport {
	sr := ServiceReport{Service: policy.Name}
	su, _ := o.registry.Get(policy.Name)

	if !noExtractors {
		o.runExtractors(ctx, policy, su, runID, &sr)
	}
	env := units.Env{ProjectRoot: o.cfg.ProjectRoot, LogLevel: o.cfg.LogLevel, CredentialDir: o.layout.CredentialsPath(policy.Name), RunID: runID}
	o.runCleaners(units.WithEnv(ctx, env), policy, su, &sr)
	return sr
}

// runExtractors runs every registered extractor for the service
// concurrently (no ordering dependency between extractors is declared by
// this contract), each bounded by the configured extractor timeout and,
// when the service declares a login URL and an acquirer is configured,
// preceded by a Session Acquirer call.
func (o *Orchestrator) runExtractors(ctx context.Context, policy config.ServicePolicy, su ServiceUnits, runID string, sr *ServiceReport) {
	var wg sync.WaitGroup
	var mu sync.Mutex

	for _, ex := range su.Extractors {
		ex := ex
		wg.Add(1)
		go func() {
			defer wg.Done()
			report := UnitReport{Unit: ex.Name(), Kind: "extractor"}

			var sess *session.Session
			if o.acquirer != nil && policy.LoginURL != "" {
				for _, account := range policy.EffectiveAccounts() {
					s, err := o.acquirer.Acquire(ctx, policy.Name, account)
					if err != nil {
						report.Err = err
						mu.Lock()
						sr.Units = append(sr.Units, report)
						sr.Failed = true
						mu.Unlock()
						return
					}
					sess = s
					break // one session per extractor invocation; multi-account fan-out is the Extractor's own concern
				}
			}

			runCtx, cancel := context.WithTimeout(ctx, o.cfg.Timeouts.ExtractorTimeout)
			defer cancel()
			env := units.Env{ProjectRoot: o.cfg.ProjectRoot, LogLevel: o.cfg.LogLevel, CredentialDir: o.layout.CredentialsPath(policy.Name), RunID: runID}
			runCtx = units.WithEnv(runCtx, env)

			if _, err := ex.Run(runCtx, sess); err != nil {
				report.Err = err
				o.logger.Warn("extractor failed", zap.String("service", policy.Name), zap.String("unit", ex.Name()), zap.Error(err))
			}

			mu.Lock()
			sr.Units = append(sr.Units, report)
			if report.Err != nil {
				sr.Failed = true
			}
			mu.Unlock()
		}()
	}
	wg.Wait()
}

// runCleaners runs the service's cleaners strictly in role order.
// Landing→Raw is Engine-owned generically (content-hash dedup needs no
// business logic), so it always runs once per service regardless of
// registration; any explicitly registered landing2raw cleaner still runs
// first as a pre-promotion hook (e.g. format validation) whose outcome is
// logged but does not gate the generic promotion.
func (o *Orchestrator) runCleaners(ctx context.Context, policy config.ServicePolicy, su ServiceUnits, sr *ServiceReport) {
	sorted := su.SortedCleaners()

	for _, c := range sorted {
		if c.Role() != units.RoleLandingToRaw {
			continue
		}
		o.invokeHookCleaner(ctx, policy, c, sr)
	}

	if _, err := o.engine.PromoteLandingToRaw(policy.Name); err != nil {
		sr.Units = append(sr.Units, UnitReport{Unit: "landing2raw", Kind: "cleaner", Role: string(units.RoleLandingToRaw), Err: err})
		sr.Failed = true
	} else {
		sr.Units = append(sr.Units, UnitReport{Unit: "landing2raw", Kind: "cleaner", Role: string(units.RoleLandingToRaw)})
	}

	for _, c := range sorted {
		switch c.Role() {
		case units.RoleRawToStaging:
			if _, err := o.engine.PromoteRawToStaging(ctx, policy.Name, c, o.cfg.Timeouts.CleanerTimeout); err != nil {
				sr.Units = append(sr.Units, UnitReport{Unit: c.Name(), Kind: "cleaner", Role: string(c.Role()), Err: err})
				sr.Failed = true
			} else {
				sr.Units = append(sr.Units, UnitReport{Unit: c.Name(), Kind: "cleaner", Role: string(c.Role())})
			}
		case units.RoleStagingToCurated:
			outcome, err := o.engine.PromoteStagingToCurated(ctx, policy.Name, c, o.cfg.Timeouts.CleanerTimeout)
			if err != nil {
				sr.Units = append(sr.Units, UnitReport{Unit: c.Name(), Kind: "cleaner", Role: string(c.Role()), Err: err})
				sr.Failed = true
				continue
			}
			if outcome.Kind == units.Failed {
				sr.Units = append(sr.Units, UnitReport{Unit: c.Name(), Kind: "cleaner", Role: string(c.Role()), Err: errs.New(errs.CleanerError, policy.Name, c.Name(), outcome.Reason, nil)})
				sr.Failed = true
				continue
			}
			sr.Units = append(sr.Units, UnitReport{Unit: c.Name(), Kind: "cleaner", Role: string(c.Role())})
		}
	}
}

func (o *Orchestrator) invokeHookCleaner(ctx context.Context, policy config.ServicePolicy, c units.Cleaner, sr *ServiceReport) {
	inputs, err := o.layout.ListFiles(zonefs.Landing, policy.Name, c.InputGlob())
	if err != nil {
		sr.Units = append(sr.Units, UnitReport{Unit: c.Name(), Kind: "cleaner", Role: string(c.Role()), Err: err})
		sr.Failed = true
		return
	}
	runCtx, cancel := context.WithTimeout(ctx, o.cfg.Timeouts.CleanerTimeout)
	defer cancel()
	if _, err := c.Clean(runCtx, inputs); err != nil {
		o.logger.Warn("landing2raw pre-promotion hook failed", zap.String("service", policy.Name), zap.String("unit", c.Name()), zap.Error(err))
	}
}
