package main

import (
	"path/filepath"

	"go.uber.org/zap"

	"github.com/fntelecomllc/zonepipe/internal/config"
	"github.com/fntelecomllc/zonepipe/internal/credstore"
	"github.com/fntelecomllc/zonepipe/internal/engine"
	"github.com/fntelecomllc/zonepipe/internal/health"
	"github.com/fntelecomllc/zonepipe/internal/logging"
	"github.com/fntelecomllc/zonepipe/internal/orchestrator"
	"github.com/fntelecomllc/zonepipe/internal/scheduler"
	"github.com/fntelecomllc/zonepipe/internal/session"
	"github.com/fntelecomllc/zonepipe/internal/zonefs"
)

// app bundles every component the CLI subcommands need, built once from
// the loaded AppConfig so no subcommand re-derives wiring on its own.
type app struct {
	cfg      *config.AppConfig
	layout   zonefs.Layout
	logger   *zap.Logger
	creds    *credstore.Store
	acquirer *session.DefaultAcquirer
	engine   *engine.Engine
	registry *orchestrator.Registry
	orch     *orchestrator.Orchestrator
	monitor  *health.Monitor
	sched    *scheduler.Scheduler
}

func buildApp(configPath string) (*app, error) {
	cfg, err := config.LoadWithEnv(configPath)
	if err != nil {
		return nil, err
	}

	logger := logging.New(logging.Level(cfg.LogLevel))
	layout := zonefs.New(cfg.ProjectRoot)

	key, err := config.ResolveCredentialEncryptionKey(cfg.ProjectRoot)
	if err != nil {
		return nil, err
	}
	creds := credstore.New(layout, key)

	browser := session.RodBrowserLogin{
		ProfilesRoot: filepath.Join(cfg.ProjectRoot, "state", "browser_profiles"),
		Headless:     cfg.HeadlessBrowser,
	}
	acquirer := session.New(cfg, creds, browser, logger)

	eng := engine.New(layout, logger)
	registry := orchestrator.NewRegistry()
	orch := orchestrator.New(cfg, layout, eng, acquirer, registry, logger)
	monitor := health.New(layout, cfg, creds, logger)
	sched := scheduler.New(layout, orch, logger)

	return &app{
		cfg:      cfg,
		layout:   layout,
		logger:   logger,
		creds:    creds,
		acquirer: acquirer,
		engine:   eng,
		registry: registry,
		orch:     orch,
		monitor:  monitor,
		sched:    sched,
	}, nil
}
