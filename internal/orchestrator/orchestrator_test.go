package orchestrator

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/fntelecomllc/zonepipe/internal/config"
	"github.com/fntelecomllc/zonepipe/internal/engine"
	"github.com/fntelecomllc/zonepipe/internal/logging"
	"github.com/fntelecomllc/zonepipe/internal/zonefs"
)

func TestDiscoverServicesExcludesHiddenAndQualifiesOnSubdir(t *testing.T) {
	root := t.TempDir()
	mustMkdir(t, filepath.Join(root, "spotify", "extractors"))
	mustMkdir(t, filepath.Join(root, "spotify", "cleaners"))
	mustMkdir(t, filepath.Join(root, ".hidden", "extractors"))
	mustMkdir(t, filepath.Join(root, "empty"))

	services, err := DiscoverServices(root)
	if err != nil {
		t.Fatal(err)
	}
	if len(services) != 1 || services[0] != "spotify" {
		t.Fatalf("DiscoverServices() = %v, want [spotify]", services)
	}
}

func mustMkdir(t *testing.T, dir string) {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
}

func TestRunReportsEveryServiceWithNoUnitsRegistered(t *testing.T) {
	root := t.TempDir()
	layout := zonefs.New(root)
	cfg := &config.AppConfig{
		ProjectRoot:    root,
		ConcurrencyMax: 2,
		Timeouts:       config.DefaultTimeouts(),
		Services: []config.ServicePolicy{
			{Name: "good", Priority: 1},
			{Name: "bad", Priority: 2},
		},
	}

	reg := NewRegistry()
	eng := engine.New(layout, logging.New(logging.LevelError))
	o := New(cfg, layout, eng, nil, reg, logging.New(logging.LevelError))

	report, err := o.Run(context.Background(), RunOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if len(report.Services) != 2 {
		t.Fatalf("Run() produced %d service reports, want 2", len(report.Services))
	}
	for _, sr := range report.Services {
		if sr.Failed {
			t.Fatalf("service %q unexpectedly marked failed with no units registered", sr.Service)
		}
	}
}
