package health

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fntelecomllc/zonepipe/internal/config"
	"github.com/fntelecomllc/zonepipe/internal/credstore"
	"github.com/fntelecomllc/zonepipe/internal/logging"
	"github.com/fntelecomllc/zonepipe/internal/zonefs"
)

func writeZoneFile(t *testing.T, layout zonefs.Layout, zone zonefs.Zone, service, name, content string) {
	t.Helper()
	path := layout.PathFor(zone, service, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func testKey() [32]byte {
	var k [32]byte
	for i := range k {
		k[i] = byte(i)
	}
	return k
}

func TestSnapshotDetectsStagingPresentCuratedMissing(t *testing.T) {
	layout := zonefs.New(t.TempDir())
	writeZoneFile(t, layout, zonefs.Staging, "acme", "acme.json", `{}`)

	cfg := &config.AppConfig{
		Services: []config.ServicePolicy{{Name: "acme", MaxCredentialAgeDays: 10, RefreshThresholdDays: 5, HealthCheckURL: "http://example.invalid"}},
	}
	creds := credstore.New(layout, testKey())
	m := New(layout, cfg, creds, logging.New(logging.LevelError))

	snap, err := m.Snapshot(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(snap.Services) != 1 {
		t.Fatalf("snapshot services = %d, want 1", len(snap.Services))
	}
	found := false
	for _, b := range snap.Services[0].Bottlenecks {
		if b == BottleneckStagingPresentCuratedMissing {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected staging_present_curated_missing bottleneck, got %+v", snap.Services[0].Bottlenecks)
	}
	if snap.Services[0].HealthScore >= 100 {
		t.Fatalf("health score should be penalized, got %d", snap.Services[0].HealthScore)
	}
}

func TestSnapshotFlagsMissingCredentialsAsAutoAction(t *testing.T) {
	layout := zonefs.New(t.TempDir())
	cfg := &config.AppConfig{
		Services: []config.ServicePolicy{{Name: "acme", MaxCredentialAgeDays: 10, RefreshThresholdDays: 5, HealthCheckURL: "http://example.invalid"}},
	}
	creds := credstore.New(layout, testKey())
	m := New(layout, cfg, creds, logging.New(logging.LevelError))

	snap, err := m.Snapshot(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	var gotCookieRefresh bool
	for _, a := range snap.Services[0].AutoActions {
		if a.Type == ActionCookieRefresh {
			gotCookieRefresh = true
		}
	}
	if !gotCookieRefresh {
		t.Fatalf("expected cookie_refresh auto_action for missing credentials, got %+v", snap.Services[0].AutoActions)
	}
}

func TestSnapshotMarksServiceFailedWhenZoneUnreadable(t *testing.T) {
	root := t.TempDir()
	layout := zonefs.New(root)

	// Occupy the raw zone's path with a plain file instead of a
	// directory, so ListFilesRecursive can't walk into
	// raw/acme and computeFreshness surfaces a real error rather than
	// the usual "doesn't exist yet" empty-index case.
	if err := os.MkdirAll(root, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, "raw"), []byte("not a directory"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := &config.AppConfig{
		Services: []config.ServicePolicy{{Name: "acme", MaxCredentialAgeDays: 10, RefreshThresholdDays: 5, HealthCheckURL: "http://example.invalid"}},
	}
	creds := credstore.New(layout, testKey())
	m := New(layout, cfg, creds, logging.New(logging.LevelError))

	snap, err := m.Snapshot(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(snap.Services) != 1 {
		t.Fatalf("snapshot services = %d, want 1", len(snap.Services))
	}
	if snap.Services[0].Status != StatusFailed {
		t.Fatalf("service status = %v, want failed", snap.Services[0].Status)
	}
	if snap.OverallStatus != StatusFailed {
		t.Fatalf("overall status = %v, want failed", snap.OverallStatus)
	}
}

func TestSaveAndLoadLatestSnapshot(t *testing.T) {
	layout := zonefs.New(t.TempDir())
	snap := Snapshot{TakenAt: time.Now().UTC(), OverallStatus: StatusHealthy}
	if err := SaveSnapshot(layout, snap); err != nil {
		t.Fatal(err)
	}

	loaded, err := LatestSnapshot(layout)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.OverallStatus != StatusHealthy {
		t.Fatalf("loaded snapshot status = %v, want healthy", loaded.OverallStatus)
	}
}
