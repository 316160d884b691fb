package session

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/fntelecomllc/zonepipe/internal/config"
	"github.com/fntelecomllc/zonepipe/internal/credstore"
	"github.com/fntelecomllc/zonepipe/internal/errs"
	"github.com/fntelecomllc/zonepipe/internal/logging"
	"github.com/fntelecomllc/zonepipe/internal/zonefs"
)

type fakeBrowser struct {
	cookies []credstore.Cookie
	err     error
}

func (f fakeBrowser) Login(ctx context.Context, service, account, loginURL string, pred AuthenticatedPredicate, totpCode string, secondFactor SecondFactorPrompt, secondFactorTimeout time.Duration) ([]credstore.Cookie, error) {
	return f.cookies, f.err
}

func testKey() [32]byte {
	var k [32]byte
	for i := range k {
		k[i] = byte(i)
	}
	return k
}

func testAppConfig(t *testing.T, healthURL string) *config.AppConfig {
	t.Helper()
	return &config.AppConfig{
		ProjectRoot:        t.TempDir(),
		InteractiveAllowed: true,
		Timeouts:           config.DefaultTimeouts(),
		Services: []config.ServicePolicy{
			{
				Name:                 "spotify",
				MaxCredentialAgeDays: 10,
				RefreshThresholdDays: 7,
				Strategy:             config.StrategyInteractiveBrowser,
				Domains:              []string{"spotify.com"},
				HealthCheckURL:       healthURL,
			},
		},
	}
}

func TestAcquireSilentSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	cfg := testAppConfig(t, srv.URL)
	creds := credstore.New(zonefs.New(cfg.ProjectRoot), testKey())
	if err := creds.Save("spotify", "", credstore.Bundle{
		Cookies:    []credstore.Cookie{{Name: "sid", Value: "abc", Domain: "spotify.com"}},
		AcquiredAt: time.Now().UTC(),
		Strategy:   "interactive-browser",
	}); err != nil {
		t.Fatal(err)
	}

	acq := New(cfg, creds, nil, logging.New(logging.LevelError))
	sess, err := acq.Acquire(context.Background(), "spotify", "")
	if err != nil {
		t.Fatalf("Acquire() error: %v", err)
	}
	if len(sess.Cookies) != 1 {
		t.Fatalf("Acquire() session cookies = %d, want 1", len(sess.Cookies))
	}
}

func TestAcquireExpiredCredentialsFallsBackToInteractive(t *testing.T) {
	cfg := testAppConfig(t, "")
	creds := credstore.New(zonefs.New(cfg.ProjectRoot), testKey())
	if err := creds.Save("spotify", "", credstore.Bundle{
		AcquiredAt: time.Now().UTC().Add(-30 * 24 * time.Hour),
	}); err != nil {
		t.Fatal(err)
	}

	browser := fakeBrowser{cookies: []credstore.Cookie{{Name: "sid", Value: "fresh", Domain: "spotify.com"}}}
	acq := New(cfg, creds, browser, logging.New(logging.LevelError))

	sess, err := acq.Acquire(context.Background(), "spotify", "")
	if err != nil {
		t.Fatalf("Acquire() error: %v", err)
	}
	if len(sess.Cookies) != 1 || sess.Cookies[0].Value != "fresh" {
		t.Fatalf("Acquire() did not pick up interactively-acquired cookies: %+v", sess.Cookies)
	}
}

func TestAcquireNoInteractiveWhenDisallowed(t *testing.T) {
	cfg := testAppConfig(t, "")
	cfg.InteractiveAllowed = false
	creds := credstore.New(zonefs.New(cfg.ProjectRoot), testKey())

	acq := New(cfg, creds, nil, logging.New(logging.LevelError))
	_, err := acq.Acquire(context.Background(), "spotify", "")
	if kind, ok := errs.As(err); !ok || kind != errs.AuthFailed {
		t.Fatalf("Acquire() error = %v, want AuthFailed", err)
	}
}

func TestAcquireDomainFilterAppliedOnPersist(t *testing.T) {
	cfg := testAppConfig(t, "")
	creds := credstore.New(zonefs.New(cfg.ProjectRoot), testKey())

	browser := fakeBrowser{cookies: []credstore.Cookie{
		{Name: "sid", Value: "fresh", Domain: "spotify.com"},
		{Name: "evil", Value: "x", Domain: "evil.example.com"},
	}}
	acq := New(cfg, creds, browser, logging.New(logging.LevelError))

	sess, err := acq.Acquire(context.Background(), "spotify", "")
	if err != nil {
		t.Fatalf("Acquire() error: %v", err)
	}
	for _, c := range sess.Cookies {
		if c.Domain == "evil.example.com" {
			t.Fatalf("Acquire() leaked foreign-domain cookie into session: %+v", c)
		}
	}

	persisted, err := creds.Load("spotify", "")
	if err != nil {
		t.Fatal(err)
	}
	if len(persisted.Cookies) != 1 {
		t.Fatalf("persisted bundle has %d cookies, want 1 (domain-filtered)", len(persisted.Cookies))
	}
}
