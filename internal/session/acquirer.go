package session

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"github.com/fntelecomllc/zonepipe/internal/config"
	"github.com/fntelecomllc/zonepipe/internal/credstore"
	"github.com/fntelecomllc/zonepipe/internal/errs"
)

// SecondFactorPrompt pauses for human second-factor input, up to timeout.
// Session Acquirer's default implementation simply blocks on ctx; real
// deployments inject a terminal/webhook-backed prompt. It is an external
// collaborator boundary: the concrete UX for human second-factor entry is
// unspecified by the pipeline spec.
type SecondFactorPrompt interface {
	// Wait blocks until a human supplies the second factor (any value) or
	// ctx is done, whichever comes first.
	Wait(ctx context.Context) (string, error)
}

// BrowserLogin drives an isolated browser profile through a service's
// login flow. It is the seam the DefaultAcquirer calls into for
// interactive acquisition; production wiring is the go-rod-backed
// implementation in browser.go.
type BrowserLogin interface {
	// Login navigates to loginURL in an isolated profile for
	// (service, account), waits for the authenticated predicate, submits
	// a TOTP code via totpCode when non-empty, and returns the resulting
	// cookies.
	Login(ctx context.Context, service, account, loginURL string, pred AuthenticatedPredicate, totpCode string, secondFactor SecondFactorPrompt, secondFactorTimeout time.Duration) ([]credstore.Cookie, error)
}

// AuthenticatedPredicate decides whether a browser session reached an
// authenticated state, either by URL match or DOM selector presence —
// see BrowserLogin implementations for how each is evaluated.
type AuthenticatedPredicate struct {
	URLPattern  string
	DOMSelector string
}

// DefaultAcquirer is the production Session Acquirer.
type DefaultAcquirer struct {
	cfg     *config.AppConfig
	creds   *credstore.Store
	browser BrowserLogin
	logger  *zap.Logger

	statusCache *gocache.Cache

	mu    sync.Mutex
	locks map[string]*sync.Mutex // per (service,account) serialization
}

// New builds a DefaultAcquirer. browser may be nil if interactive
// acquisition is never expected to be exercised (e.g. in tests that only
// cover the silent path).
func New(cfg *config.AppConfig, creds *credstore.Store, browser BrowserLogin, logger *zap.Logger) *DefaultAcquirer {
	return &DefaultAcquirer{
		cfg:         cfg,
		creds:       creds,
		browser:     browser,
		logger:      logger,
		statusCache: gocache.New(30*time.Second, time.Minute),
		locks:       map[string]*sync.Mutex{},
	}
}

func (a *DefaultAcquirer) lockFor(service, account string) *sync.Mutex {
	key := service + "/" + account
	a.mu.Lock()
	defer a.mu.Unlock()
	l, ok := a.locks[key]
	if !ok {
		l = &sync.Mutex{}
		a.locks[key] = l
	}
	return l
}

// Acquire implements the policy table from §4.D: try the strategy's
// silent path; on failure (or if the status is already expired), fall
// back to interactive, honoring INTERACTIVE_ALLOWED.
func (a *DefaultAcquirer) Acquire(ctx context.Context, service, account string) (*Session, error) {
	policy, ok := a.cfg.PolicyFor(service)
	if !ok {
		return nil, errs.New(errs.PathError, service, "session", "no policy configured", nil)
	}

	lock := a.lockFor(service, account)
	lock.Lock()
	defer lock.Unlock()

	status := a.cachedStatus(service, account, policy)
	if status != credstore.StatusExpired {
		if sess, err := a.trySilent(ctx, service, account, policy); err == nil {
			return sess, nil
		}
	}

	if !a.cfg.InteractiveAllowed {
		return nil, errs.New(errs.AuthFailed, service, "session", "silent acquisition failed and interactive is disallowed", nil)
	}
	return a.runInteractive(ctx, service, account, policy)
}

func (a *DefaultAcquirer) cachedStatus(service, account string, policy config.ServicePolicy) credstore.Status {
	key := service + "/" + account
	if v, ok := a.statusCache.Get(key); ok {
		return v.(credstore.Status)
	}
	status := a.creds.Status(service, account, policy)
	a.statusCache.Set(key, status, gocache.DefaultExpiration)
	return status
}

func (a *DefaultAcquirer) trySilent(ctx context.Context, service, account string, policy config.ServicePolicy) (*Session, error) {
	bundle, err := a.creds.Load(service, account)
	if err != nil {
		return nil, errs.New(errs.AuthFailed, service, "session", "no stored credentials", err)
	}

	status := a.cachedStatus(service, account, policy)
	if status == credstore.StatusExpired || status == credstore.StatusMissing {
		return nil, errs.New(errs.AuthFailed, service, "session", "credentials expired", nil)
	}

	switch policy.Strategy {
	case config.StrategyOAuth:
		if bundle.RefreshToken == "" {
			return nil, errs.New(errs.AuthFailed, service, "session", "oauth refresh token missing", nil)
		}
	case config.StrategyTokenJWT:
		if len(bundle.Cookies) == 0 && bundle.RefreshToken == "" {
			return nil, errs.New(errs.AuthFailed, service, "session", "no jwt material stored", nil)
		}
	case config.StrategyInteractiveBrowser:
		// falls through to the health probe below
	}

	client := newHTTPClient(a.cfg.Timeouts.SessionAcquireTimeout)
	if err := a.probeHealth(ctx, client, policy, bundle); err != nil {
		return nil, err
	}

	return &Session{
		Service:    service,
		Account:    account,
		Cookies:    bundle.Cookies,
		Client:     client,
		AcquiredAt: bundle.AcquiredAt,
	}, nil
}

// probeHealth performs the HEAD/cheap-GET reachability check described in
// §4.D's Silent mode, bounded by the configured session-acquire timeout.
func (a *DefaultAcquirer) probeHealth(ctx context.Context, client *http.Client, policy config.ServicePolicy, bundle credstore.Bundle) error {
	if policy.HealthCheckURL == "" {
		return nil
	}
	reqCtx, cancel := context.WithTimeout(ctx, a.cfg.Timeouts.SessionAcquireTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodHead, policy.HealthCheckURL, nil)
	if err != nil {
		return errs.New(errs.Transient, policy.Name, "session", "build health probe", err)
	}
	req.Header.Set("Cookie", cookieHeader(bundle.Cookies))

	resp, err := client.Do(req)
	if err != nil {
		return errs.New(errs.Transient, policy.Name, "session", "health probe failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return errs.New(errs.AuthFailed, policy.Name, "session", fmt.Sprintf("health probe returned %d", resp.StatusCode), nil)
	}
	return nil
}

func cookieHeader(cookies []credstore.Cookie) string {
	out := ""
	for i, c := range cookies {
		if i > 0 {
			out += "; "
		}
		out += c.Name + "=" + c.Value
	}
	return out
}

// runInteractive launches the isolated browser profile, waits for the
// authenticated predicate, handles the second factor (automated via TOTP
// or a human prompt), and persists the resulting cookies through the
// Credential Store's domain filter.
func (a *DefaultAcquirer) runInteractive(ctx context.Context, service, account string, policy config.ServicePolicy) (*Session, error) {
	if a.browser == nil {
		return nil, errs.New(errs.AuthFailed, service, "session", "interactive acquisition unavailable (no browser backend configured)", nil)
	}

	bundle, _ := a.creds.Load(service, account)

	var totpCode string
	var secondFactor SecondFactorPrompt
	if policy.RequiresInteractiveSecondFactor {
		if bundle.TOTPSecret != "" {
			code, err := currentTOTPCode(bundle.TOTPSecret)
			if err != nil {
				return nil, errs.New(errs.AuthFailed, service, "session", "totp code generation failed", err)
			}
			totpCode = code
		} else if !a.cfg.InteractiveAllowed {
			return nil, errs.New(errs.SecondFactorRequired, service, "session", "second factor required but interactive input disallowed", nil)
		} else {
			secondFactor = humanSecondFactor{}
		}
	}

	ctx, cancel := context.WithTimeout(ctx, a.cfg.Timeouts.SessionAcquireTimeout)
	defer cancel()

	pred := AuthenticatedPredicate{URLPattern: policy.AuthenticatedURLPattern, DOMSelector: policy.AuthenticatedDOMSelector}
	cookies, err := a.browser.Login(ctx, service, account, policy.LoginURL, pred, totpCode, secondFactor, a.cfg.Timeouts.SecondFactorTimeout)
	if err != nil {
		return nil, errs.New(errs.AuthFailed, service, "session", "interactive login failed", err)
	}

	filtered := credstore.FilterDomains(cookies, policy.Domains)
	newBundle := credstore.Bundle{
		Cookies:      filtered,
		AcquiredAt:   time.Now().UTC(),
		RefreshToken: bundle.RefreshToken,
		Strategy:     string(policy.Strategy),
		TOTPSecret:   bundle.TOTPSecret,
	}
	if err := a.creds.Save(service, account, newBundle); err != nil {
		return nil, errs.New(errs.PathError, service, "session", "persist acquired credentials", err)
	}
	a.statusCache.Delete(service + "/" + account)

	return &Session{
		Service:    service,
		Account:    account,
		Cookies:    filtered,
		Client:     newHTTPClient(a.cfg.Timeouts.SessionAcquireTimeout),
		AcquiredAt: newBundle.AcquiredAt,
	}, nil
}

type humanSecondFactor struct{}

func (humanSecondFactor) Wait(ctx context.Context) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}
