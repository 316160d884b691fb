package session

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"github.com/fntelecomllc/zonepipe/internal/credstore"
)

// RodBrowserLogin is the go-rod-backed BrowserLogin, grounded on
// theRebelliousNerd-codenerd's internal/browser/session_manager.go
// isolated-profile launch sequence (launcher.New()...Launch(),
// rod.New().ControlURL(url).Connect()), generalized here to one
// dedicated user-data directory per (service, account) so that sessions
// for different services never share a browser profile or process, per
// §4.D's isolation requirement.
type RodBrowserLogin struct {
	ProfilesRoot string
	Headless     bool
}

// Login implements BrowserLogin.
func (b RodBrowserLogin) Login(ctx context.Context, service, account, loginURL string, pred AuthenticatedPredicate, totpCode string, secondFactor SecondFactorPrompt, secondFactorTimeout time.Duration) ([]credstore.Cookie, error) {
	profileDir := filepath.Join(b.ProfilesRoot, service, profileName(account))

	l := launcher.New().
		UserDataDir(profileDir).
		Headless(b.Headless)
	defer l.Cleanup()

	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("session: launch browser: %w", err)
	}

	browser := rod.New().ControlURL(controlURL).Context(ctx)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("session: connect to browser: %w", err)
	}
	defer browser.Close()

	page, err := browser.Page(proto.TargetCreateTarget{URL: loginURL})
	if err != nil {
		return nil, fmt.Errorf("session: open login page: %w", err)
	}
	defer page.Close()

	if err := waitAuthenticated(ctx, page, pred); err != nil {
		return nil, err
	}

	if totpCode != "" {
		if err := submitTOTP(page, totpCode); err != nil {
			return nil, fmt.Errorf("session: submit totp: %w", err)
		}
	} else if secondFactor != nil {
		sfCtx, cancel := context.WithTimeout(ctx, secondFactorTimeout)
		defer cancel()
		if _, err := secondFactor.Wait(sfCtx); err != nil {
			return nil, fmt.Errorf("session: second factor not supplied: %w", err)
		}
	}

	return extractCookies(page)
}

func profileName(account string) string {
	if account == "" {
		return "default"
	}
	return account
}

// waitAuthenticated polls the page for either the URL pattern or DOM
// selector predicate until ctx is done.
func waitAuthenticated(ctx context.Context, page *rod.Page, pred AuthenticatedPredicate) error {
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("session: timed out waiting for authenticated state: %w", ctx.Err())
		case <-ticker.C:
			if pred.URLPattern != "" {
				info, err := page.Info()
				if err == nil && strings.Contains(info.URL, pred.URLPattern) {
					return nil
				}
			}
			if pred.DOMSelector != "" {
				if has, _, err := page.Has(pred.DOMSelector); err == nil && has {
					return nil
				}
			}
		}
	}
}

// submitTOTP looks for a conventional one-time-code input and submits it.
// Services whose login flow diverges from this convention provide their
// own BrowserLogin implementation.
func submitTOTP(page *rod.Page, code string) error {
	el, err := page.Element(`input[autocomplete="one-time-code"], input[name*="otp" i], input[name*="totp" i]`)
	if err != nil {
		return fmt.Errorf("locate otp field: %w", err)
	}
	if err := el.Input(code); err != nil {
		return fmt.Errorf("type otp: %w", err)
	}
	return el.Type('\n')
}

// extractCookies reads the page's cookies via the DevTools protocol and
// converts them into the store's Cookie shape.
func extractCookies(page *rod.Page) ([]credstore.Cookie, error) {
	res, err := proto.NetworkGetCookies{}.Call(page)
	if err != nil {
		return nil, fmt.Errorf("get cookies: %w", err)
	}
	out := make([]credstore.Cookie, 0, len(res.Cookies))
	for _, c := range res.Cookies {
		var expiry time.Time
		if c.Expires > 0 {
			expiry = time.Unix(int64(c.Expires), 0).UTC()
		}
		out = append(out, credstore.Cookie{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			Expiry:   expiry,
			Secure:   c.Secure,
			SameSite: string(c.SameSite),
		})
	}
	return out, nil
}
