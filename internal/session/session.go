// Package session implements the Authenticated Session Acquirer
// (SPEC_FULL.md §4.D): it turns stored or freshly authenticated
// credentials into an opaque Session capability that Extractors consume,
// never the other way around. Interactive acquisition is grounded on
// theRebelliousNerd-codenerd's internal/browser/session_manager.go
// (isolated go-rod profile per tracked session); silent-mode health
// probing is grounded on the teacher's internal/proxymanager.TestProxy
// context-bounded http.Client pattern.
package session

import (
	"context"
	"net/http"
	"time"

	"github.com/fntelecomllc/zonepipe/internal/credstore"
)

// Session is the opaque capability an Extractor consumes. It never
// exposes how it was acquired.
type Session struct {
	Service string
	Account string
	Cookies []credstore.Cookie
	Client  *http.Client
	AcquiredAt time.Time
}

// CookieHeader renders the session's cookies as a Cookie request header
// value, for extractors that issue their own HTTP requests rather than
// driving a browser.
func (s *Session) CookieHeader() string {
	out := ""
	for i, c := range s.Cookies {
		if i > 0 {
			out += "; "
		}
		out += c.Name + "=" + c.Value
	}
	return out
}

// Mode records which path produced a Session, for run-record diagnostics.
type Mode string

const (
	ModeSilent      Mode = "silent"
	ModeInteractive Mode = "interactive"
)

// Acquirer is injected into the Orchestrator and produces Sessions on
// behalf of Extractors that declare a session requirement.
type Acquirer interface {
	Acquire(ctx context.Context, service, account string) (*Session, error)
}

// newHTTPClient builds the short-lived client used for silent-mode health
// probes, mirroring the teacher's ProxyTestTimeout-bounded client.
func newHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{Timeout: timeout}
}
