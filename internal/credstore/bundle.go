// Package credstore implements the Credential Store (SPEC_FULL.md §4.C):
// per-(service, account) credential bundles, persisted encrypted at rest,
// with age tracking and a status derived from the service's policy. It is
// the single owner of credential persistence — extractors and the Session
// Acquirer never write cookie files directly, only go through Save.
package credstore

import (
	"time"
)

// Cookie is one persisted cookie attribute set.
type Cookie struct {
	Name     string    `json:"name"`
	Value    string    `json:"value"`
	Domain   string    `json:"domain"`
	Path     string    `json:"path"`
	Expiry   time.Time `json:"expiry,omitempty"`
	Secure   bool      `json:"secure"`
	SameSite string    `json:"same_site,omitempty"`
}

// Bundle is the Credential Bundle data model entry (§3): everything
// needed to reconstruct an authenticated session for one (service,
// account) pair.
type Bundle struct {
	Cookies      []Cookie  `json:"cookies"`
	AcquiredAt   time.Time `json:"acquired_at"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	Strategy     string    `json:"strategy"`

	// TOTPSecret is the SPEC_FULL addition enabling a fully automated
	// second factor (base32, RFC 4648) when the service policy requires
	// one. Empty when second-factor handling falls back to a human.
	TOTPSecret string `json:"totp_secret,omitempty"`
}

// Status is the credential validity classification from §4.C.
type Status string

const (
	StatusValid         Status = "valid"
	StatusExpiringSoon  Status = "expiring-soon"
	StatusExpired       Status = "expired"
	StatusMissing       Status = "missing"
)

// FilterDomains keeps only the cookies whose Domain suffix-matches one of
// the service's declared domains. This is the domain filter contract: a
// saved bundle never contains a foreign service's secrets.
func FilterDomains(cookies []Cookie, allowedDomains []string) []Cookie {
	var out []Cookie
	for _, c := range cookies {
		if domainAllowed(c.Domain, allowedDomains) {
			out = append(out, c)
		}
	}
	return out
}

func domainAllowed(domain string, allowed []string) bool {
	d := normalizeDomain(domain)
	for _, a := range allowed {
		a = normalizeDomain(a)
		if d == a || suffixMatch(d, a) {
			return true
		}
	}
	return false
}

func normalizeDomain(d string) string {
	if len(d) > 0 && d[0] == '.' {
		return d[1:]
	}
	return d
}

func suffixMatch(domain, suffix string) bool {
	if len(domain) <= len(suffix) {
		return false
	}
	tail := domain[len(domain)-len(suffix):]
	return tail == suffix && domain[len(domain)-len(suffix)-1] == '.'
}
