// Package config loads the immutable RuntimeContext that every component
// receives explicitly at construction time — per the source system's
// per-script global state, centralized here rather than read from the
// environment ad hoc by individual components (see SPEC_FULL.md §9).
package config

import "time"

// Strategy is one of the Session Acquirer authentication strategies.
type Strategy string

const (
	StrategyOAuth               Strategy = "oauth"
	StrategyTokenJWT            Strategy = "token-jwt"
	StrategyInteractiveBrowser  Strategy = "interactive-browser"
)

// RawTranscode resolves Open Question 2: whether Raw preserves Landing's
// original format or transcodes it.
type RawTranscode string

const (
	RawTranscodeNone    RawTranscode = "none"
	RawTranscodeToNDJSON RawTranscode = "to-ndjson"
	RawTranscodeToCSV    RawTranscode = "to-csv"
)

// StagingOutputMode resolves Open Question 1: whether staging artifacts
// are retained across runs or overwritten.
type StagingOutputMode string

const (
	StagingReplace           StagingOutputMode = "replace"
	StagingAppendTimestamped StagingOutputMode = "append-timestamped"
)

// ServicePolicy is the per-service configuration enumerated in the data
// model (§3): credential aging, account list, priority ordering, and the
// SPEC_FULL additions needed to drive the Session Acquirer and the raw/
// staging output policies.
type ServicePolicy struct {
	Name            string   `yaml:"name" validate:"required,lowercase,alphanum"`
	MaxCredentialAgeDays  int `yaml:"max_credential_age_days" validate:"required,gt=0"`
	RefreshThresholdDays  int `yaml:"refresh_threshold_days" validate:"gt=0,ltefield=MaxCredentialAgeDays"`
	Strategy        Strategy `yaml:"strategy" validate:"required,oneof=oauth token-jwt interactive-browser"`
	RequiresInteractiveSecondFactor bool     `yaml:"requires_interactive_second_factor"`
	Accounts        []string `yaml:"accounts"`
	Priority        int      `yaml:"priority"`

	// Domains the Credential Store's domain filter matches cookies
	// against; a persisted credential bundle never carries a cookie
	// whose domain doesn't suffix-match one of these.
	Domains []string `yaml:"domains" validate:"required,min=1"`

	// Session Acquirer targets.
	LoginURL                 string `yaml:"login_url"`
	HealthCheckURL           string `yaml:"health_check_url" validate:"required,url"`
	AuthenticatedURLPattern  string `yaml:"authenticated_url_pattern"`
	AuthenticatedDOMSelector string `yaml:"authenticated_dom_selector"`

	RawTranscode      RawTranscode      `yaml:"raw_transcode" validate:"omitempty,oneof=none to-ndjson to-csv"`
	StagingOutputMode StagingOutputMode `yaml:"staging_output_mode" validate:"omitempty,oneof=replace append-timestamped"`
}

// EffectiveAccounts returns the configured accounts, or a single implicit
// empty-string account when none are declared.
func (p ServicePolicy) EffectiveAccounts() []string {
	if len(p.Accounts) == 0 {
		return []string{""}
	}
	return p.Accounts
}

func (p ServicePolicy) effectiveRawTranscode() RawTranscode {
	if p.RawTranscode == "" {
		return RawTranscodeNone
	}
	return p.RawTranscode
}

// EffectiveRawTranscode is exported for use outside the package.
func (p ServicePolicy) EffectiveRawTranscode() RawTranscode { return p.effectiveRawTranscode() }

// EffectiveStagingOutputMode returns the configured mode, defaulting to
// replace (Open Question 1's resolution).
func (p ServicePolicy) EffectiveStagingOutputMode() StagingOutputMode {
	if p.StagingOutputMode == "" {
		return StagingReplace
	}
	return p.StagingOutputMode
}

// Timeouts holds the per-stage timeout configuration enumerated in §5.
type Timeouts struct {
	ExtractorTimeout       time.Duration `yaml:"extractor_timeout_sec"`
	CleanerTimeout         time.Duration `yaml:"cleaner_timeout_sec"`
	SessionAcquireTimeout  time.Duration `yaml:"session_acquire_timeout_sec"`
	SecondFactorTimeout    time.Duration `yaml:"second_factor_timeout_sec"`
}

// Backoff holds an exponential-backoff envelope (base, cap, jitter) for
// Transient/RateLimited failures. It is parsed and defaulted; no code
// path in the pipeline retries with it.
type Backoff struct {
	Base   time.Duration `yaml:"base"`
	Cap    time.Duration `yaml:"cap"`
	Jitter float64       `yaml:"jitter"`
}

// AppConfig aggregates the global settings and the per-service policies.
// It is the root of the immutable RuntimeContext.
type AppConfig struct {
	ProjectRoot       string          `yaml:"-"`
	LogLevel          string          `yaml:"-"`
	ConcurrencyMax    int             `yaml:"-"`
	HeadlessBrowser   bool            `yaml:"-"`
	InteractiveAllowed bool           `yaml:"-"`

	Timeouts Timeouts        `yaml:"timeouts"`
	Backoff  Backoff         `yaml:"backoff"`
	Services []ServicePolicy `yaml:"services"`

	RunRetentionDays int `yaml:"run_retention_days"`

	loadedFromPath string
}

// LoadedFromPath returns the file path the policy document was parsed
// from, empty if constructed in-memory (e.g. in tests).
func (c *AppConfig) LoadedFromPath() string { return c.loadedFromPath }

// PolicyFor returns the ServicePolicy for a named service.
func (c *AppConfig) PolicyFor(service string) (ServicePolicy, bool) {
	for _, p := range c.Services {
		if p.Name == service {
			return p, true
		}
	}
	return ServicePolicy{}, false
}

// ServicesByPriority returns the configured services sorted by ascending
// priority (lower runs first), ties broken by name for determinism.
func (c *AppConfig) ServicesByPriority() []ServicePolicy {
	out := make([]ServicePolicy, len(c.Services))
	copy(out, c.Services)
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && less(out[j], out[j-1]); j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}

func less(a, b ServicePolicy) bool {
	if a.Priority != b.Priority {
		return a.Priority < b.Priority
	}
	return a.Name < b.Name
}
