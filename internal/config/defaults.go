package config

import "time"

// DefaultTimeouts mirrors the teacher's pattern of a GetDefault*Config
// function (see internal/config/error_management.go's
// GetDefaultErrorManagementConfig) providing sane fallbacks before any
// override is applied.
func DefaultTimeouts() Timeouts {
	return Timeouts{
		ExtractorTimeout:      5 * time.Minute,
		CleanerTimeout:        10 * time.Minute,
		SessionAcquireTimeout: 30 * time.Second,
		SecondFactorTimeout:   2 * time.Minute,
	}
}

// DefaultBackoff is the default exponential backoff envelope for
// Transient and RateLimited failures (see Backoff).
func DefaultBackoff() Backoff {
	return Backoff{
		Base:   500 * time.Millisecond,
		Cap:    30 * time.Second,
		Jitter: 0.2,
	}
}

const DefaultRunRetentionDays = 30
const DefaultConcurrencyMax = 4
