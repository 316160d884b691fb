// Package errs defines the closed set of error kinds used across the
// ingestion pipeline and the retry/recovery policy attached to each one.
package errs

import (
	"errors"
	"fmt"
)

// Kind is one of the error kinds enumerated in the pipeline's error
// handling design. It is a closed set: callers should never invent new
// kinds at call sites, only reuse these.
type Kind string

const (
	PathError            Kind = "path_error"
	HashError            Kind = "hash_error"
	AuthFailed           Kind = "auth_failed"
	SecondFactorRequired Kind = "second_factor_required"
	RateLimited          Kind = "rate_limited"
	UpstreamUnavailable  Kind = "upstream_unavailable"
	SchemaChanged        Kind = "schema_changed"
	Transient            Kind = "transient"
	CleanerError         Kind = "cleaner_error"
)

// Error wraps a Kind with context and an optional underlying cause.
type Error struct {
	Kind    Kind
	Service string
	Unit    string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s[%s/%s]: %s: %v", e.Kind, e.Service, e.Unit, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s[%s/%s]: %s", e.Kind, e.Service, e.Unit, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// New builds an *Error for the given kind.
func New(kind Kind, service, unit, message string, cause error) *Error {
	return &Error{Kind: kind, Service: service, Unit: unit, Message: message, Cause: cause}
}

// As extracts the Kind of err if it is (or wraps) an *Error.
func As(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return "", false
}

// Action is what the recovery policy prescribes for a Kind.
type Action string

const (
	ActionFail     Action = "fail"     // fatal for the affected unit, not retried
	ActionRetry    Action = "retry"    // classified retryable, bounded by MaxRetries; the pipeline does not re-invoke on it
	ActionSkip     Action = "skip"     // record and move to the next file/service
	ActionQuarantine Action = "quarantine"
)

// Policy describes the recovery behavior for one error Kind.
type Policy struct {
	Kind        Kind
	Action      Action
	MaxRetries  int
	Retryable   bool
}

// DefaultPolicies is the recovery policy table from the error handling
// design: one row per Kind, mirroring the category/action/max-retries
// shape of a teacher-style ErrorPolicy table.
var DefaultPolicies = map[Kind]Policy{
	PathError:            {Kind: PathError, Action: ActionFail, MaxRetries: 0, Retryable: false},
	HashError:            {Kind: HashError, Action: ActionRetry, MaxRetries: 1, Retryable: true},
	AuthFailed:           {Kind: AuthFailed, Action: ActionFail, MaxRetries: 0, Retryable: false},
	SecondFactorRequired: {Kind: SecondFactorRequired, Action: ActionFail, MaxRetries: 0, Retryable: false},
	RateLimited:          {Kind: RateLimited, Action: ActionRetry, MaxRetries: 5, Retryable: true},
	UpstreamUnavailable:  {Kind: UpstreamUnavailable, Action: ActionSkip, MaxRetries: 0, Retryable: false},
	SchemaChanged:        {Kind: SchemaChanged, Action: ActionQuarantine, MaxRetries: 0, Retryable: false},
	Transient:            {Kind: Transient, Action: ActionRetry, MaxRetries: 5, Retryable: true},
	CleanerError:         {Kind: CleanerError, Action: ActionFail, MaxRetries: 0, Retryable: false},
}

// PolicyFor returns the recovery policy for an error, defaulting to a
// fail-fast, non-retryable policy for errors outside the closed set.
func PolicyFor(err error) Policy {
	kind, ok := As(err)
	if !ok {
		return Policy{Kind: "", Action: ActionFail, MaxRetries: 0, Retryable: false}
	}
	if p, ok := DefaultPolicies[kind]; ok {
		return p
	}
	return Policy{Kind: kind, Action: ActionFail, MaxRetries: 0, Retryable: false}
}
