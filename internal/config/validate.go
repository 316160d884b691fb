package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

var v = validator.New()

// ValidateServicePolicy runs struct-tag validation over a single policy,
// mirroring the teacher's internal/config/validate.go use of
// go-playground/validator for config struct validation.
func ValidateServicePolicy(p ServicePolicy) error {
	if err := v.Struct(p); err != nil {
		return fmt.Errorf("config: invalid service policy %q: %w", p.Name, err)
	}
	if p.RequiresInteractiveSecondFactor && p.Strategy == StrategyOAuth {
		// not an invariant violation, just worth normalizing expectations:
		// oauth's silent path is refresh-token based and does not itself
		// pause for a second factor, only its interactive fallback does.
		_ = p
	}
	return nil
}

// ValidateAll validates every configured service policy, collecting all
// errors rather than stopping at the first (a single malformed service
// policy must not prevent diagnosing the rest).
func ValidateAll(cfg *AppConfig) []error {
	var errs []error
	seen := map[string]bool{}
	for _, p := range cfg.Services {
		if seen[p.Name] {
			errs = append(errs, fmt.Errorf("config: duplicate service %q", p.Name))
			continue
		}
		seen[p.Name] = true
		if err := ValidateServicePolicy(p); err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}
