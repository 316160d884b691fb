package orchestrator

import (
	"sort"
	"sync"

	"github.com/fntelecomllc/zonepipe/internal/units"
)

// ServiceUnits is the set of Extractor/Cleaner implementations wired up
// for one service. Unit discovery under src/<service>/{extractors,
// cleaners} names the filesystem convention; the Go implementations
// themselves are registered in-process (a service's package calls
// Register from an init or from cmd/pipeline's bootstrap), since this
// module's Extractor/Cleaner contract is a compiled Go interface rather
// than an externally executed script.
type ServiceUnits struct {
	Extractors []units.Extractor
	Cleaners   []units.Cleaner
}

// SortedCleaners returns Cleaners ordered landing2raw < raw2staging <
// staging2curated, stable against registration order within a role.
func (s ServiceUnits) SortedCleaners() []units.Cleaner {
	out := make([]units.Cleaner, len(s.Cleaners))
	copy(out, s.Cleaners)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Role().Less(out[j].Role()) })
	return out
}

// Registry maps a service name to its wired units. It is safe for
// concurrent use since the live-reload watcher (see watch.go) may
// re-populate it while a run is in flight.
type Registry struct {
	mu       sync.RWMutex
	services map[string]ServiceUnits
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{services: map[string]ServiceUnits{}}
}

// Register wires extractors and cleaners for service, replacing any
// prior registration.
func (r *Registry) Register(service string, units ServiceUnits) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.services[service] = units
}

// Get returns the units registered for service.
func (r *Registry) Get(service string) (ServiceUnits, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.services[service]
	return u, ok
}

// Services returns the names of all registered services, sorted.
func (r *Registry) Services() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.services))
	for name := range r.services {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
