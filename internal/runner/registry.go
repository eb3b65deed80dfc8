package runner

import (
	"fmt"
	"sort"
	"sync"

	"git.home.luguber.info/inful/labrunner/internal/errors"
)

// Registry manages backend registration and lookup.
type Registry struct {
	mu       sync.RWMutex
	backends map[string]Backend
}

// NewRegistry creates a new empty backend registry.
func NewRegistry() *Registry {
	return &Registry{backends: make(map[string]Backend)}
}

// Register adds a backend to the registry. Returns an error when the name is
// already taken.
func (r *Registry) Register(backend Backend) error {
	if backend == nil {
		return fmt.Errorf("cannot register nil backend")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	name := backend.Name()
	if _, exists := r.backends[name]; exists {
		return fmt.Errorf("backend %s already registered", name)
	}
	r.backends[name] = backend
	return nil
}

// Get retrieves a backend by name.
func (r *Registry) Get(name string) (Backend, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	backend, ok := r.backends[name]
	if !ok {
		return nil, errors.ValidationFailed("backend", "backend not registered").
			WithContext("backend", name).
			WithContext("known_backends", r.namesLocked())
	}
	return backend, nil
}

// Names returns registered backend names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.namesLocked()
}

func (r *Registry) namesLocked() []string {
	names := make([]string, 0, len(r.backends))
	for name := range r.backends {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// globalRegistry holds the builtin backends.
var globalRegistry = NewRegistry()

// DefaultRegistry returns the global backend registry.
func DefaultRegistry() *Registry {
	return globalRegistry
}

// Get retrieves a backend from the global registry.
func Get(name string) (Backend, error) {
	return globalRegistry.Get(name)
}

// Names returns backend names from the global registry.
func Names() []string {
	return globalRegistry.Names()
}

func mustRegister(backend Backend) {
	if err := globalRegistry.Register(backend); err != nil {
		panic(err)
	}
}
