// Package registry maps oracle kinds to the factories that build them from
// configuration parameters.
package registry

import (
	"fmt"
	"sort"
	"sync"

	"github.com/aretw0/aime/pkg/ports"
)

// Factory builds an oracle from a loosely typed parameter map.
type Factory func(params map[string]any) (ports.Oracle, error)

// Registry manages the available oracle kinds.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry creates a new empty registry.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]Factory),
	}
}

// Register adds a factory under kind.
// If a factory with the same kind exists, it is overwritten.
func (r *Registry) Register(kind string, fn Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[kind] = fn
}

// Build looks up the factory for kind and runs it.
// Returns an error if the kind is not registered.
func (r *Registry) Build(kind string, params map[string]any) (ports.Oracle, error) {
	r.mu.RLock()
	fn, ok := r.factories[kind]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("unknown oracle %q (registered: %v)", kind, r.Kinds())
	}
	o, err := fn(params)
	if err != nil {
		return nil, fmt.Errorf("failed to build %s oracle: %w", kind, err)
	}
	return o, nil
}

// Kinds returns the registered kinds, sorted.
func (r *Registry) Kinds() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	kinds := make([]string, 0, len(r.factories))
	for k := range r.factories {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}
