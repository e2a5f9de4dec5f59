package tree

import (
	"sort"
	"sync"
)

// ServiceKey returns the conventional name of the builder for entityType,
// used in log output.
func ServiceKey(entityType string) string {
	return "entity_reference_" + entityType + "_tree_builder"
}

// Registry maps entity types to their Builder. Types without a registered
// builder resolve to the fallback. It is filled at startup and safe for
// concurrent reads afterwards.
type Registry struct {
	mu       sync.RWMutex
	builders map[string]Builder
	fallback Builder
}

// NewRegistry creates a registry that resolves unknown types to fallback.
func NewRegistry(fallback Builder) *Registry {
	return &Registry{
		builders: make(map[string]Builder),
		fallback: fallback,
	}
}

// Register sets the builder for entityType.
func (r *Registry) Register(entityType string, b Builder) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.builders[entityType] = b
}

// Lookup returns the builder registered for entityType, if any.
func (r *Registry) Lookup(entityType string) (Builder, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.builders[entityType]
	return b, ok
}

// Resolve returns the builder for entityType, or the fallback.
func (r *Registry) Resolve(entityType string) Builder {
	if b, ok := r.Lookup(entityType); ok {
		return b
	}
	return r.fallback
}

// Fallback returns the builder used for unregistered types.
func (r *Registry) Fallback() Builder { return r.fallback }

// EntityTypes returns the registered entity types in sorted order.
func (r *Registry) EntityTypes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	types := make([]string, 0, len(r.builders))
	for t := range r.builders {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}
