package inspectflow

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// ErrToolNotFound is returned by Create for an unregistered
// (category, kind) pair.
var ErrToolNotFound = errors.New("tool kind not found")

// Registry is the runtime catalog of tool kinds keyed by
// "category.kind". Keys are case-sensitive; a duplicate registration
// silently replaces the prior entry.
type Registry struct {
	mu    sync.RWMutex
	specs map[string]ToolSpec
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{specs: make(map[string]ToolSpec)}
}

// Register adds a spec to the catalog, replacing any prior entry with
// the same key.
func (r *Registry) Register(spec ToolSpec) {
	r.mu.Lock()
	r.specs[spec.Key()] = spec
	r.mu.Unlock()
}

// Spec returns the registered spec for a (category, kind) pair.
func (r *Registry) Spec(category Category, kind string) (ToolSpec, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	spec, ok := r.specs[fmt.Sprintf("%s.%s", category, kind)]
	return spec, ok
}

// Create instantiates a registered tool kind under the given instance
// name. An empty name derives one from the kind.
func (r *Registry) Create(category Category, kind, name string) (*Tool, error) {
	spec, ok := r.Spec(category, kind)
	if !ok {
		return nil, fmt.Errorf("%w: %s.%s", ErrToolNotFound, category, kind)
	}
	return newTool(spec, name), nil
}

// ListByCategory returns the registered specs in a category, sorted by
// kind.
func (r *Registry) ListByCategory(category Category) []ToolSpec {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []ToolSpec
	for _, spec := range r.specs {
		if spec.Category == category {
			out = append(out, spec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Kind < out[j].Kind })
	return out
}

// Categories returns the distinct categories with at least one
// registered kind, sorted.
func (r *Registry) Categories() []Category {
	r.mu.RLock()
	defer r.mu.RUnlock()
	seen := make(map[Category]bool)
	for _, spec := range r.specs {
		seen[spec.Category] = true
	}
	out := make([]Category, 0, len(seen))
	for c := range seen {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
