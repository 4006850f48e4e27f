package provider

import (
	"fmt"
	"sync"
)

// Registry maps model names to the providers that serve them.
// Read-only after construction from configuration.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]ModelProvider
	order     []string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{providers: make(map[string]ModelProvider)}
}

// Register binds a model name to a provider. Definition order is preserved
// for First and Models.
func (r *Registry) Register(model string, p ModelProvider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.providers[model]; !exists {
		r.order = append(r.order, model)
	}
	r.providers[model] = p
}

// Resolve returns the provider serving the given model name.
func (r *Registry) Resolve(model string) (ModelProvider, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.providers[model]
	return p, ok
}

// MustResolve is Resolve with an error for callers that treat an unknown
// model as a configuration failure.
func (r *Registry) MustResolve(model string) (ModelProvider, error) {
	if p, ok := r.Resolve(model); ok {
		return p, nil
	}
	return nil, fmt.Errorf("model %q is not registered", model)
}

// First returns the first registered model name, or empty if none.
func (r *Registry) First() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if len(r.order) == 0 {
		return ""
	}
	return r.order[0]
}

// Models returns all registered model names in definition order.
func (r *Registry) Models() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string{}, r.order...)
}

// Len returns the number of registered models.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}
