package market

import (
	"sort"
	"sync"

	"marketsched/internal/domain"
)

// Factory constructs a Market instance on lookup.
type Factory func() (Market, error)

// Registry maps market IDs to factories. Registration is an explicit call
// made at startup — there are no import-time side effects, so construction
// order is never load-order dependent.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register adds a market factory under the given ID. Registering an ID
// twice fails with MarketAlreadyRegisteredError.
func (r *Registry) Register(id string, factory Factory) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.factories[id]; exists {
		return &domain.MarketAlreadyRegisteredError{ID: id}
	}
	r.factories[id] = factory
	return nil
}

// Get constructs the market registered under id, failing with
// MarketNotFoundError for unknown IDs.
func (r *Registry) Get(id string) (Market, error) {
	r.mu.RLock()
	factory, ok := r.factories[id]
	r.mu.RUnlock()
	if !ok {
		return nil, &domain.MarketNotFoundError{ID: id}
	}
	return factory()
}

// Available returns the registered market IDs in sorted order.
func (r *Registry) Available() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.factories))
	for id := range r.factories {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
