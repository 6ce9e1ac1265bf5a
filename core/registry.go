package core

import (
	"fmt"
	"sort"
	"sync"
)

// ProviderRegistry is an explicit registry passed into the orchestrator at
// startup. Providers register once by id; duplicate registration is an
// error so initialization-order coupling stays visible.
type ProviderRegistry struct {
	mu        sync.RWMutex
	providers map[string]Provider
}

func NewProviderRegistry() *ProviderRegistry {
	return &ProviderRegistry{providers: make(map[string]Provider)}
}

func (r *ProviderRegistry) Register(provider Provider) error {
	if provider == nil {
		return fmt.Errorf("core: provider is nil")
	}
	id := normalizeProviderID(provider.ID())
	if id == "" {
		return fmt.Errorf("core: provider id is required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.providers[id]; exists {
		return fmt.Errorf("core: provider already registered: %s", id)
	}
	r.providers[id] = provider
	return nil
}

func (r *ProviderRegistry) Get(providerID string) (Provider, bool) {
	id := normalizeProviderID(providerID)
	if id == "" {
		return nil, false
	}
	r.mu.RLock()
	provider, ok := r.providers[id]
	r.mu.RUnlock()
	return provider, ok
}

func (r *ProviderRegistry) List() []Provider {
	r.mu.RLock()
	keys := make([]string, 0, len(r.providers))
	for id := range r.providers {
		keys = append(keys, id)
	}
	providersByID := make(map[string]Provider, len(r.providers))
	for id, provider := range r.providers {
		providersByID[id] = provider
	}
	r.mu.RUnlock()

	sort.Strings(keys)
	out := make([]Provider, 0, len(keys))
	for _, id := range keys {
		out = append(out, providersByID[id])
	}
	return out
}

var _ Registry = (*ProviderRegistry)(nil)
