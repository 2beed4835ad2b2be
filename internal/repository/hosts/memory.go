package hosts

import (
	"context"
	"sync"
)

// MemoryRegistry is an in-memory Registry for tests and dry runs.
type MemoryRegistry struct {
	// registered preserves registration order.
	registered []string
	// mu allows concurrent reads and serializes mutations.
	mu sync.RWMutex
}

// NewMemoryRegistry creates an empty in-memory registry.
func NewMemoryRegistry(registered ...string) *MemoryRegistry {
	return &MemoryRegistry{
		registered: append([]string(nil), registered...),
	}
}

// List returns the registered hosts in registration order.
func (r *MemoryRegistry) List(_ context.Context) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return append([]string(nil), r.registered...), nil
}

// Contains reports whether the host is currently registered.
func (r *MemoryRegistry) Contains(_ context.Context, host string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, h := range r.registered {
		if h == host {
			return true, nil
		}
	}

	return false, nil
}

// Add registers the host; idempotent.
func (r *MemoryRegistry) Add(_ context.Context, host string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, h := range r.registered {
		if h == host {
			return nil
		}
	}

	r.registered = append(r.registered, host)

	return nil
}

// Remove unregisters the host; idempotent.
func (r *MemoryRegistry) Remove(_ context.Context, host string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	remaining := r.registered[:0]
	for _, h := range r.registered {
		if h != host {
			remaining = append(remaining, h)
		}
	}

	r.registered = remaining

	return nil
}
