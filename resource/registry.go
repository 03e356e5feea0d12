package resource

import (
	"fmt"
	"sync"
)

// Registry maps resource identifiers to the payloads supplied for them.
// A Registry belongs to a single upgrade session.
//
// Registry is safe for concurrent use.
type Registry struct {
	mu        sync.RWMutex
	resources map[Identifier][]byte
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{resources: make(map[Identifier][]byte)}
}

// RegisterOrUpdate stores a copy of payload under id, replacing any previous
// payload. It reports whether an earlier payload was replaced.
func (r *Registry) RegisterOrUpdate(id Identifier, payload []byte) (bool, error) {
	if id.IsZero() {
		return false, fmt.Errorf("register: %w", ErrMalformedIdentifier)
	}

	data := make([]byte, len(payload))
	copy(data, payload)

	r.mu.Lock()
	defer r.mu.Unlock()

	_, replaced := r.resources[id]
	r.resources[id] = data
	return replaced, nil
}

// Lookup returns the payload registered for id.
func (r *Registry) Lookup(id Identifier) ([]byte, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	data, ok := r.resources[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return data, nil
}

// Len returns the number of registered resources.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.resources)
}
