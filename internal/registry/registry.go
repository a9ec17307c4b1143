// Package registry provides a small thread-safe keyed store.
package registry

import "sync"

// Registry is a thread-safe registry for values indexed by key.
// Reads dominate (every load consults it), so it uses sync.RWMutex.
type Registry[K comparable, V any] struct {
	mu      sync.RWMutex
	entries map[K]V
}

// New creates a new empty registry.
func New[K comparable, V any]() *Registry[K, V] {
	return &Registry[K, V]{
		entries: make(map[K]V),
	}
}

// Register adds or replaces the value for key.
func (r *Registry[K, V]) Register(key K, value V) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[key] = value
}

// Get returns the value for key and whether it exists.
func (r *Registry[K, V]) Get(key K) (V, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.entries[key]
	return v, ok
}

// Has reports whether key is registered.
func (r *Registry[K, V]) Has(key K) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.entries[key]
	return ok
}

// Delete removes key.
func (r *Registry[K, V]) Delete(key K) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, key)
}

// Clone returns an independent copy of the registry.
func (r *Registry[K, V]) Clone() *Registry[K, V] {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c := &Registry[K, V]{entries: make(map[K]V, len(r.entries))}
	for k, v := range r.entries {
		c.entries[k] = v
	}
	return c
}
