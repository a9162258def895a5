package registry

import (
	"sort"
	"sync"

	"github.com/arthur-debert/doppel/pkg/errors"
)

// Registry is a thread-safe set of items keyed by name. The kind labels the
// items in error messages ("engine \"x\" is already registered").
type Registry[T any] struct {
	kind  string
	mu    sync.RWMutex
	items map[string]T
}

// New creates an empty registry of the given kind.
func New[T any](kind string) *Registry[T] {
	return &Registry[T]{
		kind:  kind,
		items: make(map[string]T),
	}
}

// Add stores item under a new name.
func (r *Registry[T]) Add(name string, item T) error {
	if name == "" {
		return errors.Newf(errors.ErrInvalidInput, "%s name cannot be empty", r.kind)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.items[name]; exists {
		return errors.Newf(errors.ErrAlreadyExists, "%s %q is already registered", r.kind, name).
			WithDetail("name", name)
	}
	r.items[name] = item
	return nil
}

// Set stores item under name, overwriting any previous item.
func (r *Registry[T]) Set(name string, item T) error {
	if name == "" {
		return errors.Newf(errors.ErrInvalidInput, "%s name cannot be empty", r.kind)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.items[name] = item
	return nil
}

// Lookup returns the item stored under name.
func (r *Registry[T]) Lookup(name string) (T, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.items[name]
	return item, ok
}

// Get is Lookup with a NOT_FOUND error listing the registered names.
func (r *Registry[T]) Get(name string) (T, error) {
	item, ok := r.Lookup(name)
	if !ok {
		return item, errors.Newf(errors.ErrNotFound, "%s %q is not registered", r.kind, name).
			WithDetail("name", name).
			WithDetail("available", r.Names())
	}
	return item, nil
}

// Remove deletes name and reports whether it was registered.
func (r *Registry[T]) Remove(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok := r.items[name]
	delete(r.items, name)
	return ok
}

// Names returns the registered names, sorted.
func (r *Registry[T]) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.items))
	for name := range r.items {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of registered items.
func (r *Registry[T]) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.items)
}

// Clone returns an independent registry holding the same items.
func (r *Registry[T]) Clone() *Registry[T] {
	r.mu.RLock()
	defer r.mu.RUnlock()

	clone := New[T](r.kind)
	for name, item := range r.items {
		clone.items[name] = item
	}
	return clone
}
