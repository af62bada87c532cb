// Package catalog provides a generic name-to-entity registry with duplicate
// detection, used by the index manager for its index names.
package catalog

import "github.com/lyradb/lyradb/errs"

// Registry tracks named entities of type T and rejects duplicate names.
// It is not safe for concurrent use; callers hold whatever lock guards the
// owning Database/Manager.
type Registry[T any] struct {
	kind    string // used in ConflictError / NameError messages, e.g. "table"
	entries map[string]T
	order   []string
}

// NewRegistry creates an empty registry. kind labels the entity type for
// error messages (e.g. "table", "index").
func NewRegistry[T any](kind string) *Registry[T] {
	return &Registry[T]{
		kind:    kind,
		entries: make(map[string]T),
	}
}

// Add registers name with the given value. Returns a *errs.ConflictError if
// the name is already registered.
func (r *Registry[T]) Add(name string, v T) error {
	if _, exists := r.entries[name]; exists {
		return &errs.ConflictError{Kind: r.kind, Name: name}
	}

	r.entries[name] = v
	r.order = append(r.order, name)

	return nil
}

// Get returns the value registered under name and whether it was found.
func (r *Registry[T]) Get(name string) (T, bool) {
	v, ok := r.entries[name]

	return v, ok
}

// MustGet returns the value registered under name, or a *errs.NameError.
func (r *Registry[T]) MustGet(name string) (T, error) {
	v, ok := r.entries[name]
	if !ok {
		var zero T

		return zero, &errs.NameError{Kind: r.kind, Name: name}
	}

	return v, nil
}

// Remove deletes name from the registry. No-op if name is not present.
func (r *Registry[T]) Remove(name string) {
	if _, ok := r.entries[name]; !ok {
		return
	}

	delete(r.entries, name)
	for i, n := range r.order {
		if n == name {
			r.order = append(r.order[:i], r.order[i+1:]...)

			break
		}
	}
}

// Names returns registered names in registration order.
func (r *Registry[T]) Names() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)

	return out
}

// Len returns the number of registered entries.
func (r *Registry[T]) Len() int { return len(r.entries) }
