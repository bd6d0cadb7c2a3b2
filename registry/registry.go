// Package registry resolves codecs, filters, tunes, and I/O backends by
// either a small-integer id (built-in plugins) or a name (user plugins
// registered at runtime).
//
// Each plugin kind (codec, filter, tune, I/O backend) has its own id
// namespace; a codec and a filter may legally share the same id. Within one
// kind, ids below format.BuiltinIDMax are reserved for this module's
// built-in plugins and are pre-registered at package init; ids at or above
// format.UserIDMin are open to RegisterCodec/RegisterFilter/RegisterTune/
// RegisterIO callers.
package registry

import (
	"sync"

	"github.com/b2io/b2core/errs"
)

// Entry is the common shape every registered plugin carries: an id, a name,
// a version, and (for codecs) an optional complib tag permitting
// co-location with a shared backing library such as libzstd.
type Entry[T any] struct {
	ID      uint8
	Name    string
	Version int
	Complib string
	Value   T
}

// Registry is a generic id+name keyed table of plugin entries of type T.
// It is safe for concurrent use.
type Registry[T any] struct {
	mu     sync.RWMutex
	byID   map[uint8]Entry[T]
	byName map[string]Entry[T]
}

// New creates an empty registry.
func New[T any]() *Registry[T] {
	return &Registry[T]{
		byID:   make(map[uint8]Entry[T]),
		byName: make(map[string]Entry[T]),
	}
}

// Register adds an entry, failing with ErrDuplicateID or ErrDuplicateName
// if either slot is already taken.
func (r *Registry[T]) Register(e Entry[T]) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[e.ID]; ok {
		return errs.ErrDuplicateID
	}

	if _, ok := r.byName[e.Name]; ok {
		return errs.ErrDuplicateName
	}

	r.byID[e.ID] = e
	r.byName[e.Name] = e

	return nil
}

// LookupByID resolves an entry by id, failing with ErrNotFound.
func (r *Registry[T]) LookupByID(id uint8) (Entry[T], error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.byID[id]
	if !ok {
		return Entry[T]{}, errs.ErrNotFound
	}

	return e, nil
}

// LookupByName resolves an entry by name, failing with ErrNotFound.
func (r *Registry[T]) LookupByName(name string) (Entry[T], error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.byName[name]
	if !ok {
		return Entry[T]{}, errs.ErrNotFound
	}

	return e, nil
}

// NameToID converts a registered name to its id.
func (r *Registry[T]) NameToID(name string) (uint8, error) {
	e, err := r.LookupByName(name)
	if err != nil {
		return 0, err
	}

	return e.ID, nil
}

// IDToName converts a registered id to its name.
func (r *Registry[T]) IDToName(id uint8) (string, error) {
	e, err := r.LookupByID(id)
	if err != nil {
		return "", err
	}

	return e.Name, nil
}
