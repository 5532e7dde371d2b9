// Package registry maps concrete Go types to by-handle conversion
// functions. The integrating application registers each type that opts
// into by-handle marshaling; the host's parameter/return pipeline then
// resolves a converter pair by type or by name instead of scanning
// attributes or building expressions at run time.
package registry

import (
	"fmt"
	"reflect"
	"sort"
	"sync"

	"github.com/chazu/objhandles/cache"
)

// Converters is the pair of closures wired into the host's marshaling
// pipeline for one registered type. FromHandle resolves an incoming handle
// string to the live object; ToHandle stores an outgoing object and yields
// its handle.
type Converters struct {
	FromHandle func(w *cache.Worker, s string) (any, error)
	ToHandle   func(w *cache.Worker, v any) (string, error)
}

// TypeInfo describes one registered by-handle type.
type TypeInfo struct {
	GoType     reflect.Type
	Name       string
	Converters Converters
}

// Registry holds the registered by-handle types. Thread-safe for
// concurrent registration and lookup.
type Registry struct {
	mu      sync.RWMutex
	byType  map[reflect.Type]*TypeInfo
	byName  map[string]*TypeInfo
	allowed map[string]struct{}
}

// Option configures a Registry.
type Option func(*Registry)

// WithAllowedNames restricts registration to the named types, typically the
// manifest's by-handle allowlist. An empty list allows everything.
func WithAllowedNames(names []string) Option {
	return func(r *Registry) {
		if len(names) == 0 {
			return
		}
		r.allowed = make(map[string]struct{}, len(names))
		for _, n := range names {
			r.allowed[n] = struct{}{}
		}
	}
}

// New creates an empty registry.
func New(opts ...Option) *Registry {
	r := &Registry{
		byType: make(map[reflect.Type]*TypeInfo),
		byName: make(map[string]*TypeInfo),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register wires type T for by-handle marshaling. Registering the same type
// twice returns the existing info. Returns an error when the registry
// carries an allowlist that does not include T.
func Register[T any](r *Registry) (*TypeInfo, error) {
	goType := reflect.TypeOf((*T)(nil)).Elem()
	name := goType.String()

	r.mu.Lock()
	defer r.mu.Unlock()

	if info, ok := r.byType[goType]; ok {
		return info, nil
	}
	if r.allowed != nil {
		if _, ok := r.allowed[name]; !ok {
			return nil, fmt.Errorf("type %s is not in the by-handle allowlist", name)
		}
	}

	info := &TypeInfo{
		GoType: goType,
		Name:   name,
		Converters: Converters{
			FromHandle: func(w *cache.Worker, s string) (any, error) {
				return cache.LookupAs[T](w, s)
			},
			ToHandle: func(w *cache.Worker, v any) (string, error) {
				t, ok := v.(T)
				if !ok {
					return "", fmt.Errorf("%w: cannot store %s as %s",
						cache.ErrTypeMismatch, reflect.TypeOf(v), goType)
				}
				return cache.StoreAs(w, t), nil
			},
		},
	}
	r.byType[goType] = info
	r.byName[name] = info
	return info, nil
}

// LookupByType returns the info for a reflect.Type, or nil if unregistered.
func (r *Registry) LookupByType(goType reflect.Type) *TypeInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.byType[goType]
}

// LookupByName returns the info for a type name, or nil if unregistered.
func (r *Registry) LookupByName(name string) *TypeInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.byName[name]
}

// Names returns the registered type names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.byName))
	for n := range r.byName {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Count returns the number of registered types.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byType)
}
