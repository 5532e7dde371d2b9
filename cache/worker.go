package cache

import (
	"fmt"
	"reflect"

	"github.com/chazu/objhandles/handle"
)

// ScopeProvider tells a worker which computation scope is active. The host
// integration layer implements it; it is queried exactly once per Begin.
// The second return is false when no addressable scope exists, in which
// case the worker falls back to NoScope.
type ScopeProvider interface {
	CurrentScope() (Scope, bool)
}

// ScopeProviderFunc adapts a function to the ScopeProvider interface.
type ScopeProviderFunc func() (Scope, bool)

func (f ScopeProviderFunc) CurrentScope() (Scope, bool) { return f() }

// Worker is the per-worker-thread view of the cache. Each worker goroutine
// owns exactly one Worker and calls it from that goroutine only; the
// staging map and scope marker are never shared, so none of the Worker's
// own state is locked.
//
// The staging map holds ids this worker minted during the current
// computation. It gives same-thread lookups a lock-free fast path, and is
// what keeps a nested invocation's objects resolvable for the rest of the
// outer evaluation.
type Worker struct {
	cache  *Cache
	scopes ScopeProvider

	current  Scope
	hasScope bool
	staging  map[uint64]any

	collecting bool
}

// Worker creates a per-worker context bound to this cache.
func (c *Cache) Worker(scopes ScopeProvider) *Worker {
	return &Worker{
		cache:   c,
		scopes:  scopes,
		staging: make(map[uint64]any),
	}
}

// Begin marks the start of a computation on this worker. The host must call
// it (directly or via OnEntry) before any Store for that computation.
//
// When the worker has moved to a different scope, ids it staged under the
// old scope but never committed are reclaimed and the staging map is
// cleared. Either way, the new scope's birth set is reset: a scope that
// already has committed objects is being re-evaluated, and the stale
// objects from its prior evaluation are dropped before fresh ones arrive.
func (w *Worker) Begin() {
	next, ok := w.scopes.CurrentScope()
	if !ok {
		next = NoScope
	}

	if !w.hasScope || next != w.current {
		w.cache.retireStaged(w.current, w.hasScope, w.staging, next)
		w.staging = make(map[uint64]any)
		w.current = next
		w.hasScope = true
		return
	}

	w.cache.resetScope(next)
}

// Store registers an object under the current scope and returns its handle.
// The object becomes visible to every worker's Lookup before Store returns.
//
// Calling Store before Begin has run for this worker is an integration
// error and panics.
func (w *Worker) Store(v any) string {
	if !w.hasScope {
		panic("objhandles: Store called before Begin established a scope")
	}

	id := w.cache.ids.Next()
	w.staging[id] = v
	w.cache.commit(w.current, id, v)
	return handle.Encode(handle.TypeName(v), id)
}

// Lookup resolves a handle back to the stored object. This worker's staging
// map is consulted first (no lock); otherwise the shared table is read
// under the read lock. Returns ErrMalformedHandle or ErrNotFound.
func (w *Worker) Lookup(s string) (any, error) {
	id, err := handle.Decode(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedHandle, err)
	}

	if v, ok := w.staging[id]; ok {
		return v, nil
	}
	if v, ok := w.cache.get(id); ok {
		return v, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrNotFound, s)
}

// StoreAs stores a value of a known type. It exists so a type's registered
// return-conversion closure has a typed entry point symmetric to LookupAs.
func StoreAs[T any](w *Worker, v T) string {
	return w.Store(v)
}

// LookupAs resolves a handle and asserts the stored object's type. A live
// object of the wrong type yields ErrTypeMismatch naming both types.
func LookupAs[T any](w *Worker, s string) (T, error) {
	var zero T
	v, err := w.Lookup(s)
	if err != nil {
		return zero, err
	}
	t, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("%w: %s resolves to %s, want %s",
			ErrTypeMismatch, s, handle.TypeName(v), reflect.TypeOf((*T)(nil)).Elem())
	}
	return t, nil
}

// OnEntry is the host's computation-entry hook: it runs Begin and resets
// the collection-mode flag read by the host's conversion layer.
func (w *Worker) OnEntry() {
	w.Begin()
	w.collecting = false
}

// OnExit is the host's computation-exit hook. It only clears the
// collection-mode flag; reclamation is deferred to the next Begin so the
// just-finished computation's results stay resolvable until superseded.
func (w *Worker) OnExit() {
	w.collecting = false
}

// Collecting reports the collection-mode flag.
func (w *Worker) Collecting() bool { return w.collecting }

// SetCollecting sets the collection-mode flag for the remainder of the
// current computation.
func (w *Worker) SetCollecting(on bool) { w.collecting = on }
