// Package cache implements the in-process object handle cache: a shared
// id→object store with cell-scoped reclamation, accessed through explicit
// per-worker contexts.
//
// Host environments that can only pass strings across a boundary store rich
// objects here and refer to them by opaque "TypeName@id" handles. Objects
// are grouped by the computation scope (cell) that produced them; when a
// scope is re-evaluated or a worker moves on, the superseded objects are
// reclaimed.
package cache

import (
	"sync"

	"github.com/tliron/commonlog"

	"github.com/chazu/objhandles/handle"
)

var log = commonlog.GetLogger("objhandles.cache")

// Scope identifies the unit of computation (e.g. one recomputable cell)
// whose evaluation produced an object. The host supplies scope identities;
// they must be comparable, since they key the birth registry.
type Scope = any

type sentinelScope struct{}

// NoScope is the reclamation bucket for activity arriving outside any
// addressable computation. All scope-less work shares it.
var NoScope Scope = sentinelScope{}

// Cache is the shared object store. One per process, constructed by New and
// passed explicitly to all collaborators.
//
// objects and births are guarded by mu. births maps each scope to the set
// of ids committed by its most recent evaluation; an id belongs to at most
// one scope's birth set at a time. Ids and object references are never
// copied or reused.
type Cache struct {
	mu      sync.RWMutex
	objects map[uint64]any
	births  map[Scope]map[uint64]struct{}
	ids     handle.Allocator
}

// Option configures a Cache.
type Option func(*config)

type config struct {
	initialCapacity int
}

// WithInitialCapacity sizes the object table for an expected live-object
// count, avoiding rehashing during the first evaluations.
func WithInitialCapacity(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.initialCapacity = n
		}
	}
}

// New creates an empty cache.
func New(opts ...Option) *Cache {
	cfg := &config{}
	for _, opt := range opts {
		opt(cfg)
	}
	c := &Cache{
		objects: make(map[uint64]any, cfg.initialCapacity),
		births:  make(map[Scope]map[uint64]struct{}),
	}
	log.Infof("object handle cache created (initial capacity %d)", cfg.initialCapacity)
	return c
}

// commit makes id→obj globally visible and records the id in scope's birth
// set. The scope entry must already exist (Begin creates it).
func (c *Cache) commit(scope Scope, id uint64, obj any) {
	c.mu.Lock()
	defer c.mu.Unlock()

	births, ok := c.births[scope]
	if !ok {
		// Begin was never called for this worker's scope. Integration bug;
		// fail fast instead of inventing a scope entry.
		panic("objhandles: Store called before Begin established a scope")
	}
	births[id] = struct{}{}
	c.objects[id] = obj
}

// get resolves an id from the shared table under the read lock.
func (c *Cache) get(id uint64) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	obj, ok := c.objects[id]
	return obj, ok
}

// retireStaged drops every staged id that the previous scope never
// committed, then resets the birth set for the scope now starting. Runs
// once per scope transition, under a single write-lock critical section.
//
// Staged ids that are members of the previous scope's birth set stay in the
// shared table: they were committed by an earlier evaluation of that scope
// and remain resolvable until the scope itself re-runs.
func (c *Cache) retireStaged(prev Scope, hasPrev bool, staged map[uint64]any, next Scope) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(staged) > 0 {
		var prevBirths map[uint64]struct{}
		if hasPrev {
			prevBirths = c.births[prev]
		}
		dropped := 0
		for id := range staged {
			if _, committed := prevBirths[id]; !committed {
				delete(c.objects, id)
				dropped++
			}
		}
		if dropped > 0 {
			log.Debugf("retired %d staged-only objects on transition from scope %v", dropped, prev)
		}
	}

	c.resetScopeLocked(next)
}

// resetScope locates or creates the birth-set entry for scope. A non-empty
// existing entry means this is a re-evaluation: the prior evaluation's
// objects are discarded before the new ones arrive.
func (c *Cache) resetScope(scope Scope) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resetScopeLocked(scope)
}

func (c *Cache) resetScopeLocked(scope Scope) {
	births, ok := c.births[scope]
	if !ok {
		c.births[scope] = make(map[uint64]struct{})
		return
	}
	if len(births) > 0 {
		log.Debugf("reclaiming %d objects from prior evaluation of scope %v", len(births), scope)
		for id := range births {
			delete(c.objects, id)
		}
		clear(births)
	}
}

// ClearScope releases a scope's birth set and every object in it. The scope
// entry itself is removed; a later evaluation recreates it through Begin.
func (c *Cache) ClearScope(scope Scope) {
	c.mu.Lock()
	defer c.mu.Unlock()

	births, ok := c.births[scope]
	if !ok {
		return
	}
	for id := range births {
		delete(c.objects, id)
	}
	delete(c.births, scope)
}

// Len returns the number of live objects in the shared table.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.objects)
}

// Scopes returns the number of scopes with a birth-set entry.
func (c *Cache) Scopes() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.births)
}
