// Package stmtreg implements the statement engine's two registries: a
// global registry for statements prepared via the shim's
// own prepare entry point, and a per-thread registry for statements
// discovered already-prepared at first step. Generic over the statement
// type so internal/engine (which owns the concrete Statement type) can
// depend on stmtreg without a dependency cycle.
package stmtreg

import (
	"sync"

	"github.com/jabrown93/plex-postgresql-sub000/internal/shimerr"
	"github.com/jabrown93/plex-postgresql-sub000/internal/threadid"
)

// Handle is the host's opaque statement pointer, used as the registry key.
type Handle uintptr

// Global is the shim-prepared registry, keyed by the opaque statement
// pointer returned to the host. Its mutex is lock #2 in the global
// acquisition order: brief, map mutation only.
type Global[T any] struct {
	mu sync.Mutex
	m  map[Handle]*T
}

func NewGlobal[T any]() *Global[T] {
	return &Global[T]{m: make(map[Handle]*T)}
}

// Insert registers v under handle. Every statement is owned by exactly
// one registry; double-registration is an error.
func (g *Global[T]) Insert(handle Handle, v *T) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, exists := g.m[handle]; exists {
		return shimerr.New(shimerr.BadInput, "duplicate statement registration for handle")
	}
	g.m[handle] = v
	return nil
}

func (g *Global[T]) Lookup(handle Handle) (*T, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	v, ok := g.m[handle]
	return v, ok
}

// Remove deregisters handle. Double-finalize is a no-op, so removing an
// absent handle simply reports ok=false.
func (g *Global[T]) Remove(handle Handle) (*T, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	v, ok := g.m[handle]
	if ok {
		delete(g.m, handle)
	}
	return v, ok
}

// PerThread is the cached-pre-existing-statement registry: each OS thread
// keeps its own small map, since such statements may be stepped
// concurrently from distinct threads.
type PerThread[T any] struct {
	mu       sync.Mutex
	byThread map[threadid.ID]map[Handle]*T
}

func NewPerThread[T any]() *PerThread[T] {
	return &PerThread[T]{byThread: make(map[threadid.ID]map[Handle]*T)}
}

func (p *PerThread[T]) threadMap(tid threadid.ID) map[Handle]*T {
	m, ok := p.byThread[tid]
	if !ok {
		m = make(map[Handle]*T)
		p.byThread[tid] = m
	}
	return m
}

// InsertForCurrentThread registers v under handle in the calling thread's
// registry, deferred until the shim first sees a redirected step on it.
func (p *PerThread[T]) InsertForCurrentThread(handle Handle, v *T) error {
	tid := threadid.Current()
	p.mu.Lock()
	defer p.mu.Unlock()
	m := p.threadMap(tid)
	if _, exists := m[handle]; exists {
		return shimerr.New(shimerr.BadInput, "duplicate cached-statement registration for handle")
	}
	m[handle] = v
	return nil
}

func (p *PerThread[T]) LookupForCurrentThread(handle Handle) (*T, bool) {
	tid := threadid.Current()
	p.mu.Lock()
	defer p.mu.Unlock()
	v, ok := p.byThread[tid][handle]
	return v, ok
}

func (p *PerThread[T]) RemoveForCurrentThread(handle Handle) (*T, bool) {
	tid := threadid.Current()
	p.mu.Lock()
	defer p.mu.Unlock()
	m, ok := p.byThread[tid]
	if !ok {
		return nil, false
	}
	v, ok := m[handle]
	if ok {
		delete(m, handle)
	}
	return v, ok
}
