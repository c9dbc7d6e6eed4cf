// Package connreg implements the Connection Registry and per-thread
// connection pool: mapping the host's opaque DB handles to
// shim Connection objects, and, for high-traffic databases, a per-thread
// channel pool keyed by OS thread identity (internal/threadid).
package connreg

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/jabrown93/plex-postgresql-sub000/internal/pscache"
	"github.com/jabrown93/plex-postgresql-sub000/internal/serverdb"
	"github.com/jabrown93/plex-postgresql-sub000/internal/shimerr"
	"github.com/jabrown93/plex-postgresql-sub000/internal/threadid"
)

// Handle is the host's opaque database handle, used as the registry key.
type Handle uintptr

// Connection represents one logical redirected embedded-database handle.
//
// Prepared is set to Channel.Prepared when the Connection is created, so
// callers that only ever see the logical Connection don't need to reach
// into Channel. Channel.Reconnect installs a fresh cache on the Channel and
// does not update this field; the engine itself uses Channel.Prepared. A statement executing on a borrowed
// pool channel (internal/connreg.Pool) instead uses that channel's own
// Prepared cache directly — see serverdb.Channel's doc comment.
type Connection struct {
	Channel         *serverdb.Channel
	Path            string
	Active          atomic.Bool
	LastChanges     int64
	LastInsertRowID int64
	Prepared        *pscache.Cache

	mu sync.Mutex
}

// NewConnection wraps an already-opened channel as a Connection for path.
func NewConnection(ch *serverdb.Channel, path string) *Connection {
	c := &Connection{Channel: ch, Path: path, Prepared: ch.Prepared}
	c.Active.Store(true)
	return c
}

// Lock/Unlock guard the channel and the change/rowid counters (lock #3 in
// the global acquisition order).
func (c *Connection) Lock()   { c.mu.Lock() }
func (c *Connection) Unlock() { c.mu.Unlock() }

// EnsureLive checks the channel's status and reconnects once on failure,
// before every execute.
func (c *Connection) EnsureLive(ctx context.Context) error {
	if err := c.Channel.Status(ctx); err == nil {
		return nil
	}
	if err := c.Channel.Reconnect(ctx); err != nil {
		c.Active.Store(false)
		return shimerr.Wrap(shimerr.ConnectionFailure, err)
	}
	return nil
}

// Registry maps host handles to Connections. Its mutex is lock #1 in the
// global acquisition order: brief, map mutation only.
type Registry struct {
	mu    sync.Mutex
	conns map[Handle]*Connection
}

func NewRegistry() *Registry {
	return &Registry{conns: make(map[Handle]*Connection)}
}

// Insert registers conn under handle. Double-registration under the same
// handle is a programmer error and returns BadInput rather than silently
// overwriting an active connection.
func (r *Registry) Insert(handle Handle, conn *Connection) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.conns[handle]; exists {
		return shimerr.New(shimerr.BadInput, "duplicate connection registration for handle")
	}
	r.conns[handle] = conn
	return nil
}

// Lookup returns the Connection registered under handle, if any.
func (r *Registry) Lookup(handle Handle) (*Connection, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.conns[handle]
	return c, ok
}

// Remove deregisters handle, returning the removed Connection if present.
// Removing an unregistered handle is a no-op (close is idempotent).
func (r *Registry) Remove(handle Handle) (*Connection, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.conns[handle]
	if ok {
		delete(r.conns, handle)
	}
	return c, ok
}

// Pool is the per-thread channel pool for high-traffic (pooled-pattern)
// databases, bounded by size and blocking on acquisition.
type Pool struct {
	mu       sync.Mutex
	byThread map[threadid.ID]*serverdb.Channel
	sem      chan struct{}
	dsn      string
	schema   string
}

// NewPool creates a pool of the given size against dsn/schema. Channels are
// opened lazily, on first acquisition by a given thread.
func NewPool(size int, dsn, schema string) *Pool {
	return &Pool{
		byThread: make(map[threadid.ID]*serverdb.Channel),
		sem:      make(chan struct{}, size),
		dsn:      dsn,
		schema:   schema,
	}
}

// Acquire returns the calling thread's pooled channel, opening one (and
// blocking for a free pool slot) on first use by this thread. Subsequent
// calls from the same thread reuse the same channel without consuming
// another slot.
func (p *Pool) Acquire(ctx context.Context) (*serverdb.Channel, error) {
	tid := threadid.Current()

	p.mu.Lock()
	if ch, ok := p.byThread[tid]; ok {
		p.mu.Unlock()
		return ch, nil
	}
	p.mu.Unlock()

	select {
	case p.sem <- struct{}{}:
	case <-ctx.Done():
		return nil, shimerr.Wrap(shimerr.ConnectionFailure, ctx.Err())
	}

	ch, err := serverdb.Connect(ctx, p.dsn, p.schema)
	if err != nil {
		<-p.sem
		return nil, err
	}

	p.mu.Lock()
	p.byThread[tid] = ch
	p.mu.Unlock()
	return ch, nil
}

// Release returns thread tid's channel to the pool, closing it and freeing
// its slot. It is called when the redirected database handle closes;
// nothing releases a channel when its owning thread exits.
func (p *Pool) Release(tid threadid.ID) {
	p.mu.Lock()
	ch, ok := p.byThread[tid]
	if ok {
		delete(p.byThread, tid)
	}
	p.mu.Unlock()

	if !ok {
		return
	}
	ch.Close()
	<-p.sem
}
