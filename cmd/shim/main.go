// Command shim builds (with -buildmode=c-shared) the interception library
// that takes over a subset of the embedded database's C ABI. Each exported
// entry point either forwards straight through to the real library — every
// database whose path matches no configured redirect pattern — or drives
// internal/engine's translate → classify → cache → execute → adapt
// pipeline against the server.
//
// The exported symbols carry a shim_ prefix; the platform loader's
// interposition table (dyld __interpose on macOS, an LD_PRELOAD stub
// elsewhere) maps the library's real entry-point names onto these bodies.
// That table is a loader artifact, not part of this repository.
package main

// #cgo CFLAGS: -fPIC
// #cgo LDFLAGS: -lsqlite3
// #include "shim.h"
import "C"

import (
	"context"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/jabrown93/plex-postgresql-sub000/internal/classify"
	"github.com/jabrown93/plex-postgresql-sub000/internal/config"
	"github.com/jabrown93/plex-postgresql-sub000/internal/connreg"
	"github.com/jabrown93/plex-postgresql-sub000/internal/engine"
	"github.com/jabrown93/plex-postgresql-sub000/internal/fakevalue"
	"github.com/jabrown93/plex-postgresql-sub000/internal/genid"
	"github.com/jabrown93/plex-postgresql-sub000/internal/obslog"
	"github.com/jabrown93/plex-postgresql-sub000/internal/policy"
	"github.com/jabrown93/plex-postgresql-sub000/internal/result"
	"github.com/jabrown93/plex-postgresql-sub000/internal/serverdb"
	"github.com/jabrown93/plex-postgresql-sub000/internal/shadow"
	"github.com/jabrown93/plex-postgresql-sub000/internal/stmtreg"
)

// shimState is the process-wide wiring of every component: built once, on
// the first intercepted call, and never torn down (the library lives as
// long as the host process).
type shimState struct {
	cfg        *config.Config
	log        zerolog.Logger
	classifier *classify.Classifier
	policies   *policy.Registry
	genID      *genid.Store
	values     *fakevalue.Pool
	declTypes  *result.DeclTypeCache

	conns  *connreg.Registry
	stmts  *stmtreg.Global[engine.Statement]
	cached *stmtreg.PerThread[engine.Statement]

	mem leases

	mu          sync.Mutex
	shadowConns map[connreg.Handle]*shadow.Conn
	pools       map[string]*connreg.Pool
	declLoaded  bool

	// disabled means load-time configuration failed; every entry point
	// behaves as if no redirection were configured.
	disabled bool
}

var (
	state     *shimState
	stateOnce sync.Once
)

func getState() *shimState {
	stateOnce.Do(func() {
		state = newState()
	})
	return state
}

func newState() *shimState {
	st := &shimState{
		genID:       &genid.Store{},
		values:      fakevalue.NewPool(),
		declTypes:   result.NewDeclTypeCache(),
		conns:       connreg.NewRegistry(),
		stmts:       stmtreg.NewGlobal[engine.Statement](),
		cached:      stmtreg.NewPerThread[engine.Statement](),
		shadowConns: make(map[connreg.Handle]*shadow.Conn),
		pools:       make(map[string]*connreg.Pool),
	}

	cfg, err := config.Load()
	if err != nil {
		st.log = zerolog.Nop()
		st.classifier = classify.New(nil, nil)
		st.policies = policy.NewRegistry()
		st.disabled = true
		return st
	}
	st.cfg = cfg

	log, err := obslog.New(cfg.LogPath, cfg.LogLevel)
	if err != nil {
		log = zerolog.Nop()
	}
	st.log = log

	st.classifier = classify.New(cfg.RedirectPatterns, cfg.SkipPatterns)
	st.policies = policy.NewRegistry(
		policy.NewSettingsToggleRule(cfg.UpsertTable, cfg.UpsertConflictColumns, cfg.UpsertToggleColumn),
	)

	st.log.Info().
		Str("host", cfg.Host).Int("port", cfg.Port).
		Str("database", cfg.Database).Str("schema", cfg.Schema).
		Strs("redirect_patterns", cfg.RedirectPatterns).
		Msg("shim loaded")
	return st
}

func (st *shimState) deps(pool *connreg.Pool) engine.Deps {
	return engine.Deps{
		Classifier: st.classifier,
		Policy:     st.policies,
		GenID:      st.genID,
		DeclTypes:  st.declTypes,
		Pool:       pool,
		Log:        st.log,
	}
}

// poolFor returns the per-thread channel pool for a pooled (high-traffic)
// path, creating it on first use, or nil for paths outside POOL_PATTERNS.
func (st *shimState) poolFor(path string) *connreg.Pool {
	if st.cfg == nil {
		return nil
	}
	lp := strings.ToLower(path)
	for _, pat := range st.cfg.PoolPatterns {
		if pat == "" || !strings.Contains(lp, strings.ToLower(pat)) {
			continue
		}
		st.mu.Lock()
		p, ok := st.pools[pat]
		if !ok {
			p = connreg.NewPool(st.cfg.PoolSize, st.cfg.DSN(), st.cfg.Schema)
			st.pools[pat] = p
		}
		st.mu.Unlock()
		return p
	}
	return nil
}

func (st *shimState) shadowConn(h connreg.Handle) *shadow.Conn {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.shadowConns[h]
}

// lookupStmt finds a redirected statement by the host's opaque pointer,
// checking the shim-prepared registry first and the per-thread
// cached-pre-existing registry second.
func (st *shimState) lookupStmt(h uintptr) (*engine.Statement, bool) {
	if s, ok := st.stmts.Lookup(stmtreg.Handle(h)); ok {
		return s, true
	}
	return st.cached.LookupForCurrentThread(stmtreg.Handle(h))
}

// loadDeclTypesOnce runs the batched sqlite_column_types preload the first
// time any redirected connection comes up. Best effort: a missing metadata
// table just leaves the accessors on the type-name fallback.
func (st *shimState) loadDeclTypesOnce(ctx context.Context, ch *serverdb.Channel) {
	st.mu.Lock()
	loaded := st.declLoaded
	st.declLoaded = true
	st.mu.Unlock()
	if loaded {
		return
	}
	if err := st.declTypes.Load(ctx, ch, st.cfg.Schema); err != nil {
		st.log.Debug().Err(err).Msg("declared-type preload unavailable")
	}
}

// A panic must never cross the FFI boundary: every exported
// entry point defers one of these, logging the recovery and substituting
// the entry point's designated fallback value. recoverTo covers the
// code-returning entries; pointer- and 64-bit-returning entries recover
// inline and call logPanic.
func recoverTo(entry string, rc *C.int, fallback C.int) {
	if r := recover(); r != nil {
		logPanic(entry, r)
		*rc = fallback
	}
}

func logPanic(entry string, r any) {
	getState().log.Error().Str("entry", entry).Interface("panic", r).Msg("recovered at ABI boundary")
}

func main() {}
