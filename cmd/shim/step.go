package main

// #include "shim.h"
import "C"

import (
	"context"
	"unsafe"

	"github.com/jabrown93/plex-postgresql-sub000/internal/connreg"
	"github.com/jabrown93/plex-postgresql-sub000/internal/engine"
	"github.com/jabrown93/plex-postgresql-sub000/internal/shadow"
	"github.com/jabrown93/plex-postgresql-sub000/internal/stmtreg"
)

//export shim_sqlite3_step
func shim_sqlite3_step(stmt *C.sqlite3_stmt) (rc C.int) {
	defer recoverTo("step", &rc, C.SQLITE_DONE)
	if stmt == nil {
		return C.SQLITE_MISUSE
	}
	st := getState()
	h := uintptr(unsafe.Pointer(stmt))
	s, ok := st.lookupStmt(h)
	if !ok {
		s, ok = st.discover(stmt)
		if !ok {
			return C.sqlite3_step(stmt)
		}
	}

	// Pointers from the previous row's accessors expire here: they are
	// only guaranteed until the next step/reset/finalize.
	st.mem.releaseAll(h)

	res, err := s.Step(context.Background())
	if err != nil {
		// Already logged by the engine; the host observes done.
		return C.SQLITE_DONE
	}
	if res == engine.Row {
		return C.SQLITE_ROW
	}
	return C.SQLITE_DONE
}

// discover handles a statement the host prepared before the shim saw it:
// if its database handle is redirected, the embedded library materializes
// the fully bound SQL text and the statement joins the calling thread's
// registry from then on.
func (st *shimState) discover(stmt *C.sqlite3_stmt) (*engine.Statement, bool) {
	if st.disabled {
		return nil, false
	}
	db := C.sqlite3_db_handle(stmt)
	if db == nil {
		return nil, false
	}
	conn, ok := st.conns.Lookup(connreg.Handle(uintptr(unsafe.Pointer(db))))
	if !ok || !conn.Active.Load() {
		return nil, false
	}

	h := uintptr(unsafe.Pointer(stmt))
	expanded := shadow.FromHandle(h).ExpandedSQL()
	if expanded == "" {
		return nil, false
	}

	s := engine.Prepare(conn, expanded, st.deps(st.poolFor(conn.Path)))
	s.Handle = h
	if err := st.cached.InsertForCurrentThread(stmtreg.Handle(h), s); err != nil {
		// Raced with ourselves on this thread; use whoever won.
		return st.cached.LookupForCurrentThread(stmtreg.Handle(h))
	}
	st.log.Debug().Str("sql", expanded).Msg("cached pre-existing statement discovered")
	return s, true
}

//export shim_sqlite3_reset
func shim_sqlite3_reset(stmt *C.sqlite3_stmt) (rc C.int) {
	defer recoverTo("reset", &rc, C.SQLITE_OK)
	if stmt == nil {
		return C.SQLITE_MISUSE
	}
	st := getState()
	h := uintptr(unsafe.Pointer(stmt))
	if s, ok := st.lookupStmt(h); ok {
		s.Reset()
		st.mem.releaseAll(h)
		C.sqlite3_reset(stmt)
		return C.SQLITE_OK
	}
	return C.sqlite3_reset(stmt)
}

//export shim_sqlite3_clear_bindings
func shim_sqlite3_clear_bindings(stmt *C.sqlite3_stmt) (rc C.int) {
	defer recoverTo("clear_bindings", &rc, C.SQLITE_OK)
	if stmt == nil {
		return C.SQLITE_MISUSE
	}
	if s, ok := getState().lookupStmt(uintptr(unsafe.Pointer(stmt))); ok {
		s.ClearBindings()
		C.sqlite3_clear_bindings(stmt)
		return C.SQLITE_OK
	}
	return C.sqlite3_clear_bindings(stmt)
}

//export shim_sqlite3_finalize
func shim_sqlite3_finalize(stmt *C.sqlite3_stmt) (rc C.int) {
	defer recoverTo("finalize", &rc, C.SQLITE_OK)
	if stmt == nil {
		return C.SQLITE_OK
	}
	st := getState()
	h := uintptr(unsafe.Pointer(stmt))

	s, ok := st.stmts.Remove(stmtreg.Handle(h))
	if !ok {
		s, ok = st.cached.RemoveForCurrentThread(stmtreg.Handle(h))
	}
	if ok {
		s.Finalize()
		st.mem.releaseAll(h)
	}
	// For a shim-prepared statement the host's pointer is the shadow
	// statement, so the passthrough finalize below releases it too.
	return C.sqlite3_finalize(stmt)
}
