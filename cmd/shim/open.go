package main

// #include "shim.h"
import "C"

import (
	"context"
	"unsafe"

	"github.com/jabrown93/plex-postgresql-sub000/internal/connreg"
	"github.com/jabrown93/plex-postgresql-sub000/internal/serverdb"
	"github.com/jabrown93/plex-postgresql-sub000/internal/shadow"
	"github.com/jabrown93/plex-postgresql-sub000/internal/threadid"
)

//export shim_sqlite3_open
func shim_sqlite3_open(filename *C.char, ppDb **C.sqlite3) (rc C.int) {
	defer recoverTo("open", &rc, C.SQLITE_ERROR)
	if ppDb == nil {
		return C.SQLITE_MISUSE
	}
	st := getState()
	path := C.GoString(filename)
	if st.disabled || !st.classifier.Redirect(path) {
		return C.sqlite3_open(filename, ppDb)
	}
	h, code := st.openRedirected(path)
	if code != C.SQLITE_OK {
		*ppDb = nil
		return code
	}
	*ppDb = (*C.sqlite3)(unsafe.Pointer(h))
	return C.SQLITE_OK
}

//export shim_sqlite3_open_v2
func shim_sqlite3_open_v2(filename *C.char, ppDb **C.sqlite3, flags C.int, zVfs *C.char) (rc C.int) {
	defer recoverTo("open_v2", &rc, C.SQLITE_ERROR)
	if ppDb == nil {
		return C.SQLITE_MISUSE
	}
	st := getState()
	path := C.GoString(filename)
	if st.disabled || !st.classifier.Redirect(path) {
		return C.sqlite3_open_v2(filename, ppDb, flags, zVfs)
	}
	h, code := st.openRedirected(path)
	if code != C.SQLITE_OK {
		*ppDb = nil
		return code
	}
	*ppDb = (*C.sqlite3)(unsafe.Pointer(h))
	return C.SQLITE_OK
}

// openRedirected opens both halves of a redirected database: the shadow
// embedded handle whose pointer the host will hold, and the
// server channel statement traffic actually flows over. A server that
// cannot be reached leaves the handle unregistered, so every later call on
// it passes through as if no redirection were configured.
func (st *shimState) openRedirected(path string) (uintptr, C.int) {
	sc, err := shadow.Open(path)
	if err != nil {
		st.log.Error().Err(err).Str("path", path).Msg("shadow open failed")
		return 0, abiCode(err)
	}

	ctx := context.Background()
	ch, err := serverdb.Connect(ctx, st.cfg.DSN(), st.cfg.Schema)
	if err != nil {
		st.log.Error().Err(err).Str("path", path).Msg("server connect failed; handle stays passthrough")
		return sc.Handle(), C.SQLITE_OK
	}

	conn := connreg.NewConnection(ch, path)
	h := connreg.Handle(sc.Handle())
	if err := st.conns.Insert(h, conn); err != nil {
		st.log.Error().Err(err).Str("path", path).Msg("connection registration failed")
		ch.Close()
		return sc.Handle(), C.SQLITE_OK
	}
	st.mu.Lock()
	st.shadowConns[h] = sc
	st.mu.Unlock()

	st.loadDeclTypesOnce(ctx, ch)
	st.log.Info().Str("path", path).Msg("redirected database opened")
	return uintptr(h), C.SQLITE_OK
}

//export shim_sqlite3_close
func shim_sqlite3_close(db *C.sqlite3) (rc C.int) {
	defer recoverTo("close", &rc, C.SQLITE_OK)
	if db == nil {
		return C.SQLITE_OK
	}
	st := getState()
	if closed := st.closeRedirected(db); closed {
		return C.SQLITE_OK
	}
	return C.sqlite3_close(db)
}

//export shim_sqlite3_close_v2
func shim_sqlite3_close_v2(db *C.sqlite3) (rc C.int) {
	defer recoverTo("close_v2", &rc, C.SQLITE_OK)
	if db == nil {
		return C.SQLITE_OK
	}
	st := getState()
	if closed := st.closeRedirected(db); closed {
		return C.SQLITE_OK
	}
	return C.sqlite3_close_v2(db)
}

// closeRedirected tears down a redirected handle: the calling thread's pool
// channel goes back to the pool, the connection's own channel disconnects
// (its prepared-statement cache is released with it), and the shadow
// handle closes last.
func (st *shimState) closeRedirected(db *C.sqlite3) bool {
	h := connreg.Handle(uintptr(unsafe.Pointer(db)))
	conn, ok := st.conns.Remove(h)
	if !ok {
		return false
	}
	if pool := st.poolFor(conn.Path); pool != nil {
		pool.Release(threadid.Current())
	}
	conn.Active.Store(false)
	conn.Channel.Close()

	st.mu.Lock()
	sc := st.shadowConns[h]
	delete(st.shadowConns, h)
	st.mu.Unlock()
	if sc != nil {
		sc.Close()
	}
	st.log.Info().Str("path", conn.Path).Msg("redirected database closed")
	return true
}
