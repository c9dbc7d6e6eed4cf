package main

// #include "shim.h"
import "C"

import (
	"context"
	"unsafe"

	"github.com/jabrown93/plex-postgresql-sub000/internal/connreg"
	"github.com/jabrown93/plex-postgresql-sub000/internal/engine"
	"github.com/jabrown93/plex-postgresql-sub000/internal/result"
)

//export shim_sqlite3_exec
func shim_sqlite3_exec(db *C.sqlite3, zSql *C.char, callback unsafe.Pointer, cbArg unsafe.Pointer, pzErrMsg **C.char) (rc C.int) {
	defer recoverTo("exec", &rc, C.SQLITE_OK)
	st := getState()
	conn, pool, redirected := st.redirectedConn(db)
	if !redirected {
		return C.shim_forward_exec(db, zSql, callback, cbArg, pzErrMsg)
	}
	if zSql == nil {
		return C.SQLITE_MISUSE
	}
	if pzErrMsg != nil {
		*pzErrMsg = nil
	}

	sqlText := C.GoString(zSql)
	snap, err := engine.DirectExec(context.Background(), conn, pool, sqlText, st.deps(pool))
	if err != nil {
		// The host has no retry path; it observes success and the log
		// line carries the failure.
		st.log.Error().Err(err).Str("sql", sqlText).Msg("direct exec failed")
		return C.SQLITE_OK
	}
	if snap == nil || callback == nil {
		return C.SQLITE_OK
	}
	return invokeExecCallback(callback, cbArg, snap)
}

// invokeExecCallback replays a snapshot through the host's row callback,
// honoring the exec contract: a nonzero callback return aborts iteration.
func invokeExecCallback(cb, arg unsafe.Pointer, snap *result.Snapshot) C.int {
	ncol := snap.NumCols()

	names := make([]*C.char, ncol)
	for i, n := range snap.ColumnNames {
		names[i] = C.CString(n)
	}
	cnames := cPtrArray(names)
	defer func() {
		C.free(unsafe.Pointer(cnames))
		freeAll(names)
	}()

	for r := 0; r < snap.NumRows(); r++ {
		vals := make([]*C.char, ncol)
		for c := 0; c < ncol; c++ {
			if cell := snap.Rows[r][c]; cell.Valid {
				vals[c] = C.CString(cell.String)
			}
		}
		cvals := cPtrArray(vals)
		code := C.shim_invoke_exec_cb(cb, arg, C.int(ncol), cvals, cnames)
		C.free(unsafe.Pointer(cvals))
		freeAll(vals)
		if code != 0 {
			return C.SQLITE_ABORT
		}
	}
	return C.SQLITE_OK
}

//export shim_sqlite3_get_table
func shim_sqlite3_get_table(db *C.sqlite3, zSql *C.char, pazResult ***C.char, pnRow *C.int, pnColumn *C.int, pzErrMsg **C.char) (rc C.int) {
	defer recoverTo("get_table", &rc, C.SQLITE_OK)
	st := getState()
	conn, pool, redirected := st.redirectedConn(db)
	if !redirected {
		return C.sqlite3_get_table(db, zSql, pazResult, pnRow, pnColumn, pzErrMsg)
	}
	if zSql == nil || pazResult == nil {
		return C.SQLITE_MISUSE
	}
	if pzErrMsg != nil {
		*pzErrMsg = nil
	}

	sqlText := C.GoString(zSql)
	snap, err := engine.DirectExec(context.Background(), conn, pool, sqlText, st.deps(pool))
	if err != nil {
		st.log.Error().Err(err).Str("sql", sqlText).Msg("get_table failed")
		snap = nil
	}
	if snap == nil {
		snap = &result.Snapshot{}
	}

	nrow := snap.NumRows()
	ncol := snap.NumCols()
	table := C.shim_alloc_table(C.int((nrow + 1) * ncol))
	if table == nil {
		return C.SQLITE_NOMEM
	}

	for c := 0; c < ncol; c++ {
		tableSet(table, c, snap.ColumnNames[c])
	}
	for r := 0; r < nrow; r++ {
		for c := 0; c < ncol; c++ {
			i := (r+1)*ncol + c
			if cell := snap.Rows[r][c]; cell.Valid {
				tableSet(table, i, cell.String)
			} else {
				C.shim_table_set(table, C.int(i), nil)
			}
		}
	}

	*pazResult = table
	if pnRow != nil {
		*pnRow = C.int(nrow)
	}
	if pnColumn != nil {
		*pnColumn = C.int(ncol)
	}
	return C.SQLITE_OK
}

// redirectedConn resolves db to its redirected Connection and pool, if any.
func (st *shimState) redirectedConn(db *C.sqlite3) (*connreg.Connection, *connreg.Pool, bool) {
	if st.disabled || db == nil {
		return nil, nil, false
	}
	conn, ok := st.conns.Lookup(connreg.Handle(uintptr(unsafe.Pointer(db))))
	if !ok || !conn.Active.Load() {
		return nil, nil, false
	}
	return conn, st.poolFor(conn.Path), true
}

func tableSet(table **C.char, i int, s string) {
	cs := C.CString(s)
	C.shim_table_set(table, C.int(i), cs)
	C.free(unsafe.Pointer(cs))
}

// cPtrArray builds a NULL-terminated C array from Go-held C string
// pointers, for handing to the host's exec callback.
func cPtrArray(ps []*C.char) **C.char {
	n := len(ps)
	arr := (**C.char)(C.malloc(C.size_t((n + 1)) * C.size_t(unsafe.Sizeof(uintptr(0)))))
	slice := unsafe.Slice(arr, n+1)
	copy(slice, ps)
	slice[n] = nil
	return arr
}

func freeAll(ps []*C.char) {
	for _, p := range ps {
		if p != nil {
			C.free(unsafe.Pointer(p))
		}
	}
}
