package main

// #include "shim.h"
import "C"

import (
	"unsafe"

	"github.com/jabrown93/plex-postgresql-sub000/internal/connreg"
)

func (st *shimState) connFor(db *C.sqlite3) (*connreg.Connection, bool) {
	if st.disabled || db == nil {
		return nil, false
	}
	return st.conns.Lookup(connreg.Handle(uintptr(unsafe.Pointer(db))))
}

//export shim_sqlite3_changes
func shim_sqlite3_changes(db *C.sqlite3) (rc C.int) {
	defer recoverTo("changes", &rc, 0)
	if conn, ok := getState().connFor(db); ok {
		return C.int(conn.LastChanges)
	}
	return C.sqlite3_changes(db)
}

//export shim_sqlite3_changes64
func shim_sqlite3_changes64(db *C.sqlite3) (ret C.sqlite3_int64) {
	defer func() {
		if r := recover(); r != nil {
			logPanic("changes64", r)
			ret = 0
		}
	}()
	if conn, ok := getState().connFor(db); ok {
		return C.sqlite3_int64(conn.LastChanges)
	}
	return C.sqlite3_changes64(db)
}

//export shim_sqlite3_last_insert_rowid
func shim_sqlite3_last_insert_rowid(db *C.sqlite3) (ret C.sqlite3_int64) {
	defer func() {
		if r := recover(); r != nil {
			logPanic("last_insert_rowid", r)
			ret = 0
		}
	}()
	if conn, ok := getState().connFor(db); ok {
		return C.sqlite3_int64(conn.LastInsertRowID)
	}
	return C.sqlite3_last_insert_rowid(db)
}

// errcode/errmsg always reflect the embedded library's own last-error state
// for the handle; the shim never overwrites it.
// For a redirected database the handle is the shadow handle, which the real
// library maintains like any other.

//export shim_sqlite3_errcode
func shim_sqlite3_errcode(db *C.sqlite3) (rc C.int) {
	defer recoverTo("errcode", &rc, C.SQLITE_OK)
	return C.sqlite3_errcode(db)
}

//export shim_sqlite3_errmsg
func shim_sqlite3_errmsg(db *C.sqlite3) (ret *C.char) {
	defer func() {
		if r := recover(); r != nil {
			logPanic("errmsg", r)
			ret = nil
		}
	}()
	return C.sqlite3_errmsg(db)
}
