package main

// #include "shim.h"
import "C"

import (
	"strings"
	"unicode/utf16"
	"unsafe"

	"github.com/jabrown93/plex-postgresql-sub000/internal/connreg"
	"github.com/jabrown93/plex-postgresql-sub000/internal/engine"
	"github.com/jabrown93/plex-postgresql-sub000/internal/stmtreg"
)

//export shim_sqlite3_prepare
func shim_sqlite3_prepare(db *C.sqlite3, zSql *C.char, nByte C.int, ppStmt **C.sqlite3_stmt, pzTail **C.char) (rc C.int) {
	defer recoverTo("prepare", &rc, C.SQLITE_ERROR)
	sqlText, ok := sqlArg(zSql, nByte)
	if !ok || ppStmt == nil {
		return C.SQLITE_MISUSE
	}
	if code, handled := prepareRedirected(db, sqlText, ppStmt); handled {
		setTail(pzTail, zSql, len(sqlText))
		return code
	}
	return C.sqlite3_prepare(db, zSql, nByte, ppStmt, pzTail)
}

//export shim_sqlite3_prepare_v2
func shim_sqlite3_prepare_v2(db *C.sqlite3, zSql *C.char, nByte C.int, ppStmt **C.sqlite3_stmt, pzTail **C.char) (rc C.int) {
	defer recoverTo("prepare_v2", &rc, C.SQLITE_ERROR)
	sqlText, ok := sqlArg(zSql, nByte)
	if !ok || ppStmt == nil {
		return C.SQLITE_MISUSE
	}
	if code, handled := prepareRedirected(db, sqlText, ppStmt); handled {
		setTail(pzTail, zSql, len(sqlText))
		return code
	}
	return C.sqlite3_prepare_v2(db, zSql, nByte, ppStmt, pzTail)
}

//export shim_sqlite3_prepare_v3
func shim_sqlite3_prepare_v3(db *C.sqlite3, zSql *C.char, nByte C.int, prepFlags C.uint, ppStmt **C.sqlite3_stmt, pzTail **C.char) (rc C.int) {
	defer recoverTo("prepare_v3", &rc, C.SQLITE_ERROR)
	sqlText, ok := sqlArg(zSql, nByte)
	if !ok || ppStmt == nil {
		return C.SQLITE_MISUSE
	}
	if code, handled := prepareRedirected(db, sqlText, ppStmt); handled {
		setTail(pzTail, zSql, len(sqlText))
		return code
	}
	return C.sqlite3_prepare_v3(db, zSql, nByte, prepFlags, ppStmt, pzTail)
}

//export shim_sqlite3_prepare16_v2
func shim_sqlite3_prepare16_v2(db *C.sqlite3, zSql unsafe.Pointer, nByte C.int, ppStmt **C.sqlite3_stmt, pzTail *unsafe.Pointer) (rc C.int) {
	defer recoverTo("prepare16_v2", &rc, C.SQLITE_ERROR)
	if zSql == nil || ppStmt == nil {
		return C.SQLITE_MISUSE
	}
	sqlText := utf16SQLArg(zSql, nByte)
	if code, handled := prepareRedirected(db, sqlText, ppStmt); handled {
		if pzTail != nil {
			*pzTail = unsafe.Add(zSql, 2*len(utf16.Encode([]rune(sqlText))))
		}
		return code
	}
	return C.sqlite3_prepare16_v2(db, zSql, nByte, ppStmt, pzTail)
}

// prepareRedirected runs engine.Prepare for a redirected handle and
// registers the new statement under a shadow statement's pointer, so the
// host receives an opaque pointer the embedded library itself considers
// valid. handled is false for passthrough databases.
func prepareRedirected(db *C.sqlite3, sqlText string, ppStmt **C.sqlite3_stmt) (C.int, bool) {
	st := getState()
	if st.disabled || db == nil {
		return 0, false
	}
	h := connreg.Handle(uintptr(unsafe.Pointer(db)))
	conn, ok := st.conns.Lookup(h)
	if !ok || !conn.Active.Load() {
		return 0, false
	}

	pool := st.poolFor(conn.Path)
	s := engine.Prepare(conn, sqlText, st.deps(pool))

	sc := st.shadowConn(h)
	if sc == nil {
		st.log.Error().Str("path", conn.Path).Msg("redirected handle has no shadow connection")
		return C.SQLITE_ERROR, true
	}

	// The shadow statement keeps the embedded library's opaque parser
	// state alive for host calls like parameter-name lookup. SQL the
	// shadow engine cannot parse (server-only syntax, missing tables)
	// degrades to a placeholder statement: the pointer stays valid, the
	// parser state is just empty.
	shst, err := sc.Prepare(sqlText)
	if err != nil {
		shst, err = sc.Prepare("SELECT 1")
		if err != nil {
			st.log.Error().Err(err).Str("sql", sqlText).Msg("shadow prepare failed")
			return C.SQLITE_ERROR, true
		}
	}

	s.Handle = shst.Handle()
	if err := st.stmts.Insert(stmtreg.Handle(s.Handle), s); err != nil {
		st.log.Error().Err(err).Msg("statement registration failed")
		shst.Finalize()
		return C.SQLITE_ERROR, true
	}
	*ppStmt = (*C.sqlite3_stmt)(unsafe.Pointer(s.Handle))
	return C.SQLITE_OK, true
}

// sqlArg reads the host's SQL argument: nByte < 0 means NUL-terminated,
// otherwise nByte bytes with any embedded NUL ending the statement early.
func sqlArg(zSql *C.char, nByte C.int) (string, bool) {
	if zSql == nil {
		return "", false
	}
	var s string
	if nByte < 0 {
		s = C.GoString(zSql)
	} else {
		s = C.GoStringN(zSql, nByte)
		if i := strings.IndexByte(s, 0); i >= 0 {
			s = s[:i]
		}
	}
	return s, true
}

// utf16SQLArg decodes the prepare16 variant's native-byte-order UTF-16
// argument.
func utf16SQLArg(zSql unsafe.Pointer, nByte C.int) string {
	var units []uint16
	if nByte < 0 {
		for i := 0; ; i++ {
			c := *(*uint16)(unsafe.Add(zSql, 2*i))
			if c == 0 {
				break
			}
			units = append(units, c)
		}
	} else {
		all := unsafe.Slice((*uint16)(zSql), int(nByte)/2)
		units = all
		for i, c := range all {
			if c == 0 {
				units = all[:i]
				break
			}
		}
	}
	return string(utf16.Decode(units))
}

func setTail(pzTail **C.char, zSql *C.char, consumed int) {
	if pzTail != nil {
		*pzTail = (*C.char)(unsafe.Add(unsafe.Pointer(zSql), consumed))
	}
}
