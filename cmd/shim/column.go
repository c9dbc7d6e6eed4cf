package main

// #include "shim.h"
import "C"

import (
	"unsafe"

	"github.com/jabrown93/plex-postgresql-sub000/internal/engine"
	"github.com/jabrown93/plex-postgresql-sub000/internal/result"
)

func colTypeCode(s *engine.Statement, col int) C.int {
	if isNull, ok := s.ColumnIsNull(col); ok && isNull {
		return C.SQLITE_NULL
	}
	t, ok := s.ColumnType(col)
	if !ok {
		return C.SQLITE_NULL
	}
	switch t {
	case result.Integer:
		return C.SQLITE_INTEGER
	case result.Float:
		return C.SQLITE_FLOAT
	case result.Blob:
		return C.SQLITE_BLOB
	default:
		return C.SQLITE_TEXT
	}
}

//export shim_sqlite3_column_count
func shim_sqlite3_column_count(stmt *C.sqlite3_stmt) (rc C.int) {
	defer recoverTo("column_count", &rc, 0)
	if s, ok := getState().lookupStmt(uintptr(unsafe.Pointer(stmt))); ok {
		return C.int(s.ColumnCount())
	}
	return C.sqlite3_column_count(stmt)
}

//export shim_sqlite3_data_count
func shim_sqlite3_data_count(stmt *C.sqlite3_stmt) (rc C.int) {
	defer recoverTo("data_count", &rc, 0)
	if s, ok := getState().lookupStmt(uintptr(unsafe.Pointer(stmt))); ok {
		return C.int(s.DataCount())
	}
	return C.sqlite3_data_count(stmt)
}

//export shim_sqlite3_column_type
func shim_sqlite3_column_type(stmt *C.sqlite3_stmt, col C.int) (rc C.int) {
	defer recoverTo("column_type", &rc, C.SQLITE_NULL)
	if s, ok := getState().lookupStmt(uintptr(unsafe.Pointer(stmt))); ok {
		return colTypeCode(s, int(col))
	}
	return C.sqlite3_column_type(stmt, col)
}

//export shim_sqlite3_column_name
func shim_sqlite3_column_name(stmt *C.sqlite3_stmt, col C.int) (ret *C.char) {
	defer func() {
		if r := recover(); r != nil {
			logPanic("column_name", r)
			ret = nil
		}
	}()
	st := getState()
	h := uintptr(unsafe.Pointer(stmt))
	if s, ok := st.lookupStmt(h); ok {
		name, ok := s.ColumnName(int(col))
		if !ok {
			return nil
		}
		return st.leaseCString(h, name)
	}
	return C.sqlite3_column_name(stmt, col)
}

//export shim_sqlite3_column_decltype
func shim_sqlite3_column_decltype(stmt *C.sqlite3_stmt, col C.int) (ret *C.char) {
	defer func() {
		if r := recover(); r != nil {
			logPanic("column_decltype", r)
			ret = nil
		}
	}()
	st := getState()
	h := uintptr(unsafe.Pointer(stmt))
	s, ok := st.lookupStmt(h)
	if !ok {
		return C.sqlite3_column_decltype(stmt, col)
	}
	if decl, ok := s.ColumnDeclType(int(col)); ok {
		return st.leaseCString(h, decl)
	}
	// No declared type on record for this column; fall back to the fixed
	// type mapping's vocabulary.
	t, ok := s.ColumnType(int(col))
	if !ok {
		return nil
	}
	switch t {
	case result.Integer:
		return st.leaseCString(h, "INTEGER")
	case result.Float:
		return st.leaseCString(h, "FLOAT")
	case result.Blob:
		return st.leaseCString(h, "BLOB")
	default:
		return st.leaseCString(h, "TEXT")
	}
}

//export shim_sqlite3_column_int
func shim_sqlite3_column_int(stmt *C.sqlite3_stmt, col C.int) (rc C.int) {
	defer recoverTo("column_int", &rc, 0)
	if s, ok := getState().lookupStmt(uintptr(unsafe.Pointer(stmt))); ok {
		v, _, _ := s.ColumnInt64(int(col))
		return C.int(v)
	}
	return C.sqlite3_column_int(stmt, col)
}

//export shim_sqlite3_column_int64
func shim_sqlite3_column_int64(stmt *C.sqlite3_stmt, col C.int) (ret C.sqlite3_int64) {
	defer func() {
		if r := recover(); r != nil {
			logPanic("column_int64", r)
			ret = 0
		}
	}()
	if s, ok := getState().lookupStmt(uintptr(unsafe.Pointer(stmt))); ok {
		v, _, _ := s.ColumnInt64(int(col))
		return C.sqlite3_int64(v)
	}
	return C.sqlite3_column_int64(stmt, col)
}

//export shim_sqlite3_column_double
func shim_sqlite3_column_double(stmt *C.sqlite3_stmt, col C.int) (ret C.double) {
	defer func() {
		if r := recover(); r != nil {
			logPanic("column_double", r)
			ret = 0
		}
	}()
	if s, ok := getState().lookupStmt(uintptr(unsafe.Pointer(stmt))); ok {
		v, _, _ := s.ColumnDouble(int(col))
		return C.double(v)
	}
	return C.sqlite3_column_double(stmt, col)
}

//export shim_sqlite3_column_text
func shim_sqlite3_column_text(stmt *C.sqlite3_stmt, col C.int) (ret *C.uchar) {
	defer func() {
		if r := recover(); r != nil {
			logPanic("column_text", r)
			ret = nil
		}
	}()
	st := getState()
	h := uintptr(unsafe.Pointer(stmt))
	if s, ok := st.lookupStmt(h); ok {
		text, isNull, ok := s.ColumnText(int(col))
		if !ok || isNull {
			return nil
		}
		return (*C.uchar)(unsafe.Pointer(st.leaseCString(h, string(text))))
	}
	return C.sqlite3_column_text(stmt, col)
}

//export shim_sqlite3_column_blob
func shim_sqlite3_column_blob(stmt *C.sqlite3_stmt, col C.int) (ret unsafe.Pointer) {
	defer func() {
		if r := recover(); r != nil {
			logPanic("column_blob", r)
			ret = nil
		}
	}()
	st := getState()
	h := uintptr(unsafe.Pointer(stmt))
	if s, ok := st.lookupStmt(h); ok {
		data, isNull, ok := s.ColumnBlob(int(col))
		if !ok || isNull {
			return nil
		}
		return st.leaseCBytes(h, data)
	}
	return C.sqlite3_column_blob(stmt, col)
}

//export shim_sqlite3_column_bytes
func shim_sqlite3_column_bytes(stmt *C.sqlite3_stmt, col C.int) (rc C.int) {
	defer recoverTo("column_bytes", &rc, 0)
	if s, ok := getState().lookupStmt(uintptr(unsafe.Pointer(stmt))); ok {
		return C.int(s.ColumnBytes(int(col)))
	}
	return C.sqlite3_column_bytes(stmt, col)
}

//export shim_sqlite3_column_value
func shim_sqlite3_column_value(stmt *C.sqlite3_stmt, col C.int) (ret *C.sqlite3_value) {
	defer func() {
		if r := recover(); r != nil {
			logPanic("column_value", r)
			ret = nil
		}
	}()
	st := getState()
	if s, ok := st.lookupStmt(uintptr(unsafe.Pointer(stmt))); ok {
		return (*C.sqlite3_value)(s.ColumnValue(st.values, int(col)))
	}
	return C.sqlite3_column_value(stmt, col)
}
