package main

// #include "shim.h"
import "C"

import (
	"unsafe"

	"github.com/jabrown93/plex-postgresql-sub000/internal/fakevalue"
	"github.com/jabrown93/plex-postgresql-sub000/internal/result"
	"github.com/jabrown93/plex-postgresql-sub000/internal/shimerr"
)

// bindCode translates an engine bind failure into the library's convention:
// an out-of-range index is SQLITE_RANGE, everything else succeeds from the
// host's point of view.
func bindCode(err error) C.int {
	if err == nil {
		return C.SQLITE_OK
	}
	if shimerr.Is(err, shimerr.BadInput) {
		return C.SQLITE_RANGE
	}
	return C.SQLITE_OK
}

//export shim_sqlite3_bind_int
func shim_sqlite3_bind_int(stmt *C.sqlite3_stmt, idx C.int, v C.int) (rc C.int) {
	defer recoverTo("bind_int", &rc, C.SQLITE_OK)
	if s, ok := getState().lookupStmt(uintptr(unsafe.Pointer(stmt))); ok {
		return bindCode(s.BindInt64(int(idx), int64(v)))
	}
	return C.sqlite3_bind_int(stmt, idx, v)
}

//export shim_sqlite3_bind_int64
func shim_sqlite3_bind_int64(stmt *C.sqlite3_stmt, idx C.int, v C.sqlite3_int64) (rc C.int) {
	defer recoverTo("bind_int64", &rc, C.SQLITE_OK)
	if s, ok := getState().lookupStmt(uintptr(unsafe.Pointer(stmt))); ok {
		return bindCode(s.BindInt64(int(idx), int64(v)))
	}
	return C.sqlite3_bind_int64(stmt, idx, v)
}

//export shim_sqlite3_bind_double
func shim_sqlite3_bind_double(stmt *C.sqlite3_stmt, idx C.int, v C.double) (rc C.int) {
	defer recoverTo("bind_double", &rc, C.SQLITE_OK)
	if s, ok := getState().lookupStmt(uintptr(unsafe.Pointer(stmt))); ok {
		return bindCode(s.BindDouble(int(idx), float64(v)))
	}
	return C.sqlite3_bind_double(stmt, idx, v)
}

//export shim_sqlite3_bind_text
func shim_sqlite3_bind_text(stmt *C.sqlite3_stmt, idx C.int, v *C.char, n C.int, destructor unsafe.Pointer) (rc C.int) {
	defer recoverTo("bind_text", &rc, C.SQLITE_OK)
	if s, ok := getState().lookupStmt(uintptr(unsafe.Pointer(stmt))); ok {
		if v == nil {
			return bindCode(s.BindNull(int(idx)))
		}
		var text string
		if n < 0 {
			text = C.GoString(v)
		} else {
			text = C.GoStringN(v, n)
		}
		err := s.BindText(int(idx), text)
		C.shim_call_destructor(destructor, unsafe.Pointer(v))
		return bindCode(err)
	}
	return C.shim_forward_bind_text(stmt, idx, v, n, destructor)
}

//export shim_sqlite3_bind_text64
func shim_sqlite3_bind_text64(stmt *C.sqlite3_stmt, idx C.int, v *C.char, n C.sqlite3_uint64, destructor unsafe.Pointer, encoding C.uchar) (rc C.int) {
	defer recoverTo("bind_text64", &rc, C.SQLITE_OK)
	if s, ok := getState().lookupStmt(uintptr(unsafe.Pointer(stmt))); ok {
		if v == nil {
			return bindCode(s.BindNull(int(idx)))
		}
		text := C.GoStringN(v, C.int(n))
		err := s.BindText(int(idx), text)
		C.shim_call_destructor(destructor, unsafe.Pointer(v))
		return bindCode(err)
	}
	return C.shim_forward_bind_text64(stmt, idx, v, n, destructor, encoding)
}

//export shim_sqlite3_bind_blob
func shim_sqlite3_bind_blob(stmt *C.sqlite3_stmt, idx C.int, v unsafe.Pointer, n C.int, destructor unsafe.Pointer) (rc C.int) {
	defer recoverTo("bind_blob", &rc, C.SQLITE_OK)
	if s, ok := getState().lookupStmt(uintptr(unsafe.Pointer(stmt))); ok {
		if v == nil {
			return bindCode(s.BindNull(int(idx)))
		}
		data := C.GoBytes(v, n)
		err := s.BindBlob(int(idx), data)
		C.shim_call_destructor(destructor, v)
		return bindCode(err)
	}
	return C.shim_forward_bind_blob(stmt, idx, v, n, destructor)
}

//export shim_sqlite3_bind_blob64
func shim_sqlite3_bind_blob64(stmt *C.sqlite3_stmt, idx C.int, v unsafe.Pointer, n C.sqlite3_uint64, destructor unsafe.Pointer) (rc C.int) {
	defer recoverTo("bind_blob64", &rc, C.SQLITE_OK)
	if s, ok := getState().lookupStmt(uintptr(unsafe.Pointer(stmt))); ok {
		if v == nil {
			return bindCode(s.BindNull(int(idx)))
		}
		data := C.GoBytes(v, C.int(n))
		err := s.BindBlob(int(idx), data)
		C.shim_call_destructor(destructor, v)
		return bindCode(err)
	}
	return C.shim_forward_bind_blob64(stmt, idx, v, n, destructor)
}

//export shim_sqlite3_bind_null
func shim_sqlite3_bind_null(stmt *C.sqlite3_stmt, idx C.int) (rc C.int) {
	defer recoverTo("bind_null", &rc, C.SQLITE_OK)
	if s, ok := getState().lookupStmt(uintptr(unsafe.Pointer(stmt))); ok {
		return bindCode(s.BindNull(int(idx)))
	}
	return C.sqlite3_bind_null(stmt, idx)
}

//export shim_sqlite3_bind_value
func shim_sqlite3_bind_value(stmt *C.sqlite3_stmt, idx C.int, value *C.sqlite3_value) (rc C.int) {
	defer recoverTo("bind_value", &rc, C.SQLITE_OK)
	st := getState()
	s, redirected := st.lookupStmt(uintptr(unsafe.Pointer(stmt)))
	if !redirected {
		return C.sqlite3_bind_value(stmt, idx, value)
	}
	if value == nil {
		return bindCode(s.BindNull(int(idx)))
	}

	// A fake value routes back through its owning statement's result; a
	// genuine library value is read out through the real accessors.
	if fv, ok := fakevalue.Recognize(unsafe.Pointer(value)); ok {
		owner, ok := st.lookupStmt(fv.StmtHandle)
		if !ok {
			return bindCode(s.BindNull(int(idx)))
		}
		text, isNull, ok := owner.ValueAt(fv.Column, fv.Row)
		if !ok || isNull {
			return bindCode(s.BindNull(int(idx)))
		}
		if t, _ := owner.ValueType(fv.Column, fv.Row); t == result.Blob {
			if raw, decoded := result.DecodeHexBytea(text); decoded {
				return bindCode(s.BindBlob(int(idx), raw))
			}
		}
		return bindCode(s.BindText(int(idx), text))
	}

	switch C.sqlite3_value_type(value) {
	case C.SQLITE_INTEGER:
		return bindCode(s.BindInt64(int(idx), int64(C.sqlite3_value_int64(value))))
	case C.SQLITE_FLOAT:
		return bindCode(s.BindDouble(int(idx), float64(C.sqlite3_value_double(value))))
	case C.SQLITE_BLOB:
		n := C.sqlite3_value_bytes(value)
		data := C.GoBytes(C.sqlite3_value_blob(value), n)
		return bindCode(s.BindBlob(int(idx), data))
	case C.SQLITE_NULL:
		return bindCode(s.BindNull(int(idx)))
	default:
		text := C.GoString((*C.char)(unsafe.Pointer(C.sqlite3_value_text(value))))
		return bindCode(s.BindText(int(idx), text))
	}
}
