package main

// #include "shim.h"
import "C"

import (
	"unsafe"

	"github.com/jabrown93/plex-postgresql-sub000/internal/engine"
	"github.com/jabrown93/plex-postgresql-sub000/internal/fakevalue"
	"github.com/jabrown93/plex-postgresql-sub000/internal/result"
)

// resolveFake dispatches on the fake-value tag: a value the
// shim's own column_value produced routes back through its owning
// statement; anything else is a genuine library value and forwards.
func resolveFake(v *C.sqlite3_value) (*engine.Statement, *fakevalue.Value, bool) {
	fv, ok := fakevalue.Recognize(unsafe.Pointer(v))
	if !ok {
		return nil, nil, false
	}
	s, ok := getState().lookupStmt(fv.StmtHandle)
	if !ok {
		return nil, nil, false
	}
	return s, fv, true
}

// fakeBlob resolves the raw bytes behind a fake value, hex-decoding when
// the backing column is binary.
func fakeBlob(s *engine.Statement, fv *fakevalue.Value) ([]byte, bool) {
	text, isNull, ok := s.ValueAt(fv.Column, fv.Row)
	if !ok || isNull {
		return nil, false
	}
	if t, _ := s.ValueType(fv.Column, fv.Row); t == result.Blob {
		if raw, decoded := result.DecodeHexBytea(text); decoded {
			return raw, true
		}
		return nil, false
	}
	return []byte(text), true
}

//export shim_sqlite3_value_type
func shim_sqlite3_value_type(v *C.sqlite3_value) (rc C.int) {
	defer recoverTo("value_type", &rc, C.SQLITE_NULL)
	if s, fv, ok := resolveFake(v); ok {
		if _, isNull, ok := s.ValueAt(fv.Column, fv.Row); !ok || isNull {
			return C.SQLITE_NULL
		}
		t, _ := s.ValueType(fv.Column, fv.Row)
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
	return C.sqlite3_value_type(v)
}

//export shim_sqlite3_value_text
func shim_sqlite3_value_text(v *C.sqlite3_value) (ret *C.uchar) {
	defer func() {
		if r := recover(); r != nil {
			logPanic("value_text", r)
			ret = nil
		}
	}()
	if s, fv, ok := resolveFake(v); ok {
		text, isNull, ok := s.ValueAt(fv.Column, fv.Row)
		if !ok || isNull {
			return nil
		}
		return (*C.uchar)(unsafe.Pointer(getState().leaseCString(fv.StmtHandle, text)))
	}
	return C.sqlite3_value_text(v)
}

//export shim_sqlite3_value_int
func shim_sqlite3_value_int(v *C.sqlite3_value) (rc C.int) {
	defer recoverTo("value_int", &rc, 0)
	if s, fv, ok := resolveFake(v); ok {
		text, isNull, ok := s.ValueAt(fv.Column, fv.Row)
		if !ok || isNull {
			return 0
		}
		return C.int(result.CoerceInt64(text))
	}
	return C.sqlite3_value_int(v)
}

//export shim_sqlite3_value_int64
func shim_sqlite3_value_int64(v *C.sqlite3_value) (ret C.sqlite3_int64) {
	defer func() {
		if r := recover(); r != nil {
			logPanic("value_int64", r)
			ret = 0
		}
	}()
	if s, fv, ok := resolveFake(v); ok {
		text, isNull, ok := s.ValueAt(fv.Column, fv.Row)
		if !ok || isNull {
			return 0
		}
		return C.sqlite3_int64(result.CoerceInt64(text))
	}
	return C.sqlite3_value_int64(v)
}

//export shim_sqlite3_value_double
func shim_sqlite3_value_double(v *C.sqlite3_value) (ret C.double) {
	defer func() {
		if r := recover(); r != nil {
			logPanic("value_double", r)
			ret = 0
		}
	}()
	if s, fv, ok := resolveFake(v); ok {
		text, isNull, ok := s.ValueAt(fv.Column, fv.Row)
		if !ok || isNull {
			return 0
		}
		return C.double(result.CoerceDouble(text))
	}
	return C.sqlite3_value_double(v)
}

//export shim_sqlite3_value_bytes
func shim_sqlite3_value_bytes(v *C.sqlite3_value) (rc C.int) {
	defer recoverTo("value_bytes", &rc, 0)
	if s, fv, ok := resolveFake(v); ok {
		data, ok := fakeBlob(s, fv)
		if !ok {
			return 0
		}
		return C.int(len(data))
	}
	return C.sqlite3_value_bytes(v)
}

//export shim_sqlite3_value_blob
func shim_sqlite3_value_blob(v *C.sqlite3_value) (ret unsafe.Pointer) {
	defer func() {
		if r := recover(); r != nil {
			logPanic("value_blob", r)
			ret = nil
		}
	}()
	if s, fv, ok := resolveFake(v); ok {
		data, ok := fakeBlob(s, fv)
		if !ok {
			return nil
		}
		return getState().leaseCBytes(fv.StmtHandle, data)
	}
	return C.sqlite3_value_blob(v)
}
