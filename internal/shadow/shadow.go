// Package shadow wraps the embedded library's own C ABI for the two things
// the shim still needs it for on redirected databases: real opaque handles
// to return to the host, and materializing a cached-pre-existing
// statement's fully bound SQL text via sqlite3_expanded_sql. Passthrough
// databases do not go through this package; cmd/shim calls the library
// directly for them. It links directly against the system libsqlite3
// rather than carrying a private bridge header.
package shadow

// #cgo LDFLAGS: -lsqlite3
// #include <sqlite3.h>
// #include <stdlib.h>
import "C"

import (
	"unsafe"

	"github.com/jabrown93/plex-postgresql-sub000/internal/shimerr"
)

// Conn is an open handle to the embedded library, kept around purely to
// return a valid opaque pointer to the host for a redirected database.
type Conn struct {
	db *C.sqlite3
}

// Open opens path through the embedded library itself.
func Open(path string) (*Conn, error) {
	cpath := C.CString(path)
	defer C.free(unsafe.Pointer(cpath))

	var db *C.sqlite3
	rc := C.sqlite3_open(cpath, &db)
	if rc != C.SQLITE_OK {
		if db != nil {
			C.sqlite3_close(db)
		}
		return nil, shimerr.New(shimerr.ConnectionFailure, "sqlite3_open failed")
	}
	return &Conn{db: db}, nil
}

func (c *Conn) Close() error {
	if c.db == nil {
		return nil
	}
	rc := C.sqlite3_close(c.db)
	c.db = nil
	if rc != C.SQLITE_OK {
		return shimerr.New(shimerr.ConnectionFailure, "sqlite3_close failed")
	}
	return nil
}

// Handle returns the raw opaque pointer to hand back to the host, so the
// shim's own sqlite3* return value is indistinguishable from one the real
// library produced.
func (c *Conn) Handle() uintptr {
	return uintptr(unsafe.Pointer(c.db))
}

// Stmt is a shadow prepared statement: for a statement the shim prepared,
// it supplies the opaque handle and parameter-name lookup; for
// cached-pre-existing statements, it is used purely to ask the embedded
// library to materialize bound parameter values into SQL text.
type Stmt struct {
	stmt *C.sqlite3_stmt
}

// Handle returns the raw opaque statement pointer. For a statement the shim
// prepared itself, this is what the host receives in place of a real
// library-produced sqlite3_stmt*.
func (s *Stmt) Handle() uintptr {
	return uintptr(unsafe.Pointer(s.stmt))
}

// FromHandle wraps a statement pointer the host already owns — a
// cached-pre-existing statement discovered at first step — so the shim can
// ask the embedded library about it without having prepared it itself.
func FromHandle(h uintptr) *Stmt {
	return &Stmt{stmt: (*C.sqlite3_stmt)(unsafe.Pointer(h))}
}

// Prepare compiles sql against the shadow connection. The shim uses it to
// keep a redirected statement's SQL, exactly as the host gave it (no
// cleaning is applied), prepared against the embedded library, so host calls
// relying on its opaque parser state (parameter-name lookup) keep working.
func (c *Conn) Prepare(sql string) (*Stmt, error) {
	csql := C.CString(sql)
	defer C.free(unsafe.Pointer(csql))

	var stmt *C.sqlite3_stmt
	var tail *C.char
	rc := C.sqlite3_prepare_v2(c.db, csql, -1, &stmt, &tail)
	if rc != C.SQLITE_OK {
		return nil, shimerr.New(shimerr.TranslationFailure, "sqlite3_prepare_v2 failed")
	}
	return &Stmt{stmt: stmt}, nil
}

// BindParameterName returns the name bound to the i-th parameter (1-based),
// or "" if it is a positional parameter.
func (s *Stmt) BindParameterName(i int) string {
	cname := C.sqlite3_bind_parameter_name(s.stmt, C.int(i))
	if cname == nil {
		return ""
	}
	return C.GoString(cname)
}

// ExpandedSQL asks the embedded library to materialize this statement's
// fully bound SQL text, used to discover a cached-pre-existing statement's
// current bindings.
func (s *Stmt) ExpandedSQL() string {
	cstr := C.sqlite3_expanded_sql(s.stmt)
	if cstr == nil {
		return ""
	}
	defer C.sqlite3_free(unsafe.Pointer(cstr))
	return C.GoString(cstr)
}

// Finalize releases the statement. Double-finalize is a no-op.
func (s *Stmt) Finalize() error {
	if s.stmt == nil {
		return nil
	}
	rc := C.sqlite3_finalize(s.stmt)
	s.stmt = nil
	if rc != C.SQLITE_OK {
		return shimerr.New(shimerr.ServerExecFailure, "sqlite3_finalize failed")
	}
	return nil
}
