package main

// #include "shim.h"
import "C"

import "unsafe"

// Collation registration against a redirected database is accepted and
// no-op'd: the host registers locale-suffixed (ICU) collations the server
// cannot host, and every redirected comparison happens server-side anyway.
// Passthrough databases keep the real registration.

//export shim_sqlite3_create_collation
func shim_sqlite3_create_collation(db *C.sqlite3, zName *C.char, eTextRep C.int, pArg unsafe.Pointer, xCompare unsafe.Pointer) (rc C.int) {
	defer recoverTo("create_collation", &rc, C.SQLITE_OK)
	st := getState()
	if _, ok := st.connFor(db); ok {
		st.log.Debug().Str("name", C.GoString(zName)).Msg("collation registration ignored on redirected database")
		return C.SQLITE_OK
	}
	return C.shim_forward_create_collation(db, zName, eTextRep, pArg, xCompare)
}

//export shim_sqlite3_create_collation_v2
func shim_sqlite3_create_collation_v2(db *C.sqlite3, zName *C.char, eTextRep C.int, pArg unsafe.Pointer, xCompare unsafe.Pointer, xDestroy unsafe.Pointer) (rc C.int) {
	defer recoverTo("create_collation_v2", &rc, C.SQLITE_OK)
	st := getState()
	if _, ok := st.connFor(db); ok {
		st.log.Debug().Str("name", C.GoString(zName)).Msg("collation registration ignored on redirected database")
		return C.SQLITE_OK
	}
	return C.shim_forward_create_collation_v2(db, zName, eTextRep, pArg, xCompare, xDestroy)
}
