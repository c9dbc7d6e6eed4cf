package main

// #include "shim.h"
import "C"

import "github.com/jabrown93/plex-postgresql-sub000/internal/shimerr"

// abiCode maps the internal failure taxonomy onto the embedded
// library's return-code convention in one place. Server-side failures
// deliberately map to SQLITE_OK: the host has no retry contract with the
// shim, so it observes success with no rows while the log line carries the
// real failure.
func abiCode(err error) C.int {
	switch {
	case err == nil:
		return C.SQLITE_OK
	case shimerr.Is(err, shimerr.BadInput):
		return C.SQLITE_MISUSE
	case shimerr.Is(err, shimerr.ConnectionFailure):
		return C.SQLITE_CANTOPEN
	case shimerr.Is(err, shimerr.TranslationFailure),
		shimerr.Is(err, shimerr.ServerExecFailure),
		shimerr.Is(err, shimerr.BoundsViolation),
		shimerr.Is(err, shimerr.TypeMismatch):
		return C.SQLITE_OK
	default:
		return C.SQLITE_OK
	}
}
