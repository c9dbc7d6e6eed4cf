package main

// #include "shim.h"
import "C"

import (
	"context"

	"github.com/jabrown93/plex-postgresql-sub000/internal/serverdb"
)

// shim_self_check is an operator aid, not part of the intercepted ABI: call
// it once after loading the library to confirm configuration and server
// reachability; it also runs the declared-type preload if that has not run
// yet. Returns 0 when the server is reachable and the channel status is OK;
// a preload failure is only logged at DEBUG and does not change the result.
//
//export shim_self_check
func shim_self_check() (rc C.int) {
	defer recoverTo("self_check", &rc, 1)
	st := getState()
	if st.disabled {
		return 1
	}

	ctx := context.Background()
	ch, err := serverdb.Connect(ctx, st.cfg.DSN(), st.cfg.Schema)
	if err != nil {
		st.log.Error().Err(err).Msg("self-check: server unreachable")
		return 1
	}
	defer ch.Close()

	if err := ch.Status(ctx); err != nil {
		st.log.Error().Err(err).Msg("self-check: channel status not OK")
		return 1
	}
	st.loadDeclTypesOnce(ctx, ch)

	st.log.Info().
		Str("schema", st.cfg.Schema).
		Strs("redirect_patterns", st.cfg.RedirectPatterns).
		Msg("self-check passed")
	return 0
}
