// Package hashkey derives the stable identifiers the shim uses to name
// and look up prepared statements on the server connection.
package hashkey

import (
	"fmt"

	"github.com/cespare/xxhash/v2"
)

// SQL returns a stable 64-bit hash of translated SQL text. The same text
// always hashes to the same value, independent of process restarts or
// connection identity, so two connections that translate the same source
// statement agree on the same prepared-statement name without coordination.
func SQL(sql string) uint64 {
	return xxhash.Sum64String(sql)
}

// StatementName formats the hash as the identifier PREPARE uses on the
// server connection. Postgres identifiers are limited to 63 bytes; the
// fixed "ps_" prefix plus 16 hex digits comfortably fits.
func StatementName(hash uint64) string {
	return fmt.Sprintf("ps_%016x", hash)
}
