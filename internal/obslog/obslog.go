// Package obslog wires the shim's single process-wide logger: an
// append-only log at a fixed path, one timestamped, leveled JSON line per
// entry, written with zerolog. Rotation is left to external tooling.
package obslog

import (
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// New opens path in append mode and returns a logger gated at minLevel
// (one of DEBUG/INFO/ERROR; unrecognized values fall back to INFO).
func New(path, minLevel string) (zerolog.Logger, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return zerolog.Logger{}, err
	}

	lvl := parseLevel(minLevel)
	return zerolog.New(f).Level(lvl).With().Timestamp().Logger(), nil
}

func parseLevel(s string) zerolog.Level {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return zerolog.DebugLevel
	case "ERROR":
		return zerolog.ErrorLevel
	case "INFO":
		return zerolog.InfoLevel
	default:
		return zerolog.InfoLevel
	}
}

// WithStatement returns a child logger carrying the fields every
// SERVER_EXEC_FAILURE / TRANSLATION_FAILURE log line needs,
// so call sites never hand-format these by hand.
func WithStatement(l zerolog.Logger, sqlHash, role string) zerolog.Logger {
	return l.With().Str("sql_hash", sqlHash).Str("role", role).Logger()
}
