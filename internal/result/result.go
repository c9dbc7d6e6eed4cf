// Package result implements the Result Adapter: column
// metadata, row cursor, type-coerced accessors over a cached result
// snapshot, and BYTEA hex decoding.
package result

import (
	"context"
	"database/sql"
	"strconv"
	"strings"
	"sync"

	"github.com/jabrown93/plex-postgresql-sub000/internal/serverdb"
)

// ColType is the embedded library's column-type vocabulary, derived from
// the server's type name by a fixed mapping.
type ColType int

const (
	Integer ColType = iota
	Float
	Blob
	Text
)

// ClassifyTypeName maps a driver-reported column type name to the embedded
// library's ColType: {bool, int2, int4, int8} -> INTEGER,
// {float4, float8, numeric} -> FLOAT, bytea -> BLOB, everything else -> TEXT.
func ClassifyTypeName(name string) ColType {
	switch strings.ToUpper(name) {
	case "BOOL", "INT2", "INT4", "INT8":
		return Integer
	case "FLOAT4", "FLOAT8", "NUMERIC":
		return Float
	case "BYTEA":
		return Blob
	default:
		return Text
	}
}

// Snapshot is the Cached-result record: a materialized
// result-set owned by the statement, so a re-step without re-execute can
// replay it without a second round trip.
type Snapshot struct {
	ColumnNames []string
	ColumnTypes []ColType
	SourceTable string // best-effort, parsed from the SQL text; "" when unresolved
	Rows        [][]sql.NullString
}

func (s *Snapshot) NumRows() int { return len(s.Rows) }
func (s *Snapshot) NumCols() int { return len(s.ColumnNames) }

// LoadSnapshot drains rows into a Snapshot. Every value is read as text,
// matching the server's text-format result transport; type coercion from text happens lazily at accessor time.
func LoadSnapshot(rows *sql.Rows) (*Snapshot, error) {
	defer rows.Close()

	cols, err := rows.ColumnTypes()
	if err != nil {
		return nil, err
	}
	snap := &Snapshot{
		ColumnNames: make([]string, len(cols)),
		ColumnTypes: make([]ColType, len(cols)),
	}
	for i, c := range cols {
		snap.ColumnNames[i] = c.Name()
		snap.ColumnTypes[i] = ClassifyTypeName(c.DatabaseTypeName())
	}

	scanTargets := make([]any, len(cols))
	for rows.Next() {
		row := make([]sql.NullString, len(cols))
		for i := range row {
			scanTargets[i] = &row[i]
		}
		if err := rows.Scan(scanTargets...); err != nil {
			return nil, err
		}
		snap.Rows = append(snap.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return snap, nil
}

// Set pairs a Snapshot with the statement's current cursor position.
type Set struct {
	Snapshot   *Snapshot
	CurrentRow int
}

func NewSet(snap *Snapshot) *Set {
	return &Set{Snapshot: snap, CurrentRow: -1}
}

// Advance moves the cursor forward, returning false once past the last row.
func (s *Set) Advance() bool {
	s.CurrentRow++
	return s.CurrentRow < s.Snapshot.NumRows()
}

// InBounds reports whether col and the current row are valid accessor
// indices.
func (s *Set) InBounds(col int) bool {
	return s.CurrentRow >= 0 && s.CurrentRow < s.Snapshot.NumRows() &&
		col >= 0 && col < s.Snapshot.NumCols()
}

// Text returns the raw server text for (col, current row), and whether the
// value is SQL NULL.
func (s *Set) Text(col int) (text string, isNull bool) {
	v := s.Snapshot.Rows[s.CurrentRow][col]
	return v.String, !v.Valid
}

// CoerceInt64 parses a column's text: 't'/'f' (server
// boolean text format) as 1/0, otherwise a numeric parse (falling back
// through float for values like "3.0").
func CoerceInt64(text string) int64 {
	switch text {
	case "t":
		return 1
	case "f":
		return 0
	}
	if i, err := strconv.ParseInt(text, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(text, 64); err == nil {
		return int64(f)
	}
	return 0
}

// CoerceDouble parses a column's text as a float, applying the same
// boolean text convention as CoerceInt64.
func CoerceDouble(text string) float64 {
	switch text {
	case "t":
		return 1
	case "f":
		return 0
	}
	f, _ := strconv.ParseFloat(text, 64)
	return f
}

// hexNibble is a 256-entry lookup table decoding one BYTEA hex digit.
var hexNibble [256]int8

func init() {
	for i := range hexNibble {
		hexNibble[i] = -1
	}
	for c := '0'; c <= '9'; c++ {
		hexNibble[c] = int8(c - '0')
	}
	for c := 'a'; c <= 'f'; c++ {
		hexNibble[c] = int8(c-'a') + 10
	}
	for c := 'A'; c <= 'F'; c++ {
		hexNibble[c] = int8(c-'A') + 10
	}
}

// DecodeHexBytea decodes the server's "\x..." bytea text representation.
func DecodeHexBytea(s string) ([]byte, bool) {
	if len(s) < 2 || s[0] != '\\' || s[1] != 'x' {
		return nil, false
	}
	s = s[2:]
	if len(s)%2 != 0 {
		return nil, false
	}
	out := make([]byte, len(s)/2)
	for i := range out {
		hi := hexNibble[s[2*i]]
		lo := hexNibble[s[2*i+1]]
		if hi < 0 || lo < 0 {
			return nil, false
		}
		out[i] = byte(hi)<<4 | byte(lo)
	}
	return out, true
}

// DeclTypeCache backs column_decltype: a preload of (table, column) ->
// original declared type from the side metadata table
// <schema>.sqlite_column_types, consulted read-only at first need and
// memoized for the process's lifetime.
type DeclTypeCache struct {
	mu sync.Mutex
	m  map[declKey]string
}

type declKey struct{ Table, Column string }

func NewDeclTypeCache() *DeclTypeCache {
	return &DeclTypeCache{m: make(map[declKey]string)}
}

// Load runs one batched query against schema.sqlite_column_types and
// populates the cache. Safe to call more than once; later calls overwrite
// matching keys.
func (c *DeclTypeCache) Load(ctx context.Context, ch *serverdb.Channel, schema string) error {
	rows, err := ch.Query(ctx, `SELECT table_name, column_name, declared_type FROM `+schema+`.sqlite_column_types`)
	if err != nil {
		return err
	}
	defer rows.Close()

	c.mu.Lock()
	defer c.mu.Unlock()
	for rows.Next() {
		var table, column, declared string
		if err := rows.Scan(&table, &column, &declared); err != nil {
			return err
		}
		c.m[declKey{table, column}] = declared
	}
	return rows.Err()
}

// Lookup returns the declared type for (table, column), if known.
func (c *DeclTypeCache) Lookup(table, column string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	t, ok := c.m[declKey{table, column}]
	return t, ok
}
