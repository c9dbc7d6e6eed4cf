package engine

import (
	"unsafe"

	"github.com/jabrown93/plex-postgresql-sub000/internal/fakevalue"
	"github.com/jabrown93/plex-postgresql-sub000/internal/result"
	"github.com/jabrown93/plex-postgresql-sub000/internal/textpool"
)

// ColumnValue allocates a fake-value object for (col, current row) from
// the shared process-wide pool, for the column_value entry point. The host
// treats the returned pointer as an opaque sqlite3_value*; value_* calls against it route back here via
// fakevalue.Recognize + Statement.ValueAt once cmd/shim has looked the
// owning statement up by Handle.
func (s *Statement) ColumnValue(pool *fakevalue.Pool, col int) unsafe.Pointer {
	s.mu.Lock()
	row := -1
	if s.Result != nil {
		row = s.Result.CurrentRow
	}
	s.mu.Unlock()
	return pool.Claim(s.Handle, col, row)
}

// onRow reports whether the cursor currently sits on a materialized row.
func (s *Statement) onRow() bool {
	return s.Result != nil && s.Result.CurrentRow >= 0 && s.Result.CurrentRow < s.Result.Snapshot.NumRows()
}

// ColumnCount returns the attached result's column count, or 0 with no
// result attached.
func (s *Statement) ColumnCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Result == nil {
		return 0
	}
	return s.Result.Snapshot.NumCols()
}

// DataCount returns ColumnCount while positioned on a row, 0 otherwise —
// distinct from ColumnCount, which reports the result's static width even
// before/after a row is current.
func (s *Statement) DataCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.onRow() {
		return 0
	}
	return s.Result.Snapshot.NumCols()
}

// ColumnName returns the name of column col, or "" if out of range.
func (s *Statement) ColumnName(col int) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Result == nil || col < 0 || col >= s.Result.Snapshot.NumCols() {
		return "", false
	}
	return s.Result.Snapshot.ColumnNames[col], true
}

// ColumnType returns the embedded-library column type for col, from the
// fixed server-type mapping.
func (s *Statement) ColumnType(col int) (result.ColType, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Result == nil || col < 0 || col >= s.Result.Snapshot.NumCols() {
		return result.Integer, false
	}
	return s.Result.Snapshot.ColumnTypes[col], true
}

// ColumnDeclType backs column_decltype: the declared type from the side
// metadata table when known, falling back to "" (cmd/shim derives a
// default from ColumnType when this reports false).
func (s *Statement) ColumnDeclType(col int) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.DeclTypes == nil || s.Result == nil || s.Result.Snapshot.SourceTable == "" {
		return "", false
	}
	if col < 0 || col >= s.Result.Snapshot.NumCols() {
		return "", false
	}
	name := s.Result.Snapshot.ColumnNames[col]
	return s.DeclTypes.Lookup(s.Result.Snapshot.SourceTable, name)
}

// ColumnInt64 returns the integer-coerced value of (col, current row).
func (s *Statement) ColumnInt64(col int) (v int64, isNull, ok bool) {
	text, isNull, ok := s.columnText(col)
	if !ok || isNull {
		return 0, isNull, ok
	}
	return result.CoerceInt64(text), false, true
}

// ColumnDouble returns the float-coerced value of (col, current row).
func (s *Statement) ColumnDouble(col int) (v float64, isNull, ok bool) {
	text, isNull, ok := s.columnText(col)
	if !ok || isNull {
		return 0, isNull, ok
	}
	return result.CoerceDouble(text), false, true
}

// ColumnText returns a slice backed by this statement's own text ring; it
// stays valid until the ring recycles its slot, after DefaultTextCapacity
// further ColumnText calls on this statement.
func (s *Statement) ColumnText(col int) (ptr []byte, isNull, ok bool) {
	text, isNull, ok := s.columnText(col)
	if !ok || isNull {
		return nil, isNull, ok
	}
	if s.textRing == nil {
		s.textRing = textpool.NewRing(textpool.DefaultTextCapacity, textpool.DefaultTextBufSize)
	}
	return s.textRing.PutString(text), false, true
}

// ColumnBlob decodes BYTEA hex text into a per-statement, per-row cache
// keyed by column index, returning a pointer stable until
// the row changes.
func (s *Statement) ColumnBlob(col int) (data []byte, isNull, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Result == nil || !s.Result.InBounds(col) {
		return nil, false, false
	}
	if cached, hit := s.BlobCache[col]; hit {
		return cached, false, true
	}

	text, null := s.Result.Text(col)
	if null {
		return nil, true, true
	}

	var decoded []byte
	if s.Result.Snapshot.ColumnTypes[col] == result.Blob {
		raw, okHex := result.DecodeHexBytea(text)
		if !okHex {
			return nil, false, false
		}
		decoded = raw
	} else {
		decoded = []byte(text)
	}

	if s.BlobCache == nil {
		s.BlobCache = make(map[int][]byte)
	}
	s.BlobCache[col] = decoded
	return decoded, false, true
}

// ColumnBytes is the length companion to ColumnBlob/ColumnText.
func (s *Statement) ColumnBytes(col int) int {
	if data, isNull, ok := s.ColumnBlob(col); ok && !isNull {
		return len(data)
	}
	return 0
}

// ColumnIsNull reports whether (col, current row) holds SQL NULL. ok is
// false when no result is attached or col is out of range.
func (s *Statement) ColumnIsNull(col int) (isNull, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Result == nil || !s.Result.InBounds(col) {
		return false, false
	}
	_, isNull = s.Result.Text(col)
	return isNull, true
}

// columnText is the shared bounds-checked text read every scalar column
// accessor coerces from.
func (s *Statement) columnText(col int) (text string, isNull, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Result == nil || !s.Result.InBounds(col) {
		return "", false, false
	}
	text, isNull = s.Result.Text(col)
	return text, isNull, true
}

// ValueAt resolves the raw text and null-ness for an arbitrary (col, row)
// pair against this statement's currently attached result — the routing
// target for the value_* accessor family once a fake value's magic check
// has identified its owning statement.
func (s *Statement) ValueAt(col, row int) (text string, isNull, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Result == nil || row < 0 || row >= s.Result.Snapshot.NumRows() || col < 0 || col >= s.Result.Snapshot.NumCols() {
		return "", false, false
	}
	v := s.Result.Snapshot.Rows[row][col]
	return v.String, !v.Valid, true
}

// ValueType reports the column type backing (col, row), for value_type.
func (s *Statement) ValueType(col, row int) (result.ColType, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Result == nil || col < 0 || col >= s.Result.Snapshot.NumCols() {
		return result.Integer, false
	}
	return s.Result.Snapshot.ColumnTypes[col], true
}
