package engine

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jabrown93/plex-postgresql-sub000/internal/fakevalue"
	"github.com/jabrown93/plex-postgresql-sub000/internal/result"
)

// readOnRow builds a read statement positioned on its first row.
func readOnRow(t *testing.T, snap *result.Snapshot) *Statement {
	t.Helper()
	s := &Statement{Role: RoleRead, Result: result.NewSet(snap)}
	res, err := s.Step(context.Background())
	require.NoError(t, err)
	require.Equal(t, Row, res)
	return s
}

func TestColumnAccessorsBoundsSafe(t *testing.T) {
	s := readOnRow(t, twoRowSnapshot())

	for _, col := range []int{-1, 2, 99} {
		_, _, ok := s.ColumnInt64(col)
		require.False(t, ok, "ColumnInt64(%d)", col)
		_, _, ok = s.ColumnText(col)
		require.False(t, ok, "ColumnText(%d)", col)
		_, _, ok = s.ColumnBlob(col)
		require.False(t, ok, "ColumnBlob(%d)", col)
		require.Zero(t, s.ColumnBytes(col))
		_, ok = s.ColumnName(col)
		require.False(t, ok)
	}

	// A statement with no result attached reports empty everything.
	empty := &Statement{Role: RoleRead}
	require.Zero(t, empty.ColumnCount())
	require.Zero(t, empty.DataCount())
	_, _, ok := empty.ColumnInt64(0)
	require.False(t, ok)
}

func TestDataCountTracksCursor(t *testing.T) {
	s := &Statement{Role: RoleRead, Result: result.NewSet(twoRowSnapshot())}
	require.Equal(t, 2, s.ColumnCount())
	require.Zero(t, s.DataCount(), "no row is current before the first step")

	_, err := s.Step(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, s.DataCount())
}

func TestColumnBooleanCoercion(t *testing.T) {
	snap := &result.Snapshot{
		ColumnNames: []string{"watched"},
		ColumnTypes: []result.ColType{result.Integer}, // bool maps to INTEGER
		Rows:        [][]sql.NullString{{{String: "t", Valid: true}}},
	}
	s := readOnRow(t, snap)

	typ, ok := s.ColumnType(0)
	require.True(t, ok)
	require.Equal(t, result.Integer, typ)

	v, isNull, ok := s.ColumnInt64(0)
	require.True(t, ok)
	require.False(t, isNull)
	require.EqualValues(t, 1, v)

	text, isNull, ok := s.ColumnText(0)
	require.True(t, ok)
	require.False(t, isNull)
	require.Equal(t, "t", string(text))
}

func TestColumnBlobHexDecode(t *testing.T) {
	snap := &result.Snapshot{
		ColumnNames: []string{"data"},
		ColumnTypes: []result.ColType{result.Blob},
		Rows:        [][]sql.NullString{{{String: `\x00ff7f`, Valid: true}}},
	}
	s := readOnRow(t, snap)

	data, isNull, ok := s.ColumnBlob(0)
	require.True(t, ok)
	require.False(t, isNull)
	require.Equal(t, []byte{0x00, 0xFF, 0x7F}, data)
	require.Equal(t, 3, s.ColumnBytes(0))

	// Second read must come from the per-row cache, not a fresh decode.
	again, _, _ := s.ColumnBlob(0)
	require.Equal(t, &data[0], &again[0])
}

func TestColumnNullSemantics(t *testing.T) {
	snap := &result.Snapshot{
		ColumnNames: []string{"a"},
		ColumnTypes: []result.ColType{result.Text},
		Rows:        [][]sql.NullString{{{Valid: false}}},
	}
	s := readOnRow(t, snap)

	isNull, ok := s.ColumnIsNull(0)
	require.True(t, ok)
	require.True(t, isNull)

	v, isNull, ok := s.ColumnInt64(0)
	require.True(t, ok)
	require.True(t, isNull)
	require.Zero(t, v)
}

func TestColumnValueRoutesBackThroughStatement(t *testing.T) {
	s := readOnRow(t, twoRowSnapshot())
	s.Handle = 0xBEEF

	pool := fakevalue.NewPool()
	ptr := s.ColumnValue(pool, 1)
	require.NotNil(t, ptr)

	fv, ok := fakevalue.Recognize(ptr)
	require.True(t, ok)
	require.Equal(t, uintptr(0xBEEF), fv.StmtHandle)
	require.Equal(t, 1, fv.Column)
	require.Equal(t, 0, fv.Row)

	text, isNull, ok := s.ValueAt(fv.Column, fv.Row)
	require.True(t, ok)
	require.False(t, isNull)
	require.Equal(t, "first", text)
}

func TestValueAtBoundsSafe(t *testing.T) {
	s := readOnRow(t, twoRowSnapshot())
	for _, pair := range [][2]int{{-1, 0}, {0, -1}, {5, 0}, {0, 5}} {
		_, _, ok := s.ValueAt(pair[0], pair[1])
		require.False(t, ok, "ValueAt(%d, %d)", pair[0], pair[1])
	}
}

func TestColumnDeclTypeFallsBackWithoutSourceTable(t *testing.T) {
	s := readOnRow(t, twoRowSnapshot())
	s.DeclTypes = result.NewDeclTypeCache()
	_, ok := s.ColumnDeclType(0)
	require.False(t, ok, "no source table resolved, lookup must miss")
}
