package engine

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jabrown93/plex-postgresql-sub000/internal/result"
)

func twoRowSnapshot() *result.Snapshot {
	return &result.Snapshot{
		ColumnNames: []string{"id", "title"},
		ColumnTypes: []result.ColType{result.Integer, result.Text},
		Rows: [][]sql.NullString{
			{{String: "1", Valid: true}, {String: "first", Valid: true}},
			{{String: "2", Valid: true}, {String: "second", Valid: true}},
		},
	}
}

func TestStepSkipReturnsDoneWithoutServerWork(t *testing.T) {
	// Conn is nil: the skip path must never reach for a channel.
	s := Prepare(nil, "PRAGMA journal_mode=WAL", testDeps())
	res, err := s.Step(context.Background())
	require.NoError(t, err)
	require.Equal(t, Done, res)
}

func TestStepWriteExecutesAtMostOnce(t *testing.T) {
	// A write whose execution already happened returns done without
	// touching the connection; a nil Conn proves no server work runs.
	s := &Statement{Role: RoleWrite, WriteExecuted: true}
	for i := 0; i < 3; i++ {
		res, err := s.Step(context.Background())
		require.NoError(t, err)
		require.Equal(t, Done, res)
	}
}

func TestStepReadIteratesAttachedResult(t *testing.T) {
	s := &Statement{Role: RoleRead, Result: result.NewSet(twoRowSnapshot())}

	res, err := s.Step(context.Background())
	require.NoError(t, err)
	require.Equal(t, Row, res)

	res, err = s.Step(context.Background())
	require.NoError(t, err)
	require.Equal(t, Row, res)

	res, err = s.Step(context.Background())
	require.NoError(t, err)
	require.Equal(t, Done, res)
	require.Nil(t, s.Result, "result must be released eagerly at exhaustion")
}

func TestStepRowChangeInvalidatesBlobCache(t *testing.T) {
	s := &Statement{Role: RoleRead, Result: result.NewSet(twoRowSnapshot())}

	_, err := s.Step(context.Background())
	require.NoError(t, err)
	_, _, ok := s.ColumnBlob(1)
	require.True(t, ok)
	require.NotNil(t, s.BlobCache)

	_, err = s.Step(context.Background())
	require.NoError(t, err)
	require.Nil(t, s.BlobCache, "blob cache is keyed by current row and must not survive it")
}

func TestResetClearsParamsResultAndWriteGate(t *testing.T) {
	s := &Statement{Role: RoleWrite, ParamCount: 2}
	require.NoError(t, s.BindInt64(1, 42))
	require.NoError(t, s.BindText(2, "hello"))
	s.WriteExecuted = true
	s.Result = result.NewSet(twoRowSnapshot())
	s.BlobCache = map[int][]byte{0: {1}}

	s.Reset()

	require.Equal(t, ParamUnset, s.Params[0].Kind)
	require.Equal(t, ParamUnset, s.Params[1].Kind)
	require.False(t, s.WriteExecuted)
	require.Nil(t, s.Result)
	require.Nil(t, s.BlobCache)
}

func TestClearBindingsLeavesResultAndGateAlone(t *testing.T) {
	s := &Statement{Role: RoleWrite, ParamCount: 1, WriteExecuted: true}
	require.NoError(t, s.BindInt64(1, 7))
	s.Result = result.NewSet(twoRowSnapshot())

	s.ClearBindings()

	require.Equal(t, ParamUnset, s.Params[0].Kind)
	require.True(t, s.WriteExecuted)
	require.NotNil(t, s.Result)
}

func TestBindIndexOutOfRange(t *testing.T) {
	s := &Statement{ParamCount: 1}
	require.Error(t, s.BindInt64(0, 1))
	require.Error(t, s.BindInt64(2, 1))
	require.NoError(t, s.BindInt64(1, 1))
}

func TestBindOverwriteReplacesOwnedBuffer(t *testing.T) {
	s := &Statement{ParamCount: 1}
	require.NoError(t, s.BindText(1, "owned"))
	require.Equal(t, ParamText, s.Params[0].Kind)
	require.NoError(t, s.BindInt64(1, 9))
	require.Equal(t, ParamInt64, s.Params[0].Kind)
	require.Nil(t, s.Params[0].Buf)
}

func TestPrimaryTableOf(t *testing.T) {
	cases := map[string]string{
		"SELECT id FROM media_items WHERE x = $1":       "media_items",
		`SELECT id FROM "media items"`:                  "media items",
		"INSERT INTO accounts (name) VALUES ($1)":       "accounts",
		"SELECT 1 FROM (SELECT 1) subq1":                "",
		"SELECT 1":                                      "",
		"select lower(name) from   metadata_items":      "metadata_items",
	}
	for sql, want := range cases {
		require.Equal(t, want, primaryTableOf(sql), "sql: %s", sql)
	}
}
