package engine

import (
	"context"
	"strings"

	"github.com/jabrown93/plex-postgresql-sub000/internal/classify"
	"github.com/jabrown93/plex-postgresql-sub000/internal/connreg"
	"github.com/jabrown93/plex-postgresql-sub000/internal/hashkey"
	"github.com/jabrown93/plex-postgresql-sub000/internal/result"
	"github.com/jabrown93/plex-postgresql-sub000/internal/serverdb"
	"github.com/jabrown93/plex-postgresql-sub000/internal/shimerr"
	"github.com/jabrown93/plex-postgresql-sub000/internal/translate"
)

// DirectExec is the one-shot execution path behind the exec/get_table entry
// points: no statement object, no bind cycle. When the SQL
// carries no placeholders of its own, numeric literals are extracted and
// replaced with $N so that literal-only variations of the same statement
// share one prepared-statement cache entry; the extracted literals are then
// passed back in as parameters.
//
// A nil Snapshot with a nil error means the statement was skipped or was a
// write; the caller surfaces success with no rows either way.
func DirectExec(ctx context.Context, conn *connreg.Connection, pool *connreg.Pool, originalSQL string, deps Deps) (*result.Snapshot, error) {
	if deps.Classifier.Skip(originalSQL) {
		return nil, nil
	}

	res := translate.Translate(originalSQL)
	if !res.Success {
		return nil, shimerr.Wrap(shimerr.TranslationFailure, res.Err)
	}

	sqlText := res.SQL
	var args []any
	if res.ParamCount == 0 {
		normalized, literals := translate.Normalize(sqlText)
		sqlText = normalized
		args = make([]any, len(literals))
		for i, v := range literals {
			args[i] = v
		}
	}

	hash := hashkey.SQL(sqlText)
	stmtName := hashkey.StatementName(hash)

	var ch *serverdb.Channel
	if pool != nil {
		var err error
		ch, err = pool.Acquire(ctx)
		if err != nil {
			return nil, err
		}
	} else {
		ch = conn.Channel
		conn.Lock()
		defer conn.Unlock()
	}
	if err := ensureLive(ctx, ch); err != nil {
		conn.Active.Store(false)
		return nil, err
	}

	entry, err := ensurePrepared(ctx, ch, stmtName, sqlText, hash)
	if err != nil {
		return nil, err
	}

	if classify.Classify(originalSQL) == classify.Read {
		rows, err := entry.Stmt.QueryContext(ctx, args...)
		if err != nil {
			return nil, err
		}
		snap, err := result.LoadSnapshot(rows)
		if err != nil {
			return nil, err
		}
		snap.SourceTable = primaryTableOf(sqlText)
		return snap, nil
	}

	execRes, err := entry.Stmt.ExecContext(ctx, args...)
	if err != nil {
		conn.LastChanges = 0
		return nil, err
	}
	n, _ := execRes.RowsAffected()
	conn.LastChanges = n
	if isInsert(originalSQL) {
		// No RETURNING on this path; fall back to lastval().
		if id, lerr := ch.LastVal(ctx); lerr == nil {
			conn.LastInsertRowID = id
		}
	}
	return nil, nil
}

func isInsert(sql string) bool {
	t := strings.TrimLeft(sql, " \t\r\n")
	return (len(t) >= 6 && strings.EqualFold(t[:6], "INSERT")) ||
		(len(t) >= 7 && strings.EqualFold(t[:7], "REPLACE"))
}

// primaryTableOf resolves the table a result set's columns come from, for
// the declared-type lookup backing column_decltype. The
// first identifier after FROM (or INTO for writes) is taken as the source
// table, so a join resolves to its first table. A subquery in FROM leaves
// it unresolved and the accessors fall back to the type-name mapping.
func primaryTableOf(sql string) string {
	toks := translate.Lex(sql)
	for i, t := range toks {
		if !t.Is("FROM") && !t.Is("INTO") {
			continue
		}
		for j := i + 1; j < len(toks); j++ {
			switch toks[j].Kind {
			case translate.Space:
				continue
			case translate.Ident:
				return toks[j].Text
			case translate.QIdent:
				return strings.Trim(toks[j].Text, `"`)
			default:
				return ""
			}
		}
	}
	return ""
}
