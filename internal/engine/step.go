package engine

import (
	"context"

	"github.com/jabrown93/plex-postgresql-sub000/internal/obslog"
	"github.com/jabrown93/plex-postgresql-sub000/internal/pscache"
	"github.com/jabrown93/plex-postgresql-sub000/internal/result"
	"github.com/jabrown93/plex-postgresql-sub000/internal/serverdb"
	"github.com/jabrown93/plex-postgresql-sub000/internal/shimerr"
)

// Step advances the statement's execution. It never returns an error to
// the host in the ABI sense: failures are logged and surfaced as Done,
// since the host application lacks a retry path and crashing it on server
// hiccups is unacceptable. The error is still returned here so callers
// (tests, cmd/shim's own diagnostics) can observe what happened.
func (s *Statement) Step(ctx context.Context) (StepResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.Role {
	case RoleSkip:
		return Done, nil

	case RoleWrite, RoleOther:
		if s.WriteExecuted {
			return Done, nil
		}
		err := s.executeWrite(ctx)
		s.WriteExecuted = true
		return Done, err

	case RoleRead:
		if s.Result == nil {
			if err := s.executeRead(ctx); err != nil {
				return Done, err
			}
			if s.Result == nil { // executeRead logged a failure and left no result
				return Done, nil
			}
			if !s.Result.Advance() {
				s.Result = nil
				return Done, nil
			}
			s.BlobCache = nil
			return Row, nil
		}
		if !s.Result.Advance() {
			s.Result = nil // release eagerly; the host may never reset
			return Done, nil
		}
		s.BlobCache = nil
		return Row, nil

	default:
		return Done, nil
	}
}

// pickChannel returns the physical channel this statement should execute
// on: the calling thread's pool channel if Pool is configured, else the
// statement's own Connection channel. pooled reports which case applied,
// so the caller knows whether the per-connection mutex still needs taking
// (a pool channel is thread-owned and needs no connection mutex).
func (s *Statement) pickChannel(ctx context.Context) (ch *serverdb.Channel, pooled bool, err error) {
	if s.Pool != nil {
		ch, err = s.Pool.Acquire(ctx)
		return ch, true, err
	}
	return s.Conn.Channel, false, nil
}

// ensureLive verifies ch's status and reconnects once on failure, before
// every execute.
func ensureLive(ctx context.Context, ch *serverdb.Channel) error {
	if err := ch.Status(ctx); err == nil {
		return nil
	}
	if err := ch.Reconnect(ctx); err != nil {
		return shimerr.Wrap(shimerr.ConnectionFailure, err)
	}
	return nil
}

// ensurePrepared returns the cached prepared statement for hash on ch,
// preparing and inserting it on a miss.
func ensurePrepared(ctx context.Context, ch *serverdb.Channel, stmtName, sqlText string, hash uint64) (*pscache.Entry, error) {
	if e, ok := ch.Prepared.Lookup(hash); ok {
		return e, nil
	}
	stmt, err := ch.PrepareNamed(ctx, stmtName, sqlText)
	if err != nil {
		return nil, err
	}
	e := &pscache.Entry{Stmt: stmt, StmtName: stmtName}
	ch.Prepared.Insert(hash, e)
	return e, nil
}

// executeWrite runs the write path:
// pick channel, ensure prepared, EXECUTE, update last_changes/
// last_insert_rowid, then stash a generator id if this insert carried one.
func (s *Statement) executeWrite(ctx context.Context) error {
	ch, pooled, err := s.pickChannel(ctx)
	if err != nil {
		s.logFailure(shimerr.ConnectionFailure, err)
		return err
	}
	if !pooled {
		s.Conn.Lock()
		defer s.Conn.Unlock()
	}
	if err := ensureLive(ctx, ch); err != nil {
		s.logFailure(shimerr.ConnectionFailure, err)
		s.Conn.Active.Store(false)
		return err
	}

	entry, err := ensurePrepared(ctx, ch, s.StmtName, s.SQL, s.SQLHash)
	if err != nil {
		s.logFailure(shimerr.ServerExecFailure, err)
		s.Conn.LastChanges = 0
		return err
	}

	args := s.driverArgs()

	if s.ReturningInjected {
		rows, err := entry.Stmt.QueryContext(ctx, args...)
		if err != nil {
			s.logFailure(shimerr.ServerExecFailure, err)
			s.Conn.LastChanges = 0
			return err
		}
		defer rows.Close()

		var n, lastID int64
		for rows.Next() {
			n++
			_ = rows.Scan(&lastID)
		}
		s.Conn.LastChanges = n
		if n > 0 {
			s.Conn.LastInsertRowID = lastID
		}
	} else {
		res, err := entry.Stmt.ExecContext(ctx, args...)
		if err != nil {
			s.logFailure(shimerr.ServerExecFailure, err)
			s.Conn.LastChanges = 0
			return err
		}
		n, _ := res.RowsAffected()
		s.Conn.LastChanges = n
	}

	if s.GenID != nil {
		if id, ok := genIDFromInsert(s.OriginalSQL); ok {
			s.GenID.Set(id)
		}
	}
	return nil
}

// executeRead runs the read path: substitute a pending generator id into
// any "IN (NULL)" placeholder, ensure prepared under the
// (possibly substitution-specific) hash, QUERY, and materialize a Snapshot.
func (s *Statement) executeRead(ctx context.Context) error {
	finalSQL := s.SQL
	hash, stmtName := s.SQLHash, s.StmtName
	if s.GenID != nil {
		if substituted := s.GenID.SubstituteEmptyIN(s.SQL); substituted != s.SQL {
			finalSQL = substituted
			hash = sqlHashOf(finalSQL)
			stmtName = stmtNameOf(hash)
		}
	}

	ch, pooled, err := s.pickChannel(ctx)
	if err != nil {
		s.logFailure(shimerr.ConnectionFailure, err)
		return err
	}
	if !pooled {
		s.Conn.Lock()
		defer s.Conn.Unlock()
	}
	if err := ensureLive(ctx, ch); err != nil {
		s.logFailure(shimerr.ConnectionFailure, err)
		s.Conn.Active.Store(false)
		return err
	}

	entry, err := ensurePrepared(ctx, ch, stmtName, finalSQL, hash)
	if err != nil {
		s.logFailure(shimerr.ServerExecFailure, err)
		return err
	}

	rows, err := entry.Stmt.QueryContext(ctx, s.driverArgs()...)
	if err != nil {
		s.logFailure(shimerr.ServerExecFailure, err)
		return err
	}

	snap, err := result.LoadSnapshot(rows)
	if err != nil {
		s.logFailure(shimerr.ServerExecFailure, err)
		return err
	}
	snap.SourceTable = primaryTableOf(finalSQL)
	s.Result = result.NewSet(snap)
	return nil
}

func (s *Statement) logFailure(kind shimerr.Kind, cause error) {
	l := obslog.WithStatement(s.log, hashText(s.SQLHash), s.Role.String())
	l.Error().Err(cause).Str("sql", s.SQL).Str("original_sql", s.OriginalSQL).Msg(kind.String())
}
