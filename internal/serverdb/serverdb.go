// Package serverdb wraps the server wire connection the shim redirects
// statement traffic to: database/sql over lib/pq, opened with the
// host/port/db/user/password + connect-timeout string Config produces.
package serverdb

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	_ "github.com/lib/pq"

	"github.com/jabrown93/plex-postgresql-sub000/internal/pscache"
	"github.com/jabrown93/plex-postgresql-sub000/internal/shimerr"
)

// Channel is one physical connection to the server, reserved either to a
// Connection or to a pool slot. It owns the per-connection prepared-
// statement lifecycle (open/close of *sql.Conn) and exposes the narrow wire
// surface the shim needs: connect, SET search_path, one-shot exec,
// prepare/exec/query, status inspection.
//
// Prepared lives here rather than on connreg.Connection because a server-
// side PREPARE is scoped to the physical wire it ran on: a pooled channel
// borrowed by a different thread needs its own cache entry
// for the same sql_hash, even though both channels may back the same
// logical Connection.
type Channel struct {
	mu       sync.Mutex
	db       *sql.DB
	conn     *sql.Conn
	schema   string
	dsn      string
	Prepared *pscache.Cache
}

// Connect opens a channel against dsn and sets search_path to schema.
func Connect(ctx context.Context, dsn, schema string) (*Channel, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, shimerr.Wrap(shimerr.ConnectionFailure, err)
	}
	conn, err := db.Conn(ctx)
	if err != nil {
		db.Close()
		return nil, shimerr.Wrap(shimerr.ConnectionFailure, err)
	}
	c := &Channel{db: db, conn: conn, schema: schema, dsn: dsn, Prepared: pscache.New()}
	if err := c.setSearchPath(ctx); err != nil {
		c.Close()
		return nil, err
	}
	return c, nil
}

func (c *Channel) setSearchPath(ctx context.Context) error {
	_, err := c.conn.ExecContext(ctx, fmt.Sprintf("SET search_path TO %s", c.schema))
	if err != nil {
		return shimerr.Wrap(shimerr.ConnectionFailure, err)
	}
	return nil
}

// Status reports whether the channel's underlying connection is still
// usable. Checked before every pre-execute call.
func (c *Channel) Status(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.conn.PingContext(ctx); err != nil {
		return shimerr.Wrap(shimerr.ConnectionFailure, err)
	}
	return nil
}

// Reconnect tears down and re-establishes the underlying connection,
// reapplying search_path. Called once on a detected broken channel.
//
// A fresh physical connection knows nothing of statements PREPAREd on the
// old one, so the prepared-statement cache is discarded along with it
// (the stale *sql.Stmt handles died with the old conn and are not closed
// again here).
func (c *Channel) Reconnect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn.Close()
	conn, err := c.db.Conn(ctx)
	if err != nil {
		return shimerr.Wrap(shimerr.ConnectionFailure, err)
	}
	c.conn = conn
	c.Prepared = pscache.New()
	return c.setSearchPath(ctx)
}

// PrepareNamed prepares sql against the channel. stmtName is not sent to
// the server: lib/pq picks the server-side statement name itself, and
// stmtName only labels the statement on the shim's side. database/sql's
// own PrepareContext already gives a
// server-side parsed statement reusable across executions — the same
// on-wire effect as a textual PREPARE/EXECUTE/DEALLOCATE sequence, reached
// through the driver interface (see DESIGN.md's Open Question decision).
func (c *Channel) PrepareNamed(ctx context.Context, stmtName, sqlText string) (*sql.Stmt, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	stmt, err := c.conn.PrepareContext(ctx, sqlText)
	if err != nil {
		return nil, shimerr.Wrap(shimerr.ServerExecFailure, err)
	}
	return stmt, nil
}

// Exec runs a one-shot statement with no caching. The engine's direct-exec
// path does not use it; that path goes through the prepared-statement cache.
func (c *Channel) Exec(ctx context.Context, sqlText string, args ...any) (sql.Result, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	res, err := c.conn.ExecContext(ctx, sqlText, args...)
	if err != nil {
		return nil, shimerr.Wrap(shimerr.ServerExecFailure, err)
	}
	return res, nil
}

// Query runs a read, returning server rows.
func (c *Channel) Query(ctx context.Context, sqlText string, args ...any) (*sql.Rows, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	rows, err := c.conn.QueryContext(ctx, sqlText, args...)
	if err != nil {
		return nil, shimerr.Wrap(shimerr.ServerExecFailure, err)
	}
	return rows, nil
}

// LastVal runs "SELECT lastval()", the fallback id-retrieval path for
// writes whose translated SQL couldn't carry a RETURNING clause.
func (c *Channel) LastVal(ctx context.Context) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var id int64
	if err := c.conn.QueryRowContext(ctx, "SELECT lastval()").Scan(&id); err != nil {
		return 0, shimerr.Wrap(shimerr.ServerExecFailure, err)
	}
	return id, nil
}

// Close releases the channel's resources. Prepared statements held by
// internal/pscache against this channel die with it.
func (c *Channel) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Prepared.Close()
	c.conn.Close()
	return c.db.Close()
}
