// Package config reads the shim's connection endpoint, schema, and
// redirect/skip pattern lists from the process environment once, at load
// time. The whole surface is a handful of flat environment variables with
// defaults, so it is read directly with the standard library; see
// DESIGN.md.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/jabrown93/plex-postgresql-sub000/internal/shimerr"
)

// Config is the process-wide configuration snapshot, read once at load time.
type Config struct {
	Host     string
	Port     int
	Database string
	User     string
	Password string
	Schema   string

	ConnectTimeoutSeconds int

	RedirectPatterns []string
	PoolPatterns     []string
	PoolSize         int

	SkipPatterns []string

	// UpsertTable selects which table's plain INSERTs are rewritten into an
	// explicit upsert, with UpsertConflictColumns as the conflict key and
	// UpsertToggleColumn flipped rather than overwritten on conflict. The
	// rule itself lives in internal/policy; config only selects its target.
	UpsertTable           string
	UpsertConflictColumns []string
	UpsertToggleColumn    string

	LogPath  string
	LogLevel string
}

const (
	defaultHost     = "localhost"
	defaultPort     = 5432
	defaultDatabase = "plex"
	defaultUser     = "plex"
	defaultPassword = ""
	defaultSchema   = "plex"

	defaultConnectTimeoutSeconds = 5
	defaultPoolSize              = 8

	defaultLogPath  = "/var/log/plex-postgresql-shim.log"
	defaultLogLevel = "INFO"

	defaultUpsertTable    = "metadata_item_settings"
	defaultUpsertConflict = "account_id,guid"
	defaultUpsertToggle   = "watched"
)

// DefaultSkipPatterns covers the maintenance/attach/FTS/savepoint/pragma/
// extension-loading constructs the server cannot host, applied
// case-insensitively. Overridable via SKIP_PATTERNS.
var DefaultSkipPatterns = []string{
	"pragma ",
	"attach database",
	"detach database",
	"sqlite_sequence",
	"create virtual table",
	"fts4",
	"fts5",
	"savepoint",
	"release savepoint",
	"rollback to",
	"rollback;",
	"rollback ",
	"load_extension",
	"sqlite_compileoption",
	"vacuum",
	"reindex",
	"analyze",
}

// Load reads Config from the environment, applying the documented
// defaults, and validates the values a broken SET search_path or pool would
// otherwise surface only on first use.
func Load() (*Config, error) {
	c := &Config{
		Host:                  getenv("HOST", defaultHost),
		Port:                  defaultPort,
		Database:              getenv("DATABASE", defaultDatabase),
		User:                  getenv("USER", defaultUser),
		Password:              getenv("PASSWORD", defaultPassword),
		Schema:                getenv("SCHEMA", defaultSchema),
		ConnectTimeoutSeconds: defaultConnectTimeoutSeconds,
		PoolSize:              defaultPoolSize,
		LogPath:               getenv("LOG_PATH", defaultLogPath),
		LogLevel:              strings.ToUpper(getenv("LOG_LEVEL", defaultLogLevel)),
	}

	if v, ok := os.LookupEnv("PORT"); ok {
		p, err := strconv.Atoi(v)
		if err != nil {
			return nil, shimerr.Wrap(shimerr.BadInput, fmt.Errorf("PORT=%q: %w", v, err))
		}
		c.Port = p
	}

	if v, ok := os.LookupEnv("CONNECT_TIMEOUT_SECONDS"); ok {
		t, err := strconv.Atoi(v)
		if err != nil {
			return nil, shimerr.Wrap(shimerr.BadInput, fmt.Errorf("CONNECT_TIMEOUT_SECONDS=%q: %w", v, err))
		}
		c.ConnectTimeoutSeconds = t
	}

	if v, ok := os.LookupEnv("POOL_SIZE"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, shimerr.Wrap(shimerr.BadInput, fmt.Errorf("POOL_SIZE=%q: %w", v, err))
		}
		c.PoolSize = n
	}
	if c.PoolSize <= 0 {
		return nil, shimerr.New(shimerr.BadInput, "POOL_SIZE must be > 0")
	}

	c.RedirectPatterns = splitCSV(os.Getenv("REDIRECT_PATTERNS"))
	c.PoolPatterns = splitCSV(os.Getenv("POOL_PATTERNS"))

	if v, ok := os.LookupEnv("SKIP_PATTERNS"); ok {
		c.SkipPatterns = splitCSV(v)
	} else {
		c.SkipPatterns = append([]string(nil), DefaultSkipPatterns...)
	}

	c.UpsertTable = getenv("UPSERT_TABLE", defaultUpsertTable)
	c.UpsertConflictColumns = splitCSV(getenv("UPSERT_CONFLICT_COLUMNS", defaultUpsertConflict))
	c.UpsertToggleColumn = getenv("UPSERT_TOGGLE_COLUMN", defaultUpsertToggle)

	if !isValidIdentifier(c.Schema) {
		return nil, shimerr.New(shimerr.BadInput, fmt.Sprintf("SCHEMA %q is not a valid unquoted identifier", c.Schema))
	}

	return c, nil
}

func getenv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func splitCSV(v string) []string {
	if strings.TrimSpace(v) == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func isValidIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r == '_':
		case r >= '0' && r <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}

// DSN builds the libpq-style connection string lib/pq expects.
func (c *Config) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d dbname=%s user=%s password=%s connect_timeout=%d sslmode=disable",
		c.Host, c.Port, c.Database, c.User, c.Password, c.ConnectTimeoutSeconds,
	)
}
