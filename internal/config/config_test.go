package config

import (
	"os"
	"testing"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"HOST", "PORT", "DATABASE", "USER", "PASSWORD", "SCHEMA",
		"CONNECT_TIMEOUT_SECONDS", "POOL_SIZE", "REDIRECT_PATTERNS",
		"POOL_PATTERNS", "SKIP_PATTERNS", "LOG_PATH", "LOG_LEVEL",
		"UPSERT_TABLE", "UPSERT_CONFLICT_COLUMNS", "UPSERT_TOGGLE_COLUMN",
	} {
		os.Unsetenv(k)
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	c, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Host != "localhost" || c.Port != 5432 || c.Database != "plex" ||
		c.User != "plex" || c.Schema != "plex" {
		t.Fatalf("unexpected defaults: %+v", c)
	}
	if len(c.SkipPatterns) == 0 {
		t.Fatal("expected default skip patterns")
	}
	if c.UpsertTable == "" || len(c.UpsertConflictColumns) == 0 {
		t.Fatalf("expected default upsert rule selection: %+v", c)
	}
}

func TestLoadOverrides(t *testing.T) {
	clearEnv(t)
	os.Setenv("HOST", "db.internal")
	os.Setenv("PORT", "6543")
	os.Setenv("REDIRECT_PATTERNS", "com.plexapp.plugins.library.db, other.db")
	os.Setenv("POOL_SIZE", "4")
	defer clearEnv(t)

	c, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Host != "db.internal" || c.Port != 6543 {
		t.Fatalf("overrides not applied: %+v", c)
	}
	if len(c.RedirectPatterns) != 2 || c.RedirectPatterns[0] != "com.plexapp.plugins.library.db" {
		t.Fatalf("unexpected redirect patterns: %v", c.RedirectPatterns)
	}
	if c.PoolSize != 4 {
		t.Fatalf("expected pool size 4, got %d", c.PoolSize)
	}
}

func TestLoadRejectsBadPort(t *testing.T) {
	clearEnv(t)
	os.Setenv("PORT", "not-a-number")
	defer clearEnv(t)

	if _, err := Load(); err == nil {
		t.Fatal("expected error for invalid PORT")
	}
}

func TestLoadRejectsBadSchema(t *testing.T) {
	clearEnv(t)
	os.Setenv("SCHEMA", "bad schema; drop table")
	defer clearEnv(t)

	if _, err := Load(); err == nil {
		t.Fatal("expected error for invalid SCHEMA identifier")
	}
}

func TestLoadRejectsZeroPoolSize(t *testing.T) {
	clearEnv(t)
	os.Setenv("POOL_SIZE", "0")
	defer clearEnv(t)

	if _, err := Load(); err == nil {
		t.Fatal("expected error for zero POOL_SIZE")
	}
}

func TestDSN(t *testing.T) {
	c := &Config{Host: "h", Port: 1, Database: "d", User: "u", Password: "p", ConnectTimeoutSeconds: 3}
	dsn := c.DSN()
	if dsn == "" {
		t.Fatal("expected non-empty DSN")
	}
}
