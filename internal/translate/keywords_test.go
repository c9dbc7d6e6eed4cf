package translate

import "testing"

func TestRewriteBeginMode(t *testing.T) {
	got := render("BEGIN IMMEDIATE", rewriteBeginMode)
	if got != "BEGIN" {
		t.Fatalf("got %q", got)
	}
}

func TestRewriteBeginModePlainUntouched(t *testing.T) {
	sql := "BEGIN"
	if got := render(sql, rewriteBeginMode); got != sql {
		t.Fatalf("expected untouched, got %q", got)
	}
}

func TestRewriteReplaceInto(t *testing.T) {
	cases := map[string]string{
		"REPLACE INTO t VALUES (1)":          "INSERT INTO t VALUES (1)",
		"INSERT OR REPLACE INTO t VALUES(1)": "INSERT INTO t VALUES(1)",
		"INSERT OR IGNORE INTO t VALUES(1)":  "INSERT INTO t VALUES(1)",
		"INSERT INTO t VALUES(1)":            "INSERT INTO t VALUES(1)",
	}
	for sql, want := range cases {
		if got := render(sql, rewriteReplaceInto); got != want {
			t.Errorf("render(%q) = %q, want %q", sql, got, want)
		}
	}
}

func TestRewriteGlob(t *testing.T) {
	got := render("SELECT * FROM t WHERE name GLOB 'a*'", rewriteGlob)
	want := "SELECT * FROM t WHERE name LIKE 'a*'"
	if got != want {
		t.Fatalf("got %q want %q", got, want)
	}
}

func TestRewriteBackticks(t *testing.T) {
	got := render("SELECT `col` FROM `tbl`", rewriteBackticks)
	want := `SELECT "col" FROM "tbl"`
	if got != want {
		t.Fatalf("got %q want %q", got, want)
	}
}

func TestRewriteQuotedIdentLiterals(t *testing.T) {
	got := render("SELECT x AS 'alias' FROM t.'col'", rewriteQuotedIdentLiterals)
	want := `SELECT x AS "alias" FROM t."col"`
	if got != want {
		t.Fatalf("got %q want %q", got, want)
	}
}

func TestStripCollate(t *testing.T) {
	got := render("SELECT * FROM t ORDER BY name COLLATE NOCASE", stripCollate)
	want := "SELECT * FROM t ORDER BY name "
	if got != want {
		t.Fatalf("got %q want %q", got, want)
	}
}

func TestRewriteEmptyIn(t *testing.T) {
	got := render("SELECT * FROM t WHERE x IN ()", rewriteEmptyIn)
	want := "SELECT * FROM t WHERE x IN (NULL)"
	if got != want {
		t.Fatalf("got %q want %q", got, want)
	}
}

func TestRewriteEmptyInLeavesNonEmpty(t *testing.T) {
	sql := "SELECT * FROM t WHERE x IN (1, 2)"
	if got := render(sql, rewriteEmptyIn); got != sql {
		t.Fatalf("expected untouched, got %q", got)
	}
}

func TestStripIndexedBy(t *testing.T) {
	got := render("SELECT * FROM t INDEXED BY idx_t_x WHERE x = 1", stripIndexedBy)
	want := "SELECT * FROM t  WHERE x = 1"
	if got != want {
		t.Fatalf("got %q want %q", got, want)
	}
}

func TestRewriteSqliteMasterAddsAlias(t *testing.T) {
	got := render("SELECT name FROM sqlite_master WHERE type = 'table'", rewriteSqliteMaster)
	if got == "SELECT name FROM sqlite_master WHERE type = 'table'" {
		t.Fatal("expected rewrite, got untouched")
	}
	if !containsAll(got, "information_schema.tables", "AS sqlite_master") {
		t.Fatalf("got %q", got)
	}
}

func containsAll(s string, subs ...string) bool {
	for _, sub := range subs {
		if !contains(s, sub) {
			return false
		}
	}
	return true
}

func contains(s, sub string) bool {
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			return true
		}
	}
	return false
}
