package translate

import "testing"

func render(sql string, stage func([]Token) []Token) string {
	return Render(stage(Lex(sql)))
}

func TestRewriteIif(t *testing.T) {
	got := render("SELECT iif(x > 0, 'pos', 'neg') FROM t", rewriteIif)
	want := "SELECT CASE WHEN x > 0 THEN 'pos' ELSE 'neg' END FROM t"
	if got != want {
		t.Fatalf("got %q want %q", got, want)
	}
}

func TestRewriteIifWrongArity(t *testing.T) {
	sql := "SELECT iif(x) FROM t"
	if got := render(sql, rewriteIif); got != sql {
		t.Fatalf("expected untouched, got %q", got)
	}
}

func TestRewriteTypeof(t *testing.T) {
	got := render("SELECT typeof(x) FROM t WHERE typeof(x) = 'real'", rewriteTypeof)
	want := "SELECT pg_typeof(x)::text FROM t WHERE pg_typeof(x)::text = 'double precision'"
	if got != want {
		t.Fatalf("got %q want %q", got, want)
	}
}

func TestRewriteTypeofNoRealLiteralUntouchedWhenAbsent(t *testing.T) {
	got := render("SELECT 'real' FROM t", rewriteTypeof)
	if got != "SELECT 'real' FROM t" {
		t.Fatalf("unexpected rewrite of unrelated 'real' literal: %q", got)
	}
}

func TestRewriteStrftimeEpoch(t *testing.T) {
	got := render("SELECT strftime('%s', created_at) FROM t", rewriteStrftime)
	want := "SELECT EXTRACT(EPOCH FROM created_at)::bigint FROM t"
	if got != want {
		t.Fatalf("got %q want %q", got, want)
	}
}

func TestRewriteStrftimeFormat(t *testing.T) {
	got := render("SELECT strftime('%Y-%m-%d', d) FROM t", rewriteStrftime)
	want := "SELECT TO_CHAR(d, 'YYYY-MM-DD') FROM t"
	if got != want {
		t.Fatalf("got %q want %q", got, want)
	}
}

func TestRewriteUnixepochNow(t *testing.T) {
	got := render("SELECT unixepoch('now')", rewriteUnixepoch)
	want := "SELECT EXTRACT(EPOCH FROM NOW())::bigint"
	if got != want {
		t.Fatalf("got %q want %q", got, want)
	}
}

func TestRewriteUnixepochWithModifier(t *testing.T) {
	got := render("SELECT unixepoch('now', '+1 day')", rewriteUnixepoch)
	want := "SELECT EXTRACT(EPOCH FROM NOW() + INTERVAL '+1 day')::bigint"
	if got != want {
		t.Fatalf("got %q want %q", got, want)
	}
}

func TestRewriteDatetimeNow(t *testing.T) {
	got := render("SELECT datetime('now')", rewriteDatetimeNow)
	want := "SELECT NOW()"
	if got != want {
		t.Fatalf("got %q want %q", got, want)
	}
}

func TestRewriteDatetimeOtherArgUntouched(t *testing.T) {
	sql := "SELECT datetime(created_at)"
	if got := render(sql, rewriteDatetimeNow); got != sql {
		t.Fatalf("expected untouched, got %q", got)
	}
}

func TestRenameSimpleFunctions(t *testing.T) {
	got := render("SELECT ifnull(x, 0), substr(s, 1, 3) FROM t", renameSimpleFunctions)
	want := "SELECT coalesce(x, 0), substring(s, 1, 3) FROM t"
	if got != want {
		t.Fatalf("got %q want %q", got, want)
	}
}

func TestRewriteMinMaxScalar(t *testing.T) {
	got := render("SELECT max(a, b), max(x) FROM t GROUP BY c", rewriteMinMax)
	want := "SELECT GREATEST(a, b), max(x) FROM t GROUP BY c"
	if got != want {
		t.Fatalf("got %q want %q", got, want)
	}
}

func TestRewriteBooleanCaseMirror(t *testing.T) {
	got := render("SELECT CASE WHEN x THEN 1 ELSE 0 END FROM t", rewriteBooleanCaseMirror)
	want := "SELECT CASE WHEN x THEN TRUE ELSE FALSE END FROM t"
	if got != want {
		t.Fatalf("got %q want %q", got, want)
	}
}

func TestRewriteSubqueryAliasAddsAlias(t *testing.T) {
	got := render("SELECT * FROM (SELECT 1) WHERE 1=1", rewriteSubqueryAlias)
	want := "SELECT * FROM (SELECT 1) AS subq1 WHERE 1=1"
	if got != want {
		t.Fatalf("got %q want %q", got, want)
	}
}

func TestRewriteSubqueryAliasLeavesExistingAlone(t *testing.T) {
	sql := "SELECT * FROM (SELECT 1) AS x WHERE 1=1"
	if got := render(sql, rewriteSubqueryAlias); got != sql {
		t.Fatalf("expected untouched, got %q", got)
	}
}

func TestApplyFunctionStageOrder(t *testing.T) {
	got := render("SELECT iif(typeof(x) = 'real', 1, 0) FROM t", applyFunctionStage)
	want := "SELECT CASE WHEN pg_typeof(x)::text = 'double precision' THEN TRUE ELSE FALSE END FROM t"
	if got != want {
		t.Fatalf("got %q want %q", got, want)
	}
}
