package translate

import (
	"testing"

	"github.com/jabrown93/plex-postgresql-sub000/internal/shimerr"
)

func TestTranslatePositionalPlaceholders(t *testing.T) {
	r := Translate("SELECT * FROM t WHERE a = ? AND b = ?")
	if !r.Success {
		t.Fatalf("unexpected failure: %v", r.Err)
	}
	want := "SELECT * FROM t WHERE a = $1 AND b = $2"
	if r.SQL != want {
		t.Fatalf("got %q want %q", r.SQL, want)
	}
	if r.ParamCount != 2 {
		t.Fatalf("ParamCount = %d, want 2", r.ParamCount)
	}
	for _, n := range r.ParamNames {
		if n != nil {
			t.Fatalf("expected nil name for positional param, got %q", *n)
		}
	}
}

func TestTranslateNamedPlaceholdersReuseNumber(t *testing.T) {
	r := Translate("SELECT * FROM t WHERE a = :x OR b = :x OR c = :y")
	if !r.Success {
		t.Fatalf("unexpected failure: %v", r.Err)
	}
	want := "SELECT * FROM t WHERE a = $1 OR b = $1 OR c = $2"
	if r.SQL != want {
		t.Fatalf("got %q want %q", r.SQL, want)
	}
	if r.ParamCount != 2 {
		t.Fatalf("ParamCount = %d, want 2", r.ParamCount)
	}
	if r.ParamNames[0] == nil || *r.ParamNames[0] != "x" {
		t.Fatalf("ParamNames[0] = %v, want x", r.ParamNames[0])
	}
	if r.ParamNames[1] == nil || *r.ParamNames[1] != "y" {
		t.Fatalf("ParamNames[1] = %v, want y", r.ParamNames[1])
	}
}

func TestTranslateNeverSplitsStringLiteral(t *testing.T) {
	r := Translate("SELECT 'iif(x) GLOB sqlite_master' FROM t")
	if !r.Success {
		t.Fatalf("unexpected failure: %v", r.Err)
	}
	want := "SELECT 'iif(x) GLOB sqlite_master' FROM t"
	if r.SQL != want {
		t.Fatalf("literal contents must survive untouched, got %q", r.SQL)
	}
}

func TestTranslateUnterminatedQuoteFails(t *testing.T) {
	r := Translate("SELECT 'unterminated FROM t")
	if r.Success {
		t.Fatalf("expected failure, got success SQL %q", r.SQL)
	}
	if !shimerr.Is(r.Err, shimerr.TranslationFailure) {
		t.Fatalf("expected TranslationFailure, got %v", r.Err)
	}
}

func TestTranslateIdempotentOnAlreadyTranslatedSQL(t *testing.T) {
	first := Translate("SELECT iif(x>0,1,0), ifnull(y, 0) FROM t WHERE z = ?")
	second := Translate(first.SQL)
	if !second.Success {
		t.Fatalf("unexpected failure on second pass: %v", second.Err)
	}
	if second.SQL != first.SQL {
		t.Fatalf("translation not idempotent: first %q second %q", first.SQL, second.SQL)
	}
}

func TestTranslateFullPipeline(t *testing.T) {
	sql := "INSERT OR REPLACE INTO `metadata_items` (id, title) VALUES (?, 'x''y')"
	r := Translate(sql)
	if !r.Success {
		t.Fatalf("unexpected failure: %v", r.Err)
	}
	want := `INSERT INTO "metadata_items" (id, title) VALUES ($1, 'x''y')`
	if r.SQL != want {
		t.Fatalf("got %q want %q", r.SQL, want)
	}
}
