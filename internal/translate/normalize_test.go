package translate

import (
	"reflect"
	"testing"
)

func TestNormalizeExtractsLiterals(t *testing.T) {
	sql, values := Normalize("SELECT * FROM t WHERE id = 5 AND rating > 3.5")
	want := "SELECT * FROM t WHERE id = $1 AND rating > $2"
	if sql != want {
		t.Fatalf("got %q want %q", sql, want)
	}
	if !reflect.DeepEqual(values, []string{"5", "3.5"}) {
		t.Fatalf("got values %v", values)
	}
}

func TestNormalizeStableAcrossDifferingLiterals(t *testing.T) {
	a, _ := Normalize("SELECT * FROM t WHERE id = 5")
	b, _ := Normalize("SELECT * FROM t WHERE id = 999")
	if a != b {
		t.Fatalf("expected identical normalized SQL, got %q and %q", a, b)
	}
}

func TestNormalizeNoLiterals(t *testing.T) {
	sql, values := Normalize("SELECT * FROM t WHERE name = 'x'")
	if sql != "SELECT * FROM t WHERE name = 'x'" {
		t.Fatalf("got %q", sql)
	}
	if len(values) != 0 {
		t.Fatalf("expected no extracted values, got %v", values)
	}
}
