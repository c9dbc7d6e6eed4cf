package stmtreg

import (
	"testing"

	"github.com/jabrown93/plex-postgresql-sub000/internal/shimerr"
)

type dummyStmt struct{ SQL string }

func TestGlobalInsertLookupRemove(t *testing.T) {
	g := NewGlobal[dummyStmt]()
	s := &dummyStmt{SQL: "SELECT 1"}
	if err := g.Insert(1, s); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, ok := g.Lookup(1)
	if !ok || got != s {
		t.Fatalf("lookup mismatch: %v %v", got, ok)
	}
	removed, ok := g.Remove(1)
	if !ok || removed != s {
		t.Fatalf("remove mismatch")
	}
	if _, ok := g.Remove(1); ok {
		t.Fatal("expected double-finalize to be a no-op")
	}
}

func TestGlobalDuplicateRejected(t *testing.T) {
	g := NewGlobal[dummyStmt]()
	g.Insert(1, &dummyStmt{})
	err := g.Insert(1, &dummyStmt{})
	if !shimerr.Is(err, shimerr.BadInput) {
		t.Fatalf("expected BadInput, got %v", err)
	}
}

func TestPerThreadInsertLookupRemove(t *testing.T) {
	p := NewPerThread[dummyStmt]()
	s := &dummyStmt{SQL: "SELECT 1"}
	if err := p.InsertForCurrentThread(5, s); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, ok := p.LookupForCurrentThread(5)
	if !ok || got != s {
		t.Fatalf("lookup mismatch")
	}
	removed, ok := p.RemoveForCurrentThread(5)
	if !ok || removed != s {
		t.Fatalf("remove mismatch")
	}
	if _, ok := p.LookupForCurrentThread(5); ok {
		t.Fatal("expected miss after remove")
	}
}

func TestPerThreadRemoveUnknownThreadIsNoop(t *testing.T) {
	p := NewPerThread[dummyStmt]()
	if _, ok := p.RemoveForCurrentThread(99); ok {
		t.Fatal("expected no-op remove")
	}
}
