package connreg

import (
	"testing"

	"github.com/jabrown93/plex-postgresql-sub000/internal/shimerr"
)

func TestRegistryInsertLookupRemove(t *testing.T) {
	r := NewRegistry()
	conn := &Connection{Path: "/data/library.db"}
	if err := r.Insert(1, conn); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, ok := r.Lookup(1)
	if !ok || got != conn {
		t.Fatalf("lookup mismatch: %v %v", got, ok)
	}
	removed, ok := r.Remove(1)
	if !ok || removed != conn {
		t.Fatalf("remove mismatch: %v %v", removed, ok)
	}
	if _, ok := r.Lookup(1); ok {
		t.Fatal("expected miss after remove")
	}
}

func TestRegistryDuplicateInsertRejected(t *testing.T) {
	r := NewRegistry()
	if err := r.Insert(1, &Connection{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	err := r.Insert(1, &Connection{})
	if err == nil {
		t.Fatal("expected error on duplicate registration")
	}
	if !shimerr.Is(err, shimerr.BadInput) {
		t.Fatalf("expected BadInput, got %v", err)
	}
}

func TestRegistryRemoveUnregisteredIsNoop(t *testing.T) {
	r := NewRegistry()
	if _, ok := r.Remove(99); ok {
		t.Fatal("expected no-op remove to report ok=false")
	}
}
