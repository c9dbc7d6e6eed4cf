package pscache

import "testing"

func TestLookupMiss(t *testing.T) {
	c := New()
	if _, ok := c.Lookup(123); ok {
		t.Fatal("expected miss on empty cache")
	}
}

func TestInsertAndLookup(t *testing.T) {
	c := New()
	e := &Entry{StmtName: "ps_abc", ParamCount: 2}
	c.Insert(42, e)
	got, ok := c.Lookup(42)
	if !ok {
		t.Fatal("expected hit")
	}
	if got.StmtName != "ps_abc" || got.ParamCount != 2 {
		t.Fatalf("got %+v", got)
	}
	if c.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", c.Len())
	}
}

func TestInsertReplaces(t *testing.T) {
	c := New()
	c.Insert(1, &Entry{StmtName: "a"})
	c.Insert(1, &Entry{StmtName: "b"})
	got, _ := c.Lookup(1)
	if got.StmtName != "b" {
		t.Fatalf("got %q, want b", got.StmtName)
	}
	if c.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", c.Len())
	}
}
