package shadow

import "testing"

func TestOpenPrepareFinalizeClose(t *testing.T) {
	conn, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer conn.Close()

	stmt, err := conn.Prepare("SELECT 1")
	if err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	if err := stmt.Finalize(); err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	if err := stmt.Finalize(); err != nil {
		t.Fatalf("double Finalize should be a no-op, got %v", err)
	}
}

func TestBindParameterName(t *testing.T) {
	conn, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer conn.Close()

	stmt, err := conn.Prepare("SELECT :x, ?")
	if err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	defer stmt.Finalize()

	if got := stmt.BindParameterName(1); got != ":x" {
		t.Fatalf("got %q, want :x", got)
	}
	if got := stmt.BindParameterName(2); got != "" {
		t.Fatalf("got %q, want empty for positional parameter", got)
	}
}

func TestHandleNonZero(t *testing.T) {
	conn, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer conn.Close()

	if conn.Handle() == 0 {
		t.Fatal("expected non-zero opaque handle")
	}
}
