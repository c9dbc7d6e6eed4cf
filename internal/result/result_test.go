package result

import (
	"bytes"
	"database/sql"
	"testing"
)

func TestClassifyTypeName(t *testing.T) {
	cases := map[string]ColType{
		"BOOL": Integer, "INT2": Integer, "INT4": Integer, "INT8": Integer,
		"FLOAT4": Float, "FLOAT8": Float, "NUMERIC": Float,
		"BYTEA": Blob,
		"TEXT":  Text, "VARCHAR": Text,
	}
	for name, want := range cases {
		if got := ClassifyTypeName(name); got != want {
			t.Errorf("ClassifyTypeName(%q) = %v, want %v", name, got, want)
		}
	}
}

func TestCoerceInt64BooleanText(t *testing.T) {
	if CoerceInt64("t") != 1 {
		t.Fatal("expected 't' -> 1")
	}
	if CoerceInt64("f") != 0 {
		t.Fatal("expected 'f' -> 0")
	}
	if CoerceInt64("42") != 42 {
		t.Fatal("expected numeric parse")
	}
	if CoerceInt64("3.9") != 3 {
		t.Fatal("expected float fallback truncation")
	}
}

func TestCoerceDouble(t *testing.T) {
	if CoerceDouble("t") != 1 {
		t.Fatal("expected 't' -> 1")
	}
	if CoerceDouble("3.5") != 3.5 {
		t.Fatal("expected float parse")
	}
}

func TestDecodeHexBytea(t *testing.T) {
	got, ok := DecodeHexBytea(`\x00ff7f`)
	if !ok {
		t.Fatal("expected successful decode")
	}
	want := []byte{0x00, 0xff, 0x7f}
	if !bytes.Equal(got, want) {
		t.Fatalf("got %v want %v", got, want)
	}
}

func TestDecodeHexByteaRejectsBadInput(t *testing.T) {
	if _, ok := DecodeHexBytea("not hex"); ok {
		t.Fatal("expected failure for non-bytea text")
	}
	if _, ok := DecodeHexBytea(`\xzz`); ok {
		t.Fatal("expected failure for invalid hex digit")
	}
	if _, ok := DecodeHexBytea(`\xa`); ok {
		t.Fatal("expected failure for odd-length hex")
	}
}

func TestSetAdvanceAndBounds(t *testing.T) {
	snap := &Snapshot{
		ColumnNames: []string{"id"},
		ColumnTypes: []ColType{Integer},
		Rows: [][]sql.NullString{
			{{String: "1", Valid: true}},
			{{String: "2", Valid: true}},
		},
	}
	s := NewSet(snap)
	if s.InBounds(0) {
		t.Fatal("expected out of bounds before first Advance")
	}
	if !s.Advance() {
		t.Fatal("expected first Advance to succeed")
	}
	if !s.InBounds(0) {
		t.Fatal("expected in bounds on row 0")
	}
	if s.InBounds(1) {
		t.Fatal("expected column 1 out of bounds")
	}
	text, isNull := s.Text(0)
	if isNull || text != "1" {
		t.Fatalf("got %q %v", text, isNull)
	}
	if !s.Advance() {
		t.Fatal("expected second Advance to succeed")
	}
	if s.Advance() {
		t.Fatal("expected third Advance to fail past last row")
	}
}
