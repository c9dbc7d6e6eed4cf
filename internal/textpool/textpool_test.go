package textpool

import (
	"bytes"
	"testing"
)

func TestPutReturnsExpectedBytes(t *testing.T) {
	r := NewRing(4, 16)
	got := r.PutString("hello")
	if !bytes.Equal(got, []byte("hello")) {
		t.Fatalf("got %q", got)
	}
}

func TestPutTruncatesAtBufSize(t *testing.T) {
	r := NewRing(2, 4)
	got := r.PutString("abcdefgh")
	if len(got) != 4 {
		t.Fatalf("expected truncation to 4 bytes, got %d", len(got))
	}
	if !bytes.Equal(got, []byte("abcd")) {
		t.Fatalf("got %q", got)
	}
}

func TestPutRecyclesAfterCapacity(t *testing.T) {
	r := NewRing(2, 16)
	first := r.PutString("a")
	r.PutString("b")
	r.PutString("c") // recycles slot 0, where `first` pointed
	if bytes.Equal(first, []byte("a")) {
		t.Fatal("expected slot 0 to have been overwritten")
	}
}

func TestBlobRingGrowsToFit(t *testing.T) {
	r := NewRing(2, 0)
	payload := bytes.Repeat([]byte{0xAB}, 10_000)
	got := r.Put(payload)
	if !bytes.Equal(got, payload) {
		t.Fatal("expected unbounded blob ring to preserve the full payload")
	}
}
