package shimerr

import (
	"errors"
	"testing"
)

func TestIs(t *testing.T) {
	err := New(ConnectionFailure, "channel down")
	if !Is(err, ConnectionFailure) {
		t.Fatal("expected ConnectionFailure kind")
	}
	if Is(err, BadInput) {
		t.Fatal("did not expect BadInput kind")
	}
	if Is(errors.New("plain"), BadInput) {
		t.Fatal("plain errors must never match a Kind")
	}
}

func TestWrapUnwrap(t *testing.T) {
	cause := errors.New("boom")
	err := Wrap(ServerExecFailure, cause)
	if !errors.Is(err, cause) {
		t.Fatal("expected errors.Is to see through Unwrap")
	}
	if err.Error() == "" {
		t.Fatal("expected non-empty message")
	}
}
