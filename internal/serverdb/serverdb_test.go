package serverdb

import (
	"context"
	"testing"

	"github.com/jabrown93/plex-postgresql-sub000/internal/shimerr"
)

func TestConnectRejectsMalformedDSN(t *testing.T) {
	_, err := Connect(context.Background(), "not a valid dsn===", "plex")
	if err == nil {
		t.Fatal("expected error for malformed DSN")
	}
	if !shimerr.Is(err, shimerr.ConnectionFailure) {
		t.Fatalf("expected ConnectionFailure, got %v", err)
	}
}
