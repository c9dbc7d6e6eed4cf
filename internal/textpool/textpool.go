// Package textpool implements the round-robin buffer pools behind the
// column_text accessor (internal/engine's Statement.ColumnText); the
// value_text and blob accessors do not use a Ring. A Ring is created per
// statement rather than shared process-wide, so a buffer's lifetime is
// scoped to the statement that produced it; only internal/fakevalue's pool
// remains process-global, because fake values are deliberately shared
// across statements.
package textpool

import "sync"

// DefaultTextCapacity and DefaultTextBufSize size the column/value text
// pools: 256 buffers of 16 KiB each.
const (
	DefaultTextCapacity = 256
	DefaultTextBufSize  = 16 * 1024

	// DefaultBlobCapacity is smaller in count but each slot grows to fit
	// its payload, since blob sizes vary far more than text column widths.
	DefaultBlobCapacity = 64
)

// Ring is a thread-safe round-robin pool of reusable byte buffers. Put
// copies data into the next slot (truncating to bufSize if the ring was
// constructed with a fixed buffer size) and returns a pointer valid until
// that slot is recycled, which happens after capacity further Put calls.
type Ring struct {
	mu      sync.Mutex
	bufs    [][]byte
	bufSize int // 0 means slots grow to fit their payload (blob ring)
	next    int
}

// NewRing creates a ring of capacity slots. bufSize > 0 fixes each slot's
// size and truncates oversized payloads (the text/value pools); bufSize ==
// 0 lets each slot grow to exactly fit its payload (the blob pool).
func NewRing(capacity, bufSize int) *Ring {
	return &Ring{bufs: make([][]byte, capacity), bufSize: bufSize}
}

// Put copies data into the next slot and returns that slot's contents.
// Truncation at bufSize is acceptable for the fixed-size
// case; the caller is responsible for copying the returned slice before
// issuing further calls that might recycle the slot.
func (r *Ring) Put(data []byte) []byte {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.bufSize > 0 && len(data) > r.bufSize {
		data = data[:r.bufSize]
	}

	slot := r.bufs[r.next]
	if cap(slot) < len(data) {
		slot = make([]byte, len(data))
	} else {
		slot = slot[:len(data)]
	}
	copy(slot, data)
	r.bufs[r.next] = slot
	r.next = (r.next + 1) % len(r.bufs)
	return slot
}

// PutString is a convenience wrapper for the common case of pooling a
// server-returned text value.
func (r *Ring) PutString(s string) []byte {
	return r.Put([]byte(s))
}

// Len reports the ring's capacity (test/inspection helper).
func (r *Ring) Len() int {
	return len(r.bufs)
}
