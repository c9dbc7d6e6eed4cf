// Package fakevalue implements the fake-value pool: a shared, round-robin
// pool of opaque "value" objects returned by the column-value accessor
// family and resolved back through the owning statement on each subsequent
// value-accessor call. Values cross the FFI boundary through
// pointer.Save/Restore.
package fakevalue

import (
	"sync"
	"unsafe"

	"github.com/mattn/go-pointer"
)

// magic distinguishes a shim-owned fake value from the embedded library's
// own native value pointers, so the value-accessor family can dispatch on
// the tag without risking a false-positive on a real sqlite3_value*.
const magic = 0x50474656 // "PGFV"

const poolSize = 256

// Value is what the column-value accessor hands back: enough to route a
// later value_* call back through the owning statement's result.
type Value struct {
	Magic      uint32
	StmtHandle uintptr
	Column     int
	Row        int
}

// Pool is the process-wide round-robin fake-value pool. Its mutex is lock
// #5 in the global acquisition order: held only during slot claim.
type Pool struct {
	mu    sync.Mutex
	slots [poolSize]unsafe.Pointer
	next  int
}

func NewPool() *Pool {
	return &Pool{}
}

// Claim allocates a fake value for (stmtHandle, column, row), returning the
// opaque pointer to hand to the host in place of a real sqlite3_value*.
// Claiming evicts whatever previously occupied the slot poolSize claims
// ago.
func (p *Pool) Claim(stmtHandle uintptr, column, row int) unsafe.Pointer {
	v := &Value{Magic: magic, StmtHandle: stmtHandle, Column: column, Row: row}
	ptr := pointer.Save(v)

	p.mu.Lock()
	evicted := p.slots[p.next]
	p.slots[p.next] = ptr
	p.next = (p.next + 1) % poolSize
	p.mu.Unlock()

	if evicted != nil {
		pointer.Unref(evicted)
	}
	return ptr
}

// Recognize checks whether ptr is a fake value this package produced,
// distinguishing it from a genuine embedded-library pointer via the magic
// check.
func Recognize(ptr unsafe.Pointer) (*Value, bool) {
	if ptr == nil {
		return nil, false
	}
	restored := pointer.Restore(ptr)
	v, ok := restored.(*Value)
	if !ok || v.Magic != magic {
		return nil, false
	}
	return v, true
}
