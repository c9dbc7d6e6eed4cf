package main

// #include "shim.h"
import "C"

import (
	"sync"
	"unsafe"
)

// leases tracks the C-heap buffers an entry point has handed to the host —
// column_text/column_blob/column_name pointers and their value_* twins —
// keyed by the owning statement handle. Those pointers must stay valid
// until the next step/reset/finalize, so the buffers are released exactly
// there, not when the Go side is done with them.
type leases struct {
	mu       sync.Mutex
	byHandle map[uintptr][]unsafe.Pointer
}

func (l *leases) hold(h uintptr, p unsafe.Pointer) {
	l.mu.Lock()
	if l.byHandle == nil {
		l.byHandle = make(map[uintptr][]unsafe.Pointer)
	}
	l.byHandle[h] = append(l.byHandle[h], p)
	l.mu.Unlock()
}

func (l *leases) releaseAll(h uintptr) {
	l.mu.Lock()
	ptrs := l.byHandle[h]
	delete(l.byHandle, h)
	l.mu.Unlock()
	for _, p := range ptrs {
		C.free(p)
	}
}

// leaseCString copies s to the C heap and parks the allocation on h's lease
// list. The returned pointer is what the host sees from a text accessor.
func (st *shimState) leaseCString(h uintptr, s string) *C.char {
	p := C.CString(s)
	st.mem.hold(h, unsafe.Pointer(p))
	return p
}

// leaseCBytes is leaseCString's blob twin. A zero-length blob still leases
// a 1-byte allocation so the host receives a non-NULL pointer, matching the
// embedded library's behavior for empty (non-NULL) blobs.
func (st *shimState) leaseCBytes(h uintptr, b []byte) unsafe.Pointer {
	if len(b) == 0 {
		p := C.malloc(1)
		st.mem.hold(h, p)
		return p
	}
	p := C.CBytes(b)
	st.mem.hold(h, p)
	return p
}
