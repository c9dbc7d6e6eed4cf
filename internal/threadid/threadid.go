// Package threadid exposes the calling OS thread's identity, used to key
// the per-thread connection pool (internal/connreg). Goroutines aren't
// threads, but a cgo call from the host runs on a real OS thread for the
// duration of the call, matching the "parallel OS threads" scheduling model
// this shim's pool is built for.
package threadid

// #include <pthread.h>
import "C"
import "fmt"

// ID identifies an OS thread for the lifetime of that thread.
type ID uintptr

// Current returns the calling OS thread's identity.
func Current() ID {
	return ID(uintptr(C.pthread_self()))
}

func (id ID) String() string {
	return fmt.Sprintf("thread-%x", uintptr(id))
}
