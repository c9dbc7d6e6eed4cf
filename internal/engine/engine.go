// Package engine implements the Statement Engine: the
// prepare/bind/step/reset/finalize state machine that sits on top of
// internal/translate, internal/classify, internal/connreg, internal/pscache
// and internal/result, and owns the Statement object.
package engine

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/jabrown93/plex-postgresql-sub000/internal/connreg"
	"github.com/jabrown93/plex-postgresql-sub000/internal/genid"
	"github.com/jabrown93/plex-postgresql-sub000/internal/result"
	"github.com/jabrown93/plex-postgresql-sub000/internal/textpool"
)

// Role classifies a prepared statement's execution behavior: write, read,
// or skip, plus an "other" bucket for DDL/
// maintenance statements that are neither SELECT nor a row-producing write.
type Role int

const (
	RoleSkip Role = iota
	RoleRead
	RoleWrite
	RoleOther
)

func (r Role) String() string {
	switch r {
	case RoleRead:
		return "read"
	case RoleWrite:
		return "write"
	case RoleOther:
		return "other"
	default:
		return "skip"
	}
}

// StepResult is what Step hands back to the host's step() entry point.
type StepResult int

const (
	Done StepResult = iota
	Row
)

// MaxParams is the parameter-slot capacity: 64 slots, each an owned byte
// buffer with length and format tag.
const MaxParams = 64

// ParamKind distinguishes the three binding states: unset (NULL), a
// scratch numeric value, or an owned text/blob buffer, which must stay
// distinguishable for safe release. Go's
// GC makes manual release unnecessary, but the tag is kept so Bind/Reset
// and the driver-argument builder agree on how to interpret a slot without
// a third "is this slice nil because unset or because it's an empty blob"
// ambiguity.
type ParamKind int

const (
	ParamUnset ParamKind = iota
	ParamInt64
	ParamDouble
	ParamText
	ParamBlob
)

// ParamSlot is one bound parameter value.
type ParamSlot struct {
	Kind   ParamKind
	Int64  int64
	Double float64
	Buf    []byte // owned copy for ParamText/ParamBlob
}

// DriverValue returns the value to pass to database/sql for this slot, or
// nil for an unset (NULL) slot.
func (p ParamSlot) DriverValue() any {
	switch p.Kind {
	case ParamInt64:
		return p.Int64
	case ParamDouble:
		return p.Double
	case ParamText:
		return string(p.Buf)
	case ParamBlob:
		return p.Buf
	default:
		return nil
	}
}

// Statement is one prepared statement and everything it owns.
type Statement struct {
	Handle uintptr // the host's opaque statement pointer, set by the registry on insertion

	Conn *connreg.Connection

	// Pool is non-nil when Conn's path matched a configured pool pattern;
	// Step then executes on the calling thread's pool channel instead of
	// Conn.Channel.
	Pool *connreg.Pool

	GenID *genid.Store

	OriginalSQL string
	SQL         string // translated

	ParamNames []string // len == ParamCount; "" entries mark positional (?) params
	ParamCount int
	Params     [MaxParams]ParamSlot

	Role              Role
	TranslationFailed bool

	// ReturningInjected is true when Prepare appended "RETURNING id" to a
	// write statement lacking one, for last_insert_rowid() emulation.
	ReturningInjected bool
	WriteExecuted     bool

	SQLHash  uint64
	StmtName string

	Result    *result.Set
	BlobCache map[int][]byte
	textRing  *textpool.Ring

	DeclTypes *result.DeclTypeCache

	log zerolog.Logger

	mu sync.Mutex
}

// Lock/Unlock guard statement-owned buffers (lock #4 in the global
// acquisition order).
func (s *Statement) Lock()   { s.mu.Lock() }
func (s *Statement) Unlock() { s.mu.Unlock() }

// Reset clears parameter bindings, discards the attached result, and
// zeroes the write-executed gate.
func (s *Statement) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.Params {
		s.Params[i] = ParamSlot{}
	}
	s.Result = nil
	s.WriteExecuted = false
	s.BlobCache = nil
}

// Finalize releases the statement's resources. Removing it from whichever
// registry owns it is the registry's job, not
// this method's; Finalize only clears the statement's own buffers, and is
// safe to call more than once.
func (s *Statement) Finalize() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.Params {
		s.Params[i] = ParamSlot{}
	}
	s.Result = nil
	s.BlobCache = nil
}

// ClearBindings clears only the parameter slots, leaving any attached
// result and write_executed state untouched (the host's clear_bindings
// entry point, distinct from reset()).
func (s *Statement) ClearBindings() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.Params {
		s.Params[i] = ParamSlot{}
	}
}

// driverArgs builds the ordered []any to pass to database/sql for the
// currently bound parameters.
func (s *Statement) driverArgs() []any {
	args := make([]any, s.ParamCount)
	for i := 0; i < s.ParamCount; i++ {
		args[i] = s.Params[i].DriverValue()
	}
	return args
}
