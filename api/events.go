// File: api/events.go
// Package api defines the readiness event model.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package api

// Ops is a bitmask of channel operations a registration is interested in,
// or that a descriptor has become ready for.
type Ops uint32

// Operation bits.
const (
	// OpRead indicates readiness for reading.
	OpRead Ops = 1 << iota
	// OpWrite indicates readiness for writing.
	OpWrite
	// OpAccept indicates a listening descriptor with a pending connection.
	OpAccept
	// OpError indicates an error or hangup condition on the descriptor.
	// It is never part of an interest set; pollers report it unconditionally.
	OpError
)

// Event is a readiness entry for one registered descriptor.
//
// Instances are owned by the poller that created them and borrowed by
// consumers: a handle is valid until the next readiness refresh, or until
// the descriptor is deregistered. Interest holds the registered interest
// bits; Ready holds the operations the descriptor was last reported ready
// for, filtered through Interest.
type Event struct {
	// FD is the registered descriptor.
	FD int
	// Interest is the current interest set for FD.
	Interest Ops
	// Ready is the readiness reported by the last refresh.
	Ready Ops
	// Data optionally carries a payload delivered by completion-driven
	// pollers (see adapters/iouring). Readiness-driven pollers leave it nil.
	Data []byte
}

// Readable reports whether the event includes read readiness.
func (e *Event) Readable() bool { return e.Ready&OpRead != 0 }

// Writable reports whether the event includes write readiness.
func (e *Event) Writable() bool { return e.Ready&OpWrite != 0 }

// Acceptable reports whether the event includes accept readiness.
func (e *Event) Acceptable() bool { return e.Ready&OpAccept != 0 }

// Failed reports whether the poller flagged an error condition.
func (e *Event) Failed() bool { return e.Ready&OpError != 0 }

// SameEntry reports whether two readiness entries denote the same
// registration: either the same instance, or the same descriptor carrying
// the same interest set.
//
// Pollers probe membership with this relation before inserting into a ready
// store, so two distinct handles for one registration are never both
// present. It is deliberately looser than structural equality and must stay
// an explicit, allocation-free comparison.
func SameEntry(a, b *Event) bool {
	if a == nil || b == nil {
		return false
	}
	if a == b {
		return true
	}
	return a.FD == b.FD && a.Interest == b.Interest
}
