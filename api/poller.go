// File: api/poller.go
// Package api defines the OS poller collaborator contract.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package api

// Poller is the OS-level readiness primitive the multiplexer drives. A
// backend accumulates readiness into its active store across refreshes and
// hands the collected events out for dispatch.
//
// Register and InterestOps must be safe to call from other goroutines while
// a Wait is in progress; readiness refreshes and the Ready/ClearReady pair
// are driven sequentially by one poll loop and need no synchronization of
// their own.
type Poller interface {
	// Register adds the descriptor with the given interest set, or replaces
	// the interest set of an existing registration. An empty interest set is
	// valid and silences the descriptor without removing it.
	Register(fd int, interest Ops) error

	// InterestOps returns the current interest set for fd, and whether fd is
	// registered at all.
	InterestOps(fd int) (Ops, bool)

	// WaitNow performs one non-blocking readiness refresh and returns the
	// number of events it appended to the active ready store.
	WaitNow() (int, error)

	// Wait performs one blocking readiness refresh bounded by timeoutMillis.
	// A timeout of 0 blocks indefinitely. An interrupted wait reports zero
	// readiness, not an error.
	Wait(timeoutMillis int64) (int, error)

	// Ready exposes the poller-native ready collection: the events appended
	// since the last ClearReady, in arrival order. The returned slice is
	// shared, not a copy.
	Ready() []*Event

	// ClearReady empties the native ready collection.
	ClearReady()

	// Close releases the poller. Waits observed after Close fail with
	// ErrClosed.
	Close() error
}

// EventStore is the substitute backing store a poller appends ready events
// into once installed. Implementations never deduplicate on Add; pollers
// that must avoid double insertion probe Contains first.
type EventStore interface {
	Add(ev *Event) bool
	Contains(ev *Event) bool
	Clear()
	Size() int
}

// ReadyStoreInstaller is the optional capability of pollers whose internal
// readiness storage can be substituted. Probing is feature detection:
// a poller either implements this interface or it does not, and an install
// attempt may still fail. Neither case is fatal to the caller, which falls
// back to the poller-native collection.
type ReadyStoreInstaller interface {
	// InstallReadyStore replaces the poller's internal readiness storage.
	// Once installed, refreshes append into the store instead of the native
	// collection.
	InstallReadyStore(store EventStore) error
}
