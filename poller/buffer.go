// File: poller/buffer.go
// Package poller: readiness storage shared by the backends.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package poller

import "github.com/momentics/hioload-mux/api"

// EventBuffer is the readiness storage a backend appends ready events into.
// It starts on a native slice and can be swapped to an installed
// api.EventStore once, at open time. Backends probe membership before
// appending so an event surfacing across several spin refreshes lands in
// storage once per cycle.
//
// EventBuffer carries no locking of its own: refreshes and the ready/clear
// pair run on the single poll loop.
type EventBuffer struct {
	store  api.EventStore
	native []*api.Event
}

// Install swaps the backing storage to store. Appends from then on bypass
// the native collection entirely.
func (b *EventBuffer) Install(store api.EventStore) {
	b.store = store
}

// Swapped reports whether a substitute store is installed.
func (b *EventBuffer) Swapped() bool {
	return b.store != nil
}

// Push appends ev to the active storage unless an equivalent entry is
// already present, and reports whether it appended.
func (b *EventBuffer) Push(ev *api.Event) bool {
	if b.store != nil {
		if b.store.Contains(ev) {
			return false
		}
		return b.store.Add(ev)
	}
	for _, present := range b.native {
		if api.SameEntry(present, ev) {
			return false
		}
	}
	b.native = append(b.native, ev)
	return true
}

// Ready returns the native collection in arrival order. Empty while a
// substitute store is installed.
func (b *EventBuffer) Ready() []*api.Event {
	return b.native
}

// Clear empties the native collection, keeping its capacity.
func (b *EventBuffer) Clear() {
	for i := range b.native {
		b.native[i] = nil
	}
	b.native = b.native[:0]
}
