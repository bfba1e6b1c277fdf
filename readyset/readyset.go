// File: readyset/readyset.go
// Package readyset implements the array-backed ready-event store installed
// into pollers on the multiplexer fast path.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package readyset

import (
	"fmt"

	"github.com/momentics/hioload-mux/api"
)

// MinCapacity is the smallest backing array a Set ever allocates.
const MinCapacity = 16

// Set is a growable, insertion-ordered collection of ready-event handles,
// purpose-built for the poller's burst-then-drain cycle: many appends during
// one readiness refresh, a zero-copy scan during dispatch, one full clear
// afterwards. It is not safe for concurrent use; the poll loop is its only
// writer.
type Set struct {
	events []*api.Event
	size   int
}

// New returns an empty Set with the minimum capacity.
func New() *Set {
	return NewWithCapacity(MinCapacity)
}

// NewWithCapacity returns an empty Set sized to the smallest power of two
// that holds capacity entries, with a floor of MinCapacity.
func NewWithCapacity(capacity int) *Set {
	return &Set{events: make([]*api.Event, nextPow2(capacity))}
}

// Add appends ev at the current insertion index. A nil event is rejected.
// Duplicates are never folded here: pollers that must not double-insert
// probe Contains themselves before calling Add.
func (s *Set) Add(ev *api.Event) bool {
	if ev == nil {
		return false
	}
	s.ensure(s.size + 1)
	s.events[s.size] = ev
	s.size++
	return true
}

// Contains scans the occupied slots for an entry matching ev under the
// loose-equality relation (same instance, or same descriptor with the same
// interest set). Some pollers probe membership before inserting and expect
// semantically equal handles to be recognized as present.
func (s *Set) Contains(ev *api.Event) bool {
	for i := 0; i < s.size; i++ {
		if api.SameEntry(s.events[i], ev) {
			return true
		}
	}
	return false
}

// Remove always reports false: entries are retired only by a whole-set
// Clear between poll cycles.
func (s *Set) Remove(*api.Event) bool {
	return false
}

// Clear resets the set for the next cycle. Slots are eagerly nulled so the
// borrowed handles are not pinned past the cycle that produced them.
func (s *Set) Clear() {
	for i := 0; i < s.size; i++ {
		s.events[i] = nil
	}
	s.size = 0
}

// Size returns the number of occupied slots.
func (s *Set) Size() int {
	return s.size
}

// Capacity returns the current backing array length.
func (s *Set) Capacity() int {
	return len(s.events)
}

// Events exposes the backing array for zero-copy consumption by the
// dispatch step. Only indices below Size hold live entries. No iterator
// abstraction is offered; dispatch never needs one.
func (s *Set) Events() []*api.Event {
	return s.events
}

func (s *Set) ensure(required int) {
	if required < 0 {
		panic(fmt.Sprintf("readyset: capacity overflow: length=%d required=%d", len(s.events), required))
	}
	if required <= len(s.events) {
		return
	}
	grown := make([]*api.Event, nextPow2(required))
	copy(grown, s.events[:s.size])
	s.events = grown
}

// nextPow2 returns the smallest power of two >= max(MinCapacity, v).
func nextPow2(v int) int {
	if v < MinCapacity {
		return MinCapacity
	}
	n := uint64(v) - 1
	n |= n >> 1
	n |= n >> 2
	n |= n >> 4
	n |= n >> 8
	n |= n >> 16
	n |= n >> 32
	return int(n + 1)
}
