// File: mux/mux.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package mux

import (
	"fmt"
	"sync/atomic"

	"github.com/joeycumines/logiface"

	"github.com/momentics/hioload-mux/api"
	"github.com/momentics/hioload-mux/control"
	"github.com/momentics/hioload-mux/poller"
	"github.com/momentics/hioload-mux/readyset"
)

// Defaults for SelectAndProcessDefault.
const (
	// DefaultSpinCount is the number of non-blocking refreshes attempted
	// before falling through to a blocking wait.
	DefaultSpinCount = 10000
	// DefaultTimeoutMillis bounds the blocking wait; 0 blocks indefinitely.
	DefaultTimeoutMillis int64 = 0
)

// Metric keys published to the optional control.Registry.
const (
	MetricCycles        = "mux.cycles"
	MetricEvents        = "mux.events"
	MetricHandlerErrors = "mux.handler_errors"
	MetricStrategy      = "mux.strategy"
)

// Mux multiplexes readiness events from one OS poller.
//
// Select and Process belong to a single poll loop and must not run
// concurrently with each other on the same Mux. Register and Deregister may
// be called from other goroutines while a Select blocks, relying on the
// poller's own synchronization; the Mux itself takes no locks, which is the
// point of the array-backed fast path.
type Mux struct {
	factory func() (api.Poller, error)
	log     *logiface.Logger[logiface.Event]
	metrics *control.Registry
	noSwap  bool

	poller   api.Poller
	set      *readyset.Set
	strategy Strategy
	opened   atomic.Bool
	closed   atomic.Bool
}

// New returns an unopened Mux. Without options it opens the platform poller
// from the poller package and attempts ready-set substitution.
func New(opts ...Option) *Mux {
	m := &Mux{factory: poller.New}
	for _, o := range opts {
		o(m)
	}
	return m
}

// Open acquires the poller and fixes the processing strategy: if the poller
// exposes the substitution capability and the install succeeds, the
// array-backed strategy is selected; any probe or install failure is logged
// and the Mux falls back to the poller-native collection, fully usable.
//
// Open must be called once, before any operation other than Close.
func (m *Mux) Open() error {
	if m.opened.Load() {
		return api.ErrAlreadyOpen
	}
	if m.closed.Load() {
		return api.ErrClosed
	}

	p, err := m.factory()
	if err != nil {
		return fmt.Errorf("mux: open poller: %w", err)
	}
	m.poller = p
	m.strategy = StrategyDefault

	if !m.noSwap {
		if installer, ok := p.(api.ReadyStoreInstaller); ok {
			set := readyset.New()
			if err := installer.InstallReadyStore(set); err != nil {
				m.log.Warning().Err(err).
					Log("ready-set substitution failed, falling back to poller-native events")
			} else {
				m.set = set
				m.strategy = StrategyArrayBacked
			}
		} else {
			m.log.Debug().
				Log("poller offers no ready-store substitution, using poller-native events")
		}
	}

	m.opened.Store(true)
	if m.metrics != nil {
		m.metrics.Set(MetricStrategy, m.strategy.String())
	}
	return nil
}

// Register adds fd with the given interest set, or replaces the interest
// set of an existing registration.
func (m *Mux) Register(fd int, interest api.Ops) error {
	if !m.opened.Load() {
		return api.ErrNotOpen
	}
	return m.poller.Register(fd, interest)
}

// Deregister clears ops from fd's current interest set. A descriptor that
// is not registered is a no-op, not an error.
func (m *Mux) Deregister(fd int, ops api.Ops) error {
	if !m.opened.Load() {
		return api.ErrNotOpen
	}
	current, ok := m.poller.InterestOps(fd)
	if !ok {
		return nil
	}
	return m.poller.Register(fd, current&^ops)
}

// Select refreshes readiness: up to spinCount non-blocking attempts,
// returning as soon as one reports readiness, then a single blocking
// refresh bounded by timeoutMillis (0 blocks indefinitely). The spin phase
// retries "no readiness yet" only; errors surface immediately.
//
// Close is the cancellation path for a Select in progress: the closed
// poller fails the next refresh with ErrClosed.
func (m *Mux) Select(spinCount int, timeoutMillis int64) (int, error) {
	if m.closed.Load() {
		return 0, api.ErrClosed
	}
	if !m.opened.Load() {
		return 0, api.ErrNotOpen
	}
	for i := 0; i < spinCount; i++ {
		n, err := m.poller.WaitNow()
		if err != nil {
			return 0, err
		}
		if n != 0 {
			return n, nil
		}
	}
	return m.poller.Wait(timeoutMillis)
}

// Process dispatches handler once per collected ready event and clears the
// active storage for the next cycle. Handler failures are logged and, with
// stopOnError, halt the iteration; the remaining events of the cycle are
// dropped since the storage is cleared regardless. Returns the number of
// handler invocations, failed ones included.
func (m *Mux) Process(handler api.EventHandler, stopOnError bool) int {
	if !m.opened.Load() {
		return 0
	}

	var handled int
	if m.strategy == StrategyArrayBacked {
		handled = m.processSet(handler, stopOnError)
	} else {
		handled = m.processNative(handler, stopOnError)
	}

	if m.metrics != nil {
		m.metrics.Inc(MetricCycles)
		m.metrics.Add(MetricEvents, int64(handled))
	}
	return handled
}

func (m *Mux) processSet(handler api.EventHandler, stopOnError bool) int {
	size := m.set.Size()
	events := m.set.Events()

	handled := 0
	for handled < size {
		err := handler(events[handled])
		handled++
		if err != nil {
			m.noteHandlerError(events[handled-1], err)
			if stopOnError {
				break
			}
		}
	}

	m.set.Clear()
	return handled
}

func (m *Mux) processNative(handler api.EventHandler, stopOnError bool) int {
	events := m.poller.Ready()

	handled := 0
	for handled < len(events) {
		err := handler(events[handled])
		handled++
		if err != nil {
			m.noteHandlerError(events[handled-1], err)
			if stopOnError {
				break
			}
		}
	}

	m.poller.ClearReady()
	return handled
}

func (m *Mux) noteHandlerError(ev *api.Event, err error) {
	m.log.Warning().Err(err).Int("fd", ev.FD).Log("event handler failed")
	if m.metrics != nil {
		m.metrics.Inc(MetricHandlerErrors)
	}
}

// SelectAndProcess composes Select and Process. With zero readiness the
// handler is never invoked and the result is 0.
func (m *Mux) SelectAndProcess(spinCount int, timeoutMillis int64, stopOnError bool, handler api.EventHandler) (int, error) {
	n, err := m.Select(spinCount, timeoutMillis)
	if err != nil {
		return 0, err
	}
	if n <= 0 {
		return 0, nil
	}
	return m.Process(handler, stopOnError), nil
}

// SelectAndProcessDefault runs SelectAndProcess with the default spin count
// and an unbounded blocking wait, continuing past handler failures.
func (m *Mux) SelectAndProcessDefault(handler api.EventHandler) (int, error) {
	return m.SelectAndProcess(DefaultSpinCount, DefaultTimeoutMillis, false, handler)
}

// Strategy reports the processing strategy fixed at Open.
func (m *Mux) Strategy() Strategy {
	return m.strategy
}

// ReadySet returns the installed ready set, or nil under the default
// strategy.
func (m *Mux) ReadySet() *readyset.Set {
	return m.set
}

// NativeEvents returns the poller-native ready collection.
func (m *Mux) NativeEvents() []*api.Event {
	if m.poller == nil {
		return nil
	}
	return m.poller.Ready()
}

// Close releases the poller. Safe to call repeatedly, before Open, and
// concurrently with a Select in progress; that Select, and any later one,
// fails with a closed-resource error. The poller reference is retained so
// a racing refresh observes the closed handle rather than a missing one.
func (m *Mux) Close() error {
	// closed flips before opened so a racing Select reports ErrClosed,
	// never ErrNotOpen
	first := !m.closed.Swap(true)
	m.opened.Store(false)
	if !first || m.poller == nil {
		return nil
	}
	return m.poller.Close()
}
