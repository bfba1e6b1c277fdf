// File: fake/fakepoller.go
// Author: momentics <momentics@gmail.com>
// SPDX-License-Identifier: MIT

// Package fake provides scripted test doubles for the api.Poller contract.
package fake

import (
	"sync"

	"github.com/eapache/queue"

	"github.com/momentics/hioload-mux/api"
	"github.com/momentics/hioload-mux/poller"
)

// Refresh is one scripted readiness outcome. Each Wait/WaitNow call consumes
// the next queued Refresh; with the script exhausted, refreshes report zero
// readiness.
type Refresh struct {
	// FDs lists registered descriptors that become ready on this refresh.
	FDs []int
	// Err, if set, fails the refresh instead.
	Err error
}

// Poller is a scripted api.Poller with the ready-store substitution
// capability. Counters record how the multiplexer drove it.
type Poller struct {
	mu     sync.Mutex
	regs   map[int]*api.Event
	script *queue.Queue
	buf    poller.EventBuffer
	closed bool

	installErr error
	installed  bool

	nonBlockingWaits int
	blockingWaits    int
	lastTimeout      int64
}

// NewPoller returns an empty scripted poller.
func NewPoller() *Poller {
	return &Poller{
		regs:   make(map[int]*api.Event),
		script: queue.New(),
	}
}

// Script enqueues one refresh outcome.
func (p *Poller) Script(r Refresh) {
	p.mu.Lock()
	p.script.Add(r)
	p.mu.Unlock()
}

// FailInstall makes the next InstallReadyStore fail with err, simulating a
// poller whose internal layout cannot be patched.
func (p *Poller) FailInstall(err error) {
	p.installErr = err
}

// Installed reports whether a substitute store was installed.
func (p *Poller) Installed() bool {
	return p.installed
}

// Event returns the handle registered for fd, for scripting assertions.
func (p *Poller) Event(fd int) *api.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.regs[fd]
}

// Register implements api.Poller.
func (p *Poller) Register(fd int, interest api.Ops) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return api.ErrClosed
	}
	if ev, ok := p.regs[fd]; ok {
		ev.Interest = interest
		return nil
	}
	p.regs[fd] = &api.Event{FD: fd, Interest: interest}
	return nil
}

// InterestOps implements api.Poller.
func (p *Poller) InterestOps(fd int) (api.Ops, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	ev, ok := p.regs[fd]
	if !ok {
		return 0, false
	}
	return ev.Interest, true
}

// WaitNow consumes the next scripted refresh without blocking.
func (p *Poller) WaitNow() (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.nonBlockingWaits++
	return p.refresh()
}

// Wait consumes the next scripted refresh, recording the timeout bound.
func (p *Poller) Wait(timeoutMillis int64) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.blockingWaits++
	p.lastTimeout = timeoutMillis
	return p.refresh()
}

// NonBlockingWaits counts WaitNow calls.
func (p *Poller) NonBlockingWaits() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.nonBlockingWaits
}

// BlockingWaits counts Wait calls.
func (p *Poller) BlockingWaits() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.blockingWaits
}

// LastTimeout returns the bound of the most recent blocking refresh.
func (p *Poller) LastTimeout() int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastTimeout
}

// refresh consumes the next scripted outcome. Callers hold p.mu.
func (p *Poller) refresh() (int, error) {
	if p.closed {
		return 0, api.ErrClosed
	}
	if p.script.Length() == 0 {
		return 0, nil
	}
	r := p.script.Remove().(Refresh)
	if r.Err != nil {
		return 0, r.Err
	}
	added := 0
	for _, fd := range r.FDs {
		ev, ok := p.regs[fd]
		if !ok {
			continue
		}
		if p.buf.Push(ev) {
			ev.Ready = ev.Interest
			added++
		}
	}
	return added, nil
}

// Ready implements api.Poller.
func (p *Poller) Ready() []*api.Event {
	return p.buf.Ready()
}

// ClearReady implements api.Poller.
func (p *Poller) ClearReady() {
	p.buf.Clear()
}

// InstallReadyStore implements api.ReadyStoreInstaller.
func (p *Poller) InstallReadyStore(store api.EventStore) error {
	if p.installErr != nil {
		return p.installErr
	}
	p.buf.Install(store)
	p.installed = true
	return nil
}

// Close implements api.Poller. Idempotent.
func (p *Poller) Close() error {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
	return nil
}

// Plain wraps a Poller, hiding the substitution capability so callers can
// exercise the purely native configuration.
type Plain struct {
	P *Poller
}

// NewPlain returns a scripted poller without the installer capability.
func NewPlain() *Plain {
	return &Plain{P: NewPoller()}
}

func (p *Plain) Register(fd int, interest api.Ops) error  { return p.P.Register(fd, interest) }
func (p *Plain) InterestOps(fd int) (api.Ops, bool)       { return p.P.InterestOps(fd) }
func (p *Plain) WaitNow() (int, error)                    { return p.P.WaitNow() }
func (p *Plain) Wait(timeoutMillis int64) (int, error)    { return p.P.Wait(timeoutMillis) }
func (p *Plain) Ready() []*api.Event                      { return p.P.Ready() }
func (p *Plain) ClearReady()                              { p.P.ClearReady() }
func (p *Plain) Close() error                             { return p.P.Close() }
