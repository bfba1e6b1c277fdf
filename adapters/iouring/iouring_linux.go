//go:build linux
// +build linux

// File: adapters/iouring/iouring_linux.go
// Author: momentics <momentics@gmail.com>
//
// io_uring-backed poller. io_uring is completion-driven: requests are
// submitted per descriptor and their completions are bridged into readiness
// events, with the read payload carried on the event itself. Read and
// accept interest only.

package iouring

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	ring "github.com/iceber/iouring-go"

	"github.com/momentics/hioload-mux/api"
	"github.com/momentics/hioload-mux/poller"
)

const readBufferSize = 1024

// Poller implements api.Poller over an io_uring instance, including the
// ready-store substitution capability.
type Poller struct {
	ring    *ring.IOURing
	results chan ring.Result
	done    chan struct{}
	closed  atomic.Bool
	mu      sync.RWMutex // guards regs
	regs    map[int]*api.Event
	buf     poller.EventBuffer
}

// New constructs an io_uring poller with the given submission queue depth.
func New(entries uint) (*Poller, error) {
	r, err := ring.New(entries)
	if err != nil {
		return nil, fmt.Errorf("iouring create: %w", err)
	}
	return &Poller{
		ring:    r,
		results: make(chan ring.Result, entries),
		done:    make(chan struct{}),
		regs:    make(map[int]*api.Event),
	}, nil
}

// Register arms fd for the given interest set. Write interest is not
// supported by the completion bridge.
func (p *Poller) Register(fd int, interest api.Ops) error {
	if p.closed.Load() {
		return api.ErrClosed
	}
	if interest&api.OpWrite != 0 {
		return fmt.Errorf("iouring: write interest: %w", api.ErrNotSupported)
	}

	p.mu.Lock()
	if ev, ok := p.regs[fd]; ok {
		ev.Interest = interest
		p.mu.Unlock()
		return nil
	}
	p.regs[fd] = &api.Event{FD: fd, Interest: interest}
	p.mu.Unlock()

	if interest&api.OpAccept != 0 {
		if err := p.submitAccept(fd); err != nil {
			return err
		}
	}
	if interest&api.OpRead != 0 {
		if err := p.submitRead(fd); err != nil {
			return err
		}
	}
	return nil
}

func (p *Poller) submitAccept(fd int) error {
	if _, err := p.ring.SubmitRequest(ring.Accept(fd), p.results); err != nil {
		return fmt.Errorf("iouring submit accept: %w", err)
	}
	return nil
}

func (p *Poller) submitRead(fd int) error {
	buffer := make([]byte, readBufferSize)
	if _, err := p.ring.SubmitRequest(ring.Read(fd, buffer), p.results); err != nil {
		return fmt.Errorf("iouring submit read: %w", err)
	}
	return nil
}

// InterestOps returns the current interest set for fd.
func (p *Poller) InterestOps(fd int) (api.Ops, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	ev, ok := p.regs[fd]
	if !ok {
		return 0, false
	}
	return ev.Interest, true
}

// WaitNow drains buffered completions without blocking.
func (p *Poller) WaitNow() (int, error) {
	if p.closed.Load() {
		return 0, api.ErrClosed
	}
	return p.drain(), nil
}

// Wait drains buffered completions, blocking for the first one up to
// timeoutMillis when none are pending; 0 blocks indefinitely.
func (p *Poller) Wait(timeoutMillis int64) (int, error) {
	if p.closed.Load() {
		return 0, api.ErrClosed
	}
	if added := p.drain(); added > 0 {
		return added, nil
	}

	if timeoutMillis <= 0 {
		select {
		case r := <-p.results:
			return p.complete(r) + p.drain(), nil
		case <-p.done:
			return 0, api.ErrClosed
		}
	}

	timer := time.NewTimer(time.Duration(timeoutMillis) * time.Millisecond)
	defer timer.Stop()
	select {
	case r := <-p.results:
		return p.complete(r) + p.drain(), nil
	case <-timer.C:
		return 0, nil
	case <-p.done:
		return 0, api.ErrClosed
	}
}

func (p *Poller) drain() int {
	added := 0
	for {
		select {
		case r := <-p.results:
			added += p.complete(r)
		default:
			return added
		}
	}
}

func (p *Poller) complete(r ring.Result) int {
	switch r.Opcode() {
	case ring.OpAccept:
		p.mu.RLock()
		_, ok := p.regs[r.Fd()]
		p.mu.RUnlock()
		if !ok {
			return 0
		}
		// keep the listener armed for the next connection
		_ = p.submitAccept(r.Fd())
		connFD, ok := r.ReturnValue0().(int)
		if !ok || connFD < 0 {
			return 0
		}
		ev := &api.Event{FD: connFD, Interest: api.OpAccept, Ready: api.OpAccept}
		if p.buf.Push(ev) {
			return 1
		}
		return 0

	case ring.OpRead:
		p.mu.RLock()
		ev, ok := p.regs[r.Fd()]
		p.mu.RUnlock()
		if !ok {
			return 0
		}
		n, _ := r.ReturnValue0().(int)
		if n <= 0 {
			ev.Ready = api.OpError
			ev.Data = nil
		} else {
			buffer, _ := r.GetRequestBuffer()
			ev.Ready = api.OpRead
			ev.Data = buffer[:n]
			// re-arm the descriptor for the next payload
			_ = p.submitRead(r.Fd())
		}
		if p.buf.Push(ev) {
			return 1
		}
		return 0
	}
	return 0
}

// Ready exposes the native ready collection.
func (p *Poller) Ready() []*api.Event {
	return p.buf.Ready()
}

// ClearReady empties the native ready collection.
func (p *Poller) ClearReady() {
	p.buf.Clear()
}

// InstallReadyStore implements api.ReadyStoreInstaller.
func (p *Poller) InstallReadyStore(store api.EventStore) error {
	if p.closed.Load() {
		return api.ErrClosed
	}
	p.buf.Install(store)
	return nil
}

// Close releases the ring. Idempotent; a blocked Wait fails with ErrClosed.
func (p *Poller) Close() error {
	if p.closed.Swap(true) {
		return nil
	}
	close(p.done)
	return p.ring.Close()
}
