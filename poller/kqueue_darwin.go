//go:build darwin
// +build darwin

// File: poller/kqueue_darwin.go
// Author: momentics <momentics@gmail.com>
//
// Darwin kqueue(2) readiness backend.

package poller

import (
	"fmt"
	"sync"
	"sync/atomic"

	"golang.org/x/sys/unix"

	"github.com/momentics/hioload-mux/api"
)

const waitBufferSize = 256

// Kqueue is a level-triggered kqueue-based api.Poller.
type Kqueue struct {
	kq     int
	closed atomic.Bool
	mu     sync.RWMutex // guards regs and Interest updates
	regs   map[int]*api.Event
	sys    []unix.Kevent_t
	buf    EventBuffer
}

// New constructs the platform poller for Darwin.
func New() (api.Poller, error) {
	kq, err := unix.Kqueue()
	if err != nil {
		return nil, fmt.Errorf("kqueue create: %w", err)
	}
	return &Kqueue{
		kq:   kq,
		regs: make(map[int]*api.Event),
		sys:  make([]unix.Kevent_t, waitBufferSize),
	}, nil
}

// Register adds fd with the given interest set, or replaces the interest
// set of an existing registration, translating the difference into kevent
// filter changes.
func (p *Kqueue) Register(fd int, interest api.Ops) error {
	if p.closed.Load() {
		return api.ErrClosed
	}
	if fd < 0 {
		return fmt.Errorf("kqueue: invalid descriptor %d", fd)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	var prev api.Ops
	ev, exists := p.regs[fd]
	if exists {
		prev = ev.Interest
	}

	changes := make([]unix.Kevent_t, 0, 2)
	changes = filterChange(changes, fd, unix.EVFILT_READ,
		interest&(api.OpRead|api.OpAccept) != 0, prev&(api.OpRead|api.OpAccept) != 0)
	changes = filterChange(changes, fd, unix.EVFILT_WRITE,
		interest&api.OpWrite != 0, prev&api.OpWrite != 0)
	if len(changes) > 0 {
		if _, err := unix.Kevent(p.kq, changes, nil, nil); err != nil {
			return fmt.Errorf("kevent change: %w", err)
		}
	}

	if exists {
		ev.Interest = interest
	} else {
		p.regs[fd] = &api.Event{FD: fd, Interest: interest}
	}
	return nil
}

// filterChange appends the kevent change moving one filter from its previous
// registration state to the wanted one, if any change is needed.
func filterChange(changes []unix.Kevent_t, fd int, filter int16, want, had bool) []unix.Kevent_t {
	switch {
	case want:
		return append(changes, unix.Kevent_t{
			Ident:  uint64(fd),
			Filter: filter,
			Flags:  unix.EV_ADD | unix.EV_ENABLE,
		})
	case had:
		return append(changes, unix.Kevent_t{
			Ident:  uint64(fd),
			Filter: filter,
			Flags:  unix.EV_DELETE,
		})
	default:
		return changes
	}
}

// InterestOps returns the current interest set for fd.
func (p *Kqueue) InterestOps(fd int) (api.Ops, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	ev, ok := p.regs[fd]
	if !ok {
		return 0, false
	}
	return ev.Interest, true
}

// WaitNow performs one non-blocking readiness refresh.
func (p *Kqueue) WaitNow() (int, error) {
	return p.wait(&unix.Timespec{})
}

// Wait performs one blocking refresh bounded by timeoutMillis; 0 blocks
// indefinitely.
func (p *Kqueue) Wait(timeoutMillis int64) (int, error) {
	if timeoutMillis <= 0 {
		return p.wait(nil)
	}
	ts := unix.NsecToTimespec(timeoutMillis * 1e6)
	return p.wait(&ts)
}

func (p *Kqueue) wait(ts *unix.Timespec) (int, error) {
	if p.closed.Load() {
		return 0, api.ErrClosed
	}
	n, err := unix.Kevent(p.kq, nil, p.sys, ts)
	if err != nil {
		if err == unix.EINTR {
			return 0, nil
		}
		if p.closed.Load() {
			return 0, api.ErrClosed
		}
		return 0, fmt.Errorf("kevent wait: %w", err)
	}

	added := 0
	for i := 0; i < n; i++ {
		fd := int(p.sys[i].Ident)
		p.mu.RLock()
		ev, ok := p.regs[fd]
		var ready api.Ops
		if ok {
			ready = keventBits(&p.sys[i], ev.Interest)
		}
		p.mu.RUnlock()
		if !ok {
			continue
		}
		// read and write filters surface as separate kevents for one fd;
		// the membership probe folds them into a single entry per cycle
		if p.buf.Push(ev) {
			ev.Ready = ready
			added++
		} else {
			ev.Ready |= ready
		}
	}
	return added, nil
}

// Ready exposes the native ready collection.
func (p *Kqueue) Ready() []*api.Event {
	return p.buf.Ready()
}

// ClearReady empties the native ready collection.
func (p *Kqueue) ClearReady() {
	p.buf.Clear()
}

// InstallReadyStore implements api.ReadyStoreInstaller.
func (p *Kqueue) InstallReadyStore(store api.EventStore) error {
	if p.closed.Load() {
		return api.ErrClosed
	}
	p.buf.Install(store)
	return nil
}

// Close releases the kqueue instance. Idempotent.
func (p *Kqueue) Close() error {
	if p.closed.Swap(true) {
		return nil
	}
	return unix.Close(p.kq)
}

func keventBits(kev *unix.Kevent_t, interest api.Ops) api.Ops {
	var ready api.Ops
	switch kev.Filter {
	case unix.EVFILT_READ:
		ready |= (api.OpRead | api.OpAccept) & interest
	case unix.EVFILT_WRITE:
		ready |= api.OpWrite & interest
	}
	if kev.Flags&(unix.EV_EOF|unix.EV_ERROR) != 0 {
		ready |= api.OpError
	}
	return ready
}
