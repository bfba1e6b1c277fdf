//go:build linux
// +build linux

// File: poller/epoll_linux.go
// Author: momentics <momentics@gmail.com>
//
// Linux epoll(7) readiness backend.

package poller

import (
	"fmt"
	"sync"
	"sync/atomic"

	"golang.org/x/sys/unix"

	"github.com/momentics/hioload-mux/api"
)

// waitBufferSize bounds the events drained from the kernel per refresh.
const waitBufferSize = 256

// Epoll is a level-triggered epoll-based api.Poller.
type Epoll struct {
	epfd   int
	closed atomic.Bool
	mu     sync.RWMutex // guards regs and Interest updates
	regs   map[int]*api.Event
	sys    []unix.EpollEvent
	buf    EventBuffer
}

// New constructs the platform poller for Linux.
func New() (api.Poller, error) {
	epfd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, fmt.Errorf("epoll create: %w", err)
	}
	return &Epoll{
		epfd: epfd,
		regs: make(map[int]*api.Event),
		sys:  make([]unix.EpollEvent, waitBufferSize),
	}, nil
}

// Register adds fd with the given interest set, or replaces the interest
// set of an existing registration. Safe to call while another goroutine
// blocks in Wait; the kernel picks up the change without a wakeup.
func (p *Epoll) Register(fd int, interest api.Ops) error {
	if p.closed.Load() {
		return api.ErrClosed
	}
	if fd < 0 {
		return fmt.Errorf("epoll: invalid descriptor %d", fd)
	}
	sys := unix.EpollEvent{Events: epollBits(interest), Fd: int32(fd)}

	p.mu.Lock()
	defer p.mu.Unlock()
	if ev, ok := p.regs[fd]; ok {
		if err := unix.EpollCtl(p.epfd, unix.EPOLL_CTL_MOD, fd, &sys); err != nil {
			return fmt.Errorf("epoll ctl mod: %w", err)
		}
		ev.Interest = interest
		return nil
	}
	if err := unix.EpollCtl(p.epfd, unix.EPOLL_CTL_ADD, fd, &sys); err != nil {
		return fmt.Errorf("epoll ctl add: %w", err)
	}
	p.regs[fd] = &api.Event{FD: fd, Interest: interest}
	return nil
}

// InterestOps returns the current interest set for fd.
func (p *Epoll) InterestOps(fd int) (api.Ops, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	ev, ok := p.regs[fd]
	if !ok {
		return 0, false
	}
	return ev.Interest, true
}

// WaitNow performs one non-blocking readiness refresh.
func (p *Epoll) WaitNow() (int, error) {
	return p.wait(0)
}

// Wait performs one blocking refresh bounded by timeoutMillis; 0 blocks
// indefinitely.
func (p *Epoll) Wait(timeoutMillis int64) (int, error) {
	timeout := int(timeoutMillis)
	if timeoutMillis <= 0 {
		timeout = -1
	}
	return p.wait(timeout)
}

func (p *Epoll) wait(timeout int) (int, error) {
	if p.closed.Load() {
		return 0, api.ErrClosed
	}
	n, err := unix.EpollWait(p.epfd, p.sys, timeout)
	if err != nil {
		if err == unix.EINTR {
			// interrupted by signal, report no readiness
			return 0, nil
		}
		if p.closed.Load() {
			return 0, api.ErrClosed
		}
		return 0, fmt.Errorf("epoll wait: %w", err)
	}

	added := 0
	for i := 0; i < n; i++ {
		fd := int(p.sys[i].Fd)
		p.mu.RLock()
		ev, ok := p.regs[fd]
		var ready api.Ops
		if ok {
			ready = readyBits(p.sys[i].Events, ev.Interest)
		}
		p.mu.RUnlock()
		if !ok {
			continue
		}
		if p.buf.Push(ev) {
			ev.Ready = ready
			added++
		} else {
			// already collected by an earlier spin refresh this cycle
			ev.Ready |= ready
		}
	}
	return added, nil
}

// Ready exposes the native ready collection.
func (p *Epoll) Ready() []*api.Event {
	return p.buf.Ready()
}

// ClearReady empties the native ready collection.
func (p *Epoll) ClearReady() {
	p.buf.Clear()
}

// InstallReadyStore implements api.ReadyStoreInstaller.
func (p *Epoll) InstallReadyStore(store api.EventStore) error {
	if p.closed.Load() {
		return api.ErrClosed
	}
	p.buf.Install(store)
	return nil
}

// Close releases the epoll instance. Idempotent.
func (p *Epoll) Close() error {
	if p.closed.Swap(true) {
		return nil
	}
	return unix.Close(p.epfd)
}

func epollBits(interest api.Ops) uint32 {
	var bits uint32
	if interest&(api.OpRead|api.OpAccept) != 0 {
		bits |= unix.EPOLLIN
	}
	if interest&api.OpWrite != 0 {
		bits |= unix.EPOLLOUT
	}
	return bits
}

func readyBits(sys uint32, interest api.Ops) api.Ops {
	var ready api.Ops
	if sys&unix.EPOLLIN != 0 {
		ready |= (api.OpRead | api.OpAccept) & interest
	}
	if sys&unix.EPOLLOUT != 0 {
		ready |= api.OpWrite & interest
	}
	if sys&(unix.EPOLLERR|unix.EPOLLHUP) != 0 {
		ready |= api.OpError
	}
	return ready
}
