// Copyright (c) 2025
// Author: momentics <momentics@gmail.com>

// Package poller provides the OS-level readiness backends driven by the
// multiplexer: epoll on Linux and kqueue on Darwin, behind build tags, with
// a stub factory elsewhere. Both real backends support ready-store
// substitution via api.ReadyStoreInstaller.
package poller
