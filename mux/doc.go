// Copyright (c) 2025
// Author: momentics <momentics@gmail.com>

// Package mux implements the readiness-event multiplexer loop: it owns an
// OS poller, substitutes the poller's internal readiness storage with an
// array-backed ready set when the backend supports it, and drives a
// spin-then-block select with per-event dispatch.
package mux
