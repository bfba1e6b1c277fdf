// File: api/handler.go
// Package api defines the per-event dispatch contract.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package api

// EventHandler consumes one ready event per call. It performs the actual
// channel I/O (accept, read, write) and returns an error when processing
// that event cannot complete; it makes no scheduling decisions of its own.
type EventHandler func(ev *Event) error
