// Package api
// Author: momentics <momentics@gmail.com>
//
// Common error values shared across hioload-mux packages.

package api

import "fmt"

var (
	// ErrClosed reports use of a poller or multiplexer after Close.
	ErrClosed = fmt.Errorf("poller is closed")
	// ErrNotOpen reports an operation on a multiplexer before Open.
	ErrNotOpen = fmt.Errorf("multiplexer is not open")
	// ErrAlreadyOpen reports a second Open on the same multiplexer.
	ErrAlreadyOpen = fmt.Errorf("multiplexer is already open")
	// ErrNotSupported reports a capability or platform that is unavailable.
	ErrNotSupported = fmt.Errorf("operation not supported")
)
