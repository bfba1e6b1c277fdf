// Copyright (c) 2025
// Author: momentics <momentics@gmail.com>

// Package api defines the contracts shared by the hioload-mux components:
// the readiness event model, the OS poller collaborator interface, the
// optional ready-store substitution capability, and common errors.
//
// The package is interface-only and carries no dependencies; concrete poller
// backends live in the poller and adapters packages, the multiplexer loop in
// the mux package.
package api
