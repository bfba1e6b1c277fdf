//go:build !linux && !darwin
// +build !linux,!darwin

// File: poller/poller_stub.go
// Author: momentics <momentics@gmail.com>
//
// Stub factory for unsupported platforms.

package poller

import (
	"fmt"

	"github.com/momentics/hioload-mux/api"
)

// New reports that no readiness backend exists for this platform.
func New() (api.Poller, error) {
	return nil, fmt.Errorf("poller: no readiness backend for this platform: %w", api.ErrNotSupported)
}
