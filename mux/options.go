// File: mux/options.go
// Package mux defines functional options for the multiplexer.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package mux

import (
	"github.com/joeycumines/logiface"

	"github.com/momentics/hioload-mux/api"
	"github.com/momentics/hioload-mux/control"
)

// Option customizes multiplexer initialization.
type Option func(*Mux)

// WithPoller pins the poller instance Open acquires, instead of the
// platform factory.
func WithPoller(p api.Poller) Option {
	return func(m *Mux) {
		m.factory = func() (api.Poller, error) { return p, nil }
	}
}

// WithPollerFactory overrides the poller constructor used by Open.
func WithPollerFactory(fn func() (api.Poller, error)) Option {
	return func(m *Mux) {
		m.factory = fn
	}
}

// WithoutReadySetSwap disables the ready-set substitution attempt entirely;
// the multiplexer always runs on the poller-native collection.
func WithoutReadySetSwap() Option {
	return func(m *Mux) {
		m.noSwap = true
	}
}

// WithLogger attaches a structured logger. A nil logger is accepted and
// disables logging.
func WithLogger(l *logiface.Logger[logiface.Event]) Option {
	return func(m *Mux) {
		m.log = l
	}
}

// WithMetrics attaches a metrics registry for poll-cycle counters.
func WithMetrics(r *control.Registry) Option {
	return func(m *Mux) {
		m.metrics = r
	}
}
