// File: mux/strategy.go
// Package mux: processing strategy selection.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package mux

// Strategy identifies which readiness storage the dispatch step iterates.
// It is decided once at Open and never changes afterwards.
type Strategy uint8

const (
	// StrategyDefault iterates the poller-native ready collection.
	StrategyDefault Strategy = iota
	// StrategyArrayBacked iterates the installed ready set in insertion
	// order.
	StrategyArrayBacked
)

// String implements fmt.Stringer.
func (s Strategy) String() string {
	switch s {
	case StrategyArrayBacked:
		return "array-backed"
	case StrategyDefault:
		return "default"
	default:
		return "unknown"
	}
}
