// Package control
// Author: momentics <momentics@gmail.com>
//
// Runtime metrics for the multiplexer poll loop: cycle and dispatch
// counters in a concurrent-safe registry with dynamic registration.
package control
