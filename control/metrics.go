// control/metrics.go
// Author: momentics <momentics@gmail.com>
//
// Runtime metrics collector for the poll loop.
// Exposes counters in a thread-safe map with dynamic registration.

package control

import (
	"sync"
	"time"
)

// Registry holds mutable and read-only metrics.
type Registry struct {
	mu      sync.RWMutex
	metrics map[string]any
	updated time.Time
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		metrics: make(map[string]any),
	}
}

// Set sets or updates a metric key.
func (r *Registry) Set(key string, value any) {
	r.mu.Lock()
	r.metrics[key] = value
	r.updated = time.Now()
	r.mu.Unlock()
}

// Add increments an int64 counter by delta, creating it at delta if absent.
func (r *Registry) Add(key string, delta int64) {
	r.mu.Lock()
	if cur, ok := r.metrics[key].(int64); ok {
		r.metrics[key] = cur + delta
	} else {
		r.metrics[key] = delta
	}
	r.updated = time.Now()
	r.mu.Unlock()
}

// Inc increments an int64 counter by one.
func (r *Registry) Inc(key string) {
	r.Add(key, 1)
}

// Snapshot returns the latest metrics.
func (r *Registry) Snapshot() map[string]any {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]any, len(r.metrics))
	for k, v := range r.metrics {
		out[k] = v
	}
	return out
}

// Updated returns the time of the last mutation.
func (r *Registry) Updated() time.Time {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.updated
}
