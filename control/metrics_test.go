// control/metrics_test.go
// Author: momentics <momentics@gmail.com>

package control

import "testing"

func TestAddCreatesAndAccumulates(t *testing.T) {
	r := NewRegistry()
	r.Add("events", 3)
	r.Inc("events")
	if got := r.Snapshot()["events"]; got != int64(4) {
		t.Errorf("events = %v, want 4", got)
	}
}

func TestSetOverwrites(t *testing.T) {
	r := NewRegistry()
	r.Set("strategy", "default")
	r.Set("strategy", "array-backed")
	if got := r.Snapshot()["strategy"]; got != "array-backed" {
		t.Errorf("strategy = %v, want array-backed", got)
	}
}

func TestSnapshotIsACopy(t *testing.T) {
	r := NewRegistry()
	r.Set("k", int64(1))
	snap := r.Snapshot()
	snap["k"] = int64(99)
	if got := r.Snapshot()["k"]; got != int64(1) {
		t.Errorf("k = %v after mutating snapshot, want 1", got)
	}
}

func TestUpdatedAdvances(t *testing.T) {
	r := NewRegistry()
	before := r.Updated()
	r.Inc("cycles")
	if !r.Updated().After(before) {
		t.Error("Updated() did not advance after a mutation")
	}
}
