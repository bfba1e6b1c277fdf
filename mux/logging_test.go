// File: mux/logging_test.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Verifies the structured logging paths: substitution failure and handler
// failure are absorbed and reported through the attached logger.

package mux_test

import (
	"errors"
	"testing"

	"github.com/joeycumines/logiface"

	"github.com/momentics/hioload-mux/api"
	"github.com/momentics/hioload-mux/fake"
	"github.com/momentics/hioload-mux/mux"
)

// testEvent is a minimal logiface.Event implementation capturing fields.
type testEvent struct {
	logiface.UnimplementedEvent
	level  logiface.Level
	fields map[string]any
}

func (e *testEvent) Level() logiface.Level        { return e.level }
func (e *testEvent) AddField(key string, val any) { e.fields[key] = val }

type testEventFactory struct{}

func (*testEventFactory) NewEvent(level logiface.Level) *testEvent {
	return &testEvent{level: level, fields: make(map[string]any)}
}

type testWriter struct {
	events []*testEvent
}

func (w *testWriter) Write(e *testEvent) error {
	w.events = append(w.events, e)
	return nil
}

func newTestLogger(w *testWriter) *logiface.Logger[logiface.Event] {
	return logiface.New[*testEvent](
		logiface.WithEventFactory[*testEvent](&testEventFactory{}),
		logiface.WithWriter[*testEvent](w),
	).Logger()
}

func TestSubstitutionFailureIsLoggedNotRaised(t *testing.T) {
	w := &testWriter{}
	p := fake.NewPoller()
	p.FailInstall(errors.New("access denied"))

	m := mux.New(mux.WithPoller(p), mux.WithLogger(newTestLogger(w)))
	if err := m.Open(); err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	defer m.Close()

	if len(w.events) != 1 {
		t.Fatalf("logged events = %d, want 1 warning", len(w.events))
	}
	if w.events[0].level != logiface.LevelWarning {
		t.Errorf("log level = %v, want warning", w.events[0].level)
	}
	if w.events[0].fields["err"] == nil {
		t.Error("substitution warning carries no err field")
	}
}

func TestHandlerFailureIsLoggedWithDescriptor(t *testing.T) {
	w := &testWriter{}
	m, p := openWithFake(t, mux.WithLogger(newTestLogger(w)))
	defer m.Close()
	m.Register(11, api.OpRead)
	p.Script(fake.Refresh{FDs: []int{11}})
	if _, err := m.Select(1, 0); err != nil {
		t.Fatalf("Select() error: %v", err)
	}

	m.Process(func(*api.Event) error { return errors.New("short write") }, false)

	if len(w.events) != 1 {
		t.Fatalf("logged events = %d, want 1", len(w.events))
	}
	if got := w.events[0].fields["fd"]; got != 11 {
		t.Errorf("fd field = %v, want 11", got)
	}
}

func TestNilLoggerIsAccepted(t *testing.T) {
	p := fake.NewPoller()
	p.FailInstall(errors.New("unsupported"))
	m := mux.New(mux.WithPoller(p), mux.WithLogger(nil))
	if err := m.Open(); err != nil {
		t.Fatalf("Open() with nil logger error: %v", err)
	}
	defer m.Close()
}
