// Author: momentics <momentics@gmail.com>
// SPDX-License-Identifier: MIT

package fake_test

import (
	"errors"
	"testing"

	"github.com/momentics/hioload-mux/api"
	"github.com/momentics/hioload-mux/fake"
)

func TestScriptedRefreshOrder(t *testing.T) {
	p := fake.NewPoller()
	p.Register(3, api.OpRead)
	p.Register(4, api.OpWrite)
	p.Script(fake.Refresh{FDs: []int{3}})
	p.Script(fake.Refresh{FDs: []int{4}})

	n, err := p.WaitNow()
	if err != nil || n != 1 {
		t.Fatalf("first refresh = (%d, %v), want (1, nil)", n, err)
	}
	if got := p.Ready(); len(got) != 1 || got[0].FD != 3 {
		t.Fatalf("ready after first refresh = %v, want fd 3", got)
	}
	p.ClearReady()

	n, err = p.WaitNow()
	if err != nil || n != 1 {
		t.Fatalf("second refresh = (%d, %v), want (1, nil)", n, err)
	}
	if got := p.Ready(); got[0].FD != 4 {
		t.Fatalf("ready after second refresh = fd %d, want 4", got[0].FD)
	}
}

func TestExhaustedScriptReportsNoReadiness(t *testing.T) {
	p := fake.NewPoller()
	p.Register(1, api.OpRead)
	if n, err := p.WaitNow(); n != 0 || err != nil {
		t.Fatalf("WaitNow() on empty script = (%d, %v), want (0, nil)", n, err)
	}
}

func TestScriptedError(t *testing.T) {
	p := fake.NewPoller()
	boom := errors.New("poll interrupted")
	p.Script(fake.Refresh{Err: boom})
	if _, err := p.WaitNow(); !errors.Is(err, boom) {
		t.Fatalf("WaitNow() error = %v, want %v", err, boom)
	}
}

func TestUnregisteredDescriptorsIgnored(t *testing.T) {
	p := fake.NewPoller()
	p.Register(7, api.OpRead)
	p.Script(fake.Refresh{FDs: []int{7, 99}})
	n, err := p.WaitNow()
	if err != nil || n != 1 {
		t.Fatalf("refresh = (%d, %v), want (1, nil)", n, err)
	}
}

func TestCountersTrackWaitKinds(t *testing.T) {
	p := fake.NewPoller()
	p.WaitNow()
	p.WaitNow()
	p.Wait(250)
	if p.NonBlockingWaits() != 2 || p.BlockingWaits() != 1 {
		t.Errorf("waits = %d/%d, want 2/1", p.NonBlockingWaits(), p.BlockingWaits())
	}
	if p.LastTimeout() != 250 {
		t.Errorf("LastTimeout() = %d, want 250", p.LastTimeout())
	}
}

func TestInstallRoutesEventsToStore(t *testing.T) {
	p := fake.NewPoller()
	store := &countingStore{}
	if err := p.InstallReadyStore(store); err != nil {
		t.Fatalf("InstallReadyStore() error: %v", err)
	}
	if !p.Installed() {
		t.Fatal("Installed() = false after successful install")
	}
	p.Register(5, api.OpRead)
	p.Script(fake.Refresh{FDs: []int{5}})
	p.WaitNow()
	if store.adds != 1 {
		t.Errorf("store adds = %d, want 1", store.adds)
	}
	if got := p.Ready(); len(got) != 0 {
		t.Errorf("native ready = %v, want empty after install", got)
	}
}

func TestFailInstall(t *testing.T) {
	p := fake.NewPoller()
	denied := errors.New("denied")
	p.FailInstall(denied)
	if err := p.InstallReadyStore(&countingStore{}); !errors.Is(err, denied) {
		t.Fatalf("InstallReadyStore() error = %v, want %v", err, denied)
	}
	if p.Installed() {
		t.Fatal("Installed() = true after failed install")
	}
}

func TestPlainHidesInstaller(t *testing.T) {
	var p api.Poller = fake.NewPlain()
	if _, ok := p.(api.ReadyStoreInstaller); ok {
		t.Fatal("Plain exposes the installer capability")
	}
}

func TestCloseFailsRefreshes(t *testing.T) {
	p := fake.NewPoller()
	p.Close()
	if _, err := p.WaitNow(); !errors.Is(err, api.ErrClosed) {
		t.Fatalf("WaitNow() after Close error = %v, want ErrClosed", err)
	}
	if err := p.Register(1, api.OpRead); !errors.Is(err, api.ErrClosed) {
		t.Fatalf("Register() after Close error = %v, want ErrClosed", err)
	}
}

// countingStore accepts everything and counts adds.
type countingStore struct {
	adds int
}

func (s *countingStore) Add(*api.Event) bool      { s.adds++; return true }
func (s *countingStore) Contains(*api.Event) bool { return false }
func (s *countingStore) Clear()                   {}
func (s *countingStore) Size() int                { return s.adds }
