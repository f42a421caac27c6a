package vars

import (
	"sync"
	"testing"

	"github.com/go-drift/reactive/pkg/errors"
)

func TestApplyReturnsCycleMask(t *testing.T) {
	u := NewUpdates()
	plain := NewVar(u, 0)
	layout := NewVarMasked(u, 0, MaskUpdate|MaskLayout)
	render := NewVarMasked(u, 0, MaskUpdate|MaskRender)

	plain.Set(1)
	if mask := u.Apply(); mask != MaskUpdate {
		t.Fatalf("mask = %v, want MaskUpdate", mask)
	}

	layout.Set(1)
	render.Set(1)
	mask := u.Apply()
	if !mask.Has(MaskUpdate | MaskLayout | MaskRender) {
		t.Fatalf("mask = %v, want update|layout|render", mask)
	}

	if mask := u.Apply(); mask != 0 {
		t.Fatalf("idle cycle mask = %v, want 0", mask)
	}
}

func TestTakeMaskAggregatesAcrossCycles(t *testing.T) {
	u := NewUpdates()
	layout := NewVarMasked(u, 0, MaskUpdate|MaskLayout)
	render := NewVarMasked(u, 0, MaskUpdate|MaskRender)

	layout.Set(1)
	u.Apply()
	render.Set(1)
	u.Apply()

	if mask := u.TakeMask(); !mask.Has(MaskLayout | MaskRender) {
		t.Fatalf("aggregate = %v, want layout|render", mask)
	}
	if mask := u.TakeMask(); mask != 0 {
		t.Fatalf("aggregate after drain = %v, want 0", mask)
	}
}

func TestShutdownRejectsWrites(t *testing.T) {
	u := NewUpdates()
	v := NewVar(u, 1)

	u.Shutdown()
	select {
	case <-u.Done():
	default:
		t.Fatal("Done not closed after Shutdown")
	}

	if err := v.TrySet(2); !errors.IsShutdown(err) {
		t.Fatalf("TrySet after shutdown = %v, want shutdown error", err)
	}
	u.Apply()
	if v.Get() != 1 {
		t.Fatal("write landed after shutdown")
	}

	// Shutdown is idempotent.
	u.Shutdown()
}

func TestWakeFiresOnEnqueue(t *testing.T) {
	u := NewUpdates()
	v := NewVar(u, 0)

	var woke int
	u.SetWake(func() { woke++ })

	v.Set(1)
	if woke != 1 {
		t.Fatalf("wake fired %d times after one enqueue, want 1", woke)
	}
	if !u.HasPending() {
		t.Fatal("HasPending false with a queued write")
	}
	u.Apply()
	if u.HasPending() {
		t.Fatal("HasPending true after Apply")
	}
}

func TestCrossGoroutineWrites(t *testing.T) {
	u := NewUpdates()
	v := NewVar(u, 0)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				v.Modify(func(m *Modify[int]) {
					m.Update(func(x int) int { return x + 1 })
				})
			}
		}()
	}
	wg.Wait()
	u.Apply()

	if got := v.Get(); got != 800 {
		t.Fatalf("value = %d, want 800", got)
	}
}

func TestConcurrentApplyPanics(t *testing.T) {
	u := NewUpdates()
	if !u.applying.CompareAndSwap(false, true) {
		t.Fatal("could not simulate an in-flight Apply")
	}
	defer u.applying.Store(false)
	defer func() {
		if recover() == nil {
			t.Fatal("second concurrent Apply did not panic")
		}
	}()
	u.Apply()
}

func TestCurrentCycleAdvances(t *testing.T) {
	u := NewUpdates()
	before := u.CurrentCycle()
	u.Apply()
	u.Apply()
	if got := u.CurrentCycle(); got != before+2 {
		t.Fatalf("cycle = %d, want %d", got, before+2)
	}
}
