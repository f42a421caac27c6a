package vars

import (
	"testing"
	"time"
)

func TestLoopAppliesOnWake(t *testing.T) {
	u := NewUpdates()
	defer u.Shutdown()
	v := NewVar(u, 0)

	l := NewLoop(u, time.Hour) // no frame ticks: wake-driven only
	cycles := make(chan UpdateMask, 8)
	l.OnCycle(func(mask UpdateMask) { cycles <- mask })

	done := make(chan struct{})
	go func() {
		defer close(done)
		l.Run()
	}()

	// A cross-goroutine write wakes the loop through SetWake.
	if err := Sender(v).Send(42); err != nil {
		t.Fatalf("Send: %v", err)
	}

	select {
	case mask := <-cycles:
		if !mask.Has(MaskUpdate) {
			t.Fatalf("cycle mask = %v", mask)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("loop did not run a cycle")
	}
	if got := v.Get(); got != 42 {
		t.Fatalf("value = %d, want 42", got)
	}

	u.Shutdown()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("loop did not exit on shutdown")
	}
}

func TestLoopTicksAnimations(t *testing.T) {
	u := NewUpdates()
	defer u.Shutdown()
	v := NewVar(u, 0.0)

	l := NewLoop(u, time.Millisecond)
	settled := make(chan struct{})
	v.Hook(func(value float64) bool {
		if value == 1 {
			close(settled)
			return false
		}
		return true
	})

	go l.Run()
	Step(v, 1.0, 5*time.Millisecond)

	select {
	case <-settled:
	case <-time.After(5 * time.Second):
		t.Fatal("animation never concluded under the loop")
	}
}
