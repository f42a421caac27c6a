// Package testing provides a deterministic harness for reactive code:
// a fake clock injected into the animation layer and a pump that runs
// fake frames against an update engine.
package testing

import (
	stdtesting "testing"
	"time"

	"github.com/go-drift/reactive/pkg/animation"
	"github.com/go-drift/reactive/pkg/vars"
)

// Harness owns an update engine driven on fake time. Creating one
// swaps the animation clock for a FakeClock and restores the real
// clock when the test finishes.
type Harness struct {
	t     stdtesting.TB
	Clock *FakeClock
	U     *vars.Updates
}

// NewHarness returns a harness with a fresh engine and fake clock.
func NewHarness(t stdtesting.TB) *Harness {
	t.Helper()
	clock := NewFakeClock()
	prev := animation.SetClock(clock)
	t.Cleanup(func() { animation.SetClock(prev) })

	u := vars.NewUpdates()
	t.Cleanup(u.Shutdown)
	return &Harness{t: t, Clock: clock, U: u}
}

// Cycle applies pending updates once and returns the cycle mask.
func (h *Harness) Cycle() vars.UpdateMask {
	return h.U.Apply()
}

// Pump advances fake time by d, ticks animations once and applies the
// resulting writes, like a frame loop that slept for d.
func (h *Harness) Pump(d time.Duration) vars.UpdateMask {
	h.Clock.Advance(d)
	h.U.Tick()
	return h.U.Apply()
}

// PumpFrames runs n frames of the given duration each, ticking and
// applying every frame. The combined cycle masks are returned.
func (h *Harness) PumpFrames(n int, frame time.Duration) vars.UpdateMask {
	var mask vars.UpdateMask
	for range n {
		mask |= h.Pump(frame)
	}
	return mask
}

// Settle applies until no queued work remains. It fails the test if
// the engine does not quiesce within a generous bound.
func (h *Harness) Settle() vars.UpdateMask {
	h.t.Helper()
	var mask vars.UpdateMask
	for i := 0; i < 100; i++ {
		if !h.U.HasPending() {
			return mask
		}
		mask |= h.U.Apply()
	}
	h.t.Fatalf("engine did not settle after 100 cycles")
	return mask
}
