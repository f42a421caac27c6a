package testing

import (
	stdtesting "testing"
	"time"

	"github.com/go-drift/reactive/pkg/animation"
	"github.com/go-drift/reactive/pkg/vars"
)

func TestFakeClock(t *stdtesting.T) {
	c := NewFakeClock()
	start := c.Now()

	c.Advance(time.Second)
	if got := c.Now().Sub(start); got != time.Second {
		t.Fatalf("advanced %v, want 1s", got)
	}

	exact := time.Date(2030, 6, 1, 12, 0, 0, 0, time.UTC)
	c.Set(exact)
	if !c.Now().Equal(exact) {
		t.Fatalf("Set landed at %v", c.Now())
	}
}

func TestHarnessCycle(t *stdtesting.T) {
	h := NewHarness(t)
	v := vars.NewVar(h.U, 0)

	v.Set(1)
	if mask := h.Cycle(); !mask.Has(vars.MaskUpdate) {
		t.Fatalf("cycle mask = %v", mask)
	}
	if got := v.Get(); got != 1 {
		t.Fatalf("value = %d, want 1", got)
	}
}

func TestHarnessPumpDrivesAnimations(t *stdtesting.T) {
	h := NewHarness(t)
	v := vars.NewVar(h.U, 0.0)

	vars.Ease(v, 10, time.Second, animation.LinearCurve, animation.LerpFloat64)
	h.Cycle()

	h.Pump(500 * time.Millisecond)
	if got := v.Get(); got != 5 {
		t.Fatalf("value at half = %v, want 5", got)
	}
	h.Pump(500 * time.Millisecond)
	if got := v.Get(); got != 10 {
		t.Fatalf("final value = %v, want 10", got)
	}
}

func TestHarnessPumpFrames(t *stdtesting.T) {
	h := NewHarness(t)
	v := vars.NewVar(h.U, 0.0)

	vars.Ease(v, 8, 80*time.Millisecond, animation.LinearCurve, animation.LerpFloat64)
	h.Cycle()

	mask := h.PumpFrames(5, 16*time.Millisecond)
	if !mask.Has(vars.MaskUpdate) {
		t.Fatalf("combined mask = %v", mask)
	}
	if got := v.Get(); got != 8 {
		t.Fatalf("value after 5 frames = %v, want 8", got)
	}
}

func TestHarnessSettle(t *stdtesting.T) {
	h := NewHarness(t)
	v := vars.NewVar(h.U, 0)

	v.Set(1)
	v.Set(2)
	h.Settle()
	if got := v.Get(); got != 2 {
		t.Fatalf("value = %d, want 2", got)
	}
	if h.U.HasPending() {
		t.Fatal("pending work after Settle")
	}
}
