package vars

import (
	"runtime"
	"testing"
	"time"

	"github.com/go-drift/reactive/pkg/animation"
)

// tickClock is a hand-cranked animation clock for deterministic tests.
type tickClock struct {
	now time.Time
}

func (c *tickClock) Now() time.Time { return c.now }

func (c *tickClock) advance(d time.Duration) { c.now = c.now.Add(d) }

func newTickClock(t *testing.T) *tickClock {
	t.Helper()
	c := &tickClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	prev := animation.SetClock(c)
	t.Cleanup(func() { animation.SetClock(prev) })
	return c
}

// pump advances the clock, ticks once and applies, like one frame.
func pump(u *Updates, clock *tickClock, d time.Duration) {
	clock.advance(d)
	u.Tick()
	u.Apply()
}

func TestEase(t *testing.T) {
	clock := newTickClock(t)
	u := NewUpdates()
	v := NewVar(u, 10.0)

	h := Ease(v, 20, time.Second, animation.LinearCurve, animation.LerpFloat64)
	if !h.IsPlaying() {
		t.Fatal("fresh ease not playing")
	}

	// A tick with zero elapsed time produces no value change.
	u.Tick()
	u.Apply()
	if got := v.Get(); got != 10 {
		t.Fatalf("value after zero-elapsed tick = %v, want 10", got)
	}
	if !v.IsAnimating() {
		t.Fatal("variable not animating while eased")
	}

	pump(u, clock, 500*time.Millisecond)
	if got := v.Get(); got != 15 {
		t.Fatalf("value at half = %v, want 15", got)
	}

	pump(u, clock, 500*time.Millisecond)
	if got := v.Get(); got != 20 {
		t.Fatalf("final value = %v, want exactly 20", got)
	}
	if h.IsPlaying() {
		t.Fatal("ease still playing past its duration")
	}
	if v.IsAnimating() {
		t.Fatal("variable still animating after conclusion")
	}
	if u.HasAnimations() {
		t.Fatal("concluded animation not pruned")
	}
}

func TestEaseSkippedFramesUseWallClock(t *testing.T) {
	clock := newTickClock(t)
	u := NewUpdates()
	v := NewVar(u, 0.0)

	Ease(v, 100, time.Second, animation.LinearCurve, animation.LerpFloat64)
	u.Tick()
	u.Apply()

	// One giant frame lands exactly on the target.
	pump(u, clock, 3*time.Second)
	if got := v.Get(); got != 100 {
		t.Fatalf("value after long frame = %v, want 100", got)
	}
}

func TestDirectWriteRevokesAnimation(t *testing.T) {
	clock := newTickClock(t)
	u := NewUpdates()
	v := NewVar(u, 0.0)

	Ease(v, 100, time.Second, animation.LinearCurve, animation.LerpFloat64)
	u.Tick()
	u.Apply()
	if !v.IsAnimating() {
		t.Fatal("variable not animating")
	}

	v.Set(500)
	u.Apply()
	if got := v.Get(); got != 500 {
		t.Fatalf("direct write = %v, want 500", got)
	}
	if v.IsAnimating() {
		t.Fatal("variable still animating after a direct write")
	}

	// The revoked animation's writes have no further effect.
	pump(u, clock, 500*time.Millisecond)
	if got := v.Get(); got != 500 {
		t.Fatalf("revoked animation wrote %v", got)
	}
}

func TestNewAnimationRevokesOldOne(t *testing.T) {
	clock := newTickClock(t)
	u := NewUpdates()
	v := NewVar(u, 0.0)

	Ease(v, 100, time.Second, animation.LinearCurve, animation.LerpFloat64)
	u.Tick()
	u.Apply()

	// A second ease takes authority over the same cell.
	Ease(v, -100, time.Second, animation.LinearCurve, animation.LerpFloat64)
	u.Tick()
	u.Apply()

	pump(u, clock, time.Second)
	if got := v.Get(); got != -100 {
		t.Fatalf("value = %v, want the newer animation's target -100", got)
	}
}

func TestStopReleasesAuthority(t *testing.T) {
	clock := newTickClock(t)
	u := NewUpdates()
	v := NewVar(u, 0.0)

	h := Ease(v, 100, time.Second, animation.LinearCurve, animation.LerpFloat64)
	pump(u, clock, 250*time.Millisecond)
	if got := v.Get(); got != 25 {
		t.Fatalf("value at quarter = %v, want 25", got)
	}

	h.Stop()
	u.Apply()
	if v.IsAnimating() {
		t.Fatal("variable animating after Stop")
	}
	pump(u, clock, time.Second)
	if got := v.Get(); got != 25 {
		t.Fatalf("stopped animation kept writing: %v", got)
	}
}

func TestAnimationStopsWhenTargetDropped(t *testing.T) {
	clock := newTickClock(t)
	u := NewUpdates()

	h := func() AnimationHandle {
		v := NewVar(u, 0.0)
		h := Ease(v, 1, time.Second, animation.LinearCurve, animation.LerpFloat64)
		// Drain the authority handoff so nothing strong remains queued.
		u.Tick()
		u.Apply()
		return h
	}()

	runtime.GC()
	runtime.GC()

	pump(u, clock, 100*time.Millisecond)
	if h.IsPlaying() {
		t.Fatal("animation survived its dropped target")
	}
}

func TestEaseOnConstIsInert(t *testing.T) {
	h := Ease(NewConst(1.0), 2, time.Second, animation.LinearCurve, animation.LerpFloat64)
	if h.IsPlaying() {
		t.Fatal("ease on a constant is playing")
	}
	h.Stop()
}

func TestStep(t *testing.T) {
	clock := newTickClock(t)
	u := NewUpdates()
	v := NewVar(u, "before")

	h := Step(v, "after", 100*time.Millisecond)
	pump(u, clock, 50*time.Millisecond)
	if got := v.Get(); got != "before" {
		t.Fatalf("value before delay = %q", got)
	}
	if !v.IsAnimating() {
		t.Fatal("variable not animating during the delay")
	}

	pump(u, clock, 50*time.Millisecond)
	if got := v.Get(); got != "after" {
		t.Fatalf("value after delay = %q, want after", got)
	}
	if h.IsPlaying() {
		t.Fatal("step still playing after firing")
	}
}

func TestStepOsc(t *testing.T) {
	clock := newTickClock(t)
	u := NewUpdates()
	v := NewVar(u, "tick")

	h := StepOsc(v, "tock", 100*time.Millisecond)
	u.Tick()
	u.Apply()

	pump(u, clock, 100*time.Millisecond)
	if got := v.Get(); got != "tock" {
		t.Fatalf("first toggle = %q, want tock", got)
	}
	pump(u, clock, 100*time.Millisecond)
	if got := v.Get(); got != "tick" {
		t.Fatalf("second toggle = %q, want tick", got)
	}
	pump(u, clock, 100*time.Millisecond)
	if got := v.Get(); got != "tock" {
		t.Fatalf("third toggle = %q, want tock", got)
	}
	if !h.IsPlaying() {
		t.Fatal("oscillator concluded on its own")
	}
	h.Stop()
}

func TestSetStepOsc(t *testing.T) {
	clock := newTickClock(t)
	u := NewUpdates()
	v := NewVar(u, "initial")

	h := SetStepOsc(v, "a", "b", 100*time.Millisecond)
	u.Tick()
	u.Apply()
	if got := v.Get(); got != "a" {
		t.Fatalf("immediate value = %q, want a", got)
	}

	pump(u, clock, 100*time.Millisecond)
	if got := v.Get(); got != "b" {
		t.Fatalf("first toggle = %q, want b", got)
	}
	pump(u, clock, 100*time.Millisecond)
	if got := v.Get(); got != "a" {
		t.Fatalf("second toggle = %q, want a", got)
	}
	h.Stop()
}

func TestSteps(t *testing.T) {
	clock := newTickClock(t)
	u := NewUpdates()
	v := NewVar(u, 0)

	var seen []int
	v.Hook(func(value int) bool {
		seen = append(seen, value)
		return true
	})

	Steps(v, []int{10, 20, 30, 40}, time.Second, animation.LinearCurve)
	u.Tick()
	u.Apply()

	for i := 0; i < 10; i++ {
		pump(u, clock, 100*time.Millisecond)
	}
	if got := v.Get(); got != 40 {
		t.Fatalf("final step = %d, want 40", got)
	}
	// Each step is observed exactly once.
	want := []int{10, 20, 30, 40}
	if len(seen) != len(want) {
		t.Fatalf("observed steps %v, want %v", seen, want)
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Fatalf("observed steps %v, want %v", seen, want)
		}
	}
}

func TestEaseOsc(t *testing.T) {
	clock := newTickClock(t)
	u := NewUpdates()
	v := NewVar(u, 0.0)

	h := EaseOsc(v, 0, 10, time.Second, animation.LinearCurve, animation.LerpFloat64)
	u.Tick()
	u.Apply()

	pump(u, clock, 500*time.Millisecond)
	if got := v.Get(); got != 5 {
		t.Fatalf("first half = %v, want 5", got)
	}
	pump(u, clock, 500*time.Millisecond)
	if got := v.Get(); got != 10 {
		t.Fatalf("first peak = %v, want 10", got)
	}

	// Return leg runs back toward a.
	pump(u, clock, 500*time.Millisecond)
	if got := v.Get(); got != 5 {
		t.Fatalf("return half = %v, want 5", got)
	}
	pump(u, clock, 500*time.Millisecond)
	if got := v.Get(); got != 0 {
		t.Fatalf("return end = %v, want 0", got)
	}
	if !h.IsPlaying() {
		t.Fatal("oscillator concluded on its own")
	}
	h.Stop()
}

func TestEaseKeyed(t *testing.T) {
	clock := newTickClock(t)
	u := NewUpdates()
	v := NewVar(u, 0.0)

	keys := []animation.Key[float64]{
		{Offset: 0, Value: 0},
		{Offset: 0.5, Value: 10},
		{Offset: 1, Value: 2},
	}
	EaseKeyed(v, keys, time.Second, animation.LinearCurve, animation.LerpFloat64)
	u.Tick()
	u.Apply()

	pump(u, clock, 250*time.Millisecond)
	if got := v.Get(); got != 5 {
		t.Fatalf("first segment midpoint = %v, want 5", got)
	}
	pump(u, clock, 500*time.Millisecond)
	if got := v.Get(); got != 6 {
		t.Fatalf("second segment midpoint = %v, want 6", got)
	}
	pump(u, clock, 250*time.Millisecond)
	if got := v.Get(); got != 2 {
		t.Fatalf("final keyframe = %v, want 2", got)
	}
}

func TestEaseKeyedFromCurrent(t *testing.T) {
	clock := newTickClock(t)
	u := NewUpdates()
	v := NewVar(u, 4.0)

	keys := []animation.Key[float64]{{Offset: 1, Value: 8}}
	EaseKeyedFromCurrent(v, keys, time.Second, animation.LinearCurve, animation.LerpFloat64)
	u.Tick()
	u.Apply()

	pump(u, clock, 500*time.Millisecond)
	if got := v.Get(); got != 6 {
		t.Fatalf("midpoint = %v, want halfway from current 4 to 8", got)
	}
}

func TestChaseRetarget(t *testing.T) {
	clock := newTickClock(t)
	u := NewUpdates()
	v := NewVar(u, 0.0)

	ch := Chase(v, 10, time.Second, animation.LinearCurve, animation.LerpFloat64)
	u.Tick()
	u.Apply()

	pump(u, clock, 500*time.Millisecond)
	if got := v.Get(); got != 5 {
		t.Fatalf("before retarget = %v, want 5", got)
	}

	// Redirect mid-flight: the reached value becomes the new origin and
	// the clock restarts.
	ch.Retarget(25)
	pump(u, clock, 500*time.Millisecond)
	if got := v.Get(); got != 15 {
		t.Fatalf("after retarget midpoint = %v, want 5 + (25-5)/2 = 15", got)
	}
	pump(u, clock, 500*time.Millisecond)
	if got := v.Get(); got != 25 {
		t.Fatalf("final = %v, want 25", got)
	}
	if ch.Handle().IsPlaying() {
		t.Fatal("chase still playing after reaching its target")
	}

	// Retargeting a concluded chase does nothing.
	ch.Retarget(99)
	pump(u, clock, time.Second)
	if got := v.Get(); got != 25 {
		t.Fatalf("concluded chase moved to %v", got)
	}
}

func TestSequence(t *testing.T) {
	clock := newTickClock(t)
	u := NewUpdates()
	v := NewVar(u, 0)

	var stages []int
	seq := Sequence(u, func(n int) AnimationHandle {
		stages = append(stages, n)
		if n >= 2 {
			return AnimationHandle{}
		}
		return Step(v, n+1, 100*time.Millisecond)
	})
	if !seq.IsPlaying() {
		t.Fatal("fresh sequence not playing")
	}

	pump(u, clock, 100*time.Millisecond)
	if got := v.Get(); got != 1 {
		t.Fatalf("after first stage = %d, want 1", got)
	}
	pump(u, clock, 100*time.Millisecond)
	if got := v.Get(); got != 2 {
		t.Fatalf("after second stage = %d, want 2", got)
	}
	if seq.IsPlaying() {
		t.Fatal("sequence playing after its final stage declined")
	}
	if len(stages) != 3 || stages[0] != 0 || stages[1] != 1 || stages[2] != 2 {
		t.Fatalf("stages = %v, want [0 1 2]", stages)
	}
}

func TestSequenceStopCancelsCurrentStageAndFurtherStages(t *testing.T) {
	clock := newTickClock(t)
	u := NewUpdates()
	v := NewVar(u, 0)

	var stages int
	seq := Sequence(u, func(n int) AnimationHandle {
		stages++
		return Step(v, n+1, 100*time.Millisecond)
	})

	seq.Stop()
	pump(u, clock, time.Second)
	if got := v.Get(); got != 0 {
		t.Fatalf("stopped sequence wrote %d", got)
	}
	if stages != 1 {
		t.Fatalf("stages started after stop: %d", stages)
	}
}

func TestEasing(t *testing.T) {
	clock := newTickClock(t)
	u := NewUpdates()
	src := NewVar(u, 0.0)

	eased := Easing(src, time.Second, animation.LinearCurve, animation.LerpFloat64)
	if got := eased.Get(); got != 0 {
		t.Fatalf("initial = %v, want 0", got)
	}
	if eased.Capabilities().CanModify() {
		t.Fatal("easing mirror is writable")
	}

	src.Set(10)
	u.Apply()
	u.Tick()
	u.Apply()
	if got := eased.Get(); got != 0 {
		t.Fatalf("mirror jumped to %v before any time passed", got)
	}

	pump(u, clock, 500*time.Millisecond)
	if got := eased.Get(); got != 5 {
		t.Fatalf("mirror at half = %v, want 5", got)
	}
	pump(u, clock, 600*time.Millisecond)
	if got := eased.Get(); got != 10 {
		t.Fatalf("mirror settled at %v, want 10", got)
	}
}

func TestRawAnimateSleepAndRestart(t *testing.T) {
	clock := newTickClock(t)
	u := NewUpdates()
	v := NewVar(u, 0)

	var ticks int
	h := u.Animate(func(args *AnimationArgs) {
		ticks++
		args.SetAny(v.Any(), ticks)
		if ticks == 1 {
			args.Sleep(100 * time.Millisecond)
		}
	})
	h.Control(v.Any())

	pump(u, clock, 10*time.Millisecond)
	if ticks != 1 {
		t.Fatalf("ticks = %d, want 1", ticks)
	}
	if got := v.Get(); got != 1 {
		t.Fatalf("value = %d, want 1", got)
	}

	// Sleeping: the next frame inside the window is skipped.
	pump(u, clock, 50*time.Millisecond)
	if ticks != 1 {
		t.Fatalf("sleeping animation ticked (%d)", ticks)
	}
	if !h.IsPlaying() {
		t.Fatal("sleeping animation reports stopped")
	}

	pump(u, clock, 50*time.Millisecond)
	if ticks != 2 {
		t.Fatalf("ticks after sleep = %d, want 2", ticks)
	}
	h.Stop()
}

func TestOnStop(t *testing.T) {
	clock := newTickClock(t)
	u := NewUpdates()
	v := NewVar(u, 0.0)

	var stopped bool
	h := Ease(v, 1, 100*time.Millisecond, animation.LinearCurve, animation.LerpFloat64)
	h.OnStop(func() { stopped = true })

	pump(u, clock, 100*time.Millisecond)
	if !stopped {
		t.Fatal("OnStop did not fire at conclusion")
	}

	// On a concluded handle the callback runs immediately.
	var immediate bool
	h.OnStop(func() { immediate = true })
	if !immediate {
		t.Fatal("OnStop on a concluded handle deferred")
	}
}
