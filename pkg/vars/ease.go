package vars

import (
	"math"
	"reflect"
	"sync"
	"time"
	"weak"

	"github.com/go-drift/reactive/pkg/animation"
)

// Ease animates v from its current value toward to over duration,
// shaped by curve and interpolated by lerp. The transition captures
// the current value at the first tick, writes only when the curved
// progress changes and concludes with an exact write of to.
func Ease[T any](v Var[T], to T, duration time.Duration, curve animation.Curve, lerp func(a, b T, t float64) T) AnimationHandle {
	return EaseWith(v, to, duration, curve, lerp)
}

// EaseWith is Ease with a caller-supplied sampler. Unlike a plain
// interpolation the sampler may overshoot or otherwise remap the
// curved progress before producing a value.
func EaseWith[T any](v Var[T], to T, duration time.Duration, curve animation.Curve, sample func(from, to T, t float64) T) AnimationHandle {
	cell, u, ok := animTarget(v)
	if !ok {
		return AnimationHandle{}
	}
	wt := weak.Make(cell)

	var from T
	started := false
	prev := 0.0
	h := u.Animate(func(args *AnimationArgs) {
		c := wt.Value()
		if c == nil {
			args.Stop()
			return
		}
		if !started {
			from = c.Value().(T)
			started = true
		}
		t := progress(args.Elapsed(), duration)
		if t >= 1 {
			args.anim.setCell(c, sample(from, to, curve(1)))
			args.Stop()
			return
		}
		if step := curve(t); step != prev {
			prev = step
			args.anim.setCell(c, sample(from, to, step))
		}
	})
	h.anim.control(cell)
	return h
}

// EaseOsc animates v back and forth between a and b indefinitely, one
// curved pass per duration, with the curve mirrored on the return leg.
// It runs until stopped or until v is dropped.
func EaseOsc[T any](v Var[T], a, b T, duration time.Duration, curve animation.Curve, lerp func(a, b T, t float64) T) AnimationHandle {
	cell, u, ok := animTarget(v)
	if !ok {
		return AnimationHandle{}
	}
	wt := weak.Make(cell)
	back := animation.Flip(curve)

	prev := math.NaN()
	h := u.Animate(func(args *AnimationArgs) {
		c := wt.Value()
		if c == nil {
			args.Stop()
			return
		}
		t := progress(args.Elapsed(), duration)
		shape := curve
		if args.Restarts()%2 == 1 {
			shape = back
		}
		if t >= 1 {
			args.anim.setCell(c, lerp(a, b, shape(1)))
			prev = math.NaN()
			args.Restart()
			return
		}
		if step := shape(t); step != prev {
			prev = step
			args.anim.setCell(c, lerp(a, b, step))
		}
	})
	h.anim.control(cell)
	return h
}

// EaseKeyed animates v through keys over duration, the curved progress
// selecting the keyframe segment to interpolate within.
func EaseKeyed[T any](v Var[T], keys []animation.Key[T], duration time.Duration, curve animation.Curve, lerp func(a, b T, t float64) T) AnimationHandle {
	tr := animation.NewTransitionKeyed(keys, lerp)
	return easeKeyed(v, tr, duration, curve, false)
}

// EaseKeyedFromCurrent is EaseKeyed with the value v holds at the
// first tick inserted as the keyframe at offset zero.
func EaseKeyedFromCurrent[T any](v Var[T], keys []animation.Key[T], duration time.Duration, curve animation.Curve, lerp func(a, b T, t float64) T) AnimationHandle {
	tr := animation.NewTransitionKeyed(keys, lerp)
	return easeKeyed(v, tr, duration, curve, true)
}

func easeKeyed[T any](v Var[T], tr *animation.TransitionKeyed[T], duration time.Duration, curve animation.Curve, fromCurrent bool) AnimationHandle {
	cell, u, ok := animTarget(v)
	if !ok {
		return AnimationHandle{}
	}
	wt := weak.Make(cell)

	started := false
	prev := 0.0
	h := u.Animate(func(args *AnimationArgs) {
		c := wt.Value()
		if c == nil {
			args.Stop()
			return
		}
		if !started {
			if fromCurrent {
				tr = tr.PrependKey(c.Value().(T))
			}
			started = true
		}
		t := progress(args.Elapsed(), duration)
		if t >= 1 {
			args.anim.setCell(c, tr.Sample(curve(1)))
			args.Stop()
			return
		}
		if step := curve(t); step != prev {
			prev = step
			args.anim.setCell(c, tr.Sample(step))
		}
	})
	h.anim.control(cell)
	return h
}

// Step writes value into v once delay has elapsed, then concludes. The
// variable reports as animating for the whole delay.
func Step[T any](v Var[T], value T, delay time.Duration) AnimationHandle {
	cell, u, ok := animTarget(v)
	if !ok {
		return AnimationHandle{}
	}
	wt := weak.Make(cell)

	h := u.Animate(func(args *AnimationArgs) {
		c := wt.Value()
		if c == nil {
			args.Stop()
			return
		}
		if args.Elapsed() >= delay {
			args.anim.setCell(c, value)
			args.Stop()
		}
	})
	h.anim.control(cell)
	return h
}

// StepOsc toggles v between its value at the first tick and other,
// switching every delay, until stopped or until v is dropped.
func StepOsc[T any](v Var[T], other T, delay time.Duration) AnimationHandle {
	return stepOsc(v, nil, other, delay)
}

// SetStepOsc writes a immediately and then toggles v between a and b
// every delay, until stopped or until v is dropped.
func SetStepOsc[T any](v Var[T], a, b T, delay time.Duration) AnimationHandle {
	first := a
	return stepOsc(v, &first, b, delay)
}

func stepOsc[T any](v Var[T], initial *T, other T, delay time.Duration) AnimationHandle {
	cell, u, ok := animTarget(v)
	if !ok {
		return AnimationHandle{}
	}
	wt := weak.Make(cell)

	var base T
	started := false
	onOther := false
	h := u.Animate(func(args *AnimationArgs) {
		c := wt.Value()
		if c == nil {
			args.Stop()
			return
		}
		if !started {
			if initial != nil {
				base = *initial
				args.anim.setCell(c, base)
			} else {
				base = c.Value().(T)
			}
			started = true
		}
		if args.Elapsed() < delay {
			return
		}
		onOther = !onOther
		if onOther {
			args.anim.setCell(c, other)
		} else {
			args.anim.setCell(c, base)
		}
		args.Restart()
	})
	h.anim.control(cell)
	return h
}

// Steps animates v through the given values over duration, the curved
// progress selecting which step applies. Each step is written at most
// once per visit and the last step is written exactly at conclusion.
func Steps[T any](v Var[T], steps []T, duration time.Duration, curve animation.Curve) AnimationHandle {
	if len(steps) == 0 {
		return AnimationHandle{}
	}
	cell, u, ok := animTarget(v)
	if !ok {
		return AnimationHandle{}
	}
	wt := weak.Make(cell)

	prev := -1
	h := u.Animate(func(args *AnimationArgs) {
		c := wt.Value()
		if c == nil {
			args.Stop()
			return
		}
		t := progress(args.Elapsed(), duration)
		if t >= 1 {
			if prev != len(steps)-1 {
				args.anim.setCell(c, steps[len(steps)-1])
			}
			args.Stop()
			return
		}
		idx := int(curve(t) * float64(len(steps)))
		if idx < 0 {
			idx = 0
		}
		if idx >= len(steps) {
			idx = len(steps) - 1
		}
		if idx != prev {
			prev = idx
			args.anim.setCell(c, steps[idx])
		}
	})
	h.anim.control(cell)
	return h
}

// ChaseHandle is the handle of a chase animation. Retarget redirects
// the animation toward a new destination mid-flight, starting from the
// value the chase has reached so far.
type ChaseHandle[T any] struct {
	h    AnimationHandle
	mu   sync.Mutex
	from T
	to   T
	step float64
	lerp func(a, b T, t float64) T
}

// Chase animates v from its current value toward first, like Ease, but
// the destination can be redirected while the animation is playing.
func Chase[T any](v Var[T], first T, duration time.Duration, curve animation.Curve, lerp func(a, b T, t float64) T) *ChaseHandle[T] {
	ch := &ChaseHandle[T]{to: first, lerp: lerp}

	cell, u, ok := animTarget(v)
	if !ok {
		return ch
	}
	wt := weak.Make(cell)

	started := false
	ch.h = u.Animate(func(args *AnimationArgs) {
		c := wt.Value()
		if c == nil {
			args.Stop()
			return
		}
		ch.mu.Lock()
		if !started {
			ch.from = c.Value().(T)
			started = true
		}
		from, to, prev := ch.from, ch.to, ch.step
		ch.mu.Unlock()

		t := progress(args.Elapsed(), duration)
		if t >= 1 {
			args.anim.setCell(c, lerp(from, to, curve(1)))
			args.Stop()
			return
		}
		if step := curve(t); step != prev {
			ch.mu.Lock()
			ch.step = step
			ch.mu.Unlock()
			args.anim.setCell(c, lerp(from, to, step))
		}
	})
	ch.h.anim.control(cell)
	return ch
}

// Retarget redirects the chase toward to. The value reached so far
// becomes the new starting point and the transition clock restarts. A
// concluded chase ignores the call.
func (ch *ChaseHandle[T]) Retarget(to T) {
	if ch.h.anim == nil || ch.h.anim.IsStopped() {
		return
	}
	ch.mu.Lock()
	ch.from = ch.lerp(ch.from, ch.to, ch.step)
	ch.to = to
	ch.step = 0
	ch.mu.Unlock()
	ch.h.anim.restart(animation.Now())
}

// Stop ends the chase.
func (ch *ChaseHandle[T]) Stop() { ch.h.Stop() }

// Handle returns the underlying animation handle.
func (ch *ChaseHandle[T]) Handle() AnimationHandle { return ch.h }

// Sequence runs animations one after another. f is called with the
// stage index, starting at zero, once per stage; each stage starts
// when the previous one concludes. Returning the zero handle ends the
// sequence. Stopping the returned handle stops the current stage and
// prevents further stages.
func Sequence(u *Updates, f func(n int) AnimationHandle) AnimationHandle {
	parent := u.Animate(nil)

	var startStage func(n int)
	startStage = func(n int) {
		if parent.anim.IsStopped() {
			return
		}
		h := f(n)
		if h.anim == nil {
			parent.anim.Stop()
			return
		}
		parent.anim.addChild(h.anim)
		h.anim.onStopHook(func() {
			if !parent.anim.IsStopped() {
				startStage(n + 1)
			}
		})
	}
	startStage(0)
	return parent
}

// Easing returns a read-only variable that chases src: whenever src
// changes, the result eases toward the new value over duration. The
// result holds src alive; dropping the result stops the chasing.
func Easing[T any](src Var[T], duration time.Duration, curve animation.Curve, lerp func(a, b T, t float64) T) Var[T] {
	u := src.Updates()
	if u == nil || !src.Capabilities().CanUpdate() {
		return src
	}
	target := newSharedVar(u, reflect.TypeFor[T](), src.Get(), MaskUpdate)
	wt := weak.Make(target)

	src.Hook(func(value T) bool {
		c := wt.Value()
		if c == nil {
			return false
		}
		Ease(Var[T]{any: c}, value, duration, curve, lerp)
		return true
	})
	return Var[T]{any: &derivedVar{target: target, src: src.any}}
}

// animTarget resolves v to the cell an animation can write, along with
// its update engine. Constants and read-only views cannot be animated.
func animTarget[T any](v Var[T]) (*sharedVar, *Updates, bool) {
	u := v.Updates()
	if u == nil {
		return nil, nil, false
	}
	cell, ok := v.any.writeCell()
	if !ok {
		return nil, nil, false
	}
	return cell, u, ok
}

func progress(elapsed, duration time.Duration) float64 {
	if duration <= 0 {
		return 1
	}
	t := float64(elapsed) / float64(duration)
	if t < 0 {
		return 0
	}
	if t > 1 {
		return 1
	}
	return t
}
