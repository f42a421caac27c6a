// Package animation provides the timing and interpolation primitives the
// reactive variable engine animates with.
//
// # Core Components
//
//   - [Clock]: injectable time source. Animations measure elapsed wall-clock
//     time through the package clock, so skipped frames never skew timing and
//     tests can drive time deterministically via [SetClock].
//
//   - Easing curves: functions transforming linear progress in [0, 1] into
//     eased motion. Includes [LinearCurve], [Ease], [EaseIn], [EaseOut],
//     [EaseInOut] and custom [CubicBezier] curves, plus the [Reverse] and
//     [Flip] modifiers used by oscillating animations.
//
//   - [Transition]: interpolates between a from and a to value of any type.
//     [TransitionKeyed] generalizes this to multi-keyframe interpolation.
//
// The frame-driven scheduler that applies these to variables lives in the
// vars package; this package knows nothing about cells or update cycles.
package animation

import "time"

// Clock provides time for animations. The default implementation uses
// system time. Tests can inject a fake clock via SetClock to control
// animation timing deterministically.
type Clock interface {
	Now() time.Time
}

// realClock uses system time.
type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// clock is the package-level time source, replaceable for testing.
var clock Clock = realClock{}

// SetClock replaces the animation clock. Returns the previous clock
// so callers can restore it during cleanup.
func SetClock(c Clock) Clock {
	prev := clock
	clock = c
	return prev
}

// Now returns the current time from the active clock.
func Now() time.Time { return clock.Now() }
