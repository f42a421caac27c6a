package animation

import (
	"image/color"
	"sort"
	"time"
)

// Transition interpolates between From and To values based on eased
// animation progress.
//
// Transition maps the 0-1 output of a [Curve] to any value range or type.
// Use the helper constructors ([TransitionFloat64], [TransitionInt],
// [TransitionDuration], [TransitionColor]) for common types, or create
// custom transitions with a Lerp function.
type Transition[T any] struct {
	// From is the starting value (when t = 0).
	From T
	// To is the ending value (when t = 1).
	To T
	// Lerp interpolates between From and To. Receives both endpoints and
	// progress t in [0, 1] and returns the interpolated value.
	Lerp func(a, b T, t float64) T
}

// Sample returns the interpolated value at eased progress t (0.0 to 1.0).
func (tr *Transition[T]) Sample(t float64) T {
	if tr.Lerp == nil {
		if t < 1 {
			return tr.From
		}
		return tr.To
	}
	return tr.Lerp(tr.From, tr.To, t)
}

// LerpFloat64 linearly interpolates between two float64 values.
func LerpFloat64(a, b float64, t float64) float64 {
	return a + (b-a)*t
}

// LerpInt linearly interpolates between two int values, rounding toward b.
func LerpInt(a, b int, t float64) int {
	return a + int(float64(b-a)*t+0.5)
}

// LerpDuration linearly interpolates between two durations.
func LerpDuration(a, b time.Duration, t float64) time.Duration {
	return a + time.Duration(float64(b-a)*t)
}

// LerpColor linearly interpolates between two RGBA colors per channel.
func LerpColor(a, b color.RGBA, t float64) color.RGBA {
	return color.RGBA{
		R: uint8(LerpFloat64(float64(a.R), float64(b.R), t)),
		G: uint8(LerpFloat64(float64(a.G), float64(b.G), t)),
		B: uint8(LerpFloat64(float64(a.B), float64(b.B), t)),
		A: uint8(LerpFloat64(float64(a.A), float64(b.A), t)),
	}
}

// TransitionFloat64 creates a transition for float64 values.
func TransitionFloat64(from, to float64) *Transition[float64] {
	return &Transition[float64]{From: from, To: to, Lerp: LerpFloat64}
}

// TransitionInt creates a transition for int values.
func TransitionInt(from, to int) *Transition[int] {
	return &Transition[int]{From: from, To: to, Lerp: LerpInt}
}

// TransitionDuration creates a transition for time.Duration values.
func TransitionDuration(from, to time.Duration) *Transition[time.Duration] {
	return &Transition[time.Duration]{From: from, To: to, Lerp: LerpDuration}
}

// TransitionColor creates a transition for color.RGBA values.
func TransitionColor(from, to color.RGBA) *Transition[color.RGBA] {
	return &Transition[color.RGBA]{From: from, To: to, Lerp: LerpColor}
}

// Key is one keyframe of a [TransitionKeyed]: a value pinned to an offset
// of the animation's eased progress.
type Key[T any] struct {
	// Offset is the progress position of this key in [0, 1].
	Offset float64
	// Value is the value the transition passes through at Offset.
	Value T
}

// TransitionKeyed interpolates across an ordered sequence of keyframes.
type TransitionKeyed[T any] struct {
	keys []Key[T]
	lerp func(a, b T, t float64) T
}

// NewTransitionKeyed creates a keyed transition. Keys are sorted by offset;
// at least one key is required. A nil lerp snaps between key values.
func NewTransitionKeyed[T any](keys []Key[T], lerp func(a, b T, t float64) T) *TransitionKeyed[T] {
	sorted := make([]Key[T], len(keys))
	copy(sorted, keys)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Offset < sorted[j].Offset })
	return &TransitionKeyed[T]{keys: sorted, lerp: lerp}
}

// PrependKey returns a copy of the transition with an extra key at offset 0.
// The animation scheduler uses it to insert the current value when starting
// a keyed animation "from current".
func (tr *TransitionKeyed[T]) PrependKey(value T) *TransitionKeyed[T] {
	keys := make([]Key[T], 0, len(tr.keys)+1)
	keys = append(keys, Key[T]{Offset: 0, Value: value})
	keys = append(keys, tr.keys...)
	return &TransitionKeyed[T]{keys: keys, lerp: tr.lerp}
}

// Sample returns the interpolated value at eased progress t.
func (tr *TransitionKeyed[T]) Sample(t float64) T {
	var zero T
	if len(tr.keys) == 0 {
		return zero
	}
	if t <= tr.keys[0].Offset {
		return tr.keys[0].Value
	}
	last := tr.keys[len(tr.keys)-1]
	if t >= last.Offset {
		return last.Value
	}
	// Find the segment containing t and interpolate within it.
	for i := 1; i < len(tr.keys); i++ {
		hi := tr.keys[i]
		if t > hi.Offset {
			continue
		}
		lo := tr.keys[i-1]
		if tr.lerp == nil || hi.Offset == lo.Offset {
			return lo.Value
		}
		local := (t - lo.Offset) / (hi.Offset - lo.Offset)
		return tr.lerp(lo.Value, hi.Value, local)
	}
	return last.Value
}
