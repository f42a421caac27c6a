package preset

import (
	"image/color"

	"github.com/go-drift/reactive/pkg/animation"
	"github.com/go-drift/reactive/pkg/vars"
)

// Ease animates v with this preset: through the scalar keyframes when
// the preset has any, otherwise from the current value toward to.
func (p Preset) Ease(v vars.Var[float64], to float64) vars.AnimationHandle {
	if len(p.Keys) > 0 {
		return vars.EaseKeyedFromCurrent(v, p.Keys, p.Duration, p.Curve, animation.LerpFloat64)
	}
	return vars.Ease(v, to, p.Duration, p.Curve, animation.LerpFloat64)
}

// EaseColor animates v with this preset: through the color keyframes
// when the preset has any, otherwise from the current value toward to.
func (p Preset) EaseColor(v vars.Var[color.RGBA], to color.RGBA) vars.AnimationHandle {
	if len(p.ColorKeys) > 0 {
		return vars.EaseKeyedFromCurrent(v, p.ColorKeys, p.Duration, p.Curve, animation.LerpColor)
	}
	return vars.Ease(v, to, p.Duration, p.Curve, animation.LerpColor)
}

// Chase starts a retargetable animation toward first using the
// preset's duration and curve.
func (p Preset) Chase(v vars.Var[float64], first float64) *vars.ChaseHandle[float64] {
	return vars.Chase(v, first, p.Duration, p.Curve, animation.LerpFloat64)
}
