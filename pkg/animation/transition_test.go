package animation

import (
	"image/color"
	"math"
	"testing"
	"time"
)

func TestTransitionFloat64(t *testing.T) {
	tr := TransitionFloat64(10, 20)
	if got := tr.Sample(0); got != 10 {
		t.Errorf("Sample(0) = %v, want 10", got)
	}
	if got := tr.Sample(0.5); got != 15 {
		t.Errorf("Sample(0.5) = %v, want 15", got)
	}
	if got := tr.Sample(1); got != 20 {
		t.Errorf("Sample(1) = %v, want 20", got)
	}
}

func TestTransitionInt_Rounds(t *testing.T) {
	tr := TransitionInt(0, 3)
	if got := tr.Sample(0.5); got != 2 {
		t.Errorf("Sample(0.5) = %v, want 2 (rounded)", got)
	}
}

func TestTransitionDuration(t *testing.T) {
	tr := TransitionDuration(0, time.Second)
	if got := tr.Sample(0.25); got != 250*time.Millisecond {
		t.Errorf("Sample(0.25) = %v, want 250ms", got)
	}
}

func TestTransitionColor(t *testing.T) {
	tr := TransitionColor(
		color.RGBA{R: 255, A: 255},
		color.RGBA{B: 255, A: 255},
	)
	mid := tr.Sample(0.5)
	if mid.R != 127 || mid.B != 127 || mid.A != 255 {
		t.Errorf("mid color = %+v", mid)
	}
}

func TestTransitionNilLerpSnaps(t *testing.T) {
	tr := &Transition[string]{From: "a", To: "b"}
	if got := tr.Sample(0.99); got != "a" {
		t.Errorf("Sample(0.99) = %q, want from value", got)
	}
	if got := tr.Sample(1); got != "b" {
		t.Errorf("Sample(1) = %q, want to value", got)
	}
}

func TestTransitionKeyed(t *testing.T) {
	tr := NewTransitionKeyed([]Key[float64]{
		{Offset: 0, Value: 0},
		{Offset: 0.5, Value: 100},
		{Offset: 1, Value: 50},
	}, LerpFloat64)

	cases := []struct {
		in, want float64
	}{
		{-1, 0},
		{0, 0},
		{0.25, 50},
		{0.5, 100},
		{0.75, 75},
		{1, 50},
		{2, 50},
	}
	for _, c := range cases {
		if got := tr.Sample(c.in); math.Abs(got-c.want) > 1e-9 {
			t.Errorf("Sample(%v) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestTransitionKeyedSortsKeys(t *testing.T) {
	tr := NewTransitionKeyed([]Key[float64]{
		{Offset: 1, Value: 10},
		{Offset: 0, Value: 0},
	}, LerpFloat64)
	if got := tr.Sample(0.5); got != 5 {
		t.Errorf("Sample(0.5) = %v, want 5", got)
	}
}

func TestTransitionKeyedPrependKey(t *testing.T) {
	tr := NewTransitionKeyed([]Key[float64]{
		{Offset: 0.5, Value: 10},
		{Offset: 1, Value: 20},
	}, LerpFloat64)
	tr = tr.PrependKey(0)
	if got := tr.Sample(0.25); got != 5 {
		t.Errorf("Sample(0.25) = %v, want 5", got)
	}
}
