package vars

import (
	"time"

	"github.com/go-drift/reactive/pkg/errors"
)

// Loop drives an update context from a dedicated goroutine: it applies
// queued mutations when woken by a write and ticks animations at the
// frame interval while any are registered. Applications with their own
// frame loop call [Updates.Tick] and [Updates.Apply] directly instead.
type Loop struct {
	u       *Updates
	frame   time.Duration
	wake    chan struct{}
	onCycle func(UpdateMask)
}

// NewLoop builds a loop over u, registering itself as u's wake
// callback. frame is the animation tick interval; zero selects 16ms.
func NewLoop(u *Updates, frame time.Duration) *Loop {
	if frame <= 0 {
		frame = 16 * time.Millisecond
	}
	l := &Loop{u: u, frame: frame, wake: make(chan struct{}, 1)}
	u.SetWake(l.Wake)
	return l
}

// Wake schedules a cycle. Safe from any goroutine; wakes are coalesced.
func (l *Loop) Wake() {
	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// OnCycle registers fn, invoked on the loop goroutine after every
// cycle that changed something, with the cycle's change mask. Must be
// set before Run.
func (l *Loop) OnCycle(fn func(UpdateMask)) {
	l.onCycle = fn
}

// Run processes cycles until the context shuts down. It blocks; run it
// on the goroutine that owns the context.
func (l *Loop) Run() {
	defer errors.Recover("vars.Loop.Run")

	ticker := time.NewTicker(l.frame)
	defer ticker.Stop()

	for {
		select {
		case <-l.u.Done():
			return
		case <-l.wake:
			l.cycle(false)
		case <-ticker.C:
			if l.u.HasAnimations() || l.u.HasPending() {
				l.cycle(true)
			}
		}
	}
}

func (l *Loop) cycle(tick bool) {
	if tick {
		l.u.Tick()
	}
	mask := l.u.Apply()
	if mask != 0 && l.onCycle != nil {
		l.onCycle(mask)
	}
}
