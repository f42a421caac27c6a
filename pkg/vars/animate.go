package vars

import (
	"sync"
	"time"
	"weak"

	"github.com/go-drift/reactive/pkg/animation"
)

type animState int

const (
	animActive animState = iota
	animSleeping
	animStopped
)

// Animation is the per-animation state machine driven by
// [Updates.Tick]. Its closure runs once per frame while the animation
// is neither sleeping nor stopped, with wall-clock elapsed time, so
// skipped frames never break timing.
//
// An animation holds temporary write authority over the cells it
// controls: writes from a revoked animation have no effect, and a
// direct write revokes the controlling animation (see Updates).
type Animation struct {
	u  *Updates
	id uint64
	fn func(*AnimationArgs)

	mu         sync.Mutex
	state      animState
	start      time.Time
	sleepUntil time.Time
	restarts   int
	onStop     []func()
	controlled []weak.Pointer[sharedVar]
	children   []*Animation
}

// AnimationArgs is the argument to animation closures.
type AnimationArgs struct {
	anim    *Animation
	now     time.Time
	elapsed time.Duration
}

// Elapsed returns the wall-clock time since the animation started or
// last restarted.
func (a *AnimationArgs) Elapsed() time.Duration { return a.elapsed }

// Restarts returns how many times the animation's clock was restarted.
func (a *AnimationArgs) Restarts() int {
	a.anim.mu.Lock()
	defer a.anim.mu.Unlock()
	return a.anim.restarts
}

// Stop ends the animation after this invocation.
func (a *AnimationArgs) Stop() { a.anim.Stop() }

// Sleep excludes the animation from ticking for d. It still reports as
// animating, and its elapsed clock keeps running.
func (a *AnimationArgs) Sleep(d time.Duration) {
	a.anim.mu.Lock()
	if a.anim.state == animActive {
		a.anim.state = animSleeping
		a.anim.sleepUntil = a.now.Add(d)
	}
	a.anim.mu.Unlock()
}

// Restart resets the animation's elapsed clock to zero.
func (a *AnimationArgs) Restart() { a.anim.restart(a.now) }

// SetAny schedules value into target with this animation's write
// authority. The write lands at the next cycle and has no effect if
// the animation's authority over the cell has been revoked.
func (a *AnimationArgs) SetAny(target AnyVar, value any) {
	cell, ok := target.writeCell()
	if !ok {
		return
	}
	a.anim.setCell(cell, value)
}

// Animate registers a raw animation driven by fn once per frame. The
// closure takes write authority over the cells it animates via
// [AnimationHandle.Control] or [AnimationArgs.SetAny].
func (u *Updates) Animate(fn func(*AnimationArgs)) AnimationHandle {
	u.mu.Lock()
	u.animSeq++
	a := &Animation{u: u, id: u.animSeq, fn: fn, start: animation.Now()}
	u.anims = append(u.anims, a)
	u.mu.Unlock()
	return AnimationHandle{anim: a}
}

// Tick advances all animations by one frame. The application loop
// calls it once per rendered frame, before Apply; animation writes are
// applied by the following Apply.
func (u *Updates) Tick() {
	now := animation.Now()

	u.mu.Lock()
	anims := make([]*Animation, len(u.anims))
	copy(anims, u.anims)
	u.mu.Unlock()

	for _, a := range anims {
		a.tick(now)
	}

	// Stopped animations are removed after the pass, never mid-iteration.
	u.mu.Lock()
	live := u.anims[:0]
	for _, a := range u.anims {
		if !a.IsStopped() {
			live = append(live, a)
		}
	}
	u.anims = live
	u.mu.Unlock()
}

// HasAnimations reports whether any animation is registered (sleeping
// animations included).
func (u *Updates) HasAnimations() bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	return len(u.anims) > 0
}

func (a *Animation) tick(now time.Time) {
	a.mu.Lock()
	if a.state == animStopped {
		a.mu.Unlock()
		return
	}
	if a.state == animSleeping {
		if now.Before(a.sleepUntil) {
			a.mu.Unlock()
			return
		}
		a.state = animActive
	}
	fn := a.fn
	elapsed := now.Sub(a.start)
	a.mu.Unlock()

	if fn != nil {
		fn(&AnimationArgs{anim: a, now: now, elapsed: elapsed})
	}
}

// Stop ends the animation, releases its write authority and
// transitively stops every animation it started.
func (a *Animation) Stop() {
	a.mu.Lock()
	if a.state == animStopped {
		a.mu.Unlock()
		return
	}
	a.state = animStopped
	onStop := a.onStop
	a.onStop = nil
	children := a.children
	a.children = nil
	controlled := a.controlled
	a.controlled = nil
	a.mu.Unlock()

	for _, wc := range controlled {
		if cell := wc.Value(); cell != nil {
			a.releaseCell(cell)
		}
	}
	for _, child := range children {
		child.Stop()
	}
	for _, fn := range onStop {
		fn()
	}
}

// IsStopped reports whether the animation has ended.
func (a *Animation) IsStopped() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state == animStopped
}

func (a *Animation) restart(now time.Time) {
	a.mu.Lock()
	a.start = now
	a.restarts++
	if a.state == animSleeping {
		a.state = animActive
	}
	a.mu.Unlock()
}

// control takes write authority over cell at the next cycle boundary,
// revoking whatever animation held it. Authority transfers are queued
// so they stay ordered with the writes around them.
func (a *Animation) control(cell *sharedVar) {
	a.mu.Lock()
	a.controlled = append(a.controlled, weak.Make(cell))
	stopped := a.state == animStopped
	a.mu.Unlock()
	if stopped {
		return
	}
	id := a.id
	_ = a.u.enqueue(func(u *Updates) {
		cell.mu.Lock()
		cell.controller = id
		cell.mu.Unlock()
	})
}

// releaseCell gives authority back, unless someone else took it since.
func (a *Animation) releaseCell(cell *sharedVar) {
	id := a.id
	_ = a.u.enqueue(func(u *Updates) {
		cell.mu.Lock()
		if cell.controller == id {
			cell.controller = 0
		}
		cell.mu.Unlock()
	})
}

// setCell schedules a replacement write carrying this animation's
// authority.
func (a *Animation) setCell(cell *sharedVar, value any) {
	id := a.id
	_ = a.u.enqueue(func(u *Updates) {
		u.applyMutation(cell, id, func(m *AnyModify) {
			m.value = value
			m.updated = true
		})
	})
}

func (a *Animation) addChild(child *Animation) {
	a.mu.Lock()
	stopped := a.state == animStopped
	if !stopped {
		a.children = append(a.children, child)
	}
	a.mu.Unlock()
	if stopped {
		child.Stop()
	}
}

func (a *Animation) onStopHook(fn func()) {
	a.mu.Lock()
	stopped := a.state == animStopped
	if !stopped {
		a.onStop = append(a.onStop, fn)
	}
	a.mu.Unlock()
	if stopped {
		fn()
	}
}

// AnimationHandle controls a registered animation. The zero handle is a
// no-op animation: already concluded, stopping it does nothing.
type AnimationHandle struct {
	anim *Animation
}

// Stop ends the animation, releasing its write authority and stopping
// every animation it started.
func (h AnimationHandle) Stop() {
	if h.anim != nil {
		h.anim.Stop()
	}
}

// IsPlaying reports whether the animation has not concluded. Sleeping
// animations report true.
func (h AnimationHandle) IsPlaying() bool {
	return h.anim != nil && !h.anim.IsStopped()
}

// OnStop registers fn to run when the animation concludes. On a
// concluded (or zero) handle fn runs immediately.
func (h AnimationHandle) OnStop(fn func()) {
	if h.anim == nil {
		fn()
		return
	}
	h.anim.onStopHook(fn)
}

// Control takes write authority over v's cell for this animation,
// revoking whatever animation held it. Writes from the revoked
// animation no longer have any effect on the cell.
func (h AnimationHandle) Control(v AnyVar) bool {
	if h.anim == nil {
		return false
	}
	cell, ok := v.writeCell()
	if !ok {
		return false
	}
	h.anim.control(cell)
	return true
}
