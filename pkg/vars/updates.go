package vars

import (
	"sync"
	"sync/atomic"

	"github.com/go-drift/reactive/pkg/errors"
)

// directWriter is the writer id of ordinary (non-animated) writes.
const directWriter uint64 = 0

// maxBindingPasses caps the binding fixed-point loop. A binding chain
// may legitimately need several passes, but never unboundedly many;
// hitting the cap indicates a value-level cycle and is reported.
const maxBindingPasses = 100

// Updates is the per-application update context: the single authority
// for applying variable mutations.
//
// Writes from any goroutine enqueue into Updates; the owning goroutine
// drains them with [Updates.Apply], which runs one update cycle:
// mutations apply in submission order against the evolving pending
// values, then the binding pass runs to a fixed point, then hooks fire
// once per updated cell with final values. [Updates.Tick] advances
// animations once per rendered frame.
//
// Exactly one Updates should exist per running application; see
// [InitMain]. Additional instances are fine in tests, but Apply and
// Tick must only ever be called from one goroutine per instance, and
// never concurrently: a second concurrent Apply fails loudly.
type Updates struct {
	mu      sync.Mutex
	pending []func(u *Updates)
	wake    func()
	closed  bool

	done chan struct{}

	applying atomic.Bool
	cycle    atomic.Uint64

	// Owning-goroutine state, touched only inside Apply/Tick.
	seq        uint64
	touched    []*sharedVar
	touchedSet map[*sharedVar]struct{}
	cycleMask  UpdateMask

	bindings []*Binding
	anims    []*Animation
	animSeq  uint64

	maskMu  sync.Mutex
	aggMask UpdateMask
}

// NewUpdates creates an update context.
func NewUpdates() *Updates {
	return &Updates{
		done:       make(chan struct{}),
		touchedSet: make(map[*sharedVar]struct{}),
	}
}

var (
	mainMu      sync.Mutex
	mainUpdates *Updates
)

// InitMain creates the process-wide update context. Calling it twice is
// a programming error and panics: a second context on the same loop
// would double-schedule every mutation.
func InitMain() *Updates {
	mainMu.Lock()
	defer mainMu.Unlock()
	if mainUpdates != nil {
		panic("vars: InitMain called twice; exactly one main update context may exist")
	}
	mainUpdates = NewUpdates()
	return mainUpdates
}

// Main returns the process-wide update context created by [InitMain],
// or nil if none exists.
func Main() *Updates {
	mainMu.Lock()
	defer mainMu.Unlock()
	return mainUpdates
}

// SetWake registers a callback invoked whenever a mutation is enqueued
// from outside an update cycle. The application loop uses it to
// schedule the next Apply on the owning goroutine.
func (u *Updates) SetWake(fn func()) {
	u.mu.Lock()
	u.wake = fn
	u.mu.Unlock()
}

// CurrentCycle returns the id of the most recent update cycle.
func (u *Updates) CurrentCycle() uint64 { return u.cycle.Load() }

// Done returns a channel closed when the context shuts down.
func (u *Updates) Done() <-chan struct{} { return u.done }

// Shutdown closes the context. Further cross-goroutine sends fail with
// ErrAppShutdown; pending mutations are dropped.
func (u *Updates) Shutdown() {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.closed {
		return
	}
	u.closed = true
	u.pending = nil
	close(u.done)
}

// enqueue schedules op for the next cycle. Safe from any goroutine.
func (u *Updates) enqueue(op func(u *Updates)) error {
	u.mu.Lock()
	if u.closed {
		u.mu.Unlock()
		return errors.New("vars.Updates.enqueue", errors.KindShutdown, errors.ErrAppShutdown)
	}
	u.pending = append(u.pending, op)
	wake := u.wake
	u.mu.Unlock()
	if wake != nil && !u.applying.Load() {
		wake()
	}
	return nil
}

// HasPending reports whether mutations await the next Apply.
func (u *Updates) HasPending() bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	return len(u.pending) > 0
}

// Apply flushes all pending mutations and runs one update cycle,
// returning the cycle's change mask. It must only be called from the
// owning goroutine.
func (u *Updates) Apply() UpdateMask {
	if !u.applying.CompareAndSwap(false, true) {
		panic("vars: concurrent or reentrant Updates.Apply")
	}
	defer u.applying.Store(false)

	u.mu.Lock()
	ops := u.pending
	u.pending = nil
	u.mu.Unlock()

	u.cycle.Add(1)
	u.cycleMask = 0
	u.touched = u.touched[:0]
	clear(u.touchedSet)

	// Mutation phase: submission order, against evolving values.
	for _, op := range ops {
		op(u)
	}

	// Binding phase: repeat until no binding produces a new change.
	u.runBindingPasses()

	// Hook phase: once per updated cell, with the final value.
	for _, c := range u.touched {
		c.hooks.fire(c.Value())
	}

	mask := u.cycleMask
	u.maskMu.Lock()
	u.aggMask |= mask
	u.maskMu.Unlock()
	return mask
}

// TakeMask returns the change mask aggregated since the last TakeMask
// and clears it.
func (u *Updates) TakeMask() UpdateMask {
	u.maskMu.Lock()
	defer u.maskMu.Unlock()
	mask := u.aggMask
	u.aggMask = 0
	return mask
}

// applyMutation commits one write on the owning goroutine, arbitrating
// write authority: a write from a revoked animation is dropped, and a
// direct write revokes whatever animation controls the cell.
func (u *Updates) applyMutation(c *sharedVar, writer uint64, fn func(*AnyModify)) {
	c.mu.Lock()
	ctrl := c.controller
	current := c.value
	c.mu.Unlock()

	if writer != directWriter && writer != ctrl {
		// The animation lost write authority; its writes have no effect.
		return
	}

	m := AnyModify{value: current, typ: c.typ}
	// The closure runs unlocked: it may read other variables.
	fn(&m)
	if !m.updated {
		return
	}

	u.seq++
	c.mu.Lock()
	c.value = m.value
	c.lastCycle = u.cycle.Load()
	c.seq = u.seq
	if writer == directWriter {
		c.controller = 0
	}
	c.mu.Unlock()

	u.touch(c)
}

// engineWrite is the binding pass's write path: an unconditional direct
// replacement applied immediately.
func (u *Updates) engineWrite(c *sharedVar, value any) {
	u.applyMutation(c, directWriter, func(m *AnyModify) {
		m.value = value
		m.updated = true
	})
}

func (u *Updates) touch(c *sharedVar) {
	if _, seen := u.touchedSet[c]; seen {
		u.cycleMask |= c.mask
		return
	}
	u.touchedSet[c] = struct{}{}
	u.touched = append(u.touched, c)
	u.cycleMask |= c.mask
}
