package vars

import (
	"fmt"
	"sync/atomic"

	"github.com/go-drift/reactive/pkg/errors"
)

// Binding is a standing synchronization rule between variables. It runs
// in the binding pass of a cycle, after ordinary writes, at most once
// per pass; it re-runs in the same cycle only when it has not yet seen
// the triggering change.
//
// A binding holds its endpoints weakly: once either side loses its last
// strong owner the binding is pruned on the next binding pass.
type Binding struct {
	u       *Updates
	srcs    []AnyWeakVar
	apply   func(b *Binding, vals []any) bool
	partner *Binding

	// seen is the highest source write sequence this binding has
	// processed. Owning-goroutine state.
	seen uint64

	removed atomic.Bool
}

// Unbind removes the binding (and its paired reverse direction, for
// bidirectional binds). Removal is deferred to the next binding pass.
func (b *Binding) Unbind() {
	if b == nil {
		return
	}
	b.removed.Store(true)
	if b.partner != nil {
		b.partner.removed.Store(true)
	}
}

// IsBound reports whether the binding is still registered.
func (b *Binding) IsBound() bool { return b != nil && !b.removed.Load() }

// snapshot upgrades the binding's sources and returns their values and
// the highest write sequence among them. alive is false once any
// source has been dropped.
func (b *Binding) snapshot() (vals []any, maxSeq uint64, alive bool) {
	vals = make([]any, len(b.srcs))
	for i, ws := range b.srcs {
		src, ok := ws.UpgradeAny()
		if !ok {
			return nil, 0, false
		}
		vals[i] = src.Value()
		if s := src.lastSeq(); s > maxSeq {
			maxSeq = s
		}
	}
	return vals, maxSeq, true
}

// markSeen records seq as processed, suppressing a re-run for changes
// up to and including it. The bidirectional pairs use it so that one
// direction's write does not re-trigger the other within the cycle.
func (b *Binding) markSeen(seq uint64) {
	if b != nil && seq > b.seen {
		b.seen = seq
	}
}

// registerBinding adds b to the binding pass, ignoring changes written
// before registration.
func (u *Updates) registerBinding(b *Binding) *Binding {
	if _, maxSeq, alive := b.snapshot(); alive {
		b.seen = maxSeq
	}
	u.mu.Lock()
	u.bindings = append(u.bindings, b)
	u.mu.Unlock()
	return b
}

// runBindingPasses drives registered bindings to a fixed point within
// the current cycle. Each pass runs every binding with unseen source
// changes; the loop ends when a pass runs none. Bindings registered
// mid-pass (e.g. by a flat-map rewire) join the next pass.
func (u *Updates) runBindingPasses() {
	for pass := 0; ; pass++ {
		if pass >= maxBindingPasses {
			errors.Report(errors.New("vars.Updates.Apply", errors.KindInternal,
				fmt.Errorf("binding pass did not reach a fixed point after %d iterations", maxBindingPasses)))
			return
		}

		u.mu.Lock()
		bindings := make([]*Binding, len(u.bindings))
		copy(bindings, u.bindings)
		u.mu.Unlock()

		ran := false
		for _, b := range bindings {
			if b.removed.Load() {
				continue
			}
			vals, maxSeq, alive := b.snapshot()
			if !alive {
				b.removed.Store(true)
				continue
			}
			if maxSeq == 0 || maxSeq <= b.seen {
				continue
			}
			b.seen = maxSeq
			if !b.apply(b, vals) {
				b.removed.Store(true)
				continue
			}
			ran = true
		}
		if !ran {
			break
		}
	}

	// Prune removed bindings.
	u.mu.Lock()
	live := u.bindings[:0]
	for _, b := range u.bindings {
		if !b.removed.Load() {
			live = append(live, b)
		}
	}
	u.bindings = live
	u.mu.Unlock()
}

// bindOne builds the one-directional binding src -> target applying f;
// f returns false to skip the write (filter semantics).
func bindOne(u *Updates, src, target AnyVar, f func(val any) (any, bool)) *Binding {
	wt := target.DowngradeAny()
	b := &Binding{u: u, srcs: []AnyWeakVar{src.DowngradeAny()}}
	b.apply = func(b *Binding, vals []any) bool {
		tv, ok := wt.UpgradeAny()
		if !ok {
			return false
		}
		out, write := f(vals[0])
		if !write {
			return true
		}
		if !tv.engineSet(u, out) {
			return false
		}
		// The paired reverse direction has now seen this change.
		b.partner.markSeen(tv.lastSeq())
		return true
	}
	return u.registerBinding(b)
}

// Bind registers a standing one-way synchronization: whenever a
// updates, b is set to the same value during the binding pass.
func Bind[T any](a, b Var[T]) *Binding {
	return BindMap(a, b, func(v T) T { return v })
}

// BindMap is [Bind] through a mapping function.
func BindMap[S, D any](a Var[S], b Var[D], f func(S) D) *Binding {
	return BindFilterMap(a, b, func(v S) (D, bool) { return f(v), true })
}

// BindFilterMap is [BindMap] where f may decline to produce a value,
// skipping the write for that change.
func BindFilterMap[S, D any](a Var[S], b Var[D], f func(S) (D, bool)) *Binding {
	u := a.Updates()
	if u == nil {
		u = b.Updates()
	}
	if u == nil {
		// Both endpoints are constants; nothing can ever fire.
		return &Binding{}
	}
	return bindOne(u, a.any, b.any, func(val any) (any, bool) {
		d, ok := f(val.(S))
		return d, ok
	})
}

// BindBidi registers a bidirectional identity synchronization between a
// and b. Each direction is suppressed from re-triggering the other
// within the same cycle.
func BindBidi[T any](a, b Var[T]) *Binding {
	id := func(v T) (T, bool) { return v, true }
	return BindFilterMapBidi(a, b, id, id)
}

// BindMapBidi is [BindBidi] through a mapping pair: f propagates a -> b
// and g propagates b -> a.
func BindMapBidi[S, D any](a Var[S], b Var[D], f func(S) D, g func(D) S) *Binding {
	return BindFilterMapBidi(a, b,
		func(v S) (D, bool) { return f(v), true },
		func(v D) (S, bool) { return g(v), true })
}

// BindFilterMapBidi is [BindMapBidi] where either direction may decline
// to propagate a change.
func BindFilterMapBidi[S, D any](a Var[S], b Var[D], f func(S) (D, bool), g func(D) (S, bool)) *Binding {
	u := a.Updates()
	if u == nil {
		u = b.Updates()
	}
	if u == nil {
		return &Binding{}
	}
	fwd := bindOne(u, a.any, b.any, func(val any) (any, bool) {
		d, ok := f(val.(S))
		return d, ok
	})
	rev := bindOne(u, b.any, a.any, func(val any) (any, bool) {
		s, ok := g(val.(D))
		return s, ok
	})
	fwd.partner = rev
	rev.partner = fwd
	return fwd
}
