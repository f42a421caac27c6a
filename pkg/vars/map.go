package vars

import (
	"reflect"
	"weak"

	"github.com/go-drift/reactive/pkg/errors"
)

// derivedVar is a one-way derived cell: it owns its source strongly and
// exposes its backing cell read-only. The synchronizing binding holds
// both sides weakly, so dropping the derived var tears the pipeline
// down.
type derivedVar struct {
	target *sharedVar
	src    AnyVar
	b      *Binding
}

func (d *derivedVar) Value() any                    { return d.target.Value() }
func (d *derivedVar) ValueType() reflect.Type       { return d.target.ValueType() }
func (d *derivedVar) LastUpdate() uint64            { return d.target.LastUpdate() }
func (d *derivedVar) Updates() *Updates             { return d.target.Updates() }
func (d *derivedVar) lastSeq() uint64               { return d.target.lastSeq() }
func (d *derivedVar) writeCell() (*sharedVar, bool) { return nil, false }
func (d *derivedVar) engineSet(*Updates, any) bool  { return false }

func (d *derivedVar) Capabilities() Capabilities {
	return d.target.Capabilities() &^ CapModify
}

func (d *derivedVar) TrySetValue(any) error {
	return errors.New("vars.TrySet", errors.KindReadOnly, errors.ErrReadOnly)
}

func (d *derivedVar) TryModifyValue(func(*AnyModify)) error {
	return errors.New("vars.TryModify", errors.KindReadOnly, errors.ErrReadOnly)
}

func (d *derivedVar) HookAny(fn func(value any) bool) HookHandle {
	return d.target.hooks.add(fn)
}

func (d *derivedVar) DowngradeAny() AnyWeakVar {
	return makeWeakCell[derivedVar](d)
}

// linkedVar is a bidirectionally derived cell: writable, kept
// consistent with its source by a binding pair.
type linkedVar struct {
	target *sharedVar
	src    AnyVar
	b      *Binding
}

func (l *linkedVar) Value() any                 { return l.target.Value() }
func (l *linkedVar) ValueType() reflect.Type    { return l.target.ValueType() }
func (l *linkedVar) Capabilities() Capabilities { return l.target.Capabilities() }
func (l *linkedVar) LastUpdate() uint64         { return l.target.LastUpdate() }
func (l *linkedVar) Updates() *Updates          { return l.target.Updates() }
func (l *linkedVar) lastSeq() uint64            { return l.target.lastSeq() }

func (l *linkedVar) TrySetValue(value any) error { return l.target.TrySetValue(value) }

func (l *linkedVar) TryModifyValue(fn func(*AnyModify)) error {
	return l.target.TryModifyValue(fn)
}

func (l *linkedVar) HookAny(fn func(value any) bool) HookHandle {
	return l.target.hooks.add(fn)
}

func (l *linkedVar) DowngradeAny() AnyWeakVar { return makeWeakCell[linkedVar](l) }

func (l *linkedVar) writeCell() (*sharedVar, bool) { return l.target.writeCell() }

func (l *linkedVar) engineSet(u *Updates, value any) bool {
	return l.target.engineSet(u, value)
}

// Map derives a read-only variable computing f over src. Whenever src
// updates, the derived variable recomputes during the binding pass of
// the same cycle. Mapping a constant computes f once and yields a
// constant.
func Map[S, D any](src Var[S], f func(S) D) Var[D] {
	return filterMapSeeded(src, func(v S) (D, bool) { return f(v), true }, f(src.Get()))
}

// FilterMap is [Map] where f may decline to produce a value, skipping
// that update. init seeds the derived variable when f declines the
// source's current value.
func FilterMap[S, D any](src Var[S], f func(S) (D, bool), init D) Var[D] {
	if v, ok := f(src.Get()); ok {
		init = v
	}
	return filterMapSeeded(src, f, init)
}

// filterMapSeeded builds the one-way derived cell. f runs only for
// subsequent source changes; initial seeds the cell as-is.
func filterMapSeeded[S, D any](src Var[S], f func(S) (D, bool), initial D) Var[D] {
	u := src.Updates()
	if u == nil || !src.any.Capabilities().CanUpdate() {
		return NewConst(initial)
	}
	target := newSharedVar(u, reflect.TypeFor[D](), initial, MaskUpdate)
	d := &derivedVar{target: target, src: src.any}
	d.b = bindOne(u, src.any, target, func(val any) (any, bool) {
		out, ok := f(val.(S))
		return out, ok
	})
	return Var[D]{any: d}
}

// MapBidi derives a writable variable kept consistent with src: f
// propagates source to derived and g propagates derived back to
// source. Each direction is suppressed from re-triggering the other
// within the same cycle.
func MapBidi[S, D any](src Var[S], f func(S) D, g func(D) S) Var[D] {
	return filterMapBidiSeeded(src,
		func(v S) (D, bool) { return f(v), true },
		func(v D) (S, bool) { return g(v), true },
		f(src.Get()))
}

// FilterMapBidi is [MapBidi] where either direction may decline to
// propagate. init seeds the derived variable when f declines the
// source's current value.
func FilterMapBidi[S, D any](src Var[S], f func(S) (D, bool), g func(D) (S, bool), init D) Var[D] {
	if v, ok := f(src.Get()); ok {
		init = v
	}
	return filterMapBidiSeeded(src, f, g, init)
}

func filterMapBidiSeeded[S, D any](src Var[S], f func(S) (D, bool), g func(D) (S, bool), initial D) Var[D] {
	u := src.Updates()
	if u == nil || !src.any.Capabilities().CanUpdate() {
		return NewConst(initial)
	}
	target := newSharedVar(u, reflect.TypeFor[D](), initial, MaskUpdate)
	l := &linkedVar{target: target, src: src.any}
	fwd := bindOne(u, src.any, target, func(val any) (any, bool) {
		out, ok := f(val.(S))
		return out, ok
	})
	rev := bindOne(u, target, src.any, func(val any) (any, bool) {
		out, ok := g(val.(D))
		return out, ok
	})
	fwd.partner = rev
	rev.partner = fwd
	l.b = fwd
	return Var[D]{any: l}
}

// refVar is a non-cloning projection: it stores nothing and computes f
// over the source's value on every read. Hooks are forwarded from
// the source with the projected value.
type refVar struct {
	src AnyVar
	typ reflect.Type
	f   func(any) any
	// g folds a projected write back into the source value; nil for
	// one-way projections.
	g func(cur, value any) any
}

func (r *refVar) Value() any              { return r.f(r.src.Value()) }
func (r *refVar) ValueType() reflect.Type { return r.typ }
func (r *refVar) LastUpdate() uint64      { return r.src.LastUpdate() }
func (r *refVar) Updates() *Updates       { return r.src.Updates() }
func (r *refVar) lastSeq() uint64         { return r.src.lastSeq() }

func (r *refVar) Capabilities() Capabilities {
	caps := r.src.Capabilities()
	if r.g == nil {
		caps &^= CapModify
	}
	return caps
}

func (r *refVar) TrySetValue(value any) error {
	if r.g == nil {
		return errors.New("vars.TrySet", errors.KindReadOnly, errors.ErrReadOnly)
	}
	if !assignableTo(value, r.typ) {
		return errors.New("vars.TrySet", errors.KindTypeMismatch, errors.ErrTypeMismatch)
	}
	return r.src.TryModifyValue(func(m *AnyModify) {
		m.Set(r.g(m.Value(), value))
	})
}

func (r *refVar) TryModifyValue(fn func(*AnyModify)) error {
	if r.g == nil {
		return errors.New("vars.TryModify", errors.KindReadOnly, errors.ErrReadOnly)
	}
	return r.src.TryModifyValue(func(m *AnyModify) {
		proj := AnyModify{value: r.f(m.value), typ: r.typ}
		fn(&proj)
		if proj.updated {
			m.Set(r.g(m.Value(), proj.value))
		}
	})
}

func (r *refVar) HookAny(fn func(value any) bool) HookHandle {
	return r.src.HookAny(func(value any) bool {
		return fn(r.f(value))
	})
}

func (r *refVar) DowngradeAny() AnyWeakVar {
	return weakRef{src: r.src.DowngradeAny(), typ: r.typ, f: r.f, g: r.g}
}

func (r *refVar) writeCell() (*sharedVar, bool) { return nil, false }

func (r *refVar) engineSet(u *Updates, value any) bool {
	if r.g == nil {
		return false
	}
	return r.src.engineSet(u, r.g(r.src.Value(), value))
}

// weakRef re-wraps the source's weak reference in the projection.
type weakRef struct {
	src AnyWeakVar
	typ reflect.Type
	f   func(any) any
	g   func(cur, value any) any
}

func (w weakRef) UpgradeAny() (AnyVar, bool) {
	src, ok := w.src.UpgradeAny()
	if !ok {
		return nil, false
	}
	return &refVar{src: src, typ: w.typ, f: w.f, g: w.g}, true
}

// MapRef derives a read-only, non-cloning projection of src: no new
// cell is allocated and f runs on every read.
func MapRef[S, D any](src Var[S], f func(S) D) Var[D] {
	return Var[D]{any: &refVar{
		src: src.any,
		typ: reflect.TypeFor[D](),
		f:   func(v any) any { return f(v.(S)) },
	}}
}

// MapRefBidi is [MapRef] with write-through: g folds a write of the
// projected value back into the source's current value.
func MapRefBidi[S, D any](src Var[S], f func(S) D, g func(cur S, value D) S) Var[D] {
	return Var[D]{any: &refVar{
		src: src.any,
		typ: reflect.TypeFor[D](),
		f:   func(v any) any { return f(v.(S)) },
		g:   func(cur, value any) any { return g(cur.(S), value.(D)) },
	}}
}

// FlatMap derives a variable that transparently tracks whichever inner
// variable f designates for the source's current value, re-subscribing
// whenever the source changes designation. Reads, writes and hooks all
// address the currently designated inner variable.
func FlatMap[S, D any](src Var[S], f func(S) Var[D]) Var[D] {
	inner := f(src.Get())
	u := src.Updates()
	if u == nil {
		u = inner.Updates()
	}
	if u == nil {
		return inner
	}
	target := newSharedVar(u, reflect.TypeFor[D](), inner.Get(), MaskUpdate)
	fm := &flatMapVar{target: target, src: src.any, inner: inner.any}
	fm.link = linkFlat(u, target, inner.any)
	// The rewire closure must not keep the flat-map var alive: once the
	// last strong handle drops, the whole pipeline is pruned.
	wfm := weak.Make(fm)
	fm.rewire = bindOne(u, src.any, target, func(val any) (any, bool) {
		fm := wfm.Value()
		if fm == nil {
			return nil, false
		}
		next := f(val.(S))
		if next.any == fm.inner {
			return nil, false
		}
		fm.link.Unbind()
		fm.inner = next.any
		fm.link = linkFlat(u, fm.target, next.any)
		return next.Get(), true
	})
	return Var[D]{any: fm}
}

// linkFlat wires the flat-map mirror cell bidirectionally to the
// currently designated inner variable.
func linkFlat(u *Updates, target *sharedVar, inner AnyVar) *Binding {
	fwd := bindOne(u, inner, target, func(val any) (any, bool) { return val, true })
	rev := bindOne(u, target, inner, func(val any) (any, bool) { return val, true })
	fwd.partner = rev
	rev.partner = fwd
	return fwd
}

// flatMapVar mirrors the designated inner variable through its backing
// cell. It owns the source and the current inner strongly.
type flatMapVar struct {
	target *sharedVar
	src    AnyVar

	// Owning-goroutine state: rewired during the binding pass.
	inner  AnyVar
	link   *Binding
	rewire *Binding
}

func (fm *flatMapVar) Value() any                 { return fm.target.Value() }
func (fm *flatMapVar) ValueType() reflect.Type    { return fm.target.ValueType() }
func (fm *flatMapVar) Capabilities() Capabilities { return fm.target.Capabilities() }
func (fm *flatMapVar) LastUpdate() uint64         { return fm.target.LastUpdate() }
func (fm *flatMapVar) Updates() *Updates          { return fm.target.Updates() }
func (fm *flatMapVar) lastSeq() uint64            { return fm.target.lastSeq() }

func (fm *flatMapVar) TrySetValue(value any) error { return fm.target.TrySetValue(value) }

func (fm *flatMapVar) TryModifyValue(fn func(*AnyModify)) error {
	return fm.target.TryModifyValue(fn)
}

func (fm *flatMapVar) HookAny(fn func(value any) bool) HookHandle {
	return fm.target.hooks.add(fn)
}

func (fm *flatMapVar) DowngradeAny() AnyWeakVar { return makeWeakCell[flatMapVar](fm) }

func (fm *flatMapVar) writeCell() (*sharedVar, bool) { return fm.target.writeCell() }

func (fm *flatMapVar) engineSet(u *Updates, value any) bool {
	return fm.target.engineSet(u, value)
}

// SetFromMap schedules a one-time mapped copy of src's latest value
// into dst. The value is read when the write applies.
func SetFromMap[S, D any](dst Var[D], src Var[S], f func(S) D) {
	if err := dst.any.TryModifyValue(func(m *AnyModify) {
		m.Set(f(src.Get()))
	}); err != nil {
		reportAbsorbed("vars.SetFromMap", dst.any, err)
	}
}
