package vars

import "weak"

// AnyWeakVar is a non-owning reference to a cell. It can produce a
// strong handle only while some other strong reference keeps the cell
// alive.
type AnyWeakVar interface {
	// UpgradeAny returns a strong handle to the cell, or false once all
	// strong owners are gone.
	UpgradeAny() (AnyVar, bool)
}

// WeakVar is the typed non-owning reference returned by
// [Var.Downgrade].
type WeakVar[T any] struct {
	any AnyWeakVar
}

// Upgrade returns a strong Var, or false once all strong owners of the
// cell are gone.
func (w WeakVar[T]) Upgrade() (Var[T], bool) {
	av, ok := w.any.UpgradeAny()
	if !ok {
		return Var[T]{}, false
	}
	return Var[T]{any: av}, true
}

// Any returns the type-erased weak handle.
func (w WeakVar[T]) Any() AnyWeakVar { return w.any }

// weakShared is the weak reference to a shared mutable cell, built on
// the runtime's weak pointers: it resolves nil once the collector has
// proven no strong owner remains.
type weakShared struct {
	p weak.Pointer[sharedVar]
}

func (w weakShared) UpgradeAny() (AnyVar, bool) {
	if c := w.p.Value(); c != nil {
		return c, true
	}
	return nil, false
}

// weakConst retains the constant: an immutable value has no meaningful
// weak lifetime separate from its payload.
type weakConst struct {
	v *constVar
}

func (w weakConst) UpgradeAny() (AnyVar, bool) { return w.v, true }

// weakReadOnly upgrades to a read-only view over the weakly-referenced
// cell, so a write capability dropped by [Var.ReadOnly] cannot be
// recovered through downgrade/upgrade.
type weakReadOnly struct {
	inner AnyWeakVar
}

func (w weakReadOnly) UpgradeAny() (AnyVar, bool) {
	inner, ok := w.inner.UpgradeAny()
	if !ok {
		return nil, false
	}
	if !inner.Capabilities().CanModify() {
		return inner, true
	}
	return &readOnlyView{inner: inner}, true
}

// weakCell is the weak reference for wrapper cell kinds (derived,
// clone-on-write, flat-mapped): generic over the concrete struct so the
// runtime weak pointer tracks the wrapper itself.
type weakCell[C any, P interface {
	*C
	AnyVar
}] struct {
	p weak.Pointer[C]
}

func makeWeakCell[C any, P interface {
	*C
	AnyVar
}](c P) weakCell[C, P] {
	return weakCell[C, P]{p: weak.Make((*C)(c))}
}

func (w weakCell[C, P]) UpgradeAny() (AnyVar, bool) {
	if c := w.p.Value(); c != nil {
		return P(c), true
	}
	return nil, false
}
