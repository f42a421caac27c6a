package vars

import (
	"reflect"

	"github.com/go-drift/reactive/pkg/errors"
)

// AnyVar is the type-erased handle over a value cell. It enables
// heterogeneous variable graphs without propagating type parameters
// through consumer code; typed access goes through [Var] or [FromAny].
//
// The set of cell kinds is closed: constants, shared mutable cells,
// read-only views, clone-on-write views, contextual references and
// derived cells all live in this package.
type AnyVar interface {
	// Value returns a snapshot of the current payload. It never blocks
	// and never fails.
	Value() any
	// ValueType returns the dynamic payload type of the cell.
	ValueType() reflect.Type
	// Capabilities returns the cell's capability flags.
	Capabilities() Capabilities
	// LastUpdate returns the id of the cycle that last updated the cell,
	// or zero if it never updated.
	LastUpdate() uint64
	// Updates returns the owning update context, or nil for constants.
	Updates() *Updates
	// TrySetValue schedules value for application at the next cycle.
	// Returns ErrReadOnly if the cell cannot be written, ErrTypeMismatch
	// if value's type does not match the payload type.
	TrySetValue(value any) error
	// TryModifyValue schedules fn against the pending value. The closure
	// must mark the value changed to trigger notification; skipping the
	// mark is the "inspect without touching" pattern.
	TryModifyValue(fn func(*AnyModify)) error
	// HookAny registers an observer invoked once per cycle in which the
	// cell updates. The observer returns false to unregister itself.
	HookAny(fn func(value any) bool) HookHandle
	// DowngradeAny returns a non-owning reference to the cell.
	DowngradeAny() AnyWeakVar

	// writeCell resolves the cell writes land on, detaching
	// clone-on-write views. Reports false for read-only cells.
	writeCell() (*sharedVar, bool)
	// engineSet applies a replacement immediately during the binding
	// pass, translating through projections. Reports false for cells
	// that cannot be written.
	engineSet(u *Updates, value any) bool
	// lastSeq returns the global write sequence of the cell's most
	// recent update. Bindings use it to detect unseen changes.
	lastSeq() uint64
}

// AnyModify is the argument to modify closures: mutable access to a
// cell's pending value. The closure must call Set or Touch for the
// cell to be considered updated.
type AnyModify struct {
	value   any
	typ     reflect.Type
	updated bool
}

// Value returns the pending value as of this point in the cycle.
// Earlier mutations scheduled in the same cycle are already applied.
func (m *AnyModify) Value() any { return m.value }

// Set replaces the pending value and marks the cell updated.
func (m *AnyModify) Set(value any) {
	if m.typ != nil && !assignableTo(value, m.typ) {
		errors.Report(&errors.VarError{
			Op:         "vars.AnyModify.Set",
			Kind:       errors.KindTypeMismatch,
			Err:        errors.ErrTypeMismatch,
			VarType:    m.typ.String(),
			StackTrace: errors.CaptureStack(),
		})
		return
	}
	m.value = value
	m.updated = true
}

// Touch marks the cell updated without replacing the value. Use it
// after mutating a reference payload in place.
func (m *AnyModify) Touch() { m.updated = true }

// Updated reports whether the closure marked the value changed.
func (m *AnyModify) Updated() bool { return m.updated }

// Modify is the typed wrapper over [AnyModify] passed to [Var.Modify]
// closures.
type Modify[T any] struct {
	any *AnyModify
}

// Value returns the pending value.
func (m *Modify[T]) Value() T { return valueAs[T](m.any.value) }

// Set replaces the pending value and marks the cell updated.
func (m *Modify[T]) Set(value T) {
	m.any.value = value
	m.any.updated = true
}

// Update replaces the pending value with fn applied to it and marks
// the cell updated.
func (m *Modify[T]) Update(fn func(T) T) {
	m.Set(fn(m.Value()))
}

// Touch marks the cell updated without replacing the value.
func (m *Modify[T]) Touch() { m.any.updated = true }

// Var is the statically-typed front-end over a value cell. It is cheap
// to copy: copies share the same cell and never clone the payload.
//
// The zero Var is invalid; construct with [NewVar], [NewConst], the
// mapping/binding constructors, or [FromAny].
type Var[T any] struct {
	any AnyVar
}

// NewVar creates a shared mutable variable owned by u with the given
// initial value.
func NewVar[T any](u *Updates, value T) Var[T] {
	return NewVarMasked(u, value, MaskUpdate)
}

// NewVarMasked is like [NewVar] but tags the cell with mask, which is
// OR-ed into the cycle's aggregate change mask whenever the cell
// updates.
func NewVarMasked[T any](u *Updates, value T, mask UpdateMask) Var[T] {
	cell := newSharedVar(u, reflect.TypeFor[T](), value, mask)
	return Var[T]{any: cell}
}

// NewConst creates an immutable constant variable. It never updates and
// rejects all writes.
func NewConst[T any](value T) Var[T] {
	return Var[T]{any: &constVar{typ: reflect.TypeFor[T](), value: value}}
}

// FromAny performs the checked downcast from a type-erased handle to a
// typed front-end. It fails with ErrTypeMismatch if the handle's payload
// type is not exactly T.
func FromAny[T any](av AnyVar) (Var[T], error) {
	want := reflect.TypeFor[T]()
	if av.ValueType() != want {
		return Var[T]{}, errors.New("vars.FromAny", errors.KindTypeMismatch, errors.ErrTypeMismatch)
	}
	return Var[T]{any: av}, nil
}

// MustFromAny is like [FromAny] but panics on type mismatch. Use only
// where the payload type is known by construction.
func MustFromAny[T any](av AnyVar) Var[T] {
	v, err := FromAny[T](av)
	if err != nil {
		panic(err)
	}
	return v
}

// Any returns the type-erased handle of the variable.
func (v Var[T]) Any() AnyVar { return v.any }

// valueAs converts an erased payload to T. A nil payload reads as the
// zero T, so interface-typed variables holding nil stay readable.
func valueAs[T any](val any) T {
	if val == nil {
		var zero T
		return zero
	}
	return val.(T)
}

// Get returns a snapshot of the current value.
func (v Var[T]) Get() T {
	return valueAs[T](v.any.Value())
}

// GetNew returns the current value together with whether the cell
// updated in the current cycle.
func (v Var[T]) GetNew() (T, bool) {
	return v.Get(), v.IsNew()
}

// IsNew reports whether the cell updated in the current cycle.
func (v Var[T]) IsNew() bool {
	u := v.any.Updates()
	if u == nil {
		return false
	}
	last := v.any.LastUpdate()
	return last != 0 && last == u.CurrentCycle()
}

// With calls fn with the current value without copying it out of the
// calling scope.
func (v Var[T]) With(fn func(value T)) {
	fn(v.Get())
}

// TrySet schedules value for application at the next cycle boundary.
func (v Var[T]) TrySet(value T) error {
	return v.any.TrySetValue(value)
}

// Set schedules value for application at the next cycle boundary.
// Writes to read-only variables are a programming mistake, not a
// recoverable condition: Set absorbs the failure and emits a
// debug-level diagnostic instead of forcing error handling at every
// call site. Use [Var.TrySet] where the result matters.
func (v Var[T]) Set(value T) {
	if err := v.TrySet(value); err != nil {
		reportAbsorbed("vars.Var.Set", v.any, err)
	}
}

// TryModify schedules fn against the pending value.
func (v Var[T]) TryModify(fn func(*Modify[T])) error {
	return v.any.TryModifyValue(func(am *AnyModify) {
		fn(&Modify[T]{any: am})
	})
}

// Modify schedules fn against the pending value, absorbing failures
// like [Var.Set]. Closures scheduled against the same cell within one
// cycle apply in FIFO order, each observing the previous closures'
// result; hooks observe only the final composed value, once.
func (v Var[T]) Modify(fn func(*Modify[T])) {
	if err := v.TryModify(fn); err != nil {
		reportAbsorbed("vars.Var.Modify", v.any, err)
	}
}

// SetFrom schedules a one-time copy of other's latest value into v.
// The value is read when the write applies, not when it is scheduled.
func (v Var[T]) SetFrom(other Var[T]) {
	if err := v.any.TryModifyValue(func(am *AnyModify) {
		am.Set(other.Get())
	}); err != nil {
		reportAbsorbed("vars.Var.SetFrom", v.any, err)
	}
}

// Hook registers an observer invoked once per cycle in which the cell
// updates, with the final value of that cycle. The observer returns
// false to unregister itself; the returned handle unregisters it
// explicitly.
func (v Var[T]) Hook(fn func(value T) bool) HookHandle {
	return v.any.HookAny(func(value any) bool {
		return fn(valueAs[T](value))
	})
}

// TraceValue calls fn immediately with the current value and then once
// per cycle in which the cell updates. Intended for debugging value
// lifetimes.
func (v Var[T]) TraceValue(fn func(value T)) HookHandle {
	fn(v.Get())
	return v.Hook(func(value T) bool {
		fn(value)
		return true
	})
}

// Downgrade returns a non-owning reference to the cell.
func (v Var[T]) Downgrade() WeakVar[T] {
	return WeakVar[T]{any: v.any.DowngradeAny()}
}

// ReadOnly returns a view of the same cell with the write capability
// stripped. The underlying cell keeps updating; only writes through the
// returned view are rejected.
func (v Var[T]) ReadOnly() Var[T] {
	if !v.any.Capabilities().CanModify() {
		return v
	}
	return Var[T]{any: &readOnlyView{inner: v.any}}
}

// Cow returns a clone-on-write view: it mirrors the source until the
// first write through it, at which point it detaches into an
// independent cell seeded with the current value.
func (v Var[T]) Cow() Var[T] {
	return Var[T]{any: newCowVar(v.any)}
}

// Capabilities returns the cell's capability flags.
func (v Var[T]) Capabilities() Capabilities { return v.any.Capabilities() }

// IsAnimating reports whether an animation currently holds write
// authority over the cell.
func (v Var[T]) IsAnimating() bool { return v.any.Capabilities().IsAnimating() }

// Updates returns the owning update context, or nil for constants.
func (v Var[T]) Updates() *Updates { return v.any.Updates() }

// reportAbsorbed emits the debug diagnostic for silently-absorbed
// same-thread write failures.
func reportAbsorbed(op string, av AnyVar, err error) {
	kind := errors.KindUnknown
	switch {
	case errors.IsReadOnly(err):
		kind = errors.KindReadOnly
	case errors.IsShutdown(err):
		kind = errors.KindShutdown
	}
	errors.Report(&errors.VarError{
		Op:      op,
		Kind:    kind,
		Err:     err,
		VarType: av.ValueType().String(),
	})
}
