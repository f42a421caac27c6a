package vars

import (
	"reflect"
	"sync"
	"weak"

	"github.com/go-drift/reactive/pkg/errors"
)

// sharedVar is the workhorse cell: reference-counted by Go's GC, shared
// by any number of front-ends, writable unless readOnly is set.
//
// The mutex guards snapshots only. All mutation happens on the owning
// goroutine inside Updates.Apply; readers on other goroutines take the
// lock just long enough to copy the interface value out.
type sharedVar struct {
	u    *Updates
	typ  reflect.Type
	mask UpdateMask

	mu         sync.Mutex
	value      any
	lastCycle  uint64
	seq        uint64
	controller uint64 // id of the animation holding write authority, 0 = direct writers
	readOnly   bool

	hooks hookList
}

func newSharedVar(u *Updates, typ reflect.Type, value any, mask UpdateMask) *sharedVar {
	if mask == 0 {
		mask = MaskUpdate
	}
	return &sharedVar{u: u, typ: typ, value: value, mask: mask}
}

func (c *sharedVar) Value() any {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.value
}

func (c *sharedVar) ValueType() reflect.Type { return c.typ }

func (c *sharedVar) Capabilities() Capabilities {
	caps := CapUpdate
	c.mu.Lock()
	if !c.readOnly {
		caps |= CapModify
	}
	if c.controller != 0 {
		caps |= CapAnimating
	}
	c.mu.Unlock()
	return caps
}

func (c *sharedVar) LastUpdate() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastCycle
}

func (c *sharedVar) Updates() *Updates { return c.u }

func (c *sharedVar) TrySetValue(value any) error {
	return c.scheduleSet(value, directWriter)
}

func (c *sharedVar) TryModifyValue(fn func(*AnyModify)) error {
	return c.scheduleModify(fn, directWriter)
}

func (c *sharedVar) HookAny(fn func(value any) bool) HookHandle {
	return c.hooks.add(fn)
}

func (c *sharedVar) DowngradeAny() AnyWeakVar {
	return weakShared{p: weak.Make(c)}
}

func (c *sharedVar) writeCell() (*sharedVar, bool) {
	c.mu.Lock()
	ro := c.readOnly
	c.mu.Unlock()
	if ro {
		return nil, false
	}
	return c, true
}

func (c *sharedVar) engineSet(u *Updates, value any) bool {
	c.mu.Lock()
	ro := c.readOnly
	c.mu.Unlock()
	if ro {
		return false
	}
	u.engineWrite(c, value)
	return true
}

func (c *sharedVar) lastSeq() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.seq
}

// assignableTo reports whether value may be stored in a cell whose
// payload type is typ. Interface payloads accept any value whose
// dynamic type satisfies the interface; nil is assignable everywhere.
func assignableTo(value any, typ reflect.Type) bool {
	if value == nil {
		return true
	}
	vt := reflect.TypeOf(value)
	if vt == typ {
		return true
	}
	return typ.Kind() == reflect.Interface && vt.AssignableTo(typ)
}

// scheduleSet enqueues a plain replacement write.
func (c *sharedVar) scheduleSet(value any, writer uint64) error {
	if !assignableTo(value, c.typ) {
		return errors.New("vars.TrySet", errors.KindTypeMismatch, errors.ErrTypeMismatch)
	}
	return c.scheduleModify(func(m *AnyModify) {
		m.value = value
		m.updated = true
	}, writer)
}

// scheduleModify enqueues a modify closure. The closure runs on the
// owning goroutine during Apply, against the evolving pending value.
func (c *sharedVar) scheduleModify(fn func(*AnyModify), writer uint64) error {
	c.mu.Lock()
	ro := c.readOnly
	c.mu.Unlock()
	if ro && writer == directWriter {
		return errors.New("vars.TryModify", errors.KindReadOnly, errors.ErrReadOnly)
	}
	return c.u.enqueue(func(u *Updates) {
		u.applyMutation(c, writer, fn)
	})
}

// readOnlyView wraps a cell with the write capability stripped. The
// underlying cell keeps updating; only writes through the view fail.
type readOnlyView struct {
	inner AnyVar
}

func (v *readOnlyView) Value() any              { return v.inner.Value() }
func (v *readOnlyView) ValueType() reflect.Type { return v.inner.ValueType() }
func (v *readOnlyView) LastUpdate() uint64      { return v.inner.LastUpdate() }
func (v *readOnlyView) Updates() *Updates       { return v.inner.Updates() }
func (v *readOnlyView) lastSeq() uint64         { return v.inner.lastSeq() }

func (v *readOnlyView) Capabilities() Capabilities {
	return v.inner.Capabilities() &^ CapModify
}

func (v *readOnlyView) TrySetValue(any) error {
	return errors.New("vars.TrySet", errors.KindReadOnly, errors.ErrReadOnly)
}

func (v *readOnlyView) TryModifyValue(func(*AnyModify)) error {
	return errors.New("vars.TryModify", errors.KindReadOnly, errors.ErrReadOnly)
}

func (v *readOnlyView) HookAny(fn func(value any) bool) HookHandle {
	return v.inner.HookAny(fn)
}

func (v *readOnlyView) DowngradeAny() AnyWeakVar {
	return weakReadOnly{inner: v.inner.DowngradeAny()}
}

func (v *readOnlyView) writeCell() (*sharedVar, bool) { return nil, false }
func (v *readOnlyView) engineSet(*Updates, any) bool  { return false }
