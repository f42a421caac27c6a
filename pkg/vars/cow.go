package vars

import (
	"reflect"
	"sync"
)

// cowVar is the clone-on-write view returned by [Var.Cow]: it mirrors
// its source until the first write through it, then detaches into an
// independent cell seeded with the value current at that moment.
//
// The mirror is implemented as a private backing cell synchronized from
// the source by a one-way binding; detaching just severs the binding
// and drops the source reference.
type cowVar struct {
	own *sharedVar

	mu       sync.Mutex
	src      AnyVar // strong until detached
	link     *Binding
	detached bool
}

func newCowVar(src AnyVar) AnyVar {
	u := src.Updates()
	if u == nil {
		// Without an owning context there is nothing to schedule writes
		// against; a constant is already an independent snapshot.
		return src
	}
	c := &cowVar{
		own: newSharedVar(u, src.ValueType(), src.Value(), MaskUpdate),
		src: src,
	}
	c.link = bindOne(u, src, c.own, func(val any) (any, bool) { return val, true })
	return c
}

// detach severs the mirror on the first local write.
func (c *cowVar) detach() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.detached {
		return
	}
	c.detached = true
	c.link.Unbind()
	c.link = nil
	c.src = nil
}

func (c *cowVar) Value() any                 { return c.own.Value() }
func (c *cowVar) ValueType() reflect.Type    { return c.own.ValueType() }
func (c *cowVar) Capabilities() Capabilities { return c.own.Capabilities() }
func (c *cowVar) LastUpdate() uint64         { return c.own.LastUpdate() }
func (c *cowVar) Updates() *Updates          { return c.own.Updates() }
func (c *cowVar) lastSeq() uint64            { return c.own.lastSeq() }

func (c *cowVar) TrySetValue(value any) error {
	if err := c.own.TrySetValue(value); err != nil {
		return err
	}
	c.detach()
	return nil
}

func (c *cowVar) TryModifyValue(fn func(*AnyModify)) error {
	if err := c.own.TryModifyValue(fn); err != nil {
		return err
	}
	c.detach()
	return nil
}

func (c *cowVar) HookAny(fn func(value any) bool) HookHandle {
	return c.own.hooks.add(fn)
}

func (c *cowVar) DowngradeAny() AnyWeakVar { return makeWeakCell[cowVar](c) }

func (c *cowVar) writeCell() (*sharedVar, bool) {
	cell, ok := c.own.writeCell()
	if ok {
		c.detach()
	}
	return cell, ok
}

func (c *cowVar) engineSet(u *Updates, value any) bool {
	if !c.own.engineSet(u, value) {
		return false
	}
	c.detach()
	return true
}
