package vars

import (
	"reflect"

	"github.com/go-drift/reactive/pkg/errors"
)

// constVar embeds an immutable value. It never updates, rejects all
// writes, and its hooks can never fire.
type constVar struct {
	typ   reflect.Type
	value any
}

func (c *constVar) Value() any                 { return c.value }
func (c *constVar) ValueType() reflect.Type    { return c.typ }
func (c *constVar) Capabilities() Capabilities { return 0 }
func (c *constVar) LastUpdate() uint64         { return 0 }
func (c *constVar) Updates() *Updates          { return nil }
func (c *constVar) lastSeq() uint64            { return 0 }

func (c *constVar) TrySetValue(any) error {
	return errors.New("vars.TrySet", errors.KindReadOnly, errors.ErrReadOnly)
}

func (c *constVar) TryModifyValue(func(*AnyModify)) error {
	return errors.New("vars.TryModify", errors.KindReadOnly, errors.ErrReadOnly)
}

func (c *constVar) HookAny(func(value any) bool) HookHandle {
	// Constants never update, so the hook can never fire.
	return HookHandle{}
}

func (c *constVar) DowngradeAny() AnyWeakVar {
	// A constant is just its value; the weak reference retains it.
	return weakConst{v: c}
}

func (c *constVar) writeCell() (*sharedVar, bool) { return nil, false }
func (c *constVar) engineSet(*Updates, any) bool  { return false }
