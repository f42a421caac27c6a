package vars

import (
	"reflect"
	"sync"
	"sync/atomic"
)

// ContextID identifies one context-entry scope. Each site that
// substitutes backing storage for a context variable allocates an id
// once with [NewContextID] and reuses it on every entry.
type ContextID struct {
	id uint64
}

var nextContextID atomic.Uint64

// NewContextID allocates a context-entry identifier.
func NewContextID() ContextID {
	return ContextID{id: nextContextID.Add(1)}
}

// ContextVar is a variable reference that resolves to different
// backing storage depending on the calling scope: inside a
// [ContextVar.WithContext] call it resolves to the substituted
// backing, outside it resolves to its default cell.
//
// Nested substitutions are last-wins within the active call stack and
// are restored on scope exit on every path, including panics. Once
// resolved, a context variable behaves exactly like the shared cell it
// resolved to; resolution itself never updates a version stamp.
type ContextVar[T any] struct {
	dflt *sharedVar

	mu    sync.Mutex
	stack []contextFrame
}

type contextFrame struct {
	id      ContextID
	backing AnyVar
}

// NewContextVar creates a context variable owned by u whose default
// backing cell holds value.
func NewContextVar[T any](u *Updates, value T) *ContextVar[T] {
	return &ContextVar[T]{
		dflt: newSharedVar(u, reflect.TypeFor[T](), value, MaskUpdate),
	}
}

// Var returns the front-end handle for the context variable. Every
// operation on the handle resolves against the calling scope.
func (c *ContextVar[T]) Var() Var[T] {
	return Var[T]{any: &contextCell[T]{cv: c}}
}

// WithContext substitutes backing for the duration of fn. The previous
// resolution is restored when fn returns or unwinds.
func (c *ContextVar[T]) WithContext(id ContextID, backing Var[T], fn func()) {
	c.mu.Lock()
	c.stack = append(c.stack, contextFrame{id: id, backing: backing.any})
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		// Remove the topmost frame with this id; scopes exit in reverse
		// entry order, so it is almost always the last element.
		for i := len(c.stack) - 1; i >= 0; i-- {
			if c.stack[i].id == id {
				c.stack = append(c.stack[:i], c.stack[i+1:]...)
				break
			}
		}
		c.mu.Unlock()
	}()

	fn()
}

// resolve returns the backing cell for the calling scope.
func (c *ContextVar[T]) resolve() AnyVar {
	c.mu.Lock()
	defer c.mu.Unlock()
	if n := len(c.stack); n > 0 {
		return c.stack[n-1].backing
	}
	return c.dflt
}

// contextCell is the contextual cell kind: it holds no value and
// forwards every operation to the scope's backing cell.
type contextCell[T any] struct {
	cv *ContextVar[T]
}

func (c *contextCell[T]) Value() any              { return c.cv.resolve().Value() }
func (c *contextCell[T]) ValueType() reflect.Type { return reflect.TypeFor[T]() }
func (c *contextCell[T]) LastUpdate() uint64      { return c.cv.resolve().LastUpdate() }
func (c *contextCell[T]) lastSeq() uint64         { return c.cv.resolve().lastSeq() }

func (c *contextCell[T]) Capabilities() Capabilities {
	return c.cv.resolve().Capabilities() | CapContextual
}

func (c *contextCell[T]) Updates() *Updates {
	if u := c.cv.resolve().Updates(); u != nil {
		return u
	}
	return c.cv.dflt.Updates()
}

func (c *contextCell[T]) TrySetValue(value any) error {
	return c.cv.resolve().TrySetValue(value)
}

func (c *contextCell[T]) TryModifyValue(fn func(*AnyModify)) error {
	return c.cv.resolve().TryModifyValue(fn)
}

func (c *contextCell[T]) HookAny(fn func(value any) bool) HookHandle {
	return c.cv.resolve().HookAny(fn)
}

func (c *contextCell[T]) DowngradeAny() AnyWeakVar {
	return c.cv.resolve().DowngradeAny()
}

func (c *contextCell[T]) writeCell() (*sharedVar, bool) {
	return c.cv.resolve().writeCell()
}

func (c *contextCell[T]) engineSet(u *Updates, value any) bool {
	return c.cv.resolve().engineSet(u, value)
}
