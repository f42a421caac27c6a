package vars

import "strings"

// Capabilities describes what a value cell can do. The bits are a
// snapshot: CapAnimating in particular reflects the cell's state at the
// time of the query.
type Capabilities uint8

const (
	// CapModify is set on cells that accept writes.
	CapModify Capabilities = 1 << iota
	// CapUpdate is set on cells whose value can change at all. Derived
	// read-only cells carry CapUpdate without CapModify; constants carry
	// neither.
	CapUpdate
	// CapContextual is set on cells that resolve to different backing
	// storage depending on the calling scope.
	CapContextual
	// CapAnimating is set while an animation holds write authority over
	// the cell.
	CapAnimating
)

// CanModify reports whether writes are accepted.
func (c Capabilities) CanModify() bool { return c&CapModify != 0 }

// CanUpdate reports whether the value can ever change.
func (c Capabilities) CanUpdate() bool { return c&CapUpdate != 0 }

// IsContextual reports whether the cell resolves per calling scope.
func (c Capabilities) IsContextual() bool { return c&CapContextual != 0 }

// IsAnimating reports whether an animation currently controls the cell.
func (c Capabilities) IsAnimating() bool { return c&CapAnimating != 0 }

// IsConst reports whether the cell can never update.
func (c Capabilities) IsConst() bool { return !c.CanUpdate() }

func (c Capabilities) String() string {
	if c == 0 {
		return "const"
	}
	var parts []string
	if c.CanModify() {
		parts = append(parts, "modify")
	}
	if c.CanUpdate() {
		parts = append(parts, "update")
	}
	if c.IsContextual() {
		parts = append(parts, "contextual")
	}
	if c.IsAnimating() {
		parts = append(parts, "animating")
	}
	return strings.Join(parts, "|")
}

// UpdateMask is the aggregate change mask computed per update cycle.
// Each cell carries a mask that is OR-ed into the cycle aggregate when
// the cell changes; downstream consumers (layout, render) drain the
// aggregate via [Updates.TakeMask] to decide what to invalidate.
type UpdateMask uint8

const (
	// MaskUpdate marks a plain value update. Every cell carries at least
	// this bit.
	MaskUpdate UpdateMask = 1 << iota
	// MaskLayout marks cells whose changes invalidate layout.
	MaskLayout
	// MaskRender marks cells whose changes invalidate rendering.
	MaskRender
)

// Has reports whether all bits of other are set in m.
func (m UpdateMask) Has(other UpdateMask) bool { return m&other == other }
