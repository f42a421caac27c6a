package vars

import (
	"sync"
	"sync/atomic"
)

// hookList is the per-cell observer registry. Registration and removal
// may happen from any goroutine; firing happens on the owning goroutine
// during the hook phase of a cycle. Entries removed mid-iteration are
// tombstoned and pruned on the next firing pass.
type hookList struct {
	mu      sync.Mutex
	entries []*hookEntry
}

type hookEntry struct {
	fn      func(value any) bool
	removed atomic.Bool
}

// HookHandle unregisters a hook explicitly. The zero handle is inert:
// hooks on cells that can never update return it.
type HookHandle struct {
	entry *hookEntry
}

// Unhook removes the hook. Removal during the hook phase is deferred to
// the end of the pass; the hook will not fire again.
func (h HookHandle) Unhook() {
	if h.entry == nil {
		return
	}
	h.entry.removed.Store(true)
}

// IsHooked reports whether the hook is still registered.
func (h HookHandle) IsHooked() bool {
	return h.entry != nil && !h.entry.removed.Load()
}

func (l *hookList) add(fn func(value any) bool) HookHandle {
	e := &hookEntry{fn: fn}
	l.mu.Lock()
	l.entries = append(l.entries, e)
	l.mu.Unlock()
	return HookHandle{entry: e}
}

// fire invokes every live hook once with value, removing hooks that
// return false, then prunes tombstones.
func (l *hookList) fire(value any) {
	l.mu.Lock()
	entries := make([]*hookEntry, len(l.entries))
	copy(entries, l.entries)
	l.mu.Unlock()

	for _, e := range entries {
		if e.removed.Load() {
			continue
		}
		if !e.fn(value) {
			e.removed.Store(true)
		}
	}

	l.mu.Lock()
	live := l.entries[:0]
	for _, e := range l.entries {
		if !e.removed.Load() {
			live = append(live, e)
		}
	}
	l.entries = live
	l.mu.Unlock()
}

func (l *hookList) len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, e := range l.entries {
		if !e.removed.Load() {
			n++
		}
	}
	return n
}
