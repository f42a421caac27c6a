// Package vars implements the reactive variable engine: observable,
// shareable, possibly-derived value cells with change propagation, two-way
// bindings, contextual resolution, and a frame-driven animation scheduler.
//
// # Core Components
//
//   - [Var]: statically-typed, cheaply-copied front-end over a value cell.
//     Created with [NewVar] (shared mutable) or [NewConst] (immutable
//     constant).
//
//   - [AnyVar]: type-erased handle over a cell, enabling heterogeneous
//     variable graphs. [FromAny] performs the checked downcast back to a
//     typed front-end.
//
//   - [Updates]: the per-application update context. All writes are queued
//     and applied in one batch per cycle by [Updates.Apply]; animations are
//     advanced once per rendered frame by [Updates.Tick].
//
//   - Mapping and binding: [Map], [MapBidi], [FilterMap], [FlatMap] derive
//     new variables from existing ones; [Bind] and friends keep independent
//     variables synchronized with cycle-breaking.
//
//   - [ContextVar]: a variable reference that resolves to different backing
//     storage depending on the calling scope.
//
//   - Animations: [Ease], [EaseOsc], [EaseKeyed], [Step], [Steps], [Chase],
//     [Sequence] and the raw [Updates.Animate] drive variable values over
//     wall-clock time, one writer per cell.
//
// # Threading
//
// Reads are safe from any goroutine. Writes never touch cell storage
// directly: they enqueue into the owning [Updates] context and take effect
// when the owning goroutine calls Apply. Cross-goroutine producers use
// [Sender], [ModifySender] and [Receiver] endpoints. Hooks, bindings and
// animation closures all run on the owning goroutine and must not block.
//
// # Basic Usage
//
//	u := vars.NewUpdates()
//	count := vars.NewVar(u, 0)
//	double := vars.Map(count, func(n int) int { return n * 2 })
//
//	count.Set(5)
//	u.Apply()
//	double.Get() // 10
package vars
