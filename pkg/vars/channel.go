package vars

import (
	"time"

	"github.com/go-drift/reactive/pkg/errors"
)

// closedChan is the done channel of endpoints with no owning context.
var closedChan = func() chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}()

// VarSender is a cross-goroutine write endpoint for one variable.
// Sends enqueue into the owning update context and take effect at the
// next cycle; the sender holds the variable weakly, so it never keeps
// the cell alive by itself.
type VarSender[T any] struct {
	u *Updates
	w AnyWeakVar
}

// Sender returns a cross-goroutine endpoint that replaces v's value.
func Sender[T any](v Var[T]) *VarSender[T] {
	return &VarSender[T]{u: v.Updates(), w: v.any.DowngradeAny()}
}

// Send schedules value as v's next value. It returns ErrAppShutdown
// once the owning context has shut down. A send to a variable whose
// last strong owner is gone is quietly dropped.
func (s *VarSender[T]) Send(value T) error {
	if s.u == nil {
		return errors.New("vars.VarSender.Send", errors.KindShutdown, errors.ErrAppShutdown)
	}
	av, ok := s.w.UpgradeAny()
	if !ok {
		return nil
	}
	return av.TrySetValue(value)
}

// VarModifySender is a cross-goroutine modify endpoint for one
// variable: it sends closures instead of values.
type VarModifySender[T any] struct {
	u *Updates
	w AnyWeakVar
}

// ModifySender returns a cross-goroutine endpoint that schedules modify
// closures against v.
func ModifySender[T any](v Var[T]) *VarModifySender[T] {
	return &VarModifySender[T]{u: v.Updates(), w: v.any.DowngradeAny()}
}

// Send schedules fn against v's pending value. The closure runs on the
// owning goroutine during the next cycle.
func (s *VarModifySender[T]) Send(fn func(*Modify[T])) error {
	if s.u == nil {
		return errors.New("vars.VarModifySender.Send", errors.KindShutdown, errors.ErrAppShutdown)
	}
	av, ok := s.w.UpgradeAny()
	if !ok {
		return nil
	}
	return av.TryModifyValue(func(am *AnyModify) {
		fn(&Modify[T]{any: am})
	})
}

// VarReceiver delivers a variable's updates to other goroutines. The
// delivery buffer keeps the most recent updates: if a consumer falls
// behind, the oldest undelivered value is dropped first.
type VarReceiver[T any] struct {
	done <-chan struct{}
	ch   chan T
	hook HookHandle
}

// Receiver returns an endpoint delivering every update of v, starting
// with the first update after registration.
func Receiver[T any](v Var[T]) *VarReceiver[T] {
	var done <-chan struct{} = closedChan
	if u := v.Updates(); u != nil {
		done = u.Done()
	}
	r := &VarReceiver[T]{done: done, ch: make(chan T, 8)}
	r.hook = v.Hook(func(value T) bool {
		r.push(value)
		return true
	})
	return r
}

func (r *VarReceiver[T]) push(value T) {
	for {
		select {
		case r.ch <- value:
			return
		default:
			// Buffer full: drop the oldest undelivered value.
			select {
			case <-r.ch:
			default:
			}
		}
	}
}

// Recv blocks until the next update, returning ErrAppShutdown once the
// owning context shuts down.
func (r *VarReceiver[T]) Recv() (T, error) {
	select {
	case value := <-r.ch:
		return value, nil
	case <-r.done:
		var zero T
		return zero, errors.New("vars.VarReceiver.Recv", errors.KindShutdown, errors.ErrAppShutdown)
	}
}

// TryRecv returns the next buffered update without blocking.
func (r *VarReceiver[T]) TryRecv() (T, bool) {
	select {
	case value := <-r.ch:
		return value, true
	default:
		var zero T
		return zero, false
	}
}

// RecvDeadline is [VarReceiver.Recv] with a deadline: it returns
// ErrTimeoutOrShutdown if the deadline elapses first, or shutdown
// occurred.
func (r *VarReceiver[T]) RecvDeadline(timeout time.Duration) (T, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case value := <-r.ch:
		return value, nil
	case <-r.done:
		var zero T
		return zero, errors.New("vars.VarReceiver.RecvDeadline", errors.KindShutdown, errors.ErrTimeoutOrShutdown)
	case <-timer.C:
		var zero T
		return zero, errors.New("vars.VarReceiver.RecvDeadline", errors.KindTimeout, errors.ErrTimeoutOrShutdown)
	}
}

// Close unregisters the receiver's hook. Buffered values remain
// readable via TryRecv.
func (r *VarReceiver[T]) Close() {
	r.hook.Unhook()
}
