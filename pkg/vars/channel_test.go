package vars

import (
	"runtime"
	"testing"
	"time"

	"github.com/go-drift/reactive/pkg/errors"
)

func TestSenderDeliversAtNextCycle(t *testing.T) {
	u := NewUpdates()
	v := NewVar(u, 0)
	s := Sender(v)

	if err := s.Send(5); err != nil {
		t.Fatalf("Send: %v", err)
	}
	u.Apply()
	if got := v.Get(); got != 5 {
		t.Fatalf("value = %d, want 5", got)
	}
}

func TestSenderAfterShutdown(t *testing.T) {
	u := NewUpdates()
	v := NewVar(u, 0)
	s := Sender(v)

	u.Shutdown()
	if err := s.Send(1); !errors.IsShutdown(err) {
		t.Fatalf("Send after shutdown = %v, want shutdown error", err)
	}
}

func TestSenderToDroppedVarIsQuiet(t *testing.T) {
	u := NewUpdates()
	s := func() *VarSender[int] {
		v := NewVar(u, 0)
		return Sender(v)
	}()

	runtime.GC()
	runtime.GC()

	if err := s.Send(1); err != nil {
		t.Fatalf("send to a dropped variable = %v, want nil", err)
	}
}

func TestModifySender(t *testing.T) {
	u := NewUpdates()
	v := NewVar(u, 10)
	s := ModifySender(v)

	if err := s.Send(func(m *Modify[int]) {
		m.Update(func(x int) int { return x * 3 })
	}); err != nil {
		t.Fatalf("Send: %v", err)
	}
	u.Apply()
	if got := v.Get(); got != 30 {
		t.Fatalf("value = %d, want 30", got)
	}
}

func TestReceiverDeliversUpdates(t *testing.T) {
	u := NewUpdates()
	v := NewVar(u, 0)
	r := Receiver(v)

	if _, ok := r.TryRecv(); ok {
		t.Fatal("fresh receiver has a buffered value")
	}

	v.Set(1)
	u.Apply()
	got, ok := r.TryRecv()
	if !ok || got != 1 {
		t.Fatalf("TryRecv = %d,%v, want 1,true", got, ok)
	}
}

func TestReceiverBlockingRecv(t *testing.T) {
	u := NewUpdates()
	v := NewVar(u, 0)
	r := Receiver(v)

	done := make(chan int, 1)
	go func() {
		value, err := r.Recv()
		if err != nil {
			done <- -1
			return
		}
		done <- value
	}()

	v.Set(7)
	u.Apply()
	select {
	case got := <-done:
		if got != 7 {
			t.Fatalf("Recv = %d, want 7", got)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Recv did not return")
	}
}

func TestReceiverDropsOldestWhenBehind(t *testing.T) {
	u := NewUpdates()
	v := NewVar(u, 0)
	r := Receiver(v)

	// One update per cycle, more than the buffer holds.
	for i := 1; i <= 20; i++ {
		v.Set(i)
		u.Apply()
	}

	first, ok := r.TryRecv()
	if !ok {
		t.Fatal("no buffered value after 20 updates")
	}
	if first == 1 {
		t.Fatal("oldest value survived a full buffer")
	}

	// The most recent update is always retained.
	last := first
	for {
		value, ok := r.TryRecv()
		if !ok {
			break
		}
		last = value
	}
	if last != 20 {
		t.Fatalf("newest buffered value = %d, want 20", last)
	}
}

func TestRecvDeadline(t *testing.T) {
	u := NewUpdates()
	v := NewVar(u, 0)
	r := Receiver(v)

	if _, err := r.RecvDeadline(10 * time.Millisecond); err == nil {
		t.Fatal("deadline elapsed without error")
	} else if !errors.Is(err, errors.ErrTimeoutOrShutdown) {
		t.Fatalf("deadline error = %v", err)
	}

	v.Set(3)
	u.Apply()
	got, err := r.RecvDeadline(time.Second)
	if err != nil || got != 3 {
		t.Fatalf("RecvDeadline = %d,%v, want 3,nil", got, err)
	}
}

func TestReceiverRecvAfterShutdown(t *testing.T) {
	u := NewUpdates()
	v := NewVar(u, 0)
	r := Receiver(v)

	u.Shutdown()
	if _, err := r.Recv(); !errors.IsShutdown(err) {
		t.Fatalf("Recv after shutdown = %v, want shutdown error", err)
	}
}

func TestReceiverClose(t *testing.T) {
	u := NewUpdates()
	v := NewVar(u, 0)
	r := Receiver(v)

	v.Set(1)
	u.Apply()
	r.Close()
	v.Set(2)
	u.Apply()

	got, ok := r.TryRecv()
	if !ok || got != 1 {
		t.Fatalf("buffered value after Close = %d,%v, want 1,true", got, ok)
	}
	if _, ok := r.TryRecv(); ok {
		t.Fatal("update delivered after Close")
	}
}
