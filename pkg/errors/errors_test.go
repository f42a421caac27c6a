package errors

import (
	stderrors "errors"
	"strings"
	"testing"
)

func TestVarErrorString(t *testing.T) {
	err := &VarError{
		Op:   "vars.Var.Set",
		Kind: KindReadOnly,
		Err:  ErrReadOnly,
	}
	got := err.Error()
	if got == "" {
		t.Error("expected non-empty error string")
	}
	if !strings.Contains(got, "read-only") {
		t.Errorf("error string %q should contain kind", got)
	}
}

func TestVarErrorWithVarType(t *testing.T) {
	err := &VarError{
		Op:      "vars.AnyVar.Downcast",
		Kind:    KindTypeMismatch,
		VarType: "int",
		Err:     ErrTypeMismatch,
	}
	got := err.Error()
	if !strings.Contains(got, "var=int") {
		t.Errorf("error string %q should contain var type", got)
	}
}

func TestVarErrorUnwrap(t *testing.T) {
	err := New("vars.Sender.Send", KindShutdown, ErrAppShutdown)
	if !stderrors.Is(err, ErrAppShutdown) {
		t.Error("VarError should unwrap to its sentinel")
	}
	if !IsShutdown(err) {
		t.Error("IsShutdown should see through the wrapper")
	}
}

func TestKindString(t *testing.T) {
	tests := []struct {
		kind Kind
		want string
	}{
		{KindUnknown, "unknown"},
		{KindReadOnly, "read-only"},
		{KindTypeMismatch, "type-mismatch"},
		{KindShutdown, "shutdown"},
		{KindTimeout, "timeout"},
		{KindInternal, "internal"},
	}
	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.want {
			t.Errorf("Kind(%d).String() = %q, want %q", tt.kind, got, tt.want)
		}
	}
}

type recordingHandler struct {
	errs   []*VarError
	panics []*PanicError
}

func (h *recordingHandler) HandleError(err *VarError)   { h.errs = append(h.errs, err) }
func (h *recordingHandler) HandlePanic(err *PanicError) { h.panics = append(h.panics, err) }

func TestReportRoutesToHandler(t *testing.T) {
	h := &recordingHandler{}
	SetHandler(h)
	defer SetHandler(nil)

	Report(New("vars.test", KindReadOnly, ErrReadOnly))
	Report(nil) // ignored

	if len(h.errs) != 1 {
		t.Fatalf("expected 1 reported error, got %d", len(h.errs))
	}
	if h.errs[0].Timestamp.IsZero() {
		t.Error("Report should stamp the error")
	}
}

func TestRecoverReportsPanic(t *testing.T) {
	h := &recordingHandler{}
	SetHandler(h)
	defer SetHandler(nil)

	func() {
		defer Recover("vars.test.panics")
		panic("boom")
	}()

	if len(h.panics) != 1 {
		t.Fatalf("expected 1 reported panic, got %d", len(h.panics))
	}
	if h.panics[0].Value != "boom" {
		t.Errorf("panic value = %v, want boom", h.panics[0].Value)
	}
	if h.panics[0].StackTrace == "" {
		t.Error("expected captured stack trace")
	}
}

func TestLogHandlerWrites(t *testing.T) {
	var sb strings.Builder
	h := NewLogHandlerTo(&sb)
	h.HandleError(New("vars.test", KindInternal, stderrors.New("bad state")))
	if !strings.Contains(sb.String(), "bad state") {
		t.Errorf("log output %q should contain the error", sb.String())
	}
}
