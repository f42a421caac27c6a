package errors

import (
	"io"
	"os"

	"github.com/rs/zerolog"
)

// LogHandler is a Handler that writes structured log lines via zerolog.
//
// Rejected same-thread writes (KindReadOnly) are logged at debug level:
// those failures are absorbed by the setter APIs and only matter when
// chasing a programming mistake. Everything else logs at error level,
// and type mismatches additionally carry the captured stack since they
// indicate an internal consistency bug.
type LogHandler struct {
	log zerolog.Logger
}

// NewLogHandler returns a LogHandler writing to stderr.
func NewLogHandler() *LogHandler {
	return NewLogHandlerTo(os.Stderr)
}

// NewLogHandlerTo returns a LogHandler writing to w.
func NewLogHandlerTo(w io.Writer) *LogHandler {
	return &LogHandler{
		log: zerolog.New(w).With().Timestamp().Str("component", "reactive").Logger(),
	}
}

// HandleError logs a VarError.
func (h *LogHandler) HandleError(err *VarError) {
	if err == nil {
		return
	}
	ev := h.log.Error()
	switch err.Kind {
	case KindReadOnly:
		ev = h.log.Debug()
	case KindTimeout:
		ev = h.log.Debug()
	}
	ev = ev.Str("op", err.Op).Stringer("kind", err.Kind)
	if err.VarType != "" {
		ev = ev.Str("var", err.VarType)
	}
	if err.Kind == KindTypeMismatch && err.StackTrace != "" {
		ev = ev.Str("stack", err.StackTrace)
	}
	ev.Err(err.Err).Msg("variable operation failed")
}

// HandlePanic logs a recovered panic with its stack trace.
func (h *LogHandler) HandlePanic(err *PanicError) {
	if err == nil {
		return
	}
	ev := h.log.Error().Str("op", err.Op).Interface("value", err.Value)
	if err.StackTrace != "" {
		ev = ev.Str("stack", err.StackTrace)
	}
	ev.Msg("recovered panic")
}
