package wsurf

import (
	"context"
	"log/slog"
	"sync/atomic"
)

// nopHandler is a slog.Handler that silently discards all log records.
// Enabled returns false so callers skip message formatting entirely.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

func newNopLogger() *slog.Logger { return slog.New(nopHandler{}) }

// loggerPtr stores the active logger. Accessed atomically so that
// SetLogger can be called concurrently with logging from any goroutine.
var loggerPtr atomic.Pointer[slog.Logger]

func init() {
	loggerPtr.Store(newNopLogger())
}

// SetLogger configures the logger for wsurf and its reference collaborators.
// By default nothing is logged. Pass nil to restore the silent default.
//
// Log levels used by wsurf:
//   - [slog.LevelDebug]: buffer allocation sizes, format substitution, config counts
//   - [slog.LevelInfo]: display initialization and the presentation path chosen
//   - [slog.LevelWarn]: degraded paths (software fallback, dumb buffer mapping)
//
// Backends and window systems passed to [Open] that have a SetLogger method
// receive the logger current at that moment.
//
// Example:
//
//	wsurf.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
//	    Level: slog.LevelDebug,
//	})))
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = newNopLogger()
	}
	loggerPtr.Store(l)
}

// Logger returns the current logger. Collaborator packages call this to
// share one logger configuration.
//
// Logger is safe for concurrent use.
func Logger() *slog.Logger {
	return loggerPtr.Load()
}

// loggerSetter is implemented by collaborators that accept a logger.
type loggerSetter interface {
	SetLogger(*slog.Logger)
}

// propagateLogger hands l to every collaborator that implements loggerSetter.
func propagateLogger(l *slog.Logger, targets ...any) {
	for _, t := range targets {
		if ls, ok := t.(loggerSetter); ok {
			ls.SetLogger(l)
		}
	}
}
