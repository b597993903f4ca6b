package taskgraph

import (
	"os"
	"sync"

	"github.com/joeycumines/logiface"
	"github.com/joeycumines/stumpy"
)

// Logger is the structured logging sink used for events that are off
// the hot path: scheduler construction, Stop, and affinity-pin
// failures. Out-of-task handler invocations are not logged. It is
// never consulted from Task.Execute, the deque's push/pop/steal, or
// the worker's pop-steal-execute cycle.
type Logger = *logiface.Logger[*stumpy.Event]

var (
	defaultLoggerOnce sync.Once
	defaultLogger     Logger
)

// DefaultLogger returns the package-wide default logger, a
// stumpy-backed JSON writer to stderr. It is created lazily so that
// importing the package never touches stderr unless something is
// actually logged.
func DefaultLogger() Logger {
	defaultLoggerOnce.Do(func() {
		defaultLogger = stumpy.L.New(
			stumpy.L.WithStumpy(stumpy.WithWriter(os.Stderr)),
		)
	})
	return defaultLogger
}

// SetDefaultLogger overrides the package-wide default logger. Intended
// for tests and for programs that want every scheduler constructed
// with DefaultConfig to log somewhere other than stderr.
func SetDefaultLogger(l Logger) {
	defaultLoggerOnce.Do(func() {})
	defaultLogger = l
}
