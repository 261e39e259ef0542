package log

import "sync/atomic"

// The process-wide logger, used by packages that are handed no logger of
// their own (the GitHub adapter's default, for one).
var processLogger atomic.Pointer[Logger]

// SetDefaultLogger replaces the process-wide logger. The CLI calls this
// once after parsing the log flags.
func SetDefaultLogger(logger *Logger) {
	processLogger.Store(logger)
}

// DefaultLogger returns the process-wide logger, building one with the
// standard configuration on first use.
func DefaultLogger() *Logger {
	if logger := processLogger.Load(); logger != nil {
		return logger
	}
	processLogger.CompareAndSwap(nil, Default())
	return processLogger.Load()
}
