// Package monitoring holds the diagnostic logger shared by the calculation
// pipeline and the command-line tools.
package monitoring

import "log"

// Logf is the package-level diagnostic logger. It defaults to log.Printf and
// can be swapped with SetLogger, e.g. to silence a run or capture output in tests.
var Logf func(format string, v ...interface{}) = log.Printf

// SetLogger replaces the package logger. Passing nil installs a no-op logger.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}

// Prefixed returns a logger that forwards to the current Logf with prefix
// prepended to every message. The lookup of Logf happens on each call so a later
// SetLogger still takes effect.
func Prefixed(prefix string) func(format string, v ...interface{}) {
	return func(format string, v ...interface{}) {
		Logf(prefix+format, v...)
	}
}
