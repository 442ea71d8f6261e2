package monitoring

import "log"

// Logf is the package-level progress logger. Tabulation runs report their
// per-pair progress through it. It defaults to log.Printf and may be swapped
// out with SetLogger; tests usually mute it.
var Logf func(format string, v ...interface{}) = log.Printf

// SetLogger replaces the package logger. Passing nil installs a no-op logger.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}
