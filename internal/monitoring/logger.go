// Package monitoring holds the diagnostic logger shared by the loaders and
// renderers. CLI mains log directly with the log package.
package monitoring

import "log"

// Logf reports load summaries, bin diagnostics and render progress. It
// writes through log.Printf until SetLogger replaces it.
var Logf func(format string, v ...interface{}) = log.Printf

var debug bool

// SetLogger routes Logf to f. A nil f discards all output.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}

// SetDebug enables or disables Debugf output.
func SetDebug(on bool) {
	debug = on
}

// Debugf logs through Logf only when debug output is enabled. Used for
// per-module progress that would flood the log on a full detector render.
func Debugf(format string, v ...interface{}) {
	if !debug {
		return
	}
	Logf(format, v...)
}
