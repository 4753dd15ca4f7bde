// Package debug provides conditional debug logging for influgraph.
//
// Debug logging is enabled by setting the IG_DEBUG environment variable:
//
//	IG_DEBUG=1 ig --source http://localhost:5000
//
// When enabled, debug messages are written to stderr with timestamps.
// When disabled (default), all debug functions are no-ops.
//
// Usage:
//
//	import "github.com/vanderheijden86/influgraph/pkg/debug"
//
//	func reload() {
//	    defer debug.LogEnterExit("reload")()
//	    debug.Event("graph replaced", "nodes", len(g.Nodes), "links", len(g.Links))
//	}
package debug

import (
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"
)

var (
	// enabled is true when IG_DEBUG env var is set
	enabled bool
	// logger writes to stderr with an IG_DEBUG prefix
	logger *log.Logger
)

func init() {
	if os.Getenv("IG_DEBUG") != "" {
		enabled = true
		logger = newLogger(os.Stderr)
	}
}

func newLogger(w io.Writer) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.000000",
		Prefix:          "IG_DEBUG",
		Level:           log.DebugLevel,
	})
}

// Enabled returns whether debug logging is enabled.
func Enabled() bool {
	return enabled
}

// SetEnabled allows programmatic control of debug logging.
func SetEnabled(e bool) {
	enabled = e
	if e && logger == nil {
		logger = newLogger(os.Stderr)
	}
}

// SetOutput redirects debug output, mainly for tests and for keeping the
// alternate screen clean while the TUI runs.
func SetOutput(w io.Writer) {
	logger = newLogger(w)
}

// Log writes a debug message if debug logging is enabled.
// Uses printf-style formatting.
func Log(format string, args ...any) {
	if !enabled {
		return
	}
	logger.Debugf(format, args...)
}

// Event writes a structured debug message with key/value pairs.
func Event(msg string, keyvals ...any) {
	if !enabled {
		return
	}
	logger.Debug(msg, keyvals...)
}

// Warn writes a structured warning. Warnings are emitted even when debug
// logging is disabled only if a logger has been configured via SetOutput.
func Warn(msg string, keyvals ...any) {
	if logger == nil {
		return
	}
	logger.Warn(msg, keyvals...)
}

// LogTiming writes a timing message if debug logging is enabled.
func LogTiming(name string, d time.Duration) {
	if !enabled {
		return
	}
	logger.Debug(name, "took", d)
}

// LogIf writes a debug message only if the condition is true.
func LogIf(cond bool, format string, args ...any) {
	if !enabled || !cond {
		return
	}
	logger.Debugf(format, args...)
}

// LogEnterExit logs function entry and exit with timing.
// Usage:
//
//	func myFunc() {
//	    defer debug.LogEnterExit("myFunc")()
//	    // ...
//	}
func LogEnterExit(name string) func() {
	if !enabled {
		return func() {}
	}
	logger.Debugf("-> %s", name)
	start := time.Now()
	return func() {
		logger.Debugf("<- %s (%v)", name, time.Since(start))
	}
}

// Dump logs a value with its type for debugging complex structures.
func Dump(name string, v any) {
	if !enabled {
		return
	}
	logger.Debugf("%s: %T = %+v", name, v, v)
}

// Section logs a section header for visual organization in debug output.
func Section(name string) {
	if !enabled {
		return
	}
	logger.Debugf("=== %s ===", name)
}
