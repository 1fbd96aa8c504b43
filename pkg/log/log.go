// Package log provides colored console output for the btserial CLI and core.
package log

import (
	"os"
	"sync/atomic"

	"github.com/fatih/color"
)

var red = color.New(color.FgRed).FprintfFunc()
var blue = color.New(color.FgBlue).FprintfFunc()
var yellow = color.New(color.FgYellow).FprintfFunc()

var verbose atomic.Bool

// SetVerbose enables or disables debug output globally.
func SetVerbose(v bool) {
	verbose.Store(v)
}

// ErrorMsg prints an error message to stderr in red color.
func ErrorMsg(format string, a ...interface{}) {
	red(os.Stderr, "[!] Error: "+format, a...)
}

// InfoMsg prints an informational message to stderr in blue color.
func InfoMsg(format string, a ...interface{}) {
	blue(os.Stderr, "[+] "+format, a...)
}

// DebugMsg prints a debug message to stderr in yellow color.
// It is a no-op unless verbose output was enabled via SetVerbose.
func DebugMsg(format string, a ...interface{}) {
	if !verbose.Load() {
		return
	}
	yellow(os.Stderr, "[*] "+format, a...)
}
