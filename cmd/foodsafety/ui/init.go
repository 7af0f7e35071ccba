// Package ui provides terminal output helpers for the foodsafety CLI.
package ui

import (
	"io"
	"os"

	"github.com/fatih/color"
)

var (
	out     io.Writer = os.Stdout
	errOut  io.Writer = os.Stderr
	verbose bool
)

// Init configures color and verbosity.
func Init(noColor, verboseOutput bool) {
	verbose = verboseOutput
	if noColor {
		color.NoColor = true
	}
}

// SetOutput redirects normal and error output.
func SetOutput(stdout, stderr io.Writer) {
	out = stdout
	errOut = stderr
}

// Verbose reports whether verbose output is enabled.
func Verbose() bool {
	return verbose
}

// IsTerminal reports whether stdout is a character device.
func IsTerminal() bool {
	f, ok := out.(*os.File)
	if !ok {
		return false
	}
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}
