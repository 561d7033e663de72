package main

import (
	"fmt"
	"os"
)

// FatalError writes an error message to stderr and exits with code 1.
// Use this for fatal errors that prevent the command from completing.
func FatalError(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}

// WarnError writes a warning message to stderr and returns.
// Use this for auxiliary steps (hooks, event log) whose failure must not
// fail a mutation that already happened.
func WarnError(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "Warning: "+format+"\n", args...)
}
