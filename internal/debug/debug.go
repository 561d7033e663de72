package debug

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

var (
	enabled     = os.Getenv("RIPI_DEBUG") != ""
	verboseMode = false
	quietMode   = false
	logMutex    sync.Mutex
)

func Enabled() bool {
	return enabled || verboseMode
}

// SetVerbose enables verbose/debug output
func SetVerbose(verbose bool) {
	verboseMode = verbose
}

// SetQuiet enables quiet mode (suppress non-essential output)
func SetQuiet(quiet bool) {
	quietMode = quiet
}

// IsQuiet returns true if quiet mode is enabled
func IsQuiet() bool {
	return quietMode
}

func Logf(format string, args ...interface{}) {
	if enabled || verboseMode {
		fmt.Fprintf(os.Stderr, format, args...)
	}
}

// LogEvent appends an event to <root>/.ripi/events.log.
// Format: TIMESTAMP|EVENT|ISSUE|ACTOR|DETAILS
//
// Failures are silent: the event log is an audit aid and must never abort
// the command that produced the event.
func LogEvent(root, event, issue, actor, details string) {
	if root == "" {
		return
	}
	logPath := filepath.Join(root, ".ripi", "events.log")

	if issue == "" {
		issue = "none"
	}
	if actor == "" {
		actor = os.Getenv("USER")
		if actor == "" {
			actor = "unknown"
		}
	}

	timestamp := time.Now().UTC().Format(time.RFC3339)
	entry := fmt.Sprintf("%s|%s|%s|%s|%s\n", timestamp, event, issue, actor, details)

	logMutex.Lock()
	defer logMutex.Unlock()

	if err := os.MkdirAll(filepath.Dir(logPath), 0o755); err != nil {
		return
	}

	file, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644) // #nosec G304 -- path under board root
	if err != nil {
		return
	}
	defer file.Close()

	_, _ = file.WriteString(entry)
}
