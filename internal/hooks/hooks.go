// Package hooks runs user scripts after board mutations. Hooks are executable
// files in .ripi/hooks/, one per event, named on_<event>.
//
// A hook receives the issue name and the event as arguments and the issue as
// JSON on stdin. Hooks run synchronously and are bounded by a timeout; a
// failing hook never undoes the mutation that triggered it.
package hooks

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/ripi-dev/ripi/internal/board"
)

// Event types
const (
	EventCreate = "create"
	EventClose  = "close"
	EventDelete = "delete"
	EventMove   = "move"
	EventStatus = "status"
)

// Hook file names
const (
	HookOnCreate = "on_create"
	HookOnClose  = "on_close"
	HookOnDelete = "on_delete"
	HookOnMove   = "on_move"
	HookOnStatus = "on_status"
)

// DefaultTimeout bounds a hook when the runner is not told otherwise.
const DefaultTimeout = 10 * time.Second

// Runner handles hook execution
type Runner struct {
	hooksDir string
	timeout  time.Duration
}

// NewRunner creates a new hook runner.
// hooksDir is typically .ripi/hooks/ under the board root.
func NewRunner(hooksDir string) *Runner {
	return &Runner{
		hooksDir: hooksDir,
		timeout:  DefaultTimeout,
	}
}

// NewRunnerFromBoard creates a hook runner for the board at root.
func NewRunnerFromBoard(root string) *Runner {
	return NewRunner(filepath.Join(root, ".ripi", "hooks"))
}

// WithTimeout returns a copy of r using timeout. Non-positive values keep the
// current timeout.
func (r *Runner) WithTimeout(timeout time.Duration) *Runner {
	c := *r
	if timeout > 0 {
		c.timeout = timeout
	}
	return &c
}

// Dir returns the hooks directory.
func (r *Runner) Dir() string { return r.hooksDir }

// Run executes the hook for event if one exists, and waits for it.
// A missing or non-executable hook is not an error.
func (r *Runner) Run(ctx context.Context, event string, issue *board.Issue) error {
	hookPath, ok := r.hookPath(event)
	if !ok {
		return nil
	}

	payload, err := json.Marshal(issue)
	if err != nil {
		return err
	}
	return r.runHook(ctx, hookPath, event, issue.Name, payload)
}

// HookExists checks if a hook exists for an event
func (r *Runner) HookExists(event string) bool {
	_, ok := r.hookPath(event)
	return ok
}

func (r *Runner) hookPath(event string) (string, bool) {
	hookName := eventToHook(event)
	if hookName == "" {
		return "", false
	}

	hookPath := filepath.Join(r.hooksDir, hookName)
	info, err := os.Stat(hookPath)
	if err != nil || info.IsDir() {
		return "", false
	}
	if info.Mode()&0111 == 0 {
		return "", false
	}
	return hookPath, true
}

func eventToHook(event string) string {
	switch event {
	case EventCreate:
		return HookOnCreate
	case EventClose:
		return HookOnClose
	case EventDelete:
		return HookOnDelete
	case EventMove:
		return HookOnMove
	case EventStatus:
		return HookOnStatus
	default:
		return ""
	}
}

// HookError is a hook that ran and failed. Output carries its stderr.
type HookError struct {
	Hook   string
	Err    error
	Output string
}

func (e *HookError) Error() string {
	if e.Output != "" {
		return "hook " + filepath.Base(e.Hook) + " failed: " + e.Err.Error() + ": " + e.Output
	}
	return "hook " + filepath.Base(e.Hook) + " failed: " + e.Err.Error()
}

func (e *HookError) Unwrap() error { return e.Err }

func hookError(hookPath string, err error, stderr *bytes.Buffer) error {
	return &HookError{Hook: hookPath, Err: err, Output: string(bytes.TrimSpace(stderr.Bytes()))}
}
