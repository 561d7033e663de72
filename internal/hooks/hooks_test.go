//go:build unix

package hooks

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ripi-dev/ripi/internal/board"
	"github.com/ripi-dev/ripi/internal/types"
)

func writeHook(t *testing.T, dir, name, script string) string {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+script), 0o755); err != nil { // #nosec G306 -- test hook must be executable
		t.Fatal(err)
	}
	return path
}

func testIssue() *board.Issue {
	return &board.Issue{Name: "fix_login_bug", Title: "Fix login bug", Path: "/board/todo/fix_login_bug", Stage: types.StageTodo}
}

func TestRunPassesArgsAndPayload(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "out")
	writeHook(t, dir, HookOnCreate, `echo "$1 $2" > "`+out+`"; cat >> "`+out+`"`)

	r := NewRunner(dir)
	if err := r.Run(context.Background(), EventCreate, testIssue()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("hook did not run: %v", err)
	}
	lines := strings.SplitN(string(data), "\n", 2)
	if lines[0] != "fix_login_bug create" {
		t.Errorf("args = %q", lines[0])
	}
	var got board.Issue
	if err := json.Unmarshal([]byte(lines[1]), &got); err != nil {
		t.Fatalf("payload is not issue JSON: %v (%q)", err, lines[1])
	}
	if got.Name != "fix_login_bug" || got.Stage != types.StageTodo {
		t.Errorf("payload = %+v", got)
	}
}

func TestRunMissingHookIsNoop(t *testing.T) {
	r := NewRunner(filepath.Join(t.TempDir(), "nohooks"))
	if err := r.Run(context.Background(), EventClose, testIssue()); err != nil {
		t.Errorf("Run with no hook = %v", err)
	}
	if r.HookExists(EventClose) {
		t.Error("HookExists should be false")
	}
}

func TestRunSkipsNonExecutable(t *testing.T) {
	dir := t.TempDir()
	path := writeHook(t, dir, HookOnMove, "exit 1\n")
	if err := os.Chmod(path, 0o644); err != nil {
		t.Fatal(err)
	}

	r := NewRunner(dir)
	if r.HookExists(EventMove) {
		t.Error("non-executable hook should not count")
	}
	if err := r.Run(context.Background(), EventMove, testIssue()); err != nil {
		t.Errorf("Run = %v", err)
	}
}

func TestRunUnknownEvent(t *testing.T) {
	r := NewRunner(t.TempDir())
	if err := r.Run(context.Background(), "rename", testIssue()); err != nil {
		t.Errorf("Run(unknown) = %v", err)
	}
}

func TestRunFailureCarriesStderr(t *testing.T) {
	dir := t.TempDir()
	writeHook(t, dir, HookOnDelete, "echo refused >&2; exit 3\n")

	err := NewRunner(dir).Run(context.Background(), EventDelete, testIssue())
	var hookErr *HookError
	if !errors.As(err, &hookErr) {
		t.Fatalf("Run = %v, want *HookError", err)
	}
	if hookErr.Output != "refused" {
		t.Errorf("Output = %q", hookErr.Output)
	}
	if !strings.Contains(err.Error(), HookOnDelete) {
		t.Errorf("error %q should name the hook", err)
	}
}

func TestRunTimeoutKillsDescendants(t *testing.T) {
	dir := t.TempDir()
	pidFile := filepath.Join(dir, "child.pid")
	writeHook(t, dir, HookOnStatus, "sleep 60 &\necho $! > \""+pidFile+"\"\nwait\n")

	r := NewRunner(dir).WithTimeout(200 * time.Millisecond)
	start := time.Now()
	err := r.Run(context.Background(), EventStatus, testIssue())
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Run = %v, want deadline exceeded", err)
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Fatalf("Run took %v, timeout not enforced", elapsed)
	}
}

func TestWithTimeoutIgnoresNonPositive(t *testing.T) {
	r := NewRunner(t.TempDir()).WithTimeout(0)
	if r.timeout != DefaultTimeout {
		t.Errorf("timeout = %v, want %v", r.timeout, DefaultTimeout)
	}
}

func TestNewRunnerFromBoard(t *testing.T) {
	r := NewRunnerFromBoard("/board")
	if r.Dir() != filepath.Join("/board", ".ripi", "hooks") {
		t.Errorf("Dir() = %q", r.Dir())
	}
}

func TestTruncateOutput(t *testing.T) {
	long := strings.Repeat("x", maxOutputBytes+10)
	got := truncateOutput(long)
	if !strings.HasSuffix(got, "...(truncated)") || len(got) != maxOutputBytes+len("...(truncated)") {
		t.Errorf("truncateOutput length = %d", len(got))
	}
	if truncateOutput("short") != "short" {
		t.Error("short output must be unchanged")
	}
}
