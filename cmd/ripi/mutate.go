package main

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ripi-dev/ripi/internal/board"
	"github.com/ripi-dev/ripi/internal/config"
	"github.com/ripi-dev/ripi/internal/debug"
	"github.com/ripi-dev/ripi/internal/git"
	"github.com/ripi-dev/ripi/internal/hooks"
)

// finishMutation runs everything that follows a successful board change: the
// event log entry, the hook, and the commit when requested. Only the commit
// can fail the command; the change itself is already on disk.
func finishMutation(cmd *cobra.Command, b *board.Board, event, details string, res *board.Result) error {
	ctx := cmd.Context()
	name := ""
	if res.Issue != nil {
		name = res.Issue.Name
	}
	debug.LogEvent(b.Root(), event, name, config.GetString("actor"), details)

	if res.Issue != nil && config.GetBool("hooks.enabled") {
		runner := hooks.NewRunnerFromBoard(b.Root()).WithTimeout(config.GetDuration("hooks.timeout"))
		if err := runner.Run(ctx, event, res.Issue); err != nil {
			WarnError("%v", err)
		}
	}

	if !config.GetBool("auto-commit") || len(res.Paths) == 0 {
		return nil
	}
	msg := commitMessage(event, name, details)
	if err := commitPaths(ctx, b.Root(), res.Paths, msg); err != nil {
		return fmt.Errorf("change applied but not committed: %w", err)
	}
	printNormal(cmd, "%s %s\n", color.New(color.FgCyan).Sprint("committed:"), msg)
	return nil
}

// newCommitter opens the repository holding root with the configured lock wait.
func newCommitter(root string) (*git.Committer, error) {
	c, err := git.NewCommitter(root)
	if err != nil {
		return nil, err
	}
	c.LockWait = config.GetDuration("git.lock-wait")
	return c, nil
}

func commitPaths(ctx context.Context, root string, paths []string, msg string) error {
	c, err := newCommitter(root)
	if err != nil {
		return err
	}
	return c.Commit(ctx, paths, msg)
}

func commitMessage(event, name, details string) string {
	msg := "ripi: " + event
	if name != "" {
		msg += " " + name
	}
	if details != "" {
		msg += " (" + details + ")"
	}
	return msg
}

// printNormal writes informational output unless --quiet is set.
func printNormal(cmd *cobra.Command, format string, args ...interface{}) {
	if debug.IsQuiet() {
		return
	}
	fmt.Fprintf(cmd.OutOrStdout(), format, args...)
}
