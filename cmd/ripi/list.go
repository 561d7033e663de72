package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/ripi-dev/ripi/internal/board"
	"github.com/ripi-dev/ripi/internal/types"
	"github.com/ripi-dev/ripi/internal/ui"
)

const watchDebounce = 300 * time.Millisecond

// issueView is the JSON shape of an issue, with its status resolved.
type issueView struct {
	*board.Issue
	Status      string `json:"status,omitempty"`
	StatusError string `json:"status_error,omitempty"`
	Description string `json:"description,omitempty"`
}

// newIssueView reads the issue's status. A corrupt status directory is
// reported in StatusError rather than failing the whole listing.
func newIssueView(issue *board.Issue) *issueView {
	view := &issueView{Issue: issue}
	if _, err := os.Lstat(issue.Path); err != nil {
		return view
	}
	status, err := issue.Status()
	switch {
	case err != nil:
		view.StatusError = err.Error()
	case status != nil:
		view.Status = status.String()
	}
	return view
}

func newIssueListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List issues grouped by stage",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			stageName, _ := cmd.Flags().GetString("stage")
			closed, _ := cmd.Flags().GetBool("closed")
			watch, _ := cmd.Flags().GetBool("watch")

			stages := types.Stages()
			if stageName != "" {
				st, err := types.ParseStage(stageName)
				if err != nil {
					return &board.InvalidStageError{Path: stageName}
				}
				stages = []types.Stage{st}
			}

			b := openBoard()
			render := func(ctx context.Context) error {
				return renderIssueList(ctx, cmd, b, stages, closed)
			}
			if err := render(cmd.Context()); err != nil {
				return err
			}
			if !watch {
				return nil
			}
			return watchIssueList(cmd, b, render)
		},
	}
	cmd.Flags().StringP("stage", "s", "", "Only list this stage")
	cmd.Flags().Bool("closed", false, "Also list archived issues")
	cmd.Flags().BoolP("watch", "w", false, "Redraw whenever the board changes (Ctrl+C to stop)")
	return cmd
}

func renderIssueList(ctx context.Context, cmd *cobra.Command, b *board.Board, stages []types.Stage, closed bool) error {
	idx, err := b.List(ctx)
	if err != nil {
		return err
	}
	var archived []*board.Issue
	if closed {
		if archived, err = b.Archived(ctx); err != nil {
			return err
		}
	}

	if jsonOutput {
		views := []*issueView{}
		for _, st := range stages {
			for _, issue := range idx.InStage(st) {
				views = append(views, newIssueView(issue))
			}
		}
		for _, issue := range archived {
			views = append(views, newIssueView(issue))
		}
		return outputJSON(cmd.OutOrStdout(), views)
	}

	w := cmd.OutOrStdout()
	for _, st := range stages {
		issues := idx.InStage(st)
		fmt.Fprintln(w, ui.RenderStage(st, len(issues)))
		printIssueLines(cmd, issues)
	}
	if closed {
		fmt.Fprintln(w, ui.RenderCategory("archive")+" "+ui.RenderMuted(fmt.Sprintf("(%d)", len(archived))))
		printIssueLines(cmd, archived)
	}
	return nil
}

// watchIssueList redraws the listing on every board change until interrupted.
// The watcher and the renderer run separately so a slow redraw never stalls
// event delivery.
func watchIssueList(cmd *cobra.Command, b *board.Board, render func(context.Context) error) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Fprintf(cmd.ErrOrStderr(), "\nWatching for changes... (Press Ctrl+C to exit)\n")

	redraw := make(chan struct{}, 1)
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return b.Watch(ctx, watchDebounce, func() {
			select {
			case redraw <- struct{}{}:
			default:
			}
		})
	})
	g.Go(func() error {
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-redraw:
				fmt.Fprintln(cmd.OutOrStdout(), ui.RenderSeparator())
				if err := render(ctx); err != nil {
					return err
				}
			}
		}
	})
	return g.Wait()
}

func printIssueLines(cmd *cobra.Command, issues []*board.Issue) {
	w := cmd.OutOrStdout()
	for i, issue := range issues {
		branch := ui.TreeChild
		if i == len(issues)-1 {
			branch = ui.TreeLast
		}
		status, err := issue.Status()
		line := ui.TreeIndent + ui.RenderMuted(branch) + issue.Name
		if badge := ui.RenderStatus(status, err); badge != "" {
			line += " " + badge
		}
		fmt.Fprintln(w, line)
	}
}
