package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ripi-dev/ripi/internal/board"
	"github.com/ripi-dev/ripi/internal/config"
	"github.com/ripi-dev/ripi/internal/hooks"
	"github.com/ripi-dev/ripi/internal/types"
	"github.com/ripi-dev/ripi/internal/ui"
)

func newIssueCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "issue",
		Aliases: []string{"i"},
		GroupID: "issues",
		Short:   "Create, inspect and move issues",
		Long: `Issues are addressed either by name (the slug, e.g. fix_login_bug) or by a
path to their directory. Relative paths are taken relative to the board root
(e.g. todo/fix_login_bug); a relative path that only exists from the current
directory (e.g. myboard/todo/fix_login_bug with --board myboard) is accepted
too. A path must point at the stage the issue is actually in.`,
	}
	cmd.AddCommand(
		newIssueCreateCmd(),
		newIssueListCmd(),
		newIssueShowCmd(),
		newIssueCloseCmd(),
		newIssueDeleteCmd(),
		newIssueMoveCmd(),
		newIssueStatusCmd(),
		newIssueCommitCmd(),
	)
	return cmd
}

func newIssueCreateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create [title...]",
		Short: "Create a new issue",
		Long: `Create a new issue. The title's slug names the issue directory and must be
unique across every stage.

  ripi issue create Fix login bug
  ripi issue create "Fix login bug" --stage doing --status Doing`,
		RunE: runIssueCreate,
	}
	cmd.Flags().StringP("stage", "s", "", "Stage to create the issue in (default: default-stage from config)")
	cmd.Flags().String("status", "", "Initial status marker ("+strings.Join(types.StatusNames(), ", ")+")")
	cmd.Flags().StringP("description", "d", "", "Text written under the title in description.md")
	cmd.Flags().Bool("form", false, "Fill in the issue with an interactive form")
	return cmd
}

func runIssueCreate(cmd *cobra.Command, args []string) error {
	stageName, _ := cmd.Flags().GetString("stage")
	statusName, _ := cmd.Flags().GetString("status")
	body, _ := cmd.Flags().GetString("description")
	useForm, _ := cmd.Flags().GetBool("form")

	in := createInput{
		Title:  strings.TrimSpace(strings.Join(args, " ")),
		Stage:  stageName,
		Status: statusName,
		Body:   body,
	}
	if in.Stage == "" {
		in.Stage = config.GetString("default-stage")
	}
	if useForm {
		filled, err := runCreateForm(in)
		if errors.Is(err, errFormAborted) {
			printNormal(cmd, "Issue creation canceled.\n")
			return nil
		}
		if err != nil {
			return err
		}
		in = filled
	}
	if in.Title == "" {
		return fmt.Errorf("a title is required (pass it as arguments or use --form)")
	}

	opts, err := in.options()
	if err != nil {
		return err
	}

	b := openBoard()
	res, err := b.Create(cmd.Context(), in.Title, opts)
	if err != nil {
		return err
	}

	if jsonOutput {
		if err := outputJSON(cmd.OutOrStdout(), newIssueView(res.Issue)); err != nil {
			return err
		}
	} else {
		green := color.New(color.FgGreen).SprintFunc()
		printNormal(cmd, "%s Created issue %s in %s\n", green(ui.IconPass), res.Issue.Name, res.Issue.Stage)
		printNormal(cmd, "  %s\n", ui.RenderMuted(res.Issue.Path))
	}
	return finishMutation(cmd, b, hooks.EventCreate, string(res.Issue.Stage), res)
}

// createInput is what create needs, whether it came from flags or the form.
type createInput struct {
	Title  string
	Stage  string
	Status string
	Body   string
}

func (in createInput) options() (board.CreateOptions, error) {
	st, err := types.ParseStage(in.Stage)
	if err != nil {
		return board.CreateOptions{}, &board.InvalidStageError{Path: in.Stage}
	}
	opts := board.CreateOptions{Stage: st, Body: in.Body}
	if in.Status != "" {
		status, err := types.ParseStatus(in.Status)
		if err != nil {
			return board.CreateOptions{}, &board.InvalidStatusError{Dir: "--status", Name: in.Status}
		}
		opts.Status = &status
	}
	return opts, nil
}

func newIssueShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <issue>",
		Short: "Show an issue's location, status and description",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b := openBoard()
			issue, err := b.Resolve(cmd.Context(), issueRef(b, args[0]))
			if err != nil {
				return err
			}
			desc, err := issue.Description()
			if err != nil {
				return err
			}
			view := newIssueView(issue)

			if jsonOutput {
				view.Description = desc
				return outputJSON(cmd.OutOrStdout(), view)
			}

			w := cmd.OutOrStdout()
			fmt.Fprintln(w, ui.RenderAccent(issue.Name))
			fmt.Fprintf(w, "Stage:  %s\n", issue.Stage)
			fmt.Fprintf(w, "Path:   %s\n", ui.RenderMuted(issue.Path))
			switch {
			case view.StatusError != "":
				fmt.Fprintf(w, "Status: %s %s\n", ui.RenderWarnIcon(), ui.RenderWarn(view.StatusError))
			case view.Status != "":
				fmt.Fprintf(w, "Status: %s\n", view.Status)
			}
			fmt.Fprintln(w, ui.RenderSeparator())
			fmt.Fprint(w, ui.RenderMarkdown(desc))
			return nil
		},
	}
}

func newIssueCloseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "close <issue>",
		Short: "Move an issue into the archive",
		Long: `Move an issue into the hidden archive directory (.closed). Archived issues
are no longer indexed, so their name can be reused, but two archived issues
can't share a name.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b := openBoard()
			res, err := b.Close(cmd.Context(), issueRef(b, args[0]))
			if err != nil {
				return err
			}
			if err := reportMutation(cmd, res, "Closed issue %s", res.Issue.Name); err != nil {
				return err
			}
			return finishMutation(cmd, b, hooks.EventClose, "", res)
		},
	}
}

func newIssueDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "delete <issue>",
		Aliases: []string{"rm"},
		Short:   "Delete an issue directory and everything in it",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b := openBoard()
			res, err := b.Delete(cmd.Context(), issueRef(b, args[0]))
			if err != nil {
				return err
			}
			if err := reportMutation(cmd, res, "Deleted issue %s", res.Issue.Name); err != nil {
				return err
			}
			return finishMutation(cmd, b, hooks.EventDelete, "", res)
		},
	}
}

func newIssueMoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "move <issue> <stage>",
		Aliases: []string{"mv"},
		Short:   "Move an issue to another stage",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := types.ParseStage(args[1])
			if err != nil {
				return &board.InvalidStageError{Path: args[1]}
			}
			b := openBoard()
			res, err := b.Move(cmd.Context(), issueRef(b, args[0]), st)
			if err != nil {
				return err
			}
			if len(res.Paths) == 0 {
				return reportMutation(cmd, res, "Issue %s is already in %s", res.Issue.Name, st)
			}
			if err := reportMutation(cmd, res, "Moved issue %s to %s", res.Issue.Name, st); err != nil {
				return err
			}
			return finishMutation(cmd, b, hooks.EventMove, string(st), res)
		},
	}
}

func newIssueStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status <issue> [" + strings.Join(types.StatusNames(), "|") + "]",
		Short: "Show, set or clear an issue's status marker",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			clearStatus, _ := cmd.Flags().GetBool("clear")
			b := openBoard()

			if len(args) == 1 && !clearStatus {
				issue, err := b.Resolve(cmd.Context(), issueRef(b, args[0]))
				if err != nil {
					return err
				}
				status, err := issue.Status()
				if err != nil {
					return err
				}
				if jsonOutput {
					return outputJSON(cmd.OutOrStdout(), newIssueView(issue))
				}
				if status == nil {
					fmt.Fprintf(cmd.OutOrStdout(), "%s has no status\n", issue.Name)
				} else {
					fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", issue.Name, status)
				}
				return nil
			}

			if len(args) == 2 && clearStatus {
				return fmt.Errorf("give a status or --clear, not both")
			}
			var status *types.Status
			if len(args) == 2 {
				s, err := types.ParseStatus(args[1])
				if err != nil {
					return &board.InvalidStatusError{Dir: args[0], Name: args[1]}
				}
				status = &s
			}

			res, err := b.SetStatus(cmd.Context(), issueRef(b, args[0]), status)
			if err != nil {
				return err
			}
			details := "cleared"
			if status != nil {
				details = status.String()
			}
			if err := reportMutation(cmd, res, "Status of %s: %s", res.Issue.Name, details); err != nil {
				return err
			}
			return finishMutation(cmd, b, hooks.EventStatus, details, res)
		},
	}
	cmd.Flags().Bool("clear", false, "Remove the status marker")
	return cmd
}

func newIssueCommitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "commit [issue...]",
		Short: "Commit issues to git, or every pending change when none is named",
		RunE: func(cmd *cobra.Command, args []string) error {
			msg, _ := cmd.Flags().GetString("message")
			b := openBoard()

			var paths []string
			if len(args) > 0 {
				idx, err := b.Rebuild(cmd.Context())
				if err != nil {
					return err
				}
				for _, arg := range args {
					issue, err := idx.Resolve(arg)
					if err != nil {
						return err
					}
					paths = append(paths, issue.Path)
				}
			}
			if msg == "" {
				msg = "ripi: update board"
			}

			c, err := newCommitter(b.Root())
			if err != nil {
				return err
			}
			if len(paths) == 0 {
				changed, err := c.HasChanges(cmd.Context())
				if err != nil {
					return err
				}
				if !changed {
					printNormal(cmd, "Nothing to commit.\n")
					return nil
				}
			}
			if err := c.Commit(cmd.Context(), paths, msg); err != nil {
				return err
			}
			if jsonOutput {
				return outputJSON(cmd.OutOrStdout(), map[string]interface{}{"message": msg, "paths": paths})
			}
			printNormal(cmd, "%s Committed: %s\n", color.New(color.FgGreen).Sprint(ui.IconPass), msg)
			return nil
		},
	}
	cmd.Flags().StringP("message", "m", "", "Commit message")
	return cmd
}

// reportMutation prints the outcome of a mutation: the resulting issue in
// JSON mode, a one-line summary otherwise.
func reportMutation(cmd *cobra.Command, res *board.Result, format string, args ...interface{}) error {
	if jsonOutput {
		return outputJSON(cmd.OutOrStdout(), newIssueView(res.Issue))
	}
	green := color.New(color.FgGreen).SprintFunc()
	printNormal(cmd, "%s %s\n", green(ui.IconPass), fmt.Sprintf(format, args...))
	return nil
}

// issueRef returns arg as the board should resolve it. A relative path that
// names nothing under the board root but exists from the working directory is
// made absolute, so paths copied from a listing of the current directory work
// with --board.
func issueRef(b *board.Board, arg string) string {
	if filepath.IsAbs(arg) || filepath.Base(filepath.Clean(arg)) == filepath.Clean(arg) {
		return arg
	}
	if _, err := os.Lstat(filepath.Join(b.Root(), arg)); err == nil {
		return arg
	}
	abs, err := filepath.Abs(arg)
	if err != nil {
		return arg
	}
	if _, err := os.Lstat(abs); err != nil {
		return arg
	}
	if canonical, err := filepath.EvalSymlinks(abs); err == nil {
		return canonical
	}
	return abs
}
