package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ripi-dev/ripi/internal/config"
	"github.com/ripi-dev/ripi/internal/debug"
	"github.com/ripi-dev/ripi/internal/sprint"
	"github.com/ripi-dev/ripi/internal/timeparsing"
	"github.com/ripi-dev/ripi/internal/ui"
)

func newSprintCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "sprint",
		GroupID: "issues",
		Short:   "Manage sprints (named date ranges stored in .sprints/)",
	}
	cmd.AddCommand(newSprintCreateCmd(), newSprintListCmd())
	return cmd
}

func newSprintCreateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create <name...>",
		Short: "Create a sprint",
		Long: `Create a sprint. Dates are stored as YYYY-MM-DD and the end may not precede
the start. Both flags also take a phrase ("today", "next monday") or an
offset; an offset in --end counts from the start date.

  ripi sprint create Sprint 1 --start 2024-01-01 --end 2024-01-14
  ripi sprint create Sprint 2 --start "next monday" --end +13d`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			start, _ := cmd.Flags().GetString("start")
			end, _ := cmd.Flags().GetString("end")

			start, end, err := resolveSprintDates(start, end, time.Now())
			if err != nil {
				return err
			}
			s, err := sprint.New(strings.Join(args, " "), start, end)
			if err != nil {
				return err
			}
			b := openBoard()
			path, err := sprint.NewStore(b.Root()).Create(s)
			if err != nil {
				return err
			}
			debug.LogEvent(b.Root(), "sprint", s.Slug, config.GetString("actor"), s.Start+".."+s.End)

			if jsonOutput {
				if err := outputJSON(cmd.OutOrStdout(), s); err != nil {
					return err
				}
			} else {
				green := color.New(color.FgGreen).SprintFunc()
				printNormal(cmd, "%s Created sprint %s (%s to %s, %d days)\n", green(ui.IconPass), s.Name, s.Start, s.End, s.Days())
			}
			if !config.GetBool("auto-commit") {
				return nil
			}
			return commitPaths(cmd.Context(), b.Root(), []string{path}, "ripi: sprint "+s.Slug)
		},
	}
	cmd.Flags().String("start", "", "First day: YYYY-MM-DD, +offset or phrase (required)")
	cmd.Flags().String("end", "", "Last day: YYYY-MM-DD, +offset from start or phrase (required)")
	_ = cmd.MarkFlagRequired("start")
	_ = cmd.MarkFlagRequired("end")
	return cmd
}

// resolveSprintDates reduces both flags to YYYY-MM-DD. start is relative to
// now; an offset in end is relative to start.
func resolveSprintDates(start, end string, now time.Time) (string, string, error) {
	s, err := timeparsing.ResolveDate(start, now)
	if err != nil {
		return "", "", fmt.Errorf("start: %w", err)
	}
	base := now
	if timeparsing.IsOffset(strings.TrimSpace(end)) {
		base, _ = timeparsing.ParseDate(s)
	}
	e, err := timeparsing.ResolveDate(end, base)
	if err != nil {
		return "", "", fmt.Errorf("end: %w", err)
	}
	return s, e, nil
}

func newSprintListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List sprints by start date",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			current, _ := cmd.Flags().GetBool("current")
			store := sprint.NewStore(openBoard().Root())

			var (
				sprints []*sprint.Sprint
				err     error
			)
			if current {
				sprints, err = store.Current(time.Now())
			} else {
				sprints, err = store.List()
			}
			if err != nil {
				return err
			}

			if jsonOutput {
				if sprints == nil {
					sprints = []*sprint.Sprint{}
				}
				return outputJSON(cmd.OutOrStdout(), sprints)
			}
			if len(sprints) == 0 {
				printNormal(cmd, "No sprints.\n")
				return nil
			}
			today := time.Now()
			for _, s := range sprints {
				line := fmt.Sprintf("%s  %s .. %s", s.Name, s.Start, s.End)
				if s.Contains(today) {
					line = ui.RenderAccent(line) + " " + ui.RenderMuted("(current)")
				}
				fmt.Fprintln(cmd.OutOrStdout(), line)
			}
			return nil
		},
	}
	cmd.Flags().Bool("current", false, "Only sprints that include today")
	return cmd
}
