package main

import (
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ripi-dev/ripi/internal/board"
	"github.com/ripi-dev/ripi/internal/config"
	"github.com/ripi-dev/ripi/internal/ui"
)

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "init",
		GroupID: "setup",
		Short:   "Create the stage directories and a default .ripi/config.yaml",
		Long: `Create every missing stage directory (with a .kanban marker), the .closed
archive and .ripi/config.yaml. Existing directories and config are left
untouched, so running init twice is safe.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			b := openBoard()
			res, err := b.Init(cmd.Context())
			if err != nil {
				return err
			}

			ripiDir := filepath.Join(b.Root(), config.Dir)
			written, err := config.WriteDefaultConfig(ripiDir)
			if err != nil {
				return err
			}
			if written {
				res.Paths = append(res.Paths, filepath.Join(ripiDir, config.FileName))
			}

			if jsonOutput {
				if err := outputJSON(cmd.OutOrStdout(), map[string]interface{}{
					"root":    b.Root(),
					"created": nonNil(res.Paths),
				}); err != nil {
					return err
				}
			} else {
				green := color.New(color.FgGreen).SprintFunc()
				if len(res.Paths) == 0 {
					printNormal(cmd, "%s Board at %s is already initialized\n", green(ui.IconPass), b.Root())
				} else {
					printNormal(cmd, "%s Initialized board at %s\n", green(ui.IconPass), b.Root())
					for _, p := range res.Paths {
						printNormal(cmd, "  %s\n", ui.RenderMuted(relTo(b.Root(), p)))
					}
				}
			}
			return finishMutation(cmd, b, "init", "", &board.Result{Paths: res.Paths})
		},
	}
}

func relTo(root, p string) string {
	if rel, err := filepath.Rel(root, p); err == nil {
		return rel
	}
	return p
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
