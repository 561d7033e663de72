package main

import (
	"context"
	"errors"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ripi-dev/ripi/internal/board"
	"github.com/ripi-dev/ripi/internal/config"
	"github.com/ripi-dev/ripi/internal/debug"
	"github.com/ripi-dev/ripi/internal/git"
	"github.com/ripi-dev/ripi/internal/telemetry"
)

var (
	jsonOutput  bool
	verboseFlag bool
	quietFlag   bool
	boardFlag   string
	commitFlag  bool
)

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "ripi",
		Short: "ripi - kanban issues as directories",
		Long: `A kanban board kept on the filesystem. Every issue is a directory inside one
stage directory (backlog, todo, doing, staging, closed) and git records
every change.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := config.Initialize(); err != nil {
				return err
			}
			applyBoardConfig(cmd)
			applyFlagOverrides(cmd)
			debug.SetVerbose(verboseFlag)
			debug.SetQuiet(quietFlag)
			return telemetry.Init(cmd.Context(), "ripi", Version)
		},
	}

	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "Enable verbose/debug output")
	rootCmd.PersistentFlags().BoolVarP(&quietFlag, "quiet", "q", false, "Suppress non-essential output (errors only)")
	rootCmd.PersistentFlags().StringVar(&boardFlag, "board", "", "Board root (default: board-dir from .ripi/config.yaml, else the current directory)")
	rootCmd.PersistentFlags().BoolVar(&commitFlag, "commit", false, "Commit the change to git after a successful mutation")

	rootCmd.AddGroup(&cobra.Group{ID: "issues", Title: "Working With Issues:"})
	rootCmd.AddGroup(&cobra.Group{ID: "setup", Title: "Setup & Configuration:"})

	rootCmd.AddCommand(
		newInitCmd(),
		newIssueCmd(),
		newSprintCmd(),
		newConfigCmd(),
		newVersionCmd(),
	)
	return rootCmd
}

// applyFlagOverrides lets explicitly passed flags win over config and env.
func applyFlagOverrides(cmd *cobra.Command) {
	flags := cmd.Flags()
	if flags.Changed("json") {
		config.Set("json", jsonOutput)
	} else {
		jsonOutput = config.GetBool("json")
	}
	if flags.Changed("board") {
		config.Set("board-dir", boardFlag)
	}
	if flags.Changed("commit") {
		config.Set("auto-commit", commitFlag)
	}
}

// applyBoardConfig reads the config of a board named with --board when none
// was found from the working directory. Environment variables and flags still
// take precedence.
func applyBoardConfig(cmd *cobra.Command) {
	if !cmd.Flags().Changed("board") || config.ConfigFileUsed() != "" {
		return
	}
	local := config.LoadLocalConfig(filepath.Join(boardFlag, config.Dir))
	if local.DefaultStage != "" && !config.FromEnv("default-stage") {
		config.Set("default-stage", local.DefaultStage)
	}
	if local.AutoCommit && !config.FromEnv("auto-commit") {
		config.Set("auto-commit", true)
	}
	if local.Actor != "" && !config.FromEnv("actor") {
		config.Set("actor", local.Actor)
	}
}

// boardRoot resolves the board directory. A relative board-dir from a config
// file is taken relative to the directory holding .ripi/; otherwise relative
// to the working directory.
func boardRoot() string {
	dir := config.GetString("board-dir")
	if dir == "" {
		dir = "."
	}
	if filepath.IsAbs(dir) || boardFlag != "" {
		return dir
	}
	if used := config.ConfigFileUsed(); used != "" && filepath.Base(filepath.Dir(used)) == config.Dir {
		return filepath.Join(filepath.Dir(filepath.Dir(used)), dir)
	}
	return dir
}

func openBoard() *board.Board {
	return board.New(boardRoot())
}

// execute runs rootCmd and flushes telemetry afterwards. Cobra skips
// post-run hooks when a command fails, so the flush lives here.
func execute(ctx context.Context, rootCmd *cobra.Command) error {
	err := rootCmd.ExecuteContext(ctx)
	telemetry.Shutdown(ctx)
	return err
}

func main() {
	if err := execute(context.Background(), newRootCmd()); err != nil {
		if jsonOutput {
			outputJSONError(err, errorCode(err))
		}
		FatalError("%v", err)
	}
}

// errorCode maps an error to a stable code for JSON consumers.
func errorCode(err error) string {
	switch {
	case errors.Is(err, board.ErrAlreadyExists):
		return "already_exists"
	case errors.Is(err, board.ErrNoMatch):
		return "no_match"
	case errors.Is(err, board.ErrInvalidStage):
		return "invalid_stage"
	case errors.Is(err, board.ErrInvalidStatus):
		return "invalid_status"
	case errors.Is(err, board.ErrMultipleStatusMarkers):
		return "multiple_status_markers"
	case errors.Is(err, git.ErrNotARepository):
		return "not_a_repository"
	case errors.Is(err, board.ErrIO):
		return "io"
	default:
		return ""
	}
}
