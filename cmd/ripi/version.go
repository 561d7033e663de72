package main

import (
	"fmt"
	"runtime/debug"

	"github.com/spf13/cobra"
)

var (
	// Version is the current version of ripi (overridden by ldflags at build time)
	Version = "0.3.0"
	// Build can be set via ldflags at compile time
	Build = "dev"
	// Commit is the git revision the binary was built from (optional ldflag)
	Commit = ""
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "version",
		GroupID: "setup",
		Short:   "Print version information",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			commit := resolveCommitHash()
			if jsonOutput {
				result := map[string]string{
					"version": Version,
					"build":   Build,
				}
				if commit != "" {
					result["commit"] = commit
				}
				return outputJSON(cmd.OutOrStdout(), result)
			}
			if commit != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "ripi version %s (%s: %s)\n", Version, Build, shortCommit(commit))
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "ripi version %s (%s)\n", Version, Build)
			}
			return nil
		},
	}
}

func resolveCommitHash() string {
	if Commit != "" {
		return Commit
	}
	if info, ok := debug.ReadBuildInfo(); ok {
		for _, setting := range info.Settings {
			if setting.Key == "vcs.revision" && setting.Value != "" {
				return setting.Value
			}
		}
	}
	return ""
}

func shortCommit(hash string) string {
	if len(hash) > 12 {
		return hash[:12]
	}
	return hash
}
