package main

import (
	"fmt"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/ripi-dev/ripi/internal/config"
	"github.com/ripi-dev/ripi/internal/types"
	"github.com/ripi-dev/ripi/internal/ui"
)

// configKeys lists every key config get/set/list understands, with a check
// for values written through config set.
var configKeys = map[string]func(string) error{
	"board-dir": nil,
	"default-stage": func(s string) error {
		_, err := types.ParseStage(s)
		return err
	},
	"auto-commit":   validateBool,
	"json":          validateBool,
	"actor":         nil,
	"hooks.enabled": validateBool,
	"hooks.timeout": validateDuration,
	"git.lock-wait": validateDuration,
}

func validateDuration(s string) error {
	_, err := time.ParseDuration(s)
	return err
}

func validateBool(s string) error {
	_, err := strconv.ParseBool(s)
	return err
}

func sortedConfigKeys() []string {
	keys := make([]string, 0, len(configKeys))
	for k := range configKeys {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "config",
		GroupID: "setup",
		Short:   "Manage configuration settings",
		Long: `Manage settings in .ripi/config.yaml.

Values are resolved from, in increasing order of precedence: built-in
defaults, the config file, RIPI_* environment variables (RIPI_AUTO_COMMIT,
RIPI_HOOKS_TIMEOUT, ...) and command-line flags.

Examples:
  ripi config set auto-commit true
  ripi config set hooks.timeout 30s
  ripi config get default-stage
  ripi config list`,
	}
	cmd.AddCommand(newConfigGetCmd(), newConfigSetCmd(), newConfigListCmd())
	return cmd
}

func newConfigGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Print a resolved configuration value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]
			if _, ok := configKeys[key]; !ok {
				return fmt.Errorf("unknown config key %q", key)
			}
			value := config.GetString(key)
			if jsonOutput {
				return outputJSON(cmd.OutOrStdout(), map[string]string{"key": key, "value": value})
			}
			fmt.Fprintln(cmd.OutOrStdout(), value)
			return nil
		},
	}
}

func newConfigSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Write a value to .ripi/config.yaml",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, value := args[0], args[1]
			validate, ok := configKeys[key]
			if !ok {
				return fmt.Errorf("unknown config key %q", key)
			}
			if validate != nil {
				if err := validate(value); err != nil {
					return fmt.Errorf("invalid value for %s: %q", key, value)
				}
			}

			ripiDir := configDir()
			if err := config.SetYamlConfig(ripiDir, key, value); err != nil {
				return err
			}
			if jsonOutput {
				return outputJSON(cmd.OutOrStdout(), map[string]string{
					"key":   key,
					"value": value,
					"file":  filepath.Join(ripiDir, config.FileName),
				})
			}
			printNormal(cmd, "Set %s = %s\n", key, value)
			return nil
		},
	}
}

func newConfigListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every resolved configuration value",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			keys := sortedConfigKeys()
			if jsonOutput {
				values := make(map[string]string, len(keys))
				for _, k := range keys {
					values[k] = config.GetString(k)
				}
				return outputJSON(cmd.OutOrStdout(), values)
			}

			w := cmd.OutOrStdout()
			if used := config.ConfigFileUsed(); used != "" {
				fmt.Fprintln(w, ui.RenderMuted("# "+used))
			}
			for _, k := range keys {
				fmt.Fprintf(w, "%s = %s\n", k, config.GetString(k))
			}
			return nil
		},
	}
}

// configDir is the .ripi directory config set writes to: the one holding the
// loaded config file, else one at the board root.
func configDir() string {
	if used := config.ConfigFileUsed(); used != "" && filepath.Base(filepath.Dir(used)) == config.Dir {
		return filepath.Dir(used)
	}
	return filepath.Join(openBoard().Root(), config.Dir)
}
