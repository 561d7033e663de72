// Package config loads ripi settings from .ripi/config.yaml, RIPI_* environment
// variables and command-line flags, in increasing order of precedence.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Dir is the per-board directory holding config, hooks and the event log.
const Dir = ".ripi"

// FileName is the config file looked up inside Dir.
const FileName = "config.yaml"

var v *viper.Viper

var envKeyReplacer = strings.NewReplacer("-", "_", ".", "_")

// Initialize sets up the viper singleton. It looks for .ripi/config.yaml
// walking up from the working directory, then in the user config directory
// ($XDG_CONFIG_HOME/ripi/config.yaml). A missing file is not an error.
func Initialize() error {
	v = viper.New()
	v.SetConfigType("yaml")

	if path := findConfigFile(); path != "" {
		v.SetConfigFile(path)
	}

	v.SetEnvPrefix("RIPI")
	v.SetEnvKeyReplacer(envKeyReplacer)
	v.AutomaticEnv()

	setDefaults(v)

	if v.ConfigFileUsed() != "" {
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("board-dir", ".")
	v.SetDefault("default-stage", "todo")
	v.SetDefault("auto-commit", false)
	v.SetDefault("json", false)
	v.SetDefault("actor", "")
	v.SetDefault("hooks.timeout", 10*time.Second)
	v.SetDefault("hooks.enabled", true)
	v.SetDefault("git.lock-wait", time.Duration(0))
}

// findConfigFile returns the first config file found, or "".
func findConfigFile() string {
	if cwd, err := os.Getwd(); err == nil {
		if path := FindProjectConfig(cwd); path != "" {
			return path
		}
	}
	if dir, err := os.UserConfigDir(); err == nil {
		path := filepath.Join(dir, "ripi", FileName)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// FindProjectConfig walks up from start looking for .ripi/config.yaml.
func FindProjectConfig(start string) string {
	dir := start
	for {
		path := filepath.Join(dir, Dir, FileName)
		if _, err := os.Stat(path); err == nil {
			return path
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// EnvName returns the environment variable that overrides key.
func EnvName(key string) string {
	return "RIPI_" + strings.ToUpper(envKeyReplacer.Replace(key))
}

// FromEnv reports whether key is overridden by its environment variable.
func FromEnv(key string) bool {
	_, ok := os.LookupEnv(EnvName(key))
	return ok
}

// ConfigFileUsed returns the path of the loaded config file, or "".
func ConfigFileUsed() string {
	if v == nil {
		return ""
	}
	return v.ConfigFileUsed()
}

// GetString retrieves a string configuration value
func GetString(key string) string {
	if v == nil {
		return ""
	}
	return v.GetString(key)
}

// GetBool retrieves a boolean configuration value
func GetBool(key string) bool {
	if v == nil {
		return false
	}
	return v.GetBool(key)
}

// GetDuration retrieves a duration configuration value
func GetDuration(key string) time.Duration {
	if v == nil {
		return 0
	}
	return v.GetDuration(key)
}

// IsSet reports whether key has a value from any source other than defaults.
func IsSet(key string) bool {
	if v == nil {
		return false
	}
	return v.IsSet(key)
}

// Set overrides a value for the rest of the process. Flags use it.
func Set(key string, value interface{}) {
	if v != nil {
		v.Set(key, value)
	}
}

// AllSettings returns every resolved setting.
func AllSettings() map[string]interface{} {
	if v == nil {
		return map[string]interface{}{}
	}
	return v.AllSettings()
}

// ResetForTesting drops the singleton so the next Initialize starts clean.
func ResetForTesting() {
	v = nil
}
