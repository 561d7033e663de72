package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// LocalConfig is the subset of config.yaml read straight from a board's .ripi
// directory, bypassing viper. Commands that are handed a board path other than
// the one viper was initialized for use it.
type LocalConfig struct {
	BoardDir     string `yaml:"board-dir"`
	DefaultStage string `yaml:"default-stage"`
	AutoCommit   bool   `yaml:"auto-commit"`
	Actor        string `yaml:"actor"`
}

// LoadLocalConfig reads <ripiDir>/config.yaml. It returns an empty LocalConfig
// (not nil) if the file doesn't exist or can't be parsed.
func LoadLocalConfig(ripiDir string) *LocalConfig {
	configPath := filepath.Join(ripiDir, FileName)
	data, err := os.ReadFile(configPath) // #nosec G304 - config file path from ripiDir
	if err != nil {
		return &LocalConfig{}
	}

	var cfg LocalConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return &LocalConfig{}
	}
	return &cfg
}

const defaultConfigYAML = `# ripi board configuration

# Directory holding the stage directories, relative to this file's parent.
board-dir: .

# Stage used by "ripi issue create" when --stage is not given.
default-stage: todo

# Commit every mutation to git without needing --commit.
auto-commit: false

# Name recorded in the event log. Defaults to $USER.
# actor: alice

hooks:
  enabled: true
  timeout: 10s

# How long a commit waits for another git process to release the index lock.
git:
  lock-wait: 0s
`

// WriteDefaultConfig creates <ripiDir>/config.yaml with commented defaults.
// An existing file is left alone and reported as not written.
func WriteDefaultConfig(ripiDir string) (bool, error) {
	if err := os.MkdirAll(ripiDir, 0o750); err != nil {
		return false, fmt.Errorf("failed to create %s: %w", ripiDir, err)
	}
	path := filepath.Join(ripiDir, FileName)
	if _, err := os.Stat(path); err == nil {
		return false, nil
	}
	if err := os.WriteFile(path, []byte(defaultConfigYAML), 0o600); err != nil {
		return false, fmt.Errorf("failed to write %s: %w", path, err)
	}
	return true, nil
}

// SetYamlConfig sets key to value in <ripiDir>/config.yaml, creating the file
// if needed. Dotted keys address nested mappings ("hooks.timeout"). Comments
// on untouched keys survive because the document is edited as a node tree.
func SetYamlConfig(ripiDir, key, value string) error {
	path := filepath.Join(ripiDir, FileName)

	var doc yaml.Node
	data, err := os.ReadFile(path) // #nosec G304 - config file path from ripiDir
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return fmt.Errorf("failed to parse %s: %w", path, err)
		}
	case os.IsNotExist(err):
	default:
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	if doc.Kind == 0 {
		doc = yaml.Node{Kind: yaml.DocumentNode, Content: []*yaml.Node{{Kind: yaml.MappingNode}}}
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return fmt.Errorf("%s: top level is not a mapping", path)
	}

	setNode(root, strings.Split(key, "."), value)

	out, err := yaml.Marshal(&doc)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := os.MkdirAll(ripiDir, 0o750); err != nil {
		return fmt.Errorf("failed to create %s: %w", ripiDir, err)
	}
	if err := os.WriteFile(path, out, 0o600); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

func setNode(m *yaml.Node, keys []string, value string) {
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value != keys[0] {
			continue
		}
		child := m.Content[i+1]
		if len(keys) == 1 {
			m.Content[i+1] = &yaml.Node{Kind: yaml.ScalarNode, Value: value, LineComment: child.LineComment}
			return
		}
		if child.Kind != yaml.MappingNode {
			child = &yaml.Node{Kind: yaml.MappingNode}
			m.Content[i+1] = child
		}
		setNode(child, keys[1:], value)
		return
	}

	keyNode := &yaml.Node{Kind: yaml.ScalarNode, Value: keys[0]}
	if len(keys) == 1 {
		m.Content = append(m.Content, keyNode, &yaml.Node{Kind: yaml.ScalarNode, Value: value})
		return
	}
	child := &yaml.Node{Kind: yaml.MappingNode}
	m.Content = append(m.Content, keyNode, child)
	setNode(child, keys[1:], value)
}
