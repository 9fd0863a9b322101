// Package config loads codebridge settings from YAML.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/hongsw/CodeBridge/merge"
	"github.com/hongsw/CodeBridge/notationmatch"
	"github.com/hongsw/CodeBridge/parse"
)

// Config holds all configuration for codebridge.
type Config struct {
	Notation string               `yaml:"notation"` // forced notation; empty resolves from the path
	Language string               `yaml:"language"` // class grammar: typescript or javascript
	Rules    []notationmatch.Rule `yaml:"rules"`
	Logging  LoggingConfig        `yaml:"logging"`
	Journal  JournalConfig        `yaml:"journal"`
	Diff     DiffConfig           `yaml:"diff"`
	Response ResponseConfig       `yaml:"response"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

// JournalConfig holds merge journal configuration.
type JournalConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// DiffConfig holds diff rendering configuration.
type DiffConfig struct {
	Context int `yaml:"context"`
}

// ResponseConfig controls how model responses are cleaned before merging.
type ResponseConfig struct {
	Strip bool `yaml:"strip"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Language: string(parse.LangTypeScript),
		Logging: LoggingConfig{
			Level: "info",
		},
		Journal: JournalConfig{
			Enabled: true,
			Path:    JournalPath("."),
		},
		Diff: DiffConfig{
			Context: 3,
		},
		Response: ResponseConfig{
			Strip: true,
		},
	}
}

// Load loads configuration from a YAML file. A missing file yields defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return cfg, nil
}

// LoadFromDir loads configuration from a directory (looks for codebridge.yaml).
func LoadFromDir(dir string) (*Config, error) {
	path := filepath.Join(dir, "codebridge.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	path = filepath.Join(dir, ".codebridge", "config.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	cfg := DefaultConfig()
	cfg.Journal.Path = JournalPath(dir)
	return cfg, nil
}

// Validate checks the values that cannot be corrected later.
func (c *Config) Validate() error {
	if c.Notation != "" {
		if _, err := merge.ParseNotation(c.Notation); err != nil {
			return err
		}
	}
	if c.Language != "" {
		lang, ok := parse.ResolveLanguage(c.Language)
		if !ok || (lang != parse.LangTypeScript && lang != parse.LangJavaScript) {
			return fmt.Errorf("language %q is not a class grammar", c.Language)
		}
	}
	if c.Diff.Context < 0 {
		return fmt.Errorf("diff.context must not be negative")
	}
	return notationmatch.Validate(c.Rules)
}

// Matcher returns a notation matcher trying extra, then the configured
// rules, then the built-in defaults.
func (c *Config) Matcher(extra ...notationmatch.Rule) *notationmatch.Matcher {
	rules := make([]notationmatch.Rule, 0, len(extra)+len(c.Rules))
	rules = append(rules, extra...)
	rules = append(rules, c.Rules...)
	return notationmatch.NewMatcher(rules)
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// JournalPath returns the default journal database path under dir.
func JournalPath(dir string) string {
	return filepath.Join(dir, ".codebridge", "journal.db")
}

// EnsureDir ensures the directory of path exists.
func EnsureDir(path string) error {
	return os.MkdirAll(filepath.Dir(path), 0755)
}
