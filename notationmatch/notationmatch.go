// Package notationmatch resolves the merge notation of a file via path glob rules.
package notationmatch

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"
)

// Rule maps path patterns to a notation and, for class-based sources, a
// grammar. Patterns without a slash match the file's base name.
type Rule struct {
	Notation string   `yaml:"notation"`
	Language string   `yaml:"language,omitempty"`
	Paths    []string `yaml:"paths"`
}

// RulesConfig is the YAML layout of a rules file.
type RulesConfig struct {
	Rules []Rule `yaml:"rules"`
}

// DefaultRules returns the built-in rules.
func DefaultRules() []Rule {
	return []Rule{
		{Notation: "structural-class", Language: "typescript", Paths: []string{"*.ts", "*.tsx", "*.mts"}},
		{Notation: "structural-class", Language: "javascript", Paths: []string{"*.js", "*.jsx", "*.mjs", "*.cjs"}},
		{Notation: "function-unit", Language: "rust", Paths: []string{"*.rs"}},
		{Notation: "style-rule", Language: "css", Paths: []string{"*.css"}},
		{Notation: "markup-passthrough", Paths: []string{"*.html", "*.htm"}},
	}
}

// Matcher matches file paths to rules. Earlier rules win.
type Matcher struct {
	rules []Rule
}

// NewMatcher creates a matcher that tries rules before the built-in defaults.
func NewMatcher(rules []Rule) *Matcher {
	all := make([]Rule, 0, len(rules)+len(DefaultRules()))
	all = append(all, rules...)
	all = append(all, DefaultRules()...)
	return &Matcher{rules: all}
}

// ReadRules reads and validates rules from a YAML file.
func ReadRules(file string) ([]Rule, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("reading rules file: %w", err)
	}

	var config RulesConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("parsing rules file: %w", err)
	}
	if err := Validate(config.Rules); err != nil {
		return nil, fmt.Errorf("rules file %s: %w", file, err)
	}

	return config.Rules, nil
}

// ReadRulesIfExists is ReadRules, except that a missing file yields no rules.
func ReadRulesIfExists(file string) ([]Rule, error) {
	rules, err := ReadRules(file)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	return rules, nil
}

// Validate checks that every rule has a notation and well-formed patterns.
func Validate(rules []Rule) error {
	for i, r := range rules {
		if r.Notation == "" {
			return fmt.Errorf("rule %d: notation is required", i)
		}
		if len(r.Paths) == 0 {
			return fmt.Errorf("rule %d (%s): at least one path pattern is required", i, r.Notation)
		}
		for _, p := range r.Paths {
			if !doublestar.ValidatePattern(p) {
				return fmt.Errorf("rule %d (%s): invalid pattern %q", i, r.Notation, p)
			}
		}
	}
	return nil
}

// Match returns the first rule matching file.
func (m *Matcher) Match(file string) (Rule, bool) {
	p := filepath.ToSlash(file)
	base := path.Base(p)

	for _, r := range m.rules {
		for _, pattern := range r.Paths {
			target := p
			if !strings.Contains(pattern, "/") {
				target = base
			}
			ok, err := doublestar.Match(pattern, target)
			if err != nil {
				continue
			}
			if ok {
				return r, true
			}
		}
	}
	return Rule{}, false
}

// Rules returns all rules in match order.
func (m *Matcher) Rules() []Rule {
	return append([]Rule(nil), m.rules...)
}
