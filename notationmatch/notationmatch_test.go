package notationmatch

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestMatch_Defaults(t *testing.T) {
	m := NewMatcher(nil)

	tests := []struct {
		path     string
		notation string
		language string
		ok       bool
	}{
		{"src/app.ts", "structural-class", "typescript", true},
		{"src/view.tsx", "structural-class", "typescript", true},
		{"lib/util.mjs", "structural-class", "javascript", true},
		{"index.js", "structural-class", "javascript", true},
		{"crates/core/src/lib.rs", "function-unit", "rust", true},
		{"styles/site.css", "style-rule", "css", true},
		{"public/index.html", "markup-passthrough", "", true},
		{"README.md", "", "", false},
	}

	for _, tc := range tests {
		t.Run(tc.path, func(t *testing.T) {
			r, ok := m.Match(tc.path)
			if ok != tc.ok {
				t.Fatalf("Match(%q) ok = %v, want %v", tc.path, ok, tc.ok)
			}
			if !ok {
				return
			}
			if r.Notation != tc.notation || r.Language != tc.language {
				t.Errorf("Match(%q) = %+v, want %s/%s", tc.path, r, tc.notation, tc.language)
			}
		})
	}
}

func TestMatch_CustomRulesWin(t *testing.T) {
	m := NewMatcher([]Rule{
		{Notation: "structural-class", Language: "javascript", Paths: []string{"legacy/**/*.ts"}},
		{Notation: "markup-passthrough", Paths: []string{"*.vue"}},
	})

	r, ok := m.Match("legacy/old/app.ts")
	if !ok || r.Language != "javascript" {
		t.Errorf("expected custom rule, got %+v", r)
	}

	r, ok = m.Match("src/app.ts")
	if !ok || r.Language != "typescript" {
		t.Errorf("expected default rule, got %+v", r)
	}

	r, ok = m.Match("components/Button.vue")
	if !ok || r.Notation != "markup-passthrough" {
		t.Errorf("expected base-name rule, got %+v", r)
	}
}

func TestReadRules(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "rules.yaml")
	content := `rules:
  - notation: function-unit
    language: rust
    paths:
      - "*.rs.in"
`
	if err := os.WriteFile(file, []byte(content), 0644); err != nil {
		t.Fatalf("writing rules: %v", err)
	}

	rules, err := ReadRules(file)
	if err != nil {
		t.Fatalf("ReadRules failed: %v", err)
	}
	m := NewMatcher(rules)
	if r, ok := m.Match("gen/build.rs.in"); !ok || r.Notation != "function-unit" {
		t.Errorf("expected loaded rule to match, got %+v", r)
	}
	if got := len(m.Rules()); got != 1+len(DefaultRules()) {
		t.Errorf("expected loaded rules plus defaults, got %d", got)
	}
}

func TestReadRules_Invalid(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		content string
		errPart string
	}{
		{"bad yaml", "rules: [", "parsing rules file"},
		{"missing notation", "rules:\n  - paths: ['*.x']\n", "notation is required"},
		{"missing paths", "rules:\n  - notation: style-rule\n", "path pattern is required"},
		{"bad pattern", "rules:\n  - notation: style-rule\n    paths: ['[']\n", "invalid pattern"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			file := filepath.Join(dir, strings.ReplaceAll(tc.name, " ", "_")+".yaml")
			if err := os.WriteFile(file, []byte(tc.content), 0644); err != nil {
				t.Fatalf("writing rules: %v", err)
			}
			_, err := ReadRules(file)
			if err == nil || !strings.Contains(err.Error(), tc.errPart) {
				t.Errorf("expected error containing %q, got %v", tc.errPart, err)
			}
		})
	}
}

func TestReadRulesIfExists(t *testing.T) {
	rules, err := ReadRulesIfExists(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rules != nil {
		t.Errorf("expected no rules, got %+v", rules)
	}
}
