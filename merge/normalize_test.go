package merge

import (
	"strings"
	"testing"

	"github.com/hongsw/CodeBridge/parse"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		notation Notation
		wrapped  bool
	}{
		{"bare method", "method1() {\n  return 1;\n}", NotationStructuralClass, true},
		{"async method", "async load() {}", NotationStructuralClass, true},
		{"directive then method", "// @rename other\nrun() {}", NotationStructuralClass, true},
		{"decorated method", "@Input()\nrun() {}", NotationStructuralClass, true},
		{"private method", "#secret() {}", NotationStructuralClass, true},
		{"class declaration", "class A {\n  a() {}\n}", NotationStructuralClass, false},
		{"exported class", "export default class A {}", NotationStructuralClass, false},
		{"function declaration", "function f() {}", NotationStructuralClass, false},
		{"statement", "if (x) {\n  y();\n}", NotationStructuralClass, false},
		{"call without body", "run();", NotationStructuralClass, false},
		{"empty", "   \n", NotationStructuralClass, false},
		{"rust passthrough", "fn run() {}", NotationFunctionUnit, false},
		{"css passthrough", ".a {}", NotationStyleRule, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(tt.text, tt.notation, parse.LangTypeScript)
			if got.Wrapped != tt.wrapped {
				t.Fatalf("Wrapped = %v, want %v (text %q)", got.Wrapped, tt.wrapped, got.Text)
			}
			if tt.wrapped {
				if !strings.HasPrefix(got.Text, "class "+SentinelContainer+" {\n") {
					t.Errorf("unexpected wrapper: %q", got.Text)
				}
				if got.LineShift != 1 {
					t.Errorf("LineShift = %d, want 1", got.LineShift)
				}
			} else if got.Text != tt.text {
				t.Errorf("text changed: %q", got.Text)
			}
		})
	}
}

func TestNormalize_StripsByteOrderMark(t *testing.T) {
	got := Normalize("\ufefffn a() {}", NotationFunctionUnit, parse.LangRust)
	if got.Text != "fn a() {}" {
		t.Errorf("unexpected text %q", got.Text)
	}
}

func TestNormalize_PrependsAccessKeyword(t *testing.T) {
	got := Normalize("// @access protected\nload() {}", NotationStructuralClass, parse.LangTypeScript)
	if !strings.Contains(got.Text, "\nprotected load() {}") {
		t.Errorf("expected protected to be prepended, got %q", got.Text)
	}

	js := Normalize("// @access protected\nload() {}", NotationStructuralClass, parse.LangJavaScript)
	if strings.Contains(js.Text, "protected load") {
		t.Errorf("javascript snippets keep their text, got %q", js.Text)
	}

	already := Normalize("// @access public\npublic load() {}", NotationStructuralClass, parse.LangTypeScript)
	if strings.Contains(already.Text, "public public") {
		t.Errorf("keyword duplicated: %q", already.Text)
	}
}
