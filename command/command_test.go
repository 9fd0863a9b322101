package command

import (
	"reflect"
	"strings"
	"testing"
)

func TestParse_Basic(t *testing.T) {
	s := Parse("// @rename calculatedValue\n// @access private")

	if s.Rename != "calculatedValue" {
		t.Errorf("expected rename calculatedValue, got %q", s.Rename)
	}
	if s.Access != "private" {
		t.Errorf("expected access private, got %q", s.Access)
	}
	if s.Delete {
		t.Error("delete should default to false")
	}
}

func TestParse_CaseInsensitiveAndAliases(t *testing.T) {
	s := Parse("// @VISIBILITY pub(crate)\n// @Attributes #[inline]\n// @Returns i32")

	if s.Access != "pub(crate)" {
		t.Errorf("expected access pub(crate), got %q", s.Access)
	}
	if !reflect.DeepEqual(s.Decorators, []string{"inline"}) {
		t.Errorf("expected [inline], got %v", s.Decorators)
	}
	if s.ReturnType != "i32" {
		t.Errorf("expected return type i32, got %q", s.ReturnType)
	}
}

func TestParse_DecoratorsAccumulate(t *testing.T) {
	s := Parse("// @decorator log\n// @decorator @memoize()\n")

	want := []string{"log", "memoize()"}
	if !reflect.DeepEqual(s.Decorators, want) {
		t.Errorf("expected %v, got %v", want, s.Decorators)
	}
}

func TestParse_LastScalarWins(t *testing.T) {
	s := Parse("// @rename first\n// @rename second")
	if s.Rename != "second" {
		t.Errorf("expected last rename to win, got %q", s.Rename)
	}
}

func TestParse_DeleteIgnoresValue(t *testing.T) {
	s := Parse("// @delete because it is unused")
	if !s.Delete {
		t.Error("expected delete")
	}
}

func TestParse_FlagsAndBlockComments(t *testing.T) {
	s := Parse("/**\n * @async\n * @unsafe\n */")
	if !s.Async || !s.Unsafe {
		t.Errorf("expected async and unsafe, got %+v", s)
	}

	s = Parse("/* @delete */")
	if !s.Delete {
		t.Error("expected delete from single-line block comment")
	}
}

func TestParse_UnknownIgnored(t *testing.T) {
	s := Parse("// @param x the value\n// @deprecated\n// plain text")
	if !s.IsEmpty() {
		t.Errorf("expected empty set, got %+v", s)
	}
	if len(s.Ignored) != 0 {
		t.Errorf("unknown directives should not be reported, got %v", s.Ignored)
	}
}

func TestParse_EmptyValueIsNoop(t *testing.T) {
	s := Parse("// @rename\n// @access\n// @params ,  ,")
	if s.Rename != "" || s.Access != "" || s.Params != "" {
		t.Errorf("expected no-op fields, got %+v", s)
	}
	if len(s.Ignored) != 3 {
		t.Errorf("expected 3 ignored directives, got %v", s.Ignored)
	}
}

func TestParse_DirectiveMustStartComment(t *testing.T) {
	s := Parse("// contact @rename someone")
	if s.Rename != "" {
		t.Errorf("mid-line directive should not match, got %q", s.Rename)
	}
}

func TestParse_DocumentationBlockIsNotDirectives(t *testing.T) {
	s := Parse("/**\n * Adds two numbers.\n * @param a first\n * @returns {number} the sum\n */")
	if !s.IsEmpty() {
		t.Errorf("expected empty set for JSDoc block, got %+v", s)
	}
	if s.ReturnType != "" {
		t.Errorf("ReturnType = %q, want empty", s.ReturnType)
	}

	// A directive line comment after a documentation block still counts.
	s = Parse("/**\n * Adds two numbers.\n * @returns the sum\n */\n// @async")
	if !s.Async || s.ReturnType != "" {
		t.Errorf("expected only async, got %+v", s)
	}
}

func TestParse_ReturnsRejectsBracedType(t *testing.T) {
	s := Parse("// @returns {number} the sum")
	if s.ReturnType != "" {
		t.Errorf("ReturnType = %q, want empty", s.ReturnType)
	}
	if len(s.Ignored) != 1 || !strings.Contains(s.Ignored[0], "type in braces") {
		t.Errorf("expected one ignored directive, got %v", s.Ignored)
	}

	s = Parse("/** @returns Promise<number> */")
	if s.ReturnType != "Promise<number>" {
		t.Errorf("ReturnType = %q", s.ReturnType)
	}
}

func TestSplitParams(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"a, b ,  c", []string{"a", "b", "c"}},
		{"a,b,", []string{"a", "b"}},
		{" x: number , y: string ", []string{"x: number", "y: string"}},
		{",,", nil},
	}

	for _, tt := range tests {
		got := SplitParams(tt.in)
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("SplitParams(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestSet_ParamList(t *testing.T) {
	s := Parse("// @params a, b ,  c")
	params, ok := s.ParamList()
	if !ok {
		t.Fatal("expected params")
	}
	if !reflect.DeepEqual(params, []string{"a", "b", "c"}) {
		t.Errorf("unexpected params %v", params)
	}

	if _, ok := (Set{}).ParamList(); ok {
		t.Error("empty set should have no params")
	}
}

func TestIsDirectiveComment(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"// @delete", true},
		{"/* @rename foo */", true},
		{"/**\n * @access private\n */", true},
		{"// helper for parsing", false},
		{"/**\n * Adds numbers.\n * @access public\n */", false},
		{"// @param x", false},
	}

	for _, tt := range tests {
		if got := IsDirectiveComment(tt.in); got != tt.want {
			t.Errorf("IsDirectiveComment(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
