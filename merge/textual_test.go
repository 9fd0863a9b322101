package merge

import (
	"strings"
	"testing"

	"go.uber.org/zap"
)

func TestDeletionSpan(t *testing.T) {
	tests := []struct {
		name string
		src  string
		unit string
		want string
	}{
		{
			name: "following blank line",
			src:  "a\n\nunit\n\nb\n",
			unit: "unit",
			want: "a\n\nb\n",
		},
		{
			name: "preceding blank line at end",
			src:  "a\n\nunit\n",
			unit: "unit",
			want: "a\n",
		},
		{
			name: "no blank lines",
			src:  "a\nunit\nb\n",
			unit: "unit",
			want: "a\nb\n",
		},
		{
			name: "shares a line",
			src:  "a unit b\n",
			unit: "unit",
			want: "a  b\n",
		},
		{
			name: "indented",
			src:  "a\n    unit\nb\n",
			unit: "unit",
			want: "a\nb\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := []byte(tt.src)
			at := strings.Index(tt.src, tt.unit)
			start, end := deletionSpan(src, Span{Start: at, End: at + len(tt.unit)})
			got := tt.src[:start] + tt.src[end:]
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTextualExtract_AttachesCommentsAndAttributes(t *testing.T) {
	src := `use std::fmt;

// Adds numbers.
#[inline]
pub fn add(a: i32, b: i32) -> i32 { a + b } // trailing

// detached

fn main() {}
`
	s := newTextualStrategy(rustGrammar{}, zap.NewNop())
	doc, err := s.extract(src, OriginOriginal)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := len(doc.units); got != 3 {
		t.Fatalf("expected 3 units, got %d", got)
	}

	add, ok := doc.table.Get("add")
	if !ok {
		t.Fatal("add not extracted")
	}
	if add.Visibility != "pub" || add.ReturnType != "i32" {
		t.Errorf("unexpected signature: %+v", add)
	}
	if len(add.Decorators) != 1 || add.Decorators[0] != "inline" {
		t.Errorf("expected inline attribute, got %v", add.Decorators)
	}
	if len(add.Comments) != 1 || add.Comments[0] != "// Adds numbers." {
		t.Errorf("expected leading comment, got %v", add.Comments)
	}
	if !strings.HasPrefix(add.Text, "// Adds numbers.") {
		t.Errorf("span should start at the leading comment: %q", add.Text)
	}

	mainFn, _ := doc.table.Get("main")
	if len(mainFn.Comments) != 0 {
		t.Errorf("detached comment should not attach: %v", mainFn.Comments)
	}

	if _, ok := doc.table.Get("use std::fmt"); !ok {
		t.Error("use declaration not keyed")
	}
}

func TestTextualMerge_SnippetLooseTextWarns(t *testing.T) {
	s := newTextualStrategy(rustGrammar{}, zap.NewNop())
	res, err := s.merge("fn a() {}\n", "let x = 1;\nfn b() {}\n")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Report.Warnings) == 0 {
		t.Error("expected a warning for text outside any unit")
	}
	if res.Text != "fn a() {}\n\nfn b() {}\n" {
		t.Errorf("unexpected output %q", res.Text)
	}
}
