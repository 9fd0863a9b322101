package parse

import (
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// ParseError reports the first syntax error found in a document.
// Line and Column are 1-based.
type ParseError struct {
	Document  string // "original" or "snippet" once the merge engine has seen it
	Line      int
	Column    int
	Offending string
}

func (e *ParseError) Error() string {
	where := "document"
	if e.Document != "" {
		where = e.Document
	}
	if e.Offending == "" {
		return fmt.Sprintf("parse error in %s at line %d, column %d", where, e.Line, e.Column)
	}
	return fmt.Sprintf("parse error in %s at line %d, column %d near %q", where, e.Line, e.Column, e.Offending)
}

// Shift moves the reported line by delta lines, never below line 1.
func (e *ParseError) Shift(delta int) {
	e.Line += delta
	if e.Line < 1 {
		e.Line = 1
	}
}

const maxOffending = 40

// locateError walks the tree in document order and returns the first ERROR
// or MISSING node as a ParseError, or nil for a clean tree.
func locateError(root *sitter.Node, content []byte) *ParseError {
	if root == nil || !root.HasError() {
		return nil
	}

	iter := sitter.NewIterator(root, sitter.DFSMode)
	for {
		n, err := iter.Next()
		if err != nil || n == nil {
			break
		}

		switch {
		case n.IsMissing():
			pt := n.StartPoint()
			return &ParseError{
				Line:      int(pt.Row) + 1,
				Column:    int(pt.Column) + 1,
				Offending: "missing " + n.Type(),
			}
		case n.Type() == "ERROR":
			pt := n.StartPoint()
			return &ParseError{
				Line:      int(pt.Row) + 1,
				Column:    int(pt.Column) + 1,
				Offending: offendingText(n.Content(content)),
			}
		}
	}

	// HasError was set but no node was found; report the root.
	return &ParseError{Line: 1, Column: 1}
}

func offendingText(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	s = strings.TrimSpace(s)
	if len(s) > maxOffending {
		s = s[:maxOffending-3] + "..."
	}
	return s
}
