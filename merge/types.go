// Package merge reconciles a snippet of source code with an original document.
//
// Each notation has its own strategy. Class-based sources merge structurally:
// units are class members and program-level declarations, and the document is
// reprinted from its unit tables. Function-based and style sources merge
// textually: units are byte spans and the document is rebuilt by splicing.
// Both strategies share the Reconciler and the comment directive grammar of
// package command.
package merge

import (
	"fmt"

	"github.com/hongsw/CodeBridge/parse"
)

// Notation is the closed set of source notations the engine can merge.
type Notation string

const (
	NotationStructuralClass Notation = "structural-class"
	NotationFunctionUnit    Notation = "function-unit"
	NotationStyleRule       Notation = "style-rule"
	NotationMarkup          Notation = "markup-passthrough"
)

// Notations lists every supported notation in a stable order.
func Notations() []Notation {
	return []Notation{NotationStructuralClass, NotationFunctionUnit, NotationStyleRule, NotationMarkup}
}

// ParseNotation resolves a notation tag or one of its short aliases.
func ParseNotation(tag string) (Notation, error) {
	switch tag {
	case string(NotationStructuralClass), "class", "js", "ts", "javascript", "typescript":
		return NotationStructuralClass, nil
	case string(NotationFunctionUnit), "function", "rs", "rust":
		return NotationFunctionUnit, nil
	case string(NotationStyleRule), "style", "css":
		return NotationStyleRule, nil
	case string(NotationMarkup), "markup", "html", "htm":
		return NotationMarkup, nil
	}
	return "", &UnsupportedNotationError{Tag: tag}
}

// UnsupportedNotationError is returned for a notation tag outside the closed set.
type UnsupportedNotationError struct {
	Tag string
}

func (e *UnsupportedNotationError) Error() string {
	return fmt.Sprintf("unsupported notation %q", e.Tag)
}

// ParseError reports a document that failed to parse after normalization.
type ParseError = parse.ParseError

// UnitKind represents the type of merge unit.
type UnitKind string

const (
	UnitFunction UnitKind = "function"
	UnitClass    UnitKind = "class"
	UnitMethod   UnitKind = "method"
	UnitField    UnitKind = "field"
	UnitImpl     UnitKind = "impl"
	UnitType     UnitKind = "type"
	UnitRule     UnitKind = "rule"
	UnitImport   UnitKind = "import"
	UnitOpaque   UnitKind = "opaque" // passthrough text that is never matched
)

// Origin records which document a unit was extracted from.
type Origin int

const (
	OriginOriginal Origin = iota
	OriginSnippet
)

func (o Origin) String() string {
	if o == OriginSnippet {
		return "snippet"
	}
	return "original"
}

// Span is a half-open byte range into the document a unit came from.
type Span struct {
	Start int
	End   int
}

// Unit is one mergeable declaration.
//
// Carried-over units are written back from Text. A unit that was mutated or
// comes from the snippet is printed from its parts by the notation's printer.
type Unit struct {
	Name       string   // table key; carries the private marker when present
	Ident      string   // name token as printed
	Kind       UnitKind
	Visibility string   // accessibility keyword, "export", or Rust visibility
	Decorators []string // decorators or attributes without their sigil
	Modifiers  []string // static, async, unsafe, ...
	Keyword    string   // fn, function, class, ...
	TypeParams string   // text between name and parameters
	Params     []string
	ReturnType string // as written after the parameters, without separator
	Where      string
	Body       string
	Head       string // verbatim text before the name for undecomposed units
	Tail       string // verbatim text after the name for undecomposed units
	Comments   []string
	Leading    string // raw leading comment text, directives included
	Indent     string // indentation of the unit's first line in its source
	BodyHash   []byte

	Origin    Origin
	Anonymous bool
	Span      Span
	Text      string // verbatim source including attached comments
	Lead      string // whitespace between the previous unit and this one

	Members *UnitTable // class members
	Trailer string     // text between the last member and the closing brace

	changed  bool
	replaces *Unit
}

// Changed reports whether the unit must be printed rather than copied.
func (u *Unit) Changed() bool {
	return u.changed || u.Origin == OriginSnippet
}

// Clone returns a deep copy of the unit, including class members.
func (u *Unit) Clone() *Unit {
	c := *u
	c.Decorators = cloneStrings(u.Decorators)
	c.Modifiers = cloneStrings(u.Modifiers)
	c.Params = cloneStrings(u.Params)
	c.Comments = cloneStrings(u.Comments)
	c.BodyHash = append([]byte(nil), u.BodyHash...)
	if u.Members != nil {
		c.Members = u.Members.deepClone()
	}
	return &c
}

func (u *Unit) hasModifier(m string) bool {
	for _, x := range u.Modifiers {
		if x == m {
			return true
		}
	}
	return false
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	return append([]string(nil), s...)
}

// Action classifies what happened to a unit during reconciliation.
type Action string

const (
	ActionAdded     Action = "added"
	ActionModified  Action = "modified"
	ActionRenamed   Action = "renamed"
	ActionDeleted   Action = "deleted"
	ActionUnchanged Action = "unchanged"
	ActionReplaced  Action = "replaced" // whole-document passthrough
)

// Change describes one unit-level outcome of a merge.
type Change struct {
	Container string   `json:"container,omitempty"`
	Name      string   `json:"name"`
	NewName   string   `json:"newName,omitempty"`
	Kind      UnitKind `json:"kind"`
	Action    Action   `json:"action"`
}

// Report summarises a merge.
type Report struct {
	Notation       Notation `json:"notation"`
	Changes        []Change `json:"changes"`
	Warnings       []string `json:"warnings,omitempty"`
	OriginalDigest string   `json:"originalDigest"`
	MergedDigest   string   `json:"mergedDigest"`
}

// Count returns how many changes carry the given action.
func (r *Report) Count(a Action) int {
	n := 0
	for _, c := range r.Changes {
		if c.Action == a {
			n++
		}
	}
	return n
}

// HasChanges reports whether any unit was added, modified, renamed, deleted or replaced.
func (r *Report) HasChanges() bool {
	for _, c := range r.Changes {
		if c.Action != ActionUnchanged {
			return true
		}
	}
	return false
}

func (r *Report) warnf(format string, args ...interface{}) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

func (r *Report) add(c Change) {
	r.Changes = append(r.Changes, c)
}

// Result is the merged document with its report.
type Result struct {
	Text   string
	Report *Report
}
