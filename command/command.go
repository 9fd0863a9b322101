// Package command parses the comment directives that steer how a snippet
// unit is merged into an original document.
//
// A directive is a comment line of the form
//
//	// @rename calculatedValue
//	/* @delete */
//
// Directive names are case-insensitive. Unknown names are ignored.
package command

import (
	"fmt"
	"regexp"
	"strings"
)

// Directive names as written in comments.
const (
	DirAccess     = "access"
	DirVisibility = "visibility"
	DirDecorator  = "decorator"
	DirAttributes = "attributes"
	DirRename     = "rename"
	DirDelete     = "delete"
	DirParams     = "params"
	DirAsync      = "async"
	DirUnsafe     = "unsafe"
	DirReturns    = "returns"
)

// Set is the parsed directive set for one unit. A field left at its zero
// value means the directive was absent.
type Set struct {
	Access     string   `json:"access,omitempty"`
	Decorators []string `json:"decorators,omitempty"` // accumulated in order seen
	Rename     string   `json:"rename,omitempty"`
	Delete     bool     `json:"delete,omitempty"`
	Params     string   `json:"params,omitempty"` // raw, split with SplitParams
	Async      bool     `json:"async,omitempty"`
	Unsafe     bool     `json:"unsafe,omitempty"`
	ReturnType string   `json:"returnType,omitempty"`

	// Ignored lists recognised directives whose value could not be used.
	Ignored []string `json:"ignored,omitempty"`
}

// IsEmpty reports whether the set carries no effective directive.
func (s Set) IsEmpty() bool {
	return s.Access == "" && len(s.Decorators) == 0 && s.Rename == "" && !s.Delete &&
		s.Params == "" && !s.Async && !s.Unsafe && s.ReturnType == ""
}

// ParamList splits Params. ok is false when no params directive was given
// or the value holds no identifiers.
func (s Set) ParamList() ([]string, bool) {
	if s.Params == "" {
		return nil, false
	}
	params := SplitParams(s.Params)
	return params, len(params) > 0
}

var directiveRe = regexp.MustCompile(`^@([A-Za-z][A-Za-z_-]*)(?:\s+(.*))?$`)

var aliases = map[string]string{
	"access":     DirAccess,
	"visibility": DirAccess,
	"decorator":  DirDecorator,
	"decorators": DirDecorator,
	"attribute":  DirDecorator,
	"attributes": DirDecorator,
	"rename":     DirRename,
	"delete":     DirDelete,
	"params":     DirParams,
	"parameters": DirParams,
	"async":      DirAsync,
	"unsafe":     DirUnsafe,
	"returns":    DirReturns,
	"return":     DirReturns,
	"returntype": DirReturns,
}

// Parse scans comment text and builds a Set. Line comments are read one by
// one; a block comment is only read when every line of it is a directive, so
// documentation blocks such as JSDoc with @param or @returns tags are left
// alone. Scalar directives overwrite earlier values; decorators accumulate.
func Parse(commentText string) Set {
	var s Set

	for _, line := range directiveLines(commentText) {
		name, value, ok := parseLine(line)
		if !ok {
			continue
		}

		canonical, known := aliases[name]
		if !known {
			continue
		}

		switch canonical {
		case DirDelete:
			s.Delete = true
		case DirAsync:
			s.Async = true
		case DirUnsafe:
			s.Unsafe = true
		case DirAccess:
			if value == "" {
				s.ignore(name, "empty value")
				continue
			}
			s.Access = value
		case DirDecorator:
			d := cleanDecorator(value)
			if d == "" {
				s.ignore(name, "empty value")
				continue
			}
			s.Decorators = append(s.Decorators, d)
		case DirRename:
			if value == "" || strings.ContainsAny(value, " \t") {
				s.ignore(name, fmt.Sprintf("unusable name %q", value))
				continue
			}
			s.Rename = value
		case DirParams:
			if value == "" {
				s.ignore(name, "empty value")
				continue
			}
			if len(SplitParams(value)) == 0 {
				s.ignore(name, fmt.Sprintf("no parameters in %q", value))
				continue
			}
			s.Params = value
		case DirReturns:
			if value == "" {
				s.ignore(name, "empty value")
				continue
			}
			if strings.HasPrefix(value, "{") {
				s.ignore(name, "type in braces")
				continue
			}
			s.ReturnType = value
		}
	}

	return s
}

// directiveLines returns the lines of commentText that may carry directives.
func directiveLines(commentText string) []string {
	var lines, block []string
	closer := ""

	for _, line := range strings.Split(commentText, "\n") {
		rest := line
		if closer == "" {
			trimmed := strings.TrimSpace(line)
			switch {
			case strings.HasPrefix(trimmed, "/*"):
				closer, rest = "*/", trimmed[2:]
			case strings.HasPrefix(trimmed, "<!--"):
				closer, rest = "-->", trimmed[4:]
			default:
				lines = append(lines, line)
				continue
			}
		}

		block = append(block, line)
		if strings.Contains(rest, closer) {
			if IsDirectiveComment(strings.Join(block, "\n")) {
				lines = append(lines, block...)
			}
			block, closer = nil, ""
		}
	}

	// Unterminated block.
	if len(block) > 0 && IsDirectiveComment(strings.Join(block, "\n")) {
		lines = append(lines, block...)
	}
	return lines
}

func (s *Set) ignore(name, reason string) {
	s.Ignored = append(s.Ignored, fmt.Sprintf("@%s: %s", name, reason))
}

// IsDirectiveLine reports whether a comment line carries a recognised directive.
func IsDirectiveLine(line string) bool {
	name, _, ok := parseLine(line)
	if !ok {
		return false
	}
	_, known := aliases[name]
	return known
}

// IsDirectiveComment reports whether every non-blank line of a comment is a
// recognised directive. Such comments are dropped from merged output.
func IsDirectiveComment(comment string) bool {
	seen := false
	for _, line := range strings.Split(comment, "\n") {
		text := stripMarkers(line)
		if text == "" {
			continue
		}
		if !IsDirectiveLine(line) {
			return false
		}
		seen = true
	}
	return seen
}

// SplitParams splits a comma-separated parameter list, trimming whitespace
// and dropping empty tokens.
func SplitParams(raw string) []string {
	var params []string
	for _, p := range strings.Split(raw, ",") {
		p = strings.TrimSpace(p)
		if p != "" {
			params = append(params, p)
		}
	}
	return params
}

func parseLine(line string) (name, value string, ok bool) {
	text := stripMarkers(line)
	m := directiveRe.FindStringSubmatch(text)
	if m == nil {
		return "", "", false
	}
	return strings.ToLower(m[1]), strings.TrimSpace(m[2]), true
}

// stripMarkers removes comment delimiters from one line of comment text.
func stripMarkers(line string) string {
	s := strings.TrimSpace(line)

	for _, prefix := range []string{"///", "//!", "//", "/**", "/*!", "/*", "<!--", "#"} {
		if strings.HasPrefix(s, prefix) {
			s = s[len(prefix):]
			break
		}
	}
	s = strings.TrimSpace(s)

	for _, suffix := range []string{"*/", "-->"} {
		s = strings.TrimSuffix(s, suffix)
	}
	s = strings.TrimSpace(s)

	// Continuation lines inside block comments.
	if strings.HasPrefix(s, "*") && !strings.HasPrefix(s, "*/") {
		s = strings.TrimSpace(s[1:])
	}
	return s
}

// cleanDecorator normalises a decorator or attribute value: "@log" and
// "#[inline]" both become their bare form.
func cleanDecorator(value string) string {
	v := strings.TrimSpace(value)
	if strings.HasPrefix(v, "#[") && strings.HasSuffix(v, "]") {
		v = v[2 : len(v)-1]
	} else if strings.HasPrefix(v, "#![") && strings.HasSuffix(v, "]") {
		v = v[3 : len(v)-1]
	}
	v = strings.TrimPrefix(v, "@")
	return strings.TrimSpace(v)
}
