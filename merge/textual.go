package merge

import (
	"sort"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"go.uber.org/zap"

	"github.com/hongsw/CodeBridge/command"
	"github.com/hongsw/CodeBridge/parse"
)

// spanGrammar describes a notation that merges by splicing byte spans.
type spanGrammar interface {
	dialect
	notation() Notation
	language() parse.Language
	// unit builds a unit for a top-level node, or returns nil for text that
	// is carried through untouched.
	unit(n *sitter.Node, src []byte) *Unit
	// attaches reports whether n binds to the declaration that follows it.
	attaches(n *sitter.Node) bool
	// attribute returns the attribute carried by an attaching node, if any.
	attribute(n *sitter.Node, src []byte) (string, bool)
	print(u *Unit, indent string) string
}

// textualStrategy merges units located by span and rebuilds the document
// in a single left-to-right pass over the original text.
type textualStrategy struct {
	grammar spanGrammar
	parser  *parse.Parser
	logger  *zap.Logger
}

func newTextualStrategy(g spanGrammar, logger *zap.Logger) *textualStrategy {
	return &textualStrategy{grammar: g, parser: parse.NewParser(), logger: logger}
}

// spanDocument holds the units of a document in source order. units keeps
// shadowed declarations that the table no longer resolves by name.
type spanDocument struct {
	src   []byte
	units []*Unit
	table *UnitTable
	loose []string // snippet text outside any unit
}

func (s *textualStrategy) extract(text string, origin Origin) (*spanDocument, error) {
	src := []byte(text)
	parsed, err := s.parser.Parse(src, string(s.grammar.language()))
	if err != nil {
		return nil, err
	}
	defer parsed.Close()

	doc := &spanDocument{src: src, table: NewUnitTable()}
	root := parsed.GetRootNode()

	pendStart, pendEnd, prevEnd := -1, 0, 0
	var comments, attrs []string
	reset := func() {
		pendStart = -1
		comments, attrs = nil, nil
	}

	for i := 0; i < int(root.ChildCount()); i++ {
		n := root.Child(i)
		start, end := int(n.StartByte()), int(n.EndByte())
		// Some grammars end line comments after the newline.
		for end > start && (src[end-1] == '\n' || src[end-1] == '\r') {
			end--
		}
		if start == end {
			continue
		}

		if s.grammar.attaches(n) {
			// A comment closing the line of the previous item stays with it.
			if pendStart < 0 && prevEnd > 0 && !strings.Contains(string(src[prevEnd:start]), "\n") {
				prevEnd = end
				continue
			}
			if pendStart >= 0 && blankLineBetween(src, pendEnd, start) {
				reset()
			}
			if pendStart < 0 {
				pendStart = start
			}
			pendEnd = end
			if attr, ok := s.grammar.attribute(n, src); ok {
				attrs = append(attrs, attr)
			} else {
				comments = append(comments, string(src[start:end]))
			}
			continue
		}

		if pendStart >= 0 && blankLineBetween(src, pendEnd, start) {
			reset()
		}

		u := s.grammar.unit(n, src)
		if u == nil {
			if origin == OriginSnippet && strings.TrimSpace(n.Content(src)) != "" {
				doc.loose = append(doc.loose, firstLine(n.Content(src)))
			}
			reset()
			prevEnd = end
			continue
		}

		if pendStart >= 0 {
			start = pendStart
			u.Leading = strings.Join(comments, "\n")
			for _, c := range comments {
				if !command.IsDirectiveComment(c) {
					u.Comments = append(u.Comments, c)
				}
			}
			u.Decorators = append(attrs, u.Decorators...)
		}

		u.Origin = origin
		u.Span = Span{Start: start, End: end}
		u.Text = string(src[start:end])
		u.Indent = indentAt(src, start)
		u.BodyHash = bodyHash(u)

		doc.units = append(doc.units, u)
		doc.table.insert(u)
		s.logger.Debug("extracted unit",
			zap.String("name", u.Name),
			zap.String("kind", string(u.Kind)),
			zap.String("origin", origin.String()))

		reset()
		prevEnd = end
	}

	return doc, nil
}

func (s *textualStrategy) merge(original, snippet string) (*Result, error) {
	report := &Report{Notation: s.grammar.notation()}

	orig, err := s.extract(original, OriginOriginal)
	if err != nil {
		return nil, documentError(err, "original", 0)
	}

	norm := Normalize(snippet, s.grammar.notation(), s.grammar.language())
	snip, err := s.extract(norm.Text, OriginSnippet)
	if err != nil {
		return nil, documentError(err, "snippet", norm.LineShift)
	}
	for _, l := range snip.loose {
		report.warnf("snippet text outside any unit ignored: %s", l)
	}

	rec := newReconciler(s.grammar, s.logger)
	result := rec.Reconcile("", orig.table, snip.table, commandsFor(snip.table), report)

	return &Result{Text: s.splice(orig, result), Report: report}, nil
}

type edit struct {
	start, end int
	text       string
}

// splice rebuilds the original text from the reconciled table: replaced
// units are spliced in place, missing units are cut, and units without an
// original counterpart are appended at the end of the document.
func (s *textualStrategy) splice(orig *spanDocument, result *UnitTable) string {
	present := make(map[*Unit]bool)
	replacedBy := make(map[*Unit]*Unit)
	var appended []*Unit

	for _, u := range result.Units() {
		present[u] = true
		if u.Origin != OriginSnippet {
			continue
		}
		if u.replaces != nil {
			replacedBy[u.replaces] = u
		} else {
			appended = append(appended, u)
		}
	}

	var edits []edit
	for _, o := range orig.units {
		if r, ok := replacedBy[o]; ok {
			edits = append(edits, edit{start: o.Span.Start, end: o.Span.End, text: s.grammar.print(r, o.Indent)})
			continue
		}
		if present[o] {
			continue
		}
		start, end := deletionSpan(orig.src, o.Span)
		edits = append(edits, edit{start: start, end: end})
	}
	sort.SliceStable(edits, func(i, j int) bool { return edits[i].start < edits[j].start })

	src := orig.src
	var sb strings.Builder
	cursor := 0
	for _, e := range edits {
		if e.start < cursor {
			e.start = cursor
		}
		if e.end < e.start {
			e.end = e.start
		}
		sb.Write(src[cursor:e.start])
		sb.WriteString(e.text)
		cursor = e.end
	}
	sb.Write(src[cursor:])

	out := sb.String()
	if len(appended) == 0 {
		return out
	}

	out = strings.TrimRight(out, "\n")
	for _, u := range appended {
		if out != "" {
			out += "\n\n"
		}
		out += s.grammar.print(u, "")
	}
	return out + "\n"
}

// deletionSpan widens a unit span to its whole lines and one adjacent blank
// line, so a removed unit leaves no gap behind.
func deletionSpan(src []byte, sp Span) (int, int) {
	start, end := lineStart(src, sp.Start), sp.End

	e := end
	for e < len(src) && (src[e] == ' ' || src[e] == '\t') {
		e++
	}
	if e < len(src) && src[e] != '\n' {
		return start, end
	}
	if e < len(src) {
		e++
	}
	end = e

	f := end
	for f < len(src) && (src[f] == ' ' || src[f] == '\t') {
		f++
	}
	if f < len(src) && src[f] == '\n' {
		return start, f + 1
	}

	if start > 0 && src[start-1] == '\n' {
		p := start - 1
		for p > 0 && (src[p-1] == ' ' || src[p-1] == '\t') {
			p--
		}
		if p > 0 && src[p-1] == '\n' {
			start = p
		}
	}
	return start, end
}
