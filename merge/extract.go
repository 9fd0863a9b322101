package merge

import (
	"strconv"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"go.uber.org/zap"

	"github.com/hongsw/CodeBridge/cas"
	"github.com/hongsw/CodeBridge/command"
	"github.com/hongsw/CodeBridge/parse"
)

// Extractor extracts merge units from parsed class-based code.
type Extractor struct {
	parser *parse.Parser
	lang   parse.Language
	logger *zap.Logger
}

// NewExtractor creates a unit extractor for a class-based grammar.
func NewExtractor(lang parse.Language, logger *zap.Logger) *Extractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{
		parser: parse.NewParser(),
		lang:   lang,
		logger: logger,
	}
}

// Document is a class-based source split into program-level units.
type Document struct {
	Units   *UnitTable
	Trailer string
	src     []byte
}

// ExtractUnits parses content and extracts its program-level units; every
// class unit carries a table of its members.
func (e *Extractor) ExtractUnits(content []byte, origin Origin) (*Document, error) {
	parsed, err := e.parser.Parse(content, string(e.lang))
	if err != nil {
		return nil, err
	}
	defer parsed.Close()

	root := parsed.GetRootNode()
	sc := &scan{src: content, origin: origin, table: NewUnitTable(), logger: e.logger}
	sc.walk(root, 0, len(content), sc.programUnit)

	return &Document{Units: sc.table, Trailer: sc.trailer, src: content}, nil
}

// scan accumulates the units of one container. Leading comments and
// decorators attach to the next declaration unless a blank line separates
// them from it.
type scan struct {
	src     []byte
	origin  Origin
	table   *UnitTable
	trailer string
	logger  *zap.Logger

	prevEnd    int
	pendStart  int
	pendEnd    int
	comments   []string
	decorators []string
	lastUnit   *Unit
}

type unitBuilder func(n *sitter.Node, decorators []string) *Unit

func (sc *scan) walk(container *sitter.Node, from, to int, build unitBuilder) {
	sc.prevEnd = from
	sc.pendStart = -1

	for i := 0; i < int(container.ChildCount()); i++ {
		child := container.Child(i)
		start, end := int(child.StartByte()), int(child.EndByte())
		if start < from || end > to || start == end {
			continue
		}

		switch child.Type() {
		case "{", "}":
			continue
		case "comment":
			sc.pendComment(child)
			continue
		case "decorator":
			sc.pend(start, end)
			sc.decorators = append(sc.decorators, decoratorText(child.Content(sc.src)))
			continue
		case ";", ",":
			if sc.lastUnit != nil && sc.pendStart < 0 {
				sc.extendLast(end)
				continue
			}
		}

		sc.flushDetached(start)
		u := build(child, sc.decorators)
		if u == nil {
			u = &Unit{Kind: UnitOpaque}
		}
		sc.emit(u, start, end)
	}

	sc.flushPending()
	sc.trailer = string(sc.src[sc.prevEnd:to])
}

func (sc *scan) pend(start, end int) {
	if sc.pendStart < 0 {
		sc.pendStart = start
	}
	sc.pendEnd = end
}

func (sc *scan) pendComment(n *sitter.Node) {
	start, end := int(n.StartByte()), int(n.EndByte())
	// A comment trailing a unit on the same line belongs to that unit.
	if sc.pendStart < 0 && sc.lastUnit != nil && !strings.Contains(string(sc.src[sc.prevEnd:start]), "\n") {
		sc.extendLast(end)
		return
	}
	if sc.pendStart >= 0 && len(sc.decorators) == 0 && blankLineBetween(sc.src, sc.pendEnd, start) {
		sc.flushPending()
	}
	sc.pend(start, end)
	sc.comments = append(sc.comments, n.Content(sc.src))
}

// flushDetached turns pending comments separated from the next node by a
// blank line into their own passthrough unit.
func (sc *scan) flushDetached(next int) {
	if sc.pendStart >= 0 && len(sc.decorators) == 0 && blankLineBetween(sc.src, sc.pendEnd, next) {
		sc.flushPending()
	}
}

func (sc *scan) flushPending() {
	if sc.pendStart < 0 {
		return
	}
	u := &Unit{
		Kind:   UnitOpaque,
		Origin: sc.origin,
		Span:   Span{Start: sc.pendStart, End: sc.pendEnd},
		Text:   string(sc.src[sc.pendStart:sc.pendEnd]),
		Lead:   string(sc.src[sc.prevEnd:sc.pendStart]),
	}
	sc.table.addAnonymous(u)
	sc.prevEnd = sc.pendEnd
	sc.resetPending()
	sc.lastUnit = nil
}

func (sc *scan) resetPending() {
	sc.pendStart = -1
	sc.comments = nil
	sc.decorators = nil
}

func (sc *scan) emit(u *Unit, start, end int) {
	if sc.pendStart >= 0 {
		start = sc.pendStart
		u.Leading = strings.Join(sc.comments, "\n")
		for _, c := range sc.comments {
			if !command.IsDirectiveComment(c) {
				u.Comments = append(u.Comments, c)
			}
		}
	}

	u.Origin = sc.origin
	u.Span = Span{Start: start, End: end}
	u.Text = string(sc.src[start:end])
	u.Lead = string(sc.src[sc.prevEnd:start])
	u.Indent = indentAt(sc.src, start)
	u.BodyHash = bodyHash(u)

	if u.Name == "" || u.Anonymous {
		sc.table.addAnonymous(u)
	} else {
		sc.table.insert(u)
	}
	sc.logger.Debug("extracted unit",
		zap.String("name", u.Name),
		zap.String("kind", string(u.Kind)),
		zap.String("origin", u.Origin.String()))

	sc.prevEnd = end
	sc.lastUnit = u
	sc.resetPending()
}

// extendLast grows the previous unit to absorb a separator or a trailing
// comment on the same line.
func (sc *scan) extendLast(end int) {
	u := sc.lastUnit
	extra := string(sc.src[u.Span.End:end])
	u.Span.End = end
	u.Text = string(sc.src[u.Span.Start:end])
	switch u.Kind {
	case UnitField, UnitOpaque:
		u.Tail += extra
	default:
		u.Body += extra
	}
	u.BodyHash = bodyHash(u)
	sc.prevEnd = end
}

func bodyHash(u *Unit) []byte {
	payload := u.Body
	if payload == "" {
		payload = u.Head + u.Tail
	}
	return cas.Blake3Hash([]byte(reindent(payload, u.Indent, "")))
}

// programUnit builds a unit for a top-level node of a class-based document.
func (sc *scan) programUnit(n *sitter.Node, _ []string) *Unit {
	switch n.Type() {
	case "class_declaration", "abstract_class_declaration", "class":
		return sc.classUnit(n, n)
	case "function_declaration", "generator_function_declaration":
		return sc.functionUnit(n, n, "")
	case "export_statement":
		decl := n.ChildByFieldName("declaration")
		if decl == nil {
			return nil
		}
		visibility := "export"
		for i := 0; i < int(n.ChildCount()); i++ {
			if n.Child(i).Type() == "default" {
				visibility = "export default"
			}
		}
		switch decl.Type() {
		case "class_declaration", "abstract_class_declaration", "class":
			return sc.classUnit(decl, n)
		case "function_declaration", "generator_function_declaration":
			return sc.functionUnit(decl, n, visibility)
		}
	}
	return nil
}

func (sc *scan) classUnit(decl, outer *sitter.Node) *Unit {
	nameNode := decl.ChildByFieldName("name")
	body := decl.ChildByFieldName("body")
	if nameNode == nil || body == nil {
		return nil
	}

	u := &Unit{
		Kind:    UnitClass,
		Name:    nameNode.Content(sc.src),
		Ident:   nameNode.Content(sc.src),
		Keyword: "class",
		Head:    string(sc.src[outer.StartByte():nameNode.StartByte()]),
		Tail:    string(sc.src[nameNode.EndByte():body.StartByte()]),
		Body:    body.Content(sc.src),
	}

	members := &scan{src: sc.src, origin: sc.origin, table: NewUnitTable(), logger: sc.logger}
	members.walk(body, int(body.StartByte())+1, int(body.EndByte())-1, members.memberUnit)
	u.Members = members.table
	u.Trailer = members.trailer
	return u
}

func (sc *scan) functionUnit(decl, outer *sitter.Node, visibility string) *Unit {
	nameNode := decl.ChildByFieldName("name")
	params := decl.ChildByFieldName("parameters")
	body := decl.ChildByFieldName("body")
	if nameNode == nil || params == nil || body == nil {
		return nil
	}

	u := &Unit{
		Kind:       UnitFunction,
		Name:       nameNode.Content(sc.src),
		Ident:      nameNode.Content(sc.src),
		Visibility: visibility,
		Keyword:    "function",
		Body:       body.Content(sc.src),
	}

	for i := 0; i < int(decl.ChildCount()); i++ {
		c := decl.Child(i)
		if c.StartByte() >= nameNode.StartByte() {
			break
		}
		switch c.Type() {
		case "async":
			u.Modifiers = append(u.Modifiers, "async")
		case "*":
			u.Keyword = "function*"
		}
	}

	sc.signatureParts(u, nameNode, params, body)
	return u
}

// memberUnit builds a unit for a node inside a class body.
func (sc *scan) memberUnit(n *sitter.Node, decorators []string) *Unit {
	switch n.Type() {
	case "method_definition":
		return sc.methodUnit(n, decorators)
	case "public_field_definition", "field_definition":
		return sc.fieldUnit(n, decorators)
	}
	return nil
}

func (sc *scan) methodUnit(n *sitter.Node, decorators []string) *Unit {
	nameNode := n.ChildByFieldName("name")
	params := n.ChildByFieldName("parameters")
	body := n.ChildByFieldName("body")
	if nameNode == nil || params == nil || body == nil {
		return nil
	}

	u := &Unit{
		Kind:       UnitMethod,
		Decorators: cloneStrings(decorators),
		Body:       body.Content(sc.src),
	}
	sc.memberPrefix(u, n, nameNode)

	ident, ok := memberIdent(nameNode, sc.src)
	u.Ident = ident
	if ok {
		u.Name = memberKey(u)
	} else {
		u.Anonymous = true
	}

	sc.signatureParts(u, nameNode, params, body)
	return u
}

func (sc *scan) fieldUnit(n *sitter.Node, decorators []string) *Unit {
	nameNode := n.ChildByFieldName("name")
	if nameNode == nil {
		nameNode = n.ChildByFieldName("property")
	}
	if nameNode == nil {
		return nil
	}

	u := &Unit{
		Kind:       UnitField,
		Decorators: cloneStrings(decorators),
		Tail:       string(sc.src[nameNode.EndByte():n.EndByte()]),
	}
	sc.memberPrefix(u, n, nameNode)

	ident, ok := memberIdent(nameNode, sc.src)
	u.Ident = ident
	if ok {
		u.Name = memberKey(u)
	} else {
		u.Anonymous = true
	}
	return u
}

// memberPrefix collects decorators, accessibility and modifiers that
// precede a member's name.
func (sc *scan) memberPrefix(u *Unit, n, nameNode *sitter.Node) {
	for i := 0; i < int(n.ChildCount()); i++ {
		c := n.Child(i)
		if c.StartByte() >= nameNode.StartByte() {
			break
		}
		switch c.Type() {
		case "decorator":
			u.Decorators = append(u.Decorators, decoratorText(c.Content(sc.src)))
		case "accessibility_modifier":
			u.Visibility = c.Content(sc.src)
		case "comment":
		default:
			u.Modifiers = append(u.Modifiers, c.Content(sc.src))
		}
	}
}

// signatureParts fills type parameters, parameters and return type from the
// text between name, parameter list and body.
func (sc *scan) signatureParts(u *Unit, nameNode, params, body *sitter.Node) {
	u.TypeParams = strings.TrimSpace(string(sc.src[nameNode.EndByte():params.StartByte()]))

	for i := 0; i < int(params.NamedChildCount()); i++ {
		p := params.NamedChild(i)
		if p.Type() == "comment" {
			continue
		}
		u.Params = append(u.Params, p.Content(sc.src))
	}

	ret := strings.TrimSpace(string(sc.src[params.EndByte():body.StartByte()]))
	u.ReturnType = strings.TrimSpace(strings.TrimPrefix(ret, ":"))
}

// memberIdent returns the printed name token of a member and whether a
// table key can be derived from it.
func memberIdent(nameNode *sitter.Node, src []byte) (string, bool) {
	text := nameNode.Content(src)
	switch nameNode.Type() {
	case "property_identifier", "private_property_identifier", "identifier", "string", "number":
		return text, text != ""
	}
	return text, false
}

// memberKey derives the table key of a class member: string keys are
// unquoted and accessors are qualified so a getter and setter of the same
// property do not collide.
func memberKey(u *Unit) string {
	key := u.Ident
	if len(key) >= 2 && (key[0] == '"' || key[0] == '\'') {
		if s, err := strconv.Unquote(`"` + key[1:len(key)-1] + `"`); err == nil {
			key = s
		} else {
			key = key[1 : len(key)-1]
		}
	}
	for _, m := range u.Modifiers {
		if m == "get" || m == "set" {
			return m + " " + key
		}
	}
	return key
}

func decoratorText(s string) string {
	return strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(s), "@"))
}
