package merge

import (
	"sort"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/hongsw/CodeBridge/command"
	"github.com/hongsw/CodeBridge/parse"
)

// rustGrammar merges Rust items: functions, impl blocks, type definitions
// and use declarations.
type rustGrammar struct{}

func (rustGrammar) notation() Notation       { return NotationFunctionUnit }
func (rustGrammar) language() parse.Language { return parse.LangRust }

func (rustGrammar) attaches(n *sitter.Node) bool {
	switch n.Type() {
	case "line_comment", "block_comment", "attribute_item":
		return true
	}
	return false
}

func (rustGrammar) attribute(n *sitter.Node, src []byte) (string, bool) {
	if n.Type() != "attribute_item" {
		return "", false
	}
	text := strings.TrimSpace(n.Content(src))
	text = strings.TrimPrefix(text, "#[")
	text = strings.TrimSuffix(text, "]")
	return strings.TrimSpace(text), true
}

func (g rustGrammar) unit(n *sitter.Node, src []byte) *Unit {
	switch n.Type() {
	case "function_item":
		return g.functionUnit(n, src)
	case "impl_item":
		return g.implUnit(n, src)
	case "struct_item", "enum_item", "trait_item", "union_item", "type_item",
		"const_item", "static_item", "mod_item":
		return g.namedItem(n, src)
	case "use_declaration":
		return g.useUnit(n, src)
	}
	return nil
}

func (g rustGrammar) functionUnit(n *sitter.Node, src []byte) *Unit {
	nameNode := n.ChildByFieldName("name")
	params := n.ChildByFieldName("parameters")
	body := n.ChildByFieldName("body")
	if nameNode == nil || params == nil || body == nil {
		return nil
	}

	u := &Unit{
		Kind:    UnitFunction,
		Name:    nameNode.Content(src),
		Ident:   nameNode.Content(src),
		Keyword: "fn",
		Body:    body.Content(src),
	}

	for i := 0; i < int(n.ChildCount()); i++ {
		c := n.Child(i)
		switch c.Type() {
		case "visibility_modifier":
			u.Visibility = c.Content(src)
		case "function_modifiers":
			for j := 0; j < int(c.ChildCount()); j++ {
				u.Modifiers = append(u.Modifiers, c.Child(j).Content(src))
			}
		case "where_clause":
			u.Where = c.Content(src)
		}
	}

	if tp := n.ChildByFieldName("type_parameters"); tp != nil {
		u.TypeParams = tp.Content(src)
	}
	for i := 0; i < int(params.NamedChildCount()); i++ {
		p := params.NamedChild(i)
		switch p.Type() {
		case "line_comment", "block_comment":
			continue
		}
		u.Params = append(u.Params, p.Content(src))
	}
	if rt := n.ChildByFieldName("return_type"); rt != nil {
		u.ReturnType = rt.Content(src)
	}
	return u
}

func (g rustGrammar) implUnit(n *sitter.Node, src []byte) *Unit {
	typ := n.ChildByFieldName("type")
	if typ == nil {
		return nil
	}

	name := "impl " + collapseSpace(typ.Content(src))
	if trait := n.ChildByFieldName("trait"); trait != nil {
		name = "impl " + collapseSpace(trait.Content(src)) + " for " + collapseSpace(typ.Content(src))
	}

	return &Unit{
		Kind: UnitImpl,
		Name: name,
		Tail: n.Content(src),
	}
}

// namedItem splits a definition around its name so it can be renamed and
// have its visibility changed without decomposing the rest.
func (g rustGrammar) namedItem(n *sitter.Node, src []byte) *Unit {
	nameNode := n.ChildByFieldName("name")
	if nameNode == nil {
		return nil
	}

	kind := UnitType
	if n.Type() == "const_item" || n.Type() == "static_item" || n.Type() == "mod_item" {
		kind = UnitOpaque
	}

	u := &Unit{
		Kind:  kind,
		Name:  nameNode.Content(src),
		Ident: nameNode.Content(src),
		Tail:  string(src[nameNode.EndByte():n.EndByte()]),
	}

	headStart := n.StartByte()
	for i := 0; i < int(n.ChildCount()); i++ {
		c := n.Child(i)
		if c.Type() == "visibility_modifier" {
			u.Visibility = c.Content(src)
			headStart = c.EndByte()
			break
		}
	}
	u.Head = strings.TrimLeft(string(src[headStart:nameNode.StartByte()]), " \t")
	return u
}

func (g rustGrammar) useUnit(n *sitter.Node, src []byte) *Unit {
	arg := n.ChildByFieldName("argument")
	if arg == nil {
		return nil
	}

	u := &Unit{
		Kind: UnitImport,
		Name: "use " + collapseSpace(arg.Content(src)),
	}

	tailStart := n.StartByte()
	for i := 0; i < int(n.ChildCount()); i++ {
		c := n.Child(i)
		if c.Type() == "visibility_modifier" {
			u.Visibility = c.Content(src)
			tailStart = c.EndByte()
			break
		}
	}
	u.Tail = strings.TrimLeft(string(src[tailStart:n.EndByte()]), " \t")
	return u
}

func (g rustGrammar) print(u *Unit, indent string) string {
	var sb strings.Builder

	writeComments(&sb, u.Comments, u.Indent, indent)
	for _, a := range u.Decorators {
		sb.WriteString("#[" + a + "]\n" + indent)
	}
	if u.Visibility != "" {
		sb.WriteString(u.Visibility + " ")
	}

	if u.Kind != UnitFunction {
		sb.WriteString(u.Head)
		sb.WriteString(u.Ident)
		sb.WriteString(reindent(u.Tail, u.Indent, indent))
		return sb.String()
	}

	for _, m := range u.Modifiers {
		sb.WriteString(m + " ")
	}
	sb.WriteString("fn " + u.Ident + u.TypeParams)
	sb.WriteString("(" + strings.Join(u.Params, ", ") + ")")
	if u.ReturnType != "" {
		sb.WriteString(" -> " + u.ReturnType)
	}
	if u.Where != "" {
		sb.WriteString(" " + u.Where)
	}
	sb.WriteString(" ")
	sb.WriteString(reindent(u.Body, u.Indent, indent))
	return sb.String()
}

func (g rustGrammar) setAccess(u *Unit, value string) string {
	if u.Kind == UnitImpl {
		return "impl blocks have no visibility"
	}

	v := strings.TrimSpace(value)
	switch lower := strings.ToLower(v); {
	case lower == "private":
		u.Visibility = ""
	case lower == "public" || lower == "pub":
		u.Visibility = "pub"
	case lower == "crate":
		u.Visibility = "pub(crate)"
	case strings.HasPrefix(lower, "pub("):
		u.Visibility = v
	default:
		return "unknown visibility " + v
	}
	return ""
}

func (g rustGrammar) setDecorators(u *Unit, decorators []string) string {
	u.Decorators = cloneStrings(decorators)
	return ""
}

func (g rustGrammar) setParams(u *Unit, params []string) string {
	if u.Kind != UnitFunction {
		return "unit has no parameter list"
	}
	u.Params = cloneStrings(params)
	return ""
}

func (g rustGrammar) setExtensions(u *Unit, cmds command.Set) []string {
	var ignored []string
	fn := u.Kind == UnitFunction

	for _, m := range []struct {
		on   bool
		name string
	}{{cmds.Async, "async"}, {cmds.Unsafe, "unsafe"}} {
		if !m.on {
			continue
		}
		if !fn {
			ignored = append(ignored, "@"+m.name+" ignored: unit is not a function")
			continue
		}
		if !u.hasModifier(m.name) {
			u.Modifiers = append(u.Modifiers, m.name)
		}
	}
	sortRustModifiers(u.Modifiers)

	if cmds.ReturnType != "" {
		if !fn {
			ignored = append(ignored, "@returns ignored: unit is not a function")
		} else {
			u.ReturnType = strings.TrimSpace(strings.TrimPrefix(cmds.ReturnType, "->"))
		}
	}
	return ignored
}

var rustModifierRank = map[string]int{"default": 0, "const": 1, "async": 2, "unsafe": 3}

// sortRustModifiers orders qualifiers as the language requires:
// default const async unsafe extern.
func sortRustModifiers(mods []string) {
	rank := func(m string) int {
		if r, ok := rustModifierRank[m]; ok {
			return r
		}
		return 4
	}
	sort.SliceStable(mods, func(i, j int) bool { return rank(mods[i]) < rank(mods[j]) })
}

func (g rustGrammar) rename(u *Unit, name string) string {
	if u.Ident == "" {
		return "unit has no name to rename"
	}
	u.Ident = name
	u.Name = name
	return ""
}

func (g rustGrammar) signature(u *Unit) string {
	return strings.Join([]string{
		strings.Join(u.Decorators, ","),
		u.Visibility,
		strings.Join(u.Modifiers, " "),
		u.Head,
		u.Ident,
		u.TypeParams,
		strings.Join(u.Params, ","),
		u.ReturnType,
		u.Where,
	}, "|")
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
