package merge

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/hongsw/CodeBridge/command"
	"github.com/hongsw/CodeBridge/parse"
)

// styleGrammar keys style sheet rules by selector or at-rule prelude. Rules
// are overwritten whole; only delete and rename directives apply.
type styleGrammar struct{}

func (styleGrammar) notation() Notation       { return NotationStyleRule }
func (styleGrammar) language() parse.Language { return parse.LangCSS }

func (styleGrammar) attaches(n *sitter.Node) bool {
	return n.Type() == "comment"
}

func (styleGrammar) attribute(*sitter.Node, []byte) (string, bool) {
	return "", false
}

func (styleGrammar) unit(n *sitter.Node, src []byte) *Unit {
	switch n.Type() {
	case "rule_set", "media_statement", "supports_statement", "keyframes_statement", "at_rule":
	default:
		return nil
	}

	text := n.Content(src)
	open := strings.IndexByte(text, '{')
	if open < 0 {
		return nil
	}
	head := strings.TrimRight(text[:open], " \t\r\n")
	key := selectorKey(head)
	if key == "" {
		return nil
	}

	return &Unit{
		Kind:  UnitRule,
		Name:  key,
		Ident: head,
		Tail:  text[len(head):],
	}
}

// selectorKey normalises a prelude so that whitespace and list spacing do
// not distinguish otherwise identical selectors.
func selectorKey(prelude string) string {
	parts := strings.Split(prelude, ",")
	for i, p := range parts {
		parts[i] = collapseSpace(p)
	}
	return strings.Join(parts, ", ")
}

func (styleGrammar) print(u *Unit, indent string) string {
	var sb strings.Builder
	writeComments(&sb, u.Comments, u.Indent, indent)
	sb.WriteString(u.Ident)
	sb.WriteString(reindent(u.Tail, u.Indent, indent))
	return sb.String()
}

func (styleGrammar) setAccess(*Unit, string) string {
	return "style rules have no visibility"
}

func (styleGrammar) setDecorators(*Unit, []string) string {
	return "style rules take no decorators"
}

func (styleGrammar) setParams(*Unit, []string) string {
	return "style rules take no parameters"
}

func (styleGrammar) setExtensions(_ *Unit, cmds command.Set) []string {
	var ignored []string
	if cmds.Async {
		ignored = append(ignored, "@async ignored: style rules take no modifiers")
	}
	if cmds.Unsafe {
		ignored = append(ignored, "@unsafe ignored: style rules take no modifiers")
	}
	if cmds.ReturnType != "" {
		ignored = append(ignored, "@returns ignored: style rules have no return type")
	}
	return ignored
}

// rename replaces the selector. The directive value is a single token, so
// a rename always yields a simple selector.
func (styleGrammar) rename(u *Unit, name string) string {
	u.Ident = name
	u.Name = selectorKey(name)
	return ""
}

func (styleGrammar) signature(u *Unit) string {
	return u.Name
}
