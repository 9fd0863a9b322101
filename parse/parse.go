// Package parse provides Tree-sitter based parsing for the source notations
// the merge engine understands: TypeScript, JavaScript, Rust and CSS.
package parse

import (
	"context"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/css"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/rust"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

// Language names a grammar supported by the parser.
type Language string

const (
	LangTypeScript Language = "typescript"
	LangJavaScript Language = "javascript"
	LangRust       Language = "rust"
	LangCSS        Language = "css"
)

// ParsedFile contains the parsed AST and the bytes it was built from.
type ParsedFile struct {
	Tree    *sitter.Tree
	Content []byte
	Lang    Language
}

// Parser wraps Tree-sitter with multi-language support.
//
// A sitter.Parser is not safe for concurrent use, so Parse builds one per
// call; a Parser value can be shared freely.
type Parser struct {
	fallback Language
}

// NewParser creates a new parser. Unknown language names resolve to TypeScript.
func NewParser() *Parser {
	return &Parser{fallback: LangTypeScript}
}

// ResolveLanguage maps a language name or file extension to a Language.
func ResolveLanguage(name string) (Language, bool) {
	switch name {
	case "ts", "tsx", "mts", "typescript":
		return LangTypeScript, true
	case "js", "jsx", "mjs", "cjs", "javascript":
		return LangJavaScript, true
	case "rs", "rust":
		return LangRust, true
	case "css":
		return LangCSS, true
	}
	return "", false
}

func grammar(lang Language) *sitter.Language {
	switch lang {
	case LangJavaScript:
		return javascript.GetLanguage()
	case LangRust:
		return rust.GetLanguage()
	case LangCSS:
		return css.GetLanguage()
	default:
		return typescript.GetLanguage()
	}
}

// Parse parses source code with the grammar for lang. A document that
// contains syntax errors is reported as a *ParseError pointing at the first
// offending node.
func (p *Parser) Parse(content []byte, lang string) (*ParsedFile, error) {
	l, ok := ResolveLanguage(lang)
	if !ok {
		l = p.fallback
	}

	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(grammar(l))

	tree, err := parser.ParseCtx(context.Background(), nil, content)
	if err != nil {
		return nil, fmt.Errorf("parsing failed: %w", err)
	}

	pf := &ParsedFile{
		Tree:    tree,
		Content: content,
		Lang:    l,
	}

	if perr := locateError(tree.RootNode(), content); perr != nil {
		tree.Close()
		return nil, perr
	}

	return pf, nil
}

// Close releases the underlying tree.
func (pf *ParsedFile) Close() {
	if pf != nil && pf.Tree != nil {
		pf.Tree.Close()
	}
}

// GetRootNode returns the root node of the AST.
func (pf *ParsedFile) GetRootNode() *sitter.Node {
	return pf.Tree.RootNode()
}
