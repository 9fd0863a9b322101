// Package response recovers a merge snippet from a model's free-text reply.
package response

import (
	"bytes"
	"errors"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// ErrNoCode is returned when a reply contains nothing that looks like code.
var ErrNoCode = errors.New("no code found in response")

// Block is a fenced code block found in a reply.
type Block struct {
	Info string // info string language, lower-cased
	Code string
}

var md = goldmark.New()

// Blocks returns the fenced code blocks of reply in document order.
// An unterminated fence runs to the end of the reply.
func Blocks(reply string) []Block {
	src := []byte(reply)
	doc := md.Parser().Parse(text.NewReader(src))

	var blocks []Block
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		fc, ok := n.(*ast.FencedCodeBlock)
		if !ok {
			return ast.WalkContinue, nil
		}

		var buf bytes.Buffer
		lines := fc.Lines()
		for i := 0; i < lines.Len(); i++ {
			seg := lines.At(i)
			buf.Write(seg.Value(src))
		}
		blocks = append(blocks, Block{
			Info: strings.ToLower(string(fc.Language(src))),
			Code: buf.String(),
		})
		return ast.WalkSkipChildren, nil
	})
	return blocks
}

// Extract returns the code a reply carries for lang. The longest fenced
// block tagged with lang wins, then the longest fenced block of any kind.
// Without fences, prose lines around the code are dropped. The result has
// its common indentation removed and ends with a newline.
func Extract(reply, lang string) (string, error) {
	code := pickBlock(Blocks(reply), lang)
	if code == "" {
		code = stripProse(reply)
	}
	code = Dedent(code)
	if strings.TrimSpace(code) == "" {
		return "", ErrNoCode
	}
	return strings.TrimRight(code, "\n") + "\n", nil
}

func pickBlock(blocks []Block, lang string) string {
	var tagged, longest string
	for _, b := range blocks {
		if strings.TrimSpace(b.Code) == "" {
			continue
		}
		if lang != "" && matchesLanguage(b.Info, lang) && len(b.Code) > len(tagged) {
			tagged = b.Code
		}
		if len(b.Code) > len(longest) {
			longest = b.Code
		}
	}
	if tagged != "" {
		return tagged
	}
	return longest
}

var aliases = map[string][]string{
	"typescript": {"ts", "tsx", "mts", "typescript"},
	"javascript": {"js", "jsx", "mjs", "cjs", "javascript", "node"},
	"rust":       {"rs", "rust"},
	"css":        {"css"},
	"html":       {"html", "htm", "xhtml"},
}

func matchesLanguage(info, lang string) bool {
	lang = strings.ToLower(lang)
	if info == lang {
		return true
	}
	for canon, names := range aliases {
		if !contains(names, lang) && canon != lang {
			continue
		}
		if contains(names, info) {
			return true
		}
	}
	return false
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

var codeLine = regexp.MustCompile(`^(` +
	`(export\s+|default\s+|async\s+|static\s+|public\s+|private\s+|protected\s+|pub(\([a-z]+\))?\s+)*` +
	`(function|class|interface|const|let|var|import|fn|impl|struct|enum|trait|use|mod|type)\b` +
	`|//|/\*|#\[|#!|<!--|<[a-zA-Z!]|@[a-zA-Z]|[A-Za-z_$#][\w$]*\s*\(.*\)\s*(:\s*[^{]+)?\{` +
	`|[.#:\[\]\w\s,>+~*-]+\{\s*$|[}\])]` +
	`)`)

// isCodeLine reports whether a trimmed line plausibly starts code.
func isCodeLine(line string) bool {
	return codeLine.MatchString(line)
}

// stripProse drops the explanation before the first code line and after the
// last one.
func stripProse(reply string) string {
	lines := strings.Split(reply, "\n")

	first, last := -1, -1
	for i, l := range lines {
		if isCodeLine(strings.TrimSpace(l)) {
			if first < 0 {
				first = i
			}
			last = i
		}
	}
	if first < 0 {
		return ""
	}
	return strings.Join(lines[first:last+1], "\n")
}

// Dedent removes the whitespace prefix shared by every non-blank line.
func Dedent(code string) string {
	lines := strings.Split(code, "\n")

	prefix := ""
	found := false
	for _, l := range lines {
		if strings.TrimSpace(l) == "" {
			continue
		}
		lead := l[:len(l)-len(strings.TrimLeft(l, " \t"))]
		if !found {
			prefix, found = lead, true
			continue
		}
		for !strings.HasPrefix(lead, prefix) {
			prefix = prefix[:len(prefix)-1]
		}
	}
	if prefix == "" {
		return code
	}

	for i, l := range lines {
		lines[i] = strings.TrimPrefix(l, prefix)
		if strings.TrimSpace(lines[i]) == "" {
			lines[i] = ""
		}
	}
	return strings.Join(lines, "\n")
}
