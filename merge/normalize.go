package merge

import (
	"regexp"
	"strings"

	"github.com/hongsw/CodeBridge/command"
	"github.com/hongsw/CodeBridge/parse"
)

// SentinelContainer names the synthetic class a bare snippet unit is wrapped
// in. Members of the sentinel merge into the matching class of the original.
const SentinelContainer = "__CodeBridgeSnippet__"

// Normalized is a snippet ready for parsing.
type Normalized struct {
	Text      string
	LineShift int  // lines added in front of the caller's text
	Wrapped   bool // the text was wrapped in the sentinel container
}

var (
	classDeclRe = regexp.MustCompile(`(?m)^\s*(?:export\s+(?:default\s+)?)?(?:declare\s+)?(?:abstract\s+)?class\s+[A-Za-z_$]`)
	bareUnitRe  = regexp.MustCompile(`^\s*((?:(?:public|private|protected|static|async|readonly|override|abstract|get|set)\s+)*)\*?\s*(#?[A-Za-z_$][\w$]*)\s*(?:<[^>]*>)?\s*\(`)
	accessRe    = regexp.MustCompile(`^\s*(?:public|private|protected)\b`)
	decoratorRe = regexp.MustCompile(`^@[\w$.]+(?:\([^)]*\))?\s*`)
)

var statementKeywords = map[string]bool{
	"if": true, "for": true, "while": true, "switch": true, "catch": true,
	"with": true, "return": true, "function": true, "do": true, "new": true,
}

// Normalize prepares a snippet for parsing under notation. Class-based
// snippets holding only bare members are wrapped in the sentinel class;
// other notations treat the whole file as the container and pass through.
func Normalize(text string, notation Notation, lang parse.Language) Normalized {
	text = strings.TrimPrefix(text, "\ufeff")
	if notation != NotationStructuralClass {
		return Normalized{Text: text}
	}
	return normalizeClassSnippet(text, lang)
}

func normalizeClassSnippet(text string, lang parse.Language) Normalized {
	if strings.TrimSpace(text) == "" || classDeclRe.MatchString(text) {
		return Normalized{Text: text}
	}

	lines := strings.Split(text, "\n")
	code := firstCodeLine(lines)
	if code < 0 {
		return Normalized{Text: text}
	}

	line := lines[code]
	at := len(line) - len(stripDecorators(line))
	rest := line[at:]

	m := bareUnitRe.FindStringSubmatch(rest)
	if m == nil || statementKeywords[m[2]] || !strings.Contains(text, "{") {
		return Normalized{Text: text}
	}

	// Accessibility keywords must be in place before the member is parsed
	// inside the synthetic class.
	cmds := command.Parse(strings.Join(lines[:code], "\n"))
	if lang == parse.LangTypeScript && (cmds.Access == "public" || cmds.Access == "protected") && !accessRe.MatchString(rest) {
		lines[code] = line[:at] + cmds.Access + " " + rest
	}

	return Normalized{
		Text:      "class " + SentinelContainer + " {\n" + strings.Join(lines, "\n") + "\n}\n",
		LineShift: 1,
		Wrapped:   true,
	}
}

// firstCodeLine skips blank lines, comments and decorator lines and returns
// the index of the first line of code, or -1.
func firstCodeLine(lines []string) int {
	inBlock := false
	for i, line := range lines {
		s := strings.TrimSpace(line)
		switch {
		case inBlock:
			if strings.Contains(s, "*/") {
				inBlock = false
			}
		case s == "", strings.HasPrefix(s, "//"):
		case strings.HasPrefix(s, "/*"):
			if !strings.Contains(s[2:], "*/") {
				inBlock = true
			}
		case strings.HasPrefix(s, "@"):
			if stripDecorators(s) != "" {
				return i
			}
		default:
			return i
		}
	}
	return -1
}

// stripDecorators removes leading whitespace and inline decorators from a line.
func stripDecorators(line string) string {
	s := strings.TrimLeft(line, " \t")
	for strings.HasPrefix(s, "@") {
		loc := decoratorRe.FindStringIndex(s)
		if loc == nil {
			break
		}
		s = s[loc[1]:]
	}
	return s
}
