package merge

import "strings"

// blankLineBetween reports whether src[from:to] contains an empty line.
func blankLineBetween(src []byte, from, to int) bool {
	if from < 0 || to > len(src) || from >= to {
		return false
	}
	return strings.Count(string(src[from:to]), "\n") >= 2
}

// lineStart returns the offset of the start of the line containing off
// when only whitespace precedes off on that line, otherwise off itself.
func lineStart(src []byte, off int) int {
	i := off
	for i > 0 {
		c := src[i-1]
		if c == '\n' {
			return i
		}
		if c != ' ' && c != '\t' {
			return off
		}
		i--
	}
	return 0
}

// indentAt returns the whitespace that begins the line containing off.
func indentAt(src []byte, off int) string {
	start := off
	for start > 0 && src[start-1] != '\n' {
		start--
	}
	end := start
	for end < len(src) && (src[end] == ' ' || src[end] == '\t') {
		end++
	}
	return string(src[start:end])
}

// trailingIndent returns the text after the last newline of a gap, which is
// the indentation the gap leaves before the next unit.
func trailingIndent(gap string) string {
	if i := strings.LastIndexByte(gap, '\n'); i >= 0 {
		return gap[i+1:]
	}
	return ""
}

// reindent moves every line after the first from the from indentation to
// the to indentation, keeping relative indentation. Lines indented less
// than from are aligned to to.
func reindent(text, from, to string) string {
	if from == to || !strings.Contains(text, "\n") {
		return text
	}

	lines := strings.Split(text, "\n")
	for i := 1; i < len(lines); i++ {
		line := lines[i]
		if strings.TrimSpace(line) == "" {
			lines[i] = ""
			continue
		}
		if strings.HasPrefix(line, from) {
			lines[i] = to + line[len(from):]
		} else {
			lines[i] = to + strings.TrimLeft(line, " \t")
		}
	}
	return strings.Join(lines, "\n")
}

// writeComments writes each comment on its own line, leaving the cursor at
// indent for the declaration that follows.
func writeComments(sb *strings.Builder, comments []string, from, indent string) {
	for _, c := range comments {
		sb.WriteString(reindent(c, from, indent))
		sb.WriteString("\n")
		sb.WriteString(indent)
	}
}
