package diff

import (
	"encoding/json"
	"fmt"
	"strings"
)

// FormatText formats the unit changes of a file diff as human-readable text.
func (fd *FileDiff) FormatText() string {
	var sb strings.Builder

	header := fd.Path
	if header == "" {
		header = "<stdin>"
	}
	if fd.Notation != "" {
		header += " (" + fd.Notation + ")"
	}
	sb.WriteString(fmt.Sprintf("~ %s\n", header))

	for _, u := range fd.Units {
		sb.WriteString(formatUnit(u))
	}
	for _, w := range fd.Warnings {
		sb.WriteString(fmt.Sprintf("  ! %s\n", w))
	}

	s := fd.Summary
	sb.WriteString(fmt.Sprintf("\nSummary: %d units (%d added, %d modified, %d removed, %d renamed)\n",
		s.Units(), s.UnitsAdded, s.UnitsModified, s.UnitsRemoved, s.UnitsRenamed))
	sb.WriteString(fmt.Sprintf("         %d lines (+%d, -%d)\n",
		s.LinesAdded+s.LinesRemoved, s.LinesAdded, s.LinesRemoved))

	return sb.String()
}

// formatUnit formats a single unit diff.
func formatUnit(u UnitDiff) string {
	actionChar := getActionChar(u.Action)
	kindStr := formatKind(u.Kind)

	name := u.Path()
	if kindStr != "" {
		name = kindStr + " " + name
	}
	if u.Action == ActionRenamed {
		return fmt.Sprintf("  %s %s -> %s\n", actionChar, name, u.NewName)
	}
	return fmt.Sprintf("  %s %s\n", actionChar, name)
}

func getActionChar(action Action) string {
	switch action {
	case ActionAdded:
		return "+"
	case ActionRemoved:
		return "-"
	case ActionModified, ActionRenamed:
		return "~"
	default:
		return " "
	}
}

func formatKind(kind UnitKind) string {
	switch kind {
	case KindFunction:
		return "function"
	case KindRule:
		return "rule"
	case KindDocument:
		return ""
	default:
		return string(kind)
	}
}

// FormatJSON formats a file diff as JSON.
func (fd *FileDiff) FormatJSON() ([]byte, error) {
	return json.MarshalIndent(fd, "", "  ")
}

// FormatCompact formats a file diff as one line per unit change.
func (fd *FileDiff) FormatCompact() string {
	var parts []string
	for _, u := range fd.Units {
		line := fmt.Sprintf("%s %s:%s", getActionChar(u.Action), fd.Path, u.Path())
		if u.Action == ActionRenamed {
			line += "->" + u.NewName
		}
		parts = append(parts, line)
	}
	return strings.Join(parts, "\n")
}

// FormatStats returns just the statistics line.
func (fd *FileDiff) FormatStats() string {
	s := fd.Summary
	return fmt.Sprintf("%d units changed (%d+, %d~, %d-, %d>), %d lines (+%d, -%d)",
		s.Units(), s.UnitsAdded, s.UnitsModified, s.UnitsRemoved, s.UnitsRenamed,
		s.LinesAdded+s.LinesRemoved, s.LinesAdded, s.LinesRemoved)
}

// FormatUnified renders the hunks as a unified diff.
func (fd *FileDiff) FormatUnified() string {
	if len(fd.Hunks) == 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("--- a/" + fd.Path + "\n")
	sb.WriteString("+++ b/" + fd.Path + "\n")
	for _, h := range fd.Hunks {
		sb.WriteString(fmt.Sprintf("@@ -%d,%d +%d,%d @@\n", h.OldStart, h.OldCount, h.NewStart, h.NewCount))
		for _, l := range h.Lines {
			switch l.Type {
			case LineAdded:
				sb.WriteString("+")
			case LineRemoved:
				sb.WriteString("-")
			default:
				sb.WriteString(" ")
			}
			sb.WriteString(l.Content)
			sb.WriteString("\n")
		}
	}
	return sb.String()
}
