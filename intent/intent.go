// Package intent generates one-line intent sentences from merge reports.
package intent

import (
	"path/filepath"
	"strings"

	"github.com/hongsw/CodeBridge/merge"
)

// GenerateIntent generates an intent sentence for a merge of path.
func GenerateIntent(report *merge.Report, path string) string {
	if report == nil || !report.HasChanges() {
		return "No changes to " + determineArea(nil, path)
	}

	changes := significant(report.Changes)
	verb := determineVerb(changes)
	area := determineArea(changes, path)

	if verb == "Rename" && len(changes) == 1 {
		c := changes[0]
		return "Rename " + c.Name + " to " + c.NewName + " in " + area
	}
	if verb == "Replace" {
		return "Replace " + area
	}

	names := unitNames(changes)
	return verb + " " + formatNames(names) + " in " + area
}

func significant(changes []merge.Change) []merge.Change {
	var out []merge.Change
	for _, c := range changes {
		if c.Action != merge.ActionUnchanged {
			out = append(out, c)
		}
	}
	return out
}

// unitNames lists changed unit names in report order without repeats.
func unitNames(changes []merge.Change) []string {
	var names []string
	seen := make(map[string]bool)
	for _, c := range changes {
		if !seen[c.Name] {
			seen[c.Name] = true
			names = append(names, c.Name)
		}
	}
	return names
}

// formatNames formats a list of unit names for display.
func formatNames(names []string) string {
	switch len(names) {
	case 0:
		return ""
	case 1:
		return names[0]
	case 2:
		return names[0] + " and " + names[1]
	}
	return strings.Join(names[:2], ", ") + " and others"
}

// determineVerb determines the verb from the merge actions.
func determineVerb(changes []merge.Change) string {
	var added, removed, modified, renamed, replaced bool
	for _, c := range changes {
		switch c.Action {
		case merge.ActionAdded:
			added = true
		case merge.ActionDeleted:
			removed = true
		case merge.ActionModified:
			modified = true
		case merge.ActionRenamed:
			renamed = true
		case merge.ActionReplaced:
			replaced = true
		}
	}

	switch {
	case replaced:
		return "Replace"
	case added && removed:
		return "Refactor"
	case renamed && !added && !removed && !modified:
		return "Rename"
	case added && !modified && !renamed:
		return "Add"
	case removed && !modified && !renamed:
		return "Remove"
	case modified || renamed:
		return "Update"
	}
	return "Change"
}

// determineArea names the container shared by all changes, else the file.
func determineArea(changes []merge.Change, path string) string {
	container := ""
	for i, c := range changes {
		if i == 0 {
			container = c.Container
			continue
		}
		if c.Container != container {
			container = ""
			break
		}
	}
	if container != "" {
		return container
	}

	if path == "" || path == "-" {
		return "document"
	}
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
