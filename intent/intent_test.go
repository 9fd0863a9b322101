package intent

import (
	"testing"

	"github.com/hongsw/CodeBridge/merge"
)

func report(changes ...merge.Change) *merge.Report {
	return &merge.Report{Changes: changes}
}

func TestGenerateIntent(t *testing.T) {
	tests := []struct {
		name   string
		report *merge.Report
		path   string
		want   string
	}{
		{
			name:   "function added",
			report: report(merge.Change{Name: "calculate_sum", Kind: merge.UnitFunction, Action: merge.ActionAdded}),
			path:   "src/lib.rs",
			want:   "Add calculate_sum in lib",
		},
		{
			name:   "method removed",
			report: report(merge.Change{Container: "Core", Name: "deprecated", Kind: merge.UnitMethod, Action: merge.ActionDeleted}),
			path:   "core.ts",
			want:   "Remove deprecated in Core",
		},
		{
			name: "refactor",
			report: report(
				merge.Change{Container: "Utils", Name: "newFunc", Action: merge.ActionAdded},
				merge.Change{Container: "Utils", Name: "oldFunc", Action: merge.ActionDeleted},
			),
			want: "Refactor newFunc and oldFunc in Utils",
		},
		{
			name:   "rename",
			report: report(merge.Change{Container: "Example", Name: "method1", NewName: "calculatedValue", Action: merge.ActionRenamed}),
			want:   "Rename method1 to calculatedValue in Example",
		},
		{
			name: "update many",
			report: report(
				merge.Change{Container: "Calc", Name: "add", Action: merge.ActionModified},
				merge.Change{Container: "Calc", Name: "sub", Action: merge.ActionModified},
				merge.Change{Container: "Calc", Name: "mul", Action: merge.ActionAdded},
			),
			want: "Update add, sub and others in Calc",
		},
		{
			name: "mixed containers fall back to file",
			report: report(
				merge.Change{Container: "A", Name: "a", Action: merge.ActionModified},
				merge.Change{Container: "B", Name: "b", Action: merge.ActionModified},
			),
			path: "web/app.ts",
			want: "Update a and b in app",
		},
		{
			name:   "markup replaced",
			report: report(merge.Change{Name: "document", Action: merge.ActionReplaced}),
			path:   "index.html",
			want:   "Replace index",
		},
		{
			name:   "unchanged only",
			report: report(merge.Change{Name: "a", Action: merge.ActionUnchanged}),
			path:   "-",
			want:   "No changes to document",
		},
		{
			name: "nil report",
			path: "styles/site.css",
			want: "No changes to site",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := GenerateIntent(tt.report, tt.path)
			if got != tt.want {
				t.Errorf("GenerateIntent() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFormatNames(t *testing.T) {
	tests := []struct {
		names []string
		want  string
	}{
		{nil, ""},
		{[]string{"a"}, "a"},
		{[]string{"a", "b"}, "a and b"},
		{[]string{"a", "b", "c"}, "a, b and others"},
	}
	for _, tt := range tests {
		if got := formatNames(tt.names); got != tt.want {
			t.Errorf("formatNames(%v) = %q, want %q", tt.names, got, tt.want)
		}
	}
}
