// Package diff describes the outcome of a merge as unit changes and line hunks.
package diff

// Action represents the type of change to a unit.
type Action string

const (
	ActionAdded    Action = "added"
	ActionModified Action = "modified"
	ActionRemoved  Action = "removed"
	ActionRenamed  Action = "renamed"
)

// UnitKind represents the type of merge unit.
type UnitKind string

const (
	KindFunction UnitKind = "function"
	KindClass    UnitKind = "class"
	KindMethod   UnitKind = "method"
	KindField    UnitKind = "field"
	KindImpl     UnitKind = "impl"
	KindType     UnitKind = "type"
	KindRule     UnitKind = "rule"
	KindImport   UnitKind = "import"
	KindDocument UnitKind = "document"
)

// UnitDiff represents a change to one unit.
type UnitDiff struct {
	Kind      UnitKind `json:"kind"`
	Name      string   `json:"name"`
	Container string   `json:"container,omitempty"` // enclosing class, empty at document level
	NewName   string   `json:"newName,omitempty"`   // set for renames
	Action    Action   `json:"action"`
}

// Path returns the qualified unit name, e.g. "Example.method1".
func (u UnitDiff) Path() string {
	if u.Container == "" {
		return u.Name
	}
	return u.Container + "." + u.Name
}

// LineType represents the type of a hunk line.
type LineType int

const (
	LineContext LineType = iota
	LineAdded
	LineRemoved
)

// Line is one line of a hunk.
type Line struct {
	Type    LineType
	Content string
}

// Hunk is a group of neighbouring line changes with context.
type Hunk struct {
	OldStart int    `json:"oldStart"`
	OldCount int    `json:"oldCount"`
	NewStart int    `json:"newStart"`
	NewCount int    `json:"newCount"`
	Lines    []Line `json:"-"`
}

// FileDiff represents changes to a single file.
type FileDiff struct {
	Path     string     `json:"path"`
	Notation string     `json:"notation,omitempty"`
	Units    []UnitDiff `json:"units,omitempty"`
	Hunks    []Hunk     `json:"hunks,omitempty"`
	Warnings []string   `json:"warnings,omitempty"`
	OldSize  int        `json:"oldSize"`
	NewSize  int        `json:"newSize"`
	Summary  Summary    `json:"summary"`
}

// Summary provides aggregate statistics.
type Summary struct {
	UnitsAdded    int `json:"unitsAdded"`
	UnitsModified int `json:"unitsModified"`
	UnitsRemoved  int `json:"unitsRemoved"`
	UnitsRenamed  int `json:"unitsRenamed"`
	LinesAdded    int `json:"linesAdded"`
	LinesRemoved  int `json:"linesRemoved"`
}

// ComputeSummary calculates the summary from units and hunks.
func (fd *FileDiff) ComputeSummary() {
	fd.Summary = Summary{}
	for _, u := range fd.Units {
		switch u.Action {
		case ActionAdded:
			fd.Summary.UnitsAdded++
		case ActionModified:
			fd.Summary.UnitsModified++
		case ActionRemoved:
			fd.Summary.UnitsRemoved++
		case ActionRenamed:
			fd.Summary.UnitsRenamed++
		}
	}
	for _, h := range fd.Hunks {
		for _, l := range h.Lines {
			switch l.Type {
			case LineAdded:
				fd.Summary.LinesAdded++
			case LineRemoved:
				fd.Summary.LinesRemoved++
			}
		}
	}
}

// Units returns the total number of changed units.
func (s Summary) Units() int {
	return s.UnitsAdded + s.UnitsModified + s.UnitsRemoved + s.UnitsRenamed
}
