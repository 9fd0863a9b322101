package diff

import (
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/hongsw/CodeBridge/merge"
)

// DefaultContext is the number of unchanged lines kept around each hunk.
const DefaultContext = 3

// Differ computes line hunks and unit changes for a merge.
type Differ struct {
	dmp     *diffmatchpatch.DiffMatchPatch
	context int
}

// NewDiffer creates a differ keeping context unchanged lines around each
// hunk. A negative context selects DefaultContext.
func NewDiffer(context int) *Differ {
	if context < 0 {
		context = DefaultContext
	}
	dmp := diffmatchpatch.New()
	dmp.DiffTimeout = 0
	return &Differ{dmp: dmp, context: context}
}

// DiffMerge describes the merge of path from before to after using the
// unit changes in report.
func (d *Differ) DiffMerge(path, before, after string, report *merge.Report) *FileDiff {
	fd := &FileDiff{
		Path:    path,
		OldSize: len(before),
		NewSize: len(after),
		Hunks:   d.Hunks(before, after),
	}
	if report != nil {
		fd.Notation = string(report.Notation)
		fd.Units = UnitsFromReport(report)
		fd.Warnings = append(fd.Warnings, report.Warnings...)
	}
	fd.ComputeSummary()
	return fd
}

// UnitsFromReport converts merge changes to unit diffs. Unchanged units are
// dropped.
func UnitsFromReport(report *merge.Report) []UnitDiff {
	var units []UnitDiff
	for _, c := range report.Changes {
		ud := UnitDiff{
			Kind:      kindOf(c.Kind),
			Name:      c.Name,
			Container: c.Container,
			NewName:   c.NewName,
		}
		switch c.Action {
		case merge.ActionAdded:
			ud.Action = ActionAdded
		case merge.ActionDeleted:
			ud.Action = ActionRemoved
		case merge.ActionRenamed:
			ud.Action = ActionRenamed
		case merge.ActionModified, merge.ActionReplaced:
			ud.Action = ActionModified
		default:
			continue
		}
		units = append(units, ud)
	}
	return units
}

func kindOf(k merge.UnitKind) UnitKind {
	switch k {
	case merge.UnitFunction:
		return KindFunction
	case merge.UnitClass:
		return KindClass
	case merge.UnitMethod:
		return KindMethod
	case merge.UnitField:
		return KindField
	case merge.UnitImpl:
		return KindImpl
	case merge.UnitType:
		return KindType
	case merge.UnitRule:
		return KindRule
	case merge.UnitImport:
		return KindImport
	default:
		return KindDocument
	}
}

// op is one line of the full line-level edit script.
type op struct {
	typ     LineType
	content string
}

// Hunks computes line hunks between before and after.
func (d *Differ) Hunks(before, after string) []Hunk {
	if before == after {
		return nil
	}

	a, b, lineArray := d.dmp.DiffLinesToChars(before, after)
	diffs := d.dmp.DiffMain(a, b, false)
	diffs = d.dmp.DiffCharsToLines(diffs, lineArray)

	var ops []op
	for _, df := range diffs {
		typ := LineContext
		switch df.Type {
		case diffmatchpatch.DiffInsert:
			typ = LineAdded
		case diffmatchpatch.DiffDelete:
			typ = LineRemoved
		}
		for _, line := range splitLines(df.Text) {
			ops = append(ops, op{typ: typ, content: line})
		}
	}
	return d.group(ops)
}

// group cuts the edit script into hunks, merging changes whose context
// windows touch.
func (d *Differ) group(ops []op) []Hunk {
	var hunks []Hunk

	i := 0
	for i < len(ops) {
		for i < len(ops) && ops[i].typ == LineContext {
			i++
		}
		if i == len(ops) {
			break
		}

		start := i - d.context
		if start < 0 {
			start = 0
		}

		end := i
		for end < len(ops) {
			if ops[end].typ != LineContext {
				end++
				continue
			}
			run := end
			for run < len(ops) && ops[run].typ == LineContext {
				run++
			}
			if run == len(ops) || run-end > 2*d.context {
				end += min(d.context, run-end)
				break
			}
			end = run
		}

		hunks = append(hunks, makeHunk(ops, start, end))
		i = end
	}
	return hunks
}

func makeHunk(ops []op, start, end int) Hunk {
	oldBefore, newBefore := 0, 0
	for _, o := range ops[:start] {
		if o.typ != LineAdded {
			oldBefore++
		}
		if o.typ != LineRemoved {
			newBefore++
		}
	}

	h := Hunk{OldStart: oldBefore + 1, NewStart: newBefore + 1}
	for _, o := range ops[start:end] {
		h.Lines = append(h.Lines, Line{Type: o.typ, Content: o.content})
		if o.typ != LineAdded {
			h.OldCount++
		}
		if o.typ != LineRemoved {
			h.NewCount++
		}
	}
	// An empty side is anchored on the line before it.
	if h.OldCount == 0 {
		h.OldStart = oldBefore
	}
	if h.NewCount == 0 {
		h.NewStart = newBefore
	}
	return h
}

func splitLines(text string) []string {
	if text == "" {
		return nil
	}
	return strings.Split(strings.TrimSuffix(text, "\n"), "\n")
}
