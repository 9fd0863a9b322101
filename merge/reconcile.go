package merge

import (
	"bytes"
	"strings"

	"go.uber.org/zap"

	"github.com/hongsw/CodeBridge/command"
)

// dialect applies directive values to a unit the way a notation spells them.
// Each setter returns a non-empty reason when the value cannot be applied;
// the directive is then ignored.
type dialect interface {
	setAccess(u *Unit, value string) string
	setDecorators(u *Unit, decorators []string) string
	setParams(u *Unit, params []string) string
	setExtensions(u *Unit, cmds command.Set) []string
	rename(u *Unit, name string) string
	signature(u *Unit) string
}

// Reconciler merges a snippet UnitTable into an original UnitTable.
type Reconciler struct {
	dialect dialect
	logger  *zap.Logger
}

func newReconciler(d dialect, logger *zap.Logger) *Reconciler {
	return &Reconciler{dialect: d, logger: logger}
}

// Reconcile walks the snippet units in order and applies delete, modify or
// add to a copy of the original table. Modified units keep their position;
// renamed and new units are appended.
func (r *Reconciler) Reconcile(container string, original, snippet *UnitTable, commands map[string]command.Set, report *Report) *UnitTable {
	result := original.Clone()

	for _, su := range snippet.Units() {
		if su.Anonymous {
			if strings.TrimSpace(su.Text) != "" && su.Kind != UnitOpaque {
				report.warnf("%s: skipped a unit with no resolvable name", containerLabel(container))
			}
			r.logger.Debug("skipping unnamed snippet unit", zap.String("container", container))
			continue
		}

		name := su.Name
		cmds := commands[name]
		for _, ig := range cmds.Ignored {
			report.warnf("%s: directive ignored: %s", qualify(container, name), ig)
		}

		if cmds.Delete {
			if result.Delete(name) {
				report.add(Change{Container: container, Name: name, Kind: su.Kind, Action: ActionDeleted})
				r.logger.Debug("deleted unit", zap.String("unit", qualify(container, name)))
			} else {
				report.warnf("%s: delete target not found", qualify(container, name))
			}
			continue
		}

		base, exists := result.Get(name)

		merged := su.Clone()
		merged.Origin = OriginSnippet

		if cmds.Access != "" {
			if reason := r.dialect.setAccess(merged, cmds.Access); reason != "" {
				report.warnf("%s: @access ignored: %s", qualify(container, name), reason)
			}
		}
		if len(cmds.Decorators) > 0 {
			if reason := r.dialect.setDecorators(merged, cmds.Decorators); reason != "" {
				report.warnf("%s: @decorator ignored: %s", qualify(container, name), reason)
			}
		}
		if params, ok := cmds.ParamList(); ok {
			if reason := r.dialect.setParams(merged, params); reason != "" {
				report.warnf("%s: @params ignored: %s", qualify(container, name), reason)
			}
		}
		for _, reason := range r.dialect.setExtensions(merged, cmds) {
			report.warnf("%s: %s", qualify(container, name), reason)
		}
		if cmds.Rename != "" {
			if reason := r.dialect.rename(merged, cmds.Rename); reason != "" {
				report.warnf("%s: @rename ignored: %s", qualify(container, name), reason)
			}
		}

		finalName := merged.Name

		if exists && finalName == name && cmds.IsEmpty() && equivalent(r.dialect, base, merged) {
			report.add(Change{Container: container, Name: name, Kind: base.Kind, Action: ActionUnchanged})
			continue
		}

		if finalName != name {
			result.Delete(name)
		}
		if prev, ok := result.Get(finalName); ok {
			merged.Lead = prev.Lead
			merged.Span = prev.Span
			merged.replaces = prev
			if prev.Origin == OriginSnippet {
				merged.replaces = prev.replaces
			}
			if finalName != name {
				report.warnf("%s: rename replaces existing %s", qualify(container, name), finalName)
			}
		} else {
			merged.Lead = ""
			merged.replaces = nil
		}
		result.Set(finalName, merged)

		change := Change{Container: container, Name: name, Kind: merged.Kind}
		switch {
		case !exists && finalName == name:
			change.Action = ActionAdded
		case finalName != name:
			change.Action = ActionRenamed
			change.NewName = finalName
			if !exists {
				report.warnf("%s: rename target not found, added as %s", qualify(container, name), finalName)
				change.Action = ActionAdded
				change.Name = finalName
				change.NewName = ""
			}
		default:
			change.Action = ActionModified
		}
		report.add(change)
		r.logger.Debug("reconciled unit",
			zap.String("unit", qualify(container, name)),
			zap.String("action", string(change.Action)))
	}

	return result
}

// equivalent reports whether a snippet unit restates an original unit
// without change.
func equivalent(d dialect, a, b *Unit) bool {
	if a.Kind != b.Kind || a.Members != nil || b.Members != nil {
		return false
	}
	if !bytes.Equal(a.BodyHash, b.BodyHash) {
		return false
	}
	return d.signature(a) == d.signature(b)
}

// commandsFor parses the leading comments of every named unit in a table.
func commandsFor(t *UnitTable) map[string]command.Set {
	cmds := make(map[string]command.Set)
	for _, u := range t.Named() {
		if u.Leading == "" {
			continue
		}
		if s := command.Parse(u.Leading); !s.IsEmpty() || len(s.Ignored) > 0 {
			cmds[u.Name] = s
		}
	}
	return cmds
}

func qualify(container, name string) string {
	if container == "" {
		return name
	}
	return container + "." + name
}

func containerLabel(container string) string {
	if container == "" {
		return "document"
	}
	return container
}
