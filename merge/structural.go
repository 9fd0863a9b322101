package merge

import (
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/hongsw/CodeBridge/command"
	"github.com/hongsw/CodeBridge/parse"
)

// structuralStrategy merges class-based sources member by member and
// reprints the document from its unit tables.
type structuralStrategy struct {
	extractor *Extractor
	dialect   *classDialect
	logger    *zap.Logger
}

func newStructuralStrategy(lang parse.Language, logger *zap.Logger) *structuralStrategy {
	return &structuralStrategy{
		extractor: NewExtractor(lang, logger),
		dialect:   &classDialect{lang: lang},
		logger:    logger,
	}
}

func (s *structuralStrategy) merge(original, snippet string) (*Result, error) {
	report := &Report{Notation: NotationStructuralClass}

	orig, err := s.extractor.ExtractUnits([]byte(original), OriginOriginal)
	if err != nil {
		return nil, documentError(err, "original", 0)
	}

	norm := Normalize(snippet, NotationStructuralClass, s.extractor.lang)
	snip, err := s.extractor.ExtractUnits([]byte(norm.Text), OriginSnippet)
	if err != nil {
		return nil, documentError(err, "snippet", norm.LineShift)
	}
	if norm.Wrapped {
		s.logger.Debug("wrapped bare snippet in sentinel class")
	}

	rec := newReconciler(s.dialect, s.logger)
	base := orig.Units.Clone()
	program := NewUnitTable()
	programCmds := make(map[string]command.Set)

	for _, su := range snip.Units.Units() {
		if su.Anonymous {
			if su.Kind == UnitOpaque && !isComment(su.Text) {
				report.warnf("snippet statement outside any class ignored: %s", firstLine(su.Text))
			}
			continue
		}

		cmds := command.Parse(su.Leading)

		if su.Kind != UnitClass {
			program.Set(su.Name, su)
			programCmds[su.Name] = cmds
			continue
		}

		target := resolveTarget(su, orig.Units)
		if su.Name == SentinelContainer {
			if target == nil {
				report.warnf("no class in the original to merge %d snippet member(s) into", len(su.Members.Named()))
				continue
			}
			cmds = command.Set{}
		}

		if cmds.Delete {
			program.Set(su.Name, su)
			programCmds[su.Name] = cmds
			continue
		}

		merged := s.mergeClass(rec, target, su, report)
		if target == nil {
			program.Set(su.Name, merged)
			programCmds[su.Name] = cmds
			continue
		}
		if merged != nil {
			base.Set(target.Name, merged)
		}
		if !cmds.IsEmpty() {
			if merged == nil {
				merged = target
			}
			// Class-level directives apply to the merged class.
			program.Set(target.Name, merged)
			programCmds[target.Name] = cmds
		}
	}

	result := rec.Reconcile("", base, program, programCmds, report)

	var sb strings.Builder
	s.renderContainer(&sb, result, "", "\n\n", false)
	trailer := orig.Trailer
	if trailer == "" && original == "" && sb.Len() > 0 {
		trailer = "\n"
	}
	sb.WriteString(trailer)

	return &Result{Text: sb.String(), Report: report}, nil
}

// mergeClass reconciles a snippet class's members into target. It returns
// nil when target exists and no member changed.
func (s *structuralStrategy) mergeClass(rec *Reconciler, target, su *Unit, report *Report) *Unit {
	container := su.Name
	members := NewUnitTable()
	if target != nil {
		container = target.Name
		members = target.Members
	}

	before := len(report.Changes)
	merged := rec.Reconcile(container, members, su.Members, commandsFor(su.Members), report)

	if target == nil {
		out := su.Clone()
		out.Members = merged
		return out
	}

	changed := false
	for _, c := range report.Changes[before:] {
		if c.Action != ActionUnchanged {
			changed = true
		}
	}
	if !changed {
		return nil
	}

	out := target.Clone()
	out.Members = merged
	out.changed = true
	return out
}

// resolveTarget finds the class of the original a snippet class merges into.
// A named class matches by name. The sentinel class goes to the only class,
// or to the class sharing the most member names with it.
func resolveTarget(su *Unit, original *UnitTable) *Unit {
	if su.Name != SentinelContainer {
		if u, ok := original.Get(su.Name); ok && u.Kind == UnitClass {
			return u
		}
		return nil
	}

	var best *Unit
	bestScore := -1
	for _, u := range original.Named() {
		if u.Kind != UnitClass {
			continue
		}
		score := 0
		for _, m := range su.Members.Named() {
			if u.Members.Has(m.Name) {
				score++
			}
		}
		if score > bestScore {
			best, bestScore = u, score
		}
	}
	return best
}

// renderContainer writes the units of a table in order. Carried-over units
// are copied with their original leading whitespace; others are printed.
func (s *structuralStrategy) renderContainer(sb *strings.Builder, t *UnitTable, indent, fallback string, leadFirst bool) {
	sep := separator(t, fallback)
	if indent != "" || leadFirst {
		indent = trailingIndent(sep)
	}

	for i, u := range t.Units() {
		lead := u.Lead
		if lead == "" && (i > 0 || leadFirst) {
			lead = sep
		}
		sb.WriteString(lead)
		s.render(sb, u, indent)
	}
}

// separator picks the gap used before printed units that have none: the
// gap most recently used between carried-over units, else fallback.
func separator(t *UnitTable, fallback string) string {
	sep := ""
	for _, u := range t.Units() {
		if u.Origin == OriginOriginal && strings.Contains(u.Lead, "\n") {
			sep = u.Lead
		}
	}
	if sep == "" {
		return fallback
	}
	// Keep at most one blank line.
	if strings.Count(sep, "\n") > 2 {
		sep = "\n\n" + trailingIndent(sep)
	}
	return sep
}

func (s *structuralStrategy) render(sb *strings.Builder, u *Unit, indent string) {
	if !u.Changed() {
		sb.WriteString(u.Text)
		return
	}

	switch u.Kind {
	case UnitMethod:
		s.printMethod(sb, u, indent)
	case UnitField:
		s.printField(sb, u, indent)
	case UnitFunction:
		s.printFunction(sb, u, indent)
	case UnitClass:
		s.printClass(sb, u, indent)
	default:
		sb.WriteString(u.Text)
	}
}

func (s *structuralStrategy) printMemberPrefix(sb *strings.Builder, u *Unit, indent string) {
	writeComments(sb, u.Comments, u.Indent, indent)
	for _, d := range u.Decorators {
		sb.WriteString("@" + d + "\n" + indent)
	}
	if u.Visibility != "" {
		sb.WriteString(u.Visibility + " ")
	}
	for _, m := range u.Modifiers {
		sb.WriteString(m)
		if m != "*" {
			sb.WriteString(" ")
		}
	}
}

func (s *structuralStrategy) printMethod(sb *strings.Builder, u *Unit, indent string) {
	s.printMemberPrefix(sb, u, indent)
	sb.WriteString(u.Ident)
	s.printSignature(sb, u, indent)
}

func (s *structuralStrategy) printSignature(sb *strings.Builder, u *Unit, indent string) {
	sb.WriteString(u.TypeParams)
	sb.WriteString("(" + strings.Join(u.Params, ", ") + ")")
	if u.ReturnType != "" {
		sb.WriteString(": " + u.ReturnType)
	}
	sb.WriteString(" ")
	sb.WriteString(reindent(u.Body, u.Indent, indent))
}

func (s *structuralStrategy) printField(sb *strings.Builder, u *Unit, indent string) {
	s.printMemberPrefix(sb, u, indent)
	sb.WriteString(u.Ident)
	sb.WriteString(reindent(u.Tail, u.Indent, indent))
}

func (s *structuralStrategy) printFunction(sb *strings.Builder, u *Unit, indent string) {
	writeComments(sb, u.Comments, u.Indent, indent)
	if u.Visibility != "" {
		sb.WriteString(u.Visibility + " ")
	}
	for _, m := range u.Modifiers {
		sb.WriteString(m + " ")
	}
	sb.WriteString(u.Keyword + " " + u.Ident)
	s.printSignature(sb, u, indent)
}

func (s *structuralStrategy) printClass(sb *strings.Builder, u *Unit, indent string) {
	writeComments(sb, u.Comments, u.Indent, indent)
	sb.WriteString(reindent(u.Head, u.Indent, indent))
	sb.WriteString(u.Ident)
	sb.WriteString(u.Tail)
	sb.WriteString("{")

	memberIndent := indent + "  "
	s.renderContainer(sb, u.Members, memberIndent, "\n"+memberIndent, true)

	trailer := u.Trailer
	if u.Members.Len() > 0 && !strings.Contains(trailer, "\n") {
		trailer = "\n" + indent
	}
	if u.Origin == OriginSnippet && u.Indent != indent {
		trailer = reindent(trailer, u.Indent, indent)
	}
	sb.WriteString(trailer)
	sb.WriteString("}")
}

// classDialect spells directives for TypeScript and JavaScript classes.
type classDialect struct {
	lang parse.Language
}

func (d *classDialect) setAccess(u *Unit, value string) string {
	value = strings.ToLower(strings.TrimSpace(value))

	switch u.Kind {
	case UnitFunction, UnitClass:
		return d.setExport(u, value)
	case UnitMethod, UnitField:
	default:
		return "unit has no access level"
	}

	private := strings.HasPrefix(u.Ident, "#")
	switch value {
	case "private":
		if !private {
			if strings.HasPrefix(u.Ident, "'") || strings.HasPrefix(u.Ident, "\"") {
				return "string-keyed members cannot be made private"
			}
			u.Ident = "#" + u.Ident
		}
		u.Visibility = ""
	case "public":
		u.Ident = strings.TrimPrefix(u.Ident, "#")
		u.Visibility = ""
		if d.lang == parse.LangTypeScript {
			u.Visibility = "public"
		}
	case "protected":
		if d.lang != parse.LangTypeScript {
			return "protected is not available in javascript"
		}
		u.Ident = strings.TrimPrefix(u.Ident, "#")
		u.Visibility = "protected"
	default:
		return "unknown access value " + value
	}
	u.Name = memberKey(u)
	return ""
}

// setExport maps access on program-level declarations to the export keyword.
func (d *classDialect) setExport(u *Unit, value string) string {
	exported := u.Visibility != ""
	if u.Kind == UnitClass {
		exported = strings.Contains(u.Head, "export")
	}

	switch value {
	case "public":
		if exported {
			return ""
		}
		if u.Kind == UnitClass {
			u.Head = "export " + u.Head
		} else {
			u.Visibility = "export"
		}
	case "private":
		if u.Kind == UnitClass {
			u.Head = strings.Replace(u.Head, "export default ", "", 1)
			u.Head = strings.Replace(u.Head, "export ", "", 1)
		} else {
			u.Visibility = ""
		}
	default:
		return "unknown access value " + value + " for a program-level declaration"
	}
	return ""
}

func (d *classDialect) setDecorators(u *Unit, decorators []string) string {
	if u.Kind != UnitMethod && u.Kind != UnitField {
		return "decorators apply to class members only"
	}
	u.Decorators = cloneStrings(decorators)
	return ""
}

func (d *classDialect) setParams(u *Unit, params []string) string {
	if u.Kind != UnitMethod && u.Kind != UnitFunction {
		return "unit has no parameter list"
	}
	u.Params = cloneStrings(params)
	return ""
}

func (d *classDialect) setExtensions(u *Unit, cmds command.Set) []string {
	var ignored []string
	callable := u.Kind == UnitMethod || u.Kind == UnitFunction

	if cmds.Async {
		if !callable {
			ignored = append(ignored, "@async ignored: unit is not callable")
		} else if !u.hasModifier("async") {
			u.Modifiers = insertAsync(u.Modifiers)
		}
	}
	if cmds.Unsafe {
		ignored = append(ignored, "@unsafe ignored: not available for class-based sources")
	}
	if cmds.ReturnType != "" {
		if !callable {
			ignored = append(ignored, "@returns ignored: unit is not callable")
		} else {
			u.ReturnType = strings.TrimSpace(strings.TrimPrefix(cmds.ReturnType, ":"))
		}
	}
	return ignored
}

// insertAsync places async after static/override and before accessor or
// generator markers.
func insertAsync(mods []string) []string {
	out := make([]string, 0, len(mods)+1)
	placed := false
	for _, m := range mods {
		if !placed && (m == "get" || m == "set" || m == "*") {
			out = append(out, "async")
			placed = true
		}
		out = append(out, m)
	}
	if !placed {
		out = append(out, "async")
	}
	return out
}

func (d *classDialect) rename(u *Unit, name string) string {
	switch u.Kind {
	case UnitMethod, UnitField:
		if strings.HasPrefix(u.Ident, "#") && !strings.HasPrefix(name, "#") {
			name = "#" + name
		}
		u.Ident = name
		u.Name = memberKey(u)
	default:
		u.Ident = name
		u.Name = name
	}
	return ""
}

func (d *classDialect) signature(u *Unit) string {
	return strings.Join([]string{
		strings.Join(u.Decorators, ","),
		u.Visibility,
		strings.Join(u.Modifiers, " "),
		u.Ident,
		u.TypeParams,
		strings.Join(u.Params, ","),
		u.ReturnType,
	}, "|")
}

func documentError(err error, document string, lineShift int) error {
	var perr *parse.ParseError
	if errors.As(err, &perr) {
		perr.Document = document
		perr.Shift(-lineShift)
		return perr
	}
	return err
}

func isComment(text string) bool {
	t := strings.TrimSpace(text)
	return strings.HasPrefix(t, "//") || strings.HasPrefix(t, "/*") || t == ""
}

func firstLine(text string) string {
	t := strings.TrimSpace(text)
	if i := strings.IndexByte(t, '\n'); i >= 0 {
		t = t[:i]
	}
	if len(t) > 60 {
		t = t[:57] + "..."
	}
	return t
}
