package merge

import (
	"go.uber.org/zap"

	"github.com/hongsw/CodeBridge/cas"
	"github.com/hongsw/CodeBridge/parse"
)

// strategy merges one notation.
type strategy interface {
	merge(original, snippet string) (*Result, error)
}

// Merger dispatches a merge to the strategy for its notation.
type Merger struct {
	logger    *zap.Logger
	classLang parse.Language
}

// Option configures a Merger.
type Option func(*Merger)

// WithLogger sets the logger used for per-unit debug output.
func WithLogger(l *zap.Logger) Option {
	return func(m *Merger) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithClassLanguage selects the grammar for the structural-class notation.
// The default is TypeScript, which also accepts most JavaScript.
func WithClassLanguage(lang parse.Language) Option {
	return func(m *Merger) {
		m.classLang = lang
	}
}

// NewMerger creates a new merger.
func NewMerger(opts ...Option) *Merger {
	m := &Merger{
		logger:    zap.NewNop(),
		classLang: parse.LangTypeScript,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Merge merges snippet into original and returns the merged text.
func (m *Merger) Merge(original, snippet string, notation Notation) (string, error) {
	res, err := m.MergeWithReport(original, snippet, notation)
	if err != nil {
		return "", err
	}
	return res.Text, nil
}

// MergeWithReport merges snippet into original and reports what happened to
// each unit. On error no partial output is returned.
func (m *Merger) MergeWithReport(original, snippet string, notation Notation) (*Result, error) {
	s, err := m.strategyFor(notation)
	if err != nil {
		return nil, err
	}

	res, err := s.merge(original, snippet)
	if err != nil {
		return nil, err
	}

	res.Report.OriginalDigest = cas.Blake3HashHex([]byte(original))
	res.Report.MergedDigest = cas.Blake3HashHex([]byte(res.Text))
	m.logger.Debug("merge complete",
		zap.String("notation", string(notation)),
		zap.Int("changes", len(res.Report.Changes)),
		zap.Int("warnings", len(res.Report.Warnings)))
	return res, nil
}

func (m *Merger) strategyFor(notation Notation) (strategy, error) {
	switch notation {
	case NotationStructuralClass:
		return newStructuralStrategy(m.classLang, m.logger), nil
	case NotationFunctionUnit:
		return newTextualStrategy(rustGrammar{}, m.logger), nil
	case NotationStyleRule:
		return newTextualStrategy(styleGrammar{}, m.logger), nil
	case NotationMarkup:
		return newMarkupStrategy(m.logger), nil
	}
	return nil, &UnsupportedNotationError{Tag: string(notation)}
}

// Merge is a convenience function using a default merger. The notation may
// be a tag or one of its aliases.
func Merge(original, snippet, notation string) (string, error) {
	n, err := ParseNotation(notation)
	if err != nil {
		return "", err
	}
	return NewMerger().Merge(original, snippet, n)
}
