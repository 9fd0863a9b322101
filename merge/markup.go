package merge

import (
	"bytes"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// markupStrategy replaces the whole document with the re-rendered snippet.
// Markup has no units, so there is nothing to reconcile.
type markupStrategy struct {
	logger *zap.Logger
}

func newMarkupStrategy(logger *zap.Logger) *markupStrategy {
	return &markupStrategy{logger: logger}
}

func (s *markupStrategy) merge(original, snippet string) (*Result, error) {
	report := &Report{Notation: NotationMarkup}

	snippet = strings.TrimPrefix(snippet, "\ufeff")
	if strings.TrimSpace(snippet) == "" {
		report.warnf("empty markup snippet, original kept")
		return &Result{Text: original, Report: report}, nil
	}

	if _, err := html.Parse(strings.NewReader(original)); err != nil {
		return nil, fmt.Errorf("parsing original markup: %w", err)
	}

	var out string
	var err error
	if isDocument(snippet) {
		out, err = renderDocument(snippet)
	} else {
		out, err = renderFragment(snippet)
	}
	if err != nil {
		return nil, fmt.Errorf("rendering snippet markup: %w", err)
	}
	if !strings.HasSuffix(out, "\n") {
		out += "\n"
	}

	report.add(Change{Name: "document", Kind: UnitOpaque, Action: ActionReplaced})
	s.logger.Debug("markup replaced", zap.Int("bytes", len(out)))
	return &Result{Text: out, Report: report}, nil
}

func isDocument(text string) bool {
	head := strings.ToLower(strings.TrimSpace(text))
	return strings.HasPrefix(head, "<!doctype") || strings.HasPrefix(head, "<html")
}

func renderDocument(text string) (string, error) {
	doc, err := html.Parse(strings.NewReader(text))
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := html.Render(&buf, doc); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// renderFragment parses text as the content of a body element.
func renderFragment(text string) (string, error) {
	body := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(strings.NewReader(text), body)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	for _, n := range nodes {
		if err := html.Render(&buf, n); err != nil {
			return "", err
		}
	}
	return buf.String(), nil
}
