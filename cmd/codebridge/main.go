// Package main provides the codebridge CLI.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/hongsw/CodeBridge/config"
	"github.com/hongsw/CodeBridge/diff"
	"github.com/hongsw/CodeBridge/intent"
	"github.com/hongsw/CodeBridge/merge"
	"github.com/hongsw/CodeBridge/notationmatch"
	"github.com/hongsw/CodeBridge/parse"
	"github.com/hongsw/CodeBridge/response"
)

// Version is the current codebridge CLI version
var Version = "0.3.0"

var (
	configPath string
	rulesPath  string
	logLevel   string
	jsonLogs   bool

	cfg     *config.Config
	matcher *notationmatch.Matcher
	logger  = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "codebridge",
	Short: "CodeBridge - merge generated code snippets into source files",
	Long: `CodeBridge merges a partial snippet, usually produced by a language model,
into an existing source file. Units named in the snippet are added, replaced,
renamed or deleted; everything else in the file is kept.

Comment directives above a unit control the merge:
  // @access private     // @decorator memoize    // @rename total
  // @params a, b        // @delete               // @async  // @returns i32`,
	Version:           Version,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

var mergeCmd = &cobra.Command{
	Use:   "merge",
	Short: "Merge a snippet into an original file",
	Long: `Merge a snippet into an original file.

The notation is taken from --notation, the config file, or the original's path
(*.ts/*.js structural-class, *.rs function-unit, *.css style-rule, *.html markup).

Examples:
  codebridge merge -o src/example.ts -s snippet.ts
  pbpaste | codebridge merge -o src/lib.rs --from-response --diff
  codebridge merge -o styles.css -s fix.css -w --report stats`,
	Args: cobra.NoArgs,
	RunE: runMerge,
}

var notationsCmd = &cobra.Command{
	Use:   "notations",
	Short: "List supported notations and path rules",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, "Notations:")
		for _, n := range merge.Notations() {
			fmt.Fprintf(out, "  %s\n", n)
		}
		fmt.Fprintln(out, "\nRules (first match wins):")
		for _, r := range matcher.Rules() {
			notation := r.Notation
			if r.Language != "" {
				notation += "/" + r.Language
			}
			fmt.Fprintf(out, "  %-32s %s\n", notation, strings.Join(r.Paths, " "))
		}
		return nil
	},
}

var (
	mergeOriginal     string
	mergeSnippet      string
	mergeNotation     string
	mergeLang         string
	mergeFromResponse bool
	mergeWrite        bool
	mergeOut          string
	mergeDiff         bool
	mergeReport       string
	mergeNoJournal    bool
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default: codebridge.yaml or .codebridge/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&rulesPath, "rules", ".codebridge/rules.yaml", "Notation rules file, tried before the config rules")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().BoolVar(&jsonLogs, "json-logs", false, "Write logs as JSON")

	mergeCmd.Flags().StringVarP(&mergeOriginal, "original", "o", "", "Original source file")
	mergeCmd.Flags().StringVarP(&mergeSnippet, "snippet", "s", "-", "Snippet file, or - for stdin")
	mergeCmd.Flags().StringVarP(&mergeNotation, "notation", "n", "", "Notation tag (structural-class, function-unit, style-rule, markup-passthrough)")
	mergeCmd.Flags().StringVar(&mergeLang, "lang", "", "Class grammar for structural merges: typescript or javascript")
	mergeCmd.Flags().BoolVar(&mergeFromResponse, "from-response", false, "Treat the snippet as a model reply and extract its code")
	mergeCmd.Flags().BoolVarP(&mergeWrite, "write", "w", false, "Write the result back to the original file")
	mergeCmd.Flags().StringVar(&mergeOut, "out", "", "Write the result to this file")
	mergeCmd.Flags().BoolVar(&mergeDiff, "diff", false, "Print a unified diff instead of the merged file")
	mergeCmd.Flags().StringVar(&mergeReport, "report", "", "Print a unit report: text, json, compact or stats")
	mergeCmd.Flags().BoolVar(&mergeNoJournal, "no-journal", false, "Do not record this merge in the journal")
	_ = mergeCmd.MarkFlagRequired("original")

	rootCmd.AddCommand(mergeCmd)
	rootCmd.AddCommand(undoCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(notationsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// setup loads configuration and builds the logger.
func setup(cmd *cobra.Command, args []string) error {
	var err error
	if configPath != "" {
		cfg, err = config.Load(configPath)
	} else {
		cfg, err = config.LoadFromDir(".")
	}
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	if jsonLogs {
		cfg.Logging.JSON = true
	}
	l, err := newLogger(cfg.Logging)
	if err != nil {
		return err
	}
	logger = l

	fileRules, err := notationmatch.ReadRulesIfExists(rulesPath)
	if err != nil {
		return err
	}
	matcher = cfg.Matcher(fileRules...)
	return nil
}

func newLogger(lc config.LoggingConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(lc.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", lc.Level, err)
	}

	zc := zap.NewDevelopmentConfig()
	if lc.JSON {
		zc = zap.NewProductionConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	zc.OutputPaths = []string{"stderr"}
	zc.DisableStacktrace = true

	l, err := zc.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return l, nil
}

// resolveNotation picks the notation and class grammar for path.
func resolveNotation(path string) (merge.Notation, parse.Language, error) {
	tag, lang := mergeNotation, mergeLang
	if tag == "" {
		tag = cfg.Notation
	}

	rule, matched := matcher.Match(path)
	if tag == "" {
		if !matched {
			return "", "", fmt.Errorf("cannot infer notation for %s; pass --notation", path)
		}
		tag = rule.Notation
	}
	notation, err := merge.ParseNotation(tag)
	if err != nil {
		return "", "", err
	}

	if lang == "" && matched && rule.Notation == string(notation) {
		lang = rule.Language
	}
	if lang == "" {
		lang = cfg.Language
	}
	classLang, ok := parse.ResolveLanguage(lang)
	if !ok && notation == merge.NotationStructuralClass {
		return "", "", fmt.Errorf("unknown language %q", lang)
	}
	if notation != merge.NotationStructuralClass {
		classLang = parse.LangTypeScript
	}
	return notation, classLang, nil
}

func readSnippet(cmd *cobra.Command) (string, error) {
	if mergeSnippet == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("reading snippet from stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(mergeSnippet)
	if err != nil {
		return "", fmt.Errorf("reading snippet: %w", err)
	}
	return string(data), nil
}

// cleanSnippet extracts code from a model reply. Fenced replies are always
// unwrapped when stripping is enabled; prose stripping needs --from-response.
func cleanSnippet(snippet string, lang parse.Language, notation merge.Notation) (string, error) {
	name := string(lang)
	switch notation {
	case merge.NotationFunctionUnit:
		name = "rust"
	case merge.NotationStyleRule:
		name = "css"
	case merge.NotationMarkup:
		name = "html"
	}

	if mergeFromResponse {
		return response.Extract(snippet, name)
	}
	if cfg.Response.Strip && len(response.Blocks(snippet)) > 0 {
		code, err := response.Extract(snippet, name)
		if errors.Is(err, response.ErrNoCode) {
			return snippet, nil
		}
		return code, err
	}
	return snippet, nil
}

func runMerge(cmd *cobra.Command, args []string) error {
	if mergeWrite && mergeOut != "" {
		return fmt.Errorf("--write and --out are mutually exclusive")
	}
	switch mergeReport {
	case "", "text", "json", "compact", "stats":
	default:
		return fmt.Errorf("unknown report format %q", mergeReport)
	}

	original, err := os.ReadFile(mergeOriginal)
	if err != nil {
		return fmt.Errorf("reading original file: %w", err)
	}
	snippet, err := readSnippet(cmd)
	if err != nil {
		return err
	}

	notation, lang, err := resolveNotation(mergeOriginal)
	if err != nil {
		return err
	}
	snippet, err = cleanSnippet(snippet, lang, notation)
	if err != nil {
		return err
	}

	m := merge.NewMerger(merge.WithLogger(logger), merge.WithClassLanguage(lang))
	result, err := m.MergeWithReport(string(original), snippet, notation)
	if err != nil {
		return fmt.Errorf("merge failed: %w", err)
	}

	summary := intent.GenerateIntent(result.Report, mergeOriginal)
	logger.Info(summary,
		zap.String("notation", string(notation)),
		zap.Int("changes", len(result.Report.Changes)),
		zap.Int("warnings", len(result.Report.Warnings)))
	for _, w := range result.Report.Warnings {
		logger.Warn(w)
	}

	fd := diff.NewDiffer(cfg.Diff.Context).DiffMerge(mergeOriginal, string(original), result.Text, result.Report)
	out := cmd.OutOrStdout()

	target := mergeOut
	if mergeWrite {
		target = mergeOriginal
	}
	switch {
	case target != "":
		if err := writeResult(target, []byte(result.Text), summary, fd); err != nil {
			return err
		}
	case !mergeDiff:
		fmt.Fprint(out, result.Text)
	}

	if mergeDiff {
		fmt.Fprint(out, fd.FormatUnified())
	}
	return printReport(out, fd)
}

func writeResult(target string, merged []byte, summary string, fd *diff.FileDiff) error {
	before, err := os.ReadFile(target)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("reading %s: %w", target, err)
	}

	if cfg.Journal.Enabled && !mergeNoJournal {
		if err := recordMerge(target, before, merged, summary, fd); err != nil {
			return err
		}
	}

	if err := os.WriteFile(target, merged, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", target, err)
	}
	logger.Debug("wrote merged file", zap.String("path", target))
	return nil
}

func printReport(out io.Writer, fd *diff.FileDiff) error {
	switch mergeReport {
	case "text":
		fmt.Fprint(out, fd.FormatText())
	case "json":
		data, err := fd.FormatJSON()
		if err != nil {
			return err
		}
		fmt.Fprintln(out, string(data))
	case "compact":
		if s := fd.FormatCompact(); s != "" {
			fmt.Fprintln(out, s)
		}
	case "stats":
		fmt.Fprintln(out, fd.FormatStats())
	}
	return nil
}

// journalKey is the path a file's merges are recorded under.
func journalKey(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return filepath.Clean(path)
	}
	return abs
}
