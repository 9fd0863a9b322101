package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hongsw/CodeBridge/cas"
	"github.com/hongsw/CodeBridge/diff"
	"github.com/hongsw/CodeBridge/store"
)

var undoCmd = &cobra.Command{
	Use:   "undo <file>",
	Short: "Restore a file to its content before the last recorded merge",
	Args:  cobra.ExactArgs(1),
	RunE:  runUndo,
}

var historyCmd = &cobra.Command{
	Use:   "history [file]",
	Short: "List recorded merges, newest first",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runHistory,
}

var (
	undoForce    bool
	historyLimit int
	historyJSON  bool
)

func init() {
	undoCmd.Flags().BoolVar(&undoForce, "force", false, "Restore even if the file changed since the merge")
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Number of entries to show (0 for all)")
	historyCmd.Flags().BoolVar(&historyJSON, "json", false, "Output as JSON")
}

func openJournal() (*store.Journal, error) {
	return store.Open(cfg.Journal.Path)
}

func recordMerge(target string, before, after []byte, summary string, fd *diff.FileDiff) error {
	j, err := openJournal()
	if err != nil {
		return err
	}
	defer j.Close()

	e := &store.Entry{
		Path:     journalKey(target),
		Notation: fd.Notation,
		Intent:   summary,
		Summary:  fd.FormatStats(),
		Warnings: fd.Warnings,
	}
	if err := j.Record(e, before, after); err != nil {
		return fmt.Errorf("recording merge: %w", err)
	}
	logger.Debug("recorded merge", zap.String("id", e.ID), zap.String("path", e.Path))
	return nil
}

func runUndo(cmd *cobra.Command, args []string) error {
	path := args[0]

	j, err := openJournal()
	if err != nil {
		return err
	}
	defer j.Close()

	key := journalKey(path)
	latest, err := j.Latest(key)
	if err != nil {
		return err
	}

	current, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	if !undoForce && cas.Blake3HashHex(current) != latest.After {
		return fmt.Errorf("%s changed since merge %s; use --force to restore anyway", path, shortID(latest.ID))
	}

	e, before, err := j.Pop(key)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, before, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Restored %s (undid %s: %s)\n", path, shortID(e.ID), e.Intent)
	return nil
}

func runHistory(cmd *cobra.Command, args []string) error {
	j, err := openJournal()
	if err != nil {
		return err
	}
	defer j.Close()

	key := ""
	if len(args) == 1 {
		key = journalKey(args[0])
	}
	entries, err := j.History(key, historyLimit)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if historyJSON {
		if entries == nil {
			entries = []*store.Entry{}
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	}

	if len(entries) == 0 {
		fmt.Fprintln(out, "No merges recorded.")
		return nil
	}
	for _, e := range entries {
		when := time.UnixMilli(e.CreatedAt).Format("2006-01-02 15:04:05")
		fmt.Fprintf(out, "%s  %s  %-18s  %s\n", shortID(e.ID), when, e.Notation, e.Path)
		fmt.Fprintf(out, "    %s\n", e.Intent)
		if e.Summary != "" {
			fmt.Fprintf(out, "    %s\n", e.Summary)
		}
	}
	return nil
}

// shortID safely truncates an ID string to 12 characters.
func shortID(s string) string {
	if len(s) >= 12 {
		return s[:12]
	}
	return s
}
