/*
Copyright © 2026 Cristian Oliveira <license@cristianoliveira.dev>
*/
package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/Sirkin25/sirkin-dashboard-sub000/internal/config"
	"github.com/Sirkin25/sirkin-dashboard-sub000/internal/store"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
)

const historyCommandLong = `List recent refresh runs, newest first.

USAGE:
    sirkin history [OPTIONS]

OPTIONS:
    --limit N          Number of runs to show (default: 20, 0 for all)
    --failed           Show only failed runs
    --json             Print JSON instead of a table
    --prune-days N     Delete runs older than N days before listing`

// historyStore is the part of the store the history command needs.
type historyStore interface {
	ListRuns(ctx context.Context, limit int) ([]store.Run, error)
	PruneRuns(ctx context.Context, cutoff time.Time) (int64, error)
	Close() error
}

func openHistoryStore() (historyStore, error) {
	return store.Open(config.Get("db_path", ""))
}

type historyOptions struct {
	limit     int
	failed    bool
	asJSON    bool
	pruneDays int
}

// NewHistoryCmd creates the history command.
func NewHistoryCmd(open func() (historyStore, error)) *cobra.Command {
	var opts historyOptions
	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent refresh runs",
		Long:  historyCommandLong,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.limit < 0 {
				return fmt.Errorf("history: --limit must not be negative")
			}
			st, err := open()
			if err != nil {
				return err
			}
			defer st.Close()
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			return runHistory(ctx, cmd.OutOrStdout(), st, opts, time.Now())
		},
	}
	historyCmd.Flags().IntVar(&opts.limit, "limit", 20, "Number of runs to show")
	historyCmd.Flags().BoolVar(&opts.failed, "failed", false, "Show only failed runs")
	historyCmd.Flags().BoolVar(&opts.asJSON, "json", false, "Print JSON")
	historyCmd.Flags().IntVar(&opts.pruneDays, "prune-days", 0, "Delete runs older than N days first")
	return historyCmd
}

func runHistory(ctx context.Context, w io.Writer, st historyStore, opts historyOptions, now time.Time) error {
	if opts.pruneDays > 0 {
		removed, err := st.PruneRuns(ctx, now.AddDate(0, 0, -opts.pruneDays))
		if err != nil {
			return fmt.Errorf("history: prune: %w", err)
		}
		fmt.Fprintf(w, "Pruned %d runs\n", removed)
	}

	limit := opts.limit
	if opts.failed {
		limit = 0
	}
	runs, err := st.ListRuns(ctx, limit)
	if err != nil {
		return fmt.Errorf("history: %w", err)
	}
	if opts.failed {
		runs = failedRuns(runs, opts.limit)
	}

	if opts.asJSON {
		if runs == nil {
			runs = []store.Run{}
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(runs)
	}

	if len(runs) == 0 {
		fmt.Fprintln(w, "No refresh runs recorded")
		return nil
	}
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("STARTED", "TAB", "DURATION", "RESULT")
	for _, r := range runs {
		result := "ok"
		if r.Failed() {
			result = r.Error
		}
		t.Row(
			r.StartedAt.Local().Format("2006-01-02 15:04:05"),
			r.Tab,
			r.FinishedAt.Sub(r.StartedAt).Round(time.Millisecond).String(),
			result,
		)
	}
	_, err = fmt.Fprintln(w, t.String())
	return err
}

// failedRuns keeps failed runs, at most limit of them when limit > 0.
func failedRuns(runs []store.Run, limit int) []store.Run {
	var out []store.Run
	for _, r := range runs {
		if !r.Failed() {
			continue
		}
		out = append(out, r)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}
