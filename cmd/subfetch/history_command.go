package main

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"subfetch/internal/config"
	"subfetch/internal/fetcher"
	"subfetch/internal/history"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var runID string

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent per-file outcomes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if limit <= 0 {
				return usageErrorf("--limit must be positive")
			}
			return withHistory(cmd.Context(), ctx, func(store *history.Store) error {
				out := cmd.OutOrStdout()
				if runID != "" {
					counts, err := store.CountByStatus(cmd.Context(), runID)
					if err != nil {
						return err
					}
					if len(counts) == 0 {
						fmt.Fprintf(out, "No outcomes recorded for run %s\n", runID)
						return nil
					}
					fmt.Fprintln(out, renderRunCounts(counts))
					return nil
				}

				records, err := store.Recent(cmd.Context(), limit)
				if err != nil {
					return err
				}
				if len(records) == 0 {
					fmt.Fprintln(out, "No history recorded yet")
					return nil
				}
				fmt.Fprintln(out, renderHistory(records))
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of records to show")
	cmd.Flags().StringVar(&runID, "run", "", "Show per-status totals for one run id")
	cmd.AddCommand(newHistoryPruneCommand(ctx))
	return cmd
}

func newHistoryPruneCommand(ctx *commandContext) *cobra.Command {
	var days int

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete outcome records older than the retention window",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			retention := cfg.HistoryRetention()
			if cmd.Flags().Changed("days") {
				if days < 0 {
					return usageErrorf("--days must not be negative")
				}
				retention = time.Duration(days) * 24 * time.Hour
			}
			if retention <= 0 && !cmd.Flags().Changed("days") {
				return usageErrorf("history.retention_days is 0; pass --days to prune")
			}
			return withHistory(cmd.Context(), ctx, func(store *history.Store) error {
				removed, err := store.Prune(cmd.Context(), time.Now().Add(-retention))
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %d record(s) older than %d day(s)\n",
					removed, int(retention/(24*time.Hour)))
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&days, "days", 0, "Retention in days (default history.retention_days)")
	return cmd
}

func withHistory(ctx context.Context, cmdCtx *commandContext, fn func(*history.Store) error) error {
	cfg, err := cmdCtx.ensureConfig()
	if err != nil {
		return err
	}
	store, err := openHistory(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(store)
}

func openHistory(ctx context.Context, cfg *config.Config) (*history.Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, err
	}
	return history.Open(ctx, cfg.Paths.StateDir)
}

func renderHistory(records []history.Record) string {
	rows := make([][]string, 0, len(records))
	for _, rec := range records {
		detail := rec.CandidateTitle
		if rec.Error != "" {
			detail = rec.Error
		} else if detail == "" && rec.Query != "" {
			detail = "query: " + rec.Query
		}
		rows = append(rows, []string{
			rec.CreatedAt.Local().Format("2006-01-02 15:04"),
			filepath.Base(rec.Path),
			rec.Status,
			rec.Source,
			rec.Language,
			detail,
		})
	}
	return renderTable([]string{"When", "File", "Status", "Source", "Lang", "Detail"}, rows, nil)
}

// renderRunCounts lists known statuses in display order, then anything else
// the store holds.
func renderRunCounts(counts map[string]int) string {
	var rows [][]string
	seen := make(map[string]bool, len(counts))
	for _, status := range fetcher.Statuses {
		name := string(status)
		if n, ok := counts[name]; ok {
			rows = append(rows, []string{name, strconv.Itoa(n)})
			seen[name] = true
		}
	}
	var rest []string
	for name := range counts {
		if !seen[name] {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)
	for _, name := range rest {
		rows = append(rows, []string{name, strconv.Itoa(counts[name])})
	}
	return renderTable([]string{"Status", "Files"}, rows, []columnAlignment{alignLeft, alignRight})
}
