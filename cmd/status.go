package main

import (
	"fmt"
	"io"
	"os"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/dexsync/dexsync/internal/model"
	"github.com/dexsync/dexsync/internal/store"
)

var statusRuns int

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show table row counts and recent sync runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := store.New(cfg.Store.Path)
		if err != nil {
			return eris.Wrap(err, "status: open store")
		}
		defer st.Close() //nolint:errcheck

		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "status: migrate")
		}

		counts, err := st.Counts(ctx)
		if err != nil {
			return eris.Wrap(err, "status: counts")
		}
		runs, err := st.RecentRuns(ctx, statusRuns)
		if err != nil {
			return eris.Wrap(err, "status: runs")
		}

		formatStatus(os.Stdout, counts, runs)
		return nil
	},
}

func init() {
	statusCmd.Flags().IntVar(&statusRuns, "runs", 10, "number of recent runs to show")
	rootCmd.AddCommand(statusCmd)
}

// formatStatus writes a tabular status report to w.
func formatStatus(out io.Writer, counts map[string]int64, runs []model.SyncRun) {
	tables := make([]string, 0, len(counts))
	for table := range counts {
		tables = append(tables, table)
	}
	sort.Strings(tables)

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "TABLE\tROWS")
	for _, table := range tables {
		_, _ = fmt.Fprintf(w, "%s\t%d\n", table, counts[table])
	}
	_ = w.Flush()

	if len(runs) == 0 {
		_, _ = fmt.Fprintln(out, "\nno sync runs recorded, run 'dexsync sync' first")
		return
	}

	_, _ = fmt.Fprintln(out)
	w = tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "RUN\tSTATUS\tSTARTED\tDURATION\tFETCHED\tLOADED\tERROR")
	for _, r := range runs {
		dur := "-"
		if r.FinishedAt != nil {
			dur = r.FinishedAt.Sub(r.StartedAt).Round(time.Millisecond).String()
		}
		errMsg := r.Error
		// Truncate on runes so a multibyte message is never split mid-rune.
		if runes := []rune(errMsg); len(runes) > 40 {
			errMsg = string(runes[:40]) + "..."
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%d\t%s\n",
			r.ID[:8], r.Status, r.StartedAt.Format(time.RFC3339), dur, r.Fetched, r.Loaded, errMsg)
	}
	_ = w.Flush()
}
