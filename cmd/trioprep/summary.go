package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/inodb/trioprep/internal/duckdb"
	"github.com/inodb/trioprep/internal/reconcile"
)

func newSummaryCmd(a *app) *cobra.Command {
	var runID string
	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Show statistics recorded with --stats-db",
		Long: `Print the per-run reconcile totals stored in the statistics database, or
the per-file results of one run when --run is given.`,
		Example: `  trioprep summary --stats-db runs.duckdb
  trioprep summary --stats-db runs.duckdb --run 5b1e...`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := viper.GetString("stats.db")
			if path == "" {
				return fmt.Errorf("--stats-db is required")
			}
			if _, err := os.Stat(path); err != nil {
				return fmt.Errorf("statistics database: %w", err)
			}
			store, err := duckdb.Open(path)
			if err != nil {
				return err
			}
			defer store.Close()

			if runID == "" {
				return printRunSummaries(cmd.OutOrStdout(), store)
			}
			return printRun(cmd.OutOrStdout(), store, runID)
		},
	}
	cmd.Flags().StringVar(&runID, "run", "", "Show per-file results of this run")
	return cmd
}

func printRunSummaries(out io.Writer, store *duckdb.Store) error {
	summaries, err := store.RunSummaries()
	if err != nil {
		return err
	}
	if len(summaries) == 0 {
		fmt.Fprintln(out, "No reconcile runs recorded.")
		return nil
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN\tFILES\tTOTAL\tKEPT\tFLIPPED\tMENDEL\tNO_MATCH\tRETAINED")
	for _, s := range summaries {
		c := reconcile.Counts{
			Kept:           s.Kept,
			Flipped:        s.Flipped,
			DroppedMendel:  s.DroppedMendel,
			DroppedNoMatch: s.DroppedNoMatch,
		}
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%d\t%d\t%d\t%.2f%%\n",
			s.RunID, s.Files, s.Total, s.Kept, s.Flipped, s.DroppedMendel, s.DroppedNoMatch,
			c.Percent(c.Retained()))
	}
	return tw.Flush()
}

func printRun(out io.Writer, store *duckdb.Store, runID string) error {
	rec, err := store.ReconcileResults(runID)
	if err != nil {
		return err
	}
	san, err := store.SanitizeResults(runID)
	if err != nil {
		return err
	}
	dd, err := store.DedupResults(runID)
	if err != nil {
		return err
	}
	if len(rec)+len(san)+len(dd) == 0 {
		return fmt.Errorf("no results recorded for run %s", runID)
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	if len(rec) > 0 {
		fmt.Fprintln(tw, "RECONCILE\tTOTAL\tKEPT\tFLIPPED\tMENDEL\tNO_MATCH")
		for _, r := range rec {
			c := r.Counts
			fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%d\t%d\n",
				r.File.Path, c.Total(), c.Kept, c.Flipped, c.DroppedMendel, c.DroppedNoMatch)
		}
		fmt.Fprintln(tw)
	}
	if len(san) > 0 {
		fmt.Fprintln(tw, "SANITIZE\tTOTAL\tKEPT\tCHROM\tMULTIALLELIC\tNO_CALLS\tCONTIGS")
		for _, r := range san {
			c := r.Counts
			fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%d\t%d\t%d\n",
				r.File.Path, c.Total(), c.Kept, c.DroppedChrom, c.DroppedMulti, c.DroppedNoCalls, c.DroppedContigs)
		}
		fmt.Fprintln(tw)
	}
	if len(dd) > 0 {
		fmt.Fprintln(tw, "DEDUP\tTOTAL\tCLEAN\tDUPLICATE\tPOSITIONS")
		for _, r := range dd {
			c := r.Counts
			fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%d\n",
				r.File.Path, c.Total(), c.Clean, c.Duplicate, c.Positions)
		}
	}
	return tw.Flush()
}
