package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/inodb/trioprep/internal/duckdb"
	"github.com/inodb/trioprep/internal/pipeline"
)

func newDedupCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "dedup [flags] <sanitized.vcf>...",
		Short: "Split records at duplicated positions into a separate file",
		Long: `Scan each VCF for chromosome/position pairs that occur more than once.
Every record at such a position goes to <name>_removedDuplicates; all other
records go to <name>_liftover_parsed. Both outputs keep the full header.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDedup(a, args)
		},
	}
}

func runDedup(a *app, inputs []string) error {
	stats, err := a.openStats()
	if err != nil {
		return err
	}
	if stats != nil {
		defer stats.Close()
	}

	st := a.stages()
	results, runErr := pipeline.RunExclusive(inputs, a.workers(), st.DedupOutput, st.DedupFile)

	if stats != nil {
		var rows []duckdb.DedupResult
		for _, r := range results {
			if r.Err != nil || r.Skipped {
				continue
			}
			rows = append(rows, dedupRow(a.runID, r.Path, r.Value))
		}
		if err := stats.WriteDedupResults(rows); err != nil {
			a.logger.Warn("could not record run statistics", zap.Error(err))
		}
	}

	return finish(a, "dedup", results, runErr)
}
