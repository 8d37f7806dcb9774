package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/inodb/trioprep/internal/duckdb"
	"github.com/inodb/trioprep/internal/pipeline"
)

func newPrepCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prep [flags] <lifted.vcf>...",
		Short: "Sanitize then deduplicate each lifted-over VCF",
		Long: `Run sanitize followed by dedup on each input. The intermediate
<name>_no_ambiguous_sites file is kept alongside the final outputs.`,
		Args: cobra.MinimumNArgs(1),
		PreRun: func(cmd *cobra.Command, args []string) {
			bindSanitizeFlags(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPrep(a, args)
		},
	}
	addSanitizeFlags(cmd)
	return cmd
}

func runPrep(a *app, inputs []string) error {
	san := newSanitizer()

	stats, err := a.openStats()
	if err != nil {
		return err
	}
	if stats != nil {
		defer stats.Close()
	}

	st := a.stages()
	results, runErr := pipeline.RunExclusive(inputs, a.workers(), st.PrepOutput, func(path string) (pipeline.PrepReport, error) {
		return st.PrepFile(san, path)
	})

	if stats != nil {
		var sanRows []duckdb.SanitizeResult
		var dedupRows []duckdb.DedupResult
		for _, r := range results {
			if r.Err != nil || r.Skipped {
				continue
			}
			sanRows = append(sanRows, sanitizeRow(a.runID, r.Path, r.Value.Sanitize))
			dedupRows = append(dedupRows, dedupRow(a.runID, r.Value.Dedup.Input, r.Value.Dedup))
		}
		err := multierr.Append(
			stats.WriteSanitizeResults(sanRows),
			stats.WriteDedupResults(dedupRows),
		)
		if err != nil {
			a.logger.Warn("could not record run statistics", zap.Error(err))
		}
	}

	return finish(a, "prep", results, runErr)
}
