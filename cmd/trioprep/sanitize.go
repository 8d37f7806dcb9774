package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/inodb/trioprep/internal/duckdb"
	"github.com/inodb/trioprep/internal/pipeline"
	"github.com/inodb/trioprep/internal/sanitize"
)

// addSanitizeFlags registers the site filter flags shared by sanitize and prep.
func addSanitizeFlags(cmd *cobra.Command) {
	cmd.Flags().StringSlice("chromosomes", nil, "Chromosomes to keep (default: chr1-chr22, chrX, chrY)")
	cmd.Flags().Int("max-missing", sanitize.DefaultMaxMissing, "Drop sites with more than this many no-call samples")
}

// bindSanitizeFlags binds the flags of the command actually being run, since
// sanitize and prep register flags with the same names.
func bindSanitizeFlags(cmd *cobra.Command) {
	viper.BindPFlag("chromosomes.sanitize", cmd.Flags().Lookup("chromosomes"))
	viper.BindPFlag("sanitize.max_missing", cmd.Flags().Lookup("max-missing"))
}

func newSanitizer() *sanitize.Sanitizer {
	allowed := viper.GetStringSlice("chromosomes.sanitize")
	if len(allowed) == 0 {
		allowed = sanitize.DefaultChromosomes
	}
	san := sanitize.NewSanitizer(allowed)
	san.SetMaxMissing(viper.GetInt("sanitize.max_missing"))
	return san
}

func newSanitizeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sanitize [flags] <lifted.vcf>...",
		Short: "Remove ambiguous sites from lifted-over trio VCFs",
		Long: `Drop records on non-canonical chromosomes, multiallelic records, and
records with too many no-call genotypes. Contig header lines for dropped
chromosomes are removed as well.`,
		Args: cobra.MinimumNArgs(1),
		PreRun: func(cmd *cobra.Command, args []string) {
			bindSanitizeFlags(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSanitize(a, args)
		},
	}
	addSanitizeFlags(cmd)
	return cmd
}

func runSanitize(a *app, inputs []string) error {
	san := newSanitizer()

	stats, err := a.openStats()
	if err != nil {
		return err
	}
	if stats != nil {
		defer stats.Close()
	}

	st := a.stages()
	results, runErr := pipeline.RunExclusive(inputs, a.workers(), st.SanitizeOutput, func(path string) (pipeline.SanitizeReport, error) {
		return st.SanitizeFile(san, path)
	})

	if stats != nil {
		var rows []duckdb.SanitizeResult
		for _, r := range results {
			if r.Err != nil || r.Skipped {
				continue
			}
			rows = append(rows, sanitizeRow(a.runID, r.Path, r.Value))
		}
		if err := stats.WriteSanitizeResults(rows); err != nil {
			a.logger.Warn("could not record run statistics", zap.Error(err))
		}
	}

	return finish(a, "sanitize", results, runErr)
}

func sanitizeRow(runID, path string, rep pipeline.SanitizeReport) duckdb.SanitizeResult {
	return duckdb.SanitizeResult{RunID: runID, File: duckdb.StatFile(path), Counts: rep.Counts}
}

func dedupRow(runID, path string, rep pipeline.DedupReport) duckdb.DedupResult {
	return duckdb.DedupResult{RunID: runID, File: duckdb.StatFile(path), Counts: rep.Counts}
}
