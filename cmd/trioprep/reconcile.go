package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/inodb/trioprep/internal/duckdb"
	"github.com/inodb/trioprep/internal/legend"
	"github.com/inodb/trioprep/internal/pipeline"
)

func newReconcileCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reconcile [flags] <phased.vcf>...",
		Short: "Align trio genotypes with the reference panel",
		Long: `Reconcile each phased trio VCF against the legend files of a reference panel.

Sites whose REF/ALT match the panel are kept, sites that match with the alleles
swapped are flipped (alleles and 0/1 genotype codes), and sites absent from the
panel or listed as Mendelian errors in <sample>.snp.me are dropped.`,
		Example: `  trioprep reconcile --legend '/ref/1000GP_chr*.legend.gz' trio1.vcf.gz trio2.vcf.gz
  trioprep reconcile -j 8 --gzip --stats-db runs.duckdb *.vcf`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReconcile(a, args)
		},
	}

	cmd.Flags().StringSlice("legend", nil, "Legend file paths or glob patterns (repeatable)")
	viper.BindPFlag("legend.paths", cmd.Flags().Lookup("legend"))

	return cmd
}

func runReconcile(a *app, inputs []string) error {
	paths, err := legend.Glob(viper.GetStringSlice("legend.paths"))
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return fmt.Errorf("no legend files found (set --legend or legend.paths)")
	}

	a.logger.Info("loading reference panel", zap.Int("legend_files", len(paths)))
	idx, err := legend.Build(paths, a.workers())
	if err != nil {
		return fmt.Errorf("load legend files: %w", err)
	}
	a.logger.Info("reference panel loaded",
		zap.Strings("chromosomes", idx.Chromosomes()),
		zap.Int("sites", idx.SiteCount()))

	stats, err := a.openStats()
	if err != nil {
		return err
	}
	if stats != nil {
		defer stats.Close()
	}

	st := a.stages()
	results, runErr := pipeline.RunExclusive(inputs, a.workers(), st.ReconcileOutput, func(path string) (pipeline.ReconcileReport, error) {
		return st.ReconcileFile(idx, path)
	})

	if stats != nil {
		var rows []duckdb.ReconcileResult
		for _, r := range results {
			if r.Err != nil || r.Skipped {
				continue
			}
			rows = append(rows, duckdb.ReconcileResult{
				RunID:  a.runID,
				File:   duckdb.StatFile(r.Path),
				Counts: r.Value.Counts,
			})
		}
		if err := stats.WriteReconcileResults(rows); err != nil {
			a.logger.Warn("could not record run statistics", zap.Error(err))
		}
	}

	return finish(a, "reconcile", results, runErr)
}
