// Package main provides the trioprep command-line tool.
package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/inodb/trioprep/internal/duckdb"
	"github.com/inodb/trioprep/internal/pipeline"
	"github.com/inodb/trioprep/internal/sanitize"
)

// Exit codes
const (
	ExitSuccess = 0
	ExitError   = 1
)

// Version information (set at build time)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// app carries state shared by every subcommand of one invocation.
type app struct {
	cfgFile string
	verbose bool
	logger  *zap.Logger
	runID   string
	start   time.Time
}

func main() {
	os.Exit(run())
}

func run() int {
	a := &app{}
	if err := newRootCmd(a).Execute(); err != nil {
		return ExitError
	}
	return ExitSuccess
}

func newRootCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "trioprep",
		Short: "Prepare phased trio VCFs for family analysis",
		Long: `trioprep reconciles phased trio genotypes with a reference haplotype panel
and removes ambiguous or duplicated sites from lifted-over trio VCFs.`,
		Version:      fmt.Sprintf("%s (%s) built %s", version, commit, date),
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := initConfig(a.cfgFile); err != nil {
				return err
			}
			logger, err := newLogger(a.verbose)
			if err != nil {
				return fmt.Errorf("create logger: %w", err)
			}
			a.logger = logger
			a.runID = uuid.NewString()
			a.start = time.Now()
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				a.logger.Sync()
			}
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&a.cfgFile, "config", "", "Config file (default: ~/.trioprep.yaml)")
	pf.BoolVarP(&a.verbose, "verbose", "v", false, "Human-readable debug logging")
	pf.IntP("workers", "j", runtime.NumCPU(), "Number of files processed concurrently")
	pf.StringP("output-dir", "o", "", "Directory for outputs (default: next to each input)")
	pf.Bool("gzip", false, "Gzip-compress outputs")
	pf.Bool("force", false, "Overwrite existing outputs instead of skipping the file")
	pf.String("stats-db", "", "DuckDB file recording per-file results")

	viper.BindPFlag("workers", pf.Lookup("workers"))
	viper.BindPFlag("output.dir", pf.Lookup("output-dir"))
	viper.BindPFlag("output.gzip", pf.Lookup("gzip"))
	viper.BindPFlag("output.force", pf.Lookup("force"))
	viper.BindPFlag("stats.db", pf.Lookup("stats-db"))

	cmd.AddCommand(newReconcileCmd(a))
	cmd.AddCommand(newSanitizeCmd(a))
	cmd.AddCommand(newDedupCmd(a))
	cmd.AddCommand(newPrepCmd(a))
	cmd.AddCommand(newSummaryCmd(a))
	cmd.AddCommand(newConfigCmd())

	return cmd
}

// initConfig reads the config file and environment.
func initConfig(cfgFile string) error {
	viper.SetDefault("workers", runtime.NumCPU())
	viper.SetDefault("chromosomes.sanitize", sanitize.DefaultChromosomes)
	viper.SetDefault("sanitize.max_missing", sanitize.DefaultMaxMissing)

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home)
		}
		viper.SetConfigName(".trioprep")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("TRIOPREP")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("read config: %w", err)
		}
	}
	return nil
}

// newLogger builds a JSON production logger, or a console logger at debug
// level when verbose is set. Both write to stderr.
func newLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// stages builds the per-file stage runner from configuration.
func (a *app) stages() *pipeline.Stages {
	st := pipeline.NewStages(pipeline.Options{
		OutputDir: viper.GetString("output.dir"),
		Compress:  viper.GetBool("output.gzip"),
		Force:     viper.GetBool("output.force"),
	})
	st.SetLogger(a.logger)
	return st
}

// workers returns the configured concurrency budget.
func (a *app) workers() int {
	n := viper.GetInt("workers")
	if n <= 0 {
		n = runtime.NumCPU()
	}
	return n
}

// openStats opens the run ledger, or returns nil when none is configured.
func (a *app) openStats() (*duckdb.Store, error) {
	path := viper.GetString("stats.db")
	if path == "" {
		return nil, nil
	}
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	return duckdb.Open(path)
}

// finish logs the outcome of a multi-file run.
func finish[T any](a *app, command string, results []pipeline.Result[T], runErr error) error {
	var done, skipped, failed int
	for _, r := range results {
		switch {
		case r.Err != nil:
			failed++
			a.logger.Error("file failed", zap.String("file", r.Path), zap.Error(r.Err))
		case r.Skipped:
			skipped++
			a.logger.Info("output exists, skipped", zap.String("file", r.Path))
		default:
			done++
		}
	}

	elapsed := time.Since(a.start)
	a.logger.Info("done",
		zap.String("command", command),
		zap.String("run_id", a.runID),
		zap.Int("processed", done),
		zap.Int("skipped", skipped),
		zap.Int("failed", failed),
		zap.Duration("elapsed", elapsed))

	if runErr != nil {
		return fmt.Errorf("%d of %d files failed: %w", failed, len(results), runErr)
	}
	return nil
}
