package pipeline

import (
	"errors"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/inodb/trioprep/internal/dedup"
	"github.com/inodb/trioprep/internal/mendel"
	"github.com/inodb/trioprep/internal/reconcile"
	"github.com/inodb/trioprep/internal/sanitize"
	"github.com/inodb/trioprep/internal/vcf"
)

// ErrStdinInput is returned for the "-" input. Outputs and the mendel file
// are named after the input file, and dedup reads its input twice.
var ErrStdinInput = errors.New("stdin input is not supported, pass a file path")

// Options controls where and how stage outputs are written.
type Options struct {
	OutputDir string // defaults to each input's directory
	Compress  bool   // gzip outputs
	Force     bool   // overwrite existing outputs instead of skipping
}

// Stages runs the single-file stages. It holds no per-file state and is
// safe to use from multiple goroutines.
type Stages struct {
	opts   Options
	logger *zap.Logger
}

// NewStages creates a stage runner.
func NewStages(opts Options) *Stages {
	return &Stages{opts: opts, logger: zap.NewNop()}
}

// SetLogger sets the logger for per-file summaries.
func (s *Stages) SetLogger(l *zap.Logger) {
	s.logger = l
}

// ReconcileOutput is the path ReconcileFile writes for in.
func (s *Stages) ReconcileOutput(in string) string {
	return OutputPath(in, s.opts.OutputDir, "", ReconciledSuffix, s.opts.Compress)
}

// SanitizeOutput is the path SanitizeFile writes for in.
func (s *Stages) SanitizeOutput(in string) string {
	return OutputPath(in, s.opts.OutputDir, LiftoverSuffix, SanitizedSuffix, s.opts.Compress)
}

// DedupOutput is the clean path DedupFile writes for in. The duplicates
// output shares its base name.
func (s *Stages) DedupOutput(in string) string {
	return OutputPath(in, s.opts.OutputDir, SanitizedSuffix, CleanSuffix, s.opts.Compress)
}

// PrepOutput is the final clean path PrepFile writes for in.
func (s *Stages) PrepOutput(in string) string {
	return OutputPath(s.SanitizeOutput(in), "", SanitizedSuffix, CleanSuffix, s.opts.Compress)
}

// ReconcileReport describes one reconciled file.
type ReconcileReport struct {
	Input      string
	Output     string
	MendelFile string
	Counts     reconcile.Counts
}

// SanitizeReport describes one sanitized file.
type SanitizeReport struct {
	Input  string
	Output string
	Counts sanitize.Counts
}

// DedupReport describes one deduplicated file.
type DedupReport struct {
	Input      string
	Clean      string
	Duplicates string
	Counts     dedup.Counts
}

// PrepReport describes a sanitize followed by dedup of one liftover file.
type PrepReport struct {
	Sanitize SanitizeReport
	Dedup    DedupReport
}

// ReconcileFile reconciles a phased sample file against sites, dropping
// positions listed in the sample's .snp.me file when one exists.
func (s *Stages) ReconcileFile(sites reconcile.SiteLookup, in string) (ReconcileReport, error) {
	if in == "-" {
		return ReconcileReport{Input: in}, ErrStdinInput
	}
	report := ReconcileReport{
		Input:      in,
		Output:     s.ReconcileOutput(in),
		MendelFile: mendel.PathFor(in),
	}
	if err := s.checkExisting(report.Output); err != nil {
		return report, err
	}

	flagged, err := mendel.Load(report.MendelFile)
	if err != nil {
		return report, err
	}

	src, err := vcf.OpenFile(in)
	if err != nil {
		return report, err
	}
	defer src.Close()

	rc := reconcile.NewReconciler(sites, flagged)
	rc.SetLogger(s.logger.With(zap.String("file", in)))

	err = writeOutputs([]string{report.Output}, s.opts.Compress, func(ws []io.Writer) error {
		var err error
		report.Counts, err = rc.Reconcile(src, ws[0])
		return err
	})
	if err != nil {
		return report, err
	}

	c := report.Counts
	s.logger.Info("reconciled",
		zap.String("file", in),
		zap.Int("mendel_errors_listed", len(flagged)),
		zap.Int("total", c.Total()),
		zap.Int("kept", c.Kept),
		zap.Float64("kept_pct", c.Percent(c.Kept)),
		zap.Int("flipped", c.Flipped),
		zap.Float64("flipped_pct", c.Percent(c.Flipped)),
		zap.Int("dropped_mendel", c.DroppedMendel),
		zap.Int("dropped_no_match", c.DroppedNoMatch),
		zap.Float64("dropped_pct", c.Percent(c.Dropped())),
		zap.Float64("retained_pct", c.Percent(c.Retained())))
	return report, nil
}

// SanitizeFile writes the sanitized form of a liftover file.
func (s *Stages) SanitizeFile(san *sanitize.Sanitizer, in string) (SanitizeReport, error) {
	if in == "-" {
		return SanitizeReport{Input: in}, ErrStdinInput
	}
	out := s.SanitizeOutput(in)
	if err := s.checkExisting(out); err != nil {
		return SanitizeReport{Input: in, Output: out}, err
	}
	return s.sanitize(san, in, out)
}

func (s *Stages) sanitize(san *sanitize.Sanitizer, in, out string) (SanitizeReport, error) {
	report := SanitizeReport{Input: in, Output: out}

	src, err := vcf.OpenFile(in)
	if err != nil {
		return report, err
	}
	defer src.Close()

	err = writeOutputs([]string{out}, s.opts.Compress, func(ws []io.Writer) error {
		var err error
		report.Counts, err = san.Sanitize(src, ws[0])
		return err
	})
	if err != nil {
		return report, err
	}

	c := report.Counts
	s.logger.Info("sanitized",
		zap.String("file", in),
		zap.Int("total", c.Total()),
		zap.Int("kept", c.Kept),
		zap.Int("dropped_chrom", c.DroppedChrom),
		zap.Int("dropped_multiallelic", c.DroppedMulti),
		zap.Int("dropped_no_calls", c.DroppedNoCalls),
		zap.Int("dropped_contigs", c.DroppedContigs))
	return report, nil
}

// DedupFile splits a sanitized file into clean and duplicate-position outputs.
func (s *Stages) DedupFile(in string) (DedupReport, error) {
	if in == "-" {
		return DedupReport{Input: in}, ErrStdinInput
	}
	clean := s.DedupOutput(in)
	if err := s.checkExisting(clean); err != nil {
		return DedupReport{Input: in, Clean: clean}, err
	}
	return s.dedup(in)
}

func (s *Stages) dedup(in string) (DedupReport, error) {
	report := DedupReport{
		Input:      in,
		Clean:      s.DedupOutput(in),
		Duplicates: OutputPath(in, s.opts.OutputDir, SanitizedSuffix, DuplicatesSuffix, s.opts.Compress),
	}

	open := func() (io.ReadCloser, error) { return vcf.OpenFile(in) }
	err := writeOutputs([]string{report.Clean, report.Duplicates}, s.opts.Compress, func(ws []io.Writer) error {
		var err error
		report.Counts, err = dedup.Resolve(open, ws[0], ws[1])
		return err
	})
	if err != nil {
		return report, err
	}

	s.logger.Info("deduplicated",
		zap.String("file", in),
		zap.Int("clean", report.Counts.Clean),
		zap.Int("duplicate", report.Counts.Duplicate),
		zap.Int("duplicate_positions", report.Counts.Positions))
	return report, nil
}

// PrepFile sanitizes a liftover file and deduplicates the result. The
// file is skipped when its final clean output already exists.
func (s *Stages) PrepFile(san *sanitize.Sanitizer, in string) (PrepReport, error) {
	var report PrepReport
	if in == "-" {
		return report, ErrStdinInput
	}

	sanitized := s.SanitizeOutput(in)
	if err := s.checkExisting(s.PrepOutput(in)); err != nil {
		return report, err
	}

	var err error
	report.Sanitize, err = s.sanitize(san, in, sanitized)
	if err != nil {
		return report, fmt.Errorf("sanitize: %w", err)
	}

	report.Dedup, err = s.dedup(sanitized)
	if err != nil {
		return report, fmt.Errorf("dedup: %w", err)
	}
	return report, nil
}

// checkExisting returns ErrSkipped when path exists and Force is not set.
func (s *Stages) checkExisting(path string) error {
	if s.opts.Force {
		return nil
	}
	if _, err := os.Stat(path); err == nil {
		return ErrSkipped
	}
	return nil
}

// writeOutputs creates a temporary file for every path, calls fn with their
// writers and renames them into place only if every step succeeds.
func writeOutputs(paths []string, compress bool, fn func(ws []io.Writer) error) (err error) {
	writers := make([]*vcf.Writer, 0, len(paths))
	tmps := make([]string, 0, len(paths))

	defer func() {
		if err != nil {
			for _, tmp := range tmps {
				os.Remove(tmp)
			}
		}
	}()

	for _, path := range paths {
		tmp := path + ".tmp"
		w, cerr := vcf.Create(tmp, compress)
		if cerr != nil {
			for _, w := range writers {
				w.Close()
			}
			return cerr
		}
		writers = append(writers, w)
		tmps = append(tmps, tmp)
	}

	ws := make([]io.Writer, len(writers))
	for i, w := range writers {
		ws[i] = w
	}
	fnErr := fn(ws)

	for _, w := range writers {
		if cerr := w.Close(); cerr != nil && fnErr == nil {
			fnErr = cerr
		}
	}
	if fnErr != nil {
		return fnErr
	}

	for i, tmp := range tmps {
		if rerr := os.Rename(tmp, paths[i]); rerr != nil {
			return fmt.Errorf("rename output: %w", rerr)
		}
	}
	return nil
}
