// Package reconcile aligns phased trio records with a reference panel,
// flipping REF/ALT where the panel lists the swapped orientation and
// removing sites that cannot be reconciled.
package reconcile

import (
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/inodb/trioprep/internal/genotype"
	"github.com/inodb/trioprep/internal/vcf"
)

// SiteLookup reports whether a (pos, ref, alt) site is listed for a chromosome.
type SiteLookup interface {
	Contains(chrom, pos, ref, alt string) bool
}

// FlaggedPositions reports positions that must not be kept.
type FlaggedPositions interface {
	Has(pos string) bool
}

// Outcome is the reconciliation result for one record.
type Outcome int

const (
	// Kept records match the panel as written.
	Kept Outcome = iota
	// Flipped records match the panel with REF and ALT swapped.
	Flipped
	// DroppedMendel records match the panel but carry a Mendelian error.
	DroppedMendel
	// DroppedNoMatch records match the panel in neither orientation.
	DroppedNoMatch
)

func (o Outcome) String() string {
	switch o {
	case Kept:
		return "kept"
	case Flipped:
		return "flipped"
	case DroppedMendel:
		return "mendel_error"
	case DroppedNoMatch:
		return "no_reference_match"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

// Reconciler classifies and rewrites the records of one sample file.
type Reconciler struct {
	sites   SiteLookup
	flagged FlaggedPositions
	logger  *zap.Logger
}

// NewReconciler creates a reconciler. flagged may be nil when the sample has
// no Mendelian error annotations.
func NewReconciler(sites SiteLookup, flagged FlaggedPositions) *Reconciler {
	return &Reconciler{
		sites:   sites,
		flagged: flagged,
		logger:  zap.NewNop(),
	}
}

// SetLogger sets the logger used for per-site debug messages.
func (rc *Reconciler) SetLogger(l *zap.Logger) {
	rc.logger = l
}

// Classify decides the outcome for rec. For Flipped records it also returns
// the rewritten record; Kept returns rec itself and dropped outcomes nil.
func (rc *Reconciler) Classify(rec *vcf.Record) (Outcome, *vcf.Record) {
	var outcome Outcome
	switch {
	case rc.sites.Contains(rec.Chrom, rec.Pos, rec.Ref, rec.Alt):
		outcome = Kept
	case rc.sites.Contains(rec.Chrom, rec.Pos, rec.Alt, rec.Ref):
		outcome = Flipped
	default:
		return DroppedNoMatch, nil
	}

	if rc.flagged != nil && rc.flagged.Has(rec.Pos) {
		return DroppedMendel, nil
	}

	if outcome == Kept {
		return Kept, rec
	}
	return Flipped, Flip(rec)
}

// Flip returns rec with REF and ALT exchanged and every sample genotype
// re-encoded to match.
func Flip(rec *vcf.Record) *vcf.Record {
	gt := rec.GenotypeIndex()
	if gt < 0 {
		return rec.WithAlleles(rec.Alt, rec.Ref, nil)
	}

	samples := rec.Samples()
	flipped := make([]string, len(samples))
	for i, s := range samples {
		flipped[i] = genotype.FlipSample(s, gt)
	}
	return rec.WithAlleles(rec.Alt, rec.Ref, flipped)
}

// Reconcile streams records from r to w. Metadata and header lines pass
// through unchanged; Kept records are written as read, Flipped records are
// rewritten and dropped records are omitted. A malformed data line fails the
// whole stream.
func (rc *Reconciler) Reconcile(r io.Reader, w io.Writer) (Counts, error) {
	var counts Counts

	reader := vcf.NewReader(r)
	out := vcf.AsWriter(w)

	for {
		line, err := reader.Next()
		if err != nil {
			return counts, err
		}
		if line == nil {
			break
		}

		if line.Kind != vcf.Data {
			if err := out.WriteLine(line.Raw); err != nil {
				return counts, fmt.Errorf("write header: %w", err)
			}
			continue
		}

		outcome, rec := rc.Classify(line.Record)
		counts.Add(outcome)

		switch outcome {
		case Kept:
			err = out.WriteLine(line.Raw)
		case Flipped:
			err = out.WriteLine(rec.String())
		default:
			rc.logger.Debug("dropped site",
				zap.String("chrom", line.Record.Chrom),
				zap.String("pos", line.Record.Pos),
				zap.Stringer("reason", outcome))
		}
		if err != nil {
			return counts, fmt.Errorf("write record: %w", err)
		}
	}

	if err := out.Flush(); err != nil {
		return counts, fmt.Errorf("flush output: %w", err)
	}
	return counts, nil
}
