// Package sanitize removes unplaced, multiallelic and poorly genotyped sites
// from lifted-over trio VCFs.
package sanitize

import (
	"fmt"
	"io"
	"strings"

	"github.com/inodb/trioprep/internal/genotype"
	"github.com/inodb/trioprep/internal/vcf"
)

const contigPrefix = "##contig=<ID="

// DefaultMaxMissing is the number of samples allowed to lack a genotype call:
// the proband and at least one parent must be called.
const DefaultMaxMissing = 1

// DefaultChromosomes are the placed autosomes and sex chromosomes.
var DefaultChromosomes = []string{
	"chr1", "chr2", "chr3", "chr4", "chr5", "chr6", "chr7", "chr8", "chr9", "chr10",
	"chr11", "chr12", "chr13", "chr14", "chr15", "chr16", "chr17", "chr18", "chr19",
	"chr20", "chr21", "chr22", "chrX", "chrY",
}

// Counts records how many data records were kept or dropped, by reason.
type Counts struct {
	Kept           int
	DroppedChrom   int
	DroppedMulti   int
	DroppedNoCalls int
	DroppedContigs int // contig header lines removed
}

// Total returns the number of data records seen.
func (c Counts) Total() int {
	return c.Kept + c.DroppedChrom + c.DroppedMulti + c.DroppedNoCalls
}

// Sanitizer filters records to allowed chromosomes, biallelic sites and
// sites with enough called genotypes.
type Sanitizer struct {
	allowed    map[string]struct{}
	maxMissing int
}

// NewSanitizer creates a sanitizer keeping only the given chromosomes.
// Chromosome names are matched exactly as written in the file.
func NewSanitizer(allowed []string) *Sanitizer {
	s := &Sanitizer{
		allowed:    make(map[string]struct{}, len(allowed)),
		maxMissing: DefaultMaxMissing,
	}
	for _, c := range allowed {
		s.allowed[c] = struct{}{}
	}
	return s
}

// SetMaxMissing sets how many samples per record may lack a genotype call.
func (s *Sanitizer) SetMaxMissing(n int) {
	s.maxMissing = n
}

// Allowed reports whether chrom is on the allowed list.
func (s *Sanitizer) Allowed(chrom string) bool {
	_, ok := s.allowed[chrom]
	return ok
}

// KeepHeader reports whether a metadata line should be written. Contig
// declarations are kept only for allowed chromosomes.
func (s *Sanitizer) KeepHeader(line string) bool {
	if !strings.HasPrefix(line, contigPrefix) {
		return true
	}
	return s.Allowed(ContigID(line))
}

// ContigID extracts the ID from a "##contig=<ID=name,...>" line.
func ContigID(line string) string {
	id := strings.TrimPrefix(line, contigPrefix)
	if i := strings.IndexAny(id, ",>"); i >= 0 {
		id = id[:i]
	}
	return id
}

// Keep reports whether a data record passes every filter, and which counter
// it belongs to otherwise.
func (s *Sanitizer) Keep(rec *vcf.Record, counts *Counts) bool {
	switch {
	case !s.Allowed(rec.Chrom):
		counts.DroppedChrom++
	case rec.IsMultiallelic():
		counts.DroppedMulti++
	case MissingCalls(rec) > s.maxMissing:
		counts.DroppedNoCalls++
	default:
		counts.Kept++
		return true
	}
	return false
}

// MissingCalls counts the samples whose genotype is a no-call.
func MissingCalls(rec *vcf.Record) int {
	n := 0
	for _, gt := range rec.Genotypes() {
		if genotype.IsMissing(gt) {
			n++
		}
	}
	return n
}

// Sanitize streams records from r to w, dropping records and contig lines
// that fail the filters. Dropped records are only counted.
func (s *Sanitizer) Sanitize(r io.Reader, w io.Writer) (Counts, error) {
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

		switch line.Kind {
		case vcf.Meta:
			if !s.KeepHeader(line.Raw) {
				counts.DroppedContigs++
				continue
			}
		case vcf.Data:
			if !s.Keep(line.Record, &counts) {
				continue
			}
		}

		if err := out.WriteLine(line.Raw); err != nil {
			return counts, fmt.Errorf("write line: %w", err)
		}
	}

	if err := out.Flush(); err != nil {
		return counts, fmt.Errorf("flush output: %w", err)
	}
	return counts, nil
}
