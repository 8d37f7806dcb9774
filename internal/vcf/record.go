package vcf

import "strings"

// Record is a parsed VCF data line. A Record is never modified after it is
// read; rewrites produce a new Record.
type Record struct {
	Chrom string // Chromosome name (e.g., "1", "chr1")
	Pos   string // 1-based genomic position, as written in the file
	Ref   string // Reference allele
	Alt   string // Alternate allele(s), comma separated when multiallelic

	fields []string
	cols   Columns
}

// Fields returns all tab-separated fields of the record. Callers must not
// modify the returned slice.
func (r *Record) Fields() []string {
	return r.fields
}

// Format returns the FORMAT column, or "" when the record has none.
func (r *Record) Format() string {
	if r.cols.Format < 0 {
		return ""
	}
	return r.fields[r.cols.Format]
}

// Samples returns the per-sample columns following FORMAT.
func (r *Record) Samples() []string {
	if r.cols.Format < 0 {
		return nil
	}
	return r.fields[r.cols.Format+1:]
}

// GenotypeIndex returns the position of the GT key within FORMAT, or -1.
func (r *Record) GenotypeIndex() int {
	format := r.Format()
	if format == "" {
		return -1
	}
	for i, key := range strings.Split(format, ":") {
		if key == "GT" {
			return i
		}
	}
	return -1
}

// Genotypes returns the GT value of every sample. Samples lacking a GT
// sub-field are returned as "".
func (r *Record) Genotypes() []string {
	gt := r.GenotypeIndex()
	if gt < 0 {
		return nil
	}
	samples := r.Samples()
	out := make([]string, len(samples))
	for i, s := range samples {
		parts := strings.Split(s, ":")
		if gt < len(parts) {
			out[i] = parts[gt]
		}
	}
	return out
}

// IsMultiallelic returns true if the ALT column lists more than one allele.
func (r *Record) IsMultiallelic() bool {
	return strings.Contains(r.Alt, ",")
}

// WithAlleles returns a copy of the record with REF, ALT and the sample
// columns replaced. A nil samples slice keeps the original sample columns.
func (r *Record) WithAlleles(ref, alt string, samples []string) *Record {
	fields := make([]string, len(r.fields))
	copy(fields, r.fields)
	fields[r.cols.Ref] = ref
	fields[r.cols.Alt] = alt
	if samples != nil && r.cols.Format >= 0 {
		copy(fields[r.cols.Format+1:], samples)
	}
	return &Record{
		Chrom:  r.Chrom,
		Pos:    r.Pos,
		Ref:    ref,
		Alt:    alt,
		fields: fields,
		cols:   r.cols,
	}
}

// String returns the record as a tab-delimited VCF line without newline.
func (r *Record) String() string {
	return strings.Join(r.fields, "\t")
}

// NormalizeChrom returns the chromosome name without "chr" prefix.
func NormalizeChrom(chrom string) string {
	if len(chrom) > 3 && chrom[:3] == "chr" {
		return chrom[3:]
	}
	return chrom
}
