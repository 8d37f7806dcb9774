// Package dedup separates records at repeated genomic positions from the
// rest of a sanitized VCF.
package dedup

import (
	"errors"
	"fmt"
	"io"

	"github.com/inodb/trioprep/internal/vcf"
)

// ErrNotScanned is returned by Partition when Scan has not completed.
var ErrNotScanned = errors.New("dedup: partition called before scan")

// Opener opens a fresh reader over the same stream. Resolve calls it once
// per pass.
type Opener func() (io.ReadCloser, error)

// Counts summarizes a partition.
type Counts struct {
	Clean      int // records written to the clean output
	Duplicate  int // records written to the duplicates output
	Positions  int // distinct (chrom, pos) keys that are duplicated
	HeaderRows int // header lines copied to each output
}

// Total returns the number of data records partitioned.
func (c Counts) Total() int {
	return c.Clean + c.Duplicate
}

// Resolver finds positions that occur more than once on a chromosome.
// Scan must see the whole stream before Partition routes any record, since
// the first occurrence of a position is only known to be a duplicate once a
// later occurrence has been read.
type Resolver struct {
	seen    map[string]map[string]struct{}
	dups    map[string]map[string]struct{}
	scanned bool
}

// NewResolver creates an empty resolver.
func NewResolver() *Resolver {
	return &Resolver{
		seen: make(map[string]map[string]struct{}),
		dups: make(map[string]map[string]struct{}),
	}
}

// Scan is the first pass: it records every (chrom, pos) and marks the
// positions seen more than once.
func (r *Resolver) Scan(src io.Reader) error {
	reader := vcf.NewReader(src)
	for {
		line, err := reader.Next()
		if err != nil {
			return err
		}
		if line == nil {
			break
		}
		if line.Kind != vcf.Data {
			continue
		}
		r.observe(line.Record.Chrom, line.Record.Pos)
	}
	r.scanned = true
	return nil
}

func (r *Resolver) observe(chrom, pos string) {
	seen, ok := r.seen[chrom]
	if !ok {
		seen = make(map[string]struct{})
		r.seen[chrom] = seen
	}
	if _, dup := seen[pos]; !dup {
		seen[pos] = struct{}{}
		return
	}

	dups, ok := r.dups[chrom]
	if !ok {
		dups = make(map[string]struct{})
		r.dups[chrom] = dups
	}
	dups[pos] = struct{}{}
}

// IsDuplicate reports whether pos occurs more than once on chrom.
func (r *Resolver) IsDuplicate(chrom, pos string) bool {
	_, ok := r.dups[chrom][pos]
	return ok
}

// DuplicatePositions returns the number of duplicated (chrom, pos) keys.
func (r *Resolver) DuplicatePositions() int {
	n := 0
	for _, set := range r.dups {
		n += len(set)
	}
	return n
}

// Partition is the second pass: header lines go to both outputs, records at
// duplicated positions (every occurrence, including the first) go to dups
// and all other records go to clean.
func (r *Resolver) Partition(src io.Reader, clean, dups io.Writer) (Counts, error) {
	counts := Counts{Positions: r.DuplicatePositions()}
	if !r.scanned {
		return counts, ErrNotScanned
	}

	reader := vcf.NewReader(src)
	cleanOut := vcf.AsWriter(clean)
	dupOut := vcf.AsWriter(dups)

	for {
		line, err := reader.Next()
		if err != nil {
			return counts, err
		}
		if line == nil {
			break
		}

		if line.Kind != vcf.Data {
			counts.HeaderRows++
			if err := cleanOut.WriteLine(line.Raw); err != nil {
				return counts, fmt.Errorf("write clean header: %w", err)
			}
			if err := dupOut.WriteLine(line.Raw); err != nil {
				return counts, fmt.Errorf("write duplicates header: %w", err)
			}
			continue
		}

		if r.IsDuplicate(line.Record.Chrom, line.Record.Pos) {
			counts.Duplicate++
			err = dupOut.WriteLine(line.Raw)
		} else {
			counts.Clean++
			err = cleanOut.WriteLine(line.Raw)
		}
		if err != nil {
			return counts, fmt.Errorf("write record: %w", err)
		}
	}

	if err := cleanOut.Flush(); err != nil {
		return counts, fmt.Errorf("flush clean output: %w", err)
	}
	if err := dupOut.Flush(); err != nil {
		return counts, fmt.Errorf("flush duplicates output: %w", err)
	}
	return counts, nil
}

// Resolve runs both passes over the stream returned by open.
func Resolve(open Opener, clean, dups io.Writer) (Counts, error) {
	r := NewResolver()

	src, err := open()
	if err != nil {
		return Counts{}, fmt.Errorf("open for scan: %w", err)
	}
	err = r.Scan(src)
	src.Close()
	if err != nil {
		return Counts{}, fmt.Errorf("scan: %w", err)
	}

	src, err = open()
	if err != nil {
		return Counts{}, fmt.Errorf("open for partition: %w", err)
	}
	defer src.Close()

	counts, err := r.Partition(src, clean, dups)
	if err != nil {
		return counts, fmt.Errorf("partition: %w", err)
	}
	return counts, nil
}
