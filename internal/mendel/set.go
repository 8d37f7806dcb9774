// Package mendel reads per-site Mendelian error annotations written by the
// phasing tool (*.snp.me files).
package mendel

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// Suffix is the file extension of a site-level Mendelian error file.
const Suffix = ".snp.me"

// Set holds the positions flagged with a Mendelian error for one sample file.
// A Set is built per file and never shared across files.
type Set map[string]struct{}

// Has reports whether pos is flagged.
func (s Set) Has(pos string) bool {
	_, ok := s[pos]
	return ok
}

// Parse reads a tab-delimited error annotation stream. Column 2 is the
// position and column 3 the error flag; only rows flagged "1" are kept.
// Rows with fewer than three columns are ignored.
func Parse(r io.Reader) (Set, error) {
	set := make(Set)
	scanner := bufio.NewScanner(r)

	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if line == "" {
			continue
		}

		fields := strings.Split(line, "\t")
		if len(fields) < 3 {
			continue
		}

		if strings.TrimSpace(fields[2]) == "1" {
			set[fields[1]] = struct{}{}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read mendel errors: %w", err)
	}

	return set, nil
}

// Load reads the error file at path. A missing file yields an empty set.
func Load(path string) (Set, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return make(Set), nil
		}
		return nil, fmt.Errorf("open mendel error file: %w", err)
	}
	defer f.Close()

	return Parse(f)
}

// PathFor returns the error file path that belongs to a phased sample file:
// the sample path with its .vcf (or .vcf.gz) extension replaced by .snp.me.
func PathFor(samplePath string) string {
	base := strings.TrimSuffix(samplePath, ".gz")
	base = strings.TrimSuffix(base, ".vcf")
	return base + Suffix
}
