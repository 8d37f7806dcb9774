// Package legend builds a lookup of valid reference panel sites from
// IMPUTE-style legend files.
package legend

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/klauspost/pgzip"
	"github.com/sourcegraph/conc/pool"

	"github.com/inodb/trioprep/internal/vcf"
)

// Required legend header columns.
const (
	ColumnPosition = "position"
	ColumnRef      = "a0"
	ColumnAlt      = "a1"
)

// legendName matches "<prefix>_chr<N>.legend.gz" and captures N.
var legendName = regexp.MustCompile(`_chr([0-9XYMT]+)\.legend(\.gz)?$`)

// ErrUnrecognizedName is returned for legend files whose name carries no chromosome.
var ErrUnrecognizedName = errors.New("legend file name does not match *_chr<N>.legend.gz")

// MalformedLegendError reports a legend file that lacks a required header
// column or has a row that cannot be read.
type MalformedLegendError struct {
	Path   string
	Column string // missing header column, if that is the problem
	Line   int    // offending row, if that is the problem
}

func (e *MalformedLegendError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("malformed legend %s: header missing %q column", e.Path, e.Column)
	}
	return fmt.Sprintf("malformed legend %s: too few columns at line %d", e.Path, e.Line)
}

// Index maps a normalized chromosome name to the set of "position ref alt"
// site keys listed for it. An Index is read-only once built and may be
// shared between goroutines.
type Index struct {
	sites map[string]map[string]struct{}
}

// New creates an empty index.
func New() *Index {
	return &Index{sites: make(map[string]map[string]struct{})}
}

// SiteKey formats the composite key for a site.
func SiteKey(pos, ref, alt string) string {
	return pos + " " + ref + " " + alt
}

// Add adds a site to the index. Only used while building.
func (idx *Index) Add(chrom, pos, ref, alt string) {
	chrom = vcf.NormalizeChrom(chrom)
	set, ok := idx.sites[chrom]
	if !ok {
		set = make(map[string]struct{})
		idx.sites[chrom] = set
	}
	set[SiteKey(pos, ref, alt)] = struct{}{}
}

// Contains reports whether (pos, ref, alt) is a listed site on chrom.
// Chromosomes absent from the index contain nothing.
func (idx *Index) Contains(chrom, pos, ref, alt string) bool {
	set, ok := idx.sites[vcf.NormalizeChrom(chrom)]
	if !ok {
		return false
	}
	_, ok = set[SiteKey(pos, ref, alt)]
	return ok
}

// HasChromosome reports whether any site was loaded for chrom.
func (idx *Index) HasChromosome(chrom string) bool {
	_, ok := idx.sites[vcf.NormalizeChrom(chrom)]
	return ok
}

// Chromosomes returns the indexed chromosome names.
func (idx *Index) Chromosomes() []string {
	chroms := make([]string, 0, len(idx.sites))
	for c := range idx.sites {
		chroms = append(chroms, c)
	}
	return chroms
}

// SiteCount returns the total number of distinct sites across chromosomes.
func (idx *Index) SiteCount() int {
	n := 0
	for _, set := range idx.sites {
		n += len(set)
	}
	return n
}

// merge unions other into idx.
func (idx *Index) merge(chrom string, sites map[string]struct{}) {
	set, ok := idx.sites[chrom]
	if !ok {
		idx.sites[chrom] = sites
		return
	}
	for k := range sites {
		set[k] = struct{}{}
	}
}

// ChromFromPath derives the chromosome name from a legend file name.
func ChromFromPath(path string) (string, error) {
	m := legendName.FindStringSubmatch(filepath.Base(path))
	if m == nil {
		return "", fmt.Errorf("%s: %w", path, ErrUnrecognizedName)
	}
	return m[1], nil
}

// chromSites is the parse result of a single legend file.
type chromSites struct {
	chrom string
	sites map[string]struct{}
}

// Build loads every legend file and returns the combined index. Files are
// parsed concurrently on up to workers goroutines (at least one). Files that
// name the same chromosome are unioned. Any error aborts the build.
func Build(paths []string, workers int) (*Index, error) {
	if workers <= 0 {
		workers = 1
	}

	p := pool.NewWithResults[chromSites]().WithErrors().WithMaxGoroutines(workers)
	for _, path := range paths {
		p.Go(func() (chromSites, error) {
			chrom, err := ChromFromPath(path)
			if err != nil {
				return chromSites{}, err
			}
			sites, err := LoadFile(path)
			if err != nil {
				return chromSites{}, err
			}
			return chromSites{chrom: vcf.NormalizeChrom(chrom), sites: sites}, nil
		})
	}

	results, err := p.Wait()
	if err != nil {
		return nil, err
	}

	idx := New()
	for _, r := range results {
		idx.merge(r.chrom, r.sites)
	}
	return idx, nil
}

// Glob expands the given glob patterns into legend file paths.
func Glob(patterns []string) ([]string, error) {
	var paths []string
	for _, pattern := range patterns {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, fmt.Errorf("glob legend files %q: %w", pattern, err)
		}
		paths = append(paths, matches...)
	}
	return paths, nil
}

// LoadFile reads one legend file, gzipped or plain, and returns its site keys.
func LoadFile(path string) (map[string]struct{}, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open legend file: %w", err)
	}
	defer f.Close()

	var reader io.Reader = f

	// Handle gzipped files
	if strings.HasSuffix(path, ".gz") {
		gz, err := pgzip.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("open gzip reader: %w", err)
		}
		defer gz.Close()
		reader = gz
	}

	sites, err := Parse(reader)
	if err != nil {
		var mle *MalformedLegendError
		if errors.As(err, &mle) {
			mle.Path = path
			return nil, mle
		}
		return nil, fmt.Errorf("read legend %s: %w", path, err)
	}
	return sites, nil
}

// Parse reads whitespace-delimited legend content. The first row is a header
// naming at least the position, a0 and a1 columns.
func Parse(r io.Reader) (map[string]struct{}, error) {
	scanner := bufio.NewScanner(r)
	// Increase buffer size for long lines
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 1024*1024)

	sites := make(map[string]struct{})
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return nil, err
		}
		return nil, &MalformedLegendError{Column: ColumnPosition}
	}

	header := strings.Fields(scanner.Text())
	posIdx, refIdx, altIdx := -1, -1, -1
	for i, name := range header {
		switch name {
		case ColumnPosition:
			posIdx = i
		case ColumnRef:
			refIdx = i
		case ColumnAlt:
			altIdx = i
		}
	}
	for _, req := range []struct {
		name string
		idx  int
	}{
		{ColumnPosition, posIdx},
		{ColumnRef, refIdx},
		{ColumnAlt, altIdx},
	} {
		if req.idx < 0 {
			return nil, &MalformedLegendError{Column: req.name}
		}
	}

	need := max(posIdx, refIdx, altIdx) + 1
	lineNum := 1
	for scanner.Scan() {
		lineNum++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		if len(fields) < need {
			return nil, &MalformedLegendError{Line: lineNum}
		}
		sites[SiteKey(fields[posIdx], fields[refIdx], fields[altIdx])] = struct{}{}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return sites, nil
}
