package pipeline

import (
	"path/filepath"
	"strings"
)

// Output name suffixes, appended to the input's base name.
const (
	ReconciledSuffix = "_reverted"
	LiftoverSuffix   = "_liftover"
	SanitizedSuffix  = "_no_ambiguous_sites"
	CleanSuffix      = "_liftover_parsed"
	DuplicatesSuffix = "_removedDuplicates"
)

// BaseName strips the directory, a trailing .gz, a trailing .vcf and then
// trim (if non-empty) from path.
func BaseName(path, trim string) string {
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, ".gz")
	base = strings.TrimSuffix(base, ".vcf")
	if trim != "" {
		base = strings.TrimSuffix(base, trim)
	}
	return base
}

// OutputPath names the output written for input. Outputs go next to the
// input unless dir is set; compress adds a .gz extension.
func OutputPath(input, dir, trim, suffix string, compress bool) string {
	if dir == "" {
		dir = filepath.Dir(input)
	}
	name := BaseName(input, trim) + suffix + ".vcf"
	if compress {
		name += ".gz"
	}
	return filepath.Join(dir, name)
}
