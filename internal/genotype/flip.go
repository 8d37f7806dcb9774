// Package genotype re-encodes genotype calls when REF and ALT are swapped.
package genotype

import "strings"

// flipTable maps each byte of a GT value to its swapped form in a single
// pass. Only the allele indices 0 and 1 change; separators, missing-call
// markers and any other byte map to themselves.
var flipTable = func() [256]byte {
	var t [256]byte
	for i := range t {
		t[i] = byte(i)
	}
	t['0'] = '1'
	t['1'] = '0'
	return t
}()

// Flip returns the GT value with allele indices 0 and 1 exchanged.
// "0|1" becomes "1|0", "0|0" becomes "1|1", and missing calls such as
// "./." or ".|." are returned unchanged. Flip(Flip(gt)) == gt for every input.
func Flip(gt string) string {
	if !strings.ContainsAny(gt, "01") {
		return gt
	}
	b := []byte(gt)
	for i, c := range b {
		b[i] = flipTable[c]
	}
	return string(b)
}

// FlipSample flips the GT sub-field of a colon-delimited sample column.
// gtIndex is the position of GT within FORMAT; a negative index or a sample
// without that sub-field is returned unchanged.
func FlipSample(sample string, gtIndex int) string {
	if gtIndex < 0 {
		return sample
	}
	if gtIndex == 0 {
		gt, rest, found := strings.Cut(sample, ":")
		if !found {
			return Flip(sample)
		}
		return Flip(gt) + ":" + rest
	}

	parts := strings.Split(sample, ":")
	if gtIndex >= len(parts) {
		return sample
	}
	parts[gtIndex] = Flip(parts[gtIndex])
	return strings.Join(parts, ":")
}

// IsMissing returns true if the GT value carries no allele information,
// i.e. every allele is the "." placeholder ("." , "./.", ".|.").
func IsMissing(gt string) bool {
	if gt == "" {
		return false
	}
	for i := 0; i < len(gt); i++ {
		switch gt[i] {
		case '.', '|', '/':
		default:
			return false
		}
	}
	return strings.Contains(gt, ".")
}
