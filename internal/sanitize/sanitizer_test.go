package sanitize

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const liftoverHeader = "##fileformat=VCFv4.2\n" +
	"##contig=<ID=chr1,length=248956422>\n" +
	"##contig=<ID=chr2,length=242193529>\n" +
	"##contig=<ID=chr1_KI270706v1_random,length=175055>\n" +
	"##contig=<ID=chrUn_GL000195v1>\n" +
	"##INFO=<ID=AC,Number=A,Type=Integer,Description=\"Allele count\">\n" +
	"#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO\tFORMAT\tproband\tmother\tfather\n"

func sanitize(t *testing.T, allowed []string, input string) (string, Counts) {
	t.Helper()
	var out bytes.Buffer
	counts, err := NewSanitizer(allowed).Sanitize(strings.NewReader(input), &out)
	require.NoError(t, err)
	return out.String(), counts
}

func TestSanitize_Headers(t *testing.T) {
	out, counts := sanitize(t, DefaultChromosomes, liftoverHeader)

	assert.Contains(t, out, "##contig=<ID=chr1,length=248956422>\n")
	assert.Contains(t, out, "##contig=<ID=chr2,length=242193529>\n")
	assert.NotContains(t, out, "KI270706v1")
	assert.NotContains(t, out, "chrUn_GL000195v1")
	assert.Contains(t, out, "##INFO=<ID=AC")
	assert.Contains(t, out, "#CHROM\tPOS")
	assert.Equal(t, 2, counts.DroppedContigs)
}

func TestSanitize_Records(t *testing.T) {
	input := liftoverHeader +
		"chr1\t100\t.\tA\tG\t.\tPASS\t.\tGT\t0/1\t0/0\t1/1\n" + // kept
		"chr1\t200\t.\tA\tT,C\t.\tPASS\t.\tGT\t0/1\t0/0\t1/1\n" + // multiallelic
		"chr1_KI270706v1_random\t300\t.\tA\tG\t.\tPASS\t.\tGT\t0/1\t0/0\t1/1\n" + // unplaced
		"chr2\t400\t.\tC\tT\t.\tPASS\t.\tGT\t0/1\t./.\t1/1\n" + // one no-call: kept
		"chr2\t500\t.\tC\tT\t.\tPASS\t.\tGT\t0/1\t./.\t./.\n" + // two no-calls
		"chr2\t600\t.\tC\tT\t.\tPASS\t.\tGT:DP\t./.:0\t.|.:0\t0|1:9\n" // two no-calls, either separator

	out, counts := sanitize(t, DefaultChromosomes, input)

	assert.Equal(t, Counts{
		Kept:           2,
		DroppedChrom:   1,
		DroppedMulti:   1,
		DroppedNoCalls: 2,
		DroppedContigs: 2,
	}, counts)
	assert.Equal(t, 6, counts.Total())

	assert.Contains(t, out, "chr1\t100\t")
	assert.Contains(t, out, "chr2\t400\t")
	assert.NotContains(t, out, "\t200\t")
	assert.NotContains(t, out, "\t300\t")
	assert.NotContains(t, out, "\t500\t")
	assert.NotContains(t, out, "\t600\t")
}

func TestSanitize_MultiallelicAlwaysDropped(t *testing.T) {
	input := liftoverHeader + "chr1\t200\t.\tG\tA,T\t.\tPASS\t.\tGT\t0/1\t0/0\t0/1\n"
	out, counts := sanitize(t, DefaultChromosomes, input)
	assert.NotContains(t, out, "A,T")
	assert.Equal(t, 1, counts.DroppedMulti)
}

func TestSanitize_MaxMissing(t *testing.T) {
	input := liftoverHeader + "chr1\t100\t.\tA\tG\t.\tPASS\t.\tGT\t0/1\t./.\t./.\n"

	s := NewSanitizer(DefaultChromosomes)
	s.SetMaxMissing(2)

	var out bytes.Buffer
	counts, err := s.Sanitize(strings.NewReader(input), &out)
	require.NoError(t, err)
	assert.Equal(t, 1, counts.Kept)
}

func TestSanitize_CustomChromosomes(t *testing.T) {
	input := liftoverHeader +
		"chr1\t100\t.\tA\tG\t.\tPASS\t.\tGT\t0/1\t0/0\t1/1\n" +
		"chr2\t100\t.\tA\tG\t.\tPASS\t.\tGT\t0/1\t0/0\t1/1\n"

	out, counts := sanitize(t, []string{"chr2"}, input)
	assert.Equal(t, 1, counts.Kept)
	assert.Equal(t, 1, counts.DroppedChrom)
	assert.NotContains(t, out, "##contig=<ID=chr1,")
	assert.Contains(t, out, "chr2\t100\t")
}

func TestSanitize_MalformedLineFails(t *testing.T) {
	input := liftoverHeader + "chr1\t100\t.\tA\tG\n"
	var out bytes.Buffer
	_, err := NewSanitizer(DefaultChromosomes).Sanitize(strings.NewReader(input), &out)
	require.Error(t, err)
}

func TestContigID(t *testing.T) {
	tests := []struct {
		line string
		want string
	}{
		{"##contig=<ID=chr1,length=248956422>", "chr1"},
		{"##contig=<ID=chrX>", "chrX"},
		{"##contig=<ID=chr1_KI270706v1_random,length=175055,assembly=hg38>", "chr1_KI270706v1_random"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, ContigID(tt.line))
		})
	}
}
