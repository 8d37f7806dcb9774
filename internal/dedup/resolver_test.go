package dedup

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const header = "##fileformat=VCFv4.2\n" +
	"#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO\tFORMAT\tproband\tmother\tfather\n"

func opener(s string) Opener {
	return func() (io.ReadCloser, error) {
		return io.NopCloser(strings.NewReader(s)), nil
	}
}

func dataLines(s string) []string {
	var lines []string
	for _, l := range strings.Split(strings.TrimRight(s, "\n"), "\n") {
		if l != "" && !strings.HasPrefix(l, "#") {
			lines = append(lines, l)
		}
	}
	return lines
}

func TestResolve_Scenario(t *testing.T) {
	input := header +
		"chr2\t500\t.\tA\tG\t.\tPASS\t.\tGT\t0/1\t0/0\t1/1\n" +
		"chr2\t500\t.\tA\tT\t.\tPASS\t.\tGT\t0/1\t0/0\t1/1\n" +
		"chr2\t600\t.\tC\tT\t.\tPASS\t.\tGT\t0/1\t0/0\t1/1\n"

	var clean, dups bytes.Buffer
	counts, err := Resolve(opener(input), &clean, &dups)
	require.NoError(t, err)

	assert.Equal(t, Counts{Clean: 1, Duplicate: 2, Positions: 1, HeaderRows: 2}, counts)

	cleanLines := dataLines(clean.String())
	require.Len(t, cleanLines, 1)
	assert.True(t, strings.HasPrefix(cleanLines[0], "chr2\t600\t"))

	dupLines := dataLines(dups.String())
	require.Len(t, dupLines, 2)
	assert.Contains(t, dupLines[0], "\tA\tG\t", "first occurrence is routed to duplicates")
	assert.Contains(t, dupLines[1], "\tA\tT\t")
}

func TestResolve_HeadersInBothOutputs(t *testing.T) {
	input := header + "chr1\t1\t.\tA\tG\t.\t.\t.\tGT\t0/1\t0/0\t1/1\n"

	var clean, dups bytes.Buffer
	_, err := Resolve(opener(input), &clean, &dups)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(clean.String(), header))
	assert.Equal(t, header, dups.String())
}

func TestResolve_ChromosomeLocal(t *testing.T) {
	// The same position on different chromosomes is not a duplicate.
	input := header +
		"chr1\t100\t.\tA\tG\t.\t.\t.\tGT\t0/1\t0/0\t1/1\n" +
		"chr2\t100\t.\tA\tG\t.\t.\t.\tGT\t0/1\t0/0\t1/1\n"

	var clean, dups bytes.Buffer
	counts, err := Resolve(opener(input), &clean, &dups)
	require.NoError(t, err)
	assert.Equal(t, 2, counts.Clean)
	assert.Equal(t, 0, counts.Duplicate)
}

func TestResolve_NonAdjacentRepeats(t *testing.T) {
	input := header +
		"chr1\t100\t.\tA\tG\t.\t.\t.\tGT\t0/1\t0/0\t1/1\n" +
		"chr1\t200\t.\tA\tG\t.\t.\t.\tGT\t0/1\t0/0\t1/1\n" +
		"chr1\t300\t.\tA\tG\t.\t.\t.\tGT\t0/1\t0/0\t1/1\n" +
		"chr1\t100\t.\tA\tC\t.\t.\t.\tGT\t0/1\t0/0\t1/1\n" +
		"chr1\t100\t.\tA\tT\t.\t.\t.\tGT\t0/1\t0/0\t1/1\n"

	var clean, dups bytes.Buffer
	counts, err := Resolve(opener(input), &clean, &dups)
	require.NoError(t, err)

	assert.Equal(t, 2, counts.Clean)
	assert.Equal(t, 3, counts.Duplicate)
	assert.Equal(t, 1, counts.Positions)
	assert.Equal(t, 5, counts.Total())

	for _, l := range dataLines(clean.String()) {
		assert.NotContains(t, l, "\t100\t")
	}
}

func TestPartition_BeforeScan(t *testing.T) {
	r := NewResolver()
	var clean, dups bytes.Buffer
	_, err := r.Partition(strings.NewReader(header), &clean, &dups)
	require.ErrorIs(t, err, ErrNotScanned)
}

func TestScan_IsDuplicate(t *testing.T) {
	input := header +
		"chr1\t100\t.\tA\tG\t.\t.\t.\tGT\t0/1\t0/0\t1/1\n" +
		"chr1\t100\t.\tA\tC\t.\t.\t.\tGT\t0/1\t0/0\t1/1\n" +
		"chr1\t101\t.\tA\tC\t.\t.\t.\tGT\t0/1\t0/0\t1/1\n"

	r := NewResolver()
	require.NoError(t, r.Scan(strings.NewReader(input)))

	assert.True(t, r.IsDuplicate("chr1", "100"))
	assert.False(t, r.IsDuplicate("chr1", "101"))
	assert.False(t, r.IsDuplicate("chr2", "100"))
	assert.Equal(t, 1, r.DuplicatePositions())
}

func TestResolve_MalformedLineFails(t *testing.T) {
	input := header + "chr1\t100\n"
	var clean, dups bytes.Buffer
	_, err := Resolve(opener(input), &clean, &dups)
	require.Error(t, err)
}

func TestResolve_Empty(t *testing.T) {
	var clean, dups bytes.Buffer
	counts, err := Resolve(opener(header), &clean, &dups)
	require.NoError(t, err)
	assert.Equal(t, 0, counts.Total())
	assert.Equal(t, header, clean.String())
}
