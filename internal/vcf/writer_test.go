package vcf

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriter_RoundTripGzip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "out.vcf.gz")

	w, err := Create(path, true)
	require.NoError(t, err)
	require.NoError(t, w.WriteLine("##fileformat=VCFv4.2"))
	require.NoError(t, w.WriteLine("chr1\t1\t.\tA\tG"))
	require.NoError(t, w.Close())

	r, err := Open(path)
	require.NoError(t, err)
	defer r.Close()

	lines := readAll(t, r)
	require.Len(t, lines, 2)
	assert.Equal(t, "chr1\t1\t.\tA\tG", lines[1].Raw)
}

func TestAsWriter(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	assert.Same(t, w, AsWriter(w))

	other := AsWriter(&buf)
	require.NoError(t, other.WriteLine("x"))
	require.NoError(t, other.Flush())
	assert.Equal(t, "x\n", buf.String())
}
