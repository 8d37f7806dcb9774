package duckdb

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inodb/trioprep/internal/dedup"
	"github.com/inodb/trioprep/internal/reconcile"
	"github.com/inodb/trioprep/internal/sanitize"
)

func openInMemory(t *testing.T) *Store {
	t.Helper()
	s, err := Open("")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpenClose(t *testing.T) {
	s := openInMemory(t)
	assert.NotNil(t, s.DB())
}

func TestOpenOnDisk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "runs.duckdb")
	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	_, err = os.Stat(path)
	assert.NoError(t, err)
}

func TestWriteAndReadReconcileResults(t *testing.T) {
	s := openInMemory(t)

	mt := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	results := []ReconcileResult{
		{
			RunID:  "run-1",
			File:   FileFingerprint{Path: "/data/F1_trio_chr1_phased_mcmc.vcf", Size: 1024, ModTime: mt},
			Counts: reconcile.Counts{Kept: 90, Flipped: 5, DroppedMendel: 2, DroppedNoMatch: 3},
		},
		{
			RunID:  "run-1",
			File:   FileFingerprint{Path: "/data/F1_trio_chr2_phased_mcmc.vcf"},
			Counts: reconcile.Counts{Kept: 10},
		},
		{
			RunID:  "run-2",
			File:   FileFingerprint{Path: "/data/F2_trio_chr1_phased_mcmc.vcf"},
			Counts: reconcile.Counts{Flipped: 1},
		},
	}
	require.NoError(t, s.WriteReconcileResults(results))

	got, err := s.ReconcileResults("run-1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "/data/F1_trio_chr1_phased_mcmc.vcf", got[0].File.Path)
	assert.Equal(t, int64(1024), got[0].File.Size)
	assert.True(t, mt.Equal(got[0].File.ModTime))
	assert.Equal(t, results[0].Counts, got[0].Counts)
	assert.True(t, got[1].File.ModTime.IsZero())

	all, err := s.ReconcileResults("")
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestRunSummaries(t *testing.T) {
	s := openInMemory(t)

	require.NoError(t, s.WriteReconcileResults([]ReconcileResult{
		{RunID: "r1", File: FileFingerprint{Path: "a"}, Counts: reconcile.Counts{Kept: 3, Flipped: 1}},
		{RunID: "r1", File: FileFingerprint{Path: "b"}, Counts: reconcile.Counts{Kept: 2, DroppedNoMatch: 4}},
	}))

	summaries, err := s.RunSummaries()
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, RunSummary{
		RunID: "r1", Files: 2, Kept: 5, Flipped: 1, DroppedNoMatch: 4, Total: 10,
	}, summaries[0])
}

func TestWriteAndReadSanitizeResults(t *testing.T) {
	s := openInMemory(t)

	counts := sanitize.Counts{Kept: 7, DroppedChrom: 1, DroppedMulti: 2, DroppedNoCalls: 3, DroppedContigs: 4}
	require.NoError(t, s.WriteSanitizeResults([]SanitizeResult{
		{RunID: "r", File: FileFingerprint{Path: "x.vcf.gz"}, Counts: counts},
	}))

	got, err := s.SanitizeResults("r")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, counts, got[0].Counts)
}

func TestWriteAndReadDedupResults(t *testing.T) {
	s := openInMemory(t)

	counts := dedup.Counts{Clean: 8, Duplicate: 4, Positions: 2}
	require.NoError(t, s.WriteDedupResults([]DedupResult{
		{RunID: "r", File: FileFingerprint{Path: "x.vcf.gz"}, Counts: counts},
	}))

	got, err := s.DedupResults("")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, counts, got[0].Counts)
}

func TestWriteEmpty(t *testing.T) {
	s := openInMemory(t)
	require.NoError(t, s.WriteReconcileResults(nil))

	got, err := s.ReconcileResults("")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestStatFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "f.vcf")
	require.NoError(t, os.WriteFile(path, []byte("abc"), 0644))

	fp := StatFile(path)
	assert.Equal(t, int64(3), fp.Size)
	assert.False(t, fp.ModTime.IsZero())

	missing := StatFile(filepath.Join(t.TempDir(), "absent"))
	assert.Equal(t, int64(0), missing.Size)
	assert.True(t, missing.ModTime.IsZero())
}
