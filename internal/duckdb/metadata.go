package duckdb

import (
	"os"
	"time"
)

// FileFingerprint holds stat-based identity for a file.
type FileFingerprint struct {
	Path    string
	Size    int64
	ModTime time.Time
}

// StatFile creates a FileFingerprint from an on-disk file. A file that
// cannot be stat'ed (e.g. stdin) yields a fingerprint with only the path set.
func StatFile(path string) FileFingerprint {
	info, err := os.Stat(path)
	if err != nil {
		return FileFingerprint{Path: path}
	}
	return FileFingerprint{
		Path:    path,
		Size:    info.Size(),
		ModTime: info.ModTime(),
	}
}
