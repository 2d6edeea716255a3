package simplefs

import (
	"path/filepath"
	"testing"
)

// smallGeometry is sized for fast, easy-to-reason-about tests: 3
// directory entries per sector and 4 direct extents per file, so
// tests can force multi-sector directories and file-size limits
// without megabyte-sized fixtures.
func smallGeometry() Geometry {
	return Geometry{
		SectorSize:        64,
		TotalSectors:      64,
		MaxFiles:          8,
		MaxSectorsPerFile: 4,
	}
}

func newTestFS(t *testing.T) *FS {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.img")
	fs, err := Boot(path, smallGeometry())
	if err != nil {
		t.Fatalf("Boot: %v", err)
	}
	return fs
}
