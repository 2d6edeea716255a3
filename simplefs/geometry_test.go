package simplefs

import "testing"

func TestLayoutOrderAndSizes(t *testing.T) {
	g := smallGeometry()
	l := g.Layout()

	if l.SuperblockStart != 0 {
		t.Fatalf("superblock must start at sector 0")
	}
	if l.InodeBitmapStart != 1 {
		t.Fatalf("inode bitmap should start right after the superblock, got %d", l.InodeBitmapStart)
	}
	if l.SectorBitmapStart != l.InodeBitmapStart+l.InodeBitmapCount {
		t.Fatalf("sector bitmap should follow the inode bitmap")
	}
	if l.InodeTableStart != l.SectorBitmapStart+l.SectorBitmapCount {
		t.Fatalf("inode table should follow the sector bitmap")
	}
	if l.DataStart != l.InodeTableStart+l.InodeTableCount {
		t.Fatalf("data region should follow the inode table")
	}
	if l.DataStart >= g.TotalSectors {
		t.Fatalf("geometry leaves no data sectors: DataStart=%d TotalSectors=%d", l.DataStart, g.TotalSectors)
	}
}

func TestDefaultGeometryValidates(t *testing.T) {
	if err := DefaultGeometry().Validate(); err != nil {
		t.Fatalf("DefaultGeometry should validate: %v", err)
	}
}

func TestGeometryRejectsTooSmallSectors(t *testing.T) {
	g := Geometry{SectorSize: 4, TotalSectors: 16, MaxFiles: 4, MaxSectorsPerFile: 4}
	if err := g.Validate(); err == nil {
		t.Fatalf("expected validation error for a sector too small to hold one inode")
	}
}

func TestMaxFileSize(t *testing.T) {
	g := smallGeometry()
	want := uint64(g.MaxSectorsPerFile) * uint64(g.SectorSize)
	if got := g.MaxFileSize(); got != want {
		t.Fatalf("MaxFileSize() = %d, want %d", got, want)
	}
}
