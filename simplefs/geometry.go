package simplefs

import "fmt"

// Geometry holds the constants that are chosen by the on-disk layout
// and fixed across the lifetime of an image. The original C
// implementation hardcodes these in a header; this port makes them an
// explicit value so a caller can size a small image for tests without
// touching the implementation, while still treating them as fixed for
// the lifetime of any one image.
type Geometry struct {
	SectorSize        uint32
	TotalSectors      uint32
	MaxFiles          uint32
	MaxSectorsPerFile uint32
}

const (
	maxName = 16  // includes the trailing NUL
	maxPath = 256

	// direntSize is the on-disk size of a directory entry: a 16-byte
	// name field followed by a 4-byte inode index.
	direntSize = maxName + 4

	// inodeBaseSize is the fixed part of an inode record: two 32-bit
	// fields (size, type). Geometry.inodeSize adds MaxSectorsPerFile
	// 32-bit extents on top of it.
	inodeBaseSize = 4 + 4

	magic uint32 = 0xDEADBEEF
)

// DefaultGeometry matches the constants grad-os-2019-group10/project-2
// shipped with in its (unincluded) LibDisk.h: a 1MB image, 256 inodes,
// and 32 direct extents per file (16KB max file size).
func DefaultGeometry() Geometry {
	return Geometry{
		SectorSize:        512,
		TotalSectors:      2048,
		MaxFiles:          256,
		MaxSectorsPerFile: 32,
	}
}

// Validate checks that the geometry can host at least a superblock,
// both bitmaps, the inode table, and one data sector.
func (g Geometry) Validate() error {
	if g.SectorSize == 0 {
		return fmt.Errorf("%w: sector size must be nonzero", ErrGeneral)
	}
	if g.MaxFiles == 0 {
		return fmt.Errorf("%w: max files must be nonzero", ErrGeneral)
	}
	if g.MaxSectorsPerFile == 0 {
		return fmt.Errorf("%w: max sectors per file must be nonzero", ErrGeneral)
	}
	if g.InodesPerSector() == 0 {
		return fmt.Errorf("%w: sector size %d too small to hold one inode (%d bytes)", ErrGeneral, g.SectorSize, g.inodeSize())
	}
	if g.DirentsPerSector() == 0 {
		return fmt.Errorf("%w: sector size %d too small to hold one directory entry", ErrGeneral, g.SectorSize)
	}
	l := g.Layout()
	if l.DataStart >= g.TotalSectors {
		return fmt.Errorf("%w: geometry leaves no room for data sectors (metadata uses %d of %d sectors)", ErrGeneral, l.DataStart, g.TotalSectors)
	}
	return nil
}

func (g Geometry) inodeSize() uint32 {
	return inodeBaseSize + 4*g.MaxSectorsPerFile
}

// InodesPerSector is the number of inode records that fit in one
// sector; inodes never straddle a sector boundary so the remainder of
// each inode-table sector may go unused.
func (g Geometry) InodesPerSector() uint32 {
	return g.SectorSize / g.inodeSize()
}

// DirentsPerSector is floor(SectorSize/direntSize).
func (g Geometry) DirentsPerSector() uint32 {
	return g.SectorSize / direntSize
}

// MaxFileSize is MaxSectorsPerFile * SectorSize.
func (g Geometry) MaxFileSize() uint64 {
	return uint64(g.MaxSectorsPerFile) * uint64(g.SectorSize)
}

func ceilDiv(a, b uint32) uint32 {
	return (a + b - 1) / b
}

// Layout is the derived region map: the sector ranges of the
// superblock, the two bitmaps, the inode table, and the data region,
// computed purely from Geometry.
type Layout struct {
	SuperblockStart  uint32
	InodeBitmapStart uint32
	InodeBitmapCount uint32
	SectorBitmapStart uint32
	SectorBitmapCount uint32
	InodeTableStart  uint32
	InodeTableCount  uint32
	DataStart        uint32
}

// Layout computes the region map for this geometry, in fixed order:
// superblock, inode bitmap, sector bitmap, inode table, data blocks.
func (g Geometry) Layout() Layout {
	bitsPerSector := g.SectorSize * 8

	inodeBitmapCount := ceilDiv(g.MaxFiles, bitsPerSector)
	sectorBitmapCount := ceilDiv(g.TotalSectors, bitsPerSector)
	inodeTableCount := ceilDiv(g.MaxFiles, g.InodesPerSector())

	inodeBitmapStart := uint32(1) // sector 0 is the superblock
	sectorBitmapStart := inodeBitmapStart + inodeBitmapCount
	inodeTableStart := sectorBitmapStart + sectorBitmapCount
	dataStart := inodeTableStart + inodeTableCount

	return Layout{
		SuperblockStart:   0,
		InodeBitmapStart:  inodeBitmapStart,
		InodeBitmapCount:  inodeBitmapCount,
		SectorBitmapStart: sectorBitmapStart,
		SectorBitmapCount: sectorBitmapCount,
		InodeTableStart:   inodeTableStart,
		InodeTableCount:   inodeTableCount,
		DataStart:         dataStart,
	}
}
