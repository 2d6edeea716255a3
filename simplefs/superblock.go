package simplefs

import (
	"encoding/binary"
	"fmt"
)

// format writes a fresh superblock, pre-allocates both bitmaps'
// reserved prefixes, and initializes inode 0 as the root directory.
func (fs *FS) format() error {
	sb := make([]byte, fs.geometry.SectorSize)
	binary.LittleEndian.PutUint32(sb[0:4], magic)
	vol := volumeUUID()
	copy(sb[4:20], vol[:])
	if err := fs.dev.WriteSector(fs.layout.SuperblockStart, sb); err != nil {
		return fmt.Errorf("%w: writing superblock: %v", ErrGeneral, err)
	}

	// Inode bit 0 is reserved for the root directory.
	if err := fs.bitmapInit(fs.layout.InodeBitmapStart, fs.layout.InodeBitmapCount, 1); err != nil {
		return fmt.Errorf("writing inode bitmap: %w", err)
	}

	// Every metadata sector (superblock, both bitmaps, inode table) is
	// pre-allocated in the sector bitmap; those are exactly sectors
	// [0, DataStart).
	if err := fs.bitmapInit(fs.layout.SectorBitmapStart, fs.layout.SectorBitmapCount, fs.layout.DataStart); err != nil {
		return fmt.Errorf("writing sector bitmap: %w", err)
	}

	if err := fs.zeroInodeTable(); err != nil {
		return fmt.Errorf("zeroing inode table: %w", err)
	}

	root := newInode(fs.geometry, TypeDir)
	if err := fs.writeInode(0, root); err != nil {
		return fmt.Errorf("initializing root inode: %w", err)
	}
	fs.log.Debug("simplefs: formatted new image")
	return nil
}

// zeroInodeTable clears every inode-table sector. format() overwrites
// inode 0 immediately afterward; doing it this way (zero everything,
// then write the one live inode) avoids special-casing the byte range
// inode 0 occupies within that sector.
func (fs *FS) zeroInodeTable() error {
	zero := make([]byte, fs.geometry.SectorSize)
	for s := fs.layout.InodeTableStart; s < fs.layout.InodeTableStart+fs.layout.InodeTableCount; s++ {
		if err := fs.dev.WriteSector(s, zero); err != nil {
			return fmt.Errorf("%w: zeroing inode table sector %d: %v", ErrGeneral, s, err)
		}
	}
	return nil
}

// checkMagic reads sector 0 and returns true iff the first 4 bytes
// equal 0xDEADBEEF, little-endian.
func (fs *FS) checkMagic() (bool, error) {
	sb, err := fs.dev.ReadSector(fs.layout.SuperblockStart)
	if err != nil {
		return false, fmt.Errorf("%w: reading superblock: %v", ErrGeneral, err)
	}
	if len(sb) < 4 {
		return false, nil
	}
	return binary.LittleEndian.Uint32(sb[0:4]) == magic, nil
}
