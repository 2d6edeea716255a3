package simplefs

import "fmt"

// Bitmap bit ordering: bit i of byte b is logical index b*8+i, where
// bit 0 is the most-significant bit of the byte. This is the opposite
// of the common LSB-first convention (mask = 1<<bitNumber) — the
// on-disk format here is bit-exact, so this package defines its own
// ordering as small helper functions over a plain []byte.

func bitMask(bitPos uint32) byte {
	return 0x80 >> bitPos
}

func bitLocation(index uint32) (byteOffset, bitPos uint32) {
	return index / 8, index % 8
}

func bitIsSet(buf []byte, index uint32) bool {
	byteOffset, bitPos := bitLocation(index)
	return buf[byteOffset]&bitMask(bitPos) != 0
}

func bitSet(buf []byte, index uint32) {
	byteOffset, bitPos := bitLocation(index)
	buf[byteOffset] |= bitMask(bitPos)
}

func bitClear(buf []byte, index uint32) {
	byteOffset, bitPos := bitLocation(index)
	buf[byteOffset] &^= bitMask(bitPos)
}

// readBitmapRegion reads num sectors starting at start into one
// contiguous buffer.
func (fs *FS) readBitmapRegion(start, num uint32) ([]byte, error) {
	buf := make([]byte, 0, num*fs.geometry.SectorSize)
	for s := start; s < start+num; s++ {
		sector, err := fs.dev.ReadSector(s)
		if err != nil {
			return nil, fmt.Errorf("%w: reading bitmap sector %d: %v", ErrGeneral, s, err)
		}
		buf = append(buf, sector...)
	}
	return buf, nil
}

// writeBitmapSector writes back only the sector containing bitIndex,
// matching bitmap_first_unused/bitmap_reset's "write back only the
// modified sector" contract.
func (fs *FS) writeBitmapSector(start uint32, buf []byte, bitIndex uint32) error {
	sectorSize := fs.geometry.SectorSize
	sectorOffset := (bitIndex / 8) / sectorSize
	byteStart := sectorOffset * sectorSize
	sector := buf[byteStart : byteStart+sectorSize]
	if err := fs.dev.WriteSector(start+sectorOffset, sector); err != nil {
		return fmt.Errorf("%w: writing bitmap sector %d: %v", ErrGeneral, start+sectorOffset, err)
	}
	return nil
}

// bitmapInit writes sectors [start, start+num) so that the first
// prefixBits bits are 1 and the rest are 0 — used at format time to
// pre-allocate metadata sectors and inode 0.
func (fs *FS) bitmapInit(start, num, prefixBits uint32) error {
	buf := make([]byte, num*fs.geometry.SectorSize)
	totalBits := num * fs.geometry.SectorSize * 8
	if prefixBits > totalBits {
		prefixBits = totalBits
	}
	for i := uint32(0); i < prefixBits; i++ {
		bitSet(buf, i)
	}
	for s := uint32(0); s < num; s++ {
		offset := s * fs.geometry.SectorSize
		if err := fs.dev.WriteSector(start+s, buf[offset:offset+fs.geometry.SectorSize]); err != nil {
			return fmt.Errorf("%w: initializing bitmap sector %d: %v", ErrGeneral, start+s, err)
		}
	}
	return nil
}

// bitmapFirstUnused scans [start, start+num) in order for the first
// bit index < totalBits that is currently 0, sets it, writes back
// only the modified sector, and returns its index. Returns -1 if the
// region is exhausted.
func (fs *FS) bitmapFirstUnused(start, num, totalBits uint32) (int64, error) {
	buf, err := fs.readBitmapRegion(start, num)
	if err != nil {
		return -1, err
	}
	maxBits := num * fs.geometry.SectorSize * 8
	if totalBits > maxBits {
		totalBits = maxBits
	}
	for i := uint32(0); i < totalBits; i++ {
		if !bitIsSet(buf, i) {
			bitSet(buf, i)
			if err := fs.writeBitmapSector(start, buf, i); err != nil {
				return -1, err
			}
			return int64(i), nil
		}
	}
	return -1, nil
}

// bitmapReset clears bitIndex within [start, start+num) and writes
// back only the modified sector.
func (fs *FS) bitmapReset(start, num, bitIndex uint32) error {
	maxBits := num * fs.geometry.SectorSize * 8
	if bitIndex >= maxBits {
		return fmt.Errorf("%w: bit index %d out of range (max %d)", ErrGeneral, bitIndex, maxBits)
	}
	buf, err := fs.readBitmapRegion(start, num)
	if err != nil {
		return err
	}
	bitClear(buf, bitIndex)
	return fs.writeBitmapSector(start, buf, bitIndex)
}

// allocateSector claims the first free bit in the sector bitmap and
// returns its index, or ErrNoSpace if the bitmap is exhausted. Used by
// both the directory manager (growing a directory) and the file
// extent manager (growing a file).
func (fs *FS) allocateSector() (uint32, error) {
	idx, err := fs.bitmapFirstUnused(fs.layout.SectorBitmapStart, fs.layout.SectorBitmapCount, fs.geometry.TotalSectors)
	if err != nil {
		return 0, err
	}
	if idx < 0 {
		return 0, ErrNoSpace
	}
	return uint32(idx), nil
}

// allocateInodeBit claims the first free bit in the inode bitmap and
// returns its index, or ErrCreate if the bitmap is exhausted.
func (fs *FS) allocateInodeBit() (uint32, error) {
	idx, err := fs.bitmapFirstUnused(fs.layout.InodeBitmapStart, fs.layout.InodeBitmapCount, fs.geometry.MaxFiles)
	if err != nil {
		return 0, err
	}
	if idx < 0 {
		return 0, ErrCreate
	}
	return uint32(idx), nil
}

// releaseInodeBit clears inode i's bit in the inode bitmap.
func (fs *FS) releaseInodeBit(i uint32) error {
	return fs.bitmapReset(fs.layout.InodeBitmapStart, fs.layout.InodeBitmapCount, i)
}

// bitmapIsSet reports whether bitIndex is set within [start, start+num).
// Used by invariant-checking tests, not by any core operation.
func (fs *FS) bitmapIsSet(start, num, bitIndex uint32) (bool, error) {
	buf, err := fs.readBitmapRegion(start, num)
	if err != nil {
		return false, err
	}
	maxBits := num * fs.geometry.SectorSize * 8
	if bitIndex >= maxBits {
		return false, fmt.Errorf("%w: bit index %d out of range (max %d)", ErrGeneral, bitIndex, maxBits)
	}
	return bitIsSet(buf, bitIndex), nil
}
