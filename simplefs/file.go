package simplefs

import "fmt"

// fileRead copies up to len(buf) bytes starting at the descriptor's
// current position, never past its cached size, advancing position by
// the number of bytes returned.
func (fs *FS) fileRead(fd int, buf []byte) (int, error) {
	entry, ok := fs.openFiles.get(fd)
	if !ok {
		return 0, fmt.Errorf("%w: descriptor %d is not open", ErrBadFD, fd)
	}

	want := uint32(len(buf))
	if entry.position >= entry.cachedSize || want == 0 {
		return 0, nil
	}
	if entry.position+want > entry.cachedSize {
		want = entry.cachedSize - entry.position
	}

	ind, err := fs.readInode(entry.inodeIndex)
	if err != nil {
		return 0, fmt.Errorf("%w: reading inode %d: %v", ErrGeneral, entry.inodeIndex, err)
	}

	sectorSize := fs.geometry.SectorSize
	k := entry.position / sectorSize
	off := entry.position % sectorSize

	var read uint32
	for read < want && k < uint32(len(ind.Data)) {
		sector := ind.Data[k]
		if sector == 0 {
			// A zero slot within the file's addressable range marks
			// the end of readable data.
			break
		}
		sbuf, err := fs.dev.ReadSector(sector)
		if err != nil {
			return int(read), fmt.Errorf("%w: reading data sector %d: %v", ErrGeneral, sector, err)
		}
		avail := sectorSize - off
		chunk := want - read
		if chunk > avail {
			chunk = avail
		}
		copy(buf[read:read+chunk], sbuf[off:off+chunk])
		read += chunk
		off = 0
		k++
	}

	entry.position += read
	return int(read), nil
}

// fileWrite preserves append-only growth semantics intentionally:
// inode.size and the descriptor's position both advance by n even
// when position pointed into existing data, rather than performing an
// in-place overwrite that leaves size unchanged.
func (fs *FS) fileWrite(fd int, data []byte) (int, error) {
	entry, ok := fs.openFiles.get(fd)
	if !ok {
		return 0, fmt.Errorf("%w: descriptor %d is not open", ErrBadFD, fd)
	}

	n := uint32(len(data))
	ind, err := fs.readInode(entry.inodeIndex)
	if err != nil {
		return 0, fmt.Errorf("%w: reading inode %d: %v", ErrGeneral, entry.inodeIndex, err)
	}
	if uint64(ind.Size)+uint64(n) > fs.geometry.MaxFileSize() {
		return 0, fmt.Errorf("%w: inode %d would grow to %d bytes, max is %d", ErrFileTooBig, entry.inodeIndex, uint64(ind.Size)+uint64(n), fs.geometry.MaxFileSize())
	}

	sectorSize := fs.geometry.SectorSize
	k := entry.position / sectorSize
	off := entry.position % sectorSize

	var written uint32
	for written < n {
		if k >= uint32(len(ind.Data)) {
			// Unreachable given the MaxFileSize check above, but guards
			// against writing past the fixed extent array.
			return int(written), fmt.Errorf("%w: inode %d has no more extent slots", ErrFileTooBig, entry.inodeIndex)
		}
		if ind.Data[k] == 0 {
			sector, err := fs.allocateSector()
			if err != nil {
				// Known anomaly: bytes already written to
				// previously-allocated sectors in this call are not
				// rolled back, and since the inode is not written back
				// below, inode.size and the extents just allocated
				// here are also lost, a second source of leak on top
				// of the documented one.
				return int(written), fmt.Errorf("%w: allocating data sector: %v", ErrNoSpace, err)
			}
			ind.Data[k] = sector
		}
		sbuf, err := fs.dev.ReadSector(ind.Data[k])
		if err != nil {
			return int(written), fmt.Errorf("%w: reading data sector %d: %v", ErrGeneral, ind.Data[k], err)
		}
		avail := sectorSize - off
		chunk := n - written
		if chunk > avail {
			chunk = avail
		}
		copy(sbuf[off:off+chunk], data[written:written+chunk])
		if err := fs.dev.WriteSector(ind.Data[k], sbuf); err != nil {
			return int(written), fmt.Errorf("%w: writing data sector %d: %v", ErrGeneral, ind.Data[k], err)
		}
		written += chunk
		off = 0
		k++
	}

	ind.Size += n
	if err := fs.writeInode(entry.inodeIndex, ind); err != nil {
		return int(written), fmt.Errorf("%w: updating inode %d: %v", ErrGeneral, entry.inodeIndex, err)
	}
	entry.cachedSize += n
	entry.position += n
	return int(n), nil
}

// fileSeek repositions fd: offset must be within [0, cachedSize],
// inclusive.
func (fs *FS) fileSeek(fd int, offset int64) (int64, error) {
	entry, ok := fs.openFiles.get(fd)
	if !ok {
		return 0, fmt.Errorf("%w: descriptor %d is not open", ErrBadFD, fd)
	}
	if offset < 0 || offset > int64(entry.cachedSize) {
		return 0, fmt.Errorf("%w: offset %d out of [0, %d]", ErrSeekOutOfBounds, offset, entry.cachedSize)
	}
	entry.position = uint32(offset)
	return offset, nil
}
