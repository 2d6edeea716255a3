package simplefs

import (
	"encoding/binary"
	"fmt"
)

// InodeType distinguishes a regular file from a directory.
type InodeType uint32

const (
	TypeFile InodeType = 0
	TypeDir  InodeType = 1
)

// inode is the in-memory decoding of an on-disk inode record: size in
// bytes (file) or entry count (directory), a type tag, and a fixed
// array of direct data-sector extents. A zero Data[k] means "no
// sector allocated at extent position k".
//
// Multi-byte fields are little-endian on disk regardless of host
// order (the original C source stored these in host byte order; this
// port fixes that so an image is portable across architectures).
type inode struct {
	Size uint32
	Type InodeType
	Data []uint32
}

func newInode(g Geometry, t InodeType) *inode {
	return &inode{Type: t, Data: make([]uint32, g.MaxSectorsPerFile)}
}

func (n *inode) encode(g Geometry) []byte {
	buf := make([]byte, g.inodeSize())
	binary.LittleEndian.PutUint32(buf[0:4], n.Size)
	binary.LittleEndian.PutUint32(buf[4:8], uint32(n.Type))
	for i, d := range n.Data {
		off := 8 + 4*i
		binary.LittleEndian.PutUint32(buf[off:off+4], d)
	}
	return buf
}

func decodeInode(g Geometry, buf []byte) (*inode, error) {
	if uint32(len(buf)) < g.inodeSize() {
		return nil, fmt.Errorf("%w: inode record too short (%d < %d)", ErrGeneral, len(buf), g.inodeSize())
	}
	n := &inode{
		Size: binary.LittleEndian.Uint32(buf[0:4]),
		Type: InodeType(binary.LittleEndian.Uint32(buf[4:8])),
		Data: make([]uint32, g.MaxSectorsPerFile),
	}
	for i := range n.Data {
		off := 8 + 4*i
		n.Data[i] = binary.LittleEndian.Uint32(buf[off : off+4])
	}
	return n, nil
}

// inodeLocation returns the inode-table sector and byte offset within
// it for inode index i.
func (fs *FS) inodeLocation(i uint32) (sector uint32, offset uint32) {
	ips := fs.geometry.InodesPerSector()
	sector = fs.layout.InodeTableStart + i/ips
	offset = (i % ips) * fs.geometry.inodeSize()
	return
}

// readInode loads inode i from the inode table. It always reads the
// whole containing sector and decodes from within it, the "read whole
// block, decode a struct out of it" pattern used for other on-disk
// records in this package.
func (fs *FS) readInode(i uint32) (*inode, error) {
	if i >= fs.geometry.MaxFiles {
		return nil, fmt.Errorf("%w: inode index %d out of range", ErrGeneral, i)
	}
	sector, offset := fs.inodeLocation(i)
	raw, err := fs.dev.ReadSector(sector)
	if err != nil {
		return nil, fmt.Errorf("%w: reading inode table sector %d: %v", ErrGeneral, sector, err)
	}
	return decodeInode(fs.geometry, raw[offset:offset+fs.geometry.inodeSize()])
}

// writeInode persists inode i, read-modify-writing the containing
// sector so sibling inodes packed into the same sector are preserved
// (inodes are packed, multiple per sector).
func (fs *FS) writeInode(i uint32, n *inode) error {
	if i >= fs.geometry.MaxFiles {
		return fmt.Errorf("%w: inode index %d out of range", ErrGeneral, i)
	}
	sector, offset := fs.inodeLocation(i)
	raw, err := fs.dev.ReadSector(sector)
	if err != nil {
		return fmt.Errorf("%w: reading inode table sector %d: %v", ErrGeneral, sector, err)
	}
	copy(raw[offset:offset+fs.geometry.inodeSize()], n.encode(fs.geometry))
	if err := fs.dev.WriteSector(sector, raw); err != nil {
		return fmt.Errorf("%w: writing inode table sector %d: %v", ErrGeneral, sector, err)
	}
	return nil
}
