package device

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/ulikunitz/xz"
)

// Memory is an in-memory flat image of fixed-size sectors, the
// reference Device implementation simplefs is built and tested
// against. It also knows how to load from and save to a plain file,
// which is all the persistence the block device needs: whole-image
// snapshot/load, not incremental journaling.
type Memory struct {
	sectorSize  uint32
	sectorCount uint32
	data        []byte
}

var (
	_ Device = (*Memory)(nil)
	_ Loader = (*Memory)(nil)
)

// New creates a zeroed in-memory image of sectorCount sectors of
// sectorSize bytes each, mirroring the block device's init() contract.
func New(sectorSize, sectorCount uint32) *Memory {
	return &Memory{
		sectorSize:  sectorSize,
		sectorCount: sectorCount,
		data:        make([]byte, uint64(sectorSize)*uint64(sectorCount)),
	}
}

func (m *Memory) SectorSize() uint32  { return m.sectorSize }
func (m *Memory) SectorCount() uint32 { return m.sectorCount }

// Len returns the current raw byte length of the in-memory image.
func (m *Memory) Len() int { return len(m.data) }

func (m *Memory) checkIndex(index uint32) error {
	if index >= m.sectorCount {
		return fmt.Errorf("%w: sector %d out of range (count %d)", ErrBadSector, index, m.sectorCount)
	}
	return nil
}

// ReadSector returns a copy of the given sector's bytes.
func (m *Memory) ReadSector(index uint32) ([]byte, error) {
	if err := m.checkIndex(index); err != nil {
		return nil, err
	}
	start := uint64(index) * uint64(m.sectorSize)
	out := make([]byte, m.sectorSize)
	copy(out, m.data[start:start+uint64(m.sectorSize)])
	return out, nil
}

// WriteSector overwrites the given sector with buf.
func (m *Memory) WriteSector(index uint32, buf []byte) error {
	if err := m.checkIndex(index); err != nil {
		return err
	}
	if uint32(len(buf)) != m.sectorSize {
		return fmt.Errorf("%w: got %d bytes, want %d", ErrBadSector, len(buf), m.sectorSize)
	}
	start := uint64(index) * uint64(m.sectorSize)
	copy(m.data[start:start+uint64(m.sectorSize)], buf)
	return nil
}

// Load replaces the in-memory image with the contents of path. The
// file must be exactly SectorSize*SectorCount bytes; simplefs.Boot is
// responsible for validating that against geometry.
func (m *Memory) Load(path string) error {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return ErrNotFound
		}
		return fmt.Errorf("device: opening %s: %w", path, err)
	}
	defer f.Close()

	buf, err := io.ReadAll(f)
	if err != nil {
		return fmt.Errorf("device: reading %s: %w", path, err)
	}
	m.data = buf
	return nil
}

// Save atomically persists the current image to path: it writes to a
// temp file in the same directory and renames it into place, so a
// crash mid-write never leaves a half-written image at path.
func (m *Memory) Save(path string) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".img-*.tmp")
	if err != nil {
		return fmt.Errorf("device: creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(m.data); err != nil {
		tmp.Close()
		return fmt.Errorf("device: writing %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("device: closing %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("device: renaming into %s: %w", path, err)
	}
	return nil
}

// SaveCompressed is an alternate whole-image snapshot that xz-compresses
// the image before writing it, for callers who want smaller archived
// snapshots than the flat Save/Load pair produces.
func (m *Memory) SaveCompressed(path string) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".img-*.tmp")
	if err != nil {
		return fmt.Errorf("device: creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	w, err := xz.NewWriter(tmp)
	if err != nil {
		tmp.Close()
		return fmt.Errorf("device: creating xz writer: %w", err)
	}
	if _, err := w.Write(m.data); err != nil {
		w.Close()
		tmp.Close()
		return fmt.Errorf("device: xz-compressing %s: %w", tmpName, err)
	}
	if err := w.Close(); err != nil {
		tmp.Close()
		return fmt.Errorf("device: closing xz stream: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("device: closing %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("device: renaming into %s: %w", path, err)
	}
	return nil
}

// LoadCompressed is the counterpart to SaveCompressed.
func (m *Memory) LoadCompressed(path string) error {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return ErrNotFound
		}
		return fmt.Errorf("device: opening %s: %w", path, err)
	}
	defer f.Close()

	r, err := xz.NewReader(f)
	if err != nil {
		return fmt.Errorf("device: creating xz reader for %s: %w", path, err)
	}
	buf, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("device: decompressing %s: %w", path, err)
	}
	m.data = buf
	return nil
}
