package simplefs

import "fmt"

// This file is a thin surface binding the path resolver, directory
// manager, file extent manager, and open-file table into the public
// operation set. Each method also records an ErrCode into the FS's
// last-error slot via fs.fail, for callers porting code against the
// original's single-errno ABI.

// File_Create creates an empty regular file at the given absolute
// path.
func (fs *FS) File_Create(path string) error { //nolint:revive,stylecheck
	parent, child, name, err := fs.resolvePath(path)
	if err != nil {
		return fs.fail(fmt.Errorf("%w: %v", ErrCreate, err))
	}
	if name == "" {
		return fs.fail(fmt.Errorf("%w: %q is the root directory", ErrCreate, path))
	}
	if child >= 0 {
		return fs.fail(fmt.Errorf("%w: %q already exists", ErrCreate, path))
	}
	if parent < 0 {
		return fs.fail(fmt.Errorf("%w: parent of %q does not exist", ErrCreate, path))
	}
	if _, err := fs.addInode(TypeFile, uint32(parent), name); err != nil {
		return fs.fail(err)
	}
	fs.lastErr = ENone
	return nil
}

// Dir_Create creates an empty directory at the given absolute path.
func (fs *FS) Dir_Create(path string) error { //nolint:revive,stylecheck
	parent, child, name, err := fs.resolvePath(path)
	if err != nil {
		return fs.fail(fmt.Errorf("%w: %v", ErrCreate, err))
	}
	if name == "" {
		return fs.fail(fmt.Errorf("%w: %q is the root directory", ErrCreate, path))
	}
	if child >= 0 {
		return fs.fail(fmt.Errorf("%w: %q already exists", ErrCreate, path))
	}
	if parent < 0 {
		return fs.fail(fmt.Errorf("%w: parent of %q does not exist", ErrCreate, path))
	}
	if _, err := fs.addInode(TypeDir, uint32(parent), name); err != nil {
		return fs.fail(err)
	}
	fs.lastErr = ENone
	return nil
}

// File_Open opens an existing regular file for reading and writing,
// returning a descriptor. Opening the same inode twice is permitted;
// each descriptor gets its own independent position (concurrent
// writes through two descriptors to the same inode remain undefined,
// as in the original).
func (fs *FS) File_Open(path string) (int, error) { //nolint:revive,stylecheck
	_, child, _, err := fs.resolvePath(path)
	if err != nil {
		return -1, fs.fail(fmt.Errorf("%w: %v", ErrGeneral, err))
	}
	if child < 0 {
		return -1, fs.fail(fmt.Errorf("%w: %q does not exist", ErrNoSuchFile, path))
	}
	ind, err := fs.readInode(uint32(child))
	if err != nil {
		return -1, fs.fail(fmt.Errorf("%w: reading inode %d: %v", ErrGeneral, child, err))
	}
	if ind.Type != TypeFile {
		return -1, fs.fail(fmt.Errorf("%w: %q is not a regular file", ErrGeneral, path))
	}
	fd := fs.openFiles.allocate(uint32(child), ind.Size)
	if fd < 0 {
		return -1, fs.fail(fmt.Errorf("%w: open file table is full", ErrTooManyOpenFiles))
	}
	fs.lastErr = ENone
	fs.log.WithField("path", path).WithField("fd", fd).Debug("simplefs: opened file")
	return fd, nil
}

// File_Read reads up to len(buf) bytes from fd's current position.
func (fs *FS) File_Read(fd int, buf []byte) (int, error) { //nolint:revive,stylecheck
	n, err := fs.fileRead(fd, buf)
	if err != nil {
		return n, fs.fail(err)
	}
	fs.lastErr = ENone
	return n, nil
}

// File_Write writes len(buf) bytes to fd, growing the file as needed.
func (fs *FS) File_Write(fd int, buf []byte) (int, error) { //nolint:revive,stylecheck
	n, err := fs.fileWrite(fd, buf)
	if err != nil {
		return n, fs.fail(err)
	}
	fs.lastErr = ENone
	return n, nil
}

// File_Seek repositions fd.
func (fs *FS) File_Seek(fd int, offset int64) (int64, error) { //nolint:revive,stylecheck
	pos, err := fs.fileSeek(fd, offset)
	if err != nil {
		return pos, fs.fail(err)
	}
	fs.lastErr = ENone
	return pos, nil
}

// File_Close releases fd. A closed descriptor must not be observed by
// any later operation.
func (fs *FS) File_Close(fd int) error { //nolint:revive,stylecheck
	if _, ok := fs.openFiles.get(fd); !ok {
		return fs.fail(fmt.Errorf("%w: descriptor %d is not open", ErrBadFD, fd))
	}
	fs.openFiles.release(fd)
	fs.lastErr = ENone
	return nil
}

// File_Unlink removes a regular file. Its data sectors and their
// sector-bitmap bits are intentionally not released.
func (fs *FS) File_Unlink(path string) error { //nolint:revive,stylecheck
	parent, child, _, err := fs.resolvePath(path)
	if err != nil {
		return fs.fail(fmt.Errorf("%w: %v", ErrGeneral, err))
	}
	if child < 0 || parent < 0 {
		return fs.fail(fmt.Errorf("%w: %q does not exist", ErrGeneral, path))
	}
	if err := fs.removeInode(TypeFile, uint32(parent), uint32(child)); err != nil {
		return fs.fail(fmt.Errorf("%w: %v", ErrGeneral, err))
	}
	fs.lastErr = ENone
	return nil
}

// Dir_Unlink removes an empty, non-root directory.
func (fs *FS) Dir_Unlink(path string) error { //nolint:revive,stylecheck
	parent, child, name, err := fs.resolvePath(path)
	if err != nil {
		return fs.fail(fmt.Errorf("%w: %v", ErrGeneral, err))
	}
	if name == "" {
		return fs.fail(fmt.Errorf("%w: cannot unlink the root directory", ErrGeneral))
	}
	if child < 0 || parent < 0 {
		return fs.fail(fmt.Errorf("%w: %q does not exist", ErrGeneral, path))
	}
	if err := fs.removeInode(TypeDir, uint32(parent), uint32(child)); err != nil {
		return fs.fail(fmt.Errorf("%w: %v", ErrGeneral, err))
	}
	fs.lastErr = ENone
	return nil
}

// resolveDirIndex resolves path to a directory's inode index,
// treating "/" as inode 0.
func (fs *FS) resolveDirIndex(path string) (uint32, error) {
	_, child, name, err := fs.resolvePath(path)
	if err != nil {
		return 0, err
	}
	if name == "" {
		return 0, nil
	}
	if child < 0 {
		return 0, fmt.Errorf("%w: %q does not exist", ErrGeneral, path)
	}
	ind, err := fs.readInode(uint32(child))
	if err != nil {
		return 0, fmt.Errorf("%w: reading inode %d: %v", ErrGeneral, child, err)
	}
	if ind.Type != TypeDir {
		return 0, fmt.Errorf("%w: %q is not a directory", ErrNotDirectory, path)
	}
	return uint32(child), nil
}

// Dir_Size returns the number of entries in the directory at path.
//
// This deviates from the original's "returns 0 on any error"
// behavior: 0 is a legitimate size for an empty directory and
// indistinguishable from failure, so this port returns -1 and a
// non-nil error instead. See DESIGN.md for the Open Question record.
func (fs *FS) Dir_Size(path string) (int64, error) { //nolint:revive,stylecheck
	idx, err := fs.resolveDirIndex(path)
	if err != nil {
		return -1, fs.fail(err)
	}
	ind, err := fs.readInode(idx)
	if err != nil {
		return -1, fs.fail(fmt.Errorf("%w: reading inode %d: %v", ErrGeneral, idx, err))
	}
	fs.lastErr = ENone
	return int64(ind.Size), nil
}

// Dir_Read enumerates path's entries as fixed 20-byte records into
// buf, returning the entry count.
func (fs *FS) Dir_Read(path string, buf []byte) (int, error) { //nolint:revive,stylecheck
	idx, err := fs.resolveDirIndex(path)
	if err != nil {
		return 0, fs.fail(err)
	}
	entries, err := fs.listDirEntries(idx)
	if err != nil {
		return 0, fs.fail(fmt.Errorf("%w: %v", ErrGeneral, err))
	}
	maxEntries := len(buf) / direntSize
	if len(entries) > maxEntries {
		return 0, fs.fail(fmt.Errorf("%w: buffer holds %d entries, directory has %d", ErrBufferTooSmall, maxEntries, len(entries)))
	}
	for i, e := range entries {
		copy(buf[i*direntSize:(i+1)*direntSize], encodeDirent(e.Name, e.Inode))
	}
	fs.lastErr = ENone
	return len(entries), nil
}
