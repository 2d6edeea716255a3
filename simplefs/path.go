package simplefs

import (
	"fmt"
	"regexp"
	"strings"
)

// nameRegex is the fixed rule every path component must match,
// independent of platform path rules.
var nameRegex = regexp.MustCompile(`^[A-Za-z0-9._-]{1,15}$`)

func validName(name string) bool {
	return nameRegex.MatchString(name)
}

// splitPath validates that p is absolute and splits it into non-empty
// components, collapsing consecutive slashes.
func splitPath(p string) ([]string, error) {
	if len(p) == 0 || p[0] != '/' {
		return nil, fmt.Errorf("%w: path %q is not absolute", ErrBadName, p)
	}
	if len(p) > maxPath {
		return nil, fmt.Errorf("%w: path %q exceeds MAX_PATH", ErrBadName, p)
	}
	var out []string
	for _, c := range strings.Split(p, "/") {
		if c == "" {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

// resolvePath translates an absolute path into (parent_inode,
// child_inode_or_missing, last_name). Root ("/") yields
// (0, 0, "") as a special case. childInode == -1 signals the last
// component does not exist in its parent; a non-nil error signals a
// structural failure (illegal name, or an intermediate component that
// doesn't resolve to a directory).
func (fs *FS) resolvePath(p string) (parentInode int64, childInode int64, lastName string, err error) {
	components, err := splitPath(p)
	if err != nil {
		return 0, 0, "", err
	}
	if len(components) == 0 {
		return 0, 0, "", nil
	}

	parent := int64(-1)
	child := int64(0)
	for _, name := range components {
		if !validName(name) {
			return 0, 0, "", fmt.Errorf("%w: component %q is illegal", ErrBadName, name)
		}
		if child < 0 {
			return 0, 0, "", fmt.Errorf("%w: cannot resolve %q: parent component is missing", ErrNoSuchFile, p)
		}
		parent = child
		c, err := fs.findChild(uint32(parent), name)
		if err != nil {
			return 0, 0, "", err
		}
		child = c
		lastName = name
	}
	return parent, child, lastName, nil
}

// addInode allocates an inode bit, writes a zeroed inode of type t,
// and appends a directory entry for it in parentIndex. Any failure is
// reported as E_CREATE.
func (fs *FS) addInode(t InodeType, parentIndex uint32, name string) (uint32, error) {
	child, err := fs.allocateInodeBit()
	if err != nil {
		return 0, fmt.Errorf("%w: no free inodes: %v", ErrCreate, err)
	}
	if err := fs.writeInode(child, newInode(fs.geometry, t)); err != nil {
		return 0, fmt.Errorf("%w: writing new inode %d: %v", ErrCreate, child, err)
	}
	if err := fs.appendDirEntry(parentIndex, name, child); err != nil {
		// Known anomaly: partial mutations are not rolled back. The
		// inode bit allocated above stays set and the
		// zeroed inode stays live but unreachable from any directory.
		return 0, fmt.Errorf("%w: appending directory entry: %v", ErrCreate, err)
	}
	return child, nil
}

// removeInode verifies childIndex is of expectedType and, if a
// directory, empty; zeroes and frees it; removes its entry from
// parentIndex via swap-with-last.
func (fs *FS) removeInode(expectedType InodeType, parentIndex, childIndex uint32) error {
	child, err := fs.readInode(childIndex)
	if err != nil {
		return fmt.Errorf("%w: reading inode %d: %v", ErrGeneral, childIndex, err)
	}
	if child.Type != expectedType {
		return fmt.Errorf("%w: inode %d is not the expected type", ErrWrongType, childIndex)
	}
	if child.Type == TypeDir && child.Size > 0 {
		return fmt.Errorf("%w: directory inode %d has %d entries", ErrNotEmpty, childIndex, child.Size)
	}

	zeroed := &inode{Size: 0, Type: 0, Data: make([]uint32, fs.geometry.MaxSectorsPerFile)}
	if err := fs.writeInode(childIndex, zeroed); err != nil {
		return fmt.Errorf("%w: zeroing inode %d: %v", ErrGeneral, childIndex, err)
	}
	if err := fs.releaseInodeBit(childIndex); err != nil {
		return fmt.Errorf("%w: releasing inode bit %d: %v", ErrGeneral, childIndex, err)
	}
	if err := fs.removeDirEntry(parentIndex, childIndex); err != nil {
		return fmt.Errorf("%w: removing directory entry: %v", ErrGeneral, err)
	}
	return nil
}
