package simplefs

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func TestFreshBootRootIsEmpty(t *testing.T) {
	fs := newTestFS(t)
	size, err := fs.Dir_Size("/")
	if err != nil {
		t.Fatalf("Dir_Size(/): %v", err)
	}
	if size != 0 {
		t.Fatalf("Dir_Size(/) on a fresh image = %d, want 0", size)
	}
}

func TestBootFormatsImageOnFirstUse(t *testing.T) {
	path := filepath.Join(t.TempDir(), "new.img")
	fs, err := Boot(path, smallGeometry())
	if err != nil {
		t.Fatalf("Boot: %v", err)
	}
	if err := fs.FS_Sync(); err != nil {
		t.Fatalf("FS_Sync: %v", err)
	}

	reopened, err := Boot(path, smallGeometry())
	if err != nil {
		t.Fatalf("re-Boot of a saved image: %v", err)
	}
	size, err := reopened.Dir_Size("/")
	if err != nil {
		t.Fatalf("Dir_Size(/): %v", err)
	}
	if size != 0 {
		t.Fatalf("Dir_Size(/) after reboot = %d, want 0", size)
	}
}

func TestBootRejectsWrongGeometry(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mismatch.img")
	fs, err := Boot(path, smallGeometry())
	if err != nil {
		t.Fatalf("Boot: %v", err)
	}
	if err := fs.FS_Sync(); err != nil {
		t.Fatalf("FS_Sync: %v", err)
	}

	wrong := smallGeometry()
	wrong.TotalSectors *= 2
	if _, err := Boot(path, wrong); err == nil {
		t.Fatalf("expected Boot to reject an image whose size doesn't match the requested geometry")
	}
}

func TestBootRejectsBadMagic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "garbage.img")
	g := smallGeometry()
	junk := bytes.Repeat([]byte{0xFF}, int(g.SectorSize)*int(g.TotalSectors))
	if err := os.WriteFile(path, junk, 0o644); err != nil {
		t.Fatalf("writing garbage image: %v", err)
	}
	if _, err := Boot(path, g); err == nil {
		t.Fatalf("expected Boot to reject an image with a bad magic number")
	}
}

// TestRebootAfterSyncPreservesState is the end-to-end persistence
// invariant: everything visible before a sync must read back
// identically after closing and reopening the same image.
func TestRebootAfterSyncPreservesState(t *testing.T) {
	path := filepath.Join(t.TempDir(), "roundtrip.img")
	fs, err := Boot(path, smallGeometry())
	if err != nil {
		t.Fatalf("Boot: %v", err)
	}

	if err := fs.Dir_Create("/sub"); err != nil {
		t.Fatalf("Dir_Create(/sub): %v", err)
	}
	if err := fs.File_Create("/a.txt"); err != nil {
		t.Fatalf("File_Create(/a.txt): %v", err)
	}
	if err := fs.File_Create("/sub/b.txt"); err != nil {
		t.Fatalf("File_Create(/sub/b.txt): %v", err)
	}

	fd, err := fs.File_Open("/a.txt")
	if err != nil {
		t.Fatalf("File_Open(/a.txt): %v", err)
	}
	payload := []byte("durable bytes")
	if _, err := fs.File_Write(fd, payload); err != nil {
		t.Fatalf("File_Write: %v", err)
	}
	if err := fs.File_Close(fd); err != nil {
		t.Fatalf("File_Close: %v", err)
	}

	if err := fs.FS_Sync(); err != nil {
		t.Fatalf("FS_Sync: %v", err)
	}

	reopened, err := Boot(path, smallGeometry())
	if err != nil {
		t.Fatalf("re-Boot: %v", err)
	}

	rootSize, err := reopened.Dir_Size("/")
	if err != nil {
		t.Fatalf("Dir_Size(/): %v", err)
	}
	if rootSize != 2 {
		t.Fatalf("Dir_Size(/) after reboot = %d, want 2", rootSize)
	}
	subSize, err := reopened.Dir_Size("/sub")
	if err != nil {
		t.Fatalf("Dir_Size(/sub): %v", err)
	}
	if subSize != 1 {
		t.Fatalf("Dir_Size(/sub) after reboot = %d, want 1", subSize)
	}

	fd2, err := reopened.File_Open("/a.txt")
	if err != nil {
		t.Fatalf("File_Open(/a.txt) after reboot: %v", err)
	}
	buf := make([]byte, len(payload))
	n, err := reopened.File_Read(fd2, buf)
	if err != nil {
		t.Fatalf("File_Read after reboot: %v", err)
	}
	if n != len(payload) || !bytes.Equal(buf, payload) {
		t.Fatalf("contents after reboot = %q, want %q", buf[:n], payload)
	}
}

func TestUnlinkThenRebootDropsEntry(t *testing.T) {
	path := filepath.Join(t.TempDir(), "unlink-reboot.img")
	fs, err := Boot(path, smallGeometry())
	if err != nil {
		t.Fatalf("Boot: %v", err)
	}
	if err := fs.File_Create("/a.txt"); err != nil {
		t.Fatalf("File_Create: %v", err)
	}
	if err := fs.File_Create("/b.txt"); err != nil {
		t.Fatalf("File_Create: %v", err)
	}
	if err := fs.File_Unlink("/a.txt"); err != nil {
		t.Fatalf("File_Unlink: %v", err)
	}
	if err := fs.FS_Sync(); err != nil {
		t.Fatalf("FS_Sync: %v", err)
	}

	reopened, err := Boot(path, smallGeometry())
	if err != nil {
		t.Fatalf("re-Boot: %v", err)
	}
	if _, err := reopened.File_Open("/a.txt"); err == nil {
		t.Fatalf("/a.txt should not exist after reboot")
	}
	if _, err := reopened.File_Open("/b.txt"); err != nil {
		t.Fatalf("/b.txt should still exist after reboot: %v", err)
	}
}

func TestLastErrorTracksMostRecentFailure(t *testing.T) {
	fs := newTestFS(t)
	if fs.LastError() != ENone {
		t.Fatalf("LastError() on a fresh FS = %v, want ENone", fs.LastError())
	}
	if err := fs.File_Create("/bad name"); err == nil {
		t.Fatalf("expected File_Create to reject a name with a space")
	}
	if fs.LastError() != ECreate {
		t.Fatalf("LastError() = %v, want ECreate", fs.LastError())
	}
	if err := fs.File_Create("/ok.txt"); err != nil {
		t.Fatalf("File_Create(/ok.txt): %v", err)
	}
	if fs.LastError() != ENone {
		t.Fatalf("LastError() after a successful call = %v, want ENone", fs.LastError())
	}
}
