package simplefs

import (
	"testing"

	"github.com/go-test/deep"
)

func TestBitOrderingIsMSBFirst(t *testing.T) {
	buf := make([]byte, 1)
	bitSet(buf, 0)
	if buf[0] != 0x80 {
		t.Fatalf("bit 0 should be the MSB: got %08b", buf[0])
	}
	bitSet(buf, 7)
	if buf[0] != 0x81 {
		t.Fatalf("bit 7 should be the LSB: got %08b", buf[0])
	}
	bitClear(buf, 0)
	if buf[0] != 0x01 {
		t.Fatalf("clearing bit 0 should leave only bit 7: got %08b", buf[0])
	}
}

func TestBitmapInitPrefix(t *testing.T) {
	fs := newTestFS(t)
	// Inode bitmap has its bit 0 pre-allocated for the root directory
	// at format time.
	set, err := fs.bitmapIsSet(fs.layout.InodeBitmapStart, fs.layout.InodeBitmapCount, 0)
	if err != nil {
		t.Fatalf("bitmapIsSet: %v", err)
	}
	if !set {
		t.Fatalf("inode bit 0 should be set after format")
	}
	set, err = fs.bitmapIsSet(fs.layout.InodeBitmapStart, fs.layout.InodeBitmapCount, 1)
	if err != nil {
		t.Fatalf("bitmapIsSet: %v", err)
	}
	if set {
		t.Fatalf("inode bit 1 should be free after format")
	}
}

func TestBitmapFirstUnusedLowestWins(t *testing.T) {
	fs := newTestFS(t)
	a, err := fs.bitmapFirstUnused(fs.layout.InodeBitmapStart, fs.layout.InodeBitmapCount, fs.geometry.MaxFiles)
	if err != nil {
		t.Fatalf("bitmapFirstUnused: %v", err)
	}
	if a != 1 {
		t.Fatalf("expected first free inode bit to be 1 (0 is root), got %d", a)
	}
	b, err := fs.bitmapFirstUnused(fs.layout.InodeBitmapStart, fs.layout.InodeBitmapCount, fs.geometry.MaxFiles)
	if err != nil {
		t.Fatalf("bitmapFirstUnused: %v", err)
	}
	if b != 2 {
		t.Fatalf("expected next free inode bit to be 2, got %d", b)
	}

	if err := fs.bitmapReset(fs.layout.InodeBitmapStart, fs.layout.InodeBitmapCount, uint32(a)); err != nil {
		t.Fatalf("bitmapReset: %v", err)
	}
	c, err := fs.bitmapFirstUnused(fs.layout.InodeBitmapStart, fs.layout.InodeBitmapCount, fs.geometry.MaxFiles)
	if err != nil {
		t.Fatalf("bitmapFirstUnused: %v", err)
	}
	if c != a {
		t.Fatalf("freeing bit %d should make it the first free bit again, got %d", a, c)
	}
}

func TestBitmapExhaustion(t *testing.T) {
	fs := newTestFS(t)
	var got []int64
	for i := uint32(0); i < fs.geometry.MaxFiles; i++ {
		idx, err := fs.bitmapFirstUnused(fs.layout.InodeBitmapStart, fs.layout.InodeBitmapCount, fs.geometry.MaxFiles)
		if err != nil {
			t.Fatalf("bitmapFirstUnused: %v", err)
		}
		if idx < 0 {
			break
		}
		got = append(got, idx)
	}
	// Bit 0 is already taken by the root directory at format time, so
	// MaxFiles-1 bits remain to be handed out.
	if len(got) != int(fs.geometry.MaxFiles)-1 {
		t.Fatalf("expected to allocate all %d free bits, got %d", fs.geometry.MaxFiles-1, len(got))
	}
	idx, err := fs.bitmapFirstUnused(fs.layout.InodeBitmapStart, fs.layout.InodeBitmapCount, fs.geometry.MaxFiles)
	if err != nil {
		t.Fatalf("bitmapFirstUnused: %v", err)
	}
	if idx != -1 {
		t.Fatalf("expected -1 once exhausted, got %d", idx)
	}

	want := make([]int64, fs.geometry.MaxFiles-1)
	for i := range want {
		want[i] = int64(i + 1)
	}
	if diff := deep.Equal(got, want); diff != nil {
		t.Errorf("allocation order mismatch: %v", diff)
	}
}

func TestBitmapResetOutOfRange(t *testing.T) {
	fs := newTestFS(t)
	if err := fs.bitmapReset(fs.layout.InodeBitmapStart, fs.layout.InodeBitmapCount, fs.geometry.MaxFiles+100); err == nil {
		t.Fatalf("expected error resetting out-of-range bit")
	}
}

func TestSectorBitmapPreAllocatesMetadata(t *testing.T) {
	fs := newTestFS(t)
	for s := uint32(0); s < fs.layout.DataStart; s++ {
		set, err := fs.bitmapIsSet(fs.layout.SectorBitmapStart, fs.layout.SectorBitmapCount, s)
		if err != nil {
			t.Fatalf("bitmapIsSet(%d): %v", s, err)
		}
		if !set {
			t.Errorf("metadata sector %d should be marked allocated", s)
		}
	}
	set, err := fs.bitmapIsSet(fs.layout.SectorBitmapStart, fs.layout.SectorBitmapCount, fs.layout.DataStart)
	if err != nil {
		t.Fatalf("bitmapIsSet: %v", err)
	}
	if set {
		t.Errorf("first data sector should be free right after format")
	}
}
