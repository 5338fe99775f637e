package memmap

import "testing"

func TestWriteThenReadSameAddress(t *testing.T) {
	m := New(nil)
	m.AddRegion(0, Size, Size-1, true)

	for _, addr := range []uint32{0, 0x1000, 0x9FFFF, Size - 1} {
		m.Write(addr, 0x42)
		if got := m.Read(addr); got != 0x42 {
			t.Errorf("Read(%#x) = %#x, want 0x42", addr, got)
		}
	}
}

func TestWriteOutsideActiveRegionDropped(t *testing.T) {
	m := New(nil)
	m.AddRegion(0, 0x1000, 0xFFF, true)
	m.Write(0x2000, 0x99)
	if got := m.Read(0x2000); got != 0 {
		t.Errorf("Read(0x2000) = %#x, want 0 (no active region)", got)
	}
}

func TestWriteProtectedRegionDropsWrite(t *testing.T) {
	m := New(nil)
	idx := m.AddRegion(0, 0x1000, 0xFFF, false)
	m.LoadROM(0, []byte{0xAA, 0xBB})
	m.Write(0, 0x00)
	if got := m.Read(0); got != 0xAA {
		t.Errorf("Read(0) = %#x, want 0xAA (write-protected)", got)
	}
	if _, ok := m.Region(idx); !ok {
		t.Fatalf("Region(%d) not found", idx)
	}
}

func TestMirroring(t *testing.T) {
	m := New(nil)
	// 4 KiB region mirrored across a 32 KiB window: mask = 0xFFF.
	m.AddRegion(0xB0000, 0x8000, 0xFFF, true)
	m.Write(0xB0000, 0x55)
	if got := m.Read(0xB0000 + 0x1000); got != 0x55 {
		t.Errorf("mirrored Read = %#x, want 0x55", got)
	}
}

func TestRemovedRegionEnableIsNoOp(t *testing.T) {
	m := New(nil)
	idx := m.AddRegion(0, 0x1000, 0xFFF, true)
	m.RemoveRegion(idx)
	m.EnableRegion(idx)
	if _, ok := m.Region(idx); ok {
		t.Errorf("Region(%d) should not resolve after removal", idx)
	}
}

func TestRemovedSlotReused(t *testing.T) {
	m := New(nil)
	idx := m.AddRegion(0, 0x1000, 0xFFF, true)
	m.RemoveRegion(idx)
	newIdx := m.AddRegion(0x4000, 0x1000, 0xFFF, true)
	if newIdx != idx {
		t.Errorf("AddRegion reused slot %d, want reuse of removed slot %d", newIdx, idx)
	}
}

func TestFillWritable(t *testing.T) {
	m := New(nil)
	m.AddRegion(0, 0x10, 0xF, true)
	m.Write(4, 0xFF)
	m.FillWritable(0)
	if got := m.Read(4); got != 0 {
		t.Errorf("Read(4) after FillWritable = %#x, want 0", got)
	}
}
