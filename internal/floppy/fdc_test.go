package floppy

import (
	"testing"

	"github.com/tjarmytage/pcemu/internal/chs"
)

// fakeDMA is a minimal stand-in for internal/dma.Controller, moving one
// byte at a time and asserting terminal count after a fixed number of
// bytes.
type fakeDMA struct {
	mem    []byte
	addr   int
	remain int
	ready  bool
}

func newFakeDMA(size int) *fakeDMA {
	return &fakeDMA{mem: make([]byte, size), remain: size, ready: true}
}

func (d *fakeDMA) ReadByte(ch int) byte {
	v := d.mem[d.addr]
	d.addr++
	d.remain--
	return v
}

func (d *fakeDMA) WriteByte(ch int, value byte) {
	d.mem[d.addr] = value
	d.addr++
	d.remain--
}

func (d *fakeDMA) TerminalCountReached(ch int) bool {
	return d.remain <= 0
}

func (d *fakeDMA) ChannelReady(ch int) bool {
	return d.ready
}

func insertTestDisk(t *testing.T, c *Controller, unit int) {
	t.Helper()
	g, ok := LookupGeometry(360 * 1024)
	if !ok {
		t.Fatal("360K geometry missing from table")
	}
	data := NewBlank(g)
	if err := c.Drives[unit].Insert("test.img", data, false); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	c.Drives[unit].SetMotor(true)
}

func specify(c *Controller) {
	c.WriteIO(PortData, cmdSpecify)
	c.WriteIO(PortData, 0xD0) // srt=0xD, hut=0
	c.WriteIO(PortData, 0x02) // hlt, nd=0
}

func TestReadIDAfterSpecify(t *testing.T) {
	c := New(newFakeDMA(512), nil)
	insertTestDisk(t, c, 0)
	specify(c)

	c.WriteIO(PortDOR, dorEnable|dorMotor0) // select drive 0, motor on

	c.WriteIO(PortData, cmdReadID)
	c.WriteIO(PortData, 0x00) // HD/US = head 0, unit 0

	results := readResult(t, c, 7)
	want := []byte{0x00, 0x00, 0x00, 0x00, 0x00, 0x01, 0x02}
	for i, b := range want {
		if results[i] != b {
			t.Errorf("result[%d] = %#x, want %#x (full=%v)", i, results[i], b, results)
		}
	}
}

func readResult(t *testing.T, c *Controller, n int) []byte {
	t.Helper()
	out := make([]byte, 0, n)
	for i := 0; i < n; i++ {
		if c.readMSR()&msrRQM == 0 {
			t.Fatalf("controller not ready for result byte %d", i)
		}
		out = append(out, c.ReadIO(PortData))
	}
	return out
}

func TestWriteDataTransfersSectorAndRaisesIRQ(t *testing.T) {
	dma := newFakeDMA(SectorSize)
	for i := range dma.mem {
		dma.mem[i] = byte(i)
	}
	c := New(dma, nil)
	insertTestDisk(t, c, 0)
	specify(c)
	c.WriteIO(PortDOR, dorEnable|dorMotor0)

	irqs := 0
	c.RequestIRQ = func() { irqs++ }

	c.WriteIO(PortData, cmdWriteData)
	c.WriteIO(PortData, 0x00) // HD/US
	c.WriteIO(PortData, 0x00) // C
	c.WriteIO(PortData, 0x00) // H
	c.WriteIO(PortData, 0x01) // R (sector 1)
	c.WriteIO(PortData, 0x02) // N -> 512 bytes
	c.WriteIO(PortData, 0x09) // EOT
	c.WriteIO(PortData, 0x1B) // GPL
	c.WriteIO(PortData, 0xFF) // DTL

	for i := 0; i < SectorSize+1; i++ {
		c.Tick()
	}

	if irqs != 1 {
		t.Fatalf("irqs = %d, want 1", irqs)
	}

	off := int64(0) // sector 1, head 0, cyl 0 is LBA 0
	got := c.Drives[0].ReadByte(off)
	if got != dma.mem[0] {
		t.Errorf("disk[0] = %#x, want %#x", got, dma.mem[0])
	}
}

func TestWriteProtectedDriveAbortsWrite(t *testing.T) {
	c := New(newFakeDMA(512), nil)
	g, _ := LookupGeometry(360 * 1024)
	data := NewBlank(g)
	c.Drives[0].Insert("test.img", data, true)
	c.Drives[0].SetMotor(true)
	specify(c)
	c.WriteIO(PortDOR, dorEnable|dorMotor0)

	irqs := 0
	c.RequestIRQ = func() { irqs++ }

	c.WriteIO(PortData, cmdWriteData)
	for _, b := range []byte{0x00, 0x00, 0x00, 0x01, 0x02, 0x09, 0x1B, 0xFF} {
		c.WriteIO(PortData, b)
	}

	if c.phase != phaseResult {
		t.Fatalf("phase = %v, want phaseResult (abnormal termination)", c.phase)
	}
	if irqs != 1 {
		t.Errorf("irqs = %d, want 1", irqs)
	}
}

func TestChsAdvanceRollover(t *testing.T) {
	g := chs.Geometry{Cylinders: 40, Heads: 2, Sectors: 9}
	cases := []struct {
		in, want chs.CHS
	}{
		{chs.CHS{Cylinder: 0, Head: 0, Sector: 9}, chs.CHS{Cylinder: 0, Head: 1, Sector: 1}},
		{chs.CHS{Cylinder: 0, Head: 1, Sector: 9}, chs.CHS{Cylinder: 1, Head: 0, Sector: 1}},
		{chs.CHS{Cylinder: 39, Head: 1, Sector: 9}, chs.CHS{Cylinder: 0, Head: 0, Sector: 1}},
	}
	for _, tc := range cases {
		got := chs.Advance(g, tc.in)
		if got != tc.want {
			t.Errorf("Advance(%v) = %v, want %v", tc.in, got, tc.want)
		}
	}
}
