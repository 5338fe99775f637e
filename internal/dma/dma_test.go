package dma

import "testing"

type fakeMem struct {
	data [0x2000]byte
}

func (m *fakeMem) ReadByte(addr uint32) byte     { return m.data[addr] }
func (m *fakeMem) WriteByte(addr uint32, v byte) { m.data[addr] = v }

func newTestController() (*Controller, *fakeMem) {
	mem := &fakeMem{}
	c := New(mem, nil)
	c.Reset()
	return c, mem
}

func programChannel(c *Controller, ch int, addr, count uint16, mode byte) {
	// flip-flop starts cleared after Reset; two writes per 16-bit register.
	addrPort := [4]uint16{PortChannel0Address, PortChannel1Address, PortChannel2Address, PortChannel3Address}[ch]
	wcPort := [4]uint16{PortChannel0WordCount, PortChannel1WordCount, PortChannel2WordCount, PortChannel3WordCount}[ch]

	c.WriteIO(PortClearFlipFlop, 0)
	c.WriteIO(addrPort, byte(addr))
	c.WriteIO(addrPort, byte(addr>>8))

	c.WriteIO(PortClearFlipFlop, 0)
	c.WriteIO(wcPort, byte(count))
	c.WriteIO(wcPort, byte(count>>8))

	c.WriteIO(PortMode, byte(ch)|mode)
}

func TestDMALoopbackWriteIntoMemory(t *testing.T) {
	c, mem := newTestController()
	programChannel(c, 0, 0x1000, 3, AddressModeIncrement|TransferTypeWrite)

	data := []byte{0xDE, 0xAD, 0xBE, 0xEF}
	for _, b := range data {
		c.WriteByte(0, b)
	}

	for i, want := range data {
		if got := mem.data[0x1000+i]; got != want {
			t.Errorf("mem[0x1000+%d] = %#x, want %#x", i, got, want)
		}
	}

	if !c.TerminalCountReached(0) {
		t.Errorf("terminal count not reached after 4-byte transfer")
	}

	// a 5th write must leave memory unchanged
	before := mem.data[0x1004]
	c.WriteByte(0, 0x77)
	if mem.data[0x1004] != before {
		t.Errorf("write past terminal count modified memory: got %#x, want %#x", mem.data[0x1004], before)
	}
}

func TestReadByteRespectsControllerDisable(t *testing.T) {
	c, mem := newTestController()
	mem.data[0x2000&0x1FFF] = 0x5A
	programChannel(c, 1, 0x0000, 0, AddressModeIncrement|TransferTypeRead)

	c.WriteIO(PortCommandRegister, CommandDisable)
	if got := c.ReadByte(1); got != 0 {
		t.Errorf("ReadByte with controller disabled = %#x, want 0", got)
	}
}

func TestWriteByteIgnoresControllerDisable(t *testing.T) {
	c, mem := newTestController()
	programChannel(c, 2, 0x0010, 0, AddressModeIncrement|TransferTypeWrite)
	c.WriteIO(PortCommandRegister, CommandDisable)

	c.WriteByte(2, 0x99)
	if mem.data[0x0010] != 0x99 {
		t.Errorf("WriteByte with controller disabled did not transfer: mem[0x10] = %#x", mem.data[0x0010])
	}
}

func TestAutoInitReload(t *testing.T) {
	c, _ := newTestController()
	programChannel(c, 3, 0x0100, 1, AddressModeIncrement|TransferTypeWrite|ModeAutoInit)

	c.WriteByte(3, 0x01)
	c.WriteByte(3, 0x02)
	if !c.TerminalCountReached(3) {
		t.Fatalf("terminal count not reached")
	}
	if c.Channels[3].CurrentAddress != c.Channels[3].LatchedAddress {
		t.Errorf("auto-init did not reload current address")
	}
	if c.Channels[3].CurrentWordCount != c.Channels[3].LatchedWordCount {
		t.Errorf("auto-init did not reload current word count")
	}
}

func TestMaskRegisters(t *testing.T) {
	c, _ := newTestController()
	c.WriteIO(PortWriteMask, 0x01) // mask channel 0 only
	if !c.Channels[0].Masked {
		t.Errorf("channel 0 should be masked")
	}
	if c.ChannelReady(0) {
		t.Errorf("ChannelReady(0) = true, want false")
	}

	c.WriteIO(PortClearMask, 0)
	if c.Channels[0].Masked {
		t.Errorf("channel 0 should be unmasked after clear-mask")
	}

	c.WriteIO(PortChannelMask, 0x02|0x04) // mask channel 2 via single-channel port
	if !c.Channels[2].Masked {
		t.Errorf("single-channel mask write did not mask channel 2")
	}
}
