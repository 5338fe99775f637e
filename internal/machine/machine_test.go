package machine

import (
	"log/slog"
	"os"
	"testing"

	"github.com/tjarmytage/pcemu/internal/config"
)

// stubCPU is a scripted stand-in for the external 8086 core: a linear
// instruction stream of fixed length and cycle cost.
type stubCPU struct {
	pc       uint32
	instrLen uint32
	cycles   int
	steps    int
	vectors  []byte
	nmis     int
}

func (c *stubCPU) Reset()                    { c.pc = 0xFFFF0 }
func (c *stubCPU) Step() int                 { c.pc += c.instrLen; c.steps++; return c.cycles }
func (c *stubCPU) PhysicalPC() uint32        { return c.pc }
func (c *stubCPU) NextInstructionPC() uint32 { return c.pc + c.instrLen }
func (c *stubCPU) AssertINTR(vector byte)    { c.vectors = append(c.vectors, vector) }
func (c *stubCPU) DeassertINTR()             {}
func (c *stubCPU) AssertNMI()                { c.nmis++ }

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.ConventionalRAM = 64 * 1024
	cfg.FloppyCount = 2
	cfg.VideoAdapter = config.VideoMDA
	return cfg
}

func newTestMachine(t *testing.T) (*Machine, *stubCPU) {
	t.Helper()
	m := New(testConfig(), quietLogger())
	cpu := &stubCPU{instrLen: 2, cycles: 4}
	m.SetCPU(cpu)
	m.Reset()
	return m, cpu
}

func TestSwitchImages(t *testing.T) {
	m, _ := newTestMachine(t)
	sw1, sw2 := m.Switches()

	// 64K planar on the 16-64 board: (64K>>12)-4 masked = 0x0C; MDA =
	// 0x30; FDC present with 2 drives = 0x01 | 0x40.
	if sw1 != 0x7D {
		t.Errorf("sw1 = %#x, want 0x7D", sw1)
	}
	if sw2 != 0 {
		t.Errorf("sw2 = %#x, want 0 (no I/O channel RAM)", sw2)
	}
}

func TestDMALoopbackThroughPorts(t *testing.T) {
	m, _ := newTestMachine(t)

	// program channel 0: write-into-memory, address 0x1000, 4 bytes
	m.WriteIOByte(0x0B, 0x04) // mode: channel 0, write transfer
	m.WriteIOByte(0x0C, 0x00) // clear flip-flop
	m.WriteIOByte(0x00, 0x00) // address low
	m.WriteIOByte(0x00, 0x10) // address high
	m.WriteIOByte(0x01, 0x03) // count low (4 bytes = count 3)
	m.WriteIOByte(0x01, 0x00) // count high
	m.WriteIOByte(0x0A, 0x00) // unmask channel 0

	data := []byte{0xDE, 0xAD, 0xBE, 0xEF}
	for _, b := range data {
		m.DMA.WriteByte(0, b)
	}

	for i, b := range data {
		if got := m.Mem.Read(0x1000 + uint32(i)); got != b {
			t.Errorf("mem[0x%x] = %#x, want %#x", 0x1000+i, got, b)
		}
	}
	if !m.DMA.TerminalCountReached(0) {
		t.Error("terminal count not reached after 4 bytes")
	}

	m.DMA.WriteByte(0, 0x55) // 5th write must be dropped
	for i, b := range data {
		if got := m.Mem.Read(0x1000 + uint32(i)); got != b {
			t.Errorf("mem[0x%x] changed to %#x after terminal count", 0x1000+i, got)
		}
	}
}

// initPIC runs the ICW sequence the BIOS uses: edge-triggered single mode,
// vector base 8, 8086 mode.
func initPIC(m *Machine) {
	m.WriteIOByte(0x20, 0x13) // ICW1: init, single, ICW4 needed
	m.WriteIOByte(0x21, 0x08) // ICW2: vector base
	m.WriteIOByte(0x21, 0x01) // ICW4: 8086 mode
	m.WriteIOByte(0x21, 0x00) // OCW1: unmask everything
}

func TestPICDeliveryAndEOIThroughPorts(t *testing.T) {
	m, cpu := newTestMachine(t)
	initPIC(m)

	m.PIC.RequestInterrupt(0)
	m.StepInstruction()
	m.RunFrame()

	if len(cpu.vectors) != 1 || cpu.vectors[0] != 0x08 {
		t.Fatalf("vectors = %v, want [0x08]", cpu.vectors)
	}

	// Before EOI the in-service bit blocks a second delivery.
	m.PIC.RequestInterrupt(0)
	m.StepInstruction()
	m.RunFrame()
	if len(cpu.vectors) != 1 {
		t.Fatalf("vector delivered while IRQ 0 still in service: %v", cpu.vectors)
	}

	m.WriteIOByte(0x20, 0x20) // OCW2: non-specific EOI

	m.PIC.RequestInterrupt(0)
	m.StepInstruction()
	m.RunFrame()
	if len(cpu.vectors) != 2 {
		t.Fatalf("vector not delivered after EOI: %v", cpu.vectors)
	}
}

func TestKeyboardScancodeToIRQ1AndPortA(t *testing.T) {
	m, cpu := newTestMachine(t)
	initPIC(m)

	// BIOS-style keyboard enable: clock high with SW1 selected, then
	// deselect SW1 so port A reads the shift register.
	m.WriteIOByte(0x61, 0xC0)
	m.WriteIOByte(0x61, 0x40)

	m.Keyboard.PushScancode(0x1C)
	m.RunFrame() // a full frame covers at least one keyboard tick

	found := false
	for _, v := range cpu.vectors {
		if v == 0x09 {
			found = true
		}
	}
	if !found {
		t.Fatalf("IRQ 1 vector not delivered: %v", cpu.vectors)
	}
	if got := m.ReadIOByte(0x60); got != 0x1C {
		t.Errorf("port A = %#x, want scancode 0x1C", got)
	}
}

func TestPortAReadsSW1WhenSelected(t *testing.T) {
	m, _ := newTestMachine(t)
	m.WriteIOByte(0x61, 0x80)
	sw1, _ := m.Switches()
	if got := m.ReadIOByte(0x60); got != sw1 {
		t.Errorf("port A = %#x, want sw1 %#x", got, sw1)
	}
}

func TestBreakpointHaltsExecution(t *testing.T) {
	m, cpu := newTestMachine(t)
	cpu.pc = 0

	m.SetBreakpoint(100)
	m.RunFrame()

	if !m.Halted() {
		t.Fatal("machine did not halt at breakpoint")
	}
	if cpu.pc != 100 {
		t.Errorf("pc = %d, want 100", cpu.pc)
	}

	// a halted machine makes no progress
	steps := cpu.steps
	m.RunFrame()
	if cpu.steps != steps {
		t.Error("halted machine executed instructions")
	}
}

func TestStepInstructionRunsExactlyOne(t *testing.T) {
	m, cpu := newTestMachine(t)
	m.Halt()
	steps := cpu.steps

	m.StepInstruction()
	m.RunFrame()
	if cpu.steps != steps+1 {
		t.Fatalf("steps = %d, want %d", cpu.steps, steps+1)
	}
	if !m.Halted() {
		t.Error("machine should halt after a single step")
	}
}

func TestStepOverStopsAtFollowingInstruction(t *testing.T) {
	m, cpu := newTestMachine(t)
	m.Halt()
	cpu.pc = 50

	m.StepOver()
	m.RunFrame()

	if !m.Halted() {
		t.Fatal("machine did not halt after step-over")
	}
	if cpu.pc != 52 {
		t.Errorf("pc = %d, want 52", cpu.pc)
	}
}

func TestVideoCardMemoryWindowAndPorts(t *testing.T) {
	m, _ := newTestMachine(t)

	// MDA text RAM at 0xB0000, mirrored every 4K through the 32K window
	m.WriteMemByte(0xB0000, 0x41)
	if got := m.ReadMemByte(0xB1000); got != 0x41 {
		t.Errorf("mirror read = %#x, want 0x41", got)
	}

	// CRTC access through the card's I/O window
	m.WriteIOByte(0x3B4, 0x0A) // cursor start index
	m.WriteIOByte(0x3B5, 0x2B)
	if m.MDA.CRTC.CursorStart != 0x2B {
		t.Errorf("CursorStart = %#x, want 0x2B", m.MDA.CRTC.CursorStart)
	}

	// status register toggles retrace bits between reads
	a := m.ReadIOByte(0x3BA)
	b := m.ReadIOByte(0x3BA)
	if a == b {
		t.Error("MDA status retrace bits did not toggle")
	}
}

func TestResetScrubsRAMButNotROM(t *testing.T) {
	m, _ := newTestMachine(t)
	m.LoadROM(0xFE000, []byte{0xEA, 0x5B, 0xE0})
	m.WriteMemByte(0x2000, 0x77)

	m.Reset()

	if got := m.ReadMemByte(0x2000); got != 0 {
		t.Errorf("RAM not scrubbed on reset: %#x", got)
	}
	if got := m.ReadMemByte(0xFE000); got != 0xEA {
		t.Errorf("ROM scrubbed on reset: %#x", got)
	}
	// writes to the write-protected region are dropped
	m.WriteMemByte(0xFE000, 0x00)
	if got := m.ReadMemByte(0xFE000); got != 0xEA {
		t.Error("write-protected ROM was modified")
	}
}

func TestNMIGatedByMaskRegister(t *testing.T) {
	m, cpu := newTestMachine(t)

	m.RaiseNMI()
	if cpu.nmis != 0 {
		t.Fatal("NMI delivered while gate disabled")
	}

	m.WriteIOByte(0xA0, 0x80)
	m.RaiseNMI()
	if cpu.nmis != 1 {
		t.Fatal("NMI not delivered after enabling the gate")
	}
}
