/*
 * pcemu - IBM PC machine composition and pacing
 *
 * Copyright (c) 2025, pcemu contributors
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in
 * all copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 */

// Package machine composes the chipset into an IBM PC and paces every
// device clock off the CPU's instruction stream. All device ticks and the
// CPU run on one goroutine inside RunFrame; the only suspension point is
// the frame-pacing wait in the caller's outer loop.
package machine

import (
	"log/slog"

	"github.com/tjarmytage/pcemu/internal/config"
	"github.com/tjarmytage/pcemu/internal/dma"
	"github.com/tjarmytage/pcemu/internal/floppy"
	"github.com/tjarmytage/pcemu/internal/harddisk"
	"github.com/tjarmytage/pcemu/internal/isabus"
	"github.com/tjarmytage/pcemu/internal/keyboard"
	"github.com/tjarmytage/pcemu/internal/memmap"
	"github.com/tjarmytage/pcemu/internal/nmi"
	"github.com/tjarmytage/pcemu/internal/pic"
	"github.com/tjarmytage/pcemu/internal/pit"
	"github.com/tjarmytage/pcemu/internal/ppi"
	"github.com/tjarmytage/pcemu/internal/video"
)

// Clocks, all divided down from the motherboard's 14.318 MHz crystal.
const (
	CrystalHz   = 14318181 // 15.75 MHz / 1.1
	CPUClockHz  = CrystalHz / 3
	PITClockHz  = CrystalHz / 12
	DMAClockHz  = 1639653 // crystal / 8.732575
	FrameRateHz = 60
)

// CPUCyclesPerFrame is the per-frame instruction-cycle quota.
const CPUCyclesPerFrame uint64 = CPUClockHz / FrameRateHz

// IRQ line assignments.
const (
	IRQTimer0   = 0
	IRQKeyboard = 1
	IRQHDC      = 5
	IRQFDC      = 6
)

// Chipset port bases.
const (
	dmaPageMask = 0xFF // DMA page registers sit at 0x81-0x87

	nmiBase = 0xA0
	picBase = 0x20
	pitBase = 0x40
	ppiBase = 0x60

	fdcBase = 0x3F0
	hdcBase = 0x320
)

// PPI port B bits.
const (
	portBTimer2Gate  = 0x01
	portBSpeakerData = 0x02
	portBReadSW2Key  = 0x04
	portBKBEnable    = 0x40
	portBReadSW1KB   = 0x80
)

// SW1 bits.
const (
	sw1HasFDC      = 0x01
	sw1RAMMask     = 0x0C
	sw1DisplayMask = 0x30
	sw1DisksMask   = 0xC0
)

// CPU is the external 8086 core. The machine never constructs one; the
// frontend builds it over the machine's memory and I/O hooks and attaches
// it with SetCPU.
type CPU interface {
	Reset()
	// Step executes one instruction and returns its cycle count.
	Step() int
	// PhysicalPC returns CS*16+IP.
	PhysicalPC() uint32
	// NextInstructionPC returns the physical address of the instruction
	// following the current one, used for step-over.
	NextInstructionPC() uint32
	AssertINTR(vector byte)
	DeassertINTR()
	AssertNMI()
}

type stepMode int

const (
	runContinuous stepMode = iota
	stepHalted
	stepOnce
)

// memBus adapts the memory map to the DMA controller's transfer contract.
type memBus struct {
	m *memmap.Map
}

func (b memBus) ReadByte(addr uint32) byte         { return b.m.Read(addr) }
func (b memBus) WriteByte(addr uint32, value byte) { b.m.Write(addr, value) }

// Machine owns the memory map, the ISA bus, every chipset device, and the
// disk backing buffers.
type Machine struct {
	Config *config.Config

	Mem      *memmap.Map
	Bus      *isabus.Bus
	DMA      *dma.Controller
	PIT      *pit.Timer
	PIC      *pic.Controller
	PPI      *ppi.PPI
	NMI      *nmi.Register
	Keyboard *keyboard.Controller
	FDC      *floppy.Controller
	HDC      *harddisk.Controller
	MDA      *video.MDA
	CGA      *video.CGA

	// SpeakerOut mirrors PIT channel 2's output gated through PPI port B,
	// for the (out-of-scope) audio frontend to sample.
	SpeakerOut bool

	cpu CPU

	sw1, sw2   byte
	portB      byte
	timer2Gate bool

	baseMemory uint32 // planar RAM
	extMemory  uint32 // I/O channel RAM

	lastCycles int
	cpuCycles  uint64
	cpuAccum   uint64

	dmaAccum, fdcAccum, hdcAccum, pitAccum, kbdAccum      uint64
	dmaCycles, fdcCycles, hdcCycles, pitCycles, kbdCycles uint64

	step           stepMode
	breakpoint     uint32
	breakEnabled   bool
	stepOverTarget uint32
	stepOverArmed  bool

	log *slog.Logger
}

// New builds a machine from cfg: memory regions, chipset wiring, ISA
// cards, and the motherboard switch images.
func New(cfg *config.Config, log *slog.Logger) *Machine {
	if log == nil {
		log = slog.Default()
	}
	m := &Machine{
		Config: cfg,
		log:    log.With("component", "machine"),
	}

	m.Mem = memmap.New(log)
	m.Bus = isabus.New(m.Mem)
	m.DMA = dma.New(memBus{m.Mem}, log)
	m.PIT = pit.New(log)
	m.PIC = pic.New(log)
	m.PPI = ppi.New()
	m.NMI = nmi.New()
	m.Keyboard = keyboard.New(log)
	m.FDC = floppy.New(m.DMA, log)
	m.HDC = harddisk.New(m.DMA, log)

	m.splitMemory()
	m.setSwitches()
	m.wireChipset()
	m.addMemoryRegions()
	m.addCards()
	m.Mem.Validate()

	m.log.Info("machine configured",
		"planar", m.baseMemory/1024, "io_ram", m.extMemory/1024,
		"sw1", m.sw1, "sw2", m.sw2)
	return m
}

// SetCPU attaches the external CPU core.
func (m *Machine) SetCPU(cpu CPU) {
	m.cpu = cpu
}

// splitMemory divides configured conventional RAM into planar and I/O
// channel portions; the planar holds at most 64 KiB.
func (m *Machine) splitMemory() {
	const maxPlanar = 64 * 1024
	total := m.Config.ConventionalRAM
	if total >= maxPlanar {
		m.baseMemory = maxPlanar
		m.extMemory = total - maxPlanar
	} else {
		m.baseMemory = total
		m.extMemory = 0
	}
}

// wireChipset connects the callback fabric: PIT outputs, PPI ports, DMA
// memory access, and every device's IRQ line into the PIC.
func (m *Machine) wireChipset() {
	// PIT channel 0 drives IRQ 0 on each rising output edge; channel 2
	// feeds the speaker, gated by PPI port B bit 0.
	m.PIT.Channels[0].OnOutputChange = func(out bool) {
		if out {
			m.PIC.RequestInterrupt(IRQTimer0)
		}
	}
	m.PIT.Channels[2].Gate = func() bool { return m.timer2Gate }
	m.PIT.Channels[2].OnOutputChange = func(out bool) {
		m.SpeakerOut = out && m.portB&portBSpeakerData != 0
	}

	// PPI port A reads the keyboard shift register or the SW1 image,
	// selected by port B bit 7.
	m.PPI.ReadA = func() byte {
		if m.portB&portBReadSW1KB != 0 {
			return m.sw1
		}
		v := m.Keyboard.Data()
		m.Keyboard.AckData()
		return v
	}
	m.PPI.ReadB = func() byte { return m.portB }
	m.PPI.WriteB = func(value byte) {
		m.timer2Gate = value&portBTimer2Gate != 0

		if rising(portBKBEnable, m.portB, value) {
			m.Keyboard.SetClk(true)
		} else if falling(portBKBEnable, m.portB, value) {
			m.Keyboard.SetClk(false)
		}

		if rising(portBReadSW1KB, m.portB, value) {
			m.Keyboard.SetEnable(false)
		} else if falling(portBReadSW1KB, m.portB, value) {
			m.Keyboard.SetEnable(true)
		}
		m.portB = value
	}
	// Port C reads the SW2 image, low nibble or the fifth switch,
	// selected by port B bit 2.
	m.PPI.ReadC = func() byte {
		if m.portB&portBReadSW2Key != 0 {
			return m.sw2 & 0x0F
		}
		return (m.sw2 >> 4) & 0x01
	}

	m.Keyboard.RequestIRQ = func() { m.PIC.RequestInterrupt(IRQKeyboard) }
	m.Keyboard.ClearIRQ = func() { m.PIC.ClearInterrupt(IRQKeyboard) }
	m.FDC.RequestIRQ = func() { m.PIC.RequestInterrupt(IRQFDC) }
	m.FDC.ClearIRQ = func() { m.PIC.ClearInterrupt(IRQFDC) }
	m.HDC.RequestIRQ = func() { m.PIC.RequestInterrupt(IRQHDC) }
}

// addMemoryRegions lays out conventional RAM and the ROM windows.
func (m *Machine) addMemoryRegions() {
	total := m.baseMemory + m.extMemory
	m.Mem.AddRegion(0x00000, total, 0xFFFFF, true)

	// BIOS ROM 0xFE000-0xFFFFF (8K)
	m.Mem.AddRegion(0xFE000, 0x2000, 0xFFFFF, false)
	// BASIC ROM 0xF6000-0xFDFFF (32K)
	m.Mem.AddRegion(0xF6000, 0x8000, 0xFFFFF, false)
	// Expansion ROM 0xC0000-0xF5FFF (216K)
	m.Mem.AddRegion(0xC0000, 0x36000, 0xFFFFF, false)
}

// LoadROM copies a ROM image into the backing buffer at addr.
func (m *Machine) LoadROM(addr uint32, data []byte) {
	m.Mem.LoadROM(addr, data)
}

// ReadMemByte and WriteMemByte are the memory hooks the CPU core borrows.
func (m *Machine) ReadMemByte(addr uint32) byte         { return m.Mem.Read(addr) }
func (m *Machine) WriteMemByte(addr uint32, value byte) { m.Mem.Write(addr, value) }

// ReadIOByte dispatches a port read: installed cards first, in slot order,
// then the motherboard chipset. An unclaimed port reads 0xFF.
func (m *Machine) ReadIOByte(port uint16) byte {
	if v, handled := m.Bus.TryReadIO(port); handled {
		return v
	}

	switch {
	case port <= 0x0F, port == 0x81, port == 0x82, port == 0x83, port == 0x87:
		return m.DMA.ReadIO(port & dmaPageMask)
	case port == nmiBase:
		return m.NMI.ReadIO(0)
	case port == picBase || port == picBase+1:
		return m.PIC.ReadIO(port - picBase)
	case port >= pitBase && port <= pitBase+3:
		return m.PIT.ReadIO(port - pitBase)
	case port >= ppiBase && port <= ppiBase+2:
		return m.PPI.ReadIO(port - ppiBase)
	case port == 0x201: // game port, not populated
		return 0x00
	default:
		m.log.Debug("read from unclaimed port", "port", port)
		return 0xFF
	}
}

// WriteIOByte dispatches a port write the same way.
func (m *Machine) WriteIOByte(port uint16, value byte) {
	if m.Bus.TryWriteIO(port, value) {
		return
	}

	switch {
	case port <= 0x0F, port == 0x81, port == 0x82, port == 0x83, port == 0x87:
		m.DMA.WriteIO(port&dmaPageMask, value)
	case port == nmiBase:
		m.NMI.WriteIO(0, value)
	case port == picBase || port == picBase+1:
		m.PIC.WriteIO(port-picBase, value)
	case port >= pitBase && port <= pitBase+3:
		m.PIT.WriteIO(port-pitBase, value)
	case port >= ppiBase && port <= ppiBase+3:
		m.PPI.WriteIO(port-ppiBase, value)
	default:
		m.log.Debug("write to unclaimed port", "port", port, "value", value)
	}
}

// ReadIOWord and WriteIOWord are the 16-bit forms, two bus cycles each.
func (m *Machine) ReadIOWord(port uint16) uint16 {
	return uint16(m.ReadIOByte(port)) | uint16(m.ReadIOByte(port+1))<<8
}

func (m *Machine) WriteIOWord(port uint16, value uint16) {
	m.WriteIOByte(port, byte(value))
	m.WriteIOByte(port+1, byte(value>>8))
}

// RaiseNMI delivers a nonmaskable interrupt if the gate register allows it.
func (m *Machine) RaiseNMI() {
	if m.NMI.Enabled() && m.cpu != nil {
		m.cpu.AssertNMI()
	}
}

// InsertFloppy loads a floppy image into a drive; geometry is keyed by
// image size. An unknown size is a configuration error that leaves the
// drive empty.
func (m *Machine) InsertFloppy(drive int, path string, data []byte, writeProtect bool) error {
	if drive < 0 || drive >= floppy.NumDrives {
		return floppy.ErrUnknownSize
	}
	return m.FDC.Drives[drive].Insert(path, data, writeProtect)
}

// InsertHardDisk loads a hard-disk image (raw or VHD) into a drive.
func (m *Machine) InsertHardDisk(drive int, path string, data []byte) error {
	return m.HDC.InsertDisk(drive, path, data)
}

// Reset returns every device to power-on state, in the order the BIOS
// POST depends on, then scrubs RAM.
func (m *Machine) Reset() {
	m.cpuCycles = 0
	m.cpuAccum = 0
	m.lastCycles = 0
	m.pitAccum, m.pitCycles = 0, 0
	m.fdcAccum, m.fdcCycles = 0, 0
	m.hdcAccum, m.hdcCycles = 0, 0
	m.dmaAccum, m.dmaCycles = 0, 0
	m.kbdAccum, m.kbdCycles = 0, 0

	if m.cpu != nil {
		m.cpu.Reset()
	}
	m.DMA.Reset()
	m.PIT.Reset()
	m.PPI.Reset()
	m.PIC.Reset()
	m.NMI.Reset()
	m.FDC.Reset()
	m.Keyboard.Reset()
	m.Bus.Reset()

	m.Mem.FillWritable(0)
}

// RunFrame executes one frame: either a single debug step, or instructions
// until the per-frame cycle quota is met. The caller paces calls at the
// frame rate.
func (m *Machine) RunFrame() {
	if m.cpu == nil {
		return
	}
	switch m.step {
	case stepHalted:
		return
	case stepOnce:
		m.runTick()
		if m.step == stepOnce {
			m.step = stepHalted
		}
		return
	}

	m.cpuCycles = m.cpuAccum
	for m.cpuCycles < CPUCyclesPerFrame && m.step == runContinuous {
		m.runTick()
	}
	if m.cpuCycles >= CPUCyclesPerFrame {
		m.cpuAccum = m.cpuCycles - CPUCyclesPerFrame
	}
}

// runTick advances every device by the previous instruction's cycles, in
// the order the ordering guarantees require (DMA before the disk
// controllers, PIT before the PIC poll, keyboard between them), polls the
// PIC, then executes the next instruction.
func (m *Machine) runTick() {
	cycles := m.lastCycles

	m.Bus.Update(cycles)
	m.dmaUpdate(cycles)
	m.fdcUpdate(cycles)
	m.hdcUpdate(cycles)
	m.pitUpdate(cycles)
	m.kbdUpdate(cycles)
	m.picUpdate()
	m.cpuUpdate()
}

// dmaUpdate paces the DMA clock at 3 ticks per 2 CPU cycles. Transfers
// themselves happen synchronously inside the peripheral ticks; the
// counter tracks the channel clock for diagnostics.
func (m *Machine) dmaUpdate(cycles int) {
	const (
		cycleTarget = 2
		cycleFactor = 3
	)
	m.dmaAccum += uint64(cycles) * cycleFactor
	for m.dmaAccum >= cycleTarget {
		m.dmaAccum -= cycleTarget
		m.dmaCycles++
	}
}

// fdcUpdate paces the floppy controller at 3 ticks per 14 CPU cycles.
func (m *Machine) fdcUpdate(cycles int) {
	const (
		cycleTarget = 14
		cycleFactor = 3
	)
	m.fdcAccum += uint64(cycles) * cycleFactor
	for m.fdcAccum >= cycleTarget {
		m.fdcAccum -= cycleTarget
		m.fdcCycles++
		m.FDC.Tick()
	}
}

// hdcUpdate paces the hard disk controller at 500 ticks per 477 CPU
// cycles.
func (m *Machine) hdcUpdate(cycles int) {
	const (
		cycleTarget = 477
		cycleFactor = 500
	)
	m.hdcAccum += uint64(cycles) * cycleFactor
	for m.hdcAccum >= cycleTarget {
		m.hdcAccum -= cycleTarget
		m.hdcCycles++
		m.HDC.Tick()
	}
}

// pitUpdate paces the interval timer at 1 tick per 4 CPU cycles.
func (m *Machine) pitUpdate(cycles int) {
	const (
		cycleTarget = 4
		cycleFactor = 1
	)
	m.pitAccum += uint64(cycles) * cycleFactor
	for m.pitAccum >= cycleTarget {
		m.pitAccum -= cycleTarget
		m.pitCycles++
		m.PIT.Tick()
	}
}

// kbdUpdate paces the keyboard at a fixed 35,400-cycle interval.
func (m *Machine) kbdUpdate(cycles int) {
	const cycleTarget = 35400
	m.kbdAccum += uint64(cycles)
	for m.kbdAccum >= cycleTarget {
		m.kbdAccum -= cycleTarget
		m.kbdCycles++
		m.Keyboard.Tick()
	}
}

// picUpdate hands the CPU the highest-priority pending interrupt, if any.
func (m *Machine) picUpdate() {
	if m.cpu == nil {
		return
	}
	if vector, ok := m.PIC.GetInterrupt(); ok {
		m.cpu.AssertINTR(vector)
	}
}

func (m *Machine) cpuUpdate() {
	if m.cpu == nil {
		m.lastCycles = 0
		return
	}
	cycles := m.cpu.Step()
	m.lastCycles = cycles
	m.cpuCycles += uint64(cycles)

	pc := m.cpu.PhysicalPC()
	if m.stepOverArmed && pc == m.stepOverTarget {
		m.stepOverArmed = false
		m.step = stepHalted
	}
	if m.breakEnabled && pc == m.breakpoint {
		m.step = stepHalted
	}
}

// Halted reports whether execution is stopped at an instruction boundary.
func (m *Machine) Halted() bool {
	return m.step == stepHalted
}

// Halt stops execution at the next instruction boundary (immediately, if
// called between frames).
func (m *Machine) Halt() {
	m.step = stepHalted
}

// Resume continues full-speed execution.
func (m *Machine) Resume() {
	m.step = runContinuous
}

// StepInstruction arms a single integrated tick: one instruction plus its
// device updates, after which the machine halts again.
func (m *Machine) StepInstruction() {
	m.step = stepOnce
}

// StepOver runs until execution reaches the instruction following the
// current one, stepping over a call rather than into it.
func (m *Machine) StepOver() {
	if m.cpu == nil {
		return
	}
	m.stepOverTarget = m.cpu.NextInstructionPC()
	m.stepOverArmed = true
	m.step = runContinuous
}

// SetBreakpoint arms the physical-address breakpoint, compared against
// CS*16+IP after every instruction.
func (m *Machine) SetBreakpoint(addr uint32) {
	m.breakpoint = addr
	m.breakEnabled = true
}

// ClearBreakpoint disarms it.
func (m *Machine) ClearBreakpoint() {
	m.breakEnabled = false
}

// Breakpoint reports the current breakpoint, if armed.
func (m *Machine) Breakpoint() (uint32, bool) {
	return m.breakpoint, m.breakEnabled
}

// CPUPC returns the CPU's physical program counter, 0 with no core
// attached.
func (m *Machine) CPUPC() uint32 {
	if m.cpu == nil {
		return 0
	}
	return m.cpu.PhysicalPC()
}

func rising(bit, old, cur byte) bool {
	return old&bit == 0 && cur&bit != 0
}

func falling(bit, old, cur byte) bool {
	return old&bit != 0 && cur&bit == 0
}
