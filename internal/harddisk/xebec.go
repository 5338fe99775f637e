/*
 * pcemu - Xebec hard disk controller
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

package harddisk

import (
	"log/slog"

	"github.com/tjarmytage/pcemu/internal/chs"
	"github.com/tjarmytage/pcemu/internal/ring"
)

// Port offsets relative to the controller's base I/O address.
const (
	PortData   = 0x0 // RW
	PortStatus = 0x1 // RO
	PortReset  = 0x1 // WO
	PortDIP    = 0x2 // RO
	PortSelect = 0x2 // WO
	PortMask   = 0x3 // WO
)

// Hardware status register bits.
const (
	statusREQ    = 0x01 // ready for next byte
	statusIOMode = 0x02 // transfer direction
	statusBus    = 0x04 // command vs data phase
	statusBusy   = 0x08
	statusInt    = 0x20 // interrupt pending
)

// Command opcodes.
const (
	cmdTestDrive      = 0x00
	cmdRecalibrate    = 0x01
	cmdSense          = 0x03
	cmdFormatDrive    = 0x04
	cmdCheckTrack     = 0x05
	cmdFormatTrack    = 0x06
	cmdFormatBad      = 0x07
	cmdRead           = 0x08
	cmdWrite          = 0x0A
	cmdSeek           = 0x0B
	cmdInitDrive      = 0x0C // DCB followed by 8 characteristics bytes
	cmdReadECC        = 0x0D
	cmdReadBuffer     = 0x0E
	cmdWriteBuffer    = 0x0F
	cmdRAMDiag        = 0xE0
	cmdDriveDiag      = 0xE3
	cmdControllerDiag = 0xE4
	cmdReadLong       = 0xE5
	cmdWriteLong      = 0xE6
)

// Error bytes reported through Sense and the completion status byte.
const (
	errOK             = 0x00
	errReadySignal    = 0x04 // drive did not respond with ready
	errInvalidCommand = 0x20
	errIllegalAddress = 0x21 // address beyond the max range
)

// dcbLen is the Device Control Block length; Init-Drive consumes 8 more.
const dcbLen = 5

type cmdState int

const (
	stateIdle cmdState = iota
	stateReceiving
	stateReceived
	stateExecuting
	stateAsync
)

// dcb is a decoded Device Control Block.
type dcb struct {
	driveSelect  int
	chs          chs.CHS // sector as sent, 0-based
	blockCount   byte    // block count or interleave
	step         byte
	disableRetry bool
}

// DMAChannel is the subset of internal/dma.Controller the hard disk
// controller drives sector transfers through.
type DMAChannel interface {
	ReadByte(ch int) byte
	WriteByte(ch int, value byte)
	TerminalCountReached(ch int) bool
	ChannelReady(ch int) bool
}

// Controller is the Xebec hard disk controller.
type Controller struct {
	Drives [NumDrives]Drive

	fifoIn  *ring.Buffer
	fifoOut *ring.Buffer

	command    byte
	paramCount int
	state      cmdState

	statusRegister byte
	statusByte     byte
	errorByte      byte
	dipswitch      byte

	intEnabled bool
	dmaEnabled bool

	driveSelect int
	cur         [NumDrives]chs.CHS

	byteIndex   int
	sectorIndex int

	// scratch backs the Read Buffer / Write Buffer diagnostic commands,
	// which exercise the controller's on-board sector buffer rather than
	// any drive.
	scratch    [SectorSize]byte
	scratchIdx int

	dma        DMAChannel
	dmaChannel int

	// RequestIRQ is wired by the machine to IRQ 5 on the PIC.
	RequestIRQ func()

	log *slog.Logger
}

// New returns a Controller driving DMA channel 3 through dma.
func New(dma DMAChannel, log *slog.Logger) *Controller {
	if log == nil {
		log = slog.Default()
	}
	c := &Controller{
		fifoIn:     ring.New(18),
		fifoOut:    ring.New(10),
		dma:        dma,
		dmaChannel: 3,
		log:        log.With("component", "hdc"),
	}
	for i := range c.cur {
		c.cur[i] = chs.Reset()
	}
	return c
}

// Reset aborts any in-progress command and clears status; drive media and
// DIP switches are preserved.
func (c *Controller) Reset() {
	c.byteIndex = 0
	c.sectorIndex = 0
	c.statusRegister = 0
	c.errorByte = 0
	c.commandReset()
	c.fifoIn.Reset()
	c.fifoOut.Reset()
}

// InsertDisk attaches media to a drive and reflects its type in the DIP
// switches.
func (c *Controller) InsertDisk(drive int, path string, data []byte) error {
	if drive < 0 || drive >= NumDrives {
		return ErrUnknownShape
	}
	if err := c.Drives[drive].Insert(path, data); err != nil {
		return err
	}
	c.setDipswitch(drive, c.Drives[drive].Type)
	return nil
}

// setDipswitch encodes a drive's type into its 2-bit field of the 4-bit
// geometry switch block (drive 0 in the high pair).
func (c *Controller) setDipswitch(drive int, t DriveType) {
	var bits byte
	switch t {
	case Type1:
		bits = 0x0
	case Type16:
		bits = 0x1
	case Type2:
		bits = 0x2
	case Type13:
		bits = 0x3
	}
	shift := (1 - drive) * 2
	c.dipswitch &^= 0x3 << shift
	c.dipswitch |= bits << shift
}

// ReadIO services the controller's read-side ports.
func (c *Controller) ReadIO(port uint16) byte {
	switch port {
	case PortData:
		return c.readData()
	case PortStatus:
		return c.statusRegister
	case PortDIP:
		return c.dipswitch
	default:
		c.log.Debug("read from unimplemented port", "port", port)
		return 0
	}
}

// WriteIO services the controller's write-side ports.
func (c *Controller) WriteIO(port uint16, value byte) {
	switch port {
	case PortData:
		c.writeData(value)
	case PortReset:
		c.Reset()
	case PortSelect:
		// controller select pulse: no observable effect
	case PortMask:
		c.intEnabled = value&0x02 != 0
		c.dmaEnabled = value&0x01 != 0
		c.statusRegister = statusBusy | statusBus | statusREQ
	default:
		c.log.Debug("write to unimplemented port", "port", port)
	}
}

func (c *Controller) readData() byte {
	if v, ok := c.fifoOut.Pop(); ok {
		if c.fifoOut.IsEmpty() {
			// all sense bytes sent; follow with the status byte
			c.sendStatusByte()
		}
		return v
	}
	return c.statusByte
}

func (c *Controller) writeData(value byte) {
	switch c.state {
	case stateIdle:
		c.setCommand(value)
	case stateReceiving:
		c.fifoIn.Push(value)
		c.paramCount--
		if c.paramCount == 0 {
			c.state = stateReceived
			c.statusRegister = statusBusy | statusBus
		}
	}

	if c.state == stateReceived {
		c.execute()
	}
}

func (c *Controller) setCommand(command byte) {
	c.command = command
	switch command {
	case cmdTestDrive, cmdRecalibrate, cmdSense, cmdFormatDrive,
		cmdCheckTrack, cmdFormatTrack, cmdFormatBad, cmdRead, cmdWrite,
		cmdSeek, cmdReadECC, cmdReadBuffer, cmdWriteBuffer, cmdRAMDiag,
		cmdDriveDiag, cmdControllerDiag, cmdReadLong, cmdWriteLong:
		c.paramCount = dcbLen
	case cmdInitDrive:
		c.paramCount = dcbLen + 8
	default:
		c.paramCount = 0
	}

	if c.paramCount == 0 {
		c.state = stateReceived
		c.statusRegister = statusBusy | statusBus
	} else {
		c.state = stateReceiving
		c.statusRegister = statusBusy | statusREQ
	}

	if !c.fifoOut.IsEmpty() {
		c.log.Debug("command started with result bytes still pending")
	}
}

func (c *Controller) commandReset() {
	c.command = 0
	c.paramCount = 0
	c.state = stateIdle
}

func (c *Controller) decodeDCB() dcb {
	b0, _ := c.fifoIn.Pop() // drive select (bit 5), head (bits 0-4)
	b1, _ := c.fifoIn.Pop() // cylinder high (bits 6-7), sector (bits 0-5)
	b2, _ := c.fifoIn.Pop() // cylinder low
	b3, _ := c.fifoIn.Pop() // interleave / block count
	b4, _ := c.fifoIn.Pop() // control field

	return dcb{
		driveSelect: int(b0>>5) & 0x01,
		chs: chs.CHS{
			Cylinder: int(b1&0xC0)<<2 | int(b2),
			Head:     int(b0 & 0x1F),
			Sector:   int(b1 & 0x3F),
		},
		blockCount:   b3,
		step:         b4 & 0x07,
		disableRetry: b4>>7 != 0,
	}
}

func (c *Controller) discardDCB(n int) {
	for i := 0; i < n; i++ {
		c.fifoIn.Pop()
	}
}

func (c *Controller) sendSenseBytes() {
	cur := c.cur[c.driveSelect]
	c.fifoOut.Push(c.errorByte)
	c.fifoOut.Push(byte(c.driveSelect)<<5 | byte(cur.Head))
	c.fifoOut.Push(byte(cur.Cylinder>>2)&0x0C | byte(cur.Sector)&0x1F)
	c.fifoOut.Push(byte(cur.Cylinder))
	c.statusRegister = statusBusy | statusIOMode | statusREQ
}

func (c *Controller) sendStatusByte() {
	status := byte(c.driveSelect) << 5
	if c.errorByte != 0 {
		status |= 0x02
	}
	c.statusByte = status
	c.statusRegister = statusBusy | statusBus | statusIOMode | statusREQ
}

// finalize posts the completion bytes (sense packet for Sense, status byte
// for everything else) and raises the completion interrupt if enabled.
func (c *Controller) finalize(sense bool) {
	if sense {
		c.sendSenseBytes()
	} else {
		c.sendStatusByte()
	}

	if c.intEnabled {
		if c.RequestIRQ != nil {
			c.RequestIRQ()
		}
		c.statusRegister |= statusInt
	}

	if !c.fifoIn.IsEmpty() {
		c.log.Debug("command finalized with parameter bytes still pending")
	}
	c.commandReset()
}

// selectDrive points the controller at a DCB's drive and seeks its
// per-drive CHS. The Xebec sector field is zero based; stored CHS is one
// based.
func (c *Controller) selectDrive(d dcb, sector int) *Drive {
	c.driveSelect = d.driveSelect
	c.cur[c.driveSelect] = chs.CHS{Cylinder: d.chs.Cylinder, Head: d.chs.Head, Sector: sector}
	return &c.Drives[c.driveSelect]
}

// checkAddress validates a DCB target against the drive's geometry.
func checkAddress(drv *Drive, d dcb) byte {
	if !drv.Inserted {
		return errReadySignal
	}
	g := drv.Geometry
	if d.chs.Cylinder >= g.Cylinders || d.chs.Head >= g.Heads || d.chs.Sector >= g.Sectors {
		return errIllegalAddress
	}
	return errOK
}

func (c *Controller) execute() {
	c.state = stateExecuting
	switch c.command {
	case cmdTestDrive:
		d := c.decodeDCB()
		c.driveSelect = d.driveSelect
		// A missing drive still reports OK: the POST raises a 1701 error
		// if the ready-signal error is returned with no disk attached.
		c.errorByte = errOK
		c.finalize(false)

	case cmdRecalibrate:
		d := c.decodeDCB()
		c.driveSelect = d.driveSelect
		c.cur[c.driveSelect] = chs.Reset()
		c.errorByte = errOK
		c.finalize(false)

	case cmdSense:
		d := c.decodeDCB()
		c.driveSelect = d.driveSelect
		c.finalize(true)

	case cmdSeek:
		d := c.decodeDCB()
		drv := c.selectDrive(d, 1)
		if !drv.Inserted {
			c.errorByte = errReadySignal
		} else if d.chs.Cylinder >= drv.Geometry.Cylinders {
			c.errorByte = errIllegalAddress
		} else {
			c.errorByte = errOK
		}
		c.finalize(false)

	case cmdFormatDrive, cmdFormatTrack, cmdFormatBad:
		d := c.decodeDCB()
		drv := c.selectDrive(d, 1)
		if drv.Inserted {
			c.errorByte = errOK
		} else {
			c.errorByte = errReadySignal
		}
		c.finalize(false)

	case cmdCheckTrack:
		d := c.decodeDCB()
		drv := c.selectDrive(d, d.chs.Sector+1)
		if drv.Inserted {
			c.errorByte = errOK
		} else {
			c.errorByte = errReadySignal
		}
		c.finalize(false)

	case cmdInitDrive:
		// DCB plus 8 drive-characteristics bytes, accepted and ignored.
		c.discardDCB(dcbLen + 8)
		c.errorByte = errOK
		c.finalize(false)

	case cmdReadECC:
		c.discardDCB(dcbLen)
		c.errorByte = errOK
		c.finalize(false)

	case cmdRead, cmdWrite, cmdReadLong, cmdWriteLong:
		d := c.decodeDCB()
		drv := c.selectDrive(d, d.chs.Sector+1)
		if errb := checkAddress(drv, d); errb != errOK {
			c.errorByte = errb
			c.finalize(false)
			return
		}
		c.byteIndex = 0
		c.sectorIndex = 0
		c.state = stateAsync

	case cmdReadBuffer, cmdWriteBuffer:
		c.discardDCB(dcbLen)
		c.byteIndex = 0
		c.sectorIndex = 0
		c.scratchIdx = 0
		c.state = stateAsync

	case cmdRAMDiag, cmdDriveDiag, cmdControllerDiag:
		c.discardDCB(dcbLen)
		c.errorByte = errOK
		c.finalize(false)

	default:
		c.fifoIn.Reset()
		c.errorByte = errInvalidCommand
		c.finalize(false)
		c.log.Debug("invalid command", "command", c.command)
	}
}

// advanceByteIndex steps the in-flight sector position, rolling the
// selected drive's CHS at each sector boundary.
func (c *Controller) advanceByteIndex() {
	c.byteIndex++
	if c.byteIndex >= SectorSize {
		c.byteIndex = 0
		c.sectorIndex++
		drv := &c.Drives[c.driveSelect]
		c.cur[c.driveSelect] = chs.Advance(drv.Geometry, c.cur[c.driveSelect])
	}
}

// Tick steps one byte of an in-progress asynchronous command.
func (c *Controller) Tick() {
	if c.state != stateAsync {
		return
	}

	if c.dma.TerminalCountReached(c.dmaChannel) {
		c.errorByte = errOK
		c.finalize(false)
		return
	}
	if !c.dmaEnabled || !c.dma.ChannelReady(c.dmaChannel) {
		return
	}

	drv := &c.Drives[c.driveSelect]
	off := chs.ToOffset(drv.Geometry, c.cur[c.driveSelect], SectorSize) + int64(c.byteIndex)

	switch c.command {
	case cmdRead, cmdReadLong:
		c.dma.WriteByte(c.dmaChannel, drv.ReadByte(off))
		c.advanceByteIndex()
	case cmdWrite, cmdWriteLong:
		drv.WriteByte(off, c.dma.ReadByte(c.dmaChannel))
		c.advanceByteIndex()
	case cmdReadBuffer:
		c.dma.WriteByte(c.dmaChannel, c.scratch[c.scratchIdx])
		c.scratchIdx = (c.scratchIdx + 1) % SectorSize
	case cmdWriteBuffer:
		c.scratch[c.scratchIdx] = c.dma.ReadByte(c.dmaChannel)
		c.scratchIdx = (c.scratchIdx + 1) % SectorSize
	}
}
