/*
 * pcemu - NEC uPD765 floppy disk controller
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

package floppy

import (
	"log/slog"

	"github.com/tjarmytage/pcemu/internal/chs"
	"github.com/tjarmytage/pcemu/internal/ring"
)

// Port offsets relative to the controller's base I/O address.
const (
	PortDOR  = 0x2
	PortMSR  = 0x4
	PortData = 0x5
)

// Digital Output Register bits.
const (
	dorDriveSelMask = 0x03
	dorEnable       = 0x04
	dorDMA          = 0x08
	dorMotor0       = 0x10
	dorMotor1       = 0x20
	dorMotor2       = 0x40
	dorMotor3       = 0x80
)

// Main Status Register bits.
const (
	msrDAB0 = 0x01
	msrDAB1 = 0x02
	msrDAB2 = 0x04
	msrDAB3 = 0x08
	msrCB   = 0x10
	msrEXM  = 0x20
	msrDIO  = 0x40
	msrRQM  = 0x80
)

// ST0 bits.
const (
	st0UnitMask    = 0x03
	st0Head        = 0x04
	st0NotReady    = 0x08
	st0SeekEnd     = 0x20
	st0ICMask      = 0xC0
	st0ICNormal    = 0x00
	st0ICAbnormal  = 0x40
	st0ICInvalid   = 0x80
	st0ICAbnormal2 = 0xC0
)

// ST1 bits.
const (
	st1MissingAM     = 0x01
	st1NotWritable   = 0x02
	st1NoData        = 0x04
	st1Overrun       = 0x10
	st1CRCError      = 0x20
	st1EndOfCylinder = 0x80
)

// ST2 bits.
const (
	st2MissingAMData      = 0x01
	st2BadCylinder        = 0x02
	st2ScanNotSatisfied   = 0x04
	st2ScanEqualSatisfied = 0x08
	st2WrongCylinder      = 0x10
	st2DataError          = 0x20
	st2DeletedAM          = 0x40
)

// Command opcodes, the low 5 bits of the first command byte; bits 5-7 are
// the MT/MFM/SK modifier flags.
const (
	cmdReadTrack        = 0x02
	cmdSpecify          = 0x03
	cmdSenseDriveStatus = 0x04
	cmdWriteData        = 0x05
	cmdReadData         = 0x06
	cmdRecalibrate      = 0x07
	cmdSenseInterrupt   = 0x08
	cmdWriteDeletedData = 0x09
	cmdReadID           = 0x0A
	cmdReadDeletedData  = 0x0C
	cmdFormatTrack      = 0x0D
	cmdSeek             = 0x0F
	cmdScanEqual        = 0x11
	cmdScanLowOrEqual   = 0x19
	cmdScanHighOrEqual  = 0x1D
)

const cmdOpcodeMask = 0x1F

// paramCounts gives the number of parameter bytes following the opcode for
// each recognized command.
var paramCounts = map[byte]int{
	cmdReadTrack:        8,
	cmdSpecify:          2,
	cmdSenseDriveStatus: 1,
	cmdWriteData:        8,
	cmdReadData:         8,
	cmdRecalibrate:      1,
	cmdSenseInterrupt:   0,
	cmdWriteDeletedData: 8,
	cmdReadID:           1,
	cmdReadDeletedData:  8,
	cmdFormatTrack:      5,
	cmdSeek:             2,
	cmdScanEqual:        8,
	cmdScanLowOrEqual:   8,
	cmdScanHighOrEqual:  8,
}

// DMAChannel is the subset of internal/dma.Controller the floppy
// controller drives its data transfers through.
type DMAChannel interface {
	ReadByte(ch int) byte
	WriteByte(ch int, value byte)
	TerminalCountReached(ch int) bool
	ChannelReady(ch int) bool
}

type phase int

const (
	phaseIdle phase = iota
	phaseCommand
	phaseExecute
	phaseResult
)

// transfer tracks an in-progress DMA data transfer between a drive and
// memory.
type transfer struct {
	active bool
	toDisk bool // true: CPU/DMA -> disk (Write Data); false: disk -> DMA/CPU (Read Data)
	drive  *Drive
}

// Controller is the uPD765 floppy disk controller.
type Controller struct {
	Drives [NumDrives]Drive

	dor         byte
	driveSelect int

	fifoIn  *ring.Buffer
	fifoOut *ring.Buffer

	phase        phase
	opcode       byte
	multiTrack   bool
	mfm          bool
	skip         bool
	paramsNeeded int

	srt, hut, hlt byte
	nonDMA        bool

	pcn [NumDrives]chs.CHS
	seekPending [NumDrives]bool
	seekAbnormal [NumDrives]bool

	curCHS     chs.CHS
	byteIndex  int
	sectorSize int

	st0, st1, st2, st3 byte

	xfer transfer

	dma        DMAChannel
	dmaChannel int

	// RequestIRQ and ClearIRQ are wired by the machine to IRQ 6 on the PIC.
	RequestIRQ func()
	ClearIRQ   func()

	log *slog.Logger
}

// New returns a Controller driving DMA channel 2 through dma.
func New(dma DMAChannel, log *slog.Logger) *Controller {
	if log == nil {
		log = slog.Default()
	}
	c := &Controller{
		fifoIn:     ring.New(10),
		fifoOut:    ring.New(10),
		dma:        dma,
		dmaChannel: 2,
		sectorSize: SectorSize,
		log:        log.With("component", "fdc"),
	}
	for i := range c.pcn {
		c.pcn[i] = chs.Reset()
	}
	return c
}

// Reset returns the controller to its power-on state; drive media is
// preserved.
func (c *Controller) Reset() {
	drives := c.Drives
	dma, dmaChannel, log := c.dma, c.dmaChannel, c.log
	reqIRQ, clrIRQ := c.RequestIRQ, c.ClearIRQ
	*c = Controller{
		Drives:     drives,
		fifoIn:     ring.New(10),
		fifoOut:    ring.New(10),
		dma:        dma,
		dmaChannel: dmaChannel,
		sectorSize: SectorSize,
		log:        log,
		RequestIRQ: reqIRQ,
		ClearIRQ:   clrIRQ,
	}
	for i := range c.Drives {
		c.Drives[i].SetMotor(false)
	}
	for i := range c.pcn {
		c.pcn[i] = chs.Reset()
	}
}

// ReadIO reads the main status register or the data port.
func (c *Controller) ReadIO(port uint16) byte {
	switch port {
	case PortMSR:
		return c.readMSR()
	case PortData:
		return c.readData()
	default:
		return 0xFF
	}
}

// WriteIO writes the digital output register or the data port.
func (c *Controller) WriteIO(port uint16, value byte) {
	switch port {
	case PortDOR:
		c.writeDOR(value)
	case PortData:
		c.writeData(value)
	}
}

func (c *Controller) readMSR() byte {
	v := byte(0)
	if c.phase != phaseIdle {
		v |= msrCB
	}
	if c.phase == phaseExecute {
		v |= msrEXM
	} else {
		v |= msrRQM
	}
	if c.phase == phaseResult {
		v |= msrDIO
	}
	return v
}

func (c *Controller) readData() byte {
	if c.phase != phaseResult {
		return 0xFF
	}
	v, ok := c.fifoOut.Pop()
	if !ok {
		c.phase = phaseIdle
		return 0xFF
	}
	if c.fifoOut.IsEmpty() {
		c.phase = phaseIdle
	}
	return v
}

func (c *Controller) writeDOR(value byte) {
	rising := c.dor&dorEnable == 0 && value&dorEnable != 0
	c.dor = value
	c.driveSelect = int(value & dorDriveSelMask)
	c.Drives[0].SetMotor(value&dorMotor0 != 0)
	c.Drives[1].SetMotor(value&dorMotor1 != 0)
	c.Drives[2].SetMotor(value&dorMotor2 != 0)
	c.Drives[3].SetMotor(value&dorMotor3 != 0)
	if rising {
		c.commandReset()
	}
}

// commandReset aborts any in-progress command and clears FIFOs, without
// touching drive media, matching the controller-enable rising edge of the
// digital output register.
func (c *Controller) commandReset() {
	c.fifoIn.Reset()
	c.fifoOut.Reset()
	c.phase = phaseIdle
	c.xfer = transfer{}
	for i := range c.seekPending {
		c.seekPending[i] = true
		c.seekAbnormal[i] = false
	}
}

func (c *Controller) writeData(value byte) {
	switch c.phase {
	case phaseIdle:
		c.startCommand(value)
	case phaseCommand:
		c.fifoIn.Push(value)
		c.paramsNeeded--
		if c.paramsNeeded <= 0 {
			c.dispatch()
		}
	}
}

func (c *Controller) startCommand(opcode byte) {
	c.opcode = opcode
	c.multiTrack = opcode&0x80 != 0
	c.mfm = opcode&0x40 != 0
	c.skip = opcode&0x20 != 0
	base := opcode & cmdOpcodeMask

	n, ok := paramCounts[base]
	if !ok {
		c.invalidCommand()
		return
	}
	c.fifoIn.Reset()
	c.paramsNeeded = n
	if n == 0 {
		c.dispatch()
		return
	}
	c.phase = phaseCommand
}

func (c *Controller) drainParams() []byte {
	params := make([]byte, 0, c.fifoIn.Len())
	for {
		v, ok := c.fifoIn.Pop()
		if !ok {
			break
		}
		params = append(params, v)
	}
	return params
}

func (c *Controller) dispatch() {
	base := c.opcode & cmdOpcodeMask
	params := c.drainParams()
	switch base {
	case cmdSpecify:
		c.doSpecify(params)
	case cmdSenseDriveStatus:
		c.doSenseDriveStatus(params)
	case cmdRecalibrate:
		c.doRecalibrate(params)
	case cmdSenseInterrupt:
		c.doSenseInterrupt()
	case cmdSeek:
		c.doSeek(params)
	case cmdReadID:
		c.doReadID(params)
	case cmdReadData, cmdReadDeletedData, cmdReadTrack:
		c.doDataTransfer(params, false)
	case cmdWriteData, cmdWriteDeletedData:
		c.doDataTransfer(params, true)
	case cmdFormatTrack:
		c.doFormatTrack(params)
	case cmdScanEqual, cmdScanLowOrEqual, cmdScanHighOrEqual:
		c.doScan(params)
	default:
		c.invalidCommand()
	}
}

func (c *Controller) invalidCommand() {
	c.st0 = st0ICInvalid
	c.pushResult(c.st0)
	c.enterResult()
}

func (c *Controller) pushResult(bytes ...byte) {
	for _, b := range bytes {
		c.fifoOut.Push(b)
	}
}

func (c *Controller) enterResult() {
	c.phase = phaseResult
	if c.fifoOut.IsEmpty() {
		c.phase = phaseIdle
	}
}

func (c *Controller) raiseIRQ() {
	if c.RequestIRQ != nil {
		c.RequestIRQ()
	}
}

func (c *Controller) currentDrive() *Drive {
	return &c.Drives[c.driveSelect]
}

func (c *Controller) doSpecify(params []byte) {
	c.srt = params[0] >> 4
	c.hut = params[0] & 0x0F
	c.hlt = params[1] >> 1
	c.nonDMA = params[1]&0x01 != 0
	c.phase = phaseIdle
}

func (c *Controller) doSenseDriveStatus(params []byte) {
	unit := params[0] & 0x03
	head := (params[0] >> 2) & 0x01
	drv := &c.Drives[unit]
	st3 := unit | head<<2
	if drv.Ready {
		st3 |= 0x20
	}
	if drv.WriteProtect {
		st3 |= 0x40
	}
	if c.pcn[unit].Cylinder == 0 {
		st3 |= 0x10
	}
	c.st3 = st3
	c.pushResult(st3)
	c.enterResult()
}

func (c *Controller) doRecalibrate(params []byte) {
	unit := params[0] & 0x03
	c.pcn[unit] = chs.Reset()
	c.seekPending[unit] = true
	if !c.Drives[unit].Ready {
		c.seekAbnormal[unit] = true
	} else {
		c.seekAbnormal[unit] = false
	}
	c.phase = phaseIdle
	c.raiseIRQ()
}

func (c *Controller) doSeek(params []byte) {
	unit := params[0] & 0x03
	ncn := params[1]
	drv := &c.Drives[unit]
	if int(ncn) >= drv.Geometry.Cylinders && drv.Geometry.Cylinders > 0 {
		c.seekAbnormal[unit] = true
	} else {
		c.pcn[unit].Cylinder = int(ncn)
		c.seekAbnormal[unit] = false
	}
	c.seekPending[unit] = true
	c.phase = phaseIdle
	c.raiseIRQ()
}

func (c *Controller) doSenseInterrupt() {
	unit := c.driveSelect
	if !c.seekPending[unit] {
		c.st0 = st0ICInvalid
		c.pushResult(c.st0)
		c.enterResult()
		return
	}
	c.seekPending[unit] = false
	st0 := byte(unit)
	if c.seekAbnormal[unit] {
		st0 |= st0ICAbnormal
	} else {
		st0 |= st0SeekEnd
	}
	c.st0 = st0
	c.pushResult(st0, byte(c.pcn[unit].Cylinder))
	c.enterResult()
}

func (c *Controller) doReadID(params []byte) {
	hdUS := params[0]
	unit := hdUS & 0x03
	head := (hdUS >> 2) & 0x01
	drv := &c.Drives[unit]

	if !drv.Ready {
		c.abnormalNotReady(unit, head)
		return
	}

	cur := c.pcn[unit]
	cur.Head = int(head)
	st0 := unit | head<<2
	c.pushResult(st0, 0, 0, byte(cur.Cylinder), byte(cur.Head), byte(cur.Sector), 2)
	c.pcn[unit] = chs.Advance(drv.Geometry, cur)
	c.enterResult()
}

func (c *Controller) abnormalNotReady(unit, head byte) {
	st0 := unit | head<<2 | st0ICAbnormal2 | st0NotReady
	c.pushResult(st0, 0, 0, 0, 0, 0, 0)
	c.enterResult()
	c.raiseIRQ()
}

func decodeSectorSize(n byte) int {
	if n == 0 {
		return 128
	}
	return 128 << uint(n)
}

func (c *Controller) doDataTransfer(params []byte, toDisk bool) {
	hdUS := params[0]
	unit := hdUS & 0x03
	head := (hdUS >> 2) & 0x01
	cyl := params[1]
	h := params[2]
	sec := params[3]
	n := params[4]

	drv := &c.Drives[unit]
	c.driveSelect = int(unit)

	if !drv.Ready {
		c.abnormalNotReady(unit, head)
		return
	}
	if toDisk && drv.WriteProtect {
		st0 := unit | head<<2 | st0ICAbnormal
		c.st1 = st1NotWritable
		c.pushResult(st0, c.st1, 0, cyl, h, sec, n)
		c.enterResult()
		c.raiseIRQ()
		return
	}

	c.curCHS = chs.CHS{Cylinder: int(cyl), Head: int(h), Sector: int(sec)}
	c.sectorSize = decodeSectorSize(n)
	c.byteIndex = 0
	c.xfer = transfer{active: true, toDisk: toDisk, drive: drv}
	c.phase = phaseExecute
}

func (c *Controller) doFormatTrack(params []byte) {
	hdUS := params[0]
	unit := hdUS & 0x03
	head := (hdUS >> 2) & 0x01
	n := params[1]

	drv := &c.Drives[unit]
	c.driveSelect = int(unit)

	if !drv.Ready {
		c.abnormalNotReady(unit, head)
		return
	}
	if drv.WriteProtect {
		st0 := unit | head<<2 | st0ICAbnormal
		c.st1 = st1NotWritable
		c.pushResult(st0, c.st1, 0, 0, 0, 0, n)
		c.enterResult()
		c.raiseIRQ()
		return
	}

	c.curCHS = chs.CHS{Cylinder: c.pcn[unit].Cylinder, Head: int(head), Sector: 1}
	c.sectorSize = decodeSectorSize(n)
	c.byteIndex = 0
	c.xfer = transfer{active: true, toDisk: true, drive: drv}
	c.phase = phaseExecute
}

// doScan accepts the Scan Equal/Low-or-Equal/High-or-Equal commands
// without performing a comparison; it completes as a normal-terminated
// no-op with the scan-equal-satisfied bit set.
func (c *Controller) doScan(params []byte) {
	hdUS := params[0]
	unit := hdUS & 0x03
	head := (hdUS >> 2) & 0x01
	cyl, h, sec, n := params[1], params[2], params[3], params[4]
	st0 := unit | head<<2
	c.pushResult(st0, 0, st2ScanEqualSatisfied, cyl, h, sec, n)
	c.enterResult()
	c.raiseIRQ()
}

// Tick steps one byte of an in-progress DMA data transfer.
func (c *Controller) Tick() {
	if c.phase != phaseExecute || !c.xfer.active {
		return
	}
	if !c.dma.ChannelReady(c.dmaChannel) {
		return
	}

	drv := c.xfer.drive
	off := chs.ToOffset(drv.Geometry, c.curCHS, c.sectorSize)
	off += int64(c.byteIndex)

	if c.xfer.toDisk {
		v := c.dma.ReadByte(c.dmaChannel)
		drv.WriteByte(off, v)
	} else {
		v := drv.ReadByte(off)
		c.dma.WriteByte(c.dmaChannel, v)
	}

	c.byteIndex++
	if c.byteIndex >= c.sectorSize {
		c.byteIndex = 0
		if c.opcode&cmdOpcodeMask == cmdFormatTrack {
			c.curCHS = chs.AdvanceSector(drv.Geometry, c.curCHS)
		} else {
			c.curCHS = chs.Advance(drv.Geometry, c.curCHS)
		}
	}

	if c.dma.TerminalCountReached(c.dmaChannel) {
		c.finishTransfer()
	}
}

func (c *Controller) finishTransfer() {
	unit := c.driveSelect
	head := byte(c.curCHS.Head)
	st0 := byte(unit) | head<<2
	c.xfer = transfer{}
	c.pushResult(st0, c.st1, c.st2, byte(c.curCHS.Cylinder), head, byte(c.curCHS.Sector), 0)
	c.enterResult()
	c.raiseIRQ()
}
