/*
 * pcemu - Intel 8237 programmable DMA controller
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

// Package dma models the four-channel Intel 8237 DMA controller: latched
// address/count registers sequenced through a flip-flop, a mode register
// per channel, and byte-at-a-time transfer through a memory-bus callback.
package dma

import "log/slog"

const NumChannels = 4

// Port offsets relative to the controller's base I/O address.
const (
	PortChannel0Address = 0x00
	PortChannel1Address = 0x02
	PortChannel2Address = 0x04
	PortChannel3Address = 0x06

	PortChannel0WordCount = 0x01
	PortChannel1WordCount = 0x03
	PortChannel2WordCount = 0x05
	PortChannel3WordCount = 0x07

	PortChannel0Page = 0x87
	PortChannel1Page = 0x83
	PortChannel2Page = 0x81
	PortChannel3Page = 0x82

	PortStatusRegister  = 0x08 // RO
	PortCommandRegister = 0x08 // WO
	PortWriteRequest    = 0x09 // WO
	PortChannelMask     = 0x0A // RW, single channel
	PortMode            = 0x0B // RW
	PortClearFlipFlop   = 0x0C // WO
	PortTempRegister    = 0x0D // RO
	PortMasterClear     = 0x0D // WO
	PortClearMask       = 0x0E // WO
	PortWriteMask       = 0x0F // WO
)

// Command register bits.
const (
	CommandMemToMem     = 0x01
	CommandChannel0Hold = 0x02
	CommandDisable      = 0x04
	CommandTiming       = 0x08
	CommandPriority     = 0x10
)

// Mode register bits.
const (
	ModeTransferType = 0x0C
	ModeAutoInit     = 0x10
	ModeAddressMode  = 0x20
	ModeServiceMode  = 0xC0

	TransferTypeVerify  = 0x00
	TransferTypeWrite   = 0x04
	TransferTypeRead    = 0x08
	TransferTypeIllegal = 0x0C

	AddressModeIncrement = 0x00
	AddressModeDecrement = 0x20

	ServiceModeDemand  = 0x00
	ServiceModeSingle  = 0x40
	ServiceModeBlock   = 0x80
	ServiceModeCascade = 0xC0
)

// Channel holds one of the four DMA channels' address/count registers and
// mode state.
type Channel struct {
	LatchedAddress   uint16
	CurrentAddress   uint16
	LatchedWordCount uint16
	CurrentWordCount uint16
	Page             byte
	Mode             byte
	Masked           bool
	TerminalCount    bool // latched permanently once reached without auto-init
	TCReached        bool // pulses: set whenever a transfer completes the count
}

// Bus is the memory-access contract DMA transfers use; the machine wires
// this to the physical memory map.
type Bus interface {
	ReadByte(addr uint32) byte
	WriteByte(addr uint32, value byte)
}

// Controller is the 8237 DMA controller.
type Controller struct {
	Channels [NumChannels]Channel
	Command  byte
	Status   byte
	Temp     byte
	flipflop bool

	mem Bus
	log *slog.Logger
}

// New returns a Controller whose channel byte transfers read/write through
// mem.
func New(mem Bus, log *slog.Logger) *Controller {
	if log == nil {
		log = slog.Default()
	}
	return &Controller{mem: mem, log: log.With("component", "dma")}
}

// Reset restores power-on state: every channel masked, registers cleared.
func (c *Controller) Reset() {
	for i := range c.Channels {
		c.Channels[i] = Channel{Masked: true}
	}
	c.Command = 0
	c.Status = 0
	c.Temp = 0
	c.flipflop = false
}

func (c *Controller) addressRead(ch int) byte {
	var v byte
	if c.flipflop {
		v = byte(c.Channels[ch].CurrentAddress >> 8)
	} else {
		v = byte(c.Channels[ch].CurrentAddress)
	}
	c.flipflop = !c.flipflop
	return v
}

func (c *Controller) wordCountRead(ch int) byte {
	var v byte
	if c.flipflop {
		v = byte(c.Channels[ch].CurrentWordCount >> 8)
	} else {
		v = byte(c.Channels[ch].CurrentWordCount)
	}
	c.flipflop = !c.flipflop
	return v
}

func (c *Controller) addressWrite(ch int, value byte) {
	if c.flipflop {
		c.Channels[ch].LatchedAddress = c.Channels[ch].LatchedAddress&0x00FF | uint16(value)<<8
	} else {
		c.Channels[ch].LatchedAddress = c.Channels[ch].LatchedAddress&0xFF00 | uint16(value)
	}
	c.Channels[ch].CurrentAddress = c.Channels[ch].LatchedAddress
	c.flipflop = !c.flipflop
}

func (c *Controller) wordCountWrite(ch int, value byte) {
	if c.flipflop {
		c.Channels[ch].LatchedWordCount = c.Channels[ch].LatchedWordCount&0x00FF | uint16(value)<<8
	} else {
		c.Channels[ch].LatchedWordCount = c.Channels[ch].LatchedWordCount&0xFF00 | uint16(value)
	}
	c.Channels[ch].CurrentWordCount = c.Channels[ch].LatchedWordCount
	c.flipflop = !c.flipflop
}

// ReadIO reads a port given as an offset in the controller's relative port
// range. It returns a bare byte, not the isabus.IOHandler (value, handled)
// pair; the machine calls it from its chipset port dispatch.
func (c *Controller) ReadIO(port uint16) byte {
	switch port {
	case PortChannel0Address:
		return c.addressRead(0)
	case PortChannel1Address:
		return c.addressRead(1)
	case PortChannel2Address:
		return c.addressRead(2)
	case PortChannel3Address:
		return c.addressRead(3)
	case PortChannel0WordCount:
		return c.wordCountRead(0)
	case PortChannel1WordCount:
		return c.wordCountRead(1)
	case PortChannel2WordCount:
		return c.wordCountRead(2)
	case PortChannel3WordCount:
		return c.wordCountRead(3)
	case PortChannel0Page:
		return c.Channels[0].Page
	case PortChannel1Page:
		return c.Channels[1].Page
	case PortChannel2Page:
		return c.Channels[2].Page
	case PortChannel3Page:
		return c.Channels[3].Page
	case PortStatusRegister:
		return c.Status
	case PortTempRegister:
		return c.Temp
	default:
		c.log.Debug("read from unimplemented port", "port", port)
		return 0
	}
}

// WriteIO implements the controller's write-side port dispatch.
func (c *Controller) WriteIO(port uint16, value byte) {
	switch port {
	case PortChannel0Address:
		c.addressWrite(0, value)
	case PortChannel1Address:
		c.addressWrite(1, value)
	case PortChannel2Address:
		c.addressWrite(2, value)
	case PortChannel3Address:
		c.addressWrite(3, value)
	case PortChannel0WordCount:
		c.wordCountWrite(0, value)
	case PortChannel1WordCount:
		c.wordCountWrite(1, value)
	case PortChannel2WordCount:
		c.wordCountWrite(2, value)
	case PortChannel3WordCount:
		c.wordCountWrite(3, value)
	case PortChannel0Page:
		c.Channels[0].Page = value
	case PortChannel1Page:
		c.Channels[1].Page = value
	case PortChannel2Page:
		c.Channels[2].Page = value
	case PortChannel3Page:
		c.Channels[3].Page = value
	case PortCommandRegister:
		// Mem-to-mem, channel-0-hold, timing, and priority commands are
		// not implemented; only disable gates the read side (see
		// ReadByte).
		c.Command = value
	case PortWriteRequest:
		c.log.Debug("software DMA request not implemented")
	case PortChannelMask:
		c.Channels[value&0x03].Masked = value&0x04 != 0
	case PortMode:
		ch := value & 0x03
		c.Channels[ch].Mode = value
		c.Channels[ch].TerminalCount = false
	case PortClearFlipFlop:
		c.flipflop = false
	case PortMasterClear:
		for i := range c.Channels {
			c.Channels[i].Masked = true
		}
		c.Command = 0
		c.Status = 0
		c.Temp = 0
		c.flipflop = false
	case PortClearMask:
		for i := range c.Channels {
			c.Channels[i].Masked = false
		}
	case PortWriteMask:
		for i := range c.Channels {
			c.Channels[i].Masked = value&0x01 != 0
			value >>= 1
		}
	default:
		c.log.Debug("write to unimplemented port", "port", port)
	}
}

// TransferAddress returns the 20-bit physical address a channel's next byte
// transfer targets.
func (c *Controller) TransferAddress(ch int) uint32 {
	return uint32(c.Channels[ch].Page)<<16 + uint32(c.Channels[ch].CurrentAddress)
}

// TransferSize returns the number of bytes remaining in the programmed
// transfer (current word count is "count minus one").
func (c *Controller) TransferSize(ch int) uint32 {
	return uint32(c.Channels[ch].CurrentWordCount) + 1
}

// WriteByte transfers one byte from value into memory at the channel's
// current address (write-into-memory mode), advancing the address and
// decrementing the count. On reaching terminal count it sets TCReached and
// either reloads (auto-init) or latches TerminalCount permanently. Unlike
// ReadByte, this does not consult the controller-disable command bit; only
// the read side is gated by it.
func (c *Controller) WriteByte(ch int, value byte) {
	chn := &c.Channels[ch]
	if chn.Mode&ModeAddressMode != AddressModeIncrement {
		c.log.Debug("decrement address mode not implemented", "channel", ch)
		return
	}

	addr := c.TransferAddress(ch)
	switch {
	case chn.CurrentWordCount > 0:
		if chn.Mode&ModeTransferType == TransferTypeWrite {
			c.mem.WriteByte(addr, value)
		}
		chn.CurrentAddress++
		chn.CurrentWordCount--
	case !chn.TerminalCount:
		if chn.Mode&ModeTransferType == TransferTypeWrite {
			c.mem.WriteByte(addr, value)
		}
		if chn.Mode&ModeAutoInit == ModeAutoInit {
			chn.CurrentAddress = chn.LatchedAddress
			chn.CurrentWordCount = chn.LatchedWordCount
		} else {
			chn.TerminalCount = true
		}
		chn.TCReached = true
	default:
		// already at terminal count: write dropped
	}
}

// ReadByte transfers one byte from memory at the channel's current address
// (read-from-memory mode) and returns it, with the same count/terminal-count
// bookkeeping as WriteByte. A disabled controller (command register
// COMMAND_DISABLE bit set) always returns 0 without touching channel state.
func (c *Controller) ReadByte(ch int) byte {
	if c.Command&CommandDisable != 0 {
		return 0
	}

	chn := &c.Channels[ch]
	if chn.Mode&ModeAddressMode != AddressModeIncrement {
		c.log.Debug("decrement address mode not implemented", "channel", ch)
		return 0
	}

	addr := c.TransferAddress(ch)
	var data byte
	switch {
	case chn.CurrentWordCount > 0:
		data = c.mem.ReadByte(addr)
		chn.CurrentAddress++
		chn.CurrentWordCount--
	case !chn.TerminalCount:
		data = c.mem.ReadByte(addr)
		if chn.Mode&ModeAutoInit == ModeAutoInit {
			chn.CurrentAddress = chn.LatchedAddress
			chn.CurrentWordCount = chn.LatchedWordCount
		} else {
			chn.TerminalCount = true
		}
		chn.TCReached = true
	default:
		// already at terminal count: read returns 0
	}
	return data
}

// ChannelReady reports whether a channel is unmasked and able to run.
func (c *Controller) ChannelReady(ch int) bool {
	return !c.Channels[ch].Masked
}

// TerminalCountReached reports and clears the one-shot "just completed a
// transfer" flag for ch.
func (c *Controller) TerminalCountReached(ch int) bool {
	v := c.Channels[ch].TCReached
	c.Channels[ch].TCReached = false
	return v
}
