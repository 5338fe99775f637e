/*
 * pcemu - IBM Color Graphics Adapter
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

package video

// CGA addresses: I/O window at 0x3D0, 16 KiB of RAM at 0xB8000 mirrored
// through 0xBFFFF.
const (
	CGAIOBase      = 0x3D0
	CGAMemBase     = 0xB8000
	CGAMemWindow   = 0x8000
	CGAAddressMask = 0x3FFF
)

// CGA status register bits.
const (
	CGAStatusHRetrace = 0x01
	CGAStatusVRetrace = 0x08
)

// CGA mode register bits.
const (
	CGAModeTextResHi     = 0x01
	CGAModeGraphics      = 0x02
	CGAModeBW            = 0x04
	CGAModeVideoEnable   = 0x08
	CGAModeGraphicsResHi = 0x10
	CGAModeBlinkEnable   = 0x20
)

// CGA display geometries per mode.
const (
	CGAHiResTextColumns = 80
	CGAHiResTextRows    = 25
	CGAHiResTextWidth   = 640
	CGAHiResTextHeight  = 200

	CGALoResTextColumns = 40
	CGALoResTextRows    = 25
	CGALoResTextWidth   = 320
	CGALoResTextHeight  = 200

	CGAHiResGraphicsWidth  = 640
	CGAHiResGraphicsHeight = 200
	CGALoResGraphicsWidth  = 320
	CGALoResGraphicsHeight = 200
)

// blinkMask keeps the shared attribute/cursor blink counter on its 32-tick
// cycle.
const blinkMask = 0x1F

// CGA is the color graphics adapter.
type CGA struct {
	CRTC   CRTC
	Mode   byte
	Status byte
	Color  byte
	Blink  byte

	Columns, Rows int
	Width, Height int

	accum uint64
}

// NewCGA returns a reset CGA.
func NewCGA() *CGA {
	c := &CGA{}
	c.Reset()
	return c
}

// Reset restores power-on state: 40x25 text.
func (c *CGA) Reset() {
	c.CRTC.Reset()
	c.Status = 0
	c.Color = 0
	c.Blink = 0
	c.accum = 0
	c.setMode(0)
}

func (c *CGA) setMode(value byte) {
	if value&CGAModeGraphics != 0 {
		c.Columns = 0
		c.Rows = 0
		if value&CGAModeGraphicsResHi != 0 {
			c.Width = CGAHiResGraphicsWidth
			c.Height = CGAHiResGraphicsHeight
		} else {
			c.Width = CGALoResGraphicsWidth
			c.Height = CGALoResGraphicsHeight
		}
	} else {
		if value&CGAModeTextResHi != 0 {
			c.Columns = CGAHiResTextColumns
			c.Rows = CGAHiResTextRows
			c.Width = CGAHiResTextWidth
			c.Height = CGAHiResTextHeight
		} else {
			c.Columns = CGALoResTextColumns
			c.Rows = CGALoResTextRows
			c.Width = CGALoResTextWidth
			c.Height = CGALoResTextHeight
		}
	}
	c.Mode = value
}

// ReadIO services the adapter's register window, offsets 0x0-0xA from the
// card base. Each status read toggles the retrace bits so BIOS polling
// loops observe both levels.
func (c *CGA) ReadIO(port uint16) byte {
	switch port {
	case 0x1, 0x3, 0x5, 0x7:
		return c.CRTC.ReadData()
	case 0xA:
		c.Status ^= CGAStatusHRetrace
		c.Status ^= CGAStatusVRetrace
		return c.Status
	}
	return 0
}

// WriteIO services the adapter's register window.
func (c *CGA) WriteIO(port uint16, value byte) {
	switch port {
	case 0x0, 0x2, 0x4, 0x6:
		c.CRTC.WriteIndex(value)
	case 0x1, 0x3, 0x5, 0x7:
		c.CRTC.WriteData(value)
	case 0x8:
		c.setMode(value)
	case 0x9:
		c.Color = value
	}
}

// Tick advances the adapter by one character clock.
func (c *CGA) Tick() {
	c.Blink = (c.Blink + 1) & blinkMask
}

// Update paces Tick from CPU cycles at the CGA character clock ratio of 3
// adapter ticks per CPU cycle.
func (c *CGA) Update(cycles int) {
	const (
		cycleTarget = 1
		cycleFactor = 3
	)
	c.accum += uint64(cycles) * cycleFactor
	for c.accum >= cycleTarget {
		c.accum -= cycleTarget
		c.Tick()
	}
}
