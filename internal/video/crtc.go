/*
 * pcemu - Motorola 6845 CRT controller
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

// Package video models the display adapters of the PC: the shared 6845 CRT
// controller plus the MDA and CGA register windows and their memory-mapped
// text/graphics buffers.
package video

// CRTC register indices.
const (
	RegHorizontalTotal     = 0x00
	RegHorizontalDisplayed = 0x01
	RegHSyncPosition       = 0x02
	RegSyncWidth           = 0x03
	RegVerticalTotal       = 0x04
	RegVTotalAdjust        = 0x05
	RegVerticalDisplayed   = 0x06
	RegVSyncPosition       = 0x07
	RegInterlaceMode       = 0x08
	RegMaxScanline         = 0x09
	RegCursorStart         = 0x0A
	RegCursorEnd           = 0x0B
	RegAddressHi           = 0x0C
	RegAddressLo           = 0x0D
	RegCursorHi            = 0x0E
	RegCursorLo            = 0x0F
	RegLightPenHi          = 0x10
	RegLightPenLo          = 0x11
)

// CursorBlink is the attribute encoded in cursor-start bits 5-6.
type CursorBlink int

const (
	CursorSolid CursorBlink = iota
	CursorDisabled
	CursorBlinkFast
	CursorBlinkSlow
)

// CRTC is a Motorola 6845: an index register plus the raster-timing and
// cursor registers behind it. Fields hold only the bits the hardware
// implements; writes mask to register width.
type CRTC struct {
	Index byte

	HTotal        byte
	HDisp         byte
	HSyncPos      byte
	SyncWidth     byte
	VTotal        byte // 7 bit
	VTotalAdjust  byte // 5 bit
	VDisp         byte // 7 bit
	VSyncPos      byte // 7 bit
	InterlaceMode byte // 2 bit
	MaxScanline   byte // 5 bit
	CursorStart   byte // 7 bit: scanline in bits 0-4, blink attribute in 5-6
	CursorEnd     byte // 5 bit

	StartAddress    uint16 // 14 bit
	CursorAddress   uint16 // 14 bit
	LightPenAddress uint16 // 14 bit, read only
}

// Reset clears every register.
func (c *CRTC) Reset() {
	*c = CRTC{}
}

// WriteIndex latches the 5-bit register select.
func (c *CRTC) WriteIndex(value byte) {
	c.Index = value & 0x1F
}

// ReadData returns the selected register. Only the cursor and light-pen
// address registers are readable; everything else reads 0.
func (c *CRTC) ReadData() byte {
	switch c.Index {
	case RegCursorHi:
		return byte(c.CursorAddress>>8) & 0x3F
	case RegCursorLo:
		return byte(c.CursorAddress)
	case RegLightPenHi:
		return byte(c.LightPenAddress>>8) & 0x3F
	case RegLightPenLo:
		return byte(c.LightPenAddress)
	}
	return 0
}

// WriteData stores the selected register, masked to its width.
func (c *CRTC) WriteData(value byte) {
	switch c.Index {
	case RegHorizontalTotal:
		c.HTotal = value
	case RegHorizontalDisplayed:
		c.HDisp = value
	case RegHSyncPosition:
		c.HSyncPos = value
	case RegSyncWidth:
		c.SyncWidth = value
	case RegVerticalTotal:
		c.VTotal = value & 0x7F
	case RegVTotalAdjust:
		c.VTotalAdjust = value & 0x1F
	case RegVerticalDisplayed:
		c.VDisp = value & 0x7F
	case RegVSyncPosition:
		c.VSyncPos = value & 0x7F
	case RegInterlaceMode:
		c.InterlaceMode = value & 0x03
	case RegMaxScanline:
		c.MaxScanline = value & 0x1F
	case RegCursorStart:
		c.CursorStart = value & 0x7F
	case RegCursorEnd:
		c.CursorEnd = value & 0x1F
	case RegAddressHi:
		c.StartAddress = c.StartAddress&0x00FF | uint16(value&0x3F)<<8
	case RegAddressLo:
		c.StartAddress = c.StartAddress&0xFF00 | uint16(value)
	case RegCursorHi:
		c.CursorAddress = c.CursorAddress&0x00FF | uint16(value&0x3F)<<8
	case RegCursorLo:
		c.CursorAddress = c.CursorAddress&0xFF00 | uint16(value)
	}
}

// CursorBlinkMode decodes cursor-start bits 5-6.
func (c *CRTC) CursorBlinkMode() CursorBlink {
	return CursorBlink(c.CursorStart >> 5 & 0x03)
}
