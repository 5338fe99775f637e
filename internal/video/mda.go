/*
 * pcemu - IBM Monochrome Display Adapter
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

// MDA addresses: I/O window at 0x3B0, 4 KiB of text RAM at 0xB0000
// mirrored through 0xB7FFF.
const (
	MDAIOBase      = 0x3B0
	MDAMemBase     = 0xB0000
	MDAMemWindow   = 0x8000
	MDAAddressMask = 0x0FFF
)

// MDA status register bits.
const (
	MDAStatusHRetrace = 0x01
	MDAStatusVRetrace = 0x08
)

// MDA mode register bits.
const (
	MDAModeHiRes       = 0x01
	MDAModeVideoEnable = 0x08
	MDAModeBlinkEnable = 0x20
)

// MDA text geometry (the adapter has a single 80x25 mode).
const (
	MDAColumns = 80
	MDARows    = 25
	MDAWidth   = 720
	MDAHeight  = 350
)

// MDA is the monochrome display adapter.
type MDA struct {
	CRTC   CRTC
	Mode   byte
	Status byte
	Blink  byte

	Columns, Rows int
	Width, Height int

	accum uint64
}

// NewMDA returns a reset MDA.
func NewMDA() *MDA {
	m := &MDA{}
	m.Reset()
	return m
}

// Reset restores power-on state.
func (m *MDA) Reset() {
	m.CRTC.Reset()
	m.Status = 0
	m.Blink = 0
	m.accum = 0
	m.setMode(MDAModeHiRes)
}

func (m *MDA) setMode(value byte) {
	if value&MDAModeHiRes != 0 {
		m.Columns = MDAColumns
		m.Rows = MDARows
		m.Width = MDAWidth
		m.Height = MDAHeight
	}
	m.Mode = value
}

// ReadIO services the adapter's register window, offsets 0x0-0xA from the
// card base. Each status read toggles the retrace bits so BIOS polling
// loops observe both levels.
func (m *MDA) ReadIO(port uint16) byte {
	switch port {
	case 0x1, 0x3, 0x5, 0x7:
		return m.CRTC.ReadData()
	case 0xA:
		m.Status ^= MDAStatusHRetrace
		m.Status ^= MDAStatusVRetrace
		return m.Status
	}
	return 0
}

// WriteIO services the adapter's register window.
func (m *MDA) WriteIO(port uint16, value byte) {
	switch port {
	case 0x0, 0x2, 0x4, 0x6:
		m.CRTC.WriteIndex(value)
	case 0x1, 0x3, 0x5, 0x7:
		m.CRTC.WriteData(value)
	case 0x8:
		m.setMode(value)
	}
}

// Tick advances the adapter by one character clock, driving the shared
// 32-tick blink counter for attribute and cursor blinking.
func (m *MDA) Tick() {
	m.Blink = (m.Blink + 1) & blinkMask
}

// Update paces Tick from CPU cycles at the MDA character clock ratio of 5
// adapter ticks per 4 CPU cycles.
func (m *MDA) Update(cycles int) {
	const (
		cycleTarget = 4
		cycleFactor = 5
	)
	m.accum += uint64(cycles) * cycleFactor
	for m.accum >= cycleTarget {
		m.accum -= cycleTarget
		m.Tick()
	}
}
