/*
 * pcemu - Intel 8255 programmable peripheral interface
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

// Package ppi models the Intel 8255 programmable peripheral interface as
// wired into the PC/XT: three 8-bit ports, each backed by an optional
// read/write callback owned by whichever device the port is wired to
// (keyboard data on port A, speaker gate and cassette/config bits on
// port B, DIP-switch and refresh/speaker-feedback bits on port C). The
// control port's mode bits are latched but not otherwise interpreted, as
// the PC/XT wiring only ever uses mode 0 (basic I/O).
package ppi

// Port offsets relative to the PPI's base I/O address.
const (
	PortA       = 0x0
	PortB       = 0x1
	PortC       = 0x2
	PortControl = 0x3
)

// PPI is an Intel 8255.
type PPI struct {
	portA, portB, portC, control byte

	ReadA, ReadB, ReadC    func() byte
	WriteA, WriteB, WriteC func(value byte)
}

// New returns a PPI with no ports wired; unwired reads return 0 and writes
// only update the port's shadow latch.
func New() *PPI {
	return &PPI{}
}

// Reset clears the control (mode) register; port latches are left alone.
func (p *PPI) Reset() {
	p.control = 0
}

// ReadIO reads a port. A wired callback is consulted; an unwired port
// reads 0 (its shadow latch is not returned).
func (p *PPI) ReadIO(port uint16) byte {
	switch port {
	case PortA:
		if p.ReadA != nil {
			return p.ReadA()
		}
	case PortB:
		if p.ReadB != nil {
			return p.ReadB()
		}
	case PortC:
		if p.ReadC != nil {
			return p.ReadC()
		}
	}
	return 0
}

// WriteIO writes a port, invoking its wired callback (if any) and updating
// its shadow latch, or latches the control byte.
func (p *PPI) WriteIO(port uint16, value byte) {
	switch port {
	case PortA:
		if p.WriteA != nil {
			p.WriteA(value)
		}
		p.portA = value
	case PortB:
		if p.WriteB != nil {
			p.WriteB(value)
		}
		p.portB = value
	case PortC:
		if p.WriteC != nil {
			p.WriteC(value)
		}
		p.portC = value
	case PortControl:
		p.control = value
	}
}

// Control returns the last-written mode byte.
func (p *PPI) Control() byte {
	return p.control
}
