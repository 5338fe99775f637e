/*
 * pcemu - NMI mask register
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

// Package nmi models the PC/XT's NMI mask register: a single read/write
// byte at I/O port 0xA0, bit 7 of which enables delivery of non-maskable
// interrupts raised by memory parity errors and I/O channel checks.
package nmi

// EnableInterrupts is the mask register's enable bit.
const EnableInterrupts = 0x80

// Register is the NMI mask register.
type Register struct {
	status byte
}

// New returns a Register with interrupts disabled, matching a cold reset.
func New() *Register {
	return &Register{}
}

// Reset disables NMI delivery.
func (r *Register) Reset() {
	r.status = 0
}

// Enabled reports whether bit 7 is set.
func (r *Register) Enabled() bool {
	return r.status&EnableInterrupts != 0
}

// ReadIO returns the register's current value regardless of port address;
// the register occupies a single port with no sub-addressing.
func (r *Register) ReadIO(_ uint16) byte {
	return r.status
}

// WriteIO stores value regardless of port address.
func (r *Register) WriteIO(_ uint16, value byte) {
	r.status = value
}
