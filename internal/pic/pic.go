/*
 * pcemu - Intel 8259 programmable interrupt controller
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

// Package pic models the Intel 8259 programmable interrupt controller: a
// command/data port pair that walks through ICW1-4 initialization, then
// tracks pending, masked, and in-service interrupts by priority.
package pic

import "log/slog"

// Port offsets relative to the controller's base I/O address.
const (
	PortCommand = 0x0
	PortData    = 0x1
)

const icwCount = 4

const (
	icw1ReqICW4 = 0x01
	icw1Single  = 0x02
	icw1Level   = 0x08
	icw1Init    = 0x10

	icw4AutoEOI = 0x02

	ocw2OpMask  = 0xE0
	ocw2IRMask  = 0x07
	ocw2EOI     = 0x20
	ocw2EOISpec = 0x60

	ocw3Select   = 0x08
	ocw3ReadMask = 0x03
	ocw3ReadISR  = 0x03
)

// Controller is an 8259 PIC.
type Controller struct {
	imr  uint8
	irr  uint8
	isr  uint8
	ocw3 uint8

	icw         [icwCount]uint8
	icwIndex    int
	initialized bool

	log *slog.Logger
}

// New returns a Controller.
func New(log *slog.Logger) *Controller {
	if log == nil {
		log = slog.Default()
	}
	return &Controller{log: log.With("component", "pic")}
}

// Reset returns the controller to its uninitialized power-on state; it will
// not service interrupts again until reprogrammed with ICW1-4.
func (c *Controller) Reset() {
	c.imr = 0
	c.irr = 0
	c.isr = 0
	c.ocw3 = 0
	c.initialized = false
	c.icwIndex = 0
	c.icw = [icwCount]uint8{}
}

func highestPriorityBit(b uint8) int {
	for i := 0; i < 8; i++ {
		if b&(1<<uint(i)) != 0 {
			return i
		}
	}
	return -1
}

func (c *Controller) pendingIRQ() int {
	ir := c.irr &^ c.imr &^ c.isr
	if ir == 0 {
		return -1
	}
	return highestPriorityBit(ir)
}

// ReadIO reads the command port (IRR, or ISR if OCW3 selected it) or the
// data port (IMR).
func (c *Controller) ReadIO(port uint16) byte {
	switch port & 0x1 {
	case PortCommand:
		if c.ocw3&ocw3ReadMask == ocw3ReadISR {
			return c.isr
		}
		return c.irr
	default:
		return c.imr
	}
}

// WriteIO writes the command port (ICW1 or OCW2/3) or the data port
// (ICW2-4 during initialization, else OCW1).
func (c *Controller) WriteIO(port uint16, value byte) {
	switch port & 0x1 {
	case PortCommand:
		c.commandWrite(value)
	default:
		c.dataWrite(value)
	}
}

func (c *Controller) commandWrite(value byte) {
	if value&icw1Init != 0 {
		c.Reset()
		c.icw[c.icwIndex] = value
		c.icwIndex++
		return
	}
	if !c.initialized {
		return
	}
	if value&ocw3Select == 0 {
		c.ocw2(value)
	} else {
		c.ocw3 = value
	}
}

func (c *Controller) ocw2(value byte) {
	switch value & ocw2OpMask {
	case ocw2EOI:
		if ir := highestPriorityBit(c.isr); ir != -1 {
			c.isr &^= 1 << uint(ir)
		}
	case ocw2EOISpec:
		c.isr &^= 1 << uint(value&ocw2IRMask)
	}
}

func (c *Controller) dataWrite(value byte) {
	if c.initialized {
		c.imr = value
		return
	}
	c.icwx(value)
}

func (c *Controller) icwx(value byte) {
	switch c.icwIndex {
	case 1: // ICW2: interrupt vector base, low 3 bits ignored
		c.icw[c.icwIndex] = value & 0xF8
		c.icwIndex++
		if c.icw[0]&icw1Single != 0 {
			c.icwIndex++ // skip ICW3: no cascaded slaves
			if c.icw[0]&icw1ReqICW4 == 0 {
				c.icwIndex++ // skip ICW4
			}
		}
	case 2: // ICW3
		c.icw[c.icwIndex] = value
		c.icwIndex++
		if c.icw[0]&icw1ReqICW4 == 0 {
			c.icwIndex++ // skip ICW4
		}
	case 3: // ICW4
		c.icw[c.icwIndex] = value
		c.icwIndex++
	}
	if c.icwIndex == icwCount {
		c.initialized = true
	}
}

// RequestInterrupt raises irq's request line unless it is masked or already
// in service.
func (c *Controller) RequestInterrupt(irq int) {
	if !c.initialized {
		return
	}
	mask := uint8(1 << uint(irq&0x07))
	if c.isr&mask == 0 && c.irr&mask == 0 && c.imr&mask == 0 {
		c.irr |= mask
	}
}

// ClearInterrupt lowers irq's request and in-service bits.
func (c *Controller) ClearInterrupt(irq int) {
	if !c.initialized {
		return
	}
	mask := uint8(1 << uint(irq&0x07))
	c.irr &^= mask
	c.isr &^= mask
}

// GetInterrupt returns the highest-priority pending, unmasked interrupt's
// vector (ICW2's base ORed with the IRQ number) and marks it in service
// unless the controller is configured for auto-EOI, in which case it is
// immediately cleared from IRR without entering ISR. ok is false if the
// controller is uninitialized or has nothing to service.
func (c *Controller) GetInterrupt() (vector byte, ok bool) {
	if !c.initialized {
		return 0, false
	}
	irq := c.pendingIRQ()
	if irq == -1 {
		return 0, false
	}
	mask := uint8(1 << uint(irq))
	if c.icw[3]&icw4AutoEOI == 0 {
		c.isr |= mask
	}
	if c.icw[0]&icw1Level == 0 {
		c.irr &^= mask
	}
	return c.icw[1] | uint8(irq), true
}
