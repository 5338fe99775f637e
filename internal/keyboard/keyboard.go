/*
 * pcemu - PC/XT keyboard controller
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

// Package keyboard models the PC/XT keyboard interface: a scancode shift
// register gated by the PPI's clock/enable bits, with a self-test sequence
// triggered by holding the clock line low across a reset interval.
package keyboard

import (
	"log/slog"

	"github.com/tjarmytage/pcemu/internal/ring"
)

// FIFOCapacity is the size of the pending-scancode queue the host fills.
const FIFOCapacity = 16

// ResetLowTicks is the number of consecutive Tick calls the clock line must
// stay low before a rising edge is treated as a reset request, rather than
// the falling/rising edge pair used to shift out a bit. The machine calls
// Tick once per 35,400 CPU cycles (~7.4 ms at 4.77 MHz), so two ticks
// stand in for the ~10 ms threshold real hardware times.
const ResetLowTicks = 2

// SelfTestByte is latched as the data byte when a reset completes.
const SelfTestByte = 0xAA

// Controller is the keyboard interface.
type Controller struct {
	enabled bool
	clk     bool
	lowRun  int
	doReset bool
	data    byte

	pending *ring.Buffer

	// RequestIRQ and ClearIRQ are wired by the machine to IRQ 1 on the PIC.
	RequestIRQ func()
	ClearIRQ   func()

	log *slog.Logger
}

// New returns a Controller with no scancodes queued.
func New(log *slog.Logger) *Controller {
	if log == nil {
		log = slog.Default()
	}
	return &Controller{
		pending: ring.New(FIFOCapacity),
		log:     log.With("component", "keyboard"),
	}
}

// Reset clears pending scancodes and returns the controller to its
// power-on state: disabled, clock high, no data latched.
func (c *Controller) Reset() {
	reqIRQ, clrIRQ := c.RequestIRQ, c.ClearIRQ
	*c = Controller{pending: ring.New(FIFOCapacity), log: c.log, RequestIRQ: reqIRQ, ClearIRQ: clrIRQ}
	c.clk = true
}

// Data returns the latched output byte; this is what Port A reads while
// Port B bit 7 selects the keyboard (rather than the SW1 image).
func (c *Controller) Data() byte {
	return c.data
}

// AckData clears the pending IRQ, a side effect of the CPU reading
// Port A.
func (c *Controller) AckData() {
	if c.ClearIRQ != nil {
		c.ClearIRQ()
	}
}

// SetEnable gates whether host scancodes are surfaced; disabling clears the
// latched data byte.
func (c *Controller) SetEnable(enable bool) {
	c.enabled = enable
	if !enable {
		c.data = 0
	}
}

// SetClk models the PPI port-B clock-enable bit. A falling edge starts
// timing a potential reset interval; a rising edge after the clock has
// been low for at least ResetLowTicks ticks schedules a self-test on the
// next Tick.
func (c *Controller) SetClk(clk bool) {
	if c.clk && !clk {
		c.lowRun = 0
	} else if !c.clk && clk {
		if c.lowRun >= ResetLowTicks {
			c.doReset = true
		}
	}
	c.clk = clk
}

// PushScancode queues a scancode from the host; if the queue is full the
// oldest pending scancode is dropped.
func (c *Controller) PushScancode(b byte) {
	c.pending.Push(b)
}

// Tick advances the reset-interval timer and, once per call, either
// completes a pending self-test or shifts the next queued scancode into
// the data latch.
func (c *Controller) Tick() {
	if !c.clk {
		c.lowRun++
	}
	switch {
	case c.doReset:
		c.doReset = false
		c.pending.Reset()
		c.data = SelfTestByte
		c.raiseIRQ()
	case c.enabled:
		if v, ok := c.pending.Pop(); ok {
			c.data = v
			c.raiseIRQ()
		}
	}
}

func (c *Controller) raiseIRQ() {
	if c.RequestIRQ != nil {
		c.RequestIRQ()
	}
}
