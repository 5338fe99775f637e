/*
 * pcemu - Intel 8253 programmable interval timer
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

// Package pit models the Intel 8253 programmable interval timer: three
// independent channels, each a small mode state machine driven by writes to
// its count register and by an external gate signal.
package pit

import "log/slog"

const NumChannels = 3

// Port offsets relative to the PIT's base I/O address.
const (
	PortChannel0 = 0x0
	PortChannel1 = 0x1
	PortChannel2 = 0x2
	PortControl  = 0x3
)

// Control byte field masks.
const (
	ctrlBCD  = 0x01
	ctrlMode = 0x0E
	ctrlRW   = 0x30

	rwLatch = 0x00
	rwLSB   = 0x10
	rwMSB   = 0x20
	rwBoth  = 0x30
)

// Channel operating modes, as encoded in the control byte's mode field.
const (
	Mode0 = 0x00 // interrupt on terminal count
	Mode1 = 0x02 // programmable one-shot
	Mode2 = 0x04 // rate generator
	Mode3 = 0x06 // square wave generator
	Mode4 = 0x08 // software-triggered strobe
	Mode5 = 0x0A // hardware-triggered strobe
	Mode6 = 0x0C // rate generator (alias of mode 2)
	Mode7 = 0x0E // square wave generator (alias of mode 3)
)

// channelState is a channel's position in the reload/count state machine.
type channelState int

const (
	stateWaitingForReload channelState = iota
	stateWaitingForGate
	stateWaitingLoadCycle
	stateDelayLoadCycle
	stateCounting
)

const (
	loadStateLSB = 0
	loadStateMSB = 1

	loadTypeInit = 0
	loadTypeSeq  = 1
)

// GateFunc supplies a channel's external gate level; nil means always high.
type GateFunc func() bool

// Channel is one of the PIT's three timer channels.
type Channel struct {
	countRegister  uint16
	counterLatch   uint16
	counter        uint16
	reload         uint16
	ctrl           byte
	active         bool
	out            bool
	loadState      int
	loadType       int
	state          channelState
	gate           bool
	outOnReload    bool
	countIsLatched bool

	// OnOutputChange is invoked whenever the channel's output level
	// changes, e.g. to wire channel 0 to IRQ 0.
	OnOutputChange func(out bool)
	// Gate supplies the external gate input; channel 2's gate is wired to
	// a PPI port-B bit by the machine.
	Gate GateFunc
}

// Out reports the channel's current output level.
func (c *Channel) Out() bool {
	return c.out
}

func (c *Channel) setOutput(out bool) {
	if c.out != out {
		c.out = out
		if c.OnOutputChange != nil {
			c.OnOutputChange(out)
		}
	}
}

func (c *Channel) loadCounter() {
	c.reload = c.countRegister
	if c.loadType == loadTypeInit {
		c.state = stateWaitingLoadCycle
		c.loadType = loadTypeSeq
	} else if mode := c.ctrl & ctrlMode; mode == Mode0 || mode == Mode4 {
		c.state = stateWaitingLoadCycle
	}
	c.active = true
}

func (c *Channel) count() {
	if c.ctrl&ctrlBCD != 0 {
		// BCD mode not implemented.
	} else {
		c.counter-- // deliberate underflow: a reload of 0 means 0x10000
	}
	if !c.countIsLatched {
		c.counterLatch = c.counter
	}
}

func (c *Channel) tick() {
	if !c.active {
		return
	}
	switch c.ctrl & ctrlMode {
	case Mode0:
		c.count()
		if c.counter == 0 {
			c.setOutput(true)
		}
	case Mode2, Mode6:
		c.count()
		if c.counter == 1 {
			c.setOutput(false)
			c.outOnReload = true
			c.state = stateWaitingLoadCycle
		}
	case Mode3, Mode7:
		c.count()
		if c.counter == 0 {
			c.setOutput(!c.out)
			c.counter = c.reload
		}
	case Mode1, Mode4, Mode5:
		// One-shot and strobe modes are stubbed; output stays at its
		// reset level. The PC uses only modes 0, 2 and 3.
	}
}

func (c *Channel) updateGate() {
	gate := true
	if c.Gate != nil {
		gate = c.Gate()
	}

	if c.state != stateWaitingForReload {
		mode := c.ctrl & ctrlMode
		switch {
		case !c.gate && gate: // rising edge
			switch mode {
			case Mode0, Mode4:
				// no effect
			case Mode1, Mode2, Mode3, Mode5, Mode6, Mode7:
				c.state = stateWaitingLoadCycle
			}
		case c.gate && !gate: // falling edge
			switch mode {
			case Mode0, Mode1, Mode5:
				// no effect
			case Mode2, Mode3, Mode6, Mode7:
				c.setOutput(true)
				c.state = stateWaitingForGate
			case Mode4:
				c.state = stateWaitingForGate
			}
		}
	}
	c.gate = gate
}

func (c *Channel) write(value byte) {
	switch c.ctrl & ctrlRW {
	case rwLSB:
		c.countRegister = uint16(value)
		c.loadCounter()
	case rwMSB:
		c.countRegister = uint16(value) << 8
		c.loadCounter()
	case rwBoth:
		if c.loadState == loadStateLSB {
			c.countRegister = c.countRegister&0xFF00 | uint16(value)
			c.loadState = loadStateMSB
		} else {
			c.countRegister = uint16(value)<<8 | c.countRegister&0x00FF
			c.loadCounter()
			if c.ctrl&ctrlMode == Mode0 {
				c.setOutput(false)
			}
			c.loadState = loadStateLSB
		}
	}
}

func (c *Channel) read() byte {
	switch c.ctrl & ctrlRW {
	case rwLSB:
		c.countIsLatched = false
		return byte(c.counterLatch)
	case rwMSB:
		c.countIsLatched = false
		return byte(c.counterLatch >> 8)
	case rwBoth:
		if c.loadState == loadStateLSB {
			c.loadState = loadStateMSB
			return byte(c.counterLatch)
		}
		c.countIsLatched = false
		c.loadState = loadStateLSB
		return byte(c.counterLatch >> 8)
	}
	return 0
}

// Timer is the three-channel 8253.
type Timer struct {
	Channels [NumChannels]Channel
	log      *slog.Logger
}

// New returns a Timer.
func New(log *slog.Logger) *Timer {
	if log == nil {
		log = slog.Default()
	}
	return &Timer{log: log.With("component", "pit")}
}

// Reset restores power-on state for every channel.
func (t *Timer) Reset() {
	for i := range t.Channels {
		cb := t.Channels[i].OnOutputChange
		gate := t.Channels[i].Gate
		t.Channels[i] = Channel{OnOutputChange: cb, Gate: gate}
	}
}

// ReadIO reads a channel data port or (always 0xFF) the control port.
func (t *Timer) ReadIO(port uint16) byte {
	switch port {
	case PortChannel0, PortChannel1, PortChannel2:
		return t.Channels[port].read()
	default:
		return 0xFF
	}
}

// WriteIO writes a channel data port or the shared control port.
func (t *Timer) WriteIO(port uint16, value byte) {
	switch port {
	case PortChannel0, PortChannel1, PortChannel2:
		t.Channels[port].write(value)
	case PortControl:
		t.controlWrite(value)
	}
}

func (t *Timer) controlWrite(value byte) {
	i := (value >> 6) & 0x3
	if i == 0x3 {
		return // illegal: read-back command not implemented
	}
	c := &t.Channels[i]

	if value&ctrlRW == rwLatch {
		c.counterLatch = c.counter
		c.countIsLatched = true
		return
	}

	c.ctrl = value
	c.countIsLatched = false
	c.counter = 0
	c.state = stateWaitingForReload
	c.loadState = loadStateLSB
	c.loadType = loadTypeInit

	switch c.ctrl & ctrlMode {
	case Mode0:
		c.setOutput(false)
		c.outOnReload = false
	case Mode1:
		c.setOutput(true)
		c.outOnReload = false
	case Mode2, Mode6, Mode3, Mode7:
		c.setOutput(true)
		c.outOnReload = true
	case Mode4, Mode5:
		c.setOutput(true)
		c.outOnReload = false
	}
}

// Tick advances every channel by one PIT clock.
func (t *Timer) Tick() {
	for i := range t.Channels {
		c := &t.Channels[i]
		c.updateGate()
		switch c.state {
		case stateWaitingForReload, stateWaitingForGate:
			// do nothing
		case stateDelayLoadCycle:
			c.state = stateWaitingLoadCycle
		case stateWaitingLoadCycle:
			c.counter = c.reload
			c.setOutput(c.outOnReload)
			c.state = stateCounting
		case stateCounting:
			c.tick()
		}
	}
}
