/*
 * pcemu - ISA expansion bus
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

// Package isabus holds a fixed pool of card slots, each with an optional
// memory region, I/O handler, reset hook, and per-cycle update hook, and
// dispatches port I/O and lifecycle calls across them in insertion order.
package isabus

import "github.com/tjarmytage/pcemu/internal/memmap"

// IOHandler services a port read or write. Read handlers return the value
// and whether they claimed the port; write handlers return whether they
// claimed it.
type IOHandler interface {
	ReadIO(port uint16) (value byte, handled bool)
	WriteIO(port uint16, value byte) (handled bool)
}

// Card is an installed device: any subset of the three hook types may be
// nil.
type Card struct {
	Name      string
	IO        IOHandler
	Reset     func()
	Update    func(cycles int)
	RegionIdx int
	HasRegion bool
	enabled   bool
	removed   bool
}

// Bus is the ISA expansion bus: a slot pool plus the memory map its cards'
// regions live in.
type Bus struct {
	mem   *memmap.Map
	slots []Card
}

// New returns an empty Bus backed by mem.
func New(mem *memmap.Map) *Bus {
	return &Bus{mem: mem}
}

// AddCard installs card, reusing a removed slot if one exists, and returns
// its slot index. The card starts enabled.
func (b *Bus) AddCard(c Card) int {
	c.enabled = true
	for i := range b.slots {
		if b.slots[i].removed {
			b.slots[i] = c
			return i
		}
	}
	b.slots = append(b.slots, c)
	return len(b.slots) - 1
}

// RemoveCard marks a slot removed so it can be reused, disabling its
// attached memory region first.
func (b *Bus) RemoveCard(index int) {
	if index < 0 || index >= len(b.slots) {
		return
	}
	b.disableRegion(index)
	b.slots[index].removed = true
	b.slots[index].enabled = false
}

// EnableCard and DisableCard toggle a slot's participation in dispatch,
// also toggling its attached memory region if it has one.
func (b *Bus) EnableCard(index int) {
	b.setEnabled(index, true)
}

func (b *Bus) DisableCard(index int) {
	b.setEnabled(index, false)
}

func (b *Bus) setEnabled(index int, enabled bool) {
	if index < 0 || index >= len(b.slots) || b.slots[index].removed {
		return
	}
	b.slots[index].enabled = enabled
	if enabled {
		b.enableRegion(index)
	} else {
		b.disableRegion(index)
	}
}

func (b *Bus) enableRegion(index int) {
	c := &b.slots[index]
	if c.HasRegion && b.mem != nil {
		b.mem.EnableRegion(c.RegionIdx)
	}
}

func (b *Bus) disableRegion(index int) {
	c := &b.slots[index]
	if c.HasRegion && b.mem != nil {
		b.mem.DisableRegion(c.RegionIdx)
	}
}

// TryReadIO walks enabled slots with an IOHandler in insertion order; the
// first handler that claims the port wins and later slots are not
// consulted. handled is false when no card answered, letting the machine
// fall through to the motherboard chipset.
func (b *Bus) TryReadIO(port uint16) (value byte, handled bool) {
	for i := range b.slots {
		c := &b.slots[i]
		if c.removed || !c.enabled || c.IO == nil {
			continue
		}
		if v, ok := c.IO.ReadIO(port); ok {
			return v, true
		}
	}
	return 0, false
}

// TryWriteIO walks enabled slots with an IOHandler in insertion order and
// stops at the first handler that claims the port, reporting whether any
// did.
func (b *Bus) TryWriteIO(port uint16, value byte) (handled bool) {
	for i := range b.slots {
		c := &b.slots[i]
		if c.removed || !c.enabled || c.IO == nil {
			continue
		}
		if c.IO.WriteIO(port, value) {
			return true
		}
	}
	return false
}

// ReadIO is TryReadIO with the conventional "nothing answered" 0xFF for an
// unclaimed port.
func (b *Bus) ReadIO(port uint16) byte {
	if v, handled := b.TryReadIO(port); handled {
		return v
	}
	return 0xFF
}

// WriteIO is TryWriteIO, dropping the write when no card claims the port.
func (b *Bus) WriteIO(port uint16, value byte) {
	b.TryWriteIO(port, value)
}

// Reset invokes every enabled slot's reset hook, in insertion order.
func (b *Bus) Reset() {
	for i := range b.slots {
		c := &b.slots[i]
		if c.removed || !c.enabled || c.Reset == nil {
			continue
		}
		c.Reset()
	}
}

// Update invokes every enabled slot's per-cycle update hook with the
// number of CPU cycles consumed since the last call.
func (b *Bus) Update(cycles int) {
	for i := range b.slots {
		c := &b.slots[i]
		if c.removed || !c.enabled || c.Update == nil {
			continue
		}
		c.Update(cycles)
	}
}
