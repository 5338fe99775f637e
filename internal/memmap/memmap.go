/*
 * pcemu - Physical memory map
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

// Package memmap owns the 1 MiB physical address buffer and dispatches
// byte reads/writes to overlapping, maskable regions. A Map is an
// ordinary instance passed explicitly by the machine that owns it; no
// package-level state is kept.
package memmap

import "log/slog"

// Size is the physical address space size: 1 MiB.
const Size = 1 << 20

// Region describes one overlay window onto the physical address space.
type Region struct {
	Start      uint32
	RegionSize uint32
	Mask       uint32
	Writable   bool
	Enabled    bool
	removed    bool
}

// Map is the physical memory map: a flat byte buffer plus an ordered list
// of regions that claim portions of it.
type Map struct {
	mem     [Size]byte
	regions []Region
	log     *slog.Logger
}

// New returns an empty Map logging to log.
func New(log *slog.Logger) *Map {
	if log == nil {
		log = slog.Default()
	}
	return &Map{log: log.With("component", "memmap")}
}

// AddRegion installs a new region, reusing a removed slot if one exists,
// and returns its index. The slice grows as needed; callers that want a
// fixed-size pool check len(m.regions) themselves.
func (m *Map) AddRegion(start, size, mask uint32, writable bool) int {
	r := Region{Start: start, RegionSize: size, Mask: mask, Writable: writable, Enabled: true}
	for i := range m.regions {
		if m.regions[i].removed {
			m.regions[i] = r
			return i
		}
	}
	m.regions = append(m.regions, r)
	return len(m.regions) - 1
}

// RemoveRegion marks a region removed so its slot may be reused. Removing
// an already-removed or out-of-range index is a no-op.
func (m *Map) RemoveRegion(index int) {
	if index < 0 || index >= len(m.regions) {
		return
	}
	m.regions[index].removed = true
	m.regions[index].Enabled = false
}

// EnableRegion and DisableRegion flip a region's visibility to the bus.
// Both are no-ops on a removed or out-of-range index.
func (m *Map) EnableRegion(index int) {
	m.setEnabled(index, true)
}

func (m *Map) DisableRegion(index int) {
	m.setEnabled(index, false)
}

func (m *Map) setEnabled(index int, enabled bool) {
	if index < 0 || index >= len(m.regions) || m.regions[index].removed {
		return
	}
	m.regions[index].Enabled = enabled
}

// Region returns a copy of the region at index and whether the index is
// valid.
func (m *Map) Region(index int) (Region, bool) {
	if index < 0 || index >= len(m.regions) || m.regions[index].removed {
		return Region{}, false
	}
	return m.regions[index], true
}

// find returns the first active region containing addr, and the offset
// within that region's backing window.
func (m *Map) find(addr uint32) (int, uint32, bool) {
	for i := range m.regions {
		r := &m.regions[i]
		if r.removed || !r.Enabled {
			continue
		}
		if addr < r.Start || addr >= r.Start+r.RegionSize {
			continue
		}
		off := (addr - r.Start) & r.Mask
		return i, off, true
	}
	return 0, 0, false
}

// Read returns the byte at addr: the first active region containing addr
// supplies it (via its mask, for mirroring); an address with no active
// region reads as 0.
func (m *Map) Read(addr uint32) byte {
	idx, off, ok := m.find(addr)
	if !ok {
		return 0
	}
	r := &m.regions[idx]
	return m.mem[r.Start+off]
}

// Write stores value at addr if the first active region containing it is
// writable; otherwise the write is silently dropped.
func (m *Map) Write(addr uint32, value byte) {
	idx, off, ok := m.find(addr)
	if !ok {
		return
	}
	r := &m.regions[idx]
	if !r.Writable {
		return
	}
	m.mem[r.Start+off] = value
}

// FillWritable blanks every active writable region to value, used on reset
// to scrub conventional RAM.
func (m *Map) FillWritable(value byte) {
	for i := range m.regions {
		r := &m.regions[i]
		if r.removed || !r.Enabled || !r.Writable {
			continue
		}
		for a := r.Start; a < r.Start+r.RegionSize; a++ {
			m.mem[a] = value
		}
	}
}

// LoadROM copies data into the backing buffer starting at addr, bypassing
// the region-writable check (ROM images are loaded once at configuration
// time, before the region is marked read-only).
func (m *Map) LoadROM(addr uint32, data []byte) {
	for i, b := range data {
		a := addr + uint32(i)
		if int(a) >= len(m.mem) {
			break
		}
		m.mem[a] = b
	}
}

// Validate logs a warning for each region with zero size, zero mask, or
// that overlaps an earlier active region. It never returns an error: a
// bad region layout is a configuration problem the machine degrades
// through rather than treats as fatal.
func (m *Map) Validate() {
	for i := range m.regions {
		r := &m.regions[i]
		if r.removed || !r.Enabled {
			continue
		}
		if r.RegionSize == 0 {
			m.log.Warn("region has zero size", "index", i, "start", r.Start)
		}
		if r.Mask == 0 {
			m.log.Warn("region has zero mask", "index", i, "start", r.Start)
		}
		for j := 0; j < i; j++ {
			o := &m.regions[j]
			if o.removed || !o.Enabled {
				continue
			}
			if overlaps(*r, *o) {
				m.log.Warn("region overlaps an earlier region", "index", i, "earlier", j)
			}
		}
	}
}

func overlaps(a, b Region) bool {
	aEnd := a.Start + a.RegionSize
	bEnd := b.Start + b.RegionSize
	return a.Start < bEnd && b.Start < aEnd
}
