/*
 * pcemu - CHS/LBA geometry conversion
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

// Package chs converts between cylinder/head/sector addressing and linear
// block addresses for disk media, and advances CHS tuples the way a
// controller steps through a transfer.
package chs

// Geometry describes a disk's cylinder/head/sector shape. Sectors are
// 1-based (the first sector on a track is sector 1); cylinders and heads
// are 0-based.
type Geometry struct {
	Cylinders int
	Heads     int
	Sectors   int
}

// CHS is a cylinder/head/sector address.
type CHS struct {
	Cylinder int
	Head     int
	Sector   int // 1-based
}

// TotalSectors returns C*H*S.
func (g Geometry) TotalSectors() int {
	return g.Cylinders * g.Heads * g.Sectors
}

// TotalBytes returns the total byte count of the geometry at the given
// sector size.
func (g Geometry) TotalBytes(sectorSize int) int64 {
	return int64(g.TotalSectors()) * int64(sectorSize)
}

// ToLBA converts a CHS address to a zero-based linear block address.
func ToLBA(g Geometry, c CHS) int {
	return (c.Cylinder*g.Heads+c.Head)*g.Sectors + (c.Sector - 1)
}

// ToCHS converts a zero-based linear block address to a CHS address.
func ToCHS(g Geometry, lba int) CHS {
	sector := lba%g.Sectors + 1
	temp := lba / g.Sectors
	head := temp % g.Heads
	cylinder := temp / g.Heads
	return CHS{Cylinder: cylinder, Head: head, Sector: sector}
}

// ToOffset converts a CHS address directly to a byte offset.
func ToOffset(g Geometry, c CHS, sectorSize int) int64 {
	return int64(ToLBA(g, c)) * int64(sectorSize)
}

// FromOffset converts a byte offset directly to a CHS address.
func FromOffset(g Geometry, offset int64, sectorSize int) CHS {
	return ToCHS(g, int(offset/int64(sectorSize)))
}

// Reset returns the CHS address of the first sector of the disk.
func Reset() CHS {
	return CHS{Cylinder: 0, Head: 0, Sector: 1}
}

// Advance steps a CHS address by one sector, rolling sector into head and
// head into cylinder. Cylinder wraps back to 0 when it reaches the disk's
// cylinder count, matching the controller's behavior of silently wrapping
// rather than faulting once the BIOS has already validated the request.
func Advance(g Geometry, c CHS) CHS {
	c.Sector++
	if c.Sector > g.Sectors {
		c.Sector = 1
		c.Head++
		if c.Head >= g.Heads {
			c.Head = 0
			c.Cylinder++
			if c.Cylinder >= g.Cylinders {
				c.Cylinder = 0
			}
		}
	}
	return c
}

// AdvanceSector steps only the sector number, wrapping back to 1 without
// touching head or cylinder. Format Track uses this to step through a
// track's sector gaps without rolling over onto the next head.
func AdvanceSector(g Geometry, c CHS) CHS {
	c.Sector++
	if c.Sector > g.Sectors {
		c.Sector = 1
	}
	return c
}
