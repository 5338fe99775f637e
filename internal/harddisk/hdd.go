/*
 * pcemu - Xebec hard disk drive media
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

// Package harddisk models the Xebec hard-disk controller of the PC/XT and
// the fixed drives behind it. Backing buffers are either raw sector
// streams or fixed VHD images (raw data plus a trailing 512-byte footer).
package harddisk

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tjarmytage/pcemu/internal/chs"
	"github.com/tjarmytage/pcemu/internal/vhd"
)

// SectorSize is fixed at 512 bytes for every supported drive type.
const SectorSize = 512

// NumDrives is the number of drives one controller addresses.
const NumDrives = 2

// DriveType identifies one of the fixed Xebec geometry table entries.
type DriveType int

const (
	TypeNone DriveType = iota
	Type1              // 10MB, 306 4 17
	Type16             // 20MB, 612 4 17
	Type2              // 20MB, 615 4 17
	Type13             // 20MB, 306 8 17
)

// FileType tells how a drive's backing buffer is containerized.
type FileType int

const (
	FileNone FileType = iota
	FileVHD
	FileRaw
)

type geometryEntry struct {
	geom chs.Geometry
	typ  DriveType
	name string
}

// geometryTable is the fixed set of drive shapes the controller's DIP
// switches can describe. Entry 0 is the "no drive" placeholder.
var geometryTable = []geometryEntry{
	{chs.Geometry{}, TypeNone, "None"},
	{chs.Geometry{Cylinders: 306, Heads: 4, Sectors: 17}, Type1, "10MB Type 1 (306 4 17)"},
	{chs.Geometry{Cylinders: 612, Heads: 4, Sectors: 17}, Type16, "20MB Type 16 (612 4 17)"},
	{chs.Geometry{Cylinders: 615, Heads: 4, Sectors: 17}, Type2, "20MB Type 2 (615 4 17)"},
	{chs.Geometry{Cylinders: 306, Heads: 8, Sectors: 17}, Type13, "20MB Type 13 (306 8 17)"},
}

// GeometryForType returns the table geometry for a drive type.
func GeometryForType(t DriveType) (chs.Geometry, bool) {
	for _, e := range geometryTable[1:] {
		if e.typ == t {
			return e.geom, true
		}
	}
	return chs.Geometry{}, false
}

var (
	ErrInserted     = errors.New("harddisk: drive already has media inserted")
	ErrInvalidVHD   = errors.New("harddisk: VHD footer failed validation")
	ErrUnknownShape = errors.New("harddisk: geometry matches no Xebec drive type")
	ErrUnknownType  = errors.New("harddisk: unrecognized image file type")
)

// Drive is one fixed disk: a backing buffer plus the geometry the
// controller addresses it with.
type Drive struct {
	Path     string
	Geometry chs.Geometry
	Type     DriveType
	File     FileType
	Inserted bool
	Dirty    bool

	// Overrides pin a raw image to a geometry its size alone can't
	// determine; both are consulted by Insert before the size heuristic.
	OverrideGeometry chs.Geometry
	OverrideType     DriveType

	buffer   []byte
	dataSize int64 // sector data length, excluding any VHD footer
}

// FileTypeForPath maps a file extension to a container type.
func FileTypeForPath(path string) FileType {
	i := strings.LastIndexByte(path, '.')
	if i < 0 {
		return FileNone
	}
	switch strings.ToLower(path[i+1:]) {
	case "vhd":
		return FileVHD
	case "raw", "img":
		return FileRaw
	default:
		return FileNone
	}
}

// NewBlank returns a zeroed backing buffer for geometry g in the given
// container format.
func NewBlank(g chs.Geometry, ft FileType) []byte {
	if ft == FileVHD {
		return vhd.Create(g)
	}
	return make([]byte, g.TotalBytes(SectorSize))
}

// SetGeometryOverride pins a raw image's shape for the next Insert.
func (d *Drive) SetGeometryOverride(g chs.Geometry, t DriveType) {
	d.OverrideGeometry = g
	d.OverrideType = t
}

// Insert attaches a backing buffer to the drive. VHD images are validated
// and their footer geometry must match a table entry exactly; raw images
// resolve through the override geometry, then the override type, then a
// unique table match on size. An ambiguous or unknown shape leaves the
// drive empty.
func (d *Drive) Insert(path string, data []byte) error {
	if d.Inserted {
		return ErrInserted
	}

	ft := FileTypeForPath(path)
	var g chs.Geometry
	switch ft {
	case FileVHD:
		if !vhd.Verify(data) {
			return ErrInvalidVHD
		}
		g = vhd.Parse(vhd.FooterOf(data)).Geometry
		d.dataSize = g.TotalBytes(SectorSize)
	case FileRaw:
		d.dataSize = int64(len(data))
	default:
		return ErrUnknownType
	}

	entry, err := d.resolveGeometry(ft, g)
	if err != nil {
		d.dataSize = 0
		return err
	}

	d.Path = path
	d.buffer = data
	d.Geometry = entry.geom
	d.Type = entry.typ
	d.File = ft
	d.Inserted = true
	d.Dirty = false
	return nil
}

func (d *Drive) resolveGeometry(ft FileType, vhdGeom chs.Geometry) (geometryEntry, error) {
	switch ft {
	case FileVHD:
		for _, e := range geometryTable[1:] {
			if e.geom == vhdGeom {
				return e, nil
			}
		}
		return geometryEntry{}, fmt.Errorf("%w: C=%d H=%d S=%d", ErrUnknownShape,
			vhdGeom.Cylinders, vhdGeom.Heads, vhdGeom.Sectors)

	case FileRaw:
		if d.OverrideGeometry.TotalSectors() > 0 {
			for _, e := range geometryTable[1:] {
				if e.geom == d.OverrideGeometry {
					return e, nil
				}
			}
			return geometryEntry{}, ErrUnknownShape
		}
		if d.OverrideType != TypeNone {
			for _, e := range geometryTable[1:] {
				if e.typ == d.OverrideType {
					return e, nil
				}
			}
			return geometryEntry{}, ErrUnknownShape
		}
		var match geometryEntry
		matches := 0
		for _, e := range geometryTable[1:] {
			if e.geom.TotalBytes(SectorSize) == d.dataSize {
				match = e
				matches++
			}
		}
		switch matches {
		case 1:
			return match, nil
		case 0:
			return geometryEntry{}, ErrUnknownShape
		default:
			return geometryEntry{}, fmt.Errorf("%w: ambiguous raw image size %d", ErrUnknownShape, d.dataSize)
		}
	}
	return geometryEntry{}, ErrUnknownType
}

// Eject detaches the media, keeping path and overrides so the same image
// can be reinserted.
func (d *Drive) Eject() {
	d.buffer = nil
	d.dataSize = 0
	d.Inserted = false
	d.Dirty = false
	d.Geometry = chs.Geometry{}
	d.Type = TypeNone
	d.File = FileNone
}

// Buffer exposes the full backing buffer (including any VHD footer) for
// saving back to disk.
func (d *Drive) Buffer() []byte {
	return d.buffer
}

// ReadByte returns the byte at offset into the sector data; out-of-bounds
// reads return 0xFF.
func (d *Drive) ReadByte(off int64) byte {
	if !d.Inserted || off < 0 || off >= d.dataSize {
		return 0xFF
	}
	return d.buffer[off]
}

// WriteByte stores a byte at offset into the sector data; out-of-bounds
// writes are dropped.
func (d *Drive) WriteByte(off int64, value byte) {
	if !d.Inserted || off < 0 || off >= d.dataSize {
		return
	}
	d.Dirty = true
	d.buffer[off] = value
}
