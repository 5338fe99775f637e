/*
 * pcemu - Floppy disk drive media
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

// Package floppy models the NEC uPD765 floppy disk controller and the
// removable media it drives.
package floppy

import (
	"errors"

	"github.com/tjarmytage/pcemu/internal/chs"
)

// SectorSize is the fixed sector size this controller understands.
const SectorSize = 512

// NumDrives is the number of drives the controller can select between.
const NumDrives = 4

// sizedGeometry maps a whole-image byte size to the drive geometry it
// implies.
type sizedGeometry struct {
	size     int
	geometry chs.Geometry
}

// Geometries is the fixed size-to-geometry table for media detection:
// 160K, 180K, 320K, 360K, 720K, 1.2M, 1.44M, 2.88M.
var Geometries = []sizedGeometry{
	{size: 160 * 1024, geometry: chs.Geometry{Cylinders: 40, Heads: 1, Sectors: 8}},
	{size: 180 * 1024, geometry: chs.Geometry{Cylinders: 40, Heads: 1, Sectors: 9}},
	{size: 320 * 1024, geometry: chs.Geometry{Cylinders: 40, Heads: 2, Sectors: 8}},
	{size: 360 * 1024, geometry: chs.Geometry{Cylinders: 40, Heads: 2, Sectors: 9}},
	{size: 720 * 1024, geometry: chs.Geometry{Cylinders: 80, Heads: 2, Sectors: 9}},
	{size: 1200 * 1024, geometry: chs.Geometry{Cylinders: 80, Heads: 2, Sectors: 15}},
	{size: 1440 * 1024, geometry: chs.Geometry{Cylinders: 80, Heads: 2, Sectors: 18}},
	{size: 2880 * 1024, geometry: chs.Geometry{Cylinders: 80, Heads: 2, Sectors: 36}},
}

// ErrUnknownSize is returned by Insert when an image's byte size matches
// none of the known floppy geometries.
var ErrUnknownSize = errors.New("floppy: image size matches no known geometry")

// LookupGeometry returns the geometry implied by an image of the given
// byte size.
func LookupGeometry(size int) (chs.Geometry, bool) {
	for _, g := range Geometries {
		if g.size == size {
			return g.geometry, true
		}
	}
	return chs.Geometry{}, false
}

// Drive is one floppy drive: its media (if any) and mechanical status.
type Drive struct {
	Geometry     chs.Geometry
	Inserted     bool
	Ready        bool
	MotorOn      bool
	WriteProtect bool
	Dirty        bool
	Path         string

	buffer []byte
}

// NewBlank returns a zero-filled backing buffer sized to g, for creating a
// fresh disk image before Insert.
func NewBlank(g chs.Geometry) []byte {
	return make([]byte, g.TotalBytes(SectorSize))
}

// Insert mounts data as this drive's media, deriving geometry from its
// size. An unrecognized size leaves the drive empty and returns
// ErrUnknownSize.
func (d *Drive) Insert(path string, data []byte, writeProtect bool) error {
	g, ok := LookupGeometry(len(data))
	if !ok {
		return ErrUnknownSize
	}
	d.Geometry = g
	d.buffer = data
	d.Path = path
	d.WriteProtect = writeProtect
	d.Inserted = true
	d.Dirty = false
	d.updateReady()
	return nil
}

// Eject removes the drive's media.
func (d *Drive) Eject() {
	d.Inserted = false
	d.Ready = false
	d.buffer = nil
	d.Path = ""
	d.Dirty = false
}

// Buffer returns the drive's backing buffer, or nil if empty.
func (d *Drive) Buffer() []byte {
	return d.buffer
}

// SetMotor turns the drive motor on or off, recomputing Ready.
func (d *Drive) SetMotor(on bool) {
	d.MotorOn = on
	d.updateReady()
}

func (d *Drive) updateReady() {
	d.Ready = d.Inserted && d.MotorOn
}

// ReadByte returns the byte at offset off, or 0xFF if off is out of range
// or no disk is inserted.
func (d *Drive) ReadByte(off int64) byte {
	if !d.Inserted || off < 0 || off >= int64(len(d.buffer)) {
		return 0xFF
	}
	return d.buffer[off]
}

// WriteByte stores value at offset off, dropped silently if off is out of
// range or no disk is inserted.
func (d *Drive) WriteByte(off int64, value byte) {
	if !d.Inserted || off < 0 || off >= int64(len(d.buffer)) {
		return
	}
	d.buffer[off] = value
	d.Dirty = true
}
