/*
 * pcemu - VHD fixed-disk footer container
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

// Package vhd implements the fixed-disk subset of the Microsoft Virtual Hard
// Disk footer: a 512-byte big-endian trailer appended after raw sector data.
package vhd

import (
	"encoding/binary"

	"github.com/tjarmytage/pcemu/internal/chs"
)

const (
	footerSize = 512
	cookie     = 0x636F6E6563746978 // "conectix"

	featureReserved   = 0x2
	fileFormatVersion = 0x00010000
	dataOffsetFixed   = 0xFFFFFFFFFFFFFFFF
	diskTypeFixed     = 2
)

// Footer mirrors the on-disk VHD footer fields relevant to a fixed disk.
// All fields are stored big-endian.
type Footer struct {
	Cookie            uint64
	Features          uint32
	FileFormatVersion uint32
	DataOffset        uint64
	Timestamp         uint32
	CreatorApp        uint32
	CreatorVersion    uint32
	CreatorHostOS     uint32
	OriginalSize      uint64
	CurrentSize       uint64
	Geometry          chs.Geometry
	DiskType          uint32
	Checksum          uint32
	UniqueID          [16]byte
	SavedState        byte
}

// offsets of the footer fields, matching the C struct layout byte for byte.
const (
	offCookie         = 0
	offFeatures       = 8
	offFileFmtVersion = 12
	offDataOffset     = 16
	offTimestamp      = 24
	offCreatorApp     = 28
	offCreatorVer     = 32
	offCreatorHostOS  = 36
	offOriginalSize   = 40
	offCurrentSize    = 48
	offDiskGeometry   = 56 // cylinders(2) heads(1) sectors(1)
	offDiskType       = 60
	offChecksum       = 64
	offUniqueID       = 68
	offSavedState     = 84
)

// Create builds a full fixed-disk VHD image for the given geometry: zeroed
// sector data sized to the geometry, followed by a 512-byte footer. Verify
// checks only the trailing footer, so the result can be passed to Verify
// directly or the footer can be sliced off with FooterOf.
func Create(g chs.Geometry) []byte {
	total := g.TotalBytes(512)
	buf := make([]byte, total+footerSize)
	footer := buf[total:]

	binary.BigEndian.PutUint64(footer[offCookie:], cookie)
	binary.BigEndian.PutUint32(footer[offFeatures:], featureReserved)
	binary.BigEndian.PutUint32(footer[offFileFmtVersion:], fileFormatVersion)
	binary.BigEndian.PutUint64(footer[offDataOffset:], dataOffsetFixed)

	binary.BigEndian.PutUint64(footer[offOriginalSize:], uint64(total))
	binary.BigEndian.PutUint64(footer[offCurrentSize:], uint64(total))

	binary.BigEndian.PutUint16(footer[offDiskGeometry:], uint16(g.Cylinders))
	footer[offDiskGeometry+2] = byte(g.Heads)
	footer[offDiskGeometry+3] = byte(g.Sectors)

	binary.BigEndian.PutUint32(footer[offDiskType:], diskTypeFixed)

	sum := calculateChecksum(footer)
	binary.BigEndian.PutUint32(footer[offChecksum:], sum)

	return buf
}

// FooterOf returns the trailing 512-byte footer of a full VHD image buffer.
func FooterOf(buf []byte) []byte {
	return buf[len(buf)-footerSize:]
}

// calculateChecksum sums every footer byte except the four checksum bytes
// and returns the bitwise complement of the sum.
func calculateChecksum(buf []byte) uint32 {
	var sum uint32
	for i, b := range buf {
		if i >= offChecksum && i < offChecksum+4 {
			continue
		}
		sum += uint32(b)
	}
	return ^sum
}

// Parse decodes a 512-byte footer buffer into a Footer without validating
// it; use Verify to check consistency.
func Parse(buf []byte) Footer {
	var f Footer
	f.Cookie = binary.BigEndian.Uint64(buf[offCookie:])
	f.Features = binary.BigEndian.Uint32(buf[offFeatures:])
	f.FileFormatVersion = binary.BigEndian.Uint32(buf[offFileFmtVersion:])
	f.DataOffset = binary.BigEndian.Uint64(buf[offDataOffset:])
	f.Timestamp = binary.BigEndian.Uint32(buf[offTimestamp:])
	f.OriginalSize = binary.BigEndian.Uint64(buf[offOriginalSize:])
	f.CurrentSize = binary.BigEndian.Uint64(buf[offCurrentSize:])
	f.Geometry = chs.Geometry{
		Cylinders: int(binary.BigEndian.Uint16(buf[offDiskGeometry:])),
		Heads:     int(buf[offDiskGeometry+2]),
		Sectors:   int(buf[offDiskGeometry+3]),
	}
	f.DiskType = binary.BigEndian.Uint32(buf[offDiskType:])
	f.Checksum = binary.BigEndian.Uint32(buf[offChecksum:])
	f.SavedState = buf[offSavedState]
	return f
}

// Verify checks that buf — either a bare 512-byte footer or a full VHD
// image with a trailing footer — is well-formed: correct checksum, cookie,
// disk type, data offset, and that the embedded geometry matches the
// buffer's declared current size.
func Verify(buf []byte) bool {
	if len(buf) < footerSize {
		return false
	}
	footer := FooterOf(buf)
	want := binary.BigEndian.Uint32(footer[offChecksum:])
	if calculateChecksum(footer) != want {
		return false
	}
	f := Parse(footer)
	if f.Cookie != cookie {
		return false
	}
	if f.DiskType != diskTypeFixed {
		return false
	}
	if f.DataOffset != dataOffsetFixed {
		return false
	}
	total := uint64(f.Geometry.TotalBytes(512))
	return total == f.CurrentSize
}
