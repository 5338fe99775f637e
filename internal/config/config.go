/*
 * pcemu - Emulator configuration
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

// Package config holds the machine configuration and the two surfaces that
// fill it in: the INI file and the command line. The command line is read
// first for the config-file path, the INI file applies next, and the rest
// of the command line finalizes overrides.
package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/tjarmytage/pcemu/internal/chs"
)

// Model selects the motherboard generation.
type Model int

const (
	Model5150_16_64 Model = iota
	Model5150_64_256
	Model5160
)

// VideoAdapter selects the installed display card.
type VideoAdapter int

const (
	VideoNone VideoAdapter = iota
	VideoMDA
	VideoCGA40
	VideoCGA80
)

// TextureScale, DisplayScale and DisplayView are host display-subsystem
// settings carried through the config file for the frontend. View modes
// are their own enumeration, distinct from the scale modes.
type TextureScale int

const (
	TextureNearest TextureScale = iota
	TextureLinear
)

type DisplayScale int

const (
	ScaleFit DisplayScale = iota
	ScaleStretch
)

type DisplayView int

const (
	ViewCropped DisplayView = iota
	ViewFull
)

// HDDType mirrors the Xebec drive type table.
type HDDType int

const (
	HDDNone HDDType = iota
	HDDType1
	HDDType2
	HDDType13
	HDDType16
)

// Disk describes a floppy image to insert at startup.
type Disk struct {
	Path         string
	Drive        int
	WriteProtect bool
}

// ROM describes a binary image and its load address.
type ROM struct {
	Path    string
	Address uint32
}

// HDD describes a hard-disk image, with optional geometry/type overrides
// for raw images whose size alone is ambiguous.
type HDD struct {
	Path     string
	Drive    int
	Geometry chs.Geometry
	Type     HDDType
}

// Display carries the host display-subsystem settings.
type Display struct {
	TextureScaleMode        TextureScale
	DisplayScaleMode        DisplayScale
	DisplayViewMode         DisplayView
	CorrectAspectRatio      bool
	EmulateMaxScanline      bool
	AllowDisplayDisable     bool
	DelayDisplayDisable     bool
	DelayDisplayDisableTime uint64 // milliseconds
	MDAFont                 string
	CGAFont                 string
}

// Config is the complete machine configuration.
type Config struct {
	ConfigFile string
	DebugUI    bool

	Model           Model
	VideoAdapter    VideoAdapter
	ConventionalRAM uint32 // bytes
	FloppyCount     int

	SW1, SW2                 byte
	SW1Provided, SW2Provided bool

	Disks []Disk
	ROMs  []ROM
	HDDs  []HDD

	Display Display
}

// Default returns the configuration an empty command line and missing INI
// file produce.
func Default() *Config {
	return &Config{
		ConfigFile:      "pcemu.ini",
		Model:           Model5150_16_64,
		VideoAdapter:    VideoMDA,
		ConventionalRAM: 16 * 1024,
		FloppyCount:     2,
		Display: Display{
			TextureScaleMode:        TextureNearest,
			DisplayScaleMode:        ScaleFit,
			DisplayViewMode:         ViewCropped,
			CorrectAspectRatio:      true,
			EmulateMaxScanline:      true,
			AllowDisplayDisable:     true,
			DelayDisplayDisable:     true,
			DelayDisplayDisableTime: 200,
			MDAFont:                 "Bm437_IBM_MDA.FON",
			CGAFont:                 "Bm437_IBM_CGA.FON",
		},
	}
}

// ParseNumber converts a decimal, 0x/x hex, or 0b/b binary string.
func ParseNumber(s string) (uint32, error) {
	base := 10
	switch {
	case strings.HasPrefix(s, "0x"), strings.HasPrefix(s, "0X"):
		s, base = s[2:], 16
	case strings.HasPrefix(s, "x"), strings.HasPrefix(s, "X"):
		s, base = s[1:], 16
	case strings.HasPrefix(s, "0b"), strings.HasPrefix(s, "0B"):
		s, base = s[2:], 2
	case strings.HasPrefix(s, "b"), strings.HasPrefix(s, "B"):
		s, base = s[1:], 2
	}
	v, err := strconv.ParseUint(s, base, 32)
	if err != nil {
		return 0, fmt.Errorf("config: invalid number %q: %w", s, err)
	}
	return uint32(v), nil
}

// ValidRAMSizes lists the accepted conventional-RAM sizes in KiB: 16
// through 64 by 16, then through 736 by 32.
func ValidRAMSizes() []int {
	sizes := []int{}
	for k := 16; k <= 736; {
		sizes = append(sizes, k)
		if k < 64 {
			k += 16
		} else {
			k += 32
		}
	}
	return sizes
}

// NormalizeRAM accepts a size in KiB or bytes and returns it in bytes, or
// an error when the value is not one of the board-supported steps.
func NormalizeRAM(v uint32) (uint32, error) {
	for _, k := range ValidRAMSizes() {
		if int(v) == k || v == uint32(k)*1024 {
			return uint32(k) * 1024, nil
		}
	}
	return 0, fmt.Errorf("config: invalid conventional RAM size %d", v)
}

func parseBool(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "1", "true", "yes", "on":
		return true, nil
	case "0", "false", "no", "off":
		return false, nil
	}
	return false, fmt.Errorf("config: invalid boolean %q", s)
}

// ParseModel maps the symbolic board names.
func ParseModel(s string) (Model, error) {
	switch strings.ToUpper(s) {
	case "5150_16_64":
		return Model5150_16_64, nil
	case "5150_64_256":
		return Model5150_64_256, nil
	case "5160":
		return Model5160, nil
	}
	return 0, fmt.Errorf("config: unknown model %q", s)
}

// ParseVideoAdapter maps the symbolic adapter names. Bare "CGA" means the
// 80-column mode.
func ParseVideoAdapter(s string) (VideoAdapter, error) {
	switch strings.ToUpper(s) {
	case "MDA":
		return VideoMDA, nil
	case "CGA", "CGA80":
		return VideoCGA80, nil
	case "CGA40":
		return VideoCGA40, nil
	case "NONE":
		return VideoNone, nil
	}
	return VideoNone, fmt.Errorf("config: unknown video adapter %q (expected MDA, CGA, CGA40, CGA80, NONE)", s)
}

func parseHDDType(s string) (HDDType, error) {
	switch strings.ToLower(s) {
	case "none":
		return HDDNone, nil
	case "type1":
		return HDDType1, nil
	case "type2":
		return HDDType2, nil
	case "type13":
		return HDDType13, nil
	case "type16":
		return HDDType16, nil
	}
	return HDDNone, fmt.Errorf("config: unknown hdd type %q", s)
}

// DriveNumber converts a drive letter A-D (either case) to its index.
func DriveNumber(letter byte) (int, error) {
	switch {
	case letter >= 'A' && letter <= 'D':
		return int(letter - 'A'), nil
	case letter >= 'a' && letter <= 'd':
		return int(letter - 'a'), nil
	}
	return 0, errors.New("config: drive must be A, B, C or D")
}
