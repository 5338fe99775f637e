/*
 * pcemu - Motherboard DIP switch images
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

package machine

import "github.com/tjarmytage/pcemu/internal/config"

// planarRAMSwitch encodes planar RAM size into SW1 bits 2-3. The BIOS
// recovers the size by isolating those bits, adding 4, and shifting by the
// board's bank granularity (4K on the 16-64 board, 16K on later boards).
func planarRAMSwitch(model config.Model, planar uint32) byte {
	var sw byte
	switch model {
	case config.Model5150_16_64:
		sw = byte(planar >> 12)
	case config.Model5150_64_256, config.Model5160:
		sw = byte(planar >> 14)
	}
	sw -= 4
	return sw & sw1RAMMask
}

// ioRAMSwitch encodes I/O channel RAM into SW2's five low bits, in 32 KiB
// blocks. Later boards count planar RAM beyond the first 64 KiB as I/O
// channel blocks.
func ioRAMSwitch(model config.Model, planar, ioRAM uint32) byte {
	switch model {
	case config.Model5150_16_64:
		return byte(ioRAM/1024/32) & 0x1F
	case config.Model5150_64_256, config.Model5160:
		if planar >= 64*1024 {
			planar -= 64 * 1024
		}
		return byte((ioRAM+planar)/1024/32) & 0x1F
	}
	return 0
}

// displaySwitch encodes the installed adapter into SW1 bits 4-5.
func displaySwitch(adapter config.VideoAdapter) byte {
	switch adapter {
	case config.VideoMDA:
		return 0x30
	case config.VideoCGA80:
		return 0x20
	case config.VideoCGA40:
		return 0x10
	}
	return 0x00
}

// setSwitches computes the SW1/SW2 images from the configuration unless
// explicit overrides were supplied.
func (m *Machine) setSwitches() {
	cfg := m.Config

	if cfg.SW1Provided {
		m.sw1 = cfg.SW1
	} else {
		sw1 := planarRAMSwitch(cfg.Model, m.baseMemory)
		sw1 |= displaySwitch(cfg.VideoAdapter) & sw1DisplayMask
		if cfg.FloppyCount > 0 {
			sw1 |= sw1HasFDC
			if cfg.FloppyCount <= 4 {
				sw1 |= byte(cfg.FloppyCount-1) << 6 & sw1DisksMask
			}
		}
		m.sw1 = sw1
	}

	if cfg.SW2Provided {
		m.sw2 = cfg.SW2
	} else {
		m.sw2 = ioRAMSwitch(cfg.Model, m.baseMemory, m.extMemory)
	}
}

// Switches returns the SW1/SW2 images the PPI surfaces to the BIOS.
func (m *Machine) Switches() (sw1, sw2 byte) {
	return m.sw1, m.sw2
}
