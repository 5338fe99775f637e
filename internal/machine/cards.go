/*
 * pcemu - ISA card adapters
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

import (
	"github.com/tjarmytage/pcemu/internal/config"
	"github.com/tjarmytage/pcemu/internal/isabus"
	"github.com/tjarmytage/pcemu/internal/video"
)

// portDevice is the chipset-style port surface: offset-relative access
// with no claimed-port signal.
type portDevice interface {
	ReadIO(port uint16) byte
	WriteIO(port uint16, value byte)
}

// ioWindow adapts a portDevice to the bus's claimed-port contract over a
// contiguous port range.
type ioWindow struct {
	base, size uint16
	dev        portDevice
}

func (w ioWindow) ReadIO(port uint16) (byte, bool) {
	if port < w.base || port >= w.base+w.size {
		return 0, false
	}
	return w.dev.ReadIO(port - w.base), true
}

func (w ioWindow) WriteIO(port uint16, value byte) bool {
	if port < w.base || port >= w.base+w.size {
		return false
	}
	w.dev.WriteIO(port-w.base, value)
	return true
}

// addCards installs the expansion cards the configuration asks for: the
// video adapter (with its memory-mapped buffer), the floppy controller,
// and the hard disk controller. The disk controllers' data-phase ticks run
// from the machine loop rather than bus update hooks, so DMA always ticks
// ahead of them.
func (m *Machine) addCards() {
	switch m.Config.VideoAdapter {
	case config.VideoMDA:
		m.MDA = video.NewMDA()
		region := m.Mem.AddRegion(video.MDAMemBase, video.MDAMemWindow, video.MDAAddressMask, true)
		m.Bus.AddCard(isabus.Card{
			Name:      "MDA",
			IO:        ioWindow{base: video.MDAIOBase, size: 0xB, dev: m.MDA},
			Reset:     m.MDA.Reset,
			Update:    m.MDA.Update,
			RegionIdx: region,
			HasRegion: true,
		})
	case config.VideoCGA40, config.VideoCGA80:
		m.CGA = video.NewCGA()
		region := m.Mem.AddRegion(video.CGAMemBase, video.CGAMemWindow, video.CGAAddressMask, true)
		m.Bus.AddCard(isabus.Card{
			Name:      "CGA",
			IO:        ioWindow{base: video.CGAIOBase, size: 0xB, dev: m.CGA},
			Reset:     m.CGA.Reset,
			Update:    m.CGA.Update,
			RegionIdx: region,
			HasRegion: true,
		})
	}

	m.Bus.AddCard(isabus.Card{
		Name: "FDC",
		IO:   ioWindow{base: fdcBase, size: 0x8, dev: m.FDC},
	})

	m.Bus.AddCard(isabus.Card{
		Name:  "HDC",
		IO:    ioWindow{base: hdcBase, size: 0x4, dev: m.HDC},
		Reset: m.HDC.Reset,
	})
}
