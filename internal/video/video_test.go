package video

import "testing"

func TestCRTCRegisterWidths(t *testing.T) {
	cases := []struct {
		index byte
		write byte
		want  byte
	}{
		{RegHorizontalTotal, 0xFF, 0xFF},
		{RegVerticalTotal, 0xFF, 0x7F},
		{RegVTotalAdjust, 0xFF, 0x1F},
		{RegVerticalDisplayed, 0xFF, 0x7F},
		{RegVSyncPosition, 0xFF, 0x7F},
		{RegInterlaceMode, 0xFF, 0x03},
		{RegMaxScanline, 0xFF, 0x1F},
		{RegCursorStart, 0xFF, 0x7F},
		{RegCursorEnd, 0xFF, 0x1F},
	}
	var c CRTC
	for _, tc := range cases {
		c.WriteIndex(tc.index)
		c.WriteData(tc.write)
	}
	got := []byte{
		c.HTotal, c.VTotal, c.VTotalAdjust, c.VDisp, c.VSyncPos,
		c.InterlaceMode, c.MaxScanline, c.CursorStart, c.CursorEnd,
	}
	for i, tc := range cases {
		if got[i] != tc.want {
			t.Errorf("register %#x = %#x, want %#x", tc.index, got[i], tc.want)
		}
	}
}

func TestCRTCCursorAddressReadBack(t *testing.T) {
	var c CRTC
	c.WriteIndex(RegCursorHi)
	c.WriteData(0xFF) // high byte masked to 6 bits
	c.WriteIndex(RegCursorLo)
	c.WriteData(0x34)

	if c.CursorAddress != 0x3F34 {
		t.Fatalf("CursorAddress = %#x, want 0x3F34", c.CursorAddress)
	}

	c.WriteIndex(RegCursorHi)
	if got := c.ReadData(); got != 0x3F {
		t.Errorf("cursor hi read = %#x, want 0x3F", got)
	}
	c.WriteIndex(RegCursorLo)
	if got := c.ReadData(); got != 0x34 {
		t.Errorf("cursor lo read = %#x, want 0x34", got)
	}

	// timing registers are write-only
	c.WriteIndex(RegHorizontalTotal)
	c.WriteData(0x61)
	if got := c.ReadData(); got != 0 {
		t.Errorf("write-only register read = %#x, want 0", got)
	}
}

func TestCursorBlinkModeDecoding(t *testing.T) {
	cases := []struct {
		start byte
		want  CursorBlink
	}{
		{0x0B, CursorSolid},
		{0x2B, CursorDisabled},
		{0x4B, CursorBlinkFast},
		{0x6B, CursorBlinkSlow},
	}
	var c CRTC
	for _, tc := range cases {
		c.WriteIndex(RegCursorStart)
		c.WriteData(tc.start)
		if got := c.CursorBlinkMode(); got != tc.want {
			t.Errorf("CursorBlinkMode(%#x) = %v, want %v", tc.start, got, tc.want)
		}
	}
}

func TestStatusReadTogglesRetraceBits(t *testing.T) {
	m := NewMDA()
	first := m.ReadIO(0xA)
	second := m.ReadIO(0xA)
	if first&(MDAStatusHRetrace|MDAStatusVRetrace) == second&(MDAStatusHRetrace|MDAStatusVRetrace) {
		t.Error("MDA retrace bits did not toggle between reads")
	}

	c := NewCGA()
	first = c.ReadIO(0xA)
	second = c.ReadIO(0xA)
	if first&(CGAStatusHRetrace|CGAStatusVRetrace) == second&(CGAStatusHRetrace|CGAStatusVRetrace) {
		t.Error("CGA retrace bits did not toggle between reads")
	}
}

func TestCGAModeGeometry(t *testing.T) {
	c := NewCGA()

	c.WriteIO(0x8, CGAModeTextResHi)
	if c.Columns != 80 || c.Width != 640 || c.Height != 200 {
		t.Errorf("hi-res text geometry = %dx%d cols=%d", c.Width, c.Height, c.Columns)
	}

	c.WriteIO(0x8, CGAModeGraphics|CGAModeGraphicsResHi)
	if c.Columns != 0 || c.Width != 640 || c.Height != 200 {
		t.Errorf("hi-res graphics geometry = %dx%d cols=%d", c.Width, c.Height, c.Columns)
	}

	c.WriteIO(0x8, CGAModeGraphics)
	if c.Width != 320 || c.Height != 200 {
		t.Errorf("lo-res graphics geometry = %dx%d", c.Width, c.Height)
	}
}

func TestCRTCIndexSharedThroughEvenOddMirrors(t *testing.T) {
	c := NewCGA()
	c.WriteIO(0x4, RegHorizontalDisplayed) // index via a mirror
	c.WriteIO(0x5, 40)                     // data via a mirror
	if c.CRTC.HDisp != 40 {
		t.Errorf("HDisp = %d, want 40", c.CRTC.HDisp)
	}
}

func TestBlinkCounterWraps(t *testing.T) {
	m := NewMDA()
	for i := 0; i < 32; i++ {
		m.Tick()
	}
	if m.Blink != 0 {
		t.Errorf("Blink = %d after 32 ticks, want 0", m.Blink)
	}

	// 4 CPU cycles produce 5 MDA ticks
	m.Update(4)
	if m.Blink != 5 {
		t.Errorf("Blink = %d after Update(4), want 5", m.Blink)
	}

	c := NewCGA()
	// 1 CPU cycle produces 3 CGA ticks
	c.Update(1)
	if c.Blink != 3 {
		t.Errorf("Blink = %d after Update(1), want 3", c.Blink)
	}
}
