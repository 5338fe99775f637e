package isabus

import "testing"

type stubIO struct {
	port   uint16
	value  byte
	reads  int
	writes int
}

func (s *stubIO) ReadIO(port uint16) (byte, bool) {
	if port != s.port {
		return 0, false
	}
	s.reads++
	return s.value, true
}

func (s *stubIO) WriteIO(port uint16, value byte) bool {
	if port != s.port {
		return false
	}
	s.writes++
	s.value = value
	return true
}

func TestFirstHandlerWins(t *testing.T) {
	b := New(nil)
	first := &stubIO{port: 0x60, value: 0x11}
	second := &stubIO{port: 0x60, value: 0x22}
	b.AddCard(Card{Name: "first", IO: first})
	b.AddCard(Card{Name: "second", IO: second})

	if got := b.ReadIO(0x60); got != 0x11 {
		t.Errorf("ReadIO(0x60) = %#x, want 0x11 from first-registered handler", got)
	}
	if second.reads != 0 {
		t.Errorf("second handler should not have been consulted, reads = %d", second.reads)
	}
}

func TestUnclaimedPortReadsFF(t *testing.T) {
	b := New(nil)
	if got := b.ReadIO(0x200); got != 0xFF {
		t.Errorf("ReadIO(unclaimed) = %#x, want 0xFF", got)
	}
}

func TestDisabledCardNotConsulted(t *testing.T) {
	b := New(nil)
	io := &stubIO{port: 0x3F8, value: 0x42}
	idx := b.AddCard(Card{Name: "uart", IO: io})
	b.DisableCard(idx)
	if got := b.ReadIO(0x3F8); got != 0xFF {
		t.Errorf("ReadIO from disabled card = %#x, want 0xFF", got)
	}
	b.EnableCard(idx)
	if got := b.ReadIO(0x3F8); got != 0x42 {
		t.Errorf("ReadIO after re-enable = %#x, want 0x42", got)
	}
}

func TestResetAndUpdateHooks(t *testing.T) {
	b := New(nil)
	resetCount := 0
	lastCycles := 0
	b.AddCard(Card{
		Name:   "timer",
		Reset:  func() { resetCount++ },
		Update: func(cycles int) { lastCycles = cycles },
	})
	b.Reset()
	b.Update(42)
	if resetCount != 1 {
		t.Errorf("resetCount = %d, want 1", resetCount)
	}
	if lastCycles != 42 {
		t.Errorf("lastCycles = %d, want 42", lastCycles)
	}
}
