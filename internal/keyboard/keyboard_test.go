package keyboard

import "testing"

func TestScancodeDeliveryRaisesIRQ(t *testing.T) {
	kbd := New(nil)
	kbd.Reset()
	kbd.SetEnable(true)

	irqs := 0
	kbd.RequestIRQ = func() { irqs++ }

	kbd.PushScancode(0x1E)
	kbd.Tick()

	if kbd.Data() != 0x1E {
		t.Errorf("data = %#x, want 0x1E", kbd.Data())
	}
	if irqs != 1 {
		t.Errorf("irqs = %d, want 1", irqs)
	}
}

func TestDisabledControllerSurfacesNoScancodes(t *testing.T) {
	kbd := New(nil)
	kbd.Reset()
	kbd.SetEnable(false)

	irqs := 0
	kbd.RequestIRQ = func() { irqs++ }

	kbd.PushScancode(0x1E)
	kbd.Tick()

	if irqs != 0 {
		t.Errorf("disabled controller raised %d irqs, want 0", irqs)
	}
	if kbd.Data() != 0 {
		t.Errorf("data = %#x, want 0", kbd.Data())
	}
}

func TestClockLowLongEnoughTriggersSelfTest(t *testing.T) {
	kbd := New(nil)
	kbd.Reset()

	irqs := 0
	kbd.RequestIRQ = func() { irqs++ }

	kbd.SetClk(false)
	for i := 0; i < ResetLowTicks; i++ {
		kbd.Tick()
	}
	kbd.SetClk(true)
	kbd.Tick()

	if kbd.Data() != SelfTestByte {
		t.Errorf("data = %#x, want self-test byte %#x", kbd.Data(), SelfTestByte)
	}
	if irqs != 1 {
		t.Errorf("irqs = %d, want 1", irqs)
	}
}

func TestShortClockLowDoesNotTriggerSelfTest(t *testing.T) {
	kbd := New(nil)
	kbd.Reset()
	kbd.SetEnable(true)

	irqs := 0
	kbd.RequestIRQ = func() { irqs++ }

	kbd.SetClk(false)
	kbd.SetClk(true)
	kbd.Tick()

	if kbd.Data() == SelfTestByte {
		t.Errorf("short clock-low interval should not trigger a self-test")
	}
	if irqs != 0 {
		t.Errorf("irqs = %d, want 0", irqs)
	}
}

func TestResetClearsPendingScancodes(t *testing.T) {
	kbd := New(nil)
	kbd.Reset()
	kbd.SetEnable(true)
	kbd.PushScancode(0x01)
	kbd.PushScancode(0x02)

	kbd.Reset()
	kbd.SetEnable(true)

	kbd.Tick()
	if kbd.Data() != 0 {
		t.Errorf("data after reset+tick = %#x, want 0 (queue should be empty)", kbd.Data())
	}
}
