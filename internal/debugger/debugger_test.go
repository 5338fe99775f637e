package debugger

import (
	"strings"
	"testing"
)

// fakeMachine records the calls the console makes.
type fakeMachine struct {
	halted       bool
	stepped      int
	overs        int
	resumed      int
	breakpoint   uint32
	breakEnabled bool
	mem          map[uint32]byte
}

func (m *fakeMachine) Halt()            { m.halted = true }
func (m *fakeMachine) Resume()          { m.halted = false; m.resumed++ }
func (m *fakeMachine) StepInstruction() { m.stepped++ }
func (m *fakeMachine) StepOver()        { m.overs++ }
func (m *fakeMachine) Halted() bool     { return m.halted }
func (m *fakeMachine) SetBreakpoint(addr uint32) {
	m.breakpoint = addr
	m.breakEnabled = true
}
func (m *fakeMachine) ClearBreakpoint()           { m.breakEnabled = false }
func (m *fakeMachine) Breakpoint() (uint32, bool) { return m.breakpoint, m.breakEnabled }
func (m *fakeMachine) CPUPC() uint32              { return 0xFE05B }
func (m *fakeMachine) ReadMemByte(addr uint32) byte {
	return m.mem[addr]
}

func TestCommandDispatchAndAbbreviation(t *testing.T) {
	m := &fakeMachine{}

	cases := []struct {
		line  string
		check func() bool
	}{
		{"st", func() bool { return m.stepped == 1 }},
		{"step", func() bool { return m.stepped == 2 }},
		{"o", func() bool { return m.overs == 1 }},
		{"c", func() bool { return m.resumed == 1 }},
		{"sto", func() bool { return m.halted }},
		{"break 0xFE000", func() bool { return m.breakEnabled && m.breakpoint == 0xFE000 }},
		{"cl", func() bool { return !m.breakEnabled }},
	}
	for _, tc := range cases {
		quit, err := ProcessCommand(tc.line, m)
		if err != nil {
			t.Fatalf("ProcessCommand(%q): %v", tc.line, err)
		}
		if quit {
			t.Fatalf("ProcessCommand(%q) asked to quit", tc.line)
		}
		if !tc.check() {
			t.Errorf("ProcessCommand(%q) had no effect", tc.line)
		}
	}
}

func TestQuitAndErrors(t *testing.T) {
	m := &fakeMachine{}

	quit, err := ProcessCommand("q", m)
	if !quit || err != nil {
		t.Errorf("quit = %v, err = %v", quit, err)
	}

	if _, err := ProcessCommand("bogus", m); err == nil {
		t.Error("unknown command should error")
	}
	if _, err := ProcessCommand("s", m); err == nil {
		t.Error("ambiguous abbreviation should error")
	}
	if _, err := ProcessCommand("break", m); err == nil {
		t.Error("break without an address should error")
	}
	if quit, err := ProcessCommand("", m); quit || err != nil {
		t.Errorf("empty line: quit=%v err=%v", quit, err)
	}
}

func TestCompleteCmd(t *testing.T) {
	got := CompleteCmd("st")
	want := map[string]bool{"step": true, "stop": true}
	if len(got) != 2 || !want[got[0]] || !want[got[1]] {
		t.Errorf("CompleteCmd(\"st\") = %v, want step and stop", got)
	}
	if got := CompleteCmd("q"); len(got) != 1 || got[0] != "quit" {
		t.Errorf("CompleteCmd(\"q\") = %v", got)
	}
}

func TestDumpMemoryFormat(t *testing.T) {
	m := &fakeMachine{mem: map[uint32]byte{
		0x1000: 'H', 0x1001: 'i', 0x1002: 0x00,
	}}

	out := DumpMemory(m, 0x1000, 3)
	if !strings.HasPrefix(out, "01000 ") {
		t.Errorf("dump row header wrong: %q", out)
	}
	if !strings.Contains(out, "48 69 00") {
		t.Errorf("dump missing hex bytes: %q", out)
	}
	if !strings.Contains(out, "Hi.") {
		t.Errorf("dump missing ASCII column: %q", out)
	}

	// an unaligned start pads the first row
	out = DumpMemory(m, 0x1002, 1)
	if !strings.Contains(out, "00") {
		t.Errorf("unaligned dump wrong: %q", out)
	}
}
