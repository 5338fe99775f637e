package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/tjarmytage/pcemu/internal/chs"
)

func TestParseNumberBases(t *testing.T) {
	cases := []struct {
		in   string
		want uint32
	}{
		{"64", 64},
		{"0x3F0", 0x3F0},
		{"xFE000", 0xFE000},
		{"0b1010", 10},
		{"b11", 3},
	}
	for _, tc := range cases {
		got, err := ParseNumber(tc.in)
		if err != nil {
			t.Errorf("ParseNumber(%q): %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ParseNumber(%q) = %d, want %d", tc.in, got, tc.want)
		}
	}
	if _, err := ParseNumber("zz"); err == nil {
		t.Error("ParseNumber(\"zz\") should fail")
	}
}

func TestNormalizeRAM(t *testing.T) {
	cases := []struct {
		in   uint32
		want uint32
		ok   bool
	}{
		{16, 16 * 1024, true},
		{64, 64 * 1024, true},
		{96, 96 * 1024, true},
		{736, 736 * 1024, true},
		{640 * 1024, 640 * 1024, true},
		{80, 0, false}, // steps by 32 above 64
		{737, 0, false},
	}
	for _, tc := range cases {
		got, err := NormalizeRAM(tc.in)
		if (err == nil) != tc.ok {
			t.Errorf("NormalizeRAM(%d) err = %v, want ok=%v", tc.in, err, tc.ok)
			continue
		}
		if tc.ok && got != tc.want {
			t.Errorf("NormalizeRAM(%d) = %d, want %d", tc.in, got, tc.want)
		}
	}
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestParseCLIOrderedROMsAndDisks(t *testing.T) {
	dir := t.TempDir()
	romA := filepath.Join(dir, "basic.rom")
	romB := filepath.Join(dir, "bios.rom")
	os.WriteFile(romA, make([]byte, 0x2000), 0o644)
	os.WriteFile(romB, make([]byte, 0x2000), 0o644)

	cfg := Default()
	exit := ParseCLI([]string{
		"-o", "0xF6000", romA, romB,
		"-dwp", "A:", "dos.img",
		"B:", "data.img",
		"-v", "CGA40", "-r", "256", "-model", "5150_64_256", "-ds", "2", "-dbg",
	}, cfg, quietLogger())

	if exit {
		t.Fatal("ParseCLI asked to exit")
	}
	if len(cfg.ROMs) != 2 {
		t.Fatalf("ROMs = %d, want 2", len(cfg.ROMs))
	}
	if cfg.ROMs[0].Address != 0xF6000 {
		t.Errorf("ROM[0].Address = %#x, want 0xF6000", cfg.ROMs[0].Address)
	}
	if cfg.ROMs[1].Address != 0xF8000 {
		t.Errorf("ROM[1].Address = %#x, want 0xF8000 (offset advanced by file size)", cfg.ROMs[1].Address)
	}
	if len(cfg.Disks) != 2 {
		t.Fatalf("Disks = %d, want 2", len(cfg.Disks))
	}
	if !cfg.Disks[0].WriteProtect || cfg.Disks[0].Drive != 0 {
		t.Errorf("Disks[0] = %+v, want drive 0 write-protected", cfg.Disks[0])
	}
	if cfg.Disks[1].WriteProtect || cfg.Disks[1].Drive != 1 {
		t.Errorf("Disks[1] = %+v, want drive 1 unprotected", cfg.Disks[1])
	}
	if cfg.VideoAdapter != VideoCGA40 {
		t.Errorf("VideoAdapter = %v, want CGA40", cfg.VideoAdapter)
	}
	if cfg.ConventionalRAM != 256*1024 {
		t.Errorf("ConventionalRAM = %d, want 256K", cfg.ConventionalRAM)
	}
	if cfg.Model != Model5150_64_256 {
		t.Errorf("Model = %v, want 5150_64_256", cfg.Model)
	}
	if cfg.FloppyCount != 2 || !cfg.DebugUI {
		t.Errorf("FloppyCount=%d DebugUI=%v", cfg.FloppyCount, cfg.DebugUI)
	}
}

func TestParseCLISwitchesInverted(t *testing.T) {
	cfg := Default()
	ParseCLI([]string{"-sw1", "0b00110000"}, cfg, quietLogger())
	if !cfg.SW1Provided {
		t.Fatal("SW1Provided not set")
	}
	if cfg.SW1 != ^byte(0x30) {
		t.Errorf("SW1 = %#x, want %#x (stored inverted)", cfg.SW1, ^byte(0x30))
	}
}

func TestConfigFileFromArgs(t *testing.T) {
	if got := ConfigFileFromArgs([]string{"rom.bin", "-c", "my.ini", "-dbg"}); got != "my.ini" {
		t.Errorf("ConfigFileFromArgs = %q, want my.ini", got)
	}
	if got := ConfigFileFromArgs([]string{"rom.bin"}); got != "" {
		t.Errorf("ConfigFileFromArgs = %q, want empty", got)
	}
}

func TestLoadFileFullGrammar(t *testing.T) {
	dir := t.TempDir()
	ini := filepath.Join(dir, "pcemu.ini")
	content := `
; comment line
// another comment
dbg_ui = 1
model = 5150_64_256
video_adapter = CGA80  ; trailing comment
conventional_ram = 0x40
num_floppies = 2
sw1 = 0b01000100
rom = [ path = "bios.rom", address = 0xFE000 ]
rom = [ path = basic.rom, address = 0xF6000 ]
disk = [ path = 'dos 3.3.img', drive = A, write_protect = 1 ]
hdd = [ path = hd.vhd, drive = 0, geometry = [ c = 306, h = 4, s = 17 ], type = Type1 ]
display_view_mode = Full
mda_font = "Bm437_IBM_MDA.FON"
delay_display_disable_time = 150
`
	if err := os.WriteFile(ini, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := Default()
	if err := LoadFile(ini, cfg, quietLogger()); err != nil {
		t.Fatalf("LoadFile: %v", err)
	}

	if !cfg.DebugUI || cfg.Model != Model5150_64_256 || cfg.VideoAdapter != VideoCGA80 {
		t.Errorf("scalars wrong: %+v", cfg)
	}
	if cfg.ConventionalRAM != 64*1024 {
		t.Errorf("ConventionalRAM = %d, want 64K", cfg.ConventionalRAM)
	}
	if cfg.SW1 != 0x44 {
		t.Errorf("SW1 = %#x, want 0x44 (file values are not inverted)", cfg.SW1)
	}
	if len(cfg.ROMs) != 2 || cfg.ROMs[0].Path != "bios.rom" || cfg.ROMs[0].Address != 0xFE000 {
		t.Errorf("ROMs = %+v", cfg.ROMs)
	}
	if len(cfg.Disks) != 1 || cfg.Disks[0].Path != "dos 3.3.img" || cfg.Disks[0].Drive != 0 || !cfg.Disks[0].WriteProtect {
		t.Errorf("Disks = %+v", cfg.Disks)
	}
	wantGeom := chs.Geometry{Cylinders: 306, Heads: 4, Sectors: 17}
	if len(cfg.HDDs) != 1 || cfg.HDDs[0].Geometry != wantGeom || cfg.HDDs[0].Type != HDDType1 {
		t.Errorf("HDDs = %+v", cfg.HDDs)
	}
	if cfg.Display.DisplayViewMode != ViewFull {
		t.Errorf("DisplayViewMode = %v, want Full", cfg.Display.DisplayViewMode)
	}
	if cfg.Display.DelayDisplayDisableTime != 150 {
		t.Errorf("DelayDisplayDisableTime = %d, want 150", cfg.Display.DelayDisplayDisableTime)
	}
}

func TestLoadFileToleratesBadLines(t *testing.T) {
	dir := t.TempDir()
	ini := filepath.Join(dir, "bad.ini")
	content := `
no_such_key = 1
model 5160
conventional_ram = 999
model = 5160
`
	if err := os.WriteFile(ini, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg := Default()
	if err := LoadFile(ini, cfg, quietLogger()); err != nil {
		t.Fatalf("LoadFile should tolerate bad lines, got %v", err)
	}
	if cfg.Model != Model5160 {
		t.Error("valid line after bad lines not applied")
	}
	if cfg.ConventionalRAM != 16*1024 {
		t.Error("invalid RAM value should leave the default in place")
	}
}
