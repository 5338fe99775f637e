package vhd

import (
	"testing"

	"github.com/tjarmytage/pcemu/internal/chs"
)

func TestCreateVerifyRoundTrip(t *testing.T) {
	g := chs.Geometry{Cylinders: 306, Heads: 4, Sectors: 17}
	buf := Create(g)

	wantLen := 306*4*17*512 + 512
	if len(buf) != wantLen {
		t.Fatalf("len(buf) = %d, want %d", len(buf), wantLen)
	}

	if !Verify(buf) {
		t.Fatalf("Verify() = false, want true for freshly created footer")
	}

	got := Parse(FooterOf(buf)).Geometry
	if got != g {
		t.Errorf("Parse(buf).Geometry = %+v, want %+v", got, g)
	}
}

func TestVerifyRejectsCorruption(t *testing.T) {
	g := chs.Geometry{Cylinders: 40, Heads: 2, Sectors: 9}
	buf := Create(g)
	footer := buf[len(buf)-footerSize:]

	for i := range footer {
		if i >= offChecksum && i < offChecksum+4 {
			continue // checksum bytes are excluded from the sum by design
		}
		corrupt := make([]byte, len(buf))
		copy(corrupt, buf)
		cf := corrupt[len(corrupt)-footerSize:]
		cf[i] ^= 0xFF
		if Verify(corrupt) {
			t.Fatalf("Verify() = true after corrupting byte %d, want false", i)
		}
	}
}

func TestVerifyRejectsWrongLength(t *testing.T) {
	if Verify([]byte{1, 2, 3}) {
		t.Errorf("Verify() = true for short buffer, want false")
	}
}
