package chs

import "testing"

func TestRoundTrip(t *testing.T) {
	geometries := []Geometry{
		{Cylinders: 40, Heads: 2, Sectors: 9},
		{Cylinders: 80, Heads: 2, Sectors: 18},
		{Cylinders: 306, Heads: 4, Sectors: 17},
	}

	for _, g := range geometries {
		total := g.TotalSectors()
		for lba := 0; lba < total; lba++ {
			c := ToCHS(g, lba)
			got := ToLBA(g, c)
			if got != lba {
				t.Fatalf("geometry %+v: ToLBA(ToCHS(%d)) = %d, want %d", g, lba, got, lba)
			}
		}
	}
}

func TestAdvance360K(t *testing.T) {
	g := Geometry{Cylinders: 40, Heads: 2, Sectors: 9}

	tests := []struct {
		start CHS
		want  CHS
	}{
		{CHS{0, 0, 9}, CHS{0, 1, 1}},
		{CHS{0, 1, 9}, CHS{1, 0, 1}},
		{CHS{39, 1, 9}, CHS{0, 0, 1}},
	}

	for _, tt := range tests {
		got := Advance(g, tt.start)
		if got != tt.want {
			t.Errorf("Advance(%+v) = %+v, want %+v", tt.start, got, tt.want)
		}
	}
}

func TestAdvanceSectorNoRollover(t *testing.T) {
	g := Geometry{Cylinders: 40, Heads: 2, Sectors: 9}
	c := CHS{Cylinder: 5, Head: 1, Sector: 9}
	got := AdvanceSector(g, c)
	want := CHS{Cylinder: 5, Head: 1, Sector: 1}
	if got != want {
		t.Errorf("AdvanceSector(%+v) = %+v, want %+v", c, got, want)
	}
}

func TestOffsetRoundTrip(t *testing.T) {
	g := Geometry{Cylinders: 306, Heads: 4, Sectors: 17}
	const sectorSize = 512
	c := CHS{Cylinder: 12, Head: 3, Sector: 5}
	off := ToOffset(g, c, sectorSize)
	got := FromOffset(g, off, sectorSize)
	if got != c {
		t.Errorf("FromOffset(ToOffset(%+v)) = %+v, want %+v", c, got, c)
	}
}
