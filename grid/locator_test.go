package grid

import (
	"testing"
)

func TestIsRegular(t *testing.T) {
	tests := []struct {
		name string
		grid Grid
		want bool
	}{
		{"lat/lon", &LatLonGrid{Ni: 10, Nj: 5}, true},
		{"gaussian", &GaussianGrid{Ni: 10, Nj: 5}, true},
		{"mercator", &MercatorGrid{Ni: 10, Nj: 5}, true},
		{"lambert", &LambertConformalGrid{Nx: 10, Ny: 5}, false},
		{"polar stereographic", &PolarStereographicGrid{Nx: 10, Ny: 5}, false},
		{"unstructured", &UnstructuredGrid{NumberOfDataPoints: 50}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.grid.IsRegular(); got != tt.want {
				t.Errorf("IsRegular() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLatLonLocationIndices(t *testing.T) {
	// 90N..88N, 0E..2E at 1 degree, scanning north-to-south.
	g := &LatLonGrid{
		Ni:           3,
		Nj:           3,
		La1:          90000000,
		Lo1:          0,
		La2:          88000000,
		Lo2:          2000000,
		Di:           1000000,
		Dj:           1000000,
		ScanningMode: 0x00,
	}

	j, i, ok := g.LocationIndices(89, 1)
	if !ok || j != 1 || i != 1 {
		t.Errorf("expected (1, 1), got (%d, %d) ok=%v", j, i, ok)
	}

	j, i, ok = g.LocationIndices(90, 0)
	if !ok || j != 0 || i != 0 {
		t.Errorf("expected (0, 0), got (%d, %d) ok=%v", j, i, ok)
	}

	// Rounds to the nearest cell.
	j, i, ok = g.LocationIndices(88.6, 1.4)
	if !ok || j != 1 || i != 1 {
		t.Errorf("expected (1, 1), got (%d, %d) ok=%v", j, i, ok)
	}

	if _, _, ok := g.LocationIndices(45, 120); ok {
		t.Error("expected point far outside the grid to report ok=false")
	}
}

func TestLambertLocationIndicesRoundTrip(t *testing.T) {
	g := &LambertConformalGrid{
		Nx:           184,
		Ny:           123,
		La1:          40409178,
		Lo1:          263379162,
		LoV:          262500000,
		Latin1:       38500000,
		Latin2:       38500000,
		Dx:           3000000,
		Dy:           3000000,
		ScanningMode: 0x40,
	}

	lats, lons := g.Coordinates()

	// Every sampled coordinate must invert back to its own cell.
	for _, idx := range []int{0, 183, 5000, 22448, 22631} {
		wantJ := idx / int(g.Nx)
		wantI := idx % int(g.Nx)

		j, i, ok := g.LocationIndices(lats[idx], lons[idx])
		if !ok {
			t.Errorf("index %d: expected ok=true", idx)
			continue
		}
		if j != wantJ || i != wantI {
			t.Errorf("index %d: expected (%d, %d), got (%d, %d)", idx, wantJ, wantI, j, i)
		}
	}

	if _, _, ok := g.LocationIndices(-45, 100); ok {
		t.Error("expected point far outside the grid to report ok=false")
	}
}

func TestPolarStereographicLocationIndicesRoundTrip(t *testing.T) {
	g := &PolarStereographicGrid{
		Nx:           50,
		Ny:           40,
		La1:          30000000,
		Lo1:          210000000,
		LaD:          60000000,
		LoV:          255000000,
		Dx:           25000000, // 25 km in millimeters
		Dy:           25000000,
		ScanningMode: 0x40,
	}

	lats, lons := g.Coordinates()
	for _, idx := range []int{0, 49, 1000, 1999} {
		wantJ := idx / int(g.Nx)
		wantI := idx % int(g.Nx)

		j, i, ok := g.LocationIndices(lats[idx], lons[idx])
		if !ok || j != wantJ || i != wantI {
			t.Errorf("index %d: expected (%d, %d), got (%d, %d) ok=%v", idx, wantJ, wantI, j, i, ok)
		}
	}
}

func TestMercatorLocationIndicesRoundTrip(t *testing.T) {
	g := &MercatorGrid{
		Ni:           60,
		Nj:           40,
		La1:          -10000000,
		Lo1:          140000000,
		LaD:          20000000,
		Di:           10000000, // 10 km in millimeters
		Dj:           10000000,
		ScanningMode: 0x40,
	}

	lats, lons := g.Coordinates()
	for _, idx := range []int{0, 59, 1200, 2399} {
		wantJ := idx / int(g.Ni)
		wantI := idx % int(g.Ni)

		j, i, ok := g.LocationIndices(lats[idx], lons[idx])
		if !ok || j != wantJ || i != wantI {
			t.Errorf("index %d: expected (%d, %d), got (%d, %d) ok=%v", idx, wantJ, wantI, j, i, ok)
		}
	}
}

func TestCoordinateRanges(t *testing.T) {
	grids := []Grid{
		&LatLonGrid{Ni: 5, Nj: 4, La1: 80000000, Lo1: 350000000, Di: 5000000, Dj: 5000000, ScanningMode: 0x00},
		&LambertConformalGrid{
			Nx: 30, Ny: 20, La1: 21138123, Lo1: 237280472, LoV: 262500000,
			Latin1: 38500000, Latin2: 38500000, Dx: 3000000, Dy: 3000000, ScanningMode: 0x40,
		},
		&MercatorGrid{Ni: 20, Nj: 10, La1: -10000000, Lo1: 355000000, LaD: 20000000, Di: 50000000, Dj: 50000000, ScanningMode: 0x40},
	}

	for _, g := range grids {
		coords, ok := g.(interface{ Coordinates() ([]float64, []float64) })
		if !ok {
			t.Fatalf("%T does not expose Coordinates", g)
		}
		lats, lons := coords.Coordinates()
		for i := range lats {
			if lats[i] < -90 || lats[i] > 90 {
				t.Errorf("%T: latitude %g out of [-90, 90]", g, lats[i])
			}
			if lons[i] < 0 || lons[i] >= 360 {
				t.Errorf("%T: longitude %g out of [0, 360)", g, lons[i])
			}
		}
	}
}

func TestUnstructuredGrid(t *testing.T) {
	g := &UnstructuredGrid{NumberOfDataPoints: 2949120, NumberOfGridUsed: 26}
	if g.TemplateNumber() != 101 {
		t.Errorf("TemplateNumber() = %d, want 101", g.TemplateNumber())
	}
	if g.NumPoints() != 2949120 {
		t.Errorf("NumPoints() = %d, want 2949120", g.NumPoints())
	}
	if g.IsRegular() {
		t.Error("expected IsRegular() = false")
	}
}
