package grib1

import (
	"fmt"
	"math"

	"github.com/wxmesh/grib/internal"
)

// LatLonGrid represents a GRIB1 latitude/longitude grid (representation
// type 0), and its rotated variant (type 10) when Rotated is set.
//
// All coordinates are stored in millidegrees.
type LatLonGrid struct {
	Ni           uint16 // Points along a parallel
	Nj           uint16 // Points along a meridian
	La1          int32  // Latitude of first grid point (millidegrees)
	Lo1          int32  // Longitude of first grid point (millidegrees)
	ResFlags     uint8  // Resolution and component flags (Table 7)
	La2          int32  // Latitude of last grid point (millidegrees)
	Lo2          int32  // Longitude of last grid point (millidegrees)
	Di           uint16 // i direction increment (millidegrees)
	Dj           uint16 // j direction increment (millidegrees)
	ScanningMode uint8  // Scanning mode (Table 8)

	Rotated  bool  // representation type 10
	LaSP     int32 // Latitude of the southern pole of rotation (millidegrees)
	LoSP     int32 // Longitude of the southern pole of rotation (millidegrees)
	Rotation float64 // Angle of rotation
}

// parseLatLonGrid parses the grid description body (GDS octets 7 onward)
// for representation types 0 and 10.
func parseLatLonGrid(body []byte, rotated bool) (*LatLonGrid, error) {
	minLen := 26
	if rotated {
		minLen = 36
	}
	if len(body) < minLen {
		return nil, fmt.Errorf("lat/lon grid description requires at least %d bytes, got %d", minLen, len(body))
	}

	r := internal.NewReader(body)

	ni, _ := r.Uint16()
	nj, _ := r.Uint16()
	la1, _ := r.Int24()
	lo1, _ := r.Int24()
	resFlags, _ := r.Uint8()
	la2, _ := r.Int24()
	lo2, _ := r.Int24()
	di, _ := r.Uint16()
	dj, _ := r.Uint16()
	scanningMode, _ := r.Uint8()

	g := &LatLonGrid{
		Ni:           ni,
		Nj:           nj,
		La1:          la1,
		Lo1:          lo1,
		ResFlags:     resFlags,
		La2:          la2,
		Lo2:          lo2,
		Di:           di,
		Dj:           dj,
		ScanningMode: scanningMode,
		Rotated:      rotated,
	}

	if rotated {
		// Octets 29-32 are reserved; the pole of rotation follows.
		r.Skip(4)
		g.LaSP, _ = r.Int24()
		g.LoSP, _ = r.Int24()
		rotBits, _ := r.Uint32()
		g.Rotation = float64(ibmFloat(rotBits))
	}

	return g, nil
}

// RepresentationType returns 0, or 10 for the rotated variant.
func (g *LatLonGrid) RepresentationType() int {
	if g.Rotated {
		return 10
	}
	return 0
}

// Dimensions returns the (ni, nj) point counts.
func (g *LatLonGrid) Dimensions() (int, int) {
	return int(g.Ni), int(g.Nj)
}

// NumPoints returns the total number of grid points.
func (g *LatLonGrid) NumPoints() int {
	return int(g.Ni) * int(g.Nj)
}

// IsRegular reports true for the plain lat/lon grid. The rotated variant's
// coordinates are regular only in the rotated frame, which is the frame this
// type reports.
func (g *LatLonGrid) IsRegular() bool {
	return true
}

// increments returns the signed per-step lat/lon deltas in degrees, derived
// from the stored increments when given and the first/last points otherwise,
// honoring the scanning-mode direction flags.
func (g *LatLonGrid) increments() (dLat, dLon float64) {
	iNegative := g.ScanningMode&0x80 != 0
	jPositive := g.ScanningMode&0x40 != 0

	dLon = float64(g.Di) / 1000
	if g.Di == 0xFFFF && g.Ni > 1 {
		dLon = math.Abs(float64(g.Lo2-g.Lo1)) / 1000 / float64(g.Ni-1)
	}
	if iNegative {
		dLon = -dLon
	}

	dLat = float64(g.Dj) / 1000
	if g.Dj == 0xFFFF && g.Nj > 1 {
		dLat = math.Abs(float64(g.La2-g.La1)) / 1000 / float64(g.Nj-1)
	}
	if !jPositive {
		dLat = -dLat
	}
	return dLat, dLon
}

// Coordinates returns row-major latitudes and longitudes in degrees,
// scanning i (longitude) fastest, longitudes normalized into [0, 360).
func (g *LatLonGrid) Coordinates() ([]float64, []float64) {
	lat1 := float64(g.La1) / 1000
	lon1 := float64(g.Lo1) / 1000
	dLat, dLon := g.increments()

	n := g.NumPoints()
	lats := make([]float64, 0, n)
	lons := make([]float64, 0, n)

	for j := 0; j < int(g.Nj); j++ {
		lat := lat1 + dLat*float64(j)
		for i := 0; i < int(g.Ni); i++ {
			lats = append(lats, lat)
			lons = append(lons, normalizeLon(lon1+dLon*float64(i)))
		}
	}
	return lats, lons
}

// LocationIndices returns the (j, i) grid cell nearest to the given
// geographic point, or ok=false when the point falls outside the grid.
func (g *LatLonGrid) LocationIndices(lat, lon float64) (j, i int, ok bool) {
	lat1 := float64(g.La1) / 1000
	lon1 := float64(g.Lo1) / 1000
	dLat, dLon := g.increments()
	if dLat == 0 || dLon == 0 {
		return 0, 0, false
	}

	dLonSteps := math.Mod(lon-lon1, 360)
	if dLonSteps < 0 {
		dLonSteps += 360
	}
	if dLon < 0 && dLonSteps > 0 {
		dLonSteps -= 360
	}

	i = int(math.Round(dLonSteps / dLon))
	j = int(math.Round((lat - lat1) / dLat))
	if i < 0 || i >= int(g.Ni) || j < 0 || j >= int(g.Nj) {
		return 0, 0, false
	}
	return j, i, true
}

// String returns a human-readable description of the grid.
func (g *LatLonGrid) String() string {
	kind := "Lat/Lon"
	if g.Rotated {
		kind = fmt.Sprintf("Rotated lat/lon (pole %.3f°, %.3f°)",
			float64(g.LaSP)/1000, float64(g.LoSP)/1000)
	}
	return fmt.Sprintf("%s grid: %d x %d points (%.3f°, %.3f°) to (%.3f°, %.3f°)",
		kind, g.Ni, g.Nj,
		float64(g.La1)/1000, float64(g.Lo1)/1000,
		float64(g.La2)/1000, float64(g.Lo2)/1000)
}
