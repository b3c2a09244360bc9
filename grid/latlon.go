package grid

import (
	"fmt"
	"math"

	"github.com/wxmesh/grib/internal"
)

// LatLonGrid represents a GRIB2 Latitude/Longitude grid (Template 3.0).
//
// This is the most common grid type, consisting of a regular grid with
// constant spacing in latitude and longitude.
type LatLonGrid struct {
	Ni           uint32  // Number of points along a parallel (longitude)
	Nj           uint32  // Number of points along a meridian (latitude)
	La1          int32   // Latitude of first grid point (microdegrees)
	Lo1          int32   // Longitude of first grid point (microdegrees)
	ResFlags     uint8   // Resolution and component flags
	La2          int32   // Latitude of last grid point (microdegrees)
	Lo2          int32   // Longitude of last grid point (microdegrees)
	Di           uint32  // i direction increment (microdegrees)
	Dj           uint32  // j direction increment (microdegrees)
	ScanningMode uint8   // Scanning mode (Table 3.4)
}

// ParseLatLonGrid parses a Lat/Lon grid from template data (Template 3.0).
//
// The template data should be 72 bytes for Template 3.0.
func ParseLatLonGrid(data []byte) (*LatLonGrid, error) {
	if len(data) < 72 {
		return nil, fmt.Errorf("template 3.0 requires at least 72 bytes, got %d", len(data))
	}

	r := internal.NewReader(data)

	// Skip shape of earth (1 byte) and related parameters (15 bytes)
	// We'll implement proper earth shape handling in a future phase
	r.Skip(16)

	// Read grid dimensions
	ni, _ := r.Uint32()
	nj, _ := r.Uint32()

	// Skip basic angle and subdivisions (8 bytes)
	r.Skip(8)

	// Read grid points
	la1, _ := r.Int32()
	lo1, _ := r.Int32()
	resFlags, _ := r.Uint8()
	la2, _ := r.Int32()
	lo2, _ := r.Int32()
	di, _ := r.Uint32()
	dj, _ := r.Uint32()
	scanningMode, _ := r.Uint8()

	return &LatLonGrid{
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
	}, nil
}

// TemplateNumber returns 0 for Lat/Lon grids.
func (g *LatLonGrid) TemplateNumber() int {
	return 0
}

// NumPoints returns the total number of grid points.
func (g *LatLonGrid) NumPoints() int {
	return int(g.Ni * g.Nj)
}

// Latitudes generates latitude values for all grid points.
func (g *LatLonGrid) Latitudes() []float64 {
	lats, _ := g.Coordinates()
	return lats
}

// Longitudes generates longitude values for all grid points.
func (g *LatLonGrid) Longitudes() []float64 {
	_, lons := g.Coordinates()
	return lons
}

// IsRegular reports true: the grid separates into 1-D latitude and
// longitude axes.
func (g *LatLonGrid) IsRegular() bool {
	return true
}

// LocationIndices returns the (j, i) grid cell nearest to the given
// geographic point, or ok=false when the point falls outside the grid.
func (g *LatLonGrid) LocationIndices(lat, lon float64) (j, i int, ok bool) {
	lat1, lon1 := g.FirstGridPoint()
	di, dj := g.Increment()
	iNeg, jPos, _ := g.ScanningFlags()

	dLat := dj
	if !jPos {
		dLat = -dj
	}
	dLon := di
	if iNeg {
		dLon = -di
	}
	if dLat == 0 || dLon == 0 {
		return 0, 0, false
	}

	lonSteps := math.Mod(lon-lon1, 360)
	if lonSteps < 0 {
		lonSteps += 360
	}
	if dLon < 0 && lonSteps > 0 {
		lonSteps -= 360
	}

	i = int(math.Round(lonSteps / dLon))
	j = int(math.Round((lat - lat1) / dLat))
	if i < 0 || i >= int(g.Ni) || j < 0 || j >= int(g.Nj) {
		return 0, 0, false
	}
	return j, i, true
}

// String returns a human-readable description of the grid.
func (g *LatLonGrid) String() string {
	return fmt.Sprintf("Lat/Lon grid: %d x %d points (%.3f°, %.3f°) to (%.3f°, %.3f°)",
		g.Ni, g.Nj,
		float64(g.La1)/1e6, float64(g.Lo1)/1e6,
		float64(g.La2)/1e6, float64(g.Lo2)/1e6)
}

// FirstGridPoint returns the latitude and longitude of the first grid point in degrees.
func (g *LatLonGrid) FirstGridPoint() (lat, lon float64) {
	return float64(g.La1) / 1e6, float64(g.Lo1) / 1e6
}

// LastGridPoint returns the latitude and longitude of the last grid point in degrees.
func (g *LatLonGrid) LastGridPoint() (lat, lon float64) {
	return float64(g.La2) / 1e6, float64(g.Lo2) / 1e6
}

// Increment returns the i and j direction increments in degrees.
func (g *LatLonGrid) Increment() (di, dj float64) {
	return float64(g.Di) / 1e6, float64(g.Dj) / 1e6
}

// normalizeLongitude reduces lon into [0, 360). A tiny negative input can
// round up to exactly 360 after the shift, so that case folds back to 0.
func normalizeLongitude(lon float64) float64 {
	lon = math.Mod(lon, 360)
	if lon < 0 {
		lon += 360
	}
	if lon >= 360 {
		lon = 0
	}
	return lon
}

// Coordinates returns latitude and longitude arrays for every grid point in
// the grid's native scan order: i (longitude) varies fastest, unless the
// scanning mode sets 0x20, in which case j (latitude) varies fastest.
func (g *LatLonGrid) Coordinates() ([]float64, []float64) {
	lat1, lon1 := g.FirstGridPoint()
	di, dj := g.Increment()
	iNeg, jPos, consecutive := g.ScanningFlags()

	n := g.NumPoints()
	lats := make([]float64, 0, n)
	lons := make([]float64, 0, n)

	dLat := dj
	if !jPos {
		dLat = -dj
	}
	dLon := di
	if iNeg {
		dLon = -di
	}

	if !consecutive {
		// Adjacent points run along j: emit the grid column by column.
		for i := uint32(0); i < g.Ni; i++ {
			lon := normalizeLongitude(lon1 + dLon*float64(i))
			for j := uint32(0); j < g.Nj; j++ {
				lats = append(lats, lat1+dLat*float64(j))
				lons = append(lons, lon)
			}
		}
		return lats, lons
	}

	for j := uint32(0); j < g.Nj; j++ {
		lat := lat1 + dLat*float64(j)
		for i := uint32(0); i < g.Ni; i++ {
			lon := normalizeLongitude(lon1 + dLon*float64(i))
			lats = append(lats, lat)
			lons = append(lons, lon)
		}
	}
	return lats, lons
}

// ScanningFlags returns the scanning mode flags as individual booleans.
//
// Returns:
//   - iNegative: true if points scan in -i direction (east to west)
//   - jPositive: true if points scan in +j direction (south to north)
//   - consecutive: true if adjacent points in i direction are consecutive
func (g *LatLonGrid) ScanningFlags() (iNegative, jPositive, consecutive bool) {
	iNegative = (g.ScanningMode & 0x80) != 0  // Bit 0
	jPositive = (g.ScanningMode & 0x40) != 0  // Bit 1
	consecutive = (g.ScanningMode & 0x20) == 0 // Bit 2 (0 = consecutive)
	return
}
