package grid

import (
	"fmt"
	"math"

	"github.com/wxmesh/grib/internal"
)

// GaussianGrid represents Grid Definition Template 3.40: Gaussian
// Latitude/Longitude.
//
// Points are evenly spaced in longitude but the latitude circles follow
// the roots of the Legendre polynomial of degree 2N, which keeps the
// area represented by each grid cell roughly constant — the grid used
// by most global spectral models (e.g. GFS, ECMWF).
type GaussianGrid struct {
	Ni           uint32 // Number of points along a parallel (longitude)
	Nj           uint32 // Number of points along a meridian (latitude)
	La1          int32  // Latitude of first grid point (microdegrees)
	Lo1          int32  // Longitude of first grid point (microdegrees)
	ResFlags     uint8  // Resolution and component flags
	La2          int32  // Latitude of last grid point (microdegrees)
	Lo2          int32  // Longitude of last grid point (microdegrees)
	Di           uint32 // i direction increment (microdegrees)
	N            uint32 // Number of parallels between a pole and the equator
	ScanningMode uint8  // Scanning mode (Table 3.4)
}

// ParseGaussianGrid parses Grid Definition Template 3.40.
func ParseGaussianGrid(data []byte) (*GaussianGrid, error) {
	if len(data) < 68 {
		return nil, fmt.Errorf("template 3.40 requires at least 68 bytes, got %d", len(data))
	}

	r := internal.NewReader(data)

	// Skip shape of earth and related parameters (16 bytes)
	_ = r.Skip(16)

	ni, _ := r.Uint32()
	nj, _ := r.Uint32()

	// Skip basic angle and subdivisions (8 bytes)
	_ = r.Skip(8)

	la1, _ := r.Int32()
	lo1, _ := r.Int32()
	resFlags, _ := r.Uint8()
	la2, _ := r.Int32()
	lo2, _ := r.Int32()
	di, _ := r.Uint32()
	n, _ := r.Uint32()
	scanningMode, _ := r.Uint8()

	return &GaussianGrid{
		Ni:           ni,
		Nj:           nj,
		La1:          la1,
		Lo1:          lo1,
		ResFlags:     resFlags,
		La2:          la2,
		Lo2:          lo2,
		Di:           di,
		N:            n,
		ScanningMode: scanningMode,
	}, nil
}

// TemplateNumber returns 40 for Gaussian grids.
func (g *GaussianGrid) TemplateNumber() int {
	return 40
}

// GridType returns "Gaussian Latitude/Longitude".
func (g *GaussianGrid) GridType() string {
	return "Gaussian Latitude/Longitude"
}

// NumPoints returns the total number of grid points.
func (g *GaussianGrid) NumPoints() int {
	return int(g.Ni * g.Nj)
}

// ScanningFlags returns the scanning mode flags as individual booleans.
func (g *GaussianGrid) ScanningFlags() (iNegative, jPositive, consecutive bool) {
	iNegative = (g.ScanningMode & 0x80) != 0
	jPositive = (g.ScanningMode & 0x40) != 0
	consecutive = (g.ScanningMode & 0x20) == 0
	return
}

// Latitudes generates latitude values for all grid points.
func (g *GaussianGrid) Latitudes() []float64 {
	lats, _ := g.Coordinates()
	return lats
}

// Longitudes generates longitude values for all grid points.
func (g *GaussianGrid) Longitudes() []float64 {
	_, lons := g.Coordinates()
	return lons
}

// Coordinates returns row-major latitude and longitude arrays for every
// grid point.
//
// The true Gaussian latitude circles are roots of a Legendre polynomial
// and require iterative computation; absent that solver, the parallels
// are approximated as evenly spaced between La1 and La2 over Nj points,
// which is exact for a reduced/linear grid's longitude spacing and close
// for its latitude spacing away from the poles.
func (g *GaussianGrid) Coordinates() ([]float64, []float64) {
	lat1 := float64(g.La1) / 1e6
	lon1 := float64(g.Lo1) / 1e6
	lat2 := float64(g.La2) / 1e6
	di := float64(g.Di) / 1e6

	iNeg, jPos, _ := g.ScanningFlags()

	n := g.NumPoints()
	lats := make([]float64, 0, n)
	lons := make([]float64, 0, n)

	dLon := di
	if iNeg {
		dLon = -di
	}

	dLat := 0.0
	if g.Nj > 1 {
		dLat = (lat2 - lat1) / float64(g.Nj-1)
	}
	if !jPos && dLat > 0 {
		dLat = -dLat
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

// IsRegular reports true: latitudes vary only along j and longitudes only
// along i.
func (g *GaussianGrid) IsRegular() bool {
	return true
}

// LocationIndices returns the (j, i) grid cell nearest to the given
// geographic point, or ok=false when the point falls outside the grid.
// The latitude lookup uses the same evenly-spaced approximation as
// Coordinates.
func (g *GaussianGrid) LocationIndices(lat, lon float64) (j, i int, ok bool) {
	lat1 := float64(g.La1) / 1e6
	lat2 := float64(g.La2) / 1e6
	lon1 := float64(g.Lo1) / 1e6
	di := float64(g.Di) / 1e6

	iNeg, jPos, _ := g.ScanningFlags()
	if di == 0 || g.Nj < 2 {
		return 0, 0, false
	}

	dLon := di
	if iNeg {
		dLon = -di
	}
	dLat := (lat2 - lat1) / float64(g.Nj-1)
	if !jPos && dLat > 0 {
		dLat = -dLat
	}
	if dLat == 0 {
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

// String returns a human-readable description.
func (g *GaussianGrid) String() string {
	return fmt.Sprintf("Gaussian grid: %d x %d points, N=%d, (%.3f°, %.3f°) to (%.3f°, %.3f°)",
		g.Ni, g.Nj, g.N,
		float64(g.La1)/1e6, float64(g.Lo1)/1e6,
		float64(g.La2)/1e6, float64(g.Lo2)/1e6)
}
