package grib1

import (
	"fmt"
	"math"

	"github.com/wxmesh/grib/internal"
)

const earthRadius = 6371229.0 // spherical earth radius in meters

func normalizeLon(lon float64) float64 {
	lon = math.Mod(lon, 360)
	if lon < 0 {
		lon += 360
	}
	if lon >= 360 {
		lon = 0
	}
	return lon
}

// MercatorGrid represents a GRIB1 Mercator grid (representation type 1).
type MercatorGrid struct {
	Ni           uint16 // Points along a parallel
	Nj           uint16 // Points along a meridian
	La1          int32  // Latitude of first grid point (millidegrees)
	Lo1          int32  // Longitude of first grid point (millidegrees)
	ResFlags     uint8  // Resolution and component flags (Table 7)
	La2          int32  // Latitude of last grid point (millidegrees)
	Lo2          int32  // Longitude of last grid point (millidegrees)
	Latin        int32  // Latitude at which the projection intersects the earth (millidegrees)
	ScanningMode uint8  // Scanning mode (Table 8)
	Di           uint32 // Longitudinal grid length at Latin (meters)
	Dj           uint32 // Latitudinal grid length at Latin (meters)
}

func parseMercatorGrid(body []byte) (*MercatorGrid, error) {
	if len(body) < 28 {
		return nil, fmt.Errorf("Mercator grid description requires at least 28 bytes, got %d", len(body))
	}

	r := internal.NewReader(body)

	ni, _ := r.Uint16()
	nj, _ := r.Uint16()
	la1, _ := r.Int24()
	lo1, _ := r.Int24()
	resFlags, _ := r.Uint8()
	la2, _ := r.Int24()
	lo2, _ := r.Int24()
	latin, _ := r.Int24()
	r.Skip(1) // reserved
	scanningMode, _ := r.Uint8()
	di, _ := r.Uint24()
	dj, _ := r.Uint24()

	return &MercatorGrid{
		Ni:           ni,
		Nj:           nj,
		La1:          la1,
		Lo1:          lo1,
		ResFlags:     resFlags,
		La2:          la2,
		Lo2:          lo2,
		Latin:        latin,
		ScanningMode: scanningMode,
		Di:           di,
		Dj:           dj,
	}, nil
}

// RepresentationType returns 1 for Mercator grids.
func (g *MercatorGrid) RepresentationType() int { return 1 }

// Dimensions returns the (ni, nj) point counts.
func (g *MercatorGrid) Dimensions() (int, int) { return int(g.Ni), int(g.Nj) }

// NumPoints returns the total number of grid points.
func (g *MercatorGrid) NumPoints() int { return int(g.Ni) * int(g.Nj) }

// IsRegular reports true: Mercator latitudes vary only along j and
// longitudes only along i, so the axes separate even though the latitude
// spacing varies with the projection.
func (g *MercatorGrid) IsRegular() bool { return true }

// Coordinates returns row-major latitudes and longitudes in degrees via the
// inverse Mercator projection anchored at the first grid point.
func (g *MercatorGrid) Coordinates() ([]float64, []float64) {
	lat1 := float64(g.La1) / 1000 * math.Pi / 180
	lon1 := float64(g.Lo1) / 1000 * math.Pi / 180
	latin := float64(g.Latin) / 1000 * math.Pi / 180

	scale := 1.0 / math.Cos(latin)
	x0 := earthRadius * lon1
	y0 := earthRadius * math.Log(math.Tan(math.Pi/4+lat1/2))

	iNegative := g.ScanningMode&0x80 != 0
	jPositive := g.ScanningMode&0x40 != 0

	dx := float64(g.Di) * scale
	if iNegative {
		dx = -dx
	}
	dy := float64(g.Dj) * scale
	if !jPositive {
		dy = -dy
	}

	n := g.NumPoints()
	lats := make([]float64, 0, n)
	lons := make([]float64, 0, n)

	for j := 0; j < int(g.Nj); j++ {
		y := y0 + dy*float64(j)
		lat := (2*math.Atan(math.Exp(y/earthRadius)) - math.Pi/2) * 180 / math.Pi
		for i := 0; i < int(g.Ni); i++ {
			x := x0 + dx*float64(i)
			lats = append(lats, lat)
			lons = append(lons, normalizeLon(x/earthRadius*180/math.Pi))
		}
	}
	return lats, lons
}

// String returns a human-readable description of the grid.
func (g *MercatorGrid) String() string {
	return fmt.Sprintf("Mercator grid: %d x %d points (%.3f°, %.3f°) to (%.3f°, %.3f°), Latin %.3f°",
		g.Ni, g.Nj,
		float64(g.La1)/1000, float64(g.Lo1)/1000,
		float64(g.La2)/1000, float64(g.Lo2)/1000,
		float64(g.Latin)/1000)
}

// LambertGrid represents a GRIB1 Lambert conformal grid (representation
// type 3).
type LambertGrid struct {
	Nx           uint16 // Points along x-axis
	Ny           uint16 // Points along y-axis
	La1          int32  // Latitude of first grid point (millidegrees)
	Lo1          int32  // Longitude of first grid point (millidegrees)
	ResFlags     uint8  // Resolution and component flags (Table 7)
	LoV          int32  // Orientation: longitude parallel to the y-axis (millidegrees)
	Dx           uint32 // X-direction grid length (meters)
	Dy           uint32 // Y-direction grid length (meters)
	ProjCenter   uint8  // Projection center flag
	ScanningMode uint8  // Scanning mode (Table 8)
	Latin1       int32  // First secant latitude (millidegrees)
	Latin2       int32  // Second secant latitude (millidegrees)
	LaSP         int32  // Latitude of the southern pole (millidegrees)
	LoSP         int32  // Longitude of the southern pole (millidegrees)
}

func parseLambertGrid(body []byte) (*LambertGrid, error) {
	if len(body) < 34 {
		return nil, fmt.Errorf("Lambert grid description requires at least 34 bytes, got %d", len(body))
	}

	r := internal.NewReader(body)

	nx, _ := r.Uint16()
	ny, _ := r.Uint16()
	la1, _ := r.Int24()
	lo1, _ := r.Int24()
	resFlags, _ := r.Uint8()
	loV, _ := r.Int24()
	dx, _ := r.Uint24()
	dy, _ := r.Uint24()
	projCenter, _ := r.Uint8()
	scanningMode, _ := r.Uint8()
	latin1, _ := r.Int24()
	latin2, _ := r.Int24()
	laSP, _ := r.Int24()
	loSP, _ := r.Int24()

	return &LambertGrid{
		Nx:           nx,
		Ny:           ny,
		La1:          la1,
		Lo1:          lo1,
		ResFlags:     resFlags,
		LoV:          loV,
		Dx:           dx,
		Dy:           dy,
		ProjCenter:   projCenter,
		ScanningMode: scanningMode,
		Latin1:       latin1,
		Latin2:       latin2,
		LaSP:         laSP,
		LoSP:         loSP,
	}, nil
}

// RepresentationType returns 3 for Lambert conformal grids.
func (g *LambertGrid) RepresentationType() int { return 3 }

// Dimensions returns the (nx, ny) point counts.
func (g *LambertGrid) Dimensions() (int, int) { return int(g.Nx), int(g.Ny) }

// NumPoints returns the total number of grid points.
func (g *LambertGrid) NumPoints() int { return int(g.Nx) * int(g.Ny) }

// IsRegular reports false: Lambert grids are regular in projected space
// only, not in latitude/longitude.
func (g *LambertGrid) IsRegular() bool { return false }

// Coordinates returns row-major latitudes and longitudes in degrees via the
// inverse Lambert conformal projection anchored at the first grid point.
func (g *LambertGrid) Coordinates() ([]float64, []float64) {
	lat1 := float64(g.La1) / 1000 * math.Pi / 180
	lon1 := float64(g.Lo1) / 1000 * math.Pi / 180
	lonV := float64(g.LoV) / 1000 * math.Pi / 180
	latin1 := float64(g.Latin1) / 1000 * math.Pi / 180
	latin2 := float64(g.Latin2) / 1000 * math.Pi / 180

	var n float64
	if math.Abs(latin1-latin2) < 1e-9 {
		n = math.Sin(latin1)
	} else {
		n = math.Log(math.Cos(latin1)/math.Cos(latin2)) /
			math.Log(math.Tan(math.Pi/4+latin2/2)/math.Tan(math.Pi/4+latin1/2))
	}
	f := math.Cos(latin1) * math.Pow(math.Tan(math.Pi/4+latin1/2), n) / n

	// Forward-project the first grid point to anchor the projected origin.
	rho1 := earthRadius * f * math.Pow(math.Tan(math.Pi/4+lat1/2), -n)
	theta1 := n * (lon1 - lonV)
	x0 := rho1 * math.Sin(theta1)
	y0 := -rho1 * math.Cos(theta1)

	iNegative := g.ScanningMode&0x80 != 0
	jPositive := g.ScanningMode&0x40 != 0

	dx := float64(g.Dx)
	if iNegative {
		dx = -dx
	}
	dy := float64(g.Dy)
	if !jPositive {
		dy = -dy
	}

	num := g.NumPoints()
	lats := make([]float64, 0, num)
	lons := make([]float64, 0, num)

	for j := 0; j < int(g.Ny); j++ {
		y := y0 + dy*float64(j)
		for i := 0; i < int(g.Nx); i++ {
			x := x0 + dx*float64(i)

			rho := math.Hypot(x, y)
			if n < 0 {
				rho = -rho
			}
			theta := math.Atan2(x, -y)

			lat := 2*math.Atan(math.Pow(earthRadius*f/rho, 1/n)) - math.Pi/2
			lon := lonV + theta/n

			lats = append(lats, lat*180/math.Pi)
			lons = append(lons, normalizeLon(lon*180/math.Pi))
		}
	}
	return lats, lons
}

// String returns a human-readable description of the grid.
func (g *LambertGrid) String() string {
	return fmt.Sprintf("Lambert conformal grid: %d x %d points, first point (%.3f°, %.3f°), LoV %.3f°, secants %.3f°/%.3f°",
		g.Nx, g.Ny,
		float64(g.La1)/1000, float64(g.Lo1)/1000,
		float64(g.LoV)/1000,
		float64(g.Latin1)/1000, float64(g.Latin2)/1000)
}

// PolarStereoGrid represents a GRIB1 polar stereographic grid
// (representation type 5).
type PolarStereoGrid struct {
	Nx           uint16 // Points along x-axis
	Ny           uint16 // Points along y-axis
	La1          int32  // Latitude of first grid point (millidegrees)
	Lo1          int32  // Longitude of first grid point (millidegrees)
	ResFlags     uint8  // Resolution and component flags (Table 7)
	LoV          int32  // Orientation: longitude parallel to the y-axis (millidegrees)
	Dx           uint32 // X-direction grid length at 60° (meters)
	Dy           uint32 // Y-direction grid length at 60° (meters)
	ProjCenter   uint8  // Projection center flag (bit 1: 0 north, 1 south)
	ScanningMode uint8  // Scanning mode (Table 8)
}

func parsePolarStereoGrid(body []byte) (*PolarStereoGrid, error) {
	if len(body) < 26 {
		return nil, fmt.Errorf("polar stereographic grid description requires at least 26 bytes, got %d", len(body))
	}

	r := internal.NewReader(body)

	nx, _ := r.Uint16()
	ny, _ := r.Uint16()
	la1, _ := r.Int24()
	lo1, _ := r.Int24()
	resFlags, _ := r.Uint8()
	loV, _ := r.Int24()
	dx, _ := r.Uint24()
	dy, _ := r.Uint24()
	projCenter, _ := r.Uint8()
	scanningMode, _ := r.Uint8()

	return &PolarStereoGrid{
		Nx:           nx,
		Ny:           ny,
		La1:          la1,
		Lo1:          lo1,
		ResFlags:     resFlags,
		LoV:          loV,
		Dx:           dx,
		Dy:           dy,
		ProjCenter:   projCenter,
		ScanningMode: scanningMode,
	}, nil
}

// RepresentationType returns 5 for polar stereographic grids.
func (g *PolarStereoGrid) RepresentationType() int { return 5 }

// Dimensions returns the (nx, ny) point counts.
func (g *PolarStereoGrid) Dimensions() (int, int) { return int(g.Nx), int(g.Ny) }

// NumPoints returns the total number of grid points.
func (g *PolarStereoGrid) NumPoints() int { return int(g.Nx) * int(g.Ny) }

// IsRegular reports false.
func (g *PolarStereoGrid) IsRegular() bool { return false }

// IsNorthPole reports whether the projection plane is tangent near the
// north pole.
func (g *PolarStereoGrid) IsNorthPole() bool { return g.ProjCenter&0x80 == 0 }

// Coordinates returns row-major latitudes and longitudes in degrees via the
// inverse polar stereographic projection. Edition 1 fixes the standard
// parallel at 60° of the projection hemisphere.
func (g *PolarStereoGrid) Coordinates() ([]float64, []float64) {
	lat1 := float64(g.La1) / 1000 * math.Pi / 180
	lon1 := float64(g.Lo1) / 1000 * math.Pi / 180
	lonV := float64(g.LoV) / 1000 * math.Pi / 180
	laD := 60.0 * math.Pi / 180

	mcs := math.Cos(laD)
	tcs := math.Tan((math.Pi/2 - laD) / 2)
	north := g.IsNorthPole()

	var x0, y0 float64
	if north {
		t := math.Tan((math.Pi/2 - lat1) / 2)
		rho := earthRadius * mcs * t / tcs
		x0 = rho * math.Sin(lon1-lonV)
		y0 = -rho * math.Cos(lon1-lonV)
	} else {
		t := math.Tan((math.Pi/2 + lat1) / 2)
		rho := earthRadius * mcs * t / tcs
		x0 = rho * math.Sin(lon1-lonV)
		y0 = rho * math.Cos(lon1-lonV)
	}

	iNegative := g.ScanningMode&0x80 != 0
	jPositive := g.ScanningMode&0x40 != 0

	dx := float64(g.Dx)
	if iNegative {
		dx = -dx
	}
	dy := float64(g.Dy)
	if !jPositive {
		dy = -dy
	}

	n := g.NumPoints()
	lats := make([]float64, 0, n)
	lons := make([]float64, 0, n)

	for j := 0; j < int(g.Ny); j++ {
		y := y0 + dy*float64(j)
		for i := 0; i < int(g.Nx); i++ {
			x := x0 + dx*float64(i)
			rho := math.Hypot(x, y)

			var lat, lon float64
			if rho == 0 {
				lat = math.Pi / 2
				if !north {
					lat = -lat
				}
			} else if north {
				ts := rho * tcs / (earthRadius * mcs)
				lat = math.Pi/2 - 2*math.Atan(ts)
				lon = lonV + math.Atan2(x, -y)
			} else {
				ts := rho * tcs / (earthRadius * mcs)
				lat = 2*math.Atan(ts) - math.Pi/2
				lon = lonV + math.Atan2(x, y)
			}

			lats = append(lats, lat*180/math.Pi)
			lons = append(lons, normalizeLon(lon*180/math.Pi))
		}
	}
	return lats, lons
}

// String returns a human-readable description of the grid.
func (g *PolarStereoGrid) String() string {
	pole := "north"
	if !g.IsNorthPole() {
		pole = "south"
	}
	return fmt.Sprintf("Polar stereographic grid (%s): %d x %d points, first point (%.3f°, %.3f°), LoV %.3f°",
		pole, g.Nx, g.Ny,
		float64(g.La1)/1000, float64(g.Lo1)/1000,
		float64(g.LoV)/1000)
}
