package grid

import (
	"fmt"
	"math"

	"github.com/wxmesh/grib/internal"
)

// LambertConformalGrid represents Grid Definition Template 3.30:
// Lambert Conformal projection.
//
// This projection is commonly used for regional models like HRRR and NAM.
type LambertConformalGrid struct {
	Nx                 uint32  // Number of points along x-axis
	Ny                 uint32  // Number of points along y-axis
	La1                int32   // Latitude of first grid point (micro-degrees)
	Lo1                int32   // Longitude of first grid point (micro-degrees)
	ResolutionFlags    uint8   // Resolution and component flags
	LaD                int32   // Latitude where Dx and Dy are specified (micro-degrees)
	LoV                int32   // Longitude of meridian parallel to y-axis (micro-degrees)
	Dx                 uint32  // X-direction grid length (millimeters)
	Dy                 uint32  // Y-direction grid length (millimeters)
	ProjectionCenter   uint8   // Projection center flag
	ScanningMode       uint8   // Scanning mode flags
	Latin1             int32   // First latitude from pole at which secant cone cuts sphere (micro-degrees)
	Latin2             int32   // Second latitude from pole (micro-degrees)
	LatSouthPole       int32   // Latitude of southern pole (micro-degrees)
	LonSouthPole       int32   // Longitude of southern pole (micro-degrees)
}

// ParseLambertConformalGrid parses Grid Definition Template 3.30.
func ParseLambertConformalGrid(data []byte) (*LambertConformalGrid, error) {
	if len(data) < 69 {
		return nil, fmt.Errorf("template 3.30 requires at least 69 bytes, got %d", len(data))
	}

	r := internal.NewReader(data)

	// Skip shape of earth (1 byte) and related parameters (15 bytes)
	_ = r.Skip(16)

	nx, _ := r.Uint32()
	ny, _ := r.Uint32()
	la1, _ := r.Int32()
	lo1, _ := r.Int32()
	resFlags, _ := r.Uint8()
	laD, _ := r.Int32()
	loV, _ := r.Int32()
	dx, _ := r.Uint32()
	dy, _ := r.Uint32()
	projCenter, _ := r.Uint8()
	scanMode, _ := r.Uint8()
	latin1, _ := r.Int32()
	latin2, _ := r.Int32()
	latSP, _ := r.Int32()
	lonSP, _ := r.Int32()

	return &LambertConformalGrid{
		Nx:               nx,
		Ny:               ny,
		La1:              la1,
		Lo1:              lo1,
		ResolutionFlags:  resFlags,
		LaD:              laD,
		LoV:              loV,
		Dx:               dx,
		Dy:               dy,
		ProjectionCenter: projCenter,
		ScanningMode:     scanMode,
		Latin1:           latin1,
		Latin2:           latin2,
		LatSouthPole:     latSP,
		LonSouthPole:     lonSP,
	}, nil
}

// TemplateNumber returns 30 for Lambert Conformal.
func (g *LambertConformalGrid) TemplateNumber() int {
	return 30
}

// GridType returns "Lambert Conformal".
func (g *LambertConformalGrid) GridType() string {
	return "Lambert Conformal"
}

// NumPoints returns the total number of grid points.
func (g *LambertConformalGrid) NumPoints() int {
	return int(g.Nx * g.Ny)
}

// IsRegular reports false: latitude and longitude both vary with i and j.
func (g *LambertConformalGrid) IsRegular() bool {
	return false
}

// Latitudes generates latitude values for all grid points.
//
// For Lambert Conformal projection, this requires inverse projection
// from grid coordinates (i, j) to geographic coordinates (lat, lon).
func (g *LambertConformalGrid) Latitudes() []float64 {
	lats, _ := g.Coordinates()
	return lats
}

// Longitudes generates longitude values for all grid points.
func (g *LambertConformalGrid) Longitudes() []float64 {
	_, lons := g.Coordinates()
	return lons
}

// coneConstants returns the cone constant n and the projection constant F
// for the grid's secant (or tangent) latitudes.
func (g *LambertConformalGrid) coneConstants() (n, f float64) {
	latin1 := float64(g.Latin1) / 1e6 * math.Pi / 180.0
	latin2 := float64(g.Latin2) / 1e6 * math.Pi / 180.0

	if math.Abs(latin1-latin2) < 1e-9 {
		n = math.Sin(latin1)
	} else {
		n = math.Log(math.Cos(latin1)/math.Cos(latin2)) /
			math.Log(math.Tan((math.Pi/4.0)+(latin2/2.0))/math.Tan((math.Pi/4.0)+(latin1/2.0)))
	}
	f = math.Cos(latin1) * math.Pow(math.Tan((math.Pi/4.0)+(latin1/2.0)), n) / n
	return n, f
}

// project converts a geographic point to projected meters, pole-centered.
func (g *LambertConformalGrid) project(lat, lon float64) (x, y float64) {
	n, f := g.coneConstants()
	latRad := lat * math.Pi / 180.0
	lonVRad := float64(g.LoV) / 1e6 * math.Pi / 180.0

	// Keep theta in (-pi, pi] so grids straddling the antimeridian of the
	// central longitude project continuously.
	dLon := math.Mod(lon*math.Pi/180.0-lonVRad, 2*math.Pi)
	if dLon > math.Pi {
		dLon -= 2 * math.Pi
	} else if dLon < -math.Pi {
		dLon += 2 * math.Pi
	}

	rho := earthRadius * f * math.Pow(math.Tan((math.Pi/4.0)+(latRad/2.0)), -n)
	theta := n * dLon
	return rho * math.Sin(theta), -rho * math.Cos(theta)
}

// stepSizes returns the signed projected-meter steps per i/j increment.
// Dx and Dy are stored in millimeters.
func (g *LambertConformalGrid) stepSizes() (dx, dy float64) {
	dx = float64(g.Dx) / 1000.0
	if g.ScanningMode&0x80 != 0 {
		dx = -dx
	}
	dy = float64(g.Dy) / 1000.0
	if g.ScanningMode&0x40 == 0 {
		dy = -dy
	}
	return dx, dy
}

// Coordinates generates latitude and longitude arrays for all grid points.
//
// The first grid point is forward-projected to anchor the projected-plane
// origin, then every point is inverse-projected from its (i, j) offset.
func (g *LambertConformalGrid) Coordinates() ([]float64, []float64) {
	nPoints := int(g.Nx * g.Ny)
	lats := make([]float64, nPoints)
	lons := make([]float64, nPoints)

	n, f := g.coneConstants()
	lonVRad := float64(g.LoV) / 1e6 * math.Pi / 180.0

	x0, y0 := g.project(float64(g.La1)/1e6, float64(g.Lo1)/1e6)
	dx, dy := g.stepSizes()

	idx := 0
	for j := uint32(0); j < g.Ny; j++ {
		y := y0 + dy*float64(j)
		for i := uint32(0); i < g.Nx; i++ {
			x := x0 + dx*float64(i)

			rho := math.Hypot(x, y)
			if n < 0 {
				rho = -rho
			}
			theta := math.Atan2(x, -y)

			lat := (2.0 * math.Atan(math.Pow((earthRadius*f)/rho, 1.0/n))) - (math.Pi / 2.0)
			lon := lonVRad + (theta / n)

			lats[idx] = lat * 180.0 / math.Pi
			lons[idx] = normalizeLongitude(lon * 180.0 / math.Pi)
			idx++
		}
	}

	return lats, lons
}

// LocationIndices returns the (j, i) grid cell nearest to the given
// geographic point, or ok=false when the point falls outside the grid.
func (g *LambertConformalGrid) LocationIndices(lat, lon float64) (j, i int, ok bool) {
	x0, y0 := g.project(float64(g.La1)/1e6, float64(g.Lo1)/1e6)
	x, y := g.project(lat, lon)
	dx, dy := g.stepSizes()
	if dx == 0 || dy == 0 {
		return 0, 0, false
	}

	i = int(math.Round((x - x0) / dx))
	j = int(math.Round((y - y0) / dy))
	if i < 0 || i >= int(g.Nx) || j < 0 || j >= int(g.Ny) {
		return 0, 0, false
	}
	return j, i, true
}

// String returns a human-readable description.
func (g *LambertConformalGrid) String() string {
	return fmt.Sprintf("Lambert Conformal: %dx%d grid, La1=%.3f, Lo1=%.3f, LoV=%.3f",
		g.Nx, g.Ny,
		float64(g.La1)/1e6, float64(g.Lo1)/1e6, float64(g.LoV)/1e6)
}
