// Package grid provides grid definition types and parsers for GRIB2.
package grid

// earthRadius is the spherical earth radius in meters assumed by the
// projection math (GRIB shape-of-earth code 6).
const earthRadius = 6371229.0

// Grid represents a GRIB2 grid definition.
// Different grid templates implement this interface.
type Grid interface {
	// TemplateNumber returns the grid definition template number (Table 3.1).
	TemplateNumber() int

	// NumPoints returns the total number of grid points.
	NumPoints() int

	// IsRegular reports whether the grid separates into a 1-D latitude
	// axis and a 1-D longitude axis.
	IsRegular() bool

	// String returns a human-readable description of the grid.
	String() string
}

// Locator is implemented by grids that can map a geographic point back to
// the nearest grid cell. The returned indices are (row, column) in the
// grid's native scan order.
type Locator interface {
	LocationIndices(lat, lon float64) (j, i int, ok bool)
}
