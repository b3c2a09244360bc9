package grid

import (
	"fmt"

	"github.com/wxmesh/grib/internal"
)

// UnstructuredGrid represents Grid Definition Template 3.101: a general
// unstructured grid (e.g. ICON's icosahedral mesh).
//
// The template carries only a reference to an externally published grid
// description; the point coordinates themselves are not encoded in the
// message, so this type reports shape and identity but cannot generate
// latitudes or longitudes.
type UnstructuredGrid struct {
	NumberOfGridUsed    uint8    // Number of the grid in the reference table
	NumberOfGridInRef   uint8    // Grid position within the reference
	UUID                [16]byte // UUID of the horizontal grid description
	NumberOfDataPoints  uint32   // Total point count, from the enclosing section
}

// ParseUnstructuredGrid parses Grid Definition Template 3.101. The point
// count comes from the enclosing section 3 header, since the template
// body itself doesn't repeat it.
func ParseUnstructuredGrid(numDataPoints uint32, data []byte) (*UnstructuredGrid, error) {
	if len(data) < 19 {
		return nil, fmt.Errorf("template 3.101 requires at least 19 bytes, got %d", len(data))
	}

	r := internal.NewReader(data)

	// Octet 15: shape of the earth.
	r.Skip(1)
	numberOfGridUsed, _ := r.Uint8()
	numberOfGridInRef, _ := r.Uint8()
	uuidBytes, _ := r.Bytes(16)

	g := &UnstructuredGrid{
		NumberOfGridUsed:   numberOfGridUsed,
		NumberOfGridInRef:  numberOfGridInRef,
		NumberOfDataPoints: numDataPoints,
	}
	copy(g.UUID[:], uuidBytes)
	return g, nil
}

// TemplateNumber returns 101 for unstructured grids.
func (g *UnstructuredGrid) TemplateNumber() int {
	return 101
}

// NumPoints returns the total number of grid points.
func (g *UnstructuredGrid) NumPoints() int {
	return int(g.NumberOfDataPoints)
}

// IsRegular reports false: an unstructured mesh has no separable axes.
func (g *UnstructuredGrid) IsRegular() bool {
	return false
}

// String returns a human-readable description of the grid.
func (g *UnstructuredGrid) String() string {
	return fmt.Sprintf("Unstructured grid: %d points, grid %d/%d, uuid %x",
		g.NumberOfDataPoints, g.NumberOfGridUsed, g.NumberOfGridInRef, g.UUID)
}
