package grib1

import (
	"fmt"

	"github.com/wxmesh/grib/internal"
)

// Grid represents a GRIB1 grid description. The concrete type depends on the
// data representation type in GDS octet 6 (Table 6).
type Grid interface {
	// RepresentationType returns the Table 6 data representation type.
	RepresentationType() int

	// Dimensions returns the (ni, nj) point counts.
	Dimensions() (ni, nj int)

	// NumPoints returns the total number of grid points.
	NumPoints() int

	// Coordinates returns row-major latitude and longitude arrays for every
	// grid point, longitudes normalized into [0, 360).
	Coordinates() ([]float64, []float64)

	// IsRegular reports whether the grid separates into 1-D latitude and
	// longitude axes.
	IsRegular() bool

	// String returns a human-readable description of the grid.
	String() string
}

// GridDescription represents the GRIB1 Grid Description Section (GDS).
type GridDescription struct {
	Length             uint32 // Total length of this section in bytes
	NV                 uint8  // Number of vertical coordinate parameters
	PV                 uint8  // Location of vertical coordinate list (or 255)
	RepresentationType uint8  // Data representation type (Table 6)
	Grid               Grid   // Parsed grid (type-specific)
}

// ParseGDS parses the GRIB1 Grid Description Section.
//
// GDS structure:
//
//	Bytes 1-3: Length of section
//	Byte 4:    NV, number of vertical coordinate parameters
//	Byte 5:    PV, octet of the vertical coordinate list (255 = none)
//	Byte 6:    Data representation type (Table 6)
//	Bytes 7-n: Grid description (type-specific)
//
// Supported representation types:
//   - 0:  Latitude/Longitude
//   - 1:  Mercator
//   - 3:  Lambert Conformal
//   - 5:  Polar Stereographic
//   - 10: Rotated Latitude/Longitude
func ParseGDS(data []byte) (*GridDescription, error) {
	if len(data) < 32 {
		return nil, fmt.Errorf("GDS must be at least 32 bytes, got %d", len(data))
	}

	r := internal.NewReader(data)

	length, _ := r.Uint24()
	if int(length) > len(data) || length < 7 {
		return nil, fmt.Errorf("GDS length %d is invalid for %d available bytes", length, len(data))
	}

	nv, _ := r.Uint8()
	pv, _ := r.Uint8()
	repType, _ := r.Uint8()

	body, _ := r.BytesNoCopy(int(length) - 6)

	var grid Grid
	var err error

	switch repType {
	case 0:
		grid, err = parseLatLonGrid(body, false)
	case 1:
		grid, err = parseMercatorGrid(body)
	case 3:
		grid, err = parseLambertGrid(body)
	case 5:
		grid, err = parsePolarStereoGrid(body)
	case 10:
		grid, err = parseLatLonGrid(body, true)
	default:
		return nil, fmt.Errorf("unsupported grid representation type: %d", repType)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse grid representation type %d: %w", repType, err)
	}

	return &GridDescription{
		Length:             length,
		NV:                 nv,
		PV:                 pv,
		RepresentationType: repType,
		Grid:               grid,
	}, nil
}
