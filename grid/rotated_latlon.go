package grid

import (
	"fmt"

	"github.com/wxmesh/grib/internal"
)

// RotatedLatLonGrid represents Grid Definition Template 3.1: Rotated
// Latitude/Longitude.
//
// The grid is defined exactly as Template 3.0, but the pole of the
// coordinate system has been rotated to a point other than the
// geographic pole, which is how limited-area models keep their grid
// spacing roughly uniform near the equator of the rotated system.
type RotatedLatLonGrid struct {
	LatLonGrid
	LatSouthPole   int32 // Latitude of the southern pole of projection (microdegrees)
	LonSouthPole   int32 // Longitude of the southern pole of projection (microdegrees)
	AngleRotation  int32 // Angle of rotation of projection (microdegrees)
}

// ParseRotatedLatLonGrid parses Grid Definition Template 3.1.
func ParseRotatedLatLonGrid(data []byte) (*RotatedLatLonGrid, error) {
	if len(data) < 84 {
		return nil, fmt.Errorf("template 3.1 requires at least 84 bytes, got %d", len(data))
	}

	base, err := ParseLatLonGrid(data[:72])
	if err != nil {
		return nil, fmt.Errorf("failed to parse embedded lat/lon grid: %w", err)
	}

	r := internal.NewReader(data[72:])
	latSP, _ := r.Int32()
	lonSP, _ := r.Int32()
	angle, _ := r.Int32()

	return &RotatedLatLonGrid{
		LatLonGrid:    *base,
		LatSouthPole:  latSP,
		LonSouthPole:  lonSP,
		AngleRotation: angle,
	}, nil
}

// TemplateNumber returns 1 for Rotated Lat/Lon grids.
func (g *RotatedLatLonGrid) TemplateNumber() int {
	return 1
}

// GridType returns "Rotated Latitude/Longitude".
func (g *RotatedLatLonGrid) GridType() string {
	return "Rotated Latitude/Longitude"
}

// SouthPole returns the latitude and longitude of the rotated south pole,
// in degrees.
func (g *RotatedLatLonGrid) SouthPole() (lat, lon float64) {
	return float64(g.LatSouthPole) / 1e6, float64(g.LonSouthPole) / 1e6
}

// String returns a human-readable description.
func (g *RotatedLatLonGrid) String() string {
	lat, lon := g.SouthPole()
	return fmt.Sprintf("Rotated Lat/Lon grid: %d x %d points, south pole at (%.3f°, %.3f°)",
		g.Ni, g.Nj, lat, lon)
}
