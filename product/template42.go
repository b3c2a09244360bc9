package product

import (
	"fmt"

	"github.com/wxmesh/grib/internal"
)

// Template42 represents Product Definition Template 4.2: Derived
// forecast based on all ensemble members at a horizontal level or layer
// at a point in time.
type Template42 struct {
	Template40
	DerivedForecastType uint8 // Type of derived forecast (Table 4.7)
	NumberInEnsemble    uint8 // Number of forecasts used to derive the product
}

// ParseTemplate42 parses Product Definition Template 4.2.
//
// The template data should be at least 27 bytes (25 from Template 4.0
// plus 2 derived-forecast-specific bytes).
func ParseTemplate42(data []byte) (*Template42, error) {
	if len(data) < 27 {
		return nil, fmt.Errorf("template 4.2 requires at least 27 bytes, got %d", len(data))
	}

	base, err := ParseTemplate40(data[:25])
	if err != nil {
		return nil, fmt.Errorf("failed to parse embedded template 4.0: %w", err)
	}

	r := internal.NewReader(data[25:])
	derivedType, _ := r.Uint8()
	numberInEnsemble, _ := r.Uint8()

	return &Template42{
		Template40:          *base,
		DerivedForecastType: derivedType,
		NumberInEnsemble:    numberInEnsemble,
	}, nil
}

// TemplateNumber returns 2 for Template 4.2.
func (t *Template42) TemplateNumber() int {
	return 2
}

// EnsembleMember reports the derived-forecast type as the ensemble axis
// position, promoted onto Template412 as well: derived products don't have
// a perturbation number, but the derived-forecast-type code still
// distinguishes members (e.g. mean vs. spread) within a dataset variable.
func (t *Template42) EnsembleMember() (int, bool) {
	return int(t.DerivedForecastType), true
}

// String returns a human-readable description.
func (t *Template42) String() string {
	return fmt.Sprintf("Template 4.2: Category=%d, Parameter=%d, DerivedType=%d, EnsembleSize=%d",
		t.ParameterCategory, t.ParameterNumber, t.DerivedForecastType, t.NumberInEnsemble)
}
