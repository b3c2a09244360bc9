package product

import (
	"fmt"

	"github.com/wxmesh/grib/internal"
)

// Template41 represents Product Definition Template 4.1: Individual
// ensemble forecast, control and perturbed, at a horizontal level or
// layer at a point in time.
type Template41 struct {
	Template40
	EnsembleType        uint8 // Type of ensemble forecast (Table 4.6)
	PerturbationNumber  uint8 // Perturbation number
	NumberInEnsemble    uint8 // Number of forecasts in the ensemble
}

// ParseTemplate41 parses Product Definition Template 4.1.
//
// The template data should be at least 28 bytes (25 from Template 4.0
// plus 3 ensemble-specific bytes).
func ParseTemplate41(data []byte) (*Template41, error) {
	if len(data) < 28 {
		return nil, fmt.Errorf("template 4.1 requires at least 28 bytes, got %d", len(data))
	}

	base, err := ParseTemplate40(data[:25])
	if err != nil {
		return nil, fmt.Errorf("failed to parse embedded template 4.0: %w", err)
	}

	r := internal.NewReader(data[25:])
	ensembleType, _ := r.Uint8()
	perturbationNumber, _ := r.Uint8()
	numberInEnsemble, _ := r.Uint8()

	return &Template41{
		Template40:         *base,
		EnsembleType:       ensembleType,
		PerturbationNumber: perturbationNumber,
		NumberInEnsemble:   numberInEnsemble,
	}, nil
}

// TemplateNumber returns 1 for Template 4.1.
func (t *Template41) TemplateNumber() int {
	return 1
}

// EnsembleMember identifies this message's position within an ensemble,
// promoted onto Template411 as well. Used to build the ensemble dimension
// when assembling a dataset out of individual ensemble members.
func (t *Template41) EnsembleMember() (int, bool) {
	return int(t.PerturbationNumber), true
}

// String returns a human-readable description.
func (t *Template41) String() string {
	return fmt.Sprintf("Template 4.1: Category=%d, Parameter=%d, EnsembleType=%d, Perturbation=%d/%d",
		t.ParameterCategory, t.ParameterNumber, t.EnsembleType, t.PerturbationNumber, t.NumberInEnsemble)
}
