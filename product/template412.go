package product

import (
	"fmt"
)

// Template412 represents Product Definition Template 4.12: Derived
// forecast based on all ensemble members at a horizontal level or layer
// in a continuous or non-continuous time interval.
type Template412 struct {
	Template42
	statisticalTail
}

// ParseTemplate412 parses Product Definition Template 4.12.
func ParseTemplate412(data []byte) (*Template412, error) {
	if len(data) < 39 {
		return nil, fmt.Errorf("template 4.12 requires at least 39 bytes, got %d", len(data))
	}

	base, err := ParseTemplate42(data[:27])
	if err != nil {
		return nil, fmt.Errorf("failed to parse embedded template 4.2: %w", err)
	}

	tail, err := parseStatisticalTail(data[27:])
	if err != nil {
		return nil, fmt.Errorf("failed to parse statistical tail: %w", err)
	}

	return &Template412{Template42: *base, statisticalTail: *tail}, nil
}

// TemplateNumber returns 12 for Template 4.12.
func (t *Template412) TemplateNumber() int {
	return 12
}

// String returns a human-readable description.
func (t *Template412) String() string {
	return fmt.Sprintf("Template 4.12: Category=%d, Parameter=%d, DerivedType=%d, EnsembleSize=%d, Time Ranges=%d",
		t.ParameterCategory, t.ParameterNumber, t.DerivedForecastType, t.NumberInEnsemble, t.NumberOfTimeRanges)
}
