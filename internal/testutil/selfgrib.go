// Package testutil provides utilities for testing GRIB parsing against reference implementations.
package testutil

import (
	"bytes"
	"fmt"
	"os"

	"github.com/wxmesh/grib"
)

// ParseSelf parses a GRIB file using this module's own reader.
//
// Returns a map of field keys (parameter:level) to FieldData structures.
func ParseSelf(gribFile string) (map[string]*FieldData, error) {
	data, err := os.ReadFile(gribFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %v", err)
	}

	fields, err := grib.Read(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("grib parse failed: %v", err)
	}

	fieldMap := make(map[string]*FieldData)

	for _, field := range fields {
		key := fmt.Sprintf("%s:%s", field.Parameter, field.Level)

		fd := &FieldData{
			RefTime:    field.ReferenceTime,
			VerTime:    field.ReferenceTime,
			Field:      field.Parameter.String(),
			Level:      field.Level,
			Latitudes:  toFloat64(field.Latitudes),
			Longitudes: toFloat64(field.Longitudes),
			Values:     toFloat64(field.Data),
			Source:     "grib",
		}

		fieldMap[key] = fd
	}

	return fieldMap, nil
}

func toFloat64(in []float32) []float64 {
	out := make([]float64, len(in))
	for i, v := range in {
		out[i] = float64(v)
	}
	return out
}
