// Package grib decodes WMO GRIB edition 1 and 2 meteorological data files
// into typed messages and xarray-like multi-variable datasets.
//
// Basic usage:
//
//	data, err := os.ReadFile("forecast.grib2")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	msgs, err := ReadWithOptions(bytes.NewReader(data))
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	for _, g := range msgs {
//	    fmt.Printf("%s at %s: %d values\n", g.Parameter, g.Level, len(g.Data))
//	}
//
// Filtering:
//
//	// Only read a specific discipline/center combination.
//	msgs, err := ReadWithOptions(r, WithDiscipline(0), WithCenter(7))
//
// Performance:
//
// ReadWithOptions processes messages in parallel over a bounded worker pool,
// using WithWorkers/WithSequential to control concurrency and WithContext
// for cancellation.
package grib

import "fmt"

// ParseError represents an error during GRIB2 parsing.
// It includes context about where in the file the error occurred.
type ParseError struct {
	Section    int    // Which section (0-7), or -1 if file-level
	Offset     int    // Byte offset in file where error occurred
	Message    string // Description of the error
	Underlying error  // Wrapped error, if any
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	if e.Section == -1 {
		if e.Underlying != nil {
			return fmt.Sprintf("at offset %d: %s: %v", e.Offset, e.Message, e.Underlying)
		}
		return fmt.Sprintf("at offset %d: %s", e.Offset, e.Message)
	}

	if e.Underlying != nil {
		return fmt.Sprintf("section %d at offset %d: %s: %v",
			e.Section, e.Offset, e.Message, e.Underlying)
	}
	return fmt.Sprintf("section %d at offset %d: %s",
		e.Section, e.Offset, e.Message)
}

// Unwrap returns the underlying error, if any.
// This allows errors.Is and errors.As to work correctly.
func (e *ParseError) Unwrap() error {
	return e.Underlying
}

// UnsupportedTemplateError indicates a template number that isn't implemented yet.
type UnsupportedTemplateError struct {
	Section        int // Which section (3=grid, 4=product, 5=data)
	TemplateNumber int // The unsupported template number
}

// Error implements the error interface.
func (e *UnsupportedTemplateError) Error() string {
	sectionName := "unknown"
	switch e.Section {
	case 3:
		sectionName = "grid definition"
	case 4:
		sectionName = "product definition"
	case 5:
		sectionName = "data representation"
	}

	return fmt.Sprintf("unsupported %s template %d in section %d",
		sectionName, e.TemplateNumber, e.Section)
}

// InvalidFormatError indicates that the data is not a valid GRIB2 file.
type InvalidFormatError struct {
	Message string // Description of what's invalid
	Offset  int    // Byte offset where the invalid data was found
}

// Error implements the error interface.
func (e *InvalidFormatError) Error() string {
	return fmt.Sprintf("invalid GRIB2 format at offset %d: %s", e.Offset, e.Message)
}

// MalformedBitmapError indicates that a bitmap section's bit count does not
// match the grid's declared point count.
type MalformedBitmapError struct {
	Expected int
	Actual   int
}

func (e *MalformedBitmapError) Error() string {
	return fmt.Sprintf("bitmap length mismatch: grid declares %d points, bitmap has %d bits", e.Expected, e.Actual)
}

// DatasetConflictError indicates that two messages claim the same slot in a
// variable's member array during dataset assembly.
type DatasetConflictError struct {
	Variable string
	Index    []int
}

func (e *DatasetConflictError) Error() string {
	return fmt.Sprintf("dataset assembly conflict in variable %q at index %v", e.Variable, e.Index)
}
