package data

import (
	"fmt"
	"math"

	"github.com/wxmesh/grib/internal"
)

// Template54 represents Data Representation Template 5.4: IEEE
// Floating Point Data.
//
// Values are stored directly as IEEE 754 numbers with no reference
// value, binary scale, or decimal scale applied — the simplest
// possible packing, used when an encoder chooses not to compress at
// all.
type Template54 struct {
	Precision          uint8  // Precision of floating point numbers (1=32-bit, 2=64-bit)
	NumberOfDataValues uint32 // Number of data values to unpack
}

// ParseTemplate54 parses Data Representation Template 5.4.
//
// The template data should be at least 1 byte for Template 5.4.
func ParseTemplate54(numDataValues uint32, data []byte) (*Template54, error) {
	if len(data) < 1 {
		return nil, fmt.Errorf("template 5.4 requires at least 1 byte, got %d", len(data))
	}

	r := internal.NewReader(data)
	precision, _ := r.Uint8()

	return &Template54{
		Precision:          precision,
		NumberOfDataValues: numDataValues,
	}, nil
}

// TemplateNumber returns 4 for Template 5.4.
func (t *Template54) TemplateNumber() int {
	return 4
}

// NumDataValues returns the number of data values.
func (t *Template54) NumDataValues() uint32 {
	return t.NumberOfDataValues
}

// BitsPerValue returns the bit width implied by the stored precision.
func (t *Template54) BitsPerValue() uint8 {
	if t.Precision == 2 {
		return 64
	}
	return 32
}

// Decode reads the packed IEEE values directly, applying only the
// bitmap (there is no reference value or scale factor to undo).
func (t *Template54) Decode(packedData []byte, bitmap []bool) ([]float64, error) {
	r := internal.NewReader(packedData)

	wordBytes := 4
	if t.Precision == 2 {
		wordBytes = 8
	}

	count := t.NumberOfDataValues
	if bitmap != nil {
		count = uint32(len(bitmap))
	}

	packed := make([]float64, 0, t.NumberOfDataValues)
	for uint32(len(packed)) < t.NumberOfDataValues {
		if r.Remaining() < wordBytes {
			return nil, fmt.Errorf("truncated IEEE packed data: need %d more values", t.NumberOfDataValues-uint32(len(packed)))
		}
		if wordBytes == 8 {
			v, err := r.Float64()
			if err != nil {
				return nil, err
			}
			packed = append(packed, v)
		} else {
			v, err := r.Float32()
			if err != nil {
				return nil, err
			}
			packed = append(packed, float64(v))
		}
	}

	if bitmap == nil {
		return packed, nil
	}

	values := make([]float64, count)
	idx := 0
	for i := range bitmap {
		if bitmap[i] {
			if idx >= len(packed) {
				return nil, fmt.Errorf("bitmap indicates more valid points than packed values available")
			}
			values[i] = packed[idx]
			idx++
		} else {
			values[i] = math.NaN()
		}
	}
	return values, nil
}

// String returns a human-readable description.
func (t *Template54) String() string {
	return fmt.Sprintf("Template 5.4: IEEE Floating Point, %d values, precision=%d", t.NumberOfDataValues, t.Precision)
}
