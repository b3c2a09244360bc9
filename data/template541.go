package data

import (
	"fmt"
	"math"

	"github.com/wxmesh/grib/internal"
)

// Template541 represents Data Representation Template 5.41: PNG
// Image Compression.
//
// The data section holds a literal PNG image whose pixels, read in
// raster order, are the simple-packing codes defined by R/E/D in the
// template header. decodePNGGray walks the PNG chunk structure and
// reverses its scanline filters itself, inflating the IDAT stream with
// klauspost/compress/flate rather than the standard library's image/png.
type Template541 struct {
	ReferenceValue     float32 // Reference value (R)
	BinaryScaleFactor  int16   // Binary scale factor (E)
	DecimalScaleFactor int16   // Decimal scale factor (D)
	NumBitsPerValue    uint8   // Number of bits per packed value (n)
	OriginalFieldType  uint8   // Type of original field values (Table 5.1)
	NumberOfDataValues uint32  // Number of data values to unpack
}

// ParseTemplate541 parses Data Representation Template 5.41.
func ParseTemplate541(numDataValues uint32, data []byte) (*Template541, error) {
	if len(data) < 10 {
		return nil, fmt.Errorf("template 5.41 requires at least 10 bytes, got %d", len(data))
	}

	r := internal.NewReader(data)

	referenceValue, _ := r.Float32()
	binaryScaleFactor, _ := r.Int16()
	decimalScaleFactor, _ := r.Int16()
	bitsPerValue, _ := r.Uint8()
	originalFieldType, _ := r.Uint8()

	return &Template541{
		ReferenceValue:     referenceValue,
		BinaryScaleFactor:  binaryScaleFactor,
		DecimalScaleFactor: decimalScaleFactor,
		NumBitsPerValue:    bitsPerValue,
		OriginalFieldType:  originalFieldType,
		NumberOfDataValues: numDataValues,
	}, nil
}

// TemplateNumber returns 41 for Template 5.41.
func (t *Template541) TemplateNumber() int { return 41 }

// NumDataValues returns the number of data values.
func (t *Template541) NumDataValues() uint32 { return t.NumberOfDataValues }

// BitsPerValue returns the number of bits per value.
func (t *Template541) BitsPerValue() uint8 { return t.NumBitsPerValue }

// Decode decodes the embedded PNG image and applies the simple packing
// scaling formula to each pixel value, in raster order.
func (t *Template541) Decode(packedData []byte, bitmap []bool) ([]float64, error) {
	img, err := decodePNGGray(packedData)
	if err != nil {
		return nil, fmt.Errorf("template 5.41: failed to decode PNG payload: %w", err)
	}

	packed := img.samples
	if uint32(len(packed)) > t.NumberOfDataValues {
		packed = packed[:t.NumberOfDataValues]
	}

	if bitmap == nil {
		values := make([]float64, len(packed))
		for i, p := range packed {
			values[i] = t.applyScaling(p)
		}
		return values, nil
	}

	values := make([]float64, len(bitmap))
	idx := 0
	for i := range bitmap {
		if bitmap[i] {
			if idx >= len(packed) {
				return nil, fmt.Errorf("template 5.41: bitmap indicates more valid points than decoded pixels")
			}
			values[i] = t.applyScaling(packed[idx])
			idx++
		} else {
			values[i] = math.NaN()
		}
	}
	return values, nil
}

// applyScaling applies the scaling formula to a packed value.
//
// Formula: value = (R + X * 2^E) / 10^D
func (t *Template541) applyScaling(packedValue uint32) float64 {
	value := float64(t.ReferenceValue)

	if packedValue != 0 {
		binaryScale := math.Pow(2.0, float64(t.BinaryScaleFactor))
		value += float64(packedValue) * binaryScale
	}

	if t.DecimalScaleFactor != 0 {
		decimalScale := math.Pow(10.0, float64(t.DecimalScaleFactor))
		value /= decimalScale
	}

	return value
}

// String returns a human-readable description.
func (t *Template541) String() string {
	return fmt.Sprintf("Template 5.41: PNG, %d values, R=%g, E=%d, D=%d",
		t.NumberOfDataValues, t.ReferenceValue, t.BinaryScaleFactor, t.DecimalScaleFactor)
}
