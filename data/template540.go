package data

import (
	"fmt"

	"github.com/wxmesh/grib/internal"
)

// UnsupportedCodecError indicates a data representation template whose
// header this package can parse, but whose payload codec it cannot
// decode into values (no JPEG2000/CCSDS decoder is wired into this
// module).
type UnsupportedCodecError struct {
	Template int
	Codec    string
}

func (e *UnsupportedCodecError) Error() string {
	return fmt.Sprintf("data representation template 5.%d uses the %s codec, which is not decoded by this package", e.Template, e.Codec)
}

// Template540 represents Data Representation Template 5.40: JPEG 2000
// Code Stream Format.
//
// The packed bytes are a JPEG2000 codestream, not a simple bitfield;
// without a JPEG2000 decoder in the dependency set this type parses the
// header so callers can still inspect metadata, but Decode reports
// UnsupportedCodecError rather than guessing at the image contents.
type Template540 struct {
	ReferenceValue       float32
	BinaryScaleFactor    int16
	DecimalScaleFactor   int16
	NumBitsPerValue      uint8
	OriginalFieldType    uint8
	CompressionType      uint8
	TargetCompressionRatio uint8
	NumberOfDataValues   uint32
}

// ParseTemplate540 parses Data Representation Template 5.40.
func ParseTemplate540(numDataValues uint32, data []byte) (*Template540, error) {
	if len(data) < 12 {
		return nil, fmt.Errorf("template 5.40 requires at least 12 bytes, got %d", len(data))
	}

	r := internal.NewReader(data)
	referenceValue, _ := r.Float32()
	binaryScaleFactor, _ := r.Int16()
	decimalScaleFactor, _ := r.Int16()
	bitsPerValue, _ := r.Uint8()
	originalFieldType, _ := r.Uint8()
	compressionType, _ := r.Uint8()
	targetRatio, _ := r.Uint8()

	return &Template540{
		ReferenceValue:         referenceValue,
		BinaryScaleFactor:      binaryScaleFactor,
		DecimalScaleFactor:     decimalScaleFactor,
		NumBitsPerValue:        bitsPerValue,
		OriginalFieldType:      originalFieldType,
		CompressionType:        compressionType,
		TargetCompressionRatio: targetRatio,
		NumberOfDataValues:     numDataValues,
	}, nil
}

// TemplateNumber returns 40 for Template 5.40.
func (t *Template540) TemplateNumber() int { return 40 }

// NumDataValues returns the number of data values.
func (t *Template540) NumDataValues() uint32 { return t.NumberOfDataValues }

// BitsPerValue returns the number of bits used per value before compression.
func (t *Template540) BitsPerValue() uint8 { return t.NumBitsPerValue }

// Decode always fails: see UnsupportedCodecError.
func (t *Template540) Decode(packedData []byte, bitmap []bool) ([]float64, error) {
	return nil, &UnsupportedCodecError{Template: 40, Codec: "JPEG2000"}
}

// String returns a human-readable description.
func (t *Template540) String() string {
	return fmt.Sprintf("Template 5.40: JPEG2000, %d values (undecodable, no JPEG2000 codec wired)", t.NumberOfDataValues)
}
