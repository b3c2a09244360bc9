package data

import (
	"fmt"

	"github.com/wxmesh/grib/internal"
)

// Template542 represents Data Representation Template 5.42: CCSDS
// Recommended Lossless Compression (AEC).
//
// Like Template 5.40, the header parses cleanly but the payload is
// compressed with an algorithm (CCSDS 121.0-B adaptive entropy coding)
// this module has no decoder for; Decode reports UnsupportedCodecError.
type Template542 struct {
	ReferenceValue     float32
	BinaryScaleFactor  int16
	DecimalScaleFactor int16
	NumBitsPerValue    uint8
	OriginalFieldType  uint8
	CCSDSFlags         uint8
	BlockSize          uint8
	RSILength          uint8
	NumberOfDataValues uint32
}

// ParseTemplate542 parses Data Representation Template 5.42.
func ParseTemplate542(numDataValues uint32, data []byte) (*Template542, error) {
	if len(data) < 13 {
		return nil, fmt.Errorf("template 5.42 requires at least 13 bytes, got %d", len(data))
	}

	r := internal.NewReader(data)
	referenceValue, _ := r.Float32()
	binaryScaleFactor, _ := r.Int16()
	decimalScaleFactor, _ := r.Int16()
	bitsPerValue, _ := r.Uint8()
	originalFieldType, _ := r.Uint8()
	ccsdsFlags, _ := r.Uint8()
	blockSize, _ := r.Uint8()
	rsiLength, _ := r.Uint8()

	return &Template542{
		ReferenceValue:     referenceValue,
		BinaryScaleFactor:  binaryScaleFactor,
		DecimalScaleFactor: decimalScaleFactor,
		NumBitsPerValue:    bitsPerValue,
		OriginalFieldType:  originalFieldType,
		CCSDSFlags:         ccsdsFlags,
		BlockSize:          blockSize,
		RSILength:          rsiLength,
		NumberOfDataValues: numDataValues,
	}, nil
}

// TemplateNumber returns 42 for Template 5.42.
func (t *Template542) TemplateNumber() int { return 42 }

// NumDataValues returns the number of data values.
func (t *Template542) NumDataValues() uint32 { return t.NumberOfDataValues }

// BitsPerValue returns the number of bits used per value before compression.
func (t *Template542) BitsPerValue() uint8 { return t.NumBitsPerValue }

// Decode always fails: see UnsupportedCodecError.
func (t *Template542) Decode(packedData []byte, bitmap []bool) ([]float64, error) {
	return nil, &UnsupportedCodecError{Template: 42, Codec: "CCSDS"}
}

// String returns a human-readable description.
func (t *Template542) String() string {
	return fmt.Sprintf("Template 5.42: CCSDS, %d values (undecodable, no CCSDS codec wired)", t.NumberOfDataValues)
}
