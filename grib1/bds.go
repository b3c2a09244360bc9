package grib1

import (
	"fmt"
	"math"

	"github.com/wxmesh/grib/internal"
)

// BinaryDataSection represents the GRIB1 Binary Data Section (BDS).
//
// Edition 1 defines a single packing scheme for grid-point data: simple
// packing of n-bit unsigned integers against an IBM-format reference value.
//
//	value = (R + X * 2^E) / 10^D
//
// where D comes from the PDS and R, E, and the bit width come from this
// section.
type BinaryDataSection struct {
	Length            uint32  // Total length of this section in bytes
	Flags             uint8   // Packing flags: the high nibble of octet 4 (its low nibble is UnusedBits)
	UnusedBits        uint8   // Unused bits at the end of the packed data
	BinaryScaleFactor int16   // E (sign-magnitude)
	ReferenceValue    float64 // R, decoded from IBM single precision
	BitsPerValue      uint8   // Bit width of each packed value
	PackedData        []byte  // Raw packed payload
}

// ParseBDS parses the GRIB1 Binary Data Section.
//
// BDS structure:
//
//	Bytes 1-3:  Length of section
//	Byte 4:     Flags (bits 1-4) and number of unused bits (bits 5-8)
//	Bytes 5-6:  Binary scale factor (sign-magnitude)
//	Bytes 7-10: Reference value (IBM 32-bit floating point)
//	Byte 11:    Bits per packed value
//	Bytes 12-n: Packed data
func ParseBDS(data []byte) (*BinaryDataSection, error) {
	if len(data) < 11 {
		return nil, fmt.Errorf("BDS must be at least 11 bytes, got %d", len(data))
	}

	r := internal.NewReader(data)

	length, _ := r.Uint24()
	if int(length) > len(data) || length < 11 {
		return nil, fmt.Errorf("BDS length %d is invalid for %d available bytes", length, len(data))
	}

	flagByte, _ := r.Uint8()
	binaryScale, _ := r.Int16()
	refBits, _ := r.Uint32()
	bitsPerValue, _ := r.Uint8()
	packed, _ := r.BytesNoCopy(int(length) - 11)

	if flagByte&0x80 != 0 {
		return nil, fmt.Errorf("spherical harmonic coefficients are not supported")
	}
	if flagByte&0x40 != 0 {
		return nil, fmt.Errorf("second-order packing is not supported")
	}

	return &BinaryDataSection{
		Length:            length,
		Flags:             flagByte & 0xF0,
		UnusedBits:        flagByte & 0x0F,
		BinaryScaleFactor: binaryScale,
		ReferenceValue:    float64(ibmFloat(refBits)),
		BitsPerValue:      bitsPerValue,
		PackedData:        packed,
	}, nil
}

// Decode unpacks the simple-packed payload into physical values.
//
// decimalScale is the PDS decimal scale factor D and npoints the grid's
// declared point count. If bitmap is non-nil, the packed values are
// scattered to the set positions and clear positions are filled with NaN.
func (s *BinaryDataSection) Decode(decimalScale int16, bitmap []bool, npoints int) ([]float64, error) {
	binaryFactor := math.Pow(2, float64(s.BinaryScaleFactor))
	decimalFactor := math.Pow(10, -float64(decimalScale))

	if bitmap == nil {
		n := npoints
		if s.BitsPerValue > 0 {
			numPacked := (len(s.PackedData)*8 - int(s.UnusedBits)) / int(s.BitsPerValue)
			if n <= 0 || n > numPacked {
				n = numPacked
			}
		}
		values := make([]float64, n)
		if s.BitsPerValue == 0 {
			// Constant field: every value is the reference value.
			constant := s.ReferenceValue * decimalFactor
			for i := range values {
				values[i] = constant
			}
			return values, nil
		}
		br := internal.NewBitReader(s.PackedData)
		for i := range values {
			x, err := br.ReadBits(int(s.BitsPerValue))
			if err != nil {
				return nil, fmt.Errorf("failed to read packed value %d: %w", i, err)
			}
			values[i] = (s.ReferenceValue + float64(x)*binaryFactor) * decimalFactor
		}
		return values, nil
	}

	values := make([]float64, len(bitmap))
	if s.BitsPerValue == 0 {
		constant := s.ReferenceValue * decimalFactor
		for i, present := range bitmap {
			if present {
				values[i] = constant
			} else {
				values[i] = math.NaN()
			}
		}
		return values, nil
	}

	br := internal.NewBitReader(s.PackedData)
	for i, present := range bitmap {
		if !present {
			values[i] = math.NaN()
			continue
		}
		x, err := br.ReadBits(int(s.BitsPerValue))
		if err != nil {
			return nil, fmt.Errorf("bitmap declares more present points than the packed data holds: %w", err)
		}
		values[i] = (s.ReferenceValue + float64(x)*binaryFactor) * decimalFactor
	}
	return values, nil
}

// ibmFloat converts a 32-bit IBM System/360 hexadecimal floating-point
// pattern to a float64. Edition 1 stores reference values this way rather
// than as IEEE 754:
//
//	value = (-1)^s * M * 16^(A-64) * 2^-24
//
// where s is the high bit, A the next 7 bits, and M the 24-bit mantissa.
func ibmFloat(bits uint32) float64 {
	if bits == 0 {
		return 0
	}
	sign := 1.0
	if bits&0x80000000 != 0 {
		sign = -1
	}
	exponent := int((bits >> 24) & 0x7F)
	mantissa := float64(bits & 0x00FFFFFF)
	return sign * mantissa * math.Pow(16, float64(exponent-64)) * math.Pow(2, -24)
}
