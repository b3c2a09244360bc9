package grib1

import (
	"fmt"

	"github.com/wxmesh/grib/internal"
)

// BitMapSection represents the GRIB1 Bit Map Section (BMS). A set bit marks
// a grid point whose value is present in the Binary Data Section; a clear
// bit marks a missing point.
type BitMapSection struct {
	Length        uint32 // Total length of this section in bytes
	UnusedBits    uint8  // Unused bits at the end of the bitmap
	TableRef      uint16 // 0: bitmap follows; otherwise a predefined bitmap id
	Bitmap        []bool // One entry per grid point (nil for predefined bitmaps)
}

// ParseBMS parses the GRIB1 Bit Map Section.
//
// BMS structure:
//
//	Bytes 1-3: Length of section
//	Byte 4:    Number of unused bits at the end of the bitmap
//	Bytes 5-6: Table reference (0 means the bitmap follows)
//	Bytes 7-n: Bitmap, one bit per grid point
func ParseBMS(data []byte) (*BitMapSection, error) {
	if len(data) < 6 {
		return nil, fmt.Errorf("BMS must be at least 6 bytes, got %d", len(data))
	}

	r := internal.NewReader(data)

	length, _ := r.Uint24()
	if int(length) > len(data) || length < 6 {
		return nil, fmt.Errorf("BMS length %d is invalid for %d available bytes", length, len(data))
	}

	unusedBits, _ := r.Uint8()
	tableRef, _ := r.Uint16()

	s := &BitMapSection{
		Length:     length,
		UnusedBits: unusedBits,
		TableRef:   tableRef,
	}

	if tableRef != 0 {
		// Predefined (center-catalogued) bitmap; nothing to expand here.
		return s, nil
	}

	bitmapBytes, _ := r.BytesNoCopy(int(length) - 6)
	numBits := len(bitmapBytes)*8 - int(unusedBits)
	if numBits < 0 {
		return nil, fmt.Errorf("BMS declares %d unused bits but holds only %d", unusedBits, len(bitmapBytes)*8)
	}

	s.Bitmap = make([]bool, numBits)
	for i := 0; i < numBits; i++ {
		s.Bitmap[i] = bitmapBytes[i/8]&(0x80>>(i%8)) != 0
	}
	return s, nil
}

// CountSet returns the number of present (set) points.
func (s *BitMapSection) CountSet() int {
	count := 0
	for _, b := range s.Bitmap {
		if b {
			count++
		}
	}
	return count
}
