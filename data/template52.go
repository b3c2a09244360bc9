package data

import (
	"fmt"
	"math"

	"github.com/wxmesh/grib/internal"
)

// Template52 represents Data Representation Template 5.2: Complex
// Packing (without spatial differencing).
//
// Like Template 5.3 the data is split into groups that are each packed
// with only as many bits as their own range requires, but no spatial
// differencing is applied first.
type Template52 struct {
	ReferenceValue         float32 // Reference value (R)
	BinaryScaleFactor      int16   // Binary scale factor (E)
	DecimalScaleFactor     int16   // Decimal scale factor (D)
	NumBitsPerValue        uint8   // Number of bits for each value (before grouping)
	OriginalFieldType      uint8   // Type of original field values (Table 5.1)
	GroupSplittingMethod   uint8   // Method used to split data into groups (Table 5.4)
	MissingValueManagement uint8   // Missing value management (Table 5.5)
	PrimaryMissingValue    float32 // Primary missing value substitute
	SecondaryMissingValue  float32 // Secondary missing value substitute
	NumberOfGroups         uint32  // Number of groups
	ReferenceGroupWidth    uint8   // Reference for group widths
	NumBitsGroupWidth      uint8   // Number of bits for group widths
	ReferenceGroupLength   uint32  // Reference for group lengths
	GroupLengthIncrement   uint8   // Increment for group lengths
	TrueLengthLastGroup    uint32  // True length of last group
	NumBitsGroupLength     uint8   // Number of bits for scaled group lengths
	NumberOfDataValues     uint32  // Total number of data values to unpack
}

// ParseTemplate52 parses Data Representation Template 5.2.
//
// The template data should be at least 36 bytes for Template 5.2.
func ParseTemplate52(numDataValues uint32, data []byte) (*Template52, error) {
	if len(data) < 36 {
		return nil, fmt.Errorf("template 5.2 requires at least 36 bytes, got %d", len(data))
	}

	r := internal.NewReader(data)

	referenceValue, _ := r.Float32()
	binaryScaleFactor, _ := r.Int16()
	decimalScaleFactor, _ := r.Int16()
	bitsPerValue, _ := r.Uint8()
	originalFieldType, _ := r.Uint8()
	groupSplittingMethod, _ := r.Uint8()
	missingValueManagement, _ := r.Uint8()
	primaryMissingValue, _ := r.Float32()
	secondaryMissingValue, _ := r.Float32()
	numberOfGroups, _ := r.Uint32()
	referenceGroupWidth, _ := r.Uint8()
	numBitsGroupWidth, _ := r.Uint8()
	referenceGroupLength, _ := r.Uint32()
	groupLengthIncrement, _ := r.Uint8()
	trueLengthLastGroup, _ := r.Uint32()
	numBitsGroupLength, _ := r.Uint8()

	return &Template52{
		ReferenceValue:         referenceValue,
		BinaryScaleFactor:      binaryScaleFactor,
		DecimalScaleFactor:     decimalScaleFactor,
		NumBitsPerValue:        bitsPerValue,
		OriginalFieldType:      originalFieldType,
		GroupSplittingMethod:   groupSplittingMethod,
		MissingValueManagement: missingValueManagement,
		PrimaryMissingValue:    primaryMissingValue,
		SecondaryMissingValue:  secondaryMissingValue,
		NumberOfGroups:         numberOfGroups,
		ReferenceGroupWidth:    referenceGroupWidth,
		NumBitsGroupWidth:      numBitsGroupWidth,
		ReferenceGroupLength:   referenceGroupLength,
		GroupLengthIncrement:   groupLengthIncrement,
		TrueLengthLastGroup:    trueLengthLastGroup,
		NumBitsGroupLength:     numBitsGroupLength,
		NumberOfDataValues:     numDataValues,
	}, nil
}

// TemplateNumber returns 2 for Template 5.2.
func (t *Template52) TemplateNumber() int {
	return 2
}

// NumDataValues returns the number of data values.
func (t *Template52) NumDataValues() uint32 {
	return t.NumberOfDataValues
}

// BitsPerValue returns the number of bits per value.
func (t *Template52) BitsPerValue() uint8 {
	return t.NumBitsPerValue
}

// Decode unpacks data using complex packing without spatial differencing.
func (t *Template52) Decode(packedData []byte, bitmap []bool) ([]float64, error) {
	if len(packedData) == 0 {
		return nil, fmt.Errorf("no packed data to decode")
	}

	bitReader := internal.NewBitReader(packedData)

	ndata := t.NumberOfDataValues
	if bitmap != nil {
		ndata = uint32(len(bitmap))
	}

	groupMinVals := make([]int32, t.NumberOfGroups)
	for i := uint32(0); i < t.NumberOfGroups; i++ {
		val, err := bitReader.ReadBits(int(t.NumBitsPerValue))
		if err != nil {
			return nil, fmt.Errorf("failed to read group min value %d: %w", i, err)
		}
		groupMinVals[i] = int32(val)
	}

	groupWidths := make([]uint8, t.NumberOfGroups)
	if t.NumBitsGroupWidth > 0 {
		for i := uint32(0); i < t.NumberOfGroups; i++ {
			val, err := bitReader.ReadBits(int(t.NumBitsGroupWidth))
			if err != nil {
				return nil, fmt.Errorf("failed to read group width %d: %w", i, err)
			}
			groupWidths[i] = uint8(val) + t.ReferenceGroupWidth
		}
	} else {
		for i := uint32(0); i < t.NumberOfGroups; i++ {
			groupWidths[i] = t.ReferenceGroupWidth
		}
	}

	groupLengths := make([]uint32, t.NumberOfGroups)
	if t.NumBitsGroupLength > 0 {
		for i := uint32(0); i < t.NumberOfGroups; i++ {
			val, err := bitReader.ReadBits(int(t.NumBitsGroupLength))
			if err != nil {
				return nil, fmt.Errorf("failed to read group length %d: %w", i, err)
			}
			groupLengths[i] = t.ReferenceGroupLength + uint32(val)*uint32(t.GroupLengthIncrement)
		}
		if t.NumberOfGroups > 0 {
			groupLengths[t.NumberOfGroups-1] = t.TrueLengthLastGroup
		}
	} else {
		for i := uint32(0); i < t.NumberOfGroups; i++ {
			groupLengths[i] = t.ReferenceGroupLength
		}
		if t.NumberOfGroups > 0 {
			groupLengths[t.NumberOfGroups-1] = t.TrueLengthLastGroup
		}
	}

	// Missing value management (Table 5.5): when active, sentinel bit
	// patterns inside the groups mark primary (and, for mode 2, secondary)
	// missing points instead of data.
	mvm := t.MissingValueManagement == 1 || t.MissingValueManagement == 2
	var missing []bool
	if mvm {
		missing = make([]bool, 0, ndata)
	}

	unpackedVals := make([]int32, 0, ndata)
	for i := uint32(0); i < t.NumberOfGroups; i++ {
		groupWidth := groupWidths[i]
		groupLength := groupLengths[i]
		groupMin := groupMinVals[i]

		// A zero-width group with an all-ones reference is a whole group of
		// missing points.
		groupMissing := mvm && groupWidth == 0 &&
			groupSentinel(uint64(uint32(groupMin)), t.NumBitsPerValue, t.MissingValueManagement)

		for j := uint32(0); j < groupLength; j++ {
			if uint32(len(unpackedVals)) >= ndata {
				break
			}
			if groupWidth == 0 {
				unpackedVals = append(unpackedVals, groupMin)
				if mvm {
					missing = append(missing, groupMissing)
				}
			} else {
				val, err := bitReader.ReadBits(int(groupWidth))
				if err != nil {
					return nil, fmt.Errorf("failed to read value in group %d: %w", i, err)
				}
				unpackedVals = append(unpackedVals, groupMin+int32(val))
				if mvm {
					missing = append(missing, groupSentinel(val, groupWidth, t.MissingValueManagement))
				}
			}
		}
	}

	if bitmap != nil {
		return t.applyScalingWithBitmap(unpackedVals, missing, bitmap)
	}
	return t.applyScalingWithoutBitmap(unpackedVals, missing), nil
}

// groupSentinel reports whether a raw group value of the given bit width is
// a missing-value sentinel: all bits set marks primary missing, and under
// management mode 2 all bits set minus one marks secondary missing.
func groupSentinel(val uint64, width uint8, management uint8) bool {
	if width == 0 || width > 63 {
		return false
	}
	allOnes := uint64(1)<<width - 1
	if val == allOnes {
		return true
	}
	return management == 2 && val == allOnes-1
}

func (t *Template52) applyScalingWithoutBitmap(packedValues []int32, missing []bool) []float64 {
	values := make([]float64, len(packedValues))
	for i, packed := range packedValues {
		if missing != nil && missing[i] {
			values[i] = math.NaN()
			continue
		}
		values[i] = t.applyScaling(packed)
	}
	return values
}

func (t *Template52) applyScalingWithBitmap(packedValues []int32, missing []bool, bitmap []bool) ([]float64, error) {
	if len(packedValues) > len(bitmap) {
		return nil, fmt.Errorf("more packed values (%d) than bitmap entries (%d)",
			len(packedValues), len(bitmap))
	}

	values := make([]float64, len(bitmap))
	packedIdx := 0

	for i := range bitmap {
		if bitmap[i] {
			if packedIdx >= len(packedValues) {
				return nil, fmt.Errorf("bitmap indicates more valid points than packed values available")
			}
			if missing != nil && missing[packedIdx] {
				values[i] = math.NaN()
			} else {
				values[i] = t.applyScaling(packedValues[packedIdx])
			}
			packedIdx++
		} else {
			values[i] = math.NaN()
		}
	}

	if packedIdx != len(packedValues) {
		return nil, fmt.Errorf("bitmap mismatch: used %d packed values, have %d",
			packedIdx, len(packedValues))
	}

	return values, nil
}

// applyScaling applies the scaling formula to a packed value.
//
// Formula: value = (R + X * 2^E) / 10^D
func (t *Template52) applyScaling(packedValue int32) float64 {
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
func (t *Template52) String() string {
	return fmt.Sprintf("Template 5.2: Complex Packing, %d values, %d groups, R=%g, E=%d, D=%d",
		t.NumberOfDataValues, t.NumberOfGroups, t.ReferenceValue,
		t.BinaryScaleFactor, t.DecimalScaleFactor)
}
