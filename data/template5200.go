package data

import (
	"fmt"

	"github.com/wxmesh/grib/internal"
)

// Template5200 represents Data Representation Template 5.200: Grid
// point data - run length packing with level values.
//
// Rather than packing one n-bit code per grid point, the field is
// described as a table of discrete level values plus a stream of codes
// where a code in [1, MaxLevel] selects the current level and any code
// above MaxLevel extends the run of the current level. This is the
// scheme used by NWS radar mosaics and similar categorical products.
type Template5200 struct {
	LevelValues              []uint16 // Scaled value for each level, in level order
	MissingValueManagement   uint8    // Missing value management
	PrimaryMissingValue      uint8    // Primary missing value substitute
	SecondaryMissingValue    uint8    // Secondary missing value substitute
	NumBitsLevelValues       uint8    // Number of bits used for level values
	NumBitsRunLengths        uint8    // Number of bits used for run lengths
	MaxLevelValue            uint16   // Maximum value within the level values table
	MaxRunLengthBits         uint8    // Maximum number of bits for a run length code
	NumberOfDataValues       uint32   // Total number of grid points described
}

// ParseTemplate5200 parses Data Representation Template 5.200.
func ParseTemplate5200(numDataValues uint32, data []byte) (*Template5200, error) {
	if len(data) < 6 {
		return nil, fmt.Errorf("template 5.200 requires at least 6 bytes, got %d", len(data))
	}

	r := internal.NewReader(data)

	numLevels, _ := r.Uint8()
	missingValueManagement, _ := r.Uint8()
	primaryMissing, _ := r.Uint8()
	secondaryMissing, _ := r.Uint8()
	numBitsLevelValues, _ := r.Uint8()

	expectedLen := 5 + int(numLevels)*2 + 4
	if len(data) < expectedLen {
		return nil, fmt.Errorf("template 5.200 with %d levels requires %d bytes, got %d", numLevels, expectedLen, len(data))
	}

	levelValues := make([]uint16, numLevels)
	for i := uint8(0); i < numLevels; i++ {
		v, _ := r.Uint16()
		levelValues[i] = v
	}

	numBitsRunLengths, _ := r.Uint8()
	maxLevelValue, _ := r.Uint16()
	maxRunLengthBits, _ := r.Uint8()

	return &Template5200{
		LevelValues:            levelValues,
		MissingValueManagement: missingValueManagement,
		PrimaryMissingValue:    primaryMissing,
		SecondaryMissingValue:  secondaryMissing,
		NumBitsLevelValues:     numBitsLevelValues,
		NumBitsRunLengths:      numBitsRunLengths,
		MaxLevelValue:          maxLevelValue,
		MaxRunLengthBits:       maxRunLengthBits,
		NumberOfDataValues:     numDataValues,
	}, nil
}

// TemplateNumber returns 200 for Template 5.200.
func (t *Template5200) TemplateNumber() int {
	return 200
}

// NumDataValues returns the number of data values.
func (t *Template5200) NumDataValues() uint32 {
	return t.NumberOfDataValues
}

// BitsPerValue returns the number of bits used for each run-length code.
func (t *Template5200) BitsPerValue() uint8 {
	return t.NumBitsLevelValues
}

// Decode expands the run-length stream into one value per grid point.
//
// The bitmap parameter is ignored: run-length packing has no concept of
// a separate bitmap section, since every point is covered by exactly
// one run.
func (t *Template5200) Decode(packedData []byte, bitmap []bool) ([]float64, error) {
	if t.NumBitsLevelValues == 0 || len(t.LevelValues) == 0 {
		return nil, fmt.Errorf("template 5.200: no level table to decode against")
	}

	br := internal.NewBitReader(packedData)

	maxLevel := uint64(t.MaxLevelValue)
	factor := uint64(1)
	run := uint64(0)
	haveLevel := false
	var currentLevel uint64

	values := make([]float64, 0, t.NumberOfDataValues)

	flush := func() {
		if !haveLevel {
			return
		}
		levelValue := float64(0)
		if currentLevel >= 1 && int(currentLevel) <= len(t.LevelValues) {
			levelValue = float64(t.LevelValues[currentLevel-1])
		}
		for i := uint64(0); i < run; i++ {
			values = append(values, levelValue)
		}
	}

	for uint32(len(values)) < t.NumberOfDataValues {
		v, err := br.ReadBits(int(t.NumBitsLevelValues))
		if err != nil {
			break
		}
		if v > maxLevel {
			// Run-length extension: widen the current run using the
			// excess over the level range as a base-(2^n - 1 - maxLevel)
			// digit, least significant digit first.
			base := (uint64(1) << t.NumBitsLevelValues) - 1 - maxLevel
			run += (v - maxLevel - 1) * factor
			if base > 0 {
				factor *= base
			}
			continue
		}

		flush()
		currentLevel = v
		haveLevel = true
		run = 1
		factor = 1
	}
	flush()

	if uint32(len(values)) > t.NumberOfDataValues {
		values = values[:t.NumberOfDataValues]
	}

	return values, nil
}

// String returns a human-readable description.
func (t *Template5200) String() string {
	return fmt.Sprintf("Template 5.200: Run Length Packing, %d values, %d levels",
		t.NumberOfDataValues, len(t.LevelValues))
}
