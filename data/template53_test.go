package data

import (
	"math"
	"testing"
)

func TestTemplate53DecodeMissingFirstOrder(t *testing.T) {
	// First-order spatial differencing with missing value management 1:
	// the groups code every point, the all-ones pattern marks missing,
	// the seed substitutes the first non-missing point, and the
	// difference recurrence chains over non-missing points only.
	tmpl := &Template53{
		ReferenceValue:            0,
		BinaryScaleFactor:         0,
		DecimalScaleFactor:        0,
		NumBitsPerValue:           8,
		MissingValueManagement:    1,
		NumberOfGroups:            1,
		ReferenceGroupWidth:       4,
		NumBitsGroupWidth:         0,
		ReferenceGroupLength:      5,
		NumBitsGroupLength:        0,
		TrueLengthLastGroup:       5,
		SpatialDiffOrder:          1,
		NumOctetsExtraDescriptors: 1,
		NumberOfDataValues:        5,
	}

	packed := []byte{
		0x64,             // seed value: 100
		0x00,             // overall minimum: 0
		0x00,             // group reference: 0
		0x02, 0xF3, 0x10, // differences 0, 2, 15, 3, 1 at 4 bits (15 = missing)
	}

	values, err := tmpl.Decode(packed, nil)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if len(values) != 5 {
		t.Fatalf("got %d values, want 5", len(values))
	}

	// Reconstruction: 100 (seed), 100+2, missing, 102+3, 105+1.
	expected := []float64{100, 102, math.NaN(), 105, 106}
	for i, exp := range expected {
		if math.IsNaN(exp) {
			if !math.IsNaN(values[i]) {
				t.Errorf("value[%d]: got %g, want NaN", i, values[i])
			}
			continue
		}
		if math.Abs(values[i]-exp) > 1e-9 {
			t.Errorf("value[%d]: got %g, want %g", i, values[i], exp)
		}
	}
}

func TestTemplate53DecodeMissingSecondOrder(t *testing.T) {
	// Second-order differencing: both seeds land on the first two
	// non-missing points, with a missing point in between.
	tmpl := &Template53{
		NumBitsPerValue:           8,
		MissingValueManagement:    1,
		NumberOfGroups:            1,
		ReferenceGroupWidth:       4,
		ReferenceGroupLength:      5,
		TrueLengthLastGroup:       5,
		SpatialDiffOrder:          2,
		NumOctetsExtraDescriptors: 1,
		NumberOfDataValues:        5,
	}

	packed := []byte{
		0x0A, 0x0C, // seed values: 10, 12
		0x00,             // overall minimum: 0
		0x00,             // group reference: 0
		0x0F, 0x01, 0x20, // values 0, 15, 0, 1, 2 at 4 bits (15 = missing)
	}

	values, err := tmpl.Decode(packed, nil)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	// Non-missing sequence: 10 (seed), 12 (seed), 1+2*12-10=15, 2+2*15-12=20.
	expected := []float64{10, math.NaN(), 12, 15, 20}
	for i, exp := range expected {
		if math.IsNaN(exp) {
			if !math.IsNaN(values[i]) {
				t.Errorf("value[%d]: got %g, want NaN", i, values[i])
			}
			continue
		}
		if math.Abs(values[i]-exp) > 1e-9 {
			t.Errorf("value[%d]: got %g, want %g", i, values[i], exp)
		}
	}
}
