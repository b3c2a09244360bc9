package grib1

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIBMFloat(t *testing.T) {
	tests := []struct {
		name string
		bits uint32
		want float64
	}{
		{"zero", 0x00000000, 0},
		{"one", 0x41100000, 1},
		{"hundred", 0x42640000, 100},
		{"negative one", 0xC1100000, -1},
		{"half", 0x40800000, 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, ibmFloat(tt.bits), 1e-9)
		})
	}
}

// testMessage builds a minimal edition-1 message: TMP at 2 m above ground on
// a 3x2 one-degree lat/lon grid, simple-packed at 8 bits against an IBM
// reference value of 100.
func testMessage() []byte {
	msg := []byte{
		// Indicator section (8 bytes)
		'G', 'R', 'I', 'B',
		0x00, 0x00, 90, // total message length
		1, // edition

		// PDS (28 bytes)
		0x00, 0x00, 28, // section length
		2,          // parameter table version
		7,          // center: NCEP
		96,         // generating process
		255,        // grid id
		0x80,       // flags: GDS present, no BMS
		11,         // parameter: TMP
		105,        // level type: height above ground
		0x00, 0x02, // level value: 2 m
		23, 1, 15, 12, 0, // reference time 2023-01-15 12:00
		1,          // time unit: hours
		6,          // P1
		0,          // P2
		0,          // time range indicator
		0x00, 0x00, // number in average
		0,    // number missing
		21,   // century
		0,    // sub-center
		0, 0, // decimal scale factor

		// GDS (32 bytes)
		0x00, 0x00, 32, // section length
		0,   // NV
		255, // PV: none
		0,   // representation type: lat/lon
		0x00, 0x03, // Ni = 3
		0x00, 0x02, // Nj = 2
		0x00, 0x00, 0x00, // La1 = 0
		0x00, 0x00, 0x00, // Lo1 = 0
		0x00,             // resolution flags
		0x00, 0x03, 0xE8, // La2 = 1.000°
		0x00, 0x07, 0xD0, // Lo2 = 2.000°
		0x03, 0xE8, // Di = 1.000°
		0x03, 0xE8, // Dj = 1.000°
		0x40,                   // scanning mode: +i, +j
		0x00, 0x00, 0x00, 0x00, // reserved

		// BDS (18 bytes)
		0x00, 0x00, 18, // section length
		0x08,       // flags: grid point, simple packing, 8 unused bits
		0x00, 0x00, // binary scale factor E = 0
		0x42, 0x64, 0x00, 0x00, // reference value R = 100 (IBM float)
		8,                     // bits per value
		0, 10, 20, 30, 40, 50, // packed values
		0x00, // padding (the 8 unused bits)

		// End section
		'7', '7', '7', '7',
	}
	return msg
}

func TestParseMessage(t *testing.T) {
	msg, err := ParseMessage(testMessage())
	require.NoError(t, err)

	assert.Equal(t, uint32(90), msg.MessageLength)

	require.NotNil(t, msg.PDS)
	assert.Equal(t, uint8(7), msg.PDS.Center)
	assert.Equal(t, uint8(11), msg.PDS.Parameter)
	assert.Equal(t, uint8(105), msg.PDS.LevelType)
	assert.Equal(t, float64(2), msg.PDS.LevelValue())
	assert.Equal(t, "TMP", msg.ParameterShortName())
	assert.True(t, msg.PDS.HasGDS())
	assert.False(t, msg.PDS.HasBMS())

	wantRef := time.Date(2023, 1, 15, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, wantRef, msg.ReferenceTime())
	assert.Equal(t, wantRef.Add(6*time.Hour), msg.ValidTime())

	require.NotNil(t, msg.GDS)
	assert.Equal(t, uint8(0), msg.GDS.RepresentationType)
	assert.Equal(t, 6, msg.GDS.Grid.NumPoints())

	assert.Nil(t, msg.BMS)
	require.NotNil(t, msg.BDS)
	assert.Equal(t, uint8(8), msg.BDS.BitsPerValue)
	assert.InDelta(t, 100, msg.BDS.ReferenceValue, 1e-9)
}

func TestDecodeData(t *testing.T) {
	msg, err := ParseMessage(testMessage())
	require.NoError(t, err)

	values, err := msg.DecodeData()
	require.NoError(t, err)

	want := []float64{100, 110, 120, 130, 140, 150}
	require.Len(t, values, len(want))
	for i, w := range want {
		assert.InDelta(t, w, values[i], 1e-9, "value %d", i)
	}
}

func TestCoordinates(t *testing.T) {
	msg, err := ParseMessage(testMessage())
	require.NoError(t, err)

	lats, lons, err := msg.Coordinates()
	require.NoError(t, err)
	require.Len(t, lats, 6)
	require.Len(t, lons, 6)

	wantLats := []float64{0, 0, 0, 1, 1, 1}
	wantLons := []float64{0, 1, 2, 0, 1, 2}
	for i := range wantLats {
		assert.InDelta(t, wantLats[i], lats[i], 1e-9, "lat %d", i)
		assert.InDelta(t, wantLons[i], lons[i], 1e-9, "lon %d", i)
	}
}

func TestLatLonLocationIndices(t *testing.T) {
	msg, err := ParseMessage(testMessage())
	require.NoError(t, err)

	g, ok := msg.GDS.Grid.(*LatLonGrid)
	require.True(t, ok)

	j, i, ok := g.LocationIndices(1.0, 2.0)
	require.True(t, ok)
	assert.Equal(t, 1, j)
	assert.Equal(t, 2, i)

	// Nearest-cell rounding.
	j, i, ok = g.LocationIndices(0.4, 1.4)
	require.True(t, ok)
	assert.Equal(t, 0, j)
	assert.Equal(t, 1, i)

	// Outside the grid.
	_, _, ok = g.LocationIndices(45, 170)
	assert.False(t, ok)
}

func TestParseMessageErrors(t *testing.T) {
	t.Run("too short", func(t *testing.T) {
		_, err := ParseMessage([]byte("GRI"))
		assert.Error(t, err)
	})

	t.Run("bad magic", func(t *testing.T) {
		msg := testMessage()
		msg[0] = 'X'
		_, err := ParseMessage(msg)
		assert.Error(t, err)
	})

	t.Run("wrong edition", func(t *testing.T) {
		msg := testMessage()
		msg[7] = 2
		_, err := ParseMessage(msg)
		assert.Error(t, err)
	})

	t.Run("truncated", func(t *testing.T) {
		msg := testMessage()
		_, err := ParseMessage(msg[:40])
		assert.Error(t, err)
	})

	t.Run("missing terminator", func(t *testing.T) {
		msg := testMessage()
		copy(msg[len(msg)-4:], "xxxx")
		_, err := ParseMessage(msg)
		assert.Error(t, err)
	})
}

func TestBDSDecodeWithBitmap(t *testing.T) {
	bds := &BinaryDataSection{
		BinaryScaleFactor: 0,
		ReferenceValue:    10,
		BitsPerValue:      8,
		PackedData:        []byte{1, 2, 3},
	}

	bitmap := []bool{true, false, true, false, true}
	values, err := bds.Decode(0, bitmap, 5)
	require.NoError(t, err)
	require.Len(t, values, 5)

	assert.InDelta(t, 11, values[0], 1e-9)
	assert.True(t, math.IsNaN(values[1]))
	assert.InDelta(t, 12, values[2], 1e-9)
	assert.True(t, math.IsNaN(values[3]))
	assert.InDelta(t, 13, values[4], 1e-9)
}

func TestBDSDecodeConstantField(t *testing.T) {
	bds := &BinaryDataSection{
		BinaryScaleFactor: 0,
		ReferenceValue:    273.15,
		BitsPerValue:      0,
	}

	values, err := bds.Decode(2, nil, 4)
	require.NoError(t, err)
	require.Len(t, values, 4)
	for _, v := range values {
		assert.InDelta(t, 273.15*math.Pow(10, -2), v, 1e-9)
	}
}

func TestBDSScaling(t *testing.T) {
	// E = 1 doubles each packed step, D = 1 divides the result by 10.
	bds := &BinaryDataSection{
		BinaryScaleFactor: 1,
		ReferenceValue:    100,
		BitsPerValue:      8,
		PackedData:        []byte{0, 5, 10},
	}

	values, err := bds.Decode(1, nil, 3)
	require.NoError(t, err)
	require.Len(t, values, 3)
	assert.InDelta(t, 10.0, values[0], 1e-9)
	assert.InDelta(t, 11.0, values[1], 1e-9)
	assert.InDelta(t, 12.0, values[2], 1e-9)
}

func TestParseBMS(t *testing.T) {
	// 10-point bitmap with points 2 and 8 missing: 1101111101 + 6 unused bits.
	data := []byte{
		0x00, 0x00, 8, // section length
		6,          // unused bits
		0x00, 0x00, // table reference: bitmap follows
		0xDF, 0x40, // 11011111 01(000000)
	}

	bms, err := ParseBMS(data)
	require.NoError(t, err)
	require.Len(t, bms.Bitmap, 10)
	assert.Equal(t, 8, bms.CountSet())
	assert.False(t, bms.Bitmap[2])
	assert.False(t, bms.Bitmap[8])
}
