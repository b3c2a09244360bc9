package grib1

import (
	"fmt"
	"time"

	"github.com/wxmesh/grib/internal"
)

// ProductDefinition represents the GRIB1 Product Definition Section (PDS).
//
// The PDS is the edition-1 equivalent of GRIB2's identification and product
// definition sections rolled into one: it identifies the originating center,
// the parameter, the level, the reference time, and the forecast time range.
type ProductDefinition struct {
	Length             uint32 // Total length of this section in bytes
	TableVersion       uint8  // Parameter table version number
	Center             uint8  // Originating center (common code table C-1)
	GeneratingProcess  uint8  // Generating process identifier
	GridID             uint8  // Grid identification (center-defined)
	Flags              uint8  // Presence flags for GDS (bit 1) and BMS (bit 2)
	Parameter          uint8  // Parameter indicator (Table 2)
	LevelType          uint8  // Type of level (Table 3)
	LevelBytes         [2]byte // Raw level octets 11-12 (layer types split them)
	ReferenceTime      time.Time
	TimeUnit           uint8 // Forecast time unit (Table 4)
	P1                 uint8 // Period of time 1
	P2                 uint8 // Period of time 2
	TimeRangeIndicator uint8 // Time range indicator (Table 5)
	NumInAverage       uint16
	NumMissing         uint8
	SubCenter          uint8
	DecimalScaleFactor int16 // D in value = (R + X*2^E) / 10^D
}

// layerLevelTypes are the Table 3 level types whose octets 11-12 hold two
// separate single-octet values (top and bottom of a layer) rather than one
// 16-bit level value.
var layerLevelTypes = map[uint8]bool{
	101: true, 104: true, 106: true, 108: true, 110: true,
	112: true, 114: true, 116: true, 120: true, 121: true,
	128: true, 141: true,
}

// ParsePDS parses the GRIB1 Product Definition Section.
//
// PDS structure (minimum 28 bytes):
//
//	Bytes 1-3:   Length of section
//	Byte 4:      Parameter table version
//	Byte 5:      Originating center
//	Byte 6:      Generating process
//	Byte 7:      Grid identification
//	Byte 8:      Flags (bit 1: GDS present, bit 2: BMS present)
//	Byte 9:      Parameter indicator (Table 2)
//	Byte 10:     Level type (Table 3)
//	Bytes 11-12: Level value(s)
//	Bytes 13-17: Reference time (year of century, month, day, hour, minute)
//	Byte 18:     Forecast time unit (Table 4)
//	Bytes 19-20: P1, P2
//	Byte 21:     Time range indicator (Table 5)
//	Bytes 22-23: Number included in average
//	Byte 24:     Number missing from averages
//	Byte 25:     Century of reference time
//	Byte 26:     Sub-center
//	Bytes 27-28: Decimal scale factor (sign-magnitude)
func ParsePDS(data []byte) (*ProductDefinition, error) {
	if len(data) < 28 {
		return nil, fmt.Errorf("PDS must be at least 28 bytes, got %d", len(data))
	}

	r := internal.NewReader(data)

	length, _ := r.Uint24()
	if int(length) > len(data) || length < 28 {
		return nil, fmt.Errorf("PDS length %d is invalid for %d available bytes", length, len(data))
	}

	tableVersion, _ := r.Uint8()
	center, _ := r.Uint8()
	process, _ := r.Uint8()
	gridID, _ := r.Uint8()
	flags, _ := r.Uint8()
	parameter, _ := r.Uint8()
	levelType, _ := r.Uint8()
	levelHi, _ := r.Uint8()
	levelLo, _ := r.Uint8()

	yearOfCentury, _ := r.Uint8()
	month, _ := r.Uint8()
	day, _ := r.Uint8()
	hour, _ := r.Uint8()
	minute, _ := r.Uint8()

	timeUnit, _ := r.Uint8()
	p1, _ := r.Uint8()
	p2, _ := r.Uint8()
	timeRange, _ := r.Uint8()
	numInAverage, _ := r.Uint16()
	numMissing, _ := r.Uint8()
	century, _ := r.Uint8()
	subCenter, _ := r.Uint8()
	decimalScale, _ := r.Int16()

	// Century 20 covers 1901-2000, so year 2000 is (20, 100).
	year := int(century-1)*100 + int(yearOfCentury)
	refTime := time.Date(year, time.Month(month), int(day), int(hour), int(minute), 0, 0, time.UTC)

	return &ProductDefinition{
		Length:             length,
		TableVersion:       tableVersion,
		Center:             center,
		GeneratingProcess:  process,
		GridID:             gridID,
		Flags:              flags,
		Parameter:          parameter,
		LevelType:          levelType,
		LevelBytes:         [2]byte{levelHi, levelLo},
		ReferenceTime:      refTime,
		TimeUnit:           timeUnit,
		P1:                 p1,
		P2:                 p2,
		TimeRangeIndicator: timeRange,
		NumInAverage:       numInAverage,
		NumMissing:         numMissing,
		SubCenter:          subCenter,
		DecimalScaleFactor: decimalScale,
	}, nil
}

// HasGDS reports whether the message carries a Grid Description Section.
func (p *ProductDefinition) HasGDS() bool {
	return p.Flags&0x80 != 0
}

// HasBMS reports whether the message carries a Bit Map Section.
func (p *ProductDefinition) HasBMS() bool {
	return p.Flags&0x40 != 0
}

// LevelValue returns the numeric level value. For layer level types the two
// level octets hold separate top/bottom values and the top is returned; for
// single-level types they form one 16-bit value.
func (p *ProductDefinition) LevelValue() float64 {
	if layerLevelTypes[p.LevelType] {
		return float64(p.LevelBytes[0])
	}
	return float64(uint16(p.LevelBytes[0])<<8 | uint16(p.LevelBytes[1]))
}

// ForecastDuration returns the forecast offset from the reference time,
// derived from the time unit, P1/P2, and the time range indicator.
func (p *ProductDefinition) ForecastDuration() time.Duration {
	unit := timeUnitDuration(p.TimeUnit)

	switch p.TimeRangeIndicator {
	case 10:
		// P1 occupies both period octets as one 16-bit value.
		return time.Duration(uint16(p.P1)<<8|uint16(p.P2)) * unit
	case 2, 3, 4, 5:
		// Ranges and accumulations are valid at the end of the period.
		return time.Duration(p.P2) * unit
	default:
		return time.Duration(p.P1) * unit
	}
}

// ValidTime returns the reference time plus the forecast offset.
func (p *ProductDefinition) ValidTime() time.Time {
	return p.ReferenceTime.Add(p.ForecastDuration())
}

// timeUnitDuration maps a Table 4 forecast time unit to a duration.
func timeUnitDuration(unit uint8) time.Duration {
	switch unit {
	case 0:
		return time.Minute
	case 1:
		return time.Hour
	case 2:
		return 24 * time.Hour
	case 10:
		return 3 * time.Hour
	case 11:
		return 6 * time.Hour
	case 12:
		return 12 * time.Hour
	case 254:
		return time.Second
	default:
		return time.Hour
	}
}

// String returns a human-readable summary of the product definition.
func (p *ProductDefinition) String() string {
	return fmt.Sprintf("PDS: parameter %d (%s) at %s %g, ref %s",
		p.Parameter, ParameterShortName(p.TableVersion, p.Parameter),
		LevelName(p.LevelType), p.LevelValue(),
		p.ReferenceTime.Format(time.RFC3339))
}
