// Package grib1 decodes WMO GRIB edition 1 messages.
//
// Edition 1 predates the numbered-section framing of GRIB2: a message is an
// 8-byte indicator section followed by positional sections (PDS, optional
// GDS, optional BMS, BDS) and the "7777" terminator. Which optional sections
// are present is governed by flag bits in the PDS.
package grib1

import (
	"fmt"
	"time"

	"github.com/wxmesh/grib/internal"
)

// IndicatorLength is the length of the edition-1 indicator section: "GRIB",
// a 24-bit total message length, and the edition octet.
const IndicatorLength = 8

// Message represents a complete parsed GRIB1 message.
type Message struct {
	// MessageLength is the declared total length from the indicator section.
	MessageLength uint32

	// PDS is the product definition section (always present).
	PDS *ProductDefinition

	// GDS is the grid description section, or nil when the PDS references a
	// predefined grid by its catalog number instead.
	GDS *GridDescription

	// BMS is the bit map section, or nil when every grid point is present.
	BMS *BitMapSection

	// BDS is the binary data section holding the packed values.
	BDS *BinaryDataSection

	// RawData is the original message bytes.
	RawData []byte
}

// ParseMessage parses a complete GRIB1 message from raw bytes. The input
// must start with "GRIB" and hold the whole message through its "7777"
// terminator.
func ParseMessage(data []byte) (*Message, error) {
	if len(data) < IndicatorLength {
		return nil, fmt.Errorf("message must be at least %d bytes, got %d", IndicatorLength, len(data))
	}
	if string(data[0:4]) != "GRIB" {
		return nil, fmt.Errorf("missing GRIB indicator")
	}

	r := internal.NewReader(data[4:IndicatorLength])
	msgLength, _ := r.Uint24()
	edition, _ := r.Uint8()
	if edition != 1 {
		return nil, fmt.Errorf("expected edition 1, got edition %d", edition)
	}
	if int(msgLength) > len(data) || msgLength < IndicatorLength+4 {
		return nil, fmt.Errorf("message length %d is invalid for %d available bytes", msgLength, len(data))
	}
	if string(data[msgLength-4:msgLength]) != "7777" {
		return nil, fmt.Errorf("missing 7777 terminator")
	}

	msg := &Message{
		MessageLength: msgLength,
		RawData:       data[:msgLength],
	}

	offset := IndicatorLength

	pds, err := ParsePDS(data[offset:msgLength])
	if err != nil {
		return nil, fmt.Errorf("failed to parse PDS: %w", err)
	}
	msg.PDS = pds
	offset += int(pds.Length)

	if pds.HasGDS() {
		gds, err := ParseGDS(data[offset:msgLength])
		if err != nil {
			return nil, fmt.Errorf("failed to parse GDS: %w", err)
		}
		msg.GDS = gds
		offset += int(gds.Length)
	}

	if pds.HasBMS() {
		bms, err := ParseBMS(data[offset:msgLength])
		if err != nil {
			return nil, fmt.Errorf("failed to parse BMS: %w", err)
		}
		msg.BMS = bms
		offset += int(bms.Length)
	}

	bds, err := ParseBDS(data[offset:msgLength])
	if err != nil {
		return nil, fmt.Errorf("failed to parse BDS: %w", err)
	}
	msg.BDS = bds

	return msg, nil
}

// DecodeData unpacks the message's data values in grid scan order.
// Bitmap-masked points are reported as NaN.
func (m *Message) DecodeData() ([]float64, error) {
	if m.BDS == nil {
		return nil, fmt.Errorf("message has no binary data section")
	}

	var bitmap []bool
	if m.BMS != nil && m.BMS.Bitmap != nil {
		bitmap = m.BMS.Bitmap
	}

	npoints := 0
	if m.GDS != nil && m.GDS.Grid != nil {
		npoints = m.GDS.Grid.NumPoints()
		if bitmap != nil && len(bitmap) != npoints {
			return nil, fmt.Errorf("bitmap length mismatch: grid declares %d points, bitmap has %d bits", npoints, len(bitmap))
		}
	}

	return m.BDS.Decode(m.PDS.DecimalScaleFactor, bitmap, npoints)
}

// Coordinates returns row-major latitude and longitude arrays matching the
// order of values returned by DecodeData.
func (m *Message) Coordinates() (latitudes, longitudes []float64, err error) {
	if m.GDS == nil || m.GDS.Grid == nil {
		return nil, nil, fmt.Errorf("message has no grid description section")
	}
	lats, lons := m.GDS.Grid.Coordinates()
	return lats, lons, nil
}

// ReferenceTime returns the PDS reference time.
func (m *Message) ReferenceTime() time.Time {
	return m.PDS.ReferenceTime
}

// ValidTime returns the reference time plus the forecast offset.
func (m *Message) ValidTime() time.Time {
	return m.PDS.ValidTime()
}

// ParameterShortName returns the abbreviation of the message's parameter.
func (m *Message) ParameterShortName() string {
	return ParameterShortName(m.PDS.TableVersion, m.PDS.Parameter)
}

// String returns a human-readable summary of the message.
func (m *Message) String() string {
	grid := "no grid"
	if m.GDS != nil && m.GDS.Grid != nil {
		grid = m.GDS.Grid.String()
	}
	return fmt.Sprintf("GRIB1 message: %s, %s, %s", CenterName(m.PDS.Center), m.PDS.String(), grid)
}
