package grib

import (
	"encoding/binary"
	"fmt"

	"github.com/wxmesh/grib/grib1"
)

// Precision selects the element type of decoded value arrays. Decoding
// always computes in double precision; single precision narrows on store.
type Precision uint8

const (
	// Float64Precision stores decoded values as float64.
	Float64Precision Precision = iota

	// Float32Precision stores decoded values as float32.
	Float32Precision
)

// Values holds one message's decoded field at the precision it was
// requested with.
type Values struct {
	precision Precision
	f64       []float64
	f32       []float32
}

// newValues stores a freshly decoded float64 array at the requested
// precision.
func newValues(vals []float64, precision Precision) Values {
	if precision == Float32Precision {
		return Values{precision: precision, f32: toFloat32Slice(vals)}
	}
	return Values{precision: precision, f64: vals}
}

// Len returns the number of decoded points.
func (v Values) Len() int {
	if v.precision == Float32Precision {
		return len(v.f32)
	}
	return len(v.f64)
}

// Precision returns the element type the values are stored at.
func (v Values) Precision() Precision {
	return v.precision
}

// Float64 returns the values as float64, converting if they were stored at
// single precision.
func (v Values) Float64() []float64 {
	if v.precision == Float32Precision {
		out := make([]float64, len(v.f32))
		for i, f := range v.f32 {
			out[i] = float64(f)
		}
		return out
	}
	return v.f64
}

// Float32 returns the values as float32, narrowing if they were stored at
// double precision.
func (v Values) Float32() []float32 {
	if v.precision == Float32Precision {
		return v.f32
	}
	return toFloat32Slice(v.f64)
}

// At returns the value at index i as float64.
func (v Values) At(i int) float64 {
	if v.precision == Float32Precision {
		return float64(v.f32[i])
	}
	return v.f64[i]
}

// messageExtent reads the edition and declared length of the message
// starting at offset, without parsing its body.
func messageExtent(data []byte, offset int64) (edition int, length int64, err error) {
	if offset < 0 || offset+8 > int64(len(data)) {
		return 0, 0, &InvalidFormatError{
			Offset:  int(offset),
			Message: "offset outside buffer",
		}
	}
	if string(data[offset:offset+4]) != "GRIB" {
		return 0, 0, &InvalidFormatError{
			Offset:  int(offset),
			Message: fmt.Sprintf("expected GRIB signature, found %q", string(data[offset:offset+4])),
		}
	}

	edition = int(data[offset+7])
	switch edition {
	case 1:
		length = int64(data[offset+4])<<16 | int64(data[offset+5])<<8 | int64(data[offset+6])
	case 2:
		if offset+16 > int64(len(data)) {
			return 0, 0, &InvalidFormatError{
				Offset:  int(offset),
				Message: "buffer ends inside edition-2 indicator section",
			}
		}
		length = int64(binary.BigEndian.Uint64(data[offset+8 : offset+16]))
	default:
		return 0, 0, &InvalidFormatError{
			Offset:  int(offset),
			Message: fmt.Sprintf("unsupported GRIB edition %d", edition),
		}
	}

	if length < 8 || offset+length > int64(len(data)) {
		return 0, 0, &ParseError{
			Section: 0,
			Offset:  int(offset),
			Message: fmt.Sprintf("declared message length %d exceeds remaining %d bytes", length, int64(len(data))-offset),
		}
	}
	return edition, length, nil
}

// DecodeValues parses the message starting at offset and unpacks its data
// values. This is the lazy-load entry point: a DatasetDescriptor's offset
// manifest feeds straight back into it to materialize one member's array.
func DecodeValues(data []byte, offset int64, precision Precision) (Values, error) {
	edition, length, err := messageExtent(data, offset)
	if err != nil {
		return Values{}, err
	}

	body := data[offset : offset+length]

	var vals []float64
	switch edition {
	case 1:
		msg, err := grib1.ParseMessage(body)
		if err != nil {
			return Values{}, &ParseError{Section: -1, Offset: int(offset), Message: "failed to parse edition-1 message", Underlying: err}
		}
		vals, err = msg.DecodeData()
		if err != nil {
			return Values{}, err
		}
	case 2:
		msg, err := ParseMessage(body)
		if err != nil {
			return Values{}, err
		}
		vals, err = msg.DecodeData()
		if err != nil {
			return Values{}, err
		}
	}

	return newValues(vals, precision), nil
}

// DecodeValuesBatch decodes one array per offset, in offset-list order.
// Each element is exactly what DecodeValues returns for the same offset;
// the first failure aborts the batch.
func DecodeValuesBatch(data []byte, offsets []int64, precision Precision) ([]Values, error) {
	out := make([]Values, 0, len(offsets))
	for _, offset := range offsets {
		v, err := DecodeValues(data, offset, precision)
		if err != nil {
			return nil, fmt.Errorf("batch decode at offset %d: %w", offset, err)
		}
		out = append(out, v)
	}
	return out, nil
}
