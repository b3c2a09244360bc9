package grib

import (
	"testing"
)

func TestDecodeValuesGRIB2(t *testing.T) {
	data := makeCompleteGRIB2Message()

	vals, err := DecodeValues(data, 0, Float64Precision)
	if err != nil {
		t.Fatalf("DecodeValues failed: %v", err)
	}
	if vals.Len() != 9 {
		t.Fatalf("expected 9 values, got %d", vals.Len())
	}
	if vals.Precision() != Float64Precision {
		t.Errorf("expected float64 precision, got %v", vals.Precision())
	}
}

func TestDecodeValuesGRIB1(t *testing.T) {
	data := makeGRIB1Message()

	vals, err := DecodeValues(data, 0, Float64Precision)
	if err != nil {
		t.Fatalf("DecodeValues failed: %v", err)
	}
	if vals.Len() != 6 {
		t.Fatalf("expected 6 values, got %d", vals.Len())
	}

	want := []float64{100, 110, 120, 130, 140, 150}
	for i, w := range want {
		if got := vals.At(i); got < w-1e-9 || got > w+1e-9 {
			t.Errorf("value %d: expected %g, got %g", i, w, got)
		}
	}
}

func TestDecodeValuesAtOffset(t *testing.T) {
	// The second message sits past the first; decode it by offset.
	first := makeCompleteGRIB2Message()
	data := append(append([]byte{}, first...), makeGRIB1Message()...)

	vals, err := DecodeValues(data, int64(len(first)), Float32Precision)
	if err != nil {
		t.Fatalf("DecodeValues failed: %v", err)
	}
	if vals.Len() != 6 {
		t.Fatalf("expected 6 values, got %d", vals.Len())
	}
	if len(vals.Float32()) != 6 || len(vals.Float64()) != 6 {
		t.Error("expected both element types to report 6 values")
	}
}

func TestDecodeValuesErrors(t *testing.T) {
	data := makeCompleteGRIB2Message()

	if _, err := DecodeValues(data, int64(len(data)), Float64Precision); err == nil {
		t.Error("expected error for offset at end of buffer")
	}
	if _, err := DecodeValues(data, 2, Float64Precision); err == nil {
		t.Error("expected error for offset without GRIB signature")
	}
	if _, err := DecodeValues(data[:len(data)-8], 0, Float64Precision); err == nil {
		t.Error("expected error for truncated message")
	}
}

func TestDecodeValuesBatchMatchesSequential(t *testing.T) {
	var data []byte
	var offsets []int64
	for i := 0; i < 3; i++ {
		offsets = append(offsets, int64(len(data)))
		data = append(data, makeCompleteGRIB2Message()...)
	}
	offsets = append(offsets, int64(len(data)))
	data = append(data, makeGRIB1Message()...)

	batch, err := DecodeValuesBatch(data, offsets, Float64Precision)
	if err != nil {
		t.Fatalf("DecodeValuesBatch failed: %v", err)
	}
	if len(batch) != len(offsets) {
		t.Fatalf("expected %d arrays, got %d", len(offsets), len(batch))
	}

	for i, offset := range offsets {
		single, err := DecodeValues(data, offset, Float64Precision)
		if err != nil {
			t.Fatalf("DecodeValues at %d failed: %v", offset, err)
		}
		if batch[i].Len() != single.Len() {
			t.Fatalf("array %d: batch %d values, sequential %d", i, batch[i].Len(), single.Len())
		}
		for j := 0; j < single.Len(); j++ {
			if batch[i].At(j) != single.At(j) {
				t.Errorf("array %d element %d: batch %g, sequential %g", i, j, batch[i].At(j), single.At(j))
			}
		}
	}
}

func TestDecodeValuesBatchPropagatesErrors(t *testing.T) {
	data := makeCompleteGRIB2Message()
	if _, err := DecodeValuesBatch(data, []int64{0, 9999}, Float64Precision); err == nil {
		t.Error("expected error for out-of-range offset in batch")
	}
}
