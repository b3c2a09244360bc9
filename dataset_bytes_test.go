package grib

import (
	"strings"
	"testing"
)

func TestBuildDatasetFromBytes(t *testing.T) {
	data := makeMultipleMessages(3)

	ds, warnings, err := BuildDataset(data)
	if err != nil {
		t.Fatalf("BuildDataset failed: %v", err)
	}
	if len(ds.Variables) != 1 {
		t.Fatalf("expected 1 variable, got %d", len(ds.Variables))
	}

	// Identical messages conflict on the same slot: two drop as warnings.
	if len(warnings) != 2 {
		t.Errorf("expected 2 conflict warnings, got %d: %v", len(warnings), warnings)
	}

	v := ds.Variables[0]
	manifest := v.Manifest()
	if len(manifest) != 1 {
		t.Fatalf("expected 1 manifest entry, got %d", len(manifest))
	}
	if manifest[0].Length == 0 {
		t.Error("expected manifest entry to carry the member's byte length")
	}
}

func TestBuildDatasetManifestRoundTrip(t *testing.T) {
	// Manifest offsets must feed straight back into DecodeValues.
	var data []byte
	data = append(data, makeGRIB1Message()...)

	ds, warnings, err := BuildDataset(data)
	if err != nil {
		t.Fatalf("BuildDataset failed: %v", err)
	}
	if len(warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", warnings)
	}

	v := ds.Variable("tmp")
	if v == nil {
		t.Fatalf("expected variable tmp, have %v", ds.Variables)
	}
	if len(v.Shape) != 2 || v.Shape[0] != 2 || v.Shape[1] != 3 {
		t.Errorf("expected shape [2 3], got %v", v.Shape)
	}

	for _, entry := range v.Manifest() {
		vals, err := DecodeValues(data, entry.Offset, Float64Precision)
		if err != nil {
			t.Fatalf("DecodeValues at manifest offset %d failed: %v", entry.Offset, err)
		}
		if vals.Len() != 6 {
			t.Errorf("expected 6 values from manifest entry, got %d", vals.Len())
		}
	}
}

func TestBuildDatasetMixedEditionsSuffixed(t *testing.T) {
	// TMP appears at two level types (isobaric in the edition-2 message,
	// height above ground in the edition-1 message), so both variables
	// need a disambiguating suffix.
	var data []byte
	data = append(data, makeCompleteGRIB2Message()...)
	data = append(data, makeGRIB1Message()...)

	ds, _, err := BuildDataset(data)
	if err != nil {
		t.Fatalf("BuildDataset failed: %v", err)
	}
	if len(ds.Variables) != 2 {
		t.Fatalf("expected 2 variables, got %d", len(ds.Variables))
	}

	seen := map[string]bool{}
	for _, v := range ds.Variables {
		if strings.Count(v.Name, "tmp") != 1 {
			t.Errorf("variable name %q repeats its abbreviation", v.Name)
		}
		if seen[v.Name] {
			t.Errorf("duplicate variable name %q", v.Name)
		}
		seen[v.Name] = true
	}
	if !seen["tmp_isobar"] {
		t.Errorf("expected isobaric variable tmp_isobar, have %v", seen)
	}
	if !seen["tmp_hag"] {
		t.Errorf("expected height-above-ground variable tmp_hag, have %v", seen)
	}
}

func TestBuildDatasetWarnsOnGarbage(t *testing.T) {
	data := append(makeCompleteGRIB2Message(), []byte("trailing garbage")...)

	ds, warnings, err := BuildDataset(data)
	if err != nil {
		t.Fatalf("BuildDataset failed: %v", err)
	}
	if len(ds.Variables) != 1 {
		t.Errorf("expected the valid message to survive, got %d variables", len(ds.Variables))
	}
	if len(warnings) != 1 {
		t.Errorf("expected 1 warning for the garbage tail, got %d", len(warnings))
	}
	if ds.DroppedMessages != 1 {
		t.Errorf("expected 1 dropped record, got %d", ds.DroppedMessages)
	}
}

func TestBuildDatasetGRIB1Attributes(t *testing.T) {
	ds, _, err := BuildDataset(makeGRIB1Message())
	if err != nil {
		t.Fatalf("BuildDataset failed: %v", err)
	}

	v := ds.Variable("tmp")
	if v == nil {
		t.Fatal("expected variable tmp")
	}
	if v.Attributes["units"] != "K" {
		t.Errorf("expected units K, got %q", v.Attributes["units"])
	}
	if v.Attributes["level_type"] != "heightAboveGround" {
		t.Errorf("expected level_type heightAboveGround, got %q", v.Attributes["level_type"])
	}
	if v.Attributes["centre"] != "NCEP" {
		t.Errorf("expected centre NCEP, got %q", v.Attributes["centre"])
	}
	if v.Attributes["grib_parameter"] != "1.2.11" {
		t.Errorf("expected grib_parameter 1.2.11, got %q", v.Attributes["grib_parameter"])
	}
}
