package grib

import (
	"errors"
	"testing"
)

func TestParseMessageUnknownGridTemplate(t *testing.T) {
	data := makeCompleteGRIB2Message()
	// Section 3 starts at 16+21=37; its template number is bytes 12-13.
	data[49] = 0x03
	data[50] = 0xE7 // template 999

	msg, err := ParseMessage(data)
	if err != nil {
		t.Fatalf("expected unknown grid template to parse with a flag, got error: %v", err)
	}
	if msg.Unsupported == nil {
		t.Fatal("expected message to be flagged unsupported")
	}
	if msg.Unsupported.Section != 3 || msg.Unsupported.TemplateNumber != 999 {
		t.Errorf("expected section 3 template 999, got %+v", msg.Unsupported)
	}

	// The rest of the metadata stays usable.
	if msg.Section1 == nil || msg.Section4 == nil {
		t.Error("expected identification and product sections to survive")
	}
	if msg.Section3 == nil || msg.Section3.NumDataPoints != 9 {
		t.Errorf("expected grid section framing to survive, got %+v", msg.Section3)
	}

	// Decoding must fail with the typed unsupported error.
	_, err = msg.DecodeData()
	var ute *UnsupportedTemplateError
	if !errors.As(err, &ute) {
		t.Errorf("expected UnsupportedTemplateError from DecodeData, got %v", err)
	}
}

func TestParseMessageUnknownDataTemplate(t *testing.T) {
	data := makeCompleteGRIB2Message()
	// Section 5 starts at 16+21+86+43=166; its template number is bytes 9-10.
	data[175] = 0x03
	data[176] = 0xE7 // template 999

	msg, err := ParseMessage(data)
	if err != nil {
		t.Fatalf("expected unknown data template to parse with a flag, got error: %v", err)
	}
	if msg.Unsupported == nil || msg.Unsupported.Section != 5 {
		t.Fatalf("expected a section-5 unsupported flag, got %+v", msg.Unsupported)
	}

	if _, err := msg.DecodeData(); err == nil {
		t.Error("expected DecodeData to fail for an unknown data template")
	}
}
