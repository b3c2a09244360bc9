package section

import "fmt"

// UnsupportedTemplateError indicates a section whose template number has no
// decoder. The section's framing fields (length, counts) are still parsed,
// so callers can keep the partially-decoded section for its metadata and
// continue with the rest of the message.
type UnsupportedTemplateError struct {
	Section        int
	TemplateNumber int
}

func (e *UnsupportedTemplateError) Error() string {
	return fmt.Sprintf("section %d template %d is not supported", e.Section, e.TemplateNumber)
}
