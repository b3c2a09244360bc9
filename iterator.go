package grib

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/wxmesh/grib/grib1"
	"github.com/wxmesh/grib/internal/diag"
)

// MessageRecord is one step of a MessageIterator walk over a byte buffer.
//
// Exactly one of Message (edition 2), GRIB1 (edition 1), or Err is set.
// Offset and Length always describe the byte extent the record covers in
// the source buffer, so offset+length of one record is the offset of the
// next.
type MessageRecord struct {
	Offset  int64
	Length  int64
	Edition int

	// GapBytes counts non-GRIB bytes skipped before this record's
	// signature was found.
	GapBytes int64

	Message *Message       // parsed edition-2 message
	GRIB1   *grib1.Message // parsed edition-1 message
	Err     error          // parse or framing failure for this extent
}

// MessageIterator walks a byte buffer yielding one MessageRecord per GRIB
// message. Malformed or unsupported messages produce records with Err set
// and do not stop the walk; only an unreadable message length terminates it
// early, since the iterator then has no way to find the next message.
type MessageIterator struct {
	data []byte
	pos  int64
	done bool
}

// NewMessageIterator creates an iterator over a buffer that may hold any
// mix of edition 1 and edition 2 messages.
func NewMessageIterator(data []byte) *MessageIterator {
	return &MessageIterator{data: data}
}

// Next returns the next record, or ok=false when the buffer is exhausted.
func (it *MessageIterator) Next() (MessageRecord, bool) {
	if it.done || it.pos >= int64(len(it.data)) {
		return MessageRecord{}, false
	}

	remaining := it.data[it.pos:]
	idx := bytes.Index(remaining, []byte("GRIB"))
	if idx < 0 {
		// Trailing bytes with no signature: report once, then stop.
		rec := MessageRecord{
			Offset:   it.pos,
			Length:   int64(len(remaining)),
			GapBytes: int64(len(remaining)),
			Err: &InvalidFormatError{
				Offset:  int(it.pos),
				Message: fmt.Sprintf("no GRIB signature in trailing %d bytes", len(remaining)),
			},
		}
		it.done = true
		return rec, true
	}

	gap := int64(idx)
	if gap > 0 {
		diag.Warningf("skipped %d non-GRIB bytes at offset %d", gap, it.pos)
	}
	start := it.pos + gap

	rec := MessageRecord{Offset: start, GapBytes: gap}

	// The edition octet is byte 8 of the indicator section in both
	// editions; the length field's width depends on it.
	if start+8 > int64(len(it.data)) {
		rec.Length = int64(len(it.data)) - start
		rec.Err = &InvalidFormatError{
			Offset:  int(start),
			Message: "buffer ends inside indicator section",
		}
		it.done = true
		return rec, true
	}

	edition := int(it.data[start+7])
	rec.Edition = edition

	var msgLen int64
	switch edition {
	case 1:
		msgLen = int64(it.data[start+4])<<16 | int64(it.data[start+5])<<8 | int64(it.data[start+6])
	case 2:
		if start+16 > int64(len(it.data)) {
			rec.Length = int64(len(it.data)) - start
			rec.Err = &InvalidFormatError{
				Offset:  int(start),
				Message: "buffer ends inside edition-2 indicator section",
			}
			it.done = true
			return rec, true
		}
		msgLen = int64(binary.BigEndian.Uint64(it.data[start+8 : start+16]))
	default:
		// Not a framing we can measure; resume the signature scan just
		// past this "GRIB".
		rec.Length = 4
		rec.Err = &InvalidFormatError{
			Offset:  int(start),
			Message: fmt.Sprintf("unsupported GRIB edition %d", edition),
		}
		it.pos = start + 4
		return rec, true
	}

	if msgLen < 8 || start+msgLen > int64(len(it.data)) {
		// Truncation: without a trustworthy length there is no next
		// message boundary to advance to.
		rec.Length = int64(len(it.data)) - start
		rec.Err = &ParseError{
			Section: 0,
			Offset:  int(start),
			Message: fmt.Sprintf("declared message length %d exceeds remaining %d bytes", msgLen, int64(len(it.data))-start),
		}
		it.done = true
		return rec, true
	}

	rec.Length = msgLen
	body := it.data[start : start+msgLen]

	switch edition {
	case 1:
		msg, err := grib1.ParseMessage(body)
		if err != nil {
			rec.Err = &ParseError{Section: -1, Offset: int(start), Message: "failed to parse edition-1 message", Underlying: err}
		} else {
			rec.GRIB1 = msg
		}
	case 2:
		msg, err := ParseMessage(body)
		if err != nil {
			rec.Err = &ParseError{Section: -1, Offset: int(start), Message: "failed to parse edition-2 message", Underlying: err}
		} else {
			rec.Message = msg
		}
	}

	it.pos = start + msgLen
	return rec, true
}

// IterMessages walks the buffer to completion and returns every record,
// parse failures included. Callers that want only the successfully parsed
// messages filter on Err == nil.
func IterMessages(data []byte) []MessageRecord {
	it := NewMessageIterator(data)
	var records []MessageRecord
	for {
		rec, ok := it.Next()
		if !ok {
			return records
		}
		records = append(records, rec)
	}
}
