package ring

import "github.com/tracecore/tracecore/internal/record"

// ErrCorrupted is returned by Walk when it encounters a header byte whose
// kind has no entry in the size table (spec §7 "Corrupted record type
// during walk").
var ErrCorrupted = walkError("ring: corrupted record during walk")

type walkError string

func (e walkError) Error() string { return string(e) }

// Walk drives the exporter's snapshot walk (spec §4.5 step 4); Reserve's
// head-advance (advanceHead) runs its own scan. Starting at offset start,
// it calls visit(offset, header) for each record until offset returns to
// end or more than one wrap has occurred (spec §4.5 step 4's "guarding
// against a pathological state where start == end yet the buffer is
// non-empty"). start == end on entry is walked as a full ring: the first
// record is visited before offset == end ends the walk. A never-written
// region reads as NONE bytes, so it still visits nothing.
//
// visit returns the byte length to advance by; a non-positive value falls
// back to the record's own encoded size. Walk itself handles the
// NONE-sentinel wrap and the end-of-buffer wrap.
func Walk(data []byte, start, end int, visit func(offset int, header record.Header) (advance int, stop bool)) error {
	bufSize := len(data)
	offset := start
	wraps := 0
	first := true

	for {
		if offset >= bufSize {
			offset = 0
			wraps++
		}
		if offset == end && !first {
			return nil
		}
		if wraps > 1 {
			return nil
		}
		first = false

		header := record.Header(data[offset])
		if header.Kind() == record.KindNone {
			offset = 0
			wraps++
			if offset == end || wraps > 1 {
				return nil
			}
			continue
		}

		sz := record.SizeOf(header.Kind())
		if sz == 0 {
			return ErrCorrupted
		}

		advance, stop := visit(offset, header)
		if stop {
			return nil
		}
		if advance <= 0 {
			advance = sz
		}
		offset += advance

		if offset == end {
			return nil
		}
	}
}
