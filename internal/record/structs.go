package record

import "unsafe"

// Per-kind body layouts. Each struct's first byte is the packed Header;
// fields after it are the "additional fields" tabulated in spec §3. These
// are documentation/size-assertion aids only — marshal.go writes fields
// at fixed offsets directly into the ring buffer's byte slice rather than
// casting a pointer onto it, so the layout is exact regardless of the Go
// compiler's own struct padding rules.

type noneBody struct {
	Header Header
}

type durationBody struct {
	Header   Header
	Duration uint32 // ticks, bounded per spec §3 ("≤ a few seconds at microsecond resolution")
	BeginTS  uint64 // low-order bits of the monotonic counter; widened to 64 bits, see DESIGN.md
	NamePtr  uint64 // packed (len:16 | addr:48), see names.go
}

type durationColoredBody struct {
	Header   Header
	Color    uint8
	Duration uint32
	BeginTS  uint64
	NamePtr  uint64
}

type instantColoredBody struct {
	Header  Header
	Color   uint8
	TS      uint64
	NamePtr uint64
}

type counterBody struct {
	Header Header
	Value  int32
	TS     uint64
	NamePtr uint64
}

type linkBody struct {
	Header Header
	Dir    LinkDir
	LinkID uint16
	TS     uint64
}

type taskSwitchBody struct {
	Header Header
	TS     uint64
}

// Packed sizes, the byte sums of each body's fields above, written out
// by hand. Only sizeNone is checked at compile time, with the teacher's
// `var _ [N]byte = [unsafe.Sizeof(T{})]byte{}` idiom (uapi/structs.go);
// the Go structs are padded, so unsafe.Sizeof of a whole body is not its
// packed size and the other constants are not checked against them.
const (
	sizeNone            = 1
	sizeDuration        = 1 + 4 + 8 + 8
	sizeDurationColored = 1 + 1 + 4 + 8 + 8
	sizeInstantColored  = 1 + 1 + 8 + 8
	sizeCounter         = 1 + 4 + 8 + 8
	sizeLink            = 1 + 1 + 2 + 8
	sizeTaskSwitch      = 1 + 8
)

var _ [sizeNone]byte = [unsafe.Sizeof(noneBody{}.Header)]byte{}
