// Package record defines the packed, variable-width byte layout of trace
// events (spec §4.1 "Record codec") and the manual little-endian
// marshal/unmarshal functions used on the ring buffer's hot path.
package record

// Kind identifies a record's shape (spec §3 "type" header field, 3 bits).
type Kind uint8

const (
	KindNone             Kind = 0
	KindDuration         Kind = 1
	KindDurationColored  Kind = 2
	KindInstantColored   Kind = 3
	KindCounter          Kind = 4
	KindLink             Kind = 5
	KindTaskSwitchIn     Kind = 6
	KindTaskSwitchOut    Kind = 7
)

const (
	// kindBits/cpuBits/taskBits must sum to 8: the header is exactly one
	// byte (spec §3). cpuBits = 1 supports the dual-core target; taskBits
	// = 4 reserves id 0 for interrupt/no-task and indexes up to 15 tasks.
	kindBits = 3
	cpuBits  = 1
	taskBits = 4

	kindMask = (1 << kindBits) - 1
	cpuMask  = (1 << cpuBits) - 1
	taskMask = (1 << taskBits) - 1

	cpuShift  = kindBits
	taskShift = kindBits + cpuBits
)

// MaxCPUs is the largest cpu_id value the header can encode, plus one.
const MaxCPUs = 1 << cpuBits

// MaxTasks is the number of distinct task_id values the header can
// encode, including the reserved 0 ("no task").
const MaxTasks = 1 << taskBits

// Header packs kind/cpu/task into the record's leading byte.
type Header uint8

// PackHeader builds a Header from its three fields. It masks cpu/task to
// their bit widths, so an out-of-range cpu or task is silently truncated.
func PackHeader(kind Kind, cpu int, task int) Header {
	h := uint8(kind&kindMask) | (uint8(cpu&cpuMask) << cpuShift) | (uint8(task&taskMask) << taskShift)
	return Header(h)
}

// Kind extracts the record type.
func (h Header) Kind() Kind { return Kind(uint8(h) & kindMask) }

// CPU extracts the cpu_id field.
func (h Header) CPU() int { return int((uint8(h) >> cpuShift) & cpuMask) }

// Task extracts the task_id field.
func (h Header) Task() int { return int((uint8(h) >> taskShift) & taskMask) }

// LinkDir is the direction byte carried by a LINK record.
type LinkDir uint8

const (
	LinkIn  LinkDir = 0
	LinkOut LinkDir = 1
)

// sizeTable maps each Kind to its fixed total byte size (header included),
// spec §4.1: "Each kind has a fixed byte size... stored in a small table
// indexed by type". KindNone's entry is 1 (the header byte alone) since it
// never carries a body — it is the tail-pad sentinel, one zero byte
// repeated to fill the pad region.
var sizeTable = [8]int{
	KindNone:            sizeNone,
	KindDuration:        sizeDuration,
	KindDurationColored: sizeDurationColored,
	KindInstantColored:  sizeInstantColored,
	KindCounter:         sizeCounter,
	KindLink:            sizeLink,
	KindTaskSwitchIn:    sizeTaskSwitch,
	KindTaskSwitchOut:   sizeTaskSwitch,
}

// SizeOf returns the fixed byte size of kind, or 0 for an unrecognized
// kind (the corrupted-record case, spec §7).
func SizeOf(kind Kind) int {
	if int(kind) >= len(sizeTable) {
		return 0
	}
	return sizeTable[kind]
}

// MinSize is the smallest size any record can occupy, used to compute the
// buffer's upper bound on outstanding records (spec §3 "the smallest
// kind's size defines an upper bound").
const MinSize = sizeTaskSwitch

// MaxSize is the largest size any record can occupy. A ring buffer
// smaller than this can never hold a single record of the largest kind
// (spec §4.2 "writes larger than buffer_size are undefined"; see S6).
const MaxSize = sizeDurationColored
