// Package ring implements the circular byte buffer that backs the trace
// session (spec §3 "Ring buffer state", §4.2 "advance_pointers") and the
// admission gate that lets a snapshot quiesce writers (spec §4.4).
package ring

import (
	"sync"

	"github.com/tracecore/tracecore/internal/record"
)

// Buffer is a contiguous byte region with two indices: head (oldest valid
// byte) and tail (next byte to write). It is safe for concurrent use by
// multiple writers and, separately, by a single snapshotter that has
// first drained all writers via the admission Gate.
//
// The mutex below stands in for the target's "masks interrupts on the
// current core and locks against the other core" primitive (spec §4.2):
// a host-process goroutine has no interrupts to mask, but the mutual
// exclusion requirement — and the requirement that the critical section
// cover only pointer algebra, never the payload write — is identical, and
// is enforced the same way the teacher's runner.go scopes its per-tag
// locks to the minimum critical region.
type Buffer struct {
	data []byte

	mu   sync.Mutex
	head int
	tail int
}

// NewBuffer allocates a zero-initialized ring of the given size (spec §6
// init: "zero-initializes it"). size must exceed the largest record size
// (spec §4.2 "writes larger than buffer_size are undefined"); NewBuffer does
// not itself validate this beyond rejecting non-positive sizes, mirroring
// the spec's choice to leave the enforcement point to the caller (see
// S6 and DESIGN.md).
func NewBuffer(size int) *Buffer {
	if size <= 0 {
		size = 1
	}
	return &Buffer{data: make([]byte, size)}
}

// Size returns the buffer's fixed byte capacity.
func (b *Buffer) Size() int { return len(b.data) }

// Snapshot returns the current (head, tail) pair and the live data slice.
// Callers must only invoke this after the admission gate has drained all
// writers (spec §4.5 step 2); it takes the buffer's lock only to read the
// two indices atomically with respect to any writer still mid critical
// section; the payload bytes themselves are stable once writers are
// drained.
func (b *Buffer) Snapshot() (head, tail int, data []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.head, b.tail, b.data
}

// Reserve runs the advance_pointers algorithm (spec §4.2) for a record of
// size s and returns the offset the caller must write its s bytes to,
// without holding the lock during that write. It is the sole mutator of
// head/tail.
func (b *Buffer) Reserve(s int) (entryIdx int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	bufSize := len(b.data)
	tail := b.tail

	if bufSize-tail < s {
		// Tail-pad: zero from tail to the physical end (spec §4.2 step
		// 2a, §3 invariant 3) and wrap the write to offset 0.
		for i := tail; i < bufSize; i++ {
			b.data[i] = 0
		}
		entryIdx = 0
		tail = s
		b.head = 0
	} else {
		entryIdx = tail
		tail = tail + s
	}
	b.tail = tail

	b.advanceHead(entryIdx, tail)
	return entryIdx
}

// advanceHead implements spec §4.2 step 4: walk head forward past any
// records now overlapped by [entryIdx, newTail), stopping when head is no
// longer in the overlap region or when the byte under head reads NONE
// (the previous pass's tail-pad, meaning the logical next record is back
// at offset 0). Must be called with mu held.
func (b *Buffer) advanceHead(entryIdx, newTail int) {
	bufSize := len(b.data)
	for inOverlap(b.head, entryIdx, newTail, bufSize) {
		kind := record.Header(b.data[b.head]).Kind()
		if kind == record.KindNone {
			b.head = 0
			return
		}
		sz := record.SizeOf(kind)
		if sz == 0 {
			// Corrupted record type encountered during eviction. There
			// is no caller to report this to mid-write (spec §5 keeps
			// writers non-cancellable and infallible); stop advancing
			// rather than walk off into garbage. The snapshot walker
			// surfaces corruption to its caller instead (spec §7).
			return
		}
		b.head += sz
		if b.head >= bufSize {
			b.head = 0
		}
	}
}

// inOverlap reports whether offset lies in the region [entryIdx, newTail)
// that the write just being committed has claimed. entryIdx <= newTail
// always holds for a single Reserve call (the tail-pad branch resets both
// to 0 and s respectively before this is evaluated).
func inOverlap(offset, entryIdx, newTail, bufSize int) bool {
	if offset >= bufSize {
		offset = 0
	}
	if entryIdx <= newTail {
		return offset >= entryIdx && offset < newTail
	}
	// entryIdx > newTail cannot occur given how Reserve computes them,
	// but handle the wrap-around shape defensively rather than panic.
	return offset >= entryIdx || offset < newTail
}

// Write copies rec into the buffer at entryIdx without taking the lock,
// per spec §4.2's design rationale: "each record's destination bytes are
// owned by exactly one writer — no other writer's slot can overlap, by
// construction."
func (b *Buffer) Write(entryIdx int, rec []byte) {
	copy(b.data[entryIdx:entryIdx+len(rec)], rec)
	noteWrite()
}
