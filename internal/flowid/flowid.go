// Package flowid allocates the 16-bit ids that pair LINK(OUT)/LINK(IN)
// records across tasks (spec §3 "Flow-link id allocator").
package flowid

import "sync"

// Allocator is a monotonically-increasing counter guarded by its own
// mutex, wrapping at 2^16 (spec: "wrap behavior is not a correctness
// concern because link ids are only meaningful within a single
// snapshot").
type Allocator struct {
	mu   sync.Mutex
	next uint16
}

// New returns an Allocator starting at id 1 (0 is reserved to mean "no id
// allocated yet" in a caller's cell, matching the protocol below).
func New() *Allocator {
	return &Allocator{next: 1}
}

// Cell is the caller-owned mutable storage passed to AllocateOrReuse: a
// pointer initialized to 0 by the caller before the first request on a
// given flow.
type Cell = *uint16

// AllocateOrReuse implements the allocate-or-reuse protocol: the first
// requester on cell observes 0, allocates a fresh id, and stores it back;
// subsequent requesters on the same cell observe the allocated id and
// reuse it (spec §3, §8 P6).
func (a *Allocator) AllocateOrReuse(cell Cell) uint16 {
	if cell == nil {
		return a.allocate()
	}
	if *cell != 0 {
		return *cell
	}
	id := a.allocate()
	*cell = id
	return id
}

func (a *Allocator) allocate() uint16 {
	a.mu.Lock()
	defer a.mu.Unlock()
	id := a.next
	a.next++
	if a.next == 0 {
		// Skip the reserved "unallocated" sentinel on wrap.
		a.next = 1
	}
	if id == 0 {
		id = 1
		a.next = 2
	}
	return id
}
