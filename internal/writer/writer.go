// Package writer implements the emission operations of spec §4.3: begin/
// end scoped duration, instant, counter, flow-out, flow-in, and
// task-switch, each wired atop the ring buffer, the admission gate, the
// task registry, the flow-id allocator, and the clock/platform
// collaborators.
package writer

import (
	"context"
	"sync/atomic"

	"github.com/tracecore/tracecore/internal/clock"
	"github.com/tracecore/tracecore/internal/flowid"
	"github.com/tracecore/tracecore/internal/platform"
	"github.com/tracecore/tracecore/internal/record"
	"github.com/tracecore/tracecore/internal/registry"
	"github.com/tracecore/tracecore/internal/ring"
)

// Direction selects TASK_SWITCH_IN vs TASK_SWITCH_OUT (spec §4.3, §6
// "trace_task_switch(kind)").
type Direction int

const (
	SwitchIn Direction = iota
	SwitchOut
)

// Span is the scoped-duration handle of spec §4.3: a small value holding
// everything End needs, constructed by Begin and consumed by End. It is
// not safe to End a Span twice (spec: "no duplicate close is ever
// observable because the handle is consumed at close time" — Go cannot
// enforce consume-once at compile time, so callers must pair Begin/End
// with defer exactly once, matching the convention, not the guarantee).
type Span struct {
	name     string
	color    uint8
	begin    uint64
	cpu      int
	task     int
	linkIn   uint16
	linkOut  uint16
	hasLinkIn  bool
	hasLinkOut bool
	valid    bool
}

// Writer is the writer core. All of its methods are safe to call
// concurrently from any number of goroutines, including one simulating
// ISR context via platform.WithISR.
type Writer struct {
	buf  *ring.Buffer
	gate *ring.Gate
	clk  clock.Clock
	reg  *registry.Registry
	flow *flowid.Allocator
	prb  platform.Probe

	isrAttribution atomic.Bool

	scratch scratchPool
}

// New builds a Writer over the given collaborators.
func New(buf *ring.Buffer, gate *ring.Gate, clk clock.Clock, reg *registry.Registry, flow *flowid.Allocator, prb platform.Probe) *Writer {
	return &Writer{buf: buf, gate: gate, clk: clk, reg: reg, flow: flow, prb: prb}
}

// SetISRAttribution toggles whether an event emitted from simulated ISR
// context is attributed to the task it interrupted (true) or to the
// reserved "no task" id (false, the default) — spec §6 "A runtime setter
// toggles whether events emitted from an ISR...".
func (w *Writer) SetISRAttribution(attributeToInterrupted bool) {
	w.isrAttribution.Store(attributeToInterrupted)
}

// identity resolves (cpu, taskID) for the calling context (spec §4.6
// get_current_task_id).
func (w *Writer) identity(ctx context.Context) (cpu, taskID int, err error) {
	cpu = w.prb.CurrentCPU(ctx)
	if w.prb.InISR(ctx) {
		if !w.isrAttribution.Load() {
			return cpu, registry.NoTask, nil
		}
		// Attributed mode: the simulated ISR carries the interrupted
		// task's handle in ctx the same way non-ISR code does.
	}
	handle := w.prb.CurrentTask(ctx)
	id, err := w.reg.IDFor(handle)
	if err != nil {
		return cpu, registry.NoTask, err
	}
	return cpu, id, nil
}

// Begin opens a scoped duration (spec §4.3 "begin-scoped"). It emits no
// record itself. color == 0 means "undefined / visualizer-chosen" (spec
// §6).
func (w *Writer) Begin(ctx context.Context, name string, color uint8) Span {
	cpu, task, err := w.identity(ctx)
	if err != nil {
		return Span{}
	}
	return Span{
		name:  name,
		color: color,
		begin: w.clk.Now(),
		cpu:   cpu,
		task:  task,
		valid: true,
	}
}

// BeginLinked opens a scoped duration that also carries flow-link ends
// (spec §6 trace_begin_linked). linkIn == 0 means no inbound link is
// attached; linkOutCell follows the allocate-or-reuse protocol of
// internal/flowid when non-nil.
func (w *Writer) BeginLinked(ctx context.Context, name string, linkIn uint16, linkOutCell flowid.Cell, color uint8) Span {
	s := w.Begin(ctx, name, color)
	if !s.valid {
		return s
	}
	if linkIn != 0 {
		s.linkIn = linkIn
		s.hasLinkIn = true
	}
	if linkOutCell != nil {
		s.linkOut = w.flow.AllocateOrReuse(linkOutCell)
		s.hasLinkOut = true
	}
	return s
}

// End closes a scoped duration, emitting DURATION or DURATION_COLORED
// plus any LINK records the span carries (spec §4.3 "end-scoped").
func (w *Writer) End(span Span) {
	if !span.valid {
		return
	}
	admitted, counted := w.gate.Enter()
	if counted {
		defer w.gate.Leave()
	}
	if !admitted {
		return
	}

	now := w.clk.Now()
	duration := uint32(now - span.begin)
	header := record.PackHeader(kindFor(span.color), span.cpu, span.task)
	namePtr := record.PackName(span.name)

	if span.color != 0 {
		w.emit(sizeOrPanic(record.KindDurationColored), func(buf []byte) (int, error) {
			return record.EncodeDurationColored(buf, header, span.color, duration, span.begin, namePtr)
		})
	} else {
		w.emit(sizeOrPanic(record.KindDuration), func(buf []byte) (int, error) {
			return record.EncodeDuration(buf, header, duration, span.begin, namePtr)
		})
	}

	if span.hasLinkIn {
		w.emitLink(span.cpu, span.task, record.LinkIn, span.linkIn, span.begin-1)
	}
	if span.hasLinkOut {
		w.emitLink(span.cpu, span.task, record.LinkOut, span.linkOut, span.begin+uint64(duration)-1)
	}
}

func kindFor(color uint8) record.Kind {
	if color != 0 {
		return record.KindDurationColored
	}
	return record.KindDuration
}

// Instant emits an INSTANT_COLORED record at the current time (spec §4.3
// "instant").
func (w *Writer) Instant(ctx context.Context, name string, color uint8) {
	cpu, task, err := w.identity(ctx)
	if err != nil {
		return
	}
	admitted, counted := w.gate.Enter()
	if counted {
		defer w.gate.Leave()
	}
	if !admitted {
		return
	}

	now := w.clk.Now()
	header := record.PackHeader(record.KindInstantColored, cpu, task)
	namePtr := record.PackName(name)
	w.emit(record.SizeOf(record.KindInstantColored), func(buf []byte) (int, error) {
		return record.EncodeInstantColored(buf, header, color, now, namePtr)
	})
}

// InstantLinked emits an instant plus LINK(IN)/LINK(OUT) records as
// requested (spec §6 trace_instant_linked).
func (w *Writer) InstantLinked(ctx context.Context, name string, linkIn uint16, linkOutCell flowid.Cell, color uint8) {
	cpu, task, err := w.identity(ctx)
	if err != nil {
		return
	}
	w.Instant(ctx, name, color)
	now := w.clk.Now()
	if linkIn != 0 {
		w.emitLink(cpu, task, record.LinkIn, linkIn, now)
	}
	if linkOutCell != nil {
		id := w.flow.AllocateOrReuse(linkOutCell)
		w.emitLink(cpu, task, record.LinkOut, id, now)
	}
}

// Counter emits a COUNTER record (spec §4.3 "counter"); a value outside
// the encoded int32 range is clamped to the nearest int32 bound.
func (w *Writer) Counter(ctx context.Context, name string, value int64, color uint8) {
	cpu, task, err := w.identity(ctx)
	if err != nil {
		return
	}
	admitted, counted := w.gate.Enter()
	if counted {
		defer w.gate.Leave()
	}
	if !admitted {
		return
	}

	now := w.clk.Now()
	header := record.PackHeader(record.KindCounter, cpu, task)
	namePtr := record.PackName(name)
	v := truncateInt32(value)
	w.emit(record.SizeOf(record.KindCounter), func(buf []byte) (int, error) {
		return record.EncodeCounter(buf, header, v, now, namePtr)
	})
}

func truncateInt32(v int64) int32 {
	const max32 = 1<<31 - 1
	const min32 = -(1 << 31)
	if v > max32 {
		return max32
	}
	if v < min32 {
		return min32
	}
	return int32(v)
}

// FlowOut emits LINK(OUT) at now, allocating an id from cell if it is
// zero (spec §4.3 "flow-out").
func (w *Writer) FlowOut(ctx context.Context, cell flowid.Cell) uint16 {
	cpu, task, err := w.identity(ctx)
	if err != nil {
		return 0
	}
	id := w.flow.AllocateOrReuse(cell)
	w.emitLink(cpu, task, record.LinkOut, id, w.clk.Now())
	return id
}

// FlowIn emits LINK(IN) at now; a zero linkIn is a no-op (spec §4.3
// "flow-in").
func (w *Writer) FlowIn(ctx context.Context, linkIn uint16) {
	if linkIn == 0 {
		return
	}
	cpu, task, err := w.identity(ctx)
	if err != nil {
		return
	}
	w.emitLink(cpu, task, record.LinkIn, linkIn, w.clk.Now())
}

// TaskSwitch emits TASK_SWITCH_IN or TASK_SWITCH_OUT at now (spec §4.3
// "task-switch").
func (w *Writer) TaskSwitch(ctx context.Context, dir Direction) {
	cpu, task, err := w.identity(ctx)
	if err != nil {
		return
	}
	admitted, counted := w.gate.Enter()
	if counted {
		defer w.gate.Leave()
	}
	if !admitted {
		return
	}

	now := w.clk.Now()
	kind := record.KindTaskSwitchIn
	if dir == SwitchOut {
		kind = record.KindTaskSwitchOut
	}
	header := record.PackHeader(kind, cpu, task)
	w.emit(record.SizeOf(kind), func(buf []byte) (int, error) {
		return record.EncodeTaskSwitch(buf, header, now)
	})
}

func (w *Writer) emitLink(cpu, task int, dir record.LinkDir, linkID uint16, ts uint64) {
	admitted, counted := w.gate.Enter()
	if counted {
		defer w.gate.Leave()
	}
	if !admitted {
		return
	}
	header := record.PackHeader(record.KindLink, cpu, task)
	w.emit(record.SizeOf(record.KindLink), func(buf []byte) (int, error) {
		return record.EncodeLink(buf, header, dir, linkID, ts)
	})
}

// emit reserves sz bytes from the ring, encodes into a pooled scratch
// buffer via fn, and writes the result at the reserved offset — the
// reserve/write split spec §4.2 requires to keep the critical section to
// pointer algebra only.
func (w *Writer) emit(sz int, fn func(buf []byte) (int, error)) {
	idx := w.buf.Reserve(sz)
	scratch := w.scratch.get(sz)
	defer w.scratch.put(scratch)
	n, err := fn(scratch)
	if err != nil {
		return
	}
	w.buf.Write(idx, scratch[:n])
}

func sizeOrPanic(k record.Kind) int {
	sz := record.SizeOf(k)
	if sz == 0 {
		panic("writer: unknown record kind in codec")
	}
	return sz
}
