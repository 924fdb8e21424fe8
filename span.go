package tracecore

import (
	"context"
	"runtime"

	"github.com/tracecore/tracecore/internal/flowid"
	"github.com/tracecore/tracecore/internal/writer"
)

// Span is the public scoped-duration handle (spec §4.3 "begin-scoped").
// The zero Span is valid to End (a no-op), matching spec §7's policy that
// a writer call before Init is a silent no-op rather than a panic.
type Span struct {
	t     *Tracer
	inner writer.Span
}

// End closes the span, emitting its DURATION (or DURATION_COLORED)
// record and any attached LINK records (spec §4.3 "end-scoped"). Callers
// should defer End immediately after Begin.
func (s Span) End() {
	if s.t == nil {
		return
	}
	s.t.wr.End(s.inner)
}

// FlowCell is the caller-owned storage AllocateOrReuse-style calls use to
// remember a flow-link id across a BeginLinked/InstantLinked pair that
// spans more than one call site (spec §3 "Flow-link id allocator").
type FlowCell = flowid.Cell

// SwitchDirection selects TASK_SWITCH_IN vs TASK_SWITCH_OUT (spec §4.3,
// §6 "trace_task_switch(kind)").
type SwitchDirection = writer.Direction

const (
	SwitchIn  = writer.SwitchIn
	SwitchOut = writer.SwitchOut
)

// Begin opens a scoped duration on t's writer surface.
// color == 0 means "undefined / visualizer-chosen" (spec §6).
func (t *Tracer) Begin(ctx context.Context, name string, color uint8) Span {
	if !Enabled {
		return Span{}
	}
	return Span{t: t, inner: t.wr.Begin(ctx, name, color)}
}

// BeginLinked opens a scoped duration that also carries flow-link ends
// (spec §6 trace_begin_linked). linkIn == 0 means no inbound link;
// linkOutCell == nil means no outbound link.
func (t *Tracer) BeginLinked(ctx context.Context, name string, linkIn uint16, linkOutCell FlowCell, color uint8) Span {
	if !Enabled {
		return Span{}
	}
	return Span{t: t, inner: t.wr.BeginLinked(ctx, name, linkIn, linkOutCell, color)}
}

// End closes span (spec §4.3 "end-scoped"); equivalent to span.End().
func (t *Tracer) End(span Span) { span.End() }

// Instant emits an INSTANT_COLORED record at the current time (spec §4.3
// "instant").
func (t *Tracer) Instant(ctx context.Context, name string, color uint8) {
	if !Enabled {
		return
	}
	t.wr.Instant(ctx, name, color)
}

// InstantLinked emits an instant plus LINK(IN)/LINK(OUT) records as
// requested (spec §6 trace_instant_linked).
func (t *Tracer) InstantLinked(ctx context.Context, name string, linkIn uint16, linkOutCell FlowCell, color uint8) {
	if !Enabled {
		return
	}
	t.wr.InstantLinked(ctx, name, linkIn, linkOutCell, color)
}

// Counter emits a COUNTER record (spec §4.3 "counter").
func (t *Tracer) Counter(ctx context.Context, name string, value int64, color uint8) {
	if !Enabled {
		return
	}
	t.wr.Counter(ctx, name, value, color)
}

// FlowOut emits LINK(OUT) at now, allocating an id from cell if it is
// zero (spec §4.3 "flow-out").
func (t *Tracer) FlowOut(ctx context.Context, cell FlowCell) uint16 {
	if !Enabled {
		return 0
	}
	return t.wr.FlowOut(ctx, cell)
}

// FlowIn emits LINK(IN) at now; a zero linkIn is a no-op (spec §4.3
// "flow-in").
func (t *Tracer) FlowIn(ctx context.Context, linkIn uint16) {
	if !Enabled {
		return
	}
	t.wr.FlowIn(ctx, linkIn)
}

// TaskSwitch emits TASK_SWITCH_IN or TASK_SWITCH_OUT at now (spec §4.3
// "task-switch"); a real executive port calls this from its scheduler,
// not from application code.
func (t *Tracer) TaskSwitch(ctx context.Context, dir SwitchDirection) {
	if !Enabled {
		return
	}
	t.wr.TaskSwitch(ctx, dir)
}

// TraceFunc is the defer-friendly convenience spec §9 calls out for
// call-site ergonomics: it opens a span named after the calling function
// and returns a closure that ends it.
//
//	defer tracecore.Default().TraceFunc(ctx)()
func (t *Tracer) TraceFunc(ctx context.Context) func() {
	if !Enabled {
		return noopFunc
	}
	name := callerName(2)
	span := t.Begin(ctx, name, 0)
	return span.End
}

func noopFunc() {}

func callerName(skip int) string {
	pc, _, _, ok := runtime.Caller(skip)
	if !ok {
		return "unknown"
	}
	fn := runtime.FuncForPC(pc)
	if fn == nil {
		return "unknown"
	}
	return fn.Name()
}
