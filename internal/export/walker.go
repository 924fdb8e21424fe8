package export

import (
	"context"
	"io"
	"runtime"

	"go.uber.org/multierr"

	"github.com/tracecore/tracecore/internal/clock"
	"github.com/tracecore/tracecore/internal/constants"
	"github.com/tracecore/tracecore/internal/record"
	"github.com/tracecore/tracecore/internal/registry"
	"github.com/tracecore/tracecore/internal/ring"
)

// Snapshotter implements spec §4.5's full procedure.
type Snapshotter struct {
	buf  *ring.Buffer
	gate *ring.Gate
	clk  clock.Clock
	reg  *registry.Registry
}

// New builds a Snapshotter over the tracer's ring/gate/clock/registry.
func New(buf *ring.Buffer, gate *ring.Gate, clk clock.Clock, reg *registry.Registry) *Snapshotter {
	return &Snapshotter{buf: buf, gate: gate, clk: clk, reg: reg}
}

type pendingSwitch struct {
	ts      uint64
	task    int
	pending bool
}

// Snapshot runs spec §4.5 steps 1-7: disable admission, drain in-flight
// writers, walk the ring from head to tail, stream the document to sink,
// then resume tracing — even on error, per spec §4.5's failure clause
// ("aborts the walk, surfaces an error to the caller, and still runs the
// resume-tracing cleanup").
func (s *Snapshotter) Snapshot(ctx context.Context, sink io.Writer) (err error) {
	s.gate.Close()
	if drainErr := s.gate.Drain(ctx); drainErr != nil {
		// Could not confirm drain within ctx's deadline; still attempt
		// to resume tracing so a slow drain never leaves the core
		// permanently disabled.
		s.gate.Reopen()
		return drainErr
	}
	defer s.gate.Reopen()

	head, tail, data := s.buf.Snapshot()

	dw := newDocWriter(sink)
	dw.prologue()

	cpuNames := map[int]bool{}
	pending := make(map[int]*pendingSwitch)
	count := 0

	walkErr := ring.Walk(data, head, tail, func(offset int, h record.Header) (int, bool) {
		count++
		if count%constants.ExportYieldEvery == 0 {
			runtime.Gosched()
		}
		cpu := h.CPU()
		task := h.Task()
		if !cpuNames[cpu] {
			cpuNames[cpu] = true
		}

		switch h.Kind() {
		case record.KindDuration:
			_, dur, begin, namePtr, decErr := record.DecodeDuration(data[offset:])
			if decErr != nil {
				return 0, true
			}
			dw.duration(record.UnpackName(namePtr), begin, dur, cpu, task, 0)

		case record.KindDurationColored:
			_, color, dur, begin, namePtr, decErr := record.DecodeDurationColored(data[offset:])
			if decErr != nil {
				return 0, true
			}
			dw.duration(record.UnpackName(namePtr), begin, dur, cpu, task, color)

		case record.KindInstantColored:
			_, color, ts, namePtr, decErr := record.DecodeInstantColored(data[offset:])
			if decErr != nil {
				return 0, true
			}
			dw.instant(record.UnpackName(namePtr), ts, cpu, task, color)

		case record.KindCounter:
			_, value, ts, namePtr, decErr := record.DecodeCounter(data[offset:])
			if decErr != nil {
				return 0, true
			}
			dw.counter(record.UnpackName(namePtr), ts, value, cpu, task)

		case record.KindLink:
			_, dir, linkID, ts, decErr := record.DecodeLink(data[offset:])
			if decErr != nil {
				return 0, true
			}
			dw.flow(linkID, ts, cpu, task, dir == record.LinkOut)

		case record.KindTaskSwitchIn:
			_, ts, decErr := record.DecodeTaskSwitch(data[offset:])
			if decErr != nil {
				return 0, true
			}
			pending[cpu] = &pendingSwitch{ts: ts, task: task, pending: true}

		case record.KindTaskSwitchOut:
			_, ts, decErr := record.DecodeTaskSwitch(data[offset:])
			if decErr != nil {
				return 0, true
			}
			if p, ok := pending[cpu]; ok && p.pending {
				dur := uint32(ts - p.ts)
				dw.duration(s.reg.Name(p.task), p.ts, dur, schedulerPID(cpu), 0, 0)
				p.pending = false
			}
		}

		return 0, false
	})

	for cpu := range cpuNames {
		dw.processName(cpu, cpuLabel(cpu))
	}
	dw.processName(schedulerPID(0), "scheduler")

	dw.epilogue(s.clk.Frequency())

	// Both the byte-sink write path and the record walk can fail
	// independently (a write failure does not stop the walk from also
	// hitting a corrupted record); surface both rather than silently
	// dropping one.
	return multierr.Combine(walkErr, dw.err)
}

// schedulerPID maps a cpu index to the synthetic per-CPU swim-lane pid
// used for task-switch entries (spec §4.5 step 5 "synthetic per-CPU
// swim-lane"), kept disjoint from ordinary record cpu/task pids by
// offsetting into a high range.
func schedulerPID(cpu int) int {
	return 1000 + cpu
}

func cpuLabel(cpu int) string {
	return "cpu" + itoa(cpu)
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

// SizeUpperBound implements spec §6 snapshot_size_upper_bound: a caller
// that wants a single contiguous buffer allocates this many bytes.
func SizeUpperBound(bufferSize int) int {
	const headerAndFooterBytes = 128
	const maxCharsPerEntry = 160
	return headerAndFooterBytes + (bufferSize/record.MinSize)*maxCharsPerEntry
}
