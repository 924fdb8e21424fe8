// Package tracecore implements an in-process trace facility for a
// preemptive multitasking executive: a lock-light ring buffer of packed
// binary records (spec §3-§4), a writer surface safe to call from any
// task or simulated ISR context (spec §4.3-§4.4), and a snapshot/export
// pipeline that drains the buffer into a Chrome Trace Event Format
// document (spec §4.5).
package tracecore

import (
	"context"
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"github.com/tracecore/tracecore/internal/clock"
	"github.com/tracecore/tracecore/internal/export"
	"github.com/tracecore/tracecore/internal/flowid"
	"github.com/tracecore/tracecore/internal/logging"
	"github.com/tracecore/tracecore/internal/platform"
	"github.com/tracecore/tracecore/internal/record"
	"github.com/tracecore/tracecore/internal/registry"
	"github.com/tracecore/tracecore/internal/ring"
	"github.com/tracecore/tracecore/internal/writer"
)

// Tracer is the public handle for a trace session (spec §2 "a single
// global trace session covering both cores", §6 init/deinit). Grounded
// on the teacher's backend.go Device: a lifecycle type built from Params,
// exposing typed getters rather than raw field access, with explicit
// Init/Deinit instead of a constructor that starts running immediately.
type Tracer struct {
	cfg Config

	buf  *ring.Buffer
	gate *ring.Gate
	clk  clock.Clock
	reg  *registry.Registry
	flow *flowid.Allocator
	prb  platform.Probe

	wr   *writer.Writer
	snap *export.Snapshotter

	log     *logging.Logger
	metrics *Metrics
	obs     Observer

	initialized atomic.Bool
}

// New constructs a Tracer from cfg without starting admission; call Init
// to begin accepting writer calls (spec §6 "init(params)"). A zero Config
// is filled in with DefaultConfig's values.
func New(cfg Config) *Tracer {
	cfg = cfg.withDefaults()

	buf := ring.NewBuffer(cfg.BufferSize)
	gate := ring.NewGate()
	clk := clock.NewMonotonic()
	// The 4-bit task_id header field can only represent ids 1..15 for real
	// tasks (0 is reserved for "no task"), so the registry must be capped
	// one below cfg.MaxTasks or the 16th registered task's id truncates
	// back to the reserved id on encode (record.PackHeader).
	reg := registry.New(cfg.MaxTasks - 1)
	flow := flowid.New()
	prb := platform.NewStub()

	wr := writer.New(buf, gate, clk, reg, flow, prb)
	wr.SetISRAttribution(cfg.AttributeISRToInterruptedTask)

	m := NewMetrics()

	t := &Tracer{
		cfg:     cfg,
		buf:     buf,
		gate:    gate,
		clk:     clk,
		reg:     reg,
		flow:    flow,
		prb:     prb,
		wr:      wr,
		snap:    export.New(buf, gate, clk, reg),
		log:     logging.Default(),
		metrics: m,
		obs:     NewMetricsObserver(m),
	}
	return t
}

// WithProbe overrides the platform Probe a Tracer built with New uses,
// for host ports that need a real current-CPU/current-task source
// instead of the context-propagated Stub (spec §1 "specified only by
// interface"). Must be called before Init.
func (t *Tracer) WithProbe(prb platform.Probe) *Tracer {
	t.prb = prb
	t.wr = writer.New(t.buf, t.gate, t.clk, t.reg, t.flow, prb)
	t.wr.SetISRAttribution(t.cfg.AttributeISRToInterruptedTask)
	return t
}

// WithLogger overrides the Tracer's logger, which otherwise defaults to
// the internal/logging package-level Default().
func (t *Tracer) WithLogger(l *logging.Logger) *Tracer {
	t.log = l
	return t
}

// Init opens the admission gate, allowing writer calls to emit records.
// It returns ErrCodeBufferTooSmall if the ring is smaller than the largest
// record. The ring buffer is allocated and zeroed by New; Init does not
// clear it or the task registry, so records and task ids from before a
// Deinit remain. Calling Init twice without an intervening Deinit changes
// nothing and returns ErrCodeAlreadyInit.
func (t *Tracer) Init() error {
	if t.buf.Size() < record.MaxSize {
		return NewError("Init", ErrCodeBufferTooSmall,
			fmt.Sprintf("buffer size %d is smaller than the largest record (%d bytes)", t.buf.Size(), record.MaxSize))
	}
	if !t.initialized.CompareAndSwap(false, true) {
		return NewError("Init", ErrCodeAlreadyInit, "tracer already initialized")
	}
	t.gate.Open()
	t.log.Infof("tracer initialized: buffer=%d tasks=%d cpus=%d", t.cfg.BufferSize, t.cfg.MaxTasks, t.cfg.MaxCPUs)
	return nil
}

// Deinit disables admission. Unlike Snapshot, Deinit does not wait for
// in-flight writers to drain before returning — a Tracer being torn down
// has no further use for a clean buffer state. Deinit is idempotent.
func (t *Tracer) Deinit() {
	if !t.initialized.CompareAndSwap(true, false) {
		return
	}
	t.gate.Close()
	t.log.Infof("tracer deinitialized")
}

// Config returns the configuration the Tracer was built with.
func (t *Tracer) Config() Config { return t.cfg }

// Metrics returns the Tracer's live metrics snapshot (spec §6
// "implementations may additionally expose operational counters"). A
// Tracer records only snapshot count and latency; the writer path does
// not update the record or error counters, so they stay zero.
func (t *Tracer) Metrics() MetricsSnapshot { return t.metrics.Snapshot() }

// SetISRAttribution forwards to the underlying writer (spec §6 runtime
// ISR-attribution toggle).
func (t *Tracer) SetISRAttribution(attributeToInterrupted bool) {
	t.wr.SetISRAttribution(attributeToInterrupted)
}

// Snapshot runs the full spec §4.5 export procedure, streaming a trace
// document to sink. It is safe to call concurrently with writer calls.
// Concurrent Snapshot calls are not serialized: whichever finishes first
// reopens the gate while the other may still be walking the ring.
func (t *Tracer) Snapshot(ctx context.Context, sink io.Writer) error {
	start := t.clk.Now()
	err := t.snap.Snapshot(ctx, sink)
	elapsedTicks := t.clk.Now() - start
	t.metrics.RecordSnapshot(ticksToNanos(elapsedTicks, t.clk.Frequency()))
	if err != nil {
		return WrapError("Snapshot", err)
	}
	return nil
}

// SnapshotSizeUpperBound returns a conservative upper bound, in bytes, on
// the document Snapshot will write — useful for a caller that wants to
// preallocate a single contiguous buffer instead of streaming (spec §6
// snapshot_size_upper_bound).
func (t *Tracer) SnapshotSizeUpperBound() int {
	return export.SizeUpperBound(t.buf.Size())
}

func ticksToNanos(ticks, freq uint64) uint64 {
	if freq == 0 {
		return ticks
	}
	return ticks * 1_000_000_000 / freq
}

// --- default/global tracer ergonomics (spec §6 "a process-wide default
// instance ... so call sites need not thread a Tracer through every
// function") ---

var (
	defaultMu     sync.RWMutex
	defaultTracer *Tracer
)

// Default returns the process-wide default Tracer, constructing one with
// DefaultConfig and calling Init on first use.
func Default() *Tracer {
	defaultMu.RLock()
	t := defaultTracer
	defaultMu.RUnlock()
	if t != nil {
		return t
	}

	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultTracer == nil {
		t := New(DefaultConfig())
		_ = t.Init()
		defaultTracer = t
	}
	return defaultTracer
}

// SetDefault replaces the process-wide default Tracer, for hosts that
// need non-default configuration wired in before any call site reaches
// for Default().
func SetDefault(t *Tracer) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultTracer = t
}
