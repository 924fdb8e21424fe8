package tracecore

import (
	"bytes"
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tracecore/tracecore/internal/platform"
)

type traceEvent struct {
	Ph   string `json:"ph"`
	Name string `json:"name"`
	PID  int    `json:"pid"`
	TID  int    `json:"tid"`
	ID   *int   `json:"id"`
}

type traceDoc struct {
	TraceEvents []traceEvent `json:"traceEvents"`
	Meta        struct {
		Frequency uint64 `json:"frequency"`
	} `json:"meta"`
}

func decodeDoc(t *testing.T, buf *bytes.Buffer) traceDoc {
	t.Helper()
	var doc traceDoc
	if err := json.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatalf("snapshot document did not parse as JSON: %v\n%s", err, buf.String())
	}
	return doc
}

func newTestTracer(t *testing.T, bufferSize int) *Tracer {
	t.Helper()
	tr := New(Config{BufferSize: bufferSize})
	if err := tr.Init(); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	t.Cleanup(tr.Deinit)
	return tr
}

// S1: a buffer much smaller than the total emitted volume retains only a
// contiguous suffix of the most recent same-named durations.
func TestScenarioS1BufferEvictsOldestDurations(t *testing.T) {
	tr := newTestTracer(t, 256)
	ctx := platform.WithTask(context.Background(), "t1")

	for i := 0; i < 40; i++ {
		span := tr.Begin(ctx, "A", 0)
		span.End()
	}

	var buf bytes.Buffer
	if err := tr.Snapshot(context.Background(), &buf); err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}
	doc := decodeDoc(t, &buf)

	count := 0
	for _, e := range doc.TraceEvents {
		if e.Ph == "X" && e.Name == "A" {
			count++
		}
	}
	if count == 0 {
		t.Fatal("expected at least one surviving \"A\" duration after eviction")
	}
	// 256 bytes / 21 bytes per uncolored DURATION record leaves room for at
	// most 12 entries; a 256-byte ring can never retain more than that many
	// same-sized records regardless of how many were originally emitted.
	const maxSurvivors = 256 / 21
	if count > maxSurvivors {
		t.Fatalf("expected at most %d surviving entries, got %d", maxSurvivors, count)
	}
}

// S2: a write that straddles the physical end of the buffer wraps cleanly
// and produces a well-formed document rather than corrupting the stream.
func TestScenarioS2StraddlingWriteProducesWellFormedDocument(t *testing.T) {
	// 21 bytes per uncolored DURATION; 50 bytes hold two full records and
	// leave an 8-byte tail that cannot hold a third, forcing the
	// tail-pad-and-wrap path on the third Begin/End pair.
	tr := newTestTracer(t, 50)
	ctx := platform.WithTask(context.Background(), "t1")

	for i := 0; i < 5; i++ {
		span := tr.Begin(ctx, "A", 0)
		span.End()
	}

	var buf bytes.Buffer
	if err := tr.Snapshot(context.Background(), &buf); err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}
	doc := decodeDoc(t, &buf)
	if len(doc.TraceEvents) == 0 {
		t.Fatal("expected a non-empty trace after wrapping writes")
	}
}

// S3: two simulated CPUs each running a distinct task emit concurrently;
// every surviving entry's pid matches one of the two cpu indices and the
// registry assigns exactly two non-zero task ids.
func TestScenarioS3ConcurrentCPUsProduceConsistentCPUAttribution(t *testing.T) {
	tr := newTestTracer(t, 64*1024)

	var g errgroup.Group
	for cpu := 0; cpu < 2; cpu++ {
		cpu := cpu
		g.Go(func() error {
			ctx := platform.WithCPU(context.Background(), cpu)
			ctx = platform.WithTask(ctx, cpu)
			for i := 0; i < 1000; i++ {
				tr.Instant(ctx, "tick", 0)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var buf bytes.Buffer
	if err := tr.Snapshot(context.Background(), &buf); err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}
	doc := decodeDoc(t, &buf)

	tasks := map[int]bool{}
	for _, e := range doc.TraceEvents {
		if e.Ph != "i" {
			continue
		}
		if e.PID != 0 && e.PID != 1 {
			t.Fatalf("expected pid (cpu) 0 or 1, got %d", e.PID)
		}
		tasks[e.TID] = true
	}
	if len(tasks) != 2 {
		t.Fatalf("expected exactly 2 distinct non-zero task ids, got %d (%v)", len(tasks), tasks)
	}
}

// S4: a flow-link id allocated by one task's linked scope is observed and
// reused by a second task's linked scope sharing the same cell.
func TestScenarioS4LinkedScopeReusesFlowID(t *testing.T) {
	tr := newTestTracer(t, 64*1024)

	var cell uint16
	ctx1 := platform.WithTask(context.Background(), "producer")
	s1 := tr.BeginLinked(ctx1, "produce", 0, &cell, 0)
	s1.End()

	firstID := cell
	if firstID == 0 {
		t.Fatal("expected BeginLinked to allocate a non-zero flow id into the cell")
	}

	ctx2 := platform.WithTask(context.Background(), "consumer")
	s2 := tr.BeginLinked(ctx2, "consume", 0, &cell, 0)
	s2.End()

	if cell != firstID {
		t.Fatalf("expected the second linked scope to reuse id %d, got %d", firstID, cell)
	}

	var buf bytes.Buffer
	if err := tr.Snapshot(context.Background(), &buf); err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}
	doc := decodeDoc(t, &buf)

	var flowOutEvents, flowInEvents int
	for _, e := range doc.TraceEvents {
		if e.ID == nil || uint16(*e.ID) != firstID {
			continue
		}
		switch e.Ph {
		case "s":
			flowOutEvents++
		case "f":
			flowInEvents++
		}
	}
	if flowOutEvents != 2 {
		t.Fatalf("expected 2 flow(out) entries carrying id %d, got %d", firstID, flowOutEvents)
	}
	if flowInEvents != 0 {
		t.Fatalf("expected no flow(in) entries since linkIn was never set, got %d", flowInEvents)
	}
}

// S5: a snapshot racing a simulated ISR instant never deadlocks and always
// yields a well-formed document.
func TestScenarioS5SnapshotConcurrentWithISRDoesNotDeadlock(t *testing.T) {
	tr := newTestTracer(t, 64*1024)
	ctx := platform.WithTask(context.Background(), "main-task")

	stop := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		isrCtx := platform.WithISR(context.Background())
		for {
			select {
			case <-stop:
				return
			default:
				tr.Instant(isrCtx, "irq-tick", 0)
			}
		}
	}()

	for i := 0; i < 5; i++ {
		span := tr.Begin(ctx, "work", 0)
		time.Sleep(time.Microsecond)
		span.End()

		var buf bytes.Buffer
		snapCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		err := tr.Snapshot(snapCtx, &buf)
		cancel()
		if err != nil {
			close(stop)
			wg.Wait()
			t.Fatalf("Snapshot failed: %v", err)
		}
		decodeDoc(t, &buf)
	}

	close(stop)
	wg.Wait()
}

// S6: initializing with a buffer smaller than the largest possible record
// fails fast instead of admitting writers into an unusable buffer.
func TestScenarioS6BufferSmallerThanLargestRecordRejectsInit(t *testing.T) {
	tr := New(Config{BufferSize: 10})
	err := tr.Init()
	if err == nil {
		t.Fatal("expected Init to fail for a buffer smaller than the largest record")
	}
	if !IsCode(err, ErrCodeBufferTooSmall) {
		t.Fatalf("expected ErrCodeBufferTooSmall, got %v", err)
	}
}

func TestInitIsIdempotentUntilDeinit(t *testing.T) {
	tr := New(DefaultConfig())
	if err := tr.Init(); err != nil {
		t.Fatalf("first Init failed: %v", err)
	}
	defer tr.Deinit()

	if err := tr.Init(); !IsCode(err, ErrCodeAlreadyInit) {
		t.Fatalf("expected ErrCodeAlreadyInit on double Init, got %v", err)
	}
}

func TestDefaultTracerIsSingletonUntilOverridden(t *testing.T) {
	first := Default()
	second := Default()
	if first != second {
		t.Fatal("expected Default() to return the same Tracer instance across calls")
	}

	replacement := New(DefaultConfig())
	SetDefault(replacement)
	if Default() != replacement {
		t.Fatal("expected SetDefault to replace the process-wide default")
	}
}
