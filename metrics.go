package tracecore

import (
	"sync/atomic"
	"time"
)

// LatencyBuckets defines the snapshot-latency histogram buckets in
// nanoseconds, logarithmically spaced from 1us to 10s — the same
// spacing the teacher's metrics.go uses for I/O latency, retargeted to
// snapshot/export duration.
var LatencyBuckets = []uint64{
	1_000,          // 1us
	10_000,         // 10us
	100_000,        // 100us
	1_000_000,      // 1ms
	10_000_000,     // 10ms
	100_000_000,    // 100ms
	1_000_000_000,  // 1s
	10_000_000_000, // 10s
}

const numLatencyBuckets = 8

// Metrics tracks the core's operational statistics. Every field is
// updated with atomics so it can be read concurrently with writer
// operations without taking any of the core's own locks. The counters
// change only through the Record*/Observe* methods below.
type Metrics struct {
	// Record counters, one per §3 record kind family.
	RecordsEmitted atomic.Uint64 // records fully written to the ring
	RecordsDropped atomic.Uint64 // writer calls that were no-ops (gate closed or not initialized)
	RecordsEvicted atomic.Uint64 // records overwritten by advance_pointers

	TooManyTasksErrors atomic.Uint64 // spec §7 "too many distinct tasks"
	CorruptedWalks     atomic.Uint64 // spec §7 "corrupted record type during walk"

	// Snapshot performance.
	SnapshotCount       atomic.Uint64
	TotalSnapshotNs      atomic.Uint64
	SnapshotLatencyBuckets [numLatencyBuckets]atomic.Uint64

	StartTime atomic.Int64
}

// NewMetrics creates a zeroed Metrics with StartTime set to now.
func NewMetrics() *Metrics {
	m := &Metrics{}
	m.StartTime.Store(time.Now().UnixNano())
	return m
}

// RecordEmit records one record successfully written to the ring.
func (m *Metrics) RecordEmit() { m.RecordsEmitted.Add(1) }

// RecordDrop records one writer call that no-oped (gate closed/not
// initialized, spec §7 "not-initialized... silently become no-ops").
func (m *Metrics) RecordDrop() { m.RecordsDropped.Add(1) }

// RecordEviction records n records overwritten during advance_pointers.
func (m *Metrics) RecordEviction(n uint64) { m.RecordsEvicted.Add(n) }

// RecordSnapshot records one completed snapshot's wall-clock latency and
// updates the cumulative histogram (teacher's CAS-free cumulative-bucket
// pattern from metrics.go).
func (m *Metrics) RecordSnapshot(latencyNs uint64) {
	m.SnapshotCount.Add(1)
	m.TotalSnapshotNs.Add(latencyNs)
	for i, bucket := range LatencyBuckets {
		if latencyNs <= bucket {
			m.SnapshotLatencyBuckets[i].Add(1)
		}
	}
}

// MetricsSnapshot is a point-in-time copy of Metrics, safe to hand to a
// caller without further synchronization.
type MetricsSnapshot struct {
	RecordsEmitted     uint64
	RecordsDropped     uint64
	RecordsEvicted     uint64
	TooManyTasksErrors uint64
	CorruptedWalks     uint64

	SnapshotCount   uint64
	AvgSnapshotNs   uint64
	UptimeNs        uint64

	SnapshotP50Ns  uint64
	SnapshotP99Ns  uint64
	SnapshotP999Ns uint64

	SnapshotLatencyHistogram [numLatencyBuckets]uint64
}

// Snapshot copies the current counters out.
func (m *Metrics) Snapshot() MetricsSnapshot {
	snap := MetricsSnapshot{
		RecordsEmitted:     m.RecordsEmitted.Load(),
		RecordsDropped:     m.RecordsDropped.Load(),
		RecordsEvicted:     m.RecordsEvicted.Load(),
		TooManyTasksErrors: m.TooManyTasksErrors.Load(),
		CorruptedWalks:     m.CorruptedWalks.Load(),
		SnapshotCount:      m.SnapshotCount.Load(),
	}

	totalNs := m.TotalSnapshotNs.Load()
	if snap.SnapshotCount > 0 {
		snap.AvgSnapshotNs = totalNs / snap.SnapshotCount
	}
	snap.UptimeNs = uint64(time.Now().UnixNano() - m.StartTime.Load())

	for i := 0; i < numLatencyBuckets; i++ {
		snap.SnapshotLatencyHistogram[i] = m.SnapshotLatencyBuckets[i].Load()
	}
	if snap.SnapshotCount > 0 {
		snap.SnapshotP50Ns = m.calculatePercentile(0.50)
		snap.SnapshotP99Ns = m.calculatePercentile(0.99)
		snap.SnapshotP999Ns = m.calculatePercentile(0.999)
	}
	return snap
}

// calculatePercentile estimates the snapshot latency at the given
// percentile (0.0-1.0) by linear interpolation between histogram
// buckets, identical in shape to the teacher's I/O-latency percentile
// estimator.
func (m *Metrics) calculatePercentile(percentile float64) uint64 {
	total := m.SnapshotCount.Load()
	if total == 0 {
		return 0
	}
	target := uint64(float64(total) * percentile)

	prevBucket := uint64(0)
	for i, bucket := range LatencyBuckets {
		count := m.SnapshotLatencyBuckets[i].Load()
		if count >= target {
			prevCount := uint64(0)
			if i > 0 {
				prevCount = m.SnapshotLatencyBuckets[i-1].Load()
			}
			if count == prevCount {
				return bucket
			}
			fraction := float64(target-prevCount) / float64(count-prevCount)
			return prevBucket + uint64(fraction*float64(bucket-prevBucket))
		}
		prevBucket = bucket
	}
	return LatencyBuckets[numLatencyBuckets-1]
}

// Observer allows pluggable metrics collection, mirroring the teacher's
// Observer/NoOpObserver/MetricsObserver trio.
type Observer interface {
	ObserveEmit()
	ObserveDrop()
	ObserveEviction(n uint64)
	ObserveSnapshot(latencyNs uint64)
}

// NoOpObserver discards every observation.
type NoOpObserver struct{}

func (NoOpObserver) ObserveEmit()                {}
func (NoOpObserver) ObserveDrop()                {}
func (NoOpObserver) ObserveEviction(uint64)      {}
func (NoOpObserver) ObserveSnapshot(uint64)      {}

// MetricsObserver implements Observer by forwarding into a Metrics.
type MetricsObserver struct {
	metrics *Metrics
}

// NewMetricsObserver builds an Observer that records into m.
func NewMetricsObserver(m *Metrics) *MetricsObserver {
	return &MetricsObserver{metrics: m}
}

func (o *MetricsObserver) ObserveEmit()           { o.metrics.RecordEmit() }
func (o *MetricsObserver) ObserveDrop()           { o.metrics.RecordDrop() }
func (o *MetricsObserver) ObserveEviction(n uint64) { o.metrics.RecordEviction(n) }
func (o *MetricsObserver) ObserveSnapshot(ns uint64) { o.metrics.RecordSnapshot(ns) }

var _ Observer = (*MetricsObserver)(nil)
var _ Observer = (*NoOpObserver)(nil)
