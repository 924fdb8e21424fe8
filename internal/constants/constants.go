// Package constants holds the default tuning values for the tracer core.
package constants

import "time"

const (
	// DefaultBufferSize is the ring buffer size used when a Config omits one.
	DefaultBufferSize = 64 * 1024

	// DefaultMaxTasks bounds the task identity registry. Identifier 0 is
	// reserved for interrupt/no-task context, so a registry of this size
	// can name DefaultMaxTasks-1 distinct tasks.
	DefaultMaxTasks = 16

	// DefaultMaxCPUs bounds the cpu_id field packed into the record header.
	DefaultMaxCPUs = 2

	// MinRecordSize is the size of the smallest record kind (TASK_SWITCH_IN/
	// OUT: header byte plus 8-byte timestamp), equal to record.MinSize,
	// which bounds a buffer's number of outstanding records.
	MinRecordSize = 9
)

// DrainPollInterval is the cooperative delay between polls of the in-flight
// writer counter during admission drain (§4.5 step 1). Short enough that a
// snapshot does not stall noticeably, long enough that the poll loop does
// not spin the CPU while writers finish.
const DrainPollInterval = 50 * time.Microsecond

// DrainPollMaxInterval caps the backoff applied to DrainPollInterval when a
// drain takes longer than expected (a writer parked by the scheduler).
const DrainPollMaxInterval = 5 * time.Millisecond

// ExportYieldEvery is how many records the snapshot walker serializes
// before yielding to the scheduler (§4.5 step 6).
const ExportYieldEvery = 256
