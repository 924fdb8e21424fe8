package tracecore

import "github.com/tracecore/tracecore/internal/constants"

// Re-exported defaults for public API consumers (spec §6 "a single
// compile-time constant controls the default buffer size").
const (
	DefaultBufferSize = constants.DefaultBufferSize
	DefaultMaxTasks   = constants.DefaultMaxTasks
	DefaultMaxCPUs    = constants.DefaultMaxCPUs
	MinRecordSize     = constants.MinRecordSize
)
