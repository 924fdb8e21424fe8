//go:build !notrace

package tracecore

// Enabled is the compile-time switch spec §6 calls for ("a single
// compile-time constant controls whether instrumentation is compiled in
// at all"). Building with -tags notrace flips this to false (see
// noop_disabled.go); every Tracer method that stamps a record checks it
// first, so a notrace build's compiler sees each call as dead code after
// the check and elides the body entirely, same as the original's
// TRACE_ENABLED preprocessor guard but without requiring callers to
// wrap every call site in #ifdef.
const Enabled = true
