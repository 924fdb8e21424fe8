package ring

import (
	"context"
	"sync/atomic"

	"github.com/cenkalti/backoff/v5"

	"github.com/tracecore/tracecore/internal/constants"
)

// Gate is the writer admission gate (spec §4.4): an enabled flag plus an
// in-flight writer counter, letting a snapshotter drain writers without
// ever blocking them.
type Gate struct {
	enabled   atomic.Bool
	inFlight  atomic.Int64
	ready     atomic.Bool // set once Init has run (spec §4.4 step 1)
}

// NewGate returns a Gate that is not yet ready to admit writers; Open
// must be called once initialization completes (spec §6 init: "sets the
// gate to enabled").
func NewGate() *Gate {
	return &Gate{}
}

// Open marks the gate initialized and enabled.
func (g *Gate) Open() {
	g.ready.Store(true)
	g.enabled.Store(true)
}

// Enter implements spec §4.4 steps 1-3 for a writer operation: if the
// gate was never initialized, the caller should no-op (spec §7
// "not-initialized... silently become no-ops") and must not call Leave,
// since nothing was counted. Otherwise the in-flight counter is
// incremented unconditionally so the drain loop can observe in-progress
// work even when tracing has just been disabled, and the caller must
// call Leave exactly once to balance it. admitted tells the caller
// whether to actually do the work of §4.3; counted tells it whether a
// matching Leave is required.
func (g *Gate) Enter() (admitted, counted bool) {
	if !g.ready.Load() {
		return false, false
	}
	g.inFlight.Add(1)
	return g.enabled.Load(), true
}

// Leave implements spec §4.4 step 5: decrement in_flight_writers. Call
// only when the matching Enter reported counted == true. There is no
// ISR-exit yield request in a host-process port; that concern belongs to
// the platform package on a real executive target.
func (g *Gate) Leave() {
	g.inFlight.Add(-1)
}

// Close disables admission (spec §4.5 step 1 "Set tracing_enabled :=
// false") without waiting for drain; call Drain afterward.
func (g *Gate) Close() {
	g.enabled.Store(false)
}

// Drain polls in_flight_writers until it reaches zero, backing off
// cooperatively between polls rather than spinning (spec §4.5 step 1,
// §5 "waits with cooperative delays (never a spin)"). Grounded on
// yanet2's use of cenkalti/backoff for exactly this shape of
// poll-until-condition loop.
func (g *Gate) Drain(ctx context.Context) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = constants.DrainPollInterval
	b.MaxInterval = constants.DrainPollMaxInterval

	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		if g.inFlight.Load() == 0 {
			return struct{}{}, nil
		}
		return struct{}{}, errNotDrained
	}, backoff.WithBackOff(b))
	return err
}

var errNotDrained = drainError("ring: writers still in flight")

type drainError string

func (e drainError) Error() string { return string(e) }

// Reopen re-enables admission after a drained snapshot completes (spec
// §4.5 step 7).
func (g *Gate) Reopen() {
	g.enabled.Store(true)
}

// InFlight reports the current in-flight writer count, for tests and
// metrics.
func (g *Gate) InFlight() int64 { return g.inFlight.Load() }
