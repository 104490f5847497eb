package channel

import (
	"math"
	"math/rand"
	"time"
)

// expBackoff computes bounded exponential reconnect delays with jitter so
// the channel never hot-loops against an unreachable broker and a fleet of
// clients does not reconnect in lockstep.
type expBackoff struct {
	// Min is the delay before the first retry. Defaults to 500ms.
	Min time.Duration
	// Max caps the delay. Defaults to 30s.
	Max time.Duration
}

// interval returns the delay to wait after the given zero-based attempt.
func (b *expBackoff) interval(attempt uint64) time.Duration {
	lo := b.Min
	if lo <= 0 {
		lo = 500 * time.Millisecond
	}
	hi := b.Max
	if hi < lo {
		hi = 30 * time.Second
	}

	// Clamp the exponent so the pre-jitter value never exceeds the cap.
	factor := math.Pow(2, math.Min(
		float64(attempt),
		math.Log2(float64(hi)/float64(lo)),
	))
	factor = jitter(factor)

	d := time.Duration(factor * float64(lo))
	if d > hi {
		d = hi
	}
	if d < lo {
		d = lo
	}
	return d
}

// jitter scales base to between 95% and 105% to avoid synchronized retries.
func jitter(base float64) float64 {
	// #nosec G404
	return base * (.95 + .1*rand.Float64())
}
