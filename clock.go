package paratick

import (
	"time"

	"github.com/intuitivelabs/timestamp"
)

// monotonicClock is the narrow collaborator interface standing in for
// ktime_get. Production code uses realClock, a one-line
// adapter over timestamp.Now(), the same monotonic timestamp package the
// teacher's tick loop (wtimer_ticker.go) uses for its own "now". Tests
// inject a fake (see faketick.Clock) so no real sleeps are needed to
// exercise the oracle or the engine.
type monotonicClock interface {
	// Now returns a monotonic instant, expressed as a duration since some
	// unspecified epoch fixed at process start. Only differences between
	// two Now() results are meaningful.
	Now() time.Duration
}

// realClock adapts timestamp.Now() to monotonicClock.
type realClock struct {
	start timestamp.TS
}

func newRealClock() *realClock {
	return &realClock{start: timestamp.Now()}
}

func (c *realClock) Now() time.Duration {
	return timestamp.Now().Sub(c.start)
}
