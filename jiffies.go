package paratick

import (
	"strconv"
)

// JiffyBits sizes the wraparound arithmetic for the jiffies counter a
// WallClock implementation maintains (see faketick.WallClock for the one
// this repo ships). Real jiffies counters wrap; comparisons must stay
// correct across the wrap the same way the MAX_DEFERMENT clamp exists to
// bound how far ahead of the last update a tick may defer.
const (
	JiffyBits    = 32
	maxJiffyDiff = 1 << (JiffyBits - 1)
	jiffyMask    = (maxJiffyDiff - 1) | maxJiffyDiff
)

// Jiffies is a monotonically increasing, wraparound-safe tick counter.
// It has no zero or reference value of its own; two Jiffies values can
// only be meaningfully compared if their difference is strictly less than
// maxJiffyDiff ticks apart. Comparisons must use the methods below, never
// raw integer comparison.
type Jiffies struct {
	v uint64
}

// NewJiffies wraps a raw counter value.
func NewJiffies(u uint64) Jiffies {
	return Jiffies{u & jiffyMask}
}

// Val returns the counter value as a uint64.
func (j Jiffies) Val() uint64 {
	return j.v & jiffyMask
}

// EQ reports whether j == k, accounting for wraparound.
func (j Jiffies) EQ(k Jiffies) bool {
	return (j.v-k.v)&jiffyMask == 0
}

// LT reports whether j < k, accounting for wraparound.
func (j Jiffies) LT(k Jiffies) bool {
	return (j.v-k.v)&maxJiffyDiff != 0
}

// GE reports whether j >= k, accounting for wraparound.
func (j Jiffies) GE(k Jiffies) bool {
	return (j.v-k.v)&maxJiffyDiff == 0
}

// Add adds a raw delta and returns the result.
func (j Jiffies) Add(delta uint64) Jiffies {
	return Jiffies{(j.v + delta) & jiffyMask}
}

// Sub returns the wraparound-safe difference j - k, as a raw delta. Only
// meaningful when |j-k| < maxJiffyDiff.
func (j Jiffies) Sub(k Jiffies) uint64 {
	return (j.v - k.v) & jiffyMask
}

func (j Jiffies) String() string {
	return strconv.FormatUint(j.v, 10)
}
