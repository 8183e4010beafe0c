package paratick

import "time"

// TickPeriod is the minimum tick granularity: 4,000,000 ns. Deferrals
// shorter than this round up to a full tick.
const TickPeriod time.Duration = 4_000_000 * time.Nanosecond

// timekeeperNone is the "no CPU is timekeeper" sentinel for Manager's
// process-wide TimekeeperCpu variable.
const timekeeperNone int64 = -1
