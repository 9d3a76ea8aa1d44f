package beacon

import (
	"context"
	"time"
)

// Observation is the result of a single bounded scan.
// It is produced per scan and consumed immediately; nothing retains it.
type Observation struct {
	// Matched indicates the target beacon was observed during the scan.
	Matched bool

	// RSSI is the strongest signal strength observed for the target, in
	// dBm. Zero when Matched is false or the executor cannot measure it.
	RSSI int

	// ObservedAt is when the scan completed.
	ObservedAt time.Time
}

// Executor performs one bounded-duration scan for the target beacon.
//
// Scan blocks for at most the given duration (executors may return early on
// a match). A non-nil error means the radio failed; callers treat that as a
// miss for the tick and must not treat it as fatal.
type Executor interface {
	Scan(ctx context.Context, duration time.Duration) (Observation, error)
}
