// Package presence implements the debounced presence state machine.
//
// The tracker consumes per-scan hit/miss observations and exposes a stable
// presence value. Internally it layers three states:
//
//	CONFIRMED_PRESENT -> GRACE_PERIOD -> CONFIRMED_AWAY
//	        ^________________|                 |
//	        ^__________________________________|
//
// Consecutive misses while present start a grace period rather than
// flipping the status: BLE links drop for seconds at a time while the
// person has not moved. During the grace period the externally reported
// value stays at its pre-grace value; a single hit cancels the grace period
// silently. Only grace expiry flips the status to away, and only a run of
// consecutive hits flips it back to present. Each flip fires the status
// change callback exactly once.
//
// An optional RSSI floor treats weak detections as misses, so a beacon
// passing in the corridor outside does not register as present.
//
// The "timer" is a timestamp compared on each orchestrator tick; there is
// nothing to cancel, consistent with the unit's polling model.
package presence
