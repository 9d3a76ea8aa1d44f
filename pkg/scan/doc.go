// Package scan implements the adaptive scan scheduler.
//
// The scheduler decides when to scan and for how long, trading power and
// radio contention against detection latency. It runs in one of three
// cadence modes:
//
//   - SEARCHING: the faculty member is away. Scan often and long to
//     maximize the chance of catching the beacon the moment they arrive.
//   - MONITORING: the faculty member is present. Scan rarely and briefly;
//     the beacon is expected to be there and the radio should stay quiet.
//   - VERIFYING: the evidence is ambiguous. Scan at a short fixed interval
//     until a dwell period resolves which way to go.
//
// Confirming "gone" must not be instant (a single dropout would flap the
// status), so MONITORING only demotes to VERIFYING after consecutive
// misses. Confirming "arrived" tolerates more latency since nothing
// time-critical depends on it.
//
// During a presence grace period the cadence is overridden with a fixed
// fast reconnect interval regardless of mode.
//
// The scheduler is driven by the orchestrator's tick; Update is a no-op
// until the active cadence makes a scan due.
package scan
