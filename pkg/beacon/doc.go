// Package beacon provides target-beacon matching and bounded-duration scan
// execution.
//
// A faculty member carries a beacon identified by MAC address. The unit
// periodically runs one bounded scan and reports whether the target was
// observed, with signal strength when available.
//
// Two production executors are provided:
//   - BLEExecutor scans for BLE advertisements (the standard hardware).
//   - MDNSExecutor browses for a desk-beacon mDNS service, for units whose
//     beacon is a phone or laptop agent instead of BLE hardware.
//
// ScriptedExecutor replays a fixed observation sequence for tests and the
// interactive simulator.
//
// A failed scan is reported as a miss alongside the error; the radio being
// transiently unavailable must never take the unit down.
package beacon
