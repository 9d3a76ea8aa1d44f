// Package wire defines the JSON payloads and MQTT topic layout shared with
// the central system.
//
// This is the single source of truth for every payload the unit publishes.
// Field names and types are fixed by the central system's subscribers; do
// not rename fields without coordinating a central-system release.
//
// Each payload type has a Validate method checking the invariants the
// central system relies on (for example, a response is only valid while the
// faculty member is present).
//
// Timestamps are device uptime in milliseconds, anchored at unit start.
// The central system correlates them against its own receive time; they are
// not wall-clock values.
package wire
