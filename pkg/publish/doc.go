// Package publish implements reliable outbound delivery over an unreliable
// broker link.
//
// PublishReliable tries a bounded number of immediate sends; if they fail,
// or the transport is known disconnected, the message degrades to the
// offline queue instead of being lost. DrainQueue later retries queued
// messages strictly oldest-first, one message per orchestrator tick, so a
// backlog never blows the tick latency budget.
//
// Delivery semantics differ by message class. Faculty responses are
// at-least-once: never retained, with a longer post-publish settle window
// to maximize broker acceptance. Status and heartbeat messages are best
// effort: a shorter window, and status is retained so a reconnecting
// subscriber immediately learns the last-known value.
//
// Transport failure is never fatal. The only rejection is a payload larger
// than the transport maximum, which no retry can fix.
package publish
