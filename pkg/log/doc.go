// Package log provides structured event logging for the faculty desk unit.
//
// This package defines the Logger interface and Event types for capturing
// runtime events at every layer of the presence core (scanning, presence
// tracking, queueing, publishing, transport). It is separate from
// operational logging (slog) - event capture provides a complete
// machine-readable trace for debugging a unit in the field.
//
// # Basic Usage
//
// Applications configure logging by providing a Logger implementation:
//
//	// For development: log to console via slog
//	cfg.EventLogger = log.NewSlogAdapter(slog.Default())
//
//	// For production: write to binary file
//	cfg.EventLogger, _ = log.NewFileLogger("/var/log/deskunit/unit.dlog")
//
//	// Both: use MultiLogger
//	cfg.EventLogger = log.NewMultiLogger(
//	    log.NewSlogAdapter(slog.Default()),
//	    log.NewFileLogger("/var/log/deskunit/unit.dlog"),
//	)
//
// # Event Types
//
// Events are captured per component:
//   - Scan: individual scan results and mode changes
//   - Presence: grace-period and presence transitions
//   - Queue: enqueue, eviction, retry exhaustion
//   - Publish: delivery attempts and outcomes
//   - Transport: broker connectivity changes
//
// Errors at any layer have a dedicated event type.
//
// # File Format
//
// Log files use CBOR encoding with .dlog extension. The Reader type
// provides filtered streaming access for analysis tooling.
package log
