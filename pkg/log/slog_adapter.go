package log

import (
	"context"
	"log/slog"
)

// SlogAdapter writes unit events to an slog.Logger.
// Useful for development when you want to see unit events in console.
type SlogAdapter struct {
	logger *slog.Logger
}

// NewSlogAdapter creates a new SlogAdapter that writes to the given slog.Logger.
func NewSlogAdapter(logger *slog.Logger) *SlogAdapter {
	return &SlogAdapter{logger: logger}
}

// Log writes the event to the slog logger at a level matching its severity.
func (a *SlogAdapter) Log(event Event) {
	attrs := []slog.Attr{
		slog.Int("faculty_id", event.FacultyID),
		slog.String("component", event.Component.String()),
	}

	// Add type-specific attributes
	switch {
	case event.Scan != nil:
		attrs = append(attrs,
			slog.String("mode", event.Scan.Mode),
			slog.Bool("matched", event.Scan.Matched),
			slog.Duration("scan_duration", event.Scan.Duration),
		)
		if event.Scan.Matched {
			attrs = append(attrs, slog.Int("rssi", event.Scan.RSSI))
		}
		if event.Scan.Failed {
			attrs = append(attrs, slog.Bool("scan_failed", true))
		}
	case event.Mode != nil:
		attrs = append(attrs,
			slog.String("old_mode", event.Mode.OldMode),
			slog.String("new_mode", event.Mode.NewMode),
		)
		if event.Mode.Reason != "" {
			attrs = append(attrs, slog.String("reason", event.Mode.Reason))
		}
	case event.Presence != nil:
		attrs = append(attrs,
			slog.String("change", event.Presence.Change.String()),
			slog.Bool("present", event.Presence.Present),
		)
		if event.Presence.GraceRemaining != nil {
			attrs = append(attrs, slog.Duration("grace_remaining", *event.Presence.GraceRemaining))
		}
	case event.Queue != nil:
		attrs = append(attrs,
			slog.String("op", event.Queue.Op.String()),
			slog.Int("queue_size", event.Queue.Size),
		)
		if event.Queue.MessageID != "" {
			attrs = append(attrs, slog.String("msg_id", event.Queue.MessageID))
		}
		if event.Queue.Topic != "" {
			attrs = append(attrs, slog.String("topic", event.Queue.Topic))
		}
		if event.Queue.RetryCount > 0 {
			attrs = append(attrs, slog.Int("retry_count", event.Queue.RetryCount))
		}
	case event.Publish != nil:
		attrs = append(attrs,
			slog.String("topic", event.Publish.Topic),
			slog.Int("bytes", event.Publish.Bytes),
			slog.Int("attempt", event.Publish.Attempt),
			slog.String("outcome", event.Publish.Outcome),
		)
		if event.Publish.Response {
			attrs = append(attrs, slog.Bool("response", true))
		}
		if event.Publish.Retained {
			attrs = append(attrs, slog.Bool("retained", true))
		}
	case event.Transport != nil:
		attrs = append(attrs, slog.Bool("connected", event.Transport.Connected))
		if event.Transport.Broker != "" {
			attrs = append(attrs, slog.String("broker", event.Transport.Broker))
		}
		if event.Transport.Reason != "" {
			attrs = append(attrs, slog.String("reason", event.Transport.Reason))
		}
	case event.Stats != nil:
		attrs = append(attrs,
			slog.Uint64("scans", event.Stats.Scans),
			slog.Uint64("hits", event.Stats.Hits),
			slog.Uint64("misses", event.Stats.Misses),
			slog.Uint64("mode_changes", event.Stats.ModeChanges),
			slog.String("mode", event.Stats.Mode),
			slog.Bool("present", event.Stats.Present),
		)
	case event.Error != nil:
		attrs = append(attrs, slog.String("error_msg", event.Error.Message))
		if event.Error.Context != "" {
			attrs = append(attrs, slog.String("error_context", event.Error.Context))
		}
	}

	a.logger.LogAttrs(context.Background(), slogLevel(event.Severity), "unit", attrs...)
}

// slogLevel maps an event severity to an slog level.
func slogLevel(s Severity) slog.Level {
	switch s {
	case SeverityDebug:
		return slog.LevelDebug
	case SeverityInfo:
		return slog.LevelInfo
	case SeverityWarn:
		return slog.LevelWarn
	case SeverityError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Compile-time interface satisfaction check.
var _ Logger = (*SlogAdapter)(nil)
