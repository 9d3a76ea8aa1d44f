package log

import (
	"testing"
	"time"
)

// captureLogger records events for test assertions.
type captureLogger struct {
	events []Event
}

func (c *captureLogger) Log(event Event) {
	c.events = append(c.events, event)
}

func TestMultiLoggerFansOut(t *testing.T) {
	a := &captureLogger{}
	b := &captureLogger{}
	multi := NewMultiLogger(a, b)

	multi.Log(Event{Timestamp: time.Now(), Component: ComponentUnit})

	if len(a.events) != 1 {
		t.Errorf("first logger events: got %d, want 1", len(a.events))
	}
	if len(b.events) != 1 {
		t.Errorf("second logger events: got %d, want 1", len(b.events))
	}
}

func TestOrNoop(t *testing.T) {
	if OrNoop(nil) == nil {
		t.Error("OrNoop(nil) returned nil")
	}

	c := &captureLogger{}
	if OrNoop(c) != Logger(c) {
		t.Error("OrNoop did not pass through a non-nil logger")
	}

	// Must not panic
	OrNoop(nil).Log(Event{})
}
