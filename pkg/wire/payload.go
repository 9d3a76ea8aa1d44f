package wire

import (
	"encoding/json"
	"errors"
	"time"
)

// Status strings published in status payloads.
const (
	// StatusAvailable is published while the faculty member is present.
	StatusAvailable = "AVAILABLE"

	// StatusAway is published once absence is confirmed.
	StatusAway = "AWAY"
)

// ResponseType identifies how the faculty member answered a consultation
// request.
type ResponseType string

const (
	// ResponseAcknowledge accepts the consultation request.
	ResponseAcknowledge ResponseType = "ACKNOWLEDGE"

	// ResponseBusy declines the consultation request.
	ResponseBusy ResponseType = "BUSY"
)

// ResponseMethodButton is the response_method value for the unit's physical
// buttons. It is the only input method this hardware revision has.
const ResponseMethodButton = "physical_button"

// Payload validation errors.
var (
	ErrMissingFacultyID = errors.New("faculty_id is required")
	ErrMissingMessageID = errors.New("message_id is required")
	ErrBadResponseType  = errors.New("response_type must be ACKNOWLEDGE or BUSY")
	ErrNotPresent       = errors.New("faculty_present must be true for a response")
	ErrBadStatus        = errors.New("status must be AVAILABLE or AWAY")
)

// StatusPayload is published on the status topic whenever the externally
// visible presence changes, and mirrored to the legacy status topic.
type StatusPayload struct {
	FacultyID   int    `json:"faculty_id"`
	FacultyName string `json:"faculty_name"`
	Present     bool   `json:"present"`
	Status      string `json:"status"`
	Timestamp   int64  `json:"timestamp"`

	InGracePeriod bool `json:"in_grace_period"`

	// GracePeriodRemaining is the remaining grace time in milliseconds.
	// Only present while InGracePeriod is true.
	GracePeriodRemaining *int64 `json:"grace_period_remaining,omitempty"`
}

// Validate checks the payload invariants.
func (p *StatusPayload) Validate() error {
	if p.FacultyID < 1 {
		return ErrMissingFacultyID
	}
	if p.Status != StatusAvailable && p.Status != StatusAway {
		return ErrBadStatus
	}
	return nil
}

// ResponsePayload is published on the responses topic when the faculty
// member answers a consultation request with a button press.
type ResponsePayload struct {
	FacultyID    int          `json:"faculty_id"`
	FacultyName  string       `json:"faculty_name"`
	ResponseType ResponseType `json:"response_type"`

	// MessageID correlates this response to the originating request.
	MessageID string `json:"message_id"`

	Timestamp int64 `json:"timestamp"`

	// FacultyPresent must be true by construction: the orchestrator only
	// accepts button input while presence is reported PRESENT.
	FacultyPresent bool `json:"faculty_present"`

	ResponseMethod string `json:"response_method"`

	// Status is a human-readable summary shown in the central system's
	// consultation history.
	Status string `json:"status"`
}

// Validate checks the payload invariants.
func (p *ResponsePayload) Validate() error {
	if p.FacultyID < 1 {
		return ErrMissingFacultyID
	}
	if p.MessageID == "" {
		return ErrMissingMessageID
	}
	if p.ResponseType != ResponseAcknowledge && p.ResponseType != ResponseBusy {
		return ErrBadResponseType
	}
	if !p.FacultyPresent {
		return ErrNotPresent
	}
	return nil
}

// HeartbeatPayload is published periodically on the heartbeat topic so the
// central system can distinguish "away" from "unit offline".
type HeartbeatPayload struct {
	FacultyID int   `json:"faculty_id"`
	Timestamp int64 `json:"timestamp"`
	Present   bool  `json:"present"`

	// QueueSize reports the pending delivery backlog for fleet monitoring.
	QueueSize int `json:"queue_size"`
}

// Validate checks the payload invariants.
func (p *HeartbeatPayload) Validate() error {
	if p.FacultyID < 1 {
		return ErrMissingFacultyID
	}
	return nil
}

// ConsultationMessage is the inbound payload on the messages topic.
// Only the fields the unit routes on are decoded; the display subsystem
// receives the raw payload alongside.
type ConsultationMessage struct {
	MessageID   string `json:"message_id"`
	StudentName string `json:"student_name,omitempty"`
	CourseCode  string `json:"course_code,omitempty"`
	Message     string `json:"message,omitempty"`
}

// Encode marshals a payload to JSON after validating it.
func Encode(p interface{ Validate() error }) ([]byte, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return json.Marshal(p)
}

// UptimeMillis converts a wall-clock instant to device-uptime milliseconds
// relative to the given start anchor.
func UptimeMillis(start, now time.Time) int64 {
	d := now.Sub(start)
	if d < 0 {
		return 0
	}
	return d.Milliseconds()
}
